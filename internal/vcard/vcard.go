// Package vcard reads and writes the card format: a concatenation of
// vCard 3.0 records each carrying one formatted name and one telephone
// value. It also builds cards from the pasted raw-text format and writes
// the plain text format (one number per line).
package vcard

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ignite/vcfbot/internal/domain"
)

const (
	beginMarker = "BEGIN:VCARD"
	endMarker   = "END:VCARD"
	versionTag  = "VERSION:3.0"

	fieldName  = "FN"
	fieldPhone = "TEL"
)

// Parse returns the contacts found in text, in order. Records are the
// non-overlapping BEGIN/END blocks; within each block the first FN and the
// first TEL field win. An empty FN still counts as a name; an empty TEL does
// not count as a phone. A block missing either field is skipped, so the
// result can be shorter than the number of blocks. Parse never fails.
func Parse(text string) []domain.Contact {
	var (
		out     []domain.Contact
		inBlock bool
		name    string
		tel     string
		hasName bool
		hasTel  bool
	)
	for _, line := range unfold(text) {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(trimmed, beginMarker):
			inBlock = true
			name, tel, hasName, hasTel = "", "", false, false
			continue
		case strings.EqualFold(trimmed, endMarker):
			if inBlock && hasName && hasTel {
				out = append(out, domain.Contact{DisplayName: name, Phone: tel})
			}
			inBlock = false
			continue
		case !inBlock:
			continue
		}

		prop, value, ok := splitField(trimmed)
		if !ok {
			continue
		}
		switch prop {
		case fieldName:
			if !hasName {
				name, hasName = value, true
			}
		case fieldPhone:
			if !hasTel && value != "" {
				tel, hasTel = value, true
			}
		}
	}
	return out
}

// Serialize writes one four-field record per contact. Names are written as
// given; callers pass them through SanitizeName first. A contact with an
// empty Phone is written but does not parse back.
func Serialize(contacts []domain.Contact) string {
	var b strings.Builder
	for _, c := range contacts {
		b.WriteString(beginMarker)
		b.WriteByte('\n')
		b.WriteString(versionTag)
		b.WriteByte('\n')
		b.WriteString(fieldName + ":" + c.DisplayName)
		b.WriteByte('\n')
		b.WriteString(fieldPhone + ":" + c.Phone)
		b.WriteByte('\n')
		b.WriteString(endMarker)
		b.WriteByte('\n')
	}
	return b.String()
}

var (
	delimiterRe  = regexp.MustCompile(`[;\r\n]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SanitizeName replaces record delimiters with spaces, collapses whitespace
// and trims. Every other rune, emoji included, is kept.
func SanitizeName(raw string) string {
	cleaned := delimiterRe.ReplaceAllString(raw, " ")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// NameForIndex returns base when total is 1, otherwise "base index" with a
// 1-based index.
func NameForIndex(base string, index, total int) string {
	if total == 1 {
		return base
	}
	return base + " " + strconv.Itoa(index)
}

// FromNumbers expands one contact name over a list of numbers. normalize may
// be nil to keep numbers as given.
func FromNumbers(numbers []string, contactName string, normalize func(string) string) []domain.Contact {
	base := SanitizeName(contactName)
	out := make([]domain.Contact, 0, len(numbers))
	for i, n := range numbers {
		if normalize != nil {
			n = normalize(n)
		}
		out = append(out, domain.Contact{
			DisplayName: NameForIndex(base, i+1, len(numbers)),
			Phone:       n,
		})
	}
	return out
}

// Numbers returns the phone values of contacts, in order.
func Numbers(contacts []domain.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.Phone
	}
	return out
}

// WriteNumbers renders the text format: one number per line, no header.
func WriteNumbers(numbers []string) string {
	return strings.Join(numbers, "\n")
}

// splitField splits "GROUP.PROP;PARAMS:value" into the bare upper-case
// property name and the trimmed value.
func splitField(line string) (string, string, bool) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}
	prop := line[:idx]
	if semi := strings.IndexByte(prop, ';'); semi >= 0 {
		prop = prop[:semi]
	}
	if dot := strings.LastIndexByte(prop, '.'); dot >= 0 {
		prop = prop[dot+1:]
	}
	return strings.ToUpper(strings.TrimSpace(prop)), strings.TrimSpace(line[idx+1:]), true
}

// unfold splits text into logical lines, joining RFC 6350 continuation lines
// (those starting with a space or tab) onto the previous line.
func unfold(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if len(out) > 0 && l != "" && (l[0] == ' ' || l[0] == '\t') {
			out[len(out)-1] += l[1:]
			continue
		}
		out = append(out, l)
	}
	return out
}
