package vcard

import (
	"fmt"
	"strings"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/phone"
)

const cardExt = ".vcf"

// NameStat counts the contacts generated under one header name.
type NameStat struct {
	Name  string
	Count int
}

// RawTextResult is the outcome of converting pasted raw text to one card file.
type RawTextResult struct {
	Filename string
	Contacts []domain.Contact
	Stats    []NameStat
}

// BuildFromRawText converts the pasted format
//
//	output_name
//
//	contact name
//	number
//	number
//
//	other contact
//	number
//
// into card contacts. The first line names the output file; each blank-line
// separated block is a header line followed by one or more numbers. Blocks
// with fewer than two lines are skipped. Numbers are cleaned and normalized
// with policy (DefaultPolicy when nil).
func BuildFromRawText(text string, policy *phone.Policy) (*RawTextResult, error) {
	if policy == nil {
		policy = phone.DefaultPolicy
	}
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	rawLines := strings.Split(text, "\n")
	lines := make([]string, len(rawLines))
	for i, l := range rawLines {
		lines[i] = strings.TrimSpace(l)
	}
	if len(lines) < 3 {
		return nil, fmt.Errorf("raw text has %d lines: %w", len(lines), domain.ErrInvalidFormat)
	}

	filename := outputFilename(lines[0])
	if filename == "" {
		return nil, fmt.Errorf("empty output name: %w", domain.ErrInvalidFormat)
	}

	res := &RawTextResult{Filename: filename}
	statIdx := make(map[string]int)

	for _, block := range strings.Split(strings.Join(lines[1:], "\n"), "\n\n") {
		var blockLines []string
		for _, l := range strings.Split(block, "\n") {
			if l != "" {
				blockLines = append(blockLines, l)
			}
		}
		if len(blockLines) < 2 {
			continue
		}

		base := SanitizeName(blockLines[0])
		var numbers []string
		for _, l := range blockLines[1:] {
			if c := phone.Clean(l); c != "" && c != "+" {
				numbers = append(numbers, policy.Normalize(c))
			}
		}
		if base == "" || len(numbers) == 0 {
			continue
		}

		for i, n := range numbers {
			res.Contacts = append(res.Contacts, domain.Contact{
				DisplayName: NameForIndex(base, i+1, len(numbers)),
				Phone:       n,
			})
		}
		if idx, ok := statIdx[base]; ok {
			res.Stats[idx].Count += len(numbers)
		} else {
			statIdx[base] = len(res.Stats)
			res.Stats = append(res.Stats, NameStat{Name: base, Count: len(numbers)})
		}
	}

	if len(res.Contacts) == 0 {
		return nil, fmt.Errorf("no contact blocks: %w", domain.ErrInvalidFormat)
	}
	return res, nil
}

func outputFilename(first string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(first))
	if name == "" {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(name), cardExt) {
		return name
	}
	return name + cardExt
}
