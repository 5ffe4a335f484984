// Package phone extracts candidate phone numbers from free-form text and
// normalizes them to a single prefix convention.
//
// Extraction is a syntactic spam filter, not a validity check: a candidate
// survives when it has 10 to 15 characters (digits plus an optional leading
// '+') and at least three distinct digit values. Nothing here consults a
// numbering-plan authority, and the national-prefix heuristics in Normalize
// are policy for one region, configurable through Policy.
package phone

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultCountryCode is the national calling code assumed for local numbers.
	DefaultCountryCode = "62"

	minCandidateLen    = 10
	maxCandidateLen    = 15
	minDistinctDigits  = 3
	defaultForeignLead = "1"
)

// Policy holds the region-specific normalization rules and the compiled
// extraction patterns derived from them. A Policy is immutable and safe for
// concurrent use.
type Policy struct {
	CountryCode string
	// ForeignLead is the leading digit that marks a bare number as already
	// international rather than national.
	ForeignLead string

	patterns []*regexp.Regexp
}

// DefaultPolicy is the +62 policy used by the package-level helpers.
var DefaultPolicy = NewPolicy(DefaultCountryCode)

// NewPolicy compiles a policy for the given country calling code.
// An empty code falls back to DefaultCountryCode.
func NewPolicy(countryCode string) *Policy {
	cc := strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if cc == "" {
		cc = DefaultCountryCode
	}
	return &Policy{
		CountryCode: cc,
		ForeignLead: defaultForeignLead,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(fmt.Sprintf(`\+?%s\d{8,15}`, regexp.QuoteMeta(cc))),
			regexp.MustCompile(`0\d{8,15}`),
			regexp.MustCompile(`\+\d{10,15}`),
			regexp.MustCompile(`\d{10,15}`),
		},
	}
}

// Extract returns the accepted candidates in text, deduplicated by exact
// string and ordered by first occurrence. Patterns run in order over the
// whole input, so one substring may be matched more than once before dedup.
func (p *Policy) Extract(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, re := range p.patterns {
		for _, m := range re.FindAllString(text, -1) {
			c := Clean(m)
			if !acceptable(c) {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Normalize returns the '+'-prefixed international form of number.
// Already '+'-prefixed input is returned unchanged (after trimming).
func (p *Policy) Normalize(number string) string {
	n := strings.TrimSpace(number)
	switch {
	case n == "":
		return n
	case strings.HasPrefix(n, "+"):
		return n
	case strings.HasPrefix(n, "0"):
		return "+" + p.CountryCode + n[1:]
	case strings.HasPrefix(n, p.CountryCode):
		return "+" + n
	case len(n) >= minCandidateLen && !strings.HasPrefix(n, p.ForeignLead):
		return "+" + p.CountryCode + n
	default:
		return "+" + n
	}
}

// Local returns the form without '+': the national calling code becomes a
// leading trunk '0', foreign numbers just lose the '+'.
func (p *Policy) Local(number string) string {
	n := strings.TrimPrefix(p.Normalize(number), "+")
	if strings.HasPrefix(n, p.CountryCode) {
		return "0" + n[len(p.CountryCode):]
	}
	return n
}

// NormalizeBatch coerces every member to one convention: the '+' form when
// any member already carries a '+', the local form otherwise.
func (p *Policy) NormalizeBatch(numbers []string) []string {
	plus := false
	for _, n := range numbers {
		if strings.HasPrefix(strings.TrimSpace(n), "+") {
			plus = true
			break
		}
	}
	out := make([]string, len(numbers))
	for i, n := range numbers {
		if plus {
			out[i] = p.Normalize(n)
		} else {
			out[i] = p.Local(n)
		}
	}
	return out
}

// Clean keeps only digits and a leading '+'.
func Clean(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
		} else if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func acceptable(clean string) bool {
	if len(clean) < minCandidateLen || len(clean) > maxCandidateLen {
		return false
	}
	distinct := make(map[rune]struct{}, 10)
	for _, r := range strings.TrimPrefix(clean, "+") {
		distinct[r] = struct{}{}
	}
	return len(distinct) >= minDistinctDigits
}

// Extract runs DefaultPolicy.Extract.
func Extract(text string) []string { return DefaultPolicy.Extract(text) }

// Normalize runs DefaultPolicy.Normalize.
func Normalize(number string) string { return DefaultPolicy.Normalize(number) }

// NormalizeBatch runs DefaultPolicy.NormalizeBatch.
func NormalizeBatch(numbers []string) []string { return DefaultPolicy.NormalizeBatch(numbers) }
