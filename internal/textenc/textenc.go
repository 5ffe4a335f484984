// Package textenc decodes uploaded file bytes by trying a fixed list of
// encodings in order.
package textenc

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/ignite/vcfbot/internal/domain"
)

// Candidate is one named encoding attempt.
type Candidate struct {
	Name     string
	Encoding encoding.Encoding
}

// DefaultCandidates is the fallback order for uploads. UTF-8 is strict; the
// single-byte charsets after it accept any input, so in practice the chain
// always ends at ISO-8859-1 for non-UTF-8 files.
var DefaultCandidates = []Candidate{
	{Name: "utf-8", Encoding: unicode.UTF8},
	{Name: "iso-8859-1", Encoding: charmap.ISO8859_1},
	{Name: "windows-1252", Encoding: charmap.Windows1252},
	{Name: "iso-8859-15", Encoding: charmap.ISO8859_15},
}

const utf8BOM = "\ufeff"

// Decode returns raw as text using DefaultCandidates.
func Decode(raw []byte) (string, string, error) {
	return DecodeWith(raw, DefaultCandidates)
}

// DecodeWith returns the text and the name of the first candidate that
// decodes raw without error. It wraps domain.ErrUndecodableContent when none
// does.
func DecodeWith(raw []byte, candidates []Candidate) (string, string, error) {
	for _, c := range candidates {
		text, ok := decode(raw, c.Encoding)
		if ok {
			return strings.TrimPrefix(text, utf8BOM), c.Name, nil
		}
	}
	return "", "", fmt.Errorf("tried %d encodings: %w", len(candidates), domain.ErrUndecodableContent)
}

func decode(raw []byte, enc encoding.Encoding) (string, bool) {
	if enc == unicode.UTF8 {
		// The x/text UTF-8 decoder substitutes U+FFFD instead of failing.
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}
