// Package naming derives output filenames: mirrored from input names, or a
// custom incrementing sequence seeded by a name that ends in digits.
package naming

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ignite/vcfbot/internal/domain"
)

// File extensions for the two formats.
const (
	ExtCard = ".vcf"
	ExtText = ".txt"
)

// ErrEmptyName is returned by OutputBase when nothing usable remains.
var ErrEmptyName = errors.New("output name is empty")

var seedRe = regexp.MustCompile(`^(.*?)(\d+)$`)

// DefaultName swaps a trailing from-suffix (case-insensitive) for the
// to-suffix. Names without the from-suffix get the to-suffix appended.
func DefaultName(input, from, to string) string {
	if from != "" && strings.HasSuffix(strings.ToLower(input), strings.ToLower(from)) {
		input = input[:len(input)-len(from)]
	}
	return input + to
}

// CustomSequence splits seed at its trailing digit run into prefix and start
// number and returns count names prefix+(start+i)+ext. The digit run may be
// longer than any machine integer. It is a pure function of its arguments,
// so it can preview names before any file is produced.
func CustomSequence(seed string, count int, ext string) ([]string, error) {
	prefix, start, err := splitSeed(seed)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return []string{}, nil
	}
	one := big.NewInt(1)
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = prefix + start.String() + ext
		start.Add(start, one)
	}
	return out, nil
}

// Preview returns up to limit leading names of a custom sequence and, when
// the sequence is longer, its last name.
func Preview(seed string, count, limit int, ext string) (head []string, last string, err error) {
	all, err := CustomSequence(seed, count, ext)
	if err != nil {
		return nil, "", err
	}
	if len(all) <= limit {
		return all, "", nil
	}
	return all[:limit], all[len(all)-1], nil
}

// ValidSeed reports whether seed ends in a digit run.
func ValidSeed(seed string) bool {
	_, _, err := splitSeed(seed)
	return err == nil
}

// OutputBase turns user-typed text into a safe output filename with ext.
func OutputBase(raw, ext string) (string, error) {
	name := strings.TrimSpace(raw)
	name = strings.NewReplacer("/", "_", "\\", "_", "\n", " ", "\r", " ").Replace(name)
	name = strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		name = strings.TrimSpace(name[:len(name)-len(ext)])
	}
	if name == "" {
		return "", ErrEmptyName
	}
	return name + ext, nil
}

func splitSeed(seed string) (string, *big.Int, error) {
	seed = strings.TrimSpace(seed)
	m := seedRe.FindStringSubmatch(seed)
	if m == nil {
		return "", nil, fmt.Errorf("seed %q: %w", seed, domain.ErrInvalidSeed)
	}
	start, ok := new(big.Int).SetString(m[2], 10)
	if !ok {
		return "", nil, fmt.Errorf("seed %q: %w", seed, domain.ErrInvalidSeed)
	}
	return m[1], start, nil
}
