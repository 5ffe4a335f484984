package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/naming"
	"github.com/ignite/vcfbot/internal/vcard"
)

// BatchSpec is the parsed CV V2 format line
// "seed,contact name,per_file,file_count".
type BatchSpec struct {
	Seed        string
	ContactName string
	PerFile     int
	FileCount   int
}

// ParseBatchSpec parses line and checks it against the number of merged
// numbers available. The contact name may itself contain commas; the seed
// is the first field and the two counts are the last two. On
// ErrInsufficientData the parsed spec is returned alongside the error.
func ParseBatchSpec(line string, available int) (BatchSpec, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 4 {
		return BatchSpec{}, fmt.Errorf("%d fields: %w", len(fields), domain.ErrMalformedBatchSpec)
	}

	n := len(fields)
	spec := BatchSpec{
		Seed:        strings.TrimSpace(fields[0]),
		ContactName: vcard.SanitizeName(strings.Join(fields[1:n-2], ",")),
	}
	if spec.ContactName == "" {
		return BatchSpec{}, fmt.Errorf("empty contact name: %w", domain.ErrMalformedBatchSpec)
	}

	var err error
	if spec.PerFile, err = positiveInt(fields[n-2]); err != nil {
		return BatchSpec{}, fmt.Errorf("per file: %w", err)
	}
	if spec.FileCount, err = positiveInt(fields[n-1]); err != nil {
		return BatchSpec{}, fmt.Errorf("file count: %w", err)
	}

	if !naming.ValidSeed(spec.Seed) {
		return BatchSpec{}, fmt.Errorf("seed %q: %w", spec.Seed, domain.ErrInvalidSeed)
	}
	if spec.PerFile > available {
		return spec, fmt.Errorf("%d per file, %d available: %w", spec.PerFile, available, domain.ErrInsufficientData)
	}
	return spec, nil
}

func positiveInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%q: %w", s, domain.ErrMalformedBatchSpec)
	}
	return v, nil
}
