package upload

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/naming"
	"github.com/ignite/vcfbot/internal/phone"
	"github.com/ignite/vcfbot/internal/textenc"
	"github.com/ignite/vcfbot/internal/vcard"
)

const (
	DefaultQuietPeriod  = 3 * time.Second
	DefaultCheckDelay   = 4 * time.Second
	DefaultMaxFileBytes = 20 << 20
	defaultCvV2MaxFiles = 10
)

// Config controls the upload window.
type Config struct {
	// QuietPeriod is how long no new file may arrive before the window closes.
	QuietPeriod time.Duration
	// CheckDelay is how long after each accepted file the completion check runs.
	CheckDelay time.Duration
	// MaxFiles caps the number of files per mode. Zero or missing means unlimited.
	MaxFiles     map[domain.Mode]int
	MaxFileBytes int64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		QuietPeriod:  DefaultQuietPeriod,
		CheckDelay:   DefaultCheckDelay,
		MaxFiles:     map[domain.Mode]int{domain.ModeCvV2: defaultCvV2MaxFiles},
		MaxFileBytes: DefaultMaxFileBytes,
	}
}

// Aggregator applies the upload rules. It is stateless and safe for
// concurrent use.
type Aggregator struct {
	cfg    Config
	policy *phone.Policy
}

// NewAggregator creates an aggregator. Zero durations fall back to the
// defaults; a nil policy means phone.DefaultPolicy.
func NewAggregator(cfg Config, policy *phone.Policy) *Aggregator {
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if cfg.CheckDelay <= 0 {
		cfg.CheckDelay = DefaultCheckDelay
	}
	if policy == nil {
		policy = phone.DefaultPolicy
	}
	return &Aggregator{cfg: cfg, policy: policy}
}

// Policy returns the phone policy used for extraction.
func (a *Aggregator) Policy() *phone.Policy { return a.policy }

// CheckDelay returns the delay between an accepted file and its completion check.
func (a *Aggregator) CheckDelay() time.Duration { return a.cfg.CheckDelay }

// MaxFileBytes returns the per-file size limit, zero for none.
func (a *Aggregator) MaxFileBytes() int64 { return a.cfg.MaxFileBytes }

// MaxFiles returns the file cap for mode, zero for none.
func (a *Aggregator) MaxFiles(mode domain.Mode) int { return a.cfg.MaxFiles[mode] }

// CapReached reports whether a session that already holds count files for
// mode must reject the next one.
func (a *Aggregator) CapReached(mode domain.Mode, count int) bool {
	limit := a.cfg.MaxFiles[mode]
	return limit > 0 && count >= limit
}

// QuietFor reports whether the window has been idle long enough to close.
func (a *Aggregator) QuietFor(last, now time.Time) bool {
	return now.Sub(last) >= a.cfg.QuietPeriod
}

// Extension returns the file extension mode accepts.
func Extension(mode domain.Mode) string {
	if mode.AcceptsCards() {
		return naming.ExtCard
	}
	return naming.ExtText
}

// Process turns one uploaded file into a FileResult. The checks run in a
// fixed order: extension, size, decoding, extraction.
func (a *Aggregator) Process(mode domain.Mode, filename string, raw []byte) (domain.FileResult, error) {
	want := Extension(mode)
	if !strings.EqualFold(filepath.Ext(filename), want) {
		return domain.FileResult{}, fmt.Errorf("%s: want %s: %w", filename, want, domain.ErrUnsupportedFileType)
	}
	if a.cfg.MaxFileBytes > 0 && int64(len(raw)) > a.cfg.MaxFileBytes {
		return domain.FileResult{}, fmt.Errorf("%s: %d bytes: %w", filename, len(raw), ErrFileTooLarge)
	}

	text, _, err := textenc.Decode(raw)
	if err != nil {
		return domain.FileResult{}, fmt.Errorf("%s: %w", filename, err)
	}

	result := domain.FileResult{OriginalFilename: filename}
	if mode.AcceptsCards() {
		result.Contacts = vcard.Parse(text)
	} else {
		result.PhoneNumbers = a.policy.Extract(text)
	}
	if result.Size() == 0 {
		return domain.FileResult{}, fmt.Errorf("%s: %w", filename, domain.ErrNoExtractableData)
	}
	return result, nil
}
