package upload

import (
	"testing"
	"time"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_TextFile(t *testing.T) {
	a := NewAggregator(DefaultConfig(), nil)

	res, err := a.Process(domain.ModeCvV1, "leads.TXT", []byte("call 081234567890 or +6289876543210\n"))
	require.NoError(t, err)
	assert.Equal(t, "leads.TXT", res.OriginalFilename)
	assert.Contains(t, res.PhoneNumbers, "081234567890")
	assert.Contains(t, res.PhoneNumbers, "+6289876543210")
	assert.Empty(t, res.Contacts)
}

func TestProcess_CardFile(t *testing.T) {
	a := NewAggregator(DefaultConfig(), nil)
	card := "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ana\r\nTEL;TYPE=CELL:+6281111111111\r\nEND:VCARD\r\n"

	res, err := a.Process(domain.ModeMergeCard, "a.vcf", []byte(card))
	require.NoError(t, err)
	assert.Equal(t, []domain.Contact{{DisplayName: "Ana", Phone: "+6281111111111"}}, res.Contacts)
	assert.Equal(t, 1, res.Size())
}

func TestProcess_Rejections(t *testing.T) {
	a := NewAggregator(Config{MaxFileBytes: 16}, nil)

	_, err := a.Process(domain.ModeCvV1, "leads.vcf", []byte("081234567890"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = a.Process(domain.ModeCardToText, "leads.txt", []byte("081234567890"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = a.Process(domain.ModeMergeText, "big.txt", make([]byte, 17))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = a.Process(domain.ModeMergeText, "empty.txt", []byte("nothing here"))
	assert.ErrorIs(t, err, domain.ErrNoExtractableData)

	_, err = a.Process(domain.ModeCardToText, "bad.vcf", []byte("BEGIN:VCARD\nFN:x\nEND:VCARD"))
	assert.ErrorIs(t, err, domain.ErrNoExtractableData)
}

func TestProcess_Latin1Text(t *testing.T) {
	a := NewAggregator(DefaultConfig(), nil)
	raw := append([]byte("Jos"), 0xE9, ' ')
	raw = append(raw, []byte("081234567890")...)

	res, err := a.Process(domain.ModeCvV2, "x.txt", raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"081234567890"}, res.PhoneNumbers)
}

func TestCapReached(t *testing.T) {
	a := NewAggregator(DefaultConfig(), nil)

	assert.False(t, a.CapReached(domain.ModeCvV2, 9))
	assert.True(t, a.CapReached(domain.ModeCvV2, 10))
	assert.False(t, a.CapReached(domain.ModeCvV1, 1000))
	assert.Equal(t, 10, a.MaxFiles(domain.ModeCvV2))
}

func TestQuietFor(t *testing.T) {
	a := NewAggregator(Config{}, nil)
	last := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.False(t, a.QuietFor(last, last.Add(2999*time.Millisecond)))
	assert.True(t, a.QuietFor(last, last.Add(3*time.Second)))
	assert.Equal(t, DefaultCheckDelay, a.CheckDelay())
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".vcf", Extension(domain.ModeCardToText))
	assert.Equal(t, ".vcf", Extension(domain.ModeMergeCard))
	assert.Equal(t, ".txt", Extension(domain.ModeCvV1))
	assert.Equal(t, ".txt", Extension(domain.ModeMergeText))
}
