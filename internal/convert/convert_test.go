package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/vcard"
)

func textFile(name string, numbers ...string) domain.FileResult {
	return domain.FileResult{OriginalFilename: name, PhoneNumbers: numbers}
}

func TestDefaultCardNames(t *testing.T) {
	names := DefaultCardNames([]domain.FileResult{textFile("a.txt"), textFile("B.TXT"), textFile("notes")})
	assert.Equal(t, []string{"a.vcf", "B.vcf", "notes.vcf"}, names)
}

func TestCardsPerFile(t *testing.T) {
	files := []domain.FileResult{
		textFile("a.txt", "081234567890", "081234567891"),
		textFile("b.txt", "6281234567892"),
	}
	outputs, err := CardsPerFile(files, DefaultCardNames(files), "Budi", nil)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, "a.vcf", outputs[0].Name)
	assert.Equal(t, 2, outputs[0].Entries)
	assert.Equal(t, []domain.Contact{
		{DisplayName: "Budi 1", Phone: "+6281234567890"},
		{DisplayName: "Budi 2", Phone: "+6281234567891"},
	}, vcard.Parse(string(outputs[0].Data)))

	assert.Equal(t, []domain.Contact{{DisplayName: "Budi", Phone: "+6281234567892"}},
		vcard.Parse(string(outputs[1].Data)))
}

func TestCardsPerFile_NameCountMismatch(t *testing.T) {
	_, err := CardsPerFile([]domain.FileResult{textFile("a.txt")}, nil, "x", nil)
	assert.Error(t, err)
}

func TestCardBatches(t *testing.T) {
	merged := []string{"+6281100000001", "+6281100000002", "+6281100000003", "+6281100000004", "+6281100000005"}

	outputs, err := CardBatches(merged, "pudidi1", "Tim", 2, 3, nil)
	require.NoError(t, err)
	require.Len(t, outputs, 3)
	assert.Equal(t, "pudidi1.vcf", outputs[0].Name)
	assert.Equal(t, "pudidi3.vcf", outputs[2].Name)
	assert.Equal(t, []int{2, 2, 1}, []int{outputs[0].Entries, outputs[1].Entries, outputs[2].Entries})
	assert.Equal(t, "Tim", vcard.Parse(string(outputs[2].Data))[0].DisplayName)

	// fileCount caps the number of files even when numbers remain.
	outputs, err = CardBatches(merged, "x9", "Tim", 2, 1, nil)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "x9.vcf", outputs[0].Name)
}

func TestCardBatches_FileCountBeyondNumbers(t *testing.T) {
	outputs, err := CardBatches([]string{"+6281100000001", "+6281100000002"}, "a1", "Ana", 1, math.MaxInt, nil)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, "a2.vcf", outputs[1].Name)
}

func TestCardBatches_InvalidSeed(t *testing.T) {
	_, err := CardBatches([]string{"+6281100000001"}, "nodigits", "Tim", 1, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidSeed)
}

func TestTextPerCard(t *testing.T) {
	files := []domain.FileResult{{
		OriginalFilename: "team.vcf",
		Contacts: []domain.Contact{
			{DisplayName: "A", Phone: "+6281234567890"},
			{DisplayName: "B", Phone: "081234567891"},
		},
	}}
	outputs := TextPerCard(files, nil)
	require.Len(t, outputs, 1)
	assert.Equal(t, "team.txt", outputs[0].Name)
	assert.Equal(t, "+6281234567890\n+6281234567891", string(outputs[0].Data))
	assert.Equal(t, 2, outputs[0].Entries)
}

func TestMergeNumbers(t *testing.T) {
	files := []domain.FileResult{
		textFile("a.txt", "081111111111", "+6281111111111"),
		textFile("b.txt", "6281111111111", "081111111111", "082222222222"),
	}
	out := MergeNumbers(files, "all.txt", nil)
	assert.Equal(t, "all.txt", out.Name)
	assert.Equal(t, 4, out.Entries)
	assert.Equal(t, "+6281111111111\n+6281111111111\n+6281111111111\n+6282222222222", string(out.Data))
}

func TestMergeCards(t *testing.T) {
	a := domain.Contact{DisplayName: "A", Phone: "+621"}
	b := domain.Contact{DisplayName: "B", Phone: "+622"}
	files := []domain.FileResult{
		{OriginalFilename: "1.vcf", Contacts: []domain.Contact{a, b}},
		{OriginalFilename: "2.vcf", Contacts: []domain.Contact{b, {DisplayName: "A2", Phone: "+621"}}},
	}
	out := MergeCards(files, "all.vcf")
	assert.Equal(t, 3, out.Entries)
	assert.Equal(t, []domain.Contact{a, b, {DisplayName: "A2", Phone: "+621"}}, vcard.Parse(string(out.Data)))
}
