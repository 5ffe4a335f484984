package vcard

import (
	"testing"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	got := Serialize([]domain.Contact{
		{DisplayName: "Bob 1", Phone: "+6281234567890"},
		{DisplayName: "Bob 2", Phone: "+62899999999"},
	})

	want := "BEGIN:VCARD\nVERSION:3.0\nFN:Bob 1\nTEL:+6281234567890\nEND:VCARD\n" +
		"BEGIN:VCARD\nVERSION:3.0\nFN:Bob 2\nTEL:+62899999999\nEND:VCARD\n"
	assert.Equal(t, want, got)
	assert.Equal(t, "", Serialize(nil))
}

func TestParse(t *testing.T) {
	text := "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Doe;Jane;;;\r\nFN:Jane Doe\r\nTEL;TYPE=CELL:+6281111111111\r\nTEL:0822\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\nVERSION:3.0\nFN:No Phone\nEND:VCARD\n" +
		"BEGIN:VCARD\nTEL:081234567890\nEND:VCARD\n" +
		"begin:vcard\nitem1.TEL:+14155550123\nfn:lower case\nend:vcard\n"

	got := Parse(text)

	require.Len(t, got, 2)
	assert.Equal(t, domain.Contact{DisplayName: "Jane Doe", Phone: "+6281111111111"}, got[0])
	assert.Equal(t, domain.Contact{DisplayName: "lower case", Phone: "+14155550123"}, got[1])
}

func TestParse_IgnoresFieldsOutsideBlocks(t *testing.T) {
	text := "FN:stray\nTEL:0800\nBEGIN:VCARD\nFN:Inside\nTEL:081234567890\nEND:VCARD\nFN:after\n"
	assert.Equal(t, []domain.Contact{{DisplayName: "Inside", Phone: "081234567890"}}, Parse(text))
}

func TestParse_UnterminatedBlockDropped(t *testing.T) {
	text := "BEGIN:VCARD\nFN:Open\nTEL:081234567890\n" +
		"BEGIN:VCARD\nFN:Closed\nTEL:089912345678\nEND:VCARD\n"
	assert.Equal(t, []domain.Contact{{DisplayName: "Closed", Phone: "089912345678"}}, Parse(text))
}

func TestParse_FoldedLine(t *testing.T) {
	text := "BEGIN:VCARD\nFN:Very Long\n  Name\nTEL:081234567890\nEND:VCARD\n"
	got := Parse(text)
	require.Len(t, got, 1)
	assert.Equal(t, "Very Long Name", got[0].DisplayName)
}

func TestRoundTrip(t *testing.T) {
	contacts := []domain.Contact{
		{DisplayName: SanitizeName("Ana; Maria\n"), Phone: "+6281234567890"},
		{DisplayName: SanitizeName("🔥 Toko Jaya 🔥"), Phone: "081111111111"},
		{DisplayName: SanitizeName("Dr: Who"), Phone: "14155550123"},
		{DisplayName: "Ana Maria", Phone: "+6281234567890"},
	}
	assert.Equal(t, contacts, Parse(Serialize(contacts)))
}

func TestRoundTrip_EmptyName(t *testing.T) {
	contacts := []domain.Contact{{DisplayName: SanitizeName(" ; "), Phone: "+6281234567890"}}
	require.Equal(t, "", contacts[0].DisplayName)
	assert.Equal(t, contacts, Parse(Serialize(contacts)))
}

func TestParse_EmptyPhoneSkipped(t *testing.T) {
	text := "BEGIN:VCARD\nFN:Nobody\nTEL:\nEND:VCARD\n" +
		"BEGIN:VCARD\nFN:\nTEL:\nTEL:081234567890\nEND:VCARD\n"
	assert.Equal(t, []domain.Contact{{DisplayName: "", Phone: "081234567890"}}, Parse(text))
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Budi  Santoso ", "Budi Santoso"},
		{"a;b", "a b"},
		{"line\r\nbreak", "line break"},
		{"tab\t\tname", "tab name"},
		{"😀 emoji ✓", "😀 emoji ✓"},
		{";;;", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in), tt.in)
	}
}

func TestNameForIndex(t *testing.T) {
	assert.Equal(t, "Bob", NameForIndex("Bob", 1, 1))
	assert.Equal(t, "Bob 1", NameForIndex("Bob", 1, 2))
	assert.Equal(t, "Bob 12", NameForIndex("Bob", 12, 20))
}

func TestFromNumbers(t *testing.T) {
	got := FromNumbers([]string{"081234567890", "6281111111111"}, "Sales;Team", func(s string) string { return "x" + s })
	assert.Equal(t, []domain.Contact{
		{DisplayName: "Sales Team 1", Phone: "x081234567890"},
		{DisplayName: "Sales Team 2", Phone: "x6281111111111"},
	}, got)

	single := FromNumbers([]string{"081234567890"}, "Solo", nil)
	assert.Equal(t, []domain.Contact{{DisplayName: "Solo", Phone: "081234567890"}}, single)
}

func TestWriteNumbers(t *testing.T) {
	assert.Equal(t, "1\n2\n3", WriteNumbers([]string{"1", "2", "3"}))
	assert.Equal(t, []string{"a", "b"}, Numbers([]domain.Contact{{Phone: "a"}, {Phone: "b"}}))
}
