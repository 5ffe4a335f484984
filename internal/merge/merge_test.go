package merge

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberBatches_SingleBatchIsDedup(t *testing.T) {
	numbers := []string{"+6281111111111", "+6282222222222", "+6281111111111", "+14155550123", "+6282222222222"}

	got := NumberBatches([][]string{numbers}, nil)

	assert.Equal(t, []string{"+6281111111111", "+6282222222222", "+14155550123"}, got)
}

func TestNumberBatches_SyntacticDedupThenUnify(t *testing.T) {
	first := []string{"+6281111111111", "081111111111"}
	second := []string{"6281111111111"}

	got := NumberBatches([][]string{first, second}, nil)

	// Three distinct spellings survive exact-string dedup; the batch pass
	// then puts all of them in '+' form.
	require.Len(t, got, 3)
	for _, n := range got {
		assert.Equal(t, "+6281111111111", n)
	}
}

func TestNumberBatches_LocalWhenNoPlus(t *testing.T) {
	got := NumberBatches([][]string{{"081111111111"}, {"6282222222222", "081111111111"}}, nil)
	assert.Equal(t, []string{"081111111111", "082222222222"}, got)
}

func TestContactBatches(t *testing.T) {
	a := domain.Contact{DisplayName: "Ana", Phone: "081111111111"}
	b := domain.Contact{DisplayName: "Budi", Phone: "081111111111"}
	c := domain.Contact{DisplayName: "Ana", Phone: "+6281111111111"}

	got := ContactBatches([][]domain.Contact{{a, b}, {a, c, b}})

	assert.Equal(t, []domain.Contact{a, b, c}, got)
}

func TestSplitIntoBatches(t *testing.T) {
	nums := seq(10)

	got := SplitIntoBatches(nums, 4, 3)

	// 10 = 3*3 + 1: the first group gets the extra item.
	assert.Equal(t, [][]string{
		{"n0", "n1", "n2", "n3"},
		{"n4", "n5", "n6"},
		{"n7", "n8", "n9"},
	}, got)
}

func TestSplitIntoBatches_CapsAndDropsEmpty(t *testing.T) {
	assert.Equal(t, [][]string{{"n0", "n1"}, {"n2", "n3"}}, SplitIntoBatches(seq(10), 2, 2))
	assert.Equal(t, [][]string{{"n0"}, {"n1"}}, SplitIntoBatches(seq(2), 5, 4))
	assert.Nil(t, SplitIntoBatches(nil, 5, 4))
	assert.Nil(t, SplitIntoBatches(seq(3), 0, 4))
	assert.Nil(t, SplitIntoBatches(seq(3), 2, 0))
}

func TestSplitIntoBatches_HugeFileCount(t *testing.T) {
	done := make(chan [][]string, 1)
	go func() { done <- SplitIntoBatches(seq(3), 1, math.MaxInt) }()

	select {
	case got := <-done:
		assert.Equal(t, [][]string{{"n0"}, {"n1"}, {"n2"}}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("SplitIntoBatches did not return")
	}
	assert.Equal(t, [][]string{{"n0"}, {"n1"}}, SplitIntoBatches(seq(2), math.MaxInt, math.MaxInt))
}

func TestSplitIntoBatches_Properties(t *testing.T) {
	for n := 0; n <= 25; n++ {
		for perFile := 1; perFile <= 7; perFile++ {
			for fileCount := 1; fileCount <= 6; fileCount++ {
				name := fmt.Sprintf("n=%d/per=%d/files=%d", n, perFile, fileCount)
				got := SplitIntoBatches(seq(n), perFile, fileCount)

				total := 0
				for _, g := range got {
					assert.NotEmpty(t, g, name)
					assert.LessOrEqual(t, len(g), perFile, name)
					total += len(g)
				}
				assert.Equal(t, min(n, perFile*fileCount), total, name)
				assert.LessOrEqual(t, len(got), fileCount, name)
			}
		}
	}
}

func TestFlatten(t *testing.T) {
	files := []domain.FileResult{
		{OriginalFilename: "a.txt", PhoneNumbers: []string{"1"}},
		{OriginalFilename: "b.vcf", Contacts: []domain.Contact{{DisplayName: "x", Phone: "2"}}},
	}
	assert.Equal(t, [][]string{{"1"}, nil}, FlattenNumbers(files))
	assert.Equal(t, [][]domain.Contact{nil, {{DisplayName: "x", Phone: "2"}}}, FlattenContacts(files))
}

func seq(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("n%d", i)
	}
	return out
}
