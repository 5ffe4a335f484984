// Package merge combines the results of several uploaded files into one
// deduplicated collection and splits number lists into per-file groups.
package merge

import (
	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/phone"
)

// NumberBatches flattens batches in order, keeps the first occurrence of each
// exact string, then normalizes the survivors to one prefix convention with
// policy (DefaultPolicy when nil). Dedup is syntactic: two spellings of the
// same logical number both survive and may look identical after
// normalization.
func NumberBatches(batches [][]string, policy *phone.Policy) []string {
	if policy == nil {
		policy = phone.DefaultPolicy
	}
	seen := make(map[string]struct{})
	var flat []string
	for _, batch := range batches {
		for _, n := range batch {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			flat = append(flat, n)
		}
	}
	return policy.NormalizeBatch(flat)
}

// ContactBatches flattens batches in order and keeps the first occurrence of
// each literal (DisplayName, Phone) pair. Same phone under different names
// is kept twice.
func ContactBatches(batches [][]domain.Contact) []domain.Contact {
	seen := make(map[[2]string]struct{})
	var out []domain.Contact
	for _, batch := range batches {
		for _, c := range batch {
			k := c.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// SplitIntoBatches distributes numbers over at most fileCount groups of at
// most perFile items. Group i gets len/fileCount items, plus one more when
// i < len%fileCount, capped at perFile; items are taken in order. Empty
// groups are dropped, so fewer than fileCount groups come back when numbers
// run short. The groups hold min(len(numbers), perFile*fileCount) items.
func SplitIntoBatches(numbers []string, perFile, fileCount int) [][]string {
	if perFile <= 0 || fileCount <= 0 || len(numbers) == 0 {
		return nil
	}
	// Groups past len(numbers) are always empty.
	fileCount = min(fileCount, len(numbers))
	base := len(numbers) / fileCount
	rem := len(numbers) % fileCount

	var out [][]string
	pos := 0
	for i := 0; i < fileCount; i++ {
		size := base
		if i < rem {
			size++
		}
		if size > perFile {
			size = perFile
		}
		if size == 0 {
			continue
		}
		group := make([]string, size)
		copy(group, numbers[pos:pos+size])
		out = append(out, group)
		pos += size
	}
	return out
}

// FlattenNumbers collects the phone numbers of every file result, one slice
// per file.
func FlattenNumbers(files []domain.FileResult) [][]string {
	out := make([][]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.PhoneNumbers)
	}
	return out
}

// FlattenContacts collects the contacts of every file result, one slice per
// file.
func FlattenContacts(files []domain.FileResult) [][]domain.Contact {
	out := make([][]domain.Contact, 0, len(files))
	for _, f := range files {
		out = append(out, f.Contacts)
	}
	return out
}
