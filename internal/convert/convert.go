// Package convert builds output files from processed uploads. The chat
// pipelines and the offline CLI share these builders.
package convert

import (
	"fmt"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/merge"
	"github.com/ignite/vcfbot/internal/naming"
	"github.com/ignite/vcfbot/internal/phone"
	"github.com/ignite/vcfbot/internal/vcard"
)

func policyOrDefault(p *phone.Policy) *phone.Policy {
	if p == nil {
		return phone.DefaultPolicy
	}
	return p
}

// DefaultCardNames maps each text upload name to its card file name.
func DefaultCardNames(files []domain.FileResult) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = naming.DefaultName(f.OriginalFilename, naming.ExtText, naming.ExtCard)
	}
	return names
}

// CardsPerFile writes one card file per upload, named names[i], with every
// contact named after contactName.
func CardsPerFile(files []domain.FileResult, names []string, contactName string, policy *phone.Policy) ([]domain.OutputFile, error) {
	if len(names) != len(files) {
		return nil, fmt.Errorf("%d names for %d files", len(names), len(files))
	}
	policy = policyOrDefault(policy)
	outputs := make([]domain.OutputFile, 0, len(files))
	for i, f := range files {
		contacts := vcard.FromNumbers(f.PhoneNumbers, contactName, policy.Normalize)
		outputs = append(outputs, domain.OutputFile{
			Name:    names[i],
			Data:    []byte(vcard.Serialize(contacts)),
			Entries: len(contacts),
		})
	}
	return outputs, nil
}

// CardBatches splits merged numbers into at most fileCount card files of
// perFile contacts, named by the seed sequence.
func CardBatches(merged []string, seed, contactName string, perFile, fileCount int, policy *phone.Policy) ([]domain.OutputFile, error) {
	policy = policyOrDefault(policy)
	groups := merge.SplitIntoBatches(merged, perFile, fileCount)
	names, err := naming.CustomSequence(seed, len(groups), naming.ExtCard)
	if err != nil {
		return nil, err
	}

	outputs := make([]domain.OutputFile, 0, len(groups))
	for i, g := range groups {
		contacts := vcard.FromNumbers(g, contactName, policy.Normalize)
		outputs = append(outputs, domain.OutputFile{
			Name:    names[i],
			Data:    []byte(vcard.Serialize(contacts)),
			Entries: len(contacts),
		})
	}
	return outputs, nil
}

// TextPerCard writes one text file of normalized numbers per card upload.
func TextPerCard(files []domain.FileResult, policy *phone.Policy) []domain.OutputFile {
	policy = policyOrDefault(policy)
	outputs := make([]domain.OutputFile, 0, len(files))
	for _, f := range files {
		numbers := policy.NormalizeBatch(vcard.Numbers(f.Contacts))
		outputs = append(outputs, domain.OutputFile{
			Name:    naming.DefaultName(f.OriginalFilename, naming.ExtCard, naming.ExtText),
			Data:    []byte(vcard.WriteNumbers(numbers)),
			Entries: len(numbers),
		})
	}
	return outputs
}

// MergedNumbers is the deduplicated, normalized union of text uploads.
func MergedNumbers(files []domain.FileResult, policy *phone.Policy) []string {
	return merge.NumberBatches(merge.FlattenNumbers(files), policy)
}

// MergeNumbers writes the merged numbers of text uploads to one file.
func MergeNumbers(files []domain.FileResult, name string, policy *phone.Policy) domain.OutputFile {
	numbers := MergedNumbers(files, policy)
	return domain.OutputFile{
		Name:    name,
		Data:    []byte(vcard.WriteNumbers(numbers)),
		Entries: len(numbers),
	}
}

// MergeCards writes the deduplicated contacts of card uploads to one file.
func MergeCards(files []domain.FileResult, name string) domain.OutputFile {
	contacts := merge.ContactBatches(merge.FlattenContacts(files))
	return domain.OutputFile{
		Name:    name,
		Data:    []byte(vcard.Serialize(contacts)),
		Entries: len(contacts),
	}
}
