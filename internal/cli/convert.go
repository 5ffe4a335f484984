package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ignite/vcfbot/internal/convert"
	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/naming"
	"github.com/ignite/vcfbot/internal/phone"
	"github.com/ignite/vcfbot/internal/service/session"
	"github.com/ignite/vcfbot/internal/service/upload"
	"github.com/ignite/vcfbot/internal/textenc"
	"github.com/ignite/vcfbot/internal/vcard"
)

var (
	convertOut     string
	convertName    string
	convertSeed    string
	convertBatch   string
	convertMerged  string
	convertCountry string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Run the bot's conversions on local files",
	Long: `Convert local files the same way the bot converts uploads.

Examples:
  vcfbot convert txt2vcf --name "Budi" a.txt b.txt
  vcfbot convert txt2vcf --name "Budi" --seed pudidi1 a.txt b.txt
  vcfbot convert txt2vcf --batch "pudidi1,Budi,100,5" a.txt b.txt
  vcfbot convert text2vcf pasted.txt
  vcfbot convert vcf2txt team.vcf
  vcfbot convert merge-txt --merged all a.txt b.txt
  vcfbot convert merge-vcf --merged all a.vcf b.vcf`,
}

var txt2vcfCmd = &cobra.Command{
	Use:   "txt2vcf <file.txt>...",
	Short: "Phone lists to contact cards (one card file per list, or batches)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, domain.ModeCvV1, args, func(files []domain.FileResult, policy *phone.Policy) ([]domain.OutputFile, error) {
			return buildCards(files, convertName, convertSeed, convertBatch, policy)
		})
	},
}

var text2vcfCmd = &cobra.Command{
	Use:   "text2vcf <pasted.txt>",
	Short: "Pasted name/number blocks to one contact card file",
	Args:  cobra.ExactArgs(1),
	RunE:  runText2Vcf,
}

var vcf2txtCmd = &cobra.Command{
	Use:   "vcf2txt <file.vcf>...",
	Short: "Contact cards to phone lists (one list per card file)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, domain.ModeCardToText, args, func(files []domain.FileResult, policy *phone.Policy) ([]domain.OutputFile, error) {
			return convert.TextPerCard(files, policy), nil
		})
	},
}

var mergeTxtCmd = &cobra.Command{
	Use:   "merge-txt <file.txt>...",
	Short: "Merge phone lists into one deduplicated list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, domain.ModeMergeText, args, func(files []domain.FileResult, policy *phone.Policy) ([]domain.OutputFile, error) {
			name, err := naming.OutputBase(convertMerged, naming.ExtText)
			if err != nil {
				return nil, err
			}
			return []domain.OutputFile{convert.MergeNumbers(files, name, policy)}, nil
		})
	},
}

var mergeVcfCmd = &cobra.Command{
	Use:   "merge-vcf <file.vcf>...",
	Short: "Merge contact card files into one deduplicated card file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, domain.ModeMergeCard, args, func(files []domain.FileResult, _ *phone.Policy) ([]domain.OutputFile, error) {
			name, err := naming.OutputBase(convertMerged, naming.ExtCard)
			if err != nil {
				return nil, err
			}
			return []domain.OutputFile{convert.MergeCards(files, name)}, nil
		})
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.AddCommand(txt2vcfCmd, text2vcfCmd, vcf2txtCmd, mergeTxtCmd, mergeVcfCmd)

	convertCmd.PersistentFlags().StringVarP(&convertOut, "out", "o", ".", "Output directory")
	convertCmd.PersistentFlags().StringVar(&convertCountry, "country", "", "Country calling code (overrides phone.country_code)")

	txt2vcfCmd.Flags().StringVar(&convertName, "name", "", "Contact name for every number")
	txt2vcfCmd.Flags().StringVar(&convertSeed, "seed", "", "Name output files by a sequence starting at this name (must end in digits)")
	txt2vcfCmd.Flags().StringVar(&convertBatch, "batch", "", `Split merged numbers: "seed,contact name,per_file,file_count"`)

	mergeTxtCmd.Flags().StringVar(&convertMerged, "merged", "merged", "Merged file name")
	mergeVcfCmd.Flags().StringVar(&convertMerged, "merged", "merged", "Merged file name")
}

type buildFunc func(files []domain.FileResult, policy *phone.Policy) ([]domain.OutputFile, error)

func runConvert(cmd *cobra.Command, mode domain.Mode, paths []string, build buildFunc) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if convertCountry != "" {
		cfg.Phone.CountryCode = convertCountry
	}
	policy := phone.NewPolicy(cfg.Phone.CountryCode)
	agg := upload.NewAggregator(uploadConfig(cfg.Upload), policy)

	files, err := readUploads(agg, mode, paths)
	if err != nil {
		return err
	}
	outputs, err := build(files, policy)
	if err != nil {
		return err
	}
	return writeOutputs(cmd.OutOrStdout(), convertOut, outputs)
}

func runText2Vcf(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if convertCountry != "" {
		cfg.Phone.CountryCode = convertCountry
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	out, err := buildFromRawText(raw, phone.NewPolicy(cfg.Phone.CountryCode))
	if err != nil {
		return err
	}
	return writeOutputs(cmd.OutOrStdout(), convertOut, []domain.OutputFile{out})
}

// readUploads runs every path through the upload rules for mode, in order.
// The first rejected file stops the run.
func readUploads(agg *upload.Aggregator, mode domain.Mode, paths []string) ([]domain.FileResult, error) {
	files := make([]domain.FileResult, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		res, err := agg.Process(mode, filepath.Base(p), raw)
		if err != nil {
			return nil, err
		}
		files = append(files, res)
	}
	if limit := agg.MaxFiles(mode); limit > 0 && len(files) > limit {
		return nil, fmt.Errorf("%d files given, %s accepts at most %d", len(files), mode, limit)
	}
	return files, nil
}

// buildCards is txt2vcf: batches when batch is set, otherwise one card file
// per input named after the input or the seed sequence.
func buildCards(files []domain.FileResult, contactName, seed, batch string, policy *phone.Policy) ([]domain.OutputFile, error) {
	if batch != "" {
		merged := convert.MergedNumbers(files, policy)
		spec, err := session.ParseBatchSpec(batch, len(merged))
		if err != nil {
			return nil, fmt.Errorf("batch %q: %w", batch, err)
		}
		return convert.CardBatches(merged, spec.Seed, spec.ContactName, spec.PerFile, spec.FileCount, policy)
	}

	contactName = vcard.SanitizeName(contactName)
	if contactName == "" {
		return nil, errors.New("--name is required without --batch")
	}
	names := convert.DefaultCardNames(files)
	if seed != "" {
		seq, err := naming.CustomSequence(seed, len(files), naming.ExtCard)
		if err != nil {
			return nil, err
		}
		names = seq
	}
	return convert.CardsPerFile(files, names, contactName, policy)
}

func buildFromRawText(raw []byte, policy *phone.Policy) (domain.OutputFile, error) {
	text, _, err := textenc.Decode(raw)
	if err != nil {
		return domain.OutputFile{}, err
	}
	res, err := vcard.BuildFromRawText(text, policy)
	if err != nil {
		return domain.OutputFile{}, err
	}
	return domain.OutputFile{
		Name:    res.Filename,
		Data:    []byte(vcard.Serialize(res.Contacts)),
		Entries: len(res.Contacts),
	}, nil
}

// writeOutputs writes each output into dir and prints one summary line per
// file plus a total.
func writeOutputs(w io.Writer, dir string, outputs []domain.OutputFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	var entries int64
	for _, f := range outputs {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		entries += int64(f.Entries)
		fmt.Fprintf(w, "  %-32s %8s entries  %8s\n", f.Name, humanize.Comma(int64(f.Entries)), humanize.Bytes(uint64(len(f.Data))))
	}
	fmt.Fprintf(w, "Wrote %d file(s), %s entries, to %s\n", len(outputs), humanize.Comma(entries), dir)
	return nil
}
