package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ignite/vcfbot/internal/domain"
	"github.com/ignite/vcfbot/internal/repository/postgres"
)

var (
	historySession string
	historyLimit   int
	historySince   time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversion jobs",
	Long: `Show recent conversion jobs from the history table.

Requires DATABASE_URL (or history.database_url). Session keys are Telegram
chat ids.

Examples:
  vcfbot history
  vcfbot history --session 123456789 --limit 5
  vcfbot history totals --since 168h`,
	RunE: runHistory,
}

var historyTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show job totals per mode",
	RunE:  runHistoryTotals,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyTotalsCmd)

	historyCmd.Flags().StringVar(&historySession, "session", "", "Only jobs for this session key")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of jobs to show")
	historyTotalsCmd.Flags().DurationVar(&historySince, "since", 24*time.Hour, "Window to sum over")
}

func openHistory(cmd *cobra.Command) (*postgres.HistoryRepo, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.History.DatabaseURL == "" {
		return nil, nil, errors.New("DATABASE_URL (or history.database_url) is required")
	}
	db, err := openDatabase(cmd.Context(), cfg.History.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewHistoryRepo(db), func() { _ = db.Close() }, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	repo, closeDB, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	jobs, err := repo.Recent(cmd.Context(), historySession, historyLimit)
	if err != nil {
		return err
	}
	printJobs(cmd.OutOrStdout(), jobs)
	return nil
}

func runHistoryTotals(cmd *cobra.Command, args []string) error {
	repo, closeDB, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	totals, err := repo.Totals(cmd.Context(), time.Now().Add(-historySince))
	if err != nil {
		return err
	}
	printTotals(cmd.OutOrStdout(), totals, historySince)
	return nil
}

func printJobs(w io.Writer, jobs []domain.JobSummary) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs recorded")
		return
	}
	fmt.Fprintf(w, "%-16s %-14s %-14s %5s %5s %6s %10s %8s\n", "COMPLETED", "SESSION", "MODE", "IN", "OUT", "FAILED", "ENTRIES", "TOOK")
	for _, j := range jobs {
		fmt.Fprintf(w, "%-16s %-14s %-14s %5d %5d %6d %10s %8s\n",
			humanize.Time(j.CompletedAt),
			j.SessionKey,
			j.Mode,
			j.FilesIn,
			j.FilesOut,
			j.FilesFailed,
			humanize.Comma(int64(j.Entries)),
			j.CompletedAt.Sub(j.StartedAt).Round(time.Millisecond),
		)
	}
}

func printTotals(w io.Writer, totals []postgres.ModeTotals, since time.Duration) {
	fmt.Fprintf(w, "Jobs in the last %s\n", since)
	if len(totals) == 0 {
		fmt.Fprintln(w, "No jobs recorded")
		return
	}
	var jobs int
	var entries int64
	for _, t := range totals {
		fmt.Fprintf(w, "  %-14s %6s jobs  %6s files out  %4s failed  %10s entries\n",
			t.Mode,
			humanize.Comma(int64(t.Jobs)),
			humanize.Comma(int64(t.FilesOut)),
			humanize.Comma(int64(t.FilesFailed)),
			humanize.Comma(t.Entries),
		)
		jobs += t.Jobs
		entries += t.Entries
	}
	fmt.Fprintf(w, "Total: %s jobs, %s entries\n", humanize.Comma(int64(jobs)), humanize.Comma(entries))
}
