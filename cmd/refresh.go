package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobcost/dashboard"
	"jobcost/filter"
	"jobcost/internal/timeutil"
)

var (
	refreshForce bool
	refreshFrom  string
	refreshTo    string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle and print the outcome",
	Long: `Fetch both sources for the date range, merge them by job key and store the
result in the local cache.

Without --force, cached job records are reused, and cached time entries are reused
while they cover the same range and are newer than the time source's last sync.
When a source is unreachable and both caches cover the range, the cycle completes
from cache in offline mode.`,
	Example: `
  # Refresh the default range (last range.default_days days)
  jobcost refresh

  # Refresh an explicit range, ignoring caches
  jobcost refresh --from 2026-03-01 --to 2026-03-31 --force
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rng, err := timeutil.ParseRange(refreshFrom, refreshTo, a.defaultRange())
		if err != nil {
			return err
		}

		outcome := a.service.Refresh(cmd.Context(), rng, refreshForce)
		printOutcome(os.Stdout, outcome)
		if outcome.Status == dashboard.StatusFailure {
			return errors.New("refresh failed")
		}

		result, err := a.service.MergedJobs(filter.State{})
		if err != nil {
			return err
		}
		printStats(os.Stdout, result.Stats)
		return nil
	},
}

func printOutcome(w io.Writer, outcome dashboard.Outcome) {
	fmt.Fprintf(w, "Refresh %s (cycle %s, range %s)\n", outcome.Status, outcome.CycleID, outcome.Range)
	if outcome.Message != "" {
		fmt.Fprintf(w, "Message: %s\n", outcome.Message)
	}
	if outcome.AuthRequired {
		fmt.Fprintln(w, "A source rejected its token. Check JOBCOST_TIME_SOURCE_TOKEN and JOBCOST_JOB_SOURCE_TOKEN.")
	}
	if outcome.Status == dashboard.StatusFailure {
		return
	}
	fmt.Fprintf(w, "Jobs: %d, job records cached: %t, time entries cached: %t, offline: %t\n",
		outcome.JobCount, outcome.JobsCached, outcome.EntriesCached, outcome.Offline)

	dropped := outcome.Dropped
	if dropped.UnkeyedEntries+dropped.InvalidEntries+dropped.UnkeyedJobs > 0 {
		fmt.Fprintf(w, "Dropped: %d unkeyed entries (%.2fh), %d invalid entries, %d unkeyed job records\n",
			dropped.UnkeyedEntries, dropped.UnkeyedHours, dropped.InvalidEntries, dropped.UnkeyedJobs)
	}
	if len(dropped.DuplicateJobKeys) > 0 {
		fmt.Fprintf(w, "Duplicate job keys: %s\n", strings.Join(dropped.DuplicateJobKeys, ", "))
	}
}

func printStats(w io.Writer, stats filter.Stats) {
	fmt.Fprintf(w, "Total hours: %.2f, revenue: %.2f, average rate: %.2f/h\n",
		stats.TotalHours, stats.TotalRevenue, stats.AvgRate)
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "Ignore caches and refetch both sources")
	refreshCmd.Flags().StringVar(&refreshFrom, "from", "", "Range start, format YYYY-MM-DD (default: range.default_days before today)")
	refreshCmd.Flags().StringVar(&refreshTo, "to", "", "Range end, format YYYY-MM-DD (default: today)")
}
