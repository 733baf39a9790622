package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"jobcost/dashboard"
	"jobcost/filter"
	"jobcost/internal/timeutil"
	"jobcost/output"
)

var (
	exportFormat   string
	exportView     string
	exportOutput   string
	exportFrom     string
	exportTo       string
	exportQuery    string
	exportMode     string
	exportSort     string
	exportTypes    []string
	exportStatuses []string
	exportPeople   []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export merged jobs, people or monthly totals to CSV/Excel",
	Long: `Run a refresh cycle (reusing caches where possible), apply the filters and
write one view to a file.

Views:
- jobs: one row per merged job with hours, price and effective rate
- people: per person hours, attributed revenue and utilization
- monthly: hours and costable revenue per month

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export all jobs of the default range to CSV
  jobcost export --output ./jobs.csv

  # Export costable jobs sorted by highest rate to Excel
  jobcost export --mode costable --sort rate-desc --output ./jobs.xlsx

  # Export the people view for one person and job type
  jobcost export --view people --person "Ann Lee" --type Field --output ./people.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}
		writer, err := output.WriterForFormat(format)
		if err != nil {
			return err
		}

		state, err := exportFilterState()
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rng, err := timeutil.ParseRange(exportFrom, exportTo, a.defaultRange())
		if err != nil {
			return err
		}
		outcome := a.service.Refresh(cmd.Context(), rng, false)
		if outcome.Status == dashboard.StatusFailure {
			return errors.New(outcome.Message)
		}
		if outcome.Offline {
			fmt.Printf("Warning: %s\n", outcome.Message)
		}

		result, err := a.service.MergedJobs(state)
		if err != nil {
			return err
		}

		table, err := exportTable(exportView, result)
		if err != nil {
			return err
		}
		if err := writer.Write(exportOutput, table); err != nil {
			return err
		}
		fmt.Printf("Export completed. Rows: %d, View: %s, Format: %s, File: %s\n", len(table.Rows), table.Name, format, exportOutput)
		return nil
	},
}

func exportFilterState() (filter.State, error) {
	mode, err := filter.ParseMode(exportMode)
	if err != nil {
		return filter.State{}, err
	}
	sortKey, err := filter.ParseSortKey(exportSort)
	if err != nil {
		return filter.State{}, err
	}
	return filter.State{
		Query:    strings.TrimSpace(exportQuery),
		Mode:     mode,
		JobTypes: exportTypes,
		Statuses: exportStatuses,
		People:   exportPeople,
		Sort:     sortKey,
	}, nil
}

func exportTable(view string, result filter.Result) (output.Table, error) {
	switch strings.TrimSpace(strings.ToLower(view)) {
	case "", "jobs":
		return output.JobsTable(result.Jobs), nil
	case "people":
		return output.PeopleTable(output.BuildPeople(result.Jobs)), nil
	case "monthly":
		return output.MonthlyTable(output.BuildMonthly(result.Jobs)), nil
	default:
		return output.Table{}, fmt.Errorf("unsupported export view: %s (supported: jobs, people, monthly)", view)
	}
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return "csv"
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportView, "view", "jobs", "Export view: jobs|people|monthly")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Range start, format YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Range end, format YYYY-MM-DD")
	exportCmd.Flags().StringVarP(&exportQuery, "query", "q", "", "Case-insensitive search over job key and name")
	exportCmd.Flags().StringVar(&exportMode, "mode", "all", "Filter mode: all|costable|outliers")
	exportCmd.Flags().StringVar(&exportSort, "sort", "hours", "Sort: hours|rate-asc|rate-desc|price|key")
	exportCmd.Flags().StringSliceVar(&exportTypes, "type", nil, "Keep jobs tagged with any of these job types")
	exportCmd.Flags().StringSliceVar(&exportStatuses, "status", nil, "Keep jobs with any of these statuses")
	exportCmd.Flags().StringSliceVar(&exportPeople, "person", nil, "Keep jobs worked on by any of these people")

	_ = exportCmd.MarkFlagRequired("output")
}
