package output

import (
	"fmt"
	"math"
	"strings"

	"jobcost/reconcile"
)

// Table is one exportable view: a header row plus value rows. Cells hold
// strings, ints or float64s.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

type Writer interface {
	Write(path string, table Table) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

func JobsTable(jobs []reconcile.MergedJob) Table {
	table := Table{
		Name:    "Jobs",
		Headers: []string{"Key", "Name", "Status", "Costable", "Unbilled", "Price", "Hours", "Rate", "People", "JobTypes", "Link"},
		Rows:    make([][]any, 0, len(jobs)),
	}
	for _, job := range jobs {
		rate := ""
		if value, ok := job.Rate(); ok {
			rate = fmt.Sprintf("%.2f", value)
		}
		people := make([]string, 0, len(job.People))
		for _, person := range job.People {
			people = append(people, fmt.Sprintf("%s (%.2fh)", person.Name, person.Hours))
		}
		table.Rows = append(table.Rows, []any{
			job.Key,
			job.Name,
			job.Status,
			yesNo(job.Costable),
			yesNo(job.Unbilled()),
			round2(job.Price),
			round2(job.TotalHours),
			rate,
			strings.Join(people, "; "),
			strings.Join(job.JobTypes, ", "),
			job.Link,
		})
	}
	return table
}

func PeopleTable(people []PersonSummary) Table {
	table := Table{
		Name:    "People",
		Headers: []string{"Person", "Hours", "CostableHours", "Utilization", "Revenue", "AvgRate", "Jobs"},
		Rows:    make([][]any, 0, len(people)),
	}
	for _, person := range people {
		table.Rows = append(table.Rows, []any{
			person.Name,
			round2(person.TotalHours),
			round2(person.CostableHours),
			round2(person.Utilization),
			round2(person.Revenue),
			round2(person.AvgRate),
			person.JobCount,
		})
	}
	return table
}

func MonthlyTable(months []MonthSummary) Table {
	table := Table{
		Name:    "Monthly",
		Headers: []string{"Month", "Hours", "Revenue"},
		Rows:    make([][]any, 0, len(months)),
	}
	for _, month := range months {
		table.Rows = append(table.Rows, []any{
			month.Month,
			round2(month.Hours),
			round2(month.Revenue),
		})
	}
	return table
}

func formatCell(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprint(v)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
