package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"jobcost/worklog"
)

const jobsPath = "/api/v1/jobs"

// JobClient reads job records from the project-tracking service.
type JobClient struct {
	rest *restClient
}

func NewJobClient(cfg ClientConfig) (*JobClient, error) {
	rest, err := newRESTClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("job source: %w", err)
	}
	return &JobClient{rest: rest}, nil
}

type jobItem struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	JobKey   string       `json:"jobKey"`
	Status   string       `json:"status"`
	JobTypes string       `json:"jobTypes"`
	Link     string       `json:"link"`
	Subitems []jobSubitem `json:"subitems"`
}

type jobSubitem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// FetchJobRecords returns every job record. Records without a job key field
// are skipped; records whose key does not resolve are kept and left to the
// merge step.
func (c *JobClient) FetchJobRecords(ctx context.Context) ([]worklog.Job, error) {
	items, err := fetchAll[jobItem](ctx, c.rest, jobsPath, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("fetch job records: %w", err)
	}

	jobs := make([]worklog.Job, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item.JobKey)
		if key == "" {
			continue
		}
		jobs = append(jobs, normalizeJob(key, item))
	}
	return jobs, nil
}

func normalizeJob(key string, item jobItem) worklog.Job {
	total := decimal.Zero
	lineItems := make([]worklog.LineItem, 0, len(item.Subitems))
	for _, sub := range item.Subitems {
		price := ParsePrice(sub.Price)
		total = total.Add(price)

		name := strings.TrimSpace(sub.Name)
		if name == "" {
			continue
		}
		lineItems = append(lineItems, worklog.LineItem{Name: name, Price: price.InexactFloat64()})
	}

	return worklog.Job{
		Key:       key,
		Name:      strings.TrimSpace(item.Name),
		Price:     total.InexactFloat64(),
		Status:    strings.TrimSpace(item.Status),
		JobTypes:  SplitJobTypes(item.JobTypes),
		LineItems: lineItems,
		Link:      strings.TrimSpace(item.Link),
	}
}

// ParsePrice reads a price column such as "1,250.00" or "$980". Text that is
// not a number counts as zero.
func ParsePrice(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// SplitJobTypes splits a comma-separated tag column, dropping blanks.
func SplitJobTypes(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
