// Package filter narrows, annotates and orders merged jobs for display.
package filter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"jobcost/reconcile"
)

type Mode string

const (
	ModeAll      Mode = "all"
	ModeCostable Mode = "costable"
	ModeOutliers Mode = "outliers"
)

type SortKey string

const (
	SortHours    SortKey = "hours"
	SortRateAsc  SortKey = "rate-asc"
	SortRateDesc SortKey = "rate-desc"
	SortPrice    SortKey = "price"
	SortKeyAsc   SortKey = "key"
)

// State is the user's current filter selection. Empty selections do not
// filter.
type State struct {
	Query    string
	Mode     Mode
	JobTypes []string
	Statuses []string
	People   []string
	Sort     SortKey
}

// Stats summarize the filtered set.
type Stats struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalHours   float64 `json:"totalHours"`
	AvgRate      float64 `json:"avgRate"`
	Count        int     `json:"count"`
}

type Result struct {
	Jobs []reconcile.MergedJob
	// OutlierCeiling is Q3 + 1.5*IQR over the filtered rates, or +Inf when
	// fewer than three rates are defined.
	OutlierCeiling float64
	Stats          Stats
}

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeCostable:
		return ModeCostable, nil
	case ModeOutliers:
		return ModeOutliers, nil
	default:
		return "", fmt.Errorf("unsupported mode %q (expected all, costable or outliers)", raw)
	}
}

func ParseSortKey(raw string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortHours:
		return SortHours, nil
	case SortRateAsc:
		return SortRateAsc, nil
	case SortRateDesc:
		return SortRateDesc, nil
	case SortPrice:
		return SortPrice, nil
	case SortKeyAsc:
		return SortKeyAsc, nil
	default:
		return "", fmt.Errorf("unsupported sort %q (expected hours, rate-asc, rate-desc, price or key)", raw)
	}
}

// Apply runs the pipeline: text, mode, job type, status and person filters,
// then the outlier cut, then sorting. The input slice is not modified.
func Apply(jobs []reconcile.MergedJob, state State) Result {
	filtered := make([]reconcile.MergedJob, 0, len(jobs))

	query := ""
	folder := cases.Fold()
	if q := strings.TrimSpace(state.Query); q != "" {
		query = folder.String(q)
	}
	jobTypes := toSet(state.JobTypes)
	statuses := toSet(state.Statuses)
	people := state.People

	for _, job := range jobs {
		if query != "" &&
			!strings.Contains(folder.String(job.Key), query) &&
			!strings.Contains(folder.String(job.Name), query) {
			continue
		}
		if state.Mode == ModeCostable && !job.Costable {
			continue
		}
		if len(jobTypes) > 0 && !job.HasJobType(jobTypes) {
			continue
		}
		if len(statuses) > 0 && job.Status != "" {
			if _, ok := statuses[job.Status]; !ok {
				continue
			}
		}
		if len(people) > 0 && !hasAnyPerson(job, people) {
			continue
		}
		filtered = append(filtered, job)
	}

	ceiling := OutlierCeiling(filtered)
	if state.Mode == ModeOutliers {
		outliers := make([]reconcile.MergedJob, 0, len(filtered))
		for _, job := range filtered {
			if rate, ok := job.Rate(); ok && rate > ceiling {
				outliers = append(outliers, job)
			}
		}
		filtered = outliers
	}

	stats := computeStats(filtered)
	sortJobs(filtered, state.Sort)

	return Result{
		Jobs:           filtered,
		OutlierCeiling: ceiling,
		Stats:          stats,
	}
}

// OutlierCeiling returns the upper Tukey fence over the positive defined
// rates of jobs.
func OutlierCeiling(jobs []reconcile.MergedJob) float64 {
	rates := make([]float64, 0, len(jobs))
	for _, job := range jobs {
		if rate, ok := job.Rate(); ok && rate > 0 {
			rates = append(rates, rate)
		}
	}
	if len(rates) < 3 {
		return math.Inf(1)
	}
	sort.Float64s(rates)

	n := len(rates)
	q1 := rates[int(math.Floor(float64(n)*0.25))]
	q3 := rates[int(math.Floor(float64(n)*0.75))]
	return q3 + 1.5*(q3-q1)
}

func computeStats(jobs []reconcile.MergedJob) Stats {
	stats := Stats{Count: len(jobs)}
	var revenueHours float64
	for _, job := range jobs {
		stats.TotalHours += job.TotalHours
		if job.Costable && job.Price > 0 {
			stats.TotalRevenue += job.Price
			revenueHours += job.TotalHours
		}
	}
	if stats.TotalRevenue > 0 && revenueHours > 0 {
		stats.AvgRate = stats.TotalRevenue / revenueHours
	}
	return stats
}

func sortJobs(jobs []reconcile.MergedJob, key SortKey) {
	switch key {
	case SortRateAsc, SortRateDesc:
		ascending := key == SortRateAsc
		sort.SliceStable(jobs, func(i, j int) bool {
			ri, okI := jobs[i].Rate()
			rj, okJ := jobs[j].Rate()
			if !okI || !okJ {
				return okI && !okJ
			}
			if ascending {
				return ri < rj
			}
			return ri > rj
		})
	case SortPrice:
		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].Price > jobs[j].Price
		})
	case SortKeyAsc:
		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].Key < jobs[j].Key
		})
	default:
		sort.SliceStable(jobs, func(i, j int) bool {
			return jobs[i].TotalHours > jobs[j].TotalHours
		})
	}
}

func hasAnyPerson(job reconcile.MergedJob, people []string) bool {
	for _, name := range people {
		if job.HasPerson(name) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			set[value] = struct{}{}
		}
	}
	return set
}
