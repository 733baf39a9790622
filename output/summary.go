package output

import (
	"sort"

	"jobcost/reconcile"
)

// PersonSummary aggregates one person's contribution across jobs.
type PersonSummary struct {
	Name          string      `json:"name"`
	TotalHours    float64     `json:"totalHours"`
	CostableHours float64     `json:"costableHours"`
	Revenue       float64     `json:"revenue"`
	JobCount      int         `json:"jobCount"`
	Utilization   float64     `json:"utilization"`
	AvgRate       float64     `json:"avgRate"`
	Jobs          []PersonJob `json:"jobs"`
}

type PersonJob struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Hours    float64 `json:"hours"`
	Fraction float64 `json:"fraction"`
	Revenue  float64 `json:"revenue"`
}

type MonthSummary struct {
	Month   string  `json:"month"`
	Hours   float64 `json:"hours"`
	Revenue float64 `json:"revenue"`
}

type JobTypeRate struct {
	JobType  string  `json:"jobType"`
	Revenue  float64 `json:"revenue"`
	Hours    float64 `json:"hours"`
	Rate     float64 `json:"rate"`
	JobCount int     `json:"jobCount"`
}

type CostableBreakdown struct {
	CostableRevenue  float64 `json:"costableRevenue"`
	CostableHours    float64 `json:"costableHours"`
	NonCostableHours float64 `json:"nonCostableHours"`
	Utilization      float64 `json:"utilization"`
}

type TopMetric string

const (
	TopByPrice TopMetric = "price"
	TopByHours TopMetric = "hours"
)

// BuildPeople folds per-job shares into per-person totals, largest hours
// first. Revenue counts only costable priced jobs.
func BuildPeople(jobs []reconcile.MergedJob) []PersonSummary {
	byName := make(map[string]*PersonSummary)
	for _, job := range jobs {
		for _, share := range job.People {
			person, ok := byName[share.Name]
			if !ok {
				person = &PersonSummary{Name: share.Name, Jobs: []PersonJob{}}
				byName[share.Name] = person
			}

			revenue := reconcile.PersonRevenueShare(job, share)
			person.TotalHours += share.Hours
			if job.Costable {
				person.CostableHours += share.Hours
			}
			person.Revenue += revenue
			person.Jobs = append(person.Jobs, PersonJob{
				Key:      job.Key,
				Name:     job.Name,
				Status:   job.Status,
				Hours:    share.Hours,
				Fraction: share.Fraction,
				Revenue:  revenue,
			})
		}
	}

	people := make([]PersonSummary, 0, len(byName))
	for _, person := range byName {
		person.JobCount = len(person.Jobs)
		person.Utilization = reconcile.Utilization(person.CostableHours, person.TotalHours)
		if person.CostableHours > 0 {
			person.AvgRate = person.Revenue / person.CostableHours
		}
		sort.SliceStable(person.Jobs, func(i, j int) bool {
			return person.Jobs[i].Hours > person.Jobs[j].Hours
		})
		people = append(people, *person)
	}

	sort.Slice(people, func(i, j int) bool {
		if people[i].TotalHours == people[j].TotalHours {
			return people[i].Name < people[j].Name
		}
		return people[i].TotalHours > people[j].TotalHours
	})
	return people
}

// BuildMonthly sums hours and estimated costable revenue per month, oldest
// month first.
func BuildMonthly(jobs []reconcile.MergedJob) []MonthSummary {
	byMonth := make(map[string]*MonthSummary)
	for _, job := range jobs {
		for month, hours := range job.ByMonth {
			summary, ok := byMonth[month]
			if !ok {
				summary = &MonthSummary{Month: month}
				byMonth[month] = summary
			}
			summary.Hours += hours
			summary.Revenue += reconcile.MonthlyRevenue(job, month)
		}
	}

	months := make([]MonthSummary, 0, len(byMonth))
	for _, summary := range byMonth {
		months = append(months, *summary)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

// BuildJobTypeRates computes revenue per hour for each job type tag over jobs
// with both a price and hours. A job carrying several tags counts toward each.
func BuildJobTypeRates(jobs []reconcile.MergedJob) []JobTypeRate {
	byType := make(map[string]*JobTypeRate)
	for _, job := range jobs {
		if job.Price <= 0 || job.TotalHours <= 0 {
			continue
		}
		for _, jobType := range job.JobTypes {
			rate, ok := byType[jobType]
			if !ok {
				rate = &JobTypeRate{JobType: jobType}
				byType[jobType] = rate
			}
			rate.Revenue += job.Price
			rate.Hours += job.TotalHours
			rate.JobCount++
		}
	}

	rates := make([]JobTypeRate, 0, len(byType))
	for _, rate := range byType {
		if rate.Hours <= 0 {
			continue
		}
		rate.Rate = rate.Revenue / rate.Hours
		if rate.Rate > 0 {
			rates = append(rates, *rate)
		}
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Rate == rates[j].Rate {
			return rates[i].JobType < rates[j].JobType
		}
		return rates[i].Rate > rates[j].Rate
	})
	return rates
}

// TopJobs returns up to n jobs with the largest metric value. Jobs where the
// metric is zero are left out. n <= 0 returns all of them.
func TopJobs(jobs []reconcile.MergedJob, metric TopMetric, n int) []reconcile.MergedJob {
	value := func(job reconcile.MergedJob) float64 {
		if metric == TopByPrice {
			return job.Price
		}
		return job.TotalHours
	}

	top := make([]reconcile.MergedJob, 0, len(jobs))
	for _, job := range jobs {
		if value(job) > 0 {
			top = append(top, job)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		if value(top[i]) == value(top[j]) {
			return top[i].Key < top[j].Key
		}
		return value(top[i]) > value(top[j])
	})
	if n > 0 && len(top) > n {
		top = top[:n]
	}
	return top
}

func BuildCostableBreakdown(jobs []reconcile.MergedJob) CostableBreakdown {
	var breakdown CostableBreakdown
	for _, job := range jobs {
		if !job.Costable {
			breakdown.NonCostableHours += job.TotalHours
			continue
		}
		breakdown.CostableHours += job.TotalHours
		if job.Price > 0 {
			breakdown.CostableRevenue += job.Price
		}
	}
	breakdown.Utilization = reconcile.Utilization(
		breakdown.CostableHours,
		breakdown.CostableHours+breakdown.NonCostableHours,
	)
	return breakdown
}
