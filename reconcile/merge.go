package reconcile

import (
	"math"
	"sort"
	"strings"

	"jobcost/internal/jobkey"
	"jobcost/internal/timeutil"
	"jobcost/worklog"
)

// Result is the outcome of one merge cycle.
type Result struct {
	Jobs    []MergedJob `json:"jobs"`
	Dropped DropStats   `json:"dropped"`
}

// DropStats counts input that did not make it into any merged job.
type DropStats struct {
	// UnkeyedEntries are time entries without a resolvable job key, such as
	// "Office Admin". Their hours are not attributed anywhere.
	UnkeyedEntries int     `json:"unkeyedEntries"`
	UnkeyedHours   float64 `json:"unkeyedHours"`
	// InvalidEntries have a negative or non-finite duration.
	InvalidEntries int `json:"invalidEntries"`
	// UnkeyedJobs are job records whose key does not resolve.
	UnkeyedJobs      int      `json:"unkeyedJobs"`
	DuplicateJobKeys []string `json:"duplicateJobKeys,omitempty"`
}

type personAccumulator struct {
	hours float64
	days  map[string]struct{}
}

type group struct {
	key         string
	projectName string
	totalHours  float64
	people      map[string]*personAccumulator
	byMonth     map[string]float64
}

// Merge groups entries by job key and joins each group with its job record.
// Groups without a record become unbilled jobs. The result is ordered by
// total hours, largest first, then by key.
func Merge(jobs []worklog.Job, entries []worklog.Entry) Result {
	var result Result

	index, unkeyed, duplicates := indexJobs(jobs)
	result.Dropped.UnkeyedJobs = unkeyed
	result.Dropped.DuplicateJobKeys = duplicates

	groups := make(map[string]*group)
	for _, entry := range entries {
		if entry.Hours < 0 || math.IsNaN(entry.Hours) || math.IsInf(entry.Hours, 0) {
			result.Dropped.InvalidEntries++
			continue
		}

		key, ok := jobkey.ResolveFirst(entry.JobKey, entry.Project)
		if !ok {
			result.Dropped.UnkeyedEntries++
			result.Dropped.UnkeyedHours += entry.Hours
			continue
		}

		g, ok := groups[key]
		if !ok {
			g = &group{
				key:     key,
				people:  make(map[string]*personAccumulator),
				byMonth: make(map[string]float64),
			}
			groups[key] = g
		}
		g.add(entry)
	}

	result.Jobs = make([]MergedJob, 0, len(groups))
	for _, g := range groups {
		record, matched := index[g.key]
		result.Jobs = append(result.Jobs, g.build(record, matched))
	}

	sort.Slice(result.Jobs, func(i, j int) bool {
		if result.Jobs[i].TotalHours == result.Jobs[j].TotalHours {
			return result.Jobs[i].Key < result.Jobs[j].Key
		}
		return result.Jobs[i].TotalHours > result.Jobs[j].TotalHours
	})

	return result
}

// indexJobs maps job keys to records. Records are keyed through the resolver
// so "2024-7 " and "2024-7" collide. Among duplicates the record with the
// higher price wins, then the smaller name, then the smaller link, so the
// outcome does not depend on source order.
func indexJobs(jobs []worklog.Job) (map[string]worklog.Job, int, []string) {
	index := make(map[string]worklog.Job, len(jobs))
	duplicateSet := make(map[string]struct{})
	unkeyed := 0

	for _, job := range jobs {
		key, ok := jobkey.Resolve(job.Key)
		if !ok {
			unkeyed++
			continue
		}
		job.Key = key

		existing, seen := index[key]
		if !seen {
			index[key] = job
			continue
		}
		duplicateSet[key] = struct{}{}
		if preferJob(job, existing) {
			index[key] = job
		}
	}

	duplicates := make([]string, 0, len(duplicateSet))
	for key := range duplicateSet {
		duplicates = append(duplicates, key)
	}
	sort.Strings(duplicates)

	return index, unkeyed, duplicates
}

func preferJob(candidate, existing worklog.Job) bool {
	if candidate.Price != existing.Price {
		return candidate.Price > existing.Price
	}
	if candidate.Name != existing.Name {
		return candidate.Name < existing.Name
	}
	return candidate.Link < existing.Link
}

func (g *group) add(entry worklog.Entry) {
	person := entry.Person()
	acc, ok := g.people[person]
	if !ok {
		acc = &personAccumulator{days: make(map[string]struct{})}
		g.people[person] = acc
	}
	acc.hours += entry.Hours
	g.totalHours += entry.Hours

	if !entry.Date.IsZero() {
		acc.days[timeutil.DayKey(entry.Date)] = struct{}{}
		g.byMonth[timeutil.MonthKey(entry.Date)] += entry.Hours
	}

	project := strings.TrimSpace(entry.Project)
	if project != "" && (g.projectName == "" || project < g.projectName) {
		g.projectName = project
	}
}

func (g *group) build(record worklog.Job, matched bool) MergedJob {
	job := MergedJob{
		Key:        g.key,
		Name:       g.displayName(record),
		Matched:    matched,
		JobTypes:   []string{},
		LineItems:  []worklog.LineItem{},
		TotalHours: g.totalHours,
		People:     g.shares(),
		ByMonth:    g.byMonth,
	}

	if matched {
		job.Status = record.Status
		job.Price = record.Price
		job.Link = record.Link
		job.Costable = IsCostable(record.Status)
		job.JobTypes = append(job.JobTypes, record.JobTypes...)
		job.LineItems = append(job.LineItems, record.LineItems...)
	}

	if rate, ok := EffectiveRate(job); ok {
		job.EffectiveRate = &rate
	}
	return job
}

func (g *group) displayName(record worklog.Job) string {
	if name := strings.TrimSpace(record.Name); name != "" {
		return name
	}
	if g.projectName != "" {
		return g.projectName
	}
	return g.key
}

func (g *group) shares() []PersonShare {
	people := make([]PersonShare, 0, len(g.people))
	for name, acc := range g.people {
		share := PersonShare{
			Name:  name,
			Hours: acc.hours,
			Days:  len(acc.days),
		}
		if g.totalHours > 0 {
			share.Fraction = acc.hours / g.totalHours
		}
		people = append(people, share)
	}

	sort.Slice(people, func(i, j int) bool {
		if people[i].Hours == people[j].Hours {
			return people[i].Name < people[j].Name
		}
		return people[i].Hours > people[j].Hours
	})
	return people
}
