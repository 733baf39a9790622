package filter

import (
	"sort"
	"strings"

	"jobcost/reconcile"
)

// Options lists the distinct selectable values present in a set of jobs.
type Options struct {
	JobTypes []string `json:"jobTypes"`
	Statuses []string `json:"statuses"`
	People   []string `json:"people"`
}

func BuildOptions(jobs []reconcile.MergedJob) Options {
	jobTypes := make(map[string]struct{})
	statuses := make(map[string]struct{})
	people := make(map[string]struct{})

	for _, job := range jobs {
		for _, jobType := range job.JobTypes {
			if jobType != "" {
				jobTypes[jobType] = struct{}{}
			}
		}
		if job.Status != "" {
			statuses[job.Status] = struct{}{}
		}
		for _, person := range job.People {
			if person.Name != "" {
				people[person.Name] = struct{}{}
			}
		}
	}

	options := Options{
		JobTypes: sortedKeys(jobTypes),
		Statuses: sortedKeys(statuses),
		People:   sortedKeys(people),
	}
	sort.SliceStable(options.People, func(i, j int) bool {
		fi, fj := firstName(options.People[i]), firstName(options.People[j])
		if fi != fj {
			return fi < fj
		}
		return options.People[i] < options.People[j]
	})
	return options
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
