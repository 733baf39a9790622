package web

import (
	"math"

	"jobcost/filter"
	"jobcost/output"
	"jobcost/reconcile"
)

type jobsResponse struct {
	Jobs []reconcile.MergedJob `json:"jobs"`
	// OutlierCeiling is null when too few rates exist to compute one.
	OutlierCeiling *float64     `json:"outlierCeiling"`
	Stats          filter.Stats `json:"stats"`
}

type optionsResponse struct {
	filter.Options
	CostableStatuses []string          `json:"costableStatuses"`
	Palette          map[string]string `json:"palette"`
}

type peopleResponse struct {
	People  []output.PersonSummary `json:"people"`
	Palette map[string]string      `json:"palette"`
}

type summaryResponse struct {
	Stats      filter.Stats             `json:"stats"`
	Monthly    []output.MonthSummary    `json:"monthly"`
	JobTypes   []output.JobTypeRate     `json:"jobTypes"`
	TopByPrice []reconcile.MergedJob    `json:"topByPrice"`
	TopByHours []reconcile.MergedJob    `json:"topByHours"`
	Costable   output.CostableBreakdown `json:"costable"`
}

func newJobsResponse(result filter.Result) jobsResponse {
	resp := jobsResponse{
		Jobs:  result.Jobs,
		Stats: result.Stats,
	}
	if resp.Jobs == nil {
		resp.Jobs = []reconcile.MergedJob{}
	}
	if !math.IsInf(result.OutlierCeiling, 0) && !math.IsNaN(result.OutlierCeiling) {
		ceiling := result.OutlierCeiling
		resp.OutlierCeiling = &ceiling
	}
	return resp
}

func newOptionsResponse(all filter.Result) optionsResponse {
	options := filter.BuildOptions(all.Jobs)
	return optionsResponse{
		Options:          options,
		CostableStatuses: reconcile.CostableStatuses(),
		Palette:          output.PersonPalette(options.People),
	}
}

func newPeopleResponse(result, all filter.Result) peopleResponse {
	palette := output.PersonPalette(filter.BuildOptions(all.Jobs).People)
	people := output.BuildPeople(result.Jobs)
	shown := make(map[string]string, len(people))
	for _, person := range people {
		shown[person.Name] = palette[person.Name]
	}
	return peopleResponse{
		People:  people,
		Palette: shown,
	}
}

func newSummaryResponse(result filter.Result, topN int) summaryResponse {
	return summaryResponse{
		Stats:      result.Stats,
		Monthly:    output.BuildMonthly(result.Jobs),
		JobTypes:   output.BuildJobTypeRates(result.Jobs),
		TopByPrice: output.TopJobs(result.Jobs, output.TopByPrice, topN),
		TopByHours: output.TopJobs(result.Jobs, output.TopByHours, topN),
		Costable:   output.BuildCostableBreakdown(result.Jobs),
	}
}
