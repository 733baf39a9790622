package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobcost/reconcile"
)

func fixtureJobs() []reconcile.MergedJob {
	rate := 1000.0 / 15.0
	return []reconcile.MergedJob{
		{
			Key:           "2024-7",
			Name:          "Smith Boundary",
			Status:        "Jeff Approved",
			Matched:       true,
			Costable:      true,
			Price:         1000,
			TotalHours:    15,
			EffectiveRate: &rate,
			JobTypes:      []string{"Field", "Office"},
			People: []reconcile.PersonShare{
				{Name: "Ann Lee", Hours: 10, Days: 2, Fraction: 10.0 / 15.0},
				{Name: "Bo Kim", Hours: 5, Days: 1, Fraction: 5.0 / 15.0},
			},
			ByMonth: map[string]float64{"2024-02": 5, "2024-03": 10},
		},
		{
			Key:        "2024-9",
			Name:       "Barn Survey",
			Status:     "Lead",
			Matched:    true,
			Price:      400,
			TotalHours: 5,
			JobTypes:   []string{"Field"},
			People: []reconcile.PersonShare{
				{Name: "Bo Kim", Hours: 5, Days: 1, Fraction: 1},
			},
			ByMonth: map[string]float64{"2024-03": 5},
		},
		{
			Key:        "2024-11",
			Name:       "2024-11 Unbilled",
			TotalHours: 2,
			JobTypes:   []string{},
			People: []reconcile.PersonShare{
				{Name: "Cy Day", Hours: 2, Days: 1, Fraction: 1},
			},
			ByMonth: map[string]float64{"2024-04": 2},
		},
	}
}

func TestBuildPeople(t *testing.T) {
	t.Parallel()

	people := BuildPeople(fixtureJobs())
	require.Len(t, people, 3)

	ann := people[0]
	assert.Equal(t, "Ann Lee", ann.Name, "ties on hours break by name")
	assert.Equal(t, 10.0, ann.TotalHours)
	assert.InDelta(t, 2000.0/3.0, ann.Revenue, 1e-9)
	assert.Equal(t, 1.0, ann.Utilization)

	bo := people[1]
	assert.Equal(t, "Bo Kim", bo.Name)
	assert.Equal(t, 10.0, bo.TotalHours)
	assert.Equal(t, 5.0, bo.CostableHours)
	assert.InDelta(t, 1000.0/3.0, bo.Revenue, 1e-9)
	assert.Equal(t, 2, bo.JobCount)
	assert.InDelta(t, 0.5, bo.Utilization, 1e-9)
	assert.InDelta(t, 1000.0/15.0, bo.AvgRate, 1e-9)
	assert.Equal(t, "2024-7", bo.Jobs[0].Key)

	cy := people[2]
	assert.Zero(t, cy.Revenue)
	assert.Zero(t, cy.AvgRate)
	assert.Zero(t, cy.Utilization)
}

func TestBuildMonthly(t *testing.T) {
	t.Parallel()

	months := BuildMonthly(fixtureJobs())
	require.Len(t, months, 3)

	assert.Equal(t, "2024-02", months[0].Month)
	assert.InDelta(t, 1000.0/3.0, months[0].Revenue, 1e-9)
	assert.Equal(t, "2024-03", months[1].Month)
	assert.Equal(t, 15.0, months[1].Hours)
	assert.InDelta(t, 2000.0/3.0, months[1].Revenue, 1e-9, "non-costable job contributes hours only")
	assert.Equal(t, "2024-04", months[2].Month)
	assert.Zero(t, months[2].Revenue)
}

func TestBuildJobTypeRates(t *testing.T) {
	t.Parallel()

	rates := BuildJobTypeRates(fixtureJobs())
	require.Len(t, rates, 2)

	assert.Equal(t, "Field", rates[0].JobType)
	assert.InDelta(t, 1400.0/20.0, rates[0].Rate, 1e-9)
	assert.Equal(t, 2, rates[0].JobCount)
	assert.Equal(t, "Office", rates[1].JobType)
	assert.InDelta(t, 1000.0/15.0, rates[1].Rate, 1e-9)
}

func TestBuildJobTypeRatesSortedDescending(t *testing.T) {
	t.Parallel()

	rates := BuildJobTypeRates(fixtureJobs())
	for i := 1; i < len(rates); i++ {
		assert.GreaterOrEqual(t, rates[i-1].Rate, rates[i].Rate)
	}
}

func TestTopJobs(t *testing.T) {
	t.Parallel()

	byPrice := TopJobs(fixtureJobs(), TopByPrice, 10)
	require.Len(t, byPrice, 2, "zero price jobs are excluded")
	assert.Equal(t, "2024-7", byPrice[0].Key)

	byHours := TopJobs(fixtureJobs(), TopByHours, 2)
	require.Len(t, byHours, 2)
	assert.Equal(t, "2024-7", byHours[0].Key)
	assert.Equal(t, "2024-9", byHours[1].Key)

	assert.Len(t, TopJobs(fixtureJobs(), TopByHours, 0), 3)
}

func TestBuildCostableBreakdown(t *testing.T) {
	t.Parallel()

	breakdown := BuildCostableBreakdown(fixtureJobs())
	assert.Equal(t, 1000.0, breakdown.CostableRevenue)
	assert.Equal(t, 15.0, breakdown.CostableHours)
	assert.Equal(t, 7.0, breakdown.NonCostableHours)
	assert.InDelta(t, 15.0/22.0, breakdown.Utilization, 1e-9)

	assert.Equal(t, CostableBreakdown{}, BuildCostableBreakdown(nil))
}

func TestPersonPalette_IsOrderIndependent(t *testing.T) {
	t.Parallel()

	first := PersonPalette([]string{"Cy Day", "Ann Lee", "Bo Kim", "Ann Lee"})
	second := PersonPalette([]string{"Bo Kim", "Ann Lee", "Cy Day"})

	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
	assert.Equal(t, personColors[0], first["Ann Lee"])
	assert.Equal(t, personColors[2], first["Cy Day"])
}

func TestPersonPalette_WrapsAround(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, len(personColors)+1)
	for i := 0; i <= len(personColors); i++ {
		names = append(names, string(rune('A'+i)))
	}
	palette := PersonPalette(names)
	assert.Equal(t, palette["A"], palette[string(rune('A'+len(personColors)))])
}
