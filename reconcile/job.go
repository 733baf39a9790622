package reconcile

import "jobcost/worklog"

// MergedJob is one job key's time entries joined with its job record.
// Values are built once per merge cycle and never updated in place.
type MergedJob struct {
	Key           string             `json:"key"`
	Name          string             `json:"name"`
	Status        string             `json:"status"`
	JobTypes      []string           `json:"jobTypes"`
	LineItems     []worklog.LineItem `json:"lineItems"`
	Link          string             `json:"link,omitempty"`
	Matched       bool               `json:"matched"`
	Costable      bool               `json:"costable"`
	Price         float64            `json:"price"`
	TotalHours    float64            `json:"totalHours"`
	EffectiveRate *float64           `json:"effectiveRate"`
	People        []PersonShare      `json:"people"`
	ByMonth       map[string]float64 `json:"byMonth"`
}

// PersonShare is one person's contribution to a job.
type PersonShare struct {
	Name     string  `json:"name"`
	Hours    float64 `json:"hours"`
	Days     int     `json:"days"`
	Fraction float64 `json:"fraction"`
}

// Unbilled reports whether no job record matched the job key.
func (j MergedJob) Unbilled() bool {
	return !j.Matched
}

// HasPerson reports whether name logged time on the job.
func (j MergedJob) HasPerson(name string) bool {
	for _, person := range j.People {
		if person.Name == name {
			return true
		}
	}
	return false
}

// HasJobType reports whether the job carries at least one of the given tags.
func (j MergedJob) HasJobType(selected map[string]struct{}) bool {
	for _, jobType := range j.JobTypes {
		if _, ok := selected[jobType]; ok {
			return true
		}
	}
	return false
}

// Rate returns the effective rate when it is defined.
func (j MergedJob) Rate() (float64, bool) {
	if j.EffectiveRate == nil {
		return 0, false
	}
	return *j.EffectiveRate, true
}
