// Package worklog defines the normalized time entry and job record types shared
// by sources, caches and reconciliation.
package worklog

import "time"

// Entry is the normalized time entry used across sources, caches and reconciliation.
type Entry struct {
	PersonID   string    `json:"personId"`
	PersonName string    `json:"personName"`
	Date       time.Time `json:"date"`
	Hours      float64   `json:"hours"`
	JobKey     string    `json:"jobKey,omitempty"`
	Project    string    `json:"project,omitempty"`
}

// Person returns the display identity of the entry's author.
func (e Entry) Person() string {
	if e.PersonName != "" {
		return e.PersonName
	}
	return e.PersonID
}

// Job is the normalized job/billing record from the project-tracking source.
type Job struct {
	Key       string     `json:"key"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Status    string     `json:"status"`
	JobTypes  []string   `json:"jobTypes"`
	LineItems []LineItem `json:"lineItems"`
	Link      string     `json:"link,omitempty"`
}

// LineItem is one priced sub-item of a job record.
type LineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
