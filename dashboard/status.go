package dashboard

import (
	"time"

	"jobcost/reconcile"
)

// CacheAge describes when one source's data was captured.
type CacheAge struct {
	CapturedAt *time.Time `json:"capturedAt"`
	AgeSeconds float64    `json:"ageSeconds"`
}

type StatusReport struct {
	Ready       bool                `json:"ready"`
	Offline     bool                `json:"offline"`
	CycleID     string              `json:"cycleId,omitempty"`
	Range       string              `json:"range,omitempty"`
	RefreshedAt *time.Time          `json:"refreshedAt,omitempty"`
	Jobs        CacheAge            `json:"jobs"`
	Entries     CacheAge            `json:"entries"`
	Dropped     reconcile.DropStats `json:"dropped"`
}

// Status describes the data currently served.
func (s *Service) Status() StatusReport {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return StatusReport{}
	}

	now := s.now()
	refreshedAt := current.refreshedAt
	return StatusReport{
		Ready:       true,
		Offline:     current.offline,
		CycleID:     current.cycleID,
		Range:       current.rng.Key(),
		RefreshedAt: &refreshedAt,
		Jobs:        ageOf(current.jobsCapturedAt, now),
		Entries:     ageOf(current.entriesCapturedAt, now),
		Dropped:     current.result.Dropped,
	}
}

func ageOf(capturedAt, now time.Time) CacheAge {
	if capturedAt.IsZero() {
		return CacheAge{}
	}
	age := now.Sub(capturedAt)
	if age < 0 {
		age = 0
	}
	return CacheAge{CapturedAt: &capturedAt, AgeSeconds: age.Seconds()}
}
