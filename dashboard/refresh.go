package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"jobcost/cache"
	"jobcost/internal/timeutil"
	"jobcost/reconcile"
	"jobcost/source"
	"jobcost/worklog"
)

type OutcomeStatus string

const (
	StatusSuccess  OutcomeStatus = "success"
	StatusDegraded OutcomeStatus = "degraded"
	StatusFailure  OutcomeStatus = "failure"
)

// Outcome reports one refresh cycle.
type Outcome struct {
	CycleID       string              `json:"cycleId"`
	Status        OutcomeStatus       `json:"status"`
	Message       string              `json:"message"`
	Range         string              `json:"range"`
	Offline       bool                `json:"offline"`
	AuthRequired  bool                `json:"authRequired,omitempty"`
	JobsCached    bool                `json:"jobsCached"`
	EntriesCached bool                `json:"entriesCached"`
	JobCount      int                 `json:"jobCount"`
	Dropped       reconcile.DropStats `json:"dropped"`
}

// Refresh runs one cycle for rng. Without force, cached job records are
// reused while present, and cached time entries are reused while they match
// rng and are not older than the time source's last sync. A forced refresh
// drops the in-memory result and fetches both sources.
//
// When a fetch fails and both caches hold data for rng, the cycle completes
// from cache in offline mode. Otherwise it fails and no partial result is
// published.
func (s *Service) Refresh(ctx context.Context, rng timeutil.DateRange, force bool) Outcome {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	cycleID := s.newCycleID()
	rangeKey := rng.Key()
	logger := s.logger.With().Str("cycle_id", cycleID).Str("range", rangeKey).Bool("force", force).Logger()
	outcome := Outcome{CycleID: cycleID, Range: rangeKey}

	if force {
		s.swap(nil)
	}

	jobsEntry, jobsPresent := s.jobCache.Load()
	entriesEntry, entriesPresent := s.entryCache.Load()

	var lastSynced *time.Time
	if !force {
		status, err := s.time.FetchSyncStatus(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("sync status unavailable, skipping staleness check")
		} else {
			lastSynced = status.LastSyncedAt
		}
	}

	useJobs := !force && jobsPresent && cache.Usable(&jobsEntry, nil, "")
	useEntries := !force && entriesPresent && cache.Usable(&entriesEntry, lastSynced, rangeKey)
	outcome.JobsCached = useJobs
	outcome.EntriesCached = useEntries

	logger.Debug().Bool("jobs_cached", useJobs).Bool("entries_cached", useEntries).Msg("refresh started")

	fetchedJobs, fetchedEntries, err := s.fetchBoth(ctx, rng, !useJobs, !useEntries)
	if err != nil {
		return s.fallback(logger, outcome, rng, err, jobsEntry, jobsPresent, entriesEntry, entriesPresent)
	}

	jobs, jobsAt := jobsEntry.Payload, jobsEntry.CapturedAt
	if !useJobs {
		saved, _ := s.jobCache.Save(fetchedJobs, "")
		jobs, jobsAt = fetchedJobs, saved.CapturedAt
	}
	entries, entriesAt := entriesEntry.Payload, entriesEntry.CapturedAt
	if !useEntries {
		saved, _ := s.entryCache.Save(fetchedEntries, rangeKey)
		entries, entriesAt = fetchedEntries, saved.CapturedAt
	}

	result := reconcile.Merge(jobs, entries)
	s.swap(&snapshot{
		cycleID:           cycleID,
		rng:               rng,
		result:            result,
		refreshedAt:       s.now(),
		jobsCapturedAt:    jobsAt,
		entriesCapturedAt: entriesAt,
	})

	logDrops(logger, result)
	logger.Info().
		Int("job_records", len(jobs)).
		Int("time_entries", len(entries)).
		Int("merged_jobs", len(result.Jobs)).
		Msg("refresh complete")

	outcome.Status = StatusSuccess
	outcome.Message = fmt.Sprintf("loaded %d jobs for %s", len(result.Jobs), rng)
	outcome.JobCount = len(result.Jobs)
	outcome.Dropped = result.Dropped
	return outcome
}

func (s *Service) fallback(
	logger zerolog.Logger,
	outcome Outcome,
	rng timeutil.DateRange,
	fetchErr error,
	jobsEntry cache.Entry[[]worklog.Job],
	jobsPresent bool,
	entriesEntry cache.Entry[[]worklog.Entry],
	entriesPresent bool,
) Outcome {
	outcome.JobsCached = false
	outcome.EntriesCached = false
	outcome.AuthRequired = errors.Is(fetchErr, source.ErrAuthRequired)

	if !jobsPresent || !entriesPresent || entriesEntry.RangeKey != rng.Key() {
		logger.Error().Err(fetchErr).Msg("refresh failed with no cached fallback")
		outcome.Status = StatusFailure
		outcome.Message = fetchErr.Error()
		return outcome
	}

	result := reconcile.Merge(jobsEntry.Payload, entriesEntry.Payload)
	s.swap(&snapshot{
		cycleID:           outcome.CycleID,
		rng:               rng,
		result:            result,
		offline:           true,
		refreshedAt:       s.now(),
		jobsCapturedAt:    jobsEntry.CapturedAt,
		entriesCapturedAt: entriesEntry.CapturedAt,
	})

	logger.Warn().Err(fetchErr).Int("merged_jobs", len(result.Jobs)).Msg("refresh failed, serving cached data")

	outcome.Status = StatusDegraded
	outcome.Offline = true
	outcome.JobsCached = true
	outcome.EntriesCached = true
	outcome.Message = fmt.Sprintf("offline, showing cached data: %v", fetchErr)
	outcome.JobCount = len(result.Jobs)
	outcome.Dropped = result.Dropped
	return outcome
}

func logDrops(logger zerolog.Logger, result reconcile.Result) {
	dropped := result.Dropped
	if dropped.UnkeyedEntries > 0 {
		logger.Debug().
			Int("entries", dropped.UnkeyedEntries).
			Float64("hours", dropped.UnkeyedHours).
			Msg("time entries without job key dropped")
	}
	if dropped.InvalidEntries > 0 {
		logger.Warn().Int("entries", dropped.InvalidEntries).Msg("time entries with invalid duration dropped")
	}
	if len(dropped.DuplicateJobKeys) > 0 {
		logger.Warn().Strs("keys", dropped.DuplicateJobKeys).Msg("duplicate job keys in job records")
	}
}
