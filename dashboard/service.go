// Package dashboard runs refresh cycles: fetch both sources, merge, cache, and
// fall back to cached data when a source is unreachable.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jobcost/cache"
	"jobcost/filter"
	"jobcost/internal/timeutil"
	"jobcost/reconcile"
	"jobcost/source"
	"jobcost/worklog"
)

// ErrNoData is returned by reads before the first successful refresh.
var ErrNoData = errors.New("no data loaded yet")

type JobSource interface {
	FetchJobRecords(ctx context.Context) ([]worklog.Job, error)
}

type TimeSource interface {
	FetchTimeEntries(ctx context.Context, from, to time.Time) ([]worklog.Entry, error)
	FetchSyncStatus(ctx context.Context) (source.SyncStatus, error)
	TriggerSync(ctx context.Context) error
}

type Config struct {
	Jobs    JobSource
	Time    TimeSource
	Backend cache.Backend
	Logger  zerolog.Logger
	Now     func() time.Time
}

type Service struct {
	jobs       JobSource
	time       TimeSource
	jobCache   *cache.Store[[]worklog.Job]
	entryCache *cache.Store[[]worklog.Entry]
	logger     zerolog.Logger
	now        func() time.Time

	refreshMu sync.Mutex

	mu      sync.RWMutex
	current *snapshot
}

// snapshot is one completed merge cycle. It is replaced whole, never edited.
type snapshot struct {
	cycleID           string
	rng               timeutil.DateRange
	result            reconcile.Result
	offline           bool
	refreshedAt       time.Time
	jobsCapturedAt    time.Time
	entriesCapturedAt time.Time
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Jobs == nil {
		return nil, errors.New("job source is required")
	}
	if cfg.Time == nil {
		return nil, errors.New("time source is required")
	}
	if cfg.Backend == nil {
		cfg.Backend = cache.NewMemoryBackend()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		jobs:       cfg.Jobs,
		time:       cfg.Time,
		jobCache:   cache.New[[]worklog.Job](cfg.Backend, cache.JobsKey, cfg.Logger).WithClock(cfg.Now),
		entryCache: cache.New[[]worklog.Entry](cfg.Backend, cache.EntriesKey, cfg.Logger).WithClock(cfg.Now),
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

// MergedJobs runs the filter pipeline over the current merge result.
func (s *Service) MergedJobs(state filter.State) (filter.Result, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return filter.Result{}, ErrNoData
	}
	return filter.Apply(current.result.Jobs, state), nil
}

// TriggerSync asks the time source to pull upstream data. The next refresh
// picks up the result through the sync status check.
func (s *Service) TriggerSync(ctx context.Context) error {
	if err := s.time.TriggerSync(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("sync trigger failed")
		return err
	}
	s.logger.Info().Msg("sync triggered")
	return nil
}

func (s *Service) swap(next *snapshot) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

func (s *Service) newCycleID() string {
	return uuid.NewString()
}

type fetchError struct {
	op  string
	err error
}

func (e *fetchError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.op, e.err)
}

func (e *fetchError) Unwrap() error {
	return e.err
}

// fetchBoth runs the requested fetches concurrently. The first failure
// cancels the other.
func (s *Service) fetchBoth(ctx context.Context, rng timeutil.DateRange, needJobs, needEntries bool) ([]worklog.Job, []worklog.Entry, error) {
	var (
		jobs    []worklog.Job
		entries []worklog.Entry
	)

	g, gctx := errgroup.WithContext(ctx)
	if needJobs {
		g.Go(func() error {
			fetched, err := s.jobs.FetchJobRecords(gctx)
			if err != nil {
				return &fetchError{op: "job record refresh", err: err}
			}
			jobs = fetched
			return nil
		})
	}
	if needEntries {
		g.Go(func() error {
			fetched, err := s.time.FetchTimeEntries(gctx, rng.From, rng.To)
			if err != nil {
				return &fetchError{op: "time entry refresh", err: err}
			}
			entries = fetched
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return jobs, entries, nil
}
