package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jobcost/cache"
	"jobcost/filter"
	"jobcost/internal/timeutil"
	"jobcost/source"
	"jobcost/worklog"
)

type mockJobSource struct {
	mock.Mock
}

func (m *mockJobSource) FetchJobRecords(ctx context.Context) ([]worklog.Job, error) {
	args := m.Called(ctx)
	jobs, _ := args.Get(0).([]worklog.Job)
	return jobs, args.Error(1)
}

type mockTimeSource struct {
	mock.Mock
}

func (m *mockTimeSource) FetchTimeEntries(ctx context.Context, from, to time.Time) ([]worklog.Entry, error) {
	args := m.Called(ctx, from, to)
	entries, _ := args.Get(0).([]worklog.Entry)
	return entries, args.Error(1)
}

func (m *mockTimeSource) FetchSyncStatus(ctx context.Context) (source.SyncStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(source.SyncStatus)
	return status, args.Error(1)
}

func (m *mockTimeSource) TriggerSync(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var (
	testNow   = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	testRange = timeutil.LastDays(testNow, 30)
)

func sampleJobs() []worklog.Job {
	return []worklog.Job{{
		Key:      "2024-7",
		Name:     "Smith Boundary",
		Price:    1000,
		Status:   "Jeff Approved",
		JobTypes: []string{"Field"},
	}}
}

func sampleEntries() []worklog.Entry {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return []worklog.Entry{
		{PersonName: "A", Date: day, Hours: 10, Project: "2024-7 Smith"},
		{PersonName: "B", Date: day, Hours: 5, Project: "2024-7 Smith"},
		{PersonName: "A", Date: day, Hours: 2, Project: "Office Admin"},
	}
}

type fixture struct {
	service *Service
	jobs    *mockJobSource
	time    *mockTimeSource
	backend *cache.MemoryBackend
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	jobs := &mockJobSource{}
	timeSource := &mockTimeSource{}
	backend := cache.NewMemoryBackend()

	service, err := NewService(Config{
		Jobs:    jobs,
		Time:    timeSource,
		Backend: backend,
		Logger:  zerolog.Nop(),
		Now:     func() time.Time { return testNow },
	})
	require.NoError(t, err)

	return fixture{service: service, jobs: jobs, time: timeSource, backend: backend}
}

func TestNewService_RequiresSources(t *testing.T) {
	t.Parallel()

	_, err := NewService(Config{Time: &mockTimeSource{}})
	assert.Error(t, err)
	_, err = NewService(Config{Jobs: &mockJobSource{}})
	assert.Error(t, err)
}

func TestMergedJobs_BeforeFirstRefresh(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.service.MergedJobs(filter.State{})
	assert.ErrorIs(t, err, ErrNoData)
	assert.False(t, f.service.Status().Ready)
}

func TestRefresh_FetchesMergesAndCaches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, nil)
	f.jobs.On("FetchJobRecords", mock.Anything).Return(sampleJobs(), nil).Once()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(sampleEntries(), nil).Once()

	outcome := f.service.Refresh(context.Background(), testRange, false)
	require.Equal(t, StatusSuccess, outcome.Status, outcome.Message)
	assert.NotEmpty(t, outcome.CycleID)
	assert.Equal(t, 1, outcome.JobCount)
	assert.Equal(t, 1, outcome.Dropped.UnkeyedEntries)
	assert.False(t, outcome.Offline)

	result, err := f.service.MergedJobs(filter.State{})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, 15.0, result.Jobs[0].TotalHours)
	assert.InDelta(t, 1000.0/15.0, result.Stats.AvgRate, 1e-9)

	_, ok, err := f.backend.GetSnapshot(cache.JobsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	entries, ok, err := f.backend.GetSnapshot(cache.EntriesKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testRange.Key(), entries.RangeKey)

	status := f.service.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, testRange.Key(), status.Range)
	require.NotNil(t, status.Jobs.CapturedAt)
	assert.Zero(t, status.Jobs.AgeSeconds)

	f.jobs.AssertExpectations(t)
	f.time.AssertExpectations(t)
}

func TestRefresh_ReusesUsableCaches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, nil)
	f.jobs.On("FetchJobRecords", mock.Anything).Return(sampleJobs(), nil).Once()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(sampleEntries(), nil).Once()

	require.Equal(t, StatusSuccess, f.service.Refresh(context.Background(), testRange, false).Status)

	second := f.service.Refresh(context.Background(), testRange, false)
	require.Equal(t, StatusSuccess, second.Status)
	assert.True(t, second.JobsCached)
	assert.True(t, second.EntriesCached)

	f.jobs.AssertNumberOfCalls(t, "FetchJobRecords", 1)
	f.time.AssertNumberOfCalls(t, "FetchTimeEntries", 1)
}

func TestRefresh_RefetchesEntriesForNewRange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	otherRange := timeutil.LastDays(testNow, 7)

	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, nil)
	f.jobs.On("FetchJobRecords", mock.Anything).Return(sampleJobs(), nil).Once()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(sampleEntries(), nil).Once()
	f.time.On("FetchTimeEntries", mock.Anything, otherRange.From, otherRange.To).Return([]worklog.Entry{}, nil).Once()

	require.Equal(t, StatusSuccess, f.service.Refresh(context.Background(), testRange, false).Status)

	narrowed := f.service.Refresh(context.Background(), otherRange, false)
	require.Equal(t, StatusSuccess, narrowed.Status)
	assert.True(t, narrowed.JobsCached)
	assert.False(t, narrowed.EntriesCached)
	assert.Zero(t, narrowed.JobCount)

	f.jobs.AssertExpectations(t)
	f.time.AssertExpectations(t)
}

func TestRefresh_RefetchesEntriesAfterNewerSync(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	synced := testNow.Add(time.Minute)

	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, nil).Once()
	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{LastSyncedAt: &synced}, nil).Once()
	f.jobs.On("FetchJobRecords", mock.Anything).Return(sampleJobs(), nil).Once()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(sampleEntries(), nil).Twice()

	require.Equal(t, StatusSuccess, f.service.Refresh(context.Background(), testRange, false).Status)

	stale := f.service.Refresh(context.Background(), testRange, false)
	require.Equal(t, StatusSuccess, stale.Status)
	assert.True(t, stale.JobsCached)
	assert.False(t, stale.EntriesCached, "upstream synced after capture")

	f.jobs.AssertExpectations(t)
	f.time.AssertExpectations(t)
}

func TestRefresh_ForceBypassesCacheReads(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, nil).Once()
	f.jobs.On("FetchJobRecords", mock.Anything).Return(sampleJobs(), nil).Twice()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(sampleEntries(), nil).Twice()

	require.Equal(t, StatusSuccess, f.service.Refresh(context.Background(), testRange, false).Status)
	forced := f.service.Refresh(context.Background(), testRange, true)
	require.Equal(t, StatusSuccess, forced.Status)
	assert.False(t, forced.JobsCached)
	assert.False(t, forced.EntriesCached)

	f.jobs.AssertExpectations(t)
	f.time.AssertExpectations(t)
}

func TestRefresh_FailureWithoutCacheFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, errors.New("status down"))
	f.jobs.On("FetchJobRecords", mock.Anything).
		Return(nil, fmt.Errorf("fetch job records: %w", source.ErrAuthRequired))
	f.time.On("FetchTimeEntries", mock.Anything, mock.Anything, mock.Anything).Return(sampleEntries(), nil).Maybe()

	outcome := f.service.Refresh(context.Background(), testRange, false)
	assert.Equal(t, StatusFailure, outcome.Status)
	assert.True(t, outcome.AuthRequired)
	assert.Contains(t, outcome.Message, "job record refresh failed: fetch job records")

	_, err := f.service.MergedJobs(filter.State{})
	assert.ErrorIs(t, err, ErrNoData, "no partial data is published")
	_, ok, _ := f.backend.GetSnapshot(cache.EntriesKey)
	assert.False(t, ok, "nothing is cached from a failed cycle")
}

func TestRefresh_ForcedFailureFallsBackToCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, nil).Once()
	f.jobs.On("FetchJobRecords", mock.Anything).Return(sampleJobs(), nil).Once()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(sampleEntries(), nil).Once()
	require.Equal(t, StatusSuccess, f.service.Refresh(context.Background(), testRange, false).Status)

	f.jobs.On("FetchJobRecords", mock.Anything).Return(nil, fmt.Errorf("fetch job records: %w", source.ErrFetchFailure)).Once()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(nil, fmt.Errorf("fetch time entries: %w", source.ErrFetchFailure)).Once()

	outcome := f.service.Refresh(context.Background(), testRange, true)
	require.Equal(t, StatusDegraded, outcome.Status)
	assert.True(t, outcome.Offline)
	assert.Contains(t, outcome.Message, "offline")
	assert.Equal(t, 1, outcome.JobCount)

	result, err := f.service.MergedJobs(filter.State{})
	require.NoError(t, err)
	assert.Len(t, result.Jobs, 1)
	assert.True(t, f.service.Status().Offline)
}

func TestRefresh_FallbackRequiresMatchingRange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, nil).Once()
	f.jobs.On("FetchJobRecords", mock.Anything).Return(sampleJobs(), nil).Once()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(sampleEntries(), nil).Once()
	require.Equal(t, StatusSuccess, f.service.Refresh(context.Background(), testRange, false).Status)

	otherRange := timeutil.LastDays(testNow, 7)
	f.jobs.On("FetchJobRecords", mock.Anything).Return(nil, fmt.Errorf("fetch job records: %w", source.ErrFetchFailure)).Maybe()
	f.time.On("FetchTimeEntries", mock.Anything, otherRange.From, otherRange.To).Return(nil, fmt.Errorf("fetch time entries: %w", source.ErrFetchFailure)).Once()

	outcome := f.service.Refresh(context.Background(), otherRange, true)
	assert.Equal(t, StatusFailure, outcome.Status)
	assert.Contains(t, outcome.Message, "refresh failed")

	_, err := f.service.MergedJobs(filter.State{})
	assert.ErrorIs(t, err, ErrNoData, "forced refresh cleared the previous result")
}

func TestRefresh_FailedCycleKeepsPreviousResult(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.time.On("FetchSyncStatus", mock.Anything).Return(source.SyncStatus{}, nil)
	f.jobs.On("FetchJobRecords", mock.Anything).Return(sampleJobs(), nil).Once()
	f.time.On("FetchTimeEntries", mock.Anything, testRange.From, testRange.To).Return(sampleEntries(), nil).Once()
	require.Equal(t, StatusSuccess, f.service.Refresh(context.Background(), testRange, false).Status)

	otherRange := timeutil.LastDays(testNow, 7)
	f.time.On("FetchTimeEntries", mock.Anything, otherRange.From, otherRange.To).
		Return(nil, fmt.Errorf("fetch time entries: %w", source.ErrFetchFailure)).Once()

	outcome := f.service.Refresh(context.Background(), otherRange, false)
	require.Equal(t, StatusFailure, outcome.Status)
	assert.Contains(t, outcome.Message, "time entry refresh failed")

	result, err := f.service.MergedJobs(filter.State{})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "2024-7", result.Jobs[0].Key)
	assert.Equal(t, testRange.Key(), f.service.Status().Range)

	f.jobs.AssertExpectations(t)
	f.time.AssertExpectations(t)
}

func TestTriggerSync(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.time.On("TriggerSync", mock.Anything).Return(nil).Once()
	require.NoError(t, f.service.TriggerSync(context.Background()))

	f.time.On("TriggerSync", mock.Anything).Return(source.ErrFetchFailure).Once()
	assert.ErrorIs(t, f.service.TriggerSync(context.Background()), source.ErrFetchFailure)

	f.time.AssertExpectations(t)
}
