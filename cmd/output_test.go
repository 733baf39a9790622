package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobcost/config"
	"jobcost/dashboard"
	"jobcost/filter"
	"jobcost/reconcile"
	"jobcost/storage"
)

func TestDetectExportFormat(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"./jobs.csv":  "csv",
		"./jobs.XLSX": "excel",
		"./jobs.xlsm": "excel",
		"./jobs.out":  "csv",
		"jobs":        "csv",
	}
	for path, want := range cases {
		assert.Equal(t, want, detectExportFormat(path), path)
	}
}

func TestExportTableSelectsView(t *testing.T) {
	t.Parallel()

	rate := 50.0
	result := filter.Result{Jobs: []reconcile.MergedJob{{
		Key:           "2024-7",
		Name:          "Smith Boundary",
		Status:        "Jeff Approved",
		Matched:       true,
		Costable:      true,
		Price:         500,
		TotalHours:    10,
		EffectiveRate: &rate,
		People:        []reconcile.PersonShare{{Name: "Ann Lee", Hours: 10, Days: 1, Fraction: 1}},
		ByMonth:       map[string]float64{"2026-03": 10},
	}}}

	for view, name := range map[string]string{"": "Jobs", "jobs": "Jobs", "People": "People", "monthly": "Monthly"} {
		table, err := exportTable(view, result)
		require.NoError(t, err, view)
		assert.Equal(t, name, table.Name)
		assert.Len(t, table.Rows, 1, view)
	}

	_, err := exportTable("daily", result)
	assert.ErrorContains(t, err, "unsupported export view")
}

func TestPrintOutcome(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printOutcome(&buf, dashboard.Outcome{
		CycleID:  "c1",
		Status:   dashboard.StatusDegraded,
		Message:  "job record refresh failed: fetch failure",
		Range:    "2026-03-01|2026-03-31",
		Offline:  true,
		JobCount: 3,
		Dropped: reconcile.DropStats{
			UnkeyedEntries:   2,
			UnkeyedHours:     1.5,
			DuplicateJobKeys: []string{"2024-7"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Refresh degraded (cycle c1, range 2026-03-01|2026-03-31)")
	assert.Contains(t, out, "Message: job record refresh failed")
	assert.Contains(t, out, "Jobs: 3")
	assert.Contains(t, out, "offline: true")
	assert.Contains(t, out, "2 unkeyed entries (1.50h)")
	assert.Contains(t, out, "Duplicate job keys: 2024-7")

	buf.Reset()
	printOutcome(&buf, dashboard.Outcome{Status: dashboard.StatusFailure, Message: "boom", AuthRequired: true})
	assert.Contains(t, buf.String(), "rejected its token")
	assert.NotContains(t, buf.String(), "Jobs:")
}

func TestShowCacheListsSnapshots(t *testing.T) {
	t.Parallel()

	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, showCache(&buf, store, now))
	assert.Contains(t, buf.String(), "Cache is empty.")

	require.NoError(t, store.PutSnapshot(storage.Snapshot{
		Key:        "jobcost_entries_v3",
		CapturedAt: now.Add(-90 * time.Second),
		RangeKey:   "2026-03-01|2026-03-31",
		Payload:    []byte("[]"),
	}))

	buf.Reset()
	require.NoError(t, showCache(&buf, store, now))
	assert.Contains(t, buf.String(), "jobcost_entries_v3")
	assert.Contains(t, buf.String(), "1m30s ago")
	assert.Contains(t, buf.String(), "range 2026-03-01|2026-03-31")
	assert.Contains(t, buf.String(), "2 bytes")
}

func TestClearCacheRemovesCurrentKeysOnly(t *testing.T) {
	t.Parallel()

	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, key := range []string{"jobcost_jobs_v3", "jobcost_entries_v3", "jobcost_entries_v2"} {
		require.NoError(t, store.PutSnapshot(storage.Snapshot{Key: key, CapturedAt: now, Payload: []byte("[]")}))
	}

	var buf bytes.Buffer
	require.NoError(t, clearCache(&buf, store, zerolog.Nop(), false))
	assert.Contains(t, buf.String(), "Cleared jobcost_jobs_v3")
	assert.Contains(t, buf.String(), "Cleared jobcost_entries_v3")

	snapshots, err := store.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "jobcost_entries_v2", snapshots[0].Key)

	buf.Reset()
	require.NoError(t, clearCache(&buf, store, zerolog.Nop(), true))
	assert.Contains(t, buf.String(), "Snapshots deleted: 1")

	snapshots, err = store.ListSnapshots()
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestRenderConfigMasksTokens(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		TimeSource: config.SourceConfig{URL: "https://time.example.com", Token: "secret", PageSize: 200},
		JobSource:  config.SourceConfig{URL: "https://jobs.example.com", PageSize: 200},
		Cache:      config.CacheConfig{Path: "./jobcost.db"},
	}

	var buf bytes.Buffer
	require.NoError(t, renderConfig(&buf, cfg))
	out := buf.String()
	assert.Contains(t, out, "time_source:")
	assert.Contains(t, out, "url: https://time.example.com")
	assert.Contains(t, out, "page_size: 200")
	assert.NotContains(t, out, "secret")
}
