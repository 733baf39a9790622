package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobcost/internal/timeutil"
	"jobcost/worklog"
)

const (
	timeEntriesPath = "/api/v1/time-entries"
	syncStatusPath  = "/api/v1/sync/status"
	syncPath        = "/api/v1/sync"
)

// TimeClient reads time entries from the time-tracking service.
type TimeClient struct {
	rest *restClient
}

func NewTimeClient(cfg ClientConfig) (*TimeClient, error) {
	rest, err := newRESTClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("time source: %w", err)
	}
	return &TimeClient{rest: rest}, nil
}

type timeEntryItem struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	UserName     string       `json:"userName"`
	ProjectName  string       `json:"projectName"`
	JobKey       string       `json:"jobKey"`
	TimeInterval timeInterval `json:"timeInterval"`
}

type timeInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SyncStatus reports when the time-tracking service last synced upstream.
type SyncStatus struct {
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// FetchTimeEntries returns every entry between from and to, both days
// inclusive.
func (c *TimeClient) FetchTimeEntries(ctx context.Context, from, to time.Time) ([]worklog.Entry, error) {
	query := url.Values{}
	query.Set("from", timeutil.DayKey(from))
	query.Set("to", timeutil.DayKey(to))

	items, err := fetchAll[timeEntryItem](ctx, c.rest, timeEntriesPath, query)
	if err != nil {
		return nil, fmt.Errorf("fetch time entries: %w", err)
	}

	entries := make([]worklog.Entry, 0, len(items))
	for _, item := range items {
		entry, err := normalizeEntry(item)
		if err != nil {
			return nil, fmt.Errorf("fetch time entries: normalize entry %q: %w: %w", item.ID, ErrFetchFailure, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// normalizeEntry derives hours from the entry's interval. A running timer
// without an end counts as zero hours.
func normalizeEntry(item timeEntryItem) (worklog.Entry, error) {
	entry := worklog.Entry{
		PersonID:   strings.TrimSpace(item.UserID),
		PersonName: strings.TrimSpace(item.UserName),
		JobKey:     strings.TrimSpace(item.JobKey),
		Project:    strings.TrimSpace(item.ProjectName),
	}

	startRaw := strings.TrimSpace(item.TimeInterval.Start)
	if startRaw == "" {
		return entry, nil
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return worklog.Entry{}, fmt.Errorf("parse start %q: %w", startRaw, err)
	}
	entry.Date = start

	endRaw := strings.TrimSpace(item.TimeInterval.End)
	if endRaw == "" {
		return entry, nil
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return worklog.Entry{}, fmt.Errorf("parse end %q: %w", endRaw, err)
	}
	entry.Hours = end.Sub(start).Hours()
	return entry, nil
}

// FetchSyncStatus reads the last upstream sync time.
func (c *TimeClient) FetchSyncStatus(ctx context.Context) (SyncStatus, error) {
	var out SyncStatus
	if err := c.rest.doJSON(ctx, http.MethodGet, syncStatusPath, nil, &out); err != nil {
		return SyncStatus{}, fmt.Errorf("fetch sync status: %w", err)
	}
	return out, nil
}

// TriggerSync asks the time-tracking service to pull fresh data upstream. It
// returns once the request is acknowledged.
func (c *TimeClient) TriggerSync(ctx context.Context) error {
	if err := c.rest.doJSON(ctx, http.MethodPost, syncPath, nil, nil); err != nil {
		return fmt.Errorf("trigger sync: %w", err)
	}
	return nil
}
