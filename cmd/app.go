package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"jobcost/config"
	"jobcost/dashboard"
	"jobcost/internal/logging"
	"jobcost/internal/timeutil"
	"jobcost/source"
	"jobcost/storage"
)

const userAgent = "jobcost/1.0"

// app bundles what the data commands share: validated config, logger,
// the cache database and a dashboard service over both sources.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *storage.SQLiteStore
	service *dashboard.Service
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

func openApp() (*app, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	jobClient, err := source.NewJobClient(source.ClientConfig{
		BaseURL:   cfg.JobSource.URL,
		Token:     cfg.JobSource.Token,
		PageSize:  cfg.JobSource.PageSize,
		UserAgent: userAgent,
	})
	if err != nil {
		return nil, err
	}
	timeClient, err := source.NewTimeClient(source.ClientConfig{
		BaseURL:   cfg.TimeSource.URL,
		Token:     cfg.TimeSource.Token,
		PageSize:  cfg.TimeSource.PageSize,
		UserAgent: userAgent,
	})
	if err != nil {
		return nil, err
	}

	store, err := storage.OpenSQLite(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	service, err := dashboard.NewService(dashboard.Config{
		Jobs:    jobClient,
		Time:    timeClient,
		Backend: store,
		Logger:  logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store, service: service}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) defaultRange() timeutil.DateRange {
	return timeutil.LastDays(time.Now(), a.cfg.Range.DefaultDays)
}
