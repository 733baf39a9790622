package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jobcost/cache"
	"jobcost/config"
	"jobcost/storage"
)

var cacheClearAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local source cache.",
	Long: `The cache database (cache.path) holds the last fetched job records and time
entries. It is read at the start of each refresh and used as offline fallback.`,
	Example: `
  # List cached snapshots with capture time and range
  jobcost cache show

  # Remove the cached job records and time entries
  jobcost cache clear

  # Also remove snapshots left under older cache keys
  jobcost cache clear --all
`,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cached snapshots.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openCacheStore()
		if err != nil {
			return err
		}
		defer store.Close()

		return showCache(os.Stdout, store, time.Now())
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached snapshots.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, logger, err := openCacheStore()
		if err != nil {
			return err
		}
		defer store.Close()

		return clearCache(os.Stdout, store, logger, cacheClearAll)
	},
}

func openCacheStore() (*storage.SQLiteStore, zerolog.Logger, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	store, err := storage.OpenSQLite(cfg.Cache.Path)
	return store, newLogger(cfg), err
}

func clearCache(w io.Writer, store *storage.SQLiteStore, logger zerolog.Logger, all bool) error {
	if all {
		deleted, err := store.DeleteAllSnapshots()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Cache cleared. Snapshots deleted: %d\n", deleted)
		return nil
	}

	for _, key := range []string{cache.JobsKey, cache.EntriesKey} {
		if err := cache.New[json.RawMessage](store, key, logger).Clear(); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
		fmt.Fprintf(w, "Cleared %s\n", key)
	}
	return nil
}

func showCache(w io.Writer, store *storage.SQLiteStore, now time.Time) error {
	snapshots, err := store.ListSnapshots()
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(w, "Cache is empty.")
		return nil
	}

	for _, snapshot := range snapshots {
		rangeKey := snapshot.RangeKey
		if rangeKey == "" {
			rangeKey = "-"
		}
		fmt.Fprintf(w, "%s\tcaptured %s (%s ago)\trange %s\t%d bytes\n",
			snapshot.Key,
			snapshot.CapturedAt.Local().Format(time.DateTime),
			now.Sub(snapshot.CapturedAt).Truncate(time.Second),
			rangeKey,
			snapshot.Size,
		)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "Delete every snapshot, including ones under older cache keys")
}
