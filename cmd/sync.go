package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ask the time source to pull fresh upstream data",
	Long: `Trigger a sync on the time-tracking service. The next refresh compares the
service's last sync time with the cached time entries and refetches them if the
cache is older.`,
	Example: `
  jobcost sync && jobcost refresh
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.service.TriggerSync(cmd.Context()); err != nil {
			return fmt.Errorf("trigger sync: %w", err)
		}
		fmt.Println("Sync accepted. Run jobcost refresh to pick up new entries.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
