package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage jobcost configuration file values.",
	Long: `Create and display the jobcost configuration file.

The configuration stores source endpoints and application settings:
- time_source.url / token / page_size
- job_source.url / token / page_size
- cache.path
- range.default_days
- log.level / log.format
- server.port

Every key can be overridden by an environment variable with prefix JOBCOST_ and
dots replaced by underscores, e.g. JOBCOST_JOB_SOURCE_TOKEN.`,
	Example: `
  # Create default config in $HOME/.jobcost.yaml
  jobcost config create

  # Show active config and source file
  jobcost config show
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
