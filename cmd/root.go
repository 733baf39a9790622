/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jobcost/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobcost",
	Short: "Reconcile tracked time with job records and report job cost metrics.",
	Long: `
**********************************************
*                 JOBCOST                    *
**********************************************

This CLI fetches time entries from the time-tracking service and job records from
the project-tracking service, joins them by job key, and reports hours, effective
rates, utilization and outliers. Fetched data is cached in a local SQLite file and
reused when a source is unreachable.

Source tokens are read from JOBCOST_TIME_SOURCE_TOKEN and JOBCOST_JOB_SOURCE_TOKEN,
which may also be placed in a .env file in the working directory.
`,
	Example: `
  # Create configuration file
  jobcost config create

  # Run one refresh cycle for March and print the outcome
  jobcost refresh --from 2026-03-01 --to 2026-03-31

  # Ignore caches and refetch both sources
  jobcost refresh --force

  # Export costable jobs to Excel
  jobcost export --mode costable --output ./jobs.xlsx

  # Serve the JSON API
  jobcost serve --port 8080
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.jobcost.yaml, then ./.jobcost.yaml)")
}

// initConfig reads in the .env file, config file and ENV variables if set.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: reading .env failed:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".jobcost")
	}

	viper.SetEnvPrefix("JOBCOST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found, using defaults. Create one with: jobcost config create")
	}
}
