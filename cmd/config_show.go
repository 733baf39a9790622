package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"jobcost/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration, including environment overrides,
and the resolved config file path. Tokens are masked.

This command validates the configuration before printing values.`,
	Example: `
  # Show active configuration
  jobcost config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file loaded, showing defaults and environment overrides.")
		}
		return renderConfig(os.Stdout, *cfg)
	},
}

func renderConfig(w io.Writer, cfg config.Config) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	return encoder.Close()
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
