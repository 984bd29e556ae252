package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/conneroisu/csvguard/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage csvguard configuration",
	Long: `Inspect and check csvguard configuration.

Examples:
  csvguard config show                         # Show resolved configuration
  csvguard config show --format json           # Show as JSON
  csvguard config validate                     # Check .csvguard.yml
  csvguard config validate --file rules.yml    # Check a specific file`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a csvguard configuration file for correctness and common
mistakes.

This command checks for:
- Unknown validator types and missing required fields
- Separators and quote characters that are not a single byte
- Engine options out of range
- Settings that are accepted but have no effect

Examples:
  csvguard config validate
  csvguard config validate --file rules.yml
  csvguard config validate --strict    # Treat warnings as errors`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the configuration after merging the config file, CSVGUARD_
environment variables and defaults.

Examples:
  csvguard config show
  csvguard config show --format json`,
	RunE: runConfigShow,
}

var (
	configFile   string
	configFormat string
	configStrict bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configValidateCmd.Flags().
		StringVarP(&configFile, "file", "f", "", "Configuration file to validate (default: .csvguard.yml)")
	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "Treat warnings as errors")

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// --file takes precedence over the global lookup
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return fmt.Errorf("configuration file %s: %w", configFile, err)
		}
		prev := cfgFile
		cfgFile = configFile
		defer func() { cfgFile = prev }()
	}

	v, err := newViper(cmd.Context())
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return fmt.Errorf("no configuration file found, use --file or create .csvguard.yml")
	}

	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	result := config.ValidateConfigWithDetails(cfg)
	if result.HasErrors() || result.HasWarnings() {
		fmt.Fprint(out, result.String())
	}

	if result.HasErrors() {
		return fmt.Errorf("configuration %s is invalid", v.ConfigFileUsed())
	}
	if configStrict && result.HasWarnings() {
		return fmt.Errorf("configuration %s has warnings (strict mode)", v.ConfigFileUsed())
	}

	fmt.Fprintf(out, "Configuration %s is valid\n", v.ConfigFileUsed())

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	v, err := newViper(cmd.Context())
	if err != nil {
		return err
	}

	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch configFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(cfg); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}
