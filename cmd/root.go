// Package cmd provides the command-line interface for csvguard.
//
// Configuration sources, highest priority first:
//
//  1. Command-line flags (--threads, --separator, ...)
//  2. CSVGUARD_ environment variables, with dots replaced by underscores
//     (CSVGUARD_OPTIONS_THREADS, CSVGUARD_COMMON_SEPARATOR, ...)
//  3. The configuration file: --config, then CSVGUARD_CONFIG_FILE, then
//     .csvguard.yml in the working directory
//  4. Built-in defaults
//
// The validators list is only read from the configuration file; rule flags
// such as --field-count append to it.
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable holding a config file path.
const ConfigFileEnv = "CSVGUARD_CONFIG_FILE"

// Exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitIssuesFound = 2
)

// ErrIssuesFound is returned when --fail-on-issues is set and a run
// reported at least one issue.
var ErrIssuesFound = errors.New("issues found")

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cliLogger logging.Logger = logging.NewLogger(nil)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "csvguard",
	Short: "Validate large delimited text files in parallel",
	Long: `csvguard checks every record of a delimited text file against a set of
validators (illegal characters, field count, line length) and reports each
violation with its record number and byte offset.

Records may span several physical lines when a field is quoted. Input is
streamed in batches to a pool of workers, so files far larger than memory
can be validated.

Quick Start:
  csvguard validate data.csv               Validate using .csvguard.yml
  csvguard validate --field-count 5 -      Validate stdin
  csvguard watch data.csv                  Re-validate on every change
  csvguard config show                     Show the resolved configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cliLogger = logging.NewLogger(&logging.LoggerConfig{
			Level:     logging.ParseLevel(logLevel),
			Format:    logFormat,
			Output:    cmd.ErrOrStderr(),
			Component: "cli",
		})
	},
}

// Execute runs the root command until it finishes or the process receives
// SIGINT or SIGTERM. Fatal errors are logged once.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrIssuesFound) {
		cliLogger.Error(ctx, err, "csvguard failed")
	}

	return err
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrIssuesFound):
		return ExitIssuesFound
	default:
		return ExitFailure
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .csvguard.yml, can also use "+ConfigFileEnv+" env var)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
}

// newViper prepares a viper instance with the configuration sources in
// priority order.
//
// Config file lookup:
//  1. --config flag
//  2. CSVGUARD_CONFIG_FILE environment variable
//  3. .csvguard.yml in the current directory, if present
//
// An explicitly named file that cannot be read is an error; a missing
// default file is not.
func newViper(ctx context.Context) (*viper.Viper, error) {
	v := viper.New()

	explicit := true
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(ConfigFileEnv); envConfigFile != "" {
		v.SetConfigFile(envConfigFile)
	} else {
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".csvguard")
	}

	v.SetEnvPrefix("CSVGUARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			cliLogger.Debug(ctx, "no config file found, using defaults")
			return v, nil
		}
		return nil, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "read config file").
			WithPath(v.ConfigFileUsed())
	}
	cliLogger.Debug(ctx, "using config file", "path", v.ConfigFileUsed())

	return v, nil
}
