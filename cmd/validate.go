package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/conneroisu/csvguard/internal/config"
	"github.com/conneroisu/csvguard/internal/engine"
	"github.com/conneroisu/csvguard/internal/input"
	"github.com/conneroisu/csvguard/internal/output"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:     "validate [FILE|-]",
	Aliases: []string{"v"},
	Short:   "Validate a delimited text file",
	Long: `Validate every record of FILE against the configured validators and
print one line per issue. Without FILE, or with -, standard input is read.

Issues are written as soon as their batch completes; use --preserve-order
to receive them in record order.

Examples:
  csvguard validate data.csv
  csvguard validate --field-count 12 --separator , data.csv
  csvguard validate --illegal-chars @ --illegal-chars '#' --format json - < data.csv
  csvguard validate --fail-on-issues --summary data.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var validateFlags *RunFlags

func init() {
	rootCmd.AddCommand(validateCmd)

	validateFlags = AddRunFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := input.Stdin
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := loadRunConfig(cmd, validateFlags)
	if err != nil {
		return err
	}

	metrics, err := validateOnce(cmd.Context(), cfg, path, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if validateFlags.FailOnIssues && metrics.Issues > 0 {
		return fmt.Errorf("%s: %d %w", input.Name(path), metrics.Issues, ErrIssuesFound)
	}

	return nil
}

// loadRunConfig resolves the configuration for a run: file, environment,
// flags, then rule flags appended to the validators list.
func loadRunConfig(cmd *cobra.Command, flags *RunFlags) (*config.Config, error) {
	v, err := newViper(cmd.Context())
	if err != nil {
		return nil, err
	}
	SetViperBindings(cmd.Flags(), v, flagBindings)

	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, err
	}

	for _, rule := range flags.Rules(cmd.Flags()) {
		if err := cfg.AppendRule(rule); err != nil {
			return nil, err
		}
	}
	for i := range cfg.Validators {
		rule := &cfg.Validators[i]
		if rule.Fix || len(rule.ReplaceWith) > 0 {
			cliLogger.Warn(cmd.Context(), nil, "fix and replace_with are not supported and are ignored",
				"validator", i, "type", string(rule.Type))
		}
	}

	return cfg, nil
}

// validateOnce validates the input at path and streams issues to the
// configured output. Summaries go to stderr so machine readable output on
// stdout stays clean.
func validateOnce(ctx context.Context, cfg *config.Config, path string, stdout, stderr io.Writer) (*engine.Metrics, error) {
	set, err := cfg.BuildSet()
	if err != nil {
		return nil, err
	}

	opts := cfg.EngineOptions()
	opts.Logger = cliLogger
	eng, err := engine.New(set, opts)
	if err != nil {
		return nil, err
	}

	src, err := input.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := output.Create(cfg.Output.Path, stdout)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	w, err := output.NewWriter(dst, cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	metrics, err := eng.Stream(ctx, src, w.Write)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input.Name(path), err)
	}

	if cfg.Output.Summary {
		if err := output.WriteSummary(stderr, input.Name(path), *metrics); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}
