package cmd

import (
	"fmt"
	"strings"

	"github.com/conneroisu/csvguard/internal/config"
	"github.com/conneroisu/csvguard/internal/input"
	"github.com/conneroisu/csvguard/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RunFlags holds the flags shared by commands that run validation.
type RunFlags struct {
	// Rule flags append validators to the configured ones.
	IllegalChars  []string
	FieldCount    int
	MaxLineLength int

	FailOnIssues bool
}

// flagBindings maps flag names to the configuration keys they override.
var flagBindings = map[string]string{
	"output":         "output.path",
	"format":         "output.format",
	"summary":        "output.summary",
	"threads":        "options.threads",
	"batch-size":     "options.batch_size",
	"buffer-size":    "options.buffer_size",
	"preserve-order": "options.preserve_order",
	"result-buffer":  "options.result_buffer",
	"encoding":       "options.encoding",
	"detect-bom":     "options.detect_bom",
	"separator":      "common.separator",
	"quote":          "common.quote_char",
	"has-header":     "common.has_header",
}

// AddRunFlags registers the engine, dialect, output and rule flags on cmd.
// Flag defaults are only shown in help; unset flags never override the
// configuration.
func AddRunFlags(cmd *cobra.Command) *RunFlags {
	flags := &RunFlags{}
	fs := cmd.Flags()

	fs.StringP("output", "o", output.Stdout, "Output file (- for stdout)")
	fs.StringP("format", "f", config.FormatText, "Output format ("+strings.Join(output.Formats, "|")+")")
	fs.Bool("summary", false, "Print a run summary to stderr")

	fs.IntP("threads", "t", 0, "Worker goroutines (default number of CPUs)")
	fs.IntP("batch-size", "b", 0, "Records per batch (default 100000)")
	fs.Int("buffer-size", 0, "Read buffer size in bytes (default 8 MiB)")
	fs.Bool("preserve-order", false, "Report issues in record order")
	fs.Int("result-buffer", 0, "Bound the result queue (0 = unbounded)")
	fs.String("encoding", "", "Input character encoding (WHATWG label)")
	fs.Bool("detect-bom", true, "Let a byte order mark select the input encoding")

	fs.String("separator", "", "Field separator (default ;)")
	fs.String("quote", "", "Quote character (default \")")
	fs.Bool("has-header", false, "Skip validation of the first record")

	fs.StringArrayVar(&flags.IllegalChars, "illegal-chars", nil, "Add an illegal_chars validator pattern (repeatable, taken literally)")
	fs.IntVar(&flags.FieldCount, "field-count", 0, "Add a field_count validator expecting N fields")
	fs.IntVar(&flags.MaxLineLength, "max-line-length", -1, "Add a line_length validator with this maximum")
	fs.BoolVar(&flags.FailOnIssues, "fail-on-issues", false, "Exit with status 2 when issues are found")

	AddFlagValidation(cmd, "separator", ValidateSingleByte)
	AddFlagValidation(cmd, "quote", ValidateSingleByte)
	AddFlagValidation(cmd, "format", ValidateFormat)
	AddFlagValidation(cmd, "encoding", ValidateEncoding)

	return flags
}

// SetViperBindings copies every flag that was set on the command line into
// v under its configuration key. Visit also walks flags set by an earlier
// parse, so Changed decides.
func SetViperBindings(fs *pflag.FlagSet, v *viper.Viper, bindings map[string]string) {
	fs.Visit(func(flag *pflag.Flag) {
		if !flag.Changed {
			return
		}
		key, ok := bindings[flag.Name]
		if !ok {
			return
		}
		v.Set(key, flag.Value.String())
	})
}

// Rules returns the validators requested by rule flags.
func (f *RunFlags) Rules(fs *pflag.FlagSet) []config.RuleSpec {
	var rules []config.RuleSpec

	if len(f.IllegalChars) > 0 {
		rules = append(rules, config.RuleSpec{
			Type:         config.RuleIllegalChars,
			IllegalChars: append([]string(nil), f.IllegalChars...),
		})
	}
	if fs.Changed("field-count") {
		expected := f.FieldCount
		rules = append(rules, config.RuleSpec{Type: config.RuleFieldCount, Expected: &expected})
	}
	if fs.Changed("max-line-length") {
		limit := f.MaxLineLength
		rules = append(rules, config.RuleSpec{Type: config.RuleLineLength, MaxLength: &limit})
	}

	return rules
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateSingleByte accepts values that are exactly one byte long.
func ValidateSingleByte(s string) error {
	if len(s) != 1 {
		return fmt.Errorf("must be a single byte, got %q", s)
	}

	return nil
}

// ValidateFormat accepts the supported output formats.
func ValidateFormat(s string) error {
	for _, format := range output.Formats {
		if strings.EqualFold(s, format) {
			return nil
		}
	}

	return fmt.Errorf("invalid output format %s, must be one of: %s", s, strings.Join(output.Formats, ", "))
}

// ValidateEncoding accepts WHATWG encoding labels.
func ValidateEncoding(s string) error {
	if s == "" || input.ValidEncoding(s) {
		return nil
	}

	return fmt.Errorf("unknown encoding %q", s)
}
