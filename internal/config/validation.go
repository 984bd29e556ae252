package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/conneroisu/csvguard/internal/input"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, msg string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{
		Field:       field,
		Value:       value,
		Message:     msg,
		Suggestions: suggestions,
	})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, msg string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{
		Field:       field,
		Value:       value,
		Message:     msg,
		Suggestions: suggestions,
	})
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateCommonConfigDetails("common", &config.Common, result)
	validateOptionsConfigDetails(&config.Options, result)
	validateOutputConfigDetails(&config.Output, result)
	validateRulesDetails(config, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateCommonConfigDetails(field string, common *CommonConfig, result *ValidationResult) {
	if common.Separator != "" && len(common.Separator) != 1 {
		result.addError(field+".separator", common.Separator,
			"separator must be a single byte",
			"Common separators: ';', ',', '|', '\\t'")
	}
	if common.QuoteChar != "" && len(common.QuoteChar) != 1 {
		result.addError(field+".quote_char", common.QuoteChar,
			"quote_char must be a single byte",
			"Use '\"' (the default) or '\\''")
	}
	if common.Separator != "" && common.Separator == common.QuoteChar {
		result.addError(field+".quote_char", common.QuoteChar,
			"quote_char cannot equal the separator")
	}
}

func validateOptionsConfigDetails(options *OptionsConfig, result *ValidationResult) {
	cpus := runtime.NumCPU()

	if options.Threads < 1 {
		result.addError("options.threads", options.Threads,
			fmt.Sprintf("threads must be at least 1, got %d", options.Threads),
			fmt.Sprintf("This machine has %d CPUs; the default uses all of them", cpus))
	} else if options.Threads > 4*cpus {
		result.addWarning("options.threads", options.Threads,
			fmt.Sprintf("%d threads on %d CPUs adds scheduling overhead", options.Threads, cpus),
			"Validation is CPU bound; more threads than CPUs rarely helps")
	}

	if options.BatchSize < 1 {
		result.addError("options.batch_size", options.BatchSize,
			fmt.Sprintf("batch_size must be at least 1, got %d", options.BatchSize),
			"The default of 100000 records suits most inputs")
	} else if options.BatchSize < 100 {
		result.addWarning("options.batch_size", options.BatchSize,
			"very small batches spend more time on hand-off than on validation",
			"Use at least a few thousand records per batch for large files")
	}

	if options.BufferSize < 16 {
		result.addError("options.buffer_size", options.BufferSize,
			fmt.Sprintf("buffer_size must be at least 16 bytes, got %d", options.BufferSize),
			"The default is 8388608 (8 MiB)")
	} else if options.BufferSize < 4096 {
		result.addWarning("options.buffer_size", options.BufferSize,
			"read buffers below 4 KiB make reads slow")
	}

	if options.ResultBuffer < 0 {
		result.addError("options.result_buffer", options.ResultBuffer,
			"result_buffer cannot be negative",
			"Use 0 for an unbounded result queue or a positive capacity for backpressure")
	}

	if !input.ValidEncoding(options.Encoding) {
		result.addError("options.encoding", options.Encoding,
			fmt.Sprintf("unsupported encoding %q", options.Encoding),
			"Use a WHATWG label such as utf-8, windows-1252, iso-8859-15 or utf-16le")
	}
}

func validateOutputConfigDetails(output *OutputConfig, result *ValidationResult) {
	if err := validateOutputConfig(output); err != nil {
		result.addError("output.format", output.Format, err.Error(),
			"Use one of: text, json, yaml")
	}
}

func validateRulesDetails(config *Config, result *ValidationResult) {
	enabled := 0
	for i := range config.Validators {
		rule := &config.Validators[i]
		field := fmt.Sprintf("validators[%d]", i)

		if err := rule.validate(i); err != nil {
			suggestions := []string{}
			if !isKnownRule(rule.Type) {
				suggestions = append(suggestions, fmt.Sprintf("Known types: %s", knownRuleList()))
			}
			result.addError(field, rule.Type, err.Error(), suggestions...)
		}

		if rule.Fix || len(rule.ReplaceWith) > 0 {
			result.addWarning(field, rule.Type,
				"fix and replace_with are ignored; the input is never rewritten")
		}

		if rule.Common != nil {
			validateCommonConfigDetails(field+".common", rule.Common, result)
		}

		if rule.Type == RuleLineLength && rule.MaxLength != nil && *rule.MaxLength == 0 {
			result.addWarning(field+".max_length", 0, "every non-empty record will be reported")
		}

		if rule.Type == RuleIllegalChars {
			seen := make(map[string]bool, len(rule.IllegalChars))
			for _, p := range rule.IllegalChars {
				if seen[p] {
					result.addWarning(field+".illegal_chars", p,
						fmt.Sprintf("pattern %q is listed more than once", p),
						"Remove the duplicate entry")
				}
				seen[p] = true
			}
		}

		if rule.IsEnabled() {
			enabled++
		}
	}

	if enabled == 0 {
		result.addWarning("validators", len(config.Validators), "no enabled validators",
			"Add rules to the validators list or pass --illegal-chars, --field-count or --max-line-length")
	}
}

func isKnownRule(t RuleType) bool {
	for _, known := range RuleTypes() {
		if t == known {
			return true
		}
	}

	return false
}

func knownRuleList() string {
	names := make([]string, 0, len(RuleTypes()))
	for _, t := range RuleTypes() {
		names = append(names, string(t))
	}

	return strings.Join(names, ", ")
}
