// Package config provides configuration management for csvguard using
// Viper for loading from files, environment variables and command-line
// flags.
//
// The configuration has four sections: common CSV dialect settings, engine
// options, output settings and the validators list. Scalar settings can be
// overridden with CSVGUARD_ prefixed environment variables (for example
// CSVGUARD_OPTIONS_THREADS); the validators list comes from the config file
// and is decoded separately, see ParseRules.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/conneroisu/csvguard/internal/engine"
	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/input"
	"github.com/conneroisu/csvguard/internal/validator"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultSeparator is the field delimiter used when none is configured.
const DefaultSeparator = ";"

type Config struct {
	Common     CommonConfig  `mapstructure:"common" yaml:"common" json:"common"`
	Options    OptionsConfig `mapstructure:"options" yaml:"options" json:"options"`
	Output     OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
	Validators []RuleSpec    `mapstructure:"-" yaml:"validators" json:"validators"`
}

// CommonConfig describes the input dialect. Rules may override it.
type CommonConfig struct {
	Separator string `mapstructure:"separator" yaml:"separator,omitempty" json:"separator,omitempty"`
	QuoteChar string `mapstructure:"quote_char" yaml:"quote_char,omitempty" json:"quote_char,omitempty"`
	HasHeader bool   `mapstructure:"has_header" yaml:"has_header" json:"has_header"`
}

type OptionsConfig struct {
	Threads       int    `mapstructure:"threads" yaml:"threads" json:"threads"`
	BatchSize     int    `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`
	BufferSize    int    `mapstructure:"buffer_size" yaml:"buffer_size" json:"buffer_size"`
	PreserveOrder bool   `mapstructure:"preserve_order" yaml:"preserve_order" json:"preserve_order"`
	ResultBuffer  int    `mapstructure:"result_buffer" yaml:"result_buffer" json:"result_buffer"`
	Encoding      string `mapstructure:"encoding" yaml:"encoding" json:"encoding"`
	DetectBOM     bool   `mapstructure:"detect_bom" yaml:"detect_bom" json:"detect_bom"`
}

type OutputConfig struct {
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
	Format  string `mapstructure:"format" yaml:"format" json:"format"`
	Summary bool   `mapstructure:"summary" yaml:"summary" json:"summary"`
}

// SetDefaults registers default values on v. Registered keys are also the
// keys that environment variables can override.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("common.separator", DefaultSeparator)
	v.SetDefault("common.quote_char", `"`)
	v.SetDefault("common.has_header", false)

	v.SetDefault("options.threads", runtime.NumCPU())
	v.SetDefault("options.batch_size", engine.DefaultBatchSize)
	v.SetDefault("options.buffer_size", engine.DefaultBufferSize)
	v.SetDefault("options.preserve_order", false)
	v.SetDefault("options.result_buffer", 0)
	v.SetDefault("options.encoding", "")
	v.SetDefault("options.detect_bom", true)

	v.SetDefault("output.path", "-")
	v.SetDefault("output.format", FormatText)
	v.SetDefault("output.summary", false)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config, err := Decode(v)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "invalid configuration")
	}

	return config, nil
}

// Decode reads the configuration held by v without validating it.
func Decode(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "decode configuration")
	}

	if raw := v.Get("validators"); raw != nil {
		rules, err := decodeValidators(v.ConfigFileUsed(), raw)
		if err != nil {
			return nil, err
		}
		config.Validators = rules
	}

	config.Output.Format = strings.ToLower(config.Output.Format)

	return &config, nil
}

// decodeValidators decodes the validators list. The entries are read from
// the config file itself when it holds them so rule lines point into that
// file. Otherwise the list viper holds is re-encoded and its lines dropped.
func decodeValidators(file string, raw interface{}) ([]RuleSpec, error) {
	if node := fileValidatorsNode(file); node != nil {
		return decodeRuleNode(node)
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "decode validators")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "decode validators")
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	clearLines(doc.Content[0])

	return decodeRuleNode(doc.Content[0])
}

// fileValidatorsNode returns the validators node of the YAML file at path,
// or nil when the file cannot be read as YAML or has no such key.
func fileValidatorsNode(path string) *yaml.Node {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if strings.EqualFold(root.Content[i].Value, "validators") {
			return root.Content[i+1]
		}
	}

	return nil
}

func clearLines(node *yaml.Node) {
	node.Line, node.Column = 0, 0
	for _, child := range node.Content {
		clearLines(child)
	}
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	var errs []error

	if err := validateCommonConfig("common", &config.Common); err != nil {
		errs = append(errs, err)
	}
	if err := validateOptionsConfig(&config.Options); err != nil {
		errs = append(errs, fmt.Errorf("options: %w", err))
	}
	if err := validateOutputConfig(&config.Output); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}
	for i := range config.Validators {
		if err := config.Validators[i].validate(i); err != nil {
			errs = append(errs, err)
		}
	}

	return cgerrors.Combine(errs...)
}

func validateCommonConfig(field string, common *CommonConfig) error {
	if common.Separator != "" && len(common.Separator) != 1 {
		return fmt.Errorf("%s.separator must be a single byte, got %q", field, common.Separator)
	}
	if common.QuoteChar != "" && len(common.QuoteChar) != 1 {
		return fmt.Errorf("%s.quote_char must be a single byte, got %q", field, common.QuoteChar)
	}
	if common.Separator != "" && common.Separator == common.QuoteChar {
		return fmt.Errorf("%s.separator and quote_char cannot both be %q", field, common.Separator)
	}

	return nil
}

func validateOptionsConfig(options *OptionsConfig) error {
	if options.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", options.Threads)
	}
	if options.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", options.BatchSize)
	}
	if options.BufferSize < 16 {
		return fmt.Errorf("buffer_size must be at least 16 bytes, got %d", options.BufferSize)
	}
	if options.ResultBuffer < 0 {
		return fmt.Errorf("result_buffer cannot be negative, got %d", options.ResultBuffer)
	}
	if !input.ValidEncoding(options.Encoding) {
		return fmt.Errorf("unsupported encoding %q", options.Encoding)
	}

	return nil
}

func validateOutputConfig(output *OutputConfig) error {
	switch output.Format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q, expected text, json or yaml", output.Format)
	}
}

// QuoteByte returns the configured quote byte.
func (c *Config) QuoteByte() byte {
	if c.Common.QuoteChar == "" {
		return '"'
	}

	return c.Common.QuoteChar[0]
}

// EngineOptions converts the options section for the engine.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Threads:       c.Options.Threads,
		BatchSize:     c.Options.BatchSize,
		BufferSize:    c.Options.BufferSize,
		PreserveOrder: c.Options.PreserveOrder,
		ResultBuffer:  c.Options.ResultBuffer,
		Quote:         c.QuoteByte(),
		SkipHeader:    c.Common.HasHeader,
		Encoding:      c.Options.Encoding,
		DetectBOM:     c.Options.DetectBOM,
	}
}

// BuildSet constructs the validator set from the enabled rules, in
// configuration order.
func (c *Config) BuildSet() (validator.Set, error) {
	var (
		validators []validator.Validator
		errs       []error
	)

	for i := range c.Validators {
		rule := &c.Validators[i]
		if !rule.IsEnabled() {
			continue
		}

		v, err := rule.Build(c.Common)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		validators = append(validators, v)
	}

	if err := cgerrors.Combine(errs...); err != nil {
		return validator.Set{}, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "build validators")
	}

	return validator.NewSet(validators...), nil
}

// AppendRule checks rule and adds it after the configured validators.
func (c *Config) AppendRule(rule RuleSpec) error {
	if err := rule.validate(len(c.Validators)); err != nil {
		return cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "invalid validator")
	}
	c.Validators = append(c.Validators, rule)

	return nil
}
