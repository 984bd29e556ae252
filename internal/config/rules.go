package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	cgerrors "github.com/conneroisu/csvguard/internal/errors"
	"github.com/conneroisu/csvguard/internal/validator"
	"gopkg.in/yaml.v3"
)

// RuleType names a validation rule in configuration.
type RuleType string

const (
	RuleIllegalChars RuleType = "illegal_chars"
	RuleFieldCount   RuleType = "field_count"
	RuleLineLength   RuleType = "line_length"
)

// RuleTypes lists the known rule types.
func RuleTypes() []RuleType {
	return []RuleType{RuleIllegalChars, RuleFieldCount, RuleLineLength}
}

// RuleSpec is one entry of the validators list. Which fields apply depends
// on Type.
type RuleSpec struct {
	Type    RuleType `yaml:"type" json:"type"`
	Enabled *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// illegal_chars
	IllegalChars []string `yaml:"illegal_chars,omitempty" json:"illegal_chars,omitempty"`
	ReplaceWith  []string `yaml:"replace_with,omitempty" json:"replace_with,omitempty"`
	Fix          bool     `yaml:"fix,omitempty" json:"fix,omitempty"`

	// field_count
	Expected  *int   `yaml:"expected,omitempty" json:"expected,omitempty"`
	Separator string `yaml:"separator,omitempty" json:"separator,omitempty"`

	// line_length
	MaxLength *int `yaml:"max_length,omitempty" json:"max_length,omitempty"`

	// Common overrides the top-level common section for this rule.
	Common *CommonConfig `yaml:"common,omitempty" json:"common,omitempty"`

	// Line is the position of the entry in the source document, if known.
	Line int `yaml:"-" json:"-"`
}

// UnmarshalYAML decodes an entry strictly: keys that belong to no rule are
// rejected.
func (r *RuleSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%svalidator entry must be a mapping", linePrefix(node))
	}

	known := map[string]bool{
		"type": true, "enabled": true, "illegal_chars": true, "replace_with": true,
		"fix": true, "expected": true, "separator": true, "max_length": true, "common": true,
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !known[key] {
			return fmt.Errorf("%sunknown validator field %q", linePrefix(node.Content[i]), key)
		}
	}

	type plain RuleSpec
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}

	*r = RuleSpec(decoded)
	r.Line = node.Line

	return nil
}

// IsEnabled reports whether the rule runs. Rules are enabled unless
// explicitly disabled.
func (r *RuleSpec) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// SeparatorByte resolves the field delimiter: the rule's own separator, then
// its common override, then the top-level common section, then ';'.
func (r *RuleSpec) SeparatorByte(common CommonConfig) byte {
	switch {
	case r.Separator != "":
		return r.Separator[0]
	case r.Common != nil && r.Common.Separator != "":
		return r.Common.Separator[0]
	case common.Separator != "":
		return common.Separator[0]
	default:
		return DefaultSeparator[0]
	}
}

// validate checks the fields required by the rule type. index is the
// position in the validators list.
func (r *RuleSpec) validate(index int) error {
	field := fmt.Sprintf("validators[%d]", index)

	var errs []error
	switch r.Type {
	case RuleIllegalChars:
		if len(r.IllegalChars) == 0 {
			errs = append(errs, missingField(field, "illegal_chars"))
		}
		for i, p := range r.IllegalChars {
			if p == "" {
				errs = append(errs, invalidField(field, fmt.Sprintf("illegal_chars[%d] is empty", i)))
			}
		}
	case RuleFieldCount:
		if r.Expected == nil {
			errs = append(errs, missingField(field, "expected"))
		} else if *r.Expected < 1 {
			errs = append(errs, invalidField(field, fmt.Sprintf("expected must be at least 1, got %d", *r.Expected)))
		}
		if r.Separator != "" && len(r.Separator) != 1 {
			errs = append(errs, invalidField(field, fmt.Sprintf("separator must be a single byte, got %q", r.Separator)))
		}
	case RuleLineLength:
		if r.MaxLength == nil {
			errs = append(errs, missingField(field, "max_length"))
		} else if *r.MaxLength < 0 {
			errs = append(errs, invalidField(field, fmt.Sprintf("max_length cannot be negative, got %d", *r.MaxLength)))
		}
	case "":
		errs = append(errs, missingField(field, "type"))
	default:
		errs = append(errs, cgerrors.NewConfigError(cgerrors.ErrCodeUnknownRule,
			fmt.Sprintf("%s: unknown validator type %q", field, r.Type)).
			WithLine(r.Line).
			WithContext("type", string(r.Type)))
	}

	if r.Common != nil {
		if err := validateCommonConfig(field+".common", r.Common); err != nil {
			errs = append(errs, invalidField(field, err.Error()))
		}
	}

	return cgerrors.Combine(errs...)
}

func missingField(field, name string) error {
	return cgerrors.NewConfigError(cgerrors.ErrCodeMissingField,
		fmt.Sprintf("%s: missing required field %q", field, name)).
		WithContext("field", name)
}

func invalidField(field, msg string) error {
	return cgerrors.NewConfigError(cgerrors.ErrCodeConfigInvalid, field+": "+msg)
}

// Build constructs the validator described by the rule.
func (r *RuleSpec) Build(common CommonConfig) (validator.Validator, error) {
	switch r.Type {
	case RuleIllegalChars:
		return validator.NewIllegalCharacters(r.IllegalChars)
	case RuleFieldCount:
		if r.Expected == nil {
			return nil, missingField(string(r.Type), "expected")
		}
		return validator.NewFieldCount(*r.Expected, r.SeparatorByte(common))
	case RuleLineLength:
		if r.MaxLength == nil {
			return nil, missingField(string(r.Type), "max_length")
		}
		return validator.NewLineLength(*r.MaxLength)
	default:
		return nil, cgerrors.NewConfigError(cgerrors.ErrCodeUnknownRule,
			fmt.Sprintf("unknown validator type %q", r.Type))
	}
}

// ParseRules decodes and checks a YAML sequence of validator entries. Every
// invalid entry is reported, not only the first.
func ParseRules(data []byte) ([]RuleSpec, error) {
	rules, err := decodeRules(data)
	if err != nil {
		return nil, err
	}

	var errs []error
	for i := range rules {
		if err := rules[i].validate(i); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cgerrors.Combine(errs...); err != nil {
		return nil, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "invalid validators")
	}

	return rules, nil
}

func decodeRules(data []byte) ([]RuleSpec, error) {
	var rules []RuleSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return nil, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "decode validators")
	}

	return rules, nil
}

func decodeRuleNode(node *yaml.Node) ([]RuleSpec, error) {
	var rules []RuleSpec
	if err := node.Decode(&rules); err != nil {
		return nil, cgerrors.WrapConfig(err, cgerrors.ErrCodeConfigInvalid, "decode validators")
	}

	return rules, nil
}

// linePrefix locates an error in the source document when the line is known.
func linePrefix(node *yaml.Node) string {
	if node.Line == 0 {
		return ""
	}

	return fmt.Sprintf("line %d: ", node.Line)
}
