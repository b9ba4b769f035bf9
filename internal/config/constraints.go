package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConstraintRule = errors.New("invalid constraint rule")

// ConstraintRule is an alias/expression pair resolved by the constraint registry.
type ConstraintRule struct {
	Alias    string            `yaml:"alias" validate:"required"`
	Expr     string            `yaml:"expr" validate:"required"`
	Messages map[string]string `yaml:"messages,omitempty"`
}

// ParseConstraints reads "alias:expr;alias:expr", e.g. "size:<= 2M;type:~ image/".
func ParseConstraints(s string) ([]ConstraintRule, error) {
	var rules []ConstraintRule
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		alias, expr, ok := strings.Cut(item, ":")
		alias, expr = strings.TrimSpace(alias), strings.TrimSpace(expr)
		if !ok || alias == "" || expr == "" {
			return nil, fmt.Errorf("%w: %q (want alias:expression)", ErrInvalidConstraintRule, item)
		}
		rules = append(rules, ConstraintRule{Alias: alias, Expr: expr})
	}
	return rules, nil
}

// LoadConstraintFile reads a YAML list of {alias, expr, messages} rules.
// messages maps message keys to templates, e.g. fileIsNotImage: "{name} is not a picture".
func LoadConstraintFile(path string) ([]ConstraintRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read constraints file: %w", err)
	}
	var rules []ConstraintRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse constraints file %s: %w", path, err)
	}
	for i, r := range rules {
		if strings.TrimSpace(r.Alias) == "" || strings.TrimSpace(r.Expr) == "" {
			return nil, fmt.Errorf("%w: entry %d in %s", ErrInvalidConstraintRule, i, path)
		}
	}
	return rules, nil
}
