package services

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed qc_rules.yaml
var defaultRulesYAML []byte

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func (s Severity) valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Rule is one row of the QC configuration table.
type Rule struct {
	ID          string         `yaml:"id" toml:"id" json:"id"`
	Category    string         `yaml:"category" toml:"category" json:"category"`
	Severity    Severity       `yaml:"severity" toml:"severity" json:"severity"`
	Description string         `yaml:"description" toml:"description" json:"description"`
	Params      map[string]any `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"`

	patterns []*regexp.Regexp
}

type RuleSet struct {
	Rules []Rule `yaml:"rules" toml:"rules"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() (*RuleSet, error) {
	return parseRules(defaultRulesYAML, "yaml")
}

// LoadRules reads a rule table from a .yaml/.yml or .toml file. An empty
// path yields the built-in table.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read qc rules: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseRules(content, "yaml")
	case ".toml":
		return parseRules(content, "toml")
	default:
		return nil, fmt.Errorf("unsupported qc rules format: %s", filepath.Ext(path))
	}
}

func parseRules(content []byte, format string) (*RuleSet, error) {
	var set RuleSet
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(content, &set)
	case "toml":
		err = toml.Unmarshal(content, &set)
	default:
		err = fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse qc rules: %w", err)
	}
	return &set, nil
}

func paramInt(r *Rule, key string, fallback int) int {
	switch v := r.Params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func paramStrings(r *Rule, key string) []string {
	switch v := r.Params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
