package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/rfpaudit/internal/ruledata"
)

// ruleFile is the on-disk shape shared by the JSON and YAML formats.
type ruleFile struct {
	Rules []Rule `json:"rules" yaml:"rules"`
}

// Load reads a rule set from a .json, .yaml, or .yml file. Any malformed
// rule, duplicate id, or unparseable file fails the load entirely; callers
// treat that as fatal before any pipeline stage runs.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: reading %s: %w", path, err)
	}

	var rf ruleFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("rules: parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("rules: parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("rules: unsupported rule file extension %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}

	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rules: %s contains no rules", path)
	}

	rs, err := newRuleSet(rf.Rules)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Default returns the embedded built-in rule set. It is validated like any
// loaded set; a failure here means the shipped rules are broken.
func Default() (*RuleSet, error) {
	data, err := ruledata.RulesFS.ReadFile(ruledata.DefaultPath)
	if err != nil {
		return nil, fmt.Errorf("rules: reading embedded rule set: %w", err)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("rules: parsing embedded rule set: %w", err)
	}
	return newRuleSet(rf.Rules)
}
