// Package rules loads and validates guideline rule sets. A rule set is an
// externally supplied collection of compliance rules keyed by rule id;
// loading fails entirely on duplicate or malformed ids so no stage ever runs
// against a partially valid set.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrDuplicateRuleID is wrapped by Load when two rules share an id.
var ErrDuplicateRuleID = errors.New("rules: duplicate rule id")

// Rule is one compliance rule. Pattern is a regular expression evaluated
// against each document line; Replacement is the proposed rewrite, which may
// reference capture groups ($1, $2, ...). An empty Replacement proposes a
// deletion.
type Rule struct {
	ID              string `json:"rule_id" yaml:"rule_id"`
	Description     string `json:"description" yaml:"description"`
	Category        string `json:"category" yaml:"category"`
	SeverityDefault string `json:"severity_default" yaml:"severity_default"`
	Pattern         string `json:"pattern" yaml:"pattern"`
	Replacement     string `json:"replacement" yaml:"replacement"`

	re *regexp.Regexp
}

// Regexp returns the compiled pattern. Compilation happens during Load, so
// this never returns nil for a rule obtained from a RuleSet.
func (r *Rule) Regexp() *regexp.Regexp {
	return r.re
}

// RuleSet is an immutable, validated collection of rules.
type RuleSet struct {
	byID  map[string]*Rule
	order []string
}

// Get returns the rule with the given id, or nil.
func (rs *RuleSet) Get(id string) *Rule {
	if rs == nil {
		return nil
	}
	return rs.byID[id]
}

// Has reports whether the set contains the given rule id.
func (rs *RuleSet) Has(id string) bool {
	return rs.Get(id) != nil
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.order)
}

// Rules returns the rules in their declaration order.
func (rs *RuleSet) Rules() []*Rule {
	if rs == nil {
		return nil
	}
	out := make([]*Rule, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.byID[id])
	}
	return out
}

// IDs returns the sorted rule ids, for error messages.
func (rs *RuleSet) IDs() []string {
	if rs == nil {
		return nil
	}
	ids := append([]string(nil), rs.order...)
	sort.Strings(ids)
	return ids
}

// newRuleSet validates raw rules and compiles their patterns. Any invalid
// rule fails the whole set.
func newRuleSet(raw []Rule) (*RuleSet, error) {
	rs := &RuleSet{byID: make(map[string]*Rule, len(raw))}

	for i := range raw {
		r := raw[i]
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			return nil, fmt.Errorf("rules: rule %d has an empty rule_id", i+1)
		}
		if _, dup := rs.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRuleID, r.ID)
		}
		if r.Description == "" {
			return nil, fmt.Errorf("rules: rule %q has no description", r.ID)
		}
		if r.Pattern == "" {
			return nil, fmt.Errorf("rules: rule %q has no pattern", r.ID)
		}

		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rules: rule %q pattern: %w", r.ID, err)
		}
		r.re = re

		if !validSeverity(r.SeverityDefault) {
			return nil, fmt.Errorf("rules: rule %q has invalid severity_default %q", r.ID, r.SeverityDefault)
		}

		rs.byID[r.ID] = &r
		rs.order = append(rs.order, r.ID)
	}

	return rs, nil
}

func validSeverity(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "minor", "major", "critical":
		return true
	}
	return false
}
