// Package ruledata embeds the built-in compliance rule set for distribution
// inside the rfpaudit binary. It is used whenever no project rule set is
// configured, so a bare `rfpaudit <document>` still gets guideline coverage.
package ruledata

import "embed"

// RulesFS contains the embedded rule files, rooted at "rules/".
//
//go:embed rules
var RulesFS embed.FS

// DefaultPath is the embedded path of the built-in rule set.
const DefaultPath = "rules/default.yml"
