package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category classifies a correction.
type Category string

const (
	CategorySpelling    Category = "spelling"
	CategoryGrammar     Category = "grammar"
	CategoryTerminology Category = "terminology"
	CategoryGuideline   Category = "guideline-compliance"
	CategoryOther       Category = "other"
)

// Priority returns the conflict-resolution rank of the category. Higher wins.
// The order is fixed: guideline-compliance > grammar > spelling > terminology > other.
func (c Category) Priority() int {
	switch c {
	case CategoryGuideline:
		return 4
	case CategoryGrammar:
		return 3
	case CategorySpelling:
		return 2
	case CategoryTerminology:
		return 1
	default:
		return 0
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySpelling, CategoryGrammar, CategoryTerminology, CategoryGuideline, CategoryOther:
		return true
	}
	return false
}

// Severity is the ordered severity of a correction: info < minor < major < critical.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityMinor
	SeverityMajor
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityMinor:
		return "minor"
	case SeverityMajor:
		return "major"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a severity name to its ordered value.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "minor":
		return SeverityMinor, nil
	case "major":
		return SeverityMajor, nil
	case "critical":
		return SeverityCritical, nil
	}
	return 0, fmt.Errorf("audit: unknown severity %q", s)
}

// MarshalJSON renders the severity by name, not ordinal.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Correction is one flagged issue. Reviewer stages create them raw (ID zero);
// the aggregation engine assigns IDs at finalization, so IDs are never stable
// across runs.
type Correction struct {
	ID         int      `json:"id"`
	Location   string   `json:"location"`
	TextBefore string   `json:"text_before"`
	TextAfter  string   `json:"text_after"`
	Reason     string   `json:"reason"`
	Category   Category `json:"category"`
	RuleID     string   `json:"rule_id,omitempty"`
	Severity   Severity `json:"severity"`
}

// RawCorrection is a stage's unmerged finding together with its origin.
// Only the aggregation engine consumes these.
type RawCorrection struct {
	Correction

	// StageName is the reviewer that produced the finding.
	StageName string

	// StageOrder is the fixed position of the reviewer in the pipeline,
	// used as the final ordering tiebreak.
	StageOrder int
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces, the equivalence used for duplicate detection.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
