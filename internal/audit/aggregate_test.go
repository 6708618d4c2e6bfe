package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawSpelling(loc, before, after string) RawCorrection {
	return RawCorrection{
		Correction: Correction{
			Location:   loc,
			TextBefore: before,
			TextAfter:  after,
			Reason:     "misspelling",
			Category:   CategorySpelling,
			Severity:   SeverityMinor,
		},
		StageName:  StageSpelling.String(),
		StageOrder: 0,
	}
}

func rawGuideline(loc, before, after, ruleID string, sev Severity) RawCorrection {
	return RawCorrection{
		Correction: Correction{
			Location:   loc,
			TextBefore: before,
			TextAfter:  after,
			Reason:     "guideline violation",
			Category:   CategoryGuideline,
			RuleID:     ruleID,
			Severity:   sev,
		},
		StageName:  StageGuidelines.String(),
		StageOrder: 1,
	}
}

func TestAggregate_DuplicateCollapse(t *testing.T) {
	raw := []RawCorrection{
		rawSpelling("p2:l4", "recieve", "receive"),
		rawGuideline("p2:l4", "recieve", "receive", "G-12", SeverityMajor),
	}

	result, err := NewAggregator(false).Aggregate("doc-1", raw)
	require.NoError(t, err)
	require.Len(t, result.Corrections, 1)

	c := result.Corrections[0]
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, "receive", c.TextAfter)
	assert.Equal(t, CategoryGuideline, c.Category, "higher-priority category wins ties")
	assert.Equal(t, "G-12", c.RuleID)
	assert.Equal(t, SeverityMajor, c.Severity, "collapsed duplicate keeps the highest severity")
	assert.ElementsMatch(t,
		[]string{StageSpelling.String(), StageGuidelines.String()},
		result.StageProvenance[1],
		"provenance must record both originating stages")
}

func TestAggregate_DuplicateCaseWhitespaceInsensitive(t *testing.T) {
	a := rawSpelling("p1:l1", "web  site", "Web Site")
	b := rawGuideline("p1:l1", "web  site", "web   site", "G-1", SeverityMinor)
	// Different raw strings, same normalized replacement.
	b.TextAfter = "web  SITE"

	result, err := NewAggregator(false).Aggregate("doc", []RawCorrection{a, b})
	require.NoError(t, err)
	assert.Len(t, result.Corrections, 1)
}

func TestAggregate_ContradictionCategoryPriority(t *testing.T) {
	spelling := rawSpelling("p3:l7", "utilise", "use")
	guideline := rawGuideline("p3:l7", "utilise", "utilize", "G-2", SeverityMinor)

	result, err := NewAggregator(false).Aggregate("doc", []RawCorrection{spelling, guideline})
	require.NoError(t, err)
	require.Len(t, result.Corrections, 1)

	c := result.Corrections[0]
	assert.Equal(t, "utilize", c.TextAfter, "guideline-compliance outranks spelling")
	assert.ElementsMatch(t,
		[]string{StageSpelling.String(), StageGuidelines.String()},
		result.StageProvenance[1],
		"the discarded alternative's stage is still recorded")
}

func TestAggregate_ContradictionDeterministicUnderSwap(t *testing.T) {
	a := rawSpelling("p1:l2", "colour", "color")
	b := RawCorrection{
		Correction: Correction{
			Location:   "p1:l2",
			TextBefore: "colour",
			TextAfter:  "colours",
			Reason:     "agreement",
			Category:   CategoryGrammar,
			Severity:   SeverityMinor,
		},
		StageName:  StageSpelling.String(),
		StageOrder: 0,
	}

	first, err := NewAggregator(false).Aggregate("doc", []RawCorrection{a, b})
	require.NoError(t, err)
	second, err := NewAggregator(false).Aggregate("doc", []RawCorrection{b, a})
	require.NoError(t, err)

	require.Len(t, first.Corrections, 1)
	assert.Equal(t, first.Corrections, second.Corrections)
	assert.Equal(t, first.StageProvenance, second.StageProvenance)
	assert.Equal(t, "colours", first.Corrections[0].TextAfter,
		"grammar outranks spelling regardless of input order")
}

func TestAggregate_ContradictionSeverityThenShorterEdit(t *testing.T) {
	a := rawSpelling("p1:l1", "gov", "government")
	a.Severity = SeverityMajor
	b := rawSpelling("p1:l1", "gov", "governmental")
	b.StageName = "other-pass"

	result, err := NewAggregator(false).Aggregate("doc", []RawCorrection{b, a})
	require.NoError(t, err)
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, "government", result.Corrections[0].TextAfter,
		"equal category: higher severity wins")

	// Equal category and severity: the shorter replacement wins.
	b.Severity = SeverityMajor
	result, err = NewAggregator(false).Aggregate("doc", []RawCorrection{b, a})
	require.NoError(t, err)
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, "government", result.Corrections[0].TextAfter)
}

func TestAggregate_IdempotentAcrossInputOrder(t *testing.T) {
	raw := []RawCorrection{
		rawSpelling("p1:l3", "teh", "the"),
		rawSpelling("p2:l1", "seperate", "separate"),
		rawGuideline("p1:l3", "teh", "the", "G-9", SeverityMajor),
		rawGuideline("p4:l10", "shall", "must", "G-3", SeverityCritical),
	}
	reversed := make([]RawCorrection, len(raw))
	for i, r := range raw {
		reversed[len(raw)-1-i] = r
	}

	first, err := NewAggregator(false).Aggregate("doc", raw)
	require.NoError(t, err)
	second, err := NewAggregator(false).Aggregate("doc", reversed)
	require.NoError(t, err)

	assert.Equal(t, first.Corrections, second.Corrections,
		"same corrections and numbering regardless of input order")
	assert.Equal(t, first.StageProvenance, second.StageProvenance)
}

func TestAggregate_FinalOrderAndNumbering(t *testing.T) {
	raw := []RawCorrection{
		rawSpelling("p2:l1", "adress", "address"),
		rawGuideline("p1:l5", "shall", "must", "G-3", SeverityCritical),
		rawSpelling("p1:l1", "teh", "the"),
	}

	result, err := NewAggregator(false).Aggregate("doc", raw)
	require.NoError(t, err)
	require.Len(t, result.Corrections, 3)

	assert.Equal(t, []int{1, 2, 3}, []int{
		result.Corrections[0].ID, result.Corrections[1].ID, result.Corrections[2].ID,
	})
	assert.Equal(t, "p1:l1", result.Corrections[0].Location)
	assert.Equal(t, "p1:l5", result.Corrections[1].Location)
	assert.Equal(t, "p2:l1", result.Corrections[2].Location)

	// Every final correction carries provenance.
	for _, c := range result.Corrections {
		assert.NotEmpty(t, result.StageProvenance[c.ID])
	}
}

func TestAggregate_MalformedLocationExcludedWithWarning(t *testing.T) {
	good := rawSpelling("p1:l1", "teh", "the")
	bad := rawSpelling("somewhere in section 4", "recieve", "receive")

	result, err := NewAggregator(false).Aggregate("doc", []RawCorrection{good, bad})
	require.NoError(t, err, "malformed locations are never fatal for the run")
	assert.Len(t, result.Corrections, 1)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "malformed location")
}

func TestAggregate_NoOpEditExcluded(t *testing.T) {
	noop := rawSpelling("p1:l1", "receive", "receive")

	result, err := NewAggregator(false).Aggregate("doc", []RawCorrection{noop})
	require.NoError(t, err)
	assert.Empty(t, result.Corrections)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no-op")
}

func TestAggregate_OverlappingRangesGrouped(t *testing.T) {
	a := rawSpelling("p1:l4-6", "the the proposal", "the proposal")
	b := rawGuideline("p1:l5", "proposal", "Proposal", "G-7", SeverityMinor)

	result, err := NewAggregator(false).Aggregate("doc", []RawCorrection{a, b})
	require.NoError(t, err)
	assert.Len(t, result.Corrections, 1, "intersecting ranges form one group")
}

func TestAggregate_AdjacentRangesDistinctUnlessSameText(t *testing.T) {
	a := rawSpelling("p1:l4", "teh", "the")
	b := rawSpelling("p1:l5", "adress", "address")

	result, err := NewAggregator(false).Aggregate("doc", []RawCorrection{a, b})
	require.NoError(t, err)
	assert.Len(t, result.Corrections, 2, "adjacent ranges with different text stay distinct")

	// Same original text on touching lines merges.
	c := rawSpelling("p2:l1", "recieve", "receive")
	d := rawGuideline("p2:l2", "recieve", "receive", "G-12", SeverityMajor)

	result, err = NewAggregator(false).Aggregate("doc", []RawCorrection{c, d})
	require.NoError(t, err)
	assert.Len(t, result.Corrections, 1, "adjacent ranges with identical text_before merge")
}

func TestAggregate_UniqueLocationTextBeforeInFinal(t *testing.T) {
	raw := []RawCorrection{
		rawSpelling("p1:l1", "teh", "the"),
		rawSpelling("p1:l1", "teh", "the"),
		rawGuideline("p1:l1", "teh", "the", "G-1", SeverityMinor),
	}

	result, err := NewAggregator(false).Aggregate("doc", raw)
	require.NoError(t, err)

	seen := map[[2]string]bool{}
	for _, c := range result.Corrections {
		key := [2]string{c.Location, c.TextBefore}
		assert.False(t, seen[key], "(location, text_before) must be unique after aggregation")
		seen[key] = true
	}
}

func TestAggregate_StrictModeConflictFatal(t *testing.T) {
	a := rawSpelling("p1:l1", "colour", "color")
	b := rawGuideline("p1:l1", "colour", "colour scheme", "G-5", SeverityMinor)

	_, err := NewAggregator(true).Aggregate("doc", []RawCorrection{a, b})
	require.Error(t, err)

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "p1:l1")
}

func TestAggregate_StrictModeDuplicatesStillFine(t *testing.T) {
	a := rawSpelling("p1:l1", "recieve", "receive")
	b := rawGuideline("p1:l1", "recieve", "receive", "G-12", SeverityMajor)

	result, err := NewAggregator(true).Aggregate("doc", []RawCorrection{a, b})
	require.NoError(t, err, "duplicates are not contradictions")
	assert.Len(t, result.Corrections, 1)
}

func TestAggregate_EmptyInput(t *testing.T) {
	result, err := NewAggregator(false).Aggregate("doc", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Corrections)
	assert.Equal(t, "doc", result.SourceDocumentRef)
}
