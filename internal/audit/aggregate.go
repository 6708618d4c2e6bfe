package audit

import (
	"fmt"
	"sort"
	"strings"
)

// Aggregator merges the raw correction lists from all succeeded stages into
// one coherent DocumentAuditResult. It is deterministic: the same raw
// multiset produces the same final corrections and numbering regardless of
// input order, so re-aggregation is idempotent.
type Aggregator struct {
	// strict makes contradictions fatal instead of policy-resolved.
	strict bool
}

// NewAggregator creates an Aggregator. In strict mode two overlapping
// corrections with different non-empty replacements abort aggregation with a
// ConflictError.
func NewAggregator(strict bool) *Aggregator {
	return &Aggregator{strict: strict}
}

// parsedRaw is a raw correction with its location parsed for comparison.
type parsedRaw struct {
	RawCorrection
	loc Location
}

// group is a set of raw corrections whose locations overlap (or touch with
// identical original text). Groups on the same page never share a line.
type group struct {
	page    int
	maxEnd  int
	members []parsedRaw
}

// Aggregate runs the full merge: parse and screen locations, group by
// overlap, collapse duplicates, resolve contradictions, sort, and renumber.
func (a *Aggregator) Aggregate(sourceRef string, raw []RawCorrection) (*DocumentAuditResult, error) {
	result := &DocumentAuditResult{
		SourceDocumentRef: sourceRef,
		Corrections:       []Correction{},
		StageProvenance:   map[int][]string{},
	}

	parsed := a.screen(raw, result)
	groups := buildGroups(parsed)

	type finalEntry struct {
		corr       Correction
		loc        Location
		stageOrder int
		provenance []string
	}

	var finals []finalEntry
	for _, g := range groups {
		for _, span := range splitSpans(g.members) {
			winner, provenance, err := a.resolveSpan(span)
			if err != nil {
				return nil, err
			}
			finals = append(finals, finalEntry{
				corr:       winner.Correction,
				loc:        winner.loc,
				stageOrder: minStageOrder(span),
				provenance: provenance,
			})
		}
	}

	// Final order: location, then severity descending, then original stage
	// order, then original text as a last deterministic tiebreak.
	sort.Slice(finals, func(i, j int) bool {
		x, y := finals[i], finals[j]
		if c := x.loc.Compare(y.loc); c != 0 {
			return c < 0
		}
		if x.corr.Severity != y.corr.Severity {
			return x.corr.Severity > y.corr.Severity
		}
		if x.stageOrder != y.stageOrder {
			return x.stageOrder < y.stageOrder
		}
		return x.corr.TextBefore < y.corr.TextBefore
	})

	for i, f := range finals {
		f.corr.ID = i + 1
		result.Corrections = append(result.Corrections, f.corr)
		result.StageProvenance[f.corr.ID] = f.provenance
	}

	return result, nil
}

// screen parses every raw correction's location and drops the unusable ones
// with a warning: malformed locations and no-op edits where the original and
// replacement text are identical. Neither is fatal for the run.
func (a *Aggregator) screen(raw []RawCorrection, result *DocumentAuditResult) []parsedRaw {
	parsed := make([]parsedRaw, 0, len(raw))
	for _, rc := range raw {
		loc, err := ParseLocation(rc.Location)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"excluded correction from %s: %v", rc.StageName, err))
			continue
		}
		if strings.TrimSpace(rc.TextBefore) == strings.TrimSpace(rc.TextAfter) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"excluded no-op correction from %s at %s: replacement equals original",
				rc.StageName, rc.Location))
			continue
		}
		parsed = append(parsed, parsedRaw{RawCorrection: rc, loc: loc})
	}

	// Canonical order, independent of the order stages finished in.
	sort.Slice(parsed, func(i, j int) bool {
		x, y := parsed[i], parsed[j]
		if c := x.loc.Compare(y.loc); c != 0 {
			return c < 0
		}
		if x.StageOrder != y.StageOrder {
			return x.StageOrder < y.StageOrder
		}
		if x.TextBefore != y.TextBefore {
			return x.TextBefore < y.TextBefore
		}
		return x.TextAfter < y.TextAfter
	})

	return parsed
}

// buildGroups sweeps the canonically ordered corrections into overlap groups.
// Two corrections share a group when their line ranges intersect; ranges that
// merely touch join only when an existing member has identical original text.
func buildGroups(parsed []parsedRaw) []*group {
	var groups []*group
	var current *group

	for _, p := range parsed {
		if current != nil && current.page == p.loc.Page {
			switch {
			case p.loc.StartLine <= current.maxEnd:
				current.add(p)
				continue
			case p.loc.StartLine == current.maxEnd+1 && current.hasTextBefore(p.TextBefore):
				current.add(p)
				continue
			}
		}
		current = &group{page: p.loc.Page, maxEnd: p.loc.EndLine}
		current.members = append(current.members, p)
		groups = append(groups, current)
	}

	return groups
}

func (g *group) add(p parsedRaw) {
	if p.loc.EndLine > g.maxEnd {
		g.maxEnd = p.loc.EndLine
	}
	g.members = append(g.members, p)
}

func (g *group) hasTextBefore(text string) bool {
	for _, m := range g.members {
		if m.TextBefore == text {
			return true
		}
	}
	return false
}

// splitSpans partitions an overlap group into connected components of
// corrections that target the same text span. Locations are line-granular,
// so two findings on one line are only the same span when one's original
// text contains the other's (after normalization); unrelated issues on a
// shared line stay separate corrections.
func splitSpans(members []parsedRaw) [][]parsedRaw {
	n := len(members)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	norm := make([]string, n)
	for i, m := range members {
		norm[i] = normalizeText(m.TextBefore)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sameSpan(norm[i], norm[j]) {
				union(i, j)
			}
		}
	}

	// Members arrive canonically sorted; components preserve that order.
	byRoot := make(map[int][]parsedRaw, n)
	var roots []int
	for i, m := range members {
		r := find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], m)
	}

	out := make([][]parsedRaw, 0, len(roots))
	for _, r := range roots {
		out = append(out, byRoot[r])
	}
	return out
}

// sameSpan reports whether two normalized original-text values describe the
// same document span. Pure insertions (empty originals) only match each
// other.
func sameSpan(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// resolveSpan reduces one same-span component to a single correction.
// Members are partitioned into duplicate classes by normalized replacement
// text; multiple classes constitute a contradiction resolved by the fixed
// policy. The returned provenance is the union of every member's stage,
// winners and discarded alternatives alike.
func (a *Aggregator) resolveSpan(members []parsedRaw) (parsedRaw, []string, error) {
	classes := partitionByReplacement(members)

	if a.strict {
		if first, second, ok := firstContradiction(classes); ok {
			return parsedRaw{}, nil, &ConflictError{
				Location: first.Location,
				A:        first.RawCorrection,
				B:        second.RawCorrection,
			}
		}
	}

	// Order classes by the resolution policy: category priority, then
	// severity, then the minimal edit (shorter replacement).
	sort.Slice(classes, func(i, j int) bool {
		x, y := classes[i], classes[j]
		if x.maxPriority != y.maxPriority {
			return x.maxPriority > y.maxPriority
		}
		if x.maxSeverity != y.maxSeverity {
			return x.maxSeverity > y.maxSeverity
		}
		if len(x.normalized) != len(y.normalized) {
			return len(x.normalized) < len(y.normalized)
		}
		return x.normalized < y.normalized
	})

	if len(classes) == 0 || len(classes[0].members) == 0 {
		// Groups are built from at least one member; an empty winner means
		// the resolution invariant is broken.
		return parsedRaw{}, nil, fmt.Errorf("audit: internal error: empty overlap group during aggregation")
	}

	winnerClass := classes[0]
	winner := winnerClass.members[0]

	// Duplicate collapse keeps the highest severity among the collapsed
	// corrections.
	winner.Severity = winnerClass.maxSeverity

	return winner, stageUnion(members), nil
}

// replacementClass is a duplicate class: all members propose the same
// replacement text up to case and whitespace.
type replacementClass struct {
	normalized  string
	maxPriority int
	maxSeverity Severity
	members     []parsedRaw // ordered: representative first
}

// partitionByReplacement splits group members into duplicate classes and
// orders each class's members so the representative (highest category
// priority, then severity, then pipeline order) comes first.
func partitionByReplacement(members []parsedRaw) []*replacementClass {
	byNorm := make(map[string]*replacementClass)
	var classes []*replacementClass

	for _, m := range members {
		key := normalizeText(m.TextAfter)
		c, ok := byNorm[key]
		if !ok {
			c = &replacementClass{normalized: key}
			byNorm[key] = c
			classes = append(classes, c)
		}
		c.members = append(c.members, m)
		if p := m.Category.Priority(); p > c.maxPriority {
			c.maxPriority = p
		}
		if m.Severity > c.maxSeverity {
			c.maxSeverity = m.Severity
		}
	}

	for _, c := range classes {
		sort.Slice(c.members, func(i, j int) bool {
			x, y := c.members[i], c.members[j]
			if px, py := x.Category.Priority(), y.Category.Priority(); px != py {
				return px > py
			}
			if x.Severity != y.Severity {
				return x.Severity > y.Severity
			}
			if x.StageOrder != y.StageOrder {
				return x.StageOrder < y.StageOrder
			}
			return x.TextBefore < y.TextBefore
		})
	}

	return classes
}

// firstContradiction returns two corrections with different non-empty
// replacements, if the group contains any.
func firstContradiction(classes []*replacementClass) (parsedRaw, parsedRaw, bool) {
	var nonEmpty []*replacementClass
	for _, c := range classes {
		if c.normalized != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) < 2 {
		return parsedRaw{}, parsedRaw{}, false
	}
	return nonEmpty[0].members[0], nonEmpty[1].members[0], true
}

// stageUnion returns the sorted, deduplicated stage names of all members.
func stageUnion(members []parsedRaw) []string {
	seen := make(map[string]bool, len(members))
	var stages []string
	for _, m := range members {
		if !seen[m.StageName] {
			seen[m.StageName] = true
			stages = append(stages, m.StageName)
		}
	}
	sort.Strings(stages)
	return stages
}

func minStageOrder(members []parsedRaw) int {
	min := members[0].StageOrder
	for _, m := range members[1:] {
		if m.StageOrder < min {
			min = m.StageOrder
		}
	}
	return min
}
