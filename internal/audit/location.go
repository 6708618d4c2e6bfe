package audit

import (
	"fmt"
	"regexp"
	"strconv"
)

// Locations are rendered as "p<page>:l<line>" or "p<page>:l<start>-<end>",
// 1-based, with the line range inclusive. This is the one scheme the whole
// pipeline uses: reviewers emit it and the aggregation engine parses it back
// to decide overlap.
var locationRe = regexp.MustCompile(`^p(\d+):l(\d+)(?:-(\d+))?$`)

// Location is a parsed, comparable document position.
type Location struct {
	Page      int
	StartLine int
	EndLine   int
}

// FormatLocation renders a single-line location.
func FormatLocation(page, line int) string {
	return fmt.Sprintf("p%d:l%d", page, line)
}

// FormatLocationRange renders a multi-line location. A one-line range
// collapses to the single-line form.
func FormatLocationRange(page, start, end int) string {
	if start == end {
		return FormatLocation(page, start)
	}
	return fmt.Sprintf("p%d:l%d-%d", page, start, end)
}

// ParseLocation parses a location string. A location that does not match the
// scheme, or whose range is inverted, is malformed; the aggregation engine
// excludes such corrections with a warning rather than failing the run.
func ParseLocation(s string) (Location, error) {
	m := locationRe.FindStringSubmatch(s)
	if m == nil {
		return Location{}, fmt.Errorf("audit: malformed location %q", s)
	}

	page, _ := strconv.Atoi(m[1])
	start, _ := strconv.Atoi(m[2])
	end := start
	if m[3] != "" {
		end, _ = strconv.Atoi(m[3])
	}

	if page < 1 || start < 1 || end < start {
		return Location{}, fmt.Errorf("audit: malformed location %q", s)
	}

	return Location{Page: page, StartLine: start, EndLine: end}, nil
}

// Overlaps reports whether two locations share at least one line on the same
// page.
func (l Location) Overlaps(other Location) bool {
	if l.Page != other.Page {
		return false
	}
	return l.StartLine <= other.EndLine && other.StartLine <= l.EndLine
}

// Adjacent reports whether the two ranges touch without overlapping, e.g.
// l4-5 and l6. Adjacent findings stay distinct unless their original text is
// identical.
func (l Location) Adjacent(other Location) bool {
	if l.Page != other.Page {
		return false
	}
	return l.EndLine+1 == other.StartLine || other.EndLine+1 == l.StartLine
}

// Compare orders locations by page, then start line, then end line.
func (l Location) Compare(other Location) int {
	switch {
	case l.Page != other.Page:
		return l.Page - other.Page
	case l.StartLine != other.StartLine:
		return l.StartLine - other.StartLine
	default:
		return l.EndLine - other.EndLine
	}
}
