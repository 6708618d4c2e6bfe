package audit

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dusk-indust/rfpaudit/internal/retrieval"
)

// Compile-time check.
var _ Reviewer = (*SpellingReviewer)(nil)

// phraseCheck is a grammar or terminology pattern evaluated per line.
type phraseCheck struct {
	re          *regexp.Regexp
	replacement string
	reason      string
	category    Category
	severity    Severity
}

// defaultMisspellings is the built-in lexicon of common misspellings seen in
// procurement documents.
var defaultMisspellings = map[string]string{
	"recieve":     "receive",
	"seperate":    "separate",
	"occured":     "occurred",
	"definately":  "definitely",
	"acheive":     "achieve",
	"teh":         "the",
	"adress":      "address",
	"goverment":   "government",
	"procurment":  "procurement",
	"complience":  "compliance",
	"guidlines":   "guidelines",
	"submittion":  "submission",
	"calender":    "calendar",
	"milestons":   "milestones",
	"responsable": "responsible",
}

var defaultPhraseChecks = []phraseCheck{
	{
		re:          regexp.MustCompile(`(?i)\bcould of\b`),
		replacement: "could have",
		reason:      "\"could of\" is a mishearing of \"could have\"",
		category:    CategoryGrammar,
		severity:    SeverityMinor,
	},
	{
		re:          regexp.MustCompile(`(?i)\bshould of\b`),
		replacement: "should have",
		reason:      "\"should of\" is a mishearing of \"should have\"",
		category:    CategoryGrammar,
		severity:    SeverityMinor,
	},
	{
		re:          regexp.MustCompile(`(?i)\birregardless\b`),
		replacement: "regardless",
		reason:      "\"irregardless\" is nonstandard",
		category:    CategoryGrammar,
		severity:    SeverityMinor,
	},
	{
		re:          regexp.MustCompile(`(?i)\be-mail\b`),
		replacement: "email",
		reason:      "house style uses \"email\" without a hyphen",
		category:    CategoryTerminology,
		severity:    SeverityInfo,
	},
	{
		re:          regexp.MustCompile(`(?i)\bweb site\b`),
		replacement: "website",
		reason:      "house style uses \"website\" as one word",
		category:    CategoryTerminology,
		severity:    SeverityInfo,
	},
}

// wordRe tokenizes candidate words for the misspelling lexicon.
var wordRe = regexp.MustCompile(`[A-Za-z]+`)

// SpellingReviewer is the first-pass reviewer covering spelling, grammar, and
// terminology. It emits no rule ids; its categories are restricted to
// spelling, grammar, and terminology.
type SpellingReviewer struct {
	misspellings map[string]string
	checks       []phraseCheck
}

// NewSpellingReviewer creates a SpellingReviewer with the built-in lexicon
// and phrase checks.
func NewSpellingReviewer() *SpellingReviewer {
	return &SpellingReviewer{
		misspellings: defaultMisspellings,
		checks:       defaultPhraseChecks,
	}
}

// Name implements Reviewer.
func (r *SpellingReviewer) Name() string {
	return StageSpelling.String()
}

// Review scans the document line by line. The review context is unused.
func (r *SpellingReviewer) Review(ctx context.Context, doc *retrieval.Document, _ ReviewContext) ([]Correction, Status) {
	if doc == nil || doc.LineCount() == 0 {
		return nil, Failed("document has no content to review")
	}

	var out []Correction

	for pi, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, Failed(err.Error())
		}

		for li, line := range page {
			loc := FormatLocation(pi+1, li+1)
			out = append(out, r.checkSpelling(loc, line)...)
			out = append(out, r.checkDoubledWords(loc, line)...)
			out = append(out, r.checkPhrases(loc, line)...)
		}
	}

	return out, Succeeded()
}

// checkSpelling flags lexicon misspellings, preserving the leading capital of
// the original word in the proposed replacement.
func (r *SpellingReviewer) checkSpelling(loc, line string) []Correction {
	var out []Correction
	for _, word := range wordRe.FindAllString(line, -1) {
		fix, ok := r.misspellings[strings.ToLower(word)]
		if !ok {
			continue
		}
		out = append(out, Correction{
			Location:   loc,
			TextBefore: word,
			TextAfter:  matchCase(word, fix),
			Reason:     fmt.Sprintf("%q is a misspelling of %q", word, fix),
			Category:   CategorySpelling,
			Severity:   SeverityMinor,
		})
	}
	return out
}

// checkDoubledWords flags an immediately repeated word. Word positions come
// from the tokenizer so every consecutive pair is inspected; two words count
// as consecutive only when nothing but spaces separates them.
func (r *SpellingReviewer) checkDoubledWords(loc, line string) []Correction {
	idxs := wordRe.FindAllStringIndex(line, -1)

	var out []Correction
	for i := 1; i < len(idxs); i++ {
		prev, cur := idxs[i-1], idxs[i]
		gap := line[prev[1]:cur[0]]
		if gap == "" || strings.Trim(gap, " ") != "" {
			continue
		}

		w1 := line[prev[0]:prev[1]]
		w2 := line[cur[0]:cur[1]]
		if !strings.EqualFold(w1, w2) {
			continue
		}

		out = append(out, Correction{
			Location:   loc,
			TextBefore: line[prev[0]:cur[1]],
			TextAfter:  w1,
			Reason:     fmt.Sprintf("repeated word %q", w1),
			Category:   CategoryGrammar,
			Severity:   SeverityMinor,
		})
	}
	return out
}

// checkPhrases applies the grammar and terminology phrase checks.
func (r *SpellingReviewer) checkPhrases(loc, line string) []Correction {
	var out []Correction
	for _, c := range r.checks {
		for _, m := range c.re.FindAllString(line, -1) {
			out = append(out, Correction{
				Location:   loc,
				TextBefore: m,
				TextAfter:  matchCase(m, c.replacement),
				Reason:     c.reason,
				Category:   c.category,
				Severity:   c.severity,
			})
		}
	}
	return out
}

// matchCase carries a leading capital from the original over to the fix.
func matchCase(original, fix string) string {
	if original == "" || fix == "" {
		return fix
	}
	first := []rune(original)[0]
	if unicode.IsUpper(first) {
		runes := []rune(fix)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	}
	return fix
}
