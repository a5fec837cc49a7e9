// Package qa runs stateless quality-assurance checks over segment
// views: trailing punctuation, number parity, double spaces,
// leading/trailing whitespace, bracket balance, and inconsistent
// repetitions. Checks read the clean text only; inline tags are the
// validator's concern, not QA's.
package qa

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lingtools/xliffd/core/sdlxliff"
	"github.com/lingtools/xliffd/internal/languages"
)

// Issue is a single finding in one segment.
type Issue struct {
	SegmentID     string `json:"segment_id"`
	Check         string `json:"check"`
	Severity      string `json:"severity"`
	Message       string `json:"message"`
	SourceExcerpt string `json:"source_excerpt,omitempty"`
	TargetExcerpt string `json:"target_excerpt,omitempty"`
}

// Report is the outcome of a QA run over a document's segments.
type Report struct {
	SourceLanguage     string         `json:"source_language,omitempty"`
	TargetLanguage     string         `json:"target_language,omitempty"`
	TargetLanguageName string         `json:"target_language_name,omitempty"`
	TotalSegments      int            `json:"total_segments"`
	SegmentsChecked    int            `json:"segments_checked"`
	SegmentsWithIssues int            `json:"segments_with_issues"`
	Issues             []Issue        `json:"issues"`
	Summary            map[string]int `json:"summary"`
}

// Check names accepted by Run.
const (
	CheckTrailingPunctuation     = "trailing_punctuation"
	CheckNumbers                 = "numbers"
	CheckDoubleSpaces            = "double_spaces"
	CheckWhitespace              = "whitespace"
	CheckBrackets                = "brackets"
	CheckInconsistentRepetitions = "inconsistent_repetitions"
)

// AllChecks lists every check name, in reporting order.
var AllChecks = []string{
	CheckTrailingPunctuation,
	CheckNumbers,
	CheckDoubleSpaces,
	CheckWhitespace,
	CheckBrackets,
	CheckInconsistentRepetitions,
}

var (
	// Trailing punctuation across scripts, full-width included.
	trailingPunctPattern = regexp.MustCompile(`[.!?:;،。！？：；]+$`)
	// Integers and decimals with , or . separators.
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// bracketPairs maps opening brackets to their closers, full-width
// equivalents included. Both sides are counted.
var bracketPairs = map[rune]rune{
	'(': ')',
	'[': ']',
	'{': '}',
	'（': '）',
	'【': '】',
	'「': '」',
	'『': '』',
}

var allBrackets = func() map[rune]bool {
	set := make(map[rune]bool, len(bracketPairs)*2)
	for opener, closer := range bracketPairs {
		set[opener] = true
		set[closer] = true
	}
	return set
}()

// Options selects which checks run and supplies language context for
// the report.
type Options struct {
	// Checks limits the run to the named checks; nil runs all of them.
	Checks         []string
	SourceLanguage string
	TargetLanguage string
}

// Run executes the enabled checks over segments and aggregates a
// report. Unknown check names are ignored.
func Run(segments []sdlxliff.SegmentView, opts Options) Report {
	enabled := make(map[string]bool, len(AllChecks))
	if opts.Checks == nil {
		for _, name := range AllChecks {
			enabled[name] = true
		}
	} else {
		known := make(map[string]bool, len(AllChecks))
		for _, name := range AllChecks {
			known[name] = true
		}
		for _, name := range opts.Checks {
			if known[name] {
				enabled[name] = true
			}
		}
	}

	var issues []Issue
	withIssues := make(map[string]bool)

	for _, seg := range segments {
		var segIssues []Issue

		if enabled[CheckTrailingPunctuation] {
			if issue := checkTrailingPunctuation(seg.SegmentID, seg.Source, seg.Target); issue != nil {
				segIssues = append(segIssues, *issue)
			}
		}
		if enabled[CheckNumbers] {
			if issue := checkNumbers(seg.SegmentID, seg.Source, seg.Target); issue != nil {
				segIssues = append(segIssues, *issue)
			}
		}
		if enabled[CheckDoubleSpaces] {
			if issue := checkDoubleSpaces(seg.SegmentID, seg.Target); issue != nil {
				segIssues = append(segIssues, *issue)
			}
		}
		if enabled[CheckWhitespace] {
			if issue := checkWhitespace(seg.SegmentID, seg.Source, seg.Target); issue != nil {
				segIssues = append(segIssues, *issue)
			}
		}
		if enabled[CheckBrackets] {
			if issue := checkBrackets(seg.SegmentID, seg.Source, seg.Target); issue != nil {
				segIssues = append(segIssues, *issue)
			}
		}

		if len(segIssues) > 0 {
			withIssues[seg.SegmentID] = true
			issues = append(issues, segIssues...)
		}
	}

	if enabled[CheckInconsistentRepetitions] {
		for _, issue := range checkInconsistentRepetitions(segments) {
			withIssues[issue.SegmentID] = true
			issues = append(issues, issue)
		}
	}

	summary := make(map[string]int)
	for _, issue := range issues {
		summary[issue.Check]++
	}
	if issues == nil {
		issues = []Issue{}
	}

	report := Report{
		SourceLanguage:     opts.SourceLanguage,
		TargetLanguage:     opts.TargetLanguage,
		TotalSegments:      len(segments),
		SegmentsChecked:    len(segments),
		SegmentsWithIssues: len(withIssues),
		Issues:             issues,
		Summary:            summary,
	}
	if opts.TargetLanguage != "" {
		report.TargetLanguageName = languages.Name(opts.TargetLanguage)
	}
	return report
}

// checkTrailingPunctuation flags segments where exactly one side ends
// with punctuation.
func checkTrailingPunctuation(segmentID, source, target string) *Issue {
	if source == "" || target == "" {
		return nil
	}

	sourcePunct := trailingPunctPattern.FindString(source)
	targetPunct := trailingPunctPattern.FindString(target)
	if (sourcePunct == "") == (targetPunct == "") {
		return nil
	}

	var message string
	if sourcePunct != "" {
		message = fmt.Sprintf("Source ends with %q but target does not", sourcePunct)
	} else {
		message = fmt.Sprintf("Target ends with %q but source does not", targetPunct)
	}

	return &Issue{
		SegmentID:     segmentID,
		Check:         CheckTrailingPunctuation,
		Severity:      "warning",
		Message:       message,
		SourceExcerpt: excerptTail(source),
		TargetExcerpt: excerptTail(target),
	}
}

// checkNumbers compares the sets of numbers on both sides; order and
// duplicates do not matter.
func checkNumbers(segmentID, source, target string) *Issue {
	if source == "" || target == "" {
		return nil
	}

	sourceNumbers := numberSet(source)
	targetNumbers := numberSet(target)

	var missing, extra []string
	for n := range sourceNumbers {
		if !targetNumbers[n] {
			missing = append(missing, n)
		}
	}
	for n := range targetNumbers {
		if !sourceNumbers[n] {
			extra = append(extra, n)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "extra: "+strings.Join(extra, ", "))
	}

	return &Issue{
		SegmentID:     segmentID,
		Check:         CheckNumbers,
		Severity:      "warning",
		Message:       "Number mismatch - " + strings.Join(parts, "; "),
		SourceExcerpt: excerpt(source),
		TargetExcerpt: excerpt(target),
	}
}

func numberSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, n := range numberPattern.FindAllString(text, -1) {
		set[n] = true
	}
	return set
}

// checkDoubleSpaces flags consecutive spaces in the target only;
// doubled spaces in the source are usually part of the source document.
func checkDoubleSpaces(segmentID, target string) *Issue {
	if target == "" {
		return nil
	}

	runes := []rune(target)
	pos := -1
	for i := 0; i+1 < len(runes); i++ {
		if runes[i] == ' ' && runes[i+1] == ' ' {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	contextStart := pos - 10
	if contextStart < 0 {
		contextStart = 0
	}
	contextEnd := pos + 15
	if contextEnd > len(runes) {
		contextEnd = len(runes)
	}

	return &Issue{
		SegmentID:     segmentID,
		Check:         CheckDoubleSpaces,
		Severity:      "warning",
		Message:       "Target contains double spaces",
		TargetExcerpt: "..." + string(runes[contextStart:contextEnd]) + "...",
	}
}

// checkWhitespace compares leading/trailing whitespace presence, which
// matters for UI strings where spacing affects layout.
func checkWhitespace(segmentID, source, target string) *Issue {
	if source == "" && target == "" {
		return nil
	}

	sourceLeading := source != strings.TrimLeft(source, " \t\n\r")
	sourceTrailing := source != strings.TrimRight(source, " \t\n\r")
	targetLeading := target != strings.TrimLeft(target, " \t\n\r")
	targetTrailing := target != strings.TrimRight(target, " \t\n\r")

	var problems []string
	if sourceLeading != targetLeading {
		if sourceLeading {
			problems = append(problems, "source has leading whitespace, target doesn't")
		} else {
			problems = append(problems, "target has leading whitespace, source doesn't")
		}
	}
	if sourceTrailing != targetTrailing {
		if sourceTrailing {
			problems = append(problems, "source has trailing whitespace, target doesn't")
		} else {
			problems = append(problems, "target has trailing whitespace, source doesn't")
		}
	}
	if len(problems) == 0 {
		return nil
	}

	return &Issue{
		SegmentID:     segmentID,
		Check:         CheckWhitespace,
		Severity:      "warning",
		Message:       "Whitespace mismatch: " + strings.Join(problems, "; "),
		SourceExcerpt: excerpt(source),
		TargetExcerpt: excerpt(target),
	}
}

// checkBrackets compares per-character bracket counts on both sides.
func checkBrackets(segmentID, source, target string) *Issue {
	if source == "" || target == "" {
		return nil
	}

	sourceCounts := countBrackets(source)
	targetCounts := countBrackets(target)

	seen := make(map[rune]bool)
	var brackets []rune
	for r := range sourceCounts {
		if !seen[r] {
			seen[r] = true
			brackets = append(brackets, r)
		}
	}
	for r := range targetCounts {
		if !seen[r] {
			seen[r] = true
			brackets = append(brackets, r)
		}
	}
	sort.Slice(brackets, func(i, j int) bool { return brackets[i] < brackets[j] })

	var mismatches []string
	for _, r := range brackets {
		if sourceCounts[r] != targetCounts[r] {
			mismatches = append(mismatches, fmt.Sprintf("%q: %d vs %d", r, sourceCounts[r], targetCounts[r]))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}

	return &Issue{
		SegmentID:     segmentID,
		Check:         CheckBrackets,
		Severity:      "warning",
		Message:       "Bracket count mismatch - " + strings.Join(mismatches, ", "),
		SourceExcerpt: excerpt(source),
		TargetExcerpt: excerpt(target),
	}
}

func countBrackets(text string) map[rune]int {
	counts := make(map[rune]int)
	for _, r := range text {
		if allBrackets[r] {
			counts[r]++
		}
	}
	return counts
}

// checkInconsistentRepetitions flags segments whose source text matches
// other segments but whose translation diverges from the most common
// one. May flag intentional variation; hence warning severity.
func checkInconsistentRepetitions(segments []sdlxliff.SegmentView) []Issue {
	bySource := make(map[string][]sdlxliff.SegmentView)
	var sources []string
	for _, seg := range segments {
		if seg.Source == "" {
			continue
		}
		if _, ok := bySource[seg.Source]; !ok {
			sources = append(sources, seg.Source)
		}
		bySource[seg.Source] = append(bySource[seg.Source], seg)
	}

	var issues []Issue
	for _, source := range sources {
		group := bySource[source]
		if len(group) < 2 {
			continue
		}

		byTarget := make(map[string][]string)
		var targets []string
		for _, seg := range group {
			if seg.Target == "" {
				continue
			}
			if _, ok := byTarget[seg.Target]; !ok {
				targets = append(targets, seg.Target)
			}
			byTarget[seg.Target] = append(byTarget[seg.Target], seg.SegmentID)
		}
		if len(targets) < 2 {
			continue
		}

		// Most common translation first; ties break on first occurrence.
		sort.SliceStable(targets, func(i, j int) bool {
			return len(byTarget[targets[i]]) > len(byTarget[targets[j]])
		})
		mostCommonIDs := byTarget[targets[0]]

		for _, target := range targets[1:] {
			for _, segID := range byTarget[target] {
				issues = append(issues, Issue{
					SegmentID: segID,
					Check:     CheckInconsistentRepetitions,
					Severity:  "warning",
					Message: fmt.Sprintf(
						"Repetition has different translation than %d other segment(s) with same source",
						len(mostCommonIDs)),
					SourceExcerpt: excerpt(source),
					TargetExcerpt: excerpt(target),
				})
			}
		}
	}
	return issues
}

const excerptLen = 50

// excerpt truncates text to a short head for issue display.
func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLen {
		return text
	}
	return string(runes[:excerptLen-3]) + "..."
}

// excerptTail truncates text to a short tail for issue display.
func excerptTail(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLen {
		return text
	}
	return "..." + string(runes[len(runes)-(excerptLen-3):])
}
