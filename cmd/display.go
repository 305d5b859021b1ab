package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/nikogura/resumeforge/pkg/scorer"
	"github.com/nikogura/resumeforge/pkg/store"
	"github.com/nikogura/resumeforge/pkg/workflow"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const historyTimeFormat = "15:04:05"

func titleCase(s string) (titled string) {
	titleCaser := cases.Title(language.English)
	titled = titleCaser.String(s)
	return titled
}

func printResult(w io.Writer, result llm.TailoringResult) {
	_, _ = fmt.Fprintf(w, "\nMatch score: %d/100 (%s match)\n", result.MatchScore, titleCase(string(result.MatchLevel)))
	if result.OverallFeedback != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", result.OverallFeedback)
	}
	if len(result.KeywordsMatched) > 0 {
		_, _ = fmt.Fprintf(w, "\nKeywords matched: %s\n", strings.Join(result.KeywordsMatched, ", "))
	}
	if len(result.KeywordsMissing) > 0 {
		_, _ = fmt.Fprintf(w, "Keywords missing: %s\n", strings.Join(result.KeywordsMissing, ", "))
	}
	_, _ = fmt.Fprintln(w)
	printSuggestionList(w, result.Suggestions)
}

func printSuggestionList(w io.Writer, suggestions []llm.Suggestion) {
	if len(suggestions) == 0 {
		_, _ = fmt.Fprintln(w, "No suggestions.")
		return
	}

	for i, s := range suggestions {
		_, _ = fmt.Fprintf(w, "%2d. [%s] %s: %s\n", i+1, acceptanceMark(s.Acceptance), titleCase(string(s.Type)), oneLine(s.Suggested, 70))
	}
}

func printSuggestion(w io.Writer, index int, s llm.Suggestion) {
	_, _ = fmt.Fprintf(w, "#%d %s (%s, id %s)\n", index, titleCase(string(s.Type)), s.Acceptance, s.ID)
	_, _ = fmt.Fprintf(w, "  - %s\n", s.Original)
	_, _ = fmt.Fprintf(w, "  + %s\n", s.Suggested)
	if s.Explanation != "" {
		_, _ = fmt.Fprintf(w, "  Why: %s\n", s.Explanation)
	}
	if len(s.Keywords) > 0 {
		_, _ = fmt.Fprintf(w, "  Keywords: %s\n", strings.Join(s.Keywords, ", "))
	}
}

func acceptanceMark(a llm.Acceptance) (mark string) {
	switch a {
	case llm.Accepted:
		mark = "x"
	case llm.Rejected:
		mark = "-"
	default:
		mark = " "
	}
	return mark
}

// oneLine collapses whitespace and truncates to limit runes.
func oneLine(text string, limit int) (line string) {
	line = strings.Join(strings.Fields(text), " ")
	runes := []rune(line)
	if len(runes) > limit {
		line = string(runes[:limit-1]) + "…"
	}
	return line
}

func printDiff(w io.Writer, lines []workflow.DiffLine) {
	changed := false
	for _, line := range lines {
		if line.Op != workflow.DiffEqual {
			changed = true
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", line.Op, line.Text)
	}
	if !changed {
		_, _ = fmt.Fprintln(w, "(no changes)")
	}
}

func printHistory(w io.Writer, entries []workflow.HistoryEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No history yet.")
		return
	}
	for i, entry := range entries {
		_, _ = fmt.Fprintf(w, "%2d. %s  %s\n", i+1, entry.Timestamp.Format(historyTimeFormat), entry.Label)
	}
}

func printCoverage(w io.Writer, coverage scorer.Coverage) {
	_, _ = fmt.Fprintf(w, "Keyword coverage: %d%%\n", coverage.Percent)
	if len(coverage.Present) > 0 {
		_, _ = fmt.Fprintf(w, "  Present: %s\n", strings.Join(coverage.Present, ", "))
	}
	if len(coverage.Absent) > 0 {
		_, _ = fmt.Fprintf(w, "  Absent:  %s\n", strings.Join(coverage.Absent, ", "))
	}
}

func printRecentJobs(w io.Writer, jobs []store.JobHistoryEntry) {
	if len(jobs) == 0 {
		_, _ = fmt.Fprintln(w, "No recent jobs.")
		return
	}
	for _, job := range jobs {
		_, _ = fmt.Fprintf(w, "%s  %s\n", job.ID, job.Snippet)
		if job.URL != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", job.URL)
		}
	}
}

func printPresets(w io.Writer, presets []store.ProfilePreset) {
	if len(presets) == 0 {
		_, _ = fmt.Fprintln(w, "No saved presets.")
		return
	}
	for _, preset := range presets {
		_, _ = fmt.Fprintf(w, "%s  %s\n", preset.ID, preset.Name)
	}
}
