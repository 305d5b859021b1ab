package llm

import (
	"github.com/nikogura/resumeforge/pkg/scorer"
)

// SuggestionType tags which résumé section a suggestion targets.
type SuggestionType string

// Suggestion categories.
const (
	SuggestionSummary    SuggestionType = "summary"
	SuggestionExperience SuggestionType = "experience"
	SuggestionSkills     SuggestionType = "skills"
	SuggestionEducation  SuggestionType = "education"
)

// Acceptance is the user's decision on a suggestion.
type Acceptance int

// Acceptance states. The zero value is Undecided.
const (
	Undecided Acceptance = iota
	Accepted
	Rejected
)

func (a Acceptance) String() (s string) {
	switch a {
	case Accepted:
		s = "accepted"
	case Rejected:
		s = "rejected"
	default:
		s = "undecided"
	}
	return s
}

// Suggestion is one proposed original -> replacement edit.
type Suggestion struct {
	ID          string         `json:"id"`
	Type        SuggestionType `json:"type"`
	Original    string         `json:"original"`
	Suggested   string         `json:"suggested"`
	Explanation string         `json:"explanation"`
	Keywords    []string       `json:"keywords"`
	Acceptance  Acceptance     `json:"-"`
}

// TailoringResult is the structured reply for one tailoring call.
type TailoringResult struct {
	MatchScore      int               `json:"matchScore"`
	MatchLevel      scorer.MatchLevel `json:"matchLevel"`
	OverallFeedback string            `json:"overallFeedback"`
	KeywordsMatched []string          `json:"keywordsMatched"`
	KeywordsMissing []string          `json:"keywordsMissing"`
	Suggestions     []Suggestion      `json:"suggestions"`
}

// Clone returns a deep copy so callers can mutate suggestions freely.
func (r TailoringResult) Clone() (c TailoringResult) {
	c = r
	c.KeywordsMatched = append([]string(nil), r.KeywordsMatched...)
	c.KeywordsMissing = append([]string(nil), r.KeywordsMissing...)
	c.Suggestions = make([]Suggestion, len(r.Suggestions))
	for i, s := range r.Suggestions {
		s.Keywords = append([]string(nil), s.Keywords...)
		c.Suggestions[i] = s
	}
	return c
}
