package scorer

import (
	"regexp"
	"strings"
)

// ParseLevel accepts one of the four level names, ignoring case and surrounding space.
func ParseLevel(raw string) (level MatchLevel, ok bool) {
	candidate := MatchLevel(strings.ToLower(strings.TrimSpace(raw)))
	for _, th := range LevelThresholds {
		if th.Level == candidate {
			level = candidate
			ok = true
			return level, ok
		}
	}
	return level, ok
}

// ClampScore pins score into MinScore..MaxScore.
func ClampScore(score int) (clamped int) {
	clamped = score
	if clamped < MinScore {
		clamped = MinScore
	}
	if clamped > MaxScore {
		clamped = MaxScore
	}
	return clamped
}

// LevelForScore derives a level from a score.
func LevelForScore(score int) (level MatchLevel) {
	score = ClampScore(score)
	for _, th := range LevelThresholds {
		if score >= th.Min {
			level = th.Level
			return level
		}
	}
	level = LevelPoor
	return level
}

// Coverage reports which job keywords appear in a piece of text.
type Coverage struct {
	Present []string `json:"present"`
	Absent  []string `json:"absent"`
	Percent int      `json:"percent"`
}

// Scorer computes live keyword coverage for the text being edited.
type Scorer struct {
	cache map[string]*regexp.Regexp
}

// NewScorer creates a new scorer instance.
func NewScorer() (scorer *Scorer) {
	scorer = &Scorer{
		cache: make(map[string]*regexp.Regexp),
	}
	return scorer
}

// KeywordCoverage checks every keyword against text. Keywords match case-insensitively
// on word boundaries and are reported once each, in input order.
func (s *Scorer) KeywordCoverage(text string, keywords ...[]string) (coverage Coverage) {
	coverage = Coverage{
		Present: []string{},
		Absent:  []string{},
	}

	seen := make(map[string]bool)
	for _, list := range keywords {
		for _, kw := range list {
			kw = strings.TrimSpace(kw)
			key := strings.ToLower(kw)
			if kw == "" || seen[key] {
				continue
			}
			seen[key] = true

			if s.matcher(key).MatchString(text) {
				coverage.Present = append(coverage.Present, kw)
			} else {
				coverage.Absent = append(coverage.Absent, kw)
			}
		}
	}

	total := len(coverage.Present) + len(coverage.Absent)
	if total > 0 {
		coverage.Percent = len(coverage.Present) * MaxScore / total
	}

	return coverage
}

func (s *Scorer) matcher(key string) (re *regexp.Regexp) {
	re, ok := s.cache[key]
	if ok {
		return re
	}
	re = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(key) + `($|[^\p{L}\p{N}])`)
	s.cache[key] = re
	return re
}
