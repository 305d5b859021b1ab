package llm

import (
	"strings"
	"testing"

	"github.com/nikogura/resumeforge/pkg/scorer"
	"github.com/pkg/errors"
)

func TestBuildTailorPrompt(t *testing.T) {
	prompt := buildTailorPrompt("We need {braces} handled", "Jane Doe\n- Go")

	expected := []string{
		"JOB DESCRIPTION:\nWe need {braces} handled",
		"CURRENT RESUME:\nJane Doe\n- Go",
		`"matchScore": <number 0-100>`,
		"<summary|experience|skills|education>",
		"Provide 4-8 specific, actionable suggestions",
		"6. Include at least one suggestion for each section present in the resume",
	}

	for _, want := range expected {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestFindJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{name: "bare", text: `{"a":1}`, want: `{"a":1}`, wantOK: true},
		{name: "prose around", text: "Sure! {\"a\":1} Hope that helps.", want: `{"a":1}`, wantOK: true},
		{name: "code fence", text: "```json\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`, wantOK: true},
		{name: "brace in string", text: `x {"a":"}{"} y`, want: `{"a":"}{"}`, wantOK: true},
		{name: "escaped quote", text: `{"a":"say \"}\" now"} tail}`, want: `{"a":"say \"}\" now"}`, wantOK: true},
		{name: "prose braces before json", text: `Use {placeholders} like this: {"a":1}`, want: `{"a":1}`, wantOK: true},
		{name: "no json", text: "nothing here", wantOK: false},
		{name: "unbalanced", text: `{"a":1`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindJSONObject(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("FindJSONObject ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FindJSONObject = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTailoringResultNormalizes(t *testing.T) {
	reply := `{
  "matchScore": 140.4,
  "matchLevel": "stellar",
  "suggestions": [
    {"id": "dup", "original": "a", "suggested": "b"},
    {"id": "dup", "type": "Skills", "original": "c", "suggested": "d"},
    {"original": "e", "suggested": "f"},
    {"id": 7, "original": "g", "suggested": "h"}
  ]
}`

	result, err := ParseTailoringResult(reply)
	if err != nil {
		t.Fatalf("ParseTailoringResult failed: %v", err)
	}

	if result.MatchScore != 100 {
		t.Errorf("Expected clamped score 100, got %d", result.MatchScore)
	}
	if result.MatchLevel != scorer.LevelExcellent {
		t.Errorf("Expected derived level excellent, got %s", result.MatchLevel)
	}
	if result.KeywordsMatched == nil || result.KeywordsMissing == nil {
		t.Error("Keyword lists should never be nil")
	}

	ids := make(map[string]bool)
	for _, s := range result.Suggestions {
		if s.ID == "" {
			t.Error("Every suggestion should have an id")
		}
		if ids[s.ID] {
			t.Errorf("Duplicate id %q", s.ID)
		}
		ids[s.ID] = true
	}

	if result.Suggestions[0].ID != "dup" {
		t.Errorf("First occurrence should keep its id, got %q", result.Suggestions[0].ID)
	}
	if result.Suggestions[1].Type != SuggestionSkills {
		t.Errorf("Expected normalized type skills, got %q", result.Suggestions[1].Type)
	}
	if result.Suggestions[3].ID != "7" {
		t.Errorf("Expected numeric id rendered as \"7\", got %q", result.Suggestions[3].ID)
	}
}

func TestParseTailoringResultOutOfRangeScores(t *testing.T) {
	tests := []struct {
		name      string
		score     string
		wantScore int
		wantLevel scorer.MatchLevel
	}{
		{name: "huge", score: "1e300", wantScore: 100, wantLevel: scorer.LevelExcellent},
		{name: "huge negative", score: "-1e300", wantScore: 0, wantLevel: scorer.LevelPoor},
		{name: "just over", score: "100.4", wantScore: 100, wantLevel: scorer.LevelExcellent},
		{name: "fraction", score: "64.5", wantScore: 65, wantLevel: scorer.LevelForScore(65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseTailoringResult(`{"matchScore": ` + tt.score + `, "suggestions": []}`)
			if err != nil {
				t.Fatalf("ParseTailoringResult failed: %v", err)
			}
			if result.MatchScore != tt.wantScore {
				t.Errorf("Expected score %d, got %d", tt.wantScore, result.MatchScore)
			}
			if result.MatchLevel != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, result.MatchLevel)
			}
		})
	}
}

func TestParseSuggestionType(t *testing.T) {
	tests := []struct {
		raw  string
		want SuggestionType
	}{
		{raw: "summary", want: SuggestionSummary},
		{raw: " Skills ", want: SuggestionSkills},
		{raw: "EDUCATION", want: SuggestionEducation},
		{raw: "experience", want: SuggestionExperience},
		{raw: "banana", want: SuggestionExperience},
		{raw: "", want: SuggestionExperience},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseSuggestionType(tt.raw); got != tt.want {
				t.Errorf("ParseSuggestionType(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}

	result, err := ParseTailoringResult(`{"matchScore": 50, "suggestions": [{"type": "banana", "original": "a", "suggested": "b"}]}`)
	if err != nil {
		t.Fatalf("ParseTailoringResult failed: %v", err)
	}
	if result.Suggestions[0].Type != SuggestionExperience {
		t.Errorf("Unknown category should fall back to experience, got %q", result.Suggestions[0].Type)
	}
}

func TestParseTailoringResultDerivesMissingLevel(t *testing.T) {
	result, err := ParseTailoringResult(`{"matchScore": 45, "suggestions": []}`)
	if err != nil {
		t.Fatalf("ParseTailoringResult failed: %v", err)
	}
	if result.MatchLevel != scorer.LevelFair {
		t.Errorf("Expected fair, got %s", result.MatchLevel)
	}
}

func TestParseTailoringResultMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "no json", text: "I could not analyze this."},
		{name: "missing suggestions", text: `{"matchScore": 50}`},
		{name: "wrong score type", text: `{"matchScore": "high", "suggestions": []}`},
		{name: "suggestion without original", text: `{"matchScore": 50, "suggestions": [{"suggested": "x"}]}`},
		{name: "invalid json", text: `{"matchScore": 50, "suggestions": [,]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTailoringResult(tt.text)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("Expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}
