package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/nikogura/resumeforge/pkg/scorer"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedResponse is returned when a reply carries no usable tailoring JSON.
var ErrMalformedResponse = errors.New("malformed AI response")

// tailoringSchema requires only the fields the workflow depends on.
const tailoringSchema = `{
  "type": "object",
  "required": ["matchScore", "suggestions"],
  "properties": {
    "matchScore": {"type": "number"},
    "matchLevel": {"type": "string"},
    "overallFeedback": {"type": "string"},
    "keywordsMatched": {"type": "array", "items": {"type": "string"}},
    "keywordsMissing": {"type": "array", "items": {"type": "string"}},
    "suggestions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["original", "suggested"],
        "properties": {
          "id": {"type": ["string", "number"]},
          "type": {"type": "string"},
          "original": {"type": "string"},
          "suggested": {"type": "string"},
          "explanation": {"type": "string"},
          "keywords": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

// wireResult mirrors the reply before normalization. Ids may arrive as numbers.
type wireResult struct {
	MatchScore      float64          `json:"matchScore"`
	MatchLevel      string           `json:"matchLevel"`
	OverallFeedback string           `json:"overallFeedback"`
	KeywordsMatched []string         `json:"keywordsMatched"`
	KeywordsMissing []string         `json:"keywordsMissing"`
	Suggestions     []wireSuggestion `json:"suggestions"`
}

type wireSuggestion struct {
	ID          any      `json:"id"`
	Type        string   `json:"type"`
	Original    string   `json:"original"`
	Suggested   string   `json:"suggested"`
	Explanation string   `json:"explanation"`
	Keywords    []string `json:"keywords"`
}

// FindJSONObject returns the first balanced {...} span in text that is valid JSON,
// or failing that the first balanced span at all. Braces inside JSON strings are ignored.
func FindJSONObject(text string) (span string, ok bool) {
	var fallback string

	start := strings.IndexByte(text, '{')
	for start >= 0 {
		end := balancedEnd(text, start)
		if end > 0 {
			candidate := text[start:end]
			if json.Valid([]byte(candidate)) {
				span = candidate
				ok = true
				return span, ok
			}
			if fallback == "" {
				fallback = candidate
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	if fallback != "" {
		span = fallback
		ok = true
	}
	return span, ok
}

// balancedEnd returns the index just past the brace closing text[start], or -1.
func balancedEnd(text string, start int) (end int) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i + 1
				return end
			}
		}
	}

	end = -1
	return end
}

// ParseTailoringResult extracts, validates and normalizes a tailoring reply.
func ParseTailoringResult(text string) (result TailoringResult, err error) {
	span, ok := FindJSONObject(text)
	if !ok {
		err = errors.Wrap(ErrMalformedResponse, "no JSON found in response")
		return result, err
	}

	var validation *gojsonschema.Result
	validation, err = gojsonschema.Validate(
		gojsonschema.NewStringLoader(tailoringSchema),
		gojsonschema.NewStringLoader(span),
	)
	if err != nil {
		err = errors.Wrapf(ErrMalformedResponse, "invalid JSON: %s", err)
		return result, err
	}

	if !validation.Valid() {
		problems := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		err = errors.Wrapf(ErrMalformedResponse, "schema violations: %s", strings.Join(problems, "; "))
		return result, err
	}

	var wire wireResult
	err = json.Unmarshal([]byte(span), &wire)
	if err != nil {
		err = errors.Wrapf(ErrMalformedResponse, "failed to decode: %s", err)
		return result, err
	}

	result = normalize(wire)
	return result, err
}

func normalize(wire wireResult) (result TailoringResult) {
	// Clamp before converting; huge floats overflow int.
	score := scorer.ClampScore(int(math.Round(math.Max(scorer.MinScore, math.Min(scorer.MaxScore, wire.MatchScore)))))

	level, ok := scorer.ParseLevel(wire.MatchLevel)
	if !ok {
		level = scorer.LevelForScore(score)
	}

	result = TailoringResult{
		MatchScore:      score,
		MatchLevel:      level,
		OverallFeedback: wire.OverallFeedback,
		KeywordsMatched: nonNil(wire.KeywordsMatched),
		KeywordsMissing: nonNil(wire.KeywordsMissing),
		Suggestions:     make([]Suggestion, 0, len(wire.Suggestions)),
	}

	seen := make(map[string]bool, len(wire.Suggestions))
	for _, ws := range wire.Suggestions {
		id := suggestionID(ws.ID)
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true

		result.Suggestions = append(result.Suggestions, Suggestion{
			ID:          id,
			Type:        ParseSuggestionType(ws.Type),
			Original:    ws.Original,
			Suggested:   ws.Suggested,
			Explanation: ws.Explanation,
			Keywords:    nonNil(ws.Keywords),
			Acceptance:  Undecided,
		})
	}

	return result
}

// ParseSuggestionType maps a reply's category onto the known set, ignoring case.
// Anything else, including an empty value, is treated as experience.
func ParseSuggestionType(raw string) (t SuggestionType) {
	t = SuggestionType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case SuggestionSummary, SuggestionExperience, SuggestionSkills, SuggestionEducation:
	default:
		t = SuggestionExperience
	}
	return t
}

func suggestionID(raw any) (id string) {
	switch v := raw.(type) {
	case string:
		id = strings.TrimSpace(v)
	case float64:
		id = fmt.Sprintf("%g", v)
	}
	return id
}

func nonNil(in []string) (out []string) {
	out = in
	if out == nil {
		out = []string{}
	}
	return out
}
