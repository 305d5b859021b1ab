package workflow

import (
	"strings"

	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/pmezard/go-difflib/difflib"
)

// TextSource says where the current résumé text comes from: derived from the
// accepted suggestions, or a custom override text.
type TextSource struct {
	custom bool
	text   string
}

// Derived is the source that recomputes text from accepted suggestions.
func Derived() (src TextSource) {
	return src
}

// Custom is an override source holding text verbatim.
func Custom(text string) (src TextSource) {
	src = TextSource{custom: true, text: text}
	return src
}

// IsCustom reports whether an override is active.
func (s TextSource) IsCustom() (ok bool) {
	ok = s.custom
	return ok
}

// Text returns the override text. It is empty for Derived.
func (s TextSource) Text() (text string) {
	text = s.text
	return text
}

// ApplyAccepted replaces the first occurrence of each accepted suggestion's original
// with its suggested text, in list order. Empty or absent originals are skipped.
func ApplyAccepted(base string, suggestions []llm.Suggestion) (text string) {
	text = base
	for _, s := range suggestions {
		if s.Acceptance != llm.Accepted {
			continue
		}
		text, _ = replaceFirst(text, s.Original, s.Suggested)
	}
	return text
}

func replaceFirst(text, original, suggested string) (out string, applied bool) {
	out = text
	if original == "" || !strings.Contains(text, original) {
		return out, applied
	}
	out = strings.Replace(text, original, suggested, 1)
	applied = true
	return out, applied
}

// DiffOp classifies a line in a diff.
type DiffOp int

// Diff line operations.
const (
	DiffEqual DiffOp = iota
	DiffInsert
	DiffDelete
)

func (op DiffOp) String() (s string) {
	switch op {
	case DiffInsert:
		s = "+"
	case DiffDelete:
		s = "-"
	default:
		s = " "
	}
	return s
}

// DiffLine is one line of a line-level diff.
type DiffLine struct {
	Op   DiffOp
	Text string
}

// DiffLines partitions the lines of before and after into equal, deleted and inserted runs.
// Joining Equal+Delete lines with "\n" gives before; Equal+Insert gives after.
func DiffLines(before, after string) (lines []DiffLine) {
	a := splitLines(before)
	b := splitLines(after)

	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			lines = appendLines(lines, DiffEqual, a[op.I1:op.I2])
		case 'd':
			lines = appendLines(lines, DiffDelete, a[op.I1:op.I2])
		case 'i':
			lines = appendLines(lines, DiffInsert, b[op.J1:op.J2])
		case 'r':
			lines = appendLines(lines, DiffDelete, a[op.I1:op.I2])
			lines = appendLines(lines, DiffInsert, b[op.J1:op.J2])
		}
	}

	return lines
}

func appendLines(lines []DiffLine, op DiffOp, texts []string) (out []DiffLine) {
	out = lines
	for _, t := range texts {
		out = append(out, DiffLine{Op: op, Text: t})
	}
	return out
}

func splitLines(text string) (lines []string) {
	if text == "" {
		return lines
	}
	lines = strings.Split(text, "\n")
	return lines
}
