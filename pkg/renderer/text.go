package renderer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// renderPlainText drops heading markers, uppercases section headings and
// swaps bullet markers for a bullet glyph.
func renderPlainText(text string) (out []byte) {
	upper := cases.Upper(language.Und)

	blocks := Blocks(text)
	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		switch block.Kind {
		case Heading2:
			lines = append(lines, upper.String(block.Text))
		case Bullet:
			lines = append(lines, bulletGlyph+" "+block.Text)
		case Blank:
			lines = append(lines, "")
		default:
			lines = append(lines, block.Text)
		}
	}

	out = []byte(strings.Join(lines, "\n"))
	return out
}
