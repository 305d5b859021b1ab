package renderer

import (
	"strings"
)

// BlockKind is the style a résumé line renders with.
type BlockKind int

// Line styles. Every output format maps these the same way.
const (
	Paragraph BlockKind = iota
	Heading1
	Heading2
	Heading3
	Bullet
	Blank
)

func (k BlockKind) String() (s string) {
	switch k {
	case Heading1:
		s = "h1"
	case Heading2:
		s = "h2"
	case Heading3:
		s = "h3"
	case Bullet:
		s = "bullet"
	case Blank:
		s = "blank"
	default:
		s = "paragraph"
	}
	return s
}

// Block is one classified line with its marker removed.
type Block struct {
	Kind BlockKind
	Text string
}

// Classify styles a single line by its leading marker.
func Classify(line string) (block Block) {
	line = strings.TrimRight(line, "\r")

	switch {
	case strings.TrimSpace(line) == "":
		block = Block{Kind: Blank}
	case strings.HasPrefix(line, "### "):
		block = Block{Kind: Heading3, Text: line[4:]}
	case strings.HasPrefix(line, "## "):
		block = Block{Kind: Heading2, Text: line[3:]}
	case strings.HasPrefix(line, "# "):
		block = Block{Kind: Heading1, Text: line[2:]}
	case strings.HasPrefix(line, "- "):
		block = Block{Kind: Bullet, Text: line[2:]}
	default:
		block = Block{Kind: Paragraph, Text: line}
	}

	return block
}

// Blocks classifies every line of text.
func Blocks(text string) (blocks []Block) {
	lines := strings.Split(text, "\n")
	blocks = make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, Classify(line))
	}
	return blocks
}
