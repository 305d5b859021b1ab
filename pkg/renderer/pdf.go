package renderer

import (
	"bytes"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	pdfFont       = "Times"
	pdfLineHeight = 5.5
	bulletIndent  = 6.0
	bulletGlyph   = "•"
)

// renderPDF lays out blocks on A4 pages with the built-in Times family.
func renderPDF(text string) (out []byte, err error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	// Core fonts are cp1252; anything outside it becomes a placeholder.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	upper := cases.Upper(language.Und)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentWidth := pageWidth - left - right

	for _, block := range Blocks(text) {
		switch block.Kind {
		case Heading1:
			pdf.SetFont(pdfFont, "B", 18)
			pdf.MultiCell(contentWidth, 8, tr(block.Text), "", "L", false)
			pdf.Ln(1)
		case Heading2:
			pdf.Ln(3)
			pdf.SetFont(pdfFont, "B", 12)
			pdf.MultiCell(contentWidth, 6, tr(upper.String(block.Text)), "", "L", false)
			y := pdf.GetY() + 0.5
			pdf.SetDrawColor(51, 51, 51)
			pdf.SetLineWidth(0.3)
			pdf.Line(left, y, pageWidth-right, y)
			pdf.Ln(2)
		case Heading3:
			pdf.SetFont(pdfFont, "B", 11)
			pdf.MultiCell(contentWidth, pdfLineHeight, tr(block.Text), "", "L", false)
		case Bullet:
			pdf.SetFont(pdfFont, "", 11)
			pdf.SetX(left + bulletIndent)
			pdf.MultiCell(contentWidth-bulletIndent, pdfLineHeight, tr(bulletGlyph+" "+block.Text), "", "L", false)
		case Blank:
			pdf.Ln(pdfLineHeight)
		default:
			pdf.SetFont(pdfFont, "", 11)
			pdf.MultiCell(contentWidth, pdfLineHeight, tr(block.Text), "", "L", false)
		}
	}

	if pdf.Err() {
		err = errors.Wrap(pdf.Error(), "failed to lay out PDF")
		return out, err
	}

	var buf bytes.Buffer
	err = pdf.Output(&buf)
	if err != nil {
		err = errors.Wrap(err, "failed to write PDF")
		return out, err
	}

	out = buf.Bytes()
	return out, err
}
