package renderer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nikogura/resumeforge/pkg/extract"
	"github.com/pkg/errors"
)

const sampleResume = "# Jane Doe\n## Summary\nBuilt scalable systems serving 1M+ users.\n\n### Acme Corp\n- Led the platform team\n- Cut costs by 30%\nPlain closing line"

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Block
	}{
		{line: "# Jane Doe", want: Block{Kind: Heading1, Text: "Jane Doe"}},
		{line: "## Summary", want: Block{Kind: Heading2, Text: "Summary"}},
		{line: "### Acme", want: Block{Kind: Heading3, Text: "Acme"}},
		{line: "- Led things", want: Block{Kind: Bullet, Text: "Led things"}},
		{line: "   ", want: Block{Kind: Blank}},
		{line: "", want: Block{Kind: Blank}},
		{line: "#NoSpace", want: Block{Kind: Paragraph, Text: "#NoSpace"}},
		{line: "-not a bullet", want: Block{Kind: Paragraph, Text: "-not a bullet"}},
		{line: "#### Deep", want: Block{Kind: Paragraph, Text: "#### Deep"}},
		{line: "Plain\r", want: Block{Kind: Paragraph, Text: "Plain"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := Classify(tt.line)
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	out, err := Render(FormatText, sampleResume)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "Jane Doe\nSUMMARY\nBuilt scalable systems serving 1M+ users.\n\nAcme Corp\n• Led the platform team\n• Cut costs by 30%\nPlain closing line"
	if string(out) != want {
		t.Errorf("Unexpected plain text:\n%s", out)
	}
}

func TestMarkdownIsVerbatim(t *testing.T) {
	out, err := Render(FormatMarkdown, sampleResume)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if string(out) != sampleResume {
		t.Error("Markdown export should be the raw text")
	}
}

func TestDOCXRoundTrip(t *testing.T) {
	out, err := Render(FormatDOCX, sampleResume)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	text, err := extract.Bytes("tailored-resume.docx", out)
	if err != nil {
		t.Fatalf("Extracting rendered DOCX failed: %v", err)
	}

	// Headings keep their text; bullets carry the glyph.
	for _, want := range []string{"Jane Doe", "Summary", "Acme Corp", "• Led the platform team", "Plain closing line"} {
		if !strings.Contains(text, want) {
			t.Errorf("DOCX text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "## ") || strings.Contains(text, "- Led") {
		t.Error("Markers should not survive into the DOCX")
	}
}

func TestDOCXStyling(t *testing.T) {
	document := wordDocument(Blocks("# Name\n## Section\n### Sub\nA & B <c>"))

	for _, want := range []string{
		`<w:b/><w:sz w:val="32"/></w:rPr><w:t xml:space="preserve">Name`,
		`<w:b/><w:sz w:val="28"/></w:rPr><w:t xml:space="preserve">Section`,
		`<w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Sub`,
		`A &amp; B &lt;c&gt;`,
	} {
		if !strings.Contains(document, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
}

func TestPDF(t *testing.T) {
	out, err := Render(FormatPDF, sampleResume)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("Output is not a PDF")
	}

	text, err := extract.Bytes("tailored-resume.pdf", out)
	if err != nil {
		t.Fatalf("Extracting rendered PDF failed: %v", err)
	}
	if !strings.Contains(text, "Jane Doe") {
		t.Errorf("PDF text missing name:\n%s", text)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	out, err := Render(Format("rtf"), "text")

	var exportErr *ExportFailedError
	if !errors.As(err, &exportErr) {
		t.Fatalf("Expected ExportFailedError, got %v", err)
	}
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat cause, got %v", exportErr.Cause)
	}
	if out != nil {
		t.Error("No bytes should be returned on failure")
	}
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats("pdf, DOCX,text,,markdown")
	if err != nil {
		t.Fatalf("ParseFormats failed: %v", err)
	}

	want := []Format{FormatPDF, FormatDOCX, FormatText, FormatMarkdown}
	if len(formats) != len(want) {
		t.Fatalf("Expected %v, got %v", want, formats)
	}
	for i := range want {
		if formats[i] != want[i] {
			t.Errorf("formats[%d] = %s, want %s", i, formats[i], want[i])
		}
	}

	_, err = ParseFormats("pdf,rtf")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestFilenamesAndContentTypes(t *testing.T) {
	if Filename(DocumentResume, FormatPDF) != "tailored-resume.pdf" {
		t.Error("Unexpected resume PDF filename")
	}
	if Filename(DocumentResume, FormatDOCX) != "tailored-resume.docx" {
		t.Error("Unexpected resume DOCX filename")
	}
	if Filename(DocumentCoverLetter, FormatText) != "cover-letter.txt" {
		t.Error("Unexpected cover letter filename")
	}

	if ContentType(FormatPDF) != "application/pdf" {
		t.Error("Unexpected PDF content type")
	}
	if !strings.HasPrefix(ContentType(FormatText), "text/plain") {
		t.Error("Unexpected text content type")
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := WriteFile(dir, FormatText, DocumentResume, sampleResume)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if path != filepath.Join(dir, "tailored-resume.txt") {
		t.Errorf("Unexpected path %s", path)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the final file, found %d entries", len(entries))
	}
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteFile(dir, Format("rtf"), DocumentResume, sampleResume)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no files after a failed export, found %d", len(entries))
	}
}

func TestRenderAll(t *testing.T) {
	outputs, err := RenderAll(context.Background(), Formats(), sampleResume)
	if err != nil {
		t.Fatalf("RenderAll failed: %v", err)
	}
	if len(outputs) != len(Formats()) {
		t.Errorf("Expected %d outputs, got %d", len(Formats()), len(outputs))
	}

	outputs, err = RenderAll(context.Background(), []Format{FormatText, Format("rtf")}, sampleResume)
	if err == nil {
		t.Fatal("Expected error when one format fails")
	}
	if outputs != nil {
		t.Error("No outputs should be returned when any format fails")
	}
}

type recordingClipboard struct {
	text string
	err  error
}

func (c *recordingClipboard) WriteAll(text string) error {
	c.text = text
	return c.err
}

type recordingOpener struct {
	urls []string
}

func (o *recordingOpener) OpenURL(url string) error {
	o.urls = append(o.urls, url)
	return nil
}

func TestCopyToEditor(t *testing.T) {
	cb := &recordingClipboard{}
	opener := &recordingOpener{}

	err := CopyToEditor(cb, opener, "resume text")
	if err != nil {
		t.Fatalf("CopyToEditor failed: %v", err)
	}
	if cb.text != "resume text" {
		t.Errorf("Expected clipboard text, got %q", cb.text)
	}
	if len(opener.urls) != 1 || opener.urls[0] != EditorURL {
		t.Errorf("Expected %s to open, got %v", EditorURL, opener.urls)
	}

	// The editor is not opened when the copy fails.
	failing := &recordingClipboard{err: errors.New("no clipboard")}
	opener = &recordingOpener{}
	err = CopyToEditor(failing, opener, "x")
	if err == nil {
		t.Error("Expected error, got nil")
	}
	if len(opener.urls) != 0 {
		t.Error("Editor should not open after a failed copy")
	}
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()

	paths, err := WriteAll(context.Background(), dir, []Format{FormatDOCX, FormatText}, DocumentCoverLetter, "Dear team,\n\nRegards")
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	want := []string{filepath.Join(dir, "cover-letter.docx"), filepath.Join(dir, "cover-letter.txt")}
	if len(paths) != len(want) {
		t.Fatalf("Expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}

	// A bad format anywhere in the list means nothing is written.
	empty := t.TempDir()
	_, err = WriteAll(context.Background(), empty, []Format{FormatText, Format("rtf")}, DocumentResume, "x")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	entries, _ := os.ReadDir(empty)
	if len(entries) != 0 {
		t.Errorf("Expected no files, found %d", len(entries))
	}
}

func TestWriteRenderedRollsBack(t *testing.T) {
	dir := t.TempDir()

	// A directory squatting on the text file's name makes that write fail.
	blocker := filepath.Join(dir, Filename(DocumentResume, FormatText))
	err := os.MkdirAll(filepath.Join(blocker, "keep"), 0750)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	outputs := map[Format][]byte{
		FormatMarkdown: []byte(sampleResume),
		FormatText:     []byte("Jane Doe"),
	}
	paths, err := WriteRendered(dir, DocumentResume, []Format{FormatMarkdown, FormatText}, outputs)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var exportErr *ExportFailedError
	if !errors.As(err, &exportErr) || exportErr.Format != FormatText {
		t.Errorf("Expected text export failure, got %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("Expected no paths, got %v", paths)
	}

	_, err = os.Stat(filepath.Join(dir, Filename(DocumentResume, FormatMarkdown)))
	if !os.IsNotExist(err) {
		t.Error("Markdown written before the failure should be removed")
	}
}
