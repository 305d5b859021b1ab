package cmd

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nikogura/resumeforge/pkg/config"
	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/nikogura/resumeforge/pkg/renderer"
	"github.com/nikogura/resumeforge/pkg/workflow"
	"github.com/pkg/errors"
)

const testResume = "# Jane Doe\n## Summary\nBuilt things.\n## Skills\n- Go"

type stubTailorer struct {
	result llm.TailoringResult
	letter string
	// failAfter makes every Tailor call after the first n fail.
	failAfter int
	calls     int
}

func (s *stubTailorer) Tailor(_ context.Context, _, _ string) (llm.TailoringResult, error) {
	s.calls++
	if s.failAfter > 0 && s.calls > s.failAfter {
		return llm.TailoringResult{}, errors.Wrap(llm.ErrMalformedResponse, "no JSON found in response")
	}
	return s.result.Clone(), nil
}

func (s *stubTailorer) CoverLetter(_ context.Context, _, _ string) (string, error) {
	return s.letter, nil
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

type fakeOpener struct {
	urls []string
}

func (o *fakeOpener) OpenURL(url string) error {
	o.urls = append(o.urls, url)
	return nil
}

func passthrough(_ string, fn func() error) error {
	return fn()
}

// newTestREPL returns a REPL over a session that already has results.
func newTestREPL(t *testing.T, input string) (*repl, *bytes.Buffer, string) {
	t.Helper()
	return newTestREPLWith(t, input, 0)
}

func newTestREPLWith(t *testing.T, input string, failAfter int) (*repl, *bytes.Buffer, string) {
	t.Helper()

	tailorer := &stubTailorer{
		failAfter: failAfter,
		result: llm.TailoringResult{
			MatchScore:      72,
			MatchLevel:      "good",
			KeywordsMatched: []string{"Go"},
			KeywordsMissing: []string{"Kubernetes"},
			Suggestions: []llm.Suggestion{
				{ID: "s1", Type: llm.SuggestionSummary, Original: "Built things.", Suggested: "Built scalable systems."},
				{ID: "s2", Type: llm.SuggestionSkills, Original: "- Go", Suggested: "- Go, Kubernetes"},
			},
		},
		letter: "Dear team,\n\nRegards",
	}

	ctx := context.Background()
	session := workflow.NewSession(tailorer)
	if err := session.SetJob(ctx, "Platform engineer, Go and Kubernetes"); err != nil {
		t.Fatalf("SetJob failed: %v", err)
	}
	if err := session.SetResume(ctx, testResume); err != nil {
		t.Fatalf("SetResume failed: %v", err)
	}

	_, err := submit(ctx, session, passthrough)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	outDir := t.TempDir()
	out := &bytes.Buffer{}
	exp := &exporter{outDir: outDir, engine: engineBuiltin, formats: []renderer.Format{renderer.FormatText}}

	r := newREPL(ctx, session, bufio.NewScanner(strings.NewReader(input)), out, exp)
	r.busy = passthrough
	r.clipboard = &fakeClipboard{}
	r.opener = &fakeOpener{}

	return r, out, outDir
}

func TestREPLSession(t *testing.T) {
	script := strings.Join([]string{
		"accept 1",
		"text",
		"reject s2",
		"show 2",
		"undo",
		"history",
		"edit 2",
		"- Go, Kubernetes, Terraform",
		".",
		"accept 2",
		"text",
		"restore 1",
		"diff",
		"keywords",
		"cover",
		"export",
		"export md cover",
		"copy cover",
		"nonsense",
		"quit",
		"list",
	}, "\n")

	r, out, outDir := newTestREPL(t, script)

	err := r.run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Accepted suggestion 1.",
		"Built scalable systems.",
		"Rejected suggestion 2.",
		"  + - Go, Kubernetes",
		"Undone.",
		"Original resume",
		"Updated suggestion 2.",
		"- Go, Kubernetes, Terraform",
		`Restored "Original resume".`,
		"(no changes)",
		"Keyword coverage:",
		"Dear team,",
		"Error: unknown command \"nonsense\"",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q:\n%s", want, output)
		}
	}

	// The trailing list after quit never runs.
	if strings.Contains(output, "[x]") {
		t.Error("Commands after quit should not run")
	}

	for _, name := range []string{"tailored-resume.txt", "cover-letter.md"} {
		_, statErr := os.Stat(filepath.Join(outDir, name))
		if statErr != nil {
			t.Errorf("Expected %s to be exported: %v", name, statErr)
		}
	}

	cb := r.clipboard.(*fakeClipboard)
	if cb.text != "Dear team,\n\nRegards" {
		t.Errorf("Expected cover letter on the clipboard, got %q", cb.text)
	}
	opener := r.opener.(*fakeOpener)
	if len(opener.urls) != 1 || opener.urls[0] != renderer.EditorURL {
		t.Errorf("Expected editor to open once, got %v", opener.urls)
	}
}

func TestREPLAcceptAllThenUndo(t *testing.T) {
	r, out, _ := newTestREPL(t, "accept-all\ntext\nundo\nundo\nundo\n")

	err := r.run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "Accepted all suggestions.") {
		t.Errorf("Expected accept-all confirmation:\n%s", output)
	}
	if !strings.Contains(output, "Built scalable systems.\n## Skills\n- Go, Kubernetes") {
		t.Errorf("Expected both edits applied:\n%s", output)
	}
	// Three snapshots exist, so only two undos succeed.
	if strings.Count(output, "Undone.") != 2 {
		t.Errorf("Expected two successful undos:\n%s", output)
	}
	if !strings.Contains(output, "Error: nothing to undo") {
		t.Errorf("Expected the third undo to fail:\n%s", output)
	}
}

func TestREPLErrorsKeepRunning(t *testing.T) {
	r, out, _ := newTestREPL(t, "accept\naccept 9\nrestore\nrestore 42\nexport rtf\ncopy cover\nsave-preset Mine\nlist\n")

	err := r.run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Error: which suggestion?",
		"Error: 9: no such suggestion",
		"Error: which version?",
		"Error: no saved version 42",
		"Error: \"rtf\": unknown export format",
		"Error: no cover letter yet",
		"Error: no store attached",
		"[ ] Summary: Built scalable systems.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q:\n%s", want, output)
		}
	}
}

func TestREPLFailedRetryKeepsEdits(t *testing.T) {
	script := strings.Join([]string{
		"manual",
		"# Jane Doe",
		"My hand edits.",
		".",
		"retry",
		"accept 1",
		"undo",
		"text",
	}, "\n")

	r, out, _ := newTestREPLWith(t, script, 1)

	err := r.run()
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Error: tailoring failed",
		"Error: no current suggestions",
		"# Jane Doe\nMy hand edits.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Accepted suggestion 1.") {
		t.Errorf("Suggestions should not be decided after a failed retry:\n%s", output)
	}

	if r.session.Stage() != workflow.StageInput {
		t.Errorf("Expected input stage, got %s", r.session.Stage())
	}
	if got := r.session.Current(); got != "# Jane Doe\nMy hand edits." {
		t.Errorf("Manual edit lost after failed retry, got %q", got)
	}
	if got := len(r.session.History()); got != 3 {
		t.Errorf("Expected history to keep 3 snapshots, got %d", got)
	}
}

func TestReadBlock(t *testing.T) {
	in := bufio.NewScanner(strings.NewReader("line one\n  line two\n.\nafter"))

	got := readBlock(in)
	if got != "line one\n  line two" {
		t.Errorf("Unexpected block %q", got)
	}

	// The rest of the input is still there.
	if !in.Scan() || in.Text() != "after" {
		t.Error("readBlock should stop at the terminator")
	}

	in = bufio.NewScanner(strings.NewReader("unterminated"))
	if got := readBlock(in); got != "unterminated" {
		t.Errorf("Expected text up to end of input, got %q", got)
	}
}

func TestNewExporter(t *testing.T) {
	cfg := &config.Config{Defaults: config.DefaultConfig{OutputDir: "/tmp/out"}}

	exp, err := newExporter(cfg, "", engineBuiltin, "pdf,docx")
	if err != nil {
		t.Fatalf("newExporter failed: %v", err)
	}
	if exp.outDir != "/tmp/out" {
		t.Errorf("Expected config output dir, got %s", exp.outDir)
	}
	if len(exp.formats) != 2 {
		t.Errorf("Expected two formats, got %v", exp.formats)
	}

	exp, err = newExporter(cfg, "./here", enginePandoc, "")
	if err != nil {
		t.Fatalf("newExporter failed: %v", err)
	}
	if exp.outDir != "./here" {
		t.Errorf("Flag should win over config, got %s", exp.outDir)
	}

	_, err = newExporter(cfg, "", "latex", "pdf")
	if err == nil {
		t.Error("Expected error for unknown engine")
	}
	_, err = newExporter(cfg, "", engineBuiltin, "pdf,rtf")
	if err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestOneLine(t *testing.T) {
	if got := oneLine("a\n  b\tc", 10); got != "a b c" {
		t.Errorf("Unexpected %q", got)
	}
	if got := oneLine("abcdefghijkl", 5); got != "abcd…" {
		t.Errorf("Unexpected %q", got)
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		want    renderer.Document
		wantErr bool
	}{
		{name: "tailored-resume", want: renderer.DocumentResume},
		{name: "resume", want: renderer.DocumentResume},
		{name: "cover-letter", want: renderer.DocumentCoverLetter},
		{name: "cover", want: renderer.DocumentCoverLetter},
		{name: "memo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDocument(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseDocument(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestExportPandocFailureWritesNothing(t *testing.T) {
	outDir := t.TempDir()
	exp := &exporter{
		outDir:  outDir,
		engine:  enginePandoc,
		formats: []renderer.Format{renderer.FormatText, renderer.FormatPDF, renderer.FormatMarkdown},
		pandoc:  renderer.PandocOptions{TemplatePath: filepath.Join(outDir, "missing.latex")},
	}

	paths, err := exp.export(context.Background(), renderer.DocumentResume, testResume, nil)
	if err == nil {
		t.Fatal("Expected pandoc export to fail")
	}
	if len(paths) != 0 {
		t.Errorf("Expected no paths, got %v", paths)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected an empty output dir, found %d entries", len(entries))
	}
}
