package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/nikogura/resumeforge/pkg/renderer"
	"github.com/nikogura/resumeforge/pkg/store"
	"github.com/nikogura/resumeforge/pkg/workflow"
	"github.com/pkg/errors"
)

// blockTerminator ends multi-line input.
const blockTerminator = "."

const replHelp = `Commands:
  list                   list suggestions
  show <n>               show a suggestion in full
  accept <n>|reject <n>  decide on a suggestion
  accept-all             accept every suggestion
  edit <n>               rewrite a suggestion's replacement text
  manual                 replace the whole resume text
  reset                  drop manual edits and go back to the AI version
  undo                   step back one version
  history                list saved versions
  restore <n>            go back to a saved version
  text                   print the current resume
  diff                   compare with the original
  keywords               show keyword coverage
  cover                  draft a cover letter
  export [formats] [cover]  write files (default formats from --export)
  copy [cover]           copy to the clipboard and open a new online document
  save-preset <name>     save the resume and job as a preset
  retry                  start over and ask for fresh suggestions
  quit                   leave
`

var errUnknownSuggestion = errors.New("no such suggestion")

var errNoResults = errors.New("no current suggestions (type 'retry' to request them again)")

// repl drives a Results-stage session from line-oriented input.
type repl struct {
	ctx       context.Context
	session   *workflow.Session
	in        *bufio.Scanner
	out       io.Writer
	exporter  *exporter
	clipboard renderer.Clipboard
	opener    renderer.Opener
	busy      func(message string, fn func() (err error)) (err error)
}

func newREPL(ctx context.Context, session *workflow.Session, in *bufio.Scanner, out io.Writer, exp *exporter) (r *repl) {
	r = &repl{
		ctx:       ctx,
		session:   session,
		in:        in,
		out:       out,
		exporter:  exp,
		clipboard: renderer.SystemClipboard{},
		opener:    renderer.SystemOpener{},
		busy:      withSpinner,
	}
	return r
}

// run reads commands until quit or end of input. Command errors are printed, never returned.
func (r *repl) run() (err error) {
	r.printf("%s\n", replHelp)

	for {
		r.printf("> ")
		if !r.in.Scan() {
			err = r.in.Err()
			if err != nil {
				err = errors.Wrap(err, "failed to read input")
			}
			return err
		}

		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}

		quit, cmdErr := r.dispatch(line)
		if cmdErr != nil {
			r.printf("Error: %v\n", cmdErr)
		}
		if quit {
			return err
		}
	}
}

//nolint:gocyclo,cyclop // One case per command keeps the table readable
func (r *repl) dispatch(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "help", "?":
		r.printf("%s", replHelp)
	case "list", "ls":
		printSuggestionList(r.out, r.session.Suggestions())
	case "show":
		err = r.show(args)
	case "accept", "reject":
		err = r.decide(args, command == "accept")
	case "accept-all":
		if !r.session.AcceptAll() {
			err = errNoResults
			return quit, err
		}
		r.printf("Accepted all suggestions.\n")
	case "edit":
		err = r.edit(args)
	case "manual":
		r.printf("Enter the full resume text, then a line with a single '%s':\n", blockTerminator)
		r.session.ManualEdit(r.readBlock())
		r.printf("Resume text replaced.\n")
	case "reset":
		if !r.session.ResetToAI() {
			err = errNoResults
			return quit, err
		}
		r.printf("Back to the AI version.\n")
	case "undo":
		if !r.session.UndoLast() {
			err = errors.New("nothing to undo")
			if r.session.Stage() != workflow.StageResults {
				err = errNoResults
			}
			return quit, err
		}
		r.printf("Undone.\n")
	case "history":
		printHistory(r.out, r.session.History())
	case "restore":
		err = r.restore(args)
	case "text", "current":
		r.printf("%s\n", r.session.Current())
	case "diff":
		printDiff(r.out, r.session.Diff())
	case "keywords":
		printCoverage(r.out, r.session.Keywords())
	case "cover":
		err = r.coverLetter()
	case "export":
		err = r.export(args)
	case "copy":
		err = r.copy(args)
	case "save-preset":
		err = r.savePreset(args)
	case "retry":
		err = r.retry()
	case "quit", "exit", "q":
		quit = true
	default:
		err = errors.Errorf("unknown command %q (type 'help')", command)
	}

	return quit, err
}

func (r *repl) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func (r *repl) readBlock() (text string) {
	text = readBlock(r.in)
	return text
}

// readBlock reads lines until the terminator line or end of input.
func readBlock(in *bufio.Scanner) (text string) {
	var lines []string
	for in.Scan() {
		line := in.Text()
		if strings.TrimSpace(line) == blockTerminator {
			break
		}
		lines = append(lines, line)
	}
	text = strings.Join(lines, "\n")
	return text
}

// suggestionAt resolves a 1-based list position or a suggestion id.
func (r *repl) suggestionAt(args []string) (index int, suggestion llm.Suggestion, err error) {
	if len(args) == 0 {
		err = errors.New("which suggestion? give its number from 'list'")
		return index, suggestion, err
	}

	suggestions := r.session.Suggestions()

	n, convErr := strconv.Atoi(args[0])
	if convErr == nil && n >= 1 && n <= len(suggestions) {
		index = n
		suggestion = suggestions[n-1]
		return index, suggestion, err
	}

	for i, s := range suggestions {
		if s.ID == args[0] {
			index = i + 1
			suggestion = s
			return index, suggestion, err
		}
	}

	err = errors.Wrap(errUnknownSuggestion, args[0])
	return index, suggestion, err
}

func (r *repl) show(args []string) (err error) {
	var index int
	var suggestion llm.Suggestion
	index, suggestion, err = r.suggestionAt(args)
	if err != nil {
		return err
	}

	printSuggestion(r.out, index, suggestion)
	return err
}

func (r *repl) decide(args []string, accept bool) (err error) {
	var index int
	var suggestion llm.Suggestion
	index, suggestion, err = r.suggestionAt(args)
	if err != nil {
		return err
	}

	if r.session.Stage() != workflow.StageResults {
		err = errNoResults
		return err
	}

	if !r.session.AcceptSuggestion(suggestion.ID, accept) {
		err = errors.Wrap(errUnknownSuggestion, suggestion.ID)
		return err
	}

	verb := "Rejected"
	if accept {
		verb = "Accepted"
	}
	r.printf("%s suggestion %d.\n", verb, index)
	return err
}

func (r *repl) edit(args []string) (err error) {
	var index int
	var suggestion llm.Suggestion
	index, suggestion, err = r.suggestionAt(args)
	if err != nil {
		return err
	}
	if r.session.Stage() != workflow.StageResults {
		err = errNoResults
		return err
	}

	r.printf("Current replacement:\n%s\nEnter new text, then a line with a single '%s':\n", suggestion.Suggested, blockTerminator)
	text := r.readBlock()

	if !r.session.EditSuggestionText(suggestion.ID, text) {
		err = errors.Wrap(errUnknownSuggestion, suggestion.ID)
		return err
	}

	r.printf("Updated suggestion %d.\n", index)
	return err
}

func (r *repl) restore(args []string) (err error) {
	if len(args) == 0 {
		err = errors.New("which version? give its number from 'history'")
		return err
	}

	id := args[0]
	entries := r.session.History()
	n, convErr := strconv.Atoi(id)
	if convErr == nil && n >= 1 && n <= len(entries) {
		id = entries[n-1].ID
	}

	if r.session.Stage() != workflow.StageResults {
		err = errNoResults
		return err
	}

	entry, ok := r.session.Restore(id)
	if !ok {
		err = errors.Errorf("no saved version %s", args[0])
		return err
	}

	r.printf("Restored %q.\n", entry.Label)
	return err
}

func (r *repl) coverLetter() (err error) {
	ctx, cancel := context.WithTimeout(r.ctx, generationTimeout)
	defer cancel()

	var letter string
	err = r.busy("Drafting cover letter...", func() (err error) {
		letter, err = r.session.GenerateCoverLetter(ctx)
		return err
	})
	if err != nil {
		return err
	}

	r.printf("\n%s\n\n", letter)
	return err
}

// documentText picks the resume or, with a trailing "cover" argument, the cover letter.
func (r *repl) documentText(args []string) (doc renderer.Document, text string, rest []string, err error) {
	doc = renderer.DocumentResume
	rest = args
	if len(args) > 0 && strings.EqualFold(args[len(args)-1], "cover") {
		doc = renderer.DocumentCoverLetter
		rest = args[:len(args)-1]
	}

	if doc == renderer.DocumentCoverLetter {
		var status workflow.CoverLetterStatus
		text, status = r.session.CoverLetter()
		if status != workflow.CoverLetterReady {
			err = errors.New("no cover letter yet (run 'cover' first)")
			return doc, text, rest, err
		}
		return doc, text, rest, err
	}

	text = r.session.Current()
	return doc, text, rest, err
}

func (r *repl) export(args []string) (err error) {
	var doc renderer.Document
	var text string
	doc, text, args, err = r.documentText(args)
	if err != nil {
		return err
	}

	var formats []renderer.Format
	if len(args) > 0 {
		formats, err = renderer.ParseFormats(strings.Join(args, ","))
		if err != nil {
			return err
		}
	}

	var paths []string
	paths, err = r.exporter.export(r.ctx, doc, text, formats)
	if err != nil {
		return err
	}

	for _, path := range paths {
		r.printf("Saved %s\n", path)
	}
	return err
}

func (r *repl) copy(args []string) (err error) {
	var text string
	_, text, _, err = r.documentText(args)
	if err != nil {
		return err
	}

	err = renderer.CopyToEditor(r.clipboard, r.opener, text)
	if err != nil {
		return err
	}

	r.printf("Copied to the clipboard; paste it into the new document.\n")
	return err
}

func (r *repl) savePreset(args []string) (err error) {
	name := strings.TrimSpace(strings.Join(args, " "))

	var preset store.ProfilePreset
	preset, err = r.session.SavePreset(r.ctx, name)
	if err != nil {
		return err
	}

	r.printf("Saved preset %q (%s).\n", preset.Name, preset.ID)
	return err
}

func (r *repl) retry() (err error) {
	if r.session.Stage() == workflow.StageResults {
		err = r.session.StartOver()
		if err != nil {
			return err
		}
	}

	var result llm.TailoringResult
	result, err = submit(r.ctx, r.session, r.busy)
	if err != nil {
		return err
	}

	printResult(r.out, result)
	return err
}

// submit asks for suggestions behind the progress indicator.
func submit(ctx context.Context, session *workflow.Session, busy func(string, func() error) error) (result llm.TailoringResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	err = busy("Analyzing your resume against the job description...", func() (err error) {
		result, err = session.Submit(ctx)
		return err
	})
	if err != nil {
		err = errors.Wrap(err, "tailoring failed")
		return result, err
	}

	return result, err
}
