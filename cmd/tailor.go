package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/nikogura/resumeforge/pkg/config"
	"github.com/nikogura/resumeforge/pkg/extract"
	"github.com/nikogura/resumeforge/pkg/jd"
	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/nikogura/resumeforge/pkg/renderer"
	"github.com/nikogura/resumeforge/pkg/store"
	"github.com/nikogura/resumeforge/pkg/workflow"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// maxInputLine lets a whole pasted resume arrive as one scanner token.
const maxInputLine = extract.MaxFileSize

//nolint:gochecknoglobals // Cobra boilerplate
var tailorJob string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorResume string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorRecent string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorPreset string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorAcceptAll bool

//nolint:gochecknoglobals // Cobra boilerplate
var tailorExport string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorEngine string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorCoverLetter bool

//nolint:gochecknoglobals // Cobra boilerplate
var tailorCopy bool

//nolint:gochecknoglobals // Cobra boilerplate
var tailorCmd = &cobra.Command{
	Use:   "tailor [jd-file-or-url]",
	Short: "Get AI suggestions for a resume and review them",
	Long: `Compare a resume with a job description and review the suggested edits.

The job description can be provided as:
- A file path (txt, md, pdf or docx)
- A URL, scraped through the scrape service (see 'resumeforge serve')
- Nothing, to reuse the last job description

The resume is read from --resume, a preset, or the last resume used.

Without --accept-all an interactive session starts where you accept, reject
or rewrite each suggestion, undo changes, draft a cover letter and export.

Example:
  resumeforge tailor jd.txt --resume resume.pdf
  resumeforge tailor https://example.com/jobs/123 --resume resume.docx
  resumeforge tailor --preset "Platform roles" --accept-all --export pdf,docx --cover-letter`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTailor,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(tailorCmd)
	tailorCmd.Flags().StringVar(&tailorJob, "job", "", "Job description file or URL")
	tailorCmd.Flags().StringVar(&tailorResume, "resume", "", "Resume file (txt, md, pdf or docx)")
	tailorCmd.Flags().StringVar(&tailorRecent, "recent", "", "Use a recent job description by id (see 'resumeforge jobs list')")
	tailorCmd.Flags().StringVar(&tailorPreset, "preset", "", "Load a saved preset by name or id")
	tailorCmd.Flags().BoolVar(&tailorAcceptAll, "accept-all", false, "Accept every suggestion and export without prompting")
	tailorCmd.Flags().StringVar(&tailorExport, "export", "pdf,docx", "Export formats: pdf, docx, txt, md")
	tailorCmd.Flags().StringVar(&tailorOutputDir, "output-dir", "", "Output directory (default from config)")
	tailorCmd.Flags().StringVar(&tailorEngine, "engine", engineBuiltin, "PDF engine: builtin or pandoc")
	tailorCmd.Flags().BoolVar(&tailorCoverLetter, "cover-letter", false, "With --accept-all, also draft and export a cover letter")
	tailorCmd.Flags().BoolVar(&tailorCopy, "copy", false, "With --accept-all, copy the result and open a new online document")
}

func runTailor(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()

	var cfg *config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var tailorer workflow.Tailorer
	tailorer, err = newTailorer(ctx, cfg, st)
	if err != nil {
		return err
	}

	var exp *exporter
	exp, err = newExporter(cfg, tailorOutputDir, tailorEngine, tailorExport)
	if err != nil {
		return err
	}

	session := workflow.NewSession(tailorer, workflow.WithStore(st))
	err = session.Load(ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to restore saved inputs")
		return err
	}

	stdin := bufio.NewScanner(os.Stdin)
	stdin.Buffer(make([]byte, 0, 64*1024), maxInputLine)

	jobInput := tailorJob
	if len(args) > 0 {
		jobInput = args[0]
	}

	err = applyTailorInputs(ctx, cfg, session, stdin, jobInput)
	if err != nil {
		return err
	}

	var result llm.TailoringResult
	result, err = submit(ctx, session, withSpinner)
	if err != nil {
		if errors.Is(err, workflow.ErrJobRequired) || errors.Is(err, workflow.ErrResumeRequired) {
			err = errors.Wrap(err, "pass a job description and --resume (or use --preset)")
		}
		return err
	}

	printResult(os.Stdout, result)

	if tailorAcceptAll {
		err = runBatch(ctx, session, exp)
		return err
	}

	err = newREPL(ctx, session, stdin, os.Stdout, exp).run()
	return err
}

// applyTailorInputs layers the preset, recent job, job flag and resume flag over the restored inputs.
func applyTailorInputs(ctx context.Context, cfg *config.Config, session *workflow.Session, stdin *bufio.Scanner, jobInput string) (err error) {
	if tailorPreset != "" {
		var preset store.ProfilePreset
		preset, err = session.LoadPreset(ctx, tailorPreset)
		if err != nil {
			err = errors.Wrapf(err, "failed to load preset %q", tailorPreset)
			return err
		}
		if getVerbose() {
			fmt.Printf("Loaded preset: %s\n", preset.Name)
		}
	}

	if tailorRecent != "" {
		_, err = session.LoadRecentJob(ctx, tailorRecent)
		if err != nil {
			err = errors.Wrap(err, "failed to load recent job")
			return err
		}
	}

	if jobInput != "" {
		var description string
		description, err = fetchAndLogJD(ctx, cfg, jobInput, stdin)
		if err != nil {
			return err
		}

		if jd.IsURL(jobInput) {
			err = session.ImportJob(ctx, description, jobInput)
		} else {
			session.SetJobURL("")
			err = session.SetJob(ctx, description)
		}
		if err != nil {
			err = errors.Wrap(err, "failed to save job description")
			return err
		}
	}

	if tailorResume != "" {
		var resume string
		resume, err = loadResume(tailorResume)
		if err != nil {
			return err
		}

		err = session.SetResume(ctx, resume)
		if err != nil {
			err = errors.Wrap(err, "failed to save resume")
			return err
		}
	}

	return err
}

func loadResume(path string) (resume string, err error) {
	if getVerbose() {
		fmt.Printf("Loading resume from: %s\n", path)
	}

	resume, err = extract.File(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read resume: %s", path)
		return resume, err
	}

	if getVerbose() {
		fmt.Printf("Resume loaded (%d characters)\n", len(resume))
	}

	return resume, err
}

// fetchAndLogJD loads a job description. When a URL cannot be scraped it asks for the text instead.
func fetchAndLogJD(ctx context.Context, cfg *config.Config, jdInput string, stdin *bufio.Scanner) (jobDescription string, err error) {
	if getVerbose() {
		fmt.Printf("Loading job description from: %s\n", jdInput)
	}

	err = withSpinner("Fetching job description...", func() (err error) {
		jobDescription, err = jd.FetchWithContext(ctx, newJDClient(cfg), jdInput)
		return err
	})
	if err != nil {
		if !jd.IsURL(jdInput) {
			return jobDescription, err
		}

		fmt.Printf("\nWarning: Failed to fetch job description from URL: %v\n", err)
		fmt.Println("This often happens with JavaScript-rendered pages or when the scrape service is not running.")
		fmt.Printf("\nPlease paste the job description text below, then a line with a single '%s':\n\n", blockTerminator)

		jobDescription = readBlock(stdin)
		if stdin.Err() != nil {
			err = errors.Wrap(stdin.Err(), "failed to read job description from stdin")
			return jobDescription, err
		}
		if jobDescription == "" {
			err = errors.New("no job description provided")
			return jobDescription, err
		}

		fmt.Printf("\nJob description received (%d characters)\n", len(jobDescription))
		err = nil
		return jobDescription, err
	}

	if getVerbose() {
		fmt.Printf("Job description loaded (%d characters)\n", len(jobDescription))
	}

	return jobDescription, err
}

// runBatch accepts everything and writes the requested files.
func runBatch(ctx context.Context, session *workflow.Session, exp *exporter) (err error) {
	if !session.AcceptAll() {
		err = errors.New("no suggestions to accept")
		return err
	}

	if getVerbose() {
		printCoverage(os.Stdout, session.Keywords())
	}

	var paths []string
	paths, err = exp.export(ctx, renderer.DocumentResume, session.Current(), nil)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Printf("Resume saved at: %s\n", path)
	}

	if tailorCoverLetter {
		var letter string
		callCtx, cancel := context.WithTimeout(ctx, generationTimeout)
		err = withSpinner("Drafting cover letter...", func() (err error) {
			letter, err = session.GenerateCoverLetter(callCtx)
			return err
		})
		cancel()
		if err != nil {
			return err
		}

		paths, err = exp.export(ctx, renderer.DocumentCoverLetter, letter, nil)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Printf("Cover letter saved at: %s\n", path)
		}
	}

	if tailorCopy {
		err = renderer.CopyToEditor(renderer.SystemClipboard{}, renderer.SystemOpener{}, session.Current())
		if err != nil {
			return err
		}
		fmt.Println("Resume copied to the clipboard.")
	}

	return err
}
