package cmd

import (
	"context"
	"fmt"

	"github.com/nikogura/resumeforge/pkg/config"
	"github.com/nikogura/resumeforge/pkg/jd"
	"github.com/nikogura/resumeforge/pkg/renderer"
	"github.com/nikogura/resumeforge/pkg/workflow"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var coverJob string

//nolint:gochecknoglobals // Cobra boilerplate
var coverResume string

//nolint:gochecknoglobals // Cobra boilerplate
var coverExport string

//nolint:gochecknoglobals // Cobra boilerplate
var coverOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var coverEngine string

//nolint:gochecknoglobals // Cobra boilerplate
var coverCopy bool

//nolint:gochecknoglobals // Cobra boilerplate
var coverLetterCmd = &cobra.Command{
	Use:   "cover-letter",
	Short: "Draft a cover letter from a resume and job description",
	Long: `Draft a cover letter for the current (or given) job description and resume.

Example:
  resumeforge cover-letter
  resumeforge cover-letter --job jd.txt --resume tailored-resume.md --export pdf,docx
  resumeforge cover-letter --copy`,
	Args: cobra.NoArgs,
	RunE: runCoverLetter,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(coverLetterCmd)
	coverLetterCmd.Flags().StringVar(&coverJob, "job", "", "Job description file or URL (default: current job description)")
	coverLetterCmd.Flags().StringVar(&coverResume, "resume", "", "Resume file (default: current resume)")
	coverLetterCmd.Flags().StringVar(&coverExport, "export", "", "Export formats: pdf, docx, txt, md")
	coverLetterCmd.Flags().StringVar(&coverOutputDir, "output-dir", "", "Output directory (default from config)")
	coverLetterCmd.Flags().StringVar(&coverEngine, "engine", engineBuiltin, "PDF engine: builtin or pandoc")
	coverLetterCmd.Flags().BoolVar(&coverCopy, "copy", false, "Copy the letter and open a new online document")
}

func runCoverLetter(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()

	var cfg *config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	var exp *exporter
	exp, err = newExporter(cfg, coverOutputDir, coverEngine, coverExport)
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

	session := workflow.NewSession(tailorer, workflow.WithStore(st))
	err = session.Load(ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to restore saved inputs")
		return err
	}

	if coverJob != "" {
		var description string
		description, err = jdText(ctx, cfg, coverJob)
		if err != nil {
			return err
		}
		err = session.SetJob(ctx, description)
		if err != nil {
			return err
		}
	}

	if coverResume != "" {
		var resume string
		resume, err = loadResume(coverResume)
		if err != nil {
			return err
		}
		err = session.SetResume(ctx, resume)
		if err != nil {
			return err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	var letter string
	err = withSpinner("Drafting cover letter...", func() (err error) {
		letter, err = session.GenerateCoverLetter(callCtx)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", letter)

	if len(exp.formats) > 0 {
		var paths []string
		paths, err = exp.export(ctx, renderer.DocumentCoverLetter, letter, nil)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Printf("Cover letter saved at: %s\n", path)
		}
	}

	if coverCopy {
		err = renderer.CopyToEditor(renderer.SystemClipboard{}, renderer.SystemOpener{}, letter)
		if err != nil {
			return err
		}
		fmt.Println("Cover letter copied to the clipboard.")
	}

	return err
}

// jdText loads a job description from a file or URL without the paste fallback.
func jdText(ctx context.Context, cfg *config.Config, input string) (description string, err error) {
	err = withSpinner("Fetching job description...", func() (err error) {
		description, err = jd.FetchWithContext(ctx, newJDClient(cfg), input)
		return err
	})
	return description, err
}
