package cmd

import (
	"context"
	"fmt"

	"github.com/nikogura/resumeforge/pkg/config"
	"github.com/nikogura/resumeforge/pkg/extract"
	"github.com/nikogura/resumeforge/pkg/renderer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var exportFormats string

//nolint:gochecknoglobals // Cobra boilerplate
var exportDoc string

//nolint:gochecknoglobals // Cobra boilerplate
var exportOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var exportEngine string

//nolint:gochecknoglobals // Cobra boilerplate
var exportCopy bool

//nolint:gochecknoglobals // Cobra boilerplate
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Render a resume or cover letter to PDF, DOCX, text or markdown",
	Long: `Render text to export formats. Lines starting with "# ", "## ", "### "
and "- " become headings and bullets.

Without a file the saved resume (the last one given to tailor) is exported.

Example:
  resumeforge export --format pdf,docx
  resumeforge export letter.md --doc cover-letter --format pdf --engine pandoc`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormats, "format", "pdf,docx", "Export formats: pdf, docx, txt, md")
	exportCmd.Flags().StringVar(&exportDoc, "doc", string(renderer.DocumentResume), "Document name: tailored-resume or cover-letter")
	exportCmd.Flags().StringVar(&exportOutputDir, "output-dir", "", "Output directory (default from config)")
	exportCmd.Flags().StringVar(&exportEngine, "engine", engineBuiltin, "PDF engine: builtin or pandoc")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "Also copy the text and open a new online document")
}

func parseDocument(name string) (doc renderer.Document, err error) {
	switch name {
	case string(renderer.DocumentResume), "resume":
		doc = renderer.DocumentResume
	case string(renderer.DocumentCoverLetter), "cover":
		doc = renderer.DocumentCoverLetter
	default:
		err = errors.Errorf("invalid --doc: %s (must be '%s' or '%s')", name, renderer.DocumentResume, renderer.DocumentCoverLetter)
	}
	return doc, err
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()

	var doc renderer.Document
	doc, err = parseDocument(exportDoc)
	if err != nil {
		return err
	}

	var cfg *config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	var exp *exporter
	exp, err = newExporter(cfg, exportOutputDir, exportEngine, exportFormats)
	if err != nil {
		return err
	}

	var text string
	if len(args) > 0 {
		text, err = extract.File(args[0])
		if err != nil {
			return err
		}
	} else {
		st, closeStore, openErr := openStore(ctx, cfg)
		if openErr != nil {
			return openErr
		}
		text, err = st.Resume(ctx)
		closeStore()
		if err != nil {
			return err
		}
		if text == "" {
			err = errors.New("no current resume (pass a file or run 'resumeforge extract --save-as resume')")
			return err
		}
	}

	var paths []string
	paths, err = exp.export(ctx, doc, text, nil)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Printf("Saved %s\n", path)
	}

	if exportCopy {
		err = renderer.CopyToEditor(renderer.SystemClipboard{}, renderer.SystemOpener{}, text)
		if err != nil {
			return err
		}
		fmt.Println("Copied to the clipboard.")
	}

	return err
}
