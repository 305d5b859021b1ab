package cmd

import (
	"context"
	"fmt"

	"github.com/nikogura/resumeforge/pkg/extract"
	"github.com/nikogura/resumeforge/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var extractSaveAs string

//nolint:gochecknoglobals // Cobra boilerplate
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the plain text of a txt, md, pdf or docx file",
	Long: `Print the plain text extracted from a document.

Use --save-as resume or --save-as job to keep the text as the current
resume or job description for the next 'tailor' run.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractSaveAs, "save-as", "", "Save the text as 'resume' or 'job'")
}

func runExtract(cmd *cobra.Command, args []string) (err error) {
	if extractSaveAs != "" && extractSaveAs != "resume" && extractSaveAs != "job" {
		err = errors.Errorf("invalid --save-as: %s (must be 'resume' or 'job')", extractSaveAs)
		return err
	}

	var text string
	text, err = extract.File(args[0])
	if err != nil {
		return err
	}

	fmt.Println(text)

	if extractSaveAs == "" {
		return err
	}

	err = withStore(func(ctx context.Context, st *store.Store) (err error) {
		if extractSaveAs == "resume" {
			err = st.SetResume(ctx, text)
		} else {
			err = st.SetJob(ctx, text)
		}
		if err != nil {
			err = errors.Wrapf(err, "failed to save %s", extractSaveAs)
			return err
		}
		return err
	})
	return err
}
