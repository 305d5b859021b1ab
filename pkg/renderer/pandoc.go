package renderer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// PandocOptions points at the LaTeX template and class used for pandoc PDFs.
// Empty paths use pandoc's default template.
type PandocOptions struct {
	TemplatePath string
	ClassPath    string
}

// PandocPDF renders text to a PDF at outputPath through pandoc and LaTeX.
// The markdown is staged in a temp file that is removed afterwards.
func PandocPDF(ctx context.Context, text, outputPath string, opts PandocOptions) (err error) {
	err = checkPandocExists(ctx)
	if err != nil {
		return err
	}

	var templates []string
	if opts.TemplatePath != "" {
		templates = append(templates, opts.TemplatePath)
	}
	if opts.ClassPath != "" {
		templates = append(templates, opts.ClassPath)
	}
	err = validateFiles(templates...)
	if err != nil {
		return err
	}

	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	var staged *os.File
	staged, err = os.CreateTemp(outputDir, ".resumeforge-*.md")
	if err != nil {
		err = errors.Wrap(err, "failed to stage markdown")
		return err
	}
	markdownPath := staged.Name()
	_ = staged.Close()
	defer func() { _ = CleanupMarkdown(markdownPath) }()

	err = WriteMarkdown(text, markdownPath)
	if err != nil {
		return err
	}

	// pandoc writes to a temp name so a failed run leaves nothing at outputPath.
	partial := outputPath + ".partial.pdf"
	args := []string{
		"-f", "markdown",
		"-t", "pdf",
		"-o", partial,
		"--number-sections=false",
	}
	if opts.TemplatePath != "" {
		args = append(args, "--template", opts.TemplatePath)
	}
	args = append(args, markdownPath)

	cmd := exec.CommandContext(ctx, "pandoc", args...)

	// Set TEXINPUTS to include directory with .cls file
	if opts.ClassPath != "" {
		classDir := filepath.Dir(opts.ClassPath)
		texinputs := classDir + ":" + os.Getenv("TEXINPUTS")
		cmd.Env = append(os.Environ(), "TEXINPUTS="+texinputs)
	}

	var output []byte
	output, err = cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(partial)
		err = &ExportFailedError{Format: FormatPDF, Cause: errors.Wrapf(err, "pandoc failed: %s", string(output))}
		return err
	}

	err = os.Rename(partial, outputPath)
	if err != nil {
		_ = os.Remove(partial)
		err = errors.Wrapf(err, "failed to move PDF into place: %s", outputPath)
		return err
	}

	return err
}

// checkPandocExists verifies pandoc is installed.
func checkPandocExists(ctx context.Context) (err error) {
	cmd := exec.CommandContext(ctx, "pandoc", "--version")
	err = cmd.Run()
	if err != nil {
		err = errors.New("pandoc not found in PATH (install pandoc or use the built-in PDF engine)")
		return err
	}
	return err
}

// validateFiles checks that required files exist.
func validateFiles(paths ...string) (err error) {
	for _, path := range paths {
		_, err = os.Stat(path)
		if os.IsNotExist(err) {
			err = errors.Errorf("file not found: %s", path)
			return err
		}
	}
	err = nil
	return err
}

// WriteMarkdown writes markdown content to a file.
func WriteMarkdown(content, outputPath string) (err error) {
	// Ensure output directory exists
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	err = os.WriteFile(outputPath, []byte(content), 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write markdown file: %s", outputPath)
		return err
	}

	return err
}

// CleanupMarkdown removes staged markdown files.
func CleanupMarkdown(paths ...string) (err error) {
	for _, path := range paths {
		err = os.Remove(path)
		if err != nil {
			err = errors.Wrapf(err, "failed to remove markdown file: %s", path)
			return err
		}
	}
	return err
}
