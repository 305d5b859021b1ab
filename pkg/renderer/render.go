package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
)

// Document says what is being exported; it picks the file name.
type Document string

// Document kinds.
const (
	DocumentResume      Document = "tailored-resume"
	DocumentCoverLetter Document = "cover-letter"
)

// ErrUnknownFormat is returned for a format name Render does not handle.
var ErrUnknownFormat = errors.New("unknown export format")

// ExportFailedError reports a renderer failure. No output accompanies it.
type ExportFailedError struct {
	Format Format
	Cause  error
}

func (e *ExportFailedError) Error() (msg string) {
	msg = fmt.Sprintf("failed to export %s: %v", e.Format, e.Cause)
	return msg
}

func (e *ExportFailedError) Unwrap() (cause error) {
	cause = e.Cause
	return cause
}

// Formats lists every supported format.
func Formats() (formats []Format) {
	formats = []Format{FormatPDF, FormatDOCX, FormatText, FormatMarkdown}
	return formats
}

// ParseFormat accepts a format name or common alias.
func ParseFormat(name string) (format Format, err error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "pdf":
		format = FormatPDF
	case "docx", "word":
		format = FormatDOCX
	case "txt", "text", "plain":
		format = FormatText
	case "md", "markdown":
		format = FormatMarkdown
	default:
		err = errors.Wrapf(ErrUnknownFormat, "%q", name)
	}
	return format, err
}

// ParseFormats splits a comma separated list of formats.
func ParseFormats(list string) (formats []Format, err error) {
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		var format Format
		format, err = ParseFormat(name)
		if err != nil {
			return formats, err
		}
		formats = append(formats, format)
	}
	return formats, err
}

// Filename is the fixed download name for a document in a format.
func Filename(doc Document, format Format) (name string) {
	name = string(doc) + "." + string(format)
	return name
}

// ContentType is the MIME type served for a format.
func ContentType(format Format) (contentType string) {
	switch format {
	case FormatPDF:
		contentType = "application/pdf"
	case FormatDOCX:
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatMarkdown:
		contentType = "text/markdown; charset=utf-8"
	default:
		contentType = "text/plain; charset=utf-8"
	}
	return contentType
}

// Render produces format bytes for text. A renderer error or panic becomes an
// ExportFailedError and no bytes are returned.
func Render(format Format, text string) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &ExportFailedError{Format: format, Cause: errors.Errorf("renderer panic: %v", r)}
		}
	}()

	switch format {
	case FormatPDF:
		out, err = renderPDF(text)
	case FormatDOCX:
		out, err = renderDOCX(text)
	case FormatText:
		out = renderPlainText(text)
	case FormatMarkdown:
		out = []byte(text)
	default:
		err = errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	if err != nil {
		out = nil
		err = &ExportFailedError{Format: format, Cause: err}
		return out, err
	}

	return out, err
}

// RenderAll renders several formats concurrently. Either every format succeeds or none is returned.
func RenderAll(ctx context.Context, formats []Format, text string) (outputs map[Format][]byte, err error) {
	var mu sync.Mutex
	results := make(map[Format][]byte, len(formats))

	g, ctx := errgroup.WithContext(ctx)
	for _, format := range formats {
		g.Go(func() (err error) {
			if ctx.Err() != nil {
				err = ctx.Err()
				return err
			}

			var out []byte
			out, err = Render(format, text)
			if err != nil {
				return err
			}

			mu.Lock()
			results[format] = out
			mu.Unlock()
			return err
		})
	}

	err = g.Wait()
	if err != nil {
		return outputs, err
	}

	outputs = results
	return outputs, err
}

// WriteFile renders text and writes it to dir under the fixed name for doc.
// The file appears only once fully written.
func WriteFile(dir string, format Format, doc Document, text string) (path string, err error) {
	var out []byte
	out, err = Render(format, text)
	if err != nil {
		return path, err
	}

	path = filepath.Join(dir, Filename(doc, format))
	err = writeAtomic(path, out)
	if err != nil {
		path = ""
		err = &ExportFailedError{Format: format, Cause: err}
		return path, err
	}

	return path, err
}

// writeAtomic writes data to a sibling temp file and renames it over path.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", dir)
		return err
	}

	var tmp *os.File
	tmp, err = os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		err = errors.Wrap(err, "failed to create temp file")
		return err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Close()
	} else {
		_ = tmp.Close()
	}
	if err != nil {
		_ = os.Remove(tmpName)
		err = errors.Wrapf(err, "failed to write %s", path)
		return err
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		_ = os.Remove(tmpName)
		err = errors.Wrapf(err, "failed to move file into place: %s", path)
		return err
	}

	return err
}

// WriteAll renders every format concurrently, then writes each file to dir.
// Nothing is written unless every format rendered.
func WriteAll(ctx context.Context, dir string, formats []Format, doc Document, text string) (paths []string, err error) {
	var outputs map[Format][]byte
	outputs, err = RenderAll(ctx, formats, text)
	if err != nil {
		return paths, err
	}

	paths, err = WriteRendered(dir, doc, formats, outputs)
	return paths, err
}

// WriteRendered writes already rendered outputs to dir in the order of formats.
// If any write fails, the files written so far are removed again.
func WriteRendered(dir string, doc Document, formats []Format, outputs map[Format][]byte) (paths []string, err error) {
	for _, format := range formats {
		path := filepath.Join(dir, Filename(doc, format))
		err = writeAtomic(path, outputs[format])
		if err != nil {
			err = &ExportFailedError{Format: format, Cause: err}
			for _, written := range paths {
				_ = os.Remove(written)
			}
			paths = nil
			return paths, err
		}
		paths = append(paths, path)
	}

	return paths, err
}
