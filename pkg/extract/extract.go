// Package extract turns uploaded résumé and job files into plain text.
package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/pkg/errors"
)

// MaxFileSize is the largest input accepted, in bytes.
const MaxFileSize = 8 * 1024 * 1024

const (
	mimeText = "text/plain"
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedFormat is returned for anything other than txt, md, pdf or docx.
	ErrUnsupportedFormat = errors.New("unsupported file type, please upload PDF, DOCX, or TXT")
	// ErrFileTooLarge is returned for inputs above MaxFileSize.
	ErrFileTooLarge = errors.New("file is too large, please use a file under 8MB")
	// ErrNoTextFound is returned when extraction yields nothing but whitespace.
	ErrNoTextFound = errors.New("no text found in file")
)

// Format is a supported input type.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// File extracts text from the file at path. The size check happens before the file is opened for reading.
func File(path string) (text string, err error) {
	var info os.FileInfo
	info, err = os.Stat(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to stat file: %s", path)
		return text, err
	}

	if info.Size() > MaxFileSize {
		err = errors.Wrapf(ErrFileTooLarge, "%s is %d bytes", filepath.Base(path), info.Size())
		return text, err
	}

	var f *os.File
	f, err = os.Open(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to open file: %s", path)
		return text, err
	}
	defer f.Close()

	text, err = Reader(filepath.Base(path), f)
	return text, err
}

// Reader extracts text from r, using name to pick the format.
func Reader(name string, r io.Reader) (text string, err error) {
	var data []byte
	data, err = io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		err = errors.Wrapf(err, "failed to read %s", name)
		return text, err
	}

	text, err = Bytes(name, data)
	return text, err
}

// Bytes extracts text from data, using name to pick the format.
func Bytes(name string, data []byte) (text string, err error) {
	if len(data) > MaxFileSize {
		err = ErrFileTooLarge
		return text, err
	}

	var format Format
	format, err = Detect(name, data)
	if err != nil {
		return text, err
	}

	switch format {
	case FormatText:
		text = string(data)
	case FormatPDF:
		text, err = pdfText(data)
	case FormatDOCX:
		text, err = docxText(data)
	}
	if err != nil {
		return text, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		err = ErrNoTextFound
		return text, err
	}

	return text, err
}

// Detect picks a format from the file extension, sniffing content only when there is no extension.
func Detect(name string, data []byte) (format Format, err error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	switch ext {
	case "txt", "md", "markdown":
		format = FormatText
		return format, err
	case "pdf":
		format = FormatPDF
		return format, err
	case "docx":
		format = FormatDOCX
		return format, err
	case "":
		// fall through to sniffing
	default:
		err = errors.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
		return format, err
	}

	detected := mimetype.Detect(data)
	switch {
	case detected.Is(mimePDF):
		format = FormatPDF
	case detected.Is(mimeDOCX):
		format = FormatDOCX
	case detected.Is(mimeText):
		format = FormatText
	default:
		err = errors.Wrapf(ErrUnsupportedFormat, "detected %s", detected.String())
	}

	return format, err
}

// pdfText joins the text of every page with newlines.
func pdfText(data []byte) (text string, err error) {
	var reader *pdf.Reader
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = errors.Wrap(err, "failed to read pdf")
		return text, err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		var pageText string
		pageText, err = page.GetPlainText(nil)
		if err != nil {
			err = errors.Wrapf(err, "failed to read pdf page %d", i)
			return text, err
		}
		pages = append(pages, pageText)
	}

	text = strings.Join(pages, "\n")
	return text, err
}

// docxText opens the package and walks word/document.xml for its raw text.
func docxText(data []byte) (text string, err error) {
	var doc *docx.ReplaceDocx
	doc, err = docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = errors.Wrap(err, "failed to parse docx")
		return text, err
	}
	defer doc.Close()

	text, err = WordprocessingText(doc.Editable().GetContent())
	return text, err
}

// WordprocessingText returns the raw text of a WordprocessingML document body.
// Paragraphs end with a newline, w:tab becomes a tab and w:br a newline.
func WordprocessingText(documentXML string) (text string, err error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))

	var sb strings.Builder
	inText := false
	inTabStops := false
	for {
		var token xml.Token
		token, err = decoder.Token()
		if errors.Is(err, io.EOF) {
			err = nil
			break
		}
		if err != nil {
			err = errors.Wrap(err, "failed to parse document.xml")
			return text, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				inTabStops = true
			case "tab":
				if !inTabStops {
					sb.WriteString("\t")
				}
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabStops = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	text = sb.String()
	return text, err
}
