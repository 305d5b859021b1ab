package renderer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/pkg/errors"
)

const (
	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
)

// docxSkeleton returns a minimal package with an empty body.
func docxSkeleton() (pkg []byte, err error) {
	parts := []struct {
		name string
		body string
	}{
		{name: "[Content_Types].xml", body: contentTypesXML},
		{name: "_rels/.rels", body: packageRelsXML},
		{name: "word/_rels/document.xml.rels", body: documentRelsXML},
		{name: "word/document.xml", body: wordDocument(nil)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		var w io.Writer
		w, err = zw.Create(part.name)
		if err != nil {
			err = errors.Wrapf(err, "failed to add %s", part.name)
			return pkg, err
		}
		_, err = w.Write([]byte(part.body))
		if err != nil {
			err = errors.Wrapf(err, "failed to write %s", part.name)
			return pkg, err
		}
	}

	err = zw.Close()
	if err != nil {
		err = errors.Wrap(err, "failed to close DOCX skeleton")
		return pkg, err
	}

	pkg = buf.Bytes()
	return pkg, err
}

// renderDOCX writes blocks as WordprocessingML into the skeleton package.
func renderDOCX(text string) (out []byte, err error) {
	var skeleton []byte
	skeleton, err = docxSkeleton()
	if err != nil {
		return out, err
	}

	var doc *docx.ReplaceDocx
	doc, err = docx.ReadDocxFromMemory(bytes.NewReader(skeleton), int64(len(skeleton)))
	if err != nil {
		err = errors.Wrap(err, "failed to load DOCX skeleton")
		return out, err
	}
	defer doc.Close()

	editable := doc.Editable()
	editable.SetContent(wordDocument(Blocks(text)))

	var buf bytes.Buffer
	err = editable.Write(&buf)
	if err != nil {
		err = errors.Wrap(err, "failed to write DOCX")
		return out, err
	}

	out = buf.Bytes()
	return out, err
}

// wordDocument builds document.xml. Sizes are half-points.
func wordDocument(blocks []Block) (document string) {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString(`<w:document xmlns:w="` + wordNamespace + `"><w:body>`)

	for _, block := range blocks {
		switch block.Kind {
		case Heading1:
			writeParagraph(&sb, block.Text, true, 32)
		case Heading2:
			writeParagraph(&sb, block.Text, true, 28)
		case Heading3:
			writeParagraph(&sb, block.Text, true, 0)
		case Bullet:
			writeParagraph(&sb, bulletGlyph+" "+block.Text, false, 0)
		case Blank:
			writeParagraph(&sb, "", false, 0)
		default:
			writeParagraph(&sb, block.Text, false, 0)
		}
	}

	sb.WriteString(`<w:sectPr/></w:body></w:document>`)
	document = sb.String()
	return document
}

func writeParagraph(sb *strings.Builder, text string, bold bool, size int) {
	sb.WriteString("<w:p>")
	if text == "" {
		sb.WriteString("</w:p>")
		return
	}

	sb.WriteString("<w:r>")
	if bold || size > 0 {
		sb.WriteString("<w:rPr>")
		if bold {
			sb.WriteString("<w:b/>")
		}
		if size > 0 {
			sb.WriteString(`<w:sz w:val="`)
			sb.WriteString(strconv.Itoa(size))
			sb.WriteString(`"/>`)
		}
		sb.WriteString("</w:rPr>")
	}
	sb.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(sb, []byte(text))
	sb.WriteString("</w:t></w:r></w:p>")
}
