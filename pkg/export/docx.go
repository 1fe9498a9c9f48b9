package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`
	docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`
	docxDocumentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	docxDocumentClose = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr></w:body></w:document>`
)

var docxEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

// DOCXExporter writes a minimal WordprocessingML package: one document part, direct run formatting, no styles part.
type DOCXExporter struct{}

// NewDOCXExporter constructs a DOCX exporter.
func NewDOCXExporter() *DOCXExporter {
	return &DOCXExporter{}
}

type docxRun struct {
	text   string
	bold   bool
	italic bool
	size   int // half-points
}

// Render builds the .docx archive for the outline.
func (e *DOCXExporter) Render(o Outline) ([]byte, error) {
	if o.Title == "" {
		return nil, fmt.Errorf("docx requires a title")
	}
	body := &strings.Builder{}
	body.WriteString(docxDocumentOpen)
	docxParagraph(body, "center", docxRun{text: o.Title, bold: true, size: 36})
	if o.Summary != "" {
		docxParagraph(body, "", docxRun{text: o.Summary, italic: true, size: 22})
	}
	docxFields(body, o.Fields)
	for _, l := range nonEmpty(o.Lists) {
		docxList(body, l, 28)
	}
	for _, s := range o.Sections {
		docxParagraph(body, "", docxRun{text: s.Heading, bold: true, size: 28})
		docxFields(body, s.Fields)
		for _, l := range nonEmpty(s.Lists) {
			docxList(body, l, 24)
		}
	}
	for _, l := range nonEmpty(o.Closing) {
		docxList(body, l, 28)
	}
	body.WriteString(docxDocumentClose)

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRootRels},
		{"word/document.xml", body.String()},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}

func docxFields(body *strings.Builder, fields []Field) {
	for _, f := range fields {
		docxParagraph(body, "",
			docxRun{text: f.Label + ": ", bold: true, size: 22},
			docxRun{text: f.Value, size: 22},
		)
	}
}

func docxList(body *strings.Builder, l List, headingSize int) {
	docxParagraph(body, "", docxRun{text: l.Heading, bold: true, size: headingSize})
	for _, item := range l.Items {
		if l.Prose {
			docxParagraph(body, "", docxRun{text: item, size: 22})
			continue
		}
		docxParagraph(body, "", docxRun{text: "• " + item, size: 22})
	}
}

func docxParagraph(body *strings.Builder, align string, runs ...docxRun) {
	body.WriteString("<w:p>")
	if align != "" {
		fmt.Fprintf(body, `<w:pPr><w:jc w:val="%s"/></w:pPr>`, align)
	}
	for _, r := range runs {
		body.WriteString("<w:r><w:rPr>")
		if r.bold {
			body.WriteString("<w:b/>")
		}
		if r.italic {
			body.WriteString("<w:i/>")
		}
		if r.size > 0 {
			fmt.Fprintf(body, `<w:sz w:val="%d"/>`, r.size)
		}
		body.WriteString(`</w:rPr><w:t xml:space="preserve">`)
		body.WriteString(docxEscaper.Replace(r.text))
		body.WriteString("</w:t></w:r>")
	}
	body.WriteString("</w:p>")
}
