package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfLineHeight = 5.5
	pdfIndent     = 5.0
)

// PDFExporter renders outlines into an A4 PDF using the core Helvetica font.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the outline out top to bottom with automatic page breaks.
func (e *PDFExporter) Render(o Outline) ([]byte, error) {
	if o.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(o.Title, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	text := pdfText(pdf.UnicodeTranslatorFromDescriptor(""))

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, text(o.Title), "", "C", false)
	pdf.Ln(3)

	if o.Summary != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, pdfLineHeight, text(o.Summary), "", "", false)
		pdf.Ln(2)
	}
	pdfFields(pdf, text, o.Fields)
	for _, l := range nonEmpty(o.Lists) {
		pdfList(pdf, text, l, 12)
	}
	for _, s := range o.Sections {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, text(s.Heading), "B", "", false)
		pdf.Ln(1)
		pdfFields(pdf, text, s.Fields)
		for _, l := range nonEmpty(s.Lists) {
			pdfList(pdf, text, l, 10.5)
		}
	}
	for _, l := range nonEmpty(o.Closing) {
		pdfList(pdf, text, l, 12)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfFields(pdf *gofpdf.Fpdf, text func(string) string, fields []Field) {
	for _, f := range fields {
		pdf.SetFont("Helvetica", "B", 10)
		label := text(f.Label + ": ")
		pdf.CellFormat(pdf.GetStringWidth(label)+1, pdfLineHeight, label, "", 0, "", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, pdfLineHeight, text(f.Value), "", "", false)
	}
	if len(fields) > 0 {
		pdf.Ln(1)
	}
}

func pdfList(pdf *gofpdf.Fpdf, text func(string) string, l List, headingSize float64) {
	pdf.SetFont("Helvetica", "B", headingSize)
	pdf.MultiCell(0, 6.5, text(l.Heading), "", "", false)
	pdf.SetFont("Helvetica", "", 10)
	left, _, _, _ := pdf.GetMargins()
	for _, item := range l.Items {
		if l.Prose {
			pdf.MultiCell(0, pdfLineHeight, text(item), "", "", false)
			continue
		}
		pdf.SetX(left + pdfIndent)
		pdf.MultiCell(0, pdfLineHeight, text("- "+item), "", "", false)
	}
	pdf.Ln(1.5)
}

// pdfText maps UTF-8 onto the cp1252 core fonts, dropping symbols they cannot draw.
func pdfText(translate func(string) string) func(string) string {
	return func(s string) string {
		s = strings.Map(func(r rune) rune {
			if r > 0xFF {
				return -1
			}
			return r
		}, s)
		return translate(strings.TrimSpace(s))
	}
}
