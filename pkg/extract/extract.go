// Package extract turns uploaded document bytes into plain text.
package extract

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for formats with no text extractor.
var ErrUnsupported = errors.New("unsupported document format")

// MIME types recognised by Text.
const (
	MIMEPDF      = "application/pdf"
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEODT      = "application/vnd.oasis.opendocument.text"
	MIMERTF      = "application/rtf"
)

var extensionMIME = map[string]string{
	".pdf":      MIMEPDF,
	".txt":      MIMEPlain,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
	".docx":     MIMEDOCX,
	".xlsx":     MIMEXLSX,
	".odt":      MIMEODT,
	".rtf":      MIMERTF,
}

// MIMEFromName guesses a MIME type from the file extension.
func MIMEFromName(name string) (string, bool) {
	mime, ok := extensionMIME[strings.ToLower(filepath.Ext(name))]
	return mime, ok
}

// NormalizeMIME strips parameters and lower-cases a Content-Type value.
func NormalizeMIME(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	switch contentType {
	case "text/rtf":
		return MIMERTF
	case "text/x-markdown":
		return MIMEMarkdown
	}
	return contentType
}

// Text extracts plain text from content of the given MIME type.
func Text(content []byte, mime string) (string, error) {
	switch NormalizeMIME(mime) {
	case MIMEPDF:
		return extractPDF(content)
	case MIMEDOCX:
		return extractDOCX(content)
	case MIMEXLSX:
		return extractXLSX(content)
	case MIMEODT, MIMERTF:
		return extractWithCat(content)
	case MIMEPlain, MIMEMarkdown:
		return extractPlain(content), nil
	default:
		return "", ErrUnsupported
	}
}
