package export

import (
	"bytes"
	"fmt"
)

// MarkdownExporter renders outlines as CommonMark.
type MarkdownExporter struct{}

// NewMarkdownExporter constructs a markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Render writes the outline with "#" for the title, "##" for lists and sections and "###" inside sections.
func (e *MarkdownExporter) Render(o Outline) ([]byte, error) {
	if o.Title == "" {
		return nil, fmt.Errorf("markdown requires a title")
	}
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "# %s\n\n", o.Title)
	if o.Summary != "" {
		fmt.Fprintf(buf, "%s\n\n", o.Summary)
	}
	writeFields(buf, o.Fields)
	for _, l := range nonEmpty(o.Lists) {
		writeList(buf, "##", l)
	}
	for _, s := range o.Sections {
		fmt.Fprintf(buf, "## %s\n\n", s.Heading)
		writeFields(buf, s.Fields)
		for _, l := range nonEmpty(s.Lists) {
			writeList(buf, "###", l)
		}
	}
	for _, l := range nonEmpty(o.Closing) {
		writeList(buf, "##", l)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func writeFields(buf *bytes.Buffer, fields []Field) {
	if len(fields) == 0 {
		return
	}
	for _, f := range fields {
		fmt.Fprintf(buf, "**%s:** %s  \n", f.Label, f.Value)
	}
	buf.WriteString("\n")
}

func writeList(buf *bytes.Buffer, level string, l List) {
	fmt.Fprintf(buf, "%s %s\n\n", level, l.Heading)
	for _, item := range l.Items {
		if l.Prose {
			fmt.Fprintf(buf, "%s\n\n", item)
			continue
		}
		fmt.Fprintf(buf, "- %s\n", item)
	}
	if !l.Prose {
		buf.WriteString("\n")
	}
}
