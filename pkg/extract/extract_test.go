package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func docxFixture(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body bytes.Buffer
	for _, p := range paragraphs {
		body.WriteString(`<w:p w:rsidR="00AB"><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`<w:document><w:body>` + body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestTextPlainAndMarkdown(t *testing.T) {
	got, err := Text([]byte("Docker is a runtime.\nLine 2"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "Docker is a runtime.\nLine 2", got)

	got, err = Text([]byte("hello\x80world"), MIMEMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "hello\ufffdworld", got)
}

func TestTextDOCXKeepsParagraphs(t *testing.T) {
	got, err := Text(docxFixture(t, "Kubernetes is an orchestrator.", "R&amp;D notes"), MIMEDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Kubernetes is an orchestrator.\nR&D notes", got)

	_, err = Text([]byte("not a zip"), MIMEDOCX)
	assert.Error(t, err)
}

func TestTextXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Topic"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "SQL"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Joins"))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	got, err := Text(buf.Bytes(), MIMEXLSX)
	require.NoError(t, err)
	assert.Equal(t, "Topic\nSQL\tJoins", got)
}

func TestTextUnsupported(t *testing.T) {
	_, err := Text([]byte{0x89, 'P', 'N', 'G'}, "image/png")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMIMEFromName(t *testing.T) {
	mime, ok := MIMEFromName("Notes.MD")
	assert.True(t, ok)
	assert.Equal(t, MIMEMarkdown, mime)

	_, ok = MIMEFromName("archive.tar.gz")
	assert.False(t, ok)
	assert.Equal(t, MIMERTF, NormalizeMIME("Text/RTF"))
}
