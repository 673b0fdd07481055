package loader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/quarind/docqa/internal/pkg/errors"
)

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("/tmp/photo.png")
	require.ErrorIs(t, err, appErr.ErrUnsupportedType)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, appErr.ErrIO)
}

func TestTextLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world\nsecond line"), 0o644))

	text, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "hello world\nsecond line", text)
}

func TestMarkdownLoaderStripsFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	content := "# Title\n\nSome **bold** text with a [link](https://example.com).\n\n```go\nfmt.Println(\"hi\")\n```\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	text, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, text, "Title")
	require.Contains(t, text, "Some bold text with a link.")
	require.Contains(t, text, `fmt.Println("hi")`)
	require.NotContains(t, text, "**")
	require.NotContains(t, text, "](")
}

func TestDocxLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	writeTestDocx(t, path, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, text, "First paragraph.")
	require.Contains(t, text, "Second paragraph.")
}

func TestPdfLoaderRegistered(t *testing.T) {
	l, err := ForExtension("pdf")
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestPdfLoaderCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 except not really"), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, appErr.ErrIO)
}

func TestDocxLoaderCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, appErr.ErrIO)
}

func writeTestDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	zw := zip.NewWriter(out)
	entry, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}
