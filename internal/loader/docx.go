package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"

	appErr "github.com/quarind/docqa/internal/pkg/errors"
)

// docxLoader extracts paragraph text from word/document.xml inside the docx
// zip container. Only <w:t> runs matter for retrieval; everything else
// (styling, tables markup, revision data) is skipped.
type docxLoader struct{}

func init() {
	Register("docx", docxLoader{})
}

func (docxLoader) Load(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: open docx %s: %v", appErr.ErrIO, path, err)
	}
	defer archive.Close()

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("%w: docx missing word/document.xml", appErr.ErrIO)
	}

	rc, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open document.xml: %v", appErr.ErrIO, err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			case "br", "tab":
				current.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if text := strings.TrimSpace(current.String()); text != "" {
		paragraphs = append(paragraphs, text)
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
