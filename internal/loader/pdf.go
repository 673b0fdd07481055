package loader

import (
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	appErr "github.com/quarind/docqa/internal/pkg/errors"
)

// pdfLoader extracts the plain text of every page. Page boundaries become
// paragraph breaks so the chunker prefers cutting between pages.
type pdfLoader struct{}

func init() {
	Register("pdf", pdfLoader{})
}

func (pdfLoader) Load(path string) (text string, err error) {
	// The pdf parser panics on some malformed files instead of returning
	// an error; treat those the same as any other unreadable upload.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: parse pdf %s: %v", appErr.ErrIO, path, r)
		}
	}()

	file, reader, err := pdflib.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf %s: %v", appErr.ErrIO, path, err)
	}
	defer file.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: extract pdf page %d: %v", appErr.ErrIO, i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
