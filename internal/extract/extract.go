package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	mimePDF     = "application/pdf"
	notebookExt = ".ipynb"
)

// Kind identifies the extraction strategy selected for one file.
type Kind int

const (
	KindPlainText Kind = iota
	KindPDF
	KindNotebook
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindNotebook:
		return "notebook"
	default:
		return "plain_text"
	}
}

// Detect selects the extraction strategy for a file. A declared PDF media
// type wins, then the notebook suffix, then the plain-text fallback. When no
// media type is declared the content is sniffed instead, since files read
// from disk carry no browser-declared type.
func Detect(data []byte, mediaType, fileName string) Kind {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	if declared == mimePDF {
		return KindPDF
	}
	if declared == "" && mimetype.Detect(data).Is(mimePDF) {
		return KindPDF
	}
	if strings.EqualFold(filepath.Ext(fileName), notebookExt) {
		return KindNotebook
	}
	return KindPlainText
}

// Text converts one uploaded file into reviewable plain text. It is a pure
// transform over the input bytes; nothing is cached between calls.
func Text(data []byte, mediaType, fileName string) (string, error) {
	switch Detect(data, mediaType, fileName) {
	case KindPDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf %s: %w", fileName, err)
		}
		return text, nil
	case KindNotebook:
		text, err := extractNotebook(data)
		if err != nil {
			return "", fmt.Errorf("extract notebook %s: %w", fileName, err)
		}
		return text, nil
	default:
		return string(data), nil
	}
}

// extractPDF concatenates the text of every page in page order, each page
// separated from the next by a blank line.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n\n"), nil
}
