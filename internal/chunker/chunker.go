package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quarind/docqa/internal/model"
	appErr "github.com/quarind/docqa/internal/pkg/errors"
)

// DefaultSize is the default maximum number of characters per chunk.
const DefaultSize = 800

// DefaultOverlap is the default number of characters repeated at the start
// of the next chunk.
const DefaultOverlap = 150

// separators in preference order: paragraph breaks, line breaks, sentence
// punctuation, clause breaks, word breaks. A hard character cut is the last
// resort when none of these occur in the window.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", ", ", " "}

// Chunker splits document text into overlapping, size-bounded segments.
// Splitting is deterministic: the same text and configuration always yield
// the same chunk sequence, which keeps content-derived doc ids reproducible
// across re-ingestion.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be less than chunk size (%d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split cuts text into chunks of at most the configured size, numbered in
// document order and stamped with the total count. Text with no extractable
// content is an ingestion error, not an empty success.
func (c *Chunker) Split(text, docID, filename string) ([]model.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, appErr.ErrEmptyDocument
	}
	runes := []rune(text)
	var pieces []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			pieces = appendPiece(pieces, string(runes[start:]))
			break
		}
		cut := c.findCut(runes, start, end)
		pieces = appendPiece(pieces, string(runes[start:cut]))
		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	if len(pieces) == 0 {
		return nil, appErr.ErrEmptyDocument
	}

	chunks := make([]model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, model.Chunk{
			DocID:       docID,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
			Filename:    filename,
			Content:     piece,
			Length:      utf8.RuneCountInString(piece),
		})
	}
	return chunks, nil
}

// findCut picks the cut position in (start, end] for the current window,
// preferring the latest occurrence of the highest-ranked separator in the
// second half so a stray early newline cannot produce degenerate slivers.
// When no separator lands there, any separator in the window still beats a
// mid-word character cut; the separator keeps to the left chunk.
func (c *Chunker) findCut(runes []rune, start, end int) int {
	if cut := c.findCutFrom(runes, start, end, start+c.size/2); cut > 0 {
		return cut
	}
	if cut := c.findCutFrom(runes, start, end, start+1); cut > 0 {
		return cut
	}
	return end
}

// findCutFrom returns the cut for the highest-ranked separator whose cut
// position falls in [min, end], or 0 when no separator qualifies.
func (c *Chunker) findCutFrom(runes []rune, start, end, min int) int {
	window := string(runes[start:end])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(sep)
		if cut >= min && cut <= end {
			return cut
		}
	}
	return 0
}

func appendPiece(pieces []string, piece string) []string {
	if strings.TrimSpace(piece) == "" {
		return pieces
	}
	return append(pieces, piece)
}
