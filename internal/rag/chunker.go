package rag

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrBadChunkConfig = errors.New("invalid chunk configuration")

// ChunkOptions controls how text is split. Size and Overlap are rune counts;
// Overlap must be smaller than Size. When a window contains no whitespace at
// all, AllowHardCut decides whether to cut mid-word at Size or to widen the
// window forward to the next whitespace.
type ChunkOptions struct {
	Size         int
	Overlap      int
	AllowHardCut bool
}

// Piece is one chunk of the source text. Start and End are rune offsets into
// the original string, so Content == text[Start:End] in rune terms.
type Piece struct {
	Content string
	Start   int
	End     int
}

// Chunk splits text into overlapping pieces without breaking words: the cut
// point is moved back to the nearest whitespace inside the window. Each piece
// starts Overlap runes before the previous piece's end. Blank input yields no
// pieces; input no longer than Size yields exactly one.
func Chunk(text string, opts ChunkOptions) ([]Piece, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrBadChunkConfig, opts.Size)
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.Size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, size %d)", ErrBadChunkConfig, opts.Overlap, opts.Size)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= opts.Size {
		return []Piece{{Content: text, Start: 0, End: len(runes)}}, nil
	}

	var pieces []Piece
	start := 0
	for start < len(runes) {
		end := start + opts.Size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = adjustBoundary(runes, start, end, opts.AllowHardCut)
		}

		pieces = append(pieces, Piece{
			Content: string(runes[start:end]),
			Start:   start,
			End:     end,
		})
		if end >= len(runes) {
			break
		}

		next := end - opts.Overlap
		if next < 0 {
			next = 0
		}
		if next <= start {
			// Overlap would stall the scan; force progress.
			next = start + 1
		}
		start = next
	}
	return pieces, nil
}

// adjustBoundary moves end back to just after the last whitespace inside the
// window so no word is split. A window with no whitespace either hard-cuts at
// end or widens forward to the next whitespace.
func adjustBoundary(runes []rune, start, end int, allowHardCut bool) int {
	if unicode.IsSpace(runes[end]) || unicode.IsSpace(runes[end-1]) {
		return end
	}
	for i := end - 1; i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	if allowHardCut {
		return end
	}
	for i := end; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return len(runes)
}

// WordCount counts whitespace-delimited words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
