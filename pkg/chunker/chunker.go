// Package chunker splits raw document text into retrieval-sized segments.
package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter turns a document's text into chunks suitable for embedding.
type Splitter interface {
	Split(text string) ([]string, error)
}

// CharacterSplitter applies a sliding window over characters: fixed window
// size with a fixed overlap between consecutive windows. This is the default
// chunking policy for uploaded documents.
type CharacterSplitter struct {
	size    int
	overlap int
}

// NewCharacterSplitter validates the window settings and returns a splitter.
// Overlap must be smaller than size so the window always advances.
func NewCharacterSplitter(size, overlap int) (*CharacterSplitter, error) {
	if size <= 0 {
		return nil, errors.New("chunker: size must be greater than zero")
	}
	if overlap < 0 {
		return nil, errors.New("chunker: overlap cannot be negative")
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than size %d", overlap, size)
	}
	return &CharacterSplitter{size: size, overlap: overlap}, nil
}

// Split windows over text in character units. Chunk boundaries are computed
// per document; the final window may be shorter than size. Whitespace-only
// windows are dropped.
func (s *CharacterSplitter) Split(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	step := s.size - s.overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// RecursiveSplitter prefers paragraph and sentence boundaries over hard
// character cuts, at the cost of less predictable chunk lengths.
type RecursiveSplitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewRecursiveSplitter builds a splitter around langchaingo's recursive
// character splitter with the given size and overlap.
func NewRecursiveSplitter(size, overlap int) (*RecursiveSplitter, error) {
	if size <= 0 {
		return nil, errors.New("chunker: size must be greater than zero")
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: overlap %d must be in [0, size)", overlap)
	}
	return &RecursiveSplitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
	}, nil
}

// Split delegates to the recursive character splitter and drops empty chunks.
func (s *RecursiveSplitter) Split(text string) ([]string, error) {
	segments, err := s.inner.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("chunker: split text: %w", err)
	}
	chunks := make([]string, 0, len(segments))
	for _, seg := range segments {
		if strings.TrimSpace(seg) != "" {
			chunks = append(chunks, seg)
		}
	}
	return chunks, nil
}
