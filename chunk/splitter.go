// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunk

import (
	"fmt"
	"strings"

	"github.com/poiesic/docbot/core"
)

const (
	// DefaultSize is the default maximum chunk length in bytes.
	DefaultSize = 800

	// DefaultOverlap is the default number of bytes shared between
	// consecutive chunks.
	DefaultOverlap = 150
)

// separators are tried in order when looking for a natural break point
// near the end of a chunk window.
var separators = []string{"\n\n", "\n", " "}

// Splitter cuts document text into overlapping chunks for embedding.
// Chunks cover the full input text: every byte of the input appears in at
// least one chunk, and consecutive chunks share the configured overlap.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter creates a splitter with the given chunk size and overlap.
// The overlap must be non-negative and strictly smaller than the size,
// otherwise the splitter could not make forward progress.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// NewDefaultSplitter creates a splitter with the default size and overlap.
func NewDefaultSplitter() *Splitter {
	s, err := NewSplitter(DefaultSize, DefaultOverlap)
	if err != nil {
		panic(err) // defaults are valid by construction
	}
	return s
}

// Split cuts text into chunks. Whitespace-only input yields no chunks.
// Each chunk records its byte offsets into the original text. Chunk
// boundaries prefer paragraph breaks, then line breaks, then word breaks,
// falling back to a hard cut when no separator falls outside the overlap
// region.
func (s *Splitter) Split(text string) []core.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []core.Chunk
	pos := 0
	for pos < len(text) {
		end := pos + s.size
		if end >= len(text) {
			chunks = append(chunks, core.Chunk{
				Text:  text[pos:],
				Index: len(chunks),
				Start: pos,
				End:   len(text),
			})
			break
		}

		cut := s.breakPoint(text, pos, end)
		chunks = append(chunks, core.Chunk{
			Text:  text[pos:cut],
			Index: len(chunks),
			Start: pos,
			End:   cut,
		})
		pos = cut - s.overlap
	}
	return chunks
}

// breakPoint picks the cut position for a chunk starting at pos with a
// window ending at end. It returns a position in (pos+overlap, end].
func (s *Splitter) breakPoint(text string, pos, end int) int {
	window := text[pos:end]
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := pos + idx + len(sep)
		// A cut inside the overlap region would revisit text already
		// emitted and stall the scan.
		if cut <= pos+s.overlap {
			continue
		}
		return cut
	}
	return end
}
