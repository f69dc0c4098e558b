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


package extract

import (
	"fmt"
	"strings"

	"github.com/poiesic/docbot/core"
)

// Extractor produces plain text from a document file on disk.
// Implementations must be safe for concurrent use.
type Extractor interface {
	// Extract reads the file at path and returns its plain text content.
	// Returns ErrNoContent (possibly wrapped) if the file parses but has
	// no usable text.
	Extract(path string) (string, error)
}

// Registry maps document types to extractors.
type Registry struct {
	extractors map[core.DocType]Extractor
}

// NewRegistry creates a registry with the built-in extractors for PDF,
// plain text, and DOCX documents.
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[core.DocType]Extractor{
			core.DocTypePDF:  &pdfExtractor{},
			core.DocTypeTXT:  &textExtractor{},
			core.DocTypeDOCX: &catExtractor{},
		},
	}
}

// Register adds or replaces the extractor for a document type.
func (r *Registry) Register(typ core.DocType, e Extractor) {
	r.extractors[typ] = e
}

// Extract selects the extractor for the given type and runs it.
// The returned text is trimmed; whitespace-only output is reported as
// ErrNoContent.
func (r *Registry) Extract(typ core.DocType, path string) (string, error) {
	e, ok := r.extractors[typ]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, typ)
	}

	text, err := e.Extract(path)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}
