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


package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Upload limits. Uploads violating these are rejected synchronously and
// never reach the ingestion pipeline.
const (
	// MaxUploadBytes is the largest accepted document file size.
	MaxUploadBytes = 50 << 20 // 50 MB

	// MaxDocumentsPerChatbot caps how many documents one chatbot can hold.
	MaxDocumentsPerChatbot = 10
)

// ValidateChatbot validates the user-supplied fields of a new chatbot.
// Name and system prompt must be non-blank; the model selector is not
// validated since an empty value selects the provider default.
func ValidateChatbot(name, systemPrompt string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	if strings.TrimSpace(systemPrompt) == "" {
		return ErrEmptySystemPrompt
	}

	return nil
}

// ValidateQuestion validates a query question.
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	return nil
}

// ValidateID validates that an identifier is non-blank.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	return nil
}

// DetectDocType maps a filename extension to a DocType.
// Returns ErrUnsupportedFileType for anything outside {pdf, txt, docx}.
func DetectDocType(filename string) (DocType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		return DocTypePDF, nil
	case "txt":
		return DocTypeTXT, nil
	case "docx":
		return DocTypeDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(filename))
	}
}

// ValidateUploadFilename validates an upload's filename and returns its
// detected type. The filename must be non-blank, must not escape its
// directory, and must carry a supported extension.
func ValidateUploadFilename(filename string) (DocType, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrEmptyFilename
	}
	if filepath.Base(filename) != filename || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: %q contains path elements", ErrInvalidFilename, filename)
	}
	return DetectDocType(filename)
}
