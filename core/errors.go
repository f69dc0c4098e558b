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

import "errors"

// Domain validation errors. These are rejected synchronously and never
// enter the ingestion pipeline.
var (
	// ErrEmptyName indicates a chatbot name is blank.
	ErrEmptyName = errors.New("chatbot name cannot be empty")

	// ErrEmptySystemPrompt indicates a chatbot system prompt is blank.
	ErrEmptySystemPrompt = errors.New("system prompt cannot be empty")

	// ErrEmptyQuestion indicates a query question is blank.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrEmptyID indicates a required identifier is blank.
	ErrEmptyID = errors.New("identifier cannot be empty")

	// ErrEmptyFilename indicates an upload carries no filename.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInvalidFilename indicates a filename containing path elements.
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrUnsupportedFileType indicates an upload with a file extension
	// outside the supported set.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates an upload exceeding MaxUploadBytes.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrTooManyDocuments indicates an upload that would exceed
	// MaxDocumentsPerChatbot.
	ErrTooManyDocuments = errors.New("document limit reached for chatbot")

	// ErrCorruptRecord indicates a persisted record failed to deserialize.
	ErrCorruptRecord = errors.New("corrupt record")
)
