package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for chunk records.
// It is generated using content-based hashing so identical content
// produces identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from content using BLAKE2b hashing.
func IDFromContent(content []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(content)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChatbotStatus is the lifecycle state of a chatbot.
// Transitions are driven solely by the ingestion pipeline:
// creating -> processing -> ready | error.
type ChatbotStatus string

const (
	// ChatbotCreating means the chatbot exists but has no embedded documents yet.
	ChatbotCreating ChatbotStatus = "creating"
	// ChatbotProcessing means an ingestion run is active.
	ChatbotProcessing ChatbotStatus = "processing"
	// ChatbotReady means at least one document embedded successfully and the
	// chatbot is queryable.
	ChatbotReady ChatbotStatus = "ready"
	// ChatbotError means the last ingestion run embedded no documents at all.
	ChatbotError ChatbotStatus = "error"
)

// DocumentStatus is the lifecycle state of a single uploaded document.
type DocumentStatus string

const (
	// DocumentUploaded means the file is stored but not yet processed.
	DocumentUploaded DocumentStatus = "uploaded"
	// DocumentProcessing means extraction/embedding is in flight.
	DocumentProcessing DocumentStatus = "processing"
	// DocumentCompleted means the document's chunks are in the knowledge base.
	DocumentCompleted DocumentStatus = "completed"
	// DocumentError means extraction or embedding failed for this document.
	DocumentError DocumentStatus = "error"
)

// DocType identifies the format of an uploaded document.
type DocType string

const (
	DocTypePDF  DocType = "pdf"
	DocTypeTXT  DocType = "txt"
	DocTypeDOCX DocType = "docx"
)

// Chatbot holds the metadata row for one chatbot.
type Chatbot struct {
	Id            string
	Name          string
	SystemPrompt  string
	Model         string // generation model selector; empty means provider default
	Status        ChatbotStatus
	DocumentCount int // derived at read time, not persisted
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Document holds the metadata row for one uploaded document.
// The extracted text itself is ephemeral and never stored here.
type Document struct {
	Id         string
	ChatbotId  string
	Filename   string
	Type       DocType
	Size       int64
	Path       string // stored file location on disk
	Status     DocumentStatus
	Error      string // failure diagnostic when Status == DocumentError
	UploadedAt time.Time
}

// Chunk is a bounded segment of a document's extracted text, the unit of
// embedding and retrieval. Chunks are derived during ingestion and are not
// persisted on their own; ChunkRecord is the persisted form.
//
// Invariant for the chunks of one document: the first starts at offset 0,
// the last ends at len(text), starts are strictly increasing and each chunk
// after the first begins inside the previous one by the splitter's overlap,
// so the chunks fully cover the text.
type Chunk struct {
	Text       string
	DocumentId string
	Index      int
	Start      int // byte offset of Text[0] in the source document
	End        int // byte offset one past the last byte of Text
}

// ChunkRecord is an embedded chunk as stored in a knowledge base, pairing
// the chunk text and source reference with its embedding vector.
type ChunkRecord struct {
	Id         ID
	DocumentId string
	Filename   string // source document filename, carried for answer citations
	Index      int
	Text       string
	Vector     []float32
}

// ScoredChunk is a retrieval hit: a stored chunk and its similarity score.
type ScoredChunk struct {
	Record *ChunkRecord
	Score  float32
}

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation history entry. Turns live only for the
// duration of a caller's session and are never written to durable storage.
type Turn struct {
	Role    Role
	Content string
}

// Source is a citation attached to a generated answer.
type Source struct {
	Filename   string
	ChunkIndex int
	Score      float32
}

// Answer is the result of one query: generated text plus the sources the
// retrieved context came from. Sources is empty when nothing was retrieved.
type Answer struct {
	Text    string
	Sources []Source
}
