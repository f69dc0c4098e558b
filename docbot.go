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


package docbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docbot/ai"
	"github.com/poiesic/docbot/ai/openai"
	"github.com/poiesic/docbot/catalog"
	"github.com/poiesic/docbot/core"
	"github.com/poiesic/docbot/draft"
	"github.com/poiesic/docbot/ingest"
	"github.com/poiesic/docbot/kb"
	"github.com/poiesic/docbot/query"
)

// Platform wires the catalog, knowledge stores, staging area, ingestion
// pipeline, and query orchestrator into one chatbot platform rooted at a
// data directory.
type Platform struct {
	catalog      *catalog.Catalog
	arena        *kb.Arena
	staging      *draft.Staging
	provider     ai.Provider
	pipeline     *ingest.Pipeline
	orchestrator *query.Orchestrator
	uploadsPath  string
	logger       *slog.Logger
}

// PlatformOption configures a Platform.
type PlatformOption func(*platformOptions)

type platformOptions struct {
	aiConfig     *ai.Config
	provider     ai.Provider
	pipelineOpts []ingest.Option
	queryOpts    []query.Option
}

// WithAIConfig sets the configuration used to build the OpenAI-compatible
// provider. Ignored when WithProvider is given.
func WithAIConfig(cfg *ai.Config) PlatformOption {
	return func(o *platformOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects an AI provider directly, bypassing provider
// construction. Intended for tests.
func WithProvider(p ai.Provider) PlatformOption {
	return func(o *platformOptions) {
		o.provider = p
	}
}

// WithPipelineOptions passes options through to the ingestion pipeline.
func WithPipelineOptions(opts ...ingest.Option) PlatformOption {
	return func(o *platformOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithQueryOptions passes options through to the query orchestrator.
func WithQueryOptions(opts ...query.Option) PlatformOption {
	return func(o *platformOptions) {
		o.queryOpts = append(o.queryOpts, opts...)
	}
}

// New creates a Platform rooted at dataDir. The catalog, knowledge
// stores, uploads, and draft staging each live in their own subdirectory.
// Unless a provider is injected, the embedding service is probed here, so
// a misconfigured AI host fails at startup rather than at first use.
func New(ctx context.Context, dataDir string, opts ...PlatformOption) (*Platform, error) {
	options := &platformOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	cat, err := catalog.Open(filepath.Join(dataDir, "catalog"))
	if err != nil {
		return nil, err
	}

	arena, err := kb.NewArena(filepath.Join(dataDir, "kb"))
	if err != nil {
		cat.Close()
		return nil, err
	}

	staging, err := draft.NewStaging(filepath.Join(dataDir, "drafts"))
	if err != nil {
		arena.Close()
		cat.Close()
		return nil, err
	}

	uploadsPath := filepath.Join(dataDir, "uploads")
	if err := os.MkdirAll(uploadsPath, 0755); err != nil {
		arena.Close()
		cat.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(ctx, options.aiConfig)
		if err != nil {
			arena.Close()
			cat.Close()
			return nil, err
		}
	}

	pipeline, err := ingest.NewPipeline(cat, arena, provider.Embedder(), options.pipelineOpts...)
	if err != nil {
		provider.Close()
		arena.Close()
		cat.Close()
		return nil, err
	}

	orchestrator := query.NewOrchestrator(cat, arena, provider.Embedder(), provider.Generator(), options.queryOpts...)

	return &Platform{
		catalog:      cat,
		arena:        arena,
		staging:      staging,
		provider:     provider,
		pipeline:     pipeline,
		orchestrator: orchestrator,
		uploadsPath:  uploadsPath,
		logger:       slog.Default(),
	}, nil
}

// CreateChatbot registers a new chatbot in the creating state.
func (p *Platform) CreateChatbot(name, systemPrompt, model string) (*core.Chatbot, error) {
	if err := core.ValidateChatbot(name, systemPrompt); err != nil {
		return nil, err
	}

	bot := &core.Chatbot{
		Id:           uuid.NewString(),
		Name:         name,
		SystemPrompt: systemPrompt,
		Model:        model,
		Status:       core.ChatbotCreating,
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.catalog.PutChatbot(bot); err != nil {
		return nil, err
	}
	p.logger.Info("created chatbot", "chatbot", bot.Id, "name", name)
	return bot, nil
}

// ListChatbots returns all chatbots, newest first.
func (p *Platform) ListChatbots() ([]*core.Chatbot, error) {
	return p.catalog.ListChatbots()
}

// Status returns a chatbot with its lifecycle status and document count.
func (p *Platform) Status(chatbotID string) (*core.Chatbot, error) {
	return p.catalog.GetChatbot(chatbotID)
}

// Documents returns a chatbot's documents, oldest first.
func (p *Platform) Documents(chatbotID string) ([]*core.Document, error) {
	if _, err := p.catalog.GetChatbot(chatbotID); err != nil {
		return nil, err
	}
	return p.catalog.ListDocuments(chatbotID)
}

// UploadDocument stores a file for a chatbot and registers it in the
// uploaded state. The document is not embedded until Deploy is called.
func (p *Platform) UploadDocument(chatbotID, filename string, r io.Reader) (*core.Document, error) {
	typ, err := core.ValidateUploadFilename(filename)
	if err != nil {
		return nil, err
	}
	if _, err := p.catalog.GetChatbot(chatbotID); err != nil {
		return nil, err
	}

	count, err := p.catalog.CountDocuments(chatbotID)
	if err != nil {
		return nil, err
	}
	if count >= core.MaxDocumentsPerChatbot {
		return nil, fmt.Errorf("%w: limit is %d", core.ErrTooManyDocuments, core.MaxDocumentsPerChatbot)
	}

	docID := uuid.NewString()
	dir := filepath.Join(p.uploadsPath, chatbotID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, docID+"_"+filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	written, err := io.Copy(f, io.LimitReader(r, core.MaxUploadBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	if written > core.MaxUploadBytes {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s", core.ErrFileTooLarge, filename)
	}

	doc := &core.Document{
		Id:         docID,
		ChatbotId:  chatbotID,
		Filename:   filename,
		Type:       typ,
		Size:       written,
		Path:       path,
		Status:     core.DocumentUploaded,
		UploadedAt: time.Now().UTC(),
	}
	if err := p.catalog.PutDocument(doc); err != nil {
		os.Remove(path)
		return nil, err
	}
	p.logger.Info("uploaded document", "chatbot", chatbotID, "document", docID, "filename", filename, "size", written)
	return doc, nil
}

// Deploy schedules ingestion of a chatbot's pending documents. The call
// returns once the chatbot is in the processing state; callers poll
// Status for the outcome.
func (p *Platform) Deploy(chatbotID string) error {
	return p.pipeline.Enqueue(chatbotID)
}

// DeployDraft copies a draft's staged files into a chatbot's document set
// and schedules ingestion. The draft itself is preserved.
func (p *Platform) DeployDraft(draftID, chatbotID string) error {
	if _, err := p.catalog.GetChatbot(chatbotID); err != nil {
		return err
	}

	err := p.staging.Promote(draftID, func(file *draft.StagedFile) error {
		src, err := os.Open(file.Path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = p.UploadDocument(chatbotID, file.Filename, src)
		return err
	})
	if err != nil {
		return err
	}
	return p.Deploy(chatbotID)
}

// DeployDraftNew creates a chatbot and deploys a draft into it in one
// step, for callers finalizing a draft that has no chatbot yet.
func (p *Platform) DeployDraftNew(draftID, name, systemPrompt, model string) (*core.Chatbot, error) {
	bot, err := p.CreateChatbot(name, systemPrompt, model)
	if err != nil {
		return nil, err
	}
	if err := p.DeployDraft(draftID, bot.Id); err != nil {
		return nil, err
	}
	return bot, nil
}

// Query answers a question against a chatbot's deployed knowledge.
func (p *Platform) Query(ctx context.Context, chatbotID, question string, history []core.Turn) (*core.Answer, error) {
	return p.orchestrator.Ask(ctx, chatbotID, question, history)
}

// DeleteDocument removes a document: its chunks, its stored file, and its
// catalog row. A chatbot whose last document is deleted loses its
// knowledge store and returns to the creating state.
func (p *Platform) DeleteDocument(chatbotID, documentID string) error {
	doc, err := p.catalog.GetDocument(chatbotID, documentID)
	if err != nil {
		return err
	}

	if err := p.pipeline.RemoveDocument(chatbotID, documentID); err != nil {
		return err
	}
	if err := os.Remove(doc.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("could not remove document file", "path", doc.Path, "err", err)
	}
	if err := p.catalog.DeleteDocument(chatbotID, documentID); err != nil {
		return err
	}

	remaining, err := p.catalog.CountDocuments(chatbotID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := p.arena.Delete(chatbotID); err != nil {
			return err
		}
		if err := p.catalog.SetChatbotStatus(chatbotID, core.ChatbotCreating); err != nil {
			return err
		}
	}
	p.logger.Info("deleted document", "chatbot", chatbotID, "document", documentID)
	return nil
}

// DeleteChatbot removes a chatbot, its documents, its uploaded files, and
// its knowledge store.
func (p *Platform) DeleteChatbot(chatbotID string) error {
	if err := p.catalog.DeleteChatbot(chatbotID); err != nil {
		return err
	}
	if err := p.arena.Delete(chatbotID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(p.uploadsPath, chatbotID)); err != nil {
		return err
	}
	p.logger.Info("deleted chatbot", "chatbot", chatbotID)
	return nil
}

// Staging exposes the draft staging area.
func (p *Platform) Staging() *draft.Staging {
	return p.staging
}

// Wait blocks until all in-flight deployments finish.
func (p *Platform) Wait() {
	p.pipeline.Wait()
}

// Close waits for in-flight work and shuts everything down.
func (p *Platform) Close() error {
	p.pipeline.Release()

	if err := p.provider.Close(); err != nil {
		p.logger.Error("error closing AI provider", "err", err)
	}
	if err := p.arena.Close(); err != nil {
		p.logger.Error("error closing knowledge stores", "err", err)
		return err
	}
	if err := p.catalog.Close(); err != nil {
		p.logger.Error("error closing catalog", "err", err)
		return err
	}
	return nil
}
