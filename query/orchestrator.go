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


package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/docbot/ai"
	"github.com/poiesic/docbot/catalog"
	"github.com/poiesic/docbot/core"
	"github.com/poiesic/docbot/kb"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 4

	// DefaultHistoryLimit is the maximum number of conversation turns
	// included in the prompt.
	DefaultHistoryLimit = 20

	// DefaultMaxAttempts bounds retries against the generation service.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the initial backoff delay between retries.
	DefaultBaseDelay = 500 * time.Millisecond

	// DefaultTimeout bounds one whole question, retries included, so a
	// stuck generation call cannot leak a worker.
	DefaultTimeout = 60 * time.Second
)

// Orchestrator answers questions against a chatbot's knowledge store.
type Orchestrator struct {
	catalog   *catalog.Catalog
	arena     *kb.Arena
	embedder  ai.Embedder
	generator ai.Generator
	logger    *slog.Logger

	topK         int
	historyLimit int
	maxAttempts  int
	baseDelay    time.Duration
	timeout      time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithHistoryLimit sets the maximum conversation turns kept in the prompt.
func WithHistoryLimit(limit int) Option {
	return func(o *Orchestrator) {
		if limit >= 0 {
			o.historyLimit = limit
		}
	}
}

// WithRetry sets the retry attempt count and base backoff delay for
// generation calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(o *Orchestrator) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			o.baseDelay = baseDelay
		}
	}
}

// WithTimeout sets the overall per-question timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// NewOrchestrator creates a query orchestrator.
func NewOrchestrator(cat *catalog.Catalog, arena *kb.Arena, embedder ai.Embedder, generator ai.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:      cat,
		arena:        arena,
		embedder:     embedder,
		generator:    generator,
		logger:       slog.Default().With("component", "query"),
		topK:         DefaultTopK,
		historyLimit: DefaultHistoryLimit,
		maxAttempts:  DefaultMaxAttempts,
		baseDelay:    DefaultBaseDelay,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ask answers a question against a chatbot's knowledge.
//
// The question is embedded, the nearest chunks retrieved, and a prompt
// assembled from the chatbot's system prompt, the chunks, and the bounded
// conversation history. A chatbot whose store holds no chunks is answered
// with an explicit empty-context marker, not an error. Transient
// generation failures are retried with exponential backoff; exhaustion
// surfaces as ErrServiceUnavailable. History is never modified, so a
// failed exchange leaves no orphaned turn behind.
func (o *Orchestrator) Ask(ctx context.Context, chatbotID, question string, history []core.Turn) (*core.Answer, error) {
	if err := core.ValidateQuestion(question); err != nil {
		return nil, err
	}

	bot, err := o.catalog.GetChatbot(chatbotID)
	if err != nil {
		return nil, err
	}
	if bot.Status == core.ChatbotProcessing {
		return nil, ErrChatbotNotReady
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	chunks, err := o.retrieve(ctx, chatbotID, question)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(chunks, history, question, o.historyLimit)

	var text string
	err = retryWithBackoff(ctx, func() error {
		var genErr error
		text, genErr = o.generator.Generate(ctx, bot.SystemPrompt, prompt, bot.Model)
		return genErr
	}, o.maxAttempts, o.baseDelay)
	if err != nil {
		o.logger.Error("generation failed", "chatbot", chatbotID, "err", err)
		return nil, err
	}

	sources := make([]core.Source, len(chunks))
	for i, c := range chunks {
		sources[i] = core.Source{
			Filename:   c.Record.Filename,
			ChunkIndex: c.Record.Index,
			Score:      c.Score,
		}
	}

	o.logger.Debug("answered question", "chatbot", chatbotID, "sources", len(sources))
	return &core.Answer{Text: text, Sources: sources}, nil
}

// retrieve embeds the question and searches the chatbot's store. A
// chatbot without a store yet yields zero chunks.
func (o *Orchestrator) retrieve(ctx context.Context, chatbotID, question string) ([]core.ScoredChunk, error) {
	store, err := o.arena.Open(chatbotID)
	if errors.Is(err, kb.ErrStoreNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	vector, err := o.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	return store.Search(vector, o.topK)
}
