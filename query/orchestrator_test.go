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
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docbot/ai/mock"
	"github.com/poiesic/docbot/catalog"
	"github.com/poiesic/docbot/core"
	"github.com/poiesic/docbot/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	catalog   *catalog.Catalog
	arena     *kb.Arena
	embedder  *mock.Embedder
	generator *mock.Generator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cat, err := catalog.Open(filepath.Join(dir, "catalog"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	arena, err := kb.NewArena(filepath.Join(dir, "kb"))
	require.NoError(t, err)
	t.Cleanup(func() { arena.Close() })

	return &fixture{
		catalog:   cat,
		arena:     arena,
		embedder:  mock.NewEmbedder(),
		generator: mock.NewGenerator(),
	}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	return NewOrchestrator(f.catalog, f.arena, f.embedder, f.generator, opts...)
}

func (f *fixture) addChatbot(t *testing.T, id string, status core.ChatbotStatus) {
	t.Helper()
	require.NoError(t, f.catalog.PutChatbot(&core.Chatbot{
		Id:           id,
		Name:         "bot",
		SystemPrompt: "You answer from documents.",
		Model:        "llama3.2",
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}))
}

func (f *fixture) seedKnowledge(t *testing.T, chatbotID string, texts ...string) {
	t.Helper()
	store, err := f.arena.Create(chatbotID, mock.DefaultDimension)
	require.NoError(t, err)

	records := make([]core.ChunkRecord, len(texts))
	for i, text := range texts {
		records[i] = core.ChunkRecord{
			Id:         core.IDFromContent([]byte(text)),
			DocumentId: "doc-1",
			Filename:   "kb.txt",
			Index:      i,
			Text:       text,
			Vector:     mock.DeterministicVector(text, mock.DefaultDimension),
		}
	}
	require.NoError(t, store.Add(records))
}

func TestAskReturnsAnswerWithSources(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1", core.ChatbotReady)
	f.seedKnowledge(t, "bot-1", "refunds take 30 days", "shipping is free over fifty dollars")

	f.generator.GenerateFunc = func(ctx context.Context, system, prompt, model string) (string, error) {
		return "Refunds take 30 days.", nil
	}

	answer, err := f.orchestrator().Ask(t.Context(), "bot-1", "refunds take 30 days", nil)
	require.NoError(t, err)
	assert.Equal(t, "Refunds take 30 days.", answer.Text)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "kb.txt", answer.Sources[0].Filename)

	// The best-matching chunk leads the prompt.
	assert.Contains(t, f.generator.LastPrompt(), "[Document 1 - kb.txt]")
	assert.Contains(t, f.generator.LastPrompt(), "refunds take 30 days")
	assert.Equal(t, "You answer from documents.", f.generator.LastSystem())
	assert.Equal(t, "llama3.2", f.generator.LastModel())
}

func TestAskEmptyKnowledgeUsesMarker(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1", core.ChatbotCreating)

	answer, err := f.orchestrator().Ask(t.Context(), "bot-1", "anything at all?", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Contains(t, f.generator.LastPrompt(), noContextMarker)
}

func TestAskValidation(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1", core.ChatbotReady)

	_, err := f.orchestrator().Ask(t.Context(), "bot-1", "   ", nil)
	assert.ErrorIs(t, err, core.ErrEmptyQuestion)
	assert.Equal(t, 0, f.generator.CallCount())
}

func TestAskUnknownChatbot(t *testing.T) {
	f := newFixture(t)
	_, err := f.orchestrator().Ask(t.Context(), "ghost", "hello?", nil)
	assert.ErrorIs(t, err, catalog.ErrChatbotNotFound)
}

func TestAskProcessingChatbot(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1", core.ChatbotProcessing)

	_, err := f.orchestrator().Ask(t.Context(), "bot-1", "hello?", nil)
	assert.ErrorIs(t, err, ErrChatbotNotReady)
}

func TestAskServiceUnavailableAfterRetries(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1", core.ChatbotReady)

	f.generator.GenerateFunc = func(ctx context.Context, system, prompt, model string) (string, error) {
		return "", errors.New("request timeout")
	}

	o := f.orchestrator(WithRetry(3, time.Millisecond))
	_, err := o.Ask(t.Context(), "bot-1", "hello?", nil)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, 3, f.generator.CallCount())
}

func TestAskHistoryBounded(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1", core.ChatbotReady)

	history := make([]core.Turn, 30)
	for i := range history {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		history[i] = core.Turn{Role: role, Content: fmt.Sprintf("turn number %d", i)}
	}

	o := f.orchestrator(WithHistoryLimit(4))
	_, err := o.Ask(t.Context(), "bot-1", "latest question", history)
	require.NoError(t, err)

	prompt := f.generator.LastPrompt()
	assert.Contains(t, prompt, "turn number 29")
	assert.Contains(t, prompt, "turn number 26")
	assert.NotContains(t, prompt, "turn number 25")
	// Oldest turns are dropped first.
	assert.NotContains(t, prompt, "turn number 0")
}

func TestAskTopKClamped(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1", core.ChatbotReady)
	f.seedKnowledge(t, "bot-1", "only one chunk here")

	answer, err := f.orchestrator(WithTopK(10)).Ask(t.Context(), "bot-1", "question", nil)
	require.NoError(t, err)
	assert.Len(t, answer.Sources, 1)
}

func TestBuildPromptHistoryRoles(t *testing.T) {
	history := []core.Turn{
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	}
	prompt := buildPrompt(nil, history, "what now?", 20)

	assert.True(t, strings.Contains(prompt, "User: hi"))
	assert.True(t, strings.Contains(prompt, "Assistant: hello"))
	assert.True(t, strings.Contains(prompt, "User question: what now?"))
}
