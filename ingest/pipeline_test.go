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


package ingest

import (
	"os"
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
	catalog  *catalog.Catalog
	arena    *kb.Arena
	embedder *mock.Embedder
	pipeline *Pipeline
	dir      string
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

	embedder := mock.NewEmbedder()
	pipeline, err := NewPipeline(cat, arena, embedder, WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return &fixture{catalog: cat, arena: arena, embedder: embedder, pipeline: pipeline, dir: dir}
}

func (f *fixture) addChatbot(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.catalog.PutChatbot(&core.Chatbot{
		Id:           id,
		Name:         "bot " + id,
		SystemPrompt: "You are helpful.",
		Status:       core.ChatbotCreating,
		CreatedAt:    time.Now().UTC(),
	}))
}

func (f *fixture) addDocument(t *testing.T, chatbotID, docID, filename, content string) {
	t.Helper()
	path := filepath.Join(f.dir, filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	typ, err := core.DetectDocType(filename)
	require.NoError(t, err)
	require.NoError(t, f.catalog.PutDocument(&core.Document{
		Id:         docID,
		ChatbotId:  chatbotID,
		Filename:   filename,
		Type:       typ,
		Size:       int64(len(content)),
		Path:       path,
		Status:     core.DocumentUploaded,
		UploadedAt: time.Now().UTC(),
	}))
}

func TestDeploySingleDocument(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1")
	f.addDocument(t, "bot-1", "doc-1", "notes.txt", strings.Repeat("useful knowledge about refunds. ", 60))

	require.NoError(t, f.pipeline.Enqueue("bot-1"))
	f.pipeline.Wait()

	bot, err := f.catalog.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotReady, bot.Status)

	doc, err := f.catalog.GetDocument("bot-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.DocumentCompleted, doc.Status)
	assert.Empty(t, doc.Error)

	store, err := f.arena.Open("bot-1")
	require.NoError(t, err)
	assert.Equal(t, mock.DefaultDimension, store.Dimension())
	count, err := store.Count()
	require.NoError(t, err)
	assert.Greater(t, count, 1)
}

func TestDeployPartialFailure(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1")
	f.addDocument(t, "bot-1", "doc-good", "good.txt", "plain text that extracts cleanly")
	f.addDocument(t, "bot-1", "doc-bad", "bad.pdf", "not actually a pdf")

	require.NoError(t, f.pipeline.Enqueue("bot-1"))
	f.pipeline.Wait()

	// One good document is enough for the chatbot to be usable.
	bot, err := f.catalog.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotReady, bot.Status)

	good, err := f.catalog.GetDocument("bot-1", "doc-good")
	require.NoError(t, err)
	assert.Equal(t, core.DocumentCompleted, good.Status)

	bad, err := f.catalog.GetDocument("bot-1", "doc-bad")
	require.NoError(t, err)
	assert.Equal(t, core.DocumentError, bad.Status)
	assert.NotEmpty(t, bad.Error)
}

func TestDeployAllDocumentsFail(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1")
	f.addDocument(t, "bot-1", "doc-1", "empty.txt", "   \n ")
	f.addDocument(t, "bot-1", "doc-2", "broken.pdf", "junk")

	require.NoError(t, f.pipeline.Enqueue("bot-1"))
	f.pipeline.Wait()

	bot, err := f.catalog.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotError, bot.Status)
}

func TestDeployNoDocuments(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1")

	require.NoError(t, f.pipeline.Enqueue("bot-1"))
	f.pipeline.Wait()

	bot, err := f.catalog.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotCreating, bot.Status)
}

func TestDeployUnknownChatbot(t *testing.T) {
	f := newFixture(t)
	err := f.pipeline.Enqueue("ghost")
	assert.ErrorIs(t, err, catalog.ErrChatbotNotFound)
}

func TestRedeployReplacesChunks(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1")
	f.addDocument(t, "bot-1", "doc-1", "notes.txt", "original content")

	require.NoError(t, f.pipeline.Enqueue("bot-1"))
	f.pipeline.Wait()

	store, err := f.arena.Open("bot-1")
	require.NoError(t, err)
	before, err := store.Count()
	require.NoError(t, err)

	// Replace the file, reset the document, deploy again.
	f.addDocument(t, "bot-1", "doc-1", "notes.txt", "revised content")
	require.NoError(t, f.pipeline.Enqueue("bot-1"))
	f.pipeline.Wait()

	after, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	query, err := f.embedder.EmbedQuery(t.Context(), "revised content")
	require.NoError(t, err)
	results, err := store.Search(query, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "revised content", results[0].Record.Text)
}

func TestRemoveDocumentWithoutStore(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.pipeline.RemoveDocument("bot-1", "doc-1"))
}

func TestRedeployWithDifferentDimensionFails(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1")
	f.addDocument(t, "bot-1", "doc-1", "notes.txt", "stable knowledge")

	require.NoError(t, f.pipeline.Enqueue("bot-1"))
	f.pipeline.Wait()

	// A pipeline over the same store but a wider embedder must refuse to
	// mix vector dimensions.
	wide, err := NewPipeline(f.catalog, f.arena, mock.NewEmbedderWithDimension(mock.DefaultDimension*2), WithPoolSize(1))
	require.NoError(t, err)
	t.Cleanup(wide.Release)

	f.addDocument(t, "bot-1", "doc-1", "notes.txt", "stable knowledge")
	require.NoError(t, wide.Enqueue("bot-1"))
	wide.Wait()

	doc, err := f.catalog.GetDocument("bot-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.DocumentError, doc.Status)
	assert.Contains(t, doc.Error, kb.ErrDimensionMismatch.Error())

	bot, err := f.catalog.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotError, bot.Status)
}

func TestConcurrentEnqueueCoalesces(t *testing.T) {
	f := newFixture(t)
	f.addChatbot(t, "bot-1")
	f.addDocument(t, "bot-1", "doc-1", "notes.txt", strings.Repeat("knowledge base material. ", 80))

	// Back-to-back deploys for the same chatbot must serialize: the
	// second either queues a rerun behind the first or runs after it,
	// never interleaving adds to the same store.
	for range 5 {
		require.NoError(t, f.pipeline.Enqueue("bot-1"))
	}
	f.pipeline.Wait()

	bot, err := f.catalog.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotReady, bot.Status)

	// Chunks were replaced, not accumulated, across the repeated runs.
	store, err := f.arena.Open("bot-1")
	require.NoError(t, err)
	count, err := store.Count()
	require.NoError(t, err)

	f.addDocument(t, "bot-1", "doc-1", "notes.txt", strings.Repeat("knowledge base material. ", 80))
	require.NoError(t, f.pipeline.Enqueue("bot-1"))
	f.pipeline.Wait()

	after, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, count, after)
}
