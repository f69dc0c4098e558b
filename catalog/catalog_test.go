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


package catalog

import (
	"testing"
	"time"

	"github.com/poiesic/docbot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func newTestChatbot(id string) *core.Chatbot {
	return &core.Chatbot{
		Id:           id,
		Name:         "Support Bot",
		SystemPrompt: "You answer support questions.",
		Model:        "llama3.2",
		Status:       core.ChatbotCreating,
		CreatedAt:    time.Now().UTC(),
	}
}

func newTestDocument(chatbotID, id string) *core.Document {
	return &core.Document{
		Id:         id,
		ChatbotId:  chatbotID,
		Filename:   id + ".txt",
		Type:       core.DocTypeTXT,
		Size:       42,
		Path:       "uploads/" + chatbotID + "/" + id + ".txt",
		Status:     core.DocumentUploaded,
		UploadedAt: time.Now().UTC(),
	}
}

func TestChatbotLifecycle(t *testing.T) {
	c := newTestCatalog(t)

	bot := newTestChatbot("bot-1")
	require.NoError(t, c.PutChatbot(bot))

	got, err := c.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, "Support Bot", got.Name)
	assert.Equal(t, core.ChatbotCreating, got.Status)
	assert.Equal(t, 0, got.DocumentCount)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, c.SetChatbotStatus("bot-1", core.ChatbotReady))
	got, err = c.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotReady, got.Status)
}

func TestGetChatbotNotFound(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.GetChatbot("missing")
	assert.ErrorIs(t, err, ErrChatbotNotFound)

	err = c.SetChatbotStatus("missing", core.ChatbotReady)
	assert.ErrorIs(t, err, ErrChatbotNotFound)
}

func TestListChatbotsNewestFirst(t *testing.T) {
	c := newTestCatalog(t)

	older := newTestChatbot("bot-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestChatbot("bot-new")

	require.NoError(t, c.PutChatbot(older))
	require.NoError(t, c.PutChatbot(newer))

	bots, err := c.ListChatbots()
	require.NoError(t, err)
	require.Len(t, bots, 2)
	assert.Equal(t, "bot-new", bots[0].Id)
	assert.Equal(t, "bot-old", bots[1].Id)
}

func TestDocumentLifecycle(t *testing.T) {
	c := newTestCatalog(t)
	require.NoError(t, c.PutChatbot(newTestChatbot("bot-1")))

	doc := newTestDocument("bot-1", "doc-1")
	require.NoError(t, c.PutDocument(doc))

	got, err := c.GetDocument("bot-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.DocumentUploaded, got.Status)

	require.NoError(t, c.SetDocumentStatus("bot-1", "doc-1", core.DocumentError, "no extractable text"))
	got, err = c.GetDocument("bot-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.DocumentError, got.Status)
	assert.Equal(t, "no extractable text", got.Error)

	bot, err := c.GetChatbot("bot-1")
	require.NoError(t, err)
	assert.Equal(t, 1, bot.DocumentCount)

	require.NoError(t, c.DeleteDocument("bot-1", "doc-1"))
	_, err = c.GetDocument("bot-1", "doc-1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	err = c.DeleteDocument("bot-1", "doc-1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestListDocumentsOldestFirst(t *testing.T) {
	c := newTestCatalog(t)

	first := newTestDocument("bot-1", "doc-1")
	first.UploadedAt = time.Now().UTC().Add(-time.Minute)
	second := newTestDocument("bot-1", "doc-2")

	require.NoError(t, c.PutDocument(second))
	require.NoError(t, c.PutDocument(first))

	docs, err := c.ListDocuments("bot-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].Id)
	assert.Equal(t, "doc-2", docs[1].Id)
}

func TestDeleteChatbotCascades(t *testing.T) {
	c := newTestCatalog(t)

	require.NoError(t, c.PutChatbot(newTestChatbot("bot-1")))
	require.NoError(t, c.PutChatbot(newTestChatbot("bot-2")))
	require.NoError(t, c.PutDocument(newTestDocument("bot-1", "doc-1")))
	require.NoError(t, c.PutDocument(newTestDocument("bot-1", "doc-2")))
	require.NoError(t, c.PutDocument(newTestDocument("bot-2", "doc-3")))

	require.NoError(t, c.DeleteChatbot("bot-1"))

	_, err := c.GetChatbot("bot-1")
	assert.ErrorIs(t, err, ErrChatbotNotFound)
	_, err = c.GetDocument("bot-1", "doc-1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	// The other chatbot is untouched.
	docs, err := c.ListDocuments("bot-2")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	err = c.DeleteChatbot("bot-1")
	assert.ErrorIs(t, err, ErrChatbotNotFound)
}
