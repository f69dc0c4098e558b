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
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/docbot/ai/mock"
	"github.com/poiesic/docbot/catalog"
	"github.com/poiesic/docbot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlatform(t *testing.T) *Platform {
	t.Helper()
	p, err := New(t.Context(), t.TempDir(), WithProvider(mock.NewProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestCreateChatbot(t *testing.T) {
	p := newTestPlatform(t)

	bot, err := p.CreateChatbot("Support Bot", "You answer support questions.", "llama3.2")
	require.NoError(t, err)
	assert.NotEmpty(t, bot.Id)
	assert.Equal(t, core.ChatbotCreating, bot.Status)

	_, err = p.CreateChatbot("", "prompt", "")
	assert.ErrorIs(t, err, core.ErrEmptyName)

	bots, err := p.ListChatbots()
	require.NoError(t, err)
	assert.Len(t, bots, 1)
}

func TestUploadDeployQuery(t *testing.T) {
	p := newTestPlatform(t)

	bot, err := p.CreateChatbot("Support Bot", "You answer support questions.", "llama3.2")
	require.NoError(t, err)

	_, err = p.UploadDocument(bot.Id, "policy.txt", strings.NewReader("Refunds are issued within 30 days."))
	require.NoError(t, err)

	require.NoError(t, p.Deploy(bot.Id))
	p.Wait()

	status, err := p.Status(bot.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotReady, status.Status)
	assert.Equal(t, 1, status.DocumentCount)

	answer, err := p.Query(t.Context(), bot.Id, "What is the refund policy?", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Text)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "policy.txt", answer.Sources[0].Filename)
}

func TestUploadValidation(t *testing.T) {
	p := newTestPlatform(t)
	bot, err := p.CreateChatbot("bot", "prompt", "")
	require.NoError(t, err)

	_, err = p.UploadDocument(bot.Id, "image.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFileType)

	_, err = p.UploadDocument("ghost", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, catalog.ErrChatbotNotFound)
}

func TestUploadDocumentLimit(t *testing.T) {
	p := newTestPlatform(t)
	bot, err := p.CreateChatbot("bot", "prompt", "")
	require.NoError(t, err)

	for i := 0; i < core.MaxDocumentsPerChatbot; i++ {
		_, err = p.UploadDocument(bot.Id, fmt.Sprintf("doc%d.txt", i), strings.NewReader("content"))
		require.NoError(t, err)
	}

	_, err = p.UploadDocument(bot.Id, "one-too-many.txt", strings.NewReader("content"))
	assert.ErrorIs(t, err, core.ErrTooManyDocuments)
}

func TestDeleteDocumentRevertsEmptyChatbot(t *testing.T) {
	p := newTestPlatform(t)
	bot, err := p.CreateChatbot("bot", "prompt", "")
	require.NoError(t, err)

	doc, err := p.UploadDocument(bot.Id, "only.txt", strings.NewReader("the only knowledge"))
	require.NoError(t, err)
	require.NoError(t, p.Deploy(bot.Id))
	p.Wait()

	require.NoError(t, p.DeleteDocument(bot.Id, doc.Id))

	status, err := p.Status(bot.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotCreating, status.Status)
	assert.Equal(t, 0, status.DocumentCount)

	// Querying still works, just without context.
	answer, err := p.Query(t.Context(), bot.Id, "anything?", nil)
	require.NoError(t, err)
	assert.Empty(t, answer.Sources)
}

func TestDeleteChatbotCascades(t *testing.T) {
	p := newTestPlatform(t)
	bot, err := p.CreateChatbot("bot", "prompt", "")
	require.NoError(t, err)

	_, err = p.UploadDocument(bot.Id, "a.txt", strings.NewReader("knowledge"))
	require.NoError(t, err)
	require.NoError(t, p.Deploy(bot.Id))
	p.Wait()

	require.NoError(t, p.DeleteChatbot(bot.Id))

	_, err = p.Status(bot.Id)
	assert.ErrorIs(t, err, catalog.ErrChatbotNotFound)

	_, err = p.Query(t.Context(), bot.Id, "hello?", nil)
	assert.ErrorIs(t, err, catalog.ErrChatbotNotFound)
}

func TestDeployDraft(t *testing.T) {
	p := newTestPlatform(t)
	bot, err := p.CreateChatbot("bot", "prompt", "")
	require.NoError(t, err)

	_, err = p.Staging().Add("draft-1", "a.txt", strings.NewReader("staged knowledge"))
	require.NoError(t, err)
	_, err = p.Staging().Add("draft-1", "b.txt", strings.NewReader("more staged knowledge"))
	require.NoError(t, err)

	require.NoError(t, p.DeployDraft("draft-1", bot.Id))
	p.Wait()

	status, err := p.Status(bot.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotReady, status.Status)
	assert.Equal(t, 2, status.DocumentCount)

	// The draft survives for iterative editing.
	files, err := p.Staging().List("draft-1")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDeployDraftNewChatbot(t *testing.T) {
	p := newTestPlatform(t)

	_, err := p.Staging().Add("draft-2", "notes.txt", strings.NewReader("fresh chatbot knowledge"))
	require.NoError(t, err)

	bot, err := p.DeployDraftNew("draft-2", "from-draft", "answer from the notes", "")
	require.NoError(t, err)
	p.Wait()

	status, err := p.Status(bot.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ChatbotReady, status.Status)
	assert.Equal(t, 1, status.DocumentCount)
}
