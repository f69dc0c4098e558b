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


package draft

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docbot/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStaging(t *testing.T) *Staging {
	t.Helper()
	s, err := NewStaging(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestAddAndList(t *testing.T) {
	s := newTestStaging(t)

	file, err := s.Add("draft-1", "notes.txt", strings.NewReader("staged content"))
	require.NoError(t, err)
	assert.Equal(t, core.DocTypeTXT, file.Type)
	assert.Equal(t, int64(14), file.Size)

	files, err := s.List("draft-1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].Filename)

	data, err := os.ReadFile(files[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "staged content", string(data))
}

func TestAddValidation(t *testing.T) {
	s := newTestStaging(t)

	_, err := s.Add("", "notes.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, core.ErrEmptyID)

	_, err = s.Add("draft-1", "../escape.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, core.ErrInvalidFilename)

	_, err = s.Add("draft-1", "archive.zip", strings.NewReader("x"))
	assert.ErrorIs(t, err, core.ErrUnsupportedFileType)
}

func TestDraftIDCannotEscapeStagingRoot(t *testing.T) {
	base := t.TempDir()
	sibling := filepath.Join(base, "sibling")
	require.NoError(t, os.MkdirAll(sibling, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sibling, "keep.txt"), []byte("keep"), 0o644))

	s, err := NewStaging(filepath.Join(base, "drafts"))
	require.NoError(t, err)

	_, err = s.Add("../sibling", "planted.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidDraftID)
	assert.NoFileExists(t, filepath.Join(sibling, "planted.txt"))

	assert.ErrorIs(t, s.Delete("../sibling"), ErrInvalidDraftID)
	assert.FileExists(t, filepath.Join(sibling, "keep.txt"))

	_, err = s.List("../sibling")
	assert.ErrorIs(t, err, ErrInvalidDraftID)
	assert.ErrorIs(t, s.Remove("../sibling", "keep.txt"), ErrInvalidDraftID)
	assert.ErrorIs(t, s.Promote("..", func(*StagedFile) error { return nil }), ErrInvalidDraftID)
}

func TestAddReplacesExisting(t *testing.T) {
	s := newTestStaging(t)

	_, err := s.Add("draft-1", "notes.txt", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = s.Add("draft-1", "notes.txt", strings.NewReader("second"))
	require.NoError(t, err)

	files, err := s.List("draft-1")
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestListUnknownDraft(t *testing.T) {
	s := newTestStaging(t)
	_, err := s.List("nope")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRemove(t *testing.T) {
	s := newTestStaging(t)

	_, err := s.Add("draft-1", "a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = s.Add("draft-1", "b.txt", strings.NewReader("b"))
	require.NoError(t, err)

	require.NoError(t, s.Remove("draft-1", "a.txt"))

	files, err := s.List("draft-1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "b.txt", files[0].Filename)

	err = s.Remove("draft-1", "a.txt")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDeleteIdempotent(t *testing.T) {
	s := newTestStaging(t)

	_, err := s.Add("draft-1", "a.txt", strings.NewReader("a"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("draft-1"))
	require.NoError(t, s.Delete("draft-1"))

	_, err = s.List("draft-1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestPromotePreservesStaging(t *testing.T) {
	s := newTestStaging(t)

	_, err := s.Add("draft-1", "a.txt", strings.NewReader("aaa"))
	require.NoError(t, err)
	_, err = s.Add("draft-1", "b.txt", strings.NewReader("bbb"))
	require.NoError(t, err)

	var promoted []string
	require.NoError(t, s.Promote("draft-1", func(file *StagedFile) error {
		promoted = append(promoted, file.Filename)
		return nil
	}))
	assert.Equal(t, []string{"a.txt", "b.txt"}, promoted)

	// The draft survives promotion.
	files, err := s.List("draft-1")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestSweep(t *testing.T) {
	s := newTestStaging(t)

	_, err := s.Add("draft-old", "a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = s.Add("draft-new", "b.txt", strings.NewReader("b"))
	require.NoError(t, err)

	// Age the old draft on disk.
	past := time.Now().Add(-2 * time.Hour)
	oldDir := filepath.Join(s.basePath, "draft-old")
	require.NoError(t, os.Chtimes(filepath.Join(oldDir, "a.txt"), past, past))
	require.NoError(t, os.Chtimes(oldDir, past, past))

	removed, err := s.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.List("draft-old")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, err = s.List("draft-new")
	assert.NoError(t, err)
}
