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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/docbot/core"
)

// ErrDraftNotFound indicates the draft id has no staged files.
var ErrDraftNotFound = errors.New("draft: not found")

// ErrInvalidDraftID indicates a draft id containing path elements.
var ErrInvalidDraftID = errors.New("draft: invalid draft id")

// StagedFile describes one file held in a draft.
type StagedFile struct {
	DraftId  string
	Filename string
	Type     core.DocType
	Size     int64
	Path     string
	AddedAt  time.Time
}

// Staging holds raw uploaded files before a chatbot exists to own them.
// Files are staged per draft id, validated but never embedded; promotion
// copies them out while preserving the draft for iterative editing.
type Staging struct {
	basePath string
	logger   *slog.Logger
}

// NewStaging creates a staging area rooted at basePath.
// The directory is created if it doesn't exist.
func NewStaging(basePath string) (*Staging, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	return &Staging{
		basePath: basePath,
		logger:   slog.Default().With("component", "draft-staging"),
	}, nil
}

func (s *Staging) draftPath(draftID string) string {
	return filepath.Join(s.basePath, draftID)
}

// validateDraftID rejects ids that would resolve outside the staging
// root. Draft ids are caller-supplied, so they get the same path-element
// screening as filenames.
func validateDraftID(draftID string) error {
	if draftID == "" {
		return core.ErrEmptyID
	}
	if filepath.Base(draftID) != draftID || draftID == "." || draftID == ".." {
		return fmt.Errorf("%w: %q contains path elements", ErrInvalidDraftID, draftID)
	}
	return nil
}

// Add stages a file under a draft id. The filename is validated for type
// and path safety, and the copy is capped at the upload size limit.
// An existing staged file with the same name is replaced.
func (s *Staging) Add(draftID, filename string, r io.Reader) (*StagedFile, error) {
	if err := validateDraftID(draftID); err != nil {
		return nil, err
	}
	typ, err := core.ValidateUploadFilename(filename)
	if err != nil {
		return nil, err
	}

	dir := s.draftPath(draftID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	// Read one byte past the cap to tell "exactly at the limit" from
	// "over it".
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

	s.logger.Debug("staged file", "draft", draftID, "filename", filename, "size", written)
	return &StagedFile{
		DraftId:  draftID,
		Filename: filename,
		Type:     typ,
		Size:     written,
		Path:     path,
		AddedAt:  time.Now().UTC(),
	}, nil
}

// List returns the files staged under a draft id, ordered by filename.
// An unknown draft returns ErrDraftNotFound.
func (s *Staging) List(draftID string) ([]*StagedFile, error) {
	if err := validateDraftID(draftID); err != nil {
		return nil, err
	}
	dir := s.draftPath(draftID)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
	}
	if err != nil {
		return nil, err
	}

	var files []*StagedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		typ, err := core.DetectDocType(entry.Name())
		if err != nil {
			// Not staged by us; ignore.
			continue
		}
		files = append(files, &StagedFile{
			DraftId:  draftID,
			Filename: entry.Name(),
			Type:     typ,
			Size:     info.Size(),
			Path:     filepath.Join(dir, entry.Name()),
			AddedAt:  info.ModTime().UTC(),
		})
	}
	return files, nil
}

// Remove deletes a single staged file from a draft.
func (s *Staging) Remove(draftID, filename string) error {
	if err := validateDraftID(draftID); err != nil {
		return err
	}
	if _, err := core.ValidateUploadFilename(filename); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.draftPath(draftID), filename))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", ErrDraftNotFound, draftID, filename)
	}
	return err
}

// Delete removes a draft and all of its staged files.
// Deleting a nonexistent draft is a no-op.
func (s *Staging) Delete(draftID string) error {
	if err := validateDraftID(draftID); err != nil {
		return err
	}
	return os.RemoveAll(s.draftPath(draftID))
}

// Promote hands every staged file of a draft to fn, in filename order.
// The staging area is preserved, so a failed deployment can be retried
// and a successful one can be iterated on without re-uploading.
// Promotion stops at the first fn error.
func (s *Staging) Promote(draftID string, fn func(file *StagedFile) error) error {
	files, err := s.List(draftID)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := fn(file); err != nil {
			return fmt.Errorf("promote %s: %w", file.Filename, err)
		}
	}
	s.logger.Info("promoted draft", "draft", draftID, "files", len(files))
	return nil
}

// Sweep garbage-collects drafts whose newest file is older than maxIdle.
// Returns the number of drafts removed.
func (s *Staging) Sweep(maxIdle time.Duration) (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		newest, err := newestModTime(filepath.Join(s.basePath, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable draft", "draft", entry.Name(), "err", err)
			continue
		}
		if newest.Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(s.basePath, entry.Name())); err != nil {
				return removed, err
			}
			removed++
			s.logger.Info("swept idle draft", "draft", entry.Name())
		}
	}
	return removed, nil
}

// newestModTime returns the most recent modification time among a draft
// directory and its files.
func newestModTime(dir string) (time.Time, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return time.Time{}, err
	}
	newest := info.ModTime()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, err
	}
	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
	}
	return newest, nil
}
