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


package kb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Arena manages the knowledge stores of all chatbots under a single base
// directory. Each chatbot gets its own isolated database directory, so
// deleting one chatbot's knowledge never touches another's.
type Arena struct {
	basePath string
	logger   *slog.Logger

	mu     sync.Mutex
	open   map[string]*Store
	closed bool
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// NewArena creates an arena rooted at basePath.
// The directory is created if it doesn't exist.
func NewArena(basePath string) (*Arena, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	return &Arena{
		basePath: basePath,
		logger:   slog.Default().With("component", "kb-arena"),
		open:     make(map[string]*Store),
	}, nil
}

func (a *Arena) storePath(chatbotID string) string {
	return filepath.Join(a.basePath, chatbotID)
}

// Exists reports whether a store exists on disk for the chatbot.
func (a *Arena) Exists(chatbotID string) bool {
	info, err := os.Stat(a.storePath(chatbotID))
	return err == nil && info.IsDir()
}

// Create creates a new store for a chatbot with the given vector dimension.
// Returns ErrStoreExists if the chatbot already has one.
func (a *Arena) Create(chatbotID string, dimension int) (*Store, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("kb: dimension must be positive, got %d", dimension)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrStoreClosed
	}
	if _, ok := a.open[chatbotID]; ok {
		return nil, fmt.Errorf("%w: chatbot %s", ErrStoreExists, chatbotID)
	}

	path := a.storePath(chatbotID)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%w: chatbot %s", ErrStoreExists, chatbotID)
	}

	db, err := a.openDB(path)
	if err != nil {
		return nil, err
	}

	m := manifest{
		ChatbotId: chatbotID,
		Dimension: dimension,
		CreatedAt: time.Now().UTC(),
	}
	err = db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(manifestKey), marshalManifest(m))
	})
	if err != nil {
		db.Close()
		os.RemoveAll(path)
		return nil, err
	}

	store := &Store{
		db:       db,
		manifest: m,
		logger:   slog.Default().With("component", "kb-store", "chatbot", chatbotID),
	}
	a.open[chatbotID] = store
	a.logger.Info("created knowledge store", "chatbot", chatbotID, "dimension", dimension)
	return store, nil
}

// Open returns the store for a chatbot, opening it from disk if needed.
// Returns ErrStoreNotFound if the chatbot has no store.
func (a *Arena) Open(chatbotID string) (*Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrStoreClosed
	}
	if store, ok := a.open[chatbotID]; ok {
		return store, nil
	}

	path := a.storePath(chatbotID)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: chatbot %s", ErrStoreNotFound, chatbotID)
	}

	db, err := a.openDB(path)
	if err != nil {
		return nil, err
	}

	var m manifest
	err = db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(manifestKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			m, err = unmarshalManifest(val)
			return err
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kb: read manifest for chatbot %s: %w", chatbotID, err)
	}

	store := &Store{
		db:       db,
		manifest: m,
		logger:   slog.Default().With("component", "kb-store", "chatbot", chatbotID),
	}
	a.open[chatbotID] = store
	return store, nil
}

// Delete destroys the store of a chatbot: the store is closed and its
// directory removed from disk. Deleting a chatbot without a store is a
// no-op.
func (a *Arena) Delete(chatbotID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if store, ok := a.open[chatbotID]; ok {
		if err := store.close(); err != nil {
			a.logger.Warn("error closing store before delete", "chatbot", chatbotID, "err", err)
		}
		delete(a.open, chatbotID)
	}

	if err := os.RemoveAll(a.storePath(chatbotID)); err != nil {
		return err
	}
	a.logger.Info("deleted knowledge store", "chatbot", chatbotID)
	return nil
}

// Close closes every open store. The arena cannot be used afterwards.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	for id, store := range a.open {
		if err := store.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(a.open, id)
	}
	return firstErr
}

func (a *Arena) openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None
	return badger.Open(opts)
}
