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
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docbot/core"
)

// Store is the knowledge base of a single chatbot: an embedded database of
// embedded chunks with a fixed vector dimension. Stores are created and
// opened through an Arena.
type Store struct {
	db       *badger.DB
	manifest manifest
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// ChatbotId returns the owning chatbot's identifier.
func (s *Store) ChatbotId() string {
	return s.manifest.ChatbotId
}

// Dimension returns the vector dimension the store was created with.
// Every vector added to or searched against the store must have this
// length.
func (s *Store) Dimension() int {
	return s.manifest.Dimension
}

// Add inserts chunk records in a single transaction. Vectors are
// normalized to unit length before storage. An existing record with the
// same document and index is overwritten.
func (s *Store) Add(records []core.ChunkRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	for i := range records {
		if len(records[i].Vector) != s.manifest.Dimension {
			return fmt.Errorf("%w: record %d has %d, store has %d",
				ErrDimensionMismatch, i, len(records[i].Vector), s.manifest.Dimension)
		}
	}

	err := s.db.Update(func(tx *badger.Txn) error {
		for i := range records {
			rec := records[i]
			rec.Vector = normalize(slices.Clone(rec.Vector))

			bs := make([]byte, core.ChunkRecordMUS.Size(rec))
			core.ChunkRecordMUS.Marshal(rec, bs)
			key := makeChunkKey(rec.DocumentId, rec.Index)
			if err := tx.Set(key, bs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to add chunk records", "chatbot", s.manifest.ChatbotId, "count", len(records), "err", err)
		return err
	}

	s.logger.Debug("added chunk records", "chatbot", s.manifest.ChatbotId, "count", len(records))
	return nil
}

// Search returns the k chunks most similar to the query vector, ordered by
// descending cosine similarity. Fewer than k results are returned when the
// store holds fewer chunks. The query vector is normalized before scoring.
func (s *Store) Search(vector []float32, k int) ([]core.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if len(vector) != s.manifest.Dimension {
		return nil, fmt.Errorf("%w: query has %d, store has %d",
			ErrDimensionMismatch, len(vector), s.manifest.Dimension)
	}
	if k < 1 {
		return nil, nil
	}

	query := normalize(slices.Clone(vector))

	var results []core.ScoredChunk
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record core.ChunkRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, _, err = core.ChunkRecordMUS.Unmarshal(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(record.Vector) == 0 {
				continue
			}

			// Stored vectors are unit length, so the dot product is
			// the cosine similarity.
			score := dotProduct(query, record.Vector)
			rec := record
			results = append(results, core.ScoredChunk{Record: &rec, Score: score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// RemoveDocument deletes every chunk belonging to a document.
// Removing a document that has no chunks is a no-op.
func (s *Store) RemoveDocument(documentID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	prefix := makeDocumentPrefix(documentID)

	// Collect first, then delete. Badger forbids writes while iterating
	// the same transaction's pending set.
	var keys [][]byte
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		s.logger.Error("failed to remove document chunks", "chatbot", s.manifest.ChatbotId, "document", documentID, "err", err)
		return err
	}

	s.logger.Debug("removed document chunks", "chatbot", s.manifest.ChatbotId, "document", documentID, "count", len(keys))
	return nil
}

// Count returns the number of chunks in the store.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	count := 0
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// close shuts the underlying database. Safe to call more than once.
func (s *Store) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
