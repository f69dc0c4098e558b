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
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/docbot/core"
)

// Catalog stores chatbot and document metadata in a single BadgerDB
// database. Chunk data lives elsewhere, in the per-chatbot knowledge
// stores.
type Catalog struct {
	db     *badger.DB
	logger *slog.Logger
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

// Open opens the catalog database at the given path, creating it if needed.
func Open(path string) (*Catalog, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		db:     db,
		logger: slog.Default().With("component", "catalog"),
	}, nil
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// PutChatbot inserts or updates a chatbot row. UpdatedAt is stamped on
// every write.
func (c *Catalog) PutChatbot(bot *core.Chatbot) error {
	bot.UpdatedAt = time.Now().UTC()

	bs := make([]byte, core.ChatbotMUS.Size(*bot))
	core.ChatbotMUS.Marshal(*bot, bs)

	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeChatbotKey(bot.Id), bs)
	})
}

// GetChatbot returns the chatbot with the given id, including its derived
// document count. Returns ErrChatbotNotFound if no such chatbot exists.
func (c *Catalog) GetChatbot(id string) (*core.Chatbot, error) {
	var bot core.Chatbot
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChatbotKey(id))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			bot, _, err = core.ChatbotMUS.Unmarshal(val)
			return err
		}); err != nil {
			return err
		}
		bot.DocumentCount = countDocuments(tx, id)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrChatbotNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

// ListChatbots returns all chatbots ordered by creation time, newest first.
func (c *Catalog) ListChatbots() ([]*core.Chatbot, error) {
	var bots []*core.Chatbot
	err := c.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chatbotPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var bot core.Chatbot
			err := iter.Item().Value(func(val []byte) error {
				var err error
				bot, _, err = core.ChatbotMUS.Unmarshal(val)
				return err
			})
			if err != nil {
				return err
			}
			bot.DocumentCount = countDocuments(tx, bot.Id)
			bots = append(bots, &bot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(bots, func(a, b *core.Chatbot) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return bots, nil
}

// SetChatbotStatus updates just the status of a chatbot.
func (c *Catalog) SetChatbotStatus(id string, status core.ChatbotStatus) error {
	bot, err := c.GetChatbot(id)
	if err != nil {
		return err
	}
	bot.Status = status
	return c.PutChatbot(bot)
}

// DeleteChatbot removes a chatbot and all of its document rows in one
// transaction. Returns ErrChatbotNotFound if no such chatbot exists.
func (c *Catalog) DeleteChatbot(id string) error {
	key := makeChatbotKey(id)
	err := c.db.Update(func(tx *badger.Txn) error {
		if _, err := tx.Get(key); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}

		// Cascade to document rows.
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentScanPrefix(id)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var docKeys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			docKeys = append(docKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, dk := range docKeys {
			if err := tx.Delete(dk); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrChatbotNotFound, id)
	}
	if err != nil {
		return err
	}
	c.logger.Info("deleted chatbot", "chatbot", id)
	return nil
}

// PutDocument inserts or updates a document row.
func (c *Catalog) PutDocument(doc *core.Document) error {
	bs := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, bs)

	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeDocumentKey(doc.ChatbotId, doc.Id), bs)
	})
}

// GetDocument returns a document row. Returns ErrDocumentNotFound if no
// such document exists under the chatbot.
func (c *Catalog) GetDocument(chatbotID, documentID string) (*core.Document, error) {
	var doc core.Document
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(chatbotID, documentID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			doc, _, err = core.DocumentMUS.Unmarshal(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns a chatbot's documents ordered by upload time,
// oldest first.
func (c *Catalog) ListDocuments(chatbotID string) ([]*core.Document, error) {
	var docs []*core.Document
	err := c.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentScanPrefix(chatbotID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, _, err = core.DocumentMUS.Unmarshal(val)
				return err
			})
			if err != nil {
				return err
			}
			docs = append(docs, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(docs, func(a, b *core.Document) int {
		return a.UploadedAt.Compare(b.UploadedAt)
	})
	return docs, nil
}

// SetDocumentStatus updates a document's status and error message.
func (c *Catalog) SetDocumentStatus(chatbotID, documentID string, status core.DocumentStatus, errMsg string) error {
	doc, err := c.GetDocument(chatbotID, documentID)
	if err != nil {
		return err
	}
	doc.Status = status
	doc.Error = errMsg
	return c.PutDocument(doc)
}

// DeleteDocument removes a document row. Returns ErrDocumentNotFound if no
// such document exists.
func (c *Catalog) DeleteDocument(chatbotID, documentID string) error {
	err := c.db.Update(func(tx *badger.Txn) error {
		key := makeDocumentKey(chatbotID, documentID)
		if _, err := tx.Get(key); err != nil {
			return err
		}
		return tx.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	return err
}

// CountDocuments returns the number of documents a chatbot has.
func (c *Catalog) CountDocuments(chatbotID string) (int, error) {
	count := 0
	err := c.db.View(func(tx *badger.Txn) error {
		count = countDocuments(tx, chatbotID)
		return nil
	})
	return count, err
}

func countDocuments(tx *badger.Txn, chatbotID string) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeDocumentScanPrefix(chatbotID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	count := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		count++
	}
	return count
}
