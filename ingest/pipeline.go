package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docbot/ai"
	"github.com/poiesic/docbot/catalog"
	"github.com/poiesic/docbot/chunk"
	"github.com/poiesic/docbot/core"
	"github.com/poiesic/docbot/extract"
	"github.com/poiesic/docbot/kb"
)

// Pipeline turns a chatbot's uploaded documents into searchable knowledge.
// Deployment runs asynchronously on a worker pool: each document is
// extracted, chunked, embedded, and written to the chatbot's knowledge
// store. Documents fail independently; a chatbot ends up in the error
// state only when none of its documents produced knowledge.
type Pipeline struct {
	catalog  *catalog.Catalog
	arena    *kb.Arena
	embedder ai.Embedder
	registry *extract.Registry
	splitter *chunk.Splitter
	pool     *ants.Pool
	logger   *slog.Logger

	// busy tracks chatbots with a deployment in flight; rerun marks
	// chatbots that were enqueued again while busy and need another pass.
	mu    sync.Mutex
	busy  map[string]bool
	rerun map[string]bool
	wg    sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent deployments.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithSplitter sets the chunk splitter.
// Default is the default splitter from the chunk package.
func WithSplitter(s *chunk.Splitter) Option {
	return func(p *Pipeline) error {
		if s != nil {
			p.splitter = s
		}
		return nil
	}
}

// WithRegistry sets the extractor registry.
// Default is the built-in registry with PDF, TXT, and DOCX extractors.
func WithRegistry(r *extract.Registry) Option {
	return func(p *Pipeline) error {
		if r != nil {
			p.registry = r
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(cat *catalog.Catalog, arena *kb.Arena, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if cat == nil {
		return nil, ErrCatalogRequired
	}
	if arena == nil {
		return nil, ErrArenaRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		catalog:  cat,
		arena:    arena,
		embedder: embedder,
		registry: extract.NewRegistry(),
		splitter: chunk.NewDefaultSplitter(),
		pool:     pool,
		logger:   slog.Default().With("component", "ingest"),
		busy:     make(map[string]bool),
		rerun:    make(map[string]bool),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Enqueue schedules a deployment pass for a chatbot. The chatbot's status
// flips to processing before Enqueue returns; the heavy work runs on the
// worker pool. Calling Enqueue while a pass is already running coalesces
// into a single follow-up pass, so concurrent deploys never interleave
// writes to the same store.
func (p *Pipeline) Enqueue(chatbotID string) error {
	if _, err := p.catalog.GetChatbot(chatbotID); err != nil {
		return err
	}
	if err := p.catalog.SetChatbotStatus(chatbotID, core.ChatbotProcessing); err != nil {
		return err
	}

	p.mu.Lock()
	if p.busy[chatbotID] {
		p.rerun[chatbotID] = true
		p.mu.Unlock()
		p.logger.Debug("deployment already running, queued rerun", "chatbot", chatbotID)
		return nil
	}
	p.busy[chatbotID] = true
	p.mu.Unlock()

	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		p.run(chatbotID)
	})
	if err != nil {
		p.wg.Done()
		p.mu.Lock()
		delete(p.busy, chatbotID)
		p.mu.Unlock()
		return err
	}
	return nil
}

// run executes one deployment pass and any coalesced reruns.
func (p *Pipeline) run(chatbotID string) {
	for {
		p.deploy(chatbotID)

		p.mu.Lock()
		if p.rerun[chatbotID] {
			delete(p.rerun, chatbotID)
			p.mu.Unlock()
			continue
		}
		delete(p.busy, chatbotID)
		p.mu.Unlock()
		return
	}
}

// deploy processes every pending document of a chatbot and settles the
// chatbot's final status.
func (p *Pipeline) deploy(chatbotID string) {
	ctx := context.Background()
	logger := p.logger.With("chatbot", chatbotID)

	docs, err := p.catalog.ListDocuments(chatbotID)
	if err != nil {
		logger.Error("failed to list documents", "err", err)
		p.setStatus(chatbotID, core.ChatbotError)
		return
	}

	if len(docs) == 0 {
		// Nothing to deploy; the chatbot goes back to waiting for uploads.
		p.setStatus(chatbotID, core.ChatbotCreating)
		return
	}

	completed := 0
	for _, doc := range docs {
		if doc.Status == core.DocumentCompleted {
			completed++
			continue
		}
		if err := p.processDocument(ctx, doc); err != nil {
			logger.Warn("document failed", "document", doc.Id, "filename", doc.Filename, "err", err)
			if serr := p.catalog.SetDocumentStatus(chatbotID, doc.Id, core.DocumentError, err.Error()); serr != nil {
				logger.Error("failed to record document error", "document", doc.Id, "err", serr)
			}
			continue
		}
		completed++
	}

	if completed > 0 {
		p.setStatus(chatbotID, core.ChatbotReady)
		logger.Info("deployment finished", "documents", len(docs), "completed", completed)
	} else {
		p.setStatus(chatbotID, core.ChatbotError)
		logger.Error("deployment failed, no document produced knowledge", "documents", len(docs))
	}
}

// processDocument runs one document through extract, split, embed, store.
func (p *Pipeline) processDocument(ctx context.Context, doc *core.Document) error {
	if err := p.catalog.SetDocumentStatus(doc.ChatbotId, doc.Id, core.DocumentProcessing, ""); err != nil {
		return err
	}

	text, err := p.registry.Extract(doc.Type, doc.Path)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return extract.ErrNoContent
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	store, err := p.ensureStore(doc.ChatbotId)
	if err != nil {
		return err
	}

	records := make([]core.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = core.ChunkRecord{
			Id:         core.IDFromContent([]byte(doc.Id + c.Text)),
			DocumentId: doc.Id,
			Filename:   doc.Filename,
			Index:      c.Index,
			Text:       c.Text,
			Vector:     vectors[i],
		}
	}

	// Drop any chunks from a previous run of this document before adding,
	// so a re-deploy never leaves stale knowledge behind.
	if err := store.RemoveDocument(doc.Id); err != nil {
		return fmt.Errorf("remove stale chunks: %w", err)
	}
	if err := store.Add(records); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	if err := p.catalog.SetDocumentStatus(doc.ChatbotId, doc.Id, core.DocumentCompleted, ""); err != nil {
		return err
	}
	p.logger.Debug("document processed", "chatbot", doc.ChatbotId, "document", doc.Id, "chunks", len(records))
	return nil
}

// ensureStore opens the chatbot's knowledge store, creating it on first
// deployment with the embedder's vector dimension.
func (p *Pipeline) ensureStore(chatbotID string) (*kb.Store, error) {
	store, err := p.arena.Open(chatbotID)
	if errors.Is(err, kb.ErrStoreNotFound) {
		return p.arena.Create(chatbotID, p.embedder.Dimension())
	}
	if err != nil {
		return nil, err
	}
	if store.Dimension() != p.embedder.Dimension() {
		return nil, fmt.Errorf("%w: store has %d, embedder produces %d",
			kb.ErrDimensionMismatch, store.Dimension(), p.embedder.Dimension())
	}
	return store, nil
}

// RemoveDocument drops a document's chunks from the chatbot's knowledge
// store. A chatbot without a store is a no-op.
func (p *Pipeline) RemoveDocument(chatbotID, documentID string) error {
	store, err := p.arena.Open(chatbotID)
	if errors.Is(err, kb.ErrStoreNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return store.RemoveDocument(documentID)
}

func (p *Pipeline) setStatus(chatbotID string, status core.ChatbotStatus) {
	if err := p.catalog.SetChatbotStatus(chatbotID, status); err != nil {
		p.logger.Error("failed to update chatbot status", "chatbot", chatbotID, "status", status, "err", err)
	}
}

// Wait blocks until all in-flight deployments finish.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release waits for in-flight work and frees the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.wg.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}
