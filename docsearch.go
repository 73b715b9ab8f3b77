// Copyright 2025 PedanticGeek
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


package docsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/ai/openai"
	"github.com/pedanticgeek/docsearch/chat"
	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/extract/pdf"
	"github.com/pedanticgeek/docsearch/index"
	"github.com/pedanticgeek/docsearch/index/chromem"
	"github.com/pedanticgeek/docsearch/ingestion"
	"github.com/pedanticgeek/docsearch/storage"
	"github.com/pedanticgeek/docsearch/storage/badger"
)

// Engine wires the storage, index, and AI services of one docsearch data
// directory together. Blobs and the work queue live in a Badger store under
// the directory, the vector index in a chromem store beside it.
type Engine struct {
	backend  *badger.Backend
	blobs    storage.BlobStore
	queue    storage.WorkQueue
	index    index.SearchIndex
	provider ai.Provider
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig overrides the default AI service configuration.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// NewEngine opens (or creates) the data directory and connects every
// service.
func NewEngine(dataDir string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "store"), false)
	if err != nil {
		return nil, err
	}

	blobs, err := badger.NewBlobStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	queue, err := badger.NewQueue(backend)
	if err != nil {
		blobs.Close()
		backend.Close()
		return nil, err
	}

	idx, err := chromem.NewIndex(filepath.Join(dataDir, "index"))
	if err != nil {
		queue.Close()
		blobs.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		idx.Close()
		queue.Close()
		blobs.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		blobs:    blobs,
		queue:    queue,
		index:    idx,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.index.Close(); err != nil {
		e.logger.Error("error closing search index", "err", err)
		return err
	}
	if err := e.queue.Close(); err != nil {
		e.logger.Error("error closing work queue", "err", err)
		return err
	}
	if err := e.blobs.Close(); err != nil {
		e.logger.Error("error closing blob store", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) BlobStore() storage.BlobStore {
	return e.blobs
}

func (e *Engine) WorkQueue() storage.WorkQueue {
	return e.queue
}

func (e *Engine) Index() index.SearchIndex {
	return e.index
}

// SubmitDocument stores an uploaded original and enqueues its ingestion
// task. The worker picks the task up asynchronously.
func (e *Engine) SubmitDocument(ctx context.Context, filename string, data []byte, scan bool) error {
	if err := e.blobs.Put(ctx, core.SourcefileKey(filename), data, nil); err != nil {
		return fmt.Errorf("store source file: %w", err)
	}

	body, err := json.Marshal(core.QueueMessage{
		Filename:   filename,
		Sourcefile: filename,
		ID:         string(core.FileIDFromName(filename)),
		VScan:      scan,
	})
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}
	if err := e.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("enqueue ingestion task: %w", err)
	}
	return nil
}

// RemoveDocument deletes a document's index sections and derived blobs.
// The uploaded original is removed last so a failure leaves the document
// re-ingestable.
func (e *Engine) RemoveDocument(ctx context.Context, filename string) error {
	if err := e.index.DeleteBySourcefile(ctx, filename); err != nil {
		return fmt.Errorf("delete index sections: %w", err)
	}

	// Derived blobs use two stems: scan pages keep the full filename,
	// layout pages drop the extension.
	prefixes := []string{filename + "-page"}
	if i := strings.Index(filename, "."); i >= 0 {
		prefixes = append(prefixes, filename[:i]+"-page")
	}
	for _, prefix := range prefixes {
		names, err := e.blobs.List(ctx, prefix)
		if err != nil {
			return fmt.Errorf("list derived blobs: %w", err)
		}
		for _, name := range names {
			if err := e.blobs.Delete(ctx, name); err != nil {
				return fmt.Errorf("delete blob %s: %w", name, err)
			}
		}
	}
	return e.blobs.Delete(ctx, core.SourcefileKey(filename))
}

// ListDocuments returns the indexed document summaries, ordered by source
// file name.
func (e *Engine) ListDocuments(ctx context.Context) ([]core.Section, error) {
	return e.index.ListSummaries(ctx)
}

// NewIngestionPipeline builds the document ingestion pipeline over the
// engine's services.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.PipelineOption) (*ingestion.Pipeline, error) {
	indexer, err := index.NewSectionIndexer(e.index, e.provider.Embedder())
	if err != nil {
		return nil, err
	}
	return ingestion.NewPipeline(
		e.blobs,
		pdf.NewAnalyzer(),
		pdf.NewRenderer(),
		e.provider.Vision(),
		e.provider.Summarizer(),
		indexer,
		opts...,
	)
}

// NewWorker builds the queue worker over a fresh ingestion pipeline.
func (e *Engine) NewWorker(opts ...ingestion.WorkerOption) (*ingestion.Worker, error) {
	pipeline, err := e.NewIngestionPipeline()
	if err != nil {
		return nil, err
	}
	return ingestion.NewWorker(e.queue, pipeline, opts...)
}

// NewOrchestrator builds the conversational retrieval orchestrator.
func (e *Engine) NewOrchestrator(opts ...chat.OrchestratorOption) (*chat.Orchestrator, error) {
	return chat.NewOrchestrator(e.provider.ChatModel(), e.provider.Embedder(), e.index, opts...)
}
