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


package index

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/segment"
)

// uploadBatchSize is the preventive flush interval for large documents.
const uploadBatchSize = 1000

// SectionIndexer turns extracted pages into embedded sections and uploads
// them to the search index. Section IDs are deterministic per file, so
// re-indexing a file overwrites its previous sections.
type SectionIndexer struct {
	index       SearchIndex
	embedder    ai.Embedder
	splitter    *segment.Splitter
	backoffBase time.Duration
	backoffCap  time.Duration
	logger      *slog.Logger
}

// IndexerOption is a functional option for configuring a SectionIndexer.
type IndexerOption func(*SectionIndexer) error

// WithRetryBackoff overrides the rate-limit backoff window used for
// embedding calls.
func WithRetryBackoff(base, cap time.Duration) IndexerOption {
	return func(ix *SectionIndexer) error {
		if base <= 0 || cap < base {
			return errors.New("invalid retry backoff window")
		}
		ix.backoffBase = base
		ix.backoffCap = cap
		return nil
	}
}

// NewSectionIndexer creates a section indexer over the given search index
// and embedder.
func NewSectionIndexer(index SearchIndex, embedder ai.Embedder, opts ...IndexerOption) (*SectionIndexer, error) {
	ix := &SectionIndexer{
		index:       index,
		embedder:    embedder,
		splitter:    segment.NewSplitter(),
		backoffBase: ai.DefaultBackoffBase,
		backoffCap:  ai.DefaultBackoffCap,
		logger:      slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// IndexDocument segments the document's pages, embeds each chunk, and
// uploads the resulting sections in batches. Returns the number of sections
// produced.
//
// In layout mode a section's sourcepage references the page blob of the page
// owning the chunk's start. In scan mode sourcepages are numbered by section
// order, matching the blob naming of the scan upload path.
func (ix *SectionIndexer) IndexDocument(ctx context.Context, filename string, pages core.PageMap, title, category string, scan bool) (int, error) {
	fileID := core.FileIDFromName(filename)
	ix.logger.Info("indexing sections", "filename", filename, "pages", len(pages))

	var sections []core.Section
	for i, chunk := range ix.splitter.Split(pages) {
		page := chunk.Page
		if scan {
			page = i
		}
		embedding, err := ix.embed(ctx, chunk.Text)
		if err != nil {
			return 0, err
		}
		sections = append(sections, core.Section{
			ID:         fileID.SectionID(i),
			Content:    chunk.Text,
			Title:      title,
			Category:   category,
			Sourcepage: core.PageTextBlobName(filename, page, scan),
			Sourcefile: filename,
			Embedding:  embedding,
		})
	}

	if err := ix.uploadBatched(ctx, sections); err != nil {
		return 0, err
	}
	return len(sections), nil
}

// IndexSummary uploads the document's single synthetic summary section.
// Its ID is distinct from every content section ID so the summary never
// overwrites section 0.
func (ix *SectionIndexer) IndexSummary(ctx context.Context, filename string, title, category, summary string, scan bool) error {
	fileID := core.FileIDFromName(filename)
	ix.logger.Info("indexing summary", "filename", filename)

	embedding, err := ix.embed(ctx, summary)
	if err != nil {
		return err
	}

	return ix.uploadBatched(ctx, []core.Section{{
		ID:         fileID.SummaryID(),
		Content:    summary,
		Title:      title,
		Category:   category,
		Sourcepage: core.PageTextBlobName(filename, 0, scan),
		Sourcefile: filename,
		IsSummary:  true,
		Embedding:  embedding,
	}})
}

// uploadBatched flushes sections to the index in batches, logging per-batch
// success counts. Individual section failures don't abort the batch.
func (ix *SectionIndexer) uploadBatched(ctx context.Context, sections []core.Section) error {
	for start := 0; start < len(sections); start += uploadBatchSize {
		end := start + uploadBatchSize
		if end > len(sections) {
			end = len(sections)
		}

		results, err := ix.index.Upload(ctx, sections[start:end])
		if err != nil {
			return err
		}
		succeeded := 0
		for _, r := range results {
			if r.Succeeded {
				succeeded++
			}
		}
		ix.logger.Info("indexed sections", "count", len(results), "succeeded", succeeded)
	}
	return nil
}

// embed generates an embedding for text, retrying rate-limit rejections.
func (ix *SectionIndexer) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := ai.RetryRateLimited(ctx, ai.EmbeddingMaxAttempts, ix.backoffBase, ix.backoffCap, func() error {
		v, err := ix.embedder.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	return vector, err
}
