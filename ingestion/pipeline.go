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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/extract"
	"github.com/pedanticgeek/docsearch/index"
	"github.com/pedanticgeek/docsearch/storage"
)

// scanCategory is the fixed category of vision-scanned documents; the
// layout path takes its category from the summarizer instead.
const scanCategory = "Business Summary Document"

// scanPagePrompt instructs the vision model to transcribe a rendered page
// image into searchable text.
const scanPagePrompt = `Extract all informative content from this document page image.
Transcribe the text faithfully, including headings, tables, and figure captions.
Render tables as HTML tables. Describe charts and images in one sentence each.
Do not add commentary about the page itself.`

// Pipeline ingests one file end to end: extract pages, persist page blobs,
// summarize, and index sections plus the synthetic summary section.
type Pipeline struct {
	blobs       storage.BlobStore
	analyzer    extract.DocumentAnalyzer
	renderer    extract.PageRenderer
	vision      ai.Vision
	summarizer  ai.Summarizer
	indexer     *index.SectionIndexer
	backoffBase time.Duration
	backoffCap  time.Duration
	logger      *slog.Logger
}

// PipelineOption is a functional option for configuring a Pipeline.
type PipelineOption func(*Pipeline) error

// WithRetryBackoff overrides the rate-limit backoff window used for vision
// calls.
func WithRetryBackoff(base, cap time.Duration) PipelineOption {
	return func(p *Pipeline) error {
		if base <= 0 || cap < base {
			return errors.New("invalid retry backoff window")
		}
		p.backoffBase = base
		p.backoffCap = cap
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given collaborators.
// The renderer and vision service are only exercised by scan-mode runs and
// may be nil when scan ingestion is not used.
func NewPipeline(blobs storage.BlobStore, analyzer extract.DocumentAnalyzer, renderer extract.PageRenderer, vision ai.Vision, summarizer ai.Summarizer, indexer *index.SectionIndexer, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		blobs:       blobs,
		analyzer:    analyzer,
		renderer:    renderer,
		vision:      vision,
		summarizer:  summarizer,
		indexer:     indexer,
		backoffBase: ai.DefaultBackoffBase,
		backoffCap:  ai.DefaultBackoffCap,
		logger:      slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run ingests filename in layout mode: parse the document's text, persist
// one text blob per page, summarize, and index.
func (p *Pipeline) Run(ctx context.Context, filename string) error {
	fileID := core.FileIDFromName(filename)
	p.logger.Info("ingesting file", "filename", filename, "id", fileID)

	blob, err := p.blobs.Get(ctx, core.SourcefileKey(filename))
	if err != nil {
		return fmt.Errorf("download source file %q: %w", filename, err)
	}

	pages, err := p.analyzer.Analyze(ctx, filename, blob.Data)
	if err != nil {
		return fmt.Errorf("extract pages of %q: %w", filename, err)
	}

	if err := p.uploadPageBlobs(ctx, filename, fileID, pages); err != nil {
		return err
	}

	summary, err := p.summarizer.Summarize(ctx, pages)
	if err != nil {
		return fmt.Errorf("summarize %q: %w", filename, err)
	}

	if _, err := p.indexer.IndexDocument(ctx, filename, pages, summary.Title, summary.Category, false); err != nil {
		return fmt.Errorf("index %q: %w", filename, err)
	}
	if err := p.indexer.IndexSummary(ctx, filename, summary.Title, summary.Category, summary.Summary, false); err != nil {
		return fmt.Errorf("index summary of %q: %w", filename, err)
	}

	p.logger.Info("ingested file", "filename", filename, "pages", len(pages))
	return nil
}

// RunScan ingests filename in scan mode: render each page to an image,
// describe it with the vision model, persist the image and text blobs,
// summarize, and index under the fixed scan category.
func (p *Pipeline) RunScan(ctx context.Context, filename string) error {
	fileID := core.FileIDFromName(filename)
	p.logger.Info("scan-ingesting file", "filename", filename, "id", fileID)

	blob, err := p.blobs.Get(ctx, core.SourcefileKey(filename))
	if err != nil {
		return fmt.Errorf("download source file %q: %w", filename, err)
	}

	images, err := p.renderer.RenderPages(ctx, filename, blob.Data)
	if err != nil {
		return fmt.Errorf("render pages of %q: %w", filename, err)
	}

	pages, err := p.scanPages(ctx, filename, images)
	if err != nil {
		return err
	}

	if err := p.uploadScanBlobs(ctx, filename, fileID, images, pages); err != nil {
		return err
	}

	summary, err := p.summarizer.Summarize(ctx, pages)
	if err != nil {
		return fmt.Errorf("summarize %q: %w", filename, err)
	}

	if _, err := p.indexer.IndexDocument(ctx, filename, pages, summary.Title, scanCategory, true); err != nil {
		return fmt.Errorf("index %q: %w", filename, err)
	}
	if err := p.indexer.IndexSummary(ctx, filename, summary.Title, scanCategory, summary.Summary, true); err != nil {
		return fmt.Errorf("index summary of %q: %w", filename, err)
	}

	p.logger.Info("scan-ingested file", "filename", filename, "pages", len(pages))
	return nil
}

// scanPages describes each rendered page with the vision model, retrying
// rate-limit rejections, and accumulates the page map.
func (p *Pipeline) scanPages(ctx context.Context, filename string, images []extract.PageImage) (core.PageMap, error) {
	var pages core.PageMap
	offset := 0
	for _, img := range images {
		var text string
		err := ai.RetryRateLimited(ctx, ai.VisionMaxAttempts, p.backoffBase, p.backoffCap, func() error {
			var err error
			text, err = p.vision.DescribePage(ctx, img.PNG, scanPagePrompt)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("scan page %d of %q: %w", img.PageNum, filename, err)
		}

		pages = append(pages, core.PageRecord{
			PageNum:    img.PageNum,
			PageOffset: offset,
			PageText:   text,
		})
		offset += utf8.RuneCountInString(text)
	}
	return pages, nil
}

// uploadPageBlobs persists one text blob per extracted page, tagged with the
// file's ID so the blobs of a re-ingested file overwrite their predecessors.
func (p *Pipeline) uploadPageBlobs(ctx context.Context, filename string, fileID core.FileID, pages core.PageMap) error {
	metadata := map[string]string{"id": string(fileID)}
	for _, page := range pages {
		name := core.PageTextBlobName(filename, page.PageNum, false)
		p.logger.Debug("uploading page blob", "page", page.PageNum, "blob", name)
		if err := p.blobs.Put(ctx, name, []byte(page.PageText), metadata); err != nil {
			return fmt.Errorf("upload page blob %q: %w", name, err)
		}
	}
	return nil
}

// uploadScanBlobs persists the image and text blob of every scanned page.
func (p *Pipeline) uploadScanBlobs(ctx context.Context, filename string, fileID core.FileID, images []extract.PageImage, pages core.PageMap) error {
	metadata := map[string]string{"id": string(fileID)}
	for i, page := range pages {
		imageName := core.PageImageBlobName(filename, page.PageNum)
		if err := p.blobs.Put(ctx, imageName, images[i].PNG, metadata); err != nil {
			return fmt.Errorf("upload page image %q: %w", imageName, err)
		}
		textName := core.PageTextBlobName(filename, page.PageNum, true)
		if err := p.blobs.Put(ctx, textName, []byte(page.PageText), metadata); err != nil {
			return fmt.Errorf("upload page blob %q: %w", textName, err)
		}
	}
	return nil
}
