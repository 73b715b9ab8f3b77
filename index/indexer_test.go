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


package index_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pedanticgeek/docsearch/ai"
	aimock "github.com/pedanticgeek/docsearch/ai/mock"
	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/index"
	"github.com/pedanticgeek/docsearch/index/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPages(lengths ...int) core.PageMap {
	var pm core.PageMap
	offset := 0
	for i, n := range lengths {
		var sb strings.Builder
		for j := 0; sb.Len() < n; j++ {
			fmt.Fprintf(&sb, "Page %d sentence %04d about quarterly revenue. ", i, j)
		}
		text := sb.String()[:n]
		pm = append(pm, core.PageRecord{PageNum: i, PageOffset: offset, PageText: text})
		offset += utf8.RuneCountInString(text)
	}
	return pm
}

func newTestIndexer(t *testing.T, idx index.SearchIndex, embedder ai.Embedder) *index.SectionIndexer {
	t.Helper()
	ix, err := index.NewSectionIndexer(idx, embedder,
		index.WithRetryBackoff(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)
	return ix
}

func TestIndexDocumentProducesSections(t *testing.T) {
	idx := mock.NewMockIndex()
	ix := newTestIndexer(t, idx, aimock.NewMockEmbedder())

	n, err := ix.IndexDocument(context.Background(), "report.pdf", testPages(1500, 200), "Q3 Report", "Finance", false)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 2)

	fileID := core.FileIDFromName("report.pdf")
	for i := 0; i < n; i++ {
		s, ok := idx.Section(fileID.SectionID(i))
		require.True(t, ok, "missing section %d", i)
		assert.Equal(t, "Q3 Report", s.Title)
		assert.Equal(t, "Finance", s.Category)
		assert.Equal(t, "report.pdf", s.Sourcefile)
		assert.False(t, s.IsSummary)
		assert.NotEmpty(t, s.Embedding)
		assert.True(t, strings.HasPrefix(s.Sourcepage, "report-page"))
	}
}

func TestIndexDocumentIdempotent(t *testing.T) {
	idx := mock.NewMockIndex()
	ix := newTestIndexer(t, idx, aimock.NewMockEmbedder())
	ctx := context.Background()
	pages := testPages(1500, 200)

	n1, err := ix.IndexDocument(ctx, "report.pdf", pages, "Q3 Report", "Finance", false)
	require.NoError(t, err)
	first := idx.Sections()

	n2, err := ix.IndexDocument(ctx, "report.pdf", pages, "Q3 Report", "Finance", false)
	require.NoError(t, err)

	assert.Equal(t, n1, n2)
	assert.Equal(t, first, idx.Sections(), "re-indexing must overwrite, not duplicate")
}

func TestIndexDocumentScanSourcepages(t *testing.T) {
	idx := mock.NewMockIndex()
	ix := newTestIndexer(t, idx, aimock.NewMockEmbedder())

	n, err := ix.IndexDocument(context.Background(), "deck.pdf", testPages(1500, 1500), "Deck", "Business Summary Document", true)
	require.NoError(t, err)

	fileID := core.FileIDFromName("deck.pdf")
	for i := 0; i < n; i++ {
		s, ok := idx.Section(fileID.SectionID(i))
		require.True(t, ok)
		// Scan sourcepages keep the full filename and are numbered by
		// section order.
		assert.Equal(t, fmt.Sprintf("deck.pdf-page%d.txt", i), s.Sourcepage)
	}
}

func TestIndexSummaryDistinctFromSections(t *testing.T) {
	idx := mock.NewMockIndex()
	ix := newTestIndexer(t, idx, aimock.NewMockEmbedder())
	ctx := context.Background()

	_, err := ix.IndexDocument(ctx, "report.pdf", testPages(500), "Q3 Report", "Finance", false)
	require.NoError(t, err)
	require.NoError(t, ix.IndexSummary(ctx, "report.pdf", "Q3 Report", "Finance", "Revenue grew 12%.", false))

	fileID := core.FileIDFromName("report.pdf")
	summary, ok := idx.Section(fileID.SummaryID())
	require.True(t, ok)
	assert.True(t, summary.IsSummary)
	assert.Equal(t, "Revenue grew 12%.", summary.Content)
	assert.Equal(t, "report-page0.txt", summary.Sourcepage)

	// Section 0 must survive the summary upload.
	section0, ok := idx.Section(fileID.SectionID(0))
	require.True(t, ok)
	assert.False(t, section0.IsSummary)
}

func TestIndexDocumentRetriesRateLimits(t *testing.T) {
	idx := mock.NewMockIndex()
	embedder := aimock.NewMockEmbedder()
	failures := 2
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if failures > 0 {
			failures--
			return nil, &ai.RateLimitError{Err: errors.New("429")}
		}
		return []float32{0.1, 0.2}, nil
	}
	ix := newTestIndexer(t, idx, embedder)

	_, err := ix.IndexDocument(context.Background(), "report.pdf", testPages(500), "T", "General", false)
	require.NoError(t, err)
	assert.Zero(t, failures)
}

func TestIndexDocumentFatalEmbeddingError(t *testing.T) {
	idx := mock.NewMockIndex()
	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model not found")
	}
	ix := newTestIndexer(t, idx, embedder)

	_, err := ix.IndexDocument(context.Background(), "report.pdf", testPages(500), "T", "General", false)
	require.Error(t, err)
	assert.Empty(t, idx.Sections())
}

func TestIndexDocumentToleratesPartialUploadFailures(t *testing.T) {
	idx := mock.NewMockIndex()
	idx.UploadFunc = func(ctx context.Context, sections []core.Section) ([]index.UploadResult, error) {
		results := make([]index.UploadResult, len(sections))
		for i, s := range sections {
			results[i] = index.UploadResult{ID: s.ID, Succeeded: i%2 == 0, Err: nil}
		}
		return results, nil
	}
	ix := newTestIndexer(t, idx, aimock.NewMockEmbedder())

	_, err := ix.IndexDocument(context.Background(), "report.pdf", testPages(2500), "T", "General", false)
	assert.NoError(t, err, "per-section failures must not abort the batch")
}
