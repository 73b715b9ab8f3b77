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


package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/index"
	chromemgo "github.com/philippgille/chromem-go"
)

const (
	collectionName = "docsearch"

	// termBoost is added to the vector similarity for each query term that
	// appears verbatim in a section, approximating hybrid retrieval where
	// text matches rank above purely semantic neighbors.
	termBoost = 0.05

	// candidateFactor widens the vector candidate set before filtering, so
	// category and sourcefile filters don't starve the result list.
	candidateFactor = 4

	summarySidecar = "summaries.json"
)

// Index implements index.SearchIndex on an embedded chromem-go vector store.
//
// chromem cannot enumerate documents, so summary sections are additionally
// tracked in a sidecar file; ListSummaries reads the sidecar instead of
// querying the vector store.
type Index struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
	persistDir string
	logger     *slog.Logger

	mu        sync.Mutex
	summaries map[string]core.Section
	closed    bool
}

// NewIndex opens a persistent search index rooted at dir. An empty dir opens
// an in-memory index, useful for tests.
func NewIndex(dir string) (index.SearchIndex, error) {
	var db *chromemgo.DB
	var err error
	if dir == "" {
		db = chromemgo.NewDB()
	} else {
		db, err = chromemgo.NewPersistentDB(dir, false)
		if err != nil {
			return nil, err
		}
	}

	// Embeddings are always supplied by the caller; the collection must
	// never compute its own.
	noEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("no embedding function configured")
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, noEmbed)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		db:         db,
		collection: collection,
		persistDir: dir,
		logger:     slog.Default().With("component", "chromem-index"),
		summaries:  make(map[string]core.Section),
	}
	if err := idx.loadSummaries(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Upload indexes sections, overwriting existing sections with the same IDs.
func (x *Index) Upload(ctx context.Context, sections []core.Section) ([]index.UploadResult, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, index.ErrIndexClosed
	}

	results := make([]index.UploadResult, 0, len(sections))
	for _, s := range sections {
		err := x.collection.AddDocument(ctx, chromemgo.Document{
			ID:        s.ID,
			Content:   s.Content,
			Metadata:  toMetadata(s),
			Embedding: s.Embedding,
		})
		results = append(results, index.UploadResult{ID: s.ID, Succeeded: err == nil, Err: err})
		if err != nil {
			x.logger.Warn("failed to index section", "id", s.ID, "err", err)
			continue
		}
		if s.IsSummary {
			x.summaries[s.ID] = s
		}
	}

	if err := x.persistSummaries(); err != nil {
		return results, err
	}
	return results, nil
}

// Search runs an approximate hybrid query: vector neighbors are fetched
// first, then sections containing query terms verbatim are boosted above
// purely semantic matches.
func (x *Index) Search(ctx context.Context, query string, embedding []float32, opts index.SearchOptions) ([]index.Result, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, index.ErrIndexClosed
	}
	if len(embedding) == 0 {
		return nil, index.ErrEmptyQuery
	}

	top := opts.Top
	if top <= 0 {
		top = index.DefaultTop
	}
	knn := opts.KNN
	if knn <= 0 {
		knn = index.DefaultKNN
	}

	count := x.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem rejects queries asking for more results than documents exist.
	n := (top + knn) * candidateFactor
	if n > count {
		n = count
	}

	hits, err := x.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, err
	}

	terms := queryTerms(query)
	var results []index.Result
	for _, hit := range hits {
		section := fromMetadata(hit.ID, hit.Content, hit.Metadata)
		if !matchesFilter(section, opts.Filter) {
			continue
		}
		results = append(results, index.Result{
			Section: section,
			Score:   hit.Similarity + float32(len(matchingTerms(section.Content, terms)))*termBoost,
			Caption: extractCaption(section.Content, terms),
		})
	}

	slices.SortFunc(results, func(a, b index.Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.Section.ID, b.Section.ID)
		}
	})
	if len(results) > top {
		results = results[:top]
	}
	return results, nil
}

// DeleteBySourcefile removes every section of the given source file.
// Deleting a file with no indexed sections succeeds.
func (x *Index) DeleteBySourcefile(ctx context.Context, sourcefile string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return index.ErrIndexClosed
	}

	if x.collection.Count() > 0 {
		if err := x.collection.Delete(ctx, map[string]string{"sourcefile": sourcefile}, nil); err != nil {
			return err
		}
	}

	for id, s := range x.summaries {
		if s.Sourcefile == sourcefile {
			delete(x.summaries, id)
		}
	}
	return x.persistSummaries()
}

// ListSummaries returns the summary section of every indexed document,
// ordered by sourcefile.
func (x *Index) ListSummaries(ctx context.Context) ([]core.Section, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil, index.ErrIndexClosed
	}

	summaries := make([]core.Section, 0, len(x.summaries))
	for _, s := range x.summaries {
		summaries = append(summaries, s)
	}
	slices.SortFunc(summaries, func(a, b core.Section) int {
		return strings.Compare(a.Sourcefile, b.Sourcefile)
	})
	return summaries, nil
}

// Close persists the summary sidecar and marks the index closed.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	return x.persistSummaries()
}

func (x *Index) sidecarPath() string {
	return filepath.Join(x.persistDir, summarySidecar)
}

func (x *Index) loadSummaries() error {
	if x.persistDir == "" {
		return nil
	}
	data, err := os.ReadFile(x.sidecarPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &x.summaries)
}

func (x *Index) persistSummaries() error {
	if x.persistDir == "" {
		return nil
	}
	data, err := json.MarshalIndent(x.summaries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(x.sidecarPath(), data, 0644)
}

func toMetadata(s core.Section) map[string]string {
	return map[string]string{
		"title":        s.Title,
		"category":     s.Category,
		"sourcepage":   s.Sourcepage,
		"sourcefile":   s.Sourcefile,
		"issummary":    boolString(s.IsSummary),
		"isassessment": boolString(s.IsAssessment),
	}
}

func fromMetadata(id, content string, meta map[string]string) core.Section {
	return core.Section{
		ID:           id,
		Content:      content,
		Title:        meta["title"],
		Category:     meta["category"],
		Sourcepage:   meta["sourcepage"],
		Sourcefile:   meta["sourcefile"],
		IsSummary:    meta["issummary"] == "true",
		IsAssessment: meta["isassessment"] == "true",
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func matchesFilter(s core.Section, f index.Filter) bool {
	if slices.Contains(f.ExcludeCategories, s.Category) {
		return false
	}
	if len(f.Sourcefiles) > 0 && !slices.Contains(f.Sourcefiles, s.Sourcefile) {
		return false
	}
	return true
}

// queryTerms extracts the searchable terms of a query: lowercased words of
// three or more characters.
func queryTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}
	return terms
}

func matchingTerms(content string, terms []string) []string {
	lc := strings.ToLower(content)
	var matched []string
	for _, t := range terms {
		if strings.Contains(lc, t) {
			matched = append(matched, t)
		}
	}
	return matched
}

// extractCaption joins up to three sentences containing query terms, the
// extractive-caption shape the orchestrator blends into source lines.
func extractCaption(content string, terms []string) string {
	var captions []string
	for _, sentence := range splitSentences(content) {
		if len(captions) == 3 {
			break
		}
		if len(matchingTerms(sentence, terms)) > 0 {
			captions = append(captions, strings.TrimSpace(sentence))
		}
	}
	return strings.Join(captions, " . ")
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}
