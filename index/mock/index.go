package mock

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/index"
)

// MockIndex is a test double for index.SearchIndex backed by an in-memory
// map. Behavior can be overridden per-test via function fields.
type MockIndex struct {
	// UploadFunc is called by Upload if set.
	UploadFunc func(ctx context.Context, sections []core.Section) ([]index.UploadResult, error)

	// SearchFunc is called by Search if set.
	SearchFunc func(ctx context.Context, query string, embedding []float32, opts index.SearchOptions) ([]index.Result, error)

	mu       sync.Mutex
	sections map[string]core.Section
}

// NewMockIndex creates an empty in-memory index.
// Note: Returns concrete type to allow test assertions.
func NewMockIndex() *MockIndex {
	return &MockIndex{sections: make(map[string]core.Section)}
}

// Upload stores sections by ID, overwriting existing ones.
func (m *MockIndex) Upload(ctx context.Context, sections []core.Section) ([]index.UploadResult, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, sections)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]index.UploadResult, 0, len(sections))
	for _, s := range sections {
		m.sections[s.ID] = s
		results = append(results, index.UploadResult{ID: s.ID, Succeeded: true})
	}
	return results, nil
}

// Search returns stored content sections matching the filter, scored by
// naive term overlap with the query.
func (m *MockIndex) Search(ctx context.Context, query string, embedding []float32, opts index.SearchOptions) ([]index.Result, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, embedding, opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	top := opts.Top
	if top <= 0 {
		top = index.DefaultTop
	}

	var results []index.Result
	for _, s := range m.sections {
		if !matchesFilter(s, opts.Filter) {
			continue
		}
		score := termOverlap(query, s.Content)
		if score <= 0 {
			continue
		}
		results = append(results, index.Result{Section: s, Score: score, Caption: s.Content})
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

// DeleteBySourcefile removes every stored section of the source file.
func (m *MockIndex) DeleteBySourcefile(ctx context.Context, sourcefile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sections {
		if s.Sourcefile == sourcefile {
			delete(m.sections, id)
		}
	}
	return nil
}

// ListSummaries returns every stored summary section, ordered by sourcefile.
func (m *MockIndex) ListSummaries(ctx context.Context) ([]core.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var summaries []core.Section
	for _, s := range m.sections {
		if s.IsSummary {
			summaries = append(summaries, s)
		}
	}
	slices.SortFunc(summaries, func(a, b core.Section) int {
		return strings.Compare(a.Sourcefile, b.Sourcefile)
	})
	return summaries, nil
}

// Close is a no-op for mock index.
func (m *MockIndex) Close() error {
	return nil
}

// Sections returns a snapshot of all stored sections for test assertions.
func (m *MockIndex) Sections() []core.Section {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Section, 0, len(m.sections))
	for _, s := range m.sections {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b core.Section) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Section returns the stored section with the given ID, if present.
func (m *MockIndex) Section(id string) (core.Section, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sections[id]
	return s, ok
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

func termOverlap(query, content string) float32 {
	lc := strings.ToLower(content)
	var score float32
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(lc, term) {
			score++
		}
	}
	return score
}
