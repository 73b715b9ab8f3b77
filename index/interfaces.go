package index

import (
	"context"

	"github.com/pedanticgeek/docsearch/core"
)

// Search depth defaults: Top caps the returned results, KNN is the vector
// neighborhood size blended into the candidate set.
const (
	DefaultTop = 5
	DefaultKNN = 3
)

// Filter restricts which sections a search may return.
type Filter struct {
	// ExcludeCategories drops sections whose category is listed.
	ExcludeCategories []string

	// Sourcefiles, when non-empty, restricts results to sections of the
	// listed source files.
	Sourcefiles []string
}

// SearchOptions configure a single retrieval call.
type SearchOptions struct {
	Top    int
	KNN    int
	Filter Filter
}

// Result is one retrieved section with its relevance score and an
// extractive caption highlighting the matching text.
type Result struct {
	Section core.Section
	Score   float32
	Caption string
}

// UploadResult reports the outcome of indexing one section.
type UploadResult struct {
	ID        string
	Succeeded bool
	Err       error
}

// SearchIndex stores sections and answers hybrid retrieval queries.
// Implementations must be thread-safe for concurrent use.
type SearchIndex interface {
	// Upload indexes sections, overwriting any existing sections with the
	// same IDs. Returns one result per input section, in order; individual
	// failures don't abort the batch.
	Upload(ctx context.Context, sections []core.Section) ([]UploadResult, error)

	// Search runs a hybrid query: the text query and its embedding are
	// combined, filtered, and the Top best sections returned in descending
	// score order.
	Search(ctx context.Context, query string, embedding []float32, opts SearchOptions) ([]Result, error)

	// DeleteBySourcefile removes every section of the given source file.
	// Deleting a file with no indexed sections succeeds.
	DeleteBySourcefile(ctx context.Context, sourcefile string) error

	// ListSummaries returns the summary section of every indexed document.
	ListSummaries(ctx context.Context) ([]core.Section, error)

	// Close persists pending state and releases resources.
	Close() error
}
