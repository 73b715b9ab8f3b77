package extract

import (
	"context"

	"github.com/pedanticgeek/docsearch/core"
)

// DocumentAnalyzer extracts the text of a document into an ordered page map.
// Implementations append a trailing space to each page's text so chunks
// spanning page boundaries never glue two words together.
type DocumentAnalyzer interface {
	// Analyze extracts per-page text from the raw document bytes.
	Analyze(ctx context.Context, filename string, data []byte) (core.PageMap, error)
}

// PageImage is one rendered page of a document.
type PageImage struct {
	PageNum int
	PNG     []byte
}

// PageRenderer rasterizes document pages for vision-based scanning.
type PageRenderer interface {
	// RenderPages renders every page of the document as a PNG image,
	// ordered by page number.
	RenderPages(ctx context.Context, filename string, data []byte) ([]PageImage, error)
}
