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


package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/extract"
)

// Analyzer implements extract.DocumentAnalyzer for PDF documents using an
// embedded parser, no external service required.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates a PDF document analyzer.
//
// Returns extract.DocumentAnalyzer interface to enforce abstraction.
func NewAnalyzer() extract.DocumentAnalyzer {
	return &Analyzer{
		logger: slog.Default().With("component", "pdf-analyzer"),
	}
}

// Analyze extracts per-page plain text. Each page's text gets a trailing
// space, and page offsets are rune counts into the concatenated text.
func (a *Analyzer) Analyze(ctx context.Context, filename string, data []byte) (core.PageMap, error) {
	a.logger.Info("extracting text", "filename", filename, "bytes", len(data))

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrInvalidDocument, err)
	}

	var pages core.PageMap
	offset := 0
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			a.logger.Warn("failed to extract page text", "filename", filename, "page", i, "err", err)
			text = ""
		}

		pageText := text + " "
		pages = append(pages, core.PageRecord{
			PageNum:    len(pages),
			PageOffset: offset,
			PageText:   pageText,
		})
		offset += utf8.RuneCountInString(pageText)
	}

	if len(pages) == 0 {
		return nil, extract.ErrEmptyDocument
	}
	a.logger.Debug("extracted pages", "filename", filename, "pages", len(pages))
	return pages, nil
}
