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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pedanticgeek/docsearch/extract"
)

// renderDPI matches the resolution the vision model was tuned against.
const renderDPI = 150

// Renderer implements extract.PageRenderer by shelling out to poppler's
// pdftoppm. Pure-Go PDF rasterization isn't viable, so the renderer stages
// the document in a temp directory and collects the emitted PNGs.
type Renderer struct {
	binary string
	logger *slog.Logger
}

// NewRenderer creates a PDF page renderer backed by pdftoppm.
//
// Returns extract.PageRenderer interface to enforce abstraction.
func NewRenderer() extract.PageRenderer {
	return &Renderer{
		binary: "pdftoppm",
		logger: slog.Default().With("component", "pdf-renderer"),
	}
}

// RenderPages renders every page as a PNG at 150 DPI, ordered by page
// number. The temp staging directory is removed on both success and failure.
func (r *Renderer) RenderPages(ctx context.Context, filename string, data []byte) ([]extract.PageImage, error) {
	r.logger.Info("rendering pages", "filename", filename, "bytes", len(data))

	tempDir, err := os.MkdirTemp("", "docsearch-render-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return nil, err
	}

	outPrefix := filepath.Join(tempDir, "page")
	cmd := exec.CommandContext(ctx, r.binary, "-png", "-r", strconv.Itoa(renderDPI), pdfPath, outPrefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", extract.ErrInvalidDocument, err, strings.TrimSpace(string(out)))
	}

	paths, err := filepath.Glob(outPrefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, extract.ErrEmptyDocument
	}
	// pdftoppm zero-pads page numbers per document, so lexicographic order
	// is page order.
	sort.Strings(paths)

	images := make([]extract.PageImage, 0, len(paths))
	for i, path := range paths {
		png, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		images = append(images, extract.PageImage{PageNum: i, PNG: png})
	}

	r.logger.Debug("rendered pages", "filename", filename, "pages", len(images))
	return images, nil
}
