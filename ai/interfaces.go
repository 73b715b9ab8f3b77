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


package ai

import (
	"context"

	"github.com/pedanticgeek/docsearch/core"
)

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a fixed-dimension vector embedding for a single
	// text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in a batch.
	// The returned slice preserves input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ToolSpec describes a function-call tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	// Parameters is a JSON-schema object describing the tool arguments.
	Parameters map[string]any
}

// ToolCall is a function invocation returned by the model instead of, or in
// addition to, plain content.
type ToolCall struct {
	Name      string
	Arguments string
}

// CompletionOptions configure a single chat completion call.
type CompletionOptions struct {
	Temperature float64
	JSONMode    bool
	MaxTokens   int
	Tools       []ToolSpec
}

// Completion is the non-streamed result of a chat completion.
type Completion struct {
	Content  string
	ToolCall *ToolCall
}

// StreamFunc receives one answer delta at a time. Returning an error stops
// the underlying model stream.
type StreamFunc func(ctx context.Context, delta string) error

// ChatModel produces chat completions, optionally streamed.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete runs a chat completion and returns the full response.
	Complete(ctx context.Context, messages []core.ConversationMessage, opts CompletionOptions) (*Completion, error)

	// StreamComplete runs a chat completion in streaming mode, delivering
	// deltas to fn as they arrive. Cancelling ctx or returning an error from
	// fn stops the stream.
	StreamComplete(ctx context.Context, messages []core.ConversationMessage, opts CompletionOptions, fn StreamFunc) error
}

// Vision describes page images as text.
type Vision interface {
	// DescribePage extracts the informative content of one rendered page
	// image (PNG bytes) following the given instruction prompt.
	DescribePage(ctx context.Context, image []byte, prompt string) (string, error)
}

// Summarizer produces a structured summary of a document from its pages.
type Summarizer interface {
	// Summarize returns the document's title, category, and summary.
	// The result is strictly validated; a response that does not match the
	// expected shape surfaces ErrMalformedResponse.
	Summarize(ctx context.Context, pages core.PageMap) (*core.Summary, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ChatModel returns the chat completion service.
	ChatModel() ChatModel

	// Vision returns the page scanning service.
	Vision() Vision

	// Summarizer returns the document summarization service.
	Summarizer() Summarizer

	// Close releases resources held by the provider and its services.
	Close() error
}
