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


package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/core"
)

// Summarizer implements ai.Summarizer on top of a chat model in JSON mode.
type Summarizer struct {
	chat    ai.ChatModel
	timeout time.Duration
	logger  *slog.Logger
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(chat ai.ChatModel, timeout time.Duration) *Summarizer {
	return &Summarizer{
		chat:    chat,
		timeout: timeout,
		logger:  slog.Default().With("component", "openai-summarizer"),
	}
}

// NewSummarizer creates a summarizer over an existing chat model.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(chat ai.ChatModel, timeout time.Duration) ai.Summarizer {
	return newSummarizer(chat, timeout)
}

// Summarize asks the model for the document's title, category, and summary.
// Each page is sent as its own user message, in page order. The response is
// decoded strictly: unknown fields or a missing field surface
// ai.ErrMalformedResponse.
func (s *Summarizer) Summarize(ctx context.Context, pages core.PageMap) (*core.Summary, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages to summarize", ai.ErrMalformedResponse)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	messages := make([]core.ConversationMessage, 0, len(pages)+1)
	messages = append(messages, core.ConversationMessage{Role: core.RoleSystem, Content: summarizePrompt})
	for _, page := range pages {
		messages = append(messages, core.ConversationMessage{Role: core.RoleUser, Content: page.PageText})
	}

	completion, err := s.chat.Complete(ctx, messages, ai.CompletionOptions{
		Temperature: 0.0,
		JSONMode:    true,
	})
	if err != nil {
		s.logger.Error("summarization call failed", "err", err)
		return nil, err
	}

	summary, err := parseSummary(completion.Content)
	if err != nil {
		s.logger.Error("failed to parse summary response", "response", completion.Content, "err", err)
		return nil, err
	}

	s.logger.Debug("summarized document", "title", summary.Title, "category", summary.Category)
	return summary, nil
}

// parseSummary decodes the model's JSON response into a Summary, rejecting
// responses that are not exactly the expected shape.
func parseSummary(content string) (*core.Summary, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.DisallowUnknownFields()

	var summary core.Summary
	if err := decoder.Decode(&summary); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}
	if summary.Title == "" || summary.Category == "" || summary.Summary == "" {
		return nil, fmt.Errorf("%w: missing summary field", ai.ErrMalformedResponse)
	}
	return &summary, nil
}
