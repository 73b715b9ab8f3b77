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


package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/index"
)

const (
	// maxHistoryTokens bounds the prompt: older turns are dropped once the
	// budget is reached.
	maxHistoryTokens = 32000

	// noResponse is the rewrite model's sentinel for "no query possible".
	noResponse = "0"

	answerTemperature = 0.7
)

// Overrides tune one Answer call.
type Overrides struct {
	// ExcludeCategories drops sections of the listed categories from
	// retrieval.
	ExcludeCategories []string

	// Sourcefiles, when non-empty, restricts retrieval to the listed files.
	Sourcefiles []string

	// SuggestFollowups asks the model for follow-up questions and diverts
	// them out of the visible answer into a trailing FollowupBatch event.
	SuggestFollowups bool

	// SessionState is an opaque caller token echoed in the Context event.
	SessionState any
}

// Orchestrator is the retrieve-then-read conversation engine: it rewrites
// the conversation into a search query, retrieves matching sections, and
// streams a grounded answer.
type Orchestrator struct {
	chat     ai.ChatModel
	embedder ai.Embedder
	index    index.SearchIndex
	model    string
	top      int
	knn      int
	logger   *slog.Logger
}

// OrchestratorOption is a functional option for configuring an Orchestrator.
type OrchestratorOption func(*Orchestrator) error

// WithModelName sets the model name used for prompt token accounting.
func WithModelName(model string) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.model = model
		return nil
	}
}

// WithSearchDepth overrides the retrieval depth.
func WithSearchDepth(top, knn int) OrchestratorOption {
	return func(o *Orchestrator) error {
		if top <= 0 || knn <= 0 {
			return fmt.Errorf("search depth must be positive")
		}
		o.top = top
		o.knn = knn
		return nil
	}
}

// NewOrchestrator creates a conversation orchestrator over the given chat
// model, embedder, and search index.
func NewOrchestrator(chat ai.ChatModel, embedder ai.Embedder, idx index.SearchIndex, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &Orchestrator{
		chat:     chat,
		embedder: embedder,
		index:    idx,
		model:    "gpt-4o-mini",
		top:      index.DefaultTop,
		knn:      index.DefaultKNN,
		logger:   slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Answer streams a grounded answer to the conversation's last user turn.
// The returned channel is closed when the answer is complete, fails, or ctx
// is cancelled; the first event is always EventContext. The caller must
// drain the channel or cancel ctx, otherwise the stream goroutine blocks.
func (o *Orchestrator) Answer(ctx context.Context, history []core.ConversationMessage, overrides Overrides) (<-chan StreamEvent, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	if history[len(history)-1].Role != core.RoleUser {
		return nil, ErrNotUserTurn
	}

	events := make(chan StreamEvent)
	go o.run(ctx, history, overrides, events)
	return events, nil
}

func (o *Orchestrator) run(ctx context.Context, history []core.ConversationMessage, overrides Overrides, events chan<- StreamEvent) {
	defer close(events)

	userQuery := history[len(history)-1].Content

	// Step 1: rewrite the conversation into a search query.
	query, err := o.rewriteQuery(ctx, history, userQuery)
	if err != nil {
		o.emit(ctx, events, StreamEvent{Kind: EventError, Err: err})
		return
	}

	// Step 2: retrieve sources for the query.
	sources, err := o.searchSources(ctx, query, overrides)
	if err != nil {
		o.emit(ctx, events, StreamEvent{Kind: EventError, Err: err})
		return
	}

	// Step 3: answer grounded in the sources, streaming.
	followup := ""
	if overrides.SuggestFollowups {
		followup = followUpQuestionsPrompt
	}
	systemMessage := fmt.Sprintf(systemMessageChatConversation, followup)
	userContent := userQuery + "\n\nSources:\n" + strings.Join(sources, "\n")
	messages := o.messagesFromHistory(systemMessage, history, userContent, nil)

	if !o.emit(ctx, events, StreamEvent{Kind: EventContext, Context: &Context{
		Query:        query,
		DataPoints:   sources,
		Thoughts:     formatThoughts(query, messages),
		SessionState: overrides.SessionState,
	}}) {
		return
	}

	var splitter followupSplitter
	err = o.chat.StreamComplete(ctx, messages, ai.CompletionOptions{Temperature: answerTemperature}, func(ctx context.Context, delta string) error {
		visible := delta
		if overrides.SuggestFollowups {
			visible = splitter.Feed(delta)
		}
		if visible == "" {
			return nil
		}
		if !o.emit(ctx, events, StreamEvent{Kind: EventDelta, Delta: visible}) {
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		o.emit(ctx, events, StreamEvent{Kind: EventError, Err: err})
		return
	}

	if buffered := splitter.Buffer(); buffered != "" {
		_, questions := ExtractFollowups(buffered)
		o.emit(ctx, events, StreamEvent{Kind: EventFollowups, Followups: questions})
	}
}

// emit delivers an event unless ctx is cancelled. Reports whether the event
// was delivered.
func (o *Orchestrator) emit(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}

// rewriteQuery asks the model for an optimized search query, falling back
// to the raw user utterance when the model returns the "0" sentinel or an
// empty result. Tool-call arguments that fail strict decoding surface
// ai.ErrMalformedResponse.
func (o *Orchestrator) rewriteQuery(ctx context.Context, history []core.ConversationMessage, userQuery string) (string, error) {
	request := "Generate search query for: " + userQuery
	messages := o.messagesFromHistory(queryPromptTemplate, history, request, queryPromptFewShots)

	completion, err := o.chat.Complete(ctx, messages, ai.CompletionOptions{
		Temperature: 0.0,
		Tools:       []ai.ToolSpec{searchSourcesTool},
	})
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	if call := completion.ToolCall; call != nil && call.Name == searchSourcesTool.Name {
		var args struct {
			SearchQuery string `json:"search_query"`
		}
		dec := json.NewDecoder(strings.NewReader(call.Arguments))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&args); err != nil {
			return "", fmt.Errorf("%w: search tool arguments: %v", ai.ErrMalformedResponse, err)
		}
		if args.SearchQuery != "" && args.SearchQuery != noResponse {
			return args.SearchQuery, nil
		}
	} else if query := strings.TrimSpace(completion.Content); query != "" && query != noResponse {
		return query, nil
	}
	return userQuery, nil
}

// searchSources retrieves the top sections for the query and renders them
// as source lines, "sourcepage: content" with newlines collapsed.
func (o *Orchestrator) searchSources(ctx context.Context, query string, overrides Overrides) ([]string, error) {
	o.logger.Info("searching sources", "query", query)

	embedding, err := o.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := o.index.Search(ctx, query, embedding, index.SearchOptions{
		Top: o.top,
		KNN: o.knn,
		Filter: index.Filter{
			ExcludeCategories: overrides.ExcludeCategories,
			Sourcefiles:       overrides.Sourcefiles,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search sources: %w", err)
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		text := r.Caption
		if text == "" {
			text = r.Section.Content
		}
		lines = append(lines, r.Section.Sourcepage+": "+noNewlines(text))
	}
	o.logger.Debug("retrieved sources", "count", len(lines))
	return lines, nil
}

// messagesFromHistory assembles the prompt: system message, few-shots, the
// current user content, then as many prior turns (newest first) as fit the
// token budget.
func (o *Orchestrator) messagesFromHistory(systemPrompt string, history []core.ConversationMessage, userContent string, fewShots []core.ConversationMessage) []core.ConversationMessage {
	builder := NewPromptBuilder(systemPrompt, o.model)
	for i := len(fewShots) - 1; i >= 0; i-- {
		builder.Insert(fewShots[i].Role, fewShots[i].Content)
	}

	appendIndex := len(fewShots) + 1
	builder.InsertAt(appendIndex, core.RoleUser, userContent)
	total := builder.TokensFor(builder.Last())

	for i := len(history) - 2; i >= 0; i-- {
		cost := builder.TokensFor(history[i])
		if total+cost > maxHistoryTokens {
			o.logger.Debug("history truncated", "budget", maxHistoryTokens)
			break
		}
		builder.InsertAt(appendIndex, history[i].Role, history[i].Content)
		total += cost
	}
	return builder.Messages()
}

// formatThoughts renders the prompt trace shown to the caller.
func formatThoughts(query string, messages []core.ConversationMessage) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, fmt.Sprintf("{%s: %s}", m.Role, m.Content))
	}
	trace := strings.Join(parts, "\n\n")
	return "Searched for:<br>" + query + "<br><br>Conversations:<br>" + strings.ReplaceAll(trace, "\n", "<br>")
}

func noNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "\r", " ")
}
