package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedanticgeek/docsearch/ai"
	aimock "github.com/pedanticgeek/docsearch/ai/mock"
	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/index"
	idxmock "github.com/pedanticgeek/docsearch/index/mock"
)

func newTestOrchestrator(t *testing.T, chat *aimock.MockChatModel, idx *idxmock.MockIndex) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(chat, aimock.NewMockEmbedder(), idx)
	require.NoError(t, err)
	return o
}

func seedSections(t *testing.T, idx *idxmock.MockIndex, sections ...core.Section) {
	t.Helper()
	_, err := idx.Upload(context.Background(), sections)
	require.NoError(t, err)
}

func userTurn(content string) []core.ConversationMessage {
	return []core.ConversationMessage{{Role: core.RoleUser, Content: content}}
}

// collect drains the stream into slices by event kind.
func collect(t *testing.T, events <-chan StreamEvent) (*Context, string, []string, error) {
	t.Helper()

	var (
		ctx       *Context
		answer    strings.Builder
		followups []string
		streamErr error
		first     = true
	)
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return ctx, answer.String(), followups, streamErr
			}
			switch ev.Kind {
			case EventContext:
				assert.True(t, first, "context event must come first")
				ctx = ev.Context
			case EventDelta:
				answer.WriteString(ev.Delta)
			case EventFollowups:
				followups = ev.Followups
			case EventError:
				streamErr = ev.Err
			}
			first = false
		case <-deadline:
			t.Fatal("stream did not close")
		}
	}
}

func TestAnswerRejectsEmptyHistory(t *testing.T) {
	o := newTestOrchestrator(t, aimock.NewMockChatModel(), idxmock.NewMockIndex())

	_, err := o.Answer(context.Background(), nil, Overrides{})
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestAnswerRejectsAssistantLastTurn(t *testing.T) {
	o := newTestOrchestrator(t, aimock.NewMockChatModel(), idxmock.NewMockIndex())

	history := []core.ConversationMessage{
		{Role: core.RoleUser, Content: "hello"},
		{Role: core.RoleAssistant, Content: "hi"},
	}
	_, err := o.Answer(context.Background(), history, Overrides{})
	assert.ErrorIs(t, err, ErrNotUserTurn)
}

func TestAnswerStreamsGroundedAnswer(t *testing.T) {
	idx := idxmock.NewMockIndex()
	seedSections(t, idx, core.Section{
		ID:         "s1",
		Content:    "Paris is the capital of France.",
		Sourcepage: "geo.pdf-page0.txt",
		Sourcefile: "geo.pdf",
		Category:   "General",
	})

	chat := aimock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
		require.NotEmpty(t, opts.Tools)
		assert.Equal(t, "search_sources", opts.Tools[0].Name)
		return &ai.Completion{ToolCall: &ai.ToolCall{
			Name:      "search_sources",
			Arguments: `{"search_query": "capital of France"}`,
		}}, nil
	}
	chat.Deltas = []string{"Paris is the ", "capital [geo.pdf-page0.txt]."}

	o := newTestOrchestrator(t, chat, idx)
	events, err := o.Answer(context.Background(), userTurn("What is the capital of France?"), Overrides{})
	require.NoError(t, err)

	ctx, answer, followups, streamErr := collect(t, events)
	require.NoError(t, streamErr)
	require.NotNil(t, ctx)
	assert.Equal(t, "capital of France", ctx.Query)
	require.NotEmpty(t, ctx.DataPoints)
	assert.True(t, strings.HasPrefix(ctx.DataPoints[0], "geo.pdf-page0.txt: "))
	assert.Contains(t, ctx.Thoughts, "Searched for:<br>capital of France")
	assert.Equal(t, "Paris is the capital [geo.pdf-page0.txt].", answer)
	assert.Empty(t, followups)

	// The answering prompt carries the sources under the user's question.
	assert.Contains(t, chat.LastUserMessage(), "Sources:\ngeo.pdf-page0.txt: ")
	assert.NotContains(t, chat.SystemMessage(), "double angle brackets")
}

func TestAnswerSuggestsFollowups(t *testing.T) {
	idx := idxmock.NewMockIndex()
	seedSections(t, idx, core.Section{
		ID:         "s1",
		Content:    "Paris is the capital of France.",
		Sourcepage: "geo.pdf-page0.txt",
		Sourcefile: "geo.pdf",
	})

	chat := aimock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
		return &ai.Completion{Content: "capital of France"}, nil
	}
	chat.Deltas = []string{"Paris is the capital.", " <<What is", " the population?>>"}

	o := newTestOrchestrator(t, chat, idx)
	events, err := o.Answer(context.Background(), userTurn("What is the capital?"), Overrides{SuggestFollowups: true})
	require.NoError(t, err)

	_, answer, followups, streamErr := collect(t, events)
	require.NoError(t, streamErr)
	assert.Equal(t, "Paris is the capital.", answer)
	assert.Equal(t, []string{"What is the population?"}, followups)
	assert.Contains(t, chat.SystemMessage(), "double angle brackets")
}

func TestAnswerSentinelFallsBackToUtterance(t *testing.T) {
	idx := idxmock.NewMockIndex()
	chat := aimock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
		return &ai.Completion{Content: "0"}, nil
	}
	chat.Response = "I don't know."

	o := newTestOrchestrator(t, chat, idx)
	events, err := o.Answer(context.Background(), userTurn("thanks!"), Overrides{})
	require.NoError(t, err)

	ctx, _, _, streamErr := collect(t, events)
	require.NoError(t, streamErr)
	require.NotNil(t, ctx)
	assert.Equal(t, "thanks!", ctx.Query)
}

func TestAnswerMalformedToolArgumentsSurfaceError(t *testing.T) {
	idx := idxmock.NewMockIndex()
	chat := aimock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
		return &ai.Completion{ToolCall: &ai.ToolCall{Name: "search_sources", Arguments: "{not json"}}, nil
	}

	o := newTestOrchestrator(t, chat, idx)
	events, err := o.Answer(context.Background(), userTurn("sales figures"), Overrides{})
	require.NoError(t, err)

	ctx, answer, _, streamErr := collect(t, events)
	assert.Nil(t, ctx)
	assert.Empty(t, answer)
	assert.ErrorIs(t, streamErr, ai.ErrMalformedResponse)
}

func TestAnswerEmptyToolQueryFallsBack(t *testing.T) {
	idx := idxmock.NewMockIndex()
	chat := aimock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
		return &ai.Completion{ToolCall: &ai.ToolCall{Name: "search_sources", Arguments: `{"search_query": "0"}`}}, nil
	}
	chat.Response = "I don't know."

	o := newTestOrchestrator(t, chat, idx)
	events, err := o.Answer(context.Background(), userTurn("sales figures"), Overrides{})
	require.NoError(t, err)

	ctx, _, _, streamErr := collect(t, events)
	require.NoError(t, streamErr)
	require.NotNil(t, ctx)
	assert.Equal(t, "sales figures", ctx.Query)
}

func TestAnswerFilterOverridesReachIndex(t *testing.T) {
	idx := idxmock.NewMockIndex()
	var captured index.SearchOptions
	idx.SearchFunc = func(ctx context.Context, query string, embedding []float32, opts index.SearchOptions) ([]index.Result, error) {
		captured = opts
		return nil, nil
	}

	chat := aimock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
		return &ai.Completion{Content: "policies"}, nil
	}
	chat.Response = "I don't know."

	o := newTestOrchestrator(t, chat, idx)
	events, err := o.Answer(context.Background(), userTurn("policies?"), Overrides{
		ExcludeCategories: []string{"Legal"},
		Sourcefiles:       []string{"handbook.pdf"},
	})
	require.NoError(t, err)
	_, _, _, streamErr := collect(t, events)
	require.NoError(t, streamErr)

	assert.Equal(t, []string{"Legal"}, captured.Filter.ExcludeCategories)
	assert.Equal(t, []string{"handbook.pdf"}, captured.Filter.Sourcefiles)
	assert.Equal(t, index.DefaultTop, captured.Top)
	assert.Equal(t, index.DefaultKNN, captured.KNN)
}

func TestAnswerSearchFailureEmitsError(t *testing.T) {
	idx := idxmock.NewMockIndex()
	searchErr := errors.New("index unavailable")
	idx.SearchFunc = func(ctx context.Context, query string, embedding []float32, opts index.SearchOptions) ([]index.Result, error) {
		return nil, searchErr
	}

	chat := aimock.NewMockChatModel()
	chat.Response = "unused"

	o := newTestOrchestrator(t, chat, idx)
	events, err := o.Answer(context.Background(), userTurn("anything"), Overrides{})
	require.NoError(t, err)

	ctx, answer, _, streamErr := collect(t, events)
	assert.Nil(t, ctx)
	assert.Empty(t, answer)
	assert.ErrorIs(t, streamErr, searchErr)
}

func TestAnswerStopsOnConsumerCancel(t *testing.T) {
	idx := idxmock.NewMockIndex()
	seedSections(t, idx, core.Section{ID: "s1", Content: "relevant content", Sourcepage: "a.pdf-page0.txt", Sourcefile: "a.pdf"})

	chat := aimock.NewMockChatModel()
	chat.CompleteFunc = func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
		return &ai.Completion{Content: "relevant content"}, nil
	}
	chat.Deltas = aimock.ScriptDeltas(strings.Repeat("streamed answer text ", 50), 8)

	ctx, cancel := context.WithCancel(context.Background())
	o := newTestOrchestrator(t, chat, idx)
	events, err := o.Answer(ctx, userTurn("question"), Overrides{})
	require.NoError(t, err)

	// Read the context event, then walk away.
	ev := <-events
	assert.Equal(t, EventContext, ev.Kind)
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}

func TestMessagesFromHistoryOrdering(t *testing.T) {
	o := newTestOrchestrator(t, aimock.NewMockChatModel(), idxmock.NewMockIndex())

	history := []core.ConversationMessage{
		{Role: core.RoleUser, Content: "oldest question"},
		{Role: core.RoleAssistant, Content: "oldest answer"},
		{Role: core.RoleUser, Content: "current question"},
	}
	msgs := o.messagesFromHistory("system", history, "current question with sources", queryPromptFewShots)

	want := []string{"system"}
	for _, fs := range queryPromptFewShots {
		want = append(want, fs.Content)
	}
	want = append(want, "oldest question", "oldest answer", "current question with sources")

	require.Len(t, msgs, len(want))
	for i, content := range want {
		assert.Equal(t, content, msgs[i].Content)
	}
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
}

func TestMessagesFromHistoryTruncatesOldTurns(t *testing.T) {
	o := newTestOrchestrator(t, aimock.NewMockChatModel(), idxmock.NewMockIndex())

	// Large enough to blow the token budget under any tokenizer.
	huge := strings.Repeat("lorem ipsum dolor ", 40000)
	history := []core.ConversationMessage{
		{Role: core.RoleUser, Content: huge},
		{Role: core.RoleAssistant, Content: "short answer"},
		{Role: core.RoleUser, Content: "current question"},
	}
	msgs := o.messagesFromHistory("system", history, "current question with sources", nil)

	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Content)
	assert.Equal(t, "short answer", msgs[1].Content)
	assert.Equal(t, "current question with sources", msgs[2].Content)
}
