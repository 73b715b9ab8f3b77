package mock

import (
	"context"
	"strings"

	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/core"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error)

	// StreamCompleteFunc is called by StreamComplete if set. When nil, the
	// scripted Deltas are delivered to the stream function one at a time.
	StreamCompleteFunc func(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions, fn ai.StreamFunc) error

	// Response is returned by the default Complete behavior.
	Response string

	// Deltas are streamed, in order, by the default StreamComplete behavior.
	// When empty, Response is streamed as a single delta.
	Deltas []string

	callCount int

	// LastMessages records the messages of the most recent call.
	LastMessages []core.ConversationMessage

	// LastOptions records the options of the most recent call.
	LastOptions ai.CompletionOptions
}

// NewMockChatModel creates a mock chat model with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete returns the scripted response, or delegates to CompleteFunc.
func (m *MockChatModel) Complete(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
	m.callCount++
	m.LastMessages = messages
	m.LastOptions = opts

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, opts)
	}
	return &ai.Completion{Content: m.Response}, nil
}

// StreamComplete delivers the scripted deltas, or delegates to
// StreamCompleteFunc.
func (m *MockChatModel) StreamComplete(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions, fn ai.StreamFunc) error {
	m.callCount++
	m.LastMessages = messages
	m.LastOptions = opts

	if m.StreamCompleteFunc != nil {
		return m.StreamCompleteFunc(ctx, messages, opts, fn)
	}

	deltas := m.Deltas
	if len(deltas) == 0 && m.Response != "" {
		deltas = []string{m.Response}
	}
	for _, delta := range deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, delta); err != nil {
			return err
		}
	}
	return nil
}

// CallCount returns the number of times any method was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// Reset clears call records and injected behavior.
func (m *MockChatModel) Reset() {
	*m = MockChatModel{}
}

// SystemMessage returns the content of the system message in the most recent
// call, or "" if none was sent.
func (m *MockChatModel) SystemMessage() string {
	for _, msg := range m.LastMessages {
		if msg.Role == core.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

// LastUserMessage returns the content of the final user message in the most
// recent call, or "" if none was sent.
func (m *MockChatModel) LastUserMessage() string {
	for i := len(m.LastMessages) - 1; i >= 0; i-- {
		if m.LastMessages[i].Role == core.RoleUser {
			return m.LastMessages[i].Content
		}
	}
	return ""
}

// ScriptDeltas splits text into deltas of roughly n characters so tests can
// stream realistic chunk boundaries without hand-writing every piece.
func ScriptDeltas(text string, n int) []string {
	if n <= 0 {
		n = 8
	}
	var deltas []string
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if sb.Len() >= n {
			deltas = append(deltas, sb.String())
			sb.Reset()
		}
	}
	if sb.Len() > 0 {
		deltas = append(deltas, sb.String())
	}
	return deltas
}
