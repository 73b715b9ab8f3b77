package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedanticgeek/docsearch/core"
)

func TestPromptBuilderSystemStaysFirst(t *testing.T) {
	b := NewPromptBuilder("system prompt", "gpt-4o-mini")
	b.Insert(core.RoleUser, "first inserted")
	b.Insert(core.RoleUser, "second inserted")

	msgs := b.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, "system prompt", msgs[0].Content)
	// Each Insert lands directly behind the system message.
	assert.Equal(t, "second inserted", msgs[1].Content)
	assert.Equal(t, "first inserted", msgs[2].Content)
}

func TestPromptBuilderInsertAtClamps(t *testing.T) {
	b := NewPromptBuilder("system", "gpt-4o-mini")
	b.InsertAt(0, core.RoleUser, "clamped low")
	b.InsertAt(99, core.RoleUser, "clamped high")

	msgs := b.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, "clamped low", msgs[1].Content)
	assert.Equal(t, "clamped high", msgs[2].Content)
}

func TestPromptBuilderTokenCost(t *testing.T) {
	b := NewPromptBuilder("system", "gpt-4o-mini")

	short := core.ConversationMessage{Role: core.RoleUser, Content: "hi"}
	long := core.ConversationMessage{Role: core.RoleUser, Content: "a considerably longer message that costs more tokens to encode"}

	assert.GreaterOrEqual(t, b.TokensFor(short), tokensPerMessage)
	assert.Greater(t, b.TokensFor(long), b.TokensFor(short))
}

func TestPromptBuilderNormalizesContent(t *testing.T) {
	b := NewPromptBuilder("system", "gpt-4o-mini")
	// "e" + combining acute accent composes to a single rune.
	b.Insert(core.RoleUser, "cafe\u0301")

	assert.Equal(t, "caf\u00e9", b.Messages()[1].Content)
}
