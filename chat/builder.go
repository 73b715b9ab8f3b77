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
	"github.com/pedanticgeek/docsearch/core"
	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/text/unicode/norm"
)

// tokensPerMessage is the fixed per-message framing overhead of the chat
// completion wire format.
const tokensPerMessage = 2

// PromptBuilder assembles a chat prompt: the system message stays at
// position 0, everything else is inserted behind it. Token counts use the
// model's tokenizer so history truncation matches the provider's accounting.
type PromptBuilder struct {
	messages []core.ConversationMessage
	count    func(string) int
}

// NewPromptBuilder creates a builder seeded with the system message.
// Content is NFC-normalized so token counts are stable across input sources.
func NewPromptBuilder(systemContent, model string) *PromptBuilder {
	return &PromptBuilder{
		messages: []core.ConversationMessage{
			{Role: core.RoleSystem, Content: normalizeContent(systemContent)},
		},
		count: newTokenCounter(model),
	}
}

// Insert adds a message directly after the system message.
func (b *PromptBuilder) Insert(role core.Role, content string) {
	b.InsertAt(1, role, content)
}

// InsertAt adds a message at the given position. The system message cannot
// be displaced.
func (b *PromptBuilder) InsertAt(index int, role core.Role, content string) {
	if index < 1 {
		index = 1
	}
	if index > len(b.messages) {
		index = len(b.messages)
	}
	msg := core.ConversationMessage{Role: role, Content: normalizeContent(content)}
	b.messages = append(b.messages[:index], append([]core.ConversationMessage{msg}, b.messages[index:]...)...)
}

// Messages returns the assembled prompt.
func (b *PromptBuilder) Messages() []core.ConversationMessage {
	return b.messages
}

// Last returns the most recently appended message.
func (b *PromptBuilder) Last() core.ConversationMessage {
	return b.messages[len(b.messages)-1]
}

// TokensFor returns the token cost of one message, including the
// per-message framing overhead.
func (b *PromptBuilder) TokensFor(msg core.ConversationMessage) int {
	return tokensPerMessage + b.count(string(msg.Role)) + b.count(msg.Content)
}

// newTokenCounter resolves the tokenizer for a model, falling back first to
// the cl100k_base encoding and then to a character heuristic when no
// encoding data is available (offline environments).
func newTokenCounter(model string) func(string) int {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return func(s string) int { return len(enc.Encode(s, nil, nil)) }
	}
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		return func(s string) int { return len(enc.Encode(s, nil, nil)) }
	}
	return func(s string) int { return (len(s) + 3) / 4 }
}

func normalizeContent(content string) string {
	return norm.NFC.String(content)
}
