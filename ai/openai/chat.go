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
	"context"
	"log/slog"

	"github.com/pedanticgeek/docsearch/ai"
	"github.com/pedanticgeek/docsearch/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client llms.Model
	logger *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatModel(config *ai.Config) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client: client,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}

// Complete runs a chat completion and returns the full response.
func (m *ChatModel) Complete(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions) (*ai.Completion, error) {
	m.logger.Debug("chat completion", "messages", len(messages), "tools", len(opts.Tools))

	response, err := m.client.GenerateContent(ctx, toContent(messages), toCallOptions(opts)...)
	if err != nil {
		m.logger.Error("failed to generate content", "err", err)
		return nil, err
	}
	if len(response.Choices) < 1 {
		return nil, ai.ErrEmptyResponse
	}

	choice := response.Choices[0]
	completion := &ai.Completion{Content: choice.Content}
	if len(choice.ToolCalls) > 0 && choice.ToolCalls[0].FunctionCall != nil {
		completion.ToolCall = &ai.ToolCall{
			Name:      choice.ToolCalls[0].FunctionCall.Name,
			Arguments: choice.ToolCalls[0].FunctionCall.Arguments,
		}
	} else if choice.FuncCall != nil {
		completion.ToolCall = &ai.ToolCall{
			Name:      choice.FuncCall.Name,
			Arguments: choice.FuncCall.Arguments,
		}
	}
	return completion, nil
}

// StreamComplete runs a chat completion in streaming mode, delivering answer
// deltas to fn as they arrive.
func (m *ChatModel) StreamComplete(ctx context.Context, messages []core.ConversationMessage, opts ai.CompletionOptions, fn ai.StreamFunc) error {
	m.logger.Debug("streaming chat completion", "messages", len(messages))

	callOpts := append(toCallOptions(opts), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		return fn(ctx, string(chunk))
	}))

	_, err := m.client.GenerateContent(ctx, toContent(messages), callOpts...)
	if err != nil {
		m.logger.Error("failed to stream content", "err", err)
	}
	return err
}

// toContent converts conversation messages to the langchaingo wire shape.
func toContent(messages []core.ConversationMessage) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.MessageContent{
			Role:  toRole(msg.Role),
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}
	return content
}

func toRole(role core.Role) llms.ChatMessageType {
	switch role {
	case core.RoleSystem:
		return llms.ChatMessageTypeSystem
	case core.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func toCallOptions(opts ai.CompletionOptions) []llms.CallOption {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if len(opts.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(opts.Tools))
		for _, t := range opts.Tools {
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		callOpts = append(callOpts, llms.WithTools(tools))
	}
	return callOpts
}
