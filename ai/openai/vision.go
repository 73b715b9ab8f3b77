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
	"encoding/base64"
	"log/slog"

	"github.com/pedanticgeek/docsearch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// visionMaxTokens bounds the length of a single page description.
const visionMaxTokens = 2048

// Vision implements ai.Vision using OpenAI-compatible multimodal chat APIs.
type Vision struct {
	client llms.Model
	logger *slog.Logger
}

// newVision is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newVision(config *ai.Config) (*Vision, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Vision{
		client: client,
		logger: slog.Default().With("component", "openai-vision"),
	}, nil
}

// NewVision creates a new vision service using the provided configuration.
//
// Returns ai.Vision interface to enforce abstraction.
func NewVision(config *ai.Config) (ai.Vision, error) {
	return newVision(config)
}

// DescribePage extracts the informative content of one rendered page image.
// The image is PNG bytes, sent inline as a base64 data URL.
func (v *Vision) DescribePage(ctx context.Context, image []byte, prompt string) (string, error) {
	v.logger.Debug("describing page image", "bytes", len(image))

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
				llms.ImageURLPart(dataURL),
			},
		},
	}

	response, err := v.client.GenerateContent(ctx, content, llms.WithMaxTokens(visionMaxTokens))
	if err != nil {
		v.logger.Error("failed to describe page", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}
