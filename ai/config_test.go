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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, 2*time.Minute, cfg.SummaryTimeout)
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("https://api.openai.com"),
		WithToken("sk-test"),
		WithChatModel("gpt-4o-mini"),
		WithEmbeddingModel("text-embedding-3-large"),
		WithVisionModel("gpt-4o"),
		WithSummaryTimeout(30*time.Second),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.openai.com/v1", cfg.Host)
	assert.Equal(t, "sk-test", cfg.Token)
	assert.Equal(t, "text-embedding-3-large", cfg.EmbeddingModel)
	assert.Equal(t, 30*time.Second, cfg.SummaryTimeout)
}

func TestConfigNormalizeHostSuffix(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)

	cfg = NewConfig(WithHost("http://localhost:11434/v1"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
}

func TestConfigValidateMissingFields(t *testing.T) {
	cfg := NewConfig()
	cfg.ChatModel = ""
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.Host = ""
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.EmbeddingModel = ""
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.VisionModel = ""
	assert.Error(t, cfg.Validate())
}
