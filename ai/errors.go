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
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedResponse indicates a model response that does not match the
	// expected structured shape. It is never retried.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyResponse indicates a completion with no choices.
	ErrEmptyResponse = errors.New("empty model response")
)

// RateLimitError marks a provider rate-limit rejection. Only errors of this
// class are eligible for backoff retries; everything else propagates
// immediately.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimit reports whether err is a provider rate-limit rejection.
// Besides the typed RateLimitError it recognizes the textual 429 signatures
// of OpenAI-compatible services, since the client library does not expose a
// typed error for them.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit")
}
