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


// Package ai defines the model-facing boundary of docsearch: text embedding,
// chat completion (plain and streamed), page-image scanning, and document
// summarization, plus the retry policy applied to rate-limited calls.
//
// Production implementations backed by OpenAI-compatible APIs live in
// ai/openai; deterministic test doubles live in ai/mock. Consumers depend on
// the interfaces in this package, never on a concrete provider.
package ai
