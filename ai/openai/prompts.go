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

// summarizePrompt instructs the model to produce a structured document
// summary. The response must be a single JSON object so it can be parsed
// strictly.
const summarizePrompt = `You are an assistant that summarizes documents for a company knowledge base.
The user provides the pages of a document, one message per page, in order.
Produce a JSON object with exactly these fields:
"title": a short descriptive title for the document,
"category": the best-fitting category, one of: General, Legal, Marketing, IT, Finance,
"summary": a concise summary of the whole document, at most 200 words.
Respond with the JSON object only, no markdown fences and no extra commentary.`
