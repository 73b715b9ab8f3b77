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


// Package ingestion drives file ingestion end to end: the Pipeline turns an
// uploaded source file into page blobs, embedded sections, and a summary
// section; the Worker feeds the pipeline from the work queue, one file per
// message.
//
// Two ingestion modes exist. Layout mode parses the document's text
// directly. Scan mode renders each page to an image and has a vision model
// transcribe it, for documents whose content is visual rather than textual.
package ingestion
