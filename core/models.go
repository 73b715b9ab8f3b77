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


package core

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// FileID is a deterministic identifier derived from a filename.
// The same filename always produces the same FileID, which keeps
// re-ingestion idempotent: section IDs derived from the FileID overwrite
// their previous versions in the search index instead of duplicating them.
type FileID string

// FileIDFromName derives the FileID for a filename.
// The encoding is reversible so the original filename can be recovered.
func FileIDFromName(filename string) FileID {
	return FileID(strings.ToUpper(hex.EncodeToString([]byte(filename))))
}

// Filename recovers the original filename the FileID was derived from.
func (id FileID) Filename() (string, error) {
	b, err := hex.DecodeString(string(id))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileID, id)
	}
	return string(b), nil
}

// SectionID returns the search index document ID for the i-th section of
// the file.
func (id FileID) SectionID(i int) string {
	return fmt.Sprintf("%s-page-%d", id, i)
}

// SummaryID returns the search index document ID for the file's synthetic
// summary section. It is distinct from all SectionID values so the summary
// never overwrites a content section.
func (id FileID) SummaryID() string {
	return string(id) + "-summary"
}

// PageRecord is the extracted text of a single physical page together with
// its character offset into the concatenated document text.
type PageRecord struct {
	PageNum    int
	PageOffset int
	PageText   string
}

// PageMap is the ordered sequence of extracted pages of one document.
// Page offsets are non-decreasing and partition the concatenated text
// contiguously. A PageMap lives only for the duration of one ingestion run.
type PageMap []PageRecord

// AllText returns the concatenation of all page texts.
func (pm PageMap) AllText() string {
	var sb strings.Builder
	for _, p := range pm {
		sb.WriteString(p.PageText)
	}
	return sb.String()
}

// OwningPage returns the index of the page containing the given character
// offset: the last page whose offset is <= the given offset.
// Offsets past the end resolve to the last page, mirroring how section
// starts inside the trailing page resolve.
func (pm PageMap) OwningPage(offset int) int {
	for i := 0; i < len(pm)-1; i++ {
		if offset >= pm[i].PageOffset && offset < pm[i+1].PageOffset {
			return i
		}
	}
	return len(pm) - 1
}

// Section is one indexable unit of a document: either a content chunk
// produced by the segmenter or the single synthetic summary section.
// Sections are write-once; after upload the search index owns them.
type Section struct {
	ID           string
	Content      string
	Title        string
	Category     string
	Sourcepage   string
	Sourcefile   string
	IsSummary    bool
	IsAssessment bool
	Embedding    []float32
}

// Summary is the structured result of document summarization.
type Summary struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is a single turn in a chat conversation.
// A conversation history is ordered oldest first; the last message is the
// current user turn.
type ConversationMessage struct {
	Role    Role
	Content string
}

// QueueMessage is the wire format of one ingestion task on the work queue.
// One file equals one message. Field names match the external schema.
type QueueMessage struct {
	Filename   string `json:"filename"`
	Sourcefile string `json:"sourcefile"`
	ID         string `json:"id"`
	VScan      bool   `json:"v-scan"`
}

// SourcefileKey returns the blob store key of an uploaded original.
func SourcefileKey(filename string) string {
	return "sourcefiles/" + filename
}

// PageTextBlobName returns the blob name of the derived text of one page.
// Layout extraction drops the filename extension ("report.pdf" page 2 ->
// "report-page2.txt"); the scan path keeps the full filename so the image
// and text blobs of a page share a stem.
func PageTextBlobName(filename string, page int, scan bool) string {
	if scan {
		return fmt.Sprintf("%s-page%d.txt", filename, page)
	}
	stem := filename
	if i := strings.Index(filename, "."); i >= 0 {
		stem = filename[:i]
	}
	return fmt.Sprintf("%s-page%d.txt", stem, page)
}

// PageImageBlobName returns the blob name of a rendered page image.
func PageImageBlobName(filename string, page int) string {
	return fmt.Sprintf("%s-page%d.png", filename, page)
}
