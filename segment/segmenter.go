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


// Package segment turns extracted page text into overlapping, boundary-aware,
// page-tagged sections suitable for indexing. Splitting is a pure single
// forward pass over the concatenated document text; it performs no I/O.
package segment

import (
	"strings"

	"github.com/pedanticgeek/docsearch/core"
)

// Splitting constants. Changing any of these changes chunk boundaries and
// breaks ID-level idempotency with previously indexed documents.
const (
	MaxSectionLength    = 1000
	SentenceSearchLimit = 100
	SectionOverlap      = 100
)

const (
	sentenceEndings = ".!?"
	wordBreaks      = ",;: ()[]{}\t\n"
)

// Chunk is one emitted section: its text and the index of the page that
// owns the chunk's starting offset.
type Chunk struct {
	Text string
	Page int
}

// Splitter splits a PageMap into overlapping sections.
// The zero value is not usable; call NewSplitter.
type Splitter struct {
	maxSectionLength    int
	sentenceSearchLimit int
	sectionOverlap      int
}

// NewSplitter creates a splitter with the standard section geometry.
func NewSplitter() *Splitter {
	return &Splitter{
		maxSectionLength:    MaxSectionLength,
		sentenceSearchLimit: SentenceSearchLimit,
		sectionOverlap:      SectionOverlap,
	}
}

// Split returns every chunk of the document in order.
func (s *Splitter) Split(pm core.PageMap) []Chunk {
	var chunks []Chunk
	s.Each(pm, func(c Chunk) bool {
		chunks = append(chunks, c)
		return true
	})
	return chunks
}

// Each emits chunks to yield one at a time, in order, until the document is
// exhausted or yield returns false. The pass is not restartable.
//
// Chunk boundaries prefer sentence endings, then word breaks: the end of a
// section scans forward up to SentenceSearchLimit characters past
// MaxSectionLength for a sentence terminator, and the start scans backward to
// avoid opening mid-sentence or mid-word. A section that ends inside an
// unclosed HTML table pulls the next section back to the table's opening tag
// (bounded by the standard overlap) so tables are not split across sections.
func (s *Splitter) Each(pm core.PageMap, yield func(Chunk) bool) {
	text := []rune(pm.AllText())
	length := len(text)
	start := 0
	end := length
	emitted := 0

	isSentenceEnding := func(r rune) bool { return strings.ContainsRune(sentenceEndings, r) }
	isWordBreak := func(r rune) bool { return strings.ContainsRune(wordBreaks, r) }

	for start+s.sectionOverlap < length {
		lastWord := -1
		end = start + s.maxSectionLength

		if end > length {
			end = length
		} else {
			// Try to find the end of the sentence.
			for end < length && (end-start-s.maxSectionLength) < s.sentenceSearchLimit && !isSentenceEnding(text[end]) {
				if isWordBreak(text[end]) {
					lastWord = end
				}
				end++
			}
			if end < length && !isSentenceEnding(text[end]) && lastWord > 0 {
				// Fall back to at least keeping a whole word.
				end = lastWord
			}
		}
		if end < length {
			end++
		}

		// Try to find the start of the sentence, or at least a whole word
		// boundary.
		lastWord = -1
		for start > 0 && start > end-s.maxSectionLength-2*s.sentenceSearchLimit && !isSentenceEnding(text[start]) {
			if isWordBreak(text[start]) {
				lastWord = start
			}
			start--
		}
		if !isSentenceEnding(text[start]) && lastWord > 0 {
			start = lastWord
		}
		if start > 0 {
			start++
		}

		sectionText := string(text[start:end])
		if !yield(Chunk{Text: sectionText, Page: pm.OwningPage(start)}) {
			return
		}
		emitted++

		lastTableStart := lastRuneIndex(sectionText, "<table")
		if lastTableStart > 2*s.sentenceSearchLimit && lastTableStart > lastRuneIndex(sectionText, "</table") {
			// The section ends with an unclosed table: start the next section
			// at the table's opening tag so the table is not split. Tables
			// opening inside the overlap keep the standard overlap, which
			// bounds the pullback and guarantees forward progress for tables
			// longer than MaxSectionLength.
			start = min(end-s.sectionOverlap, start+lastTableStart)
		} else {
			start = end - s.sectionOverlap
		}
	}

	if length > 0 && end > start && (emitted == 0 || start+s.sectionOverlap < end) {
		yield(Chunk{Text: string(text[start:end]), Page: pm.OwningPage(start)})
	}
}

// lastRuneIndex returns the rune index of the last occurrence of sub in s,
// or -1 if absent.
func lastRuneIndex(s, sub string) int {
	i := strings.LastIndex(s, sub)
	if i < 0 {
		return -1
	}
	return len([]rune(s[:i]))
}
