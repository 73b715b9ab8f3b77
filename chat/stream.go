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

import "strings"

// EventKind discriminates the events of an answer stream.
type EventKind int

const (
	// EventContext is always the stream's first event, carrying the chosen
	// search query, the retrieved sources, and the prompt trace.
	EventContext EventKind = iota

	// EventDelta carries one chunk of visible answer text.
	EventDelta

	// EventFollowups is an optional trailing event carrying the suggested
	// follow-up questions.
	EventFollowups

	// EventError terminates the stream after a failure.
	EventError
)

// Context is the retrieval context of an answer, emitted before any answer
// text so the caller can render citations while tokens stream in.
type Context struct {
	// Query is the search query the conversation was rewritten into.
	Query string

	// DataPoints are the retrieved source lines, "sourcepage: content".
	DataPoints []string

	// Thoughts is a human-readable trace of the query and assembled prompt.
	Thoughts string

	// SessionState echoes the caller's opaque session token.
	SessionState any
}

// StreamEvent is one event of an answer stream.
type StreamEvent struct {
	Kind      EventKind
	Context   *Context
	Delta     string
	Followups []string
	Err       error
}

// followupSplitter diverts everything from the first "<<" marker onward into
// a side buffer, ending the visible answer at the marker.
type followupSplitter struct {
	started bool
	buf     strings.Builder
}

// Feed returns the visible portion of a delta; once the marker has been
// seen, every subsequent delta is buffered and nothing is visible.
func (f *followupSplitter) Feed(delta string) string {
	if f.started {
		f.buf.WriteString(delta)
		return ""
	}
	if i := strings.Index(delta, "<<"); i >= 0 {
		f.started = true
		f.buf.WriteString(delta[i:])
		// The visible answer ends here; drop separator whitespace left
		// dangling before the marker.
		return strings.TrimRight(delta[:i], " \t\r\n")
	}
	return delta
}

// Buffer returns the diverted text, empty when the marker never occurred.
func (f *followupSplitter) Buffer() string {
	return f.buf.String()
}

// ExtractFollowups parses every <<question>> pair out of content, returning
// the text preceding the first marker and the questions in order.
func ExtractFollowups(content string) (string, []string) {
	before, rest, found := strings.Cut(content, "<<")
	if !found {
		return content, nil
	}

	var questions []string
	for {
		question, after, ok := strings.Cut(rest, ">>")
		if !ok {
			break
		}
		if question != "" {
			questions = append(questions, question)
		}
		_, rest, ok = strings.Cut(after, "<<")
		if !ok {
			break
		}
	}
	return before, questions
}
