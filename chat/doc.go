// Package chat answers conversational questions over the indexed documents.
//
// The Orchestrator follows a retrieve-then-read flow: the conversation is
// first rewritten into a standalone search query, matching sections are
// retrieved from the index, and the answer is generated grounded in those
// sections and streamed to the caller as events. When follow-up suggestions
// are enabled, the model's << >>-wrapped questions are diverted out of the
// visible answer and delivered as a trailing event.
package chat
