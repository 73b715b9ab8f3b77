package mock

import (
	"context"
	"fmt"

	"github.com/pedanticgeek/docsearch/core"
)

// MockVision is a test double for ai.Vision.
type MockVision struct {
	// DescribePageFunc is called by DescribePage if set.
	DescribePageFunc func(ctx context.Context, image []byte, prompt string) (string, error)

	callCount int
}

// NewMockVision creates a mock vision service with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockVision() *MockVision {
	return &MockVision{}
}

// DescribePage returns a deterministic description derived from the image
// bytes, or delegates to DescribePageFunc.
func (m *MockVision) DescribePage(ctx context.Context, image []byte, prompt string) (string, error) {
	m.callCount++

	if m.DescribePageFunc != nil {
		return m.DescribePageFunc(ctx, image, prompt)
	}
	return fmt.Sprintf("Scanned page content (%d bytes).", len(image)), nil
}

// CallCount returns the number of times DescribePage was called.
func (m *MockVision) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockVision) Reset() {
	m.callCount = 0
	m.DescribePageFunc = nil
}

// MockSummarizer is a test double for ai.Summarizer.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	SummarizeFunc func(ctx context.Context, pages core.PageMap) (*core.Summary, error)

	callCount int
}

// NewMockSummarizer creates a mock summarizer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize returns a fixed summary, or delegates to SummarizeFunc.
func (m *MockSummarizer) Summarize(ctx context.Context, pages core.PageMap) (*core.Summary, error) {
	m.callCount++

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, pages)
	}
	return &core.Summary{
		Title:    "Test Document",
		Category: "General",
		Summary:  fmt.Sprintf("A document with %d pages.", len(pages)),
	}, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockSummarizer) Reset() {
	m.callCount = 0
	m.SummarizeFunc = nil
}
