package storage

import "context"

// Blob is a named binary object with string metadata.
type Blob struct {
	Name     string
	Data     []byte
	Metadata map[string]string
}

// BlobStore provides content-addressed storage for source files and derived
// page blobs. Implementations must be thread-safe and support concurrent
// access.
type BlobStore interface {
	// Put stores a blob under name, overwriting any existing blob.
	Put(ctx context.Context, name string, data []byte, metadata map[string]string) error

	// Get retrieves a blob by name.
	// Returns ErrNotFound if the blob doesn't exist.
	Get(ctx context.Context, name string) (*Blob, error)

	// Delete removes a blob by name. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close closes the store and releases resources.
	Close() error
}

// Message is a queued work item. ID is the receipt used to settle the
// message after processing.
type Message struct {
	ID   uint64
	Body []byte
}

// WorkQueue provides at-least-once delivery of ingestion work items.
// A received message stays invisible to other receivers until it is either
// deleted (processed) or released (failed, eligible for redelivery).
type WorkQueue interface {
	// Send enqueues a message body.
	Send(ctx context.Context, body []byte) error

	// Receive dequeues the oldest visible message.
	// Returns ErrQueueEmpty when no message is available.
	Receive(ctx context.Context) (*Message, error)

	// Delete settles a received message permanently.
	Delete(ctx context.Context, id uint64) error

	// Release makes a received message visible again for redelivery.
	Release(ctx context.Context, id uint64) error

	// Close closes the queue and releases resources.
	Close() error
}
