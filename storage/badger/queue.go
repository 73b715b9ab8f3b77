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


package badger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/pedanticgeek/docsearch/storage"
)

// Queue implements storage.WorkQueue on a BadgerDB backend.
//
// Messages are keyed by a monotonic sequence in BigEndian order, so the
// oldest message is always first under iteration. Visibility of received
// messages is tracked process-locally: a crash makes every unsettled message
// visible again on restart, preserving at-least-once delivery.
type Queue struct {
	backend *Backend
	seq     *badger.Sequence
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[uint64]struct{}
}

// newQueue is an internal constructor that returns the concrete type.
func newQueue(backend *Backend) (*Queue, error) {
	seq, err := backend.GetSequence(queueIDSeq)
	if err != nil {
		return nil, err
	}
	return &Queue{
		backend:  backend,
		seq:      seq,
		logger:   slog.Default().With("component", "badger-queue"),
		inflight: make(map[uint64]struct{}),
	}, nil
}

// NewQueue creates a work queue on the given backend.
//
// Returns storage.WorkQueue interface to enforce abstraction.
func NewQueue(backend *Backend) (storage.WorkQueue, error) {
	if backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return newQueue(backend)
}

// Send enqueues a message body.
func (q *Queue) Send(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := q.seq.Next()
	if err != nil {
		return err
	}

	err = q.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeQueueKey(id), body); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		q.logger.Error("failed to enqueue message", "id", id, "err", err)
		return err
	}

	q.logger.Debug("enqueued message", "id", id, "bytes", len(body))
	return nil
}

// Receive dequeues the oldest visible message. The message stays invisible
// to other receivers until Delete or Release is called with its ID.
func (q *Queue) Receive(ctx context.Context) (*storage.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var msg *storage.Message
	err := q.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queuePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			id := queueKeyID(item.Key())
			if _, held := q.inflight[id]; held {
				continue
			}
			body, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			msg = &storage.Message{ID: id, Body: body}
			return nil
		}
		return storage.ErrQueueEmpty
	}, false)
	if err != nil {
		return nil, err
	}

	q.inflight[msg.ID] = struct{}{}
	q.logger.Debug("received message", "id", msg.ID)
	return msg, nil
}

// Delete settles a received message permanently.
func (q *Queue) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, held := q.inflight[id]; !held {
		return storage.ErrUnknownReceipt
	}

	err := q.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeQueueKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	delete(q.inflight, id)
	q.logger.Debug("deleted message", "id", id)
	return nil
}

// Release makes a received message visible again for redelivery.
func (q *Queue) Release(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, held := q.inflight[id]; !held {
		return storage.ErrUnknownReceipt
	}
	delete(q.inflight, id)
	q.logger.Debug("released message", "id", id)
	return nil
}

// Close releases the sequence. The backend owns the database lifecycle.
func (q *Queue) Close() error {
	return q.seq.Release()
}
