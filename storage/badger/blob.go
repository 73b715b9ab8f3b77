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
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pedanticgeek/docsearch/storage"
)

// BlobStore implements storage.BlobStore on a BadgerDB backend.
// Blob content and metadata are stored under separate keys so listings and
// metadata reads don't load the content.
type BlobStore struct {
	backend *Backend
	logger  *slog.Logger
}

// newBlobStore is an internal constructor that returns the concrete type.
func newBlobStore(backend *Backend) *BlobStore {
	return &BlobStore{
		backend: backend,
		logger:  slog.Default().With("component", "badger-blobstore"),
	}
}

// NewBlobStore creates a blob store on the given backend.
//
// Returns storage.BlobStore interface to enforce abstraction.
func NewBlobStore(backend *Backend) (storage.BlobStore, error) {
	if backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return newBlobStore(backend), nil
}

// Put stores a blob under name, overwriting any existing blob.
func (s *BlobStore) Put(ctx context.Context, name string, data []byte, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeBlobDataKey(name), data); err != nil {
			return err
		}
		if err := tx.Set(makeBlobMetaKey(name), meta); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		s.logger.Error("failed to store blob", "name", name, "err", err)
		return err
	}

	s.logger.Debug("stored blob", "name", name, "bytes", len(data))
	return nil
}

// Get retrieves a blob by name.
func (s *BlobStore) Get(ctx context.Context, name string) (*storage.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob := &storage.Blob{Name: name, Metadata: map[string]string{}}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBlobDataKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		blob.Data, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}

		metaItem, err := tx.Get(makeBlobMetaKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return metaItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &blob.Metadata)
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Delete removes a blob by name. Deleting a missing blob is not an error.
func (s *BlobStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeBlobDataKey(name)); err != nil {
			return err
		}
		if err := tx.Delete(makeBlobMetaKey(name)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// List returns the names of all blobs with the given prefix, sorted.
// BadgerDB iterates keys in lexicographic order, so no extra sort is needed.
func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keyPrefix := makeBlobDataKey(prefix)
	var names []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := string(iter.Item().Key())
			names = append(names, strings.TrimPrefix(key, blobDataPrefix+":"))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Close is a no-op; the backend owns the database lifecycle.
func (s *BlobStore) Close() error {
	return nil
}
