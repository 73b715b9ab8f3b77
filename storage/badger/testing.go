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

import "github.com/pedanticgeek/docsearch/storage"

// NewMemoryStorage creates an in-memory blob store and work queue for testing.
// Returns blobStore, queue, backend, and error.
// Caller must close the queue and backend when done.
func NewMemoryStorage() (storage.BlobStore, storage.WorkQueue, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	blobs, err := NewBlobStore(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	queue, err := NewQueue(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	return blobs, queue, backend, nil
}
