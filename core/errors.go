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

import "errors"

// Domain validation errors
var (
	// ErrInvalidFileID indicates a FileID that cannot be decoded back to a filename.
	ErrInvalidFileID = errors.New("invalid file id")

	// ErrEmptyFilename indicates an empty filename where one is required.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInvalidPageMap indicates a PageMap whose offsets are not a contiguous
	// partition of the concatenated document text.
	ErrInvalidPageMap = errors.New("invalid page map")

	// ErrMissingField indicates a required message field is absent.
	ErrMissingField = errors.New("missing required field")
)
