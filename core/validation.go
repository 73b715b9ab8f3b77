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
	"fmt"
	"unicode/utf8"
)

// Validate checks that the pages form a contiguous partition of the
// concatenated document text: offsets start at zero, never decrease, and
// each page begins exactly where the previous one ended.
func (pm PageMap) Validate() error {
	offset := 0
	for i, p := range pm {
		if p.PageNum != i {
			return fmt.Errorf("%w: page %d has page_num %d", ErrInvalidPageMap, i, p.PageNum)
		}
		if p.PageOffset != offset {
			return fmt.Errorf("%w: page %d starts at %d, want %d", ErrInvalidPageMap, i, p.PageOffset, offset)
		}
		offset += utf8.RuneCountInString(p.PageText)
	}
	return nil
}

// Validate checks that a queue message carries every required field.
func (m *QueueMessage) Validate() error {
	if m.Filename == "" {
		return fmt.Errorf("%w: filename", ErrMissingField)
	}
	if m.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	return nil
}
