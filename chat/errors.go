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

import "errors"

var (
	// ErrEmptyHistory indicates an Answer call with no conversation turns.
	ErrEmptyHistory = errors.New("conversation history is empty")

	// ErrNotUserTurn indicates a history whose last turn is not the user's.
	ErrNotUserTurn = errors.New("last conversation turn must be the user's")
)
