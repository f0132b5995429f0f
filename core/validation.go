// Copyright 2025 Poiesic Systems
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
	"strings"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must contain at least one non-whitespace character
//   - Id must not be empty
//   - Page must not be negative (0 means unknown)
//   - WordCount must not be negative
//
// NOT validated (optional metadata):
//   - Chapter, ContentType (rendered as "N/A" when empty)
//   - Seq (assigned by the loader)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w %q: %w", ErrInvalidChunk, chunk.Id, ErrEmptyText)
	}

	if chunk.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyID)
	}

	if chunk.Page < 0 {
		return fmt.Errorf("%w %q: %w: got %d", ErrInvalidChunk, chunk.Id, ErrInvalidPage, chunk.Page)
	}

	if chunk.WordCount < 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidChunk, chunk.Id, ErrInvalidWordCount)
	}

	return nil
}

// ValidateLimit checks that a result limit is a positive integer.
func ValidateLimit(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, n)
	}
	return nil
}
