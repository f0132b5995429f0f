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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
	"github.com/stretchr/testify/assert"
)

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first time", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, nil, func() error {
			calls++
			return nil
		}, 3, time.Millisecond)
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, nil, func() error {
			calls++
			if calls < 3 {
				return errors.New("busy")
			}
			return nil
		}, 3, time.Millisecond)
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, nil, func() error {
			calls++
			return fmt.Errorf("attempt %d", calls)
		}, 3, time.Millisecond)
		assert.EqualError(t, err, "attempt 3")
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		for _, permanentErr := range []error{
			fmt.Errorf("bad chunk: %w", core.ErrEmptyText),
			fmt.Errorf("chunk %q: %w", "a", storage.ErrDuplicateKey),
			context.Canceled,
		} {
			calls := 0
			err := RetryWithBackoff(ctx, nil, func() error {
				calls++
				return permanentErr
			}, 5, time.Millisecond)
			assert.ErrorIs(t, err, permanentErr)
			assert.Equal(t, 1, calls)
		}
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, nil, func() error { return nil }, 0, time.Millisecond)
		assert.Equal(t, ErrInvalidMaxAttempts, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		err := RetryWithBackoff(cancelled, nil, func() error {
			calls++
			return nil
		}, 3, time.Millisecond)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, calls)
	})
}
