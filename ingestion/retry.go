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
	"log/slog"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
)

// RetryWithBackoff runs operation until it succeeds, returns a permanent error
// or maxAttempts is reached. The delay starts at baseDelay and doubles after
// each failed attempt. Validation failures, duplicate keys and context errors
// are permanent and returned at once.
func RetryWithBackoff(ctx context.Context, logger *slog.Logger, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	delay := baseDelay
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if permanent(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		logger.Warn("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "delay", delay, "err", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}

func permanent(err error) bool {
	return errors.Is(err, core.ErrValidation) ||
		errors.Is(err, storage.ErrDuplicateKey) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
