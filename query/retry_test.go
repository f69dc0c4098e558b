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


package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := retryWithBackoff(t.Context(), func() error {
		calls++
		if calls < 3 {
			return errors.New("503 service unavailable")
		}
		return nil
	}, 3, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustionSurfacesServiceUnavailable(t *testing.T) {
	calls := 0
	cause := errors.New("request timeout")
	err := retryWithBackoff(t.Context(), func() error {
		calls++
		return cause
	}, 3, time.Millisecond)

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestRetryNonTransientFailsImmediately(t *testing.T) {
	calls := 0
	cause := errors.New("invalid api key")
	err := retryWithBackoff(t.Context(), func() error {
		calls++
		return cause
	}, 3, time.Millisecond)

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrServiceUnavailable)
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := retryWithBackoff(ctx, func() error {
		t.Fatal("operation should not run with canceled context")
		return nil
	}, 3, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryInvalidAttempts(t *testing.T) {
	err := retryWithBackoff(t.Context(), func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(errors.New("429 too many requests")))
	assert.True(t, isTransient(errors.New("rate limit exceeded")))
	assert.True(t, isTransient(errors.New("connection refused")))
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(errors.New("model not found")))
	assert.False(t, isTransient(nil))
}
