// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWithRetriesTimeout(t *testing.T) {
	t.Run("NotEnoughRetry", func(t *testing.T) {
		retryable := newMockRetryableFn(6)
		err := WithRetriesTimeout(
			zap.NewNop(),
			func() (err error) {
				_, err = retryable.Run()
				return err
			},
			624*time.Millisecond,
		)
		require.Error(t, err)
	})
	t.Run("EnoughRetry", func(t *testing.T) {
		retryable := newMockRetryableFn(2)
		var res bool
		err := WithRetriesTimeout(
			zap.NewNop(),
			func() (err error) {
				res, err = retryable.Run()
				return err
			},
			5000*time.Millisecond,
		)
		require.NoError(t, err)
		require.True(t, res)
	})
}

func TestWithRetriesTimeoutCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context stops retrying even though the operation keeps
	// failing and the timeout has not elapsed.
	calls := 0
	err := WithRetriesTimeoutCtx(
		ctx,
		zap.NewNop(),
		func() error {
			calls++
			return errors.New("error")
		},
		time.Minute,
	)
	require.Error(t, err)
	require.LessOrEqual(t, calls, 1)
}

type mockRetryableFn struct {
	counter uint64
	trigger uint64
}

func newMockRetryableFn(trigger uint64) mockRetryableFn {
	return mockRetryableFn{
		counter: 0,
		trigger: trigger,
	}
}

func (m *mockRetryableFn) Run() (bool, error) {
	if m.counter >= m.trigger {
		return true, nil
	}
	m.counter++
	return false, errors.New("error")
}
