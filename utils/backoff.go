// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// WithRetriesTimeout uses an exponential backoff to run the operation until it
// succeeds or the timeout limit has been reached.
func WithRetriesTimeout(
	logger *zap.Logger,
	operation backoff.Operation,
	timeout time.Duration,
) error {
	expBackOff := backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(timeout),
	)
	notify := func(err error, duration time.Duration) {
		logger.Warn("operation failed, retrying...",
			zap.Error(err),
			zap.Duration("nextAttemptIn", duration),
		)
	}
	return backoff.RetryNotify(operation, expBackOff, notify)
}

// WithRetriesTimeoutCtx is WithRetriesTimeout bound to a context. An
// abandoned caller stops the retry loop at the next backoff boundary;
// none of the retried reads has partial-completion state to clean up.
func WithRetriesTimeoutCtx(
	ctx context.Context,
	logger *zap.Logger,
	operation backoff.Operation,
	timeout time.Duration,
) error {
	expBackOff := backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(timeout),
	)
	notify := func(err error, duration time.Duration) {
		logger.Warn("operation failed, retrying...",
			zap.Error(err),
			zap.Duration("nextAttemptIn", duration),
		)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(expBackOff, ctx), notify)
}
