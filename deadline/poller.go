// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package deadline

import (
	"context"
	"time"

	"github.com/chainsentry/registry/cache"
	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/utils"
	"go.uber.org/zap"
)

// MinPollInterval is the uniform floor on polling cadence. Chains with
// sub-second block times do not lower it, so fast chains cannot cause
// request storms.
const MinPollInterval = 2 * time.Second

// readTimeout bounds the retried window read within one poll tick.
const readTimeout = 10 * time.Second

// Reader reads the current deadline window for an account from the
// registry contract. A read is a single idempotent call; implementations
// live in the contracts package, tests inject fakes.
type Reader interface {
	ReadWindow(ctx context.Context, account caip.AccountID) (Window, error)
}

// Poller polls registration windows at a caller-chosen cadence. Results
// are last-writer-wins; overlapping polls for the same account are
// deduplicated through the cache's single-flight group.
type Poller struct {
	reader  Reader
	logger  *zap.Logger
	windows *cache.TTLCache[string, Window]
}

func NewPoller(reader Reader, logger *zap.Logger) *Poller {
	return &Poller{
		reader:  reader,
		logger:  logger,
		windows: cache.NewTTLCache[string, Window](MinPollInterval),
	}
}

// Current returns the account's window, reading from the ledger at most
// once per MinPollInterval; concurrent callers share one read.
func (p *Poller) Current(ctx context.Context, account caip.AccountID) (Window, error) {
	return p.windows.Get(account.String(), func(string) (Window, error) {
		return p.reader.ReadWindow(ctx, account)
	}, false)
}

// Latest returns the most recently polled window without touching the
// ledger.
func (p *Poller) Latest(account caip.AccountID) (Window, bool) {
	return p.windows.Peek(account.String())
}

// Watch polls the account's window until the context is cancelled or the
// window expires, invoking fn after every successful poll. The requested
// interval is clamped to MinPollInterval. Transient read failures are
// retried with backoff within the tick and otherwise skipped; cross-chain
// infrastructure is expected to be intermittently degraded.
func (p *Poller) Watch(
	ctx context.Context,
	account caip.AccountID,
	interval time.Duration,
	fn func(Window),
) error {
	if interval < MinPollInterval {
		interval = MinPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		window, err := p.poll(ctx, account)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("deadline poll failed",
				zap.String("account", account.String()),
				zap.Error(err),
			)
		} else {
			fn(window)
			if window.State() == StateExpired {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, account caip.AccountID) (Window, error) {
	var window Window
	err := utils.WithRetriesTimeoutCtx(ctx, p.logger, func() error {
		fetched, err := p.windows.Get(account.String(), func(string) (Window, error) {
			return p.reader.ReadWindow(ctx, account)
		}, true)
		if err != nil {
			return err
		}
		window = fetched
		return nil
	}, readTimeout)
	return window, err
}
