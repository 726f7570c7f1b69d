// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package deadline converts between block counts and wall-clock estimates
// and classifies the registry's two-phase sign-then-register windows. The
// calculator is pure; the poller in poller.go is the only part that
// touches the ledger.
package deadline

import (
	"fmt"
	"math"
	"strings"

	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/config"
)

// Calculator estimates block/time conversions from a static per-chain
// block-time table. Immutable after construction; safe for concurrent use.
type Calculator struct {
	blockTimes map[string]float64
}

// NewCalculator builds a calculator from a block-time table keyed by
// CAIP-2 string, normally config.Config.ChainTimings(). Chains missing
// from the table fall back to config.DefaultBlockTimeSeconds.
func NewCalculator(blockTimes map[string]float64) *Calculator {
	copied := make(map[string]float64, len(blockTimes))
	for k, v := range blockTimes {
		if v > 0 {
			copied[k] = v
		}
	}
	return &Calculator{blockTimes: copied}
}

// BlockTimeSeconds returns the chain's average block time. Unknown chains
// are expected (the table is extended lazily) and get the default.
func (c *Calculator) BlockTimeSeconds(chain caip.ChainID) float64 {
	if t, ok := c.blockTimes[chain.String()]; ok {
		return t
	}
	return config.DefaultBlockTimeSeconds
}

// EstimateMS estimates the wall-clock milliseconds covered by a block
// count. Non-positive counts mean no time has elapsed and yield 0.
func (c *Calculator) EstimateMS(blocks int64, chain caip.ChainID) int64 {
	if blocks <= 0 {
		return 0
	}
	return int64(float64(blocks) * c.BlockTimeSeconds(chain) * 1000)
}

// EstimateBlocks estimates how many blocks cover at least ms milliseconds.
// Rounds up so callers never under-estimate; non-positive input yields 0.
func (c *Calculator) EstimateBlocks(ms int64, chain caip.ChainID) int64 {
	if ms <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(ms) / (c.BlockTimeSeconds(chain) * 1000)))
}

// Window is one poll of a registration deadline, as read from the
// registry contract. Recomputed on every poll, never cached beyond one
// poll interval.
type Window struct {
	CurrentBlock  uint64
	StartBlock    uint64
	ExpiryBlock   uint64
	GraceStartsAt uint64

	// TimeLeft is the contract's own remaining-seconds estimate.
	TimeLeft uint64

	// IsExpired is the contract's authoritative expiry flag; it may
	// reflect conditions not visible from block numbers alone.
	IsExpired bool
}

// BlocksUntilStart returns how many blocks remain before the window
// opens, zero once it has.
func (w Window) BlocksUntilStart() uint64 {
	if w.CurrentBlock >= w.StartBlock {
		return 0
	}
	return w.StartBlock - w.CurrentBlock
}

// State classifies a signature-flow window.
type State uint8

const (
	StateNotYetOpen State = iota
	StateOpen
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateNotYetOpen:
		return "not-yet-open"
	case StateOpen:
		return "open"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// State classifies the window. The contract's IsExpired flag wins over
// any block arithmetic.
func (w Window) State() State {
	if w.IsExpired || w.CurrentBlock >= w.ExpiryBlock {
		return StateExpired
	}
	if w.CurrentBlock < w.StartBlock {
		return StateNotYetOpen
	}
	return StateOpen
}

// DurationOptions controls FormatDuration rendering.
type DurationOptions struct {
	ShowHours  bool
	ShowDays   bool
	PadMinutes bool
}

// FormatDuration renders a millisecond count for countdown display.
// Negative and zero inputs both render as the zero duration; a countdown
// never shows a negative time.
func FormatDuration(ms int64, opts DurationOptions) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000

	var parts []string
	if opts.ShowDays {
		days := total / 86400
		total %= 86400
		if days > 0 {
			parts = append(parts, fmt.Sprintf("%dd", days))
		}
	}
	if opts.ShowHours || opts.ShowDays {
		hours := total / 3600
		total %= 3600
		if hours > 0 || len(parts) > 0 {
			parts = append(parts, fmt.Sprintf("%dh", hours))
		}
	}

	minutes := total / 60
	seconds := total % 60
	if opts.PadMinutes {
		parts = append(parts, fmt.Sprintf("%02dm", minutes))
	} else {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
