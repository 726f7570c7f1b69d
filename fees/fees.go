// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fees assembles line-itemized cost breakdowns for direct versus
// cross-chain registration paths. Informational only; quotes are read
// pre-submission and never cached past their TTL.
package fees

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainsentry/registry/batch"
	"github.com/chainsentry/registry/cache"
	"github.com/chainsentry/registry/caip"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrUnsupportedRoute is returned when no bridge path exists between the
// origin and hub chains.
var ErrUnsupportedRoute = errors.New("no bridge route between chains")

// Line item labels. Fixed strings: downstream UIs key on them.
const (
	LabelRegistrationFee = "registration fee"
	LabelBridgeFee       = "bridge fee"
)

// LineItem is one labeled amount in a breakdown, in the origin chain's
// native unit.
type LineItem struct {
	Label  string
	Amount *uint256.Int
}

// Breakdown is an ordered list of line items with a computed total. The
// total always equals the arithmetic sum of the items: it is derived at
// construction and the struct is never mutated afterwards.
type Breakdown struct {
	items []LineItem
	total *uint256.Int
}

// NewBreakdown builds a breakdown from line items, computing the total.
func NewBreakdown(items ...LineItem) Breakdown {
	total := uint256.NewInt(0)
	copied := make([]LineItem, len(items))
	for i, item := range items {
		copied[i] = LineItem{Label: item.Label, Amount: item.Amount.Clone()}
		total.Add(total, item.Amount)
	}
	return Breakdown{items: copied, total: total}
}

// Items returns the line items in order.
func (b Breakdown) Items() []LineItem {
	out := make([]LineItem, len(b.items))
	for i, item := range b.items {
		out[i] = LineItem{Label: item.Label, Amount: item.Amount.Clone()}
	}
	return out
}

// Total returns the sum of all line items.
func (b Breakdown) Total() *uint256.Int {
	return b.total.Clone()
}

// FeeReader reads a registry's registration fee. Implemented by
// contracts.Caller; tests inject fakes.
type FeeReader interface {
	RegistrationFee(ctx context.Context, kind batch.Kind) (*uint256.Int, error)
}

// BridgeQuoter quotes the bridge delivery fee from an origin chain to
// the hub. Implementations return ErrUnsupportedRoute (wrapped or not)
// when the origin has no path to the hub.
type BridgeQuoter interface {
	QuoteDelivery(ctx context.Context, origin, hub caip.ChainID, body []byte) (*uint256.Int, error)
}

// Quoter assembles fee breakdowns. Registries are keyed by CAIP-2 chain
// id; the map is fixed at construction.
type Quoter struct {
	registries map[string]FeeReader
	bridge     BridgeQuoter
}

func NewQuoter(registries map[string]FeeReader, bridge BridgeQuoter) *Quoter {
	copied := make(map[string]FeeReader, len(registries))
	for k, v := range registries {
		copied[k] = v
	}
	return &Quoter{registries: copied, bridge: bridge}
}

// QuoteDirect prices a same-chain registration: a single line item, the
// target registry's fee.
func (q *Quoter) QuoteDirect(ctx context.Context, kind batch.Kind, chain caip.ChainID) (Breakdown, error) {
	registry, ok := q.registries[chain.String()]
	if !ok {
		return Breakdown{}, fmt.Errorf("no registry configured for %s", chain)
	}
	fee, err := registry.RegistrationFee(ctx, kind)
	if err != nil {
		return Breakdown{}, fmt.Errorf("failed to read registration fee on %s: %w", chain, err)
	}
	return NewBreakdown(LineItem{Label: LabelRegistrationFee, Amount: fee}), nil
}

// QuoteCrossChain prices a spoke registration relayed to the hub: the
// bridge delivery fee plus the hub registry's fee.
func (q *Quoter) QuoteCrossChain(
	ctx context.Context,
	kind batch.Kind,
	origin caip.ChainID,
	hub caip.ChainID,
) (Breakdown, error) {
	if q.bridge == nil || origin == hub {
		return Breakdown{}, fmt.Errorf("%w: %s -> %s", ErrUnsupportedRoute, origin, hub)
	}

	bridgeFee, err := q.bridge.QuoteDelivery(ctx, origin, hub, quoteProbeBody(kind))
	if err != nil {
		return Breakdown{}, fmt.Errorf("failed to quote bridge delivery %s -> %s: %w", origin, hub, err)
	}

	registry, ok := q.registries[hub.String()]
	if !ok {
		return Breakdown{}, fmt.Errorf("no registry configured for hub %s", hub)
	}
	registrationFee, err := registry.RegistrationFee(ctx, kind)
	if err != nil {
		return Breakdown{}, fmt.Errorf("failed to read registration fee on hub %s: %w", hub, err)
	}

	return NewBreakdown(
		LineItem{Label: LabelBridgeFee, Amount: bridgeFee},
		LineItem{Label: LabelRegistrationFee, Amount: registrationFee},
	), nil
}

// quoteProbeBody is a representative message body for fee quoting: one
// identifier and one chain hash, the smallest relayed registration.
func quoteProbeBody(kind batch.Kind) []byte {
	body := make([]byte, 0, 2*common.HashLength+1)
	body = append(body, byte(kind))
	body = append(body, make([]byte, 2*common.HashLength)...)
	return body
}

// CachedQuoter caches breakdowns per (path, kind, chain pair) for a
// configured TTL. On-chain fees change rarely; UIs refreshing a quote
// view should not hammer the RPC endpoints.
type CachedQuoter struct {
	quoter *Quoter
	cache  *cache.TTLCache[string, Breakdown]
}

func NewCachedQuoter(quoter *Quoter, ttl time.Duration) *CachedQuoter {
	return &CachedQuoter{
		quoter: quoter,
		cache:  cache.NewTTLCache[string, Breakdown](ttl),
	}
}

func (c *CachedQuoter) QuoteDirect(ctx context.Context, kind batch.Kind, chain caip.ChainID) (Breakdown, error) {
	key := "direct|" + kind.String() + "|" + chain.String()
	return c.cache.Get(key, func(string) (Breakdown, error) {
		return c.quoter.QuoteDirect(ctx, kind, chain)
	}, false)
}

func (c *CachedQuoter) QuoteCrossChain(
	ctx context.Context,
	kind batch.Kind,
	origin caip.ChainID,
	hub caip.ChainID,
) (Breakdown, error) {
	key := "cross|" + kind.String() + "|" + origin.String() + "|" + hub.String()
	return c.cache.Get(key, func(string) (Breakdown, error) {
		return c.quoter.QuoteCrossChain(ctx, kind, origin, hub)
	}, false)
}
