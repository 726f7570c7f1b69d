// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package fees

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chainsentry/registry/batch"
	"github.com/chainsentry/registry/caip"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type fakeFeeReader struct {
	fee *uint256.Int
	err error
}

func (f *fakeFeeReader) RegistrationFee(context.Context, batch.Kind) (*uint256.Int, error) {
	return f.fee, f.err
}

type fakeBridgeQuoter struct {
	fee    *uint256.Int
	routes map[string]bool
}

func (f *fakeBridgeQuoter) QuoteDelivery(_ context.Context, origin, hub caip.ChainID, _ []byte) (*uint256.Int, error) {
	if f.routes != nil && !f.routes[origin.String()+"->"+hub.String()] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedRoute, origin, hub)
	}
	return f.fee, nil
}

func mustChain(t *testing.T, ref int64) caip.ChainID {
	t.Helper()
	id, err := caip.FormatChain(ref)
	require.NoError(t, err)
	return id
}

func TestBreakdownTotalInvariant(t *testing.T) {
	breakdown := NewBreakdown(
		LineItem{Label: LabelBridgeFee, Amount: uint256.NewInt(42_000)},
		LineItem{Label: LabelRegistrationFee, Amount: uint256.NewInt(1_000_000)},
	)

	sum := uint256.NewInt(0)
	for _, item := range breakdown.Items() {
		sum.Add(sum, item.Amount)
	}
	require.Equal(t, sum, breakdown.Total())
	require.Equal(t, uint64(1_042_000), breakdown.Total().Uint64())
}

func TestBreakdownImmutable(t *testing.T) {
	amount := uint256.NewInt(100)
	breakdown := NewBreakdown(LineItem{Label: LabelRegistrationFee, Amount: amount})

	// Mutating the caller's amount or the returned views must not
	// change the breakdown.
	amount.SetUint64(999)
	breakdown.Total().SetUint64(777)
	breakdown.Items()[0].Amount.SetUint64(555)

	require.Equal(t, uint64(100), breakdown.Total().Uint64())
	require.Equal(t, uint64(100), breakdown.Items()[0].Amount.Uint64())
}

func TestQuoteDirect(t *testing.T) {
	base := mustChain(t, 8453)
	quoter := NewQuoter(map[string]FeeReader{
		base.String(): &fakeFeeReader{fee: uint256.NewInt(1_000_000)},
	}, nil)

	breakdown, err := quoter.QuoteDirect(context.Background(), batch.KindWallet, base)
	require.NoError(t, err)

	items := breakdown.Items()
	require.Len(t, items, 1)
	require.Equal(t, LabelRegistrationFee, items[0].Label)
	require.Equal(t, uint64(1_000_000), items[0].Amount.Uint64())
	require.Equal(t, uint64(1_000_000), breakdown.Total().Uint64())
}

func TestQuoteDirectUnknownChain(t *testing.T) {
	quoter := NewQuoter(nil, nil)
	_, err := quoter.QuoteDirect(context.Background(), batch.KindWallet, mustChain(t, 1))
	require.Error(t, err)
}

func TestQuoteDirectReadFailure(t *testing.T) {
	base := mustChain(t, 8453)
	readErr := errors.New("rpc timeout")
	quoter := NewQuoter(map[string]FeeReader{
		base.String(): &fakeFeeReader{err: readErr},
	}, nil)

	_, err := quoter.QuoteDirect(context.Background(), batch.KindWallet, base)
	require.ErrorIs(t, err, readErr)
}

func TestQuoteCrossChain(t *testing.T) {
	origin := mustChain(t, 10)
	hub := mustChain(t, 8453)
	quoter := NewQuoter(
		map[string]FeeReader{hub.String(): &fakeFeeReader{fee: uint256.NewInt(1_000_000)}},
		&fakeBridgeQuoter{fee: uint256.NewInt(42_000)},
	)

	breakdown, err := quoter.QuoteCrossChain(context.Background(), batch.KindWallet, origin, hub)
	require.NoError(t, err)

	items := breakdown.Items()
	require.Len(t, items, 2)
	require.Equal(t, LabelBridgeFee, items[0].Label)
	require.Equal(t, uint64(42_000), items[0].Amount.Uint64())
	require.Equal(t, LabelRegistrationFee, items[1].Label)
	require.Equal(t, uint64(1_000_000), items[1].Amount.Uint64())
	require.Equal(t, uint64(1_042_000), breakdown.Total().Uint64())
}

func TestQuoteCrossChainUnsupportedRoute(t *testing.T) {
	origin := mustChain(t, 10)
	hub := mustChain(t, 8453)

	// No bridge configured at all.
	quoter := NewQuoter(nil, nil)
	_, err := quoter.QuoteCrossChain(context.Background(), batch.KindWallet, origin, hub)
	require.ErrorIs(t, err, ErrUnsupportedRoute)

	// Origin equals hub: nothing to bridge.
	withBridge := NewQuoter(nil, &fakeBridgeQuoter{fee: uint256.NewInt(1)})
	_, err = withBridge.QuoteCrossChain(context.Background(), batch.KindWallet, hub, hub)
	require.ErrorIs(t, err, ErrUnsupportedRoute)

	// Bridge exists but has no path for this pair.
	routed := NewQuoter(
		map[string]FeeReader{hub.String(): &fakeFeeReader{fee: uint256.NewInt(1)}},
		&fakeBridgeQuoter{routes: map[string]bool{}},
	)
	_, err = routed.QuoteCrossChain(context.Background(), batch.KindWallet, origin, hub)
	require.ErrorIs(t, err, ErrUnsupportedRoute)
}

type countingFeeReader struct {
	fee   *uint256.Int
	reads int
}

func (c *countingFeeReader) RegistrationFee(context.Context, batch.Kind) (*uint256.Int, error) {
	c.reads++
	return c.fee, nil
}

func TestCachedQuoter(t *testing.T) {
	base := mustChain(t, 8453)
	reader := &countingFeeReader{fee: uint256.NewInt(1_000_000)}
	cached := NewCachedQuoter(
		NewQuoter(map[string]FeeReader{base.String(): reader}, nil),
		time.Minute,
	)

	first, err := cached.QuoteDirect(context.Background(), batch.KindWallet, base)
	require.NoError(t, err)
	second, err := cached.QuoteDirect(context.Background(), batch.KindWallet, base)
	require.NoError(t, err)
	require.Equal(t, first.Total(), second.Total())
	require.Equal(t, 1, reader.reads)

	// A different kind is a different quote.
	_, err = cached.QuoteDirect(context.Background(), batch.KindContract, base)
	require.NoError(t, err)
	require.Equal(t, 2, reader.reads)
}
