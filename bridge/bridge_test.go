// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"testing"

	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/config"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCorrelator(t *testing.T, cfg config.BridgeConfig) *Correlator {
	t.Helper()
	if cfg.Provider == "" {
		cfg.Provider = "hyperlane"
	}
	c, err := NewCorrelator(cfg, zap.NewNop())
	require.NoError(t, err)
	return c
}

func mustChain(t *testing.T, ref int64) caip.ChainID {
	t.Helper()
	id, err := caip.FormatChain(ref)
	require.NoError(t, err)
	return id
}

func dispatchLog(t *testing.T, txHash common.Hash, message []byte) *gethtypes.Log {
	t.Helper()
	data, err := mailboxABI.Events["Dispatch"].Inputs.NonIndexed().Pack(message)
	require.NoError(t, err)
	return &gethtypes.Log{
		Topics: []common.Hash{
			dispatchTopic,
			common.BytesToHash(common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed").Bytes()),
			common.BigToHash(common.Big1), // destination domain
			common.HexToHash("0x02"),      // recipient
		},
		Data:   data,
		TxHash: txHash,
	}
}

func dispatchIDLog(txHash, id common.Hash) *gethtypes.Log {
	return &gethtypes.Log{
		Topics: []common.Hash{dispatchIDTopic, id},
		TxHash: txHash,
	}
}

func unrelatedLog(txHash common.Hash) *gethtypes.Log {
	return &gethtypes.Log{
		Topics: []common.Hash{crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))},
		TxHash: txHash,
	}
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("hyperlane")
	require.NoError(t, err)
	require.Equal(t, ProviderHyperlane, p)
	require.Equal(t, "hyperlane", p.String())

	_, err = ParseProvider("wormhole")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestExtractMessageFromDispatchID(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{})
	origin := mustChain(t, 10)
	txHash := common.HexToHash("0xaa")
	id := common.HexToHash("0xbeef")

	msg, ok := correlator.ExtractMessage(
		[]*gethtypes.Log{unrelatedLog(txHash), dispatchIDLog(txHash, id)},
		origin,
	)
	require.True(t, ok)
	require.Equal(t, id, msg.ID)
	require.Equal(t, txHash, msg.OriginTxHash)
	require.Equal(t, origin, msg.OriginChain)
	require.Equal(t, ProviderHyperlane, msg.Provider)
}

func TestExtractMessageDispatchFallback(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{})
	origin := mustChain(t, 10)
	txHash := common.HexToHash("0xaa")
	message := []byte("packed hyperlane message bytes")

	// With no DispatchId event, the id is the hash of the raw message.
	msg, ok := correlator.ExtractMessage(
		[]*gethtypes.Log{dispatchLog(t, txHash, message)},
		origin,
	)
	require.True(t, ok)
	require.Equal(t, crypto.Keccak256Hash(message), msg.ID)
}

func TestExtractMessagePrefersDispatchID(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{})
	origin := mustChain(t, 10)
	txHash := common.HexToHash("0xaa")
	id := common.HexToHash("0xbeef")

	// Mailbox emits both; DispatchId is the identifier contract clients
	// index by, so it wins regardless of log order.
	msg, ok := correlator.ExtractMessage(
		[]*gethtypes.Log{
			dispatchLog(t, txHash, []byte("message")),
			dispatchIDLog(txHash, id),
		},
		origin,
	)
	require.True(t, ok)
	require.Equal(t, id, msg.ID)
}

func TestExtractMessageAbsent(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{})
	origin := mustChain(t, 10)

	msg, ok := correlator.ExtractMessage(nil, origin)
	require.False(t, ok)
	require.Nil(t, msg)

	msg, ok = correlator.ExtractMessage(
		[]*gethtypes.Log{unrelatedLog(common.HexToHash("0xaa")), {}},
		origin,
	)
	require.False(t, ok)
	require.Nil(t, msg)
}

func TestExtractMessageMalformed(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{})
	origin := mustChain(t, 10)

	// Garbage event data is a warning, never an error: tracking simply
	// degrades to "no cross-chain reference".
	malformed := &gethtypes.Log{
		Topics: []common.Hash{dispatchTopic},
		Data:   []byte{0x01, 0x02, 0x03},
		TxHash: common.HexToHash("0xaa"),
	}
	msg, ok := correlator.ExtractMessage([]*gethtypes.Log{malformed}, origin)
	require.False(t, ok)
	require.Nil(t, msg)
}

func TestExtractFromReceipt(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{})
	origin := mustChain(t, 10)

	_, ok := correlator.ExtractFromReceipt(nil, origin)
	require.False(t, ok)

	id := common.HexToHash("0xbeef")
	receipt := &gethtypes.Receipt{Logs: []*gethtypes.Log{dispatchIDLog(common.HexToHash("0xaa"), id)}}
	msg, ok := correlator.ExtractFromReceipt(receipt, origin)
	require.True(t, ok)
	require.Equal(t, id, msg.ID)
}

func TestMessageURL(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{
		ExcludedChains: []string{"eip155:31337"},
	})
	id := common.HexToHash("0xbeef")

	url, ok := correlator.MessageURL(id, mustChain(t, 10))
	require.True(t, ok)
	require.Equal(t, "https://explorer.hyperlane.xyz/message/"+id.Hex(), url)

	// Excluded chains return no reference regardless of the hash.
	_, ok = correlator.MessageURL(id, mustChain(t, 31337))
	require.False(t, ok)
	_, ok = correlator.TxURL(common.HexToHash("0xaa"), mustChain(t, 31337))
	require.False(t, ok)
}

func TestMessageURLInclusionList(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{
		ExcludedChains: []string{"eip155:10"},
		IncludedChains: []string{"eip155:10", "eip155:8453"},
	})
	id := common.HexToHash("0xbeef")

	_, ok := correlator.MessageURL(id, mustChain(t, 1))
	require.False(t, ok, "chains off the inclusion list get no link")

	url, ok := correlator.MessageURL(id, mustChain(t, 8453))
	require.True(t, ok)
	require.Contains(t, url, "/message/")

	// Exclusion wins over inclusion.
	_, ok = correlator.MessageURL(id, mustChain(t, 10))
	require.False(t, ok)
}

func TestExplorerBaseOverride(t *testing.T) {
	correlator := testCorrelator(t, config.BridgeConfig{
		ExplorerBase: "https://hyperlane.example.org/",
	})
	url, ok := correlator.TxURL(common.HexToHash("0xaa"), mustChain(t, 1))
	require.True(t, ok)
	require.Equal(t, "https://hyperlane.example.org/?search="+common.HexToHash("0xaa").Hex(), url)
}

func TestTrustedSourcesDefaultDeny(t *testing.T) {
	sender := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	sources := NewTrustedSources([]config.TrustedSource{
		{Chain: "eip155:10", Sender: sender.Hex()},
	})

	require.True(t, sources.IsTrusted(mustChain(t, 10), sender))

	// Same sender on another chain, or another sender on the same chain,
	// is untrusted; absence always means no.
	require.False(t, sources.IsTrusted(mustChain(t, 8453), sender))
	require.False(t, sources.IsTrusted(mustChain(t, 10), common.HexToAddress("0x01")))

	empty := NewTrustedSources(nil)
	require.False(t, empty.IsTrusted(mustChain(t, 10), sender))
}
