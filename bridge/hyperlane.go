// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"strings"

	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Hyperlane Mailbox events. DispatchId carries the message identifier
// directly; Dispatch carries the raw packed message, whose Keccak-256 is
// the identifier.
var (
	dispatchTopic   = crypto.Keccak256Hash([]byte("Dispatch(address,uint32,bytes32,bytes)"))
	dispatchIDTopic = crypto.Keccak256Hash([]byte("DispatchId(bytes32)"))
)

const mailboxEventsJSON = `[
	{"type":"event","name":"Dispatch","inputs":[
		{"name":"sender","type":"address","indexed":true},
		{"name":"destination","type":"uint32","indexed":true},
		{"name":"recipient","type":"bytes32","indexed":true},
		{"name":"message","type":"bytes","indexed":false}]},
	{"type":"event","name":"DispatchId","inputs":[
		{"name":"messageId","type":"bytes32","indexed":true}]}
]`

var mailboxABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(mailboxEventsJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// Correlator extracts and tracks cross-chain message references for one
// provider. Construct once from config and reuse; all methods are
// read-only and safe for concurrent use.
type Correlator struct {
	provider     Provider
	logger       *zap.Logger
	explorerBase string
	excluded     map[string]struct{}
	included     map[string]struct{}
}

// defaultExplorerBase is the Hyperlane message explorer.
const defaultExplorerBase = "https://explorer.hyperlane.xyz"

// NewCorrelator builds a correlator from bridge config.
func NewCorrelator(cfg config.BridgeConfig, logger *zap.Logger) (*Correlator, error) {
	provider, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	base := cfg.ExplorerBase
	if base == "" {
		base = defaultExplorerBase
	}

	return &Correlator{
		provider:     provider,
		logger:       logger,
		explorerBase: strings.TrimRight(base, "/"),
		excluded:     toSet(cfg.ExcludedChains),
		included:     toSet(cfg.IncludedChains),
	}, nil
}

// Provider returns the configured bridge provider.
func (c *Correlator) Provider() Provider {
	return c.provider
}

// ExtractMessage scans a dispatch transaction's logs for the provider's
// dispatch event and returns the cross-chain message reference. Most
// transactions are not cross-chain dispatches, so absence is the common
// case and reports (nil, false). A malformed dispatch event is logged and
// treated the same way; tracking degrades rather than failing the caller.
func (c *Correlator) ExtractMessage(logs []*gethtypes.Log, origin caip.ChainID) (*Message, bool) {
	var fallback *Message

	for _, log := range logs {
		if len(log.Topics) == 0 {
			continue
		}
		switch log.Topics[0] {
		case dispatchIDTopic:
			if len(log.Topics) != 2 {
				c.logger.Warn("malformed DispatchId event",
					zap.String("txHash", log.TxHash.Hex()),
					zap.Int("topics", len(log.Topics)),
				)
				continue
			}
			return &Message{
				ID:           log.Topics[1],
				OriginTxHash: log.TxHash,
				OriginChain:  origin,
				Provider:     c.provider,
			}, true

		case dispatchTopic:
			if fallback != nil {
				continue
			}
			raw, err := mailboxABI.Events["Dispatch"].Inputs.NonIndexed().UnpackValues(log.Data)
			if err != nil || len(raw) != 1 {
				c.logger.Warn("undecodable Dispatch event",
					zap.String("txHash", log.TxHash.Hex()),
					zap.Error(err),
				)
				continue
			}
			message, ok := raw[0].([]byte)
			if !ok || len(message) == 0 {
				c.logger.Warn("empty Dispatch message body",
					zap.String("txHash", log.TxHash.Hex()),
				)
				continue
			}
			fallback = &Message{
				ID:           crypto.Keccak256Hash(message),
				OriginTxHash: log.TxHash,
				OriginChain:  origin,
				Provider:     c.provider,
			}
		}
	}

	if fallback != nil {
		return fallback, true
	}
	return nil, false
}

// ExtractFromReceipt is ExtractMessage over an already-resolved receipt.
func (c *Correlator) ExtractFromReceipt(receipt *gethtypes.Receipt, origin caip.ChainID) (*Message, bool) {
	if receipt == nil {
		return nil, false
	}
	return c.ExtractMessage(receipt.Logs, origin)
}

// MessageURL returns the explorer page for a message id, or false when
// the origin chain has no public explorer coverage. The exclusion list is
// checked before the inclusion list.
func (c *Correlator) MessageURL(id common.Hash, origin caip.ChainID) (string, bool) {
	if !c.explorable(origin) {
		return "", false
	}
	return c.explorerBase + "/message/" + id.Hex(), true
}

// TxURL returns the explorer search page for an origin transaction hash,
// subject to the same chain coverage rules as MessageURL.
func (c *Correlator) TxURL(txHash common.Hash, origin caip.ChainID) (string, bool) {
	if !c.explorable(origin) {
		return "", false
	}
	return c.explorerBase + "/?search=" + txHash.Hex(), true
}

func (c *Correlator) explorable(origin caip.ChainID) bool {
	key := origin.String()
	if _, excluded := c.excluded[key]; excluded {
		return false
	}
	if len(c.included) > 0 {
		_, included := c.included[key]
		return included
	}
	return true
}

func toSet(chains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(chains))
	for _, chain := range chains {
		if id, ok := caip.ParseChain(chain); ok {
			set[id.String()] = struct{}{}
		}
	}
	return set
}
