// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge correlates an outbound cross-chain registration with its
// hub-side arrival. It extracts the bridge provider's message identifier
// from a dispatch transaction's logs and maps it to a human-checkable
// explorer reference. Hyperlane is the implemented provider; the type is
// a tagged variant so others can be added without subclassing.
package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/config"
	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownProvider is returned for an unrecognized bridge provider name.
var ErrUnknownProvider = errors.New("unknown bridge provider")

// Provider identifies a bridge implementation.
type Provider uint8

const (
	ProviderHyperlane Provider = iota
)

func (p Provider) String() string {
	switch p {
	case ProviderHyperlane:
		return "hyperlane"
	default:
		return "unknown"
	}
}

// ParseProvider parses the config-file form of a provider name.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(s) {
	case "hyperlane":
		return ProviderHyperlane, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// Message is a cross-chain message observed in a dispatch transaction.
// Immutable once extracted. ID is opaque to this layer; it is whatever
// the provider's dispatch event encodes.
type Message struct {
	ID           common.Hash
	OriginTxHash common.Hash
	OriginChain  caip.ChainID
	Provider     Provider
}

// TrustedSources is the hub's allow list of (origin chain, sender) pairs.
// Any pair not explicitly present is untrusted.
type TrustedSources struct {
	allowed map[string]struct{}
}

// NewTrustedSources builds the allow list from config. Malformed entries
// are skipped; config.Validate reports them loudly before this point.
func NewTrustedSources(sources []config.TrustedSource) TrustedSources {
	allowed := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		chain, ok := caip.ParseChain(src.Chain)
		if !ok || !common.IsHexAddress(src.Sender) {
			continue
		}
		allowed[sourceKey(chain, common.HexToAddress(src.Sender))] = struct{}{}
	}
	return TrustedSources{allowed: allowed}
}

// IsTrusted reports whether the (chain, sender) pair is on the allow
// list. Security-relevant: the default for any absent pair is false.
func (t TrustedSources) IsTrusted(chain caip.ChainID, sender common.Address) bool {
	_, ok := t.allowed[sourceKey(chain, sender)]
	return ok
}

func sourceKey(chain caip.ChainID, sender common.Address) string {
	return chain.String() + "|" + strings.ToLower(sender.Hex())
}
