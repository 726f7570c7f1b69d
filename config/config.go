// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the immutable configuration every component is
// constructed from. There is no mutable package-level lookup state; tests
// inject fixture configs directly.
package config

import (
	"fmt"
	"strings"

	"github.com/chainsentry/registry/caip"
	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultLogLevel    = "info"
	defaultPollFloorMS = 2000
	defaultArtifactDir = "artifacts"
	defaultQuoteTTL    = 30

	// DefaultBlockTimeSeconds is assumed for chains missing from the
	// timing table. Unknown chains are expected; lookups degrade to this
	// rather than failing.
	DefaultBlockTimeSeconds = 12.0
)

// Role distinguishes the canonical registry chain from relayed spokes.
type Role uint8

const (
	RoleHub Role = iota
	RoleSpoke
)

func (r Role) String() string {
	if r == RoleHub {
		return "hub"
	}
	return "spoke"
}

// ParseRole parses the string form used in config files.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "hub":
		return RoleHub, nil
	case "spoke":
		return RoleSpoke, nil
	default:
		return 0, fmt.Errorf("unknown registry role %q", s)
	}
}

// ChainConfig describes one chain the registry operates on.
type ChainConfig struct {
	Name             string  `mapstructure:"name" json:"name"`
	ChainID          int64   `mapstructure:"chain-id" json:"chain-id"`
	RPCURL           string  `mapstructure:"rpc-url" json:"rpc-url"`
	BlockTimeSeconds float64 `mapstructure:"block-time-seconds" json:"block-time-seconds"`
	RegistryAddress  string  `mapstructure:"registry-address" json:"registry-address"`
	MailboxAddress   string  `mapstructure:"mailbox-address" json:"mailbox-address"`
	RoleName         string  `mapstructure:"role" json:"role"`
}

// CAIP returns the chain's CAIP-2 identifier.
func (c ChainConfig) CAIP() (caip.ChainID, error) {
	return caip.FormatChain(c.ChainID)
}

// Role returns the parsed registry role.
func (c ChainConfig) Role() (Role, error) {
	return ParseRole(c.RoleName)
}

// TrustedSource is one (chain, sender) pair on the hub's allow list.
type TrustedSource struct {
	Chain  string `mapstructure:"chain" json:"chain"`
	Sender string `mapstructure:"sender" json:"sender"`
}

// BridgeConfig describes the bridge provider used for spoke submissions.
type BridgeConfig struct {
	Provider string `mapstructure:"provider" json:"provider"`

	// ExplorerBase overrides the provider's default message explorer.
	ExplorerBase string `mapstructure:"explorer-base" json:"explorer-base"`

	// ExcludedChains lists CAIP-2 ids with no public explorer (local
	// devnets). Checked before IncludedChains.
	ExcludedChains []string `mapstructure:"excluded-chains" json:"excluded-chains"`

	// IncludedChains, when non-empty, restricts explorer links to the
	// listed CAIP-2 ids.
	IncludedChains []string `mapstructure:"included-chains" json:"included-chains"`

	TrustedSources []TrustedSource `mapstructure:"trusted-sources" json:"trusted-sources"`
}

// Config is the root configuration object. Immutable after BuildConfig.
type Config struct {
	LogLevel              string        `mapstructure:"log-level" json:"log-level"`
	HubChain              string        `mapstructure:"hub-chain" json:"hub-chain"`
	Chains                []ChainConfig `mapstructure:"chains" json:"chains"`
	Bridge                BridgeConfig  `mapstructure:"bridge" json:"bridge"`
	PollFloorMS           int64         `mapstructure:"poll-floor-ms" json:"poll-floor-ms"`
	ArtifactDir           string        `mapstructure:"artifact-dir" json:"artifact-dir"`
	QuoteCacheTTLSeconds  int64         `mapstructure:"quote-cache-ttl-seconds" json:"quote-cache-ttl-seconds"`
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if len(c.Chains) == 0 {
		return fmt.Errorf("no chains configured")
	}

	seen := make(map[int64]string, len(c.Chains))
	hubCount := 0
	for i, chain := range c.Chains {
		if chain.Name == "" {
			return fmt.Errorf("chain %d has no name", i)
		}
		if _, err := chain.CAIP(); err != nil {
			return fmt.Errorf("chain %q: %w", chain.Name, err)
		}
		if prev, dup := seen[chain.ChainID]; dup {
			return fmt.Errorf("chains %q and %q share chain id %d", prev, chain.Name, chain.ChainID)
		}
		seen[chain.ChainID] = chain.Name

		role, err := chain.Role()
		if err != nil {
			return fmt.Errorf("chain %q: %w", chain.Name, err)
		}
		if role == RoleHub {
			hubCount++
			if chain.Name != c.HubChain {
				return fmt.Errorf("chain %q has hub role but hub-chain is %q", chain.Name, c.HubChain)
			}
		}
		if chain.RegistryAddress != "" && !common.IsHexAddress(chain.RegistryAddress) {
			return fmt.Errorf("chain %q: bad registry address %q", chain.Name, chain.RegistryAddress)
		}
		if chain.MailboxAddress != "" && !common.IsHexAddress(chain.MailboxAddress) {
			return fmt.Errorf("chain %q: bad mailbox address %q", chain.Name, chain.MailboxAddress)
		}
	}
	if hubCount != 1 {
		return fmt.Errorf("expected exactly one hub chain, found %d", hubCount)
	}

	for _, src := range c.Bridge.TrustedSources {
		if _, ok := caip.ParseChain(src.Chain); !ok {
			return fmt.Errorf("trusted source has malformed chain id %q", src.Chain)
		}
		if !common.IsHexAddress(src.Sender) {
			return fmt.Errorf("trusted source has malformed sender %q", src.Sender)
		}
	}

	// A typo'd exclusion would otherwise fail open and hand a devnet an
	// explorer link, so bad list entries are rejected here rather than
	// skipped downstream.
	for _, chain := range c.Bridge.ExcludedChains {
		if _, ok := caip.ParseChain(chain); !ok {
			return fmt.Errorf("excluded-chains has malformed chain id %q", chain)
		}
	}
	for _, chain := range c.Bridge.IncludedChains {
		if _, ok := caip.ParseChain(chain); !ok {
			return fmt.Errorf("included-chains has malformed chain id %q", chain)
		}
	}
	return nil
}

// Chain looks up a chain config by name.
func (c *Config) Chain(name string) (ChainConfig, bool) {
	for _, chain := range c.Chains {
		if chain.Name == name {
			return chain, true
		}
	}
	return ChainConfig{}, false
}

// Hub returns the hub chain config.
func (c *Config) Hub() (ChainConfig, bool) {
	return c.Chain(c.HubChain)
}

// ChainTimings returns the per-chain block-time table keyed by CAIP-2
// string, for constructing a deadline.Calculator.
func (c *Config) ChainTimings() map[string]float64 {
	timings := make(map[string]float64, len(c.Chains))
	for _, chain := range c.Chains {
		if chain.BlockTimeSeconds <= 0 {
			continue
		}
		id, err := chain.CAIP()
		if err != nil {
			continue
		}
		timings[id.String()] = chain.BlockTimeSeconds
	}
	return timings
}
