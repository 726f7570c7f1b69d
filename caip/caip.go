// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package caip implements chain-agnostic identifiers (CAIP-2 chains,
// CAIP-10 accounts) and the Keccak-256 hashes the registry contracts use
// as storage keys. Formatting and hashing are deterministic; parsing of
// malformed input reports failure via a boolean, not an error, since bad
// identifier strings are routine operator input.
package caip

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// NamespaceEVM is the CAIP-2 namespace for Ethereum-style chains.
	NamespaceEVM = "eip155"

	// MaxSafeReference is the largest chain reference accepted by
	// FormatChain. Registry tooling upstream of this layer treats chain
	// ids as IEEE-754 doubles, so anything wider cannot round-trip.
	MaxSafeReference = int64(1)<<53 - 1

	minNamespaceLen = 3
	maxNamespaceLen = 8
	maxReferenceLen = 32

	addressHexLen = 40
)

// ErrInvalidReference is returned when a numeric chain reference is
// negative or exceeds MaxSafeReference.
var ErrInvalidReference = errors.New("invalid chain reference")

// ChainID is a parsed CAIP-2 chain identifier. The zero value is not a
// valid identifier; construct via FormatChain or ParseChain.
type ChainID struct {
	Namespace string
	Reference string
}

// FormatChain builds the CAIP-2 identifier for an Ethereum-style chain
// with the given numeric chain id.
func FormatChain(reference int64) (ChainID, error) {
	if reference < 0 || reference > MaxSafeReference {
		return ChainID{}, fmt.Errorf("%w: %d", ErrInvalidReference, reference)
	}
	return ChainID{
		Namespace: NamespaceEVM,
		Reference: strconv.FormatInt(reference, 10),
	}, nil
}

// ParseChain parses a CAIP-2 string. Returns false for anything that does
// not match the namespace/reference grammar.
func ParseChain(s string) (ChainID, bool) {
	namespace, reference, found := strings.Cut(s, ":")
	if !found {
		return ChainID{}, false
	}
	if !validNamespace(namespace) || !validReference(reference) {
		return ChainID{}, false
	}
	return ChainID{Namespace: namespace, Reference: reference}, true
}

// String returns the canonical CAIP-2 form.
func (c ChainID) String() string {
	return c.Namespace + ":" + c.Reference
}

// EVMChainID returns the numeric chain id for eip155 identifiers.
func (c ChainID) EVMChainID() (int64, bool) {
	if c.Namespace != NamespaceEVM {
		return 0, false
	}
	n, err := strconv.ParseInt(c.Reference, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ChainHash is the Keccak-256 of the canonical CAIP-2 string. The registry
// contracts compute the same hash on-chain; any deviation here invalidates
// every submission keyed by it.
func ChainHash(c ChainID) common.Hash {
	return crypto.Keccak256Hash([]byte(c.String()))
}

// TruncatedChainHash keeps the highest 64 bits of ChainHash, read
// big-endian. Used where the ledger stores a uint64 key; collision odds
// stay negligible up to low thousands of distinct chains.
func TruncatedChainHash(c ChainID) uint64 {
	h := ChainHash(c)
	return binary.BigEndian.Uint64(h[:8])
}

// AccountID is a parsed CAIP-10 account identifier. The canonical string
// form lowercases the address; the original casing is retained for call
// boundaries where EIP-55 checksums matter.
type AccountID struct {
	Chain   ChainID
	Address common.Address

	// raw is the address exactly as supplied, checksum casing included.
	raw string
}

// FormatAccount builds the CAIP-10 identifier for an address on a chain.
// Checksum validation is the caller's responsibility.
func FormatAccount(chain ChainID, address common.Address) AccountID {
	return AccountID{
		Chain:   chain,
		Address: address,
		raw:     address.Hex(),
	}
}

// ParseAccount parses a CAIP-10 string. The input must have exactly three
// colon-delimited segments and a 20-byte hex address; anything else
// returns false.
func ParseAccount(s string) (AccountID, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return AccountID{}, false
	}
	chain, ok := ParseChain(parts[0] + ":" + parts[1])
	if !ok {
		return AccountID{}, false
	}
	addr := parts[2]
	if !validAddress(addr) {
		return AccountID{}, false
	}
	return AccountID{
		Chain:   chain,
		Address: common.HexToAddress(addr),
		raw:     addr,
	}, true
}

// String returns the canonical CAIP-10 form with the address lowercased.
func (a AccountID) String() string {
	return a.Chain.String() + ":" + strings.ToLower(a.Address.Hex())
}

// Checksummed returns the identifier with the address as originally
// supplied (EIP-55 form when constructed via FormatAccount).
func (a AccountID) Checksummed() string {
	raw := a.raw
	if raw == "" {
		raw = a.Address.Hex()
	}
	return a.Chain.String() + ":" + raw
}

// AccountHash is the Keccak-256 of the canonical (lowercased) CAIP-10
// string, matching the registry's account storage key.
func AccountHash(a AccountID) common.Hash {
	return crypto.Keccak256Hash([]byte(a.String()))
}

func validNamespace(s string) bool {
	if len(s) < minNamespaceLen || len(s) > maxNamespaceLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

func validReference(s string) bool {
	if len(s) == 0 || len(s) > maxReferenceLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

func validAddress(s string) bool {
	if len(s) != addressHexLen+2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for i := 2; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
