// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package batch builds the Merkle commitments operators submit for bulk
// registry entries. Leaf layout and pair hashing mirror the on-chain
// verifier byte for byte: leaves are hashed in input order, pairs are
// combined commutatively (sorted operands, as OpenZeppelin MerkleProof
// expects), and an unpaired node is promoted unchanged to the next level.
package batch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrEmptyBatch is returned when building a tree from no entries.
	// The registry contracts revert on empty batches, so the check runs
	// before any network call is attempted.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrIndexOutOfRange is returned for a proof request beyond the leaf count.
	ErrIndexOutOfRange = errors.New("leaf index out of range")

	// ErrUnknownKind is returned for an unrecognized registry kind.
	ErrUnknownKind = errors.New("unknown registry kind")
)

// Kind selects the leaf-hash layout for a registry type.
type Kind uint8

const (
	KindWallet Kind = iota
	KindContract
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindWallet:
		return "wallet"
	case KindContract:
		return "contract"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// ParseKind parses the string form of a registry kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "wallet":
		return KindWallet, nil
	case "contract":
		return KindContract, nil
	case "transaction":
		return KindTransaction, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Entry is one leaf of a submission batch. Identifier is the 32-byte
// registry key (account or transaction hash), ChainHash the Keccak-256 of
// the entry's CAIP-2 chain identifier. ReportedAt is the incident
// timestamp in unix seconds; it is committed only for wallet entries.
type Entry struct {
	Identifier common.Hash
	ChainHash  common.Hash
	ReportedAt uint64
}

// LeafHash computes the kind-specific leaf hash for an entry, matching the
// contracts' abi.encodePacked layout.
func LeafHash(kind Kind, e Entry) common.Hash {
	switch kind {
	case KindWallet:
		var ts [8]byte
		binary.BigEndian.PutUint64(ts[:], e.ReportedAt)
		return crypto.Keccak256Hash(e.Identifier[:], e.ChainHash[:], ts[:])
	default:
		return crypto.Keccak256Hash(e.Identifier[:], e.ChainHash[:])
	}
}

// hashPair combines two nodes with sorted operands so that proofs verify
// regardless of sibling position.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}
