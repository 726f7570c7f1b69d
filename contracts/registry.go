// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contracts is the fixed call surface of the deployed registry
// and mailbox contracts. The contracts themselves are external
// collaborators; this package only packs calls, decodes return tuples,
// and enforces the consensus-critical refusal rule: a locally computed
// root that the ledger does not reproduce aborts the operation, it is
// never coerced or retried.
package contracts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chainsentry/registry/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	// ErrRootMismatch means the locally built batch root does not match
	// what the ledger recomputes. Fatal to the operation in progress.
	ErrRootMismatch = errors.New("local root does not match on-chain root")

	// ErrLengthMismatch is a malformed batch call (entry and chain-hash
	// arrays must pair up). Programmer error, reported loudly.
	ErrLengthMismatch = errors.New("entries and chain hashes length mismatch")

	// ErrUnknownOperation is returned when resolving a method for an
	// operation the role does not support.
	ErrUnknownOperation = errors.New("unknown registry operation")
)

// Operation names a registry call whose concrete method depends on the
// chain's role.
type Operation uint8

const (
	OpRegisterBatch Operation = iota
	OpAcknowledge
	OpRegister
)

// MethodFor resolves an operation and role into the concrete contract
// method name, once per call site. Hub chains write the canonical store
// directly; spokes go through the relay variants, which dispatch a bridge
// message to the hub.
func MethodFor(op Operation, role config.Role) (string, error) {
	switch op {
	case OpRegisterBatch:
		if role == config.RoleHub {
			return "registerBatch", nil
		}
		return "relayRegisterBatch", nil
	case OpAcknowledge:
		if role == config.RoleHub {
			return "acknowledge", nil
		}
		return "relayAcknowledge", nil
	case OpRegister:
		if role == config.RoleHub {
			return "register", nil
		}
		return "relayRegister", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownOperation, op)
	}
}

// registryABIJSON covers the read/write surface this layer consumes. The
// deadline read returns the six-field tuple in contract order.
const registryABIJSON = `[
	{"type":"function","name":"deadlineWindow","stateMutability":"view","inputs":[
		{"name":"account","type":"bytes32"}],
	 "outputs":[
		{"name":"currentBlock","type":"uint256"},
		{"name":"expiryBlock","type":"uint256"},
		{"name":"startBlock","type":"uint256"},
		{"name":"graceStartsAt","type":"uint256"},
		{"name":"timeLeft","type":"uint256"},
		{"name":"isExpired","type":"bool"}]},
	{"type":"function","name":"registrationFee","stateMutability":"view","inputs":[
		{"name":"kind","type":"uint8"}],
	 "outputs":[{"name":"fee","type":"uint256"}]},
	{"type":"function","name":"computeRoot","stateMutability":"view","inputs":[
		{"name":"leaves","type":"bytes32[]"}],
	 "outputs":[{"name":"root","type":"bytes32"}]},
	{"type":"function","name":"registerBatch","stateMutability":"payable","inputs":[
		{"name":"root","type":"bytes32"},
		{"name":"reportedChainHash","type":"bytes32"},
		{"name":"entries","type":"bytes32[]"},
		{"name":"chainHashes","type":"bytes32[]"}],
	 "outputs":[]},
	{"type":"function","name":"relayRegisterBatch","stateMutability":"payable","inputs":[
		{"name":"root","type":"bytes32"},
		{"name":"reportedChainHash","type":"bytes32"},
		{"name":"entries","type":"bytes32[]"},
		{"name":"chainHashes","type":"bytes32[]"}],
	 "outputs":[]}
]`

// mailboxQuoteABIJSON is the bridge adapter's fee quote surface.
const mailboxQuoteABIJSON = `[
	{"type":"function","name":"quoteDispatch","stateMutability":"view","inputs":[
		{"name":"destinationDomain","type":"uint32"},
		{"name":"recipientAddress","type":"bytes32"},
		{"name":"messageBody","type":"bytes"}],
	 "outputs":[{"name":"fee","type":"uint256"}]}
]`

var (
	registryABI = mustParseABI(registryABIJSON)
	mailboxABI  = mustParseABI(mailboxQuoteABIJSON)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
