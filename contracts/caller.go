// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/chainsentry/registry/batch"
	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/config"
	"github.com/chainsentry/registry/deadline"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Backend is the subset of ethclient.Client this layer needs. Tests
// inject a fake.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Caller reads from and packs writes for one chain's registry contract.
// Stateless apart from its configuration; safe for concurrent use.
type Caller struct {
	backend  Backend
	registry common.Address
	mailbox  common.Address
	role     config.Role
	chain    caip.ChainID
}

func NewCaller(
	backend Backend,
	registry common.Address,
	mailbox common.Address,
	role config.Role,
	chain caip.ChainID,
) *Caller {
	return &Caller{
		backend:  backend,
		registry: registry,
		mailbox:  mailbox,
		role:     role,
		chain:    chain,
	}
}

// Chain returns the chain this caller is bound to.
func (c *Caller) Chain() caip.ChainID {
	return c.chain
}

// Role returns the registry role of the bound chain.
func (c *Caller) Role() config.Role {
	return c.role
}

// ReadWindow implements deadline.Reader: one idempotent read of the
// six-field deadline tuple.
func (c *Caller) ReadWindow(ctx context.Context, account caip.AccountID) (deadline.Window, error) {
	input, err := registryABI.Pack("deadlineWindow", caip.AccountHash(account))
	if err != nil {
		return deadline.Window{}, fmt.Errorf("failed to pack deadline read: %w", err)
	}

	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.registry, Data: input}, nil)
	if err != nil {
		return deadline.Window{}, fmt.Errorf("deadline read failed: %w", err)
	}

	fields, err := registryABI.Unpack("deadlineWindow", output)
	if err != nil || len(fields) != 6 {
		return deadline.Window{}, fmt.Errorf("failed to decode deadline tuple: %w", err)
	}

	window := deadline.Window{}
	for i, dst := range []*uint64{
		&window.CurrentBlock,
		&window.ExpiryBlock,
		&window.StartBlock,
		&window.GraceStartsAt,
		&window.TimeLeft,
	} {
		v, ok := fields[i].(*big.Int)
		if !ok || !v.IsUint64() {
			return deadline.Window{}, fmt.Errorf("deadline tuple field %d is not a uint64", i)
		}
		*dst = v.Uint64()
	}
	expired, ok := fields[5].(bool)
	if !ok {
		return deadline.Window{}, fmt.Errorf("deadline tuple field 5 is not a bool")
	}
	window.IsExpired = expired
	return window, nil
}

// RegistrationFee reads the registry's fee for a kind, in the chain's
// native unit.
func (c *Caller) RegistrationFee(ctx context.Context, kind batch.Kind) (*uint256.Int, error) {
	input, err := registryABI.Pack("registrationFee", uint8(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to pack fee read: %w", err)
	}

	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.registry, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("fee read failed: %w", err)
	}

	fields, err := registryABI.Unpack("registrationFee", output)
	if err != nil || len(fields) != 1 {
		return nil, fmt.Errorf("failed to decode fee: %w", err)
	}
	fee, ok := fields[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("fee is not a uint256")
	}
	amount, overflow := uint256.FromBig(fee)
	if overflow {
		return nil, fmt.Errorf("fee overflows uint256")
	}
	return amount, nil
}

// QuoteDispatch reads the bridge fee for delivering a message body to the
// destination domain, from the chain's mailbox.
func (c *Caller) QuoteDispatch(
	ctx context.Context,
	destinationDomain uint32,
	recipient common.Hash,
	body []byte,
) (*uint256.Int, error) {
	input, err := mailboxABI.Pack("quoteDispatch", destinationDomain, recipient, body)
	if err != nil {
		return nil, fmt.Errorf("failed to pack dispatch quote: %w", err)
	}

	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.mailbox, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("dispatch quote failed: %w", err)
	}

	fields, err := mailboxABI.Unpack("quoteDispatch", output)
	if err != nil || len(fields) != 1 {
		return nil, fmt.Errorf("failed to decode dispatch quote: %w", err)
	}
	fee, ok := fields[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("dispatch quote is not a uint256")
	}
	amount, overflow := uint256.FromBig(fee)
	if overflow {
		return nil, fmt.Errorf("dispatch quote overflows uint256")
	}
	return amount, nil
}

// VerifyRoot asks the ledger to recompute the batch root from the leaf
// hashes and compares it with the locally built one. Any mismatch is
// fatal to the submission: refuse, do not retry, do not coerce.
func (c *Caller) VerifyRoot(ctx context.Context, tree *batch.Tree) error {
	leaves := make([]common.Hash, tree.LeafCount())
	for i := range leaves {
		leaf, err := tree.Leaf(i)
		if err != nil {
			return err
		}
		leaves[i] = leaf
	}

	input, err := registryABI.Pack("computeRoot", toBytes32Slice(leaves))
	if err != nil {
		return fmt.Errorf("failed to pack root check: %w", err)
	}

	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.registry, Data: input}, nil)
	if err != nil {
		return fmt.Errorf("root check failed: %w", err)
	}

	fields, err := registryABI.Unpack("computeRoot", output)
	if err != nil || len(fields) != 1 {
		return fmt.Errorf("failed to decode root check: %w", err)
	}
	remote, ok := fields[0].([32]byte)
	if !ok {
		return fmt.Errorf("root check did not return bytes32")
	}
	if common.Hash(remote) != tree.Root() {
		return fmt.Errorf("%w: local %s, on-chain %s",
			ErrRootMismatch, tree.Root().Hex(), common.Hash(remote).Hex())
	}
	return nil
}

// PackRegisterBatch builds the calldata for a batch registration through
// the role-appropriate method. The transaction itself (signing, gas,
// inclusion waits) is the caller's concern.
func (c *Caller) PackRegisterBatch(
	root common.Hash,
	reportedChainHash common.Hash,
	entries []common.Hash,
	chainHashes []common.Hash,
) ([]byte, error) {
	if len(entries) == 0 {
		return nil, batch.ErrEmptyBatch
	}
	if len(entries) != len(chainHashes) {
		return nil, fmt.Errorf("%w: %d entries, %d chain hashes",
			ErrLengthMismatch, len(entries), len(chainHashes))
	}

	method, err := MethodFor(OpRegisterBatch, c.role)
	if err != nil {
		return nil, err
	}
	return registryABI.Pack(method,
		root,
		reportedChainHash,
		toBytes32Slice(entries),
		toBytes32Slice(chainHashes),
	)
}

func toBytes32Slice(hashes []common.Hash) [][32]byte {
	out := make([][32]byte, len(hashes))
	for i, h := range hashes {
		out[i] = h
	}
	return out
}
