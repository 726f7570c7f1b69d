// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package batch

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Tree is a Merkle tree over batch entry leaves. Built once per
// submission and never mutated afterwards; all accessors are safe for
// concurrent use.
type Tree struct {
	kind Kind

	// levels[0] holds the leaf hashes in input order; each subsequent
	// level halves (rounding up) until the root.
	levels [][]common.Hash
}

// Proof is the ordered list of sibling hashes from a leaf up to the root.
type Proof []common.Hash

// Build hashes the entries in input order and assembles the tree
// bottom-up. Input order is part of the correctness contract: the
// on-chain verifier reconstructs the same tree from the same ordered
// entries.
func Build(kind Kind, entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	leaves := make([]common.Hash, len(entries))
	for i, e := range entries {
		leaves[i] = LeafHash(kind, e)
	}
	return fromLeaves(kind, leaves), nil
}

func fromLeaves(kind Kind, leaves []common.Hash) *Tree {
	levels := [][]common.Hash{leaves}
	for level := leaves; len(level) > 1; {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				// Unpaired trailing node is promoted as-is.
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{kind: kind, levels: levels}
}

// Kind returns the registry kind the tree was built for.
func (t *Tree) Kind() Kind {
	return t.kind
}

// Root returns the 32-byte tree root submitted on-chain.
func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Leaf returns the hash of leaf i.
func (t *Tree) Leaf(i int) (common.Hash, error) {
	if i < 0 || i >= t.LeafCount() {
		return common.Hash{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, t.LeafCount())
	}
	return t.levels[0][i], nil
}

// Proof returns the sibling path for leaf i. The proof, combined pairwise
// with the leaf hash up the tree, reproduces Root().
func (t *Tree) Proof(i int) (Proof, error) {
	if i < 0 || i >= t.LeafCount() {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, t.LeafCount())
	}

	proof := make(Proof, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := i ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		// A promoted node contributes no sibling at this level.
		i /= 2
	}
	return proof, nil
}

// VerifyProof recombines a leaf hash with its sibling path and reports
// whether the result matches root. Pure and deterministic; suitable for
// spot-checking a proof before it is sent to the verifier contract.
func VerifyProof(root, leaf common.Hash, proof Proof) bool {
	h := leaf
	for _, sibling := range proof {
		h = hashPair(h, sibling)
	}
	return h == root
}
