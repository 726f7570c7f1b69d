// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package batch

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is the durable record written alongside each batch submission.
// It carries the full serialized tree so proofs can be regenerated for
// audits long after the original entry list is gone.
type Artifact struct {
	Version   byte          `json:"version"`
	Kind      string        `json:"kind"`
	Root      common.Hash   `json:"root"`
	LeafCount int           `json:"leafCount"`
	Tree      hexutil.Bytes `json:"tree"`
}

// NewArtifact captures a built tree into its storable form.
func NewArtifact(t *Tree) Artifact {
	return Artifact{
		Version:   SerializationVersion,
		Kind:      t.Kind().String(),
		Root:      t.Root(),
		LeafCount: t.LeafCount(),
		Tree:      t.Bytes(),
	}
}

// MarshalIndent renders the artifact as the JSON file the CLI writes.
func (a Artifact) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// OpenTree re-parses the embedded tree.
func (a Artifact) OpenTree() (*Tree, error) {
	t, err := ParseTree(a.Tree)
	if err != nil {
		return nil, err
	}
	if t.Root() != a.Root {
		return nil, fmt.Errorf("%w: embedded tree root does not match artifact root", ErrCorruptTree)
	}
	return t, nil
}

// ArtifactFilename derives the deterministic per-submission filename from
// the registration transaction hash prefix.
func ArtifactFilename(txHash common.Hash) string {
	return fmt.Sprintf("batch-%s.json", txHash.Hex()[:12])
}

// ParseArtifact reads an artifact JSON document.
func ParseArtifact(data []byte) (Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrCorruptTree, err)
	}
	if _, err := ParseKind(a.Kind); err != nil {
		return Artifact{}, err
	}
	return a, nil
}
