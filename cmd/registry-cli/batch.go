// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainsentry/registry/batch"
	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Build batch commitments and generate inclusion proofs",
}

func init() {
	batchCmd.AddCommand(batchBuildCmd)
	batchCmd.AddCommand(batchProofCmd)

	batchBuildCmd.Flags().StringP("kind", "k", "", "Batch kind (wallet, contract, transaction)")
	batchBuildCmd.Flags().StringP("in", "i", "", "Entries JSON file")
	batchBuildCmd.Flags().StringP("out", "o", ".", "Output directory for the artifact")
	batchBuildCmd.MarkFlagRequired("kind")
	batchBuildCmd.MarkFlagRequired("in")

	batchProofCmd.Flags().StringP("artifact", "a", "", "Batch artifact JSON file")
	batchProofCmd.Flags().IntP("index", "n", 0, "Leaf index to prove")
	batchProofCmd.MarkFlagRequired("artifact")
	batchProofCmd.MarkFlagRequired("index")
}

// entryDoc is one line of the input file: the raw identifier, the CAIP-2
// chain it was observed on, and the incident timestamp for wallet batches.
type entryDoc struct {
	Identifier common.Hash `json:"identifier"`
	Chain      string      `json:"chain"`
	ReportedAt uint64      `json:"reportedAt,omitempty"`
}

var batchBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a Merkle commitment over a batch of entries",
	Long: `Read an entries JSON file, build the batch commitment tree, and write the
submission artifact to the output directory. The artifact embeds the full
tree so inclusion proofs can be regenerated later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kindName, _ := cmd.Flags().GetString("kind")
		inPath, _ := cmd.Flags().GetString("in")
		outDir, _ := cmd.Flags().GetString("out")

		// The config file's artifact-dir is the default output location;
		// an explicit --out wins.
		if !cmd.Flags().Changed("out") {
			if cfgFile, _ := cmd.Root().PersistentFlags().GetString(config.ConfigFileKey); cfgFile != "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				if cfg.ArtifactDir != "" {
					outDir = cfg.ArtifactDir
				}
			}
		}

		kind, err := batch.ParseKind(kindName)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(inPath)
		if err != nil {
			return fmt.Errorf("couldn't read entries file: %w", err)
		}
		var docs []entryDoc
		if err := json.Unmarshal(data, &docs); err != nil {
			return fmt.Errorf("couldn't parse entries file: %w", err)
		}

		entries := make([]batch.Entry, len(docs))
		for i, doc := range docs {
			chain, ok := caip.ParseChain(doc.Chain)
			if !ok {
				return fmt.Errorf("entry %d: not a valid CAIP-2 identifier: %q", i, doc.Chain)
			}
			entries[i] = batch.Entry{
				Identifier: doc.Identifier,
				ChainHash:  caip.ChainHash(chain),
				ReportedAt: doc.ReportedAt,
			}
		}

		tree, err := batch.Build(kind, entries)
		if err != nil {
			return err
		}

		artifact := batch.NewArtifact(tree)
		encoded, err := artifact.MarshalIndent()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("couldn't create artifact directory: %w", err)
		}
		// Pre-submission the artifact is named by its root; once the
		// registration transaction lands it is renamed to the tx hash.
		outPath := filepath.Join(outDir, batch.ArtifactFilename(tree.Root()))
		if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
			return fmt.Errorf("couldn't write artifact: %w", err)
		}

		fmt.Printf("Kind:     %s\n", kind)
		fmt.Printf("Leaves:   %d\n", tree.LeafCount())
		fmt.Printf("Root:     %s\n", tree.Root().Hex())
		fmt.Printf("Artifact: %s\n", outPath)
		return nil
	},
}

var batchProofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Generate an inclusion proof from a batch artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		artifactPath, _ := cmd.Flags().GetString("artifact")
		index, _ := cmd.Flags().GetInt("index")

		data, err := os.ReadFile(artifactPath)
		if err != nil {
			return fmt.Errorf("couldn't read artifact: %w", err)
		}
		artifact, err := batch.ParseArtifact(data)
		if err != nil {
			return err
		}
		tree, err := artifact.OpenTree()
		if err != nil {
			return err
		}

		leaf, err := tree.Leaf(index)
		if err != nil {
			return err
		}
		proof, err := tree.Proof(index)
		if err != nil {
			return err
		}

		fmt.Printf("Root:  %s\n", tree.Root().Hex())
		fmt.Printf("Leaf:  %s (index %d)\n", leaf.Hex(), index)
		fmt.Printf("Proof: %d siblings\n", len(proof))
		for _, sibling := range proof {
			fmt.Printf("  %s\n", sibling.Hex())
		}
		return nil
	},
}
