// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/chainsentry/registry/caip"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash <caip2|caip10>",
	Short: "Hash a CAIP chain or account identifier",
	Long: `Parse a CAIP-2 chain identifier (eip155:1) or CAIP-10 account identifier
(eip155:1:0x...) and print its canonical form and Keccak-256 hash. Chain
identifiers additionally print the truncated 64-bit hash used as the
compact on-chain key.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if account, ok := caip.ParseAccount(args[0]); ok {
			fmt.Printf("Canonical:   %s\n", account.String())
			fmt.Printf("Checksummed: %s\n", account.Checksummed())
			fmt.Printf("Hash:        %s\n", caip.AccountHash(account).Hex())
			return nil
		}
		if chain, ok := caip.ParseChain(args[0]); ok {
			fmt.Printf("Canonical: %s\n", chain.String())
			fmt.Printf("Hash:      %s\n", caip.ChainHash(chain).Hex())
			fmt.Printf("Truncated: %#x\n", caip.TruncatedChainHash(chain))
			return nil
		}
		return fmt.Errorf("not a valid CAIP-2 or CAIP-10 identifier: %q", args[0])
	},
}
