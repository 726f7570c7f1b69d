// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chainsentry/registry/batch"
	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/config"
	"github.com/chainsentry/registry/contracts"
	"github.com/chainsentry/registry/fees"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote the fees for a batch registration",
	Long: `Read the current fees for registering a batch. Direct quotes price a
single registration on the named chain; cross-chain quotes add the bridge
delivery fee for relaying a spoke submission to the hub.`,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringP("chain", "c", "", "Origin chain name")
	quoteCmd.Flags().StringP("kind", "k", "wallet", "Batch kind (wallet, contract, transaction)")
	quoteCmd.Flags().Bool("cross-chain", false, "Quote a spoke submission relayed to the hub")
	quoteCmd.MarkFlagRequired("chain")
}

func runQuote(cmd *cobra.Command, args []string) error {
	chainName, _ := cmd.Flags().GetString("chain")
	kindName, _ := cmd.Flags().GetString("kind")
	crossChain, _ := cmd.Flags().GetBool("cross-chain")

	kind, err := batch.ParseKind(kindName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	origin, err := dialCaller(cfg, chainName)
	if err != nil {
		return err
	}

	ttl := time.Duration(cfg.QuoteCacheTTLSeconds) * time.Second

	var breakdown fees.Breakdown
	if crossChain {
		breakdown, err = quoteCrossChain(cmd.Context(), cfg, origin, kind, ttl)
	} else {
		quoter := fees.NewQuoter(map[string]fees.FeeReader{
			origin.Chain().String(): origin,
		}, nil)
		breakdown, err = fees.NewCachedQuoter(quoter, ttl).QuoteDirect(cmd.Context(), kind, origin.Chain())
	}
	if err != nil {
		return err
	}

	for _, item := range breakdown.Items() {
		fmt.Printf("%-18s %s\n", item.Label+":", item.Amount.Dec())
	}
	fmt.Printf("%-18s %s\n", "total:", breakdown.Total().Dec())
	return nil
}

func quoteCrossChain(
	ctx context.Context,
	cfg config.Config,
	origin *contracts.Caller,
	kind batch.Kind,
	ttl time.Duration,
) (fees.Breakdown, error) {
	hubCfg, ok := cfg.Hub()
	if !ok {
		return fees.Breakdown{}, fmt.Errorf("no hub chain configured")
	}
	hub, err := dialCaller(cfg, hubCfg.Name)
	if err != nil {
		return fees.Breakdown{}, err
	}

	quoter := fees.NewQuoter(
		map[string]fees.FeeReader{hub.Chain().String(): hub},
		&mailboxQuoter{
			origin:       origin,
			hubDomain:    uint32(hubCfg.ChainID),
			hubRecipient: common.BytesToHash(common.HexToAddress(hubCfg.RegistryAddress).Bytes()),
		},
	)
	return fees.NewCachedQuoter(quoter, ttl).QuoteCrossChain(ctx, kind, origin.Chain(), hub.Chain())
}

// mailboxQuoter prices bridge delivery through the origin chain's
// mailbox. The Hyperlane domain is the hub's EVM chain id and the
// recipient its registry address, left-padded to 32 bytes.
type mailboxQuoter struct {
	origin       *contracts.Caller
	hubDomain    uint32
	hubRecipient common.Hash
}

func (q *mailboxQuoter) QuoteDelivery(
	ctx context.Context,
	origin, hub caip.ChainID,
	body []byte,
) (*uint256.Int, error) {
	return q.origin.QuoteDispatch(ctx, q.hubDomain, q.hubRecipient, body)
}
