// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"time"

	"github.com/chainsentry/registry/caip"
	"github.com/chainsentry/registry/config"
	"github.com/chainsentry/registry/contracts"
	"github.com/chainsentry/registry/deadline"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
)

var deadlineCmd = &cobra.Command{
	Use:   "deadline",
	Short: "Inspect registration deadline windows",
}

func init() {
	deadlineCmd.AddCommand(deadlineStatusCmd)

	deadlineStatusCmd.Flags().StringP("chain", "c", "", "Configured chain name")
	deadlineStatusCmd.Flags().StringP("account", "a", "", "Account (CAIP-10 or 0x address)")
	deadlineStatusCmd.Flags().BoolP("watch", "w", false, "Poll the window until it expires")
	deadlineStatusCmd.MarkFlagRequired("chain")
	deadlineStatusCmd.MarkFlagRequired("account")
}

var deadlineStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read an account's deadline window from the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		chainName, _ := cmd.Flags().GetString("chain")
		accountArg, _ := cmd.Flags().GetString("account")
		watch, _ := cmd.Flags().GetBool("watch")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		caller, err := dialCaller(cfg, chainName)
		if err != nil {
			return err
		}

		account, ok := caip.ParseAccount(accountArg)
		if !ok {
			// Bare 0x address: scope it to the selected chain.
			if !common.IsHexAddress(accountArg) {
				return fmt.Errorf("not a valid CAIP-10 identifier or address: %q", accountArg)
			}
			account = caip.FormatAccount(caller.Chain(), common.HexToAddress(accountArg))
		}

		calc := deadline.NewCalculator(cfg.ChainTimings())

		if watch {
			logger, err := buildLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			poller := deadline.NewPoller(caller, logger)
			interval := time.Duration(cfg.PollFloorMS) * time.Millisecond
			return poller.Watch(cmd.Context(), account, interval, func(w deadline.Window) {
				printWindow(account, w, caller.Chain(), calc)
				fmt.Println()
			})
		}

		window, err := caller.ReadWindow(cmd.Context(), account)
		if err != nil {
			return err
		}
		printWindow(account, window, caller.Chain(), calc)
		return nil
	},
}

func printWindow(
	account caip.AccountID,
	window deadline.Window,
	chain caip.ChainID,
	calc *deadline.Calculator,
) {
	opts := deadline.DurationOptions{ShowHours: true, ShowDays: true}

	fmt.Printf("Account:       %s\n", account.String())
	fmt.Printf("State:         %s\n", window.State())
	fmt.Printf("Current block: %d\n", window.CurrentBlock)
	fmt.Printf("Window:        %d -> %d (grace from %d)\n",
		window.StartBlock, window.ExpiryBlock, window.GraceStartsAt)
	if blocks := window.BlocksUntilStart(); blocks > 0 {
		waitMS := calc.EstimateMS(int64(blocks), chain)
		fmt.Printf("Opens in:      %d blocks (~%s)\n",
			blocks, deadline.FormatDuration(waitMS, opts))
	}
	fmt.Printf("Time left:     %s\n",
		deadline.FormatDuration(int64(window.TimeLeft)*1000, opts))
}

// dialCaller connects to the named chain's RPC endpoint and binds a
// contract caller to its registry.
func dialCaller(cfg config.Config, chainName string) (*contracts.Caller, error) {
	chainCfg, ok := cfg.Chain(chainName)
	if !ok {
		return nil, fmt.Errorf("chain %q not found in configuration", chainName)
	}
	chain, err := chainCfg.CAIP()
	if err != nil {
		return nil, err
	}
	role, err := chainCfg.Role()
	if err != nil {
		return nil, err
	}

	client, err := ethclient.Dial(chainCfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to %s: %w", chainName, err)
	}

	return contracts.NewCaller(
		client,
		common.HexToAddress(chainCfg.RegistryAddress),
		common.HexToAddress(chainCfg.MailboxAddress),
		role,
		chain,
	), nil
}
