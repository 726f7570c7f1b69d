// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/chainsentry/registry/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Optional .env next to the working directory; real deployments use a
	// config file, so a missing .env is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "registry-cli",
	Short: "Cross-chain fraud registry CLI",
	Long: `Tooling for the cross-chain fraud registry: CAIP identifier hashing,
batch commitment building and proofs, deadline window inspection, and
submission fee quotes.`,
	Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String(config.ConfigFileKey, "", "Path to the JSON config file")
	rootCmd.PersistentFlags().String(config.LogLevelKey, "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(deadlineCmd)
	rootCmd.AddCommand(quoteCmd)
}

// loadConfig builds the validated configuration from the persistent flags
// plus the config file they name. Only the commands that talk to chains
// call it; pure local commands run without any config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.BuildViper(cmd.Root().PersistentFlags())
	if err != nil {
		return config.Config{}, fmt.Errorf("couldn't configure flags: %w", err)
	}
	return config.NewConfig(v)
}

func buildLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("error reading log level from config: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}
