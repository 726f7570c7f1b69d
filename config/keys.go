// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable keys
	ConfigFileEnvKey = "CONFIG_FILE"

	// Top-level configuration keys
	LogLevelKey      = "log-level"
	HubChainKey      = "hub-chain"
	ChainsKey        = "chains"
	BridgeKey        = "bridge"
	PollFloorMSKey   = "poll-floor-ms"
	ArtifactDirKey   = "artifact-dir"
	QuoteCacheTTLKey = "quote-cache-ttl-seconds"
)
