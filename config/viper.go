// Copyright (C) 2025, ChainSentry Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewConfig builds and validates the configuration from a viper instance.
func NewConfig(v *viper.Viper) (Config, error) {
	cfg, err := BuildConfig(v)
	if err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// BuildViper builds the viper instance. The config file must be provided
// via the command line flag or environment variable; all other keys may
// come from the config file or environment.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	// Flags are capitalized and hyphens replaced with underscores to form
	// the env var names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if !v.IsSet(ConfigFileKey) {
		return nil, fmt.Errorf("config file not set")
	}

	v.SetConfigFile(v.GetString(ConfigFileKey))
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return v, nil
}

// SetDefaultConfigValues applies defaults for optional keys.
func SetDefaultConfigValues(v *viper.Viper) {
	v.SetDefault(LogLevelKey, defaultLogLevel)
	v.SetDefault(PollFloorMSKey, defaultPollFloorMS)
	v.SetDefault(ArtifactDirKey, defaultArtifactDir)
	v.SetDefault(QuoteCacheTTLKey, defaultQuoteTTL)
}

// BuildConfig constructs the config using viper. Flags take precedence
// over the config file.
func BuildConfig(v *viper.Viper) (Config, error) {
	SetDefaultConfigValues(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal viper config: %w", err)
	}
	return cfg, nil
}
