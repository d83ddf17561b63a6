// Package config loads GateConfig from an optional YAML file and
// X402GATE_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/vitwit/x402gate/types"
	"github.com/vitwit/x402gate/utils"
)

const (
	EnvPrefix   = "X402GATE"
	defaultName = "x402gate"
)

// Load reads configuration. An empty path searches the working directory
// for x402gate.yaml and carries on with defaults when none exists; an
// explicit path must exist.
func Load(path string) (*types.GateConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// RECEIVER_ADDRESS is the name the demo deployment already uses.
	if err := v.BindEnv("recipient", EnvPrefix+"_RECIPIENT", "RECEIVER_ADDRESS"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(types.ErrConfigError, fmt.Sprintf("read config %s", path), err)
		}
	} else {
		v.SetConfigName(defaultName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, types.WrapError(types.ErrConfigError, "read config", err)
			}
		}
	}

	var cfg types.GateConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.ErrConfigError, "decode config", err)
	}

	if err := utils.ValidateGateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("chain.network", d.Chain.Network.String())
	v.SetDefault("chain.chain_id", d.Chain.ChainID)
	v.SetDefault("chain.rpc_url", d.Chain.RPCUrl)
	v.SetDefault("chain.token.address", d.Chain.Token.Address)
	v.SetDefault("chain.token.symbol", d.Chain.Token.Symbol)
	v.SetDefault("chain.token.decimals", d.Chain.Token.Decimals)
	v.SetDefault("chain.token.verify_decimals", d.Chain.Token.VerifyDecimals)

	v.SetDefault("recipient", "")

	for kind, entry := range d.Prices {
		v.SetDefault("prices."+kind.String()+".price", entry.Price)
		v.SetDefault("prices."+kind.String()+".title", entry.Title)
	}

	v.SetDefault("verification.timeout", d.Verification.Timeout)
	v.SetDefault("verification.match_policy", d.Verification.MatchPolicy)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.base_delay", d.Retry.BaseDelay)
	v.SetDefault("retry.max_delay", d.Retry.MaxDelay)

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("enable_metrics", d.EnableMetrics)
}
