package types

import "time"

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `json:"addr" mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `json:"readTimeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdown_timeout"`
}

// VerificationConfig tunes the payment verifier.
type VerificationConfig struct {
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
	MatchPolicy string        `json:"matchPolicy" mapstructure:"match_policy" validate:"omitempty,oneof=first exactly-one sum"`
}

// RetryConfig is the payer-side verification retry schedule.
type RetryConfig struct {
	MaxAttempts int           `json:"maxAttempts" mapstructure:"max_attempts" validate:"gte=1"`
	BaseDelay   time.Duration `json:"baseDelay" mapstructure:"base_delay"`
	MaxDelay    time.Duration `json:"maxDelay" mapstructure:"max_delay"`
}

// GateConfig contains all static configuration. It is loaded once at
// startup and never mutated.
type GateConfig struct {
	Server        ServerConfig       `json:"server" mapstructure:"server"`
	Chain         ChainConfig        `json:"chain" mapstructure:"chain"`
	Recipient     string             `json:"recipient" mapstructure:"recipient" validate:"required,eth_addr"`
	Prices        PriceTable         `json:"prices" mapstructure:"prices" validate:"required,dive"`
	Verification  VerificationConfig `json:"verification" mapstructure:"verification"`
	Retry         RetryConfig        `json:"retry" mapstructure:"retry"`
	LogLevel      string             `json:"logLevel" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	EnableMetrics bool               `json:"enableMetrics" mapstructure:"enable_metrics"`
}

// DefaultPrices is the demo price table.
func DefaultPrices() PriceTable {
	return PriceTable{
		ResourceMystery: {Price: "10", Title: "Mystery Box Unlocked!"},
	}
}

// DefaultConfig returns the demo configuration. Recipient is left empty and
// must be supplied.
func DefaultConfig() GateConfig {
	return GateConfig{
		Server: ServerConfig{
			Addr:            ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Chain:  AvalancheFuji,
		Prices: DefaultPrices(),
		Verification: VerificationConfig{
			Timeout:     30 * time.Second,
			MatchPolicy: "first",
		},
		Retry: RetryConfig{
			MaxAttempts: 10,
			BaseDelay:   time.Second,
			MaxDelay:    5 * time.Second,
		},
		LogLevel:      "info",
		EnableMetrics: true,
	}
}
