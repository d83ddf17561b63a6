package x402gate

import (
	"time"

	"github.com/vitwit/x402gate/logger"
	"github.com/vitwit/x402gate/metrics"
	"github.com/vitwit/x402gate/verification"
)

type Option func(*Gate)

func WithLogger(l logger.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(g *Gate) {
		g.metrics = r
	}
}

// WithTimeout overrides verification.timeout from the config.
func WithTimeout(t time.Duration) Option {
	return func(g *Gate) {
		g.timeout = t
	}
}

// WithMatchPolicy overrides verification.match_policy from the config.
func WithMatchPolicy(p verification.MatchPolicy) Option {
	return func(g *Gate) {
		g.policy = p
	}
}
