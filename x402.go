// Package x402gate gates content behind an on-chain ERC-20 payment using
// the HTTP 402 convention. A Gate issues payment requirements and verifies
// payment proofs against transaction receipts on a single EVM network.
package x402gate

import (
	"context"
	"errors"
	"time"

	"github.com/vitwit/x402gate/clients"
	"github.com/vitwit/x402gate/logger"
	"github.com/vitwit/x402gate/metrics"
	"github.com/vitwit/x402gate/requirements"
	"github.com/vitwit/x402gate/types"
	"github.com/vitwit/x402gate/utils"
	"github.com/vitwit/x402gate/verification"
)

// Gate is the main struct that provides all payment gate functionality
type Gate struct {
	config   *types.GateConfig
	issuer   *requirements.Issuer
	verifier *verification.Verifier
	source   clients.ReceiptSource

	logger  logger.Logger
	metrics metrics.Recorder
	timeout time.Duration
	policy  verification.MatchPolicy
}

// New validates cfg and builds a gate reading receipts from source.
func New(cfg *types.GateConfig, source clients.ReceiptSource, opts ...Option) (*Gate, error) {
	if err := utils.ValidateGateConfig(cfg); err != nil {
		return nil, err
	}

	policy, err := verification.ParseMatchPolicy(cfg.Verification.MatchPolicy)
	if err != nil {
		return nil, err
	}

	g := &Gate{
		config:  cfg,
		source:  source,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		timeout: verification.DefaultTimeout,
		policy:  policy,
	}
	if cfg.Verification.Timeout > 0 {
		g.timeout = cfg.Verification.Timeout
	}
	for _, opt := range opts {
		opt(g)
	}

	g.issuer, err = requirements.NewIssuer(cfg.Chain, cfg.Recipient, cfg.Prices)
	if err != nil {
		return nil, err
	}

	g.verifier, err = verification.NewVerifier(cfg.Chain, source,
		verification.WithLogger(logger.With(g.logger, map[string]any{"network": cfg.Chain.Network.String()})),
		verification.WithMetrics(g.metrics),
		verification.WithTimeout(g.timeout),
		verification.WithMatchPolicy(g.policy),
	)
	if err != nil {
		return nil, err
	}

	return g, nil
}

// Requirement returns the payment requirement for kind.
func (g *Gate) Requirement(kind types.ResourceKind) (*types.PaymentRequirement, error) {
	return g.issuer.Build(kind)
}

// Title returns the configured display title of kind.
func (g *Gate) Title(kind types.ResourceKind) string {
	return g.issuer.Title(kind)
}

// Verify checks proof against req. It never returns an error: every failure
// is reported through the result, and unexpected errors fail closed.
func (g *Gate) Verify(
	ctx context.Context,
	proof *types.PaymentProof,
	req *types.PaymentRequirement,
) *types.VerificationResult {
	transfer, err := g.verifier.Verify(ctx, proof, req)
	if err != nil {
		return failure(err)
	}

	now := time.Now().UTC()
	return &types.VerificationResult{
		IsValid:   true,
		TxHash:    proof.TxHash,
		Amount:    utils.FormatAmountFromBigInt(transfer.Value, g.config.Chain.Token.Decimals),
		Token:     transfer.Token.Hex(),
		Recipient: transfer.To.Hex(),
		Sender:      transfer.From.Hex(),
		BlockNumber: transfer.BlockNumber,
		Timestamp:   &now,
	}
}

// VerifyHeader parses an X-PAYMENT header value and verifies it against req.
func (g *Gate) VerifyHeader(ctx context.Context, header string, req *types.PaymentRequirement) *types.VerificationResult {
	proof, err := utils.ParsePaymentProof(header)
	if err != nil {
		g.logger.Debug("unparseable payment header", map[string]any{"err": err})
		g.metrics.IncCounter("verification", map[string]string{
			metrics.LabelNetwork: g.config.Chain.Network.String(),
			metrics.LabelOutcome: types.ErrInvalidPayload,
		})
		return failure(types.WrapError(types.ErrInvalidPayload, "Invalid payment format", err))
	}
	return g.Verify(ctx, proof, req)
}

func failure(err error) *types.VerificationResult {
	res := &types.VerificationResult{
		IsValid:       false,
		InvalidReason: types.ErrorCode(err),
		Retryable:     types.IsRetryable(err),
		Error:         reason(err),
	}
	if res.InvalidReason == "" {
		res.InvalidReason = types.ErrNetworkError
		res.Retryable = true
		res.Error = "Unable to verify payment right now, retry shortly"
	}
	return res
}

// reason is the caller-facing message of err without wrapped causes.
func reason(err error) string {
	var xe *types.X402Error
	if errors.As(err, &xe) {
		return xe.Message
	}
	return err.Error()
}

// Supported lists the payment kinds this gate accepts.
func (g *Gate) Supported() *types.SupportedResponse {
	return &types.SupportedResponse{
		Kinds: []types.SupportedItem{{
			X402Version: int(types.X402Version1),
			Scheme:      string(types.SchemeExact),
			Network:     g.config.Chain.Network.String(),
		}},
	}
}

// Config returns the static configuration the gate was built with.
func (g *Gate) Config() *types.GateConfig {
	return g.config
}

// Policy returns the transfer match policy in effect.
func (g *Gate) Policy() verification.MatchPolicy {
	return g.verifier.Policy()
}

// Close closes the receipt source.
func (g *Gate) Close() {
	if g.source != nil {
		g.source.Close()
	}
}

// Version information
const (
	Version         = "1.0.0"
	ProtocolVersion = 1
)

// GetVersion returns version information
func GetVersion() map[string]interface{} {
	return map[string]interface{}{
		"library_version":     Version,
		"protocol_version":    ProtocolVersion,
		"supported_networks":  []string{types.NetworkAvalancheFuji.String()},
		"supported_schemes":   []string{string(types.SchemeExact)},
		"supported_standards": []string{"erc20"},
		"match_policies": []string{
			string(verification.MatchFirst),
			string(verification.MatchExactlyOne),
			string(verification.MatchSum),
		},
	}
}
