package verification

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/x402gate/clients"
	"github.com/vitwit/x402gate/logger"
	"github.com/vitwit/x402gate/metrics"
	"github.com/vitwit/x402gate/types"
	"github.com/vitwit/x402gate/utils"
)

// MatchPolicy selects how a transaction carrying several qualifying
// Transfer events is judged.
type MatchPolicy string

const (
	// MatchFirst judges the first qualifying event in log order.
	MatchFirst MatchPolicy = "first"
	// MatchExactlyOne rejects transactions with more than one qualifying event.
	MatchExactlyOne MatchPolicy = "exactly-one"
	// MatchSum totals every qualifying event paid to the recipient.
	MatchSum MatchPolicy = "sum"
)

// ParseMatchPolicy maps a configured policy name; "" means MatchFirst.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(s) {
	case "", MatchFirst:
		return MatchFirst, nil
	case MatchExactlyOne, MatchSum:
		return MatchPolicy(s), nil
	default:
		return "", types.NewError(types.ErrConfigError, fmt.Sprintf("unknown match policy %q", s))
	}
}

const DefaultTimeout = 30 * time.Second

// Verifier checks payment proofs against the receipt of the referenced
// transaction. It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	network  types.Network
	token    common.Address
	decimals int
	source   clients.ReceiptSource

	policy  MatchPolicy
	timeout time.Duration
	logger  logger.Logger
	metrics metrics.Recorder
}

type Option func(*Verifier)

func WithLogger(l logger.Logger) Option {
	return func(v *Verifier) {
		v.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(v *Verifier) {
		v.metrics = r
	}
}

func WithTimeout(t time.Duration) Option {
	return func(v *Verifier) {
		v.timeout = t
	}
}

func WithMatchPolicy(p MatchPolicy) Option {
	return func(v *Verifier) {
		v.policy = p
	}
}

// NewVerifier builds a verifier for the chain's configured network and token.
func NewVerifier(chain types.ChainConfig, source clients.ReceiptSource, opts ...Option) (*Verifier, error) {
	if source == nil {
		return nil, types.NewError(types.ErrConfigError, "receipt source is required")
	}
	if source.GetNetwork() != chain.Network {
		return nil, types.NewError(
			types.ErrConfigError,
			fmt.Sprintf("receipt source serves %s, configured %s", source.GetNetwork(), chain.Network),
		)
	}
	if !common.IsHexAddress(chain.Token.Address) {
		return nil, types.NewError(types.ErrConfigError, fmt.Sprintf("invalid token address %q", chain.Token.Address))
	}

	v := &Verifier{
		network:  chain.Network,
		token:    chain.Token.TokenAddress(),
		decimals: chain.Token.Decimals,
		source:   source,
		policy:   MatchFirst,
		timeout:  DefaultTimeout,
		logger:   logger.NoopLogger{},
		metrics:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(v)
	}
	if _, err := ParseMatchPolicy(string(v.policy)); err != nil {
		return nil, err
	}
	return v, nil
}

// Policy returns the configured match policy.
func (v *Verifier) Policy() MatchPolicy {
	return v.policy
}

// Verify accepts proof when the referenced transaction succeeded and paid at
// least the required amount of the configured token to the required
// recipient. Rejections are *types.X402Error values.
func (v *Verifier) Verify(
	ctx context.Context,
	proof *types.PaymentProof,
	req *types.PaymentRequirement,
) (*types.Transfer, error) {
	transfer, err := v.verify(ctx, proof, req)

	outcome := "valid"
	if err != nil {
		outcome = types.ErrorCode(err)
		if outcome == "" {
			outcome = types.ErrNetworkError
		}
	}
	v.metrics.IncCounter("verification", map[string]string{
		metrics.LabelNetwork: v.network.String(),
		metrics.LabelOutcome: outcome,
	})

	return transfer, err
}

func (v *Verifier) verify(
	ctx context.Context,
	proof *types.PaymentProof,
	req *types.PaymentRequirement,
) (*types.Transfer, error) {
	if proof == nil {
		return nil, types.NewError(types.ErrInvalidPayload, "Invalid payment format")
	}
	if err := utils.ValidateTransactionHash(proof.TxHash); err != nil {
		return nil, types.WrapError(types.ErrInvalidPayload, "Invalid payment format", err)
	}

	recipient, expected, err := v.expectations(req)
	if err != nil {
		return nil, err
	}

	if proof.Network != v.network {
		v.logger.Warn("payment network mismatch", map[string]any{
			"tx_hash":  proof.TxHash,
			"network":  proof.Network.String(),
			"expected": v.network.String(),
		})
		return nil, types.NewError(types.ErrUnsupportedNetwork, fmt.Sprintf("Unsupported network: %s", proof.Network))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	txHash := common.HexToHash(proof.TxHash)
	start := time.Now()
	record, err := v.source.TransferRecord(fetchCtx, txHash)
	v.metrics.ObserveLatency("receipt_fetch", time.Since(start), map[string]string{
		metrics.LabelNetwork: v.network.String(),
	})
	if err != nil {
		return nil, v.reject(proof, fetchError(err))
	}

	if !record.Success {
		return nil, v.reject(proof, types.NewError(types.ErrExecutionFailed, "Transaction failed on-chain"))
	}

	var candidates []types.EventLog
	for _, l := range record.Logs {
		if IsTransferLog(l, v.token) {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return nil, v.reject(proof, types.NewError(types.ErrTransferNotFound, "No token transfer found in transaction"))
	}

	transfer, err := v.selectTransfer(candidates, recipient)
	if err != nil {
		return nil, v.reject(proof, err)
	}

	v.logger.Debug("comparing transfer", map[string]any{
		"tx_hash":            proof.TxHash,
		"to":                 transfer.To.Hex(),
		"expected_recipient": recipient.Hex(),
		"value":              transfer.Value.String(),
		"expected_value":     expected.String(),
	})

	if transfer.To != recipient {
		return nil, v.reject(proof, types.NewError(types.ErrRecipientMismatch, "Payment sent to wrong recipient"))
	}
	if transfer.Value.Cmp(expected) < 0 {
		return nil, v.reject(proof, types.NewError(types.ErrInsufficientAmount, "Insufficient payment amount"))
	}

	transfer.BlockNumber = record.BlockNumber
	v.logger.Info("payment verified", map[string]any{
		"tx_hash":      proof.TxHash,
		"from":         transfer.From.Hex(),
		"to":           transfer.To.Hex(),
		"value":        transfer.Value.String(),
		"block_number": record.BlockNumber,
	})
	return transfer, nil
}

// expectations derives the recipient and minimal-unit amount a proof must meet.
func (v *Verifier) expectations(req *types.PaymentRequirement) (common.Address, *big.Int, error) {
	if req == nil {
		return common.Address{}, nil, types.NewError(types.ErrInvalidRequirements, "payment requirement is missing")
	}
	if req.Network != "" && req.Network != v.network {
		return common.Address{}, nil, types.NewError(
			types.ErrInvalidRequirements,
			fmt.Sprintf("requirement is for %s, verifier serves %s", req.Network, v.network),
		)
	}
	if err := utils.ValidateAddress(req.Recipient); err != nil {
		return common.Address{}, nil, types.WrapError(
			types.ErrInvalidRequirements,
			fmt.Sprintf("invalid recipient %q", req.Recipient),
			err,
		)
	}

	var expected *big.Int
	if req.AmountWei != "" {
		n, err := utils.ValidateBigInt(req.AmountWei)
		if err == nil && n.Sign() < 0 {
			err = fmt.Errorf("amountWei cannot be negative")
		}
		if err != nil {
			return common.Address{}, nil, types.WrapError(
				types.ErrInvalidRequirements,
				fmt.Sprintf("invalid amountWei %q", req.AmountWei),
				err,
			)
		}
		expected = n
	} else {
		n, err := utils.ParseAmountWithDecimals(req.Amount, v.decimals)
		if err != nil {
			return common.Address{}, nil, types.WrapError(types.ErrInvalidRequirements, "invalid amount", err)
		}
		expected = n
	}

	return common.HexToAddress(req.Recipient), expected, nil
}

func (v *Verifier) selectTransfer(candidates []types.EventLog, recipient common.Address) (*types.Transfer, error) {
	switch v.policy {
	case MatchExactlyOne:
		if len(candidates) > 1 {
			return nil, types.NewError(
				types.ErrAmbiguousTransfer,
				"Multiple token transfers found in transaction",
			)
		}
		return DecodeTransfer(candidates[0])

	case MatchSum:
		var total *types.Transfer
		for _, l := range candidates {
			t, err := DecodeTransfer(l)
			if err != nil {
				return nil, err
			}
			if t.To != recipient {
				continue
			}
			if total == nil {
				total = t
				continue
			}
			total.Value = new(big.Int).Add(total.Value, t.Value)
		}
		if total == nil {
			return nil, types.NewError(types.ErrRecipientMismatch, "Payment sent to wrong recipient")
		}
		return total, nil

	default:
		return DecodeTransfer(candidates[0])
	}
}

func (v *Verifier) reject(proof *types.PaymentProof, err error) error {
	v.logger.Warn("payment rejected", map[string]any{
		"tx_hash": proof.TxHash,
		"code":    types.ErrorCode(err),
		"err":     err,
	})
	return err
}

// fetchError maps receipt lookup failures onto retryable rejections. Anything
// other than a missing receipt fails closed as a network error.
func fetchError(err error) error {
	if types.ErrorCode(err) == types.ErrNotYetMined {
		return types.WrapError(types.ErrNotYetMined, "Transaction not found yet, retry shortly", err)
	}
	return types.WrapError(types.ErrNetworkError, "Unable to verify payment right now, retry shortly", err)
}
