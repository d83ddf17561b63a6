package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vitwit/x402gate/logger"
	"github.com/vitwit/x402gate/retry"
	x402types "github.com/vitwit/x402gate/types"
	"github.com/vitwit/x402gate/utils"
)

var (
	// ErrPaymentTimeout means verification never succeeded within the retry policy.
	ErrPaymentTimeout = errors.New("payment verification timed out")

	// ErrResourceNotFound means the server does not know the resource kind.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrNoPaymentRequired means the server served the resource without asking for payment.
	ErrNoPaymentRequired = errors.New("resource did not require payment")
)

// ContentClient is the payer side of the gate: it discovers requirements and
// resubmits proof until the server accepts it.
type ContentClient struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
	logger  logger.Logger
}

type ContentOption func(*ContentClient)

func WithHTTPClient(h *http.Client) ContentOption {
	return func(c *ContentClient) {
		c.http = h
	}
}

func WithRetryPolicy(p retry.Policy) ContentOption {
	return func(c *ContentClient) {
		c.policy = p
	}
}

func WithContentLogger(l logger.Logger) ContentOption {
	return func(c *ContentClient) {
		c.logger = l
	}
}

func NewContentClient(baseURL string, opts ...ContentOption) *ContentClient {
	c := &ContentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		policy:  retry.DefaultPolicy(),
		logger:  logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ContentClient) contentURL(kind string) string {
	return c.baseURL + "/api/content/" + kind
}

// Requirement fetches the payment requirement for a resource kind.
func (c *ContentClient) Requirement(ctx context.Context, kind string) (*x402types.PaymentRequirement, error) {
	status, body, err := c.get(ctx, kind, "")
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusPaymentRequired:
		var resp x402types.PaymentRequiredResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode payment requirement: %w", err)
		}
		if resp.Payment == nil {
			return nil, fmt.Errorf("402 response without payment requirement: %s", resp.Error)
		}
		return resp.Payment, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, kind)
	case http.StatusOK:
		return nil, ErrNoPaymentRequired
	default:
		return nil, fmt.Errorf("unexpected status %d", status)
	}
}

// Unlock submits proof for a resource kind, retrying under the client's
// policy until the server returns 200. It returns the content payload.
func (c *ContentClient) Unlock(ctx context.Context, kind string, proof x402types.PaymentProof) (json.RawMessage, error) {
	header, err := utils.EncodePaymentProof(&proof)
	if err != nil {
		return nil, err
	}

	var content json.RawMessage
	err = retry.Do(ctx, c.policy, func(ctx context.Context, attempt int) error {
		c.logger.Debug("verification attempt", map[string]any{
			"attempt":      attempt,
			"max_attempts": c.policy.MaxAttempts,
			"tx_hash":      proof.TxHash,
		})

		status, body, err := c.get(ctx, kind, header)
		if err != nil {
			return err
		}

		switch status {
		case http.StatusOK:
			var raw struct {
				Success bool            `json:"success"`
				Content json.RawMessage `json:"content"`
			}
			if err := json.Unmarshal(body, &raw); err != nil {
				return retry.Permanent(fmt.Errorf("decode content: %w", err))
			}
			content = raw.Content
			return nil
		case http.StatusNotFound:
			return retry.Permanent(fmt.Errorf("%w: %s", ErrResourceNotFound, kind))
		default:
			var resp x402types.ErrorResponse
			_ = json.Unmarshal(body, &resp)
			c.logger.Info("verification rejected", map[string]any{
				"attempt": attempt,
				"status":  status,
				"reason":  resp.Error,
				"code":    resp.Code,
			})
			if resp.Error == "" {
				resp.Error = fmt.Sprintf("status %d", status)
			}
			return errors.New(resp.Error)
		}
	})
	if errors.Is(err, retry.ErrAttemptsExhausted) {
		return nil, fmt.Errorf("%w: %w", ErrPaymentTimeout, err)
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (c *ContentClient) get(ctx context.Context, kind, paymentHeader string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.contentURL(kind), nil)
	if err != nil {
		return 0, nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if paymentHeader != "" {
		req.Header.Set(x402types.PaymentHeader, paymentHeader)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
