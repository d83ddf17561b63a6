package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vitwit/x402gate/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("tx_hash", validateTxHashTag)
}

func validateTxHashTag(fl validator.FieldLevel) bool {
	return ValidateTransactionHash(fl.Field().String()) == nil
}

// ParsePaymentProof decodes an X-PAYMENT header value. The value is either a
// JSON object or the standard base64 encoding of one.
func ParsePaymentProof(header string) (*types.PaymentProof, error) {
	raw := []byte(strings.TrimSpace(header))
	if len(raw) == 0 {
		return nil, types.NewError(types.ErrInvalidPayload, "payment header is empty")
	}

	if raw[0] != '{' {
		decoded, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return nil, types.WrapError(types.ErrInvalidPayload, "payment header is neither JSON nor base64", err)
		}
		raw = bytes.TrimSpace(decoded)
	}

	var proof types.PaymentProof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return nil, types.WrapError(types.ErrInvalidPayload, "failed to parse payment proof", err)
	}

	if err := validate.Struct(&proof); err != nil {
		return nil, types.WrapError(types.ErrInvalidPayload, "payment proof validation failed", err)
	}

	return &proof, nil
}

// EncodePaymentProof serialises a proof as the JSON header value.
func EncodePaymentProof(proof *types.PaymentProof) (string, error) {
	bz, err := json.Marshal(proof)
	if err != nil {
		return "", fmt.Errorf("encode payment proof: %w", err)
	}
	return string(bz), nil
}

// ValidateGateConfig validates static configuration using struct tags.
func ValidateGateConfig(cfg *types.GateConfig) error {
	if cfg == nil {
		return types.NewError(types.ErrConfigError, "config is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return types.WrapError(types.ErrConfigError, "validation failed", err)
	}

	for kind, entry := range cfg.Prices {
		if _, err := types.ParseResourceKind(string(kind)); err != nil {
			return types.WrapError(types.ErrConfigError, "price table", err)
		}
		if _, err := ParseAmountWithDecimals(entry.Price, cfg.Chain.Token.Decimals); err != nil {
			return types.WrapError(types.ErrConfigError, fmt.Sprintf("price for %s", kind), err)
		}
	}

	return nil
}
