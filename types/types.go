package types

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// X402Version represents the version of the x402 protocol
type X402Version int

const (
	X402Version1 X402Version = 1
)

// PaymentScheme represents different payment schemes
type PaymentScheme string

const (
	SchemeExact PaymentScheme = "exact"
)

// PaymentHeader is the request header that carries a PaymentProof.
const PaymentHeader = "X-PAYMENT"

// ResourceKind identifies a kind of protected content.
type ResourceKind string

const (
	ResourceMystery ResourceKind = "mystery"
)

var resourceKinds = []ResourceKind{ResourceMystery}

// ResourceKinds returns every supported resource kind.
func ResourceKinds() []ResourceKind {
	out := make([]ResourceKind, len(resourceKinds))
	copy(out, resourceKinds)
	return out
}

// ParseResourceKind maps untyped wire input onto a known ResourceKind.
func ParseResourceKind(s string) (ResourceKind, error) {
	for _, k := range resourceKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", NewError(ErrUnknownResource, fmt.Sprintf("unknown resource kind: %q", s))
}

func (k ResourceKind) String() string {
	return string(k)
}

// PriceEntry is the price and title of one resource kind.
type PriceEntry struct {
	// Price in human-readable token units, e.g. "10".
	Price string `json:"price" mapstructure:"price" validate:"required"`
	Title string `json:"title" mapstructure:"title" validate:"required"`
}

// PriceTable maps every resource kind to its price.
type PriceTable map[ResourceKind]PriceEntry

// PaymentRequirement describes what must be paid to unlock one resource.
type PaymentRequirement struct {
	Network Network `json:"network"`
	ChainID int64   `json:"chainId"`

	// Amount in human-readable token units.
	Amount string `json:"amount"`

	// AmountWei is Amount scaled by the token decimals, as a base-10 integer string.
	AmountWei string `json:"amountWei"`

	Token       string `json:"token"`
	TokenSymbol string `json:"tokenSymbol"`

	// Recipient is the address that must receive the transfer.
	Recipient string `json:"recipient"`

	Description string `json:"description"`
	Resource    string `json:"resource"`
}

// PaymentProof is the caller's claim of having paid.
type PaymentProof struct {
	TxHash  string  `json:"txHash" validate:"required,tx_hash"`
	Network Network `json:"network" validate:"required"`

	// Amount is advisory only. The verifier re-derives the paid amount from the chain.
	Amount string `json:"amount,omitempty"`
}

// EventLog is one event record emitted during transaction execution.
type EventLog struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
	Index   uint
}

// TransferRecord is the settlement record of a transaction.
type TransferRecord struct {
	TxHash      common.Hash
	Success     bool
	BlockNumber uint64
	Logs        []EventLog
}

// Transfer is a decoded ERC-20 Transfer event.
type Transfer struct {
	Token    common.Address
	From     common.Address
	To       common.Address
	Value    *big.Int
	LogIndex uint

	// BlockNumber is the block that included the transaction. Set once the
	// transfer is accepted.
	BlockNumber uint64
}

// VerificationResult contains the result of payment verification
type VerificationResult struct {
	IsValid       bool       `json:"isValid"`
	InvalidReason string     `json:"invalidReason,omitempty"`
	Retryable     bool       `json:"retryable,omitempty"`
	Error         string     `json:"error,omitempty"`
	TxHash        string     `json:"txHash,omitempty"`
	Amount        string     `json:"amount,omitempty"`
	Token         string     `json:"token,omitempty"`
	Recipient     string     `json:"recipient,omitempty"`
	Sender        string     `json:"sender,omitempty"`
	BlockNumber   uint64     `json:"blockNumber,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

type SupportedItem struct {
	X402Version int    `json:"x402Version"`
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
}

type SupportedResponse struct {
	Kinds []SupportedItem `json:"kinds"`
}

// PaymentRequiredResponse is the 402 body returned when no proof is supplied.
type PaymentRequiredResponse struct {
	Error   string              `json:"error"`
	Payment *PaymentRequirement `json:"payment,omitempty"`
}

// ErrorResponse is the body returned for rejected proofs and unknown resources.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ContentResponse is the body returned once payment is verified.
type ContentResponse struct {
	Success bool `json:"success"`
	Content any  `json:"content"`
}

// TokenStatus describes a holder's token balance and faucet eligibility.
type TokenStatus struct {
	Address          string `json:"address"`
	Token            string `json:"token"`
	Symbol           string `json:"symbol"`
	Balance          string `json:"balance"`
	BalanceFormatted string `json:"balanceFormatted"`
	CanClaim         bool   `json:"canClaim"`
	NextClaimTime    int64  `json:"nextClaimTime"`
}
