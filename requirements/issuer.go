// Package requirements turns the static price table into per-request
// payment requirements.
package requirements

import (
	"fmt"

	"github.com/vitwit/x402gate/types"
	"github.com/vitwit/x402gate/utils"
)

// ResourcePath is the route a requirement unlocks.
func ResourcePath(kind types.ResourceKind) string {
	return "/api/content/" + kind.String()
}

// BuildRequirement prices kind against the table. It does no I/O and gives
// the same answer for the same inputs.
func BuildRequirement(
	kind types.ResourceKind,
	prices types.PriceTable,
	recipient string,
	chain types.ChainConfig,
) (*types.PaymentRequirement, error) {
	if _, err := types.ParseResourceKind(kind.String()); err != nil {
		return nil, err
	}
	entry, ok := prices[kind]
	if !ok {
		return nil, types.NewError(types.ErrUnknownResource, fmt.Sprintf("no price for %s", kind))
	}

	if err := utils.ValidateAddress(recipient); err != nil {
		return nil, types.WrapError(types.ErrInvalidRequirements, fmt.Sprintf("invalid recipient %q", recipient), err)
	}

	wei, err := utils.ParseAmountWithDecimals(entry.Price, chain.Token.Decimals)
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidRequirements, fmt.Sprintf("invalid price for %s", kind), err)
	}

	return &types.PaymentRequirement{
		Network:     chain.Network,
		ChainID:     chain.ChainID,
		Amount:      entry.Price,
		AmountWei:   wei.String(),
		Token:       chain.Token.Address,
		TokenSymbol: chain.Token.Symbol,
		Recipient:   utils.NormalizeAddress(recipient),
		Description: "Access to " + entry.Title,
		Resource:    ResourcePath(kind),
	}, nil
}

// Issuer builds requirements over configuration checked once at construction.
type Issuer struct {
	chain     types.ChainConfig
	recipient string
	prices    types.PriceTable
}

// NewIssuer fails unless every resource kind has a valid price.
func NewIssuer(chain types.ChainConfig, recipient string, prices types.PriceTable) (*Issuer, error) {
	table := make(types.PriceTable, len(prices))
	for k, v := range prices {
		table[k] = v
	}

	for _, kind := range types.ResourceKinds() {
		if _, err := BuildRequirement(kind, table, recipient, chain); err != nil {
			return nil, types.WrapError(types.ErrConfigError, "price table", err)
		}
	}

	return &Issuer{chain: chain, recipient: recipient, prices: table}, nil
}

func (i *Issuer) Build(kind types.ResourceKind) (*types.PaymentRequirement, error) {
	return BuildRequirement(kind, i.prices, i.recipient, i.chain)
}

// Title returns the display title configured for kind.
func (i *Issuer) Title(kind types.ResourceKind) string {
	return i.prices[kind].Title
}
