package requirements

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402gate/types"
)

const recipient = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func TestBuildRequirementMystery(t *testing.T) {
	req, err := BuildRequirement(types.ResourceMystery, types.DefaultPrices(), recipient, types.AvalancheFuji)
	require.NoError(t, err)

	assert.Equal(t, "10", req.Amount)
	assert.Equal(t, "10000000000000000000", req.AmountWei)
	assert.Equal(t, types.NetworkAvalancheFuji, req.Network)
	assert.Equal(t, int64(43113), req.ChainID)
	assert.Equal(t, types.AvalancheFuji.Token.Address, req.Token)
	assert.Equal(t, "Tokens", req.TokenSymbol)
	assert.Equal(t, common.HexToAddress(recipient).Hex(), req.Recipient)
	assert.Equal(t, "Access to Mystery Box Unlocked!", req.Description)
	assert.Equal(t, "/api/content/mystery", req.Resource)
}

func TestBuildRequirementDeterministic(t *testing.T) {
	a, err := BuildRequirement(types.ResourceMystery, types.DefaultPrices(), recipient, types.AvalancheFuji)
	require.NoError(t, err)
	b, err := BuildRequirement(types.ResourceMystery, types.DefaultPrices(), recipient, types.AvalancheFuji)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildRequirementScaling(t *testing.T) {
	tests := []struct {
		price    string
		decimals int
		want     string
		wantErr  bool
	}{
		{"10", 18, "10000000000000000000", false},
		{"0.5", 6, "500000", false},
		{"0", 18, "0", false},
		{"1.000001", 6, "1000001", false},
		{"1.0000001", 6, "", true},
		{"-1", 18, "", true},
		{"ten", 18, "", true},
		{"1e1", 18, "", true},
		{"+10", 18, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			chain := types.AvalancheFuji
			chain.Token.Decimals = tt.decimals
			prices := types.PriceTable{types.ResourceMystery: {Price: tt.price, Title: "Box"}}

			req, err := BuildRequirement(types.ResourceMystery, prices, recipient, chain)
			if tt.wantErr {
				assert.Equal(t, types.ErrInvalidRequirements, types.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.AmountWei)
		})
	}
}

func TestBuildRequirementUnknownKind(t *testing.T) {
	_, err := BuildRequirement("treasure", types.DefaultPrices(), recipient, types.AvalancheFuji)
	assert.Equal(t, types.ErrUnknownResource, types.ErrorCode(err))
}

func TestBuildRequirementBadRecipient(t *testing.T) {
	for _, bad := range []string{"", "0x1234", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", "0xZZAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"} {
		_, err := BuildRequirement(types.ResourceMystery, types.DefaultPrices(), bad, types.AvalancheFuji)
		assert.Equal(t, types.ErrInvalidRequirements, types.ErrorCode(err), bad)
	}
}

func TestBuildRequirementChecksumsRecipient(t *testing.T) {
	lower := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	req, err := BuildRequirement(types.ResourceMystery, types.DefaultPrices(), lower, types.AvalancheFuji)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(lower).Hex(), req.Recipient)
}

func TestNewIssuerRequiresTotalTable(t *testing.T) {
	_, err := NewIssuer(types.AvalancheFuji, recipient, types.PriceTable{})
	assert.Equal(t, types.ErrConfigError, types.ErrorCode(err))

	_, err = NewIssuer(types.AvalancheFuji, recipient, types.PriceTable{
		types.ResourceMystery: {Price: "abc", Title: "Box"},
	})
	assert.Equal(t, types.ErrConfigError, types.ErrorCode(err))
}

func TestIssuerBuild(t *testing.T) {
	prices := types.DefaultPrices()
	issuer, err := NewIssuer(types.AvalancheFuji, recipient, prices)
	require.NoError(t, err)

	// Later edits to the caller's table do not leak in.
	prices[types.ResourceMystery] = types.PriceEntry{Price: "99", Title: "Changed"}

	req, err := issuer.Build(types.ResourceMystery)
	require.NoError(t, err)
	assert.Equal(t, "10", req.Amount)
	assert.Equal(t, "Mystery Box Unlocked!", issuer.Title(types.ResourceMystery))
}
