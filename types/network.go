package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Network represents a supported blockchain network
type Network string

const (
	NetworkAvalancheFuji Network = "avalanche-fuji"
)

func (n Network) String() string {
	return string(n)
}

// TransferEventSignature is topic0 of an ERC-20 Transfer(address,address,uint256) event.
var TransferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// TokenInfo contains information about the payment token
type TokenInfo struct {
	Address  string `json:"address" mapstructure:"address" validate:"required,eth_addr"`
	Symbol   string `json:"symbol" mapstructure:"symbol" validate:"required"`
	Decimals int    `json:"decimals" mapstructure:"decimals" validate:"gte=0,lte=77"`

	// VerifyDecimals reads decimals() from the contract at startup and
	// refuses to start when it differs from Decimals.
	VerifyDecimals bool `json:"verifyDecimals" mapstructure:"verify_decimals"`
}

// TokenAddress returns the parsed token contract address.
func (t TokenInfo) TokenAddress() common.Address {
	return common.HexToAddress(t.Address)
}

// ChainConfig holds configuration for the single supported chain.
type ChainConfig struct {
	Network Network   `json:"network" mapstructure:"network" validate:"required"`
	ChainID int64     `json:"chainId" mapstructure:"chain_id" validate:"gt=0"`
	RPCUrl  string    `json:"rpcUrl" mapstructure:"rpc_url" validate:"required,url"`
	Token   TokenInfo `json:"token" mapstructure:"token"`
}

// AvalancheFuji is the default chain: the demo token on the Avalanche Fuji C-Chain.
var AvalancheFuji = ChainConfig{
	Network: NetworkAvalancheFuji,
	ChainID: 43113,
	RPCUrl:  "https://api.avax-test.network/ext/bc/C/rpc",
	Token: TokenInfo{
		Address:  "0x81FeDE901c8415A412f3407f6cEDBCDDC89D888c",
		Symbol:   "Tokens",
		Decimals: 18,
	},
}
