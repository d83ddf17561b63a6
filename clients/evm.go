package clients

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	x402types "github.com/vitwit/x402gate/types"
)

// Backend is the subset of *ethclient.Client used by EVMClient.
type Backend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

var _ ReceiptSource = (*EVMClient)(nil)

// EVMClient reads receipts and token state from an EVM JSON-RPC endpoint.
type EVMClient struct {
	network x402types.Network
	chainID *big.Int
	eth     Backend
}

// NewEVMClient dials the chain's RPC endpoint.
func NewEVMClient(chain x402types.ChainConfig) (*EVMClient, error) {
	eth, err := ethclient.Dial(chain.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("ethereum rpc dial: %w", err)
	}

	return NewEVMClientWithBackend(chain, eth), nil
}

// NewEVMClientWithBackend wraps an existing backend.
func NewEVMClientWithBackend(chain x402types.ChainConfig, backend Backend) *EVMClient {
	return &EVMClient{
		network: chain.Network,
		chainID: big.NewInt(chain.ChainID),
		eth:     backend,
	}
}

// TransferRecord fetches the receipt of txHash and converts it into a TransferRecord.
func (c *EVMClient) TransferRecord(ctx context.Context, txHash common.Hash) (*x402types.TransferRecord, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) || (err == nil && receipt == nil) {
		return nil, x402types.NewError(
			x402types.ErrNotYetMined,
			fmt.Sprintf("transaction %s not found, it may not be mined yet", txHash.Hex()),
		)
	}
	if err != nil {
		return nil, x402types.WrapError(x402types.ErrNetworkError, "fetch transaction receipt", err)
	}

	return recordFromReceipt(txHash, receipt), nil
}

func recordFromReceipt(txHash common.Hash, receipt *types.Receipt) *x402types.TransferRecord {
	record := &x402types.TransferRecord{
		TxHash:  txHash,
		Success: receipt.Status == types.ReceiptStatusSuccessful,
		Logs:    make([]x402types.EventLog, 0, len(receipt.Logs)),
	}
	if receipt.BlockNumber != nil {
		record.BlockNumber = receipt.BlockNumber.Uint64()
	}

	for _, l := range receipt.Logs {
		if l == nil {
			continue
		}
		record.Logs = append(record.Logs, x402types.EventLog{
			Address: l.Address,
			Topics:  append([]common.Hash(nil), l.Topics...),
			Data:    append([]byte(nil), l.Data...),
			Index:   l.Index,
		})
	}

	return record
}

// CheckChainID confirms the endpoint serves the configured chain.
func (c *EVMClient) CheckChainID(ctx context.Context) error {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return x402types.WrapError(x402types.ErrNetworkError, "chain id fetch failed", err)
	}
	if id.Cmp(c.chainID) != 0 {
		return x402types.NewError(
			x402types.ErrConfigError,
			fmt.Sprintf("rpc serves chain %s, configured %s", id, c.chainID),
		)
	}
	return nil
}

// Token returns a reader for an ERC-20 token contract on this chain.
func (c *EVMClient) Token(address common.Address) *TokenReader {
	return newTokenReader(address, c.eth)
}

// GetNetwork implements ReceiptSource.
func (c *EVMClient) GetNetwork() x402types.Network {
	return c.network
}

// Close implements ReceiptSource.
func (c *EVMClient) Close() {
	c.eth.Close()
}
