package clients

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x402types "github.com/vitwit/x402gate/types"
)

type fakeBackend struct {
	receipt *types.Receipt
	err     error
	chainID *big.Int
	outputs map[string][]byte
	callErr error
	closed  bool
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return f.receipt, f.err
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	for name, method := range parsedTokenABI.Methods {
		if bytes.HasPrefix(msg.Data, method.ID) {
			return f.outputs[name], nil
		}
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, f.err
}

func (f *fakeBackend) Close() { f.closed = true }

func pack(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	out, err := parsedTokenABI.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

var hash = common.HexToHash("0x5555555555555555555555555555555555555555555555555555555555555555")

func TestTransferRecordFromReceipt(t *testing.T) {
	token := x402types.AvalancheFuji.Token.TokenAddress()
	backend := &fakeBackend{receipt: &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(1234),
		Logs: []*types.Log{
			{Address: token, Topics: []common.Hash{x402types.TransferEventSignature}, Data: []byte{1}, Index: 3},
			nil,
		},
	}}
	c := NewEVMClientWithBackend(x402types.AvalancheFuji, backend)

	record, err := c.TransferRecord(context.Background(), hash)
	require.NoError(t, err)
	assert.True(t, record.Success)
	assert.Equal(t, uint64(1234), record.BlockNumber)
	assert.Equal(t, hash, record.TxHash)
	require.Len(t, record.Logs, 1)
	assert.Equal(t, token, record.Logs[0].Address)
	assert.Equal(t, uint(3), record.Logs[0].Index)

	backend.receipt.Logs[0].Data[0] = 9
	assert.Equal(t, byte(1), record.Logs[0].Data[0])
}

func TestTransferRecordFailedStatus(t *testing.T) {
	c := NewEVMClientWithBackend(x402types.AvalancheFuji, &fakeBackend{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}})

	record, err := c.TransferRecord(context.Background(), hash)
	require.NoError(t, err)
	assert.False(t, record.Success)
	assert.Zero(t, record.BlockNumber)
}

func TestTransferRecordErrors(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		code    string
	}{
		{"not found", &fakeBackend{err: ethereum.NotFound}, x402types.ErrNotYetMined},
		{"nil receipt", &fakeBackend{}, x402types.ErrNotYetMined},
		{"rpc failure", &fakeBackend{err: errors.New("503")}, x402types.ErrNetworkError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEVMClientWithBackend(x402types.AvalancheFuji, tt.backend)
			_, err := c.TransferRecord(context.Background(), hash)
			assert.Equal(t, tt.code, x402types.ErrorCode(err))
			assert.True(t, x402types.IsRetryable(err))
		})
	}
}

func TestCheckChainID(t *testing.T) {
	c := NewEVMClientWithBackend(x402types.AvalancheFuji, &fakeBackend{chainID: big.NewInt(43113)})
	assert.NoError(t, c.CheckChainID(context.Background()))

	c = NewEVMClientWithBackend(x402types.AvalancheFuji, &fakeBackend{chainID: big.NewInt(1)})
	assert.Equal(t, x402types.ErrConfigError, x402types.ErrorCode(c.CheckChainID(context.Background())))

	c = NewEVMClientWithBackend(x402types.AvalancheFuji, &fakeBackend{err: errors.New("down")})
	assert.Equal(t, x402types.ErrNetworkError, x402types.ErrorCode(c.CheckChainID(context.Background())))
}

func TestTokenReader(t *testing.T) {
	balance, _ := new(big.Int).SetString("12500000000000000000", 10)
	backend := &fakeBackend{outputs: map[string][]byte{
		"decimals":               pack(t, "decimals", uint8(18)),
		"symbol":                 pack(t, "symbol", "Tokens"),
		"balanceOf":              pack(t, "balanceOf", balance),
		"canClaimFromFaucet":     pack(t, "canClaimFromFaucet", false),
		"getNextFaucetClaimTime": pack(t, "getNextFaucetClaimTime", big.NewInt(1700000000)),
	}}
	c := NewEVMClientWithBackend(x402types.AvalancheFuji, backend)
	token := c.Token(x402types.AvalancheFuji.Token.TokenAddress())
	holder := common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
	assert.Equal(t, x402types.AvalancheFuji.Token.TokenAddress(), token.Address())

	decimals, err := token.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(18), decimals)

	status, err := NewStatusReader(token, 18).TokenStatus(context.Background(), holder)
	require.NoError(t, err)
	assert.Equal(t, holder.Hex(), status.Address)
	assert.Equal(t, "Tokens", status.Symbol)
	assert.Equal(t, "12500000000000000000", status.Balance)
	assert.Equal(t, "12.5", status.BalanceFormatted)
	assert.False(t, status.CanClaim)
	assert.Equal(t, int64(1700000000), status.NextClaimTime)

	backend.callErr = errors.New("execution reverted")
	_, err = token.Symbol(context.Background())
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	backend := &fakeBackend{}
	c := NewEVMClientWithBackend(x402types.AvalancheFuji, backend)
	assert.Equal(t, x402types.NetworkAvalancheFuji, c.GetNetwork())
	c.Close()
	assert.True(t, backend.closed)
}
