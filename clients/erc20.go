package clients

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	x402types "github.com/vitwit/x402gate/types"
	"github.com/vitwit/x402gate/utils"
)

// The demo token is an ERC-20 with a built-in faucet.
const tokenABI = `[
  {"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"canClaimFromFaucet","type":"function","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"getNextFaucetClaimTime","type":"function","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var parsedTokenABI = mustParseABI(tokenABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("parse token abi: %v", err))
	}
	return parsed
}

// ContractCaller executes read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenReader performs view calls against the token contract.
type TokenReader struct {
	address common.Address
	caller  ContractCaller
}

func newTokenReader(address common.Address, caller ContractCaller) *TokenReader {
	return &TokenReader{address: address, caller: caller}
}

// NewTokenReader builds a reader over any contract caller.
func NewTokenReader(address common.Address, caller ContractCaller) *TokenReader {
	return newTokenReader(address, caller)
}

// Address returns the token contract address.
func (t *TokenReader) Address() common.Address {
	return t.address
}

func (t *TokenReader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsedTokenABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := t.caller.CallContract(ctx, ethereum.CallMsg{To: &t.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := parsedTokenABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s returned %d values", method, len(values))
	}
	return values, nil
}

func (t *TokenReader) Decimals(ctx context.Context) (uint8, error) {
	values, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", values[0])
	}
	return d, nil
}

func (t *TokenReader) Symbol(ctx context.Context) (string, error) {
	values, err := t.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	s, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("symbol: unexpected type %T", values[0])
	}
	return s, nil
}

func (t *TokenReader) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", owner)
}

func (t *TokenReader) CanClaim(ctx context.Context, user common.Address) (bool, error) {
	values, err := t.call(ctx, "canClaimFromFaucet", user)
	if err != nil {
		return false, err
	}
	b, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("canClaimFromFaucet: unexpected type %T", values[0])
	}
	return b, nil
}

// NextClaimTime returns the unix time at which user may next claim from the faucet.
func (t *TokenReader) NextClaimTime(ctx context.Context, user common.Address) (*big.Int, error) {
	return t.callBig(ctx, "getNextFaucetClaimTime", user)
}

func (t *TokenReader) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	values, err := t.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	n, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", method, values[0])
	}
	return n, nil
}

// Status collects the holder's balance and faucet eligibility.
func (t *TokenReader) Status(ctx context.Context, holder common.Address, decimals int) (*x402types.TokenStatus, error) {
	symbol, err := t.Symbol(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := t.BalanceOf(ctx, holder)
	if err != nil {
		return nil, err
	}
	canClaim, err := t.CanClaim(ctx, holder)
	if err != nil {
		return nil, err
	}
	next, err := t.NextClaimTime(ctx, holder)
	if err != nil {
		return nil, err
	}

	return &x402types.TokenStatus{
		Address:          holder.Hex(),
		Token:            t.address.Hex(),
		Symbol:           symbol,
		Balance:          balance.String(),
		BalanceFormatted: utils.FormatAmountFromBigInt(balance, decimals),
		CanClaim:         canClaim,
		NextClaimTime:    next.Int64(),
	}, nil
}

// StatusReader reports holder status for one token with fixed decimals.
type StatusReader struct {
	reader   *TokenReader
	decimals int
}

func NewStatusReader(reader *TokenReader, decimals int) *StatusReader {
	return &StatusReader{reader: reader, decimals: decimals}
}

func (s *StatusReader) TokenStatus(ctx context.Context, holder common.Address) (*x402types.TokenStatus, error) {
	return s.reader.Status(ctx, holder, s.decimals)
}
