package verification

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/x402gate/types"
)

const (
	wordSize     = 32
	addressPad   = wordSize - common.AddressLength
	transferArgs = 3
)

// IsTransferLog reports whether l was emitted by token with the ERC-20
// Transfer signature as its first topic.
func IsTransferLog(l types.EventLog, token common.Address) bool {
	return l.Address == token &&
		len(l.Topics) > 0 &&
		l.Topics[0] == types.TransferEventSignature
}

// DecodeTransfer extracts sender, receiver and value from a Transfer log.
// Topics 1 and 2 must be left-padded addresses and the data must be a
// single 32-byte big-endian word.
func DecodeTransfer(l types.EventLog) (*types.Transfer, error) {
	if len(l.Topics) != transferArgs {
		return nil, malformed(l, fmt.Sprintf("expected %d topics, got %d", transferArgs, len(l.Topics)))
	}
	if l.Topics[0] != types.TransferEventSignature {
		return nil, malformed(l, "topic0 is not the Transfer signature")
	}

	from, err := addressFromTopic(l.Topics[1])
	if err != nil {
		return nil, malformed(l, "from: "+err.Error())
	}
	to, err := addressFromTopic(l.Topics[2])
	if err != nil {
		return nil, malformed(l, "to: "+err.Error())
	}

	if len(l.Data) != wordSize {
		return nil, malformed(l, fmt.Sprintf("expected %d data bytes, got %d", wordSize, len(l.Data)))
	}

	return &types.Transfer{
		Token:    l.Address,
		From:     from,
		To:       to,
		Value:    new(big.Int).SetBytes(l.Data),
		LogIndex: l.Index,
	}, nil
}

func addressFromTopic(topic common.Hash) (common.Address, error) {
	for _, b := range topic[:addressPad] {
		if b != 0 {
			return common.Address{}, fmt.Errorf("non-zero padding in %s", topic.Hex())
		}
	}
	return common.BytesToAddress(topic[addressPad:]), nil
}

func malformed(l types.EventLog, detail string) error {
	return types.WrapError(
		types.ErrMalformedTransfer,
		"Malformed token transfer event",
		fmt.Errorf("log %d: %s", l.Index, detail),
	)
}
