package clients

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	x402types "github.com/vitwit/x402gate/types"
)

// ReceiptSource is the read-only blockchain query the verifier depends on.
//
// TransferRecord returns an X402Error with code ErrNotYetMined when the
// transaction has no receipt yet, and ErrNetworkError when the RPC call
// itself fails.
type ReceiptSource interface {
	TransferRecord(ctx context.Context, txHash common.Hash) (*x402types.TransferRecord, error)
	GetNetwork() x402types.Network
	Close()
}
