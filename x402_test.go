package x402gate

import (
	"context"
	"encoding/base64"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402gate/metrics"
	"github.com/vitwit/x402gate/types"
	"github.com/vitwit/x402gate/verification"
)

const (
	testRecipient = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	testPayer     = "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	testTxHash    = "0x2222222222222222222222222222222222222222222222222222222222222222"
)

type stubSource struct {
	record *types.TransferRecord
	err    error
	closed bool
}

func (s *stubSource) TransferRecord(context.Context, common.Hash) (*types.TransferRecord, error) {
	return s.record, s.err
}
func (s *stubSource) GetNetwork() types.Network { return types.NetworkAvalancheFuji }
func (s *stubSource) Close()                    { s.closed = true }

func testConfig() *types.GateConfig {
	cfg := types.DefaultConfig()
	cfg.Recipient = testRecipient
	return &cfg
}

func paidRecord(value *big.Int) *types.TransferRecord {
	return &types.TransferRecord{
		Success: true,
		Logs: []types.EventLog{{
			Address: types.AvalancheFuji.Token.TokenAddress(),
			Topics: []common.Hash{
				types.TransferEventSignature,
				common.BytesToHash(common.HexToAddress(testPayer).Bytes()),
				common.BytesToHash(common.HexToAddress(testRecipient).Bytes()),
			},
			Data: common.LeftPadBytes(value.Bytes(), 32),
		}},
	}
}

func tenTokens() *big.Int {
	v, _ := new(big.Int).SetString("10000000000000000000", 10)
	return v
}

func TestGateVerifyAccepts(t *testing.T) {
	record := paidRecord(tenTokens())
	record.BlockNumber = 777
	g, err := New(testConfig(), &stubSource{record: record})
	require.NoError(t, err)

	req, err := g.Requirement(types.ResourceMystery)
	require.NoError(t, err)

	res := g.Verify(context.Background(), &types.PaymentProof{TxHash: testTxHash, Network: types.NetworkAvalancheFuji}, req)
	require.True(t, res.IsValid, res.Error)
	assert.Equal(t, "10", res.Amount)
	assert.Equal(t, common.HexToAddress(testPayer).Hex(), res.Sender)
	assert.Equal(t, common.HexToAddress(testRecipient).Hex(), res.Recipient)
	assert.Equal(t, uint64(777), res.BlockNumber)
	assert.NotNil(t, res.Timestamp)
}

func TestGateVerifyFailsClosed(t *testing.T) {
	g, err := New(testConfig(), &stubSource{err: errors.New("boom")})
	require.NoError(t, err)
	req, err := g.Requirement(types.ResourceMystery)
	require.NoError(t, err)

	res := g.Verify(context.Background(), &types.PaymentProof{TxHash: testTxHash, Network: types.NetworkAvalancheFuji}, req)
	assert.False(t, res.IsValid)
	assert.Equal(t, types.ErrNetworkError, res.InvalidReason)
	assert.True(t, res.Retryable)
	assert.Equal(t, "Unable to verify payment right now, retry shortly", res.Error)
}

func TestGateVerifyHeader(t *testing.T) {
	g, err := New(testConfig(), &stubSource{record: paidRecord(tenTokens())})
	require.NoError(t, err)
	req, err := g.Requirement(types.ResourceMystery)
	require.NoError(t, err)

	raw := `{"txHash":"` + testTxHash + `","network":"avalanche-fuji","amount":"10"}`

	res := g.VerifyHeader(context.Background(), raw, req)
	assert.True(t, res.IsValid, res.Error)

	res = g.VerifyHeader(context.Background(), base64.StdEncoding.EncodeToString([]byte(raw)), req)
	assert.True(t, res.IsValid, res.Error)

	for _, bad := range []string{"", "not-json", `{"txHash":"0x12","network":"avalanche-fuji"}`, `{"network":"avalanche-fuji"}`, `[1,2]`} {
		res = g.VerifyHeader(context.Background(), bad, req)
		assert.False(t, res.IsValid, bad)
		assert.Equal(t, types.ErrInvalidPayload, res.InvalidReason, bad)
		assert.Equal(t, "Invalid payment format", res.Error, bad)
	}
}

func TestGateMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPrometheusRecorder(reg)
	require.NoError(t, err)

	g, err := New(testConfig(), &stubSource{record: paidRecord(big.NewInt(1))}, WithMetrics(rec))
	require.NoError(t, err)
	req, err := g.Requirement(types.ResourceMystery)
	require.NoError(t, err)

	g.Verify(context.Background(), &types.PaymentProof{TxHash: testTxHash, Network: types.NetworkAvalancheFuji}, req)

	count, err := testutil.GatherAndCount(reg, "x402gate_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGateOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Verification.MatchPolicy = "sum"

	g, err := New(cfg, &stubSource{})
	require.NoError(t, err)
	assert.Equal(t, verification.MatchSum, g.Policy())

	g, err = New(cfg, &stubSource{}, WithMatchPolicy(verification.MatchExactlyOne))
	require.NoError(t, err)
	assert.Equal(t, verification.MatchExactlyOne, g.Policy())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Recipient = "0x123"
	_, err := New(cfg, &stubSource{})
	assert.Equal(t, types.ErrConfigError, types.ErrorCode(err))

	_, err = New(nil, &stubSource{})
	assert.Equal(t, types.ErrConfigError, types.ErrorCode(err))
}

func TestSupportedAndClose(t *testing.T) {
	src := &stubSource{}
	g, err := New(testConfig(), src)
	require.NoError(t, err)

	kinds := g.Supported().Kinds
	require.Len(t, kinds, 1)
	assert.Equal(t, "avalanche-fuji", kinds[0].Network)
	assert.Equal(t, "exact", kinds[0].Scheme)
	assert.Equal(t, 1, kinds[0].X402Version)

	g.Close()
	assert.True(t, src.closed)
}
