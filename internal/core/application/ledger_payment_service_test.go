package application_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armagg/coin-payments/internal/core/application"
	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

// 20 XRP base reserve
const testReserve = int64(20_000_000)

func newLedgerService(
	t *testing.T, node ports.LedgerNode,
) *application.LedgerPaymentService {
	oracle := &mockFeeOracle{}
	oracle.On("GetFeeRate", domain.FeeLevelNormal).Return(
		domain.FeeRate{Rate: "0.000012", Type: domain.FeeRateMain}, nil,
	)

	svc, err := application.NewLedgerPaymentService(
		ledgerTestConfig, node, testChainSupport(), oracle, testReserve,
	)
	require.NoError(t, err)
	return svc
}

func TestLedgerPredicates(t *testing.T) {
	svc := newLedgerService(t, newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 100}))
	require.False(t, svc.UsesUtxos())
	require.True(t, svc.UsesSequenceNumber())
	require.True(t, svc.RequiresBalanceMonitor())
}

func TestLedgerGetBalance(t *testing.T) {
	node := newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 100})
	node.accountInfo = &ports.AccountInfo{Sequence: 5, Balance: 50_000_000}
	svc := newLedgerService(t, node)

	balance, err := svc.GetBalance(
		context.Background(), domain.PayportFromAddress("rAddr"),
	)
	require.NoError(t, err)
	require.Equal(t, "50", balance.Confirmed)
	require.Equal(t, "30", balance.Spendable)
	require.False(t, balance.RequiresActivation)
}

func TestLedgerGetBalanceBelowReserve(t *testing.T) {
	node := newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 100})
	node.accountInfo = &ports.AccountInfo{Sequence: 1, Balance: 5_000_000}
	svc := newLedgerService(t, node)

	balance, err := svc.GetBalance(
		context.Background(), domain.PayportFromAddress("rAddr"),
	)
	require.NoError(t, err)
	require.Equal(t, "0", balance.Spendable)
	require.True(t, balance.RequiresActivation)
}

func TestLedgerCreateTransaction(t *testing.T) {
	node := newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 5000})
	node.accountInfo = &ports.AccountInfo{Sequence: 42, Balance: 50_000_000}
	svc := newLedgerService(t, node)

	plan, err := svc.CreateTransaction(
		context.Background(),
		domain.PayportFromAddress("rSender"),
		domain.PayportFromRecord("rDest", "9001"),
		"10",
		application.CreateTransactionOpts{},
	)
	require.NoError(t, err)

	tx, ok := plan.(*domain.LedgerTx)
	require.True(t, ok)
	require.Equal(t, "rSender", tx.From)
	require.Equal(t, "rDest", tx.To)
	require.Equal(t, "9001", tx.ExtraID)
	require.Equal(t, int64(10_000_000), tx.Amount)
	require.Equal(t, int64(12), tx.Fee)
	require.Equal(t, uint32(42), tx.Sequence)
	require.Equal(t, int64(6000), tx.MaxLedgerVersion)
	require.False(t, tx.Sweep)
}

func TestLedgerCreateTransactionInsufficient(t *testing.T) {
	node := newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 5000})
	node.accountInfo = &ports.AccountInfo{Sequence: 42, Balance: 25_000_000}
	svc := newLedgerService(t, node)

	// only 5 XRP spendable above the reserve
	_, err := svc.CreateTransaction(
		context.Background(),
		domain.PayportFromAddress("rSender"),
		domain.PayportFromAddress("rDest"),
		"10",
		application.CreateTransactionOpts{},
	)
	var insufficientErr *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)
}

func TestLedgerCreateSweepTransaction(t *testing.T) {
	node := newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 5000})
	node.accountInfo = &ports.AccountInfo{Sequence: 7, Balance: 50_000_000}
	svc := newLedgerService(t, node)

	plan, err := svc.CreateSweepTransaction(
		context.Background(),
		domain.PayportFromAddress("rSender"),
		domain.PayportFromAddress("rDest"),
		application.CreateTransactionOpts{},
	)
	require.NoError(t, err)

	tx := plan.(*domain.LedgerTx)
	require.True(t, tx.Sweep)
	// whole balance minus reserve and fee
	require.Equal(t, int64(30_000_000-12), tx.Amount)
}

func TestLedgerMultiOutputUnsupported(t *testing.T) {
	svc := newLedgerService(t, newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 100}))

	_, err := svc.CreateMultiOutputTransaction(
		context.Background(), domain.PayportFromAddress("rSender"),
		[]application.PayportOutput{}, application.CreateTransactionOpts{},
	)
	require.ErrorIs(t, err, application.ErrMultiOutputUnsupported)
}

func TestLedgerBroadcast(t *testing.T) {
	svc := newLedgerService(t, newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 100}))

	res, err := svc.BroadcastTransaction(context.Background(), "blob", "known-id")
	require.NoError(t, err)
	require.Equal(t, "submitted-id", res.ID)
}

func TestLedgerBroadcastDuplicate(t *testing.T) {
	node := newFakeLedgerNode(ports.LedgerRange{Min: 1, Max: 100})
	node.submitErr = fmt.Errorf("-27: transaction already applied")
	svc := newLedgerService(t, node)

	res, err := svc.BroadcastTransaction(context.Background(), "blob", "known-id")
	require.NoError(t, err)
	require.Equal(t, "known-id", res.ID)
}
