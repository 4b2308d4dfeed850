package application_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

// ports.UtxoNode
type mockUtxoNode struct {
	mock.Mock
}

func (m *mockUtxoNode) GetAddressDetails(
	ctx context.Context, address string,
) (*ports.AddressDetails, error) {
	args := m.Called(ctx, address)
	var res *ports.AddressDetails
	if a := args.Get(0); a != nil {
		res = a.(*ports.AddressDetails)
	}
	return res, args.Error(1)
}

func (m *mockUtxoNode) GetUtxosForAddress(
	ctx context.Context, address string,
) (domain.Utxos, error) {
	args := m.Called(ctx, address)
	var res domain.Utxos
	if a := args.Get(0); a != nil {
		res = a.(domain.Utxos)
	}
	return res, args.Error(1)
}

func (m *mockUtxoNode) GetTx(
	ctx context.Context, txid string,
) (*ports.TxDetails, error) {
	args := m.Called(ctx, txid)
	var res *ports.TxDetails
	if a := args.Get(0); a != nil {
		res = a.(*ports.TxDetails)
	}
	return res, args.Error(1)
}

func (m *mockUtxoNode) SendTx(
	ctx context.Context, txHex string,
) (string, error) {
	args := m.Called(ctx, txHex)
	return args.String(0), args.Error(1)
}

// ports.FeeOracle
type mockFeeOracle struct {
	mock.Mock
}

func (m *mockFeeOracle) GetFeeRate(
	level domain.FeeLevel,
) (domain.FeeRate, error) {
	args := m.Called(level)
	return args.Get(0).(domain.FeeRate), args.Error(1)
}

// ports.LedgerNode, scripted by hand: GetTransactions answers with the
// configured pages in order and records the opts of every call.
type fakeLedgerNode struct {
	serverInfo   *ports.ServerInfo
	accountInfo  *ports.AccountInfo
	ledgers      map[int64]*ports.LedgerInfo
	pages        [][]ports.LedgerPayment
	pageCalls    []ports.GetTransactionsOpts
	chPayments   chan ports.LedgerPayment
	subscribed   [][]string
	subscribeErr error
	submitErr    error
	lock         sync.Mutex
}

func newFakeLedgerNode(retained ports.LedgerRange) *fakeLedgerNode {
	return &fakeLedgerNode{
		serverInfo: &ports.ServerInfo{
			CompleteLedgers: retained,
			NetworkLedger:   retained.Max,
		},
		ledgers:    make(map[int64]*ports.LedgerInfo),
		chPayments: make(chan ports.LedgerPayment),
	}
}

func (m *fakeLedgerNode) IsConnected() bool                 { return true }
func (m *fakeLedgerNode) Connect(ctx context.Context) error { return nil }
func (m *fakeLedgerNode) Disconnect() error                 { return nil }

func (m *fakeLedgerNode) Request(
	ctx context.Context, method string, params, result interface{},
) error {
	return fmt.Errorf("unexpected request %s", method)
}

func (m *fakeLedgerNode) GetServerInfo(
	ctx context.Context,
) (*ports.ServerInfo, error) {
	return m.serverInfo, nil
}

func (m *fakeLedgerNode) GetTransactions(
	ctx context.Context, address string, opts ports.GetTransactionsOpts,
) ([]ports.LedgerPayment, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.pageCalls = append(m.pageCalls, opts)
	if len(m.pageCalls) > len(m.pages) {
		return nil, nil
	}
	return m.pages[len(m.pageCalls)-1], nil
}

func (m *fakeLedgerNode) GetLedger(
	ctx context.Context, version int64,
) (*ports.LedgerInfo, error) {
	if info, ok := m.ledgers[version]; ok {
		return info, nil
	}
	return &ports.LedgerInfo{
		LedgerVersion: version,
		LedgerHash:    fmt.Sprintf("hash-%d", version),
	}, nil
}

func (m *fakeLedgerNode) GetAccountInfo(
	ctx context.Context, address string,
) (*ports.AccountInfo, error) {
	if m.accountInfo == nil {
		return nil, fmt.Errorf("account not found")
	}
	return m.accountInfo, nil
}

func (m *fakeLedgerNode) Submit(
	ctx context.Context, txBlob string,
) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return "submitted-id", nil
}

func (m *fakeLedgerNode) Subscribe(
	ctx context.Context, addresses []string,
) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.subscribed = append(m.subscribed, addresses)
	return m.subscribeErr
}

func (m *fakeLedgerNode) Notifications() <-chan ports.LedgerPayment {
	return m.chPayments
}

// test chain capabilities: every address except "" and "invalid" is valid, indexes derive
// to a synthetic address, serialization is canned.
func testChainSupport() ports.ChainSupport {
	return ports.ChainSupport{
		ValidateAddress: func(address string) error {
			if address == "" || address == "invalid" {
				return fmt.Errorf("invalid address %q", address)
			}
			return nil
		},
		DeriveAddress: func(index uint32) (string, error) {
			return fmt.Sprintf("derived-%d", index), nil
		},
		SerializePlan: func(tx *domain.PaymentTx) (string, string, error) {
			return "cafebabe", "deadbeef", nil
		},
	}
}
