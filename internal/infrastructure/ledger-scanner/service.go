package ledger_scanner

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
	"github.com/armagg/coin-payments/pkg/profiler"
)

// service implements ports.LedgerNode over a websocket connection to a
// ledger server. Idempotent reads are retried after transport disconnects
// per the configured policy; the notification stream and subscriptions
// survive reconnects.
type service struct {
	addr   string
	policy RetryPolicy

	client        *wsClient
	subscriptions []string
	lock          sync.Mutex
	chPayments    chan ports.LedgerPayment

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewLedgerNode(addr string, policy RetryPolicy) ports.LedgerNode {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("ledger scanner: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("ledger scanner: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	return &service{
		addr:       addr,
		policy:     policy,
		chPayments: make(chan ports.LedgerPayment),
		log:        logFn,
		warn:       warnFn,
	}
}

func (s *service) IsConnected() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.client != nil && !s.client.isClosed()
}

func (s *service) Connect(ctx context.Context) error {
	_, err := s.ensureConnected(ctx)
	return err
}

func (s *service) Disconnect() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.client != nil {
		s.client.close()
		s.client = nil
	}
	return nil
}

func (s *service) Notifications() <-chan ports.LedgerPayment {
	return s.chPayments
}

func (s *service) Request(
	ctx context.Context, method string, params, result interface{},
) error {
	paramsMap, ok := params.(map[string]interface{})
	if params != nil && !ok {
		return fmt.Errorf("params must be a map")
	}
	return s.do(ctx, method, paramsMap, result)
}

func (s *service) GetServerInfo(ctx context.Context) (*ports.ServerInfo, error) {
	var result serverInfoResult
	if err := s.do(ctx, "server_info", nil, &result); err != nil {
		return nil, err
	}
	retained, err := parseLedgerRange(result.CompleteLedgers)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrServerError, err)
	}
	return &ports.ServerInfo{
		CompleteLedgers: retained,
		NetworkLedger:   result.ValidatedLedger,
	}, nil
}

func (s *service) GetTransactions(
	ctx context.Context, address string, opts ports.GetTransactionsOpts,
) ([]ports.LedgerPayment, error) {
	params := map[string]interface{}{
		"account":          address,
		"ledger_index_min": opts.MinLedgerVersion,
		"ledger_index_max": opts.MaxLedgerVersion,
		"forward":          opts.EarliestFirst,
		"exclude_failures": opts.ExcludeFailures,
	}
	if opts.Limit > 0 {
		params["limit"] = opts.Limit
	}
	if opts.Start != "" {
		params["start"] = opts.Start
	}

	var result accountTxResult
	if err := s.do(ctx, "account_tx", params, &result); err != nil {
		return nil, err
	}
	payments := make([]ports.LedgerPayment, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		payments = append(payments, tx.toPayment())
	}
	return payments, nil
}

func (s *service) GetLedger(
	ctx context.Context, version int64,
) (*ports.LedgerInfo, error) {
	var result ledgerResult
	params := map[string]interface{}{"ledger_index": version}
	if err := s.do(ctx, "ledger", params, &result); err != nil {
		return nil, err
	}
	info := &ports.LedgerInfo{
		LedgerVersion: result.LedgerVersion,
		LedgerHash:    result.LedgerHash,
	}
	if result.CloseTime > 0 {
		info.CloseTime = unixTime(result.CloseTime)
	}
	return info, nil
}

func (s *service) GetAccountInfo(
	ctx context.Context, address string,
) (*ports.AccountInfo, error) {
	var result accountInfoResult
	params := map[string]interface{}{"account": address}
	if err := s.do(ctx, "account_info", params, &result); err != nil {
		return nil, err
	}
	balance, err := strconv.ParseInt(result.Balance, 10, 64)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: unexpected balance %q", domain.ErrServerError, result.Balance,
		)
	}
	return &ports.AccountInfo{Sequence: result.Sequence, Balance: balance}, nil
}

// Submit broadcasts a signed blob. It is NOT retried: a disconnect leaves
// the outcome unknown and re-submission is the caller's call.
func (s *service) Submit(ctx context.Context, txBlob string) (string, error) {
	client, err := s.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	var result submitResult
	params := map[string]interface{}{"tx_blob": txBlob}
	if err := client.call(ctx, "submit", params, &result); err != nil {
		return "", err
	}
	return result.TxID, nil
}

func (s *service) Subscribe(ctx context.Context, addresses []string) error {
	s.lock.Lock()
	s.subscriptions = append(s.subscriptions, addresses...)
	s.lock.Unlock()
	return s.do(ctx, "subscribe", map[string]interface{}{
		"accounts": addresses,
	}, nil)
}

// do performs an idempotent request, reconnecting and retrying on transport
// disconnects per the service policy.
func (s *service) do(
	ctx context.Context, command string, params map[string]interface{},
	result interface{},
) error {
	return Retry(ctx, s.policy, func() error {
		client, err := s.ensureConnected(ctx)
		if err != nil {
			return err
		}
		return client.call(ctx, command, params, result)
	})
}

// ensureConnected returns a live client, dialing a new connection when the
// previous one dropped and replaying the active subscriptions on it.
func (s *service) ensureConnected(ctx context.Context) (*wsClient, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.client != nil && !s.client.isClosed() {
		return s.client, nil
	}

	client, err := newWSClient(ctx, s.addr, s.forwardPayment)
	if err != nil {
		return nil, err
	}
	s.client = client
	profiler.CountLedgerReconnect()
	s.log("connected to %s", s.addr)

	if len(s.subscriptions) > 0 {
		params := map[string]interface{}{"accounts": s.subscriptions}
		if err := client.call(ctx, "subscribe", params, nil); err != nil {
			s.warn(err, "failed to replay subscriptions after reconnect")
		}
	}
	return client, nil
}

func (s *service) forwardPayment(payment ports.LedgerPayment) {
	s.chPayments <- payment
}
