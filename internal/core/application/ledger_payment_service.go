package application

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
	"github.com/armagg/coin-payments/pkg/amount"
	"github.com/armagg/coin-payments/pkg/profiler"
)

// maxLedgerOffset is how many ledgers past the current one a submitted
// payment stays valid for.
const maxLedgerOffset = 1000

// LedgerPaymentService is the payment engine for account-based ledgers with
// per-address sequence numbers. Transaction plans carry the next account
// sequence and an expiry ledger; signing happens externally.
type LedgerPaymentService struct {
	cfg     domain.Config
	conv    amount.Converter
	node    ports.LedgerNode
	chain   ports.ChainSupport
	oracle  ports.FeeOracle
	reserve int64

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewLedgerPaymentService(
	cfg domain.Config, node ports.LedgerNode, chain ports.ChainSupport,
	oracle ports.FeeOracle, reserveBase int64,
) (*LedgerPaymentService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if chain.ValidateAddress == nil {
		return nil, fmt.Errorf("missing address validator capability")
	}
	if reserveBase < 0 {
		return nil, fmt.Errorf("reserve must not be negative")
	}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("ledger payments: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("ledger payments: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	return &LedgerPaymentService{
		cfg, amount.NewConverter(cfg.Decimals), node, chain, oracle, reserveBase,
		logFn, warnFn,
	}, nil
}

func (s *LedgerPaymentService) UsesUtxos() bool { return false }

func (s *LedgerPaymentService) UsesSequenceNumber() bool { return true }

func (s *LedgerPaymentService) RequiresBalanceMonitor() bool { return true }

func (s *LedgerPaymentService) GetBalance(
	ctx context.Context, payport domain.Payport,
) (*BalanceInfo, error) {
	resolved, err := resolvePayport(s.chain, payport)
	if err != nil {
		return nil, err
	}
	info, err := s.node.GetAccountInfo(ctx, resolved.Address)
	if err != nil {
		return nil, err
	}
	spendable := info.Balance - s.reserve
	if spendable < 0 {
		spendable = 0
	}
	return &BalanceInfo{
		Confirmed:          s.conv.ToMain(info.Balance),
		Unconfirmed:        s.conv.ToMain(0),
		Spendable:          s.conv.ToMain(spendable),
		Sweepable:          s.conv.ToMain(spendable),
		RequiresActivation: info.Balance < s.reserve,
	}, nil
}

func (s *LedgerPaymentService) CreateTransaction(
	ctx context.Context, from, to domain.Payport, amount string,
	opts CreateTransactionOpts,
) (Plan, error) {
	value, err := s.conv.FromMain(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, err)
	}
	if value <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	return s.plan(ctx, from, to, value, opts, false)
}

func (s *LedgerPaymentService) CreateMultiOutputTransaction(
	ctx context.Context, from domain.Payport, outputs []PayportOutput,
	opts CreateTransactionOpts,
) (Plan, error) {
	return nil, ErrMultiOutputUnsupported
}

// CreateSweepTransaction sends the whole spendable balance, minus the
// ledger's reserve and the fee, to the destination.
func (s *LedgerPaymentService) CreateSweepTransaction(
	ctx context.Context, from, to domain.Payport, opts CreateTransactionOpts,
) (Plan, error) {
	return s.plan(ctx, from, to, 0, opts, true)
}

func (s *LedgerPaymentService) plan(
	ctx context.Context, from, to domain.Payport, value int64,
	opts CreateTransactionOpts, sweep bool,
) (Plan, error) {
	fromResolved, err := resolvePayport(s.chain, from)
	if err != nil {
		return nil, err
	}
	toResolved, err := resolvePayport(s.chain, to)
	if err != nil {
		return nil, err
	}

	fee, err := resolveFeeOption(s.oracle, opts.FeeOption)
	if err != nil {
		return nil, err
	}
	feeBase, err := s.feeToBase(fee.Rate)
	if err != nil {
		return nil, err
	}

	account, err := s.node.GetAccountInfo(ctx, fromResolved.Address)
	if err != nil {
		return nil, err
	}
	serverInfo, err := s.node.GetServerInfo(ctx)
	if err != nil {
		return nil, err
	}

	available := account.Balance - s.reserve
	if sweep {
		value = available - feeBase
		if value <= 0 {
			return nil, &domain.InsufficientFundsError{
				Required: feeBase + 1, Available: available,
			}
		}
	} else if value+feeBase > available {
		return nil, &domain.InsufficientFundsError{
			Required: value + feeBase, Available: available,
		}
	}

	tx := &domain.LedgerTx{
		From:             fromResolved.Address,
		To:               toResolved.Address,
		ExtraID:          toResolved.ExtraID,
		Amount:           value,
		AmountMain:       s.conv.ToMain(value),
		Fee:              feeBase,
		FeeMain:          s.conv.ToMain(feeBase),
		Sequence:         account.Sequence,
		MaxLedgerVersion: serverInfo.NetworkLedger + maxLedgerOffset,
		Sweep:            sweep,
	}
	s.log(
		"planned payment of %s from %s (sequence %d, fee %s)",
		tx.AmountMain, tx.From, tx.Sequence, tx.FeeMain,
	)
	return tx, nil
}

// feeToBase interprets a resolved fee rate as an absolute fee in base units.
// Account-based ledgers have no size-dependent component.
func (s *LedgerPaymentService) feeToBase(rate domain.FeeRate) (int64, error) {
	switch rate.Type {
	case domain.FeeRateMain:
		base, err := s.conv.FromMain(rate.Rate)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, err)
		}
		return base, nil
	case domain.FeeRateBase:
		base, err := amount.NewConverter(0).FromMain(rate.Rate)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, err)
		}
		return base, nil
	default:
		return 0, fmt.Errorf(
			"%w: rate type %s not supported on account ledgers",
			domain.ErrInvalidAmount, rate.Type,
		)
	}
}

// BroadcastTransaction submits a signed payment blob. Duplicate submissions
// reported by the server map to success with the known transaction id.
func (s *LedgerPaymentService) BroadcastTransaction(
	ctx context.Context, signedBlob, txID string,
) (*BroadcastResult, error) {
	id, err := s.node.Submit(ctx, signedBlob)
	if err != nil {
		if strings.HasPrefix(err.Error(), mempoolDuplicatePrefix) {
			s.log("tx %s already applied, treating as success", txID)
			return &BroadcastResult{ID: txID}, nil
		}
		return nil, err
	}
	profiler.CountBroadcast()
	return &BroadcastResult{ID: id}, nil
}

func (s *LedgerPaymentService) GetTransactionInfo(
	ctx context.Context, txid string,
) (*ports.TxDetails, error) {
	var payment struct {
		ID            string `json:"id"`
		LedgerVersion int64  `json:"ledger_version"`
		Validated     bool   `json:"validated"`
	}
	if err := s.node.Request(ctx, "tx", map[string]interface{}{
		"transaction": txid,
	}, &payment); err != nil {
		return nil, err
	}
	return &ports.TxDetails{
		TxID:   payment.ID,
		Height: payment.LedgerVersion,
	}, nil
}
