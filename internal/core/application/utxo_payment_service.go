package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
	"github.com/armagg/coin-payments/pkg/amount"
	"github.com/armagg/coin-payments/pkg/profiler"
)

// UtxoPaymentService is the payment engine for utxo-based chains. It is
// responsible for:
//   - Resolving payports and fee options.
//   - Crafting transaction plans through the injected planner, from single
//     payments to multi-output and sweep transactions.
//   - Broadcasting signed transactions, absorbing mempool-duplicate rejections.
//   - Reporting balances and transaction info through the node facade.
//
// Planning is pure and synchronous; only facade calls suspend and they all
// honor the caller's context.
type UtxoPaymentService struct {
	cfg     domain.Config
	conv    amount.Converter
	node    ports.UtxoNode
	planner ports.TxPlanner
	chain   ports.ChainSupport
	oracle  ports.FeeOracle

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewUtxoPaymentService(
	cfg domain.Config, node ports.UtxoNode, planner ports.TxPlanner,
	chain ports.ChainSupport, oracle ports.FeeOracle,
) (*UtxoPaymentService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if chain.ValidateAddress == nil {
		return nil, fmt.Errorf("missing address validator capability")
	}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("utxo payments: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("utxo payments: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	return &UtxoPaymentService{
		cfg, amount.NewConverter(cfg.Decimals), node, planner, chain, oracle,
		logFn, warnFn,
	}, nil
}

func (s *UtxoPaymentService) UsesUtxos() bool { return true }

func (s *UtxoPaymentService) UsesSequenceNumber() bool { return false }

func (s *UtxoPaymentService) RequiresBalanceMonitor() bool { return false }

func (s *UtxoPaymentService) GetBalance(
	ctx context.Context, payport domain.Payport,
) (*BalanceInfo, error) {
	resolved, err := resolvePayport(s.chain, payport)
	if err != nil {
		return nil, err
	}
	details, err := s.node.GetAddressDetails(ctx, resolved.Address)
	if err != nil {
		return nil, err
	}
	confirmed, err := strconv.ParseInt(details.Balance, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unexpected balance %q: %s", details.Balance, err)
	}
	unconfirmed, err := strconv.ParseInt(details.UnconfirmedBalance, 10, 64)
	if err != nil {
		return nil, fmt.Errorf(
			"unexpected unconfirmed balance %q: %s", details.UnconfirmedBalance, err,
		)
	}
	return &BalanceInfo{
		Confirmed:          s.conv.ToMain(confirmed),
		Unconfirmed:        s.conv.ToMain(unconfirmed),
		Spendable:          s.conv.ToMain(confirmed),
		Sweepable:          s.conv.ToMain(confirmed),
		RequiresActivation: false,
	}, nil
}

func (s *UtxoPaymentService) CreateTransaction(
	ctx context.Context, from, to domain.Payport, amount string,
	opts CreateTransactionOpts,
) (Plan, error) {
	return s.CreateMultiOutputTransaction(
		ctx, from, []PayportOutput{{Payport: to, Amount: amount}}, opts,
	)
}

func (s *UtxoPaymentService) CreateMultiOutputTransaction(
	ctx context.Context, from domain.Payport, outputs []PayportOutput,
	opts CreateTransactionOpts,
) (Plan, error) {
	fromResolved, err := resolvePayport(s.chain, from)
	if err != nil {
		return nil, err
	}
	desired, err := s.resolveOutputs(outputs)
	if err != nil {
		return nil, err
	}
	return s.plan(ctx, fromResolved.Address, desired, opts, false)
}

func (s *UtxoPaymentService) CreateSweepTransaction(
	ctx context.Context, from, to domain.Payport, opts CreateTransactionOpts,
) (Plan, error) {
	fromResolved, err := resolvePayport(s.chain, from)
	if err != nil {
		return nil, err
	}
	toResolved, err := resolvePayport(s.chain, to)
	if err != nil {
		return nil, err
	}

	utxos, err := s.availableUtxos(ctx, fromResolved.Address, opts)
	if err != nil {
		return nil, err
	}
	candidates := utxos
	if !opts.UseUnconfirmedUtxos {
		candidates = candidates.Confirmed()
	}
	total := candidates.Total()
	if total <= 0 {
		return nil, &domain.InsufficientFundsError{Required: 1, Available: total}
	}

	// the output claims the whole input total so that the planner enters the
	// fee-subtraction path
	desired := domain.TxOutputs{{
		Address: toResolved.Address, ExtraID: toResolved.ExtraID, Value: total,
	}}
	opts.AvailableUtxos = utxos
	return s.plan(ctx, fromResolved.Address, desired, opts, true)
}

func (s *UtxoPaymentService) plan(
	ctx context.Context, fromAddress string, desired domain.TxOutputs,
	opts CreateTransactionOpts, sweep bool,
) (Plan, error) {
	utxos, err := s.availableUtxos(ctx, fromAddress, opts)
	if err != nil {
		return nil, err
	}
	fee, err := resolveFeeOption(s.oracle, opts.FeeOption)
	if err != nil {
		return nil, err
	}

	tx, err := s.planner.PlanTransaction(ports.TxPlanParams{
		Utxos:               utxos,
		Outputs:             desired,
		ChangeAddress:       fromAddress,
		FeeRate:             fee.Rate,
		UseAllUtxos:         sweep,
		UseUnconfirmedUtxos: opts.UseUnconfirmedUtxos,
	})
	if err != nil {
		return nil, err
	}
	s.log(
		"planned tx with %d input(s), %d external output(s), %d change output(s), fee %s",
		len(tx.Inputs), len(tx.ExternalOutputs), len(tx.ChangeOutputs), tx.FeeMain,
	)
	profiler.CountPlanBuilt()

	if s.chain.SerializePlan != nil {
		txHex, txHash, err := s.chain.SerializePlan(tx)
		if err != nil {
			return nil, err
		}
		tx.Hex, tx.HexHash = txHex, txHash
	}
	return tx, nil
}

func (s *UtxoPaymentService) availableUtxos(
	ctx context.Context, address string, opts CreateTransactionOpts,
) (domain.Utxos, error) {
	if opts.AvailableUtxos != nil {
		return opts.AvailableUtxos, nil
	}
	return s.node.GetUtxosForAddress(ctx, address)
}

func (s *UtxoPaymentService) resolveOutputs(
	outputs []PayportOutput,
) (domain.TxOutputs, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", domain.ErrInvalidAmount)
	}
	desired := make(domain.TxOutputs, 0, len(outputs))
	for _, out := range outputs {
		resolved, err := resolvePayport(s.chain, out.Payport)
		if err != nil {
			return nil, err
		}
		value, err := s.conv.FromMain(out.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf(
				"%w: output to %s must be positive", domain.ErrInvalidAmount,
				resolved.Address,
			)
		}
		desired = append(desired, domain.TxOutput{
			Address: resolved.Address, ExtraID: resolved.ExtraID, Value: value,
		})
	}
	return desired, nil
}

// BroadcastTransaction submits signed raw bytes through the node facade. A
// node reporting the transaction as already in the mempool is treated as a
// successful broadcast of the known txid.
func (s *UtxoPaymentService) BroadcastTransaction(
	ctx context.Context, signedHex, txID string,
) (*BroadcastResult, error) {
	id, err := s.node.SendTx(ctx, signedHex)
	if err != nil {
		if strings.HasPrefix(err.Error(), mempoolDuplicatePrefix) {
			s.log("tx %s already in mempool, treating as success", txID)
			return &BroadcastResult{ID: txID}, nil
		}
		return nil, err
	}
	profiler.CountBroadcast()
	return &BroadcastResult{ID: id}, nil
}

func (s *UtxoPaymentService) GetTransactionInfo(
	ctx context.Context, txid string,
) (*ports.TxDetails, error) {
	return s.node.GetTx(ctx, txid)
}
