package application

import (
	"context"
	"fmt"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

var ErrMultiOutputUnsupported = fmt.Errorf(
	"multi-output transactions are not supported on account-based ledgers",
)

// mempoolDuplicatePrefix is the sentinel prefixing node errors that report a
// transaction already known to the mempool. Broadcasting such a transaction
// is treated as success.
const mempoolDuplicatePrefix = "-27"

// BalanceInfo is the balance view returned by GetBalance. All amounts are
// main-denomination decimal strings.
type BalanceInfo struct {
	Confirmed          string
	Unconfirmed        string
	Spendable          string
	Sweepable          string
	RequiresActivation bool
}

// PayportOutput pairs a destination payport with a main-denomination amount.
type PayportOutput struct {
	Payport domain.Payport
	Amount  string
}

// CreateTransactionOpts tunes transaction creation.
type CreateTransactionOpts struct {
	// FeeOption selects the fee level or an explicit rate. The zero value
	// resolves to the normal level.
	FeeOption domain.FeeOption
	// UseUnconfirmedUtxos admits unconfirmed outputs as inputs.
	UseUnconfirmedUtxos bool
	// AvailableUtxos, when non-nil, overrides the candidate set instead of
	// querying the node facade.
	AvailableUtxos domain.Utxos
}

// BroadcastResult is the outcome of a broadcast.
type BroadcastResult struct {
	ID string
}

// Plan is the family-independent view of a prepared transaction.
type Plan interface {
	FeeAmount() string
	IsSweep() bool
}

// Payments is the uniform contract both payment families expose to
// higher-level wallet software. Amounts crossing this boundary are
// main-denomination decimal strings.
type Payments interface {
	GetBalance(ctx context.Context, payport domain.Payport) (*BalanceInfo, error)
	CreateTransaction(
		ctx context.Context, from, to domain.Payport, amount string,
		opts CreateTransactionOpts,
	) (Plan, error)
	CreateMultiOutputTransaction(
		ctx context.Context, from domain.Payport, outputs []PayportOutput,
		opts CreateTransactionOpts,
	) (Plan, error)
	CreateSweepTransaction(
		ctx context.Context, from, to domain.Payport, opts CreateTransactionOpts,
	) (Plan, error)
	BroadcastTransaction(
		ctx context.Context, signedHex, txID string,
	) (*BroadcastResult, error)
	GetTransactionInfo(ctx context.Context, txid string) (*ports.TxDetails, error)

	UsesUtxos() bool
	UsesSequenceNumber() bool
	RequiresBalanceMonitor() bool
}

var (
	_ Payments = (*UtxoPaymentService)(nil)
	_ Payments = (*LedgerPaymentService)(nil)
)

// resolvePayport turns a payport reference into a chain-validated
// {address, extraId} pair using the injected capabilities.
func resolvePayport(
	chain ports.ChainSupport, payport domain.Payport,
) (domain.ResolvedPayport, error) {
	switch payport.Kind() {
	case domain.PayportByIndex:
		if chain.DeriveAddress == nil {
			return domain.ResolvedPayport{}, fmt.Errorf(
				"%w: no address deriver configured", domain.ErrInvalidAddress,
			)
		}
		address, err := chain.DeriveAddress(payport.Index())
		if err != nil {
			return domain.ResolvedPayport{}, fmt.Errorf(
				"%w: %s", domain.ErrInvalidAddress, err,
			)
		}
		return domain.ResolvedPayport{Address: address}, nil
	default:
		if err := chain.ValidateAddress(payport.Address()); err != nil {
			return domain.ResolvedPayport{}, fmt.Errorf(
				"%w: %s", domain.ErrInvalidAddress, err,
			)
		}
		return domain.ResolvedPayport{
			Address: payport.Address(), ExtraID: payport.ExtraID(),
		}, nil
	}
}

// resolveFeeOption resolves a fee option into a concrete rate, consulting
// the coin's fee oracle when a named level is requested.
func resolveFeeOption(
	oracle ports.FeeOracle, opt domain.FeeOption,
) (domain.ResolvedFee, error) {
	if opt.Rate != nil {
		return domain.ResolvedFee{Level: domain.FeeLevelCustom, Rate: *opt.Rate}, nil
	}
	if oracle == nil {
		return domain.ResolvedFee{}, fmt.Errorf("no fee oracle configured")
	}
	level := opt.Level
	if level == domain.FeeLevelCustom {
		level = domain.FeeLevelNormal
	}
	rate, err := oracle.GetFeeRate(level)
	if err != nil {
		return domain.ResolvedFee{}, err
	}
	return domain.ResolvedFee{Level: level, Rate: rate}, nil
}
