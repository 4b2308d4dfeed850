package targetpool_planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/pkg/amount"
)

// feeCalc derives integer base-unit fees from a fee rate and a hypothetical
// transaction shape, honoring the configured minTxFee and networkMinRelayFee
// floors.
type feeCalc struct {
	cfg          domain.Config
	conv         amount.Converter
	rate         decimal.Decimal
	rateType     domain.FeeRateType
	minRate      *decimal.Decimal
	minRateType  domain.FeeRateType
	estimateSize func(inputCount, changeOutputCount int, externalAddresses []string) int64
}

func newFeeCalc(
	cfg domain.Config, conv amount.Converter, feeRate domain.FeeRate,
	estimateSize func(int, int, []string) int64,
) (*feeCalc, error) {
	rate, err := decimal.NewFromString(feeRate.Rate)
	if err != nil || rate.IsNegative() {
		return nil, fmt.Errorf("%w: invalid fee rate %q", domain.ErrInvalidAmount, feeRate.Rate)
	}
	calc := &feeCalc{
		cfg:          cfg,
		conv:         conv,
		rate:         rate,
		rateType:     feeRate.Type,
		estimateSize: estimateSize,
	}
	if cfg.MinTxFee != nil {
		minRate, err := decimal.NewFromString(cfg.MinTxFee.Rate)
		if err != nil || minRate.IsNegative() {
			return nil, fmt.Errorf(
				"%w: invalid minTxFee rate %q", domain.ErrInvalidAmount, cfg.MinTxFee.Rate,
			)
		}
		calc.minRate = &minRate
		calc.minRateType = cfg.MinTxFee.Type
	}
	return calc, nil
}

// estimate returns the fee for a transaction with the given shape, in base
// units: the rate applied to the estimated size, floor-clamped by the
// configured minimums, rounded up to a whole base unit.
func (f *feeCalc) estimate(
	inputCount, changeOutputCount int, externalAddresses []string,
) int64 {
	size := f.estimateSize(inputCount, changeOutputCount, externalAddresses)
	fee := applyRate(f.rate, f.rateType, size, f.conv)
	if f.minRate != nil {
		if minFee := applyRate(*f.minRate, f.minRateType, size, f.conv); minFee.GreaterThan(fee) {
			fee = minFee
		}
	}
	feeBase := fee.Ceil().IntPart()
	if feeBase < f.cfg.NetworkMinRelayFee {
		feeBase = f.cfg.NetworkMinRelayFee
	}
	return feeBase
}

func applyRate(
	rate decimal.Decimal, rateType domain.FeeRateType, size int64,
	conv amount.Converter,
) decimal.Decimal {
	switch rateType {
	case domain.FeeRateBasePerWeight:
		return rate.Mul(decimal.NewFromInt(size))
	case domain.FeeRateMain:
		return rate.Mul(decimal.New(1, int32(conv.Decimals())))
	default:
		return rate
	}
}
