package targetpool_planner

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
	"github.com/armagg/coin-payments/pkg/amount"
)

// planner builds transaction plans by accumulating utxos until the desired
// outputs plus fee are covered, splitting change across enough outputs to
// keep the utxo pool at its target size. It is pure and deterministic: no
// randomness, no clock, stable iteration order.
type planner struct {
	cfg           domain.Config
	conv          amount.Converter
	minChangeBase int64
	estimateSize  func(inputCount, changeOutputCount int, externalAddresses []string) int64

	log func(format string, a ...interface{})
}

func NewTargetPoolPlanner(
	cfg domain.Config,
	estimateSize func(int, int, []string) int64,
) (ports.TxPlanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conv := amount.NewConverter(cfg.Decimals)
	minChangeBase := int64(0)
	if cfg.MinChange != "" {
		base, err := conv.FromMain(cfg.MinChange)
		if err != nil {
			return nil, fmt.Errorf("invalid minChange: %s", err)
		}
		minChangeBase = base
	}
	if estimateSize == nil {
		estimateSize = DefaultEstimateSize
	}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("tx planner: %s", format)
		log.Debugf(format, a...)
	}
	return &planner{cfg, conv, minChangeBase, estimateSize, logFn}, nil
}

func (p *planner) PlanTransaction(
	params ports.TxPlanParams,
) (*domain.PaymentTx, error) {
	if len(params.Outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", domain.ErrInvalidAmount)
	}
	for _, out := range params.Outputs {
		if out.Value <= 0 {
			return nil, fmt.Errorf(
				"%w: output to %s has non-positive value %d",
				domain.ErrInvalidAmount, out.Address, out.Value,
			)
		}
		if out.Value <= p.cfg.DustThreshold {
			return nil, fmt.Errorf(
				"%w: output to %s of %d base units",
				domain.ErrDustOutput, out.Address, out.Value,
			)
		}
	}

	fees, err := newFeeCalc(p.cfg, p.conv, params.FeeRate, p.estimateSize)
	if err != nil {
		return nil, err
	}

	candidates := params.Utxos
	if !params.UseUnconfirmedUtxos {
		candidates = candidates.Confirmed()
	}

	b := newPlanBuilder(p.conv, p.cfg.DustThreshold, params.Outputs)

	if params.UseAllUtxos {
		if err := p.planSweep(b, fees, candidates); err != nil {
			return nil, err
		}
	} else if params.ChangeAddress == "" {
		return nil, fmt.Errorf("%w: missing change address", domain.ErrInvalidAddress)
	} else {
		if err := p.planTargeted(b, fees, candidates, params.ChangeAddress); err != nil {
			return nil, err
		}
	}
	return b.build()
}

// planSweep spends every candidate utxo. The fee is computed once for a
// shape with no change output; any residual value above the desired outputs
// is absorbed into the fee.
func (p *planner) planSweep(
	b *planBuilder, fees *feeCalc, candidates domain.Utxos,
) error {
	fee := fees.estimate(len(candidates), 0, b.externalAddresses())
	b.selectInputs(candidates)
	b.sweep = true

	inputTotal := candidates.Total()
	outputTotal := b.externalTotal()
	if outputTotal+fee > inputTotal {
		return p.settleShortfall(b, fee, inputTotal, outputTotal)
	}
	// no change output in sweep mode: the excess goes to the fee
	b.fee = inputTotal - outputTotal
	return nil
}

func (p *planner) planTargeted(
	b *planBuilder, fees *feeCalc, candidates domain.Utxos, changeAddress string,
) error {
	outputTotal := b.externalTotal()
	extAddrs := b.externalAddresses()

	// Ideal-single-input probe: a no-change transaction is cheaper and
	// improves privacy in the narrow window where the excess would have been
	// dust anyway. The probe scans the caller-supplied order.
	feeSingle := fees.estimate(1, 0, extAddrs)
	idealMin := outputTotal + feeSingle
	idealMax := idealMin + p.cfg.DustThreshold
	for _, utxo := range candidates {
		if utxo.Value >= idealMin && utxo.Value <= idealMax {
			p.log(
				"selected single utxo %s covering outputs plus fee without change",
				utxo.Key(),
			)
			b.selectInputs(domain.Utxos{utxo})
			b.fee = utxo.Value - outputTotal
			return nil
		}
	}

	sorted := candidates.SortForSelection()
	selected := make(domain.Utxos, 0, len(sorted))
	var selectedTotal, fee int64
	targetChangeCount := 1
	for _, utxo := range sorted {
		selected = append(selected, utxo)
		selectedTotal += utxo.Value
		targetChangeCount = p.cfg.PoolSize() - (len(candidates) - len(selected))
		if targetChangeCount < 1 {
			targetChangeCount = 1
		}
		fee = fees.estimate(len(selected), targetChangeCount, extAddrs)
		if selectedTotal >= outputTotal+fee {
			break
		}
	}

	b.selectInputs(selected)
	if outputTotal+fee > selectedTotal {
		return p.settleShortfall(b, fee, selectedTotal, outputTotal)
	}

	totalChange := selectedTotal - outputTotal - fee
	if totalChange < 0 {
		return domain.ErrInvariantViolation
	}
	return p.allocateChange(
		b, fees, fee, totalChange, targetChangeCount, changeAddress,
	)
}

// settleShortfall handles the case where the selected inputs do not cover
// outputs plus fee: when the caller asked to send exactly the whole input
// total, the fee is deducted evenly from the external outputs; otherwise the
// shortfall surfaces as an insufficient funds failure.
func (p *planner) settleShortfall(
	b *planBuilder, fee, inputTotal, outputTotal int64,
) error {
	if outputTotal != inputTotal {
		return &domain.InsufficientFundsError{
			Required:  outputTotal + fee,
			Available: inputTotal,
		}
	}

	extCount := int64(len(b.external))
	feeShare := (fee + extCount - 1) / extCount
	fee = feeShare * extCount
	for i := range b.external {
		b.external[i].Value -= feeShare
		if b.external[i].Value <= p.cfg.DustThreshold {
			return fmt.Errorf(
				"%w: output to %s reduced to %d",
				domain.ErrDustOutput, b.external[i].Address, b.external[i].Value,
			)
		}
	}
	b.fee = fee
	b.sweep = true
	return nil
}

// allocateChange distributes the residual value across a weighted change
// schedule, drops dust shares, then reconciles the loose remainder between
// the surviving change outputs and the fee.
func (p *planner) allocateChange(
	b *planBuilder, fees *feeCalc, fee, totalChange int64,
	targetChangeCount int, changeAddress string,
) error {
	minKeep := p.cfg.DustThreshold
	if p.minChangeBase > minKeep {
		minKeep = p.minChangeBase
	}

	shares := splitChange(totalChange, targetChangeCount)
	accepted := make([]int64, 0, len(shares))
	var allocated int64
	for _, share := range shares {
		if share <= minKeep {
			p.log("dropping dust change output of %d base units", share)
			continue
		}
		accepted = append(accepted, share)
		allocated += share
	}
	loose := totalChange - allocated

	// The dropped shares may have shrunk the tx: recompute the fee for the
	// actual change-output count and move any savings to the loose pool.
	shapeCount := len(accepted)
	if shapeCount == 0 {
		shapeCount = 1
	}
	if newFee := fees.estimate(len(b.inputs), shapeCount, b.externalAddresses()); newFee < fee {
		loose += fee - newFee
		fee = newFee
	}

	switch {
	case len(accepted) >= 1 && loose >= int64(len(accepted)):
		per := loose / int64(len(accepted))
		for i := range accepted {
			accepted[i] += per
		}
		loose -= per * int64(len(accepted))
	case len(accepted) == 0 && loose > p.cfg.DustThreshold && loose >= p.minChangeBase:
		accepted = append(accepted, loose)
		loose = 0
	}
	// any final residue is absorbed into the fee
	fee += loose

	b.fee = fee
	for _, value := range accepted {
		b.addChange(changeAddress, value)
	}
	return nil
}
