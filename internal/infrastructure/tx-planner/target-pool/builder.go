package targetpool_planner

import (
	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/pkg/amount"
)

// planBuilder accumulates the parts of a plan while the selection runs and is
// consumed exactly once by build, which seals them into an immutable
// domain.PaymentTx. No partial plan ever escapes the planner.
type planBuilder struct {
	conv          amount.Converter
	dustThreshold int64

	inputs   []domain.TxInput
	external domain.TxOutputs
	change   domain.TxOutputs
	fee      int64
	sweep    bool
	consumed bool
}

func newPlanBuilder(
	conv amount.Converter, dustThreshold int64, outputs domain.TxOutputs,
) *planBuilder {
	external := make(domain.TxOutputs, len(outputs))
	copy(external, outputs)
	return &planBuilder{
		conv:          conv,
		dustThreshold: dustThreshold,
		external:      external,
	}
}

func (b *planBuilder) selectInputs(utxos domain.Utxos) {
	b.inputs = make([]domain.TxInput, 0, len(utxos))
	for _, utxo := range utxos {
		b.inputs = append(b.inputs, domain.TxInput{
			UtxoKey:      utxo.UtxoKey,
			Value:        utxo.Value,
			Address:      utxo.Address,
			ScriptPubKey: utxo.ScriptPubKey,
		})
	}
}

func (b *planBuilder) addChange(address string, value int64) {
	b.change = append(b.change, domain.TxOutput{Address: address, Value: value})
}

func (b *planBuilder) externalTotal() int64 {
	return b.external.Total()
}

func (b *planBuilder) externalAddresses() []string {
	return b.external.Addresses()
}

func (b *planBuilder) build() (*domain.PaymentTx, error) {
	if b.consumed {
		return nil, domain.ErrInvariantViolation
	}
	b.consumed = true

	totalChange := b.change.Total()
	tx := &domain.PaymentTx{
		Inputs:          b.inputs,
		ExternalOutputs: b.external,
		ChangeOutputs:   b.change,
		Fee:             b.fee,
		TotalChange:     totalChange,
		FeeMain:         b.conv.ToMain(b.fee),
		TotalChangeMain: b.conv.ToMain(totalChange),
		Sweep:           b.sweep,
	}
	if err := tx.CheckBalance(b.dustThreshold); err != nil {
		return nil, err
	}
	return tx, nil
}
