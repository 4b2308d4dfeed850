package ports

import "github.com/armagg/coin-payments/internal/core/domain"

// TxPlanParams collects everything the planner needs to build a transaction
// plan. Utxos and Outputs are passed by value and never mutated.
type TxPlanParams struct {
	Utxos               domain.Utxos
	Outputs             domain.TxOutputs
	ChangeAddress       string
	FeeRate             domain.FeeRate
	UseAllUtxos         bool
	UseUnconfirmedUtxos bool
}

// TxPlanner is the abstraction for the coin-selection and transaction
// planning strategy. Implementations must be pure and deterministic: the same
// params always yield the same plan.
type TxPlanner interface {
	PlanTransaction(params TxPlanParams) (*domain.PaymentTx, error)
}
