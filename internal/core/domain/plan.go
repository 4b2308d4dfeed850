package domain

// TxInput is an input of a planned transaction. Inputs appear in the plan in
// selection order.
type TxInput struct {
	UtxoKey
	Value        int64
	Address      string
	ScriptPubKey string
}

// TxOutput is an output of a planned transaction, external or change.
type TxOutput struct {
	Address string
	ExtraID string
	Value   int64
}

type TxOutputs []TxOutput

func (o TxOutputs) Total() int64 {
	var total int64
	for _, out := range o {
		total += out.Value
	}
	return total
}

func (o TxOutputs) Addresses() []string {
	addresses := make([]string, 0, len(o))
	for _, out := range o {
		addresses = append(addresses, out.Address)
	}
	return addresses
}

// PaymentTx is an immutable transaction plan: the exact input set, external
// and change outputs, and the fee, all in base units, plus the serialized
// form produced by the chain capabilities. The planner fills everything but
// Hex and HexHash, which the payment service sets from the chain serializer
// before handing the plan to the caller; after that it is never mutated.
//
// Invariant: sum(Inputs) = sum(ExternalOutputs) + sum(ChangeOutputs) + Fee.
type PaymentTx struct {
	Inputs          []TxInput
	ExternalOutputs TxOutputs
	ChangeOutputs   TxOutputs
	Fee             int64
	TotalChange     int64
	FeeMain         string
	TotalChangeMain string
	Hex             string
	HexHash         string
	Sweep           bool
}

func (t *PaymentTx) InputTotal() int64 {
	var total int64
	for _, in := range t.Inputs {
		total += in.Value
	}
	return total
}

// CheckBalance verifies the balance invariant and that no emitted output is
// at or below the given dust threshold. A failure here is a planner bug.
func (t *PaymentTx) CheckBalance(dustThreshold int64) error {
	outTotal := t.ExternalOutputs.Total() + t.ChangeOutputs.Total()
	if t.Fee < 0 || t.TotalChange < 0 {
		return ErrInvariantViolation
	}
	if t.InputTotal() != outTotal+t.Fee {
		return ErrInvariantViolation
	}
	for _, out := range t.ExternalOutputs {
		if out.Value <= dustThreshold {
			return ErrInvariantViolation
		}
	}
	for _, out := range t.ChangeOutputs {
		if out.Value <= dustThreshold {
			return ErrInvariantViolation
		}
	}
	return nil
}

// FeeAmount returns the fee as a main-denomination decimal string.
func (t *PaymentTx) FeeAmount() string {
	return t.FeeMain
}

func (t *PaymentTx) IsSweep() bool {
	return t.Sweep
}

// LedgerTx is the plan for an account-based ledger payment. Amounts are in
// base units of the ledger's native asset.
type LedgerTx struct {
	From             string
	To               string
	ExtraID          string
	Amount           int64
	AmountMain       string
	Fee              int64
	FeeMain          string
	Sequence         uint32
	MaxLedgerVersion int64
	Sweep            bool
}

// FeeAmount returns the fee as a main-denomination decimal string.
func (t *LedgerTx) FeeAmount() string {
	return t.FeeMain
}

func (t *LedgerTx) IsSweep() bool {
	return t.Sweep
}
