package domain

import (
	"fmt"
	"sort"
)

// UtxoKey represents the key of an Utxo, composed by its txid and vout.
type UtxoKey struct {
	TxID string
	VOut uint32
}

func (k UtxoKey) String() string {
	return fmt.Sprintf("{%s: %d}", k.TxID, k.VOut)
}

// UtxoInfo is the data structure representing a spendable output as reported
// by the node facade. Value is carried both in base units and as a
// main-denomination string for convenience at contract boundaries.
type UtxoInfo struct {
	UtxoKey
	Value        int64
	ValueMain    string
	Height       int64
	LockTime     int64
	ScriptPubKey string
	Address      string
}

// IsConfirmed returns whether the utxo is included in a block.
func (u UtxoInfo) IsConfirmed() bool {
	return u.Height > 0
}

// Key returns the UtxoKey of the current utxo.
func (u UtxoInfo) Key() UtxoKey {
	return u.UtxoKey
}

// Utxos is a list of utxos with some accounting helpers on top.
type Utxos []UtxoInfo

func (u Utxos) Total() int64 {
	var total int64
	for _, utxo := range u {
		total += utxo.Value
	}
	return total
}

func (u Utxos) Keys() []UtxoKey {
	keys := make([]UtxoKey, 0, len(u))
	for _, utxo := range u {
		keys = append(keys, utxo.Key())
	}
	return keys
}

// Confirmed returns the subset of confirmed utxos, preserving order.
func (u Utxos) Confirmed() Utxos {
	confirmed := make(Utxos, 0, len(u))
	for _, utxo := range u {
		if utxo.IsConfirmed() {
			confirmed = append(confirmed, utxo)
		}
	}
	return confirmed
}

// SortForSelection returns a copy of the list in canonical selection order:
// confirmed before unconfirmed, larger values first, ties broken by
// (txid, vout) ascending so that selection is deterministic.
func (u Utxos) SortForSelection() Utxos {
	sorted := make(Utxos, len(u))
	copy(sorted, u)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsConfirmed() != b.IsConfirmed() {
			return a.IsConfirmed()
		}
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.TxID != b.TxID {
			return a.TxID < b.TxID
		}
		return a.VOut < b.VOut
	})
	return sorted
}
