package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armagg/coin-payments/internal/core/domain"
)

func TestSortForSelection(t *testing.T) {
	utxos := domain.Utxos{
		{UtxoKey: domain.UtxoKey{TxID: "bb", VOut: 0}, Value: 100},
		{UtxoKey: domain.UtxoKey{TxID: "aa", VOut: 1}, Value: 500, Height: 10},
		{UtxoKey: domain.UtxoKey{TxID: "cc", VOut: 0}, Value: 500, Height: 12},
		{UtxoKey: domain.UtxoKey{TxID: "aa", VOut: 0}, Value: 500, Height: 10},
		{UtxoKey: domain.UtxoKey{TxID: "dd", VOut: 2}, Value: 900},
	}

	sorted := utxos.SortForSelection()

	// confirmed first, descending value, (txid, vout) tie-break
	require.Equal(t, domain.UtxoKey{TxID: "aa", VOut: 0}, sorted[0].UtxoKey)
	require.Equal(t, domain.UtxoKey{TxID: "aa", VOut: 1}, sorted[1].UtxoKey)
	require.Equal(t, domain.UtxoKey{TxID: "cc", VOut: 0}, sorted[2].UtxoKey)
	require.Equal(t, domain.UtxoKey{TxID: "dd", VOut: 2}, sorted[3].UtxoKey)
	require.Equal(t, domain.UtxoKey{TxID: "bb", VOut: 0}, sorted[4].UtxoKey)

	// input list untouched
	require.Equal(t, domain.UtxoKey{TxID: "bb", VOut: 0}, utxos[0].UtxoKey)
}

func TestUtxosTotalAndConfirmed(t *testing.T) {
	utxos := domain.Utxos{
		{UtxoKey: domain.UtxoKey{TxID: "aa", VOut: 0}, Value: 100, Height: 5},
		{UtxoKey: domain.UtxoKey{TxID: "bb", VOut: 0}, Value: 200},
	}
	require.Equal(t, int64(300), utxos.Total())

	confirmed := utxos.Confirmed()
	require.Len(t, confirmed, 1)
	require.Equal(t, "aa", confirmed[0].TxID)
}

func TestPaymentTxCheckBalance(t *testing.T) {
	tx := &domain.PaymentTx{
		Inputs: []domain.TxInput{
			{UtxoKey: domain.UtxoKey{TxID: "aa", VOut: 0}, Value: 10000},
		},
		ExternalOutputs: domain.TxOutputs{{Address: "addr", Value: 8000}},
		Fee:             2000,
	}
	require.NoError(t, tx.CheckBalance(546))

	tx.Fee = 1999
	require.ErrorIs(t, tx.CheckBalance(546), domain.ErrInvariantViolation)
}
