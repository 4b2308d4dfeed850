package targetpool_planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

var testConfig = domain.Config{
	NetworkType:        "mainnet",
	AssetSymbol:        "BTC",
	Decimals:           8,
	NetworkMinRelayFee: 1000,
	DustThreshold:      546,
	TargetUtxoPoolSize: 1,
}

func newTestPlanner(t *testing.T, cfg domain.Config) ports.TxPlanner {
	planner, err := NewTargetPoolPlanner(cfg, nil)
	require.NoError(t, err)
	return planner
}

func utxo(txid string, vout uint32, value, height int64) domain.UtxoInfo {
	return domain.UtxoInfo{
		UtxoKey: domain.UtxoKey{TxID: txid, VOut: vout},
		Value:   value,
		Height:  height,
		Address: "change-addr",
	}
}

func ratePerVByte(rate string) domain.FeeRate {
	return domain.FeeRate{Rate: rate, Type: domain.FeeRateBasePerWeight}
}

func checkBalanceEquation(t *testing.T, tx *domain.PaymentTx) {
	t.Helper()
	var inputTotal int64
	for _, in := range tx.Inputs {
		inputTotal += in.Value
	}
	require.Equal(
		t, inputTotal,
		tx.ExternalOutputs.Total()+tx.ChangeOutputs.Total()+tx.Fee,
	)
	require.GreaterOrEqual(t, tx.Fee, int64(0))
	require.GreaterOrEqual(t, tx.TotalChange, int64(0))
	for _, out := range tx.ExternalOutputs {
		require.Greater(t, out.Value, testConfig.DustThreshold)
	}
	for _, out := range tx.ChangeOutputs {
		require.Greater(t, out.Value, testConfig.DustThreshold)
	}
}

func TestIdealSingleInput(t *testing.T) {
	planner := newTestPlanner(t, testConfig)

	// fee for 1 input and 1 output at 10 base/vbyte is 1920; the 10k utxo
	// falls inside [9920, 10466] and is picked alone with no change
	tx, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos: domain.Utxos{
			utxo("aa", 0, 10_000, 100),
			utxo("bb", 0, 50_000, 101),
		},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 8_000}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	})
	require.NoError(t, err)

	require.Len(t, tx.Inputs, 1)
	require.Equal(t, "aa", tx.Inputs[0].TxID)
	require.Empty(t, tx.ChangeOutputs)
	require.Equal(t, int64(2_000), tx.Fee)
	require.Equal(t, int64(8_000), tx.ExternalOutputs.Total())
	checkBalanceEquation(t, tx)
}

func TestSweepTwoUtxosToOneAddress(t *testing.T) {
	planner := newTestPlanner(t, testConfig)

	tx, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos: domain.Utxos{
			utxo("aa", 0, 30_000, 100),
			utxo("bb", 1, 20_000, 101),
		},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 50_000}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
		UseAllUtxos:   true,
	})
	require.NoError(t, err)

	// size 10 + 148*2 + 34 = 340, fee 3400, deducted from the single output
	require.Len(t, tx.Inputs, 2)
	require.Equal(t, int64(3_400), tx.Fee)
	require.Equal(t, int64(46_600), tx.ExternalOutputs.Total())
	require.Empty(t, tx.ChangeOutputs)
	require.True(t, tx.Sweep)
	checkBalanceEquation(t, tx)
}

func TestMultiChangePoolFill(t *testing.T) {
	cfg := testConfig
	cfg.TargetUtxoPoolSize = 4
	planner := newTestPlanner(t, cfg)

	tx, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos:         domain.Utxos{utxo("aa", 0, 1_000_000, 100)},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 100_000}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	})
	require.NoError(t, err)

	// targetChangeCount = max(1, 4 - (1 - 1)) = 4, weights 1,2,4,8
	require.Len(t, tx.ChangeOutputs, 4)
	for i := 1; i < len(tx.ChangeOutputs); i++ {
		require.Greater(t, tx.ChangeOutputs[i].Value, tx.ChangeOutputs[i-1].Value)
	}
	for _, out := range tx.ChangeOutputs {
		require.Equal(t, "change-addr", out.Address)
	}
	checkBalanceEquation(t, tx)
}

func TestDustChangeShareDropped(t *testing.T) {
	cfg := testConfig
	cfg.TargetUtxoPoolSize = 2
	planner := newTestPlanner(t, cfg)

	// total change is 1420: the weight-1 share (473) is dust and dropped,
	// its value flows through the loose pool into the surviving output after
	// the fee is recomputed for the smaller shape
	tx, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos: domain.Utxos{
			utxo("aa", 0, 60_000, 100),
			utxo("bb", 0, 50_000, 101),
		},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 104_500}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	})
	require.NoError(t, err)

	require.Len(t, tx.ChangeOutputs, 1)
	require.Equal(t, int64(1_760), tx.ChangeOutputs[0].Value)
	require.Equal(t, int64(3_740), tx.Fee)
	checkBalanceEquation(t, tx)
}

func TestAllChangeDustAbsorbedIntoFee(t *testing.T) {
	planner := newTestPlanner(t, testConfig)

	// total change is 460, below the dust threshold: no change output is
	// emitted and the residue raises the fee
	tx, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos: domain.Utxos{
			utxo("aa", 0, 60_000, 100),
			utxo("bb", 0, 50_000, 101),
		},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 105_800}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	})
	require.NoError(t, err)

	require.Empty(t, tx.ChangeOutputs)
	require.Equal(t, int64(4_200), tx.Fee)
	checkBalanceEquation(t, tx)
}

func TestInsufficientFunds(t *testing.T) {
	planner := newTestPlanner(t, testConfig)

	_, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos:         domain.Utxos{utxo("aa", 0, 5_000, 100)},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 10_000}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	})

	var insufficientErr *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)
	require.Equal(t, int64(12_260), insufficientErr.Required)
	require.Equal(t, int64(5_000), insufficientErr.Available)
}

func TestSweepToDustFails(t *testing.T) {
	planner := newTestPlanner(t, testConfig)

	// fee is 1920 at 10 base/vbyte; deducting it from the 2400 output leaves
	// 480, below the dust threshold
	_, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos:         domain.Utxos{utxo("aa", 0, 2_400, 100)},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 2_400}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
		UseAllUtxos:   true,
	})
	require.ErrorIs(t, err, domain.ErrDustOutput)
}

func TestUnconfirmedUtxosFiltered(t *testing.T) {
	planner := newTestPlanner(t, testConfig)

	params := ports.TxPlanParams{
		Utxos: domain.Utxos{
			utxo("aa", 0, 100_000, 0), // unconfirmed
			utxo("bb", 0, 40_000, 100),
		},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 30_000}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	}

	tx, err := planner.PlanTransaction(params)
	require.NoError(t, err)
	for _, in := range tx.Inputs {
		require.NotEqual(t, "aa", in.TxID)
	}

	// with only unconfirmed funds available, planning fails unless they are
	// explicitly admitted
	params.Utxos = domain.Utxos{utxo("aa", 0, 100_000, 0)}
	_, err = planner.PlanTransaction(params)
	var insufficientErr *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)

	params.UseUnconfirmedUtxos = true
	tx, err = planner.PlanTransaction(params)
	require.NoError(t, err)
	require.Equal(t, "aa", tx.Inputs[0].TxID)
}

func TestMinChangeDropsSmallChange(t *testing.T) {
	cfg := testConfig
	cfg.MinChange = "0.0001" // 10_000 base units
	planner := newTestPlanner(t, cfg)

	// change would be 6260, below minChange: dropped and absorbed into fee
	tx, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos: domain.Utxos{
			utxo("aa", 0, 60_000, 100),
			utxo("bb", 0, 50_000, 101),
		},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 100_000}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	})
	require.NoError(t, err)
	require.Empty(t, tx.ChangeOutputs)
	checkBalanceEquation(t, tx)
}

func TestEmptyOutputs(t *testing.T) {
	planner := newTestPlanner(t, testConfig)

	_, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos:         domain.Utxos{utxo("aa", 0, 10_000, 100)},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestFeeFloors(t *testing.T) {
	cfg := testConfig
	cfg.MinTxFee = &domain.FeeRate{Rate: "5000", Type: domain.FeeRateBase}
	planner := newTestPlanner(t, cfg)

	tx, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos:         domain.Utxos{utxo("aa", 0, 100_000, 100)},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 30_000}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("1"), // rate alone would be far below
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, tx.Fee, int64(5_000))
	checkBalanceEquation(t, tx)
}

func TestDeterminism(t *testing.T) {
	cfg := testConfig
	cfg.TargetUtxoPoolSize = 3
	planner := newTestPlanner(t, cfg)

	params := ports.TxPlanParams{
		Utxos: domain.Utxos{
			utxo("cc", 1, 70_000, 0),
			utxo("aa", 0, 70_000, 100),
			utxo("bb", 0, 30_000, 101),
			utxo("aa", 1, 70_000, 100),
		},
		Outputs:             domain.TxOutputs{{Address: "dest", Value: 120_000}},
		ChangeAddress:       "change-addr",
		FeeRate:             ratePerVByte("10"),
		UseUnconfirmedUtxos: true,
	}

	first, err := planner.PlanTransaction(params)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		next, err := planner.PlanTransaction(params)
		require.NoError(t, err)
		require.Equal(t, first, next)
	}
	checkBalanceEquation(t, first)
}

func TestInsufficientFundsIsNotDustError(t *testing.T) {
	planner := newTestPlanner(t, testConfig)

	_, err := planner.PlanTransaction(ports.TxPlanParams{
		Utxos:         domain.Utxos{},
		Outputs:       domain.TxOutputs{{Address: "dest", Value: 10_000}},
		ChangeAddress: "change-addr",
		FeeRate:       ratePerVByte("10"),
	})
	require.Error(t, err)
	require.False(t, errors.Is(err, domain.ErrDustOutput))
}
