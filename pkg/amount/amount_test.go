package amount_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armagg/coin-payments/pkg/amount"
)

func TestFromMain(t *testing.T) {
	conv := amount.NewConverter(8)

	base, err := conv.FromMain("1.23456789")
	require.NoError(t, err)
	require.Equal(t, int64(123456789), base)

	base, err = conv.FromMain("0")
	require.NoError(t, err)
	require.Zero(t, base)

	base, err = conv.FromMain("0.00000001")
	require.NoError(t, err)
	require.Equal(t, int64(1), base)
}

func TestFromMainTooFine(t *testing.T) {
	conv := amount.NewConverter(8)

	_, err := conv.FromMain("0.000000001")
	require.ErrorIs(t, err, amount.ErrPrecisionTooFine)

	_, err = conv.FromMain("1.123456789")
	require.ErrorIs(t, err, amount.ErrPrecisionTooFine)
}

func TestFromMainNegative(t *testing.T) {
	conv := amount.NewConverter(8)

	_, err := conv.FromMain("-0.5")
	require.ErrorIs(t, err, amount.ErrNegativeAmount)
}

func TestFromMainInvalid(t *testing.T) {
	conv := amount.NewConverter(8)

	_, err := conv.FromMain("not a number")
	require.Error(t, err)
}

func TestToMain(t *testing.T) {
	conv := amount.NewConverter(8)

	require.Equal(t, "1.23456789", conv.ToMain(123456789))
	require.Equal(t, "0.00000546", conv.ToMain(546))
	require.Equal(t, "0", conv.ToMain(0))
}

func TestToMainSigned(t *testing.T) {
	conv := amount.NewConverter(6)

	require.Equal(t, "-1.5", conv.ToMainSigned(1500000, true))
	require.Equal(t, "1.5", conv.ToMainSigned(1500000, false))
	require.Equal(t, "0", conv.ToMainSigned(0, true))
}

func TestRoundTrip(t *testing.T) {
	conv := amount.NewConverter(8)

	for _, value := range []string{"0.00000001", "21000000", "0.1", "1.00000001"} {
		base, err := conv.FromMain(value)
		require.NoError(t, err)
		require.Equal(t, value, conv.ToMain(base))
	}
}
