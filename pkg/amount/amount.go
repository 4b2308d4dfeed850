package amount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount   = fmt.Errorf("amount must not be negative")
	ErrPrecisionTooFine = fmt.Errorf("amount has a fractional part finer than one base unit")
)

// Converter translates monetary values between the main (human) denomination
// and the base (smallest unit) denomination of an asset. All engine-internal
// math happens in integer base units; conversion occurs only at contract
// boundaries.
type Converter struct {
	decimals int32
	factor   decimal.Decimal
}

func NewConverter(decimals int) Converter {
	return Converter{
		decimals: int32(decimals),
		factor:   decimal.New(1, int32(decimals)),
	}
}

func (c Converter) Decimals() int {
	return int(c.decimals)
}

// FromMain parses a main-denomination decimal string and returns the
// equivalent amount in base units. Values with a fractional part finer than
// one base unit are rejected rather than silently rounded.
func (c Converter) FromMain(value string) (int64, error) {
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal string %q: %s", value, err)
	}
	return c.FromMainDecimal(dec)
}

// FromMainDecimal converts an already-parsed decimal main value to base units.
func (c Converter) FromMainDecimal(value decimal.Decimal) (int64, error) {
	if value.IsNegative() {
		return 0, ErrNegativeAmount
	}
	base := value.Mul(c.factor)
	if !base.Equal(base.Floor()) {
		return 0, ErrPrecisionTooFine
	}
	return base.IntPart(), nil
}

// ToMain renders a base-unit amount as a main-denomination decimal string.
func (c Converter) ToMain(base int64) string {
	return decimal.New(base, -c.decimals).String()
}

// ToMainSigned renders a base-unit amount with an explicit sign, used for
// balance activity amounts where outbound movements are negative.
func (c Converter) ToMainSigned(base int64, negative bool) string {
	if negative && base != 0 {
		return decimal.New(-base, -c.decimals).String()
	}
	return decimal.New(base, -c.decimals).String()
}

// ToMainDecimal returns the main-denomination value as a decimal.
func (c Converter) ToMainDecimal(base int64) decimal.Decimal {
	return decimal.New(base, -c.decimals)
}
