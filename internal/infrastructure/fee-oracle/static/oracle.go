package static_oracle

import (
	"fmt"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

type oracle struct {
	rates map[domain.FeeLevel]domain.FeeRate
}

// NewStaticFeeOracle returns a fee oracle answering each named level with a
// fixed rate. Useful for chains with flat fees and for tests; dynamic coins
// plug an estimator-backed oracle instead.
func NewStaticFeeOracle(slow, normal, fast domain.FeeRate) ports.FeeOracle {
	return &oracle{rates: map[domain.FeeLevel]domain.FeeRate{
		domain.FeeLevelSlow:   slow,
		domain.FeeLevelNormal: normal,
		domain.FeeLevelFast:   fast,
	}}
}

func (o *oracle) GetFeeRate(level domain.FeeLevel) (domain.FeeRate, error) {
	rate, ok := o.rates[level]
	if !ok {
		return domain.FeeRate{}, fmt.Errorf("no fee rate for level %s", level)
	}
	return rate, nil
}
