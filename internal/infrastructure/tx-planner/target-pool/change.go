package targetpool_planner

import "math/big"

// splitChange distributes totalChange across count shares weighted
// 2^0, 2^1, …, 2^(count-1), flooring each share. The sum of the returned
// shares never exceeds totalChange; the caller reconciles the remainder.
func splitChange(totalChange int64, count int) []int64 {
	if count < 1 {
		count = 1
	}
	// sum of weights is 2^count - 1
	sumWeights := new(big.Int).Sub(
		new(big.Int).Lsh(big.NewInt(1), uint(count)), big.NewInt(1),
	)
	total := big.NewInt(totalChange)

	shares := make([]int64, 0, count)
	weight := big.NewInt(1)
	for i := 0; i < count; i++ {
		share := new(big.Int).Mul(total, weight)
		share.Quo(share, sumWeights)
		shares = append(shares, share.Int64())
		weight = new(big.Int).Lsh(weight, 1)
	}
	return shares
}
