package targetpool_planner

// DefaultEstimateSize makes a legacy p2pkh estimation of the virtual size of
// a transaction with the given shape. Coins with segwit or multisig inputs
// plug their own estimator through the chain capability record.
func DefaultEstimateSize(
	inputCount, changeOutputCount int, externalAddresses []string,
) int64 {
	outputCount := changeOutputCount + len(externalAddresses)
	return 10 + 148*int64(inputCount) + 34*int64(outputCount)
}
