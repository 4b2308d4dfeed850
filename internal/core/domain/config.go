package domain

import "fmt"

// Config holds the per-coin options of a payment engine instance. It is
// immutable after construction; Validate must be called before use.
type Config struct {
	// NetworkType names the network the instance operates on (eg. mainnet).
	NetworkType string
	// AssetSymbol is the ticker of the native asset (eg. BTC, XRP).
	AssetSymbol string
	// Decimals is the conversion factor exponent between main and base units.
	Decimals int
	// MinTxFee, when set, is a floor for any computed fee.
	MinTxFee *FeeRate
	// NetworkMinRelayFee is the absolute lower bound for fees, in base units.
	NetworkMinRelayFee int64
	// DustThreshold is the value, in base units, at or below which outputs
	// are never emitted.
	DustThreshold int64
	// TargetUtxoPoolSize is the number of utxos the engine tries to keep
	// available by splitting change.
	TargetUtxoPoolSize int
	// MinChange is a main-denomination value below which change outputs are
	// dropped.
	MinChange string
}

func (c Config) Validate() error {
	if c.Decimals < 0 {
		return fmt.Errorf("decimals must not be negative")
	}
	if c.NetworkMinRelayFee < 0 {
		return fmt.Errorf("networkMinRelayFee must not be negative")
	}
	if c.DustThreshold < 0 {
		return fmt.Errorf("dustThreshold must not be negative")
	}
	if c.TargetUtxoPoolSize < 1 {
		return fmt.Errorf("targetUtxoPoolSize must be at least 1")
	}
	return nil
}

// PoolSize returns the configured target utxo pool size, defaulting to 1.
func (c Config) PoolSize() int {
	if c.TargetUtxoPoolSize < 1 {
		return 1
	}
	return c.TargetUtxoPoolSize
}
