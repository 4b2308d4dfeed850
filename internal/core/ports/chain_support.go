package ports

import (
	"github.com/armagg/coin-payments/internal/core/domain"
)

// ChainSupport is the capability record a coin plugs into the engine. Entries
// are plain functions so that coin-specific behavior is injected without any
// type hierarchy; only ValidateAddress is mandatory. Without DeriveAddress,
// index payports fail to resolve; without SerializePlan, plans carry no
// serialized form.
type ChainSupport struct {
	// ValidateAddress returns domain.ErrInvalidAddress (possibly wrapped)
	// when the given address is not valid for the chain.
	ValidateAddress func(address string) error
	// DeriveAddress derives the address for the given account index.
	DeriveAddress func(index uint32) (string, error)
	// EstimateSize estimates the virtual size of a transaction shape. The
	// engine does not read this field: the target-pool planner receives its
	// estimator as a constructor argument and uses the legacy p2pkh
	// estimation when given nil.
	EstimateSize func(inputCount, changeOutputCount int, externalAddresses []string) int64
	// SerializePlan produces the raw hex of an unsigned transaction plan and
	// the hash identifying it.
	SerializePlan func(tx *domain.PaymentTx) (txHex, txHash string, err error)
	// SignPlan turns the serialized plan into signed raw bytes. Left nil when
	// signing is delegated to an external signer.
	SignPlan func(tx *domain.PaymentTx) (signedHex string, err error)
}

// FeeOracle resolves a named fee level into a concrete rate for the coin.
type FeeOracle interface {
	GetFeeRate(level domain.FeeLevel) (domain.FeeRate, error)
}
