package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAddress = fmt.Errorf("address failed chain validation")
	ErrInvalidAmount  = fmt.Errorf(
		"amount must be positive and not finer than one base unit",
	)
	ErrDustOutput = fmt.Errorf(
		"output amount is at or below the dust threshold",
	)
	ErrInvariantViolation = fmt.Errorf(
		"transaction plan violates the balance invariant",
	)
	ErrTransportDisconnected = fmt.Errorf("transport disconnected")
	ErrServerError           = fmt.Errorf("server error")
	ErrActivityIndeterminate = fmt.Errorf(
		"balance activity cannot be classified",
	)
)

// InsufficientFundsError is returned when the selected utxo set cannot cover
// the desired outputs plus fee. Amounts are in base units.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: required %d, available %d base units",
		e.Required, e.Available,
	)
}

// IsTransportDisconnected reports whether the given error, anywhere in its
// chain, denotes a dropped connection to the node facade.
func IsTransportDisconnected(err error) bool {
	return errors.Is(err, ErrTransportDisconnected)
}
