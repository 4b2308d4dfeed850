package domain

import (
	"fmt"
	"time"
)

type ActivityDirection string

const (
	ActivityOut ActivityDirection = "out"
	ActivityIn  ActivityDirection = "in"
)

// BalanceActivity is a single movement of the native asset observed for an
// address. Amount is a signed main-denomination decimal string, negative for
// outbound movements.
type BalanceActivity struct {
	Direction          ActivityDirection
	NetworkType        string
	AssetSymbol        string
	Address            string
	ExtraID            string
	Amount             string
	ExternalID         string
	ActivitySequence   string
	ConfirmationID     string
	ConfirmationNumber int64
	Timestamp          time.Time
}

// NewActivitySequence builds the lexicographically sortable sequence string
// giving a total order on the activities of an address. Outbound movements
// sort before inbound ones at the same (ledger, index).
func NewActivitySequence(
	ledgerVersion int64, indexInLedger int, direction ActivityDirection,
) string {
	tertiary := "00"
	if direction == ActivityIn {
		tertiary = "01"
	}
	return fmt.Sprintf("%012d.%08d.%s", ledgerVersion, indexInLedger, tertiary)
}

// ActivityWindow is a closed range of ledger heights. A zero bound means
// "unbounded" on that side and is clamped against the server's retained
// history.
type ActivityWindow struct {
	From int64
	To   int64
}

func (w ActivityWindow) String() string {
	return fmt.Sprintf("[%d, %d]", w.From, w.To)
}
