package domain

import "fmt"

type PayportKind int

const (
	PayportByIndex PayportKind = iota
	PayportByAddress
	PayportByRecord
)

// Payport is a destination handle: an account index to be derived, a raw
// address, or an {address, extraId} record. The zero value is not a valid
// payport; use one of the constructors.
type Payport struct {
	kind    PayportKind
	index   uint32
	address string
	extraID string
}

func PayportFromIndex(index uint32) Payport {
	return Payport{kind: PayportByIndex, index: index}
}

func PayportFromAddress(address string) Payport {
	return Payport{kind: PayportByAddress, address: address}
}

func PayportFromRecord(address, extraID string) Payport {
	return Payport{kind: PayportByRecord, address: address, extraID: extraID}
}

func (p Payport) Kind() PayportKind {
	return p.kind
}

func (p Payport) Index() uint32 {
	return p.index
}

func (p Payport) Address() string {
	return p.address
}

func (p Payport) ExtraID() string {
	return p.extraID
}

func (p Payport) String() string {
	switch p.kind {
	case PayportByIndex:
		return fmt.Sprintf("index(%d)", p.index)
	case PayportByRecord:
		if p.extraID != "" {
			return fmt.Sprintf("%s?extraId=%s", p.address, p.extraID)
		}
		return p.address
	default:
		return p.address
	}
}

// ResolvedPayport is the outcome of payport resolution: a chain-validated
// address plus the optional extra id (destination tag / memo).
type ResolvedPayport struct {
	Address string
	ExtraID string
}
