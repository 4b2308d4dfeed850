package ports

import (
	"context"

	"github.com/armagg/coin-payments/internal/core/domain"
)

// AddressDetails is the balance view of an address as reported by the node
// facade. Balances are base-unit integer strings.
type AddressDetails struct {
	Balance            string
	UnconfirmedBalance string
}

// TxDetails is the facade's view of a wallet-related transaction.
type TxDetails struct {
	TxID          string
	Height        int64
	Confirmations int64
	BlockHash     string
	BlockTime     int64
	Fee           string
	Hex           string
}

// UtxoNode is the abstraction for any kind of service giving access to a
// utxo-based blockchain: a node, a block explorer, or anything able to report
// balances and utxos for an address and to broadcast raw transactions.
type UtxoNode interface {
	// GetAddressDetails returns confirmed and unconfirmed balances of the
	// given address in base units.
	GetAddressDetails(ctx context.Context, address string) (*AddressDetails, error)
	// GetUtxosForAddress returns the spendable outputs of the given address.
	GetUtxosForAddress(ctx context.Context, address string) (domain.Utxos, error)
	// GetTx returns info about the transaction identified by its txid.
	GetTx(ctx context.Context, txid string) (*TxDetails, error)
	// SendTx broadcasts the given raw tx in hex format and returns its txid.
	// A node rejecting the tx as already known reports an error message
	// starting with the "-27" sentinel.
	SendTx(ctx context.Context, txHex string) (string, error)
}
