package ports

import (
	"context"
	"time"
)

// LedgerEndpoint is one side of a ledger payment.
type LedgerEndpoint struct {
	Address string
	Tag     string
}

// LedgerBalanceChange is a single entry of the balance changes an address
// experienced in a transaction. Value is a signed main-denomination decimal
// string.
type LedgerBalanceChange struct {
	Currency string
	Value    string
}

// LedgerPayment is the facade's view of a payment transaction on an
// account-based ledger.
type LedgerPayment struct {
	ID             string
	Type           string
	LedgerVersion  int64
	IndexInLedger  int
	Successful     bool
	Source         LedgerEndpoint
	Destination    LedgerEndpoint
	BalanceChanges map[string][]LedgerBalanceChange
	Timestamp      time.Time
}

// LedgerRange is the interval of ledger versions retained by the server.
type LedgerRange struct {
	Min int64
	Max int64
}

// ServerInfo describes the state of the connected ledger server.
type ServerInfo struct {
	CompleteLedgers LedgerRange
	NetworkLedger   int64
}

// LedgerInfo describes a single closed ledger.
type LedgerInfo struct {
	LedgerVersion int64
	LedgerHash    string
	CloseTime     time.Time
}

// AccountInfo is the state of a ledger account: next sequence number and
// balance in base units.
type AccountInfo struct {
	Sequence uint32
	Balance  int64
}

// GetTransactionsOpts drives the pagination of historical payments.
type GetTransactionsOpts struct {
	MinLedgerVersion int64
	MaxLedgerVersion int64
	Limit            int
	EarliestFirst    bool
	ExcludeFailures  bool
	// Start, when set, is the id of the transaction to resume from.
	Start string
}

// LedgerNode is the abstraction for any kind of service representing an
// account-based ledger server. Implementations raise
// domain.ErrTransportDisconnected (wrapped) on dropped connections so that
// idempotent reads can be retried after reconnect.
type LedgerNode interface {
	IsConnected() bool
	Connect(ctx context.Context) error
	Disconnect() error

	// Request performs a raw call against the server.
	Request(ctx context.Context, method string, params, result interface{}) error
	// GetServerInfo returns the server state, including its retained ledger
	// range.
	GetServerInfo(ctx context.Context) (*ServerInfo, error)
	// GetTransactions pages through historical payments of an address.
	GetTransactions(ctx context.Context, address string, opts GetTransactionsOpts) ([]LedgerPayment, error)
	// GetLedger returns hash and close time of the ledger at the given version.
	GetLedger(ctx context.Context, version int64) (*LedgerInfo, error)
	// GetAccountInfo returns sequence and balance of the given address.
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)
	// Submit broadcasts a signed transaction blob and returns its id. Servers
	// reporting the tx as already applied do so with the "-27" sentinel
	// convention of the engine.
	Submit(ctx context.Context, txBlob string) (string, error)

	// Subscribe instructs the server to push payment notifications for the
	// given addresses.
	Subscribe(ctx context.Context, addresses []string) error
	// Notifications returns the channel where pushed payments are delivered.
	Notifications() <-chan LedgerPayment
}
