package ledger_scanner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/armagg/coin-payments/internal/core/ports"
)

type request struct {
	Id      uint64                 `json:"id"`
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

type response struct {
	Id     uint64          `json:"id,omitempty"`
	Type   string          `json:"type,omitempty"`
	Status string          `json:"status,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (r response) error() error {
	if r.Error == "" {
		return nil
	}
	return fmt.Errorf(r.Error)
}

type serverInfoResult struct {
	CompleteLedgers string `json:"complete_ledgers"`
	ValidatedLedger int64  `json:"validated_ledger"`
}

// parseLedgerRange parses the "min-max" form of complete_ledgers.
func parseLedgerRange(s string) (ports.LedgerRange, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return ports.LedgerRange{}, fmt.Errorf("unexpected ledger range %q", s)
	}
	min, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ports.LedgerRange{}, fmt.Errorf("unexpected ledger range %q", s)
	}
	max, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ports.LedgerRange{}, fmt.Errorf("unexpected ledger range %q", s)
	}
	return ports.LedgerRange{Min: min, Max: max}, nil
}

type endpointJSON struct {
	Address string `json:"address"`
	Tag     string `json:"tag,omitempty"`
}

type balanceChangeJSON struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type paymentJSON struct {
	ID             string                         `json:"id"`
	Type           string                         `json:"type"`
	LedgerVersion  int64                          `json:"ledger_version"`
	IndexInLedger  int                            `json:"index_in_ledger"`
	Successful     bool                           `json:"successful"`
	Source         endpointJSON                   `json:"source"`
	Destination    endpointJSON                   `json:"destination"`
	BalanceChanges map[string][]balanceChangeJSON `json:"balance_changes"`
	Timestamp      int64                          `json:"timestamp,omitempty"`
}

func (p paymentJSON) toPayment() ports.LedgerPayment {
	changes := make(map[string][]ports.LedgerBalanceChange, len(p.BalanceChanges))
	for address, list := range p.BalanceChanges {
		converted := make([]ports.LedgerBalanceChange, 0, len(list))
		for _, change := range list {
			converted = append(converted, ports.LedgerBalanceChange{
				Currency: change.Currency, Value: change.Value,
			})
		}
		changes[address] = converted
	}
	var timestamp time.Time
	if p.Timestamp > 0 {
		timestamp = time.Unix(p.Timestamp, 0).UTC()
	}
	return ports.LedgerPayment{
		ID:            p.ID,
		Type:          p.Type,
		LedgerVersion: p.LedgerVersion,
		IndexInLedger: p.IndexInLedger,
		Successful:    p.Successful,
		Source: ports.LedgerEndpoint{
			Address: p.Source.Address, Tag: p.Source.Tag,
		},
		Destination: ports.LedgerEndpoint{
			Address: p.Destination.Address, Tag: p.Destination.Tag,
		},
		BalanceChanges: changes,
		Timestamp:      timestamp,
	}
}

type accountTxResult struct {
	Transactions []paymentJSON `json:"transactions"`
}

type ledgerResult struct {
	LedgerVersion int64  `json:"ledger_version"`
	LedgerHash    string `json:"ledger_hash"`
	CloseTime     int64  `json:"close_time"`
}

type accountInfoResult struct {
	Sequence uint32 `json:"sequence"`
	Balance  string `json:"balance"`
}

type submitResult struct {
	TxID string `json:"tx_id"`
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
