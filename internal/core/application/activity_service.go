package application

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
	"github.com/armagg/coin-payments/pkg/amount"
	"github.com/armagg/coin-payments/pkg/profiler"
)

// defaultActivityPageSize is how many payments are fetched per history page.
const defaultActivityPageSize = 10

// ActivitySink receives balance activities one at a time. It is awaited
// before the next emission; returning an error aborts the scan.
type ActivitySink func(activity domain.BalanceActivity) error

// BalanceActivityService reconstructs and streams the balance activity of
// addresses on an account-based ledger. Historical activity is rebuilt by
// paging through validated payments inside a bounded ledger window; live
// activity is bridged from the server's push notifications. Both paths emit
// the same uniform records through the same classifier, in strictly
// increasing activity-sequence order per scan.
type BalanceActivityService struct {
	cfg      domain.Config
	conv     amount.Converter
	node     ports.LedgerNode
	store    ports.ActivityRepository
	pageSize int

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewBalanceActivityService(
	cfg domain.Config, node ports.LedgerNode, store ports.ActivityRepository,
) (*BalanceActivityService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("balance monitor: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("balance monitor: %s", format)
		if err != nil {
			log.WithError(err).Warnf(format, a...)
			return
		}
		log.Warnf(format, a...)
	}
	return &BalanceActivityService{
		cfg, amount.NewConverter(cfg.Decimals), node, store,
		defaultActivityPageSize, logFn, warnFn,
	}, nil
}

// RetrieveBalanceActivities pages through the historical payments of address
// within the requested window, invoking sink for every activity in
// non-decreasing sequence order. The window is narrowed to the ledger range
// the server retains; narrowing is diagnosed, never fatal. The effective
// window actually scanned is returned.
func (s *BalanceActivityService) RetrieveBalanceActivities(
	ctx context.Context, address string, sink ActivitySink,
	window domain.ActivityWindow,
) (*domain.ActivityWindow, error) {
	info, err := s.node.GetServerInfo(ctx)
	if err != nil {
		return nil, err
	}
	effective := s.clampWindow(window, info.CompleteLedgers)

	ledgerHashes := map[int64]*ports.LedgerInfo{}
	var lastID string
	for {
		opts := ports.GetTransactionsOpts{
			MinLedgerVersion: effective.From,
			MaxLedgerVersion: effective.To,
			Limit:            s.pageSize,
			EarliestFirst:    true,
			ExcludeFailures:  true,
			Start:            lastID,
		}
		page, err := s.node.GetTransactions(ctx, address, opts)
		if err != nil {
			return nil, err
		}

		for _, payment := range page {
			if payment.ID == lastID {
				continue
			}
			if payment.LedgerVersion < effective.From ||
				payment.LedgerVersion > effective.To {
				s.log(
					"skipping tx %s in ledger %d outside window %s",
					payment.ID, payment.LedgerVersion, effective,
				)
				continue
			}
			activity, err := s.classify(ctx, address, payment, ledgerHashes)
			if err != nil {
				s.warn(err, "skipping tx %s", payment.ID)
				continue
			}
			s.record(ctx, activity)
			profiler.CountActivityEmitted()
			if err := sink(activity); err != nil {
				return nil, err
			}
		}

		if len(page) < s.pageSize {
			break
		}
		last := page[len(page)-1]
		lastID = last.ID
		if last.LedgerVersion > effective.To {
			break
		}
	}
	return &effective, nil
}

// WatchActivities subscribes to push notifications for the given addresses
// and returns a channel the caller drains. The channel is closed when the
// context is cancelled or the server stream ends. Subscription is
// best-effort: server rejection is logged and the bridge keeps listening.
func (s *BalanceActivityService) WatchActivities(
	ctx context.Context, addresses []string,
) (<-chan domain.BalanceActivity, error) {
	if err := s.node.Subscribe(ctx, addresses); err != nil {
		s.warn(err, "server rejected subscription for %d address(es)", len(addresses))
	}

	watched := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		watched[address] = struct{}{}
	}

	ch := make(chan domain.BalanceActivity)
	go func() {
		defer close(ch)
		ledgerHashes := map[int64]*ports.LedgerInfo{}
		for {
			select {
			case <-ctx.Done():
				return
			case payment, ok := <-s.node.Notifications():
				if !ok {
					return
				}
				for _, address := range paymentAddresses(payment, watched) {
					activity, err := s.classify(ctx, address, payment, ledgerHashes)
					if err != nil {
						s.warn(err, "skipping pushed tx %s", payment.ID)
						continue
					}
					s.record(ctx, activity)
					profiler.CountActivityEmitted()
					select {
					case ch <- activity:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return ch, nil
}

// classify builds the uniform activity record for one payment as seen from
// address. Payments that do not concern the address, or that moved no native
// asset, are indeterminate and skipped by the callers.
func (s *BalanceActivityService) classify(
	ctx context.Context, address string, payment ports.LedgerPayment,
	ledgerHashes map[int64]*ports.LedgerInfo,
) (domain.BalanceActivity, error) {
	var direction domain.ActivityDirection
	var extraID string
	switch {
	case payment.Source.Address == address:
		direction = domain.ActivityOut
		extraID = payment.Source.Tag
	case payment.Destination.Address == address:
		direction = domain.ActivityIn
		extraID = payment.Destination.Tag
	default:
		return domain.BalanceActivity{}, fmt.Errorf(
			"%w: tx %s concerns neither side of %s",
			domain.ErrActivityIndeterminate, payment.ID, address,
		)
	}

	var value string
	found := false
	for _, change := range payment.BalanceChanges[address] {
		if change.Currency == s.cfg.AssetSymbol {
			value = change.Value
			found = true
			break
		}
	}
	if !found {
		return domain.BalanceActivity{}, fmt.Errorf(
			"%w: tx %s moved no %s for %s",
			domain.ErrActivityIndeterminate, payment.ID, s.cfg.AssetSymbol, address,
		)
	}

	ledger, ok := ledgerHashes[payment.LedgerVersion]
	if !ok {
		var err error
		ledger, err = s.node.GetLedger(ctx, payment.LedgerVersion)
		if err != nil {
			return domain.BalanceActivity{}, err
		}
		ledgerHashes[payment.LedgerVersion] = ledger
	}

	timestamp := payment.Timestamp
	if timestamp.IsZero() {
		timestamp = ledger.CloseTime
	}
	return domain.BalanceActivity{
		Direction:   direction,
		NetworkType: s.cfg.NetworkType,
		AssetSymbol: s.cfg.AssetSymbol,
		Address:     address,
		ExtraID:     extraID,
		Amount:      value,
		ExternalID:  payment.ID,
		ActivitySequence: domain.NewActivitySequence(
			payment.LedgerVersion, payment.IndexInLedger, direction,
		),
		ConfirmationID:     ledger.LedgerHash,
		ConfirmationNumber: payment.LedgerVersion,
		Timestamp:          timestamp,
	}, nil
}

func (s *BalanceActivityService) clampWindow(
	requested domain.ActivityWindow, retained ports.LedgerRange,
) domain.ActivityWindow {
	effective := requested
	if effective.From < retained.Min {
		if effective.From > 0 {
			s.warn(nil,
				"narrowing requested from ledger %d to earliest retained %d",
				effective.From, retained.Min,
			)
		}
		effective.From = retained.Min
	}
	if effective.To == 0 || effective.To > retained.Max {
		if effective.To > retained.Max {
			s.warn(nil,
				"narrowing requested to ledger %d to latest retained %d",
				effective.To, retained.Max,
			)
		}
		effective.To = retained.Max
	}
	return effective
}

func (s *BalanceActivityService) record(
	ctx context.Context, activity domain.BalanceActivity,
) {
	if s.store == nil {
		return
	}
	fresh, err := s.store.AddActivity(ctx, activity)
	if err != nil {
		s.warn(err, "failed to record activity %s", activity.ActivitySequence)
		return
	}
	if !fresh {
		s.log("activity %s already recorded", activity.ActivitySequence)
	}
}

func paymentAddresses(
	payment ports.LedgerPayment, watched map[string]struct{},
) []string {
	addresses := make([]string, 0, 2)
	if _, ok := watched[payment.Source.Address]; ok {
		addresses = append(addresses, payment.Source.Address)
	}
	if _, ok := watched[payment.Destination.Address]; ok &&
		payment.Destination.Address != payment.Source.Address {
		addresses = append(addresses, payment.Destination.Address)
	}
	return addresses
}
