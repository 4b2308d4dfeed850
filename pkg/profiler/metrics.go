package profiler

import "github.com/prometheus/client_golang/prometheus"

var (
	plansBuilt = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coin_payments_plans_built_total",
		Help: "Number of transaction plans built.",
	})
	broadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coin_payments_broadcasts_total",
		Help: "Number of transactions broadcast, mempool duplicates excluded.",
	})
	activitiesEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coin_payments_balance_activities_total",
		Help: "Number of balance activities emitted by scans and subscriptions.",
	})
	reconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coin_payments_ledger_reconnects_total",
		Help: "Number of connections established to the ledger server, the first one included.",
	})
)

func init() {
	prometheus.MustRegister(plansBuilt, broadcasts, activitiesEmitted, reconnects)
}

func CountPlanBuilt() { plansBuilt.Inc() }

func CountBroadcast() { broadcasts.Inc() }

func CountActivityEmitted() { activitiesEmitted.Inc() }

func CountLedgerReconnect() { reconnects.Inc() }
