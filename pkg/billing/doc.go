// Package billing implements the subscription billing core: the plan catalog,
// the subscription ledger, the order book, and the expiry sweep.
//
// # Overview
//
// A team subscribes to a priced plan. Paying the first order activates the
// subscription and opens a one-month activation window. Upgrading never
// mutates the existing subscription; it opens a successor subscription on the
// new plan with an unpaid order priced net of the prorated credit for the
// unused part of the current window. A periodic sweep expires elapsed windows
// and emits unpaid renewal orders at the plan's current price.
//
// # Usage Example
//
// Record a paid order (activates the subscription and opens its window):
//
//	svc := billing.NewService(db, logger, billing.SystemClock(), metrics)
//	order, err := svc.RecordOrder(ctx, subID, userID, billing.OrderStatusPaid)
//
// Run one expiry sweep pass:
//
//	sweeper := billing.NewSweeper(db, logger, billing.SystemClock(), metrics)
//	summary, err := sweeper.RunSweepOnce(ctx)
//	fmt.Printf("expired %d, renewed %d\n", summary.Expired, summary.Renewed)
//
// # Concurrency
//
// Every multi-row mutation runs in a single transaction and locks the
// subscription row first (SELECT ... FOR UPDATE), so concurrent payments,
// upgrades and sweep passes over the same subscription serialize. The sweep
// re-checks status under the lock, which makes back-to-back sweep runs
// idempotent.
//
// # Related Packages
//
//   - pkg/httputil: JSON request/response helpers used by the handlers
//   - pkg/observability: logger and metrics the engine and sweeper report to
package billing
