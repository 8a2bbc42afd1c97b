package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmedtariq19/subledger/pkg/observability"
)

// Sweeper expires elapsed activation windows and emits renewal orders. It is
// driven by an external scheduler calling RunSweepOnce; it never starts
// itself.
type Sweeper struct {
	db      *sql.DB
	logger  *observability.Logger
	clock   Clock
	metrics *observability.Metrics // may be nil

	mu sync.Mutex // serializes sweep runs
}

// NewSweeper creates a Sweeper. metrics may be nil.
func NewSweeper(db *sql.DB, logger *observability.Logger, clock Clock, metrics *observability.Metrics) *Sweeper {
	if clock == nil {
		clock = SystemClock()
	}
	return &Sweeper{
		db:      db,
		logger:  logger.WithField("component", "sweeper"),
		clock:   clock,
		metrics: metrics,
	}
}

// SweepSummary reports what one sweep pass did.
type SweepSummary struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Renewed int `json:"renewed"`
	Skipped int `json:"skipped"`
}

// RunSweepOnce scans every ACTIVE subscription, deactivates those whose paid
// period has elapsed, and inserts an UNPAID renewal order at the plan's
// current price billed to the user on the most recent order. Each
// subscription is handled in its own transaction; a failure or anomaly on one
// is logged and never blocks the rest. Overlapping calls serialize.
func (sw *Sweeper) RunSweepOnce(ctx context.Context) (*SweepSummary, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	start := time.Now()
	now := sw.clock.Now()
	summary := &SweepSummary{}

	rows, err := sw.db.QueryContext(ctx,
		`SELECT id FROM subscriptions WHERE status = $1 ORDER BY id`,
		SubscriptionStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan subscription id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	rows.Close()

	for _, id := range ids {
		summary.Scanned++
		expired, renewed, err := sw.sweepOne(ctx, id, now)
		if err != nil {
			summary.Skipped++
			sw.logger.WithError(err).WithField("subscription_id", id).
				Warn("sweep skipped subscription")
			continue
		}
		if expired {
			summary.Expired++
		}
		if renewed {
			summary.Renewed++
		}
	}

	if sw.metrics != nil {
		sw.metrics.SweepRunsTotal.Inc()
		sw.metrics.SweepExpirationsTotal.Add(float64(summary.Expired))
		sw.metrics.SweepRenewalsTotal.Add(float64(summary.Renewed))
		sw.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}
	sw.logger.WithField("scanned", summary.Scanned).
		WithField("expired", summary.Expired).
		WithField("renewed", summary.Renewed).
		WithField("skipped", summary.Skipped).
		Info("sweep complete")
	return summary, nil
}

// sweepOne processes a single subscription in its own transaction. Re-checking
// the status under the row lock makes back-to-back sweeps idempotent: a
// subscription deactivated by a previous pass is left alone.
func (sw *Sweeper) sweepOne(ctx context.Context, subscriptionID int64, now time.Time) (expired, renewed bool, err error) {
	tx, err := sw.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sub, err := lockSubscription(ctx, tx, subscriptionID)
	if err != nil {
		return false, false, err
	}
	if sub.Status != SubscriptionStatusActive {
		// already handled by a concurrent writer or a previous sweep
		return false, false, nil
	}

	activation := &SubscriptionActivation{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, start_at, end_at
		FROM subscription_activations
		WHERE subscription_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, subscriptionID).Scan(&activation.ID, &activation.StartAt, &activation.EndAt)
	if errors.Is(err, sql.ErrNoRows) {
		// ACTIVE without an activation window is anomalous; leave it for
		// operators, never fatal.
		return false, false, ErrActivationNotFound
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get activation: %w", err)
	}

	if now.Before(activation.EndAt) {
		// period still running
		return false, false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2`,
		SubscriptionStatusInactive, subscriptionID,
	)
	if err != nil {
		return false, false, fmt.Errorf("failed to deactivate subscription: %w", err)
	}

	// Re-resolve the plan: the price may have changed since activation and
	// the renewal bills at the current price.
	plan := &Plan{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, price FROM plans WHERE id = $1`, sub.PlanID,
	).Scan(&plan.ID, &plan.Price)
	if errors.Is(err, sql.ErrNoRows) {
		// deactivation still commits; only the renewal is skipped
		if cerr := tx.Commit(); cerr != nil {
			return false, false, fmt.Errorf("failed to commit deactivation: %w", cerr)
		}
		sw.logger.WithField("subscription_id", subscriptionID).
			Warn("plan missing, renewal order skipped")
		return true, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get plan: %w", err)
	}

	var lastUserID int64
	err = tx.QueryRowContext(ctx, `
		SELECT user_id
		FROM orders
		WHERE subscription_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, subscriptionID).Scan(&lastUserID)
	if errors.Is(err, sql.ErrNoRows) {
		if cerr := tx.Commit(); cerr != nil {
			return false, false, fmt.Errorf("failed to commit deactivation: %w", cerr)
		}
		sw.logger.WithField("subscription_id", subscriptionID).
			Warn("no prior order, renewal order skipped")
		return true, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get last order: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (reference, subscription_id, user_id, status, amount)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), subscriptionID, lastUserID, OrderStatusUnpaid, plan.Price)
	if err != nil {
		return false, false, fmt.Errorf("failed to create renewal order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("failed to commit sweep: %w", err)
	}
	return true, true, nil
}
