package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahmedtariq19/subledger/pkg/observability"
)

// Service is the billing engine. All multi-row mutations run in a single
// transaction with the subscription row locked first, so concurrent payments
// and upgrades against the same subscription serialize.
type Service struct {
	db      *sql.DB
	logger  *observability.Logger
	clock   Clock
	metrics *observability.Metrics // may be nil
}

// NewService creates a billing Service. metrics may be nil.
func NewService(db *sql.DB, logger *observability.Logger, clock Clock, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{
		db:      db,
		logger:  logger.WithField("component", "billing"),
		clock:   clock,
		metrics: metrics,
	}
}

// CreateSubscription binds a team to a plan with status INACTIVE. Billing is a
// separate explicit step; no order is created here.
func (s *Service) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM plans WHERE id = $1)`, req.PlanID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check plan: %w", err)
	}
	if !exists {
		return nil, ErrPlanNotFound
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)`, req.TeamID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check team: %w", err)
	}
	if !exists {
		return nil, ErrTeamNotFound
	}

	sub := &Subscription{
		TeamID: req.TeamID,
		PlanID: req.PlanID,
		Status: SubscriptionStatusInactive,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (team_id, plan_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, sub.TeamID, sub.PlanID, sub.Status).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	s.logger.WithField("subscription_id", sub.ID).WithField("team_id", sub.TeamID).
		Info("subscription created")
	return sub, nil
}

// RecordOrder inserts an order at the plan's current price. A PAID order also
// activates the subscription and opens a one-month activation window; an
// UNPAID order has no side effects. The whole sequence commits or rolls back
// as one transaction.
func (s *Service) RecordOrder(ctx context.Context, subscriptionID, userID int64, status OrderStatus) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sub, err := lockSubscription(ctx, tx, subscriptionID)
	if err != nil {
		return nil, err
	}

	// Price is resolved at charge time; a later plan price change never
	// touches this order.
	plan := &Plan{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, price FROM plans WHERE id = $1`, sub.PlanID,
	).Scan(&plan.ID, &plan.Name, &plan.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	order := &Order{
		Reference:      uuid.NewString(),
		SubscriptionID: subscriptionID,
		UserID:         userID,
		Status:         status,
		Amount:         plan.Price,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (reference, subscription_id, user_id, status, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, order.Reference, order.SubscriptionID, order.UserID, order.Status, order.Amount).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if status == OrderStatusPaid {
		_, err = tx.ExecContext(ctx,
			`UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2`,
			SubscriptionStatusActive, subscriptionID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, ErrTeamAlreadyActive
			}
			return nil, fmt.Errorf("failed to activate subscription: %w", err)
		}

		startAt := s.clock.Now()
		endAt := startAt.AddDate(0, 1, 0)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO subscription_activations (subscription_id, start_at, end_at)
			VALUES ($1, $2, $3)
		`, subscriptionID, startAt, endAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create activation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.OrdersCreatedTotal.WithLabelValues(string(status), "charge").Inc()
		if status == OrderStatusPaid {
			s.metrics.ActivationsOpenedTotal.Inc()
		}
	}
	s.logger.WithField("subscription_id", subscriptionID).
		WithField("order_id", order.ID).
		WithField("status", string(status)).
		Info("order recorded")
	return order, nil
}

// UpgradeSubscription opens a successor subscription on the new plan, priced
// net of the prorated credit for the unused part of the current period. The
// old subscription is stamped INACTIVE unconditionally. All referenced
// entities are resolved before any write; the writes commit atomically.
func (s *Service) UpgradeSubscription(ctx context.Context, subscriptionID, newPlanID, userID int64) (*UpgradeResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	newPlan := &Plan{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, price FROM plans WHERE id = $1`, newPlanID,
	).Scan(&newPlan.ID, &newPlan.Name, &newPlan.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	sub, err := lockSubscription(ctx, tx, subscriptionID)
	if err != nil {
		return nil, err
	}

	// An un-activated subscription cannot be upgraded: there is no paid
	// period to prorate against.
	activation := &SubscriptionActivation{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, start_at, end_at
		FROM subscription_activations
		WHERE subscription_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, subscriptionID).Scan(&activation.ID, &activation.StartAt, &activation.EndAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activation: %w", err)
	}

	lastOrder := &Order{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, amount
		FROM orders
		WHERE subscription_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, subscriptionID).Scan(&lastOrder.ID, &lastOrder.UserID, &lastOrder.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last order: %w", err)
	}

	var teamID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM teams WHERE user_id = $1`, userID,
	).Scan(&teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	proration := ProrateUpgrade(lastOrder.Amount, activation.StartAt, s.clock.Now())
	newAmount := proration.NewAmount(newPlan.Price)

	successor := &Subscription{
		TeamID: teamID,
		PlanID: newPlanID,
		Status: SubscriptionStatusInactive,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO subscriptions (team_id, plan_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, successor.TeamID, successor.PlanID, successor.Status).
		Scan(&successor.ID, &successor.CreatedAt, &successor.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create successor subscription: %w", err)
	}

	// Not guarded on current status: the old row is stamped INACTIVE even if
	// it already was.
	_, err = tx.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2`,
		SubscriptionStatusInactive, subscriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate subscription: %w", err)
	}

	order := &Order{
		Reference:      uuid.NewString(),
		SubscriptionID: successor.ID,
		UserID:         userID,
		Status:         OrderStatusUnpaid,
		Amount:         newAmount,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (reference, subscription_id, user_id, status, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, order.Reference, order.SubscriptionID, order.UserID, order.Status, order.Amount).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create upgrade order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit upgrade: %w", err)
	}

	if s.metrics != nil {
		s.metrics.OrdersCreatedTotal.WithLabelValues(string(OrderStatusUnpaid), "upgrade").Inc()
		s.metrics.UpgradesTotal.Inc()
	}
	s.logger.WithField("subscription_id", subscriptionID).
		WithField("old_plan_id", sub.PlanID).
		WithField("successor_id", successor.ID).
		WithField("consumed_days", proration.ConsumedDays).
		WithField("amount", newAmount.String()).
		Info("subscription upgraded")
	return &UpgradeResult{Subscription: successor, Order: order}, nil
}

// lockSubscription loads a subscription inside tx with a row lock, so every
// writer serializes per subscription.
func lockSubscription(ctx context.Context, tx *sql.Tx, id int64) (*Subscription, error) {
	sub := &Subscription{}
	err := tx.QueryRowContext(ctx, `
		SELECT id, team_id, plan_id, status, created_at, updated_at
		FROM subscriptions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&sub.ID, &sub.TeamID, &sub.PlanID, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock subscription: %w", err)
	}
	return sub, nil
}
