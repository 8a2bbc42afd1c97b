package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusInactive SubscriptionStatus = "INACTIVE"
)

// OrderStatus represents the payment status of an order
type OrderStatus string

const (
	OrderStatusPaid   OrderStatus = "PAID"
	OrderStatusUnpaid OrderStatus = "UNPAID"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusPaid || s == OrderStatusUnpaid
}

// Plan represents a priced subscription tier
type Plan struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"` // monthly price
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Subscription binds a team to a plan. The plan reference is fixed at
// creation; an upgrade opens a successor subscription instead of mutating it.
type Subscription struct {
	ID        int64              `json:"id"`
	TeamID    int64              `json:"team_id"`
	PlanID    int64              `json:"plan_id"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Order is an immutable billing record of a charge attempt. Corrections are
// made by inserting new orders, never by updating existing ones.
type Order struct {
	ID             int64           `json:"id"`
	Reference      string          `json:"reference"`
	SubscriptionID int64           `json:"subscription_id"`
	UserID         int64           `json:"user_id"`
	Status         OrderStatus     `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SubscriptionActivation records one paid period of a subscription. EndAt is
// computed once at creation as StartAt plus one calendar month.
type SubscriptionActivation struct {
	ID             int64     `json:"id"`
	SubscriptionID int64     `json:"subscription_id"`
	StartAt        time.Time `json:"start_at"`
	EndAt          time.Time `json:"end_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreatePlanRequest represents a request to create a plan
type CreatePlanRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// UpdatePlanRequest represents a request to update a plan's name and future pricing
type UpdatePlanRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CreateSubscriptionRequest represents a request to subscribe a team to a plan
type CreateSubscriptionRequest struct {
	PlanID int64 `json:"plan_id"`
	TeamID int64 `json:"team_id"`
}

// RecordOrderRequest represents a request to record a charge attempt
type RecordOrderRequest struct {
	Status OrderStatus `json:"status"`
}

// UpgradeSubscriptionRequest represents a request to upgrade to a new plan
type UpgradeSubscriptionRequest struct {
	PlanID int64 `json:"plan_id"`
}

// PlanListResponse wraps a page of plans
type PlanListResponse struct {
	Plans []Plan `json:"plans"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
}

// UpgradeResult describes the successor subscription and its opening order
type UpgradeResult struct {
	Subscription *Subscription `json:"subscription"`
	Order        *Order        `json:"order"`
}
