package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// DefaultPlanPageSize is used when a list request does not specify a size.
const DefaultPlanPageSize = 20

// CreatePlan persists a new plan. The caller must already have passed the
// external admin check. Returns ErrPlanNameTaken if the name exists.
func (s *Service) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*Plan, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM plans WHERE name = $1)`, req.Name,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check plan name: %w", err)
	}
	if exists {
		return nil, ErrPlanNameTaken
	}

	plan := &Plan{
		Name:  req.Name,
		Price: req.Price,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO plans (name, price)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, plan.Name, plan.Price).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPlanNameTaken
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.WithField("plan_id", plan.ID).WithField("name", plan.Name).Info("plan created")
	return plan, nil
}

// UpdatePlan changes a plan's name and future pricing in place. Historical
// orders and activations are untouched; the new price applies to orders
// recorded after the update.
func (s *Service) UpdatePlan(ctx context.Context, id int64, req *UpdatePlanRequest) (*Plan, error) {
	plan := &Plan{ID: id, Name: req.Name, Price: req.Price}
	err := s.db.QueryRowContext(ctx, `
		UPDATE plans
		SET name = $1, price = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING created_at, updated_at
	`, req.Name, req.Price, id).Scan(&plan.CreatedAt, &plan.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPlanNameTaken
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.WithField("plan_id", id).Info("plan updated")
	return plan, nil
}

// GetPlan retrieves a plan by id.
func (s *Service) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	plan := &Plan{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, created_at, updated_at
		FROM plans
		WHERE id = $1
	`, id).Scan(&plan.ID, &plan.Name, &plan.Price, &plan.CreatedAt, &plan.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// ListPlans returns one page of plans in creation order. Pages are 1-indexed;
// an out-of-range page yields an empty list, never an error.
func (s *Service) ListPlans(ctx context.Context, page, size int) (*PlanListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPlanPageSize
	}
	offset := (page - 1) * size

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, created_at, updated_at
		FROM plans
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, size, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return &PlanListResponse{Plans: plans, Page: page, Size: size}, nil
}

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
