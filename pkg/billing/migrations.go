package billing

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all billing migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users and teams tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					is_admin BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS teams (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id),
					name VARCHAR(255) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_teams_user_id ON teams(user_id);
			`,
		},
		{
			Version:     2,
			Description: "Create plans table",
			SQL: `
				CREATE TABLE IF NOT EXISTS plans (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     3,
			Description: "Create subscriptions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS subscriptions (
					id BIGSERIAL PRIMARY KEY,
					team_id BIGINT NOT NULL REFERENCES teams(id),
					plan_id BIGINT NOT NULL REFERENCES plans(id),
					status VARCHAR(16) NOT NULL CHECK (status IN ('ACTIVE', 'INACTIVE')),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_subscriptions_team_id ON subscriptions(team_id);
				CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status);

				-- at most one ACTIVE subscription per team
				CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_team_active
					ON subscriptions(team_id) WHERE status = 'ACTIVE';
			`,
		},
		{
			Version:     4,
			Description: "Create orders table",
			SQL: `
				CREATE TABLE IF NOT EXISTS orders (
					id BIGSERIAL PRIMARY KEY,
					reference VARCHAR(64) NOT NULL UNIQUE,
					subscription_id BIGINT NOT NULL REFERENCES subscriptions(id),
					user_id BIGINT NOT NULL REFERENCES users(id),
					status VARCHAR(16) NOT NULL CHECK (status IN ('PAID', 'UNPAID')),
					amount NUMERIC(12,2) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_orders_subscription_id ON orders(subscription_id);
			`,
		},
		{
			Version:     5,
			Description: "Create subscription_activations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS subscription_activations (
					id BIGSERIAL PRIMARY KEY,
					subscription_id BIGINT NOT NULL REFERENCES subscriptions(id),
					start_at TIMESTAMPTZ NOT NULL,
					end_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_activations_subscription_id
					ON subscription_activations(subscription_id);
				CREATE INDEX IF NOT EXISTS idx_activations_end_at
					ON subscription_activations(end_at);
			`,
		},
	}
}

// RunMigrations applies all pending billing migrations. Each migration runs in
// its own transaction and is recorded in billing_schema_migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS billing_schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range GetMigrations() {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM billing_schema_migrations WHERE version = $1)`,
			m.Version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO billing_schema_migrations (version, description) VALUES ($1, $2)`,
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
