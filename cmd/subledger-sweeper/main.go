package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/ahmedtariq19/subledger/pkg/billing"
	"github.com/ahmedtariq19/subledger/pkg/observability"
)

var (
	dbURL        = flag.String("db-url", getEnv("SUBLEDGER_DATABASE_URL", "postgres://localhost/subledger?sslmode=disable"), "PostgreSQL connection URL")
	schedule     = flag.String("schedule", getEnv("SUBLEDGER_SWEEP_SCHEDULE", "* * * * *"), "Cron schedule for the expiry sweep (default: every minute)")
	sweepTimeout = flag.Duration("sweep-timeout", getEnvDuration("SUBLEDGER_SWEEP_TIMEOUT", 5*time.Minute), "Upper bound for a single sweep pass")
	runOnce      = flag.Bool("run-once", false, "Run the sweep once and exit (for testing)")
	migrate      = flag.Bool("migrate", false, "Run database migrations before sweeping")
)

func main() {
	flag.Parse()

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if *migrate {
		if err := billing.RunMigrations(context.Background(), db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations applied")
	}

	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
	sweeper := billing.NewSweeper(db, logger, billing.SystemClock(), nil)

	// Run once mode (for testing or manual runs)
	if *runOnce {
		ctx, cancel := context.WithTimeout(context.Background(), *sweepTimeout)
		defer cancel()
		summary, err := sweeper.RunSweepOnce(ctx)
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		log.Printf("Sweep completed: scanned=%d expired=%d renewed=%d skipped=%d",
			summary.Scanned, summary.Expired, summary.Renewed, summary.Skipped)
		return
	}

	// Scheduled mode
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err = c.AddFunc(*schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), *sweepTimeout)
		defer cancel()
		summary, err := sweeper.RunSweepOnce(ctx)
		if err != nil {
			log.Printf("Sweep failed: %v", err)
			return
		}
		if summary.Expired > 0 || summary.Skipped > 0 {
			log.Printf("Sweep completed: scanned=%d expired=%d renewed=%d skipped=%d",
				summary.Scanned, summary.Expired, summary.Renewed, summary.Skipped)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule sweep: %v", err)
	}

	c.Start()
	log.Println("Subscription expiry sweeper started")
	log.Printf("Sweep schedule: %s", *schedule)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down gracefully...")

	ctx := c.Stop()
	<-ctx.Done()

	log.Println("Sweeper stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
