package billing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedtariq19/subledger/pkg/observability"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	service := NewService(db, logger, SystemClock(), nil)
	return service, mock
}

func TestCreatePlan(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, mock := newTestService(t)
		now := time.Now()

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("Pro").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("INSERT INTO plans").
			WithArgs("Pro", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(1, now, now))

		plan, err := service.CreatePlan(context.Background(), &CreatePlanRequest{
			Name: "Pro", Price: d("5"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), plan.ID)
		assert.Equal(t, "Pro", plan.Name)
		assert.True(t, d("5").Equal(plan.Price))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("name taken", func(t *testing.T) {
		service, mock := newTestService(t)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("Pro").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		plan, err := service.CreatePlan(context.Background(), &CreatePlanRequest{
			Name: "Pro", Price: d("5"),
		})
		assert.ErrorIs(t, err, ErrPlanNameTaken)
		assert.Nil(t, plan)
	})

	t.Run("unique violation on insert race", func(t *testing.T) {
		service, mock := newTestService(t)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("Pro").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("INSERT INTO plans").
			WithArgs("Pro", sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := service.CreatePlan(context.Background(), &CreatePlanRequest{
			Name: "Pro", Price: d("5"),
		})
		assert.ErrorIs(t, err, ErrPlanNameTaken)
	})

	t.Run("database failure", func(t *testing.T) {
		service, mock := newTestService(t)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("Pro").
			WillReturnError(errors.New("database error"))

		_, err := service.CreatePlan(context.Background(), &CreatePlanRequest{
			Name: "Pro", Price: d("5"),
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check plan name")
	})
}

func TestUpdatePlan(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, mock := newTestService(t)
		now := time.Now()

		mock.ExpectQuery("UPDATE plans").
			WithArgs("Pro Annual", sqlmock.AnyArg(), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(now.Add(-time.Hour), now))

		plan, err := service.UpdatePlan(context.Background(), 1, &UpdatePlanRequest{
			Name: "Pro Annual", Price: d("50"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), plan.ID)
		assert.Equal(t, "Pro Annual", plan.Name)
		assert.True(t, d("50").Equal(plan.Price))
	})

	t.Run("not found", func(t *testing.T) {
		service, mock := newTestService(t)

		mock.ExpectQuery("UPDATE plans").
			WithArgs("Pro", sqlmock.AnyArg(), int64(42)).
			WillReturnError(sql.ErrNoRows)

		_, err := service.UpdatePlan(context.Background(), 42, &UpdatePlanRequest{
			Name: "Pro", Price: d("5"),
		})
		assert.ErrorIs(t, err, ErrPlanNotFound)
		assert.True(t, IsNotFound(err))
	})

	t.Run("renaming onto a taken name", func(t *testing.T) {
		service, mock := newTestService(t)

		mock.ExpectQuery("UPDATE plans").
			WithArgs("Enterprise", sqlmock.AnyArg(), int64(1)).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := service.UpdatePlan(context.Background(), 1, &UpdatePlanRequest{
			Name: "Enterprise", Price: d("5"),
		})
		assert.ErrorIs(t, err, ErrPlanNameTaken)
	})
}

func TestGetPlan(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, mock := newTestService(t)
		now := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM plans").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "created_at", "updated_at"}).
				AddRow(1, "Pro", "5", now, now))

		plan, err := service.GetPlan(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Pro", plan.Name)
		assert.True(t, d("5").Equal(plan.Price))
	})

	t.Run("not found", func(t *testing.T) {
		service, mock := newTestService(t)

		mock.ExpectQuery("SELECT (.+) FROM plans").
			WithArgs(int64(42)).
			WillReturnError(sql.ErrNoRows)

		_, err := service.GetPlan(context.Background(), 42)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})
}

func TestListPlans(t *testing.T) {
	t.Run("returns one page", func(t *testing.T) {
		service, mock := newTestService(t)
		now := time.Now()

		rows := sqlmock.NewRows([]string{"id", "name", "price", "created_at", "updated_at"}).
			AddRow(1, "Free", "0", now, now).
			AddRow(2, "Pro", "5", now, now)
		mock.ExpectQuery("SELECT (.+) FROM plans").
			WithArgs(2, 0).
			WillReturnRows(rows)

		resp, err := service.ListPlans(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Len(t, resp.Plans, 2)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, 2, resp.Size)
		assert.Equal(t, "Free", resp.Plans[0].Name)
	})

	t.Run("out of range page is empty, not an error", func(t *testing.T) {
		service, mock := newTestService(t)

		mock.ExpectQuery("SELECT (.+) FROM plans").
			WithArgs(20, 180).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "created_at", "updated_at"}))

		resp, err := service.ListPlans(context.Background(), 10, 20)
		require.NoError(t, err)
		assert.NotNil(t, resp.Plans)
		assert.Empty(t, resp.Plans)
	})

	t.Run("normalizes page and size", func(t *testing.T) {
		service, mock := newTestService(t)

		mock.ExpectQuery("SELECT (.+) FROM plans").
			WithArgs(DefaultPlanPageSize, 0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "created_at", "updated_at"}))

		resp, err := service.ListPlans(context.Background(), 0, -1)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, DefaultPlanPageSize, resp.Size)
	})
}
