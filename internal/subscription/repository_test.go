package subscription

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subColumns = []string{
	"id", "user_id", "plan_id", "provider_subscription_id", "status",
	"renews_at", "ends_at", "trial_ends_at", "created_at", "updated_at",
}

func setupSubscriptionMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })
	return NewRepository(sqlxDB), mock
}

func TestCreate(t *testing.T) {
	repo, mock := setupSubscriptionMock(t)
	anchor := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	planID := 2

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO subscriptions (user_id, plan_id, provider_subscription_id, status, renews_at, ends_at, trial_ends_at, created_at, updated_at)`)).
		WithArgs(7, planID, "sub_1", "active", nil, nil, nil, anchor).
		WillReturnRows(sqlmock.NewRows(subColumns).
			AddRow(1, 7, planID, "sub_1", "active", nil, nil, nil, anchor, anchor))

	sub, err := repo.Create(context.Background(), &Subscription{
		UserID:                 7,
		PlanID:                 &planID,
		ProviderSubscriptionID: "sub_1",
		Status:                 StatusActive,
		CreatedAt:              anchor,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sub.ID)
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, anchor, sub.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveByUser(t *testing.T) {
	repo, mock := setupSubscriptionMock(t)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM subscriptions WHERE user_id = $1 AND status IN ($2, $3)`)).
			WithArgs(7, "active", "on_trial").
			WillReturnRows(sqlmock.NewRows(subColumns).
				AddRow(3, 7, nil, "sub_3", "on_trial", nil, nil, now, now, now))

		sub, err := repo.GetActiveByUser(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, StatusOnTrial, sub.Status)
		assert.Nil(t, sub.PlanID)
	})

	t.Run("none", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM subscriptions WHERE user_id = $1 AND status IN ($2, $3)`)).
			WithArgs(8, "active", "on_trial").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetActiveByUser(context.Background(), 8)
		assert.ErrorIs(t, err, ErrNoActiveSubscription)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFromProvider_NotFound(t *testing.T) {
	repo, mock := setupSubscriptionMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE subscriptions SET status = $2`)).
		WithArgs("missing", "cancelled", nil, nil, nil, nil).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateFromProvider(context.Background(), "missing", StatusCancelled, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := setupSubscriptionMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM subscriptions WHERE id = $1`)).
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
