package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrUserNotFound         = errors.New("user not found")
)

const subscriptionColumns = `id, user_id, plan_id, provider_subscription_id, status, renews_at, ends_at, trial_ends_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, err
}

// GetActiveByUser returns the newest active or trialing subscription.
func (r *repository) GetActiveByUser(ctx context.Context, userID int) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, ActiveStatuses[0], ActiveStatuses[1])
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveSubscription
	}
	return sub, err
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]*Subscription, error) {
	subs := []*Subscription{}
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return subs, err
}

// Create inserts a subscription. Replayed creation events for the same provider
// id refresh status and dates instead of failing.
func (r *repository) Create(ctx context.Context, in *Subscription) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO subscriptions (user_id, plan_id, provider_subscription_id, status, renews_at, ends_at, trial_ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (provider_subscription_id) DO UPDATE
		SET status = EXCLUDED.status, renews_at = EXCLUDED.renews_at, ends_at = EXCLUDED.ends_at, trial_ends_at = EXCLUDED.trial_ends_at, updated_at = NOW()
		RETURNING `+subscriptionColumns,
		in.UserID, in.PlanID, in.ProviderSubscriptionID, in.Status, in.RenewsAt, in.EndsAt, in.TrialEndsAt, in.CreatedAt,
	).StructScan(sub)
	return sub, err
}

func (r *repository) UpdateFromProvider(ctx context.Context, providerID string, status Status, planID *int, renewsAt, endsAt, trialEndsAt *time.Time) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE subscriptions
		SET status = $2, plan_id = COALESCE($3, plan_id), renews_at = $4, ends_at = $5, trial_ends_at = $6, updated_at = NOW()
		WHERE provider_subscription_id = $1
		RETURNING `+subscriptionColumns,
		providerID, status, planID, renewsAt, endsAt, trialEndsAt,
	).StructScan(sub)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	return sub, err
}

func (r *repository) FindUserIDByEmail(ctx context.Context, email string) (int, error) {
	var id int
	err := r.db.GetContext(ctx, &id, `SELECT id FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return id, err
}

func (r *repository) FindPlanByVariant(ctx context.Context, variantID string) (*Plan, error) {
	plan := &Plan{}
	err := r.db.GetContext(ctx, plan, `
		SELECT id, variant_id, name, price_cents, interval, created_at
		FROM plans
		WHERE variant_id = $1
	`, variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return plan, err
}

func (r *repository) ListPlans(ctx context.Context) ([]*Plan, error) {
	plans := []*Plan{}
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, variant_id, name, price_cents, interval, created_at
		FROM plans
		ORDER BY price_cents
	`)
	return plans, err
}
