package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"compilestrength/internal/db"
)

var ErrPeriodNotFound = errors.New("usage period not found")

const periodColumns = `id, subscription_id, user_id, period_start, period_end, compiles_used, compiles_limit, routine_edits_used, routine_edits_limit, ai_messages_used, ai_messages_limit, created_at, updated_at`

var usedColumn = map[Kind]string{
	KindCompile:     "compiles_used",
	KindRoutineEdit: "routine_edits_used",
	KindAIMessage:   "ai_messages_used",
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// FindPeriod matches with range bounds rather than equality so rows written
// with a slightly different clock still resolve.
func (r *repository) FindPeriod(ctx context.Context, subscriptionID int, start, end time.Time) (*Period, error) {
	p := &Period{}
	err := r.db.GetContext(ctx, p, `
		SELECT `+periodColumns+`
		FROM usage_periods
		WHERE subscription_id = $1 AND period_start >= $2 AND period_end <= $3
		ORDER BY period_start DESC
		LIMIT 1
	`, subscriptionID, start, end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPeriodNotFound
	}
	return p, err
}

// CreatePeriod inserts a zeroed period. When a concurrent request created the
// same window first, that row is returned instead.
func (r *repository) CreatePeriod(ctx context.Context, in *Period) (*Period, error) {
	p := &Period{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO usage_periods (subscription_id, user_id, period_start, period_end, compiles_limit, routine_edits_limit, ai_messages_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subscription_id, period_start) DO NOTHING
		RETURNING `+periodColumns,
		in.SubscriptionID, in.UserID, in.PeriodStart, in.PeriodEnd, in.CompilesLimit, in.RoutineEditsLimit, in.AIMessagesLimit,
	).StructScan(p)
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindPeriod(ctx, in.SubscriptionID, in.PeriodStart, in.PeriodEnd)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Increment bumps one counter under a row lock and appends a ledger event.
// When the counter is already at its limit it returns the locked period
// together with ErrQuotaExceeded and nothing is written.
func (r *repository) Increment(ctx context.Context, periodID int, kind Kind) (*Period, error) {
	col, ok := usedColumn[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var out *Period
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p := &Period{}
		err := tx.GetContext(ctx, p, `SELECT `+periodColumns+` FROM usage_periods WHERE id = $1 FOR UPDATE`, periodID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPeriodNotFound
		}
		if err != nil {
			return err
		}

		used, limit := p.Counter(kind)
		if used >= limit {
			out = p
			return ErrQuotaExceeded
		}

		updated := &Period{}
		err = tx.QueryRowxContext(ctx, `
			UPDATE usage_periods
			SET `+col+` = `+col+` + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING `+periodColumns,
			periodID,
		).StructScan(updated)
		if err != nil {
			return fmt.Errorf("update counter: %w", err)
		}

		usedAfter, _ := updated.Counter(kind)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO usage_events (usage_period_id, kind, used_after)
			VALUES ($1, $2, $3)
		`, periodID, kind, usedAfter); err != nil {
			return fmt.Errorf("record usage event: %w", err)
		}

		out = updated
		return nil
	})
	if errors.Is(err, ErrQuotaExceeded) {
		return out, err
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListPeriods(ctx context.Context, subscriptionID, limit int) ([]*Period, error) {
	periods := []*Period{}
	err := r.db.SelectContext(ctx, &periods, `
		SELECT `+periodColumns+`
		FROM usage_periods
		WHERE subscription_id = $1
		ORDER BY period_start DESC
		LIMIT $2
	`, subscriptionID, limit)
	return periods, err
}

func (r *repository) ListEvents(ctx context.Context, userID, periodID int) ([]*Event, error) {
	owned, err := db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM usage_periods WHERE id = $1 AND user_id = $2)`, periodID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrPeriodNotFound
	}

	events := []*Event{}
	err = r.db.SelectContext(ctx, &events, `
		SELECT id, usage_period_id, kind, used_after, created_at
		FROM usage_events
		WHERE usage_period_id = $1
		ORDER BY id
	`, periodID)
	return events, err
}
