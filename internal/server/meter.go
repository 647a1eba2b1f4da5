package server

import (
	"context"
	"time"

	"compilestrength/internal/logger"
	"compilestrength/internal/usage"
	"compilestrength/internal/user"
)

type quotaMailer interface {
	SendQuotaReached(ctx context.Context, email, name, kind string, resetsAt time.Time) error
}

type userLookup interface {
	GetByID(ctx context.Context, userID int) (*user.User, error)
}

type incrementer interface {
	IncrementForUser(ctx context.Context, kind usage.Kind, userID int) (*usage.Quota, error)
}

// notifyingMeter queues a quota-reached email on the increment that uses up
// the last unit of a counter. Denied increments never notify, so each
// counter sends at most once per period.
type notifyingMeter struct {
	usage  incrementer
	users  userLookup
	mailer quotaMailer
}

func newNotifyingMeter(u incrementer, users userLookup, mailer quotaMailer) *notifyingMeter {
	return &notifyingMeter{usage: u, users: users, mailer: mailer}
}

func (m *notifyingMeter) IncrementForUser(ctx context.Context, kind usage.Kind, userID int) (*usage.Quota, error) {
	q, err := m.usage.IncrementForUser(ctx, kind, userID)
	if err != nil || q.Allowed || q.ResetsAt == nil {
		return q, err
	}

	u, lookupErr := m.users.GetByID(ctx, userID)
	if lookupErr != nil {
		logger.Warn("quota reached but user lookup failed", "user_id", userID, "kind", kind, "error", lookupErr)
		return q, nil
	}
	if mailErr := m.mailer.SendQuotaReached(ctx, u.Email, u.Name, string(kind), *q.ResetsAt); mailErr != nil {
		logger.Warn("failed to queue quota email", "user_id", userID, "kind", kind, "error", mailErr)
	}
	return q, nil
}
