package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"compilestrength/internal/logger"
	"compilestrength/internal/metrics"
	"compilestrength/internal/subscription"
)

// Subscriptions is the slice of the subscription service usage accounting needs.
type Subscriptions interface {
	GetByID(ctx context.Context, id int) (*subscription.Subscription, error)
	GetActive(ctx context.Context, userID int) (*subscription.Subscription, error)
}

type Service interface {
	GetOrCreateCurrentPeriod(ctx context.Context, subscriptionID int) (*Period, error)
	CheckQuota(ctx context.Context, kind Kind, subscriptionID int) (*Quota, error)
	IncrementUsage(ctx context.Context, kind Kind, subscriptionID int) (*Quota, error)

	CheckQuotaForUser(ctx context.Context, kind Kind, userID int) (*Quota, error)
	IncrementForUser(ctx context.Context, kind Kind, userID int) (*Quota, error)
	Summary(ctx context.Context, userID int) (*Summary, error)
	History(ctx context.Context, userID, limit int) ([]*Period, error)
	Events(ctx context.Context, userID, periodID int) ([]*Event, error)
}

type service struct {
	repo   Repository
	subs   Subscriptions
	limits Limits
	now    func() time.Time
}

func NewService(repo Repository, subs Subscriptions, limits Limits) Service {
	return &service{
		repo:   repo,
		subs:   subs,
		limits: limits,
		now:    time.Now,
	}
}

func (s *service) GetOrCreateCurrentPeriod(ctx context.Context, subscriptionID int) (*Period, error) {
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.currentPeriod(ctx, sub)
}

func (s *service) currentPeriod(ctx context.Context, sub *subscription.Subscription) (*Period, error) {
	start, end := Window(sub.CreatedAt, s.now())

	p, err := s.repo.FindPeriod(ctx, sub.ID, start, end)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPeriodNotFound) {
		return nil, fmt.Errorf("find usage period: %w", err)
	}

	p, err = s.repo.CreatePeriod(ctx, &Period{
		SubscriptionID:    sub.ID,
		UserID:            sub.UserID,
		PeriodStart:       start,
		PeriodEnd:         end,
		CompilesLimit:     s.limits.Compiles,
		RoutineEditsLimit: s.limits.RoutineEdits,
		AIMessagesLimit:   s.limits.AIMessages,
	})
	if err != nil {
		return nil, fmt.Errorf("create usage period: %w", err)
	}

	logger.Debug("usage period opened", "subscription_id", sub.ID, "period_start", start)
	return p, nil
}

func (s *service) CheckQuota(ctx context.Context, kind Kind, subscriptionID int) (*Quota, error) {
	p, err := s.GetOrCreateCurrentPeriod(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return p.Quota(kind), nil
}

// IncrementUsage re-checks the limit at write time; a prior CheckQuota is
// only advisory.
func (s *service) IncrementUsage(ctx context.Context, kind Kind, subscriptionID int) (*Quota, error) {
	p, err := s.GetOrCreateCurrentPeriod(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.increment(ctx, kind, p)
}

func (s *service) increment(ctx context.Context, kind Kind, p *Period) (*Quota, error) {
	updated, err := s.repo.Increment(ctx, p.ID, kind)
	if errors.Is(err, ErrQuotaExceeded) {
		metrics.RecordUsageIncrement(string(kind), "quota_exceeded")
		metrics.RecordQuotaDenial(string(kind))
		if updated == nil {
			updated = p
		}
		return nil, &QuotaExceededError{Quota: updated.Quota(kind)}
	}
	if err != nil {
		metrics.RecordUsageIncrement(string(kind), "error")
		return nil, fmt.Errorf("increment %s: %w", kind, err)
	}

	metrics.RecordUsageIncrement(string(kind), "ok")
	return updated.Quota(kind), nil
}

// CheckQuotaForUser never fails for a user without an active subscription;
// it reports allowed=false against the default limit instead.
func (s *service) CheckQuotaForUser(ctx context.Context, kind Kind, userID int) (*Quota, error) {
	sub, err := s.subs.GetActive(ctx, userID)
	if errors.Is(err, subscription.ErrNoActiveSubscription) {
		return &Quota{Kind: kind, Allowed: false, Used: 0, Limit: s.limits.For(kind)}, nil
	}
	if err != nil {
		return nil, err
	}

	p, err := s.currentPeriod(ctx, sub)
	if err != nil {
		return nil, err
	}
	return p.Quota(kind), nil
}

func (s *service) IncrementForUser(ctx context.Context, kind Kind, userID int) (*Quota, error) {
	sub, err := s.subs.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.currentPeriod(ctx, sub)
	if err != nil {
		return nil, err
	}
	return s.increment(ctx, kind, p)
}

func (s *service) Summary(ctx context.Context, userID int) (*Summary, error) {
	sub, err := s.subs.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.currentPeriod(ctx, sub)
	if err != nil {
		return nil, err
	}

	counters := make(map[Kind]*Quota, len(Kinds))
	for _, k := range Kinds {
		counters[k] = p.Quota(k)
	}

	return &Summary{
		SubscriptionID: sub.ID,
		PeriodStart:    p.PeriodStart,
		PeriodEnd:      p.PeriodEnd,
		Counters:       counters,
	}, nil
}

func (s *service) History(ctx context.Context, userID, limit int) ([]*Period, error) {
	sub, err := s.subs.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 52 {
		limit = 12
	}
	return s.repo.ListPeriods(ctx, sub.ID, limit)
}

// Events lists the ledger rows of one of the user's periods.
func (s *service) Events(ctx context.Context, userID, periodID int) ([]*Event, error) {
	return s.repo.ListEvents(ctx, userID, periodID)
}
