package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compilestrength/internal/logger"
	"compilestrength/internal/metrics"
)

const (
	EventSubscriptionCreated = "subscription_created"
	eventSubscriptionPrefix  = "subscription_"
)

var (
	ErrInvalidStatus  = errors.New("invalid subscription status")
	ErrMissingPayload = errors.New("webhook payload is missing subscription data")
)

// Outcome of a webhook delivery.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

type Service interface {
	HandleWebhook(ctx context.Context, event WebhookEvent) (Outcome, error)
	GetActive(ctx context.Context, userID int) (*Subscription, error)
	GetByID(ctx context.Context, id int) (*Subscription, error)
	ListForUser(ctx context.Context, userID int) ([]*Subscription, error)
	ListPlans(ctx context.Context) ([]*Plan, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) HandleWebhook(ctx context.Context, event WebhookEvent) (Outcome, error) {
	name := event.Meta.EventName
	if !strings.HasPrefix(name, eventSubscriptionPrefix) {
		metrics.RecordSubscriptionEvent(name, string(OutcomeIgnored))
		logger.Info("ignoring billing event", "event", name)
		return OutcomeIgnored, nil
	}

	attrs := event.Data.Attributes
	providerID := string(event.Data.ID)
	if providerID == "" {
		return "", ErrMissingPayload
	}
	if !attrs.Status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, attrs.Status)
	}

	planID := s.resolvePlan(ctx, string(attrs.VariantID))

	var err error
	if name == EventSubscriptionCreated {
		err = s.create(ctx, event, planID)
	} else {
		_, err = s.repo.UpdateFromProvider(ctx, providerID, attrs.Status, planID, attrs.RenewsAt, attrs.EndsAt, attrs.TrialEndsAt)
	}
	if err != nil {
		metrics.RecordSubscriptionEvent(name, "error")
		return "", err
	}

	metrics.RecordSubscriptionEvent(name, string(OutcomeApplied))
	logger.Info("billing event applied", "event", name, "provider_subscription_id", providerID, "status", attrs.Status)
	return OutcomeApplied, nil
}

func (s *service) create(ctx context.Context, event WebhookEvent, planID *int) error {
	attrs := event.Data.Attributes
	// created_at anchors the weekly usage windows.
	if attrs.CreatedAt.IsZero() {
		return fmt.Errorf("%w: created_at", ErrMissingPayload)
	}

	userID, ok := event.Meta.CustomData.UserID.Int()
	if !ok {
		if attrs.UserEmail == "" {
			return ErrUserNotFound
		}
		var err error
		userID, err = s.repo.FindUserIDByEmail(ctx, attrs.UserEmail)
		if err != nil {
			return err
		}
	}

	_, err := s.repo.Create(ctx, &Subscription{
		UserID:                 userID,
		PlanID:                 planID,
		ProviderSubscriptionID: string(event.Data.ID),
		Status:                 attrs.Status,
		RenewsAt:               attrs.RenewsAt,
		EndsAt:                 attrs.EndsAt,
		TrialEndsAt:            attrs.TrialEndsAt,
		CreatedAt:              attrs.CreatedAt,
	})
	return err
}

// resolvePlan maps the provider variant to a local plan. Unknown variants
// leave the plan unset rather than rejecting the event.
func (s *service) resolvePlan(ctx context.Context, variantID string) *int {
	if variantID == "" {
		return nil
	}
	plan, err := s.repo.FindPlanByVariant(ctx, variantID)
	if err != nil {
		if !errors.Is(err, ErrPlanNotFound) {
			logger.Warn("plan lookup failed", "variant_id", variantID, "error", err)
		}
		return nil
	}
	return &plan.ID
}

func (s *service) GetActive(ctx context.Context, userID int) (*Subscription, error) {
	return s.repo.GetActiveByUser(ctx, userID)
}

func (s *service) GetByID(ctx context.Context, id int) (*Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListForUser(ctx context.Context, userID int) ([]*Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListPlans(ctx context.Context) ([]*Plan, error) {
	return s.repo.ListPlans(ctx)
}
