package subscription

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id int) (*Subscription, error)
	GetActiveByUser(ctx context.Context, userID int) (*Subscription, error)
	ListByUser(ctx context.Context, userID int) ([]*Subscription, error)
	Create(ctx context.Context, sub *Subscription) (*Subscription, error)
	UpdateFromProvider(ctx context.Context, providerID string, status Status, planID *int, renewsAt, endsAt, trialEndsAt *time.Time) (*Subscription, error)
	FindUserIDByEmail(ctx context.Context, email string) (int, error)
	FindPlanByVariant(ctx context.Context, variantID string) (*Plan, error)
	ListPlans(ctx context.Context) ([]*Plan, error)
}
