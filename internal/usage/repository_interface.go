package usage

import (
	"context"
	"time"
)

type Repository interface {
	FindPeriod(ctx context.Context, subscriptionID int, start, end time.Time) (*Period, error)
	CreatePeriod(ctx context.Context, p *Period) (*Period, error)
	Increment(ctx context.Context, periodID int, kind Kind) (*Period, error)
	ListPeriods(ctx context.Context, subscriptionID, limit int) ([]*Period, error)
	ListEvents(ctx context.Context, userID, periodID int) ([]*Event, error)
}
