package workout

import (
	"context"
	"time"
)

type Repository interface {
	StartSession(ctx context.Context, userID int, req StartRequest) (*Session, error)
	GetForUser(ctx context.Context, userID, sessionID int) (*Session, error)
	GetActive(ctx context.Context, userID int) (*Session, error)
	List(ctx context.Context, userID, limit, offset int) ([]Session, error)
	AddSet(ctx context.Context, userID, sessionID int, req LogSetRequest) (*Set, error)
	Complete(ctx context.Context, userID, sessionID int, notes string) (*Session, error)

	VolumeByDay(ctx context.Context, userID int, from, to time.Time) ([]VolumePoint, error)
	PersonalRecords(ctx context.Context, userID int) ([]PersonalRecord, error)
}
