package workout

import (
	"context"
	"errors"
	"time"

	"compilestrength/internal/logger"
	"compilestrength/internal/metrics"
)

const (
	defaultVolumeWindow = 30 * 24 * time.Hour
	maxVolumeWindow     = 366 * 24 * time.Hour
)

type Service interface {
	Start(ctx context.Context, userID int, req StartRequest) (*Session, error)
	Active(ctx context.Context, userID int) (*Session, error)
	Get(ctx context.Context, userID, sessionID int) (*Session, error)
	List(ctx context.Context, userID, limit, offset int) ([]Session, error)
	LogSet(ctx context.Context, userID, sessionID int, req LogSetRequest) (*Set, error)
	Complete(ctx context.Context, userID, sessionID int, notes string) (*Session, error)

	Volume(ctx context.Context, userID int, from, to time.Time) ([]VolumePoint, error)
	Records(ctx context.Context, userID int) ([]PersonalRecord, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Start(ctx context.Context, userID int, req StartRequest) (*Session, error) {
	session, err := s.repo.StartSession(ctx, userID, req)
	if errors.Is(err, ErrActiveSessionExists) {
		metrics.RecordWorkoutSession("conflict")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordWorkoutSession("started")
	logger.Info("workout started", "user_id", userID, "session_id", session.ID)
	return session, nil
}

func (s *service) Active(ctx context.Context, userID int) (*Session, error) {
	return s.repo.GetActive(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, sessionID int) (*Session, error) {
	return s.repo.GetForUser(ctx, userID, sessionID)
}

func (s *service) List(ctx context.Context, userID, limit, offset int) ([]Session, error) {
	return s.repo.List(ctx, userID, limit, offset)
}

func (s *service) LogSet(ctx context.Context, userID, sessionID int, req LogSetRequest) (*Set, error) {
	set, err := s.repo.AddSet(ctx, userID, sessionID, req)
	if err != nil {
		return nil, err
	}
	metrics.RecordWorkoutSession("set_logged")
	return set, nil
}

func (s *service) Complete(ctx context.Context, userID, sessionID int, notes string) (*Session, error) {
	session, err := s.repo.Complete(ctx, userID, sessionID, notes)
	if err != nil {
		return nil, err
	}
	metrics.RecordWorkoutSession("completed")
	logger.Info("workout completed", "user_id", userID, "session_id", sessionID)
	return session, nil
}

// Volume defaults to the last 30 days when from or to is zero.
func (s *service) Volume(ctx context.Context, userID int, from, to time.Time) ([]VolumePoint, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultVolumeWindow)
	}
	if !from.Before(to) || to.Sub(from) > maxVolumeWindow {
		return nil, ErrInvalidRange
	}
	return s.repo.VolumeByDay(ctx, userID, from, to)
}

func (s *service) Records(ctx context.Context, userID int) ([]PersonalRecord, error) {
	return s.repo.PersonalRecords(ctx, userID)
}
