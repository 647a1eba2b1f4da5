package program

import (
	"context"

	"compilestrength/internal/api"
	"compilestrength/internal/auth"
	"compilestrength/internal/logger"
	"compilestrength/internal/metrics"
	"compilestrength/internal/routine"
)

type Notifier interface {
	SendProgramReady(ctx context.Context, email, name, programName string, days int) error
}

type Service interface {
	SaveRoutine(ctx context.Context, owner auth.Identity, r routine.Routine) (*SaveResult, error)
	Get(ctx context.Context, userID, programID int) (*Program, error)
	List(ctx context.Context, userID int) ([]Program, error)
}

type service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) Service {
	return &service{repo: repo, notifier: notifier}
}

func (s *service) SaveRoutine(ctx context.Context, owner auth.Identity, r routine.Routine) (*SaveResult, error) {
	if issues := api.ValidateStruct(r); len(issues) > 0 {
		metrics.RecordRoutineSave("invalid")
		return nil, &InvalidRoutineError{Issues: issues}
	}

	id, created, err := s.repo.SaveRoutine(ctx, owner.UserID, r)
	if err != nil {
		metrics.RecordRoutineSave("error")
		logger.Error("failed to save routine", "user_id", owner.UserID, "routine_id", r.ID, "error", err)
		return nil, err
	}

	if !created {
		metrics.RecordRoutineSave("existing")
		return &SaveResult{ProgramID: id}, nil
	}

	metrics.RecordRoutineSave("created")
	logger.Info("routine saved", "user_id", owner.UserID, "program_id", id, "days", len(r.Days))

	if s.notifier != nil && owner.Email != "" {
		if err := s.notifier.SendProgramReady(ctx, owner.Email, owner.Name, r.Name, len(r.Days)); err != nil {
			logger.Warn("failed to queue program ready email", "user_id", owner.UserID, "error", err)
		}
	}

	return &SaveResult{ProgramID: id, Created: true}, nil
}

func (s *service) Get(ctx context.Context, userID, programID int) (*Program, error) {
	return s.repo.GetForUser(ctx, userID, programID)
}

func (s *service) List(ctx context.Context, userID int) ([]Program, error) {
	return s.repo.ListByUser(ctx, userID)
}
