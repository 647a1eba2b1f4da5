package program

import (
	"context"

	"compilestrength/internal/routine"
)

type Repository interface {
	// SaveRoutine persists r for userID in one transaction. When a program
	// with the same name already exists for the user its id is returned
	// with created=false and nothing is written.
	SaveRoutine(ctx context.Context, userID int, r routine.Routine) (programID int, created bool, err error)
	GetForUser(ctx context.Context, userID, programID int) (*Program, error)
	ListByUser(ctx context.Context, userID int) ([]Program, error)
}
