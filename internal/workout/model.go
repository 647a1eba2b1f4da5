package workout

import (
	"errors"
	"time"
)

var (
	ErrActiveSessionExists        = errors.New("an active workout session already exists")
	ErrSessionNotFound            = errors.New("workout session not found")
	ErrSessionNotFoundOrCompleted = errors.New("workout session not found or already completed")
	ErrProgramDayNotFound         = errors.New("program or day not found")
	ErrExerciseNotFound           = errors.New("exercise not found")
	ErrInvalidRange               = errors.New("invalid date range")
)

type Session struct {
	ID          int        `db:"id" json:"id"`
	UserID      int        `db:"user_id" json:"userId"`
	ProgramID   *int       `db:"program_id" json:"programId,omitempty"`
	DayID       *int       `db:"day_id" json:"dayId,omitempty"`
	Name        string     `db:"name" json:"name"`
	Notes       string     `db:"notes" json:"notes"`
	StartedAt   time.Time  `db:"started_at" json:"startedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	Sets        []Set      `db:"-" json:"sets,omitempty"`
}

func (s *Session) Active() bool {
	return s.CompletedAt == nil
}

type Set struct {
	ID         int       `db:"id" json:"id"`
	SessionID  int       `db:"session_id" json:"sessionId"`
	ExerciseID int       `db:"exercise_id" json:"exerciseId"`
	SetNumber  int       `db:"set_number" json:"setNumber"`
	Weight     float64   `db:"weight" json:"weight"`
	Reps       int       `db:"reps" json:"reps"`
	RPE        *int      `db:"rpe" json:"rpe,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type StartRequest struct {
	ProgramID *int   `json:"programId" binding:"omitempty,min=1"`
	DayID     *int   `json:"dayId" binding:"omitempty,min=1"`
	Name      string `json:"name" binding:"max=100"`
	Notes     string `json:"notes" binding:"max=1000"`
}

type LogSetRequest struct {
	ExerciseID int     `json:"exerciseId" binding:"required,min=1"`
	Weight     float64 `json:"weight" binding:"gte=0"`
	Reps       int     `json:"reps" binding:"required,min=1"`
	RPE        *int    `json:"rpe" binding:"omitempty,min=1,max=10"`
}

type CompleteRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

type ListQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}
