package program

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"compilestrength/internal/api"
	"compilestrength/internal/routine"
)

var ErrProgramNotFound = errors.New("program not found")

// Goals is stored as a JSONB array.
type Goals []string

func (g Goals) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(g))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (g *Goals) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*g = Goals{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan goals: unsupported type %T", src)
	}
	return json.Unmarshal(data, (*[]string)(g))
}

type Program struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"userId"`
	SourceRoutineID string    `db:"source_routine_id" json:"sourceRoutineId"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	Frequency       int       `db:"frequency" json:"frequency"`
	DurationWeeks   int       `db:"duration_weeks" json:"durationWeeks"`
	Difficulty      string    `db:"difficulty" json:"difficulty"`
	Goals           Goals     `db:"goals" json:"goals"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
	Days            []Day     `db:"-" json:"days,omitempty"`
}

type Day struct {
	ID        int               `db:"id" json:"id"`
	ProgramID int               `db:"program_id" json:"programId"`
	Name      string            `db:"name" json:"name"`
	DayNumber int               `db:"day_number" json:"dayNumber"`
	Exercises []ProgramExercise `db:"-" json:"exercises"`
}

type ProgramExercise struct {
	ID           int      `db:"id" json:"id"`
	ProgramID    int      `db:"program_id" json:"programId"`
	DayID        int      `db:"day_id" json:"dayId"`
	ExerciseID   int      `db:"exercise_id" json:"exerciseId"`
	ExerciseName string   `db:"exercise_name" json:"exerciseName"`
	MuscleGroup  string   `db:"muscle_group" json:"muscleGroup"`
	Sets         int      `db:"sets" json:"sets"`
	Reps         string   `db:"reps" json:"reps"`
	RestSeconds  int      `db:"rest_seconds" json:"restSeconds"`
	Weight       *float64 `db:"weight" json:"weight,omitempty"`
	Notes        string   `db:"notes" json:"notes"`
	Order        int      `db:"order" json:"order"`
}

type SaveRoutineRequest struct {
	Routine *routine.Routine `json:"routine" binding:"required"`
}

type SaveResult struct {
	ProgramID int  `json:"programId"`
	Created   bool `json:"created"`
}

// InvalidRoutineError lists every field that failed validation.
type InvalidRoutineError struct {
	Issues []api.ValidationError
}

func (e *InvalidRoutineError) Error() string {
	return fmt.Sprintf("invalid routine: %d field errors", len(e.Issues))
}
