package program

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"compilestrength/internal/db"
	"compilestrength/internal/exercise"
	"compilestrength/internal/routine"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveRoutine(ctx context.Context, userID int, rt routine.Routine) (int, bool, error) {
	var (
		programID int
		created   bool
	)

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		id, err := findProgramID(ctx, tx, userID, rt.Name)
		if err == nil {
			programID = id
			return nil
		}
		if !errors.Is(err, ErrProgramNotFound) {
			return err
		}

		err = tx.GetContext(ctx, &programID, `
			INSERT INTO workout_programs (user_id, source_routine_id, name, description, frequency, duration_weeks, difficulty, goals)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_id, name) DO NOTHING
			RETURNING id
		`, userID, rt.ID, rt.Name, rt.Description, rt.Frequency, rt.Duration, rt.Difficulty, Goals(rt.Goals))
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a race with a concurrent save of the same routine.
			programID, err = findProgramID(ctx, tx, userID, rt.Name)
			return err
		}
		if err != nil {
			return fmt.Errorf("insert program: %w", err)
		}
		created = true

		for i, day := range rt.Days {
			var dayID int
			err := tx.GetContext(ctx, &dayID, `
				INSERT INTO workout_days (program_id, name, day_number)
				VALUES ($1, $2, $3)
				RETURNING id
			`, programID, day.Name, i+1)
			if err != nil {
				return fmt.Errorf("insert day %d: %w", i+1, err)
			}

			for j, ex := range day.Exercises {
				exerciseID, err := exercise.Resolve(ctx, tx, exercise.Entry{
					Name:        ex.Name,
					MuscleGroup: ex.PrimaryMuscleGroup(),
					Equipment:   ex.Equipment,
					Difficulty:  rt.Difficulty,
				})
				if err != nil {
					return err
				}

				_, err = tx.ExecContext(ctx, `
					INSERT INTO program_exercises (program_id, day_id, exercise_id, sets, reps, rest_seconds, weight, notes, "order")
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				`, programID, dayID, exerciseID, ex.Sets, ex.Reps, ex.RestSeconds, ex.Weight, ex.Notes, j)
				if err != nil {
					return fmt.Errorf("insert program exercise %q: %w", ex.Name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return programID, created, nil
}

func findProgramID(ctx context.Context, q sqlx.QueryerContext, userID int, name string) (int, error) {
	var id int
	err := sqlx.GetContext(ctx, q, &id, `SELECT id FROM workout_programs WHERE user_id = $1 AND name = $2`, userID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProgramNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find program: %w", err)
	}
	return id, nil
}

// GetForUser loads a program with its days and exercises. Programs owned by
// someone else are reported as not found.
func (r *repository) GetForUser(ctx context.Context, userID, programID int) (*Program, error) {
	var p Program
	err := r.db.GetContext(ctx, &p, `
		SELECT id, user_id, source_routine_id, name, description, frequency, duration_weeks, difficulty, goals, created_at, updated_at
		FROM workout_programs
		WHERE id = $1 AND user_id = $2
	`, programID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, err
	}

	days := []Day{}
	err = r.db.SelectContext(ctx, &days, `
		SELECT id, program_id, name, day_number
		FROM workout_days
		WHERE program_id = $1
		ORDER BY day_number
	`, programID)
	if err != nil {
		return nil, err
	}

	var exercises []ProgramExercise
	err = r.db.SelectContext(ctx, &exercises, `
		SELECT pe.id, pe.program_id, pe.day_id, pe.exercise_id,
		       e.name AS exercise_name, e.muscle_group,
		       pe.sets, pe.reps, pe.rest_seconds, pe.weight, pe.notes, pe."order"
		FROM program_exercises pe
		JOIN exercises e ON e.id = pe.exercise_id
		WHERE pe.program_id = $1
		ORDER BY pe.day_id, pe."order"
	`, programID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[int]int, len(days))
	for i := range days {
		days[i].Exercises = []ProgramExercise{}
		byDay[days[i].ID] = i
	}
	for _, ex := range exercises {
		if i, ok := byDay[ex.DayID]; ok {
			days[i].Exercises = append(days[i].Exercises, ex)
		}
	}
	p.Days = days

	return &p, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Program, error) {
	programs := []Program{}
	err := r.db.SelectContext(ctx, &programs, `
		SELECT id, user_id, source_routine_id, name, description, frequency, duration_weeks, difficulty, goals, created_at, updated_at
		FROM workout_programs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return programs, nil
}
