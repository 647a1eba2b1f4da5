package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"compilestrength/internal/db"
)

const sessionColumns = `id, user_id, program_id, day_id, name, notes, started_at, completed_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// StartSession opens a session for userID. The user row is locked for the
// duration of the transaction so two concurrent starts cannot both pass the
// active-session check.
func (r *repository) StartSession(ctx context.Context, userID int, req StartRequest) (*Session, error) {
	var s Session

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		active, err := db.Exists(ctx, tx,
			`SELECT EXISTS(SELECT 1 FROM workout_sessions WHERE user_id = $1 AND completed_at IS NULL)`, userID)
		if err != nil {
			return err
		}
		if active {
			return ErrActiveSessionExists
		}

		name := req.Name
		programID := req.ProgramID

		switch {
		case req.DayID != nil:
			var day struct {
				ProgramID int    `db:"program_id"`
				Name      string `db:"name"`
			}
			err := tx.GetContext(ctx, &day, `
				SELECT d.program_id, d.name
				FROM workout_days d
				JOIN workout_programs p ON p.id = d.program_id
				WHERE d.id = $1 AND p.user_id = $2
			`, *req.DayID, userID)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProgramDayNotFound
			}
			if err != nil {
				return err
			}
			if programID != nil && *programID != day.ProgramID {
				return ErrProgramDayNotFound
			}
			programID = &day.ProgramID
			if name == "" {
				name = day.Name
			}
		case programID != nil:
			owned, err := db.Exists(ctx, tx,
				`SELECT EXISTS(SELECT 1 FROM workout_programs WHERE id = $1 AND user_id = $2)`, *programID, userID)
			if err != nil {
				return err
			}
			if !owned {
				return ErrProgramDayNotFound
			}
		}

		if name == "" {
			name = "Workout"
		}

		return tx.QueryRowxContext(ctx, `
			INSERT INTO workout_sessions (user_id, program_id, day_id, name, notes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+sessionColumns,
			userID, programID, req.DayID, name, req.Notes,
		).StructScan(&s)
	})
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) GetForUser(ctx context.Context, userID, sessionID int) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, `
		SELECT `+sessionColumns+`
		FROM workout_sessions
		WHERE id = $1 AND user_id = $2
	`, sessionID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadSets(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetActive(ctx context.Context, userID int) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, `
		SELECT `+sessionColumns+`
		FROM workout_sessions
		WHERE user_id = $1 AND completed_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadSets(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) loadSets(ctx context.Context, s *Session) error {
	sets := []Set{}
	err := r.db.SelectContext(ctx, &sets, `
		SELECT id, session_id, exercise_id, set_number, weight, reps, rpe, created_at
		FROM workout_sets
		WHERE session_id = $1
		ORDER BY created_at, id
	`, s.ID)
	if err != nil {
		return err
	}
	s.Sets = sets
	return nil
}

func (r *repository) List(ctx context.Context, userID, limit, offset int) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	sessions := []Session{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT `+sessionColumns+`
		FROM workout_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// AddSet numbers sets per exercise within the session, starting at 1.
func (r *repository) AddSet(ctx context.Context, userID, sessionID int, req LogSetRequest) (*Set, error) {
	var set Set

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var s Session
		err := tx.GetContext(ctx, &s, `
			SELECT `+sessionColumns+`
			FROM workout_sessions
			WHERE id = $1 AND user_id = $2
			FOR UPDATE
		`, sessionID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if !s.Active() {
			return ErrSessionNotFoundOrCompleted
		}

		exists, err := db.Exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM exercises WHERE id = $1)`, req.ExerciseID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrExerciseNotFound
		}

		return tx.QueryRowxContext(ctx, `
			INSERT INTO workout_sets (session_id, exercise_id, set_number, weight, reps, rpe)
			SELECT $1, $2, COALESCE(MAX(set_number), 0) + 1, $3, $4, $5
			FROM workout_sets
			WHERE session_id = $1 AND exercise_id = $2
			RETURNING id, session_id, exercise_id, set_number, weight, reps, rpe, created_at
		`, sessionID, req.ExerciseID, req.Weight, req.Reps, req.RPE).StructScan(&set)
	})
	if err != nil {
		return nil, err
	}

	return &set, nil
}

func (r *repository) Complete(ctx context.Context, userID, sessionID int, notes string) (*Session, error) {
	var s Session
	err := r.db.QueryRowxContext(ctx, `
		UPDATE workout_sessions
		SET completed_at = NOW(),
		    notes = CASE WHEN $3 = '' THEN notes ELSE $3 END
		WHERE id = $1 AND user_id = $2 AND completed_at IS NULL
		RETURNING `+sessionColumns,
		sessionID, userID, notes,
	).StructScan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFoundOrCompleted
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
