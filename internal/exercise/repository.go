package exercise

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Exercise, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := `
		SELECT id, name, muscle_group, equipment, difficulty, created_at
		FROM exercises
		WHERE ($1 = '' OR muscle_group = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3 OFFSET $4
	`

	exercises := []Exercise{}
	err := r.db.SelectContext(ctx, &exercises, query, f.MuscleGroup, strings.TrimSpace(f.Search), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}

	return exercises, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Exercise, error) {
	query := `
		SELECT id, name, muscle_group, equipment, difficulty, created_at
		FROM exercises
		WHERE id = $1
	`

	var e Exercise
	err := r.db.GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (r *repository) GetByName(ctx context.Context, name string) (*Exercise, error) {
	query := `
		SELECT id, name, muscle_group, equipment, difficulty, created_at
		FROM exercises
		WHERE name = $1
	`

	var e Exercise
	err := r.db.GetContext(ctx, &e, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// Resolve returns the catalog id for e.Name, inserting the row when the
// name is new. It runs on q so callers can include it in a transaction.
// Names are matched exactly; "Squat" and "squat " are different rows.
func Resolve(ctx context.Context, q sqlx.QueryerContext, e Entry) (int, error) {
	var id int
	err := sqlx.GetContext(ctx, q, &id, `SELECT id FROM exercises WHERE name = $1`, e.Name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("look up exercise %q: %w", e.Name, err)
	}

	// A concurrent insert of the same name resolves to the existing row.
	err = sqlx.GetContext(ctx, q, &id, `
		INSERT INTO exercises (name, muscle_group, equipment, difficulty)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, e.Name, e.MuscleGroup, e.Equipment, e.Difficulty)
	if err != nil {
		return 0, fmt.Errorf("insert exercise %q: %w", e.Name, err)
	}

	return id, nil
}
