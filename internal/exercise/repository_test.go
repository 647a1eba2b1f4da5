package exercise

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	dbx := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { dbx.Close() })
	return dbx, mock
}

var columns = []string{"id", "name", "muscle_group", "equipment", "difficulty", "created_at"}

func TestList_DefaultsLimit(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM exercises`)).
		WithArgs("chest", "", 50, 0).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "Bench Press", "chest", "barbell", "intermediate", time.Now()).
			AddRow(2, "Push Up", "chest", "", "beginner", time.Now()))

	out, err := repo.List(context.Background(), ListFilter{MuscleGroup: "chest", Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByName_NotFound(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE name = $1`)).
		WithArgs("Squat").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByName(context.Background(), "Squat")
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestResolve_Existing(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM exercises WHERE name = $1`)).
		WithArgs("Squat").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := Resolve(context.Background(), db, Entry{Name: "Squat", MuscleGroup: "quads", Difficulty: "beginner"})
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_InsertsNewName(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM exercises WHERE name = $1`)).
		WithArgs("Squat").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO exercises (name, muscle_group, equipment, difficulty)`)).
		WithArgs("Squat", "quads", "barbell", "beginner").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := Resolve(context.Background(), db, Entry{Name: "Squat", MuscleGroup: "quads", Equipment: "barbell", Difficulty: "beginner"})
	require.NoError(t, err)
	assert.Equal(t, 11, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
