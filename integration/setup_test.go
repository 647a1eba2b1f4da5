package integration_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"compilestrength/internal/auth"
	"compilestrength/internal/db"
	"compilestrength/internal/routine"
	"compilestrength/internal/subscription"
)

// setupTestDB connects to DATABASE_URL, applies migrations and empties every
// table. Tests are skipped with -short or when no database is configured.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	conn, err := db.Connect(url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.RunMigrations(conn, "../migrations"))

	_, err = conn.Exec(`TRUNCATE workout_sets, workout_sessions, program_exercises, workout_days,
		workout_programs, exercises, usage_events, usage_periods, subscriptions, plans, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return conn
}

func createUser(t *testing.T, conn *sqlx.DB, email, name string) int {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	var id int
	err = conn.QueryRow(`
		INSERT INTO users (email, name, password_hash, role)
		VALUES ($1, $2, $3, 'user')
		RETURNING id
	`, email, name, hash).Scan(&id)
	require.NoError(t, err)
	return id
}

func activate(t *testing.T, svc subscription.Service, userID int, providerID string, created time.Time) {
	t.Helper()
	var ev subscription.WebhookEvent
	ev.Meta.EventName = subscription.EventSubscriptionCreated
	ev.Meta.CustomData.UserID = subscription.FlexibleID(fmt.Sprint(userID))
	ev.Data.ID = subscription.FlexibleID(providerID)
	ev.Data.Attributes.Status = subscription.StatusActive
	ev.Data.Attributes.CreatedAt = created

	_, err := svc.HandleWebhook(context.Background(), ev)
	require.NoError(t, err)
}

func fullBody(name string) routine.Routine {
	now := time.Now().UTC()
	return routine.Routine{
		ID:         "r-" + name,
		Name:       name,
		Frequency:  2,
		Duration:   8,
		Difficulty: routine.DifficultyBeginner,
		Goals:      []string{"strength"},
		Days: []routine.Day{
			{ID: "d-1", Name: "Day A", Order: 0, Exercises: []routine.Exercise{
				{ID: "e-1", Name: "Goblet Squat", MuscleGroups: []string{"quads"}, Equipment: "dumbbell", Sets: 3, Reps: "10", RestSeconds: 90, Order: 0},
				{ID: "e-2", Name: "Push Up", MuscleGroups: []string{"chest"}, Equipment: "bodyweight", Sets: 3, Reps: "12", RestSeconds: 60, Order: 1},
			}},
			{ID: "d-2", Name: "Day B", Order: 1, Exercises: []routine.Exercise{
				{ID: "e-3", Name: "Romanian Deadlift", MuscleGroups: []string{"hamstrings"}, Equipment: "dumbbell", Sets: 3, Reps: "10", RestSeconds: 90, Order: 0},
			}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
