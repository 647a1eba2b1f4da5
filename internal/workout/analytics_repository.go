package workout

import (
	"context"
	"time"
)

type VolumePoint struct {
	Bucket time.Time `db:"bucket" json:"bucket"`
	Volume float64   `db:"volume" json:"volume"`
	Sets   int       `db:"sets" json:"sets"`
}

type PersonalRecord struct {
	ExerciseID   int       `db:"exercise_id" json:"exerciseId"`
	ExerciseName string    `db:"exercise_name" json:"exerciseName"`
	Weight       float64   `db:"weight" json:"weight"`
	Reps         int       `db:"reps" json:"reps"`
	AchievedAt   time.Time `db:"achieved_at" json:"achievedAt"`
}

// VolumeByDay sums weight x reps per calendar day for sessions started in [from, to).
func (r *repository) VolumeByDay(ctx context.Context, userID int, from, to time.Time) ([]VolumePoint, error) {
	query := `
SELECT
  DATE(s.started_at)             AS bucket,
  COALESCE(SUM(ws.weight * ws.reps), 0) AS volume,
  COUNT(ws.id)                   AS sets
FROM workout_sessions s
JOIN workout_sets ws ON ws.session_id = s.id
WHERE s.user_id = $1 AND s.started_at >= $2 AND s.started_at < $3
GROUP BY DATE(s.started_at)
ORDER BY bucket;
`
	stats := []VolumePoint{}
	if err := r.db.SelectContext(ctx, &stats, query, userID, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

// PersonalRecords returns the heaviest set per exercise; ties go to more reps,
// then the earliest set.
func (r *repository) PersonalRecords(ctx context.Context, userID int) ([]PersonalRecord, error) {
	query := `
SELECT DISTINCT ON (ws.exercise_id)
  ws.exercise_id,
  e.name        AS exercise_name,
  ws.weight,
  ws.reps,
  ws.created_at AS achieved_at
FROM workout_sets ws
JOIN workout_sessions s ON s.id = ws.session_id
JOIN exercises e ON e.id = ws.exercise_id
WHERE s.user_id = $1
ORDER BY ws.exercise_id, ws.weight DESC, ws.reps DESC, ws.created_at;
`
	records := []PersonalRecord{}
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, err
	}
	return records, nil
}
