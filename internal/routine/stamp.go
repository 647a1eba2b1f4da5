package routine

import (
	"time"

	"github.com/google/uuid"
)

// Stamper assigns identifiers, positional order and timestamps to freshly
// generated fragments. Every code path that turns a draft into a routine,
// day or exercise goes through it.
type Stamper struct {
	NewID func() string
	Now   func() time.Time
}

func NewStamper() *Stamper {
	return &Stamper{NewID: uuid.NewString, Now: time.Now}
}

func (s *Stamper) Routine(d RoutineDraft) Routine {
	now := s.Now()
	r := Routine{
		ID:          s.NewID(),
		Name:        d.Name,
		Description: d.Description,
		Frequency:   d.Frequency,
		Duration:    d.Duration,
		Difficulty:  d.Difficulty,
		Goals:       append([]string{}, d.Goals...),
		Days:        make([]Day, 0, len(d.Days)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, day := range d.Days {
		r.Days = append(r.Days, s.Day(day, i))
	}
	return r
}

func (s *Stamper) Day(d DayDraft, order int) Day {
	day := Day{
		ID:        s.NewID(),
		Name:      d.Name,
		Order:     order,
		Exercises: make([]Exercise, 0, len(d.Exercises)),
	}
	for i, ex := range d.Exercises {
		day.Exercises = append(day.Exercises, s.Exercise(ex, i))
	}
	return day
}

func (s *Stamper) Exercise(d ExerciseDraft, order int) Exercise {
	var weight *float64
	if d.Weight != nil {
		w := *d.Weight
		weight = &w
	}
	return Exercise{
		ID:           s.NewID(),
		Name:         d.Name,
		MuscleGroups: append([]string{}, d.MuscleGroups...),
		Equipment:    d.Equipment,
		Sets:         d.Sets,
		Reps:         d.Reps,
		RestSeconds:  d.RestSeconds,
		Weight:       weight,
		Notes:        d.Notes,
		Order:        order,
	}
}
