package exercise

import "time"

// Exercise is a shared catalog row. Names are unique and matched exactly.
type Exercise struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	MuscleGroup string    `db:"muscle_group" json:"muscleGroup"`
	Equipment   string    `db:"equipment" json:"equipment"`
	Difficulty  string    `db:"difficulty" json:"difficulty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Entry describes a catalog exercise to resolve or create.
type Entry struct {
	Name        string
	MuscleGroup string
	Equipment   string
	Difficulty  string
}

type ListFilter struct {
	// Name matches one catalog entry exactly; the other fields are ignored.
	Name        string `form:"name"`
	MuscleGroup string `form:"muscleGroup"`
	Search      string `form:"q"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}
