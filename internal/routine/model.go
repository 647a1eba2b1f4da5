package routine

import (
	"errors"
	"time"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

var ErrDayNotFound = errors.New("day not found in routine")

// Routine is a generated workout plan before it is normalized into a program.
type Routine struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
	Frequency   int       `json:"frequency" validate:"gte=1,lte=7"`
	Duration    int       `json:"duration" validate:"gte=4,lte=52"`
	Difficulty  string    `json:"difficulty" validate:"oneof=beginner intermediate advanced"`
	Goals       []string  `json:"goals" validate:"dive,required"`
	Days        []Day     `json:"days" validate:"min=1,max=7,dive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Day struct {
	ID        string     `json:"id" validate:"required"`
	Name      string     `json:"name" validate:"required,max=100"`
	Order     int        `json:"order" validate:"gte=0"`
	Exercises []Exercise `json:"exercises" validate:"min=1,dive"`
}

type Exercise struct {
	ID           string   `json:"id" validate:"required"`
	Name         string   `json:"name" validate:"required,max=100"`
	MuscleGroups []string `json:"muscleGroups" validate:"min=1,dive,required"`
	Equipment    string   `json:"equipment"`
	Sets         int      `json:"sets" validate:"gte=1,lte=20"`
	Reps         string   `json:"reps" validate:"required,max=20"`
	RestSeconds  int      `json:"restSeconds" validate:"gte=30,lte=600"`
	Weight       *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
	Notes        string   `json:"notes,omitempty" validate:"max=500"`
	Order        int      `json:"order" validate:"gte=0"`
}

// PrimaryMuscleGroup is the catalog muscle group for the exercise.
func (e Exercise) PrimaryMuscleGroup() string {
	if len(e.MuscleGroups) == 0 {
		return ""
	}
	return e.MuscleGroups[0]
}

// Key identifies a routine for persistence deduplication.
type Key struct {
	ID   string
	Name string
}

func (r Routine) Key() Key {
	return Key{ID: r.ID, Name: r.Name}
}

// Clone returns a deep copy so snapshots never share slices.
func (r Routine) Clone() Routine {
	out := r
	out.Goals = append([]string(nil), r.Goals...)
	out.Days = make([]Day, len(r.Days))
	for i, d := range r.Days {
		out.Days[i] = d.clone()
	}
	return out
}

func (d Day) clone() Day {
	out := d
	out.Exercises = make([]Exercise, len(d.Exercises))
	for i, e := range d.Exercises {
		ex := e
		ex.MuscleGroups = append([]string(nil), e.MuscleGroups...)
		if e.Weight != nil {
			w := *e.Weight
			ex.Weight = &w
		}
		out.Exercises[i] = ex
	}
	return out
}

// WithDay returns a copy of r with day appended at the next position.
func (r Routine) WithDay(day Day, now time.Time) Routine {
	out := r.Clone()
	day.Order = len(out.Days)
	out.Days = append(out.Days, day.clone())
	out.UpdatedAt = now
	return out
}

// WithExercise returns a copy of r with ex appended to the day dayID.
func (r Routine) WithExercise(dayID string, ex Exercise, now time.Time) (Routine, error) {
	out := r.Clone()
	for i := range out.Days {
		if out.Days[i].ID != dayID {
			continue
		}
		ex.Order = len(out.Days[i].Exercises)
		ex.MuscleGroups = append([]string(nil), ex.MuscleGroups...)
		out.Days[i].Exercises = append(out.Days[i].Exercises, ex)
		out.UpdatedAt = now
		return out, nil
	}
	return r, ErrDayNotFound
}

// Profile is what the coach learned about the user.
type Profile struct {
	Experience         string          `json:"experience" validate:"oneof=beginner intermediate advanced"`
	Goals              []string        `json:"goals" validate:"min=1,dive,oneof=muscle_gain strength fat_loss endurance general_fitness"`
	AvailableEquipment []string        `json:"availableEquipment" validate:"min=1,dive,required"`
	TimeConstraints    TimeConstraints `json:"timeConstraints"`
	Injuries           []string        `json:"injuries,omitempty"`
	Preferences        []string        `json:"preferences,omitempty"`
}

type TimeConstraints struct {
	DaysPerWeek       int `json:"daysPerWeek" validate:"gte=1,lte=7"`
	MinutesPerSession int `json:"minutesPerSession" validate:"gte=15,lte=240"`
}

type ProgressStep struct {
	Step        string `json:"step" validate:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}
