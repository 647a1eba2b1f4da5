package tools

import (
	"encoding/json"
	"fmt"

	"compilestrength/internal/routine"
	"compilestrength/internal/usage"
)

type ProfileResult struct {
	Profile routine.Profile `json:"profile"`
	Message string          `json:"message"`
}

type RoutineResult struct {
	Routine routine.Routine `json:"routine"`
}

type AddDayInput struct {
	RoutineID string           `json:"routineId" validate:"required"`
	Day       routine.DayDraft `json:"day"`
}

type DayResult struct {
	RoutineID string      `json:"routineId"`
	Day       routine.Day `json:"day"`
}

type AddExerciseInput struct {
	RoutineID string                `json:"routineId" validate:"required"`
	DayID     string                `json:"dayId" validate:"required"`
	Exercise  routine.ExerciseDraft `json:"exercise"`
}

type ExerciseResult struct {
	RoutineID string           `json:"routineId"`
	DayID     string           `json:"dayId"`
	Exercise  routine.Exercise `json:"exercise"`
}

type Explanation struct {
	Topic       string `json:"topic" validate:"required,max=200"`
	Explanation string `json:"explanation" validate:"required,max=4000"`
}

type Progress struct {
	Steps []routine.ProgressStep `json:"steps" validate:"min=1,max=20,dive"`
}

// Registry is the dispatch table, built once at startup.
type Registry struct {
	order []Name
	tools map[Name]binder
}

func NewRegistry(stamper *routine.Stamper) *Registry {
	r := &Registry{tools: map[Name]binder{}}

	r.add(&tool[routine.Profile, ProfileResult]{
		def: Definition{
			Name:        UpdateUserProfile,
			Description: "Record the user's training experience, goals, available equipment and time constraints.",
			Parameters:  profileSchema(),
		},
		exec: func(in routine.Profile) (ProfileResult, error) {
			return ProfileResult{Profile: in, Message: "Profile updated"}, nil
		},
	})

	r.add(&tool[routine.RoutineDraft, RoutineResult]{
		def: Definition{
			Name:        CreateWorkoutRoutine,
			Description: "Create a complete workout routine with all training days and exercises.",
			Parameters:  routineSchema(),
			Meter:       usage.KindCompile,
		},
		exec: func(in routine.RoutineDraft) (RoutineResult, error) {
			return RoutineResult{Routine: stamper.Routine(in)}, nil
		},
	})

	r.add(&tool[AddDayInput, DayResult]{
		def: Definition{
			Name:        AddWorkoutDay,
			Description: "Append one training day to the current routine.",
			Parameters:  addDaySchema(),
			Meter:       usage.KindRoutineEdit,
		},
		exec: func(in AddDayInput) (DayResult, error) {
			// Final position is assigned when the day is appended to the routine.
			return DayResult{RoutineID: in.RoutineID, Day: stamper.Day(in.Day, 0)}, nil
		},
	})

	r.add(&tool[AddExerciseInput, ExerciseResult]{
		def: Definition{
			Name:        AddExercise,
			Description: "Append one exercise to a day of the current routine.",
			Parameters:  addExerciseSchema(),
			Meter:       usage.KindRoutineEdit,
		},
		exec: func(in AddExerciseInput) (ExerciseResult, error) {
			return ExerciseResult{RoutineID: in.RoutineID, DayID: in.DayID, Exercise: stamper.Exercise(in.Exercise, 0)}, nil
		},
	})

	r.add(&tool[Explanation, Explanation]{
		def: Definition{
			Name:        ExplainChoice,
			Description: "Explain why a programming decision was made.",
			Parameters:  explainSchema(),
		},
		exec: func(in Explanation) (Explanation, error) {
			return in, nil
		},
	})

	r.add(&tool[Progress, Progress]{
		def: Definition{
			Name:        SetGenerationProgress,
			Description: "Report routine generation progress as a list of steps.",
			Parameters:  progressSchema(),
		},
		exec: func(in Progress) (Progress, error) {
			return in, nil
		},
	})

	return r
}

func (r *Registry) add(b binder) {
	name := b.definition().Name
	r.order = append(r.order, name)
	r.tools[name] = b
}

// Definitions lists the tools in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.tools[n].definition())
	}
	return out
}

// Bind resolves name and validates raw against the tool's input schema.
// The returned error is *InvalidInputError for schema violations.
func (r *Registry) Bind(name string, raw json.RawMessage) (*Invocation, error) {
	b, ok := r.tools[Name(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return b.bind(raw)
}

