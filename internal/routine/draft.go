package routine

// Drafts are the shapes the model produces. They carry no identifiers or
// positions; the Stamper assigns those.

type RoutineDraft struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=2000"`
	Frequency   int        `json:"frequency" validate:"gte=1,lte=7"`
	Duration    int        `json:"duration" validate:"gte=4,lte=52"`
	Difficulty  string     `json:"difficulty" validate:"oneof=beginner intermediate advanced"`
	Goals       []string   `json:"goals" validate:"dive,required"`
	Days        []DayDraft `json:"days" validate:"min=1,max=7,dive"`
}

type DayDraft struct {
	Name      string          `json:"name" validate:"required,max=100"`
	Exercises []ExerciseDraft `json:"exercises" validate:"min=1,dive"`
}

type ExerciseDraft struct {
	Name         string   `json:"name" validate:"required,max=100"`
	MuscleGroups []string `json:"muscleGroups" validate:"min=1,dive,required"`
	Equipment    string   `json:"equipment"`
	Sets         int      `json:"sets" validate:"gte=1,lte=20"`
	Reps         string   `json:"reps" validate:"required,max=20"`
	RestSeconds  int      `json:"restSeconds" validate:"gte=30,lte=600"`
	Weight       *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
	Notes        string   `json:"notes,omitempty" validate:"max=500"`
}
