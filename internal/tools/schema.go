package tools

import "github.com/sashabaranov/go-openai/jsonschema"

func str(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

func integer(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Integer, Description: desc}
}

func stringList(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Array, Description: desc, Items: &jsonschema.Definition{Type: jsonschema.String}}
}

func enum(desc string, values ...string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc, Enum: values}
}

func object(props map[string]jsonschema.Definition, required ...string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Object, Properties: props, Required: required}
}

var difficulties = []string{"beginner", "intermediate", "advanced"}

func exerciseSchema() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"name":         str("Exercise name, e.g. Barbell Bench Press"),
		"muscleGroups": stringList("Muscle groups trained; the first one is the primary group"),
		"equipment":    str("Equipment required"),
		"sets":         integer("Number of working sets, 1 to 20"),
		"reps":         str("Rep target such as 8-12 or 5"),
		"restSeconds":  integer("Rest between sets in seconds, 30 to 600"),
		"weight":       {Type: jsonschema.Number, Description: "Suggested load in kilograms"},
		"notes":        str("Coaching notes"),
	}, "name", "muscleGroups", "sets", "reps", "restSeconds")
}

func daySchema() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"name": str("Day name, e.g. Push A"),
		"exercises": {
			Type:        jsonschema.Array,
			Description: "At least one exercise",
			Items:       ptr(exerciseSchema()),
		},
	}, "name", "exercises")
}

func routineSchema() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"name":        str("Routine name"),
		"description": str("Short summary of the routine"),
		"frequency":   integer("Training days per week, 1 to 7"),
		"duration":    integer("Program length in weeks, 4 to 52"),
		"difficulty":  enum("Routine difficulty", difficulties...),
		"goals":       stringList("Training goals the routine serves"),
		"days": {
			Type:        jsonschema.Array,
			Description: "One to seven training days",
			Items:       ptr(daySchema()),
		},
	}, "name", "frequency", "duration", "difficulty", "goals", "days")
}

func profileSchema() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"experience": enum("Training experience", difficulties...),
		"goals": {
			Type:        jsonschema.Array,
			Description: "Primary goals",
			Items:       ptr(enum("", "muscle_gain", "strength", "fat_loss", "endurance", "general_fitness")),
		},
		"availableEquipment": stringList("Equipment the user can access"),
		"timeConstraints": object(map[string]jsonschema.Definition{
			"daysPerWeek":       integer("Days available per week, 1 to 7"),
			"minutesPerSession": integer("Minutes available per session, 15 to 240"),
		}, "daysPerWeek", "minutesPerSession"),
		"injuries":    stringList("Injuries or limitations"),
		"preferences": stringList("Exercise preferences"),
	}, "experience", "goals", "availableEquipment", "timeConstraints")
}

func addDaySchema() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"routineId": str("Id of the routine to extend"),
		"day":       daySchema(),
	}, "routineId", "day")
}

func addExerciseSchema() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"routineId": str("Id of the routine"),
		"dayId":     str("Id of the day to extend"),
		"exercise":  exerciseSchema(),
	}, "routineId", "dayId", "exercise")
}

func explainSchema() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"topic":       str("What is being explained"),
		"explanation": str("The reasoning, in plain language"),
	}, "topic", "explanation")
}

func progressSchema() jsonschema.Definition {
	return object(map[string]jsonschema.Definition{
		"steps": {
			Type: jsonschema.Array,
			Items: ptr(object(map[string]jsonschema.Definition{
				"step":        str("Step label"),
				"description": str("What happens in this step"),
				"completed":   {Type: jsonschema.Boolean},
			}, "step", "completed")),
		},
	}, "steps")
}

func ptr(d jsonschema.Definition) *jsonschema.Definition {
	return &d
}
