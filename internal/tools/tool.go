package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"compilestrength/internal/api"
	"compilestrength/internal/usage"
)

// Name is the closed set of capabilities the model can call.
type Name string

const (
	UpdateUserProfile     Name = "updateUserProfile"
	CreateWorkoutRoutine  Name = "createWorkoutRoutine"
	AddWorkoutDay         Name = "addWorkoutDay"
	AddExercise           Name = "addExercise"
	ExplainChoice         Name = "explainChoice"
	SetGenerationProgress Name = "setGenerationProgress"
)

var ErrUnknownTool = errors.New("unknown tool")

// InvalidInputError is returned by Bind when the model's arguments do not
// satisfy the tool's input schema.
type InvalidInputError struct {
	Tool   Name
	Issues []api.ValidationError
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Message)
	}
	return fmt.Sprintf("invalid %s input: %s", e.Tool, strings.Join(parts, "; "))
}

type Definition struct {
	Name        Name
	Description string
	Parameters  jsonschema.Definition
	// Meter is the usage counter consumed by one successful call, if any.
	Meter usage.Kind
}

// Invocation is a validated call ready to execute.
type Invocation struct {
	Tool  Name
	Meter usage.Kind
	Input any
	run   func() (any, error)
}

func (i *Invocation) Execute() (any, error) {
	return i.run()
}

type binder interface {
	definition() Definition
	bind(raw json.RawMessage) (*Invocation, error)
}

// tool pairs a typed input with its executor. Input is decoded and
// validated before exec can ever see it.
type tool[In any, Out any] struct {
	def  Definition
	exec func(In) (Out, error)
}

func (t *tool[In, Out]) definition() Definition {
	return t.def
}

func (t *tool[In, Out]) bind(raw json.RawMessage) (*Invocation, error) {
	var in In
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &InvalidInputError{
			Tool:   t.def.Name,
			Issues: []api.ValidationError{{Field: "", Code: "invalid_json", Message: err.Error()}},
		}
	}
	if issues := api.ValidateStruct(in); len(issues) > 0 {
		return nil, &InvalidInputError{Tool: t.def.Name, Issues: issues}
	}

	return &Invocation{
		Tool:  t.def.Name,
		Meter: t.def.Meter,
		Input: in,
		run: func() (any, error) {
			return t.exec(in)
		},
	}, nil
}
