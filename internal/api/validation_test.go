package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Sets int    `json:"sets" validate:"gte=1"`
	Reps string `json:"reps" validate:"required"`
}

type outer struct {
	Name      string  `json:"name" validate:"required,max=10"`
	Frequency int     `json:"frequency" validate:"gte=1,lte=7"`
	Level     string  `json:"level" validate:"oneof=beginner advanced"`
	Items     []inner `json:"items" validate:"min=1,dive"`
}

func TestValidateStruct_Valid(t *testing.T) {
	errs := ValidateStruct(outer{
		Name:      "ok",
		Frequency: 3,
		Level:     "beginner",
		Items:     []inner{{Sets: 3, Reps: "8-12"}},
	})
	assert.Empty(t, errs)
}

func TestValidateStruct_UsesJSONPaths(t *testing.T) {
	errs := ValidateStruct(outer{
		Name:      "ok",
		Frequency: 9,
		Level:     "beginner",
		Items:     []inner{{Sets: 3, Reps: "8"}, {Sets: 0, Reps: "8"}},
	})
	require.Len(t, errs, 2)

	assert.Equal(t, ValidationError{
		Field:   "frequency",
		Code:    "lte",
		Message: "frequency must be less than or equal to 7",
	}, errs[0])
	assert.Equal(t, "items[1].sets", errs[1].Field)
	assert.Equal(t, "gte", errs[1].Code)
}

func TestValidateStruct_Messages(t *testing.T) {
	errs := ValidateStruct(outer{Name: "this name is too long", Frequency: 1, Level: "pro"})
	require.Len(t, errs, 3)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "name must be at most 10 characters", byField["name"].Message)
	assert.Equal(t, "level must be one of: beginner advanced", byField["level"].Message)
	assert.Equal(t, "items must contain at least 1 items", byField["items"].Message)
}

func TestRespondWithValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithValidationErrors(c, []ValidationError{{Field: "name", Code: "required", Message: "name is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"validation failed","details":[{"field":"name","code":"required","message":"name is required"}]}`, w.Body.String())
}
