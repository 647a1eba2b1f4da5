package exercise

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compilestrength/internal/api"
	"compilestrength/internal/logger"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(c *gin.Context) {
	var f ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if f.Name != "" {
		h.lookup(c, f.Name)
		return
	}

	exercises, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		logger.Error("failed to list exercises", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch exercises"})
		return
	}

	c.JSON(http.StatusOK, exercises)
}

// lookup answers an exact-name query with zero or one exercise.
func (h *Handler) lookup(c *gin.Context, name string) {
	e, err := h.repo.GetByName(c.Request.Context(), name)
	if errors.Is(err, ErrExerciseNotFound) {
		c.JSON(http.StatusOK, []Exercise{})
		return
	}
	if err != nil {
		logger.Error("failed to look up exercise", "name", name, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch exercises"})
		return
	}

	c.JSON(http.StatusOK, []Exercise{*e})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid exercise ID"})
		return
	}

	e, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrExerciseNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Exercise not found"})
		return
	}
	if err != nil {
		logger.Error("failed to get exercise", "exercise_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch exercise"})
		return
	}

	c.JSON(http.StatusOK, e)
}
