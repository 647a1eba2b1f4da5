package program

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compilestrength/internal/api"
	"compilestrength/internal/auth"
	"compilestrength/internal/logger"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// SaveRoutine persists a generated routine as a program and returns its id.
// Saving the same routine name twice returns the first program.
func (h *Handler) SaveRoutine(c *gin.Context) {
	owner, ok := auth.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req SaveRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationErrors(c, api.FromError(err))
		return
	}

	result, err := h.service.SaveRoutine(c.Request.Context(), owner, *req.Routine)
	if err != nil {
		var invalid *InvalidRoutineError
		if errors.As(err, &invalid) {
			api.RespondWithValidationErrors(c, invalid.Issues)
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to save routine"})
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	programs, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		logger.Error("failed to list programs", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch programs"})
		return
	}

	c.JSON(http.StatusOK, programs)
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid program ID"})
		return
	}

	p, err := h.service.Get(c.Request.Context(), userID, id)
	if errors.Is(err, ErrProgramNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Program not found"})
		return
	}
	if err != nil {
		logger.Error("failed to get program", "program_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch program"})
		return
	}

	c.JSON(http.StatusOK, p)
}
