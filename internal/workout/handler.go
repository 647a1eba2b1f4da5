package workout

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

func (h *Handler) Start(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req StartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
	}

	session, err := h.service.Start(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err, "Failed to start workout")
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *Handler) Active(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	session, err := h.service.Active(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch active workout")
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid workout ID"})
		return
	}

	session, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err, "Failed to fetch workout")
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sessions, err := h.service.List(c.Request.Context(), userID, q.Limit, q.Offset)
	if err != nil {
		h.respondError(c, err, "Failed to fetch workouts")
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) LogSet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid workout ID"})
		return
	}

	var req LogSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationErrors(c, api.FromError(err))
		return
	}

	set, err := h.service.LogSet(c.Request.Context(), userID, id, req)
	if err != nil {
		h.respondError(c, err, "Failed to log set")
		return
	}

	c.JSON(http.StatusCreated, set)
}

func (h *Handler) Complete(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid workout ID"})
		return
	}

	var req CompleteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
	}

	session, err := h.service.Complete(c.Request.Context(), userID, id, req.Notes)
	if err != nil {
		h.respondError(c, err, "Failed to complete workout")
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) Volume(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	from, err := parseTime(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid from parameter"})
		return
	}
	to, err := parseTime(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid to parameter"})
		return
	}

	points, err := h.service.Volume(c.Request.Context(), userID, from, to)
	if err != nil {
		h.respondError(c, err, "Failed to fetch volume")
		return
	}

	c.JSON(http.StatusOK, points)
}

func (h *Handler) Records(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	records, err := h.service.Records(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch records")
		return
	}

	c.JSON(http.StatusOK, records)
}

// parseTime accepts a date (2006-01-02) or an RFC 3339 timestamp. Empty is zero.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrActiveSessionExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionNotFoundOrCompleted),
		errors.Is(err, ErrProgramDayNotFound),
		errors.Is(err, ErrExerciseNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidRange):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		logger.Error(fallback, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}
