package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

// ComputeHandler exposes the state window recompute trigger.
type ComputeHandler struct {
	states *usecase.StateService
}

// NewComputeHandler constructs a compute handler.
func NewComputeHandler(states *usecase.StateService) *ComputeHandler {
	return &ComputeHandler{states: states}
}

// Compute godoc
// @Summary Recompute growth states for a window
// @Description Recomputes the daily state table for [start_date, end_date]. Missing bounds default to the activity min/max.
// @Tags States
// @Produce json
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} ComputeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/compute [post]
func (h *ComputeHandler) Compute(c *gin.Context) {
	if h.states == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "compute unavailable"))
		return
	}

	start, ok := optionalDateQuery(c, "start_date")
	if !ok {
		return
	}
	end, ok := optionalDateQuery(c, "end_date")
	if !ok {
		return
	}

	resolvedStart, resolvedEnd, err := h.states.ResolveWindow(c.Request.Context(), start, end)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrNoActivity, Status: http.StatusConflict, Message: "no activity recorded; nothing to compute"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to resolve compute window")
		return
	}

	result, err := h.states.Compute(c.Request.Context(), resolvedStart, resolvedEnd)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidWindow, Status: http.StatusBadRequest, Message: "start_date must not be after end_date"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to compute states")
		return
	}

	c.JSON(http.StatusOK, ComputeResponse{
		WindowStart: result.WindowStart,
		WindowEnd:   result.WindowEnd,
		UsersSeen:   result.UsersSeen,
		RowsDeleted: result.RowsDeleted,
		RowsWritten: result.RowsWritten,
	})
}

// optionalDateQuery parses a YYYY-MM-DD query parameter. A missing parameter
// yields a nil date; a malformed one writes a 400 and reports ok=false.
func optionalDateQuery(c *gin.Context, name string) (*domain.Date, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}

	parsed, err := domain.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, name+" must be YYYY-MM-DD"))
		return nil, false
	}

	return &parsed, true
}
