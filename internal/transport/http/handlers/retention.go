package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

// RetentionHandler serves day-over-day retention rates.
type RetentionHandler struct {
	retention *usecase.RetentionService
}

// NewRetentionHandler constructs a retention handler.
func NewRetentionHandler(retention *usecase.RetentionService) *RetentionHandler {
	return &RetentionHandler{retention: retention}
}

// Rates godoc
// @Summary Daily retention rates
// @Description Returns NURR, CURR, RURR, SURR and iWAURR rates derived from day-over-day state transitions.
// @Tags Retention
// @Produce json
// @Param start query string false "Window start (YYYY-MM-DD)"
// @Param end query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} RetentionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/retention [get]
func (h *RetentionHandler) Rates(c *gin.Context) {
	if h.retention == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "retention unavailable"))
		return
	}

	start, ok := optionalDateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := optionalDateQuery(c, "end")
	if !ok {
		return
	}

	rates, err := h.retention.Rates(c.Request.Context(), start, end)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidWindow, Status: http.StatusBadRequest, Message: "start must not be after end"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to query retention rates")
		return
	}

	if rates == nil {
		rates = []usecase.RetentionRate{}
	}

	c.JSON(http.StatusOK, RetentionResponse{Rates: rates})
}
