package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

// TimeseriesHandler answers aggregate state-count queries.
type TimeseriesHandler struct {
	timeseries *usecase.TimeseriesService
}

// NewTimeseriesHandler constructs a timeseries handler.
func NewTimeseriesHandler(timeseries *usecase.TimeseriesService) *TimeseriesHandler {
	return &TimeseriesHandler{timeseries: timeseries}
}

// Timeseries godoc
// @Summary Daily state counts
// @Description Returns per (date, state) user counts for the window, long form plus a wide pivot.
// @Tags States
// @Produce json
// @Param start query string true "Window start (YYYY-MM-DD)"
// @Param end query string true "Window end (YYYY-MM-DD)"
// @Param exclude_weekends query bool false "Drop Saturday and Sunday rows"
// @Success 200 {object} TimeseriesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/timeseries [get]
func (h *TimeseriesHandler) Timeseries(c *gin.Context) {
	if h.timeseries == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "timeseries unavailable"))
		return
	}

	start, ok := requiredDateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := requiredDateQuery(c, "end")
	if !ok {
		return
	}

	excludeWeekends := false
	if raw := c.Query("exclude_weekends"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "exclude_weekends must be a boolean"))
			return
		}
		excludeWeekends = parsed
	}

	result, err := h.timeseries.Timeseries(c.Request.Context(), start, end, excludeWeekends)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidWindow, Status: http.StatusBadRequest, Message: "start must not be after end"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to query timeseries")
		return
	}

	c.JSON(http.StatusOK, TimeseriesResponse{
		Start:           result.Start,
		End:             result.End,
		ExcludeWeekends: result.ExcludeWeekends,
		Rows:            result.Rows,
		Pivot:           usecase.WidePivot(result.Rows),
		States:          domain.StateOrder(),
	})
}

// requiredDateQuery parses a mandatory YYYY-MM-DD query parameter. On failure
// it writes a 400 and reports ok=false.
func requiredDateQuery(c *gin.Context, name string) (domain.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, name+" is required"))
		return domain.Date{}, false
	}

	parsed, err := domain.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, name+" must be YYYY-MM-DD"))
		return domain.Date{}, false
	}

	return parsed, true
}
