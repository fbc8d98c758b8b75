package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

// MetaHandler serves metadata about the computed state table.
type MetaHandler struct {
	timeseries *usecase.TimeseriesService
}

// NewMetaHandler constructs a meta handler.
func NewMetaHandler(timeseries *usecase.TimeseriesService) *MetaHandler {
	return &MetaHandler{timeseries: timeseries}
}

// DateRange godoc
// @Summary Available date range
// @Description Returns the min and max dates of the computed state table. Falls back to today when the table is empty.
// @Tags Meta
// @Produce json
// @Success 200 {object} DateRangeResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/meta/date-range [get]
func (h *MetaHandler) DateRange(c *gin.Context) {
	if h.timeseries == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "meta unavailable"))
		return
	}

	dr, err := h.timeseries.StateDateRange(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to query date range")
		return
	}

	if dr == nil {
		today := domain.DateOf(time.Now().UTC())
		c.JSON(http.StatusOK, DateRangeResponse{MinDate: today, MaxDate: today, Empty: true})
		return
	}

	c.JSON(http.StatusOK, DateRangeResponse{MinDate: dr.Min, MaxDate: dr.Max})
}

// States godoc
// @Summary Growth states
// @Description Lists all growth states in canonical display order.
// @Tags Meta
// @Produce json
// @Success 200 {object} StatesResponse
// @Router /v1/states [get]
func (h *MetaHandler) States(c *gin.Context) {
	c.JSON(http.StatusOK, StatesResponse{States: domain.StateOrder()})
}
