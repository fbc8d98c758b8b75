package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

// RecordHandler exposes the raw activity ingestion endpoint.
type RecordHandler struct {
	ingest *usecase.IngestService
}

// NewRecordHandler constructs a record handler.
func NewRecordHandler(ingest *usecase.IngestService) *RecordHandler {
	return &RecordHandler{ingest: ingest}
}

// Record godoc
// @Summary Record activity events
// @Description Ingests a batch of raw activity events, creating unseen users on the fly.
// @Tags Activity
// @Accept json
// @Produce json
// @Param request body RecordRequest true "Activity batch"
// @Success 200 {object} RecordResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/record [post]
func (h *RecordHandler) Record(c *gin.Context) {
	if h.ingest == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "ingestion unavailable"))
		return
	}

	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "events payload is required"))
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), req.Events)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrEmptyUserID, Status: http.StatusBadRequest, Message: "event with empty user_id"},
			{Err: usecase.ErrZeroTimestamp, Status: http.StatusBadRequest, Message: "event with zero occurred_at"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to record activity")
		return
	}

	c.JSON(http.StatusOK, RecordResponse{
		InsertedEvents: result.InsertedEvents,
		NewUsers:       result.NewUsers,
		UpdatedUsers:   result.UpdatedUsers,
	})
}
