package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// RecordRequest is the activity ingestion payload.
type RecordRequest struct {
	Events []domain.ActivityEvent `json:"events" binding:"required"`
}

// RecordResponse reports ingestion counts.
type RecordResponse struct {
	InsertedEvents int `json:"inserted_events"`
	NewUsers       int `json:"new_users"`
	UpdatedUsers   int `json:"updated_users"`
}

// ComputeResponse reports the outcome of a state window recompute.
type ComputeResponse struct {
	WindowStart domain.Date `json:"window_start"`
	WindowEnd   domain.Date `json:"window_end"`
	UsersSeen   int         `json:"users_seen"`
	RowsDeleted int64       `json:"rows_deleted"`
	RowsWritten int         `json:"rows_written"`
}

// TimeseriesResponse carries long-form counts plus the wide pivot.
type TimeseriesResponse struct {
	Start           domain.Date          `json:"start"`
	End             domain.Date          `json:"end"`
	ExcludeWeekends bool                 `json:"exclude_weekends"`
	Rows            []domain.StateCount  `json:"rows"`
	Pivot           []usecase.WideRow    `json:"pivot"`
	States          []domain.GrowthState `json:"states"`
}

// DateRangeResponse reports the min and max dates of the state table.
type DateRangeResponse struct {
	MinDate domain.Date `json:"min_date"`
	MaxDate domain.Date `json:"max_date"`
	Empty   bool        `json:"empty"`
}

// StatesResponse lists the growth states in canonical order.
type StatesResponse struct {
	States []domain.GrowthState `json:"states"`
}

// RetentionResponse wraps daily retention rates.
type RetentionResponse struct {
	Rates []usecase.RetentionRate `json:"rates"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
