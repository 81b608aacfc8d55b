package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/httpx"
)

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database,omitempty"`
	UserCount *int64 `json:"userCount,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Health reports 500 with the failure reason instead of going through the
// generic error path, so monitors see what broke.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	report, err := h.svc.Health.Check(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "health check failed", "error", err)
		httpx.RespondWithJSON(w, http.StatusInternalServerError, healthResponse{
			Status:    "unhealthy",
			Error:     err.Error(),
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
		return nil
	}

	httpx.RespondWithJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Database:  "connected",
		UserCount: &report.UserCount,
		Timestamp: report.Timestamp.Format(time.RFC3339Nano),
	})
	return nil
}
