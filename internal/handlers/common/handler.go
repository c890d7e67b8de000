package common

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"acctrack/internal/audit"
	"acctrack/internal/response"
)

// Handler holds dependencies for shared handlers.
type Handler struct {
	DB  *sql.DB
	Log *logrus.Logger
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		h.Log.WithError(err).Error("health check: database unreachable")
		response.Err(w, "database unavailable", 503)
		return
	}
	response.JSON(w, map[string]string{"status": "ok"})
}

// ListAudit handles GET /api/v1/audit.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := audit.List(r.Context(), h.DB, r.URL.Query().Get("module"), limit)
	if err != nil {
		h.Log.WithError(err).Error("list audit log")
		response.Err(w, err.Error(), 500)
		return
	}
	response.JSON(w, entries)
}

// LogDataExport records an export in the audit log.
func LogDataExport(h *Handler, r *http.Request, module, format string, count int) {
	summary := "Exported " + strconv.Itoa(count) + " " + module + " records as " + format
	if err := audit.Record(r.Context(), h.DB, audit.Actor(r), audit.ActionExport, module, "", summary); err != nil {
		h.Log.WithError(err).Error("audit export")
	}
}
