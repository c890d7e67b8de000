package audit

import (
	"context"
	"net/http"
	"strings"

	"acctrack/internal/database"
	"acctrack/internal/models"
)

// Action constants.
const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionComplete = "COMPLETE"
	ActionCancel   = "CANCEL"
	ActionExport   = "EXPORT"
	// ActionDoubleCompletion flags a consumption written to a unit whose code
	// was already consumed by another work order.
	ActionDoubleCompletion = "DOUBLE_COMPLETION"
	// ActionMarkerDeleted flags removal of a consumption remark, which makes
	// the code available on that unit again.
	ActionMarkerDeleted = "MARKER_DELETED"
)

// Record inserts one audit entry. Pass a transaction to make the entry part of
// the change it describes.
func Record(ctx context.Context, q database.DBTX, username, action, module, recordID, summary string) error {
	if username == "" {
		username = "system"
	}
	_, err := q.ExecContext(ctx, "INSERT INTO audit_log (username, action, module, record_id, summary) VALUES (?, ?, ?, ?, ?)",
		username, action, module, recordID, summary)
	return err
}

// List returns the newest audit entries, optionally restricted to one module.
func List(ctx context.Context, q database.DBTX, module string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := "SELECT id, username, action, module, record_id, summary, created_at FROM audit_log"
	var args []any
	if module != "" {
		query += " WHERE module = ?"
		args = append(args, module)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Module, &e.RecordID, &e.Summary, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Actor names the operator behind a request. Callers are not authenticated,
// so this is whatever the client put in X-Operator.
func Actor(r *http.Request) string {
	if op := strings.TrimSpace(r.Header.Get("X-Operator")); op != "" {
		return op
	}
	return "system"
}
