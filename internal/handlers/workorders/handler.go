package workorders

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"acctrack/internal/audit"
	"acctrack/internal/handlers/common"
	"acctrack/internal/models"
	"acctrack/internal/response"
	"acctrack/internal/validation"
	"acctrack/internal/workorders"
)

// Handler holds dependencies for work order handlers.
type Handler struct {
	Service *workorders.Service
	Log     *logrus.Logger
}

// writeError maps service errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validation.ValidationErrors
	switch {
	case errors.As(err, &ve):
		response.ErrCode(w, ve.Error(), "VALIDATION", 400)
	case errors.Is(err, workorders.ErrNotFound):
		response.ErrCode(w, "work order not found", "NOT_FOUND", 404)
	case errors.Is(err, workorders.ErrInvalidTransition):
		response.ErrCode(w, err.Error(), "INVALID_TRANSITION", 409)
	case errors.Is(err, workorders.ErrConsumptionWrite):
		response.ErrCode(w, "completion could not be recorded; the work order is still pending", "CONSUMPTION_WRITE_FAILED", 503)
	default:
		h.Log.WithError(err).WithField("path", r.URL.Path).Error("work order request failed")
		response.ErrCode(w, "internal error", "INTERNAL", 500)
	}
}

func parseID(w http.ResponseWriter, idStr string) (int, bool) {
	id, err := strconv.Atoi(idStr)
	if err != nil {
		response.ErrCode(w, "invalid work order id", "VALIDATION", 400)
		return 0, false
	}
	return id, true
}

// ListWorkOrders handles GET /api/v1/work-orders.
func (h *Handler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, size, err := common.ParsePaging(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.Service.List(r.Context(), workorders.ListFilter{
		Status:   q.Get("status"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSONMeta(w, result, result.Total, result.Page, result.PageSize)
}

// GetWorkOrder handles GET /api/v1/work-orders/:id.
func (h *Handler) GetWorkOrder(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	d, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, d)
}

// CreateWorkOrder handles POST /api/v1/work-orders.
func (h *Handler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var in workorders.CreateInput
	if err := response.DecodeBody(r, &in); err != nil {
		response.ErrCode(w, "invalid body", "VALIDATION", 400)
		return
	}
	wo, err := h.Service.Create(r.Context(), audit.Actor(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSONStatus(w, wo, 201)
}

// UpdateWorkOrderStatus handles PUT /api/v1/work-orders/:id/status.
func (h *Handler) UpdateWorkOrderStatus(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.ErrCode(w, "invalid body", "VALIDATION", 400)
		return
	}
	wo, err := h.Service.UpdateStatus(r.Context(), audit.Actor(r), id, body.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, wo)
}

// ExportWorkOrders handles GET /api/v1/work-orders/export.
func (h *Handler) ExportWorkOrders(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "all"
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateEnum(ve, "format", format, validation.ValidExportFormats)
	validation.ValidateEnum(ve, "status", status, validation.ValidWOStatusFilters)
	if err := ve.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.Service.All(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	headers := []string{"ID", "SKU", "Accessory Code", "Quantity", "Status", "Match Status",
		"Matched Location", "Customer Service", "Remark", "Created At", "Completed At"}
	data := make([][]string, 0, len(items))
	for _, wo := range items {
		data = append(data, workOrderRow(wo))
	}

	common.LogDataExport(&common.Handler{DB: h.Service.DB, Log: h.Log}, r, "workorder", format, len(items))
	common.Export(w, format, "WorkOrders", headers, data)
}

func workOrderRow(wo models.WorkOrder) []string {
	loc, completed := "", ""
	if wo.MatchedLocation != nil {
		loc = *wo.MatchedLocation
	}
	if wo.CompletedAt != nil {
		completed = *wo.CompletedAt
	}
	return []string{
		strconv.Itoa(wo.ID),
		wo.SKU,
		wo.AccessoryCode,
		strconv.Itoa(wo.Quantity),
		wo.Status,
		wo.MatchStatus,
		loc,
		wo.CustomerServiceName,
		wo.Remark,
		wo.CreatedAt,
		completed,
	}
}
