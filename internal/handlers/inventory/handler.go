package inventory

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"acctrack/internal/audit"
	"acctrack/internal/handlers/common"
	"acctrack/internal/inventory"
	"acctrack/internal/matching"
	"acctrack/internal/models"
	"acctrack/internal/response"
	"acctrack/internal/validation"
)

// Handler holds dependencies for accessory, location and SKU handlers.
type Handler struct {
	Service *inventory.Service
	Log     *logrus.Logger
	// PageSize is the accessory list page size when the request sets none.
	PageSize int
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validation.ValidationErrors
	switch {
	case errors.As(err, &ve):
		response.ErrCode(w, ve.Error(), "VALIDATION", 400)
	case errors.Is(err, inventory.ErrNotFound):
		response.ErrCode(w, "not found", "NOT_FOUND", 404)
	case errors.Is(err, inventory.ErrDuplicate):
		response.ErrCode(w, err.Error(), "DUPLICATE", 409)
	case errors.Is(err, inventory.ErrInUse):
		response.ErrCode(w, err.Error(), "IN_USE", 409)
	default:
		h.Log.WithError(err).WithField("path", r.URL.Path).Error("inventory request failed")
		response.ErrCode(w, "internal error", "INTERNAL", 500)
	}
}

func parseID(w http.ResponseWriter, idStr string) (int, bool) {
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		response.ErrCode(w, "invalid id", "VALIDATION", 400)
		return 0, false
	}
	return id, true
}

// ListAccessories handles GET /api/v1/accessories.
func (h *Handler) ListAccessories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, size, err := common.ParsePaging(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page = max(page, 1)
	size = validation.ClampPageSize(size, h.PageSize)
	items, total, err := h.Service.Store().List(r.Context(), inventory.ListParams{
		Search:   strings.TrimSpace(q.Get("search")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSONMeta(w, items, total, page, size)
}

// GetAccessory handles GET /api/v1/accessories/:id.
func (h *Handler) GetAccessory(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	a, remarks, err := h.Service.Detail(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, map[string]interface{}{"accessory": a, "remarks": remarks})
}

// CreateAccessory handles POST /api/v1/accessories.
func (h *Handler) CreateAccessory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SKU      string `json:"sku"`
		Location string `json:"location"`
		Remark   string `json:"remark"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.ErrCode(w, "invalid body", "VALIDATION", 400)
		return
	}
	body.SKU = strings.TrimSpace(body.SKU)
	body.Location = strings.TrimSpace(body.Location)
	body.Remark = strings.TrimSpace(body.Remark)

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "sku", body.SKU)
	validation.RequireField(ve, "location", body.Location)
	validation.ValidateMaxLength(ve, "sku", body.SKU, validation.MaxCodeLength)
	validation.ValidateMaxLength(ve, "location", body.Location, validation.MaxNameLength)
	validation.ValidateMaxLength(ve, "remark", body.Remark, validation.MaxTextLength)
	if err := ve.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	a, err := h.Service.AddAccessory(r.Context(), audit.Actor(r), body.SKU, body.Location, body.Remark)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSONStatus(w, a, 201)
}

// UpdateAccessory handles PUT /api/v1/accessories/:id.
func (h *Handler) UpdateAccessory(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	var body struct {
		Location  string `json:"location"`
		NewRemark string `json:"new_remark"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.ErrCode(w, "invalid body", "VALIDATION", 400)
		return
	}
	body.Location = strings.TrimSpace(body.Location)
	body.NewRemark = strings.TrimSpace(body.NewRemark)

	ve := &validation.ValidationErrors{}
	validation.ValidateMaxLength(ve, "location", body.Location, validation.MaxNameLength)
	validation.ValidateMaxLength(ve, "new_remark", body.NewRemark, validation.MaxTextLength)
	if err := ve.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	a, err := h.Service.UpdateAccessory(r.Context(), audit.Actor(r), id, body.Location, body.NewRemark)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, a)
}

// DeleteAccessory handles DELETE /api/v1/accessories/:id.
func (h *Handler) DeleteAccessory(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	if err := h.Service.DeleteAccessory(r.Context(), audit.Actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, map[string]string{"status": "deleted"})
}

// ListRemarks handles GET /api/v1/accessories/:id/remarks.
func (h *Handler) ListRemarks(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	_, remarks, err := h.Service.Detail(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, remarks)
}

// AddRemark handles POST /api/v1/accessories/:id/remarks.
func (h *Handler) AddRemark(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.ErrCode(w, "invalid body", "VALIDATION", 400)
		return
	}
	body.Content = strings.TrimSpace(body.Content)

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "content", body.Content)
	validation.ValidateMaxLength(ve, "content", body.Content, validation.MaxTextLength)
	if err := ve.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	rm, err := h.Service.AddRemark(r.Context(), id, body.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSONStatus(w, rm, 201)
}

// DeleteRemark handles DELETE /api/v1/remarks/:id.
func (h *Handler) DeleteRemark(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	if err := h.Service.DeleteRemark(r.Context(), audit.Actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, map[string]string{"status": "deleted"})
}

// ListLocations handles GET /api/v1/locations.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Store().Locations(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, items)
}

// CreateLocation handles POST /api/v1/locations.
func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := response.DecodeBody(r, &body); err != nil {
		response.ErrCode(w, "invalid body", "VALIDATION", 400)
		return
	}
	body.Name = strings.TrimSpace(body.Name)

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "name", body.Name)
	validation.ValidateMaxLength(ve, "name", body.Name, validation.MaxNameLength)
	if err := ve.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	l, err := h.Service.AddLocation(r.Context(), audit.Actor(r), body.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSONStatus(w, l, 201)
}

// DeleteLocation handles DELETE /api/v1/locations/:id.
func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}
	if err := h.Service.DeleteLocation(r.Context(), audit.Actor(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, map[string]string{"status": "deleted"})
}

// ListSKUs handles GET /api/v1/skus.
func (h *Handler) ListSKUs(w http.ResponseWriter, r *http.Request) {
	skus, err := h.Service.Store().SKUs(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, skus)
}

// SKUStats handles GET /api/v1/sku-stats.
func (h *Handler) SKUStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Store().SKUStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, stats)
}

// GetSKU handles GET /api/v1/skus/:sku.
func (h *Handler) GetSKU(w http.ResponseWriter, r *http.Request, sku string) {
	d, err := h.Service.Store().SKUDetail(r.Context(), sku)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if d.TotalCount == 0 {
		response.ErrCode(w, "no accessories for sku "+sku, "NOT_FOUND", 404)
		return
	}
	response.JSON(w, d)
}

// Availability handles GET /api/v1/availability. It reports, for every unit
// of the SKU, whether the code can be supplied and which unit a new work
// order would be matched to. Nothing is written.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	sku := strings.TrimSpace(r.URL.Query().Get("sku"))
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "sku", sku)
	validation.RequireField(ve, "code", code)
	if err := ve.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	st := h.Service.Store()
	units, err := matching.Evaluate(r.Context(), st, sku, code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cand *models.Accessory
	for _, u := range units {
		if u.Available {
			a := u.Accessory
			cand = &a
			break
		}
	}
	response.JSON(w, map[string]interface{}{
		"sku":       sku,
		"code":      code,
		"units":     units,
		"candidate": cand,
	})
}

// ExportAccessories handles GET /api/v1/accessories/export.
func (h *Handler) ExportAccessories(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateEnum(ve, "format", format, validation.ValidExportFormats)
	if err := ve.Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	items, _, err := h.Service.Store().List(r.Context(), inventory.ListParams{})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	headers := []string{"ID", "SKU", "Location", "Updated At", "Latest Remark"}
	data := make([][]string, 0, len(items))
	for _, a := range items {
		data = append(data, []string{strconv.Itoa(a.ID), a.SKU, a.Location, a.UpdatedAt, a.LatestRemark})
	}

	common.LogDataExport(&common.Handler{DB: h.Service.DB, Log: h.Log}, r, "accessory", format, len(items))
	common.Export(w, format, "Accessories", headers, data)
}
