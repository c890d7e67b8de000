package inventory_test

import (
	"database/sql"
	"net/http/httptest"
	"strconv"
	"testing"

	handlers "acctrack/internal/handlers/inventory"
	"acctrack/internal/inventory"
	"acctrack/internal/models"
	"acctrack/internal/testutil"
)

func newTestHandler(t *testing.T) (*handlers.Handler, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logg := testutil.Logger()
	return &handlers.Handler{Service: inventory.NewService(db, logg), Log: logg}, db
}

func TestCreateAccessory(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.JSONRequest("POST", "/api/v1/accessories", map[string]string{"sku": " ABC-100 ", "location": "A-1", "remark": "received"})
	w := httptest.NewRecorder()
	h.CreateAccessory(w, req)
	testutil.AssertStatus(t, w, 201)
	var a models.Accessory
	testutil.DecodeEnvelope(t, w, &a)
	if a.SKU != "ABC-100" || a.Location != "A-1" || a.LatestRemark != "received" {
		t.Errorf("unexpected accessory %+v", a)
	}

	req = testutil.JSONRequest("POST", "/api/v1/accessories", map[string]string{"sku": "ABC-100", "location": "A-1"})
	w = httptest.NewRecorder()
	h.CreateAccessory(w, req)
	testutil.AssertStatus(t, w, 409)

	req = testutil.JSONRequest("POST", "/api/v1/accessories", map[string]string{"sku": "ABC-100"})
	w = httptest.NewRecorder()
	h.CreateAccessory(w, req)
	testutil.AssertStatus(t, w, 400)
}

func TestListAccessories(t *testing.T) {
	h, db := newTestHandler(t)
	for i := 0; i < 3; i++ {
		testutil.SeedAccessory(t, db, "ABC-100", "A-"+strconv.Itoa(i))
	}
	testutil.SeedAccessory(t, db, "XYZ-9", "C-4")

	w := httptest.NewRecorder()
	h.ListAccessories(w, httptest.NewRequest("GET", "/api/v1/accessories?search=ABC&page=1&page_size=2", nil))
	testutil.AssertStatus(t, w, 200)
	resp := testutil.DecodeAPIResponse(t, w)
	if resp.Meta == nil || resp.Meta.Total != 3 || resp.Meta.Limit != 2 {
		t.Errorf("unexpected meta %+v", resp.Meta)
	}
	if items, ok := resp.Data.([]interface{}); !ok || len(items) != 2 {
		t.Errorf("expected 2 items, got %v", resp.Data)
	}
}

func TestListAccessories_Paging(t *testing.T) {
	h, db := newTestHandler(t)
	h.PageSize = 2
	for i := 0; i < 3; i++ {
		testutil.SeedAccessory(t, db, "ABC-100", "A-"+strconv.Itoa(i))
	}

	w := httptest.NewRecorder()
	h.ListAccessories(w, httptest.NewRequest("GET", "/api/v1/accessories", nil))
	testutil.AssertStatus(t, w, 200)
	resp := testutil.DecodeAPIResponse(t, w)
	if resp.Meta == nil || resp.Meta.Limit != 2 || resp.Meta.Total != 3 {
		t.Errorf("expected configured page size 2, got meta %+v", resp.Meta)
	}

	w = httptest.NewRecorder()
	h.ListAccessories(w, httptest.NewRequest("GET", "/api/v1/accessories?page_size=1000", nil))
	resp = testutil.DecodeAPIResponse(t, w)
	if resp.Meta == nil || resp.Meta.Limit != 100 {
		t.Errorf("expected page size capped at 100, got meta %+v", resp.Meta)
	}

	w = httptest.NewRecorder()
	h.ListAccessories(w, httptest.NewRequest("GET", "/api/v1/accessories?page=x", nil))
	testutil.AssertStatus(t, w, 400)
}

func TestAccessoryDetailAndRemarks(t *testing.T) {
	h, db := newTestHandler(t)
	id := testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	sid := strconv.Itoa(id)

	req := testutil.JSONRequest("POST", "/api/v1/accessories/"+sid+"/remarks", map[string]string{"content": "restock codeX"})
	w := httptest.NewRecorder()
	h.AddRemark(w, req, sid)
	testutil.AssertStatus(t, w, 201)

	req = testutil.JSONRequest("POST", "/api/v1/accessories/"+sid+"/remarks", map[string]string{"content": "  "})
	w = httptest.NewRecorder()
	h.AddRemark(w, req, sid)
	testutil.AssertStatus(t, w, 400)

	w = httptest.NewRecorder()
	h.GetAccessory(w, httptest.NewRequest("GET", "/api/v1/accessories/"+sid, nil), sid)
	testutil.AssertStatus(t, w, 200)
	var detail struct {
		Accessory models.Accessory `json:"accessory"`
		Remarks   []models.Remark  `json:"remarks"`
	}
	testutil.DecodeEnvelope(t, w, &detail)
	if detail.Accessory.ID != id || len(detail.Remarks) != 1 || detail.Remarks[0].Content != "restock codeX" {
		t.Errorf("unexpected detail %+v", detail)
	}

	w = httptest.NewRecorder()
	h.GetAccessory(w, httptest.NewRequest("GET", "/api/v1/accessories/9999", nil), "9999")
	testutil.AssertStatus(t, w, 404)
}

func TestUpdateAndDeleteAccessory(t *testing.T) {
	h, db := newTestHandler(t)
	id := testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	sid := strconv.Itoa(id)

	req := testutil.JSONRequest("PUT", "/api/v1/accessories/"+sid, map[string]string{"location": "B-2", "new_remark": "moved"})
	w := httptest.NewRecorder()
	h.UpdateAccessory(w, req, sid)
	testutil.AssertStatus(t, w, 200)
	var a models.Accessory
	testutil.DecodeEnvelope(t, w, &a)
	if a.Location != "B-2" {
		t.Errorf("expected B-2, got %s", a.Location)
	}

	w = httptest.NewRecorder()
	h.DeleteAccessory(w, httptest.NewRequest("DELETE", "/api/v1/accessories/"+sid, nil), sid)
	testutil.AssertStatus(t, w, 200)

	w = httptest.NewRecorder()
	h.DeleteAccessory(w, httptest.NewRequest("DELETE", "/api/v1/accessories/"+sid, nil), sid)
	testutil.AssertStatus(t, w, 404)
}

func TestDeleteRemark(t *testing.T) {
	h, db := newTestHandler(t)
	id := testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	rid := strconv.Itoa(testutil.SeedRemark(t, db, id, "remove codeX - WO#123456 - 2024-01-01 00:00:00"))

	w := httptest.NewRecorder()
	h.DeleteRemark(w, httptest.NewRequest("DELETE", "/api/v1/remarks/"+rid, nil), rid)
	testutil.AssertStatus(t, w, 200)

	var n int
	db.QueryRow("SELECT COUNT(*) FROM audit_log WHERE action = 'MARKER_DELETED'").Scan(&n)
	if n != 1 {
		t.Errorf("expected MARKER_DELETED audit, got %d", n)
	}
}

func TestLocationsEndpoints(t *testing.T) {
	h, db := newTestHandler(t)
	testutil.SeedAccessory(t, db, "ABC-100", "A-1")

	req := testutil.JSONRequest("POST", "/api/v1/locations", map[string]string{"name": "Z-1"})
	w := httptest.NewRecorder()
	h.CreateLocation(w, req)
	testutil.AssertStatus(t, w, 201)
	var loc models.Location
	testutil.DecodeEnvelope(t, w, &loc)

	w = httptest.NewRecorder()
	h.ListLocations(w, httptest.NewRequest("GET", "/api/v1/locations", nil))
	testutil.AssertStatus(t, w, 200)
	var locs []models.Location
	testutil.DecodeEnvelope(t, w, &locs)
	if len(locs) != 2 || locs[0].Name != "A-1" {
		t.Errorf("unexpected locations %+v", locs)
	}

	busy := strconv.Itoa(locs[0].ID)
	w = httptest.NewRecorder()
	h.DeleteLocation(w, httptest.NewRequest("DELETE", "/api/v1/locations/"+busy, nil), busy)
	testutil.AssertStatus(t, w, 409)

	free := strconv.Itoa(loc.ID)
	w = httptest.NewRecorder()
	h.DeleteLocation(w, httptest.NewRequest("DELETE", "/api/v1/locations/"+free, nil), free)
	testutil.AssertStatus(t, w, 200)
}

func TestSKUEndpoints(t *testing.T) {
	h, db := newTestHandler(t)
	testutil.SeedAccessory(t, db, "ABC-100", "A-2")
	testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	testutil.SeedAccessory(t, db, "XYZ-9", "C-4")

	w := httptest.NewRecorder()
	h.ListSKUs(w, httptest.NewRequest("GET", "/api/v1/skus", nil))
	var skus []string
	testutil.DecodeEnvelope(t, w, &skus)
	if len(skus) != 2 {
		t.Errorf("unexpected skus %v", skus)
	}

	w = httptest.NewRecorder()
	h.SKUStats(w, httptest.NewRequest("GET", "/api/v1/sku-stats", nil))
	var stats []models.SKUStat
	testutil.DecodeEnvelope(t, w, &stats)
	if len(stats) != 2 || stats[0].SKU != "ABC-100" || stats[0].Count != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	w = httptest.NewRecorder()
	h.GetSKU(w, httptest.NewRequest("GET", "/api/v1/skus/ABC-100", nil), "ABC-100")
	var d models.SKUDetail
	testutil.DecodeEnvelope(t, w, &d)
	if d.TotalCount != 2 || d.Accessories[0].Location != "A-1" {
		t.Errorf("unexpected sku detail %+v", d)
	}

	w = httptest.NewRecorder()
	h.GetSKU(w, httptest.NewRequest("GET", "/api/v1/skus/NONE", nil), "NONE")
	testutil.AssertStatus(t, w, 404)
}

func TestAvailability(t *testing.T) {
	h, db := newTestHandler(t)
	a1 := testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	a2 := testutil.SeedAccessory(t, db, "ABC-100", "A-2")
	testutil.SeedRemark(t, db, a1, "remove codeX - WO#1 - 2024-01-01 00:00:00")
	testutil.SeedRemark(t, db, a2, "note")

	w := httptest.NewRecorder()
	h.Availability(w, httptest.NewRequest("GET", "/api/v1/availability?sku=ABC-100&code=code+x", nil))
	testutil.AssertStatus(t, w, 200)
	var got struct {
		Units     []models.UnitAvailability `json:"units"`
		Candidate *models.Accessory         `json:"candidate"`
	}
	testutil.DecodeEnvelope(t, w, &got)
	if len(got.Units) != 2 || got.Units[0].Available || !got.Units[1].Available {
		t.Errorf("unexpected units %+v", got.Units)
	}
	if got.Candidate == nil || got.Candidate.ID != a2 {
		t.Errorf("expected candidate %d, got %+v", a2, got.Candidate)
	}

	var n int
	db.QueryRow("SELECT COUNT(*) FROM remarks").Scan(&n)
	if n != 2 {
		t.Errorf("availability probe must not write, found %d remarks", n)
	}

	w = httptest.NewRecorder()
	h.Availability(w, httptest.NewRequest("GET", "/api/v1/availability?sku=ABC-100", nil))
	testutil.AssertStatus(t, w, 400)
}

func TestExportAccessories(t *testing.T) {
	h, db := newTestHandler(t)
	testutil.SeedAccessory(t, db, "ABC-100", "A-1")

	w := httptest.NewRecorder()
	h.ExportAccessories(w, httptest.NewRequest("GET", "/api/v1/accessories/export", nil))
	testutil.AssertStatus(t, w, 200)
	if w.Header().Get("Content-Disposition") != "attachment; filename=accessories.csv" {
		t.Errorf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
}
