package workorders_test

import (
	"database/sql"
	"encoding/csv"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	handlers "acctrack/internal/handlers/workorders"
	"acctrack/internal/models"
	"acctrack/internal/testutil"
	"acctrack/internal/workorders"
)

func newTestHandler(t *testing.T) (*handlers.Handler, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logg := testutil.Logger()
	return &handlers.Handler{Service: workorders.NewService(db, logg, nil), Log: logg}, db
}

func createViaHandler(t *testing.T, h *handlers.Handler, body map[string]interface{}) models.WorkOrder {
	t.Helper()
	req := testutil.JSONRequest("POST", "/api/v1/work-orders", body)
	w := httptest.NewRecorder()
	h.CreateWorkOrder(w, req)
	testutil.AssertStatus(t, w, 201)
	var wo models.WorkOrder
	testutil.DecodeEnvelope(t, w, &wo)
	return wo
}

func TestCreateWorkOrder_Matched(t *testing.T) {
	h, db := newTestHandler(t)
	testutil.SeedAccessory(t, db, "ABC-100", "A-2")
	testutil.SeedAccessory(t, db, "ABC-100", "A-1")

	wo := createViaHandler(t, h, map[string]interface{}{
		"sku": "ABC-100", "accessory_code": "codeX", "quantity": 1, "customer_service_name": "Lin",
	})
	if wo.MatchStatus != "matched" || wo.MatchedLocation == nil || *wo.MatchedLocation != "A-1" {
		t.Errorf("expected match at A-1, got %+v", wo)
	}
	if wo.CustomerServiceName != "Lin" || wo.Status != "pending" {
		t.Errorf("unexpected order %+v", wo)
	}
}

func TestCreateWorkOrder_Validation(t *testing.T) {
	h, _ := newTestHandler(t)
	cases := []string{
		`{"sku":"","accessory_code":"x","quantity":1}`,
		`{"sku":"A","accessory_code":"x","quantity":0}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest("POST", "/api/v1/work-orders", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.CreateWorkOrder(w, req)
		testutil.AssertStatus(t, w, 400)
		if _, code := testutil.DecodeError(t, w); code != "VALIDATION" {
			t.Errorf("body %s: expected VALIDATION code, got %q", body, code)
		}
	}
}

func TestUpdateStatus_CompleteThenConflict(t *testing.T) {
	h, db := newTestHandler(t)
	a1 := testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	wo := createViaHandler(t, h, map[string]interface{}{"sku": "ABC-100", "accessory_code": "codeX", "quantity": 1})
	id := strconv.Itoa(wo.ID)

	req := testutil.JSONRequest("PUT", "/api/v1/work-orders/"+id+"/status", map[string]string{"status": "completed"})
	req.Header.Set("X-Operator", "warehouse")
	w := httptest.NewRecorder()
	h.UpdateWorkOrderStatus(w, req, id)
	testutil.AssertStatus(t, w, 200)
	var done models.WorkOrder
	testutil.DecodeEnvelope(t, w, &done)
	if done.Status != "completed" || done.CompletedAt == nil {
		t.Errorf("unexpected order %+v", done)
	}
	if got := testutil.RemarkContents(t, db, a1); len(got) != 1 || !strings.HasPrefix(got[0], "remove codeX - WO#"+id+" - ") {
		t.Errorf("unexpected remarks %v", got)
	}

	var actor string
	db.QueryRow("SELECT username FROM audit_log WHERE action = 'COMPLETE'").Scan(&actor)
	if actor != "warehouse" {
		t.Errorf("expected audit actor warehouse, got %q", actor)
	}

	req = testutil.JSONRequest("PUT", "/api/v1/work-orders/"+id+"/status", map[string]string{"status": "completed"})
	w = httptest.NewRecorder()
	h.UpdateWorkOrderStatus(w, req, id)
	testutil.AssertStatus(t, w, 409)
	if _, code := testutil.DecodeError(t, w); code != "INVALID_TRANSITION" {
		t.Errorf("expected INVALID_TRANSITION, got %q", code)
	}
}

func TestUpdateStatus_NotFoundAndBadID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.JSONRequest("PUT", "/api/v1/work-orders/123456/status", map[string]string{"status": "cancelled"})
	w := httptest.NewRecorder()
	h.UpdateWorkOrderStatus(w, req, "123456")
	testutil.AssertStatus(t, w, 404)

	req = testutil.JSONRequest("PUT", "/api/v1/work-orders/abc/status", map[string]string{"status": "cancelled"})
	w = httptest.NewRecorder()
	h.UpdateWorkOrderStatus(w, req, "abc")
	testutil.AssertStatus(t, w, 400)
}

func TestUpdateStatus_ConsumptionFailure(t *testing.T) {
	h, db := newTestHandler(t)
	testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	wo := createViaHandler(t, h, map[string]interface{}{"sku": "ABC-100", "accessory_code": "codeX", "quantity": 1})
	db.Exec(`CREATE TRIGGER fail_remarks BEFORE INSERT ON remarks BEGIN SELECT RAISE(ABORT, 'io error'); END`)

	id := strconv.Itoa(wo.ID)
	req := testutil.JSONRequest("PUT", "/api/v1/work-orders/"+id+"/status", map[string]string{"status": "completed"})
	w := httptest.NewRecorder()
	h.UpdateWorkOrderStatus(w, req, id)
	testutil.AssertStatus(t, w, 503)
	if _, code := testutil.DecodeError(t, w); code != "CONSUMPTION_WRITE_FAILED" {
		t.Errorf("expected CONSUMPTION_WRITE_FAILED, got %q", code)
	}
}

func TestGetWorkOrder(t *testing.T) {
	h, db := newTestHandler(t)
	a1 := testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	testutil.SeedRemark(t, db, a1, "received")
	wo := createViaHandler(t, h, map[string]interface{}{"sku": "ABC-100", "accessory_code": "codeX", "quantity": 3})

	id := strconv.Itoa(wo.ID)
	w := httptest.NewRecorder()
	h.GetWorkOrder(w, httptest.NewRequest("GET", "/api/v1/work-orders/"+id, nil), id)
	testutil.AssertStatus(t, w, 200)
	var d models.WorkOrderDetail
	testutil.DecodeEnvelope(t, w, &d)
	if d.ID != wo.ID || d.Quantity != 3 || d.Accessory == nil || d.Accessory.Location != "A-1" || len(d.Remarks) != 1 {
		t.Errorf("unexpected detail %+v", d)
	}

	w = httptest.NewRecorder()
	h.GetWorkOrder(w, httptest.NewRequest("GET", "/api/v1/work-orders/999999", nil), "999999")
	testutil.AssertStatus(t, w, 404)
}

func TestListWorkOrders(t *testing.T) {
	h, _ := newTestHandler(t)
	for i := 0; i < 3; i++ {
		createViaHandler(t, h, map[string]interface{}{"sku": "S", "accessory_code": "c", "quantity": 1})
	}

	w := httptest.NewRecorder()
	h.ListWorkOrders(w, httptest.NewRequest("GET", "/api/v1/work-orders?status=pending&page=1&per_page=2", nil))
	testutil.AssertStatus(t, w, 200)
	var page models.WorkOrderPage
	testutil.DecodeEnvelope(t, w, &page)
	if len(page.WorkOrders) != 2 || page.Total != 3 || page.TotalPages != 2 || page.Counts.Pending != 3 {
		t.Errorf("unexpected page %+v", page)
	}

	w = httptest.NewRecorder()
	h.ListWorkOrders(w, httptest.NewRequest("GET", "/api/v1/work-orders?status=bogus", nil))
	testutil.AssertStatus(t, w, 400)
}

func TestListWorkOrders_MalformedPaging(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, qs := range []string{"page=abc", "page_size=ten", "per_page=-1", "page=-2"} {
		w := httptest.NewRecorder()
		h.ListWorkOrders(w, httptest.NewRequest("GET", "/api/v1/work-orders?"+qs, nil))
		testutil.AssertStatus(t, w, 400)
		if _, code := testutil.DecodeError(t, w); code != "VALIDATION" {
			t.Errorf("%s: expected VALIDATION code, got %q", qs, code)
		}
	}
}

func TestExportWorkOrders_CSV(t *testing.T) {
	h, db := newTestHandler(t)
	testutil.SeedAccessory(t, db, "ABC-100", "A-1")
	createViaHandler(t, h, map[string]interface{}{"sku": "ABC-100", "accessory_code": "codeX", "quantity": 1})
	createViaHandler(t, h, map[string]interface{}{"sku": "ZZZ", "accessory_code": "codeX", "quantity": 1})

	w := httptest.NewRecorder()
	h.ExportWorkOrders(w, httptest.NewRequest("GET", "/api/v1/work-orders/export?format=csv", nil))
	testutil.AssertStatus(t, w, 200)
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}
	rows, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "ID" {
		t.Fatalf("expected header + 2 rows, got %v", rows)
	}

	var n int
	db.QueryRow("SELECT COUNT(*) FROM audit_log WHERE action = 'EXPORT'").Scan(&n)
	if n != 1 {
		t.Errorf("expected one export audit entry, got %d", n)
	}
}

func TestExportWorkOrders_XLSX(t *testing.T) {
	h, _ := newTestHandler(t)
	createViaHandler(t, h, map[string]interface{}{"sku": "S", "accessory_code": "c", "quantity": 1})

	w := httptest.NewRecorder()
	h.ExportWorkOrders(w, httptest.NewRequest("GET", "/api/v1/work-orders/export?format=xlsx", nil))
	testutil.AssertStatus(t, w, 200)
	if !strings.Contains(w.Header().Get("Content-Type"), "spreadsheetml") {
		t.Errorf("unexpected content type %s", w.Header().Get("Content-Type"))
	}
	// xlsx files are zip archives
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Error("expected a zip payload")
	}

	w = httptest.NewRecorder()
	h.ExportWorkOrders(w, httptest.NewRequest("GET", "/api/v1/work-orders/export?format=pdf", nil))
	testutil.AssertStatus(t, w, 400)
}
