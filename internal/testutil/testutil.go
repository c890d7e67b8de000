package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"acctrack/internal/config"
	"acctrack/internal/database"
	"acctrack/internal/models"

	_ "modernc.org/sqlite"
)

// SetupTestDB creates an in-memory SQLite database with foreign keys enabled
// and the production schema applied. The pool is pinned to one connection so
// every query sees the same in-memory database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	testDB.SetMaxOpenConns(1)
	t.Cleanup(func() { testDB.Close() })

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if err := database.Migrate(testDB); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}
	return testDB
}

// Logger returns a logger that discards output.
var Logger = config.DiscardLogger

// SeedAccessory inserts a unit and bumps its location counter, returning the id.
func SeedAccessory(t *testing.T, db *sql.DB, sku, location string) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO accessories (sku, location, updated_at) VALUES (?, ?, '2024-01-01 00:00:00')", sku, location)
	if err != nil {
		t.Fatalf("Failed to seed accessory %s@%s: %v", sku, location, err)
	}
	id, _ := res.LastInsertId()
	if _, err := db.Exec("INSERT OR IGNORE INTO locations (name) VALUES (?)", location); err != nil {
		t.Fatalf("Failed to seed location %s: %v", location, err)
	}
	if _, err := db.Exec("UPDATE locations SET usage_count = usage_count + 1 WHERE name = ?", location); err != nil {
		t.Fatalf("Failed to count location %s: %v", location, err)
	}
	return int(id)
}

// SeedRemark appends a remark to a unit's history, returning the remark id.
func SeedRemark(t *testing.T, db *sql.DB, accessoryID int, content string) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO remarks (accessory_id, content, created_at) VALUES (?, ?, '2024-01-01 00:00:00')", accessoryID, content)
	if err != nil {
		t.Fatalf("Failed to seed remark: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

// RemarkContents returns a unit's remark contents, oldest first.
func RemarkContents(t *testing.T, db *sql.DB, accessoryID int) []string {
	t.Helper()
	rows, err := db.Query("SELECT content FROM remarks WHERE accessory_id = ? ORDER BY id", accessoryID)
	if err != nil {
		t.Fatalf("Failed to read remarks: %v", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			t.Fatalf("Failed to scan remark: %v", err)
		}
		out = append(out, c)
	}
	return out
}

// JSONRequest creates an HTTP request with a JSON body.
func JSONRequest(method, path string, body interface{}) *http.Request {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeAPIResponse decodes an APIResponse from a ResponseRecorder.
func DecodeAPIResponse(t *testing.T, w *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var response models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode API response: %v", err)
	}
	return response
}

// AssertStatus checks that the HTTP status code matches expected.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeEnvelope decodes an API response envelope and extracts the data.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode API envelope: %v", err)
	}
	dataBytes, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(dataBytes, v); err != nil {
		t.Fatalf("Failed to decode data from envelope: %v", err)
	}
}

// DecodeError decodes an error body into its message and code.
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) (msg, code string) {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body["error"], body["code"]
}
