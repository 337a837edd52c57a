package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vegstock/backend/internal/service"
	"vegstock/backend/internal/store/memory"
)

// newTestAPI builds the full API over an empty in-memory store so handler
// tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	svc := service.New(memory.New(), nil, 0)
	return New(svc, "*")
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createItemViaAPI(t *testing.T, handler http.Handler, name string, quantity float64, price float64) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/inventory", map[string]any{
		"name":     name,
		"category": "other",
		"quantity": quantity,
		"unit":     "kg",
		"price":    price,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	item, ok := body["item"].(map[string]any)
	if !ok {
		t.Fatalf("expected item in response, got %v", body)
	}
	id, _ := item["id"].(string)
	if id == "" {
		t.Fatalf("expected item id, got %v", item)
	}
	return id
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestInventoryLifecycle(t *testing.T) {
	handler := newTestAPI(t).Handler()
	id := createItemViaAPI(t, handler, "Onion", 100, 20)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/inventory", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one item, got %v", body)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/v1/inventory/"+id, map[string]any{"price": "28.50"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	item := decodeBody(t, rec)["item"].(map[string]any)
	if item["price"] != 28.5 {
		t.Fatalf("expected string price coerced to 28.5, got %v", item["price"])
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/inventory/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/inventory/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestCreateItem_MissingFields(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/inventory", map[string]any{
		"name":     "Onion",
		"category": "other",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestTransactions_SaleAndInsufficientStock(t *testing.T) {
	handler := newTestAPI(t).Handler()
	id := createItemViaAPI(t, handler, "Onion", 100, 20)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/transactions", map[string]any{
		"itemId":   id,
		"type":     "sale",
		"quantity": 30,
		"price":    25,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sale: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	tx := decodeBody(t, rec)["transaction"].(map[string]any)
	if tx["totalAmount"] != float64(750) {
		t.Fatalf("expected totalAmount 750, got %v", tx["totalAmount"])
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/transactions", map[string]any{
		"itemId":   id,
		"type":     "sale",
		"quantity": 1000,
		"price":    25,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversale: expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); !strings.Contains(msg, "insufficient") {
		t.Fatalf("expected insufficient stock message, got %q", msg)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/inventory/"+id, nil)
	item := decodeBody(t, rec)["item"].(map[string]any)
	if item["quantity"] != float64(70) {
		t.Fatalf("expected quantity 70 after rejected oversale, got %v", item["quantity"])
	}
}

func TestTransactions_ListFilterByItem(t *testing.T) {
	handler := newTestAPI(t).Handler()
	onion := createItemViaAPI(t, handler, "Onion", 100, 20)
	potato := createItemViaAPI(t, handler, "Potato", 500, 18)

	for _, id := range []string{onion, potato} {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/transactions", map[string]any{
			"itemId": id, "type": "purchase", "quantity": 10, "price": 12,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("purchase: expected 201, got %d", rec.Code)
		}
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/transactions?itemId="+onion, nil)
	transactions := decodeBody(t, rec)["transactions"].([]any)
	if len(transactions) != 1 {
		t.Fatalf("expected one onion transaction, got %d", len(transactions))
	}
}

func TestExpenses(t *testing.T) {
	handler := newTestAPI(t).Handler()
	id := createItemViaAPI(t, handler, "Onion", 100, 20)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/expenses", map[string]any{
		"itemId":      id,
		"description": "transport",
		"amount":      "50",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/expenses", map[string]any{
		"itemId": id,
		"amount": 50,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing description, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/expenses", nil)
	expenses := decodeBody(t, rec)["expenses"].([]any)
	if len(expenses) != 1 {
		t.Fatalf("expected one expense, got %d", len(expenses))
	}
}

func TestSuppliersAndGodowns(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/suppliers", map[string]any{
		"name": "Ramesh Traders", "address": "Azadpur Mandi", "contact": "+91 98100 11223",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("supplier: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/godowns", map[string]any{
		"name": "Cold Storage A", "location": "Gate 3",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("godown: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/suppliers", nil)
	if suppliers := decodeBody(t, rec)["suppliers"].([]any); len(suppliers) != 1 {
		t.Fatalf("expected one supplier, got %d", len(suppliers))
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/godowns", nil)
	if godowns := decodeBody(t, rec)["godowns"].([]any); len(godowns) != 1 {
		t.Fatalf("expected one godown, got %d", len(godowns))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings: expected 200, got %d", rec.Code)
	}
	settings := decodeBody(t, rec)["settings"].(map[string]any)
	if settings["theme"] != "light" || settings["lowStockThreshold"] != float64(30) {
		t.Fatalf("unexpected defaults: %v", settings)
	}

	settings["theme"] = "dark"
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/settings", settings)
	if rec.Code != http.StatusOK {
		t.Fatalf("put settings: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/settings", nil)
	settings = decodeBody(t, rec)["settings"].(map[string]any)
	if settings["theme"] != "dark" {
		t.Fatalf("expected persisted theme, got %v", settings["theme"])
	}
}

func TestLowStockEndpoint(t *testing.T) {
	handler := newTestAPI(t).Handler()
	createItemViaAPI(t, handler, "Onion", 100, 20)
	createItemViaAPI(t, handler, "Spinach", 12, 40)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/inventory/low-stock", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items := decodeBody(t, rec)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one low-stock item, got %d", len(items))
	}
	if name := items[0].(map[string]any)["name"]; name != "Spinach" {
		t.Fatalf("expected Spinach, got %v", name)
	}
}

func TestReports(t *testing.T) {
	handler := newTestAPI(t).Handler()
	id := createItemViaAPI(t, handler, "Onion", 100, 20)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/transactions", map[string]any{
		"itemId": id, "type": "sale", "quantity": 40, "price": 25,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sale: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d", rec.Code)
	}
	summary := decodeBody(t, rec)["summary"].(map[string]any)
	if summary["totalSales"] != float64(1000) {
		t.Fatalf("expected totalSales 1000, got %v", summary["totalSales"])
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/reports?itemId=%s", id), nil)
	body := decodeBody(t, rec)
	if body["item"] == nil {
		t.Fatalf("expected single-item report, got %v", body)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports?itemId=item-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown item, got %d", rec.Code)
	}
}

func TestReportExport(t *testing.T) {
	handler := newTestAPI(t).Handler()
	createItemViaAPI(t, handler, "Onion", 100, 20)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/reports/export?format=pdf&type=inventory", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected pdf content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected PDF payload")
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/export?format=docx", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/transactions", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestUnknownJSONFieldRejected(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/inventory", map[string]any{
		"name": "Onion", "category": "other", "quantity": 1, "unit": "kg", "price": 2,
		"bogus": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestAPI(t).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/inventory", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("expected wildcard origin, got %q", origin)
	}
}
