package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/models"
	"github.com/CodeVerseByAnuj/sajag-ledger/pkg/store"
	"github.com/shopspring/decimal"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test_api.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewServer(s)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAPI_PaymentFlow(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()

	// Create customer
	rr := doJSON(t, router, "POST", "/customers", map[string]interface{}{
		"name":         "Ramesh Kumar",
		"guardianName": "Suresh Kumar",
		"relation":     "father",
		"address":      "12 Bazar Road",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var customer models.Customer
	json.Unmarshal(rr.Body.Bytes(), &customer)

	// Pledge item
	rr = doJSON(t, router, "POST", "/items", map[string]interface{}{
		"customerId": customer.ID.String(),
		"name":       "gold bangle",
		"category":   "gold",
		"itemWeight": "22g",
		"amount":     50000,
		"percentage": 2,
		"pledgedAt":  "2024-01-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var item models.Item
	json.Unmarshal(rr.Body.Bytes(), &item)
	if item.OrderID == "" {
		t.Error("Expected auto-generated order id")
	}

	// Record a payment
	rr = doJSON(t, router, "POST", "/items/"+item.ID.String()+"/payments", map[string]interface{}{
		"principalAmount": 10000,
		"interestAmount":  1000,
		"paymentDate":     "2024-02-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Payment       models.Payment       `json:"payment"`
		CurrentStatus models.CurrentStatus `json:"currentStatus"`
	}
	json.Unmarshal(rr.Body.Bytes(), &created)
	if !created.Payment.Amount.Equal(decimal.NewFromInt(11000)) {
		t.Errorf("Expected payment amount 11000, got %s", created.Payment.Amount)
	}
	if !created.CurrentStatus.RemainingAmount.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("Expected remaining 40000, got %s", created.CurrentStatus.RemainingAmount)
	}
	if created.CurrentStatus.InterestPaidTill.String() != "2024-02-01" {
		t.Errorf("Expected interestPaidTill 2024-02-01, got %s", created.CurrentStatus.InterestPaidTill)
	}

	// Fetch details
	rr = doJSON(t, router, "GET", "/items/"+item.ID.String()+"/payments", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var details models.ItemPaymentDetails
	json.Unmarshal(rr.Body.Bytes(), &details)
	if len(details.Payments) != 1 {
		t.Errorf("Expected 1 payment, got %d", len(details.Payments))
	}
	if !details.Summary.TotalAmountPaid.Equal(decimal.NewFromInt(11000)) {
		t.Errorf("Expected totalAmountPaid 11000, got %s", details.Summary.TotalAmountPaid)
	}

	// Interest due as of 2024-03-02: 30 days at 2% on the remaining 40000.
	rr = doJSON(t, router, "GET", "/items/"+item.ID.String()+"/due?asOf=2024-03-02", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var due models.Calculation
	json.Unmarshal(rr.Body.Bytes(), &due)
	if due.DaysCalculated != 30 {
		t.Errorf("Expected 30 days, got %d", due.DaysCalculated)
	}
	if !due.Interest.Equal(decimal.NewFromInt(800)) {
		t.Errorf("Expected interest due 800, got %s", due.Interest)
	}
}

func TestAPI_CalculateInterest(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()

	rr := doJSON(t, router, "POST", "/calculate-interest", map[string]interface{}{
		"amount":     1000,
		"percentage": 2,
		"startDate":  "2024-01-01",
		"endDate":    "2024-01-31",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var calc models.Calculation
	json.Unmarshal(rr.Body.Bytes(), &calc)
	if calc.DaysCalculated != 30 {
		t.Errorf("Expected 30 days, got %d", calc.DaysCalculated)
	}
	if !calc.Interest.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected interest 20, got %s", calc.Interest)
	}
	if !calc.TotalAmount.Equal(decimal.NewFromInt(1020)) {
		t.Errorf("Expected total 1020, got %s", calc.TotalAmount)
	}
}

func TestAPI_CalculateInterestRejectsBadRange(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()

	rr := doJSON(t, router, "POST", "/calculate-interest", map[string]interface{}{
		"amount":     1000,
		"percentage": 2,
		"startDate":  "2024-02-01",
		"endDate":    "2024-01-01",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestAPI_EmptyPaymentRejected(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()

	rr := doJSON(t, router, "POST", "/customers", map[string]interface{}{
		"name": "A", "guardianName": "B", "relation": "father", "address": "C",
	})
	var customer models.Customer
	json.Unmarshal(rr.Body.Bytes(), &customer)

	rr = doJSON(t, router, "POST", "/items", map[string]interface{}{
		"customerId": customer.ID.String(),
		"name":       "ring",
		"category":   "gold",
		"amount":     1000,
		"percentage": 2,
		"pledgedAt":  "2024-01-01",
	})
	var item models.Item
	json.Unmarshal(rr.Body.Bytes(), &item)

	rr = doJSON(t, router, "POST", "/items/"+item.ID.String()+"/payments", map[string]interface{}{
		"paymentDate": "2024-02-01",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty payment, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	// History must be unchanged.
	rr = doJSON(t, router, "GET", "/items/"+item.ID.String()+"/payments", nil)
	var details models.ItemPaymentDetails
	json.Unmarshal(rr.Body.Bytes(), &details)
	if len(details.Payments) != 0 {
		t.Errorf("Expected no payments after rejection, got %d", len(details.Payments))
	}
}

func TestAPI_CustomerValidation(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()

	rr := doJSON(t, router, "POST", "/customers", map[string]interface{}{
		"name": "A", "guardianName": "B", "relation": "father", "address": "C",
		"aadharNumber": "not-a-number",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad aadhar, got %d", rr.Code)
	}

	rr = doJSON(t, router, "GET", "/customers/00000000-0000-0000-0000-000000000001", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown customer, got %d", rr.Code)
	}
}

func TestAPI_Dashboard(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()

	rr := doJSON(t, router, "GET", "/dashboard", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var stats models.DashboardStats
	json.Unmarshal(rr.Body.Bytes(), &stats)
	if stats.TotalCustomers != 0 || stats.TotalItems != 0 {
		t.Errorf("Expected empty dashboard, got %+v", stats)
	}
}
