package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seintelly36/rent-manager/api"
	"github.com/seintelly36/rent-manager/billing"
	"github.com/seintelly36/rent-manager/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := billing.NewCoordinator(store, store, logger)
	handler := api.NewHandler(store, coord, logger)
	router := api.NewRouter(handler, api.RouterConfig{})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

// createLease posts a lease that started two months ago and returns its id.
func createLease(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	start := time.Now().UTC().AddDate(0, -2, 0).Format("2006-01-02")
	resp, body := doJSON(t, srv, http.MethodPost, "/api/leases", map[string]any{
		"tenant_id":               "tenant-1",
		"property_id":             "prop-1",
		"start_date":              start,
		"amount":                  "1000",
		"period_unit":             "month",
		"period_count":            12,
		"auto_calculate_end_date": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// =============================================================================
// LEASE LIFECYCLE
// =============================================================================

func TestAPI_CreateAndGetLease(t *testing.T) {
	srv := newTestServer(t)

	id := createLease(t, srv)

	resp, body := doJSON(t, srv, http.MethodGet, "/api/leases/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, "month", body["period_unit"])
	assert.NotEmpty(t, body["end_date"], "auto-calculated end date should be set")

	resp, _ = doJSON(t, srv, http.MethodGet, "/api/leases/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateLease_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing tenant", map[string]any{
			"property_id": "p", "start_date": "2025-01-01", "amount": "1000", "period_unit": "month",
		}},
		{"bad unit", map[string]any{
			"tenant_id": "t", "property_id": "p", "start_date": "2025-01-01", "amount": "1000", "period_unit": "fortnight",
		}},
		{"bad amount", map[string]any{
			"tenant_id": "t", "property_id": "p", "start_date": "2025-01-01", "amount": "-10", "period_unit": "month",
		}},
		{"bad date", map[string]any{
			"tenant_id": "t", "property_id": "p", "start_date": "January 1st", "amount": "1000", "period_unit": "month",
		}},
		{"auto end without count", map[string]any{
			"tenant_id": "t", "property_id": "p", "start_date": "2025-01-01", "amount": "1000",
			"period_unit": "month", "auto_calculate_end_date": true,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, srv, http.MethodPost, "/api/leases", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAPI_TerminateLease_BlocksMutations(t *testing.T) {
	// GIVEN: A terminated lease
	// WHEN: Recording a payment vs reading the schedule
	// THEN: The mutation is rejected, the read still works

	srv := newTestServer(t)
	id := createLease(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/terminate",
		map[string]any{"date": today()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "terminated", body["status"])

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/payments",
		map[string]any{"amount": "1000", "date": today()})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodGet, "/api/leases/"+id+"/schedule", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// PAYMENTS AND SCHEDULE
// =============================================================================

func TestAPI_RecordPayment_UpdatesSchedule(t *testing.T) {
	srv := newTestServer(t)
	id := createLease(t, srv)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/payments",
		map[string]any{"amount": "1000", "date": today()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "1000", body["total_paid"])
	assert.Equal(t, float64(12), body["total_periods"])
	schedule, ok := body["schedule"].([]any)
	require.True(t, ok)
	assert.Len(t, schedule, 12)

	resp, _ = doJSON(t, srv, http.MethodGet, "/api/leases/"+id+"/payments", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_RecordPayment_DuplicateKey_Conflict(t *testing.T) {
	srv := newTestServer(t)
	id := createLease(t, srv)

	payment := map[string]any{"amount": "1000", "date": today(), "idempotency_key": "k-1"}

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/payments", payment)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/payments", payment)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_Schedule_AsOf(t *testing.T) {
	// GIVEN: An unpaid lease with a fixed historical start
	// WHEN: Asking for the schedule as of a date two and a half periods in
	// THEN: Both elapsed periods show as owed

	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/leases", map[string]any{
		"tenant_id":               "tenant-1",
		"property_id":             "prop-1",
		"start_date":              "2025-01-01",
		"amount":                  "1000",
		"period_unit":             "month",
		"period_count":            12,
		"auto_calculate_end_date": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)

	resp, body = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/leases/%s/schedule?as_of=2025-03-15", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, float64(2), body["periods_elapsed"])
	assert.Equal(t, "2000", body["amount_due"])
}

// =============================================================================
// REFUNDS
// =============================================================================

func TestAPI_RefundFlow(t *testing.T) {
	// GIVEN: A recorded 1000 payment
	// WHEN: Refunding 300, then attempting 800 more
	// THEN: The first succeeds, the second is rejected as over-refund

	srv := newTestServer(t)
	id := createLease(t, srv)

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/payments",
		map[string]any{"amount": "1000", "date": today()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Find the payment id from the ledger
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/leases/"+id+"/payments", nil)
	require.NoError(t, err)
	raw, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	var entries []map[string]any
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&entries))
	require.Len(t, entries, 1)
	paymentID := entries[0]["id"].(string)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/refunds",
		map[string]any{"payment_id": paymentID, "amount": "300", "reason": "overcharge"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "700", body["total_paid"])

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/refunds",
		map[string]any{"payment_id": paymentID, "amount": "800", "reason": "too much"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/refunds",
		map[string]any{"payment_id": "ghost", "amount": "100", "reason": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Refund_ReasonRequired(t *testing.T) {
	srv := newTestServer(t)
	id := createLease(t, srv)

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/leases/"+id+"/refunds",
		map[string]any{"payment_id": "p", "amount": "100"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// RECORDS
// =============================================================================

func TestAPI_TenantAndPropertyCRUD(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/tenants",
		map[string]any{"name": "Ada", "email": "ada@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tenantID := body["id"].(string)

	resp, body = doJSON(t, srv, http.MethodGet, "/api/tenants/"+tenantID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada", body["name"])

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/tenants",
		map[string]any{"name": "Bad Email", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, srv, http.MethodPost, "/api/properties",
		map[string]any{"name": "Unit 4B", "address": "12 Main St"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	propertyID := body["id"].(string)

	resp, _ = doJSON(t, srv, http.MethodDelete, "/api/properties/"+propertyID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_MaintenanceTickets(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/api/maintenance",
		map[string]any{"property_id": "p-1", "title": "Leaky faucet"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "medium", body["priority"], "priority defaults to medium")
	assert.Equal(t, "pending", body["status"], "status defaults to pending")

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/maintenance",
		map[string]any{"property_id": "p-1", "title": "Heater", "priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown priority rejected")
}

func TestAPI_Healthz(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
