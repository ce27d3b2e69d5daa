/*
handlers.go - HTTP API handlers for the rent management system

PURPOSE:
  Exposes the lease engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Leases:
    GET    /api/leases                   List all leases
    POST   /api/leases                   Create lease
    GET    /api/leases/{id}              Get lease details
    GET    /api/leases/{id}/schedule     Payment schedule + aggregates
    GET    /api/leases/{id}/payments     Ledger history
    POST   /api/leases/{id}/payments     Record a payment
    POST   /api/leases/{id}/refunds     Refund a prior payment
    POST   /api/leases/{id}/terminate    End the lease

  Records:
    GET/POST        /api/tenants, /api/properties, /api/maintenance
    GET/PUT/DELETE  /api/tenants/{id}, /api/properties/{id}
    GET/PUT         /api/maintenance/{id}

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator)
  3. Call domain logic (billing coordinator, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, over-refund
  - 404: Resource not found
  - 409: Conflict (duplicate idempotency key)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Run behind a reverse proxy that handles auth in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - billing/coordinator.go: Payment and refund logic
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/seintelly36/rent-manager/billing"
	"github.com/seintelly36/rent-manager/lease"
	"github.com/seintelly36/rent-manager/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Coordinator *billing.Coordinator

	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates a new handler with the given store and coordinator.
func NewHandler(store *sqlite.Store, coord *billing.Coordinator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:       store,
		Coordinator: coord,
		logger:      logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// =============================================================================
// LEASE HANDLERS
// =============================================================================

// ListLeases returns all leases.
func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	leases, err := h.Store.ListLeases(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leases", err)
		return
	}

	dtos := make([]LeaseDTO, len(leases))
	for i, l := range leases {
		dtos[i] = toLeaseDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLease returns a single lease with its computed schedule embedded.
func (h *Handler) GetLease(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	l, err := h.Store.GetLease(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get lease", err)
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "Lease not found", nil)
		return
	}

	detail := LeaseDetailDTO{LeaseDTO: toLeaseDTO(*l)}
	if calc, err := h.Coordinator.Schedule(r.Context(), id, time.Now().UTC()); err == nil {
		sched := toScheduleDTO(id, calc)
		detail.Calculations = &sched
	} else {
		// Detail degrades to lease metadata only; the schedule endpoint
		// will surface the failure to callers that need it.
		h.logger.Warn("schedule computation failed for lease detail",
			"lease_id", id,
			"error", err)
	}
	writeJSON(w, http.StatusOK, detail)
}

// CreateLease creates a new lease.
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	startDate, err := time.ParseInLocation(dateLayout, req.StartDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Amount must be a positive decimal", err)
		return
	}

	l := lease.Lease{
		ID:           lease.LeaseID(req.ID),
		TenantID:     lease.TenantID(req.TenantID),
		PropertyID:   lease.PropertyID(req.PropertyID),
		StartDate:    startDate,
		PeriodAmount: amount,
		PeriodUnit:   lease.PeriodUnit(req.PeriodUnit),
		PeriodCount:  req.PeriodCount,
		AutoCalcEnd:  req.AutoCalcEnd,
		Status:       lease.StatusActive,
	}
	if l.ID == "" {
		l.ID = lease.LeaseID(uuid.NewString())
	}

	if req.EndDate != "" {
		endDate, err := time.ParseInLocation(dateLayout, req.EndDate, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
		if !endDate.After(startDate) {
			writeError(w, http.StatusBadRequest, "end_date must be after start_date", nil)
			return
		}
		l.EndDate = &endDate
	}

	// A calculated end date requires a period count to calculate from.
	if l.AutoCalcEnd {
		if l.PeriodCount == nil {
			writeError(w, http.StatusBadRequest, "period_count is required when auto_calculate_end_date is set", nil)
			return
		}
		end := lease.AddPeriods(startDate, l.PeriodUnit, *l.PeriodCount)
		l.EndDate = &end
	}

	if err := h.Store.SaveLease(r.Context(), l); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create lease", err)
		return
	}

	h.logger.Info("lease created",
		"lease_id", l.ID,
		"tenant_id", l.TenantID,
		"property_id", l.PropertyID,
		"period_unit", l.PeriodUnit,
	)
	writeJSON(w, http.StatusCreated, toLeaseDTO(l))
}

// TerminateLease ends a lease as of a given date.
func (h *Handler) TerminateLease(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	var req TerminateLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.TerminateLease(r.Context(), id, date); err != nil {
		if errors.Is(err, lease.ErrLeaseNotFound) {
			writeError(w, http.StatusNotFound, "Lease not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to terminate lease", err)
		return
	}

	h.logger.Info("lease terminated", "lease_id", id, "date", req.Date)

	l, err := h.Store.GetLease(r.Context(), id)
	if err != nil || l == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "terminated"})
		return
	}
	writeJSON(w, http.StatusOK, toLeaseDTO(*l))
}

// =============================================================================
// SCHEDULE AND LEDGER HANDLERS
// =============================================================================

// GetSchedule returns the computed payment schedule for a lease.
// Historical reporting works on terminated leases too.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	now := time.Now().UTC()
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		t, err := time.ParseInLocation(dateLayout, asOf, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		now = t
	}

	calc, err := h.Coordinator.Schedule(r.Context(), id, now)
	if err != nil {
		writeDomainError(w, err, "Failed to compute schedule")
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(id, calc))
}

// ListPayments returns a lease's full ledger history.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	l, err := h.Store.GetLease(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get lease", err)
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "Lease not found", nil)
		return
	}

	entries, err := h.Store.ListByLease(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordPayment appends a rent payment and returns the updated schedule.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Amount must be a decimal", err)
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	calc, err := h.Coordinator.RecordPayment(r.Context(), id, billing.PaymentInput{
		Amount:         amount,
		Date:           date,
		Note:           req.Note,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, err, "Failed to record payment")
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleDTO(id, calc))
}

// ProcessRefund appends a refund entry linked to a prior payment.
func (h *Handler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	id := lease.LeaseID(chi.URLParam(r, "id"))

	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Amount must be a decimal", err)
		return
	}

	calc, err := h.Coordinator.ProcessRefund(r.Context(), id, billing.RefundInput{
		PaymentID:      lease.EntryID(req.PaymentID),
		Amount:         amount,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, err, "Failed to process refund")
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleDTO(id, calc))
}

// =============================================================================
// TENANT HANDLERS
// =============================================================================

// ListTenants returns all tenants.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Store.ListTenants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tenants", err)
		return
	}
	if tenants == nil {
		tenants = []sqlite.Tenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}

// GetTenant returns a single tenant.
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.GetTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenant", err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "Tenant not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SaveTenant creates or updates a tenant.
func (h *Handler) SaveTenant(w http.ResponseWriter, r *http.Request) {
	var req TenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	t := sqlite.Tenant{ID: req.ID, Name: req.Name, Email: req.Email, Phone: req.Phone}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		t.ID = id
		status = http.StatusOK
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := h.Store.SaveTenant(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tenant", err)
		return
	}
	writeJSON(w, status, t)
}

// DeleteTenant removes a tenant record.
func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteTenant(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete tenant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PROPERTY HANDLERS
// =============================================================================

// ListProperties returns all properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Store.ListProperties(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list properties", err)
		return
	}
	if properties == nil {
		properties = []sqlite.Property{}
	}
	writeJSON(w, http.StatusOK, properties)
}

// GetProperty returns a single property.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get property", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Property not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProperty creates or updates a property.
func (h *Handler) SaveProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	p := sqlite.Property{ID: req.ID, Name: req.Name, Address: req.Address}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		p.ID = id
		status = http.StatusOK
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := h.Store.SaveProperty(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save property", err)
		return
	}
	writeJSON(w, status, p)
}

// DeleteProperty removes a property record.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProperty(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete property", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MAINTENANCE HANDLERS
// =============================================================================

// ListTickets returns maintenance tickets, optionally filtered by status.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Store.ListTickets(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tickets", err)
		return
	}
	if tickets == nil {
		tickets = []sqlite.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// GetTicket returns a single maintenance ticket.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get ticket", err)
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "Ticket not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SaveTicket creates or updates a maintenance ticket.
func (h *Handler) SaveTicket(w http.ResponseWriter, r *http.Request) {
	var req TicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	t := sqlite.Ticket{
		ID:          req.ID,
		PropertyID:  req.PropertyID,
		TenantID:    req.TenantID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		t.ID = id
		status = http.StatusOK
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if t.Status == "" {
		t.Status = "pending"
	}
	if err := h.Store.SaveTicket(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save ticket", err)
		return
	}
	writeJSON(w, status, t)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case lease.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, lease.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, "Duplicate idempotency key", nil)
	case lease.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, lease.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, fallback, err)
	}
}
