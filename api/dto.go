/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Lease:
    LeaseDTO, CreateLeaseRequest, TerminateLeaseRequest

  Schedule:
    ScheduleDTO, PeriodDTO

  Payments:
    RecordPaymentRequest, RefundRequest, EntryDTO

  Records:
    TenantRequest, PropertyRequest, TicketRequest

VALIDATION:
  Request types carry validator struct tags; handlers run them through
  the shared validator before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - lease/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seintelly36/rent-manager/lease"
)

// =============================================================================
// LEASE TYPES
// =============================================================================

// LeaseDTO represents a lease in API responses.
type LeaseDTO struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	PropertyID  string  `json:"property_id"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	Amount      string  `json:"amount"`
	PeriodUnit  string  `json:"period_unit"`
	PeriodCount *int    `json:"period_count,omitempty"`
	AutoCalcEnd bool    `json:"auto_calculate_end_date"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// CreateLeaseRequest is the request to create a lease.
type CreateLeaseRequest struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id" validate:"required"`
	PropertyID  string `json:"property_id" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date,omitempty"`
	Amount      string `json:"amount" validate:"required"`
	PeriodUnit  string `json:"period_unit" validate:"required,oneof=minute hour day week month year"`
	PeriodCount *int   `json:"period_count,omitempty" validate:"omitempty,gt=0"`
	AutoCalcEnd bool   `json:"auto_calculate_end_date"`
}

// LeaseDetailDTO is a lease with its computed schedule embedded.
type LeaseDetailDTO struct {
	LeaseDTO
	Calculations *ScheduleDTO `json:"calculations,omitempty"`
}

// TerminateLeaseRequest ends a lease as of a date.
type TerminateLeaseRequest struct {
	Date string `json:"date" validate:"required"`
}

// =============================================================================
// SCHEDULE TYPES
// =============================================================================

// PeriodDTO is one row of the payment schedule.
type PeriodDTO struct {
	PeriodNumber int     `json:"period_number"`
	DueDate      string  `json:"due_date"`
	AmountDue    string  `json:"amount_due"`
	IsPaid       bool    `json:"is_paid"`
	IsOverdue    bool    `json:"is_overdue"`
	IsAdvance    bool    `json:"is_advance"`
	PaidDate     *string `json:"paid_date,omitempty"`
	PaidAmount   *string `json:"paid_amount,omitempty"`
}

// ScheduleDTO is the full calculation result for a lease.
type ScheduleDTO struct {
	LeaseID            string      `json:"lease_id"`
	TotalPeriods       int         `json:"total_periods"`
	PeriodsElapsed     int         `json:"periods_elapsed"`
	PeriodsRemaining   int         `json:"periods_remaining"`
	TotalAmountDue     string      `json:"total_amount_due"`
	TotalPaid          string      `json:"total_paid"`
	AmountDue          string      `json:"amount_due"`
	NextDueDate        *string     `json:"next_due_date,omitempty"`
	DaysUntilNextDue   int         `json:"days_until_next_due"`
	Schedule           []PeriodDTO `json:"schedule"`
	UnattributedRefund string      `json:"unattributed_refund,omitempty"`
}

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// RecordPaymentRequest records a rent payment against a lease.
type RecordPaymentRequest struct {
	Amount         string `json:"amount" validate:"required"`
	Date           string `json:"date" validate:"required"`
	Note           string `json:"note,omitempty" validate:"max=1000"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"max=128"`
}

// RefundRequest refunds part or all of a prior payment.
type RefundRequest struct {
	PaymentID      string `json:"payment_id" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Reason         string `json:"reason" validate:"required,max=1000"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"max=128"`
}

// EntryDTO represents a ledger entry in API responses.
type EntryDTO struct {
	ID               string `json:"id"`
	LeaseID          string `json:"lease_id"`
	Amount           string `json:"amount"`
	Date             string `json:"date"`
	Kind             string `json:"kind"`
	Status           string `json:"status"`
	Note             string `json:"note,omitempty"`
	RefundsPaymentID string `json:"refunds_payment_id,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// TenantRequest creates or updates a tenant.
type TenantRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// PropertyRequest creates or updates a property.
type PropertyRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// TicketRequest creates or updates a maintenance ticket.
type TicketRequest struct {
	ID          string `json:"id"`
	PropertyID  string `json:"property_id" validate:"required"`
	TenantID    string `json:"tenant_id,omitempty"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

const dateLayout = "2006-01-02"

func toLeaseDTO(l lease.Lease) LeaseDTO {
	dto := LeaseDTO{
		ID:          string(l.ID),
		TenantID:    string(l.TenantID),
		PropertyID:  string(l.PropertyID),
		StartDate:   l.StartDate.Format(dateLayout),
		Amount:      l.PeriodAmount.String(),
		PeriodUnit:  string(l.PeriodUnit),
		PeriodCount: l.PeriodCount,
		AutoCalcEnd: l.AutoCalcEnd,
		Status:      string(l.Status),
	}
	if l.EndDate != nil {
		s := l.EndDate.Format(dateLayout)
		dto.EndDate = &s
	}
	if !l.CreatedAt.IsZero() {
		dto.CreatedAt = l.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toScheduleDTO(leaseID lease.LeaseID, c *lease.Calculations) ScheduleDTO {
	dto := ScheduleDTO{
		LeaseID:          string(leaseID),
		TotalPeriods:     c.TotalPeriods,
		PeriodsElapsed:   c.PeriodsElapsed,
		PeriodsRemaining: c.PeriodsRemaining,
		TotalAmountDue:   c.TotalAmountDue.String(),
		TotalPaid:        c.TotalPaid.String(),
		AmountDue:        c.AmountDue.String(),
		DaysUntilNextDue: c.DaysUntilNextDue,
		Schedule:         make([]PeriodDTO, len(c.Schedule)),
	}
	if c.NextDueDate != nil {
		s := c.NextDueDate.Format(dateLayout)
		dto.NextDueDate = &s
	}
	if c.UnattributedRefund.IsPositive() {
		dto.UnattributedRefund = c.UnattributedRefund.String()
	}
	for i, p := range c.Schedule {
		dto.Schedule[i] = toPeriodDTO(p)
	}
	return dto
}

func toPeriodDTO(p lease.PeriodDue) PeriodDTO {
	dto := PeriodDTO{
		PeriodNumber: p.PeriodNumber,
		DueDate:      p.DueDate.Format(dateLayout),
		AmountDue:    p.AmountDue.String(),
		IsPaid:       p.IsPaid,
		IsOverdue:    p.IsOverdue,
		IsAdvance:    p.IsAdvance,
	}
	if p.PaidDate != nil {
		s := p.PaidDate.Format(dateLayout)
		dto.PaidDate = &s
	}
	if p.PaidAmount != nil {
		s := p.PaidAmount.String()
		dto.PaidAmount = &s
	}
	return dto
}

func toEntryDTO(e lease.Entry) EntryDTO {
	return EntryDTO{
		ID:               string(e.ID),
		LeaseID:          string(e.LeaseID),
		Amount:           e.Amount.String(),
		Date:             e.Date.Format(dateLayout),
		Kind:             string(e.Kind),
		Status:           string(e.Status),
		Note:             e.Note,
		RefundsPaymentID: string(e.RefundsPaymentID),
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
