/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements lease.Store and lease.LeaseSource plus the routine record
  tables (tenants, properties, maintenance tickets) using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

APPEND-ONLY ENFORCEMENT:
  The ledger table enforces append-only semantics:
  - No UPDATE statements on ledger_entries
  - No DELETE statements on ledger_entries
  - Corrections via refund entries only

KEY TABLES:
  ledger_entries:      Immutable ledger of payments and refunds per lease
  leases:              Lease terms (status may move active -> terminated)
  tenants, properties: Record management
  maintenance_tickets: Maintenance workflow

INDEXES:
  - idx_entries_lease_date: Schedule recomputation (hot path)
  - idx_entries_refunds:    Refund-to-payment attribution
  - ledger_entries.idempotency_key UNIQUE: Duplicate submission guard

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/rentman.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - lease/store.go: Interface definitions
  - lease/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/seintelly36/rent-manager/lease"
)

const dateLayout = "2006-01-02"

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Ledger entries (append-only)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		lease_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		note TEXT,
		refunds_payment_id TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	-- Hot path: schedule recomputation reads a lease's full ledger
	CREATE INDEX IF NOT EXISTS idx_entries_lease_date
		ON ledger_entries(lease_id, entry_date, created_at);
	CREATE INDEX IF NOT EXISTS idx_entries_refunds
		ON ledger_entries(refunds_payment_id) WHERE refunds_payment_id IS NOT NULL;

	-- Leases
	CREATE TABLE IF NOT EXISTS leases (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		period_amount TEXT NOT NULL,
		period_unit TEXT NOT NULL,
		period_count INTEGER,
		auto_calculate_end BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leases_tenant ON leases(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_leases_property ON leases(property_id);
	CREATE INDEX IF NOT EXISTS idx_leases_status ON leases(status);

	-- Tenants
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Properties
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Maintenance tickets
	CREATE TABLE IF NOT EXISTS maintenance_tickets (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		tenant_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		priority TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tickets_property ON maintenance_tickets(property_id);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON maintenance_tickets(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER (lease.Store interface)
// =============================================================================

// Append adds an entry to the ledger. Append-only: there are no update
// or delete paths for ledger_entries.
func (s *Store) Append(ctx context.Context, e lease.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO ledger_entries
		(id, lease_id, amount, entry_date, kind, status, note,
		 refunds_payment_id, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.LeaseID,
		e.Amount.String(),
		e.Date.UTC().Format(dateLayout),
		e.Kind,
		e.Status,
		nullString(e.Note),
		nullString(string(e.RefundsPaymentID)),
		nullString(e.IdempotencyKey),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return lease.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// ListByLease returns all entries for a lease, ascending by date then
// creation time.
func (s *Store) ListByLease(ctx context.Context, leaseID lease.LeaseID) ([]lease.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, lease_id, amount, entry_date, kind, status, note,
		       refunds_payment_id, idempotency_key, created_at
		FROM ledger_entries
		WHERE lease_id = ?
		ORDER BY entry_date ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, leaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []lease.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEntry returns an entry by id, or nil when absent.
func (s *Store) GetEntry(ctx context.Context, id lease.EntryID) (*lease.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, lease_id, amount, entry_date, kind, status, note,
		       refunds_payment_id, idempotency_key, created_at
		FROM ledger_entries
		WHERE id = ?
	`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	e, err := scanEntry(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Exists checks if an idempotency key was already used.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)
	return count > 0, err
}

func scanEntry(rows *sql.Rows) (lease.Entry, error) {
	var (
		e          lease.Entry
		amount     string
		entryDate  string
		note       sql.NullString
		refundsPID sql.NullString
		idemKey    sql.NullString
		createdAt  string
	)

	err := rows.Scan(
		&e.ID, &e.LeaseID, &amount, &entryDate, &e.Kind, &e.Status,
		&note, &refundsPID, &idemKey, &createdAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return e, fmt.Errorf("bad amount in ledger entry %s: %w", e.ID, err)
	}
	e.Date, _ = time.ParseInLocation(dateLayout, entryDate, time.UTC)
	e.Note = note.String
	e.RefundsPaymentID = lease.EntryID(refundsPID.String)
	e.IdempotencyKey = idemKey.String
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return e, nil
}

// =============================================================================
// LEASES (lease.LeaseSource interface + lifecycle)
// =============================================================================

// SaveLease inserts or updates a lease's terms.
func (s *Store) SaveLease(ctx context.Context, l lease.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leases
		(id, tenant_id, property_id, start_date, end_date, period_amount,
		 period_unit, period_count, auto_calculate_end, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			property_id = excluded.property_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			period_amount = excluded.period_amount,
			period_unit = excluded.period_unit,
			period_count = excluded.period_count,
			auto_calculate_end = excluded.auto_calculate_end,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	var endDate any
	if l.EndDate != nil {
		endDate = l.EndDate.UTC().Format(dateLayout)
	}
	var periodCount any
	if l.PeriodCount != nil {
		periodCount = *l.PeriodCount
	}

	now := time.Now().UTC().Format(time.RFC3339)
	status := l.Status
	if status == "" {
		status = lease.StatusActive
	}

	_, err := s.db.ExecContext(ctx, query,
		l.ID, l.TenantID, l.PropertyID,
		l.StartDate.UTC().Format(dateLayout), endDate,
		l.PeriodAmount.String(), l.PeriodUnit, periodCount,
		l.AutoCalcEnd, status, now, now,
	)
	return err
}

// GetLease retrieves a lease by id, or nil when absent.
func (s *Store) GetLease(ctx context.Context, id lease.LeaseID) (*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, leaseSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	l, err := scanLease(rows)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLeases returns all leases ordered by start date.
func (s *Store) ListLeases(ctx context.Context) ([]lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, leaseSelect+" ORDER BY start_date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []lease.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

// TerminateLease marks a lease terminated as of the given date. The
// termination date becomes the lease end date. Returns
// lease.ErrLeaseNotFound when no row matches.
func (s *Store) TerminateLease(ctx context.Context, id lease.LeaseID, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE leases SET status = ?, end_date = ?, updated_at = ? WHERE id = ?`,
		lease.StatusTerminated,
		date.UTC().Format(dateLayout),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lease.ErrLeaseNotFound
	}
	return nil
}

const leaseSelect = `
	SELECT id, tenant_id, property_id, start_date, end_date, period_amount,
	       period_unit, period_count, auto_calculate_end, status, created_at, updated_at
	FROM leases`

func scanLease(rows *sql.Rows) (lease.Lease, error) {
	var (
		l            lease.Lease
		startDate    string
		endDate      sql.NullString
		periodAmount string
		periodCount  sql.NullInt64
		createdAt    string
		updatedAt    string
	)

	err := rows.Scan(
		&l.ID, &l.TenantID, &l.PropertyID, &startDate, &endDate,
		&periodAmount, &l.PeriodUnit, &periodCount, &l.AutoCalcEnd,
		&l.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return l, fmt.Errorf("failed to scan lease: %w", err)
	}

	l.StartDate, _ = time.ParseInLocation(dateLayout, startDate, time.UTC)
	if endDate.Valid {
		t, _ := time.ParseInLocation(dateLayout, endDate.String, time.UTC)
		l.EndDate = &t
	}
	l.PeriodAmount, err = decimal.NewFromString(periodAmount)
	if err != nil {
		return l, fmt.Errorf("bad period amount in lease %s: %w", l.ID, err)
	}
	if periodCount.Valid {
		n := int(periodCount.Int64)
		l.PeriodCount = &n
	}
	l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	l.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return l, nil
}

// =============================================================================
// TENANTS
// =============================================================================

// Tenant represents a tenant record.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveTenant inserts or updates a tenant.
func (s *Store) SaveTenant(ctx context.Context, t Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO tenants (id, name, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, t.ID, t.Name, t.Email, t.Phone, now, now)
	return err
}

// GetTenant retrieves a tenant by id, or nil when absent.
func (s *Store) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t Tenant
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, phone, created_at, updated_at FROM tenants WHERE id = ?",
		id,
	).Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &t, nil
}

// ListTenants returns all tenants ordered by name.
func (s *Store) ListTenants(ctx context.Context) ([]Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, phone, created_at, updated_at FROM tenants ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		var createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// DeleteTenant removes a tenant record.
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = ?", id)
	return err
}

// =============================================================================
// PROPERTIES
// =============================================================================

// Property represents a rental property record.
type Property struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveProperty inserts or updates a property.
func (s *Store) SaveProperty(ctx context.Context, p Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO properties (id, name, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Address, now, now)
	return err
}

// GetProperty retrieves a property by id, or nil when absent.
func (s *Store) GetProperty(ctx context.Context, id string) (*Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Property
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, address, created_at, updated_at FROM properties WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.Address, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// ListProperties returns all properties ordered by name.
func (s *Store) ListProperties(ctx context.Context) ([]Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, address, created_at, updated_at FROM properties ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []Property
	for rows.Next() {
		var p Property
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

// DeleteProperty removes a property record.
func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	return err
}

// =============================================================================
// MAINTENANCE TICKETS
// =============================================================================

// Ticket represents a maintenance ticket.
type Ticket struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	TenantID    string    `json:"tenant_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"` // low | medium | high
	Status      string    `json:"status"`   // pending | in_progress | completed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SaveTicket inserts or updates a maintenance ticket.
func (s *Store) SaveTicket(ctx context.Context, t Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO maintenance_tickets
		(id, property_id, tenant_id, title, description, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			priority = excluded.priority,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.PropertyID, nullString(t.TenantID), t.Title,
		nullString(t.Description), t.Priority, t.Status, now, now,
	)
	return err
}

// GetTicket retrieves a ticket by id, or nil when absent.
func (s *Store) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t Ticket
	var tenantID, description sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, property_id, tenant_id, title, description, priority, status, created_at, updated_at
		 FROM maintenance_tickets WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.PropertyID, &tenantID, &t.Title, &description, &t.Priority, &t.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.TenantID = tenantID.String
	t.Description = description.String
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &t, nil
}

// ListTickets returns tickets, optionally filtered by status.
func (s *Store) ListTickets(ctx context.Context, status string) ([]Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, property_id, tenant_id, title, description, priority, status, created_at, updated_at
	          FROM maintenance_tickets`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		var tenantID, description sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.PropertyID, &tenantID, &t.Title, &description, &t.Priority, &t.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		t.TenantID = tenantID.String
		t.Description = description.String
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
