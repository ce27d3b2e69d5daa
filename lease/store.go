/*
store.go - Persistence interface for the ledger

PURPOSE:
  Defines the narrow interface between the engine and the durable
  ledger. The engine uses exactly two write-path operations: append an
  entry, and list a lease's entries ordered by date.

APPEND-ONLY CONTRACT:
  - Append(): the ONLY write operation on ledger entries
  - NO Update() or Delete() methods exist
  - Reversals are new refund entries, never edits

IDEMPOTENCY:
  An entry may carry an idempotency key. Appending a second entry with
  the same key is rejected, which makes retries from network failures
  and double-clicks safe.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite persistence
  - lease/store: in-memory, for tests and development
*/
package lease

import "context"

// Store persists ledger entries. APPEND-ONLY: corrections are made via
// refund entries, never by editing rows.
type Store interface {
	// Append persists an entry. Returns ErrDuplicateIdempotencyKey if
	// the entry's idempotency key already exists.
	Append(ctx context.Context, e Entry) error

	// ListByLease returns all entries for a lease ordered ascending by
	// date, then by creation time.
	ListByLease(ctx context.Context, leaseID LeaseID) ([]Entry, error)

	// GetEntry returns an entry by id, or nil when absent.
	GetEntry(ctx context.Context, id EntryID) (*Entry, error)

	// Exists checks whether an idempotency key was already used.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

// LeaseSource provides read-only lease lookup. The surrounding
// application owns lease lifecycle; the engine only reads terms.
type LeaseSource interface {
	// GetLease returns a lease by id, or nil when absent.
	GetLease(ctx context.Context, id LeaseID) (*Lease, error)
}
