// Package store provides an in-memory lease.Store implementation for
// tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/seintelly36/rent-manager/lease"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	entries     map[lease.LeaseID][]lease.Entry
	byID        map[lease.EntryID]lease.Entry
	idempotency map[string]bool

	leases map[lease.LeaseID]lease.Lease
}

func NewMemory() *Memory {
	return &Memory{
		entries:     make(map[lease.LeaseID][]lease.Entry),
		byID:        make(map[lease.EntryID]lease.Entry),
		idempotency: make(map[string]bool),
		leases:      make(map[lease.LeaseID]lease.Lease),
	}
}

// Append adds a single entry. Append-only.
func (m *Memory) Append(_ context.Context, e lease.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.IdempotencyKey != "" && m.idempotency[e.IdempotencyKey] {
		return lease.ErrDuplicateIdempotencyKey
	}

	list := m.entries[e.LeaseID]

	// Binary search for insertion point keeps the slice date-ordered.
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Date.After(e.Date)
	})
	list = append(list, lease.Entry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	m.entries[e.LeaseID] = list
	m.byID[e.ID] = e

	if e.IdempotencyKey != "" {
		m.idempotency[e.IdempotencyKey] = true
	}
	return nil
}

func (m *Memory) ListByLease(_ context.Context, leaseID lease.LeaseID) ([]lease.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]lease.Entry, len(m.entries[leaseID]))
	copy(result, m.entries[leaseID])
	return result, nil
}

func (m *Memory) GetEntry(_ context.Context, id lease.EntryID) (*lease.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

// =============================================================================
// LEASE SOURCE - so the memory store can back the coordinator in tests
// =============================================================================

// PutLease stores or replaces a lease record.
func (m *Memory) PutLease(l lease.Lease) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases[l.ID] = l
}

func (m *Memory) GetLease(_ context.Context, id lease.LeaseID) (*lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.leases[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}
