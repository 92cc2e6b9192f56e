package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in a map guarded by a mutex. It backs tests and
// local development where Firestore is not available.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore constructs an empty memory-backed idempotency store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

func expired(record Record, now time.Time) bool {
	return !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt)
}

// Reserve implements the Store interface.
func (m *MemoryStore) Reserve(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	ttl = normalizeTTL(ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	id := recordKey(key)
	record, ok := m.records[id]
	if !ok || expired(record, now) {
		record = Record{
			Key:         key,
			Fingerprint: fingerprint,
			Status:      StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}
		m.records[id] = record
		return Reservation{State: ReservationStateNew, Record: record}, nil
	}

	if record.Fingerprint != fingerprint {
		return Reservation{}, ErrFingerprintMismatch
	}
	state := ReservationStatePending
	if record.Status == StatusCompleted {
		state = ReservationStateCompleted
	}
	return Reservation{State: state, Record: record}, nil
}

// SaveResponse implements the Store interface.
func (m *MemoryStore) SaveResponse(_ context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	ttl = normalizeTTL(ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	id := recordKey(key)
	record, ok := m.records[id]
	switch {
	case ok && record.Fingerprint != fingerprint:
		return ErrFingerprintMismatch
	case !ok:
		record = Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}
	}

	record.Status = StatusCompleted
	record.ResponseStatus = resp.Status
	record.ResponseHeaders = sanitizeHeaders(resp.Headers)
	record.ResponseBody = nil
	if len(resp.Body) > 0 {
		record.ResponseBody = append([]byte(nil), resp.Body...)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	record.ExpiresAt = now.Add(ttl)
	m.records[id] = record

	return nil
}

// CleanupExpired implements the Store interface.
func (m *MemoryStore) CleanupExpired(_ context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}

	removed := 0
	for id, record := range m.records {
		if !expired(record, now) {
			continue
		}
		delete(m.records, id)
		removed++
		if removed >= limit {
			break
		}
	}
	return removed, nil
}

// Release deletes the reservation so that subsequent attempts may retry.
func (m *MemoryStore) Release(_ context.Context, key, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, recordKey(key))
	return nil
}
