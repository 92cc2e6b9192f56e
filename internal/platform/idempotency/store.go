package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Status is the lifecycle state of an idempotency record.
type Status string

const (
	// DefaultTTL is how long records are retained when no TTL is configured.
	DefaultTTL = 24 * time.Hour
	// StatusPending marks a key reserved by an in-flight request.
	StatusPending Status = "pending"
	// StatusCompleted marks a key whose stored response can be replayed.
	StatusCompleted Status = "completed"
)

// ReservationState is the outcome of attempting to reserve a key.
type ReservationState int

const (
	// ReservationStateNew means the key is fresh and the request may proceed.
	ReservationStateNew ReservationState = iota
	// ReservationStateCompleted means a stored response should be replayed.
	ReservationStateCompleted
	// ReservationStatePending means another request currently holds the key.
	ReservationStatePending
)

// Reservation is the result of reserving a key, including any stored record.
type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is the persisted response metadata for an idempotency key.
type Record struct {
	Key             string
	Fingerprint     string
	Status          Status
	ResponseStatus  int
	ResponseHeaders map[string][]string
	ResponseBody    []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

// Response is the HTTP response captured for future replays.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Store persists idempotency reservations and responses.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key, fingerprint string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// ErrFingerprintMismatch is returned when an idempotency key is reused with a
// different request fingerprint.
var ErrFingerprintMismatch = errors.New("idempotency: key reserved for different request fingerprint")

// recordKey derives the storage identifier for a client supplied key. Hashing
// keeps arbitrary client input out of document ids.
func recordKey(key string) string {
	return sha256Hex([]byte(strings.TrimSpace(key)))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func sanitizeHeaders(header http.Header) map[string][]string {
	if len(header) == 0 {
		return nil
	}

	filtered := make(map[string][]string, len(header))
	for name, values := range header {
		canonical := http.CanonicalHeaderKey(name)
		if shouldOmitHeader(canonical) {
			continue
		}
		filtered[canonical] = slices.Clone(values)
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

// Hop-by-hop and length headers must not be replayed verbatim.
var omittedHeaders = map[string]struct{}{
	"content-length":      {},
	"date":                {},
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"transfer-encoding":   {},
	"upgrade":             {},
}

func shouldOmitHeader(name string) bool {
	_, omit := omittedHeaders[strings.ToLower(name)]
	return omit
}

func headersFromRecord(values map[string][]string) http.Header {
	header := make(http.Header, len(values))
	for name, vals := range values {
		header[name] = slices.Clone(vals)
	}
	return header
}
