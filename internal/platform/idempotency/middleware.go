package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHeaderName = "Idempotency-Key"
	replayHeaderName  = "X-Idempotent-Replay"
)

// Logger abstracts the logging dependency used inside the middleware.
type Logger interface {
	Printf(format string, args ...any)
}

type clockFunc func() time.Time

type middlewareConfig struct {
	headerName string
	ttl        time.Duration
	methods    map[string]struct{}
	clock      clockFunc
	logger     Logger
}

func defaultMethods() map[string]struct{} {
	return map[string]struct{}{
		http.MethodPost:   {},
		http.MethodPut:    {},
		http.MethodPatch:  {},
		http.MethodDelete: {},
	}
}

// MiddlewareOption customises middleware behaviour.
type MiddlewareOption func(*middlewareConfig)

// WithHeader overrides the header name used to extract the idempotency key.
func WithHeader(name string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if name = strings.TrimSpace(name); name != "" {
			cfg.headerName = name
		}
	}
}

// WithTTL configures how long completed idempotency records are retained.
func WithTTL(ttl time.Duration) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithMethods restricts the HTTP methods guarded by the middleware.
func WithMethods(methods ...string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if len(methods) == 0 {
			return
		}
		cfg.methods = make(map[string]struct{}, len(methods))
		for _, method := range methods {
			if method = strings.ToUpper(strings.TrimSpace(method)); method != "" {
				cfg.methods[method] = struct{}{}
			}
		}
	}
}

// WithLogger injects a logger for background persistence errors.
func WithLogger(logger Logger) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.logger = logger
	}
}

// WithClock overrides the time source, primarily for testing.
func WithClock(clock clockFunc) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

type guard struct {
	store Store
	cfg   middlewareConfig
}

// Middleware constructs an HTTP middleware enforcing idempotency semantics for mutating requests.
func Middleware(store Store, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	cfg := middlewareConfig{
		headerName: defaultHeaderName,
		ttl:        DefaultTTL,
		methods:    defaultMethods(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.ttl <= 0 {
		cfg.ttl = DefaultTTL
	}
	if len(cfg.methods) == 0 {
		cfg.methods = defaultMethods()
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}

	g := &guard{store: store, cfg: cfg}
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, next)
		})
	}
}

func (g *guard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if _, guarded := g.cfg.methods[r.Method]; !guarded {
		next.ServeHTTP(w, r)
		return
	}

	key := strings.TrimSpace(r.Header.Get(g.cfg.headerName))
	if key == "" {
		respondError(w, http.StatusBadRequest, "idempotency_key_required", "missing idempotency key header")
		return
	}

	body, err := readAndReplayBody(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "idempotency_read_body_failed", "unable to read request body")
		return
	}

	identity := extractRequester(r.Context())
	fingerprint := requestFingerprint(r, body, identity)
	scoped := scopedKey(key, identity)

	reservation, err := g.store.Reserve(r.Context(), scoped, fingerprint, g.cfg.clock().UTC(), g.cfg.ttl)
	if err != nil {
		g.respondStoreError(w, err)
		return
	}

	switch reservation.State {
	case ReservationStateNew:
	case ReservationStateCompleted:
		writeStoredResponse(w, reservation.Record)
		return
	case ReservationStatePending:
		respondError(w, http.StatusConflict, "idempotency_in_progress", "another request is processing this idempotency key")
		return
	default:
		respondError(w, http.StatusInternalServerError, "idempotency_unknown_state", "unexpected idempotency state")
		return
	}

	recorder := newResponseRecorder(w)
	next.ServeHTTP(recorder, r)

	response := Response{
		Status:  recorder.Status(),
		Headers: recorder.HeaderSnapshot(),
		Body:    recorder.Body(),
	}
	if err := g.store.SaveResponse(r.Context(), scoped, fingerprint, response, g.cfg.clock().UTC(), g.cfg.ttl); err != nil {
		g.logf("idempotency: failed to persist response for key %s (identity %s): %v", key, identity, err)
		if releaseErr := g.store.Release(r.Context(), scoped, fingerprint); releaseErr != nil {
			g.logf("idempotency: failed to release key %s after save failure: %v", key, releaseErr)
		}
		respondError(w, http.StatusInternalServerError, "idempotency_store_error", "unable to persist idempotency state")
		return
	}

	if err := recorder.Commit(); err != nil {
		g.logf("idempotency: failed to flush response for key %s: %v", key, err)
	}
}

func (g *guard) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrFingerprintMismatch) {
		respondError(w, http.StatusConflict, "idempotency_key_conflict", "idempotency key already used for a different request")
		return
	}
	g.logf("idempotency: store error: %v", err)
	respondError(w, http.StatusInternalServerError, "idempotency_store_error", "unable to process idempotency key")
}

func (g *guard) logf(format string, args ...any) {
	if g.cfg.logger != nil {
		g.cfg.logger.Printf(format, args...)
	}
}

func readAndReplayBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if err := r.Body.Close(); err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func requestFingerprint(r *http.Request, body []byte, identity string) string {
	parts := []string{
		strings.ToUpper(r.Method),
		r.URL.Path,
		r.URL.RawQuery,
		r.Host,
		r.Header.Get("Content-Type"),
		identity,
		hashBody(body),
	}
	return sha256Hex([]byte(strings.Join(parts, "|")))
}

func extractRequester(ctx context.Context) string {
	if requester, ok := RequesterFromContext(ctx); ok {
		return requester
	}
	return "anonymous"
}

type requesterContextKey struct{}

// WithRequester scopes idempotency records to the given caller identity, such as
// the webhook sender resolved from the route.
func WithRequester(ctx context.Context, requester string) context.Context {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return ctx
	}
	return context.WithValue(ctx, requesterContextKey{}, requester)
}

// RequesterFromContext retrieves the caller identity stored by WithRequester.
func RequesterFromContext(ctx context.Context) (string, bool) {
	requester, ok := ctx.Value(requesterContextKey{}).(string)
	return requester, ok && requester != ""
}

func hashBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	return sha256Hex(body)
}

func scopedKey(key, identity string) string {
	key = strings.TrimSpace(key)
	identity = strings.TrimSpace(identity)
	if identity == "" {
		identity = "anonymous"
	}
	if key == "" {
		return identity
	}
	return key + "|" + identity
}

func writeStoredResponse(w http.ResponseWriter, record Record) {
	replaceHeaders(w.Header(), headersFromRecord(record.ResponseHeaders))
	w.Header().Set(replayHeaderName, "true")

	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(record.ResponseBody) > 0 {
		_, _ = w.Write(record.ResponseBody)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   code,
		"message": message,
	})
}

func replaceHeaders(dst, src http.Header) {
	for key := range dst {
		dst.Del(key)
	}
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// responseRecorder buffers the handler's response so it can be persisted
// before anything reaches the client.
type responseRecorder struct {
	parent http.ResponseWriter
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseRecorder(parent http.ResponseWriter) *responseRecorder {
	return &responseRecorder{parent: parent, header: make(http.Header)}
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(status int) {
	if status <= 0 {
		status = http.StatusOK
	}
	r.status = status
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(data)
}

func (r *responseRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *responseRecorder) Body() []byte {
	if r.body.Len() == 0 {
		return nil
	}
	return r.body.Bytes()
}

func (r *responseRecorder) HeaderSnapshot() http.Header {
	if len(r.header) == 0 {
		return http.Header{}
	}
	return r.header.Clone()
}

func (r *responseRecorder) Commit() error {
	replaceHeaders(r.parent.Header(), r.header)
	r.parent.WriteHeader(r.Status())
	if r.body.Len() == 0 {
		return nil
	}
	_, err := r.parent.Write(r.body.Bytes())
	return err
}
