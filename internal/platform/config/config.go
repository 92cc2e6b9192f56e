package config

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile              = ".env"
	defaultPort                 = "8080"
	defaultReadTimeout          = 15 * time.Second
	defaultWriteTimeout         = 30 * time.Second
	defaultIdleTimeout          = 120 * time.Second
	defaultSecurityEnvironment  = "local"
	defaultGatewayTimeout       = 10 * time.Second
	defaultSideEffectTimeout    = 5 * time.Second
	defaultIdempotencyHeader    = "Idempotency-Key"
	defaultIdempotencyTTL       = 24 * time.Hour
	defaultIdempotencyInterval  = time.Hour
	defaultIdempotencyBatchSize = 200
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server        ServerConfig
	Firestore     FirestoreConfig
	Gateway       GatewayConfig
	Notifications NotificationConfig
	Security      SecurityConfig
	Idempotency   IdempotencyConfig
	Features      FeatureFlags
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// GatewayConfig collects payment gateway credentials and tunables.
type GatewayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
}

// NotificationConfig configures the Pub/Sub mail-job topic and recipients.
type NotificationConfig struct {
	ProjectID         string
	Topic             string
	InternalRecipient string
	SideEffectTimeout time.Duration
}

// SecurityConfig groups deployment-environment settings.
type SecurityConfig struct {
	Environment string
}

// IdempotencyConfig controls idempotency middleware behaviour.
type IdempotencyConfig struct {
	Header           string
	TTL              time.Duration
	CleanupInterval  time.Duration
	CleanupBatchSize int
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	// AllowDebugTrace permits the confirmation endpoint to echo its step trace
	// when the caller requests it. Must stay off in production.
	AllowDebugTrace bool
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError indicates that one or more required secrets failed to resolve.
type MissingSecretsError struct {
	secrets []missingSecret
}

type missingSecret struct {
	name     string
	redacted string
}

// Error implements the error interface.
func (e *MissingSecretsError) Error() string {
	names := e.RedactedNames()
	if len(names) == 0 {
		return "missing required secrets"
	}
	return fmt.Sprintf("missing required secrets [%s]", strings.Join(names, ", "))
}

// RedactedNames returns a copy of the redacted secret identifiers.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil || len(e.secrets) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.secrets))
	for _, secret := range e.secrets {
		out = append(out, secret.redacted)
	}
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver sets a custom secret resolver used for secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secret = resolver }
}

// WithRequiredSecrets marks the provided secret identifiers as mandatory.
// Identifiers match the config field names recorded by the loader
// (e.g. "Gateway.KeySecret" or "Gateway.WebhookSecret").
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) { o.requiredSecrets = append(o.requiredSecrets, names...) }
}

func applyOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// envSource answers configuration lookups with the precedence
// explicit env map > OS environment > dotenv file.
type envSource struct {
	explicit map[string]string
	useOS    bool
	dotenv   map[string]string
}

func newEnvSource(options loaderOptions) (envSource, error) {
	dotenv, err := loadDotEnv(options.envFile)
	if err != nil {
		return envSource{}, err
	}
	return envSource{
		explicit: options.envMap,
		useOS:    options.useSystemEnv,
		dotenv:   dotenv,
	}, nil
}

func (e envSource) lookup(key string) (string, bool) {
	if value, ok := e.explicit[key]; ok {
		return value, true
	}
	if e.useOS {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
	}
	value, ok := e.dotenv[key]
	return value, ok
}

func (e envSource) String(key, fallback string) string {
	if value, ok := e.lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func (e envSource) Duration(key string, fallback time.Duration) time.Duration {
	if value, ok := e.lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (e envSource) Int(key string, fallback int) int {
	if value, ok := e.lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func (e envSource) Bool(key string, fallback bool) bool {
	if value, ok := e.lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

// EnvironmentValues returns the effective key/value environment map after applying the same
// precedence rules as Load (dotenv < OS env < explicit env map). Callers can use the result to
// initialise dependencies before invoking Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := applyOptions(opts)
	source, err := newEnvSource(options)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for key, value := range source.dotenv {
		values[key] = value
	}
	if source.useOS {
		for _, entry := range os.Environ() {
			key, value, found := strings.Cut(entry, "=")
			if key = strings.TrimSpace(key); found && key != "" {
				values[key] = value
			}
		}
	}
	for key, value := range source.explicit {
		values[key] = value
	}
	return values, nil
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := applyOptions(opts)
	if options.secret == nil {
		options.secret = SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		})
	}

	env, err := newEnvSource(options)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         env.String("API_SERVER_PORT", defaultPort),
			ReadTimeout:  env.Duration("API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: env.Duration("API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  env.Duration("API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    env.String("API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: env.String("API_FIRESTORE_EMULATOR_HOST", ""),
		},
		Gateway: GatewayConfig{
			KeyID:         env.String("API_GATEWAY_KEY_ID", ""),
			KeySecret:     env.String("API_GATEWAY_KEY_SECRET", ""),
			WebhookSecret: env.String("API_GATEWAY_WEBHOOK_SECRET", ""),
			BaseURL:       env.String("API_GATEWAY_BASE_URL", ""),
			Timeout:       env.Duration("API_GATEWAY_TIMEOUT", defaultGatewayTimeout),
		},
		Notifications: NotificationConfig{
			ProjectID:         env.String("API_NOTIFY_PROJECT_ID", ""),
			Topic:             env.String("API_NOTIFY_TOPIC", ""),
			InternalRecipient: env.String("API_NOTIFY_INTERNAL_RECIPIENT", ""),
			SideEffectTimeout: env.Duration("API_NOTIFY_SIDE_EFFECT_TIMEOUT", defaultSideEffectTimeout),
		},
		Security: SecurityConfig{
			Environment: strings.ToLower(env.String("API_SECURITY_ENVIRONMENT", defaultSecurityEnvironment)),
		},
		Idempotency: IdempotencyConfig{
			Header:           env.String("API_IDEMPOTENCY_HEADER", defaultIdempotencyHeader),
			TTL:              env.Duration("API_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
			CleanupInterval:  env.Duration("API_IDEMPOTENCY_CLEANUP_INTERVAL", defaultIdempotencyInterval),
			CleanupBatchSize: env.Int("API_IDEMPOTENCY_CLEANUP_BATCH", defaultIdempotencyBatchSize),
		},
		Features: FeatureFlags{
			AllowDebugTrace: env.Bool("API_FEATURE_DEBUG_TRACE", false),
		},
	}

	// Notification publishing defaults to the Firestore project when unspecified.
	if cfg.Notifications.ProjectID == "" {
		cfg.Notifications.ProjectID = cfg.Firestore.ProjectID
	}

	resolvedSecrets := make(map[string]string)
	secretFields := []struct {
		name  string
		field *string
	}{
		{"Gateway.KeySecret", &cfg.Gateway.KeySecret},
		{"Gateway.WebhookSecret", &cfg.Gateway.WebhookSecret},
	}
	for _, target := range secretFields {
		resolved, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = resolved
		resolvedSecrets[target.name] = strings.TrimSpace(resolved)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	if missing := findMissingSecrets(options.requiredSecrets, resolvedSecrets); missing != nil {
		return Config{}, missing
	}

	return cfg, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" || !isSecretReference(value) {
		return value, nil
	}
	normalized := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	require := func(ok bool, field string) {
		if !ok {
			missing = append(missing, field)
		}
	}

	require(cfg.Server.Port != "", "Server.Port")
	require(cfg.Firestore.ProjectID != "", "Firestore.ProjectID")
	require(strings.TrimSpace(cfg.Gateway.KeyID) != "", "Gateway.KeyID")
	require(strings.TrimSpace(cfg.Idempotency.Header) != "", "Idempotency.Header")
	require(cfg.Idempotency.TTL > 0, "Idempotency.TTL")
	require(cfg.Idempotency.CleanupInterval > 0, "Idempotency.CleanupInterval")
	require(cfg.Idempotency.CleanupBatchSize > 0, "Idempotency.CleanupBatchSize")

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	seen := make(map[string]struct{}, len(required))
	var missing []missingSecret
	for _, name := range required {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		if strings.TrimSpace(resolved[trimmed]) != "" {
			continue
		}
		missing = append(missing, missingSecret{
			name:     trimmed,
			redacted: redactSecretName(trimmed),
		})
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingSecretsError{secrets: missing}
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if after, ok := strings.CutPrefix(trimmed, "sm://"); ok {
		return "secret://" + after
	}
	return trimmed
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", path, err)
	}
	return values, nil
}
