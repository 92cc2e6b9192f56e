package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultEnvironment  = "local"
	defaultFallbackPath = ".secrets.local"
	defaultVersion      = "latest"
)

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret:// references using Google Secret Manager with local caching and fallbacks.
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool

	logger *zap.Logger

	env           string
	defaultProjID string
	fallback      *fallbackFile

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value     string
	canonical string
	fetchedAt time.Time
	source    string
}

type fetcherConfig struct {
	logger       *zap.Logger
	env          string
	defaultProj  string
	fallbackPath string
	client       secretManagerClient
	clientOpts   []option.ClientOption
}

// Option customises Fetcher construction.
type Option func(*fetcherConfig)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *fetcherConfig) { cfg.logger = logger }
}

// WithEnvironment selects the deployment environment, primarily for log context.
func WithEnvironment(env string) Option {
	return func(cfg *fetcherConfig) { cfg.env = strings.ToLower(strings.TrimSpace(env)) }
}

// WithDefaultProject configures the project ID used when a reference carries no project override.
func WithDefaultProject(projectID string) Option {
	return func(cfg *fetcherConfig) { cfg.defaultProj = strings.TrimSpace(projectID) }
}

// WithFallbackFile overrides the path to the local fallback secrets file.
func WithFallbackFile(path string) Option {
	return func(cfg *fetcherConfig) { cfg.fallbackPath = strings.TrimSpace(path) }
}

// WithSecretManagerClient injects a preconfigured Secret Manager client (primarily for tests).
func WithSecretManagerClient(client secretManagerClient) Option {
	return func(cfg *fetcherConfig) { cfg.client = client }
}

// WithClientOptions forwards Cloud client options when constructing the Secret Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *fetcherConfig) { cfg.clientOpts = append(cfg.clientOpts, opts...) }
}

// NewFetcher builds a Fetcher with secret caching and local fallback support.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{
		logger:       zap.NewNop(),
		env:          strings.ToLower(strings.TrimSpace(os.Getenv("API_SECURITY_ENVIRONMENT"))),
		fallbackPath: defaultFallbackPath,
	}
	if cfg.env == "" {
		cfg.env = defaultEnvironment
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	f := &Fetcher{
		logger:        cfg.logger,
		env:           cfg.env,
		defaultProjID: cfg.defaultProj,
		fallback:      &fallbackFile{path: cfg.fallbackPath, logger: cfg.logger},
		cache:         make(map[string]cacheEntry),
	}

	switch {
	case cfg.client != nil:
		f.client = cfg.client
	default:
		client, err := secretManagerClientFactory(ctx, cfg.clientOpts...)
		if err != nil {
			cfg.logger.Warn("secrets: secret manager client unavailable; operating in fallback mode", zap.Error(err))
		} else {
			f.client = client
			f.ownsClient = true
		}
	}

	return f, nil
}

// Close releases resources held by the fetcher.
func (f *Fetcher) Close() error {
	if f.ownsClient && f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Resolve retrieves the secret value for the supplied reference, consulting cache and fallbacks as needed.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}

	key := cacheKey(parsed.Canonical, parsed.Version)
	if value, ok := f.lookupCache(key); ok {
		return value, nil
	}

	projectID := f.projectID(parsed)
	if projectID != "" && f.client != nil {
		value, fetchErr := f.fetchRemote(ctx, projectID, parsed.Secret, parsed.Version)
		if fetchErr == nil {
			f.storeCache(key, value, parsed.Canonical, "remote")
			return value, nil
		}
		if !isFallbackError(fetchErr) {
			return "", fmt.Errorf("secrets: fetch failed for %s: %w", parsed.Canonical, fetchErr)
		}
		f.logger.Debug("secrets: falling back to local secrets", zap.String("ref", parsed.Canonical), zap.Error(fetchErr))
	}

	value, ok := f.fallback.lookup(parsed)
	if !ok {
		return "", fmt.Errorf("secrets: fallback value not found for %s", parsed.Canonical)
	}
	f.storeCache(key, value, parsed.Canonical, "fallback")
	return value, nil
}

// Invalidate clears cached values for the supplied reference.
func (f *Fetcher) Invalidate(ref string) {
	parsed, err := parseReference(ref)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for key, entry := range f.cache {
		if entry.canonical == parsed.Canonical {
			delete(f.cache, key)
		}
	}
}

func (f *Fetcher) lookupCache(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entry, ok := f.cache[key]
	return entry.value, ok
}

func (f *Fetcher) storeCache(key, value, canonical, source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[key] = cacheEntry{
		value:     value,
		canonical: canonical,
		fetchedAt: time.Now(),
		source:    source,
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, projectID, secretName, version string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, secretName, version)
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resourceName})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secret manager returned empty payload for %s", resourceName)
	}
	return string(resp.Payload.GetData()), nil
}

func (f *Fetcher) projectID(ref parsedReference) string {
	if ref.ProjectOverride != "" {
		return ref.ProjectOverride
	}
	return strings.TrimSpace(f.defaultProjID)
}

// fallbackFile loads a key=value secrets file once and serves lookups from memory.
type fallbackFile struct {
	path   string
	logger *zap.Logger

	once   sync.Once
	values map[string]string
	err    error
}

func (ff *fallbackFile) lookup(ref parsedReference) (string, bool) {
	ff.once.Do(ff.load)

	if ff.err != nil {
		ff.logger.Debug("secrets: fallback load error", zap.Error(ff.err))
		return "", false
	}
	if val, ok := ff.values[cacheKey(ref.Canonical, ref.Version)]; ok {
		return val, true
	}
	val, ok := ff.values[ref.Canonical]
	return val, ok
}

func (ff *fallbackFile) load() {
	ff.values = map[string]string{}

	path := strings.TrimSpace(ff.path)
	if path == "" {
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	file, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			ff.err = fmt.Errorf("secrets: unable to open fallback file %s: %w", path, err)
		}
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		ff.store(canonicalFallbackKey(key), strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		ff.err = fmt.Errorf("secrets: failed reading %s: %w", path, err)
	}
}

func (ff *fallbackFile) store(key, value string) {
	parsed, err := parseReference(key)
	if err != nil {
		ff.values[key] = value
		return
	}
	ff.values[parsed.Canonical] = value
	ff.values[cacheKey(parsed.Canonical, parsed.Version)] = value
}

type parsedReference struct {
	Raw             string
	Canonical       string
	Secret          string
	Version         string
	ProjectOverride string
}

func parseReference(ref string) (parsedReference, error) {
	if strings.TrimSpace(ref) == "" {
		return parsedReference{}, errors.New("secrets: empty reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return parsedReference{}, fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" {
		return parsedReference{}, fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	secret := strings.Trim(strings.TrimPrefix(u.Host+u.Path, "/"), "/")
	if secret == "" {
		return parsedReference{}, fmt.Errorf("secrets: missing secret name in %q", ref)
	}

	canonical := *u
	canonical.RawQuery = ""
	canonical.Fragment = ""

	query := u.Query()
	version := strings.TrimSpace(query.Get("version"))
	if version == "" {
		version = defaultVersion
	}

	return parsedReference{
		Raw:             ref,
		Canonical:       canonical.String(),
		Secret:          secret,
		Version:         version,
		ProjectOverride: strings.TrimSpace(query.Get("project")),
	}, nil
}

func cacheKey(canonical, version string) string {
	return canonical + "#" + version
}

func isFallbackError(err error) bool {
	if err == nil {
		return false
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}

func canonicalFallbackKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if after, ok := strings.CutPrefix(trimmed, "sm://"); ok {
		return "secret://" + after
	}
	return trimmed
}
