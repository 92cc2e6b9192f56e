package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/madenkorea/api/internal/gateway"
	"github.com/madenkorea/api/internal/handlers"
	"github.com/madenkorea/api/internal/notify"
	"github.com/madenkorea/api/internal/platform/config"
	pfirestore "github.com/madenkorea/api/internal/platform/firestore"
	"github.com/madenkorea/api/internal/platform/idempotency"
	"github.com/madenkorea/api/internal/platform/observability"
	"github.com/madenkorea/api/internal/platform/secrets"
	firestoreRepo "github.com/madenkorea/api/internal/repositories/firestore"
	"github.com/madenkorea/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets("Gateway.KeySecret", "Gateway.WebhookSecret"),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	attributionRepo, err := firestoreRepo.NewAttributionRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise attribution repository", zap.Error(err))
	}
	promoRepo, err := firestoreRepo.NewPromoCodeRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise promo code repository", zap.Error(err))
	}
	cartRepo, err := firestoreRepo.NewCartRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise cart repository", zap.Error(err))
	}

	gatewayLogger := logger.Named("gateway")
	gatewayProvider, err := gateway.NewRazorpayProvider(gateway.RazorpayConfig{
		KeyID:     cfg.Gateway.KeyID,
		KeySecret: cfg.Gateway.KeySecret,
		BaseURL:   cfg.Gateway.BaseURL,
		Timeout:   cfg.Gateway.Timeout,
		Logger:    eventLogger(gatewayLogger),
	})
	if err != nil {
		logger.Fatal("failed to initialise razorpay provider", zap.Error(err))
	}

	var notifier notify.Notifier
	var pubsubClient *pubsub.Client
	if strings.TrimSpace(cfg.Notifications.Topic) != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.Notifications.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		topic := pubsubClient.Topic(cfg.Notifications.Topic)
		notifier, err = notify.NewPubSubNotifier(topic)
		if err != nil {
			logger.Fatal("failed to initialise notifier", zap.Error(err))
		}
	} else {
		logger.Warn("notification topic not configured; receipt and alert delivery disabled")
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()

	resolver, err := services.NewAttributionResolver(services.AttributionResolverDeps{
		Attributions: attributionRepo,
		PromoCodes:   promoRepo,
		Logger:       eventLogger(logger.Named("attribution")),
	})
	if err != nil {
		logger.Fatal("failed to initialise attribution resolver", zap.Error(err))
	}

	sideEffects, err := services.NewSideEffectOrchestrator(services.SideEffectOrchestratorDeps{
		PromoCodes:        promoRepo,
		Carts:             cartRepo,
		Notifier:          notifier,
		InternalRecipient: cfg.Notifications.InternalRecipient,
		StepTimeout:       cfg.Notifications.SideEffectTimeout,
		Clock:             time.Now,
		Logger:            eventLogger(logger.Named("side_effects")),
	})
	if err != nil {
		logger.Fatal("failed to initialise side effect orchestrator", zap.Error(err))
	}

	confirmationService, err := services.NewConfirmationService(services.ConfirmationServiceDeps{
		Orders:        orderRepo,
		Attributions:  attributionRepo,
		Resolver:      resolver,
		Gateway:       gatewayProvider,
		SideEffects:   sideEffects,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Clock:         time.Now,
		Logger:        eventLogger(logger.Named("confirmation")),
	})
	if err != nil {
		logger.Fatal("failed to initialise confirmation service", zap.Error(err))
	}

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Idempotency.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Idempotency.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := idempotencyStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	paymentHandlers := handlers.NewPaymentHandlers(confirmationService, cfg.Features.AllowDebugTrace)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthEnvironment(cfg.Security.Environment),
		handlers.WithReadyCheck("firestore", firestoreReadyCheck(firestoreClient)),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(cfg.Firestore.ProjectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPayments(paymentHandlers.Routes),
		handlers.WithPaymentsMiddlewares(idempotencyMiddleware),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("maden korea api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// eventLogger adapts a zap logger to the event/field callbacks the services take.
func eventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

func firestoreReadyCheck(client *firestore.Client) handlers.ReadyCheck {
	return func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
		defer cancel()
		iter := client.Collections(probeCtx)
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		return err
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		return strings.TrimSpace(env[key])
	}

	envLabel := strings.ToLower(lookup("API_SECURITY_ENVIRONMENT"))
	if envLabel == "" {
		envLabel = "local"
	}
	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIRESTORE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	credentialsFile := lookup("API_GOOGLE_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithEnvironment(envLabel),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}
