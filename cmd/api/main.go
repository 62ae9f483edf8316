package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lightning-payment-gateway/config"
	httpHandler "lightning-payment-gateway/internal/adapter/http/handler"
	"lightning-payment-gateway/internal/adapter/lnurl"
	"lightning-payment-gateway/internal/adapter/metrics"
	boltStorage "lightning-payment-gateway/internal/adapter/storage/bolt"
	"lightning-payment-gateway/internal/adapter/storage/kvrepo"
	pgStorage "lightning-payment-gateway/internal/adapter/storage/postgres"
	redisStorage "lightning-payment-gateway/internal/adapter/storage/redis"
	"lightning-payment-gateway/internal/core/ports"
	"lightning-payment-gateway/internal/service"
	"lightning-payment-gateway/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const sweepInterval = 5 * time.Minute

// storage is the backend-specific half of the wiring.
type storage struct {
	kv        ports.KeyValueStore
	rateLimit ports.RateLimitStore
	auditRepo ports.AuditRepository
	health    []ports.HealthChecker
	close     func()
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("LPG_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("Gateway stopped")
	}
	log.Info().Msg("Server exited")
}

// run serves until ctx is cancelled or the listener fails. Storage is closed
// on every return path.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("backend", cfg.Storage.Backend).
		Msg("Starting Lightning Payment Gateway")

	// Background sweepers stop before the store is closed.
	ctx, cancel := context.WithCancel(ctx)
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		cancel()
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	defer store.close()
	defer cancel()

	// Repositories over the shared key/value layout
	merchantRepo := kvrepo.NewMerchantRepo(store.kv)
	paymentRepo := kvrepo.NewPaymentRepo(store.kv, cfg.Payment.RecordTTL)
	usageRepo := kvrepo.NewUsageRepo(store.kv)
	idempotencyCache := kvrepo.NewIdempotencyCache(store.kv)

	// Core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		return fmt.Errorf("initialize encryption service: %w", err)
	}
	sigSvc := service.NewHMACSignatureService()
	identity := service.NewIdentityDeriver(cfg.Identity.Product)
	recorder := metrics.NewRecorder()

	lnurlClient := lnurl.NewClient(
		&http.Client{Timeout: cfg.LNURL.Timeout},
		cfg.LNURL.Scheme,
		logger.Component(log, "lnurl"),
	)
	webhookSvc := service.NewWebhookService(
		sigSvc,
		&http.Client{},
		cfg.Webhook.Timeout,
		recorder,
		logger.Component(log, "webhook"),
	)
	defer webhookSvc.Wait()

	// Business services
	authSvc := service.NewAuthService(merchantRepo, identity)
	merchantSvc := service.NewMerchantService(merchantRepo, authSvc, encSvc, logger.Component(log, "merchant"))
	paymentSvc := service.NewPaymentService(
		merchantRepo,
		paymentRepo,
		usageRepo,
		lnurlClient,
		webhookSvc,
		encSvc,
		recorder,
		service.PaymentConfig{
			ExpiryWindow:  cfg.Payment.ExpiryWindow,
			VerifyTimeout: cfg.Payment.VerifyTimeout,
		},
		logger.Component(log, "payment"),
	)
	auditSvc := service.NewAuditService(store.auditRepo, logger.Component(log, "audit"))

	// Load OpenAPI spec for Swagger UI
	specBytes, err := os.ReadFile("docs/api/openapi.yaml")
	if err == nil {
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:          authSvc,
		PaymentSvc:       paymentSvc,
		MerchantSvc:      merchantSvc,
		IdempotencyCache: idempotencyCache,
		RateLimitStore:   store.rateLimit,
		AuditSvc:         auditSvc,
		HealthCheckers:   store.health,
		MetricsHandler:   recorder.Handler(),
		OpenAPISpec:      specBytes,
		PublicURL:        cfg.Server.PublicURL,
		Mode:             cfg.Server.Mode,
		Logger:           log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	return nil
}

// openStorage connects the configured backend. Only the redis backend keeps
// rate-limit counters natively; the others share the generic kv counters.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Redis connected")
		return &storage{
			kv:        redisStorage.NewStore(rdb),
			rateLimit: redisStorage.NewRateLimitStore(rdb),
			health:    []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
			close:     func() { _ = rdb.Close() },
		}, nil

	case config.BackendPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := pgStorage.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("PostgreSQL connected")

		kv := pgStorage.NewStore(pool)
		go runSweeper(ctx, log, kv.Sweep)
		return &storage{
			kv:        kv,
			rateLimit: kvrepo.NewRateLimitStore(kv),
			auditRepo: pgStorage.NewAuditRepository(pool),
			health:    []ports.HealthChecker{pgStorage.NewHealthCheck(pool)},
			close:     pool.Close,
		}, nil

	case config.BackendBolt:
		db, err := boltStorage.Open(cfg.Bolt.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.Bolt.Path).Msg("Bolt store opened")

		go db.RunJanitor(ctx, sweepInterval, func(removed int, err error) {
			logSweep(log, int64(removed), err)
		})
		return &storage{
			kv:        db,
			rateLimit: kvrepo.NewRateLimitStore(db),
			health:    []ports.HealthChecker{db},
			close:     func() { _ = db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func runSweeper(ctx context.Context, log zerolog.Logger, sweep func(context.Context) (int64, error)) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweep(ctx)
			logSweep(log, n, err)
		}
	}
}

func logSweep(log zerolog.Logger, removed int64, err error) {
	if err != nil {
		log.Warn().Err(err).Msg("expired entry sweep failed")
		return
	}
	if removed > 0 {
		log.Debug().Int64("removed", removed).Msg("expired entries swept")
	}
}
