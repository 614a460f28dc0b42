package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"payment-portal/backend/internal/audit"
	auditrepo "payment-portal/backend/internal/audit/repository"
	"payment-portal/backend/internal/authz"
	"payment-portal/backend/internal/config"
	"payment-portal/backend/internal/db"
	identityrepo "payment-portal/backend/internal/identity/repository"
	identityservice "payment-portal/backend/internal/identity/service"
	paymentrepo "payment-portal/backend/internal/payment/repository"
	paymentservice "payment-portal/backend/internal/payment/service"
	"payment-portal/backend/internal/security"
	"payment-portal/backend/internal/server"
	"payment-portal/backend/internal/session/store"
	"payment-portal/backend/internal/telemetry"
	"payment-portal/backend/internal/telemetry/otel"
	"payment-portal/backend/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	healthChecks := map[string]server.HealthCheck{
		"database": func(ctx context.Context) error { return conn.PingContext(ctx) },
	}

	var sessions store.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		rs := store.NewRedisStore(client, cfg.SessionLifetime())
		healthChecks["redis"] = rs.Ping
		sessions = rs
	} else {
		log.Println("REDIS_URL not set; using in-process session store (single instance only)")
		sessions = store.NewMemoryStore(cfg.SessionLifetime())
	}

	evaluator, err := authz.NewOPAEvaluator()
	if err != nil {
		log.Fatalf("authz: %v", err)
	}
	healthChecks["policy"] = evaluator.HealthCheck

	hasher := security.NewHasher(uint32(cfg.ArgonMemoryKiB), uint32(cfg.ArgonTime), uint8(cfg.ArgonThreads))
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	customers := identityrepo.NewCustomerPostgresRepository(conn)
	employees := identityrepo.NewEmployeePostgresRepository(conn)
	authService := identityservice.NewAuthService(customers, employees, hasher, tokens)
	paymentService := paymentservice.NewPaymentService(paymentrepo.NewPaymentPostgresRepository(conn))

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), server.ClientIP)

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "payment-portal", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	var emitters telemetry.Fanout
	emitters = append(emitters, otel.NewEventEmitter(providers.LoggerProvider))
	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
	}

	router := server.NewRouter(server.Deps{
		Auth:         authService,
		Payments:     paymentService,
		Sessions:     sessions,
		Tokens:       tokens,
		Authz:        evaluator,
		Audit:        auditLogger,
		Emitter:      emitters,
		SessionTTL:   cfg.SessionLifetime(),
		CookieSecure: cfg.CookieSecure,
		HealthChecks: healthChecks,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, "payment-portal"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Let in-flight async telemetry finish before the providers go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
