package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"examreg/internal/audit"
	"examreg/internal/auth"
	"examreg/internal/exam"
	"examreg/internal/guard"
	examhttp "examreg/internal/http"
	"examreg/internal/notice"
	"examreg/internal/payment"
	"examreg/internal/platform/config"
	"examreg/internal/platform/httpserver"
	"examreg/internal/platform/logger"
	"examreg/internal/platform/metrics"
	"examreg/internal/platform/postgres"
	"examreg/internal/platform/redis"
	"examreg/internal/registration"
	"examreg/internal/statistics"
	"examreg/internal/user"
)

// main wires dependencies and keeps the server lifecycle small.
// Business rules live in the internal service packages. External
// backends are optional: without a DSN the stores run in memory,
// without a broker the audit trail stays local.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var sink audit.Sink = audit.NewMemorySink()
	if cfg.KafkaBroker != "" {
		kafkaSink := audit.NewKafkaSink(cfg.KafkaBroker, cfg.KafkaAuditTopic)
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	publisher := audit.NewAsyncPublisher(sink, log, 256)
	defer publisher.Close()

	m := metrics.New()
	tokens := auth.NewTokenProvider(cfg.JWTSigningKey, cfg.TokenTTL)

	var (
		userStore         user.Store
		examStore         exam.Store
		registrationStore registration.Store
		orderStore        payment.Store
		noticeStore       notice.Store
	)
	if db != nil {
		userStore = user.NewPostgresStore(db)
		examStore = exam.NewPostgresStore(db)
		registrationStore = registration.NewPostgresStore(db)
		orderStore = payment.NewPostgresStore(db)
		noticeStore = notice.NewPostgresStore(db)
	} else {
		log.Warn("no postgres dsn configured, using in-memory stores")
		userStore = user.NewMemoryStore()
		examStore = exam.NewMemoryStore()
		registrationStore = registration.NewMemoryStore()
		orderStore = payment.NewMemoryStore()
		noticeStore = notice.NewMemoryStore()
	}

	userService := user.NewService(userStore, tokens, log,
		user.WithAuditPublisher(publisher),
		user.WithMetrics(m),
		user.WithLockout(cfg.MaxLoginFailures, cfg.LockDuration),
	)
	examService := exam.NewService(examStore, log)
	registrationService := registration.NewService(registrationStore, examService, userService, log,
		registration.WithAuditPublisher(publisher),
		registration.WithMetrics(m),
	)
	paymentService := payment.NewService(orderStore, registrationService, examService, log,
		payment.WithOrderTTL(cfg.OrderTTL),
		payment.WithAuditPublisher(publisher),
		payment.WithMetrics(m),
	)
	// Approval opens the payment order through the payment service.
	registrationService.SetOrderCreator(paymentService)

	var sessionStore guard.CredentialStore = guard.NewMemoryStore()
	if redisClient != nil {
		sessionStore = guard.NewRedisStore(redisClient.Client)
	}
	sessions := guard.New(sessionStore, userService, userService, log)
	noticeService := notice.NewService(noticeStore, log)
	statisticsService := statistics.NewService(userService, examService, registrationService, paymentService, log)

	router := examhttp.NewRouter(examhttp.Deps{
		Logger:        log,
		Tokens:        tokens,
		Users:         user.NewHandler(userService, sessions, log),
		Exams:         exam.NewHandler(examService, log),
		Registrations: registration.NewHandler(registrationService, log),
		Payments:      payment.NewHandler(paymentService, log),
		Notices:       notice.NewHandler(noticeService, log),
		Statistics:    statistics.NewHandler(statisticsService, log),
		Health: func() map[string]string {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			status := map[string]string{}
			if db != nil {
				status["postgres"] = "healthy"
				if err := db.PingContext(ctx); err != nil {
					status["postgres"] = "unhealthy"
				}
			}
			if redisClient != nil {
				status["redis"] = "healthy"
				if err := redisClient.Health(ctx); err != nil {
					status["redis"] = "unhealthy"
				}
			}
			return status
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sweep pending orders past their expiry.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				if _, err := paymentService.CloseExpired(rootCtx); err != nil {
					log.Warn("order expiry sweep failed", "error", err)
				}
			}
		}
	}()

	go func() {
		log.Info("server starting", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
