package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"musicqr-server/internal/config"
	"musicqr-server/internal/infra/api"
	pg "musicqr-server/internal/infra/db/postgres"
	"musicqr-server/internal/infra/logging"
	"musicqr-server/internal/infra/metrics"
	red "musicqr-server/internal/infra/redis"
	"musicqr-server/internal/infra/sched"
	"musicqr-server/internal/infra/web"
	"musicqr-server/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema setup failed")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	codeRepo := pg.NewCodeRepo(pool)
	logRepo := pg.NewQueryLogRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	verifyUC := usecase.NewVerificationUseCase(codeRepo, logRepo, txManager, logger)
	syncUC := usecase.NewSyncUseCase(codeRepo, logger)
	adminUC := usecase.NewAdminUseCase(codeRepo, logRepo, logger)
	statsUC := red.NewCachedStatsUseCase(
		usecase.NewStatsUseCase(codeRepo, logger),
		redisClient, cfg.Redis.StatsTTL, logger,
	)

	// ---- HTTP surfaces ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.SessionTTL, !cfg.Runtime.Dev)
	apiKey := web.DeriveAPIKey(cfg.API.SecretKey, cfg.API.KeySalt)

	publicSrv := api.NewServer(verifyUC, statsUC, rateLimiter, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)
	adminSrv := web.NewServer(adminUC, syncUC, statsUC, auth, apiKey, logger)

	router := chi.NewRouter()
	publicSrv.Register(router)
	adminSrv.Register(router)

	handler := api.Chain(router,
		api.Recover(logger),
		api.TraceID(),
		api.RequestLog(logger),
		api.Timeout(30*time.Second),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Retention worker ----
	retention := time.Duration(cfg.Retention.Days) * 24 * time.Hour
	worker := sched.NewRetentionWorker(cfg.Retention.Interval, retention, logRepo, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Pool stats gauge ----
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
