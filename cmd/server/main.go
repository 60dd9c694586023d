package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/salesai/api-server-go/internal/analysis"
	"github.com/salesai/api-server-go/internal/audit"
	"github.com/salesai/api-server-go/internal/config"
	"github.com/salesai/api-server-go/internal/database"
	"github.com/salesai/api-server-go/internal/handler"
	"github.com/salesai/api-server-go/internal/jobs"
	"github.com/salesai/api-server-go/internal/middleware"
	"github.com/salesai/api-server-go/internal/redis"
	"github.com/salesai/api-server-go/internal/repository"
	"github.com/salesai/api-server-go/internal/service"
	"github.com/salesai/api-server-go/internal/storage"
	"github.com/salesai/api-server-go/internal/voice"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != "" || os.Getenv("ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	profileRepo := repository.NewProfileRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	subscriptionRepo := repository.NewSubscriptionRepository(db.DB)
	usageRepo := repository.NewUsageRepository(db.DB)
	auditLogRepo := repository.NewAuditLogRepository(db.DB)

	auditor := audit.NewRecorder(auditLogRepo)

	var analyzer analysis.Analyzer
	if cfg.OpenAIAPIKey != "" {
		analyzer = analysis.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
		log.Info().Str("model", cfg.OpenAIModel).Msg("using openai analyzer")
	} else {
		analyzer = analysis.NewMockAnalyzer()
		log.Info().Msg("OPENAI_API_KEY not set, using mock analyzer")
	}

	var audioStore *storage.AudioStore
	if err := cfg.StorageConfigured(); err == nil {
		audioStore, err = storage.NewAudioStore(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init audio storage")
		}
	} else {
		log.Warn().Err(err).Msg("audio storage unconfigured, upload endpoint disabled")
	}

	voiceClient := voice.NewClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsAgentID, cfg.ElevenLabsBaseURL)

	sessionService := service.NewSessionService(db, sessionRepo, profileRepo, subscriptionRepo, usageRepo, auditor, analyzer)
	statsService := service.NewStatsService(sessionRepo, subscriptionRepo, usageRepo, profileRepo)
	billingService := service.NewBillingService(cfg, profileRepo, subscriptionRepo, auditor)
	exportService := service.NewExportService(usageRepo)

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthJWTSecret)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	sessionHandler := handler.NewSessionHandler(sessionService, audioStore, authMiddleware, rateLimitMiddleware.Handler)
	dashboardHandler := handler.NewDashboardHandler(statsService, authMiddleware)
	voiceHandler := handler.NewVoiceHandler(cfg, voiceClient)
	billingHandler := handler.NewBillingHandler(billingService, authMiddleware, rateLimitMiddleware.Handler)
	adminHandler := handler.NewAdminHandler(exportService, cfg.AdminAPIToken)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/sessions", sessionHandler.Routes())
		r.Mount("/dashboard", dashboardHandler.Routes())
		r.Mount("/voice", voiceHandler.Routes())
		r.Mount("/billing", billingHandler.Routes())
		r.Mount("/admin", adminHandler.Routes())
	})

	abandonJob := jobs.NewAbandonJob(
		sessionRepo,
		time.Duration(cfg.SessionAbandonHours)*time.Hour,
		config.AbandonJobInterval,
	)
	abandonJob.Start()
	defer abandonJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
