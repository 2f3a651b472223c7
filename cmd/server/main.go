package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resbook/internal/api"
	"resbook/internal/auth"
	"resbook/internal/config"
	"resbook/internal/database"
	"resbook/internal/domain"
	"resbook/internal/events"
	"resbook/internal/google"
	"resbook/internal/logging"
	"resbook/internal/metrics"
	"resbook/internal/models"
	"resbook/internal/notify"
	"resbook/internal/repository"
	"resbook/internal/service"
	"resbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	metrics.Register()

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, cache := initCounterCache(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Зеркало в Google Sheets опционально
	var mirrorWorker *worker.MirrorWorker
	if sheetsService := initGoogleSheets(ctx, cfg, &logger); sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		mirrorWorker = worker.NewMirrorWorker(db, sheetsService, redisClient, retryPolicy, &logger)
		go mirrorWorker.Start(ctx)
	}

	eventBus := events.NewEventBus()
	dispatcher := notify.NewDispatcher(db, db, cache,
		initMailer(cfg), initPusher(cfg), initMessenger(cfg, &logger),
		cfg.Push.Timeout, &logger)
	dispatcher.SubscribeAll(eventBus)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	var mirror domain.MirrorWorker
	if mirrorWorker != nil {
		mirror = mirrorWorker
	}

	services := api.Services{
		Tokens: tokens,
		Users: service.NewUserService(db, cache, tokens, cfg.Auth.AdminEmails,
			0, 0, &logger),
		Bookings: service.NewBookingService(db, db, eventBus, mirror,
			cfg.Booking.MaxBookingDays, cfg.Booking.MinAdvanceMinutes, &logger),
		Resources:     service.NewResourceService(db, &logger),
		Notifications: service.NewNotificationService(db, cache, &logger),
		Reports:       service.NewReportService(db),
	}

	if cfg.Monitoring.PrometheusEnabled {
		go startPrometheus(cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewServer(cfg.Server, services, cfg.Exports.Path, &logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init error")
		return nil, err
	}

	if err := db.SeedResources(context.Background(), cfg.Resources); err != nil {
		logger.Error().Err(err).Msg("resource seeding error")
	}
	return db, nil
}

const unreadCacheTTL = models.DefaultUnreadCacheTTL * time.Second

// initCounterCache builds the Redis cache with an in-memory failover.
// Without a configured Redis address the in-memory cache runs alone.
func initCounterCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.CounterCache) {
	memory := repository.NewMemoryCounterCache(unreadCacheTTL)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-memory cache")
		return nil, memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable at startup, failover will retry")
	}

	primary := repository.NewRedisCounterCache(client, unreadCacheTTL)
	return client, repository.NewFailoverCounterCache(primary, memory, logger)
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.BookingsSpreadSheetID == "" {
		logger.Info().Msg("google sheets mirror not configured")
		return nil
	}

	sheetsSvc, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.BookingsSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed")
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsSvc
}

func initMailer(cfg *config.Config) domain.Mailer {
	if !cfg.SMTP.Enabled {
		return nil
	}
	return notify.NewSMTPMailer(cfg.SMTP)
}

func initPusher(cfg *config.Config) domain.Pusher {
	if !cfg.Push.Enabled || cfg.Push.GatewayURL == "" {
		return nil
	}
	return notify.NewHTTPPusher(cfg.Push)
}

func initMessenger(cfg *config.Config, logger *zerolog.Logger) domain.ApproverMessenger {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		return nil
	}

	messenger, err := notify.NewTelegramMessenger(cfg.Telegram, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Telegram messenger")
		return nil
	}
	return messenger
}

func startPrometheus(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("prometheus server error")
	}
}
