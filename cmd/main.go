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

	"vibe-domain-service/internal/cache"
	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/database"
	"vibe-domain-service/internal/events"
	"vibe-domain-service/internal/handlers"
	"vibe-domain-service/internal/metrics"
	"vibe-domain-service/internal/repository"
	"vibe-domain-service/internal/services"
	"vibe-domain-service/internal/workers"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load .env for local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	initLogging()

	log.Info().Msg("Starting vibe-domain-service")

	cfg := config.NewConfig()
	release := cfg.Server.Mode == "release"

	db, err := database.NewConnection(&cfg.Database, release)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisClient := initRedis(cfg)
	eventPublisher := initPublisher(cfg, release)

	metrics.Init()

	// Repositories
	siteRepo := repository.NewSiteRepository(db)
	domainRepo := repository.NewDomainRepository(db)

	// Services
	var publisher services.EventPublisher
	if eventPublisher != nil {
		publisher = eventPublisher
	}

	var checker services.RecordChecker
	if cfg.DNS.VerifyRecords {
		checker = services.NewDNSChecker(cfg.DNS)
		log.Info().Str("resolver", cfg.DNS.ResolverAddr).Msg("DNS record checks enabled")
	} else {
		log.Warn().Msg("DNS record checks disabled, verification is recorded without lookup")
	}

	validator := services.NewDomainValidator(cfg.Platform)
	mappingCache := cache.NewMappingCache(redisClient, cfg.Cache.MappingTTL)

	publishingService := services.NewPublishingService(cfg, validator, siteRepo, publisher)
	registrarService := services.NewRegistrarService(cfg, validator, siteRepo, checker, publisher)
	directoryService := services.NewDirectoryService(cfg, validator, domainRepo, mappingCache, checker, publisher)
	resolverService := services.NewResolverService(validator, siteRepo, publishingService, directoryService)

	// Handlers
	router := handlers.NewRouter(
		&cfg.Server,
		handlers.NewVibeHandlers(publishingService, registrarService),
		handlers.NewDomainHandlers(directoryService),
		handlers.NewInternalHandlers(resolverService, directoryService, db),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Workers.Enabled {
		startWorkers(ctx, cfg, siteRepo, domainRepo, registrarService, directoryService, checker != nil)
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flush pending view increments before the pool closes
	resolverService.Wait()

	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}

	if redisClient != nil {
		redisClient.Close()
	}

	if eventPublisher != nil {
		eventPublisher.Close()
	}

	log.Info().Msg("Server exited")
}

func initLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Use JSON logging in production
	if os.Getenv("GIN_MODE") == "release" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func initRedis(cfg *config.Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse Redis URL, using defaults")
		opt = &redis.Options{
			Addr: fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis, mapping cache disabled")
		client.Close()
		return nil
	}

	log.Info().Msg("Connected to Redis")
	return client
}

func initPublisher(cfg *config.Config, release bool) *events.Publisher {
	if cfg.NATS.URL == "" {
		log.Warn().Msg("NATS URL not configured, event publishing disabled")
		return nil
	}

	logrusLogger := logrus.New()
	if release {
		logrusLogger.SetLevel(logrus.InfoLevel)
	} else {
		logrusLogger.SetLevel(logrus.DebugLevel)
	}

	publisher, err := events.NewPublisher(events.DefaultPublisherConfig(cfg.NATS.URL), logrusLogger)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize NATS publisher, events will not be published")
		return nil
	}
	log.Info().Str("url", cfg.NATS.URL).Msg("NATS event publisher initialized")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamDomains, events.StreamSubjects); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure domain events stream")
	}

	return publisher
}

func startWorkers(
	ctx context.Context,
	cfg *config.Config,
	sites *repository.SiteRepository,
	domains *repository.DomainRepository,
	registrar *services.RegistrarService,
	directory *services.DirectoryService,
	dnsChecks bool,
) {
	// Without DNS checks the worker would mark every pending domain verified
	if dnsChecks {
		dnsWorker := workers.NewDNSVerificationWorker(cfg, sites, domains, registrar, directory)
		go dnsWorker.Start(ctx)
	}

	cleanupWorker := workers.NewCleanupWorker(cfg, sites)
	go cleanupWorker.Start(ctx)

	log.Info().Msg("Background workers started")
}
