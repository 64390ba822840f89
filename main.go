package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/dealscout/config"
	"sjsage522/dealscout/helpers"
	"sjsage522/dealscout/internal"
	"sjsage522/dealscout/internal/acquisition"
	"sjsage522/dealscout/internal/extractor"
	"sjsage522/dealscout/internal/page"
	"sjsage522/dealscout/logger"
	"sjsage522/dealscout/services/analysis"
	"sjsage522/dealscout/services/api"
	"sjsage522/dealscout/services/cache"
	"sjsage522/dealscout/services/coordinator"
	"sjsage522/dealscout/services/publisher"
	"sjsage522/dealscout/services/storage"
	"sjsage522/dealscout/services/transport"
	"sjsage522/dealscout/services/worker"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("store", cfg.StoreDriver).
		Str("page_source", cfg.PageSource).
		Int("watch_urls", len(cfg.WatchURLs)).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	deps, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer deps.Cleanup()

	errLog := helpers.NewLogger(cfg.ErrorLogFile)

	// Create and start worker
	w := worker.NewWorker(
		ctx,
		deps.Registry,
		deps.Opener,
		transport.NewForwarder(deps.Requester),
		deps.Publisher,
		errLog,
		worker.Config{
			URLs:       cfg.WatchURLs,
			Interval:   cfg.WatchInterval,
			Window:     cfg.BrowserWatch,
			Session:    acquisition.Options{PollInterval: cfg.PollInterval, Timeout: cfg.PollTimeout},
			Production: cfg.IsProduction(),
		},
	)

	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting listing worker")
		workerDone <- w.Start()
	}()

	server := api.NewServer(deps.Requester, cfg.IsProduction())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Run(ctx, cfg.HTTPAddr)
	}()

	// Wait for shutdown signal or a component exiting
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("HTTP API exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	cancel()
	deps.Coordinator.Wait()
	<-deps.Store.Done()
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{}

	// Cache: memcache when configured, in-process otherwise
	deps.Cache = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, using in-process cache")
		} else {
			deps.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	// Publisher
	var storeOpts []storage.Option
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			redisPublisher.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		deps.Publisher = redisPublisher
		deps.OnCleanup("redis", redisPublisher.Close)
		storeOpts = append(storeOpts, storage.WithNotifier(redisPublisher))

		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	// Storage
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		deps.Cleanup()
		return nil, err
	}
	deps.OnCleanup("repository", repo.Close)

	deps.Store = storage.NewService(repo, storeOpts...)
	deps.Store.Start(ctx)

	// Extraction
	deps.Registry = extractor.NewDefaultRegistry()
	deps.Opener = &page.Factory{
		Kind:      cfg.PageSource,
		Cache:     deps.Cache,
		BlockTime: cfg.FetchBlockTime,
		Browser: page.BrowserOptions{
			ChromeBin: cfg.ChromeBin,
			Watch:     true,
		},
	}

	// Analysis
	deps.Analyzer = analysis.NewClient(
		analysis.Settings{
			Provider:    analysis.Provider(cfg.APIProvider),
			APIKey:      cfg.APIKey,
			AutoAnalyze: cfg.AutoAnalyze,
		},
		cfg.AnalysisRequestTimeout,
		analysis.WithCache(deps.Cache, cfg.AnalysisCacheTTL),
		analysis.WithRateLimit(cfg.AnalysisRatePerMinute),
	)

	// Messaging
	deps.Router = transport.NewRouter()
	deps.Coordinator = coordinator.New(deps.Store,
		coordinator.WithInspector(acquisition.NewInspector(deps.Registry, deps.Opener)),
		coordinator.WithAnalyzer(deps.Analyzer, cfg.AutoAnalyze && cfg.APIKey != ""),
	)
	deps.Coordinator.Register(deps.Router)

	if cfg.NATSURL == "" {
		deps.Requester = transport.NewLocalBus(deps.Router)
		return deps, nil
	}

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("dealscout"))
	if err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.NATSURL, err)
	}
	deps.OnCleanup("nats", func() error { return nc.Drain() })

	sub, err := transport.Serve(nc, cfg.NATSSubject, deps.Router)
	if err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", cfg.NATSSubject, err)
	}
	deps.OnCleanup("nats subscription", sub.Unsubscribe)
	deps.Requester = transport.NewNATSClient(nc, cfg.NATSSubject, 10*time.Second)

	logger.Info("Serving messages on NATS subject %s", cfg.NATSSubject)
	return deps, nil
}

func openRepository(ctx context.Context, cfg *config.Config) (storage.Repository, error) {
	switch cfg.StoreDriver {
	case "memory":
		return storage.NewMemoryRepository(), nil
	case "postgres":
		repo, err := storage.NewPostgresRepository(ctx, cfg.PostgresDSN, 4)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		logger.Info("Using postgres store")
		return repo, nil
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store at %s: %w", cfg.SQLitePath, err)
		}
		logger.Info("Using sqlite store at %s", cfg.SQLitePath)
		return repo, nil
	}
}
