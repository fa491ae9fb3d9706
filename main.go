package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binance-trading-bot/config"
	"binance-trading-bot/internal/ai"
	"binance-trading-bot/internal/api"
	"binance-trading-bot/internal/auth"
	"binance-trading-bot/internal/cache"
	"binance-trading-bot/internal/chart"
	"binance-trading-bot/internal/clock"
	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/events"
	"binance-trading-bot/internal/exchange"
	"binance-trading-bot/internal/fillsync"
	"binance-trading-bot/internal/logging"
	"binance-trading-bot/internal/quotes"
	"binance-trading-bot/internal/sentiment"
	"binance-trading-bot/internal/tradelifecycle"
	"binance-trading-bot/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:       cfg.LoggingConfig.Level,
		Output:      cfg.LoggingConfig.Output,
		JSONFormat:  cfg.LoggingConfig.JSONFormat,
		IncludeFile: cfg.LoggingConfig.IncludeFile,
		Component:   "main",
	})
	logging.SetDefault(logger)
	logger.Info("structured logging initialized")

	eventBus := events.NewEventBus()

	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	logger.Info("migrations applied")

	repo := database.NewRepository(db)

	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		log.Fatalf("failed to initialize vault client: %v", err)
	}
	if vaultClient.IsEnabled() {
		logger.Info("vault enabled", "address", cfg.VaultConfig.Address)
	} else {
		logger.Info("vault disabled, reading API keys from configuration")
	}

	quotesAPIKey := resolveSecret(ctx, vaultClient, "quotes", cfg.QuotesConfig.APIKey)
	exchangeAPIWallet, exchangeAPISecret := cfg.ExchangeConfig.APIWallet, cfg.ExchangeConfig.APISecret
	if secret, err := vaultClient.GetSecret(ctx, "exchange"); err == nil && secret.APIKey != "" {
		exchangeAPIWallet, exchangeAPISecret = secret.APIKey, secret.APISecret
	}

	aiCfg := ai.Config{
		Enabled:        cfg.AIConfig.Enabled,
		Provider:       ai.Provider(cfg.AIConfig.Provider),
		ClaudeAPIKey:   cfg.AIConfig.ClaudeAPIKey,
		OpenAIAPIKey:   cfg.AIConfig.OpenAIAPIKey,
		DeepSeekAPIKey: cfg.AIConfig.DeepSeekAPIKey,
		Model:          cfg.AIConfig.Model,
		RequestTimeout: cfg.AIConfig.RequestTimeout,
		MaxRetries:     cfg.AIConfig.MaxRetries,
	}
	switch aiCfg.Provider {
	case ai.ProviderClaude:
		aiCfg.ClaudeAPIKey = resolveSecret(ctx, vaultClient, "ai", aiCfg.ClaudeAPIKey)
	case ai.ProviderOpenAI:
		aiCfg.OpenAIAPIKey = resolveSecret(ctx, vaultClient, "ai", aiCfg.OpenAIAPIKey)
	case ai.ProviderDeepSeek:
		aiCfg.DeepSeekAPIKey = resolveSecret(ctx, vaultClient, "ai", aiCfg.DeepSeekAPIKey)
	}

	var cacheService *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.NewCacheService(cfg.RedisConfig)
		if err != nil {
			logger.Warn("redis cache unavailable, continuing without it", "error", err)
		} else {
			logger.Info("redis cache initialized", "address", cfg.RedisConfig.Address)
		}
	}

	quotesClient := quotes.NewClient(quotes.Config{
		APIKey:         quotesAPIKey,
		BaseURL:        cfg.QuotesConfig.BaseURL,
		RateLimitRate:  cfg.QuotesConfig.RateLimitRate,
		RateLimitPer:   cfg.QuotesConfig.RateLimitPer,
		RateLimitBurst: cfg.QuotesConfig.RateLimitBurst,
		MaxConsecutive: cfg.QuotesConfig.MaxConsecutive,
		PauseDuration:  cfg.QuotesConfig.PauseDuration,
		MaxRetries:     cfg.QuotesConfig.MaxRetries,
		RequestTimeout: cfg.QuotesConfig.RequestTimeout,
	})

	exchangeClient := exchange.NewClient(exchange.Config{
		BaseURL:        cfg.ExchangeConfig.BaseURL,
		APIWallet:      exchangeAPIWallet,
		APISecret:      exchangeAPISecret,
		RequestTimeout: cfg.ExchangeConfig.RequestTimeout,
		MaxRetries:     cfg.ExchangeConfig.MaxRetries,
		PageSize:       cfg.ExchangeConfig.PageSize,
	})

	aiClient := ai.NewClient(aiCfg)

	chartRenderer := chart.NewRenderer(chart.Config{
		Width:  cfg.ChartConfig.Width,
		Height: cfg.ChartConfig.Height,
	})

	scheduler := clock.NewScheduler(cfg.ClockConfig.ShutdownGrace)

	sentimentEngine := sentiment.NewEngine(sentiment.Config{
		ScanInterval:    cfg.SentimentConfig.ScanInterval,
		DebounceWindow:  cfg.SentimentConfig.DebounceWindow,
		BootstrapOnInit: cfg.SentimentConfig.BootstrapOnInit,
		ModelName:       cfg.AIConfig.Model,
	}, repo, quotesClient, aiClient, chartRenderer, eventBus)

	lifecycleEngine := tradelifecycle.NewEngine(tradelifecycle.Config{
		ScanInterval: cfg.TradeLifecycleConfig.ScanInterval,
		OrphanPolicy: cfg.TradeLifecycleConfig.OrphanPolicy,
	}, repo, quotesClient, eventBus)

	var fillScheduler *fillsync.Scheduler
	if cfg.FillSyncConfig.Enabled && cacheService != nil {
		fillScheduler = fillsync.NewScheduler(fillsync.Config{
			Accounts:     cfg.ExchangeConfig.Accounts,
			SyncInterval: cfg.FillSyncConfig.SyncInterval,
		}, repo, exchangeClient, cacheService, eventBus)
	} else if cfg.FillSyncConfig.Enabled {
		logger.Warn("fill-sync enabled but redis cache is unavailable, skipping fill-sync scheduler")
	}

	if cfg.SentimentConfig.BootstrapOnInit {
		if err := sentimentEngine.Bootstrap(ctx); err != nil {
			logger.Warn("sentiment bootstrap failed", "error", err)
		}
	}
	if err := sentimentEngine.Start(ctx, scheduler); err != nil {
		log.Fatalf("failed to start sentiment engine: %v", err)
	}
	if err := lifecycleEngine.Start(ctx, scheduler); err != nil {
		log.Fatalf("failed to start trade lifecycle engine: %v", err)
	}
	if fillScheduler != nil {
		if err := fillScheduler.Start(ctx, scheduler); err != nil {
			log.Fatalf("failed to start fill-sync scheduler: %v", err)
		}
	}

	var authMgr *auth.Manager
	if cfg.AuthConfig.Enabled {
		authMgr = auth.NewManager(cfg.AuthConfig.JWTSecret, cfg.AuthConfig.TokenTTL)
	}

	server := api.NewServer(
		api.ServerConfig{
			Port:           cfg.ServerConfig.Port,
			Host:           cfg.ServerConfig.Host,
			ProductionMode: cfg.LoggingConfig.Level != "DEBUG",
		},
		repo,
		eventBus,
		lifecycleEngine,
		sentimentEngine,
		fillScheduler,
		aiClient,
		cfg.AIConfig.Model,
		authMgr,
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("api server failed: %v", err)
		}
	}()
	logger.Info("api server listening", "host", cfg.ServerConfig.Host, "port", cfg.ServerConfig.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down api server", "error", err)
	}
	scheduler.Shutdown()
	if cacheService != nil {
		_ = cacheService.Close()
	}
	logger.Info("shutdown complete")
}

// resolveSecret prefers vault when enabled, falling back to the
// configuration value when vault is disabled or the secret hasn't
// been stored there yet.
func resolveSecret(ctx context.Context, v *vault.Client, service, fallback string) string {
	if !v.IsEnabled() {
		return fallback
	}
	secret, err := v.GetSecret(ctx, service)
	if err != nil || secret.APIKey == "" {
		return fallback
	}
	return secret.APIKey
}
