// Command maint is the C8 maintenance CLI: orphan reconciliation and
// trade restoration, both explicit operator actions never triggered
// automatically by the running engines (§9).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"binance-trading-bot/config"
	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/database"
	"binance-trading-bot/internal/events"
	"binance-trading-bot/internal/quotes"
	"binance-trading-bot/internal/tradelifecycle"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitValidation)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(exitFailure)
	}

	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(exitFailure)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	quotesClient := quotes.NewClient(quotes.Config{
		APIKey:         cfg.QuotesConfig.APIKey,
		BaseURL:        cfg.QuotesConfig.BaseURL,
		RateLimitRate:  cfg.QuotesConfig.RateLimitRate,
		RateLimitPer:   cfg.QuotesConfig.RateLimitPer,
		RateLimitBurst: cfg.QuotesConfig.RateLimitBurst,
		MaxConsecutive: cfg.QuotesConfig.MaxConsecutive,
		PauseDuration:  cfg.QuotesConfig.PauseDuration,
		MaxRetries:     cfg.QuotesConfig.MaxRetries,
		RequestTimeout: cfg.QuotesConfig.RequestTimeout,
	})
	engine := tradelifecycle.NewEngine(tradelifecycle.Config{
		ScanInterval: cfg.TradeLifecycleConfig.ScanInterval,
		OrphanPolicy: cfg.TradeLifecycleConfig.OrphanPolicy,
	}, repo, quotesClient, events.NewEventBus())

	ctx := context.Background()

	switch os.Args[1] {
	case "reconcile-orphans":
		runReconcileOrphans(ctx, engine, os.Args[2:])
	case "restore-trade":
		runRestoreTrade(ctx, engine, os.Args[2:])
	default:
		usage()
		os.Exit(exitValidation)
	}
}

func runReconcileOrphans(ctx context.Context, engine *tradelifecycle.Engine, args []string) {
	fs := flag.NewFlagSet("reconcile-orphans", flag.ExitOnError)
	mode := fs.String("mode", "close", `reconciliation mode: "close" or "recreate"`)
	fs.Parse(args)

	if *mode != string(tradelifecycle.OrphanClose) && *mode != string(tradelifecycle.OrphanRecreate) {
		fmt.Fprintf(os.Stderr, "invalid mode %q: must be close or recreate\n", *mode)
		os.Exit(exitValidation)
	}

	fixed, err := engine.ReconcileOrphans(ctx, tradelifecycle.OrphanMode(*mode))
	if err != nil {
		exitWithError(err)
	}
	fmt.Printf("reconciled %d orphaned trade(s) using mode %q\n", fixed, *mode)
	os.Exit(exitOK)
}

func runRestoreTrade(ctx context.Context, engine *tradelifecycle.Engine, args []string) {
	fs := flag.NewFlagSet("restore-trade", flag.ExitOnError)
	id := fs.Int64("id", 0, "trade id to restore")
	fs.Parse(args)

	if *id <= 0 {
		fmt.Fprintln(os.Stderr, "restore-trade requires -id")
		os.Exit(exitValidation)
	}

	if err := engine.RestoreTrade(ctx, *id); err != nil {
		exitWithError(err)
	}
	fmt.Printf("restored trade %d to waiting\n", *id)
	os.Exit(exitOK)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if apperr.Is(err, apperr.Validation) || apperr.Is(err, apperr.Conflict) {
		os.Exit(exitValidation)
	}
	os.Exit(exitFailure)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: maint <reconcile-orphans|restore-trade> [flags]")
}
