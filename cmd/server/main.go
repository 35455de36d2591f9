/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vending machine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, config file, VENDING_* env, flags)
  2. Initialize the SQLite catalog
  3. Load the machine preset and seed prices
  4. Start the bank and stock services, each on its own mutation lane
  5. Create the purchase coordinator and API handler
  6. Start the gauge sampler and the HTTP server

COMMAND-LINE FLAGS:
  -config  Config file (yaml, json or toml), optional
  -port    HTTP server port, overrides http.addr
  -db      SQLite database path, overrides db.path
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (http.shutdown_timeout)
  3. Close the service lanes, running every accepted mutation
  4. Close database connection

STATE:
  Bank, stock and idempotency records live in memory and start from the
  preset on every launch. Only prices and the sales log are on disk.

SEE ALSO:
  - config/config.go: configuration keys
  - api/server.go: Router configuration
  - factory/machine.go: machine presets
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/vending-engine/api"
	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/config"
	"github.com/warp/vending-engine/factory"
	"github.com/warp/vending-engine/generic"
	"github.com/warp/vending-engine/generic/store"
	"github.com/warp/vending-engine/logger"
	"github.com/warp/vending-engine/purchase"
	"github.com/warp/vending-engine/stock"
	"github.com/warp/vending-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides http.addr)")
	dbPath := flag.String("db", "", "SQLite database path (overrides db.path)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.HTTP.Addr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}

	log := logger.New(cfg.Log.Level)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := 0
	if err := run(ctx, cfg, log); err != nil {
		log.Error("server failed", zap.Error(err))
		code = 1
	}
	stop()
	_ = log.Sync()
	os.Exit(code)
}

// run serves until ctx is cancelled or the listener fails.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// Initialize catalog
	catalog, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer catalog.Close()

	// Load machine preset
	f := factory.NewMachineFactory()
	machine, err := f.Load(cfg.Machine.Preset)
	if err != nil {
		return fmt.Errorf("load machine preset: %w", err)
	}
	if err := f.Seed(context.WithoutCancel(ctx), catalog, machine); err != nil {
		return err
	}
	log.Info("machine loaded",
		zap.String("name", machine.Name),
		zap.Int("bank_total", machine.Bank.Total()),
		zap.Int("stock_units", machine.Stock.Total()))

	// Services
	bankSvc := bank.NewService(machine.Bank, store.NewMemory[bank.Bank](),
		generic.NewLane("bank", cfg.Lane.Buffer), log)
	stockSvc := stock.NewService(machine.Stock, store.NewMemory[struct{}](),
		generic.NewLane("stock", cfg.Lane.Buffer), log)
	defer bankSvc.Close()
	defer stockSvc.Close()
	journal := purchase.NewJournal()
	coord := purchase.NewCoordinator(catalog, stockSvc, bankSvc, journal, log)

	sampler := api.NewSampler(bankSvc, stockSvc, journal, log)
	sampler.Start()
	defer sampler.Stop()

	handler := api.NewHandler(coord, bankSvc, stockSvc, catalog, log)
	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewRouter(handler, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	stockSvc.Close()
	bankSvc.Close()

	log.Info("server stopped",
		zap.Int("bank_total", bankSvc.Balance()),
		zap.Int("failed_compensations", journal.Len()))
	return nil
}
