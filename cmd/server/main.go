/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the BizSync scheduling server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults < config file < BIZSYNC_* env < flags)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Connect Redis, if enabled, and put the publication cache in front
  5. Create API handler and router
  6. Start the publication reminder
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --config  Config file path (default: ./config.yaml or ./config/config.yaml)
  --port    HTTP server port, overrides server.port
  --db      SQLite database path, overrides db.path
            Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the reminder
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close Redis and database connections

EXAMPLES:
  bizsync serve --db=./data/bizsync.db
  BIZSYNC_REDIS_ENABLED=true bizsync serve
  bizsync serve --db=":memory:" --port=3000

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GiuseppeRudi/BizSync-sub002/api"
	"github.com/GiuseppeRudi/BizSync-sub002/config"
	"github.com/GiuseppeRudi/BizSync-sub002/logging"
	"github.com/GiuseppeRudi/BizSync-sub002/store/cache"
	"github.com/GiuseppeRudi/BizSync-sub002/store/sqlite"
)

type serveFlags struct {
	configPath string
	port       int
	dbPath     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags serveFlags

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduling HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}
	serve.Flags().StringVar(&flags.configPath, "config", "", "config file path")
	serve.Flags().IntVar(&flags.port, "port", 0, "HTTP server port (overrides config)")
	serve.Flags().StringVar(&flags.dbPath, "db", "", "SQLite database path (overrides config)")

	root := &cobra.Command{
		Use:           "bizsync",
		Short:         "Shift scheduling and availability engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serve)
	return root
}

func run(ctx context.Context, flags serveFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.port > 0 {
		cfg.Server.Port = flags.port
	}
	if flags.dbPath != "" {
		cfg.Database.Path = flags.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()
	logger.Info("database ready", zap.String("path", cfg.Database.Path))

	// Initialize handler
	handler := api.NewHandler(store, cfg.Publication.Weekday(), logger)

	if rdb := connectRedis(ctx, cfg.Redis, logger); rdb != nil {
		defer rdb.Close()
		handler.UsePublicationCache(cache.NewPublicationCache(store, rdb, cfg.Redis.CacheTTL, logger.Named("cache")))
	}

	reminder := api.NewPublicationReminder(store, handler.Publication, logger.Named("reminder"))
	reminder.CheckInterval = cfg.Publication.ReminderInterval
	reminder.Enabled = cfg.Publication.ReminderEnabled
	reminder.Start()
	defer reminder.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.CORS.AllowOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// connectRedis returns nil when Redis is disabled or unreachable; the
// server then reads publication records straight from the database.
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, publication cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		rdb.Close()
		return nil
	}
	logger.Info("redis connected", zap.String("addr", cfg.Addr))
	return rdb
}
