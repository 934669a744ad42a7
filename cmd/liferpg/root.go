package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/liferpg/internal/api"
	"github.com/hyperengineering/liferpg/internal/config"
	"github.com/hyperengineering/liferpg/internal/notify"
	"github.com/hyperengineering/liferpg/internal/persistence"
	"github.com/hyperengineering/liferpg/internal/profile"
	"github.com/hyperengineering/liferpg/internal/snapshot"
	"github.com/hyperengineering/liferpg/internal/store"
	"github.com/hyperengineering/liferpg/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var (
	dbPathOverride string
	jsonOutput     bool
)

var rootCmd = &cobra.Command{
	Use:           "liferpg",
	Short:         "LifeRPG - quests, XP and achievements for your life",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and live dashboard feed",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"SQLite database path (overrides config and LIFERPG_DB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(questCmd)
	rootCmd.AddCommand(achievementCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(privateCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(backupCmd)
}

// loadConfig loads configuration and applies the --db override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPathOverride != "" {
		cfg.Database.Path = dbPathOverride
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("configuration loaded")
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	hub := notify.NewHub(time.Duration(cfg.Notify.ToastDuration))
	svc := newService(ctx, cfg, db, notify.Multi{hub, notify.Log{}})

	uploader, err := snapshot.NewUploader(cfg.SnapshotStorage)
	if err != nil {
		db.Close()
		return err
	}

	handler := api.NewHandler(svc, hub, Version)
	var backups *worker.BackupWorker
	if cfg.Backup.Interval > 0 {
		backups = worker.NewBackupWorker(svc, uploader, cfg.Backup.Dir, cfg.Storage.StateKey,
			time.Duration(cfg.Backup.Interval))
		handler.WithBackups(backups)
	}
	router := api.NewRouter(handler, api.RouterOptions{
		PINAttemptsPerMinute: cfg.Gate.AttemptsPerMinute,
		APIKey:               cfg.Auth.APIKey,
		TrustProxy:           cfg.Server.TrustProxy,
	})
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	if backups != nil {
		startWorker(ctx, &wg, "backup", backups.Run)
	}

	go func() {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	hub.Close()

	wg.Wait()

	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newService wires the persistence adapter and profile service over kv.
func newService(ctx context.Context, cfg *config.Config, kv store.KV, n notify.Notifier) *profile.Service {
	adapter := persistence.NewAdapter(kv, persistence.Options{
		StateKey: cfg.Storage.StateKey,
		PINKey:   cfg.Storage.PINKey,
	})
	return profile.New(ctx, adapter, n, profile.Options{
		Name:       cfg.Profile.Name,
		XPPerLevel: cfg.Ledger.XPPerLevel,
	})
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
