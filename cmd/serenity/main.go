package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhollis/serenity/internal/config"
	"github.com/mhollis/serenity/internal/logging"
	"github.com/mhollis/serenity/internal/remind"
	"github.com/mhollis/serenity/internal/server"
	"github.com/mhollis/serenity/internal/storage"
)

func main() {
	genKeys := flag.Bool("generate-vapid-keys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *genKeys {
		pub, priv, err := remind.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate VAPID keys:", err)
			os.Exit(1)
		}
		fmt.Printf("SERENITY_VAPID_PUBLIC_KEY=%s\n", pub)
		fmt.Printf("SERENITY_VAPID_PRIVATE_KEY=%s\n", priv)
		return
	}

	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	store, err := storage.Open(storage.Config{
		DBPath:      cfg.DBPath,
		FallbackDir: cfg.DataDir,
	}, logger.With("component", "storage"))
	if err != nil {
		logger.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if storage.HasLegacyData(cfg.DataDir) {
		if imported, err := store.MigrateFromLegacy(ctx, cfg.DataDir); err != nil {
			logger.Error("legacy migration", "error", err)
		} else if imported > 0 {
			logger.Info("legacy data migrated", "records", imported)
		}
	}

	srv := server.New(cfg, store, logger)
	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()

	httpServer := &http.Server{
		Addr:         "127.0.0.1:" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("serenity listening", "addr", httpServer.Addr, "engine", store.EngineKind())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
