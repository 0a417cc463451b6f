package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medibuddy/medibuddy/internal/api"
	"github.com/medibuddy/medibuddy/internal/config"
	"github.com/medibuddy/medibuddy/internal/metrics"
	"github.com/medibuddy/medibuddy/internal/notify"
	"github.com/medibuddy/medibuddy/internal/service"
	"github.com/medibuddy/medibuddy/pkg/logger"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting MediBuddy...")

	store, err := config.OpenStore(cfg.DatabaseURL, "migrations", l)
	if err != nil {
		l.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Notification transport: Telegram when a token is configured, otherwise
	// reminders go to the log.
	var notifier notify.Notifier
	if cfg.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram notifier: %v", err)
		}
	} else {
		l.Warn("TELEGRAM_TOKEN not set; reminders will only be logged")
		notifier = notify.NewLogNotifier(l)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	svc := service.New(store, l)
	dispatcher := service.NewDispatcher(store, notifier, m, l, cfg.PollInterval)
	dispatcher.Start()
	defer dispatcher.Stop()

	apiServer := api.NewServer(svc, dispatcher, registry, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	l.Info("Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown error: %v", err)
	}

	dispatcher.Stop()
	l.Info("MediBuddy stopped")
}
