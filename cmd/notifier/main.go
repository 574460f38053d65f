package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/example/phone-store/internal/config"
	"github.com/example/phone-store/internal/email"
	"github.com/example/phone-store/internal/infrastructure/bus"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/notification"
)

// Dedicated consumer group, so the notifier sees every event the projector sees
const consumerGroup = "phone-store-notifier"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Phone Store - Email Notifier")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] SMTP: %s:%s", cfg.SMTPHost, cfg.SMTPPort)

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Notifier] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	mailer := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	handler := notification.NewHandler(mailer, store.NewPostgresReadStore(db))

	log.Println("[Notifier] Starting event consumer...")
	if err := bus.Consume(ctx, cfg, consumerGroup, handler.HandleMessage); err != nil && ctx.Err() == nil {
		log.Fatalf("[Notifier] Consumer error: %v", err)
	}
	log.Println("[Notifier] Shutting down...")
}
