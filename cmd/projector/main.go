package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/phone-store/internal/config"
	"github.com/example/phone-store/internal/infrastructure/bus"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/projection"
)

func main() {
	replay := flag.Bool("replay", false, "rebuild the read models from the Postgres event store before consuming")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	log.Println("[Projector] ========================================")
	log.Println("[Projector] Phone Store - CQRS Projector")
	log.Println("[Projector] ========================================")

	if cfg.RunMigrations {
		if err := store.RunMigrations(cfg.DatabaseURL, log.New(os.Stdout, "[Migrate] ", log.LstdFlags)); err != nil {
			log.Fatalf("[Projector] Migrations failed: %v", err)
		}
	}

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Projector] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("[Projector] Connected to PostgreSQL (Read DB)")

	projector := projection.NewProjector(store.NewPostgresReadStore(db))

	if *replay {
		n, err := projector.Replay(ctx, store.NewPostgresEventStore(db, nil))
		if err != nil {
			log.Fatalf("[Projector] Replay stopped after %d events: %v", n, err)
		}
	}

	log.Println("[Projector] Starting event consumer...")
	if err := bus.Consume(ctx, cfg, cfg.KafkaConsumerGroup, projector.HandleMessage); err != nil && ctx.Err() == nil {
		log.Fatalf("[Projector] Consumer error: %v", err)
	}
	log.Println("[Projector] Shutting down...")
}
