package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/phone-store/internal/config"
	"github.com/example/phone-store/internal/email"
	"github.com/example/phone-store/internal/infrastructure/kinesis"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/notification"
)

var notifier *notification.Handler

func init() {
	cfg := config.Load()

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Lambda Notifier] Failed to connect to PostgreSQL: %v", err)
	}
	mailer := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	notifier = notification.NewHandler(mailer, store.NewPostgresReadStore(db))

	log.Printf("[Lambda Notifier] Initialized successfully (SMTP: %s:%s)", cfg.SMTPHost, cfg.SMTPPort)
}

// handler sends mail for a whole batch. Undecodable records are reported
// back; a failed send is logged only, since retrying would mail the
// records that did succeed a second time.
func handler(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	decoded, err := kinesis.DecodeBatch(batch)
	if err != nil {
		log.Printf("[Lambda Notifier] Skipped records: %v", err)
	}

	sent := 0
	for _, event := range decoded {
		if err := notifier.Apply(ctx, event); err != nil {
			log.Printf("[Lambda Notifier] Failed to notify for %s %s: %v", event.EventType, event.AggregateID, err)
			continue
		}
		sent++
	}

	log.Printf("[Lambda Notifier] Handled %d/%d events", sent, len(decoded))
	return events.KinesisEventResponse{}, nil
}

func main() {
	lambda.Start(handler)
}
