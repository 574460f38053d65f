package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/phone-store/internal/config"
	"github.com/example/phone-store/internal/infrastructure/kinesis"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/projection"
)

var projector *projection.Projector

func init() {
	cfg := config.Load()

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Lambda Projector] Failed to connect to PostgreSQL: %v", err)
	}
	projector = projection.NewProjector(store.NewPostgresReadStore(db))

	log.Println("[Lambda Projector] Initialized successfully")
}

func handler(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Printf("[Lambda Projector] Received %d records", len(batch.Records))

	var failures []events.KinesisBatchItemFailure
	for _, record := range batch.Records {
		event, err := kinesis.DecodeRecord(record)
		if err == nil && event != nil {
			err = projector.Apply(ctx, *event)
		}
		if err != nil {
			log.Printf("[Lambda Projector] Failed record %s: %v", record.EventID, err)
			failures = append(failures, events.KinesisBatchItemFailure{ItemIdentifier: record.Kinesis.SequenceNumber})
		}
	}

	log.Printf("[Lambda Projector] Processed %d/%d records successfully", len(batch.Records)-len(failures), len(batch.Records))
	return events.KinesisEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	lambda.Start(handler)
}
