package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/example/phone-store/internal/api"
	"github.com/example/phone-store/internal/auth"
	"github.com/example/phone-store/internal/command"
	"github.com/example/phone-store/internal/config"
	"github.com/example/phone-store/internal/domain/cart"
	"github.com/example/phone-store/internal/domain/category"
	"github.com/example/phone-store/internal/domain/inventory"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
	"github.com/example/phone-store/internal/domain/user"
	"github.com/example/phone-store/internal/email"
	"github.com/example/phone-store/internal/infrastructure/kafka"
	"github.com/example/phone-store/internal/infrastructure/rabbitmq"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/notification"
	"github.com/example/phone-store/internal/payment"
	"github.com/example/phone-store/internal/projection"
	"github.com/example/phone-store/internal/query"
	"github.com/example/phone-store/internal/statistics"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[API] Invalid configuration: %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Phone Store - CQRS Mode")
	log.Println("[API] ========================================")
	log.Printf("[API] Event store: %s", cfg.EventStore)
	log.Printf("[API] Event bus:   %s", cfg.EventBus)

	var (
		db        *sql.DB
		pool      *pgxpool.Pool
		readStore store.UserReadStore
		codes     order.CodeSequence
		statsRepo statistics.Repository
	)

	if cfg.EventStore == config.EventStoreMemory {
		mem := store.NewReadStore()
		readStore = mem
		codes = order.NewMemoryCodeSequence()
		statsRepo = statistics.NewReadStoreRepository(mem)
		log.Println("[API] Read DB:  in-memory")
	} else {
		if cfg.RunMigrations {
			if err := store.RunMigrations(cfg.DatabaseURL, log.New(os.Stdout, "[Migrate] ", log.LstdFlags)); err != nil {
				log.Fatalf("[API] Migrations failed: %v", err)
			}
		}

		var err error
		db, err = store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()

		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[API] Failed to open pgx pool: %v", err)
		}
		defer pool.Close()

		readStore = store.NewPostgresReadStore(db)
		codes = order.NewPgxCodeSequence(pool)
		statsRepo = statistics.NewPgxRepository(pool)
		log.Println("[API] Read DB:  PostgreSQL (read_* tables)")
	}

	publisher, closePublisher := newPublisher(cfg, readStore)
	defer closePublisher()

	eventStore := newEventStore(ctx, cfg, db, publisher)

	productSvc := product.NewService(eventStore)
	categorySvc := category.NewService(eventStore)
	cartSvc := cart.NewService(eventStore)
	orderSvc := order.NewService(eventStore, codes)
	inventorySvc := inventory.NewService(eventStore)
	userSvc := user.NewService(eventStore)

	cmdHandler := command.NewHandler(productSvc, categorySvc, cartSvc, orderSvc, inventorySvc, userSvc, readStore)
	queryHandler := query.NewHandler(readStore)

	seedAdmin(ctx, cfg, cmdHandler)

	payments := newPayments(ctx, cfg, orderSvc)
	stats := statistics.NewService(statsRepo)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	router := api.NewRouter(
		api.NewHandlers(cmdHandler, queryHandler, payments, stats),
		api.NewAuthHandlers(cmdHandler, queryHandler, jwtService, cfg.CookieSecure),
		jwtService,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[API] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}

// newPublisher picks where stored events go. The memory event store always
// projects in process since its read models live in this process.
func newPublisher(cfg config.Config, readStore store.UserReadStore) (store.Publisher, func()) {
	noop := func() {}

	if cfg.EventStore == config.EventStoreMemory || cfg.EventBus == config.EventBusInProcess {
		mailer := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
		log.Println("[API] Projecting and notifying in process")
		return store.Fanout{
			projection.NewProjector(readStore),
			notification.NewHandler(mailer, readStore),
		}, noop
	}

	switch cfg.EventBus {
	case config.EventBusRabbitMQ:
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("[API] Failed to connect to RabbitMQ: %v", err)
		}
		pub, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQExchange)
		if err != nil {
			conn.Close()
			log.Fatalf("[API] Failed to create RabbitMQ publisher: %v", err)
		}
		log.Printf("[API] RabbitMQ exchange: %s", cfg.RabbitMQExchange)
		return pub, func() {
			pub.Close()
			conn.Close()
		}
	default:
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Printf("[API] Kafka: %v, topic %s", cfg.KafkaBrokers, cfg.KafkaTopic)
		return producer, func() { producer.Close() }
	}
}

func newEventStore(ctx context.Context, cfg config.Config, db *sql.DB, publisher store.Publisher) store.EventStoreInterface {
	switch cfg.EventStore {
	case config.EventStoreMemory:
		return store.NewEventStore(publisher)
	case config.EventStoreDynamo:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("[API] Failed to load AWS config: %v", err)
		}
		log.Printf("[API] DynamoDB tables: %s, %s (published through the table stream)", cfg.DynamoEventsTable, cfg.DynamoSnapshotsTable)
		return store.NewDynamoEventStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoEventsTable, cfg.DynamoSnapshotsTable)
	default:
		return store.NewPostgresEventStore(db, publisher)
	}
}

func newPayments(ctx context.Context, cfg config.Config, orders *order.Service) *payment.Service {
	if !cfg.PayPal.Enabled() {
		log.Println("[API] PayPal credentials not set, online payment disabled")
		return nil
	}
	fx, err := payment.NewConverter(cfg.PayPal.VNDPerUnit, cfg.PayPal.Currency)
	if err != nil {
		log.Fatalf("[API] Invalid PayPal conversion rate: %v", err)
	}
	provider := payment.NewPayPalClient(ctx, payment.PayPalConfig{
		BaseURL:      cfg.PayPal.BaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		Timeout:      cfg.PayPal.Timeout,
	})
	log.Printf("[API] PayPal: %s (%s at %s VND)", cfg.PayPal.BaseURL, fx.Currency(), cfg.PayPal.VNDPerUnit)
	return payment.NewService(orders, provider, fx, payment.Config{
		ReturnURL: cfg.PayPal.ReturnURL,
		CancelURL: cfg.PayPal.CancelURL,
	})
}

// seedAdmin creates the configured admin account once
func seedAdmin(ctx context.Context, cfg config.Config, cmdHandler *command.Handler) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	_, err := cmdHandler.RegisterUser(ctx, command.RegisterUser{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     "Administrator",
		Role:     auth.RoleAdmin,
	})
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		log.Printf("[API] Admin %s already exists", cfg.AdminEmail)
	case err != nil:
		log.Printf("[API] Failed to seed admin %s: %v", cfg.AdminEmail, err)
	default:
		log.Printf("[API] Seeded admin %s", cfg.AdminEmail)
	}
}
