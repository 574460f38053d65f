// Package apitest runs the whole HTTP API in-process, on the memory event
// store with synchronous projection, for handler and client tests.
package apitest

import (
	"context"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/example/phone-store/internal/api"
	"github.com/example/phone-store/internal/auth"
	"github.com/example/phone-store/internal/command"
	"github.com/example/phone-store/internal/domain/cart"
	"github.com/example/phone-store/internal/domain/category"
	"github.com/example/phone-store/internal/domain/inventory"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
	"github.com/example/phone-store/internal/domain/user"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/payment"
	"github.com/example/phone-store/internal/projection"
	"github.com/example/phone-store/internal/query"
	"github.com/example/phone-store/internal/statistics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const JWTSecret = "apitest-secret-that-is-at-least-32-chars"

type Server struct {
	*httptest.Server
	Commands   *command.Handler
	EventStore *store.EventStore
	ReadStore  *store.ReadStore
	Provider   *FakeProvider
	JWT        *auth.JWTService
}

// NewServer starts the API and closes it when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()

	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore)
	eventStore := store.NewEventStore(store.Fanout{projector})

	orderSvc := order.NewService(eventStore, order.NewMemoryCodeSequence())
	commands := command.NewHandler(
		product.NewService(eventStore),
		category.NewService(eventStore),
		cart.NewService(eventStore),
		orderSvc,
		inventory.NewService(eventStore),
		user.NewService(eventStore),
		readStore,
	)
	queries := query.NewHandler(readStore)

	fx, err := payment.NewConverter(decimal.NewFromInt(payment.DefaultVNDPerUSD), "USD")
	require.NoError(t, err)
	provider := &FakeProvider{}
	payments := payment.NewService(orderSvc, provider, fx, payment.Config{
		ReturnURL: "http://shop.test/payment/success",
		CancelURL: "http://shop.test/payment/cancel",
	})
	stats := statistics.NewService(statistics.NewReadStoreRepository(readStore))

	jwtService := auth.NewJWTService(JWTSecret, time.Hour)
	router := api.NewRouter(
		api.NewHandlers(commands, queries, payments, stats),
		api.NewAuthHandlers(commands, queries, jwtService, false),
		jwtService,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &Server{
		Server:     srv,
		Commands:   commands,
		EventStore: eventStore,
		ReadStore:  readStore,
		Provider:   provider,
		JWT:        jwtService,
	}
}

// Token signs an access token without going through login
func (s *Server) Token(t testing.TB, userID, role string) string {
	t.Helper()
	token, _, err := s.JWT.GenerateAccessToken(userID, userID+"@shop.test", role)
	require.NoError(t, err)
	return token
}

// SeedProduct creates an active product with stock
func (s *Server) SeedProduct(t testing.TB, name string, price int64, stock int) *product.Product {
	t.Helper()
	p, err := s.Commands.CreateProduct(context.Background(), command.CreateProduct{
		Input: product.Input{Name: name, Brand: "Test", Price: price},
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

// FakeProvider approves every order and captures unless told otherwise
type FakeProvider struct {
	mu           sync.Mutex
	CreateErr    error
	CaptureErr   error
	CreateCalls  int
	CaptureCalls int
	nextID       int
}

func (p *FakeProvider) CreateOrder(_ context.Context, req payment.ProviderOrderRequest) (*payment.ProviderOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CreateCalls++
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	p.nextID++
	id := "PP-" + strconv.Itoa(p.nextID)
	return &payment.ProviderOrder{ID: id, Status: "CREATED", ApprovalURL: "https://paypal.test/approve?token=" + id}, nil
}

func (p *FakeProvider) CaptureOrder(_ context.Context, providerOrderID, _ string) (*payment.Capture, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CaptureCalls++
	if p.CaptureErr != nil {
		return nil, p.CaptureErr
	}
	return &payment.Capture{TransactionID: "TX-" + providerOrderID, Status: "COMPLETED"}, nil
}

// SetCaptureErr swaps the capture outcome between calls
func (p *FakeProvider) SetCaptureErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CaptureErr = err
}
