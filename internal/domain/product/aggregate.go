package product

import (
	"context"
	"strings"
	"time"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/domain/aggregate"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Product"

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

var (
	ErrProductNotFound    = apperr.New(apperr.KindNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrProductUnavailable = apperr.New(apperr.KindConflict, "PRODUCT_UNAVAILABLE", "product is not available for sale")
	ErrInvalidPrice       = apperr.Validation("price", "price must be positive")
	ErrInvalidName        = apperr.Validation("name", "name is required")
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	Price       int64     `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

func (p *Product) GetID() string   { return p.ID }
func (p *Product) GetVersion() int { return p.Version }

func (p *Product) IsActive() bool { return p.Status == StatusActive }

func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := event.Decode(&data); err != nil {
			return err
		}
		p.ID = data.ProductID
		p.Name = data.Name
		p.Description = data.Description
		p.Brand = data.Brand
		p.CategoryID = data.CategoryID
		p.Price = data.Price
		p.ImageURL = data.ImageURL
		p.Status = StatusActive
		p.CreatedAt = data.CreatedAt
		p.UpdatedAt = data.CreatedAt
	case EventProductUpdated:
		var data ProductUpdated
		if err := event.Decode(&data); err != nil {
			return err
		}
		p.Name = data.Name
		p.Description = data.Description
		p.Brand = data.Brand
		p.CategoryID = data.CategoryID
		p.Price = data.Price
		p.ImageURL = data.ImageURL
		p.UpdatedAt = data.UpdatedAt
	case EventProductStatusChanged:
		var data ProductStatusChanged
		if err := event.Decode(&data); err != nil {
			return err
		}
		p.Status = data.Status
		p.UpdatedAt = data.ChangedAt
	}
	p.Version = event.Version
	return nil
}

// Input carries the editable catalog fields
type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	CategoryID  string `json:"category_id"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url"`
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidName
	}
	if in.Price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Get rebuilds the product from its events
func (s *Service) Get(ctx context.Context, productID string) (*Product, error) {
	p, found, err := aggregate.LoadAggregate(ctx, s.eventStore, productID, func() *Product { return &Product{ID: productID} })
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// GetAvailable returns the product only if it can be sold
func (s *Service) GetAvailable(ctx context.Context, productID string) (*Product, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, ErrProductUnavailable
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &Product{ID: uuid.New().String()}
	_, err := aggregate.Record(ctx, s.eventStore, p, AggregateType, EventProductCreated, ProductCreated{
		ProductID:   p.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Brand:       in.Brand,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, productID string, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	_, err = aggregate.Record(ctx, s.eventStore, p, AggregateType, EventProductUpdated, ProductUpdated{
		ProductID:   productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Brand:       in.Brand,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus activates or deactivates a product. Deleting a product from the
// admin screen only deactivates it, so existing orders keep resolving.
func (s *Service) SetStatus(ctx context.Context, productID string, status Status) (*Product, error) {
	if status != StatusActive && status != StatusInactive {
		return nil, apperr.Validation("status", "status must be ACTIVE or INACTIVE")
	}

	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}

	_, err = aggregate.Record(ctx, s.eventStore, p, AggregateType, EventProductStatusChanged, ProductStatusChanged{
		ProductID: productID,
		Status:    status,
		ChangedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
