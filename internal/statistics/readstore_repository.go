package statistics

import (
	"context"
	"time"

	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/readmodel"
)

// ReadStoreRepository computes the same aggregates by scanning a read store.
// It backs the statistics endpoints when no Postgres pool is configured.
type ReadStoreRepository struct {
	readStore store.ReadStoreInterface
}

func NewReadStoreRepository(readStore store.ReadStoreInterface) *ReadStoreRepository {
	return &ReadStoreRepository{readStore: readStore}
}

func (r *ReadStoreRepository) Totals(_ context.Context) (Totals, error) {
	var t Totals

	orders, err := r.orders()
	if err != nil {
		return t, err
	}
	for _, o := range orders {
		t.Orders++
		if o.Status == string(order.StatusCompleted) {
			t.Revenue += o.TotalPrice
		}
	}

	users, err := r.readStore.GetAll(readmodel.CollectionUsers)
	if err != nil {
		return t, err
	}
	for _, item := range users {
		if u, ok := item.(*readmodel.UserReadModel); ok && u.Role == "CUSTOMER" {
			t.Customers++
		}
	}

	products, err := r.readStore.GetAll(readmodel.CollectionProducts)
	if err != nil {
		return t, err
	}
	for _, item := range products {
		if p, ok := item.(*readmodel.ProductReadModel); ok && p.Status == "ACTIVE" {
			t.Products++
		}
	}
	return t, nil
}

func (r *ReadStoreRepository) OrdersByStatus(_ context.Context) (map[string]int64, error) {
	orders, err := r.orders()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, o := range orders {
		out[o.Status]++
	}
	return out, nil
}

func (r *ReadStoreRepository) RevenueByMonth(_ context.Context, from, to time.Time) (map[string]int64, error) {
	orders, err := r.orders()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, o := range orders {
		if o.Status == string(order.StatusCompleted) && inRange(o.CreatedAt, from, to) {
			out[MonthKey(o.CreatedAt)] += o.TotalPrice
		}
	}
	return out, nil
}

func (r *ReadStoreRepository) RevenueBetween(_ context.Context, from, to time.Time) (int64, int64, error) {
	orders, err := r.orders()
	if err != nil {
		return 0, 0, err
	}
	var revenue, count int64
	for _, o := range orders {
		if !inRange(o.CreatedAt, from, to) {
			continue
		}
		count++
		if o.Status == string(order.StatusCompleted) {
			revenue += o.TotalPrice
		}
	}
	return revenue, count, nil
}

func (r *ReadStoreRepository) orders() ([]*readmodel.OrderReadModel, error) {
	items, err := r.readStore.GetAll(readmodel.CollectionOrders)
	if err != nil {
		return nil, err
	}
	out := make([]*readmodel.OrderReadModel, 0, len(items))
	for _, item := range items {
		if o, ok := item.(*readmodel.OrderReadModel); ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
