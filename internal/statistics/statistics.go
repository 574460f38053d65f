package statistics

import (
	"context"
	"fmt"
	"time"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/domain/order"
)

const monthsOnDashboard = 12

// Totals are the headline numbers of the admin dashboard.
type Totals struct {
	Revenue   int64
	Orders    int64
	Customers int64
	Products  int64
}

// Repository computes aggregates over the read models. Revenue only counts
// COMPLETED orders; time ranges are half-open [from, to).
type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	OrdersByStatus(ctx context.Context) (map[string]int64, error)
	RevenueByMonth(ctx context.Context, from, to time.Time) (map[string]int64, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (revenue, orders int64, err error)
}

type Dashboard struct {
	TotalRevenue   int64            `json:"total_revenue"`
	TotalOrders    int64            `json:"total_orders"`
	TotalCustomers int64            `json:"total_customers"`
	TotalProducts  int64            `json:"total_products"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	RevenueByMonth map[string]int64 `json:"revenue_by_month"`
}

type RevenueReport struct {
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	TotalRevenue int64  `json:"total_revenue"`
	TotalOrders  int64  `json:"total_orders"`
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Dashboard reports totals, order counts for every status and revenue for
// the last twelve months including the current one.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load totals: %w", err)
	}

	counts, err := s.repo.OrdersByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	byStatus := make(map[string]int64, len(order.Statuses))
	for _, st := range order.Statuses {
		byStatus[string(st)] = counts[string(st)]
	}

	now := s.now().UTC()
	to := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, -monthsOnDashboard, 0)
	revenue, err := s.repo.RevenueByMonth(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("revenue by month: %w", err)
	}
	byMonth := make(map[string]int64, monthsOnDashboard)
	for m := from; m.Before(to); m = m.AddDate(0, 1, 0) {
		key := MonthKey(m)
		byMonth[key] = revenue[key]
	}

	return &Dashboard{
		TotalRevenue:   totals.Revenue,
		TotalOrders:    totals.Orders,
		TotalCustomers: totals.Customers,
		TotalProducts:  totals.Products,
		OrdersByStatus: byStatus,
		RevenueByMonth: byMonth,
	}, nil
}

// Revenue reports completed revenue and the order count between two dates,
// both inclusive, given as YYYY-MM-DD.
func (s *Service) Revenue(ctx context.Context, startDate, endDate string) (*RevenueReport, error) {
	start, err := time.Parse(time.DateOnly, startDate)
	if err != nil {
		return nil, apperr.Validation("startDate", "startDate must be YYYY-MM-DD")
	}
	end, err := time.Parse(time.DateOnly, endDate)
	if err != nil {
		return nil, apperr.Validation("endDate", "endDate must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, apperr.Validation("endDate", "endDate must not be before startDate")
	}

	revenue, orders, err := s.repo.RevenueBetween(ctx, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("revenue between %s and %s: %w", startDate, endDate, err)
	}
	return &RevenueReport{
		StartDate:    startDate,
		EndDate:      endDate,
		TotalRevenue: revenue,
		TotalOrders:  orders,
	}, nil
}

func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
