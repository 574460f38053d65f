package statistics

import (
	"context"
	"time"

	"github.com/example/phone-store/internal/domain/order"
	"github.com/jackc/pgx/v5"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxRepository reads the read_* tables maintained by the projector.
type PgxRepository struct {
	pool DBPool
}

func NewPgxRepository(pool DBPool) *PgxRepository {
	return &PgxRepository{pool: pool}
}

const totalsSQL = `
SELECT
	COALESCE((SELECT SUM(total_price) FROM read_orders WHERE status = $1), 0),
	(SELECT COUNT(*) FROM read_orders),
	(SELECT COUNT(*) FROM read_users WHERE role = $2),
	(SELECT COUNT(*) FROM read_products WHERE status = $3)`

const ordersByStatusSQL = `SELECT status, COUNT(*) FROM read_orders GROUP BY status`

const revenueByMonthSQL = `
SELECT to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month, SUM(total_price)
FROM read_orders
WHERE status = $1 AND created_at >= $2 AND created_at < $3
GROUP BY month`

const revenueBetweenSQL = `
SELECT COALESCE(SUM(total_price) FILTER (WHERE status = $1), 0), COUNT(*)
FROM read_orders
WHERE created_at >= $2 AND created_at < $3`

func (r *PgxRepository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, totalsSQL, string(order.StatusCompleted), "CUSTOMER", "ACTIVE").
		Scan(&t.Revenue, &t.Orders, &t.Customers, &t.Products)
	return t, err
}

func (r *PgxRepository) OrdersByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupedSum(ctx, ordersByStatusSQL)
}

func (r *PgxRepository) RevenueByMonth(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	return r.groupedSum(ctx, revenueByMonthSQL, string(order.StatusCompleted), from, to)
}

func (r *PgxRepository) RevenueBetween(ctx context.Context, from, to time.Time) (int64, int64, error) {
	var revenue, orders int64
	err := r.pool.QueryRow(ctx, revenueBetweenSQL, string(order.StatusCompleted), from, to).Scan(&revenue, &orders)
	return revenue, orders, err
}

func (r *PgxRepository) groupedSum(ctx context.Context, sql string, args ...any) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
