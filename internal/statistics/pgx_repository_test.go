package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPgxRepository_Totals(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("FROM read_users WHERE role").
		WithArgs("COMPLETED", "CUSTOMER", "ACTIVE").
		WillReturnRows(pgxmock.NewRows([]string{"revenue", "orders", "customers", "products"}).
			AddRow(int64(2_000_000), int64(5), int64(3), int64(8)))

	totals, err := NewPgxRepository(mock).Totals(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Totals{Revenue: 2_000_000, Orders: 5, Customers: 3, Products: 8}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgxRepository_OrdersByStatus(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("PENDING", int64(2)).
			AddRow("COMPLETED", int64(1)))

	counts, err := NewPgxRepository(mock).OrdersByStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"PENDING": 2, "COMPLETED": 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgxRepository_RevenueByMonth(t *testing.T) {
	from := time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	mock := newMockPool(t)
	mock.ExpectQuery("GROUP BY month").
		WithArgs("COMPLETED", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"month", "sum"}).AddRow("2024-03", int64(2_000_000)))

	revenue, err := NewPgxRepository(mock).RevenueByMonth(context.Background(), from, to)

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"2024-03": 2_000_000}, revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgxRepository_RevenueBetween(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("FILTER").
		WithArgs("COMPLETED", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"revenue", "orders"}).AddRow(int64(1_500_000), int64(4)))

	revenue, orders, err := NewPgxRepository(mock).RevenueBetween(context.Background(), time.Now(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), revenue)
	assert.Equal(t, int64(4), orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgxRepository_QueryError(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("GROUP BY status").WillReturnError(errors.New("connection reset"))

	_, err := NewPgxRepository(mock).OrdersByStatus(context.Background())

	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
