package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCode(t *testing.T) {
	day := time.Date(2024, time.January, 31, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "ORD20240131007", FormatCode(day, 7))
	assert.Equal(t, "ORD20240131123", FormatCode(day, 123))
	assert.Equal(t, "ORD202401311000", FormatCode(day, 1000))
}

// ============================================
// MemoryCodeSequence Tests
// ============================================

func TestMemoryCodeSequence_ResetsPerDay(t *testing.T) {
	seq := NewMemoryCodeSequence()
	ctx := context.Background()
	day1 := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	n, _ := seq.Next(ctx, day1)
	assert.Equal(t, 1, n)
	n, _ = seq.Next(ctx, day1.Add(time.Hour))
	assert.Equal(t, 2, n)
	n, _ = seq.Next(ctx, day2)
	assert.Equal(t, 1, n)
}

func TestMemoryCodeSequence_ConcurrentCallersGetDistinctValues(t *testing.T) {
	seq := NewMemoryCodeSequence()
	day := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(context.Background(), day)
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}

// ============================================
// PgxCodeSequence Tests
// ============================================

func TestPgxCodeSequence_Next(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO order_code_sequences").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"last_value"}).AddRow(4))

	n, err := NewPgxCodeSequence(mock).Next(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgxCodeSequence_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO order_code_sequences").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err = NewPgxCodeSequence(mock).Next(context.Background(), time.Now())

	assert.ErrorContains(t, err, "allocate order code")
	assert.NoError(t, mock.ExpectationsWereMet())
}
