package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// CodeSequence hands out the per-day counter behind order codes.
type CodeSequence interface {
	Next(ctx context.Context, day time.Time) (int, error)
}

// FormatCode renders ORD + yyyyMMdd + the sequence padded to three digits.
func FormatCode(day time.Time, seq int) string {
	return fmt.Sprintf("ORD%s%03d", day.Format("20060102"), seq)
}

// MemoryCodeSequence is the in-process sequence used with EVENT_STORE=memory.
type MemoryCodeSequence struct {
	mu   sync.Mutex
	last map[string]int
}

func NewMemoryCodeSequence() *MemoryCodeSequence {
	return &MemoryCodeSequence{last: make(map[string]int)}
}

func (m *MemoryCodeSequence) Next(_ context.Context, day time.Time) (int, error) {
	key := day.Format("2006-01-02")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[key]++
	return m.last[key], nil
}

// DBPool is the subset of pgxpool.Pool the sequence needs.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxCodeSequence allocates codes from order_code_sequences. The upsert takes
// a row lock, so concurrent callers on the same day get distinct values.
type PgxCodeSequence struct {
	db DBPool
}

func NewPgxCodeSequence(db DBPool) *PgxCodeSequence {
	return &PgxCodeSequence{db: db}
}

const nextCodeSQL = `
INSERT INTO order_code_sequences (day, last_value)
VALUES ($1, 1)
ON CONFLICT (day) DO UPDATE SET last_value = order_code_sequences.last_value + 1
RETURNING last_value`

func (s *PgxCodeSequence) Next(ctx context.Context, day time.Time) (int, error) {
	var seq int
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.db.QueryRow(ctx, nextCodeSQL, d).Scan(&seq); err != nil {
		return 0, fmt.Errorf("allocate order code: %w", err)
	}
	return seq, nil
}
