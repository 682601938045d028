package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "salesledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences: one counter per key.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
	err      error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := args[0].(string)
	var increment int64 = 1
	if len(args) == 2 {
		increment = args[1].(int64)
	}

	m.counters[key] += increment
	return &mockRow{val: m.counters[key]}
}

func TestGetNextNumber_StrictDailyReturnIDs(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.ReturnConfig()
	day := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

	want := []string{"RET-240101-0001", "RET-240101-0002", "RET-240101-0003"}
	for _, w := range want {
		got, err := svc.GetNextNumber(ctx, cfg, nil, day)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != w {
			t.Errorf("expected %s, got %s", w, got)
		}
	}

	next, err := svc.GetNextNumber(ctx, cfg, nil, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != "RET-240102-0001" {
		t.Errorf("new day must restart the counter, got %s", next)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.ReceiptConfig()
	year := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	// First call reserves 1..10.
	num, err := svc.GetNextNumber(ctx, cfg, opts, year)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RCP-2026-000001" {
		t.Errorf("expected RCP-2026-000001, got %s", num)
	}
	if q.calls != 1 {
		t.Errorf("expected 1 DB call, got %d", q.calls)
	}

	for i := 0; i < 9; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, year); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.calls != 1 {
		t.Errorf("range must be served from memory, got %d DB calls", q.calls)
	}

	// Range exhausted: reserve 11..20.
	num, err = svc.GetNextNumber(ctx, cfg, opts, year)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "RCP-2026-000011" {
		t.Errorf("expected RCP-2026-000011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected 2 DB calls, got %d", q.calls)
	}
}

func TestSetNextNumber_DropsCachedRange(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.ReturnConfig()
	day := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	if err := svc.SetNextNumber(ctx, cfg, day, 41); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetNextNumber(ctx, cfg, nil, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "RET-240630-0042" {
		t.Errorf("expected RET-240630-0042, got %s", got)
	}
}

func TestGetNextNumber_PropagatesDBError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.ReturnConfig(), nil, time.Now())
	if err == nil || !errors.Is(err, q.err) {
		t.Fatalf("expected wrapped DB error, got %v", err)
	}
}

func TestGetNextNumber_NilService(t *testing.T) {
	var svc *Service
	if _, err := svc.GetNextNumber(context.Background(), corenumerator.ReturnConfig(), nil, time.Now()); err == nil {
		t.Fatal("expected error for nil service")
	}
}
