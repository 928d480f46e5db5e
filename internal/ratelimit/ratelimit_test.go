package ratelimit

import (
	"context"
	"testing"
	"time"

	"chirpd/internal/store/postdb"
)

func newTestLimiter(t *testing.T, window time.Duration, capacity int) (*SlidingWindow, *time.Time) {
	t.Helper()
	db, err := postdb.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	l := NewSlidingWindow(db, window, capacity)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestSlidingWindowAdmitsUpToCapacity(t *testing.T) {
	l, now := newTestLimiter(t, time.Minute, 3)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		dec, err := l.Check(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if !dec.Allowed {
			t.Fatalf("check %d blocked", i)
		}
		*now = now.Add(5 * time.Second)
	}
	dec, err := l.Check(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("expected fourth check to be blocked")
	}
	if dec.RetryAfter <= 0 || dec.RetryAfter > time.Minute {
		t.Fatalf("retry after %v out of range", dec.RetryAfter)
	}
}

func TestSlidingWindowSlides(t *testing.T) {
	l, now := newTestLimiter(t, time.Minute, 3)
	ctx := context.Background()
	start := *now
	// three posts within ten seconds fill the window
	for i := 0; i < 3; i++ {
		if dec, _ := l.Check(ctx, "alice"); !dec.Allowed {
			t.Fatalf("check %d blocked", i)
		}
		*now = now.Add(5 * time.Second)
	}
	if dec, _ := l.Check(ctx, "alice"); dec.Allowed {
		t.Fatal("expected block within window")
	}
	// 61s after the first admission one slot has slid out
	*now = start.Add(61 * time.Second)
	dec, err := l.Check(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatal("expected admission after window slid")
	}
}

func TestSlidingWindowKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, time.Minute, 1)
	ctx := context.Background()
	if dec, _ := l.Check(ctx, "alice"); !dec.Allowed {
		t.Fatal("alice blocked")
	}
	if dec, _ := l.Check(ctx, "alice"); dec.Allowed {
		t.Fatal("alice should be at capacity")
	}
	if dec, _ := l.Check(ctx, "bob"); !dec.Allowed {
		t.Fatal("bob blocked by alice's quota")
	}
}

func TestCheckReportsBackendError(t *testing.T) {
	db, err := postdb.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	l := NewSlidingWindow(db, time.Minute, 3)
	_ = db.Close()
	if _, err := l.Check(context.Background(), "alice"); err == nil {
		t.Fatal("expected backend error after close")
	}
}
