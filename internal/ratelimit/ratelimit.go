package ratelimit

import (
	"context"
	"time"

	"chirpd/internal/store/postdb"
)

// Limiter decides whether a keyed action may proceed now. A returned
// error means the limiter backend itself failed, which is distinct
// from a rejection.
type Limiter interface {
	Check(ctx context.Context, key string) (Decision, error)
}

// Decision is the outcome of a check. RetryAfter is advice for the
// caller's backoff when blocked; zero means no recommendation.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// SlidingWindow admits at most capacity events per key in any window
// of the given length, measured continuously rather than in fixed
// buckets. State lives in the store's admissions table; check and
// record are one transaction, so the bound holds per key under
// concurrent requests.
type SlidingWindow struct {
	db       *postdb.DB
	window   time.Duration
	capacity int
	now      func() time.Time
}

func NewSlidingWindow(db *postdb.DB, window time.Duration, capacity int) *SlidingWindow {
	return &SlidingWindow{db: db, window: window, capacity: capacity, now: time.Now}
}

func (l *SlidingWindow) Check(ctx context.Context, key string) (Decision, error) {
	now := l.now().UTC()
	admitted, oldest, err := l.db.AdmitWithin(ctx, key, now.Add(-l.window), now, l.capacity)
	if err != nil {
		return Decision{}, err
	}
	if admitted {
		return Decision{Allowed: true}, nil
	}
	retry := oldest.Add(l.window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	return Decision{RetryAfter: retry}, nil
}
