package spider

import (
	"errors"
	"time"
)

// ErrBudgetExceeded stops retry loops once the run's wall-clock budget is spent.
var ErrBudgetExceeded = errors.New("time budget exceeded")

// Budget is the wall-clock allowance of one crawl run.
type Budget struct {
	start time.Time
	limit time.Duration
	now   func() time.Time
}

func NewBudget(limit time.Duration) *Budget {
	return NewBudgetWithClock(limit, time.Now)
}

func NewBudgetWithClock(limit time.Duration, now func() time.Time) *Budget {
	return &Budget{start: now(), limit: limit, now: now}
}

func (b *Budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}

// Exceeded reports elapsed >= limit, so a zero budget is spent from the start.
func (b *Budget) Exceeded() bool {
	return b.Elapsed() >= b.limit
}

func (b *Budget) Remaining() time.Duration {
	if r := b.limit - b.Elapsed(); r > 0 {
		return r
	}
	return 0
}

func (b *Budget) Limit() time.Duration {
	return b.limit
}
