package spider

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gnomegl/iceslurp/internal/models"
)

// DefaultRetryInterval paces retries of a transiently failing call.
const DefaultRetryInterval = 5 * time.Second

// Retrier repeats calls that fail with a transient fault. Retries are not
// counted; the run budget is the only bound.
type Retrier struct {
	budget  *Budget
	limiter *rate.Limiter
	log     *zap.Logger
	onRetry func(error)
}

func NewRetrier(budget *Budget, interval time.Duration, log *zap.Logger) *Retrier {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Retrier{
		budget:  budget,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// OnRetry registers a hook called with each transient fault before retrying.
func (r *Retrier) OnRetry(fn func(error)) {
	r.onRetry = fn
}

// Do runs op until it succeeds, fails permanently, or the budget runs out.
// The first attempt always runs, even on a spent budget.
func (r *Retrier) Do(ctx context.Context, what string, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !models.IsTransient(err) {
			return err
		}
		if r.onRetry != nil {
			r.onRetry(err)
		}
		if r.budget.Exceeded() {
			return fmt.Errorf("%w: giving up on %s after %d attempts: %v", ErrBudgetExceeded, what, attempt, err)
		}

		r.log.Warn("transient remote fault, retrying",
			zap.String("call", what),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}
}
