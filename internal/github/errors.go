package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/gnomegl/iceslurp/internal/models"
)

// classifyError maps a go-github failure onto the models taxonomy so the
// crawl can tell retryable faults from permanent ones.
func classifyError(resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var accepted *gh.AcceptedError
	if errors.As(err, &accepted) {
		return fmt.Errorf("%w: %v", models.ErrTransient, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", models.ErrTransient, err)
	}

	status := 0
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		status = errResp.Response.StatusCode
	} else if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %v", models.ErrNotFound, err)
	case status == http.StatusAccepted,
		status == http.StatusTooManyRequests,
		status >= 500:
		return fmt.Errorf("%w: %v", models.ErrTransient, err)
	}
	return fmt.Errorf("%w: %v", models.ErrFatal, err)
}

// rateLimitWait reports how long to sleep before retrying a rate limited call.
func rateLimitWait(err error, now time.Time, floor time.Duration) (time.Duration, bool) {
	var rl *gh.RateLimitError
	if errors.As(err, &rl) {
		return max(rl.Rate.Reset.Time.Sub(now), floor), true
	}

	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		if abuse.RetryAfter != nil {
			return max(*abuse.RetryAfter, floor), true
		}
		return floor, true
	}
	return 0, false
}
