package github

import "time"

// Config holds configuration for the GitHub adapter
type Config struct {
	// PerPage is the page size of follower listings (API maximum 100).
	PerPage int
	// RequestInterval paces every API call across the pool. Zero disables
	// pacing.
	RequestInterval time.Duration
	// MinRateLimitWait is the shortest sleep after a rate limit response,
	// used when the reset time is unknown or already passed.
	MinRateLimitWait time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		PerPage:          100,
		RequestInterval:  750 * time.Millisecond,
		MinRateLimitWait: 5 * time.Second,
	}
}
