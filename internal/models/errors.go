package models

import "errors"

// Remote fault taxonomy. Adapters wrap their errors with one of these so the
// crawl engine can pick a recovery action without knowing the vendor client.
var (
	// ErrTransient covers faults worth waiting out: exhausted rate-limit waits,
	// 5xx and "accepted, still buffering" responses, network timeouts.
	ErrTransient = errors.New("transient remote fault")

	ErrNotFound     = errors.New("account not found")
	ErrUnauthorized = errors.New("remote rejected credentials")

	// ErrFatal is anything outside the recognized transient set.
	ErrFatal = errors.New("fatal remote fault")
)

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
