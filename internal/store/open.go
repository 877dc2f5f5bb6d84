package store

import (
	"errors"
	"fmt"
)

var ErrUnknownBackend = errors.New("unknown state backend")

// Open returns the backend named kind ("json" or "sqlite") rooted at dir.
// The returned close function is never nil.
func Open(kind, dir string) (Backend, func() error, error) {
	switch kind {
	case "", "json":
		return NewFileBackend(dir), func() error { return nil }, nil
	case "sqlite":
		b, err := OpenSQLite(dir)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
}
