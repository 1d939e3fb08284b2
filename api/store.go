package api

import (
	"context"
	"errors"
	"fmt"

	uci "github.com/0xalexb/hjarta-uci"
)

// ErrNilContext is returned by NewStore when no Context is given.
var ErrNilContext = errors.New("api: nil uci context")

// Store serializes access to one uci.Context.
type Store struct {
	sem chan struct{}
	uci *uci.Context
}

// NewStore wraps c. The Store takes ownership; callers must go through Do.
func NewStore(c *uci.Context) (*Store, error) {
	if c == nil {
		return nil, ErrNilContext
	}

	return &Store{sem: make(chan struct{}, 1), uci: c}, nil
}

// Do runs fn with exclusive access to the Context. It gives up without
// running fn when ctx is done before access is granted.
func (s *Store) Do(ctx context.Context, fn func(*uci.Context) error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for the store: %w", ctx.Err())
	}

	defer func() { <-s.sem }()

	return fn(s.uci)
}

// Close closes the Context, committing pending changes.
func (s *Store) Close(ctx context.Context) error {
	return s.Do(ctx, func(c *uci.Context) error {
		return c.Close()
	})
}
