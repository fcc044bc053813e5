package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/florianilch/taskconsole/internal/tokenstore"
)

// ChangeFunc is called after the store switched from prev to next.
// It runs synchronously inside Set and must not call Set itself.
type ChangeFunc func(ctx context.Context, prev, next *Token)

// Store holds the current token pair and mirrors it into durable storage.
// Get is lock-free; Set calls are serialized.
type Store struct {
	durable tokenstore.TokenStore

	current atomic.Pointer[Token]
	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[uint64]ChangeFunc
	nextID uint64
}

// Open creates a Store seeded from the durable slot. An empty slot starts the
// session logged out. So does a slot that cannot be read or decoded; the
// problem is logged and the slot left untouched for inspection.
func Open(ctx context.Context, durable tokenstore.TokenStore) (*Store, error) {
	if durable == nil {
		return nil, fmt.Errorf("missing token store")
	}

	s := &Store{
		durable: durable,
		subs:    make(map[uint64]ChangeFunc),
	}

	value, err := durable.Read(ctx)
	switch {
	case errors.Is(err, tokenstore.ErrNotFound):
		return s, nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.WarnContext(ctx, "failed to read stored token, starting logged out", "error", err)
		return s, nil
	}

	token, err := unmarshalToken(value)
	if err != nil {
		slog.WarnContext(ctx, "ignoring malformed stored token", "error", err)
		return s, nil
	}
	s.current.Store(token)

	return s, nil
}

// Get returns the current token, or nil when logged out.
func (s *Store) Get() *Token {
	return s.current.Load()
}

// Authenticated reports whether a token is present.
func (s *Store) Authenticated() bool {
	return s.Get() != nil
}

// Set replaces the current token and its durable copy, then notifies
// subscribers. A nil token logs the session out.
//
// When the durable write of a non-nil token fails, the in-memory token is left
// unchanged. Clearing always succeeds in memory; a failed durable delete is
// still reported.
func (s *Store) Set(ctx context.Context, token *Token) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var persistErr error
	if token == nil {
		if err := s.durable.Delete(ctx); err != nil {
			persistErr = fmt.Errorf("deleting stored token: %w", err)
		}
	} else {
		value, err := marshalToken(token)
		if err != nil {
			return err
		}
		if err := s.durable.Write(ctx, value); err != nil {
			return fmt.Errorf("persisting token: %w", err)
		}
	}

	prev := s.current.Swap(token)
	if prev != token {
		s.notify(ctx, prev, token)
	}

	return persistErr
}

// Subscribe registers fn for every future change. The returned func
// unregisters it.
func (s *Store) Subscribe(fn ChangeFunc) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify(ctx context.Context, prev, next *Token) {
	s.subsMu.Lock()
	fns := make([]ChangeFunc, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(ctx, prev, next)
	}
}
