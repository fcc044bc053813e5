package session

import (
	"context"
	"sync"
)

// Navigator moves the user between the login view and the authenticated views.
type Navigator interface {
	ToLogin(ctx context.Context)
	ToHome(ctx context.Context)
}

// Observer redirects on session transitions.
type Observer struct {
	nav Navigator

	mu            sync.Mutex
	authenticated bool
}

// NewObserver creates an Observer driving nav.
func NewObserver(nav Navigator) *Observer {
	return &Observer{nav: nav}
}

// Watch evaluates the store's current state once, then follows every change
// until the returned stop func is called.
func (o *Observer) Watch(ctx context.Context, store *Store) (stop func()) {
	o.mu.Lock()
	o.authenticated = store.Authenticated()
	initial := o.authenticated
	o.mu.Unlock()

	stop = store.Subscribe(func(ctx context.Context, _, next *Token) {
		o.update(ctx, next != nil)
	})

	if !initial {
		o.nav.ToLogin(ctx)
	}
	return stop
}

func (o *Observer) update(ctx context.Context, authenticated bool) {
	o.mu.Lock()
	changed := o.authenticated != authenticated
	o.authenticated = authenticated
	o.mu.Unlock()

	if !changed {
		return
	}
	if authenticated {
		o.nav.ToHome(ctx)
	} else {
		o.nav.ToLogin(ctx)
	}
}
