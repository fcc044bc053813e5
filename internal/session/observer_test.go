package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/taskconsole/internal/tokenstore"
)

type recordingNavigator struct {
	moves []string
}

func (n *recordingNavigator) ToLogin(context.Context) { n.moves = append(n.moves, "login") }
func (n *recordingNavigator) ToHome(context.Context)  { n.moves = append(n.moves, "home") }

func TestObserverRedirectsOnEveryTransition(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, tokenstore.NewMemoryStore())
	require.NoError(t, err)

	nav := &recordingNavigator{}
	stop := NewObserver(nav).Watch(ctx, store)
	defer stop()

	assert.Equal(t, []string{"login"}, nav.moves, "startup without token goes to login")

	require.NoError(t, store.Set(ctx, &Token{AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, store.Set(ctx, &Token{AccessToken: "b", RefreshToken: "s"}))
	require.NoError(t, store.Set(ctx, nil))

	assert.Equal(t, []string{"login", "home", "login"}, nav.moves, "token rotation keeps the user where they are")
}

func TestObserverStartsQuietWhenAuthenticated(t *testing.T) {
	ctx := context.Background()
	durable := tokenstore.NewMemoryStore()
	require.NoError(t, durable.Write(ctx, `{"access_token":"a","refresh_token":"r"}`))
	store, err := Open(ctx, durable)
	require.NoError(t, err)

	nav := &recordingNavigator{}
	stop := NewObserver(nav).Watch(ctx, store)

	assert.Empty(t, nav.moves)

	stop()
	require.NoError(t, store.Set(ctx, nil))
	assert.Empty(t, nav.moves, "stopped observer ignores changes")
}
