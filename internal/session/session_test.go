package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"todosync/internal/service"
)

var alice = service.User{ID: "alice", DisplayName: "Alice", Email: "alice@example.com"}

func TestNotifier_DeliversCurrentStateOnSubscribe(t *testing.T) {
	var n Notifier
	n.Set(service.AuthEvent{State: service.SignedIn, User: alice})

	var got []service.AuthEvent
	unsubscribe := n.Subscribe(func(ev service.AuthEvent) { got = append(got, ev) })
	defer unsubscribe()

	require.Len(t, got, 1)
	assert.Equal(t, service.SignedIn, got[0].State)
	assert.Equal(t, "alice", got[0].User.ID)
}

func TestNotifier_DeliversTransitions(t *testing.T) {
	var n Notifier

	var states []service.AuthState
	unsubscribe := n.Subscribe(func(ev service.AuthEvent) { states = append(states, ev.State) })

	n.SignedIn(alice)
	n.SignedOut()
	unsubscribe()
	n.SignedIn(alice)

	assert.Equal(t, []service.AuthState{service.SignedOut, service.SignedIn, service.SignedOut}, states)
	assert.Equal(t, service.SignedIn, n.Current().State)
}

func TestNotifier_UnsubscribeIsIdempotent(t *testing.T) {
	var n Notifier
	unsubscribe := n.Subscribe(func(service.AuthEvent) {})
	unsubscribe()
	unsubscribe()
}

func TestFile_RoundTrip(t *testing.T) {
	f := File{Path: filepath.Join(t.TempDir(), "session.json")}
	rec := Record{
		User: alice,
		Token: &oauth2.Token{
			AccessToken:  "id-token",
			RefreshToken: "refresh",
			Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	require.NoError(t, f.Save(rec))

	info, err := os.Stat(f.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, alice, got.User)
	assert.Equal(t, "refresh", got.Token.RefreshToken)
	assert.True(t, rec.Token.Expiry.Equal(got.Token.Expiry))
}

func TestFile_LoadMissing(t *testing.T) {
	f := File{Path: filepath.Join(t.TempDir(), "session.json")}
	_, err := f.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFile_LoadRejectsMissingRefreshToken(t *testing.T) {
	f := File{Path: filepath.Join(t.TempDir(), "session.json")}
	require.NoError(t, os.WriteFile(f.Path, []byte(`{"user":{"id":"alice"},"token":{"access_token":"x"}}`), 0600))

	_, err := f.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestFile_RemoveMissingIsNotAnError(t *testing.T) {
	f := File{Path: filepath.Join(t.TempDir(), "session.json")}
	assert.NoError(t, f.Remove())
}
