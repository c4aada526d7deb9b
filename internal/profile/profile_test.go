package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todosync/internal/profile"
	"todosync/internal/service"
	"todosync/internal/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func signedIn(t *testing.T) (*profile.Service, *testutil.FakeAuth, *testutil.FakeKV) {
	t.Helper()
	auth := testutil.NewFakeAuth()
	auth.SetCurrent(service.User{ID: "alice", Email: "alice@example.com", DisplayName: "Alice"})
	kv := testutil.NewFakeKV()
	return profile.New(auth, kv, nil), auth, kv
}

func TestLoad_NoImage(t *testing.T) {
	svc, _, _ := signedIn(t)

	p, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, profile.Profile{DisplayName: "Alice", Email: "alice@example.com"}, p)
}

func TestLoad_NotSignedIn(t *testing.T) {
	svc := profile.New(testutil.NewFakeAuth(), testutil.NewFakeKV(), nil)

	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, service.ErrNotSignedIn)
}

func TestLoad_StoreError(t *testing.T) {
	svc, _, kv := signedIn(t)
	kv.GetErr = errors.New("disk full")

	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, kv.GetErr)
}

func TestSetImage_StoresDataURI(t *testing.T) {
	svc, _, kv := signedIn(t)
	ctx := context.Background()

	uri, err := svc.SetImage(ctx, "alice", pngBytes)
	require.NoError(t, err)
	assert.Regexp(t, `^data:image/png;base64,`, uri)

	stored, ok, err := kv.Get(ctx, "profileImage_alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uri, stored)

	p, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uri, p.Image)

	mime, data, err := profile.DecodeDataURI(p.Image)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngBytes, data)
}

func TestSetImage_RejectsNonImage(t *testing.T) {
	svc, _, kv := signedIn(t)
	ctx := context.Background()

	_, err := svc.SetImage(ctx, "alice", []byte("just some text"))
	assert.ErrorIs(t, err, profile.ErrNotImage)

	_, err = svc.SetImage(ctx, "alice", nil)
	assert.ErrorIs(t, err, profile.ErrNotImage)

	_, ok, _ := kv.Get(ctx, "profileImage_alice")
	assert.False(t, ok)
}

func TestSetImage_RequiresUser(t *testing.T) {
	svc, _, _ := signedIn(t)

	_, err := svc.SetImage(context.Background(), "", pngBytes)
	assert.ErrorIs(t, err, service.ErrNotSignedIn)
}

func TestSetImage_StoreError(t *testing.T) {
	svc, _, kv := signedIn(t)
	kv.SetErr = errors.New("read-only")

	_, err := svc.SetImage(context.Background(), "alice", pngBytes)
	assert.ErrorIs(t, err, kv.SetErr)
}

func TestUpdateUsername(t *testing.T) {
	svc, auth, _ := signedIn(t)

	require.NoError(t, svc.UpdateUsername(context.Background(), "  Ally  "))

	user, _ := auth.CurrentUser()
	assert.Equal(t, "Ally", user.DisplayName)
}

func TestUpdateUsername_Blank(t *testing.T) {
	svc, auth, _ := signedIn(t)
	auth.UpdateErr = errors.New("provider must not be called")

	for _, name := range []string{"", "   ", "\t"} {
		assert.ErrorIs(t, svc.UpdateUsername(context.Background(), name), profile.ErrEmptyUsername)
	}
}

func TestUpdateUsername_ProviderError(t *testing.T) {
	svc, auth, _ := signedIn(t)
	auth.UpdateErr = &service.AuthError{Message: "TOKEN_EXPIRED"}

	err := svc.UpdateUsername(context.Background(), "Ally")
	var authErr *service.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "TOKEN_EXPIRED", authErr.Message)
}

func TestUpdateUsername_NotSignedIn(t *testing.T) {
	svc := profile.New(testutil.NewFakeAuth(), testutil.NewFakeKV(), nil)

	err := svc.UpdateUsername(context.Background(), "Ally")
	assert.ErrorIs(t, err, service.ErrNotSignedIn)
}

func TestDecodeDataURI_Invalid(t *testing.T) {
	for _, uri := range []string{
		"",
		"http://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,abc",
		"data:image/png;base64,!!!",
	} {
		_, _, err := profile.DecodeDataURI(uri)
		assert.Error(t, err, "uri %q", uri)
	}
}

func TestImageKey(t *testing.T) {
	assert.Equal(t, "profileImage_u1", profile.ImageKey("u1"))
}
