package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
	"github.com/socialkit/commentd/pkg/vault"
)

func newTestStore(t *testing.T) (*SessionStore, *vault.Vault) {
	t.Helper()
	v, err := vault.New("test-secret")
	require.NoError(t, err)
	// Engine deliberately not started: these tests cover everything
	// that happens before a browser context exists.
	return NewSessionStore(NewEngine(EngineOptions{}), v), v
}

func encryptCookies(t *testing.T, v *vault.Vault, cookies []Cookie) string {
	t.Helper()
	raw, err := MarshalCookies(cookies)
	require.NoError(t, err)
	token, err := v.Encrypt(raw)
	require.NoError(t, err)
	return token
}

func sessionCookies() []Cookie {
	return []Cookie{
		{Name: "sessionid", Value: "abc123", Domain: ".tiktok.com", Path: "/"},
		{Name: "theme", Value: "dark", Domain: ".tiktok.com", Path: "/"},
	}
}

func TestMaterializeRejectsUnsupportedPlatform(t *testing.T) {
	s, _ := newTestStore(t)

	account := &store.Account{ID: 1, Platform: platform.Platform("youtube")}
	session, err := s.Materialize(context.Background(), account)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, platform.ErrUnsupportedPlatform)
}

func TestMaterializeRejectsUndecryptableBlob(t *testing.T) {
	s, _ := newTestStore(t)

	account := &store.Account{
		ID:               1,
		Platform:         platform.TikTok,
		EncryptedCookies: "not-a-valid-token",
	}
	session, err := s.Materialize(context.Background(), account)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestMaterializeRejectsNonCookieJSON(t *testing.T) {
	s, v := newTestStore(t)

	token, err := v.Encrypt([]byte("this is not cookie json"))
	require.NoError(t, err)

	account := &store.Account{ID: 1, Platform: platform.TikTok, EncryptedCookies: token}
	session, err := s.Materialize(context.Background(), account)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestMaterializeRejectsCookieSetWithoutSession(t *testing.T) {
	s, v := newTestStore(t)

	cookies := []Cookie{
		{Name: "theme", Value: "dark", Domain: ".tiktok.com", Path: "/"},
	}
	account := &store.Account{
		ID:               1,
		Platform:         platform.TikTok,
		EncryptedCookies: encryptCookies(t, v, cookies),
	}
	session, err := s.Materialize(context.Background(), account)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestMaterializeRejectsForeignDomainSessionCookie(t *testing.T) {
	s, v := newTestStore(t)

	// A session-shaped cookie from the wrong platform must not count.
	cookies := []Cookie{
		{Name: "sessionid", Value: "abc", Domain: ".instagram.com", Path: "/"},
	}
	account := &store.Account{
		ID:               1,
		Platform:         platform.TikTok,
		EncryptedCookies: encryptCookies(t, v, cookies),
	}
	session, err := s.Materialize(context.Background(), account)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestMaterializeRequiresStartedEngine(t *testing.T) {
	s, v := newTestStore(t)

	account := &store.Account{
		ID:               1,
		Platform:         platform.TikTok,
		EncryptedCookies: encryptCookies(t, v, sessionCookies()),
	}
	session, err := s.Materialize(context.Background(), account)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionEstablish)
}

func TestMaterializeHonorsCancelledContext(t *testing.T) {
	s, v := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	account := &store.Account{
		ID:               1,
		Platform:         platform.TikTok,
		EncryptedCookies: encryptCookies(t, v, sessionCookies()),
	}
	session, err := s.Materialize(ctx, account)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaterializeReleasesAccountLockOnFailure(t *testing.T) {
	s, v := newTestStore(t)

	account := &store.Account{
		ID:               7,
		Platform:         platform.TikTok,
		EncryptedCookies: encryptCookies(t, v, sessionCookies()),
	}

	// Engine not started, so materialize fails after taking the
	// account lock. A second attempt must not deadlock.
	_, err := s.Materialize(context.Background(), account)
	require.ErrorIs(t, err, ErrSessionEstablish)

	done := make(chan struct{})
	go func() {
		_, _ = s.Materialize(context.Background(), account)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second materialize blocked: account lock leaked")
	}
}

func TestReleaseNilSessionIsSafe(t *testing.T) {
	s, _ := newTestStore(t)
	s.Release(nil)
}

func TestHasSessionCookie(t *testing.T) {
	adapter, err := platform.AdapterFor(platform.TikTok)
	require.NoError(t, err)

	assert.True(t, hasSessionCookie(sessionCookies(), adapter))
	assert.False(t, hasSessionCookie(nil, adapter))
	assert.False(t, hasSessionCookie([]Cookie{
		{Name: "lang", Domain: ".tiktok.com"},
	}, adapter))
}

func TestScopeCookies(t *testing.T) {
	adapter, err := platform.AdapterFor(platform.Instagram)
	require.NoError(t, err)

	cookies := []Cookie{
		{Name: "sessionid", Domain: ".instagram.com"},
		{Name: "tracking", Domain: ".doubleclick.net"},
		{Name: "csrftoken", Domain: "www.instagram.com"},
	}
	scoped := scopeCookies(cookies, adapter)
	require.Len(t, scoped, 2)
	assert.Equal(t, "sessionid", scoped[0].Name)
	assert.Equal(t, "csrftoken", scoped[1].Name)
}
