package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
	"github.com/socialkit/commentd/pkg/vault"
)

// SessionStore materializes live sessions from encrypted account
// credentials and guarantees their release.
//
// Policy: every action gets a fresh context, rebuilt from the
// account's credential blob, and a per-account lock serializes
// concurrent materializations of the same account. Concurrent actions
// against different accounts proceed independently.
type SessionStore struct {
	engine *Engine
	vault  *vault.Vault

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewSessionStore creates a session store backed by the shared engine
// and the credential vault.
func NewSessionStore(engine *Engine, v *vault.Vault) *SessionStore {
	return &SessionStore{
		engine: engine,
		vault:  v,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// accountLock returns the mutex for an account, creating it on first
// use. Locks are never removed; the account set is small.
func (s *SessionStore) accountLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// Materialize builds a live session for the account: decrypt the
// credential blob, validate the cookie set, create a fresh context,
// and inject the cookies. The returned session holds the account's
// lock until Release.
func (s *SessionStore) Materialize(ctx context.Context, account *store.Account) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	adapter, err := platform.AdapterFor(account.Platform)
	if err != nil {
		return nil, err
	}

	// Credentials are validated before any browser resource is
	// touched, so a bad blob never costs a context.
	plaintext, err := s.vault.Decrypt(account.EncryptedCookies)
	if err != nil {
		return nil, fmt.Errorf("%w: account %d: %v", ErrCredentialInvalid, account.ID, err)
	}

	cookies, err := UnmarshalCookies(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: account %d: %v", ErrCredentialInvalid, account.ID, err)
	}
	if !hasSessionCookie(cookies, adapter) {
		return nil, fmt.Errorf("%w: account %d: no session cookie in credential set", ErrCredentialInvalid, account.ID)
	}

	lock := s.accountLock(account.ID)
	lock.Lock()

	browserCtx, page, err := s.engine.newContext()
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrSessionEstablish, err)
	}

	optional := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		optional = append(optional, c.toPlaywright())
	}
	if err := browserCtx.AddCookies(optional); err != nil {
		_ = browserCtx.Close()
		lock.Unlock()
		return nil, fmt.Errorf("%w: inject cookies: %v", ErrSessionEstablish, err)
	}

	now := time.Now()
	return &Session{
		AccountID:  account.ID,
		Platform:   account.Platform,
		context:    browserCtx,
		page:       page,
		unlock:     lock.Unlock,
		CreatedAt:  now,
		LastUsedAt: now,
	}, nil
}

// Release tears the session down unconditionally and frees the
// account lock. Safe to call exactly once on every exit path,
// including after the action failed.
func (s *SessionStore) Release(session *Session) {
	if session == nil {
		return
	}
	_ = session.page.Close()
	_ = session.context.Close()
	if session.unlock != nil {
		session.unlock()
		session.unlock = nil
	}
}

// hasSessionCookie reports whether any cookie in the set marks an
// authenticated session on the adapter's platform.
func hasSessionCookie(cookies []Cookie, adapter platform.Adapter) bool {
	for _, c := range cookies {
		if adapter.IsSessionCookie(c.Name) && adapter.OwnsDomain(c.Domain) {
			return true
		}
	}
	return false
}
