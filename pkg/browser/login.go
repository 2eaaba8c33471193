package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/socialkit/commentd/pkg/platform"
)

// Login capture timing. The wait window covers a human typing
// credentials and clearing whatever challenge the platform raises.
const (
	DefaultLoginWait    = 2 * time.Minute
	loginPollInterval   = 2 * time.Second
	loginNavigateBudget = 60 * time.Second
)

// CaptureLogin opens a fresh credential-less context on the platform's
// login page and waits for an operator to complete the login in the
// visible browser window. It polls the context's cookies until one
// matches the platform's session-cookie shape, then returns the
// platform-scoped cookie set as the plaintext credential set.
//
// The wait is bounded by window (DefaultLoginWait when zero) and
// cancellable through ctx. If the window closes with no session cookie
// the capture fails with ErrLoginNotDetected.
func (s *SessionStore) CaptureLogin(ctx context.Context, p platform.Platform, username string) ([]Cookie, error) {
	return s.CaptureLoginWindow(ctx, p, username, DefaultLoginWait)
}

// CaptureLoginWindow is CaptureLogin with an explicit wait window.
func (s *SessionStore) CaptureLoginWindow(ctx context.Context, p platform.Platform, username string, window time.Duration) ([]Cookie, error) {
	adapter, err := platform.AdapterFor(p)
	if err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultLoginWait
	}

	browserCtx, page, err := s.engine.newContext()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionEstablish, err)
	}
	defer browserCtx.Close()

	session := &Session{
		Platform:  p,
		context:   browserCtx,
		page:      page,
		CreatedAt: time.Now(),
	}

	if err := session.Navigate(adapter.LoginURL, loginNavigateBudget); err != nil {
		return nil, err
	}

	deadline := time.NewTimer(window)
	defer deadline.Stop()
	poll := time.NewTicker(loginPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: %s login for %q", ErrLoginNotDetected, p, username)
		case <-poll.C:
			cookies, err := session.Cookies()
			if err != nil {
				return nil, err
			}
			scoped := scopeCookies(cookies, adapter)
			if hasSessionCookie(scoped, adapter) {
				return scoped, nil
			}
		}
	}
}

// scopeCookies keeps only cookies belonging to the platform's
// registrable domain. Third-party cookies picked up during login are
// not credentials and never leave the capture context.
func scopeCookies(cookies []Cookie, adapter platform.Adapter) []Cookie {
	scoped := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		if adapter.OwnsDomain(c.Domain) {
			scoped = append(scoped, c)
		}
	}
	return scoped
}
