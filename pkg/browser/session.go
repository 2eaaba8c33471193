package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/socialkit/commentd/pkg/platform"
)

// Session is a live browser context bound to one account. Sessions are
// created per action by the SessionStore and must always be returned
// through Release, on every caller exit path.
type Session struct {
	AccountID int64
	Platform  platform.Platform

	context playwright.BrowserContext
	page    playwright.Page
	unlock  func()

	CreatedAt  time.Time
	LastUsedAt time.Time
}

func (s *Session) touch() {
	s.LastUsedAt = time.Now()
}

// Navigate loads url and waits for the network to go idle, bounded by
// timeout. A timeout is mandatory; zero is rejected rather than
// defaulted so an unbounded wait can never be configured by accident.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("browser: navigate requires a positive timeout")
	}
	s.touch()

	waitUntil := playwright.WaitUntilStateNetworkidle
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
		}
		return fmt.Errorf("browser: navigate to %s: %w", url, err)
	}
	return nil
}

// WaitForSelector waits for an element to become visible within
// timeout.
func (s *Session) WaitForSelector(selector string, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("browser: wait requires a positive timeout")
	}
	s.touch()

	state := playwright.WaitForSelectorStateVisible
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   state,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

// Type focuses the element and types text into it key by key, the way
// a user would.
func (s *Session) Type(selector, text string, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("browser: type requires a positive timeout")
	}
	s.touch()

	if err := s.page.Type(selector, text, playwright.PageTypeOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

// Click clicks the element matching selector.
func (s *Session) Click(selector string, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("browser: click requires a positive timeout")
	}
	s.touch()

	if err := s.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

// Cookies reads the context's current cookie set.
func (s *Session) Cookies() ([]Cookie, error) {
	s.touch()

	raw, err := s.context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("browser: read cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, fromPlaywright(c))
	}
	return cookies, nil
}

// isTimeout reports whether a Playwright error is a timeout.
func isTimeout(err error) bool {
	return errors.Is(err, playwright.ErrTimeout)
}
