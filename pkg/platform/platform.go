// Package platform resolves per-platform automation capabilities:
// login page URLs, comment form selectors, and session-cookie
// detection. The supported platform set is closed; adding one is a
// code change, not data.
package platform

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Platform identifies a supported social platform.
type Platform string

const (
	TikTok    Platform = "tiktok"
	Instagram Platform = "instagram"
)

// ErrUnsupportedPlatform is returned for any platform tag outside the
// supported set.
var ErrUnsupportedPlatform = errors.New("platform: unsupported platform")

// Parse validates a raw platform tag.
func Parse(raw string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(raw))) {
	case TikTok:
		return TikTok, nil
	case Instagram:
		return Instagram, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, raw)
	}
}

// String returns the platform tag.
func (p Platform) String() string {
	return string(p)
}

// Adapter holds everything the automation engine needs to drive one
// platform: where to log in, where to type, what to click, and how to
// recognize an authenticated cookie set.
type Adapter struct {
	// Platform is the tag this adapter serves.
	Platform Platform

	// LoginURL is the page opened for interactive login capture.
	LoginURL string

	// CommentInput is the CSS selector for the comment text input.
	CommentInput string

	// SubmitButton is the CSS selector for the comment submit action.
	SubmitButton string

	// Site is the platform's registrable domain, used to scope
	// captured cookies.
	Site string

	// ContentURLPatterns are glob patterns a target content URL must
	// match before the engine will touch it.
	ContentURLPatterns []string
}

// defaults are the shipped selector sets. Overridable per deployment
// via a selectors file, since page structure drifts without notice.
var defaults = map[Platform]Adapter{
	TikTok: {
		Platform:     TikTok,
		LoginURL:     "https://www.tiktok.com/login",
		CommentInput: `div[data-e2e="comment-input"] textarea`,
		SubmitButton: `button[data-e2e="comment-post"]`,
		Site:         "tiktok.com",
		ContentURLPatterns: []string{
			"https://www.tiktok.com/@*/video/*",
			"https://vm.tiktok.com/*",
		},
	},
	Instagram: {
		Platform:     Instagram,
		LoginURL:     "https://www.instagram.com/accounts/login/",
		CommentInput: `textarea[aria-label="Add a comment…"]`,
		SubmitButton: `button[type="submit"]`,
		Site:         "instagram.com",
		ContentURLPatterns: []string{
			"https://www.instagram.com/p/*",
			"https://www.instagram.com/reel/*",
		},
	},
}

// AdapterFor resolves the adapter for a platform tag. The returned
// value is a copy; callers may not mutate the shipped defaults.
func AdapterFor(p Platform) (Adapter, error) {
	adapter, ok := defaults[p]
	if !ok {
		return Adapter{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, p)
	}
	return adapter, nil
}

// IsSessionCookie reports whether a cookie name looks like a login
// session marker. Both supported platforms use session/token naming
// for their auth cookies.
func (a Adapter) IsSessionCookie(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "session") || strings.Contains(lower, "token")
}

// OwnsDomain reports whether a cookie domain belongs to the adapter's
// site, comparing registrable (eTLD+1) domains so "www.tiktok.com" and
// ".tiktok.com" both match.
func (a Adapter) OwnsDomain(domain string) bool {
	trimmed := strings.TrimPrefix(strings.ToLower(domain), ".")
	if trimmed == a.Site {
		return true
	}
	etld, err := publicsuffix.EffectiveTLDPlusOne(trimmed)
	if err != nil {
		return false
	}
	return etld == a.Site
}
