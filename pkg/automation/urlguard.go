package automation

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"

	"github.com/socialkit/commentd/pkg/platform"
)

// URLGuard checks target content URLs against a platform's allowed
// glob patterns before any browser work is spent on them. A TikTok
// account can never be driven at an Instagram URL, or at an arbitrary
// site.
type URLGuard struct {
	mu       sync.Mutex
	compiled map[string]glob.Glob
}

// NewURLGuard creates an empty guard; patterns compile lazily.
func NewURLGuard() *URLGuard {
	return &URLGuard{compiled: make(map[string]glob.Glob)}
}

// Check returns ErrURLNotAllowed when url matches none of the
// platform's content URL patterns.
func (g *URLGuard) Check(p platform.Platform, url string) error {
	adapter, err := platform.AdapterFor(p)
	if err != nil {
		return err
	}

	for _, pattern := range adapter.ContentURLPatterns {
		matcher, err := g.matcher(pattern)
		if err != nil {
			return err
		}
		if matcher.Match(url) {
			return nil
		}
	}

	return fmt.Errorf("%w: %q on %s", ErrURLNotAllowed, url, p)
}

// matcher returns the compiled glob for a pattern, compiling and
// caching on first use.
func (g *URLGuard) matcher(pattern string) (glob.Glob, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if matcher, ok := g.compiled[pattern]; ok {
		return matcher, nil
	}

	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("automation: compile url pattern %q: %w", pattern, err)
	}
	g.compiled[pattern] = matcher
	return matcher, nil
}
