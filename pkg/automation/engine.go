package automation

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/socialkit/commentd/pkg/logging"
	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
)

// Action timing budgets.
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSelectorTimeout   = 10 * time.Second
	submitTimeout            = 5 * time.Second
	submitSettle             = 3 * time.Second
)

// Options configures the action engine.
type Options struct {
	// NavigationTimeout bounds content page loads.
	NavigationTimeout time.Duration

	// SelectorTimeout bounds waiting for the comment input.
	SelectorTimeout time.Duration

	// SubmitEnabled turns on the real submit click. Off by default:
	// the engine types the comment but never posts it, and results
	// report simulated. Enabling this posts real comments to real
	// accounts.
	SubmitEnabled bool
}

// Engine executes one semantic posting action at a time against a
// materialized session.
type Engine struct {
	sessions SessionBroker
	accounts AccountGetter
	guard    *URLGuard
	opts     Options
	log      *logging.Logger
}

// NewEngine creates an action engine. log may be nil.
func NewEngine(sessions SessionBroker, accounts AccountGetter, opts Options, log *logging.Logger) *Engine {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.SelectorTimeout <= 0 {
		opts.SelectorTimeout = DefaultSelectorTimeout
	}
	return &Engine{
		sessions: sessions,
		accounts: accounts,
		guard:    NewURLGuard(),
		opts:     opts,
		log:      log,
	}
}

// Post resolves the request's account and posts its comment. Typed
// errors propagate to the caller; conversion to a failed PostResult
// happens only at the batch boundary.
func (e *Engine) Post(ctx context.Context, req PostRequest) (PostResult, error) {
	account, err := e.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return PostResult{}, err
	}
	return e.PostComment(ctx, account, req.VideoURL, req.Comment)
}

// PostComment drives one comment action: materialize a session for the
// account, navigate to the content, locate the comment input, type the
// text, and (only when enabled) submit. The session is released on
// every exit path.
func (e *Engine) PostComment(ctx context.Context, account *store.Account, videoURL, comment string) (PostResult, error) {
	req := PostRequest{AccountID: account.ID, VideoURL: videoURL, Comment: comment}

	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return PostResult{}, fmt.Errorf("%w: %d runes", ErrCommentTooLong, utf8.RuneCountInString(comment))
	}

	adapter, err := platform.AdapterFor(account.Platform)
	if err != nil {
		return PostResult{}, err
	}

	if err := e.guard.Check(account.Platform, videoURL); err != nil {
		return PostResult{}, err
	}

	session, err := e.sessions.Materialize(ctx, account)
	if err != nil {
		return PostResult{}, err
	}
	defer e.sessions.Release(session)

	if err := session.Navigate(videoURL, e.opts.NavigationTimeout); err != nil {
		return PostResult{}, err
	}

	if err := session.WaitForSelector(adapter.CommentInput, e.opts.SelectorTimeout); err != nil {
		return PostResult{}, err
	}

	if err := session.Type(adapter.CommentInput, comment, e.opts.SelectorTimeout); err != nil {
		return PostResult{}, err
	}

	if e.opts.SubmitEnabled {
		if err := session.WaitForSelector(adapter.SubmitButton, submitTimeout); err != nil {
			return PostResult{}, err
		}
		if err := session.Click(adapter.SubmitButton, submitTimeout); err != nil {
			return PostResult{}, err
		}
		// Let the platform register the post before teardown.
		time.Sleep(submitSettle)
		e.logf("posted comment for account %d at %s", account.ID, videoURL)
	} else {
		e.logf("simulated comment for account %d at %s", account.ID, videoURL)
	}

	return PostResult{
		Request:   req,
		Success:   true,
		Simulated: !e.opts.SubmitEnabled,
		PostedAt:  time.Now(),
	}, nil
}

func (e *Engine) logf(format string, v ...interface{}) {
	if e.log != nil {
		e.log.Infof(format, v...)
	}
}
