// Package automation executes semantic posting actions against live
// browser sessions: single comment posts and paced, order-preserving
// batches.
package automation

import (
	"context"
	"time"

	"github.com/socialkit/commentd/pkg/store"
)

// MaxCommentLength is the longest comment accepted, in runes.
const MaxCommentLength = 150

// PostRequest asks for one comment to be posted by one account. It is
// a pure input value; its only identity is its position in a batch.
type PostRequest struct {
	AccountID int64  `json:"accountId"`
	VideoURL  string `json:"videoUrl"`
	Comment   string `json:"comment"`
}

// PostResult is the outcome of one posting action. It echoes the
// originating request so batch consumers can pair results with inputs
// without positional bookkeeping.
type PostResult struct {
	Request   PostRequest `json:"request"`
	Success   bool        `json:"success"`
	Simulated bool        `json:"simulated"`
	Error     string      `json:"error,omitempty"`
	PostedAt  time.Time   `json:"postedAt"`
}

// Session is the slice of browser session behavior the action engine
// drives. *browser.Session satisfies it.
type Session interface {
	Navigate(url string, timeout time.Duration) error
	WaitForSelector(selector string, timeout time.Duration) error
	Type(selector, text string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
}

// SessionBroker materializes and releases account-bound sessions.
type SessionBroker interface {
	Materialize(ctx context.Context, account *store.Account) (Session, error)
	Release(session Session)
}

// AccountGetter resolves account ids. Satisfied by any
// store.AccountRepository implementation.
type AccountGetter interface {
	GetByID(ctx context.Context, id int64) (*store.Account, error)
}

// CommentPoster is the single-action contract the batch coordinator
// schedules over.
type CommentPoster interface {
	Post(ctx context.Context, req PostRequest) (PostResult, error)
}
