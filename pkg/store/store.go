// Package store defines the persisted records and repository contracts
// for accounts and comment history. Implementations live in
// subpackages; the automation core only ever sees these types.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/socialkit/commentd/pkg/platform"
)

// AccountStatus tracks whether an account's stored credentials are
// believed usable.
type AccountStatus string

const (
	AccountConnected    AccountStatus = "connected"
	AccountDisconnected AccountStatus = "disconnected"
	AccountError        AccountStatus = "error"
)

// CommentStatus is the outcome recorded for one posting attempt.
type CommentStatus string

const (
	CommentPosted  CommentStatus = "posted"
	CommentFailed  CommentStatus = "failed"
	CommentPending CommentStatus = "pending"
)

// ErrAccountNotFound is returned when an account id resolves to
// nothing.
var ErrAccountNotFound = errors.New("store: account not found")

// Account is a platform account with encrypted session credentials.
// EncryptedCookies is opaque outside the vault; nothing but the vault
// encrypt path ever writes it.
type Account struct {
	ID               int64             `json:"id"`
	Platform         platform.Platform `json:"platform"`
	Username         string            `json:"username"`
	EncryptedCookies string            `json:"-"`
	Status           AccountStatus     `json:"status"`
	LastUsed         *time.Time        `json:"lastUsed,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// CommentRecord is one row of posting history.
type CommentRecord struct {
	ID        int64             `json:"id"`
	AccountID int64             `json:"accountId"`
	Platform  platform.Platform `json:"platform"`
	Username  string            `json:"username"`
	VideoURL  string            `json:"videoUrl"`
	Comment   string            `json:"comment"`
	Status    CommentStatus     `json:"status"`
	PostedAt  time.Time         `json:"postedAt"`
}

// AccountRepository persists accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) (int64, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	UpdateStatus(ctx context.Context, id int64, status AccountStatus) error
	UpdateLastUsed(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// CommentRepository persists posting history.
type CommentRepository interface {
	Create(ctx context.Context, record *CommentRecord) (int64, error)

	// Recent returns the newest records first, capped at limit.
	Recent(ctx context.Context, limit int) ([]*CommentRecord, error)
}
