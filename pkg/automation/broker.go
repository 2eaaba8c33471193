package automation

import (
	"context"

	"github.com/socialkit/commentd/pkg/browser"
	"github.com/socialkit/commentd/pkg/store"
)

// browserBroker adapts *browser.SessionStore to the SessionBroker
// interface the engine is written against.
type browserBroker struct {
	store *browser.SessionStore
}

// NewBrowserBroker wraps a browser session store for use by the
// engine.
func NewBrowserBroker(s *browser.SessionStore) SessionBroker {
	return browserBroker{store: s}
}

func (b browserBroker) Materialize(ctx context.Context, account *store.Account) (Session, error) {
	session, err := b.store.Materialize(ctx, account)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (b browserBroker) Release(session Session) {
	if s, ok := session.(*browser.Session); ok {
		b.store.Release(s)
	}
}
