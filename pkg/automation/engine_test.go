package automation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialkit/commentd/pkg/browser"
	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
)

// fakeSession records every operation the engine drives.
type fakeSession struct {
	ops         []string
	navigateErr error
	waitErr     error
	typeErr     error
	clickErr    error
}

func (s *fakeSession) Navigate(url string, timeout time.Duration) error {
	s.ops = append(s.ops, "navigate:"+url)
	return s.navigateErr
}

func (s *fakeSession) WaitForSelector(selector string, timeout time.Duration) error {
	s.ops = append(s.ops, "wait:"+selector)
	return s.waitErr
}

func (s *fakeSession) Type(selector, text string, timeout time.Duration) error {
	s.ops = append(s.ops, "type:"+text)
	return s.typeErr
}

func (s *fakeSession) Click(selector string, timeout time.Duration) error {
	s.ops = append(s.ops, "click:"+selector)
	return s.clickErr
}

// fakeBroker hands out a fixed session and tracks release balance.
type fakeBroker struct {
	session        *fakeSession
	materializeErr error
	materialized   int
	released       int
}

func (b *fakeBroker) Materialize(ctx context.Context, account *store.Account) (Session, error) {
	if b.materializeErr != nil {
		return nil, b.materializeErr
	}
	b.materialized++
	return b.session, nil
}

func (b *fakeBroker) Release(session Session) {
	b.released++
}

// fakeAccounts resolves a fixed account set.
type fakeAccounts struct {
	accounts map[int64]*store.Account
}

func (a *fakeAccounts) GetByID(ctx context.Context, id int64) (*store.Account, error) {
	account, ok := a.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return account, nil
}

func tiktokAccount() *store.Account {
	return &store.Account{ID: 1, Platform: platform.TikTok, Username: "creator"}
}

const tiktokURL = "https://www.tiktok.com/@creator/video/123"

func newTestEngine(broker *fakeBroker, opts Options) *Engine {
	accounts := &fakeAccounts{accounts: map[int64]*store.Account{1: tiktokAccount()}}
	return NewEngine(broker, accounts, opts, nil)
}

func TestPostCommentSimulatedByDefault(t *testing.T) {
	session := &fakeSession{}
	broker := &fakeBroker{session: session}
	engine := newTestEngine(broker, Options{})

	result, err := engine.PostComment(context.Background(), tiktokAccount(), tiktokURL, "hi")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Simulated)
	assert.Equal(t, tiktokURL, result.Request.VideoURL)
	assert.False(t, result.PostedAt.IsZero())

	// Never clicks submit when simulation is on.
	for _, op := range session.ops {
		assert.False(t, strings.HasPrefix(op, "click:"), "unexpected %s", op)
	}
	assert.Equal(t, 1, broker.released)
}

func TestPostCommentRealSubmit(t *testing.T) {
	session := &fakeSession{}
	broker := &fakeBroker{session: session}
	engine := newTestEngine(broker, Options{SubmitEnabled: true})

	result, err := engine.PostComment(context.Background(), tiktokAccount(), tiktokURL, "hi")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.Simulated)

	adapter, err := platform.AdapterFor(platform.TikTok)
	require.NoError(t, err)
	assert.Contains(t, session.ops, "click:"+adapter.SubmitButton)
}

func TestPostCommentRejectsLongComment(t *testing.T) {
	broker := &fakeBroker{session: &fakeSession{}}
	engine := newTestEngine(broker, Options{})

	long := strings.Repeat("a", MaxCommentLength+1)
	_, err := engine.PostComment(context.Background(), tiktokAccount(), tiktokURL, long)
	assert.ErrorIs(t, err, ErrCommentTooLong)
	assert.Zero(t, broker.materialized, "no session should be spent on an invalid comment")
}

func TestPostCommentAcceptsMaxLengthComment(t *testing.T) {
	broker := &fakeBroker{session: &fakeSession{}}
	engine := newTestEngine(broker, Options{})

	// Multi-byte runes: length is counted in runes, not bytes.
	exact := strings.Repeat("コ", MaxCommentLength)
	result, err := engine.PostComment(context.Background(), tiktokAccount(), tiktokURL, exact)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestPostCommentRejectsForeignURL(t *testing.T) {
	broker := &fakeBroker{session: &fakeSession{}}
	engine := newTestEngine(broker, Options{})

	_, err := engine.PostComment(context.Background(), tiktokAccount(),
		"https://www.instagram.com/p/abc/", "hi")
	assert.ErrorIs(t, err, ErrURLNotAllowed)
	assert.Zero(t, broker.materialized)
}

func TestPostCommentReleasesSessionOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		session *fakeSession
		wantErr error
	}{
		{
			name:    "navigation timeout",
			session: &fakeSession{navigateErr: browser.ErrNavigationTimeout},
			wantErr: browser.ErrNavigationTimeout,
		},
		{
			name:    "comment input missing",
			session: &fakeSession{waitErr: browser.ErrElementNotFound},
			wantErr: browser.ErrElementNotFound,
		},
		{
			name:    "typing fails",
			session: &fakeSession{typeErr: browser.ErrElementNotFound},
			wantErr: browser.ErrElementNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &fakeBroker{session: tt.session}
			engine := newTestEngine(broker, Options{})

			_, err := engine.PostComment(context.Background(), tiktokAccount(), tiktokURL, "hi")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, broker.released, "session must be released on the error path")
		})
	}
}

func TestPostCommentPropagatesMaterializeError(t *testing.T) {
	broker := &fakeBroker{materializeErr: browser.ErrCredentialInvalid}
	engine := newTestEngine(broker, Options{})

	_, err := engine.PostComment(context.Background(), tiktokAccount(), tiktokURL, "hi")
	assert.ErrorIs(t, err, browser.ErrCredentialInvalid)
	assert.Zero(t, broker.released, "nothing to release when materialize fails")
}

func TestPostResolvesAccount(t *testing.T) {
	broker := &fakeBroker{session: &fakeSession{}}
	engine := newTestEngine(broker, Options{})

	result, err := engine.Post(context.Background(), PostRequest{
		AccountID: 1, VideoURL: tiktokURL, Comment: "hi",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = engine.Post(context.Background(), PostRequest{
		AccountID: 99, VideoURL: tiktokURL, Comment: "hi",
	})
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
}
