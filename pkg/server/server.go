// Package server exposes the automation core over a small JSON HTTP
// API: account management, single comment posts, batch posts, and
// posting history.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/socialkit/commentd/pkg/automation"
	"github.com/socialkit/commentd/pkg/browser"
	"github.com/socialkit/commentd/pkg/logging"
	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
	"github.com/socialkit/commentd/pkg/vault"
)

// historyLimit caps the history listing.
const historyLimit = 50

// LoginCapturer runs the interactive login flow. Satisfied by
// *browser.SessionStore.
type LoginCapturer interface {
	CaptureLogin(ctx context.Context, p platform.Platform, username string) ([]browser.Cookie, error)
}

// Deps are the collaborators the server drives.
type Deps struct {
	Accounts store.AccountRepository
	Comments store.CommentRepository
	Vault    *vault.Vault
	Poster   automation.CommentPoster
	Capturer LoginCapturer
	Log      *logging.Logger
}

// Server is the HTTP API.
type Server struct {
	deps    Deps
	batches *automation.Coordinator
	http    *http.Server
}

// New creates a server. Batch requests run through a coordinator built
// over the same posting path as single requests, so account status and
// last-used bookkeeping behave identically in both.
func New(deps Deps, pacing automation.PacingPolicy) *Server {
	s := &Server{deps: deps}
	s.batches = automation.NewCoordinator(trackedPoster{s}, pacing, deps.Log)
	return s
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.listAccounts)
			r.Post("/", s.addAccount)
			r.Delete("/{id}", s.deleteAccount)
		})
		r.Route("/comments", func(r chi.Router) {
			r.Get("/", s.history)
			r.Post("/", s.postComment)
		})
		r.Post("/batch", s.postBatch)
	})

	return r
}

// Start begins serving on addr and blocks until shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// post runs one posting action with account bookkeeping: invalid
// credentials flip the account to error status, successes stamp
// last-used.
func (s *Server) post(ctx context.Context, req automation.PostRequest) (automation.PostResult, error) {
	result, err := s.deps.Poster.Post(ctx, req)
	if err != nil {
		if errors.Is(err, browser.ErrCredentialInvalid) {
			if statusErr := s.deps.Accounts.UpdateStatus(ctx, req.AccountID, store.AccountError); statusErr != nil {
				s.logf("mark account %d error: %v", req.AccountID, statusErr)
			}
		}
		return result, err
	}
	if err := s.deps.Accounts.UpdateLastUsed(ctx, req.AccountID); err != nil {
		s.logf("stamp account %d last used: %v", req.AccountID, err)
	}
	return result, nil
}

// trackedPoster routes the batch coordinator through Server.post.
type trackedPoster struct {
	s *Server
}

func (p trackedPoster) Post(ctx context.Context, req automation.PostRequest) (automation.PostResult, error) {
	return p.s.post(ctx, req)
}

func (s *Server) logf(format string, v ...interface{}) {
	if s.deps.Log != nil {
		s.deps.Log.Warnf(format, v...)
	}
}
