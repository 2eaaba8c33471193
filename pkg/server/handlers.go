package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/socialkit/commentd/pkg/automation"
	"github.com/socialkit/commentd/pkg/browser"
	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Accounts.List(r.Context())
	if err != nil {
		status, code, msg := mapCoreError(err)
		writeError(w, status, code, msg)
		return
	}

	if accounts == nil {
		accounts = []*store.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

type addAccountRequest struct {
	Platform string `json:"platform"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// addAccount runs the interactive login capture: the operator logs in
// manually in the opened browser window, and the captured cookie set
// is encrypted and persisted. The password is required by the API
// contract but never typed by the automation; login is human-driven.
func (s *Server) addAccount(w http.ResponseWriter, r *http.Request) {
	var req addAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}
	if req.Platform == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields")
		return
	}

	p, err := platform.Parse(req.Platform)
	if err != nil {
		status, code, msg := mapCoreError(err)
		writeError(w, status, code, msg)
		return
	}

	cookies, err := s.deps.Capturer.CaptureLogin(r.Context(), p, req.Username)
	if err != nil {
		status, code, msg := mapCoreError(err)
		writeError(w, status, code, msg)
		return
	}

	plaintext, err := browser.MarshalCookies(cookies)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
		return
	}
	token, err := s.deps.Vault.Encrypt(plaintext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
		return
	}

	account := &store.Account{
		Platform:         p,
		Username:         req.Username,
		EncryptedCookies: token,
		Status:           store.AccountConnected,
	}
	id, err := s.deps.Accounts.Create(r.Context(), account)
	if err != nil {
		status, code, msg := mapCoreError(err)
		writeError(w, status, code, msg)
		return
	}
	account.ID = id

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"account": account,
	})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid account id")
		return
	}

	if err := s.deps.Accounts.Delete(r.Context(), id); err != nil {
		status, code, msg := mapCoreError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Comments.Recent(r.Context(), historyLimit)
	if err != nil {
		status, code, msg := mapCoreError(err)
		writeError(w, status, code, msg)
		return
	}
	if records == nil {
		records = []*store.CommentRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type postCommentRequest struct {
	AccountID int64  `json:"accountId"`
	VideoURL  string `json:"videoUrl"`
	Comment   string `json:"comment"`
}

func (r postCommentRequest) validate() (string, bool) {
	if r.AccountID == 0 || r.VideoURL == "" || r.Comment == "" {
		return "missing required fields", false
	}
	if utf8.RuneCountInString(r.Comment) > automation.MaxCommentLength {
		return "comment too long (max 150 chars)", false
	}
	return "", true
}

func (s *Server) postComment(w http.ResponseWriter, r *http.Request) {
	var req postCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}
	if msg, ok := req.validate(); !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	account, err := s.deps.Accounts.GetByID(r.Context(), req.AccountID)
	if err != nil {
		status, code, msg := mapCoreError(err)
		writeError(w, status, code, msg)
		return
	}

	result, postErr := s.post(r.Context(), automation.PostRequest{
		AccountID: req.AccountID,
		VideoURL:  req.VideoURL,
		Comment:   req.Comment,
	})

	record := &store.CommentRecord{
		AccountID: account.ID,
		Platform:  account.Platform,
		Username:  account.Username,
		VideoURL:  req.VideoURL,
		Comment:   req.Comment,
		Status:    store.CommentPosted,
		PostedAt:  time.Now(),
	}
	if postErr != nil || !result.Success {
		record.Status = store.CommentFailed
	}
	if id, err := s.deps.Comments.Create(r.Context(), record); err != nil {
		s.logf("save comment record: %v", err)
	} else {
		record.ID = id
	}

	if postErr != nil {
		status, code, msg := mapCoreError(postErr)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"comment":   record,
		"simulated": result.Simulated,
	})
}

type batchRequest struct {
	Batch []postCommentRequest `json:"batch"`
}

func (s *Server) postBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}
	if req.Batch == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "batch array required")
		return
	}

	requests := make([]automation.PostRequest, 0, len(req.Batch))
	for i, item := range req.Batch {
		if msg, ok := item.validate(); !ok {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"item "+strconv.Itoa(i)+": "+msg)
			return
		}
		requests = append(requests, automation.PostRequest{
			AccountID: item.AccountID,
			VideoURL:  item.VideoURL,
			Comment:   item.Comment,
		})
	}

	// Resolve every referenced account once, up front. An unknown
	// account is a per-item posting failure, not a batch rejection.
	accounts := make(map[int64]*store.Account, len(requests))
	for _, pr := range requests {
		if _, ok := accounts[pr.AccountID]; ok {
			continue
		}
		account, err := s.deps.Accounts.GetByID(r.Context(), pr.AccountID)
		if err != nil {
			continue
		}
		accounts[pr.AccountID] = account
	}

	report, err := s.batches.Run(r.Context(), requests)
	if err != nil {
		// A cancelled batch still executed some items; their history
		// rows must land. The request context is the thing that was
		// cancelled, so persistence uses a fresh one.
		s.saveBatchHistory(context.Background(), accounts, report)
		status, code, msg := mapCoreError(err)
		writeError(w, status, code, msg)
		return
	}

	s.saveBatchHistory(r.Context(), accounts, report)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"results":    report.Results,
		"total":      report.Total,
		"successful": report.Successful,
		"failed":     report.Failed,
	})
}

// saveBatchHistory writes one history row per executed batch item,
// failures included. Items whose account no longer resolves have no
// username or platform to record and are skipped.
func (s *Server) saveBatchHistory(ctx context.Context, accounts map[int64]*store.Account, report automation.BatchReport) {
	for _, result := range report.Results {
		account, ok := accounts[result.Request.AccountID]
		if !ok {
			s.logf("batch history: no account %d for history row", result.Request.AccountID)
			continue
		}

		status := store.CommentPosted
		if !result.Success {
			status = store.CommentFailed
		}
		record := &store.CommentRecord{
			AccountID: account.ID,
			Platform:  account.Platform,
			Username:  account.Username,
			VideoURL:  result.Request.VideoURL,
			Comment:   result.Request.Comment,
			Status:    status,
			PostedAt:  result.PostedAt,
		}
		if _, err := s.deps.Comments.Create(ctx, record); err != nil {
			s.logf("batch history: save record: %v", err)
		}
	}
}
