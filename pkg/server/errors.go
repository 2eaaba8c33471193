package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/socialkit/commentd/pkg/automation"
	"github.com/socialkit/commentd/pkg/browser"
	"github.com/socialkit/commentd/pkg/platform"
	"github.com/socialkit/commentd/pkg/store"
)

// mapCoreError translates typed core errors into an HTTP status and a
// stable error code. Unknown errors surface as 500.
func mapCoreError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		return http.StatusNotFound, "ACCOUNT_NOT_FOUND", "account not found"
	case errors.Is(err, platform.ErrUnsupportedPlatform):
		return http.StatusBadRequest, "UNSUPPORTED_PLATFORM", "unsupported platform"
	case errors.Is(err, automation.ErrCommentTooLong):
		return http.StatusBadRequest, "COMMENT_TOO_LONG", "comment too long (max 150 chars)"
	case errors.Is(err, automation.ErrURLNotAllowed):
		return http.StatusBadRequest, "URL_NOT_ALLOWED", "target url not allowed for platform"
	case errors.Is(err, automation.ErrBatchTooLarge):
		return http.StatusBadRequest, "BATCH_TOO_LARGE", "maximum 10 comments per batch"
	case errors.Is(err, browser.ErrCredentialInvalid):
		return http.StatusUnprocessableEntity, "CREDENTIAL_INVALID", "stored credentials are invalid; reconnect the account"
	case errors.Is(err, browser.ErrLoginNotDetected):
		return http.StatusRequestTimeout, "LOGIN_NOT_DETECTED", "no session cookie detected; login may have failed"
	case errors.Is(err, browser.ErrNavigationTimeout):
		return http.StatusGatewayTimeout, "NAVIGATION_TIMEOUT", "target page did not load in time"
	case errors.Is(err, browser.ErrElementNotFound):
		return http.StatusBadGateway, "ELEMENT_NOT_FOUND", "comment form not found on target page"
	case errors.Is(err, browser.ErrSessionEstablish):
		return http.StatusBadGateway, "SESSION_ESTABLISH_FAILED", "could not establish a browser session"
	case errors.Is(err, browser.ErrEngineNotInitialized):
		return http.StatusServiceUnavailable, "ENGINE_NOT_INITIALIZED", "browser engine is not running"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "CANCELLED", "request cancelled"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal server error"
	}
}
