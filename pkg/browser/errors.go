package browser

import "errors"

var (
	// ErrEngineNotInitialized is returned when a session is requested
	// before Engine.Start has succeeded, or after Engine.Stop.
	ErrEngineNotInitialized = errors.New("browser: engine not initialized")

	// ErrCredentialInvalid is returned when an account's encrypted
	// credential blob cannot be turned into a usable cookie set:
	// decryption failure, malformed cookie JSON, or no session cookie
	// present. The account should surface error status.
	ErrCredentialInvalid = errors.New("browser: account credentials invalid")

	// ErrSessionEstablish is returned when the browser engine cannot
	// produce a context for an otherwise valid credential set.
	ErrSessionEstablish = errors.New("browser: failed to establish session")

	// ErrLoginNotDetected is returned when the interactive login wait
	// window closes without a session cookie appearing.
	ErrLoginNotDetected = errors.New("browser: no session cookie detected before deadline")

	// ErrNavigationTimeout is returned when a page navigation does not
	// settle within its budget.
	ErrNavigationTimeout = errors.New("browser: navigation timed out")

	// ErrElementNotFound is returned when an expected element never
	// appears; usually the page layout changed or the session is not
	// actually authenticated.
	ErrElementNotFound = errors.New("browser: element not found")
)
