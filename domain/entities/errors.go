package entities

import (
	"errors"
	"fmt"
	"time"
)

// Retryable single-attempt outcomes. A page query that finds no matching
// element, or finds one that is not yet interactable, reports one of
// these; the locate loop retries them until its deadline. Adapters also
// map stale-element conditions to ErrElementAbsent, since an element
// detached mid-check is the same transient state as one not yet attached.
var (
	ErrElementAbsent          = errors.New("element not present")
	ErrElementNotInteractable = errors.New("element not interactable")
)

// ElementNotFoundError reports that the locate deadline elapsed without
// a matching interactable element appearing.
type ElementNotFoundError struct {
	Locator Locator
	Elapsed time.Duration
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %s not found after %s", e.Locator, e.Elapsed.Round(time.Millisecond))
}

// SessionInvalidError reports that the underlying page handle became
// unusable, for example because the browser or window was closed. It is
// surfaced immediately and never retried.
type SessionInvalidError struct {
	Cause error
}

func (e *SessionInvalidError) Error() string {
	return fmt.Sprintf("browser session is no longer usable: %v", e.Cause)
}

func (e *SessionInvalidError) Unwrap() error { return e.Cause }

// BrowserConfigError reports an unusable browser configuration or a
// failed browser launch.
type BrowserConfigError struct {
	Reason string
	Cause  error
}

func (e *BrowserConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return e.Reason
}

func (e *BrowserConfigError) Unwrap() error { return e.Cause }

// IsRetryable reports whether a failed query attempt may be repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrElementAbsent) || errors.Is(err, ErrElementNotInteractable)
}
