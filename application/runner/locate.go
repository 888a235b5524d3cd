package runner

import (
	"errors"
	"fmt"
	"time"

	"webrunner/domain/entities"
	"webrunner/domain/interfaces"
)

// Locate repeatedly queries the page for an element matching loc until
// one is present and interactable or the policy timeout elapses. Each
// attempt is a single read-only query; the calling goroutine sleeps for
// the poll interval between attempts. At least one attempt is always
// made, even with a zero timeout. Unrecoverable errors, an invalidated
// session included, surface immediately without retrying.
func Locate(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) (interfaces.Element, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	for {
		element, err := page.Find(loc)
		if err == nil {
			return element, nil
		}
		if !entities.IsRetryable(err) {
			return nil, err
		}
		if elapsed := time.Since(start); elapsed >= policy.Timeout {
			return nil, &entities.ElementNotFoundError{Locator: loc, Elapsed: elapsed}
		}
		time.Sleep(policy.PollInterval)
	}
}

// LocateAll repeatedly queries the page until at least one element
// matches loc, then returns every current match. It follows the same
// retry contract as Locate: at least one attempt, retryable errors poll
// until the deadline, anything else surfaces immediately.
func LocateAll(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) ([]interfaces.Element, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	for {
		elements, err := page.FindAll(loc)
		if err == nil {
			return elements, nil
		}
		if !entities.IsRetryable(err) {
			return nil, err
		}
		if elapsed := time.Since(start); elapsed >= policy.Timeout {
			return nil, &entities.ElementNotFoundError{Locator: loc, Elapsed: elapsed}
		}
		time.Sleep(policy.PollInterval)
	}
}

// WaitInvisible blocks until no element matching loc is visible, or the
// policy timeout elapses. An absent element counts as invisible.
func WaitInvisible(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	start := time.Now()
	for {
		element, err := page.Find(loc)

		gone := false
		switch {
		case errors.Is(err, entities.ErrElementAbsent):
			gone = true
		case err == nil || errors.Is(err, entities.ErrElementNotInteractable):
			// A present element may still be hidden; Find reports hidden
			// and disabled elements the same way, so probe visibility.
			if element != nil {
				if visible, verr := element.Visible(); verr == nil && !visible {
					gone = true
				}
			}
		default:
			return err
		}
		if gone {
			return nil
		}

		if elapsed := time.Since(start); elapsed >= policy.Timeout {
			return fmt.Errorf("element %s still visible after %s", loc, elapsed.Round(time.Millisecond))
		}
		time.Sleep(policy.PollInterval)
	}
}
