package entities

import (
	"fmt"
	"time"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 1 * time.Second
)

// WaitPolicy bounds how long and how often an element lookup retries.
type WaitPolicy struct {
	// Timeout is the maximum duration to keep retrying. Zero means a
	// single attempt.
	Timeout time.Duration

	// PollInterval is the delay between attempts. Must be positive.
	PollInterval time.Duration
}

// DefaultWaitPolicy - returns the policy used when the caller has no
// specific timing requirements.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
	}
}

// Validate checks the policy preconditions.
func (p WaitPolicy) Validate() error {
	if p.Timeout < 0 {
		return fmt.Errorf("wait policy timeout must not be negative, got %s", p.Timeout)
	}
	if p.PollInterval <= 0 {
		return fmt.Errorf("wait policy poll interval must be positive, got %s", p.PollInterval)
	}
	return nil
}
