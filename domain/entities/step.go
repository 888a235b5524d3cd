package entities

import "time"

// StepOutcome classifies how a helper operation finished.
type StepOutcome string

const (
	// OutcomePassed - the operation succeeded.
	OutcomePassed StepOutcome = "passed"

	// OutcomeFailed - the element was not found before the deadline.
	OutcomeFailed StepOutcome = "failed"

	// OutcomeBroken - the operation hit an unrecoverable error, such as
	// an invalidated session.
	OutcomeBroken StepOutcome = "broken"
)

// StepEvent is the structured record emitted to the reporting sink for
// every helper operation outcome.
type StepEvent struct {
	Name     string
	Locator  string
	Duration time.Duration
	Outcome  StepOutcome
	Detail   string
}
