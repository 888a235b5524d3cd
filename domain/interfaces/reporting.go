package interfaces

import "webrunner/domain/entities"

// Reporter receives one event per helper operation outcome, plus optional
// binary attachments such as failure screenshots. Implementations must
// tolerate events arriving after a failed step and must never panic.
type Reporter interface {
	Step(event entities.StepEvent)
	Attach(name, mediaType string, body []byte)
}
