// Package reporting writes step results in the Allure JSON format so
// runs can be rendered with the standard Allure report tooling.
package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"webrunner/domain/entities"
	"webrunner/domain/interfaces"
)

type allureResult struct {
	UUID          string             `json:"uuid"`
	Name          string             `json:"name"`
	Status        string             `json:"status"`
	StatusDetails *allureDetails     `json:"statusDetails,omitempty"`
	Start         int64              `json:"start"`
	Stop          int64              `json:"stop"`
	Labels        []allureLabel      `json:"labels,omitempty"`
	Attachments   []allureAttachment `json:"attachments,omitempty"`
}

type allureDetails struct {
	Message string `json:"message"`
}

type allureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type allureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureReporter - writes one result file per step into a results
// directory. Attachments recorded between steps are linked to the next
// step that completes. Write failures are logged, never surfaced:
// reporting must not break a test run.
type AllureReporter struct {
	dir    string
	logger *logrus.Logger

	mu      sync.Mutex
	pending []allureAttachment
}

func NewAllureReporter(dir string, logger *logrus.Logger) (*AllureReporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &AllureReporter{dir: dir, logger: logger}, nil
}

// Step writes a result file for a finished step, claiming any pending
// attachments recorded since the previous step.
func (r *AllureReporter) Step(event entities.StepEvent) {
	r.mu.Lock()
	attachments := r.pending
	r.pending = nil
	r.mu.Unlock()

	stop := time.Now()
	result := allureResult{
		UUID:        uuid.NewString(),
		Name:        event.Name,
		Status:      allureStatus(event.Outcome),
		Start:       stop.Add(-event.Duration).UnixMilli(),
		Stop:        stop.UnixMilli(),
		Attachments: attachments,
	}
	if event.Detail != "" {
		result.StatusDetails = &allureDetails{Message: event.Detail}
	}
	if event.Locator != "" {
		result.Labels = append(result.Labels, allureLabel{
			Name:  "locator",
			Value: event.Locator,
		})
	}

	data, err := json.Marshal(result)
	if err != nil {
		r.logger.Warnf("failed to encode allure result for %q: %v", event.Name, err)
		return
	}
	path := filepath.Join(r.dir, result.UUID+"-result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.logger.Warnf("failed to write allure result for %q: %v", event.Name, err)
	}
}

// Attach stores an attachment body and queues it for the next step.
func (r *AllureReporter) Attach(name, mediaType string, body []byte) {
	source := uuid.NewString() + "-attachment" + attachmentExt(mediaType)
	path := filepath.Join(r.dir, source)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		r.logger.Warnf("failed to write allure attachment %q: %v", name, err)
		return
	}

	r.mu.Lock()
	r.pending = append(r.pending, allureAttachment{
		Name:   name,
		Source: source,
		Type:   mediaType,
	})
	r.mu.Unlock()
}

func allureStatus(outcome entities.StepOutcome) string {
	switch outcome {
	case entities.OutcomePassed:
		return "passed"
	case entities.OutcomeFailed:
		return "failed"
	default:
		return "broken"
	}
}

func attachmentExt(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "text/plain":
		return ".txt"
	case "application/json":
		return ".json"
	default:
		return ".bin"
	}
}

// NopReporter discards every event. Useful when a run does not need a
// report directory.
type NopReporter struct{}

func (NopReporter) Step(entities.StepEvent)       {}
func (NopReporter) Attach(string, string, []byte) {}

var _ interfaces.Reporter = (*AllureReporter)(nil)
var _ interfaces.Reporter = NopReporter{}
