package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"webrunner/domain/entities"
	"webrunner/domain/interfaces"
)

// recordingReporter captures step events and attachments in order.
type recordingReporter struct {
	steps       []entities.StepEvent
	attachments []recordedAttachment
}

type recordedAttachment struct {
	name      string
	mediaType string
	body      []byte
}

func (r *recordingReporter) Step(event entities.StepEvent) {
	r.steps = append(r.steps, event)
}

func (r *recordingReporter) Attach(name, mediaType string, body []byte) {
	r.attachments = append(r.attachments, recordedAttachment{name, mediaType, body})
}

// maskEverything masks any value regardless of target.
type maskEverything struct{}

func (maskEverything) Mask(_, _ string) string { return "******" }

type fakeSession struct {
	page     *fakePage
	closed   bool
	closeErr error
}

func (s *fakeSession) Page() interfaces.Page    { return s.page }
func (s *fakeSession) OpenTab(string) error     { return nil }
func (s *fakeSession) SwitchToWindow(int) error { return nil }
func (s *fakeSession) CloseWindow(int) error    { return nil }
func (s *fakeSession) WindowCount() int         { return 1 }
func (s *fakeSession) Close() error {
	s.closed = true
	return s.closeErr
}

func quickPolicy() entities.WaitPolicy {
	return entities.WaitPolicy{
		Timeout:      50 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}
}

func TestRunnerClickReportsPassedStep(t *testing.T) {
	element := &fakeElement{visible: true, enabled: true}
	page := &fakePage{findResults: []findResult{{element: element}}}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	err := r.Click(page, entities.ID("submit"), quickPolicy())
	require.NoError(t, err)
	require.Equal(t, 1, element.clicks)

	require.Len(t, reporter.steps, 1)
	step := reporter.steps[0]
	require.Equal(t, "click", step.Name)
	require.Equal(t, `id="submit"`, step.Locator)
	require.Equal(t, entities.OutcomePassed, step.Outcome)
	require.Empty(t, step.Detail)
	require.Empty(t, reporter.attachments)
}

func TestRunnerClickNotFoundReportsFailureWithScreenshot(t *testing.T) {
	loc := entities.ID("missing")
	page := &fakePage{
		findResults: []findResult{{err: absent(loc)}},
		shot:        []byte("png-bytes"),
		info: &entities.PageInfo{
			URL: "https://example.com/login",
			Elements: []entities.PageElement{
				{TagName: "button", Selector: "#other", IsVisible: true},
			},
		},
	}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	err := r.Click(page, loc, entities.WaitPolicy{Timeout: 0, PollInterval: time.Millisecond})

	var notFound *entities.ElementNotFoundError
	require.ErrorAs(t, err, &notFound)

	require.Len(t, reporter.steps, 1)
	require.Equal(t, entities.OutcomeFailed, reporter.steps[0].Outcome)
	require.Contains(t, reporter.steps[0].Detail, "not found")

	require.Len(t, reporter.attachments, 1)
	require.Equal(t, "failure: click", reporter.attachments[0].name)
	require.Equal(t, "image/png", reporter.attachments[0].mediaType)
	require.Equal(t, []byte("png-bytes"), reporter.attachments[0].body)
}

func TestRunnerSessionErrorReportsBrokenStep(t *testing.T) {
	page := &fakePage{
		findResults: []findResult{
			{err: &entities.SessionInvalidError{Cause: fmt.Errorf("browser closed")}},
		},
	}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	err := r.Click(page, entities.ID("x"), quickPolicy())
	require.Error(t, err)

	require.Len(t, reporter.steps, 1)
	require.Equal(t, entities.OutcomeBroken, reporter.steps[0].Outcome)
}

func TestRunnerTypeFillsElement(t *testing.T) {
	element := &fakeElement{visible: true, enabled: true}
	page := &fakePage{findResults: []findResult{{element: element}}}
	r := NewRunner(newNullLogger(), &recordingReporter{}, nil)

	err := r.Type(page, entities.Name("email"), "user@example.com", quickPolicy())
	require.NoError(t, err)
	require.Equal(t, "user@example.com", element.filled)
}

func TestRunnerTypeMasksSecretsInLog(t *testing.T) {
	element := &fakeElement{visible: true, enabled: true}
	page := &fakePage{findResults: []findResult{{element: element}}}
	logger, hook := logtest.NewNullLogger()
	r := NewRunner(logger, nil, maskEverything{})

	err := r.Type(page, entities.ID("password"), "hunter2", quickPolicy())
	require.NoError(t, err)
	// The element still receives the real value.
	require.Equal(t, "hunter2", element.filled)

	var typedLine string
	for _, entry := range hook.AllEntries() {
		if strings.Contains(entry.Message, "typed") {
			typedLine = entry.Message
		}
	}
	require.NotEmpty(t, typedLine)
	require.NotContains(t, typedLine, "hunter2")
	require.Contains(t, typedLine, "******")
}

func TestRunnerDragAndDropReportsStep(t *testing.T) {
	source := &fakeElement{visible: true, enabled: true}
	target := &fakeElement{visible: true, enabled: true}
	page := &fakePage{findResults: []findResult{
		{element: source},
		{element: target},
	}}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	err := r.DragAndDrop(page, entities.ID("card"), entities.ID("column"), quickPolicy())
	require.NoError(t, err)
	require.Same(t, target, source.draggedTo)

	require.Len(t, reporter.steps, 1)
	step := reporter.steps[0]
	require.Equal(t, "drag and drop", step.Name)
	require.Equal(t, `id="card" onto id="column"`, step.Locator)
	require.Equal(t, entities.OutcomePassed, step.Outcome)
}

func TestRunnerDragAndDropMissingTargetFails(t *testing.T) {
	source := &fakeElement{visible: true, enabled: true}
	targetLoc := entities.ID("column")
	page := &fakePage{
		findResults: []findResult{
			{element: source},
			{err: absent(targetLoc)},
		},
	}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	err := r.DragAndDrop(page, entities.ID("card"), targetLoc,
		entities.WaitPolicy{Timeout: 0, PollInterval: time.Millisecond})

	var notFound *entities.ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Nil(t, source.draggedTo)

	require.Len(t, reporter.steps, 1)
	require.Equal(t, entities.OutcomeFailed, reporter.steps[0].Outcome)
}

func TestRunnerFindAllReportsStep(t *testing.T) {
	page := &fakePage{findAllResults: []findAllResult{
		{elements: []interfaces.Element{
			&fakeElement{visible: true, enabled: true},
			&fakeElement{visible: true, enabled: true},
		}},
	}}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	elements, err := r.FindAll(page, entities.ClassName("row"), quickPolicy())
	require.NoError(t, err)
	require.Len(t, elements, 2)

	require.Len(t, reporter.steps, 1)
	require.Equal(t, "find all", reporter.steps[0].Name)
	require.Equal(t, entities.OutcomePassed, reporter.steps[0].Outcome)
}

func TestRunnerVisibleSingleAttempt(t *testing.T) {
	loc := entities.ID("maybe")
	r := NewRunner(newNullLogger(), nil, nil)

	page := &fakePage{findResults: []findResult{{element: &fakeElement{visible: true, enabled: true}}}}
	visible, err := r.Visible(page, loc)
	require.NoError(t, err)
	require.True(t, visible)
	require.Equal(t, 1, page.attempts)

	page = &fakePage{findResults: []findResult{{err: absent(loc)}}}
	visible, err = r.Visible(page, loc)
	require.NoError(t, err)
	require.False(t, visible)
	require.Equal(t, 1, page.attempts)

	page = &fakePage{findResults: []findResult{
		{err: &entities.SessionInvalidError{Cause: fmt.Errorf("gone")}},
	}}
	_, err = r.Visible(page, loc)
	var invalid *entities.SessionInvalidError
	require.ErrorAs(t, err, &invalid)
}

func TestRunnerTextReturnsElementText(t *testing.T) {
	element := &fakeElement{visible: true, enabled: true, text: "Welcome back"}
	page := &fakePage{findResults: []findResult{{element: element}}}
	r := NewRunner(newNullLogger(), nil, nil)

	text, err := r.Text(page, entities.CSS("h1"), quickPolicy())
	require.NoError(t, err)
	require.Equal(t, "Welcome back", text)
}

func TestRunnerNavigateReportsStep(t *testing.T) {
	page := &fakePage{findResults: []findResult{{element: &fakeElement{}}}}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	err := r.Navigate(page, "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "https://example.com", page.url)

	require.Len(t, reporter.steps, 1)
	require.Equal(t, "navigate https://example.com", reporter.steps[0].Name)
	require.Equal(t, entities.OutcomePassed, reporter.steps[0].Outcome)
}

func TestRunnerScreenshotAttachesToReport(t *testing.T) {
	page := &fakePage{
		findResults: []findResult{{element: &fakeElement{}}},
		shot:        []byte("png-bytes"),
	}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	data, err := r.Screenshot(page, "after-login")
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)

	require.Len(t, reporter.attachments, 1)
	require.Equal(t, "after-login", reporter.attachments[0].name)
	require.Equal(t, "image/png", reporter.attachments[0].mediaType)
}

func TestRunnerScreenshotCreatesDirectory(t *testing.T) {
	page := &fakePage{
		findResults: []findResult{{element: &fakeElement{}}},
		shot:        []byte("png-bytes"),
	}
	r := NewRunner(newNullLogger(), nil, nil)
	r.ScreenshotDir = filepath.Join(t.TempDir(), "screenshots", "run-1")

	_, err := r.Screenshot(page, "after-login")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(r.ScreenshotDir, "after-login.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)
}

func TestRunnerOpenSessionReportsOutcome(t *testing.T) {
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	want := &fakeSession{}
	session, err := r.OpenSession(func() (interfaces.Session, error) {
		return want, nil
	})
	require.NoError(t, err)
	require.Same(t, want, session)

	_, err = r.OpenSession(func() (interfaces.Session, error) {
		return nil, &entities.BrowserConfigError{Reason: "unsupported browser: opera"}
	})
	require.Error(t, err)

	require.Len(t, reporter.steps, 2)
	require.Equal(t, "open session", reporter.steps[0].Name)
	require.Equal(t, entities.OutcomePassed, reporter.steps[0].Outcome)
	require.Equal(t, entities.OutcomeBroken, reporter.steps[1].Outcome)
}

func TestRunnerTearDownClosesSessionAndReports(t *testing.T) {
	session := &fakeSession{page: &fakePage{findResults: []findResult{{element: &fakeElement{}}}}}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	err := r.TearDown(session)
	require.NoError(t, err)
	require.True(t, session.closed)

	require.Len(t, reporter.steps, 1)
	require.Equal(t, "tear down", reporter.steps[0].Name)
	require.Equal(t, entities.OutcomePassed, reporter.steps[0].Outcome)
}

func TestRunnerStoreAndClickCoordinates(t *testing.T) {
	element := &fakeElement{visible: true, enabled: true}
	page := &fakePage{
		findResults: []findResult{{element: element}},
		evalResult:  []interface{}{float64(1000), float64(500)},
	}
	store := &memoryStore{points: map[string][2]float64{}}
	reporter := &recordingReporter{}
	r := NewRunner(newNullLogger(), reporter, nil)

	err := r.StoreCoordinates(page, entities.ID("target"), "checkout", store, quickPolicy())
	require.NoError(t, err)
	// fakeElement center is (100, 50) on a 1000x500 viewport.
	require.InDelta(t, 0.1, store.points["checkout"][0], 1e-9)
	require.InDelta(t, 0.1, store.points["checkout"][1], 1e-9)

	// The fake answers every Eval with the viewport pair, so the click
	// script reports no element at the point.
	err = r.ClickStored(page, "checkout", store)
	require.ErrorContains(t, err, "no element at stored coordinates")

	// Both operations report a step, failure included.
	require.Len(t, reporter.steps, 2)
	require.Equal(t, "store coordinates checkout", reporter.steps[0].Name)
	require.Equal(t, entities.OutcomePassed, reporter.steps[0].Outcome)
	require.Equal(t, "click stored coordinates", reporter.steps[1].Name)
	require.Equal(t, "checkout", reporter.steps[1].Locator)
	require.Equal(t, entities.OutcomeBroken, reporter.steps[1].Outcome)
}

type memoryStore struct {
	points map[string][2]float64
}

func (s *memoryStore) Save(key string, x, y float64) error {
	s.points[key] = [2]float64{x, y}
	return nil
}

func (s *memoryStore) Load(key string) (float64, float64, error) {
	p, ok := s.points[key]
	if !ok {
		return 0, 0, fmt.Errorf("no coordinates saved under %q", key)
	}
	return p[0], p[1], nil
}

func TestRandomStringIsUniqueAndPrefixed(t *testing.T) {
	a := RandomString("user", 4)
	b := RandomString("user", 4)
	require.True(t, strings.HasPrefix(a, "user"))
	require.True(t, strings.HasPrefix(b, "user"))
	require.NotEqual(t, a, b)
	require.Greater(t, len(a), len("user"))
}

func TestRandomEmailUsesDomain(t *testing.T) {
	email := RandomEmail("qa", "example.org")
	require.True(t, strings.HasPrefix(email, "qa-"))
	require.True(t, strings.HasSuffix(email, "@example.org"))

	fallback := RandomEmail("", "")
	require.Contains(t, fallback, "@example.com")
}

func newNullLogger() *logrus.Logger {
	logger, _ := logtest.NewNullLogger()
	return logger
}
