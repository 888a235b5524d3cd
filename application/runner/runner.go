package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"webrunner/domain/entities"
	"webrunner/domain/interfaces"
)

// Runner bundles the helper operations used by UI tests. Every operation
// takes the page handle and wait policy explicitly; the runner itself
// only carries the logger, the reporting sink and the redactor.
type Runner struct {
	logger   *logrus.Logger
	reporter interfaces.Reporter
	redactor interfaces.Redactor

	// ScreenshotDir, when set, is where named screenshots are also
	// written as PNG files next to being attached to the report.
	ScreenshotDir string
}

// NewRunner - creates a runner. reporter and redactor may be nil, in
// which case events are dropped and values are logged unmasked.
func NewRunner(logger *logrus.Logger, reporter interfaces.Reporter, redactor interfaces.Redactor) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		logger:   logger,
		reporter: reporter,
		redactor: redactor,
	}
}

// OpenSession launches a browser session via open and reports the
// outcome. The opener is typically a closure over the browser package's
// dispatcher, keeping this package free of driver imports.
func (r *Runner) OpenSession(open func() (interfaces.Session, error)) (interfaces.Session, error) {
	start := time.Now()
	session, err := open()
	if err == nil {
		r.logger.Info("browser session opened")
	} else {
		r.logger.Errorf("failed to open browser session: %v", err)
	}
	r.step(entities.StepEvent{
		Name:     "open session",
		Duration: time.Since(start),
		Outcome:  outcomeOf(err),
		Detail:   detailOf(err),
	})
	return session, err
}

// Find locates an element and reports the outcome.
func (r *Runner) Find(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) (interfaces.Element, error) {
	start := time.Now()
	element, err := Locate(page, loc, policy)
	r.finish(page, "find", loc.String(), start, err)
	return element, err
}

// Click locates the element, scrolls it into view and clicks it.
func (r *Runner) Click(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) error {
	start := time.Now()
	err := r.withElement(page, loc, policy, func(el interfaces.Element) error {
		if serr := el.ScrollIntoView(); serr != nil {
			r.logger.Warnf("failed to scroll to %s: %v", loc, serr)
		}
		return el.Click()
	})
	r.finish(page, "click", loc.String(), start, err)
	return err
}

// Type locates the element, clears it and types text into it. Values
// typed into secret-looking targets are masked in the log.
func (r *Runner) Type(page interfaces.Page, loc entities.Locator, text string, policy entities.WaitPolicy) error {
	start := time.Now()
	err := r.withElement(page, loc, policy, func(el interfaces.Element) error {
		return el.Fill(text)
	})

	shown := text
	if r.redactor != nil {
		shown = r.redactor.Mask(loc.String(), text)
	}
	if err == nil {
		r.logger.Infof("typed %q into %s", shown, loc)
	}
	r.finish(page, "type", loc.String(), start, err)
	return err
}

// SelectByValue selects a dropdown option by its value attribute.
func (r *Runner) SelectByValue(page interfaces.Page, loc entities.Locator, value string, policy entities.WaitPolicy) error {
	start := time.Now()
	err := r.withElement(page, loc, policy, func(el interfaces.Element) error {
		return el.SelectByValue(value)
	})
	r.finish(page, "select by value", loc.String(), start, err)
	return err
}

// SelectByText selects a dropdown option by its visible text.
func (r *Runner) SelectByText(page interfaces.Page, loc entities.Locator, text string, policy entities.WaitPolicy) error {
	start := time.Now()
	err := r.withElement(page, loc, policy, func(el interfaces.Element) error {
		return el.SelectByText(text)
	})
	r.finish(page, "select by text", loc.String(), start, err)
	return err
}

// SelectByIndex selects a dropdown option by its position.
func (r *Runner) SelectByIndex(page interfaces.Page, loc entities.Locator, index int, policy entities.WaitPolicy) error {
	start := time.Now()
	err := r.withElement(page, loc, policy, func(el interfaces.Element) error {
		return el.SelectByIndex(index)
	})
	r.finish(page, "select by index", loc.String(), start, err)
	return err
}

// FindAll locates every element currently matching loc, waiting for at
// least one to appear, and reports the outcome.
func (r *Runner) FindAll(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) ([]interfaces.Element, error) {
	start := time.Now()
	elements, err := LocateAll(page, loc, policy)
	r.finish(page, "find all", loc.String(), start, err)
	return elements, err
}

// DragAndDrop locates source and target, then drags source onto target.
func (r *Runner) DragAndDrop(page interfaces.Page, source, target entities.Locator, policy entities.WaitPolicy) error {
	start := time.Now()
	err := func() error {
		src, err := Locate(page, source, policy)
		if err != nil {
			return err
		}
		dst, err := Locate(page, target, policy)
		if err != nil {
			return err
		}
		if serr := src.ScrollIntoView(); serr != nil {
			r.logger.Warnf("failed to scroll to %s: %v", source, serr)
		}
		return src.DragTo(dst)
	}()
	r.finish(page, "drag and drop", source.String()+" onto "+target.String(), start, err)
	return err
}

// Hover moves the pointer over the located element.
func (r *Runner) Hover(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) error {
	start := time.Now()
	err := r.withElement(page, loc, policy, func(el interfaces.Element) error {
		return el.Hover()
	})
	r.finish(page, "hover", loc.String(), start, err)
	return err
}

// Upload sends a local file to the located file input.
func (r *Runner) Upload(page interfaces.Page, loc entities.Locator, path string, policy entities.WaitPolicy) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve upload path: %w", err)
	}
	start := time.Now()
	err = r.withElement(page, loc, policy, func(el interfaces.Element) error {
		return el.Upload(abs)
	})
	r.finish(page, "upload", loc.String(), start, err)
	return err
}

// Text returns the rendered text of the located element.
func (r *Runner) Text(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) (string, error) {
	start := time.Now()
	var text string
	err := r.withElement(page, loc, policy, func(el interfaces.Element) error {
		var terr error
		text, terr = el.Text()
		return terr
	})
	r.finish(page, "read text", loc.String(), start, err)
	return text, err
}

// Attribute returns the named attribute of the located element.
func (r *Runner) Attribute(page interfaces.Page, loc entities.Locator, name string, policy entities.WaitPolicy) (string, error) {
	start := time.Now()
	var value string
	err := r.withElement(page, loc, policy, func(el interfaces.Element) error {
		var aerr error
		value, aerr = el.Attribute(name)
		return aerr
	})
	r.finish(page, "read attribute "+name, loc.String(), start, err)
	return value, err
}

// Visible makes a single query attempt and reports whether a matching
// interactable element is currently on the page.
func (r *Runner) Visible(page interfaces.Page, loc entities.Locator) (bool, error) {
	_, err := page.Find(loc)
	if err == nil {
		return true, nil
	}
	if entities.IsRetryable(err) {
		return false, nil
	}
	return false, err
}

// WaitInvisible blocks until no matching element is visible.
func (r *Runner) WaitInvisible(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) error {
	start := time.Now()
	err := WaitInvisible(page, loc, policy)
	r.finish(page, "wait invisible", loc.String(), start, err)
	return err
}

// Navigate loads the given URL in the page.
func (r *Runner) Navigate(page interfaces.Page, url string) error {
	start := time.Now()
	err := page.Navigate(url)
	if err == nil {
		r.logger.Infof("navigated to %s", url)
	} else {
		r.logger.Errorf("failed to navigate to %s: %v", url, err)
	}
	r.step(entities.StepEvent{
		Name:     "navigate " + url,
		Duration: time.Since(start),
		Outcome:  outcomeOf(err),
		Detail:   detailOf(err),
	})
	return err
}

// Screenshot captures the page, attaches it to the report and, when a
// screenshot directory is configured, writes it there as <name>.png.
func (r *Runner) Screenshot(page interfaces.Page, name string) ([]byte, error) {
	data, err := page.Screenshot()
	if err != nil {
		r.logger.Errorf("failed to take screenshot %q: %v", name, err)
		return nil, err
	}
	if r.reporter != nil {
		r.reporter.Attach(name, "image/png", data)
	}
	if r.ScreenshotDir != "" {
		path := filepath.Join(r.ScreenshotDir, name+".png")
		if werr := os.MkdirAll(r.ScreenshotDir, 0o755); werr != nil {
			r.logger.Warnf("failed to create screenshot directory %s: %v", r.ScreenshotDir, werr)
		} else if werr := os.WriteFile(path, data, 0o644); werr != nil {
			r.logger.Warnf("failed to save screenshot to %s: %v", path, werr)
		} else {
			r.logger.Infof("screenshot saved: %s", path)
		}
	}
	return data, nil
}

// ShowBanner renders a small overlay with the message in the corner of
// the page, so a watching human can follow the run.
func (r *Runner) ShowBanner(page interfaces.Page, message string) {
	script := fmt.Sprintf(`(function() {
		let banner = document.getElementById('webrunner-banner');
		if (!banner) {
			banner = document.createElement('div');
			banner.id = 'webrunner-banner';
			banner.style.cssText = 'position:fixed;top:10px;left:10px;padding:10px;' +
				'background:rgba(0,0,0,0.7);color:#fff;font-size:14px;z-index:9999;border-radius:8px;';
			document.body.appendChild(banner);
		}
		banner.innerText = %s;
		return true;
	})()`, strconv.Quote(message))

	if _, err := page.Eval(script); err != nil {
		r.logger.Debugf("failed to show banner: %v", err)
	}
}

// StoreCoordinates locates the element and persists its viewport-relative
// center under key, for later coordinate-based clicks.
func (r *Runner) StoreCoordinates(page interfaces.Page, loc entities.Locator, key string, store interfaces.CoordinateStore, policy entities.WaitPolicy) error {
	start := time.Now()
	err := func() error {
		element, err := Locate(page, loc, policy)
		if err != nil {
			return err
		}
		if serr := element.ScrollIntoView(); serr != nil {
			r.logger.Warnf("failed to scroll to %s: %v", loc, serr)
		}

		x, y, err := element.Center()
		if err != nil {
			return fmt.Errorf("failed to measure %s: %w", loc, err)
		}
		width, height, err := viewportSize(page)
		if err != nil {
			return err
		}
		if err := store.Save(key, x/width, y/height); err != nil {
			return fmt.Errorf("failed to store coordinates for %q: %w", key, err)
		}
		return nil
	}()
	r.finish(page, "store coordinates "+key, loc.String(), start, err)
	return err
}

// ClickStored clicks whatever element currently sits at the coordinates
// previously stored under key.
func (r *Runner) ClickStored(page interfaces.Page, key string, store interfaces.CoordinateStore) error {
	start := time.Now()
	err := func() error {
		fx, fy, err := store.Load(key)
		if err != nil {
			return err
		}
		width, height, err := viewportSize(page)
		if err != nil {
			return err
		}

		script := fmt.Sprintf(`(function() {
			var el = document.elementFromPoint(%d, %d);
			if (!el) { return false; }
			el.click();
			return true;
		})()`, int(fx*width), int(fy*height))

		result, err := page.Eval(script)
		if err != nil {
			return fmt.Errorf("failed to click stored coordinates %q: %w", key, err)
		}
		if clicked, ok := result.(bool); !ok || !clicked {
			return fmt.Errorf("no element at stored coordinates %q", key)
		}
		return nil
	}()
	r.finish(page, "click stored coordinates", key, start, err)
	return err
}

// TearDown closes the browser session and reports the outcome.
func (r *Runner) TearDown(session interfaces.Session) error {
	start := time.Now()
	err := session.Close()
	if err == nil {
		r.logger.Info("browser closed")
	} else {
		r.logger.Errorf("failed to close browser: %v", err)
	}
	r.step(entities.StepEvent{
		Name:     "tear down",
		Duration: time.Since(start),
		Outcome:  outcomeOf(err),
		Detail:   detailOf(err),
	})
	return err
}

func (r *Runner) withElement(page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy, fn func(interfaces.Element) error) error {
	element, err := Locate(page, loc, policy)
	if err != nil {
		return err
	}
	return fn(element)
}

// finish logs the operation, captures failure diagnostics and emits the
// step event. Attachments are written before the event so file-based
// reporters can associate them with it.
func (r *Runner) finish(page interfaces.Page, name, locator string, start time.Time, err error) {
	elapsed := time.Since(start)
	if err == nil {
		r.logger.Infof("%s %s", name, locator)
	} else {
		r.logger.Errorf("%s %s failed: %v", name, locator, err)
		r.captureFailure(page, name, err)
	}
	r.step(entities.StepEvent{
		Name:     name,
		Locator:  locator,
		Duration: elapsed,
		Outcome:  outcomeOf(err),
		Detail:   detailOf(err),
	})
}

func (r *Runner) captureFailure(page interfaces.Page, name string, err error) {
	if r.reporter != nil {
		if shot, serr := page.Screenshot(); serr == nil {
			r.reporter.Attach("failure: "+name, "image/png", shot)
		}
	}

	var notFound *entities.ElementNotFoundError
	if !errors.As(err, &notFound) {
		return
	}
	info, ierr := page.Info()
	if ierr != nil || info == nil {
		return
	}
	available := make([]string, 0, 10)
	for _, el := range info.Elements {
		if !el.IsVisible {
			continue
		}
		available = append(available, fmt.Sprintf("%s (%s)", el.Selector, el.TagName))
		if len(available) == 10 {
			break
		}
	}
	if len(available) > 0 {
		r.logger.Infof("elements available on %s: %s", info.URL, strings.Join(available, ", "))
	}
}

func (r *Runner) step(event entities.StepEvent) {
	if r.reporter != nil {
		r.reporter.Step(event)
	}
}

func outcomeOf(err error) entities.StepOutcome {
	var notFound *entities.ElementNotFoundError
	switch {
	case err == nil:
		return entities.OutcomePassed
	case errors.As(err, &notFound):
		return entities.OutcomeFailed
	default:
		return entities.OutcomeBroken
	}
}

func detailOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func viewportSize(page interfaces.Page) (width, height float64, err error) {
	result, err := page.Eval(`(function() { return [window.innerWidth, window.innerHeight]; })()`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read viewport size: %w", err)
	}
	pair, ok := result.([]interface{})
	if !ok || len(pair) != 2 {
		return 0, 0, fmt.Errorf("unexpected viewport size result: %v", result)
	}
	width, wok := toFloat(pair[0])
	height, hok := toFloat(pair[1])
	if !wok || !hok || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("unexpected viewport size result: %v", result)
	}
	return width, height, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	}
	return 0, false
}
