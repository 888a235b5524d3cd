package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"webrunner/domain/entities"
	"webrunner/domain/interfaces"
)

const defaultDebuggerAddress = "localhost:9221"

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	logger  *logrus.Logger

	mu      sync.Mutex
	pages   []playwright.Page
	current playwright.Page
}

// NewPlaywrightSession - launches a browser through playwright.
func NewPlaywrightSession(cfg entities.BrowserConfig, logger *logrus.Logger) (interfaces.Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browserHandle, err := launchPlaywrightBrowser(pw, cfg)
	if err != nil {
		pw.Stop()
		return nil, err
	}

	width := cfg.WindowWidth
	height := cfg.WindowHeight
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}

	var context playwright.BrowserContext
	if contexts := browserHandle.Contexts(); cfg.Kind == entities.ChromeDebug && len(contexts) > 0 {
		context = contexts[0]
	} else {
		context, err = browserHandle.NewContext(playwright.BrowserNewContextOptions{
			Viewport: &playwright.Size{
				Width:  width,
				Height: height,
			},
			AcceptDownloads: playwright.Bool(true),
		})
		if err != nil {
			browserHandle.Close()
			pw.Stop()
			return nil, fmt.Errorf("failed to create context: %w", err)
		}
	}

	page, err := context.NewPage()
	if err != nil {
		browserHandle.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	session := &playwrightSession{
		pw:      pw,
		browser: browserHandle,
		context: context,
		logger:  logger,
		pages:   []playwright.Page{page},
		current: page,
	}
	session.watchPage(page)
	context.OnPage(func(newPage playwright.Page) {
		session.mu.Lock()
		session.pages = append(session.pages, newPage)
		session.current = newPage
		session.mu.Unlock()
		session.watchPage(newPage)
	})

	return session, nil
}

func launchPlaywrightBrowser(pw *playwright.Playwright, cfg entities.BrowserConfig) (playwright.Browser, error) {
	options := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Kind.Headless()),
	}
	if cfg.DownloadDir != "" {
		if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create download directory: %w", err)
		}
		options.DownloadsPath = playwright.String(cfg.DownloadDir)
	}

	switch cfg.Kind {
	case entities.Chrome, entities.ChromeHeadless:
		options.Args = []string{
			"--no-sandbox",
			"--disable-gpu",
			"--disable-dev-shm-usage",
		}
		browserHandle, err := pw.Chromium.Launch(options)
		if err != nil {
			return nil, &entities.BrowserConfigError{Reason: "browser launch failed", Cause: err}
		}
		return browserHandle, nil

	case entities.ChromeDebug:
		address := cfg.DebuggerAddress
		if address == "" {
			address = defaultDebuggerAddress
		}
		browserHandle, err := pw.Chromium.ConnectOverCDP("http://" + address)
		if err != nil {
			return nil, &entities.BrowserConfigError{Reason: fmt.Sprintf("failed to attach to debugger at %s", address), Cause: err}
		}
		return browserHandle, nil

	case entities.Firefox, entities.FirefoxHeadless:
		browserHandle, err := pw.Firefox.Launch(options)
		if err != nil {
			return nil, &entities.BrowserConfigError{Reason: "browser launch failed", Cause: err}
		}
		return browserHandle, nil

	case entities.Safari:
		browserHandle, err := pw.WebKit.Launch(options)
		if err != nil {
			return nil, &entities.BrowserConfigError{Reason: "browser launch failed", Cause: err}
		}
		return browserHandle, nil
	}
	return nil, &entities.BrowserConfigError{Reason: fmt.Sprintf("unsupported browser: %s", cfg.Kind)}
}

func (s *playwrightSession) watchPage(page playwright.Page) {
	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Accept()
	})
	page.OnClose(func(closed playwright.Page) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, p := range s.pages {
			if p == closed {
				s.pages = append(s.pages[:i], s.pages[i+1:]...)
				break
			}
		}
		if s.current == closed && len(s.pages) > 0 {
			s.current = s.pages[0]
		}
	})
}

func (s *playwrightSession) Page() interfaces.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &playwrightPage{page: s.current}
}

func (s *playwrightSession) OpenTab(url string) error {
	newPage, err := s.context.NewPage()
	if err != nil {
		return classifyPlaywrightErr(fmt.Errorf("failed to open tab: %w", err))
	}
	// OnPage already registered the page and made it current.
	if url != "" {
		if _, err := newPage.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		}); err != nil {
			return fmt.Errorf("failed to navigate new tab to %s: %w", url, err)
		}
	}
	return nil
}

func (s *playwrightSession) SwitchToWindow(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("invalid window index %d (open windows: %d)", index, len(s.pages))
	}
	s.current = s.pages[index]
	return nil
}

func (s *playwrightSession) CloseWindow(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.pages) {
		count := len(s.pages)
		s.mu.Unlock()
		return fmt.Errorf("invalid window index %d (open windows: %d)", index, count)
	}
	page := s.pages[index]
	s.mu.Unlock()

	// OnClose trims the page list.
	return page.Close()
}

func (s *playwrightSession) WindowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

func (s *playwrightSession) Close() error {
	var closeErr error
	if s.context != nil {
		if err := s.context.Close(); err != nil && !alreadyClosed(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && !alreadyClosed(err) && closeErr == nil {
			closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	return closeErr
}

func alreadyClosed(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "Target closed")
}

type playwrightPage struct {
	page playwright.Page
}

// probeTimeoutMS bounds the interactability probes so a Find stays a
// single short attempt rather than inheriting playwright's auto-wait.
const probeTimeoutMS = 1000.0

func (p *playwrightPage) Find(loc entities.Locator) (interfaces.Element, error) {
	selector, err := playwrightSelector(loc)
	if err != nil {
		return nil, err
	}

	matches := p.page.Locator(selector)
	count, err := matches.Count()
	if err != nil {
		return nil, classifyPlaywrightErr(err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%s: %w", loc, entities.ErrElementAbsent)
	}

	first := matches.First()
	element := &playwrightElement{locator: first}

	visible, err := first.IsVisible()
	if err != nil {
		return nil, classifyPlaywrightErr(err)
	}
	enabled := true
	if visible {
		enabled, err = first.IsEnabled(playwright.LocatorIsEnabledOptions{
			Timeout: playwright.Float(probeTimeoutMS),
		})
		if err != nil {
			return nil, classifyPlaywrightErr(err)
		}
	}
	if !visible || !enabled {
		return element, fmt.Errorf("%s: %w", loc, entities.ErrElementNotInteractable)
	}
	return element, nil
}

func (p *playwrightPage) FindAll(loc entities.Locator) ([]interfaces.Element, error) {
	selector, err := playwrightSelector(loc)
	if err != nil {
		return nil, err
	}

	matches, err := p.page.Locator(selector).All()
	if err != nil {
		return nil, classifyPlaywrightErr(err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, entities.ErrElementAbsent)
	}

	elements := make([]interfaces.Element, 0, len(matches))
	for _, match := range matches {
		elements = append(elements, &playwrightElement{locator: match})
	}
	return elements, nil
}

func (p *playwrightPage) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return classifyPlaywrightErr(fmt.Errorf("failed to navigate to %s: %w", url, err))
	}
	return nil
}

func (p *playwrightPage) URL() (string, error) {
	return p.page.URL(), nil
}

func (p *playwrightPage) Title() (string, error) {
	title, err := p.page.Title()
	if err != nil {
		return "", classifyPlaywrightErr(err)
	}
	return title, nil
}

func (p *playwrightPage) Eval(script string) (interface{}, error) {
	result, err := p.page.Evaluate(script)
	if err != nil {
		return nil, classifyPlaywrightErr(err)
	}
	return result, nil
}

func (p *playwrightPage) Screenshot() ([]byte, error) {
	data, err := p.page.Screenshot()
	if err != nil {
		return nil, classifyPlaywrightErr(err)
	}
	return data, nil
}

func (p *playwrightPage) Info() (*entities.PageInfo, error) {
	raw, err := p.Eval(collectElementsScript)
	if err != nil {
		return nil, err
	}
	elements, err := parseElements(raw)
	if err != nil {
		return nil, err
	}
	title, _ := p.page.Title()
	return &entities.PageInfo{
		URL:      p.page.URL(),
		Title:    title,
		Elements: elements,
	}, nil
}

type playwrightElement struct {
	locator playwright.Locator
}

func (e *playwrightElement) Click() error {
	return classifyPlaywrightErr(e.locator.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(probeTimeoutMS),
	}))
}

func (e *playwrightElement) Fill(text string) error {
	return classifyPlaywrightErr(e.locator.Fill(text))
}

func (e *playwrightElement) SendKeys(text string) error {
	return classifyPlaywrightErr(e.locator.PressSequentially(text))
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.locator.InnerText()
	if err != nil {
		return "", classifyPlaywrightErr(err)
	}
	return text, nil
}

func (e *playwrightElement) Attribute(name string) (string, error) {
	value, err := e.locator.GetAttribute(name)
	if err != nil {
		return "", classifyPlaywrightErr(err)
	}
	return value, nil
}

func (e *playwrightElement) Visible() (bool, error) {
	visible, err := e.locator.IsVisible()
	if err != nil {
		return false, classifyPlaywrightErr(err)
	}
	return visible, nil
}

func (e *playwrightElement) Enabled() (bool, error) {
	enabled, err := e.locator.IsEnabled(playwright.LocatorIsEnabledOptions{
		Timeout: playwright.Float(probeTimeoutMS),
	})
	if err != nil {
		return false, classifyPlaywrightErr(err)
	}
	return enabled, nil
}

func (e *playwrightElement) Hover() error {
	return classifyPlaywrightErr(e.locator.Hover())
}

func (e *playwrightElement) ScrollIntoView() error {
	return classifyPlaywrightErr(e.locator.ScrollIntoViewIfNeeded())
}

func (e *playwrightElement) DragTo(target interfaces.Element) error {
	dest, ok := target.(*playwrightElement)
	if !ok {
		return fmt.Errorf("drag target is not a playwright element")
	}
	return classifyPlaywrightErr(e.locator.DragTo(dest.locator))
}

func (e *playwrightElement) SelectByValue(value string) error {
	_, err := e.locator.SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	})
	return classifyPlaywrightErr(err)
}

func (e *playwrightElement) SelectByText(text string) error {
	_, err := e.locator.SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{text},
	})
	return classifyPlaywrightErr(err)
}

func (e *playwrightElement) SelectByIndex(index int) error {
	_, err := e.locator.SelectOption(playwright.SelectOptionValues{
		Indexes: &[]int{index},
	})
	return classifyPlaywrightErr(err)
}

func (e *playwrightElement) Upload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read upload file: %w", err)
	}
	return classifyPlaywrightErr(e.locator.SetInputFiles([]playwright.InputFile{{
		Name:   filepath.Base(path),
		Buffer: data,
	}}))
}

func (e *playwrightElement) Center() (float64, float64, error) {
	box, err := e.locator.BoundingBox()
	if err != nil {
		return 0, 0, classifyPlaywrightErr(err)
	}
	if box == nil {
		return 0, 0, fmt.Errorf("element has no bounding box")
	}
	return box.X + box.Width/2, box.Y + box.Height/2, nil
}

// playwrightSelector translates a locator into playwright selector syntax.
func playwrightSelector(loc entities.Locator) (string, error) {
	switch loc.Strategy {
	case entities.ByID:
		return fmt.Sprintf("[id=%q]", loc.Value), nil
	case entities.ByName:
		return fmt.Sprintf("[name=%q]", loc.Value), nil
	case entities.ByCSSSelector:
		return loc.Value, nil
	case entities.ByXPath:
		return "xpath=" + loc.Value, nil
	case entities.ByLinkText:
		return fmt.Sprintf("a:text-is(%q)", loc.Value), nil
	case entities.ByPartialLinkText:
		return fmt.Sprintf("a:has-text(%q)", loc.Value), nil
	case entities.ByClassName:
		return "." + loc.Value, nil
	case entities.ByTagName:
		return loc.Value, nil
	}
	return "", fmt.Errorf("unsupported locator strategy: %s", loc.Strategy)
}

// classifyPlaywrightErr maps playwright failures onto the domain error
// kinds the locate loop understands.
func classifyPlaywrightErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Target closed"),
		strings.Contains(msg, "has been closed"),
		strings.Contains(msg, "browser closed"):
		return &entities.SessionInvalidError{Cause: err}
	case strings.Contains(msg, "not attached to the DOM"):
		return fmt.Errorf("%v: %w", err, entities.ErrElementAbsent)
	}
	return err
}
