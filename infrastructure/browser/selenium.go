package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"webrunner/domain/entities"
	"webrunner/domain/interfaces"
)

const chromeDriverPort = 9515

type seleniumSession struct {
	wd      selenium.WebDriver
	service *selenium.Service
	logger  *logrus.Logger
}

// NewSeleniumSession - launches Chrome through a local chromedriver.
// The selenium backend supports the chrome browser kinds only; other
// kinds need the playwright driver.
func NewSeleniumSession(cfg entities.BrowserConfig, logger *logrus.Logger) (interfaces.Session, error) {
	switch cfg.Kind {
	case entities.Chrome, entities.ChromeHeadless:
	case entities.ChromeDebug:
		return nil, &entities.BrowserConfigError{Reason: "chrome-debug requires the playwright driver"}
	default:
		return nil, &entities.BrowserConfigError{Reason: fmt.Sprintf("selenium driver does not support %s", cfg.Kind)}
	}

	driverPath, err := findChromeDriver()
	if err != nil {
		return nil, &entities.BrowserConfigError{Reason: "chromedriver not found", Cause: err}
	}
	logger.Infof("using chromedriver at %s", driverPath)

	service, err := selenium.NewChromeDriverService(driverPath, chromeDriverPort)
	if err != nil {
		return nil, &entities.BrowserConfigError{Reason: "failed to start chromedriver", Cause: err}
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	chromeCaps := chrome.Capabilities{
		Args: []string{
			"--no-sandbox",
			"--disable-gpu",
			"--disable-dev-shm-usage",
		},
	}
	if cfg.Kind.Headless() {
		width, height := cfg.WindowWidth, cfg.WindowHeight
		if width <= 0 || height <= 0 {
			width, height = 1920, 1080
		}
		chromeCaps.Args = append(chromeCaps.Args,
			"--headless",
			fmt.Sprintf("--window-size=%d,%d", width, height),
		)
	}
	if binary := findChromeBinary(); binary != "" {
		chromeCaps.Path = binary
	}
	if cfg.DownloadDir != "" {
		if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
			service.Stop()
			return nil, fmt.Errorf("failed to create download directory: %w", err)
		}
		chromeCaps.Prefs = map[string]interface{}{
			"download.default_directory":   cfg.DownloadDir,
			"download.prompt_for_download": false,
			"download.directory_upgrade":   true,
		}
	}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", chromeDriverPort))
	if err != nil {
		service.Stop()
		return nil, &entities.BrowserConfigError{Reason: "failed to create webdriver", Cause: err}
	}

	return &seleniumSession{
		wd:      wd,
		service: service,
		logger:  logger,
	}, nil
}

// findChromeDriver - looks for the chromedriver binary in the usual
// places, the BROWSER_DRIVER_PATH override first.
func findChromeDriver() (string, error) {
	if path := os.Getenv("BROWSER_DRIVER_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("install chromedriver or set BROWSER_DRIVER_PATH")
}

// findChromeBinary - looks for a Chrome/Chromium executable.
func findChromeBinary() string {
	if path := os.Getenv("CHROME_BINARY_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func (s *seleniumSession) Page() interfaces.Page {
	return &seleniumPage{wd: s.wd}
}

func (s *seleniumSession) OpenTab(url string) error {
	if _, err := s.wd.ExecuteScript("window.open('about:blank', '_blank');", nil); err != nil {
		return classifySeleniumErr(fmt.Errorf("failed to open tab: %w", err))
	}
	handles, err := s.wd.WindowHandles()
	if err != nil {
		return classifySeleniumErr(err)
	}
	if err := s.wd.SwitchWindow(handles[len(handles)-1]); err != nil {
		return classifySeleniumErr(err)
	}
	if url != "" {
		if err := s.wd.Get(url); err != nil {
			return classifySeleniumErr(fmt.Errorf("failed to navigate new tab to %s: %w", url, err))
		}
	}
	return nil
}

func (s *seleniumSession) SwitchToWindow(index int) error {
	handles, err := s.wd.WindowHandles()
	if err != nil {
		return classifySeleniumErr(err)
	}
	if index < 0 || index >= len(handles) {
		return fmt.Errorf("invalid window index %d (open windows: %d)", index, len(handles))
	}
	return classifySeleniumErr(s.wd.SwitchWindow(handles[index]))
}

func (s *seleniumSession) CloseWindow(index int) error {
	handles, err := s.wd.WindowHandles()
	if err != nil {
		return classifySeleniumErr(err)
	}
	if index < 0 || index >= len(handles) {
		return fmt.Errorf("invalid window index %d (open windows: %d)", index, len(handles))
	}
	if err := s.wd.SwitchWindow(handles[index]); err != nil {
		return classifySeleniumErr(err)
	}
	if err := s.wd.Close(); err != nil {
		return classifySeleniumErr(err)
	}

	remaining, err := s.wd.WindowHandles()
	if err != nil || len(remaining) == 0 {
		return classifySeleniumErr(err)
	}
	return classifySeleniumErr(s.wd.SwitchWindow(remaining[len(remaining)-1]))
}

func (s *seleniumSession) WindowCount() int {
	handles, err := s.wd.WindowHandles()
	if err != nil {
		return 0
	}
	return len(handles)
}

func (s *seleniumSession) Close() error {
	var closeErr error
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil {
			closeErr = fmt.Errorf("failed to quit webdriver: %w", err)
		}
	}
	if s.service != nil {
		if err := s.service.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop chromedriver: %w", err)
		}
	}
	return closeErr
}

type seleniumPage struct {
	wd selenium.WebDriver
}

func (p *seleniumPage) Find(loc entities.Locator) (interfaces.Element, error) {
	by, err := seleniumBy(loc.Strategy)
	if err != nil {
		return nil, err
	}

	webElement, err := p.wd.FindElement(by, loc.Value)
	if err != nil {
		return nil, classifySeleniumFindErr(loc, err)
	}
	element := &seleniumElement{wd: p.wd, el: webElement}

	displayed, err := webElement.IsDisplayed()
	if err != nil {
		return nil, classifySeleniumFindErr(loc, err)
	}
	enabled := true
	if displayed {
		enabled, err = webElement.IsEnabled()
		if err != nil {
			return nil, classifySeleniumFindErr(loc, err)
		}
	}
	if !displayed || !enabled {
		return element, fmt.Errorf("%s: %w", loc, entities.ErrElementNotInteractable)
	}
	return element, nil
}

func (p *seleniumPage) FindAll(loc entities.Locator) ([]interfaces.Element, error) {
	by, err := seleniumBy(loc.Strategy)
	if err != nil {
		return nil, err
	}

	webElements, err := p.wd.FindElements(by, loc.Value)
	if err != nil {
		return nil, classifySeleniumFindErr(loc, err)
	}
	if len(webElements) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, entities.ErrElementAbsent)
	}

	elements := make([]interfaces.Element, 0, len(webElements))
	for _, webElement := range webElements {
		elements = append(elements, &seleniumElement{wd: p.wd, el: webElement})
	}
	return elements, nil
}

func (p *seleniumPage) Navigate(url string) error {
	if err := p.wd.Get(url); err != nil {
		return classifySeleniumErr(fmt.Errorf("failed to navigate to %s: %w", url, err))
	}
	return nil
}

func (p *seleniumPage) URL() (string, error) {
	url, err := p.wd.CurrentURL()
	if err != nil {
		return "", classifySeleniumErr(err)
	}
	return url, nil
}

func (p *seleniumPage) Title() (string, error) {
	title, err := p.wd.Title()
	if err != nil {
		return "", classifySeleniumErr(err)
	}
	return title, nil
}

func (p *seleniumPage) Eval(script string) (interface{}, error) {
	result, err := p.wd.ExecuteScript("return "+script+";", nil)
	if err != nil {
		return nil, classifySeleniumErr(err)
	}
	return result, nil
}

func (p *seleniumPage) Screenshot() ([]byte, error) {
	data, err := p.wd.Screenshot()
	if err != nil {
		return nil, classifySeleniumErr(err)
	}
	return data, nil
}

func (p *seleniumPage) Info() (*entities.PageInfo, error) {
	raw, err := p.Eval(collectElementsScript)
	if err != nil {
		return nil, err
	}
	elements, err := parseElements(raw)
	if err != nil {
		return nil, err
	}
	url, _ := p.wd.CurrentURL()
	title, _ := p.wd.Title()
	return &entities.PageInfo{
		URL:      url,
		Title:    title,
		Elements: elements,
	}, nil
}

type seleniumElement struct {
	wd selenium.WebDriver
	el selenium.WebElement
}

func (e *seleniumElement) Click() error {
	return classifySeleniumErr(e.el.Click())
}

func (e *seleniumElement) Fill(text string) error {
	if err := e.el.Clear(); err != nil {
		return classifySeleniumErr(err)
	}
	return classifySeleniumErr(e.el.SendKeys(text))
}

func (e *seleniumElement) SendKeys(text string) error {
	return classifySeleniumErr(e.el.SendKeys(text))
}

func (e *seleniumElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", classifySeleniumErr(err)
	}
	return text, nil
}

func (e *seleniumElement) Attribute(name string) (string, error) {
	value, err := e.el.GetAttribute(name)
	if err != nil {
		return "", classifySeleniumErr(err)
	}
	return value, nil
}

func (e *seleniumElement) Visible() (bool, error) {
	displayed, err := e.el.IsDisplayed()
	if err != nil {
		return false, classifySeleniumErr(err)
	}
	return displayed, nil
}

func (e *seleniumElement) Enabled() (bool, error) {
	enabled, err := e.el.IsEnabled()
	if err != nil {
		return false, classifySeleniumErr(err)
	}
	return enabled, nil
}

func (e *seleniumElement) Hover() error {
	return classifySeleniumErr(e.el.MoveTo(0, 0))
}

func (e *seleniumElement) ScrollIntoView() error {
	_, err := e.wd.ExecuteScript(
		`arguments[0].scrollIntoView({behavior: "auto", block: "center", inline: "center"});`,
		[]interface{}{e.el},
	)
	return classifySeleniumErr(err)
}

// DragTo simulates an HTML5 drag with synthesized events sharing one
// DataTransfer, since chromedriver has no native drag support over the
// JSON wire protocol.
func (e *seleniumElement) DragTo(target interfaces.Element) error {
	dest, ok := target.(*seleniumElement)
	if !ok {
		return fmt.Errorf("drag target is not a selenium element")
	}
	_, err := e.wd.ExecuteScript(`
		var source = arguments[0], target = arguments[1];
		var dataTransfer = new DataTransfer();
		function fire(el, type) {
			var event = new DragEvent(type, {bubbles: true, cancelable: true, dataTransfer: dataTransfer});
			el.dispatchEvent(event);
		}
		fire(source, 'dragstart');
		fire(target, 'dragenter');
		fire(target, 'dragover');
		fire(target, 'drop');
		fire(source, 'dragend');
	`, []interface{}{e.el, dest.el})
	return classifySeleniumErr(err)
}

func (e *seleniumElement) SelectByValue(value string) error {
	_, err := e.wd.ExecuteScript(`
		var sel = arguments[0], value = arguments[1];
		sel.value = value;
		sel.dispatchEvent(new Event('change', {bubbles: true}));
	`, []interface{}{e.el, value})
	return classifySeleniumErr(err)
}

func (e *seleniumElement) SelectByText(text string) error {
	result, err := e.wd.ExecuteScript(`
		var sel = arguments[0], text = arguments[1];
		for (var i = 0; i < sel.options.length; i++) {
			if (sel.options[i].text.trim() === text) {
				sel.selectedIndex = i;
				sel.dispatchEvent(new Event('change', {bubbles: true}));
				return true;
			}
		}
		return false;
	`, []interface{}{e.el, text})
	if err != nil {
		return classifySeleniumErr(err)
	}
	if selected, ok := result.(bool); !ok || !selected {
		return fmt.Errorf("no dropdown option with text %q", text)
	}
	return nil
}

func (e *seleniumElement) SelectByIndex(index int) error {
	_, err := e.wd.ExecuteScript(`
		var sel = arguments[0];
		sel.selectedIndex = arguments[1];
		sel.dispatchEvent(new Event('change', {bubbles: true}));
	`, []interface{}{e.el, index})
	return classifySeleniumErr(err)
}

func (e *seleniumElement) Upload(path string) error {
	return classifySeleniumErr(e.el.SendKeys(path))
}

func (e *seleniumElement) Center() (float64, float64, error) {
	location, err := e.el.Location()
	if err != nil {
		return 0, 0, classifySeleniumErr(err)
	}
	size, err := e.el.Size()
	if err != nil {
		return 0, 0, classifySeleniumErr(err)
	}
	return float64(location.X) + float64(size.Width)/2,
		float64(location.Y) + float64(size.Height)/2, nil
}

// seleniumBy validates the strategy. Strategy values mirror the
// WebDriver names, so the value passes through unchanged.
func seleniumBy(strategy entities.Strategy) (string, error) {
	switch strategy {
	case entities.ByID, entities.ByName, entities.ByCSSSelector, entities.ByXPath,
		entities.ByLinkText, entities.ByPartialLinkText, entities.ByClassName, entities.ByTagName:
		return string(strategy), nil
	}
	return "", fmt.Errorf("unsupported locator strategy: %s", strategy)
}

// classifySeleniumFindErr maps a failed lookup onto the domain error
// kinds: missing and stale elements are retryable, dead sessions are not.
func classifySeleniumFindErr(loc entities.Locator, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such element"),
		strings.Contains(msg, "unable to locate"),
		strings.Contains(msg, "stale element"):
		return fmt.Errorf("%s: %w", loc, entities.ErrElementAbsent)
	}
	return classifySeleniumErr(err)
}

func classifySeleniumErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid session id"),
		strings.Contains(msg, "session deleted"),
		strings.Contains(msg, "chrome not reachable"),
		strings.Contains(msg, "no such window"):
		return &entities.SessionInvalidError{Cause: err}
	}
	return err
}
