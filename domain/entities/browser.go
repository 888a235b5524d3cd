package entities

import (
	"fmt"
	"strings"
)

// BrowserKind selects the browser binary and whether it runs headless.
type BrowserKind string

const (
	Chrome          BrowserKind = "chrome"
	ChromeHeadless  BrowserKind = "chrome-headless"
	ChromeDebug     BrowserKind = "chrome-debug"
	Firefox         BrowserKind = "firefox"
	FirefoxHeadless BrowserKind = "firefox-headless"
	Safari          BrowserKind = "safari"
)

// ParseBrowserKind - parses a browser selector string such as
// "chrome-headless". Matching is case-insensitive.
func ParseBrowserKind(s string) (BrowserKind, error) {
	kind := BrowserKind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case Chrome, ChromeHeadless, ChromeDebug, Firefox, FirefoxHeadless, Safari:
		return kind, nil
	}
	return "", &BrowserConfigError{Reason: fmt.Sprintf("unsupported browser: %s", s)}
}

// Headless reports whether the kind runs without a visible window.
func (k BrowserKind) Headless() bool {
	return k == ChromeHeadless || k == FirefoxHeadless
}

// Driver names a browser automation backend.
type Driver string

const (
	DriverPlaywright Driver = "playwright"
	DriverSelenium   Driver = "selenium"
)

// BrowserConfig describes how to launch a browser session.
type BrowserConfig struct {
	Kind   BrowserKind
	Driver Driver

	// DownloadDir, when set, is where the browser saves downloads
	// without prompting.
	DownloadDir string

	// DebuggerAddress is the devtools endpoint used by ChromeDebug,
	// e.g. "localhost:9221".
	DebuggerAddress string

	WindowWidth  int
	WindowHeight int
}
