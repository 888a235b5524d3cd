// Package config loads runner settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"webrunner/domain/entities"
)

// Config - all the runtime settings the runner and browser layers need.
type Config struct {
	Browser       entities.BrowserConfig
	Wait          entities.WaitPolicy
	BaseURL       string
	ResultsDir    string
	ScreenshotDir string
}

// Load reads config from environment variables. A .env file in the
// working directory is read first when present; real environment
// variables win over .env entries.
func Load() (*Config, error) {
	// Ignore a missing .env, environment variables may be set directly
	_ = godotenv.Load()

	cfg := &Config{
		Browser: entities.BrowserConfig{
			Kind:   entities.Chrome,
			Driver: entities.DriverPlaywright,
		},
		Wait:       entities.DefaultWaitPolicy(),
		ResultsDir: "allure-results",
	}

	if v := os.Getenv("WEBRUNNER_BROWSER"); v != "" {
		kind, err := entities.ParseBrowserKind(v)
		if err != nil {
			return nil, err
		}
		cfg.Browser.Kind = kind
	}

	if v := os.Getenv("WEBRUNNER_DRIVER"); v != "" {
		switch entities.Driver(v) {
		case entities.DriverPlaywright, entities.DriverSelenium:
			cfg.Browser.Driver = entities.Driver(v)
		default:
			return nil, &entities.BrowserConfigError{
				Reason: fmt.Sprintf("unknown driver: %s (supported: playwright, selenium)", v),
			}
		}
	}

	if v := os.Getenv("WEBRUNNER_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBRUNNER_HEADLESS value %q: %w", v, err)
		}
		if headless {
			switch cfg.Browser.Kind {
			case entities.Chrome:
				cfg.Browser.Kind = entities.ChromeHeadless
			case entities.Firefox:
				cfg.Browser.Kind = entities.FirefoxHeadless
			}
		}
	}

	if v := os.Getenv("WEBRUNNER_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBRUNNER_TIMEOUT value %q: %w", v, err)
		}
		cfg.Wait.Timeout = timeout
	}

	if v := os.Getenv("WEBRUNNER_POLL_INTERVAL"); v != "" {
		poll, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WEBRUNNER_POLL_INTERVAL value %q: %w", v, err)
		}
		cfg.Wait.PollInterval = poll
	}
	if err := cfg.Wait.Validate(); err != nil {
		return nil, err
	}

	cfg.BaseURL = os.Getenv("WEBRUNNER_BASE_URL")
	cfg.Browser.DownloadDir = os.Getenv("WEBRUNNER_DOWNLOAD_DIR")
	cfg.Browser.DebuggerAddress = os.Getenv("WEBRUNNER_DEBUG_ADDRESS")
	cfg.ScreenshotDir = os.Getenv("WEBRUNNER_SCREENSHOT_DIR")
	if v := os.Getenv("WEBRUNNER_RESULTS_DIR"); v != "" {
		cfg.ResultsDir = v
	}

	return cfg, nil
}
