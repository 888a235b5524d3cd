// Package browser launches real browser sessions behind the
// domain/interfaces.Session abstraction. Two backends are available:
// playwright (default) and selenium.
package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"webrunner/domain/entities"
	"webrunner/domain/interfaces"
)

const (
	launchAttempts   = 3
	launchRetryDelay = time.Second
)

// Open launches a browser session with the configured backend. The
// launch is retried a bounded number of times because driver startup is
// flaky on loaded hosts; configuration mistakes are not retried.
func Open(cfg entities.BrowserConfig, logger *logrus.Logger) (interfaces.Session, error) {
	if logger == nil {
		logger = logrus.New()
	}

	open := func() (interfaces.Session, error) {
		switch cfg.Driver {
		case entities.DriverSelenium:
			return NewSeleniumSession(cfg, logger)
		case entities.DriverPlaywright, "":
			return NewPlaywrightSession(cfg, logger)
		default:
			return nil, &entities.BrowserConfigError{Reason: fmt.Sprintf("unsupported driver: %s", cfg.Driver)}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= launchAttempts; attempt++ {
		session, err := open()
		if err == nil {
			logger.Infof("%s browser launched", cfg.Kind)
			return session, nil
		}
		lastErr = err

		var cfgErr *entities.BrowserConfigError
		if errors.As(err, &cfgErr) && cfgErr.Cause == nil {
			return nil, err
		}
		if attempt < launchAttempts {
			logger.Warnf("browser launch attempt %d failed: %v", attempt, err)
			time.Sleep(launchRetryDelay)
		}
	}
	return nil, fmt.Errorf("browser launch failed after %d attempts: %w", launchAttempts, lastErr)
}
