package interfaces

import "webrunner/domain/entities"

// Element is a handle to a found, currently attached DOM element. Its
// lifetime is bounded by the page's lifetime; handles are returned fresh
// by each successful lookup and are never cached.
type Element interface {
	// Click clicks the element.
	Click() error

	// Fill clears the element and types text into it.
	Fill(text string) error

	// SendKeys types text without clearing first.
	SendKeys(text string) error

	// Text returns the rendered text of the element.
	Text() (string, error)

	// Attribute returns the value of the named HTML attribute.
	Attribute(name string) (string, error)

	// Visible reports whether the element is displayed.
	Visible() (bool, error)

	// Enabled reports whether the element accepts input.
	Enabled() (bool, error)

	// Hover moves the pointer over the element.
	Hover() error

	// ScrollIntoView scrolls the element into the viewport.
	ScrollIntoView() error

	// DragTo drags the element onto target. Both handles must come from
	// the same page.
	DragTo(target Element) error

	// SelectByValue selects the dropdown option with the given value.
	SelectByValue(value string) error

	// SelectByText selects the dropdown option with the given visible text.
	SelectByText(text string) error

	// SelectByIndex selects the dropdown option at the given index.
	SelectByIndex(index int) error

	// Upload sends a local file path to a file input.
	Upload(path string) error

	// Center returns the element's center in page pixels.
	Center() (x, y float64, err error)
}

// Page is the current browser page. Find performs exactly one read-only
// query attempt with no internal waiting: it returns the element when it
// is present and interactable (visible and enabled); it returns
// entities.ErrElementAbsent or entities.ErrElementNotInteractable when
// the lookup may be retried; and it returns *entities.SessionInvalidError
// when the page handle is dead. When the element is present but not
// interactable, Find returns the handle together with the error so
// callers can still inspect it.
type Page interface {
	Find(loc entities.Locator) (Element, error)

	// FindAll performs one query attempt and returns every element
	// currently matching loc, interactable or not. Zero matches reports
	// entities.ErrElementAbsent.
	FindAll(loc entities.Locator) ([]Element, error)

	// Navigate loads the given URL.
	Navigate(url string) error

	URL() (string, error)
	Title() (string, error)

	// Eval runs a JavaScript expression on the page and returns its value.
	Eval(script string) (interface{}, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot() ([]byte, error)

	// Info collects a diagnostics snapshot of the page.
	Info() (*entities.PageInfo, error)
}

// Session owns the browser process and its windows. A session is assumed
// externally synchronized: at most one in-flight interaction at a time.
type Session interface {
	// Page returns the currently active page.
	Page() Page

	// OpenTab opens a new window and makes it active, navigating to url
	// when url is not empty.
	OpenTab(url string) error

	// SwitchToWindow makes the window at index active.
	SwitchToWindow(index int) error

	// CloseWindow closes the window at index.
	CloseWindow(index int) error

	// WindowCount returns the number of open windows.
	WindowCount() int

	// Close shuts the browser down and releases the driver.
	Close() error
}
