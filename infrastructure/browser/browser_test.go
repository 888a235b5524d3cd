package browser

import (
	"errors"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"webrunner/domain/entities"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	_, err := Open(entities.BrowserConfig{
		Kind:   entities.Chrome,
		Driver: entities.Driver("puppeteer"),
	}, logger)

	var cfgErr *entities.BrowserConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestPlaywrightSelector(t *testing.T) {
	for _, tc := range []struct {
		loc  entities.Locator
		want string
	}{
		{entities.ID("login"), `[id="login"]`},
		{entities.Name("email"), `[name="email"]`},
		{entities.CSS("div.card > button"), "div.card > button"},
		{entities.XPath("//button[@type='submit']"), "xpath=//button[@type='submit']"},
		{entities.LinkText("Sign in"), `a:text-is("Sign in")`},
		{entities.PartialLinkText("Sign"), `a:has-text("Sign")`},
		{entities.ClassName("primary"), ".primary"},
		{entities.TagName("textarea"), "textarea"},
	} {
		got, err := playwrightSelector(tc.loc)
		require.NoError(t, err, tc.loc)
		require.Equal(t, tc.want, got, tc.loc)
	}

	_, err := playwrightSelector(entities.Locator{Strategy: "accessibility id", Value: "x"})
	require.Error(t, err)
}

func TestClassifyPlaywrightErr(t *testing.T) {
	var invalid *entities.SessionInvalidError
	require.ErrorAs(t, classifyPlaywrightErr(errors.New("Target closed")), &invalid)
	require.ErrorAs(t, classifyPlaywrightErr(errors.New("page has been closed")), &invalid)
	require.ErrorAs(t, classifyPlaywrightErr(errors.New("browser closed unexpectedly")), &invalid)

	stale := classifyPlaywrightErr(errors.New("element is not attached to the DOM"))
	require.ErrorIs(t, stale, entities.ErrElementAbsent)

	other := errors.New("evaluation failed")
	require.Equal(t, other, classifyPlaywrightErr(other))
	require.NoError(t, classifyPlaywrightErr(nil))
}

func TestClassifySeleniumErr(t *testing.T) {
	var invalid *entities.SessionInvalidError
	require.ErrorAs(t, classifySeleniumErr(errors.New("invalid session id")), &invalid)
	require.ErrorAs(t, classifySeleniumErr(errors.New("session deleted because of page crash")), &invalid)
	require.ErrorAs(t, classifySeleniumErr(errors.New("chrome not reachable")), &invalid)
	require.ErrorAs(t, classifySeleniumErr(errors.New("no such window: target window already closed")), &invalid)

	other := errors.New("javascript error")
	require.Equal(t, other, classifySeleniumErr(other))
	require.NoError(t, classifySeleniumErr(nil))
}

func TestClassifySeleniumFindErr(t *testing.T) {
	loc := entities.ID("missing")

	for _, msg := range []string{
		"no such element: Unable to locate element",
		"stale element reference: element is not attached",
	} {
		err := classifySeleniumFindErr(loc, errors.New(msg))
		require.ErrorIs(t, err, entities.ErrElementAbsent, msg)
		require.Contains(t, err.Error(), loc.String())
	}

	var invalid *entities.SessionInvalidError
	err := classifySeleniumFindErr(loc, errors.New("invalid session id"))
	require.ErrorAs(t, err, &invalid)
}

func TestSeleniumByPassesThroughKnownStrategies(t *testing.T) {
	for _, strategy := range []entities.Strategy{
		entities.ByID, entities.ByName, entities.ByCSSSelector, entities.ByXPath,
		entities.ByLinkText, entities.ByPartialLinkText, entities.ByClassName, entities.ByTagName,
	} {
		by, err := seleniumBy(strategy)
		require.NoError(t, err)
		require.Equal(t, string(strategy), by)
	}

	_, err := seleniumBy("accessibility id")
	require.Error(t, err)
}

func TestParseElements(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{
			"tag_name":   "button",
			"selector":   "#submit",
			"text":       "Submit",
			"attributes": map[string]interface{}{"type": "submit"},
			"is_visible": true,
		},
		map[string]interface{}{
			"tag_name":   "a",
			"selector":   ".nav-link",
			"is_visible": false,
		},
	}

	elements, err := parseElements(raw)
	require.NoError(t, err)
	require.Len(t, elements, 2)
	require.Equal(t, "button", elements[0].TagName)
	require.Equal(t, "#submit", elements[0].Selector)
	require.Equal(t, "submit", elements[0].Attributes["type"])
	require.True(t, elements[0].IsVisible)
	require.False(t, elements[1].IsVisible)

	_, err = parseElements("not a list")
	require.Error(t, err)
}
