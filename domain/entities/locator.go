package entities

import "fmt"

// Strategy identifies how a locator value should be interpreted when
// querying the page. The values mirror the WebDriver locator strategy
// names so the selenium backend can pass them through unchanged.
type Strategy string

const (
	ByID              Strategy = "id"
	ByName            Strategy = "name"
	ByCSSSelector     Strategy = "css selector"
	ByXPath           Strategy = "xpath"
	ByLinkText        Strategy = "link text"
	ByPartialLinkText Strategy = "partial link text"
	ByClassName       Strategy = "class name"
	ByTagName         Strategy = "tag name"
)

// Locator describes how to find one element on a page. It is a plain
// value supplied by the caller per lookup and is never mutated.
type Locator struct {
	Strategy Strategy
	Value    string
}

// ID - locator matching the element with the given id attribute.
func ID(value string) Locator { return Locator{Strategy: ByID, Value: value} }

// Name - locator matching elements with the given name attribute.
func Name(value string) Locator { return Locator{Strategy: ByName, Value: value} }

// CSS - locator interpreting value as a CSS selector.
func CSS(value string) Locator { return Locator{Strategy: ByCSSSelector, Value: value} }

// XPath - locator interpreting value as an XPath expression.
func XPath(value string) Locator { return Locator{Strategy: ByXPath, Value: value} }

// LinkText - locator matching anchors whose text equals value.
func LinkText(value string) Locator { return Locator{Strategy: ByLinkText, Value: value} }

// PartialLinkText - locator matching anchors whose text contains value.
func PartialLinkText(value string) Locator {
	return Locator{Strategy: ByPartialLinkText, Value: value}
}

// ClassName - locator matching elements carrying the given class.
func ClassName(value string) Locator { return Locator{Strategy: ByClassName, Value: value} }

// TagName - locator matching elements with the given tag.
func TagName(value string) Locator { return Locator{Strategy: ByTagName, Value: value} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.Strategy, l.Value)
}
