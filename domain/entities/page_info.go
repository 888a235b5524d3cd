package entities

// PageElement is a snapshot of one interactive element on the page,
// collected for failure diagnostics.
type PageElement struct {
	TagName    string            `json:"tag_name"`
	Selector   string            `json:"selector"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
	IsVisible  bool              `json:"is_visible"`
}

// PageInfo summarizes the current page. It is attached to logs when an
// element lookup times out so the test author can see what was actually
// there.
type PageInfo struct {
	URL      string        `json:"url"`
	Title    string        `json:"title"`
	Elements []PageElement `json:"elements"`
}
