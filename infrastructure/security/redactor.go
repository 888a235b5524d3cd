// Package security keeps secrets out of logs and reports.
package security

import (
	"strings"

	"webrunner/domain/interfaces"
)

const maskedValue = "******"

// Redactor - masks values typed into fields whose locator looks
// sensitive. Matching is a case-insensitive substring check against a
// keyword list.
type Redactor struct {
	keywords []string
}

// NewRedactor creates a redactor with the default keyword list.
func NewRedactor() *Redactor {
	return &Redactor{
		keywords: []string{
			"password",
			"passwd",
			"secret",
			"token",
			"apikey",
			"api-key",
			"api_key",
			"otp",
			"cvv",
			"pin",
		},
	}
}

// WithKeywords adds extra keywords to the default list.
func (r *Redactor) WithKeywords(keywords ...string) *Redactor {
	r.keywords = append(r.keywords, keywords...)
	return r
}

// Mask returns the value unchanged unless the target contains a
// sensitive keyword, in which case a fixed placeholder comes back.
func (r *Redactor) Mask(target, value string) string {
	lowered := strings.ToLower(target)
	for _, keyword := range r.keywords {
		if strings.Contains(lowered, keyword) {
			return maskedValue
		}
	}
	return value
}

var _ interfaces.Redactor = (*Redactor)(nil)
