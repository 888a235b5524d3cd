package runner

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomString returns prefix followed by a hex string of n random bytes,
// for building unique test data.
func RandomString(prefix string, n int) string {
	if n <= 0 {
		n = 8
	}
	suffix := make([]byte, n)
	if _, err := rand.Read(suffix); err != nil {
		panic(fmt.Sprintf("failed to generate random suffix: %v", err))
	}
	return prefix + hex.EncodeToString(suffix)
}

// RandomEmail returns a unique email address at the given domain.
func RandomEmail(prefix, domain string) string {
	if prefix == "" {
		prefix = "test"
	}
	if domain == "" {
		domain = "example.com"
	}
	return fmt.Sprintf("%s@%s", RandomString(prefix+"-", 4), domain)
}
