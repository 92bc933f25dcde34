package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("url cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must use http or https")
	}

	if u.Host == "" {
		return fmt.Errorf("url must have a host")
	}

	return nil
}

// IsNonEmpty is a trivial textinput validator used by the login TUI.
func IsNonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
