package utils

import (
	"net/url"
	"strings"
)

// ValidateURL validates that a URL has a valid scheme and host
func ValidateURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false
	}

	// 确保协议是http或https
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	// 确保主机名存在
	if parsed.Host == "" {
		return false
	}

	return true
}

// ExtractHost returns the lowercased host name of a URL without port
// or a leading "www.", or "" when the URL has no host.
func ExtractHost(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// SameHost reports whether two URLs point at the same host
func SameHost(a, b string) bool {
	ha := ExtractHost(a)
	return ha != "" && ha == ExtractHost(b)
}
