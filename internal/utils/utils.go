package utils

import "strings"

// minMaskedLen is the shortest token that keeps its first and last four
// characters visible. Shorter tokens are hidden entirely.
const minMaskedLen = 12

// MaskToken hides the middle of an auth token for display
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) < minMaskedLen {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
