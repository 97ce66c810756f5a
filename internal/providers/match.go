package providers

import (
	"fmt"
	"regexp"
	"strings"

	"claudeswap/config/models"
)

// URLMatcher decides whether a candidate base URL belongs to a template
// whose declared URL is templateURL.
type URLMatcher interface {
	Match(templateURL, candidate string) bool
}

// ExactMatcher compares URLs as plain strings
type ExactMatcher struct{}

func (ExactMatcher) Match(templateURL, candidate string) bool {
	return templateURL == candidate
}

// SegmentMatcher replaces a dynamic path segment in the candidate with the
// placeholder used in the template URL, then compares.
type SegmentMatcher struct {
	Pattern     *regexp.Regexp
	Placeholder string
}

// NewSegmentMatcher compiles pattern; it panics on an invalid expression
// since templates are fixed at build time.
func NewSegmentMatcher(pattern, placeholder string) SegmentMatcher {
	return SegmentMatcher{Pattern: regexp.MustCompile(pattern), Placeholder: placeholder}
}

func (m SegmentMatcher) Match(templateURL, candidate string) bool {
	if templateURL == candidate {
		return true
	}
	if m.Pattern == nil || !m.Pattern.MatchString(candidate) {
		return false
	}
	return m.Pattern.ReplaceAllString(candidate, m.Placeholder) == templateURL
}

// Validator checks provider-specific requirements on a matched env
type Validator func(env models.EnvMap) error

// MinTokenLength requires an auth token of at least n characters
func MinTokenLength(n int) Validator {
	return func(env models.EnvMap) error {
		if len(env.Token()) < n {
			return fmt.Errorf("auth token shorter than %d characters", n)
		}
		return nil
	}
}

// URLContains requires the base URL to contain every substring
func URLContains(parts ...string) Validator {
	return func(env models.EnvMap) error {
		baseURL := env.BaseURL()
		for _, part := range parts {
			if !strings.Contains(baseURL, part) {
				return fmt.Errorf("base URL does not contain %q", part)
			}
		}
		return nil
	}
}

// URLEquals requires the base URL to be exactly u
func URLEquals(u string) Validator {
	return func(env models.EnvMap) error {
		if env.BaseURL() != u {
			return fmt.Errorf("base URL must be %s", u)
		}
		return nil
	}
}

// AllOf combines validators; the first failure wins
func AllOf(validators ...Validator) Validator {
	return func(env models.EnvMap) error {
		for _, v := range validators {
			if err := v(env); err != nil {
				return err
			}
		}
		return nil
	}
}
