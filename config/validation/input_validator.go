package validation

import (
	"fmt"
	"regexp"
	"strings"

	"claudeswap/internal/utils"
)

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// InputValidator validates user input
type InputValidator struct {
}

// NewInputValidator creates a new InputValidator
func NewInputValidator() *InputValidator {
	return &InputValidator{}
}

// ValidateName checks if a provider name is valid
func (iv *InputValidator) ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(name, "<>\"'&\\") {
		return fmt.Errorf("name contains invalid characters")
	}
	if len(name) > 50 {
		return fmt.Errorf("name is too long (max 50 characters)")
	}
	return nil
}

// ValidateURL checks if a URL is valid
func (iv *InputValidator) ValidateURL(url string) error {
	if url != "" && !utils.ValidateURL(url) {
		return fmt.Errorf("invalid URL format")
	}
	return nil
}

// ValidateEnvKey checks that key is a usable environment variable name
func (iv *InputValidator) ValidateEnvKey(key string) error {
	if !envKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid environment variable name: %q", key)
	}
	return nil
}

// ParseAssignment splits KEY=VALUE. The value may be empty or contain '='.
func (iv *InputValidator) ParseAssignment(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", fmt.Errorf("expected KEY=VALUE, got %q", s)
	}
	key = strings.TrimSpace(key)
	if err := iv.ValidateEnvKey(key); err != nil {
		return "", "", err
	}
	return key, value, nil
}
