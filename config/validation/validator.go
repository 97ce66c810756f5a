package validation

import (
	"fmt"

	"claudeswap/config/models"
)

// Validator validates providers before they are stored
type Validator struct {
	input *InputValidator
}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{input: NewInputValidator()}
}

// ValidateProvider checks the name, the credentials and every env value
func (v *Validator) ValidateProvider(p models.Provider) error {
	if err := v.input.ValidateName(p.Name); err != nil {
		return err
	}

	// 必须同时提供 URL 和 token
	if p.BaseURL() == "" {
		return fmt.Errorf("%s cannot be empty", models.KeyBaseURL)
	}
	if p.Token() == "" {
		return fmt.Errorf("%s cannot be empty", models.KeyAuthToken)
	}
	if err := v.input.ValidateURL(p.BaseURL()); err != nil {
		return fmt.Errorf("%s: %w", models.KeyBaseURL, err)
	}

	for _, key := range p.EnvVariables.Keys() {
		if err := v.input.ValidateEnvKey(key); err != nil {
			return err
		}
		if err := p.EnvVariables[key].Validate(); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}
