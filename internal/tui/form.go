// Package tui provides a terminal user interface for claudeswap
package tui

import (
	"errors"
	"strings"

	"claudeswap/config/models"
	"claudeswap/config/validation"

	"github.com/charmbracelet/bubbles/textinput"
)

// FormField represents the index of each form field
const (
	FormFieldName = iota
	FormFieldBaseURL
	FormFieldToken
	FormFieldHaiku
	FormFieldSonnet
	FormFieldOpus
	FormFieldCount // Total number of fields
)

// FormData represents the data collected from the form
type FormData struct {
	Name        string
	BaseURL     string
	Token       string
	HaikuModel  string
	SonnetModel string
	OpusModel   string
}

// Validate validates the form data
func (f *FormData) Validate() error {
	iv := validation.NewInputValidator()
	if err := iv.ValidateName(f.Name); err != nil {
		return err
	}
	if strings.TrimSpace(f.BaseURL) == "" {
		return errors.New("Base URL 不能为空")
	}
	if err := iv.ValidateURL(strings.TrimSpace(f.BaseURL)); err != nil {
		return errors.New("无效的 URL 格式")
	}
	if strings.TrimSpace(f.Token) == "" {
		return errors.New("Auth Token 不能为空")
	}
	return nil
}

// FormDataFromProvider fills the form from an existing provider or template
func FormDataFromProvider(p models.Provider) FormData {
	env := p.EnvVariables
	return FormData{
		Name:        p.Name,
		BaseURL:     env.BaseURL(),
		Token:       env.Token(),
		HaikuModel:  env.Get(models.KeyHaikuModel),
		SonnetModel: env.Get(models.KeySonnetModel),
		OpusModel:   env.Get(models.KeyOpusModel),
	}
}

// Apply writes the form values into a copy of p. Blank model fields remove
// their keys; keys the form does not show are kept.
func (f FormData) Apply(p models.Provider) models.Provider {
	p.Name = strings.TrimSpace(f.Name)
	env := p.EnvVariables.Clone()
	if env == nil {
		env = models.EnvMap{}
	}
	env[models.KeyBaseURL] = models.String(strings.TrimSpace(f.BaseURL))
	env[models.KeyAuthToken] = models.String(strings.TrimSpace(f.Token))

	set := func(key, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			delete(env, key)
			return
		}
		env[key] = models.String(value)
	}
	set(models.KeyHaikuModel, f.HaikuModel)
	set(models.KeySonnetModel, f.SonnetModel)
	set(models.KeyOpusModel, f.OpusModel)

	p.EnvVariables = env
	return p
}

// FormInputs creates and initializes form input fields
func FormInputs() []textinput.Model {
	inputs := make([]textinput.Model, FormFieldCount)

	newInput := func(placeholder string, limit int) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = limit
		in.Width = 48
		in.Prompt = ""
		return in
	}

	inputs[FormFieldName] = newInput("供应商名称", 50)
	inputs[FormFieldBaseURL] = newInput("https://api.example.com/anthropic", 256)
	inputs[FormFieldToken] = newInput("sk-...", 512)
	inputs[FormFieldToken].EchoMode = textinput.EchoPassword
	inputs[FormFieldToken].EchoCharacter = '•'
	inputs[FormFieldHaiku] = newInput("claude-3-5-haiku", 128)
	inputs[FormFieldSonnet] = newInput("claude-sonnet-4", 128)
	inputs[FormFieldOpus] = newInput("claude-opus-4", 128)

	// Focus the first input
	inputs[FormFieldName].Focus()

	return inputs
}

// GetFormData extracts FormData from form inputs
func GetFormData(inputs []textinput.Model) FormData {
	return FormData{
		Name:        inputs[FormFieldName].Value(),
		BaseURL:     inputs[FormFieldBaseURL].Value(),
		Token:       inputs[FormFieldToken].Value(),
		HaikuModel:  inputs[FormFieldHaiku].Value(),
		SonnetModel: inputs[FormFieldSonnet].Value(),
		OpusModel:   inputs[FormFieldOpus].Value(),
	}
}

// SetFormData populates form inputs with existing data
func SetFormData(inputs []textinput.Model, data FormData) {
	inputs[FormFieldName].SetValue(data.Name)
	inputs[FormFieldBaseURL].SetValue(data.BaseURL)
	inputs[FormFieldToken].SetValue(data.Token)
	inputs[FormFieldHaiku].SetValue(data.HaikuModel)
	inputs[FormFieldSonnet].SetValue(data.SonnetModel)
	inputs[FormFieldOpus].SetValue(data.OpusModel)
}

// FormLabels returns the labels for each form field
func FormLabels() []string {
	return []string{
		"Name:",
		"Base URL:",
		"Auth Token:",
		"Haiku:",
		"Sonnet:",
		"Opus:",
	}
}

// FormHints returns the hint text for each form field
func FormHints() []string {
	return []string{
		"显示名称，最多 50 个字符",
		"ANTHROPIC_BASE_URL",
		"ANTHROPIC_AUTH_TOKEN",
		"ANTHROPIC_DEFAULT_HAIKU_MODEL (可选)",
		"ANTHROPIC_DEFAULT_SONNET_MODEL (可选)",
		"ANTHROPIC_DEFAULT_OPUS_MODEL (可选)",
	}
}

// RenderForm renders the form view with inputs
func RenderForm(inputs []textinput.Model, focusIndex int, title string, errorMsg string) string {
	var b strings.Builder
	labels := FormLabels()
	hints := FormHints()

	for i, input := range inputs {
		label := styles.fieldLabel
		if i == focusIndex {
			label = styles.fieldFocused
		}
		b.WriteString(label.Render(labels[i]) + " " + input.View() + "\n")
		if i == focusIndex {
			b.WriteString(styles.fieldLabel.Render("") + " " + styles.fieldHint.Render(hints[i]) + "\n")
		}
	}
	if errorMsg != "" {
		b.WriteString("\n" + styles.bad.Render("✗ "+errorMsg) + "\n")
	}

	return panel(styles.title.Render(title), b.String(), styles.muted.Render("Tab/↓: 下一项 │ Shift+Tab/↑: 上一项 │ Enter: 确认 │ Esc: 取消"), 50)
}

// NextFormField moves focus to the next form field
func NextFormField(inputs []textinput.Model, currentFocus int) int {
	inputs[currentFocus].Blur()
	nextFocus := (currentFocus + 1) % len(inputs)
	inputs[nextFocus].Focus()
	return nextFocus
}

// PrevFormField moves focus to the previous form field
func PrevFormField(inputs []textinput.Model, currentFocus int) int {
	inputs[currentFocus].Blur()
	prevFocus := currentFocus - 1
	if prevFocus < 0 {
		prevFocus = len(inputs) - 1
	}
	inputs[prevFocus].Focus()
	return prevFocus
}
