package sync

import (
	"encoding/json"
	"errors"
	"fmt"

	"claudeswap/config"
	"claudeswap/config/models"
	"claudeswap/internal/providers"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ImportName names imported providers that match no template
const ImportName = "Custom"

var (
	// ErrInvalidImport is returned for payloads that are not {"env": {...}}
	ErrInvalidImport = errors.New("invalid import payload")
	// ErrMissingCredentials is returned when the payload lacks a token or base URL
	ErrMissingCredentials = errors.New("import requires ANTHROPIC_AUTH_TOKEN and ANTHROPIC_BASE_URL")
)

// exportOptions 4 空格缩进，键排序
var exportOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "    ", SortKeys: true}

// Clipboard reads and writes plain text
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard uses the platform clipboard
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// ParseImport builds an inactive provider from {"env": {...}}. The name and
// icon come from the matching template, or "Custom" with an inferred icon.
func (s *Service) ParseImport(data []byte) (models.Provider, error) {
	if !gjson.ValidBytes(data) {
		return models.Provider{}, fmt.Errorf("%w: not valid JSON", ErrInvalidImport)
	}
	envResult := gjson.GetBytes(data, "env")
	if !envResult.IsObject() {
		return models.Provider{}, fmt.Errorf("%w: missing env object", ErrInvalidImport)
	}

	env := s.codec.Decode(envResult)
	if env.Token() == "" || env.BaseURL() == "" {
		return models.Provider{}, ErrMissingCredentials
	}

	name, icon := ImportName, providers.InferIcon(env)
	if tmpl, ok := providers.MatchTemplate(env.BaseURL(), env); ok {
		name, icon = tmpl.Name, tmpl.Icon
	}
	return models.NewProvider(name, env, icon), nil
}

// ImportProvider parses data and adds the provider to the store. The token
// check is informational; duplicates are still imported.
func (s *Service) ImportProvider(data []byte) (models.Provider, models.TokenCheck, error) {
	p, err := s.ParseImport(data)
	if err != nil {
		return models.Provider{}, models.TokenCheck{}, err
	}
	check := s.store.CheckTokenDuplicate(p.Token(), p.BaseURL(), nil)
	if check.Duplicate() {
		s.logger.Warn("imported token is already used", "provider", check.Provider.Name, "kind", check.Kind.String())
	}
	stored, err := s.AddProvider(p)
	if err != nil {
		return models.Provider{}, check, err
	}
	return stored, check, nil
}

// Export renders p as {"env": {...}} with sorted keys and 4-space indentation
func (s *Service) Export(p models.Provider) ([]byte, error) {
	data, err := json.Marshal(map[string]any{"env": s.codec.Encode(p.EnvVariables)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return pretty.PrettyOptions(data, exportOptions), nil
}

// ImportFromClipboard imports the clipboard contents
func (s *Service) ImportFromClipboard(cb Clipboard) (models.Provider, models.TokenCheck, error) {
	text, err := cb.ReadAll()
	if err != nil {
		return models.Provider{}, models.TokenCheck{}, fmt.Errorf("failed to read clipboard: %w", err)
	}
	return s.ImportProvider([]byte(text))
}

// ExportToClipboard copies the export of id to the clipboard
func (s *Service) ExportToClipboard(cb Clipboard, id uuid.UUID) error {
	p, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", config.ErrProviderNotFound, id)
	}
	data, err := s.Export(p)
	if err != nil {
		return err
	}
	if err := cb.WriteAll(string(data)); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
