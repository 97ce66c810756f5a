package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Managed environment keys written to the env object of settings.json
const (
	KeyBaseURL             = "ANTHROPIC_BASE_URL"
	KeyAuthToken           = "ANTHROPIC_AUTH_TOKEN"
	KeyHaikuModel          = "ANTHROPIC_DEFAULT_HAIKU_MODEL"
	KeySonnetModel         = "ANTHROPIC_DEFAULT_SONNET_MODEL"
	KeyOpusModel           = "ANTHROPIC_DEFAULT_OPUS_MODEL"
	KeyAPITimeout          = "API_TIMEOUT_MS"
	KeyMaxOutputTokens     = "CLAUDE_CODE_MAX_OUTPUT_TOKENS"
	KeyDisableNonessential = "CLAUDE_CODE_DISABLE_NONESSENTIAL_TRAFFIC"
)

// DefaultIcon is used when a provider carries no icon of its own
const DefaultIcon = "ClaudeLogo"

// StandardKeys lists the managed keys in display order
var StandardKeys = []string{
	KeyBaseURL,
	KeyAuthToken,
	KeyHaikuModel,
	KeySonnetModel,
	KeyOpusModel,
	KeyAPITimeout,
	KeyMaxOutputTokens,
	KeyDisableNonessential,
}

// EnvType is the declared type of an environment value
type EnvType string

const (
	TypeString  EnvType = "string"
	TypeInteger EnvType = "integer"
	TypeBoolean EnvType = "boolean"
)

// Valid reports whether t is one of the known types
func (t EnvType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeBoolean:
		return true
	}
	return false
}

// EnvValue is a string-encoded scalar with a declared type.
// Booleans are stored canonically as "0" or "1".
type EnvValue struct {
	Value string  `json:"value"`
	Type  EnvType `json:"type"`
}

// String returns a string-typed value
func String(v string) EnvValue { return EnvValue{Value: v, Type: TypeString} }

// Integer returns an integer-typed value
func Integer(v int64) EnvValue {
	return EnvValue{Value: strconv.FormatInt(v, 10), Type: TypeInteger}
}

// Boolean returns a boolean-typed value in canonical form
func Boolean(v bool) EnvValue {
	if v {
		return EnvValue{Value: "1", Type: TypeBoolean}
	}
	return EnvValue{Value: "0", Type: TypeBoolean}
}

// ParseBool accepts "1"/"0" and case-insensitive "true"/"false"
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}

// Validate checks that Value parses as Type
func (v EnvValue) Validate() error {
	switch v.Type {
	case TypeString:
		return nil
	case TypeInteger:
		if _, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64); err != nil {
			return fmt.Errorf("value %q is not an integer", v.Value)
		}
		return nil
	case TypeBoolean:
		if _, ok := ParseBool(v.Value); !ok {
			return fmt.Errorf("value %q is not a boolean", v.Value)
		}
		return nil
	default:
		return fmt.Errorf("unknown value type %q", v.Type)
	}
}

// EnvMap maps environment variable names to typed values
type EnvMap map[string]EnvValue

// Get returns the raw string for key, or "" when absent
func (m EnvMap) Get(key string) string {
	return m[key].Value
}

// Token returns ANTHROPIC_AUTH_TOKEN
func (m EnvMap) Token() string { return m.Get(KeyAuthToken) }

// BaseURL returns ANTHROPIC_BASE_URL
func (m EnvMap) BaseURL() string { return m.Get(KeyBaseURL) }

// Keys returns the sorted key set
func (m EnvMap) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Clone returns a shallow copy that can be mutated independently
func (m EnvMap) Clone() EnvMap {
	if m == nil {
		return EnvMap{}
	}
	return maps.Clone(m)
}

// Equal reports whether both maps hold the same keys and values
func (m EnvMap) Equal(other EnvMap) bool {
	return maps.Equal(m, other)
}

// Provider is a named set of environment variables describing one API backend
type Provider struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	EnvVariables EnvMap    `json:"envVariables"`
	IsActive     bool      `json:"isActive"`
	Icon         string    `json:"icon"`
}

// NewProvider creates a provider with a fresh id
func NewProvider(name string, env EnvMap, icon string) Provider {
	if icon == "" {
		icon = DefaultIcon
	}
	return Provider{
		ID:           uuid.New(),
		Name:         name,
		EnvVariables: env.Clone(),
		Icon:         icon,
	}
}

// Token returns the provider's auth token
func (p Provider) Token() string { return p.EnvVariables.Token() }

// BaseURL returns the provider's base URL
func (p Provider) BaseURL() string { return p.EnvVariables.BaseURL() }

// ManagedKeys returns the keys this provider owns in settings.json:
// every key it defines plus the base URL and auth token.
func (p Provider) ManagedKeys() []string {
	set := make(map[string]struct{}, len(p.EnvVariables)+2)
	for k := range p.EnvVariables {
		set[k] = struct{}{}
	}
	set[KeyBaseURL] = struct{}{}
	set[KeyAuthToken] = struct{}{}
	return slices.Sorted(maps.Keys(set))
}

// UnmarshalJSON accepts both the typed envVariables form and the legacy
// map of plain strings, and fills in a missing icon.
func (p *Provider) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           uuid.UUID       `json:"id"`
		Name         string          `json:"name"`
		EnvVariables json.RawMessage `json:"envVariables"`
		IsActive     bool            `json:"isActive"`
		Icon         string          `json:"icon"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	env := EnvMap{}
	if len(raw.EnvVariables) > 0 && string(raw.EnvVariables) != "null" {
		if err := json.Unmarshal(raw.EnvVariables, &env); err != nil {
			// 旧格式: map[string]string
			var legacy map[string]string
			if lerr := json.Unmarshal(raw.EnvVariables, &legacy); lerr != nil {
				return fmt.Errorf("invalid envVariables: %w", err)
			}
			env = make(EnvMap, len(legacy))
			for k, v := range legacy {
				env[k] = String(v)
			}
		}
	}

	p.ID = raw.ID
	p.Name = raw.Name
	p.EnvVariables = env
	p.IsActive = raw.IsActive
	p.Icon = raw.Icon
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	return nil
}

// TokenCheckKind classifies the outcome of a duplicate token scan
type TokenCheckKind int

const (
	TokenUnique TokenCheckKind = iota
	TokenDuplicateSameURL
	TokenDuplicateDifferentURL
)

func (k TokenCheckKind) String() string {
	switch k {
	case TokenDuplicateSameURL:
		return "duplicate-same-url"
	case TokenDuplicateDifferentURL:
		return "duplicate-different-url"
	default:
		return "unique"
	}
}

// TokenCheck is the result of a duplicate token scan.
// Provider is set for the duplicate kinds.
type TokenCheck struct {
	Kind     TokenCheckKind
	Provider *Provider
}

// Duplicate reports whether another provider shares the token
func (c TokenCheck) Duplicate() bool { return c.Kind != TokenUnique }
