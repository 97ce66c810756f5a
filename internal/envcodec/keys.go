package envcodec

import (
	"slices"

	"claudeswap/config/models"
)

// KeyInfo describes a recognized environment variable
type KeyInfo struct {
	Name     string
	Type     models.EnvType
	Label    string
	Standard bool
}

// standardKeys are the keys a provider profile is built around
var standardKeys = map[string]KeyInfo{
	models.KeyBaseURL:             {Type: models.TypeString, Label: "Base URL"},
	models.KeyAuthToken:           {Type: models.TypeString, Label: "Auth Token"},
	models.KeyHaikuModel:          {Type: models.TypeString, Label: "Haiku Model"},
	models.KeySonnetModel:         {Type: models.TypeString, Label: "Sonnet Model"},
	models.KeyOpusModel:           {Type: models.TypeString, Label: "Opus Model"},
	models.KeyAPITimeout:          {Type: models.TypeInteger, Label: "API Timeout (ms)"},
	models.KeyMaxOutputTokens:     {Type: models.TypeInteger, Label: "Max output tokens"},
	models.KeyDisableNonessential: {Type: models.TypeBoolean, Label: "Disable Non-essential Traffic"},
}

// extendedKeys covers the other variables the assistant reads from its env block
var extendedKeys = map[string]models.EnvType{
	// Credentials and endpoints
	"ANTHROPIC_API_KEY":                     models.TypeString,
	"ANTHROPIC_CUSTOM_HEADERS":              models.TypeString,
	"ANTHROPIC_MODEL":                       models.TypeString,
	"ANTHROPIC_SMALL_FAST_MODEL":            models.TypeString,
	"ANTHROPIC_SMALL_FAST_MODEL_AWS_REGION": models.TypeString,
	"ANTHROPIC_BEDROCK_BASE_URL":            models.TypeString,
	"ANTHROPIC_VERTEX_BASE_URL":             models.TypeString,
	"ANTHROPIC_VERTEX_PROJECT_ID":           models.TypeString,
	"ANTHROPIC_FOUNDRY_API_KEY":             models.TypeString,
	"ANTHROPIC_FOUNDRY_BASE_URL":            models.TypeString,
	"ANTHROPIC_FOUNDRY_RESOURCE":            models.TypeString,
	"AWS_BEARER_TOKEN_BEDROCK":              models.TypeString,
	"AWS_REGION":                            models.TypeString,
	"AWS_PROFILE":                           models.TypeString,
	"CLOUD_ML_REGION":                       models.TypeString,
	"CLAUDE_CODE_SUBAGENT_MODEL":            models.TypeString,
	"CLAUDE_CODE_CLIENT_CERT":               models.TypeString,
	"CLAUDE_CODE_CLIENT_KEY":                models.TypeString,
	"CLAUDE_CODE_CLIENT_KEY_PASSPHRASE":     models.TypeString,
	"CLAUDE_CONFIG_DIR":                     models.TypeString,
	"CLAUDE_CODE_SHELL_PREFIX":              models.TypeString,
	"CLAUDE_CODE_GIT_BASH_PATH":             models.TypeString,
	"HTTP_PROXY":                            models.TypeString,
	"HTTPS_PROXY":                           models.TypeString,
	"NO_PROXY":                              models.TypeString,
	"VERTEX_REGION_CLAUDE_3_5_HAIKU":        models.TypeString,
	"VERTEX_REGION_CLAUDE_3_5_SONNET":       models.TypeString,
	"VERTEX_REGION_CLAUDE_3_7_SONNET":       models.TypeString,
	"VERTEX_REGION_CLAUDE_4_0_OPUS":         models.TypeString,
	"VERTEX_REGION_CLAUDE_4_0_SONNET":       models.TypeString,
	"VERTEX_REGION_CLAUDE_4_1_OPUS":         models.TypeString,

	// Telemetry export
	"OTEL_METRICS_EXPORTER":        models.TypeString,
	"OTEL_LOGS_EXPORTER":           models.TypeString,
	"OTEL_EXPORTER_OTLP_PROTOCOL":  models.TypeString,
	"OTEL_EXPORTER_OTLP_ENDPOINT":  models.TypeString,
	"OTEL_EXPORTER_OTLP_HEADERS":   models.TypeString,
	"OTEL_RESOURCE_ATTRIBUTES":     models.TypeString,
	"OTEL_METRIC_EXPORT_INTERVAL":  models.TypeInteger,
	"OTEL_LOGS_EXPORT_INTERVAL":    models.TypeInteger,
	"CLAUDE_CODE_ENABLE_TELEMETRY": models.TypeBoolean,

	// Limits and timeouts
	"BASH_DEFAULT_TIMEOUT_MS":                     models.TypeInteger,
	"BASH_MAX_TIMEOUT_MS":                         models.TypeInteger,
	"BASH_MAX_OUTPUT_LENGTH":                      models.TypeInteger,
	"MAX_THINKING_TOKENS":                         models.TypeInteger,
	"MAX_MCP_OUTPUT_TOKENS":                       models.TypeInteger,
	"MCP_TIMEOUT":                                 models.TypeInteger,
	"MCP_TOOL_TIMEOUT":                            models.TypeInteger,
	"CLAUDE_CODE_API_KEY_HELPER_TTL_MS":           models.TypeInteger,
	"CLAUDE_CODE_OTEL_HEADERS_HELPER_DEBOUNCE_MS": models.TypeInteger,
	"SLASH_COMMAND_TOOL_CHAR_BUDGET":              models.TypeInteger,

	// Feature switches
	"CLAUDE_CODE_USE_BEDROCK":                  models.TypeBoolean,
	"CLAUDE_CODE_USE_VERTEX":                   models.TypeBoolean,
	"CLAUDE_CODE_USE_FOUNDRY":                  models.TypeBoolean,
	"CLAUDE_CODE_SKIP_BEDROCK_AUTH":            models.TypeBoolean,
	"CLAUDE_CODE_SKIP_VERTEX_AUTH":             models.TypeBoolean,
	"CLAUDE_CODE_SKIP_FOUNDRY_AUTH":            models.TypeBoolean,
	"CLAUDE_CODE_DISABLE_TERMINAL_TITLE":       models.TypeBoolean,
	"CLAUDE_CODE_DISABLE_EXPERIMENTAL_BETAS":   models.TypeBoolean,
	"CLAUDE_CODE_IDE_SKIP_AUTO_INSTALL":        models.TypeBoolean,
	"CLAUDE_BASH_MAINTAIN_PROJECT_WORKING_DIR": models.TypeBoolean,
	"DISABLE_AUTOUPDATER":                      models.TypeBoolean,
	"DISABLE_BUG_COMMAND":                      models.TypeBoolean,
	"DISABLE_COST_WARNINGS":                    models.TypeBoolean,
	"DISABLE_ERROR_REPORTING":                  models.TypeBoolean,
	"DISABLE_NON_ESSENTIAL_MODEL_CALLS":        models.TypeBoolean,
	"DISABLE_TELEMETRY":                        models.TypeBoolean,
	"DISABLE_INTERLEAVED_THINKING":             models.TypeBoolean,
	"DISABLE_PROMPT_CACHING":                   models.TypeBoolean,
	"DISABLE_PROMPT_CACHING_HAIKU":             models.TypeBoolean,
	"DISABLE_PROMPT_CACHING_SONNET":            models.TypeBoolean,
	"DISABLE_PROMPT_CACHING_OPUS":              models.TypeBoolean,
	"USE_BUILTIN_RIPGREP":                      models.TypeBoolean,
}

// TypeOf returns the declared type for a recognized key
func TypeOf(key string) (models.EnvType, bool) {
	if info, ok := standardKeys[key]; ok {
		return info.Type, true
	}
	if t, ok := extendedKeys[key]; ok {
		return t, true
	}
	return "", false
}

// IsStandard reports whether key is one of the eight managed provider keys
func IsStandard(key string) bool {
	_, ok := standardKeys[key]
	return ok
}

// Label returns a display label for key, falling back to the key itself
func Label(key string) string {
	if info, ok := standardKeys[key]; ok {
		return info.Label
	}
	return key
}

// KnownKeys lists every recognized key: standard keys first in their
// canonical order, then the extended table sorted by name.
func KnownKeys() []KeyInfo {
	out := make([]KeyInfo, 0, len(standardKeys)+len(extendedKeys))
	for _, name := range models.StandardKeys {
		info := standardKeys[name]
		info.Name = name
		info.Standard = true
		out = append(out, info)
	}

	names := make([]string, 0, len(extendedKeys))
	for name := range extendedKeys {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		out = append(out, KeyInfo{Name: name, Type: extendedKeys[name], Label: name})
	}
	return out
}
