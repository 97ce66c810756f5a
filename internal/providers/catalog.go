// Package providers holds the built-in provider templates and the rules used
// to recognize a settings file as belonging to one of them.
package providers

import (
	"errors"
	"strings"

	"claudeswap/config/models"
	"claudeswap/internal/utils"
)

// Icon identifiers
const (
	IconClaude     = models.DefaultIcon
	IconOther      = "OtherLogo"
	IconZhipu      = "ZhipuLogo"
	IconZai        = "ZaiLogo"
	IconMiniMax    = "MiniMaxLogo"
	IconMoonshot   = "MoonshotLogo"
	IconStreamLake = "StreamLakeLogo"
	IconDeepSeek   = "DeepSeekLogo"
	IconAliyuncs   = "AliyuncsLogo"
	IconModelScope = "ModelScopeLogo"
	IconPackyCode  = "PackyCodeLogo"
	IconAnyRouter  = "AnyRouterLogo"
	IconLongCat    = "LongCatLogo"
)

// Template is a read-only catalog entry used to classify and seed providers
type Template struct {
	Name    string
	Icon    string
	DocLink string
	Env     models.EnvMap

	// Matcher defaults to ExactMatcher
	Matcher URLMatcher
	// Validate runs after a URL match; nil accepts everything
	Validate Validator
}

// BaseURL returns the template's declared base URL
func (t Template) BaseURL() string { return t.Env.BaseURL() }

// NewProvider seeds an inactive provider from the template
func (t Template) NewProvider() models.Provider {
	return models.NewProvider(t.Name, t.Env, t.Icon)
}

// Matches reports whether baseURL (with the rest of env) is accepted by the template
func (t Template) Matches(baseURL string, env models.EnvMap) bool {
	templateURL := t.BaseURL()
	if templateURL == "" || baseURL == "" {
		return false
	}
	matcher := t.Matcher
	if matcher == nil {
		matcher = ExactMatcher{}
	}
	if !matcher.Match(templateURL, baseURL) {
		return false
	}
	if t.Validate == nil {
		return true
	}
	return t.Validate(env) == nil
}

// catalog stores templates in registration order
var catalog []Template

// Register appends a template to the catalog
func Register(t Template) {
	catalog = append(catalog, t)
}

// All returns the templates in display order
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns a template by case-insensitive name
func Get(name string) (Template, error) {
	for _, t := range catalog {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return Template{}, errors.New("unknown provider template: " + name)
}

// Names lists template names in display order
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, t := range catalog {
		names = append(names, t.Name)
	}
	return names
}

// MatchTemplate returns the first template that accepts baseURL and env
func MatchTemplate(baseURL string, env models.EnvMap) (Template, bool) {
	for _, t := range catalog {
		if t.Matches(baseURL, env) {
			return t, true
		}
	}
	return Template{}, false
}

// MatchHost returns the first template whose base URL shares baseURL's host.
// This is a weaker match used for icon inference only.
func MatchHost(baseURL string) (Template, bool) {
	host := utils.ExtractHost(baseURL)
	if host == "" {
		return Template{}, false
	}
	for _, t := range catalog {
		if th := utils.ExtractHost(t.BaseURL()); th != "" && th == host {
			return t, true
		}
	}
	return Template{}, false
}

// hostIcons maps host fragments to icons for URLs that match no template host
var hostIcons = []struct {
	fragment string
	icon     string
}{
	{"anthropic.com", IconClaude},
	{"bigmodel.cn", IconZhipu},
	{"z.ai", IconZai},
	{"minimax", IconMiniMax},
	{"moonshot.cn", IconMoonshot},
	{"streamlakeapi.com", IconStreamLake},
	{"deepseek.com", IconDeepSeek},
	{"aliyuncs.com", IconAliyuncs},
	{"modelscope.cn", IconModelScope},
	{"packycode.com", IconPackyCode},
	{"anyrouter.top", IconAnyRouter},
	{"longcat.chat", IconLongCat},
}

// InferIcon picks an icon from the env's base URL host
func InferIcon(env models.EnvMap) string {
	baseURL := env.BaseURL()
	if baseURL == "" {
		return IconClaude
	}
	host := utils.ExtractHost(baseURL)
	if host == "" {
		return IconClaude
	}
	if t, ok := MatchHost(baseURL); ok {
		return t.Icon
	}
	for _, h := range hostIcons {
		if strings.Contains(host, h.fragment) {
			return h.icon
		}
	}
	return IconOther
}
