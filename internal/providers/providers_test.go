package providers

import (
	"strings"
	"testing"

	"claudeswap/config/models"
)

func envWith(baseURL, token string) models.EnvMap {
	return models.EnvMap{
		models.KeyBaseURL:   models.String(baseURL),
		models.KeyAuthToken: models.String(token),
	}
}

func TestCatalogOrder(t *testing.T) {
	expected := []string{
		"Zhipu AI", "z.ai", "MiniMax.com", "MiniMax.io", "Moonshot AI", "Vanchin",
		"DeepSeek", "Aliyuncs", "ModelScope", "PackyCode", "AnyRouter", "LongCat", "Custom AI",
	}
	got := Names()
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Names() = %v, want %v", got, expected)
	}

	for _, tmpl := range All() {
		if _, ok := tmpl.Env[models.KeyAuthToken]; !ok {
			t.Errorf("template %s has no auth token key", tmpl.Name)
		}
		for k, v := range tmpl.Env {
			if err := v.Validate(); err != nil {
				t.Errorf("template %s key %s: %v", tmpl.Name, k, err)
			}
		}
	}
}

func TestGet(t *testing.T) {
	tmpl, err := Get("deepseek")
	if err != nil {
		t.Fatalf("Get(deepseek) error = %v", err)
	}
	if tmpl.Env[models.KeyAPITimeout] != models.Integer(600000) {
		t.Errorf("DeepSeek timeout = %v", tmpl.Env[models.KeyAPITimeout])
	}
	if _, err := Get("nope"); err == nil {
		t.Error("Get(nope) should fail")
	}
}

func TestMatchTemplate(t *testing.T) {
	longToken := strings.Repeat("a", 32) + ".W7Gu3qS0k5isSImL"

	tests := []struct {
		name     string
		baseURL  string
		token    string
		expected string
		found    bool
	}{
		{"zhipu exact with valid token", "https://open.bigmodel.cn/api/anthropic", longToken, ZhipuName, true},
		{"zhipu with short token", "https://open.bigmodel.cn/api/anthropic", "short", "", false},
		{"zhipu with trailing slash", "https://open.bigmodel.cn/api/anthropic/", longToken, "", false},
		{"deepseek exact", "https://api.deepseek.com/anthropic", "sk-1", "DeepSeek", true},
		{"vanchin dynamic endpoint", "https://wanqing.streamlakeapi.com/api/gateway/v1/endpoints/ep-abc123-xyz/claude-code-proxy", "0123456789", VanchinName, true},
		{"vanchin short token", "https://wanqing.streamlakeapi.com/api/gateway/v1/endpoints/ep-abc123-xyz/claude-code-proxy", "123", "", false},
		{"vanchin wrong suffix", "https://wanqing.streamlakeapi.com/api/gateway/v1/endpoints/ep-abc/other", "0123456789", "", false},
		{"unknown host", "https://example.com/anthropic", longToken, "", false},
		{"empty URL never matches custom template", "", longToken, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, ok := MatchTemplate(tt.baseURL, envWith(tt.baseURL, tt.token))
			if ok != tt.found {
				t.Fatalf("MatchTemplate() found = %v, want %v", ok, tt.found)
			}
			if ok && tmpl.Name != tt.expected {
				t.Errorf("MatchTemplate() = %s, want %s", tmpl.Name, tt.expected)
			}
		})
	}
}

func TestSegmentMatcher(t *testing.T) {
	m := NewSegmentMatcher(`/v1/[a-z0-9]+/`, "/v1/ID/")
	if !m.Match("https://h/v1/ID/run", "https://h/v1/abc123/run") {
		t.Error("segment should be normalized")
	}
	if m.Match("https://h/v1/ID/run", "https://h/v2/abc123/run") {
		t.Error("non-matching pattern should not match")
	}
	if !m.Match("https://h/v1/ID/run", "https://h/v1/ID/run") {
		t.Error("identical URL should match")
	}
}

func TestAllOf(t *testing.T) {
	v := AllOf(URLContains("streamlakeapi.com"), MinTokenLength(10))
	tests := []struct {
		name    string
		env     models.EnvMap
		wantErr string
	}{
		{"passes", envWith("https://vanchin.streamlakeapi.com/x", "0123456789"), ""},
		{"first failure wins", envWith("https://example.com", "short"), "streamlakeapi.com"},
		{"second validator runs", envWith("https://vanchin.streamlakeapi.com/x", "short"), "shorter than 10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v(tt.env)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
	if AllOf()(models.EnvMap{}) != nil {
		t.Error("empty AllOf should accept anything")
	}
}

func TestInferIcon(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		expected string
	}{
		{"empty URL", "", IconClaude},
		{"no host", "not a url", IconClaude},
		{"template host", "https://api.moonshot.cn/anthropic", IconMoonshot},
		{"template host with www", "https://www.anyrouter.top", IconAnyRouter},
		{"template host other path", "https://api.deepseek.com/v2", IconDeepSeek},
		{"host fragment", "https://proxy.bigmodel.cn/x", IconZhipu},
		{"anthropic", "https://api.anthropic.com", IconClaude},
		{"vanchin other endpoint host", "https://eu.streamlakeapi.com/x", IconStreamLake},
		{"unknown", "https://llm.example.org", IconOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferIcon(models.EnvMap{models.KeyBaseURL: models.String(tt.baseURL)})
			if got != tt.expected {
				t.Errorf("InferIcon(%q) = %s, want %s", tt.baseURL, got, tt.expected)
			}
		})
	}
}

func TestTemplateNewProvider(t *testing.T) {
	tmpl, _ := Get("LongCat")
	p := tmpl.NewProvider()
	if p.Name != "LongCat" || p.Icon != IconLongCat || p.IsActive {
		t.Errorf("NewProvider() = %+v", p)
	}
	p.EnvVariables[models.KeyAuthToken] = models.String("changed")
	if tmpl.Env.Token() != "" {
		t.Error("NewProvider() must copy the template env")
	}
}
