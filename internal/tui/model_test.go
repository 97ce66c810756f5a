package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"claudeswap/config"
	"claudeswap/config/models"
	"claudeswap/config/storage"
	syncpkg "claudeswap/config/sync"
	"claudeswap/internal/claude"
	"claudeswap/internal/providers"

	tea "github.com/charmbracelet/bubbletea"
)

type memClipboard struct {
	text string
}

func (c *memClipboard) ReadAll() (string, error)   { return c.text, nil }
func (c *memClipboard) WriteAll(text string) error { c.text = text; return nil }

func newTestModel(t *testing.T) (Model, *syncpkg.Service, *claude.Gateway, *memClipboard) {
	t.Helper()
	dir := t.TempDir()
	gw := claude.NewGateway(filepath.Join(dir, ".claude"))
	store := config.NewStore(storage.NewJSONPreferences(filepath.Join(dir, "preferences.json")))
	svc := syncpkg.NewService(gw, store, nil)
	cb := &memClipboard{}
	return NewModel(svc, cb), svc, gw, cb
}

// step runs cmd and feeds its message back into the model
func step(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, c := m.Update(cmd())
	return next.(Model), c
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, c := m.Update(msg)
	return next.(Model), c
}

func addTestProvider(t *testing.T, svc *syncpkg.Service, name, url, token string) models.Provider {
	t.Helper()
	p, err := svc.AddProvider(models.NewProvider(name, models.EnvMap{
		models.KeyBaseURL:   models.String(url),
		models.KeyAuthToken: models.String(token),
	}, ""))
	if err != nil {
		t.Fatalf("AddProvider() error = %v", err)
	}
	return p
}

func loaded(t *testing.T, m Model, svc *syncpkg.Service) Model {
	t.Helper()
	m, _ = step(t, m, loadProviders(svc))
	return m
}

func TestProvidersLoaded(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	addTestProvider(t, svc, "DeepSeek", "https://api.deepseek.com/anthropic", "sk-one")
	addTestProvider(t, svc, "Kimi", "https://api.moonshot.cn/anthropic", "sk-two")

	m = loaded(t, m, svc)
	if len(m.providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(m.providers))
	}
	if !m.defaultActive {
		t.Error("default should be active without a settings file")
	}
	if m.rowCount() != 3 {
		t.Errorf("rowCount() = %d, want 3", m.rowCount())
	}

	view := m.RenderMainView()
	for _, want := range []string{"默认", "DeepSeek", "Kimi", "api.moonshot.cn"} {
		if !strings.Contains(view, want) {
			t.Errorf("main view missing %q", want)
		}
	}
}

func TestMainViewNavigation(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	for i := 0; i < 3; i++ {
		addTestProvider(t, svc, fmt.Sprintf("p%d", i), "https://example.com", fmt.Sprintf("tok-%d", i))
	}
	m = loaded(t, m, svc)

	tests := []struct {
		key  string
		want int
	}{
		{"j", 1},
		{"down", 2},
		{"G", 3},
		{"j", 3},
		{"k", 2},
		{"g", 0},
		{"up", 0},
	}
	for _, tt := range tests {
		if tt.key == "down" || tt.key == "up" {
			kt := tea.KeyDown
			if tt.key == "up" {
				kt = tea.KeyUp
			}
			next, _ := m.Update(tea.KeyMsg{Type: kt})
			m = next.(Model)
		} else {
			m, _ = press(t, m, tt.key)
		}
		if m.cursor != tt.want {
			t.Errorf("after %q cursor = %d, want %d", tt.key, m.cursor, tt.want)
		}
	}
}

func TestActivateProviderFromList(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	p := addTestProvider(t, svc, "DeepSeek", "https://api.deepseek.com/anthropic", "sk-deep")
	m = loaded(t, m, svc)

	m, _ = press(t, m, "j")
	m, cmd := press(t, m, "enter")
	m, cmd = step(t, m, cmd)
	if m.errorMsg != "" {
		t.Fatalf("errorMsg = %q", m.errorMsg)
	}
	if m.message != "已切换到: DeepSeek" {
		t.Errorf("message = %q", m.message)
	}
	m, _ = step(t, m, cmd)

	if !m.providers[0].IsActive || m.defaultActive {
		t.Error("provider should be active after reload")
	}
	env, err := svc.CurrentEnv()
	if err != nil {
		t.Fatal(err)
	}
	if env.Token() != p.Token() {
		t.Errorf("settings token = %q", env.Token())
	}
}

func TestActivateDefault(t *testing.T) {
	tests := []struct {
		name string
		keys []string
	}{
		{"enter on default row", []string{"enter"}},
		{"D anywhere", []string{"j", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, svc, _, _ := newTestModel(t)
			p := addTestProvider(t, svc, "DeepSeek", "https://api.deepseek.com/anthropic", "sk-deep")
			if err := svc.ActivateProvider(p.ID); err != nil {
				t.Fatal(err)
			}
			m = loaded(t, m, svc)

			var cmd tea.Cmd
			for _, k := range tt.keys {
				m, cmd = press(t, m, k)
			}
			m, cmd = step(t, m, cmd)
			if m.message != "已切换到默认配置" {
				t.Errorf("message = %q", m.message)
			}
			m, _ = step(t, m, cmd)
			if !m.defaultActive || m.providers[0].IsActive {
				t.Error("default should be active")
			}
		})
	}
}

func TestAddProviderFlow(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	m = loaded(t, m, svc)

	m, _ = press(t, m, "a")
	if m.viewState != ViewTemplate {
		t.Fatalf("viewState = %v, want ViewTemplate", m.viewState)
	}
	for m.templateIdx < len(providers.All())-1 && providers.All()[m.templateIdx].Name != providers.CustomName {
		m, _ = press(t, m, "j")
	}
	m, _ = press(t, m, "enter")
	if m.viewState != ViewAdd || m.formBase.Name != providers.CustomName {
		t.Fatalf("viewState = %v base = %q", m.viewState, m.formBase.Name)
	}

	// missing token keeps the form open
	SetFormData(m.formInputs, FormData{Name: "Proxy", BaseURL: "https://proxy.example.com"})
	m, cmd := press(t, m, "enter")
	if cmd != nil || m.formErrorMsg == "" || m.viewState != ViewAdd {
		t.Fatalf("expected validation error, got %q", m.formErrorMsg)
	}

	SetFormData(m.formInputs, FormData{Name: "Proxy", BaseURL: "https://proxy.example.com", Token: "sk-proxy", OpusModel: "opus"})
	m, cmd = press(t, m, "enter")
	m, cmd = step(t, m, cmd)
	if m.viewState != ViewMain || m.message != "已添加: Proxy" {
		t.Fatalf("viewState = %v message = %q error = %q", m.viewState, m.message, m.formErrorMsg)
	}
	m, _ = step(t, m, cmd)

	if len(m.providers) != 1 {
		t.Fatalf("providers = %d", len(m.providers))
	}
	got := m.providers[0]
	if got.IsActive {
		t.Error("new provider must be inactive")
	}
	if got.EnvVariables.Get(models.KeyOpusModel) != "opus" {
		t.Error("opus model not saved")
	}
	if _, ok := got.EnvVariables[models.KeyHaikuModel]; ok {
		t.Error("blank model fields should not be saved")
	}
}

func TestAddFromTemplateFocusesToken(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	tmpl, err := providers.Get("DeepSeek")
	if err != nil {
		t.Fatal(err)
	}
	m.initAddForm(tmpl)

	if m.formFocus != FormFieldToken || !m.formInputs[FormFieldToken].Focused() || m.formInputs[FormFieldName].Focused() {
		t.Errorf("focus = %d, want token field", m.formFocus)
	}
	if got := m.formInputs[FormFieldBaseURL].Value(); got != "https://api.deepseek.com/anthropic" {
		t.Errorf("base URL = %q", got)
	}
}

func TestAddDuplicateTokenWarns(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	addTestProvider(t, svc, "First", "https://proxy.example.com", "sk-same")
	m = loaded(t, m, svc)

	p := models.NewProvider("Second", models.EnvMap{
		models.KeyBaseURL:   models.String("https://proxy.example.com"),
		models.KeyAuthToken: models.String("sk-same"),
	}, "")
	m.viewState = ViewAdd
	m, _ = step(t, m, addProvider(svc, p))

	if m.message != "已添加: Second" {
		t.Errorf("message = %q", m.message)
	}
	if !strings.Contains(m.errorMsg, "First") {
		t.Errorf("errorMsg = %q, want duplicate warning", m.errorMsg)
	}
}

func TestEditActiveProviderRewritesSettings(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	p := addTestProvider(t, svc, "DeepSeek", "https://api.deepseek.com/anthropic", "sk-old")
	if err := svc.ActivateProvider(p.ID); err != nil {
		t.Fatal(err)
	}
	m = loaded(t, m, svc)
	m, _ = press(t, m, "j")

	m, _ = press(t, m, "e")
	if m.viewState != ViewEdit {
		t.Fatalf("viewState = %v, want ViewEdit", m.viewState)
	}
	if got := GetFormData(m.formInputs); got.Name != "DeepSeek" || got.Token != "sk-old" {
		t.Fatalf("form = %+v", got)
	}

	m.formInputs[FormFieldToken].SetValue("sk-new")
	m, cmd := press(t, m, "enter")
	m, _ = step(t, m, cmd)
	if m.viewState != ViewMain || m.message != "已更新: DeepSeek" {
		t.Fatalf("viewState = %v message = %q error = %q", m.viewState, m.message, m.formErrorMsg)
	}

	env, err := svc.CurrentEnv()
	if err != nil {
		t.Fatal(err)
	}
	if env.Token() != "sk-new" {
		t.Errorf("settings token = %q, want sk-new", env.Token())
	}
}

func TestFormEscCancels(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	addTestProvider(t, svc, "DeepSeek", "https://api.deepseek.com/anthropic", "sk")
	m = loaded(t, m, svc)
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "e")

	m, _ = press(t, m, "esc")
	if m.viewState != ViewMain || m.formInputs != nil {
		t.Errorf("viewState = %v, form not closed", m.viewState)
	}
}

func TestDeleteFlow(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	p := addTestProvider(t, svc, "DeepSeek", "https://api.deepseek.com/anthropic", "sk-deep")
	if err := svc.ActivateProvider(p.ID); err != nil {
		t.Fatal(err)
	}
	m = loaded(t, m, svc)

	// default row cannot be deleted
	m, _ = press(t, m, "d")
	if m.viewState != ViewMain {
		t.Fatalf("viewState = %v on default row", m.viewState)
	}

	m, _ = press(t, m, "j")
	m, _ = press(t, m, "d")
	if m.viewState != ViewDelete {
		t.Fatalf("viewState = %v, want ViewDelete", m.viewState)
	}
	if !strings.Contains(m.View(), "默认配置") {
		t.Error("confirm dialog should mention the switch to default")
	}
	m, _ = press(t, m, "n")
	if m.viewState != ViewMain {
		t.Fatal("n should cancel")
	}

	m, _ = press(t, m, "d")
	m, cmd := press(t, m, "y")
	m, cmd = step(t, m, cmd)
	if !strings.Contains(m.message, "已切换到默认配置") {
		t.Errorf("message = %q", m.message)
	}
	m, _ = step(t, m, cmd)
	if len(m.providers) != 0 || m.cursor != 0 {
		t.Errorf("providers = %d cursor = %d", len(m.providers), m.cursor)
	}
	if !m.defaultActive {
		t.Error("default should be active after deleting the active provider")
	}
}

func TestClipboardImportExport(t *testing.T) {
	m, svc, _, cb := newTestModel(t)
	m = loaded(t, m, svc)

	cb.text = `{"env":{"ANTHROPIC_BASE_URL":"https://api.deepseek.com/anthropic","ANTHROPIC_AUTH_TOKEN":"sk-paste","API_TIMEOUT_MS":600000}}`
	m, cmd := press(t, m, "p")
	m, cmd = step(t, m, cmd)
	if m.message != "已导入: DeepSeek" {
		t.Fatalf("message = %q error = %q", m.message, m.errorMsg)
	}
	m, _ = step(t, m, cmd)
	if len(m.providers) != 1 || m.providers[0].IsActive {
		t.Fatalf("providers = %+v", m.providers)
	}

	cb.text = ""
	m, _ = press(t, m, "j")
	m, cmd = press(t, m, "x")
	m, _ = step(t, m, cmd)
	if m.message != "已复制到剪贴板: DeepSeek" {
		t.Errorf("message = %q", m.message)
	}
	if !strings.Contains(cb.text, `"ANTHROPIC_AUTH_TOKEN": "sk-paste"`) {
		t.Errorf("clipboard = %s", cb.text)
	}

	cb.text = `{"nope":1}`
	m, cmd = press(t, m, "p")
	m, _ = step(t, m, cmd)
	if m.errorMsg == "" {
		t.Error("invalid payload should report an error")
	}
}

func TestExternalChangeDetected(t *testing.T) {
	m, svc, gw, _ := newTestModel(t)
	m = loaded(t, m, svc)

	if err := os.MkdirAll(gw.Dir(), 0755); err != nil {
		t.Fatal(err)
	}
	content := `{"env":{"ANTHROPIC_BASE_URL":"https://proxy.example.com","ANTHROPIC_AUTH_TOKEN":"sk-outside"}}`
	if err := os.WriteFile(gw.Path(), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	next, cmd := m.Update(SettingsFileChangedMsg{})
	m = next.(Model)
	m, cmd = step(t, m, cmd)
	if m.message != "检测到 settings.json 已在外部修改" {
		t.Errorf("message = %q", m.message)
	}
	m, _ = step(t, m, cmd)
	if len(m.providers) != 1 || !m.providers[0].IsActive {
		t.Fatalf("providers = %+v", m.providers)
	}
	if m.providers[0].Name != syncpkg.OtherName {
		t.Errorf("name = %q, want %q", m.providers[0].Name, syncpkg.OtherName)
	}

	// nothing changed on the second check
	m.message = ""
	m, cmd = press(t, m, "r")
	m, _ = step(t, m, cmd)
	if m.message != "" {
		t.Errorf("message = %q, want none", m.message)
	}
}

func TestDetailView(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	addTestProvider(t, svc, "DeepSeek", "https://api.deepseek.com/anthropic", "sk-0123456789abcdef")
	m = loaded(t, m, svc)

	m, _ = press(t, m, "v")
	if m.viewState != ViewMain {
		t.Error("detail should not open on the default row")
	}
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "v")
	if m.viewState != ViewDetail {
		t.Fatalf("viewState = %v, want ViewDetail", m.viewState)
	}

	view := m.View()
	if strings.Contains(view, "sk-0123456789abcdef") {
		t.Error("detail view must mask the token")
	}
	if !strings.Contains(view, "sk-0****cdef") {
		t.Error("detail view should show the masked token")
	}

	m, _ = press(t, m, "esc")
	if m.viewState != ViewMain {
		t.Error("esc should return to the list")
	}
}

func TestHelpView(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	m, _ = press(t, m, "?")
	if m.viewState != ViewHelp {
		t.Fatalf("viewState = %v, want ViewHelp", m.viewState)
	}
	if !strings.Contains(m.View(), "快捷键帮助") {
		t.Error("help title missing")
	}
	m, _ = press(t, m, "esc")
	if m.viewState != ViewMain {
		t.Error("esc should close help")
	}
}

func TestQuit(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestScrolling(t *testing.T) {
	m, svc, _, _ := newTestModel(t)
	for i := 0; i < 20; i++ {
		addTestProvider(t, svc, fmt.Sprintf("provider-%02d", i), "https://example.com", fmt.Sprintf("tok-%d", i))
	}
	m = loaded(t, m, svc)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	m = next.(Model)
	visible := m.getVisibleListHeight()
	if visible != 5 {
		t.Fatalf("getVisibleListHeight() = %d, want 5", visible)
	}

	m, _ = press(t, m, "G")
	if m.cursor != 20 {
		t.Fatalf("cursor = %d, want 20", m.cursor)
	}
	if m.scrollOffset != 21-visible {
		t.Errorf("scrollOffset = %d, want %d", m.scrollOffset, 21-visible)
	}
	view := m.RenderMainView()
	if !strings.Contains(view, "↑ 还有") || !strings.Contains(view, "provider-19") {
		t.Error("bottom of the list should be visible with an up indicator")
	}

	m, _ = press(t, m, "g")
	if m.scrollOffset != 0 {
		t.Errorf("scrollOffset = %d after g", m.scrollOffset)
	}
}

func TestTokenWarning(t *testing.T) {
	other := models.NewProvider("Other", nil, "")
	tests := []struct {
		name  string
		check models.TokenCheck
		want  string
	}{
		{"unique", models.TokenCheck{Kind: models.TokenUnique}, ""},
		{"same url", models.TokenCheck{Kind: models.TokenDuplicateSameURL, Provider: &other}, "相同的 token 和 URL"},
		{"different url", models.TokenCheck{Kind: models.TokenDuplicateDifferentURL, Provider: &other}, "URL 不同"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenWarning(tt.check)
			if tt.want == "" && got != "" || !strings.Contains(got, tt.want) {
				t.Errorf("tokenWarning() = %q, want %q", got, tt.want)
			}
		})
	}
}
