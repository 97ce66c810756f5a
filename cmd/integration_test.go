package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"claudeswap/config"
	syncpkg "claudeswap/config/sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"
)

// setupTestEnv points every claudeswap location into a temp directory and
// returns the Claude settings directory.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	claudeDir := filepath.Join(dir, ".claude")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("CLAUDESWAP_CLAUDE_DIR", claudeDir)
	t.Setenv("CLAUDESWAP_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("CLAUDESWAP_ACCESS", "")
	return claudeDir
}

// resetFlags restores every flag to its default between runs
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the command tree with stdin and returns the combined output
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	_, err := executeC()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func readClaudeSettings(t *testing.T, claudeDir string) gjson.Result {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(claudeDir, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	return gjson.ParseBytes(data)
}

func writeClaudeSettings(t *testing.T, claudeDir, content string) {
	t.Helper()
	if err := os.MkdirAll(claudeDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(claudeDir, "settings.json"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

type memClipboard struct {
	text string
}

func (c *memClipboard) ReadAll() (string, error) {
	if c.text == "" {
		return "", errors.New("clipboard empty")
	}
	return c.text, nil
}

func (c *memClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

func TestAddListAndSwitch(t *testing.T) {
	claudeDir := setupTestEnv(t)
	writeClaudeSettings(t, claudeDir, `{"model":"opus","env":{"KEEP_ME":"1"}}`)

	out := mustRun(t, "list")
	if !strings.Contains(out, "No providers available") {
		t.Errorf("empty list output = %q", out)
	}

	out = mustRun(t, "add", "--name", "Proxy", "--url", "https://proxy.example.com", "--token", "sk-proxy-123456",
		"-e", "ANTHROPIC_DEFAULT_OPUS_MODEL=proxy-opus")
	if !strings.Contains(out, "Added Proxy") {
		t.Errorf("add output = %q", out)
	}
	if s := readClaudeSettings(t, claudeDir); s.Get("env.ANTHROPIC_AUTH_TOKEN").Exists() {
		t.Error("add must not touch settings.json")
	}

	mustRun(t, "add", "--template", "DeepSeek", "--token", "sk-deep-123456", "--activate")
	s := readClaudeSettings(t, claudeDir)
	if got := s.Get("env.ANTHROPIC_AUTH_TOKEN").String(); got != "sk-deep-123456" {
		t.Errorf("token = %q", got)
	}
	if got := s.Get("env.API_TIMEOUT_MS"); got.Type != gjson.Number || got.Int() != 600000 {
		t.Errorf("API_TIMEOUT_MS = %s, want number 600000", got.Raw)
	}
	if s.Get("model").String() != "opus" || s.Get("env.KEEP_ME").String() != "1" {
		t.Error("unrelated settings must be preserved")
	}

	out = mustRun(t, "list")
	for _, want := range []string{"Proxy", "DeepSeek", "sk-d****3456"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "sk-deep-123456") {
		t.Error("list must mask tokens")
	}

	// switching removes the keys only the old provider had
	mustRun(t, "use", "proxy")
	s = readClaudeSettings(t, claudeDir)
	if s.Get("env.ANTHROPIC_BASE_URL").String() != "https://proxy.example.com" {
		t.Errorf("base URL = %q", s.Get("env.ANTHROPIC_BASE_URL").String())
	}
	if s.Get("env.API_TIMEOUT_MS").Exists() {
		t.Error("DeepSeek-only key should be removed")
	}
	if s.Get("env.ANTHROPIC_DEFAULT_OPUS_MODEL").String() != "proxy-opus" {
		t.Error("extra env value not written")
	}

	out = mustRun(t, "status")
	if !strings.Contains(out, "Active provider: Proxy") {
		t.Errorf("status output = %q", out)
	}

	mustRun(t, "use", "--default")
	s = readClaudeSettings(t, claudeDir)
	if s.Get("env.ANTHROPIC_AUTH_TOKEN").Exists() || s.Get("env.ANTHROPIC_DEFAULT_OPUS_MODEL").Exists() {
		t.Errorf("managed keys should be cleared: %s", s.Get("env").Raw)
	}
	if s.Get("env.KEEP_ME").String() != "1" {
		t.Error("unmanaged key removed")
	}
	out = mustRun(t, "status")
	if !strings.Contains(out, "default") {
		t.Errorf("status output = %q", out)
	}
}

func TestUseErrors(t *testing.T) {
	setupTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown provider", []string{"use", "nope"}},
		{"no argument", []string{"use"}},
		{"default with argument", []string{"use", "--default", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, "", tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := run(t, "", "use", "nope")
	if !errors.Is(err, config.ErrProviderNotFound) {
		t.Errorf("error = %v, want ErrProviderNotFound", err)
	}
}

func TestAddValidation(t *testing.T) {
	setupTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing token", []string{"add", "--name", "x", "--url", "https://x.example.com"}},
		{"missing url", []string{"add", "--name", "x", "--token", "t"}},
		{"bad url", []string{"add", "--name", "x", "--url", "notaurl", "--token", "t"}},
		{"unknown template", []string{"add", "--template", "Nope", "--token", "t"}},
		{"typed key", []string{"add", "--name", "x", "--url", "https://x.example.com", "--token", "t", "-e", "API_TIMEOUT_MS=soon"}},
		{"bad assignment", []string{"add", "--name", "x", "--url", "https://x.example.com", "--token", "t", "-e", "NOEQUALS"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, "", tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}

	out := mustRun(t, "list")
	if !strings.Contains(out, "No providers available") {
		t.Error("failed adds must not store anything")
	}
}

func TestAddDuplicateTokenWarns(t *testing.T) {
	setupTestEnv(t)
	mustRun(t, "add", "--name", "One", "--url", "https://one.example.com", "--token", "sk-shared")

	out := mustRun(t, "add", "--name", "Two", "--url", "https://two.example.com", "--token", "sk-shared")
	if !strings.Contains(out, `"One" uses this token with a different base URL`) {
		t.Errorf("output = %q", out)
	}
}

func TestEditAndRemoveActive(t *testing.T) {
	claudeDir := setupTestEnv(t)
	mustRun(t, "add", "--template", "DeepSeek", "--token", "sk-deep-123456", "--activate")

	mustRun(t, "edit", "DeepSeek", "--set", "API_TIMEOUT_MS=300000", "--unset", "ANTHROPIC_DEFAULT_OPUS_MODEL", "--name", "DS")
	s := readClaudeSettings(t, claudeDir)
	if s.Get("env.API_TIMEOUT_MS").Int() != 300000 {
		t.Errorf("API_TIMEOUT_MS = %s", s.Get("env.API_TIMEOUT_MS").Raw)
	}
	if s.Get("env.ANTHROPIC_DEFAULT_OPUS_MODEL").Exists() {
		t.Error("unset key should be removed from settings.json")
	}

	out := mustRun(t, "show", "DS")
	if !strings.Contains(out, "API_TIMEOUT_MS=300000") || strings.Contains(out, "sk-deep-123456") {
		t.Errorf("show output = %q", out)
	}
	out = mustRun(t, "show", "DS", "--reveal")
	if !strings.Contains(out, "sk-deep-123456") {
		t.Error("--reveal should print the token")
	}

	if _, err := run(t, "", "edit", "DS", "--set", "API_TIMEOUT_MS=soon"); err == nil {
		t.Error("typed key with a bad value should fail")
	}

	out = mustRun(t, "remove", "DS", "--yes")
	if !strings.Contains(out, "Switched to default credentials") {
		t.Errorf("remove output = %q", out)
	}
	s = readClaudeSettings(t, claudeDir)
	if s.Get("env.ANTHROPIC_AUTH_TOKEN").Exists() || s.Get("env.API_TIMEOUT_MS").Exists() {
		t.Errorf("settings should be cleared: %s", s.Get("env").Raw)
	}
}

func TestImportExport(t *testing.T) {
	setupTestEnv(t)
	payload := `{"env":{"ANTHROPIC_BASE_URL":"https://api.deepseek.com/anthropic","ANTHROPIC_AUTH_TOKEN":"sk-imported","API_TIMEOUT_MS":600000}}`

	out, err := run(t, payload, "import", "--file", "-")
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported DeepSeek") {
		t.Errorf("import output = %q", out)
	}

	out = mustRun(t, "export", "DeepSeek", "--file", "-")
	if !strings.Contains(out, `    "env": {`) || !strings.Contains(out, `"ANTHROPIC_AUTH_TOKEN": "sk-imported"`) {
		t.Errorf("export output = %q", out)
	}

	file := filepath.Join(t.TempDir(), "export.json")
	mustRun(t, "export", "DeepSeek", "--file", file)
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if gjson.GetBytes(data, "env.API_TIMEOUT_MS").Int() != 600000 {
		t.Errorf("exported file = %s", data)
	}

	if _, err := run(t, `{"env":{"ANTHROPIC_BASE_URL":"https://x.example.com"}}`, "import", "--file", "-"); err == nil {
		t.Error("import without token should fail")
	}
}

func TestClipboardCommands(t *testing.T) {
	setupTestEnv(t)
	cb := &memClipboard{}
	orig := clipboardFactory
	clipboardFactory = func() syncpkg.Clipboard { return cb }
	t.Cleanup(func() { clipboardFactory = orig })

	cb.text = `{"env":{"ANTHROPIC_BASE_URL":"https://proxy.example.com","ANTHROPIC_AUTH_TOKEN":"sk-clip"}}`
	out := mustRun(t, "import")
	if !strings.Contains(out, "Imported Custom") {
		t.Errorf("import output = %q", out)
	}

	cb.text = ""
	out = mustRun(t, "export", "Custom")
	if !strings.Contains(out, "Copied Custom") {
		t.Errorf("export output = %q", out)
	}
	if gjson.Get(cb.text, "env.ANTHROPIC_AUTH_TOKEN").String() != "sk-clip" {
		t.Errorf("clipboard = %q", cb.text)
	}
}

func TestSyncAndDetect(t *testing.T) {
	claudeDir := setupTestEnv(t)
	writeClaudeSettings(t, claudeDir, `{"env":{"ANTHROPIC_BASE_URL":"https://proxy.example.com","ANTHROPIC_AUTH_TOKEN":"sk-outside"}}`)

	out := mustRun(t, "sync")
	if !strings.Contains(out, "Active provider: Other") {
		t.Errorf("sync output = %q", out)
	}

	out = mustRun(t, "detect")
	if !strings.Contains(out, "No changes") {
		t.Errorf("detect output = %q", out)
	}

	writeClaudeSettings(t, claudeDir, `{"env":{}}`)
	out = mustRun(t, "detect")
	if !strings.Contains(out, "Using default credentials") {
		t.Errorf("detect output = %q", out)
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	setupTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rootCmd.SetContext(ctx)
	watchCmd.SetContext(ctx)
	t.Cleanup(func() {
		rootCmd.SetContext(context.Background())
		watchCmd.SetContext(context.Background())
	})

	out := mustRun(t, "watch")
	if !strings.Contains(out, "Watching") {
		t.Errorf("watch output = %q", out)
	}
}

func TestCatalogCommands(t *testing.T) {
	// no environment: these must not open the store
	t.Setenv("CLAUDESWAP_DATA_DIR", filepath.Join(t.TempDir(), "unused"))

	out := mustRun(t, "templates")
	for _, want := range []string{"DeepSeek", "Custom AI", "https://open.bigmodel.cn/api/anthropic"} {
		if !strings.Contains(out, want) {
			t.Errorf("templates output missing %q", want)
		}
	}

	out = mustRun(t, "keys")
	for _, want := range []string{"ANTHROPIC_AUTH_TOKEN", "API_TIMEOUT_MS", "integer", "DISABLE_TELEMETRY"} {
		if !strings.Contains(out, want) {
			t.Errorf("keys output missing %q", want)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	setupTestEnv(t)
	path := filepath.Join(t.TempDir(), "claudeswap.toml")

	out := mustRun(t, "config", "init", "--config", path)
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("init output = %q", out)
	}
	if _, err := run(t, "", "config", "init", "--config", path); err == nil {
		t.Error("init should refuse to overwrite without --force")
	}
	mustRun(t, "config", "init", "--config", path, "--force")

	out = mustRun(t, "config", "show", "--config", path)
	if !strings.Contains(out, "# source: "+path) || !strings.Contains(out, "access = ") {
		t.Errorf("show output = %q", out)
	}
}

func TestScopedAccess(t *testing.T) {
	claudeDir := setupTestEnv(t)
	t.Setenv("CLAUDESWAP_ACCESS", "scoped")
	writeClaudeSettings(t, claudeDir, `{}`)

	out := mustRun(t, "access", "status")
	if !strings.Contains(out, "no grant") {
		t.Errorf("status output = %q", out)
	}

	out, err := run(t, "", "use", "--default")
	if err == nil {
		t.Fatal("writing without a grant should fail")
	}
	if !strings.Contains(out, "claudeswap access grant") {
		t.Errorf("missing grant hint: %q", out)
	}

	mustRun(t, "access", "grant")
	out = mustRun(t, "access", "status")
	if !strings.Contains(out, "granted") {
		t.Errorf("status output = %q", out)
	}
	mustRun(t, "use", "--default")

	mustRun(t, "access", "revoke")
	if _, err := run(t, "", "use", "--default"); err == nil {
		t.Error("revoked grant should deny access")
	}
}

func TestAccessDirectMode(t *testing.T) {
	setupTestEnv(t)

	out := mustRun(t, "access", "status")
	if !strings.Contains(out, "direct") {
		t.Errorf("status output = %q", out)
	}
	if _, err := run(t, "", "access", "grant"); !errors.Is(err, errDirectAccess) {
		t.Errorf("grant error = %v, want errDirectAccess", err)
	}
}

func TestRootWithoutTerminalShowsHelp(t *testing.T) {
	setupTestEnv(t)
	out := mustRun(t)
	if !strings.Contains(out, "Available Commands") {
		t.Errorf("root output = %q", out)
	}
}

func TestCheckCommand(t *testing.T) {
	setupTestEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-good-123456" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`)
			return
		}
		fmt.Fprint(w, `{"model":"m1","content":[{"type":"text","text":"pong"}],"usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	_, err := run(t, "", "check")
	if err == nil || !strings.Contains(err.Error(), "no active provider") {
		t.Fatalf("check without active provider error = %v", err)
	}

	mustRun(t, "add", "--name", "Good", "--url", srv.URL, "--token", "sk-good-123456",
		"--env", "ANTHROPIC_DEFAULT_HAIKU_MODEL=m1", "--activate")
	mustRun(t, "add", "--name", "Bad", "--url", srv.URL, "--token", "sk-bad-1234567")

	out := mustRun(t, "check")
	if !strings.Contains(out, "compatible") || !strings.Contains(out, "Good") {
		t.Errorf("check output = %q", out)
	}

	out, err = run(t, "", "check", "Bad")
	if !errors.Is(err, errCheckFailed) {
		t.Fatalf("check Bad error = %v", err)
	}
	if !strings.Contains(out, "bad key") {
		t.Errorf("check Bad output = %q", out)
	}

	out, _ = run(t, "", "check", "--all", "--json")
	doc := gjson.Parse(out)
	if doc.Get("#").Int() != 2 {
		t.Fatalf("check --all --json = %q", out)
	}
	levels := doc.Get("#.level").Array()
	if levels[0].String() == levels[1].String() {
		t.Errorf("expected one passing and one failing provider, got %s", doc.Get("#.level").Raw)
	}
}
