package compatibility

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"claudeswap/config/models"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// DefaultModel is used when the provider pins no model
	DefaultModel = "claude-3-5-haiku-latest"

	// DefaultBaseURL is where Claude Code goes without ANTHROPIC_BASE_URL
	DefaultBaseURL = "https://api.anthropic.com"

	DefaultTimeout = 30 * time.Second

	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"
	maxBodyBytes     = 1 << 20
)

// modelKeys are consulted in order when picking the probe model
var modelKeys = []string{
	"ANTHROPIC_MODEL",
	"ANTHROPIC_SMALL_FAST_MODEL",
	models.KeyHaikuModel,
	models.KeySonnetModel,
	models.KeyOpusModel,
}

// Prober sends probe requests
type Prober struct {
	client *http.Client
	model  string
	logger *slog.Logger
}

// Option configures a Prober
type Option func(*Prober)

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) {
		if c != nil {
			p.client = c
		}
	}
}

// WithModel forces the probe model
func WithModel(model string) Option {
	return func(p *Prober) {
		p.model = model
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Prober
func New(opts ...Option) *Prober {
	p := &Prober{
		client: &http.Client{Timeout: DefaultTimeout},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ModelFor returns the model a probe of provider would use
func (p *Prober) ModelFor(provider models.Provider) string {
	if p.model != "" {
		return p.model
	}
	for _, k := range modelKeys {
		if m := strings.TrimSpace(provider.EnvVariables.Get(k)); m != "" {
			return m
		}
	}
	return DefaultModel
}

// Endpoint returns the Messages API URL for provider
func Endpoint(provider models.Provider) string {
	base := strings.TrimSpace(provider.BaseURL())
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, messagesPath) {
		return base
	}
	return base + messagesPath
}

// requestBody builds the minimal Messages API payload
func requestBody(model string, stream bool) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			body, err = sjson.SetBytes(body, path, v)
		}
	}
	set("model", model)
	set("max_tokens", 16)
	set("messages.0.role", "user")
	set("messages.0.content", "ping")
	if stream {
		set("stream", true)
	}
	return body, err
}

// newRequest builds the probe request carrying the headers Claude Code sends
func newRequest(ctx context.Context, provider models.Provider, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint(provider), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", anthropicVersion)
	if token := provider.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("x-api-key", token)
	}
	return req, nil
}

// Probe sends a request to the provider's endpoint and grades the answer.
// Transport problems are reported as failed checks, not as an error.
func (p *Prober) Probe(ctx context.Context, provider models.Provider, stream bool) *Result {
	res := &Result{
		Provider: provider.Name,
		Endpoint: Endpoint(provider),
		Model:    p.ModelFor(provider),
		Level:    LevelNone,
	}
	prefix := ""
	if stream {
		prefix = "Streaming "
	}

	if provider.Token() == "" {
		res.fail("Configuration", "provider has no "+models.KeyAuthToken)
		return res
	}

	body, err := requestBody(res.Model, stream)
	if err == nil {
		res.RequestBody = string(body)
		var req *http.Request
		req, err = newRequest(ctx, provider, body)
		if err == nil {
			return p.send(req, res, prefix, stream)
		}
	}
	res.fail(prefix+"Request", fmt.Sprintf("failed to build request: %v", err))
	return res
}

func (p *Prober) send(req *http.Request, res *Result, prefix string, stream bool) *Result {
	p.logger.Debug("probing endpoint", "provider", res.Provider, "url", res.Endpoint, "model", res.Model, "stream", stream)

	start := time.Now()
	resp, err := p.client.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		msg := CategoryNetwork.Message()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "Request timed out"
		}
		res.fail(prefix+"Connection", fmt.Sprintf("%s: %v", msg, err))
		return res
	}
	defer resp.Body.Close()

	res.add(Check{
		Name:     prefix + "Connection",
		Passed:   true,
		Message:  fmt.Sprintf("HTTP %d in %dms", resp.StatusCode, res.Latency.Milliseconds()),
		Critical: true,
	})

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		res.ResponseBody = string(data)
		cat := Categorize(resp.StatusCode, data)
		msg := cat.Message()
		if detail := errorDetail(data); detail != "" {
			msg += ": " + detail
		}
		res.Error = msg
		res.add(Check{Name: prefix + "Response", Message: msg, Critical: cat.blocking()})
		p.logger.Debug("probe failed", "status", resp.StatusCode, "category", cat)
		return res
	}

	if stream {
		return p.gradeStream(resp, res)
	}
	return p.gradeMessage(resp, res)
}

// gradeMessage checks a non-streamed Messages API response
func (p *Prober) gradeMessage(resp *http.Response, res *Result) *Result {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res.fail("Response", fmt.Sprintf("failed to read response: %v", err))
		return res
	}
	res.ResponseBody = string(data)

	if missing := missingFields(data); len(missing) > 0 {
		res.Error = CategoryFormat.Message()
		res.add(Check{
			Name:     "Response Format",
			Message:  "missing or malformed: " + strings.Join(missing, ", "),
			Critical: true,
		})
		return res
	}
	res.add(Check{Name: "Response Format", Passed: true, Message: "Messages API response", Critical: true})

	// 代理返回的模型名常被改写，不算致命
	got := gjson.GetBytes(data, "model").String()
	res.add(Check{
		Name:    "Model",
		Passed:  got == res.Model,
		Message: fmt.Sprintf("requested %s, served by %s", res.Model, got),
	})
	return res
}

// missingFields lists the required fields a Messages response lacks
func missingFields(data []byte) []string {
	if !gjson.ValidBytes(data) {
		return []string{"valid JSON"}
	}
	doc := gjson.ParseBytes(data)
	var missing []string
	content := doc.Get("content")
	if !content.IsArray() || len(content.Array()) == 0 {
		missing = append(missing, "content")
	} else {
		for i, block := range content.Array() {
			if !block.Get("type").Exists() {
				missing = append(missing, fmt.Sprintf("content.%d.type", i))
			}
		}
	}
	if doc.Get("model").String() == "" {
		missing = append(missing, "model")
	}
	for _, f := range []string{"usage.input_tokens", "usage.output_tokens"} {
		if !doc.Get(f).Exists() {
			missing = append(missing, f)
		}
	}
	return missing
}

// gradeStream checks an event stream response
func (p *Prober) gradeStream(resp *http.Response, res *Result) *Result {
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		res.add(Check{Name: "Content Type", Message: fmt.Sprintf("expected text/event-stream, got %q", ct)})
	}

	s, err := Summarize(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res.fail("Event Stream", err.Error())
		return res
	}
	res.ResponseBody = s.Text

	switch {
	case s.Err != "":
		res.Error = s.Err
		res.add(Check{Name: "Event Stream", Message: "stream reported an error: " + s.Err, Critical: true})
	case s.Events == 0:
		res.add(Check{Name: "Event Stream", Message: "no events received", Critical: true})
	case len(s.Malformed) > 0:
		res.add(Check{Name: "Event Stream", Message: "malformed events: " + strings.Join(s.Malformed, "; "), Critical: true})
	default:
		res.add(Check{Name: "Event Stream", Passed: true, Message: fmt.Sprintf("%d events", s.Events), Critical: true})
	}

	done := Check{Name: "Completion", Passed: true, Message: "message_stop received"}
	if !s.Stopped {
		done.Passed = false
		done.Message = "stream ended without message_stop"
	}
	res.add(done)
	return res
}
