package compatibility

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/tidwall/gjson"
)

func TestGradeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	checkGen := gopter.CombineGens(gen.Bool(), gen.Bool()).Map(func(v []interface{}) Check {
		return Check{Passed: v[0].(bool), Critical: v[1].(bool)}
	})

	properties.Property("critical failure always grades none", prop.ForAll(
		func(checks []Check) bool {
			checks = append(checks, Check{Critical: true})
			return Grade(checks) == LevelNone
		},
		gen.SliceOf(checkGen),
	))

	properties.Property("all passed grades full", prop.ForAll(
		func(checks []Check) bool {
			for i := range checks {
				checks[i].Passed = true
			}
			return len(checks) == 0 || Grade(checks) == LevelFull
		},
		gen.SliceOf(checkGen),
	))

	properties.Property("only soft failures grade partial", prop.ForAll(
		func(checks []Check) bool {
			for i := range checks {
				checks[i].Critical = false
			}
			checks = append(checks, Check{})
			return Grade(checks) == LevelPartial
		},
		gen.SliceOf(checkGen),
	))

	properties.TestingRun(t)
}

func TestGradeEmpty(t *testing.T) {
	if got := Grade(nil); got != LevelNone {
		t.Errorf("Grade(nil) = %s", got)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Category
	}{
		{"401", http.StatusUnauthorized, "", CategoryAuth},
		{"403", http.StatusForbidden, "forbidden", CategoryAuth},
		{"error type wins", http.StatusBadRequest, `{"error":{"type":"authentication_error"}}`, CategoryAuth},
		{"404 model", http.StatusNotFound, `{"error":{"message":"model glm-5 does not exist"}}`, CategoryModelNotFound},
		{"404 path", http.StatusNotFound, "404 page not found", CategoryEndpointNotFound},
		{"400 model", http.StatusBadRequest, `{"error":{"message":"Unknown Model"}}`, CategoryModelNotFound},
		{"400 other", http.StatusBadRequest, `{"error":{"message":"max_tokens too large"}}`, CategoryBadRequest},
		{"429", http.StatusTooManyRequests, "", CategoryRateLimit},
		{"529", 529, "", CategoryOverloaded},
		{"overloaded type", http.StatusServiceUnavailable, `{"error":{"type":"overloaded_error"}}`, CategoryOverloaded},
		{"500", http.StatusInternalServerError, "", CategoryServer},
		{"200", http.StatusOK, "", CategoryFormat},
		{"418", http.StatusTeapot, "", CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.status, []byte(tt.body)); got != tt.want {
				t.Errorf("Categorize(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestCategoryMessage(t *testing.T) {
	if Category("nope").Message() != CategoryUnknown.Message() {
		t.Error("unknown categories should fall back to the generic message")
	}
	if CategoryRateLimit.blocking() || !CategoryAuth.blocking() {
		t.Error("rate limits are transient, auth failures are not")
	}
}

func TestEventReader(t *testing.T) {
	stream := ": keep-alive\n" +
		"event: ping\n" +
		"id: 7\n" +
		"retry: 1500\n" +
		"data: {\"a\":1}\n" +
		"data: {\"b\":2}\n" +
		"\r\n" +
		"data:{\"type\":\"message_stop\"}" // no trailing newline

	er := NewEventReader(strings.NewReader(stream))

	ev, err := er.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if ev.Type != "ping" || ev.ID != "7" || ev.Retry != 1500 {
		t.Errorf("event = %+v", ev)
	}
	if ev.Data != "{\"a\":1}\n{\"b\":2}" {
		t.Errorf("Data = %q", ev.Data)
	}

	ev, err = er.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if ev.kind() != "message_stop" {
		t.Errorf("kind() = %q", ev.kind())
	}

	if _, err := er.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(strings.NewReader(okStream))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Events != 4 || !s.Stopped || s.Text != "pong" || !s.Valid() {
		t.Errorf("summary = %+v", s)
	}
}

func sampleResult() *Result {
	return &Result{
		Provider: "Zhipu AI",
		Endpoint: "https://open.bigmodel.cn/api/anthropic/v1/messages",
		Model:    "glm-4.6",
		Level:    LevelPartial,
		Latency:  420 * time.Millisecond,
		Checks: []Check{
			{Name: "Connection", Passed: true, Message: "HTTP 200 in 420ms", Critical: true},
			{Name: "Model", Message: "requested glm-4.6, served by glm-4.5"},
		},
		RequestBody:  `{"model":"glm-4.6"}`,
		ResponseBody: `{"model":"glm-4.5"}`,
	}
}

func TestReporterText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReporter(&buf).Report(sampleResult()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"partially compatible", "Zhipu AI", "model=glm-4.6", "420ms", "Connection: HTTP 200", "Model: requested"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "request:") {
		t.Error("bodies should only be printed when verbose")
	}

	buf.Reset()
	_ = NewReporter(&buf, Verbose(true)).Report(sampleResult())
	if !strings.Contains(buf.String(), `request:  {"model":"glm-4.6"}`) {
		t.Errorf("verbose output missing request body:\n%s", buf.String())
	}
}

func TestReporterJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReporter(&buf, AsJSON(true)).Report(sampleResult()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	doc := gjson.Parse(buf.String())
	if doc.Get("level").String() != "partial" || doc.Get("latencyMs").Int() != 420 {
		t.Errorf("json = %s", buf.String())
	}
	if doc.Get("checks.#").Int() != 2 || doc.Get("checks.1.critical").Bool() {
		t.Errorf("checks = %s", doc.Get("checks").Raw)
	}
	if doc.Get("requestBody").Exists() {
		t.Error("requestBody should be omitted without verbose")
	}

	buf.Reset()
	_ = NewReporter(&buf, AsJSON(true)).Report(sampleResult(), sampleResult())
	if n := gjson.Get(buf.String(), "#").Int(); n != 2 {
		t.Errorf("multiple results should encode as an array, got %d", n)
	}
}
