package compatibility

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Reporter writes probe results as text or JSON
type Reporter struct {
	w       io.Writer
	json    bool
	verbose bool
}

// ReporterOption configures a Reporter
type ReporterOption func(*Reporter)

// AsJSON switches the output to JSON
func AsJSON(on bool) ReporterOption {
	return func(r *Reporter) { r.json = on }
}

// Verbose includes request and response bodies
func Verbose(on bool) ReporterOption {
	return func(r *Reporter) { r.verbose = on }
}

// NewReporter creates a reporter writing to w
func NewReporter(w io.Writer, opts ...ReporterOption) *Reporter {
	r := &Reporter{w: w}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type jsonReport struct {
	*Result
	LatencyMs    int64  `json:"latencyMs"`
	RequestBody  string `json:"requestBody,omitempty"`
	ResponseBody string `json:"responseBody,omitempty"`
}

// Report writes the results, one block per provider
func (r *Reporter) Report(results ...*Result) error {
	if r.json {
		out := make([]jsonReport, 0, len(results))
		for _, res := range results {
			jr := jsonReport{Result: res, LatencyMs: res.Latency.Milliseconds()}
			if r.verbose {
				jr.RequestBody = res.RequestBody
				jr.ResponseBody = res.ResponseBody
			}
			out = append(out, jr)
		}
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		if len(out) == 1 {
			return enc.Encode(out[0])
		}
		return enc.Encode(out)
	}

	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		r.writeText(&b, res)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Reporter) writeText(b *strings.Builder, res *Result) {
	fmt.Fprintf(b, "%s %s\n", verdict(res.Level), res.Provider)
	fmt.Fprintf(b, "  %s\n", dimStyle.Render(fmt.Sprintf("%s  model=%s  %dms", res.Endpoint, res.Model, res.Latency.Milliseconds())))
	for _, c := range res.Checks {
		mark := passStyle.Render("✓")
		switch {
		case c.Passed:
		case c.Critical:
			mark = failStyle.Render("✗")
		default:
			mark = warnStyle.Render("!")
		}
		fmt.Fprintf(b, "  %s %s: %s\n", mark, c.Name, c.Message)
	}
	if r.verbose {
		if res.RequestBody != "" {
			fmt.Fprintf(b, "  request:  %s\n", res.RequestBody)
		}
		if res.ResponseBody != "" {
			fmt.Fprintf(b, "  response: %s\n", truncate(res.ResponseBody, 500))
		}
	}
}

func verdict(l Level) string {
	switch l {
	case LevelFull:
		return passStyle.Render("✓ compatible")
	case LevelPartial:
		return warnStyle.Render("! partially compatible")
	}
	return failStyle.Render("✗ not compatible")
}
