// Package compatibility probes a provider's endpoint with a tiny Messages API
// request to confirm Claude Code can talk to it before switching over.
package compatibility

import "time"

// Level summarises how well an endpoint behaved
type Level string

const (
	LevelFull    Level = "full"
	LevelPartial Level = "partial"
	LevelNone    Level = "none"
)

// Check is the outcome of a single step of a probe
type Check struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
	Critical bool   `json:"critical"`
}

// Result collects the checks of one probe run
type Result struct {
	Provider string        `json:"provider"`
	Endpoint string        `json:"endpoint"`
	Model    string        `json:"model"`
	Level    Level         `json:"level"`
	Checks   []Check       `json:"checks"`
	Latency  time.Duration `json:"-"`
	Error    string        `json:"error,omitempty"`

	// request/response bodies, kept for --verbose
	RequestBody  string `json:"-"`
	ResponseBody string `json:"-"`
}

// OK reports whether every check passed
func (r *Result) OK() bool { return r.Level == LevelFull }

func (r *Result) add(c Check) {
	r.Checks = append(r.Checks, c)
	r.Level = Grade(r.Checks)
}

func (r *Result) fail(name, msg string) {
	r.Error = msg
	r.add(Check{Name: name, Message: msg, Critical: true})
}

// Grade derives the level from a set of checks: any critical failure is
// none, only non-critical failures is partial.
func Grade(checks []Check) Level {
	if len(checks) == 0 {
		return LevelNone
	}
	level := LevelFull
	for _, c := range checks {
		if c.Passed {
			continue
		}
		if c.Critical {
			return LevelNone
		}
		level = LevelPartial
	}
	return level
}
