package compatibility

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Event is one Server-Sent Event
type Event struct {
	Type  string
	Data  string
	ID    string
	Retry int
}

// kind returns the event type, falling back to the type field of the data
func (e Event) kind() string {
	if e.Type != "" {
		return e.Type
	}
	return gjson.Get(e.Data, "type").String()
}

// EventReader reads events off a text/event-stream body
type EventReader struct {
	r *bufio.Reader
}

// NewEventReader wraps r
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{r: bufio.NewReader(r)}
}

// Next returns the next event, or io.EOF once the stream is drained
func (er *EventReader) Next() (Event, error) {
	var ev Event
	seen := false
	for {
		line, err := er.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Event{}, fmt.Errorf("failed to read event stream: %w", err)
		}
		eof := err != nil
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if seen {
				return ev, nil
			}
			if eof {
				return Event{}, io.EOF
			}
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "":
			// comment
		case "event":
			ev.Type = value
			seen = true
		case "data":
			if ev.Data != "" {
				ev.Data += "\n"
			}
			ev.Data += value
			seen = true
		case "id":
			ev.ID = value
		case "retry":
			if n, err := strconv.Atoi(value); err == nil {
				ev.Retry = n
			}
		}

		if eof {
			if seen {
				return ev, nil
			}
			return Event{}, io.EOF
		}
	}
}

// StreamSummary describes a streamed Messages API response
type StreamSummary struct {
	Events    int
	Text      string
	Stopped   bool // message_stop seen
	Malformed []string
	Err       string // error event payload
}

// Valid reports whether the stream carried well formed events and no error
func (s StreamSummary) Valid() bool {
	return s.Events > 0 && len(s.Malformed) == 0 && s.Err == ""
}

// Summarize drains an event stream
func Summarize(r io.Reader) (StreamSummary, error) {
	var s StreamSummary
	var text strings.Builder
	er := NewEventReader(r)
	for {
		ev, err := er.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, err
		}
		s.Events++

		if ev.Data != "" && !gjson.Valid(ev.Data) {
			s.Malformed = append(s.Malformed, truncate(ev.Data, 60))
			continue
		}
		switch ev.kind() {
		case "message_stop":
			s.Stopped = true
		case "content_block_delta":
			text.WriteString(gjson.Get(ev.Data, "delta.text").String())
		case "error":
			s.Err = gjson.Get(ev.Data, "error.message").String()
			if s.Err == "" {
				s.Err = "error event"
			}
		}
	}
	s.Text = text.String()
	return s, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
