// Package envcodec converts between the JSON env object of settings.json and
// typed provider environment maps.
package envcodec

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"claudeswap/config/models"
	"github.com/tidwall/gjson"
)

// CoercionWarning records a value that could not be read as its declared type.
// The value is kept as a string.
type CoercionWarning struct {
	Key   string
	Value string
	Want  models.EnvType
}

func (w CoercionWarning) String() string {
	return fmt.Sprintf("%s: %q is not a valid %s, stored as string", w.Key, w.Value, w.Want)
}

// Codec decodes and encodes env objects. Coercion warnings go to the logger.
type Codec struct {
	logger *slog.Logger
}

// New creates a Codec; a nil logger discards warnings
func New(logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Codec{logger: logger}
}

// Decode reads a JSON env object into a typed map. Non-object input yields an empty map.
func (c *Codec) Decode(env gjson.Result) models.EnvMap {
	m, warnings := DecodeWithWarnings(env)
	for _, w := range warnings {
		c.logger.Warn("env value type mismatch", "key", w.Key, "want", string(w.Want))
	}
	return m
}

// DecodeJSON parses raw env JSON
func (c *Codec) DecodeJSON(data []byte) (models.EnvMap, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("env is not valid JSON")
	}
	result := gjson.ParseBytes(data)
	if !result.IsObject() {
		return nil, fmt.Errorf("env must be a JSON object")
	}
	return c.Decode(result), nil
}

// DecodeWithWarnings is Decode without logging
func DecodeWithWarnings(env gjson.Result) (models.EnvMap, []CoercionWarning) {
	m := models.EnvMap{}
	var warnings []CoercionWarning
	if !env.IsObject() {
		return m, nil
	}

	env.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		raw := scalarString(value)

		declared, known := TypeOf(name)
		if !known {
			m[name] = models.EnvValue{Value: raw, Type: inferType(value)}
			return true
		}

		v, ok := coerce(raw, declared)
		if !ok {
			warnings = append(warnings, CoercionWarning{Key: name, Value: raw, Want: declared})
		}
		m[name] = v
		return true
	})
	return m, warnings
}

// Encode converts a typed map into values ready for the JSON env object.
// Booleans are written as 1/0. Only keys declared boolean in the known key
// tables decode back as booleans; a boolean on a custom key comes back as
// the integer 1 or 0.
func (c *Codec) Encode(m models.EnvMap) map[string]any {
	out := make(map[string]any, len(m))
	for key, v := range m {
		switch v.Type {
		case models.TypeInteger:
			n, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
			if err != nil {
				c.logger.Warn("integer env value is not numeric, writing as string", "key", key)
				out[key] = v.Value
				continue
			}
			out[key] = n
		case models.TypeBoolean:
			if v.Value == "1" || strings.EqualFold(v.Value, "true") {
				out[key] = 1
			} else {
				out[key] = 0
			}
		default:
			out[key] = v.Value
		}
	}
	return out
}

// EncodeJSON renders the encoded map as a compact JSON object with sorted keys
func (c *Codec) EncodeJSON(m models.EnvMap) ([]byte, error) {
	data, err := json.Marshal(c.Encode(m))
	if err != nil {
		return nil, fmt.Errorf("failed to encode env: %w", err)
	}
	return data, nil
}

// scalarString stringifies a native JSON value. Numbers keep their literal
// form, booleans become "1"/"0", null becomes "".
func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	case gjson.True:
		return "1"
	case gjson.False:
		return "0"
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}

func inferType(v gjson.Result) models.EnvType {
	switch v.Type {
	case gjson.Number:
		if _, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return models.TypeInteger
		}
		return models.TypeString
	case gjson.True, gjson.False:
		return models.TypeBoolean
	default:
		return models.TypeString
	}
}

// coerce normalizes raw to the declared type. ok is false when the value
// had to fall back to a string.
func coerce(raw string, declared models.EnvType) (models.EnvValue, bool) {
	switch declared {
	case models.TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			// 3e5 or 300000.0 still count when integral
			f, ferr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if ferr != nil || f != float64(int64(f)) {
				return models.String(raw), false
			}
			n = int64(f)
		}
		return models.Integer(n), true
	case models.TypeBoolean:
		b, ok := models.ParseBool(raw)
		if !ok {
			return models.String(raw), false
		}
		return models.Boolean(b), true
	default:
		return models.String(raw), true
	}
}

// ParseValue types a raw string typed on the command line. Recognized keys
// must satisfy their declared type; other keys are stored as strings.
func ParseValue(key, raw string) (models.EnvValue, error) {
	declared, ok := TypeOf(key)
	if !ok {
		return models.String(raw), nil
	}
	v, ok := coerce(raw, declared)
	if !ok {
		return models.EnvValue{}, fmt.Errorf("%s expects %s, got %q", key, declared, raw)
	}
	return v, nil
}
