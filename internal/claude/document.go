package claude

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// Document is the raw content of settings.json. Edits touch only the env
// object so every other key keeps its original value and order.
type Document struct {
	raw []byte
}

// ParseDocument validates data as a JSON object. Empty input is an empty object.
func ParseDocument(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &Document{raw: []byte("{}")}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrDecode)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrDecode)
	}
	return &Document{raw: bytes.Clone(data)}, nil
}

// EmptyDocument returns a document holding {}
func EmptyDocument() *Document {
	return &Document{raw: []byte("{}")}
}

// Env returns the env object, or a non-existent result when absent
func (d *Document) Env() gjson.Result {
	return gjson.GetBytes(d.raw, "env")
}

// Get looks up a top-level key
func (d *Document) Get(key string) gjson.Result {
	return gjson.GetBytes(d.raw, gjson.Escape(key))
}

// ApplyEnv deletes the remove keys from env, then sets each entry of set.
// A missing or non-object env is replaced with an object when anything is set.
func (d *Document) ApplyEnv(remove []string, set map[string]any) error {
	raw := d.raw
	var err error

	env := d.Env()
	if len(set) > 0 && !env.IsObject() {
		if raw, err = sjson.SetRawBytes(raw, "env", []byte("{}")); err != nil {
			return fmt.Errorf("failed to create env object: %w", err)
		}
	}

	if env.IsObject() {
		for _, key := range remove {
			if !env.Get(gjson.Escape(key)).Exists() {
				continue
			}
			if raw, err = sjson.DeleteBytes(raw, envPath(key)); err != nil {
				return fmt.Errorf("failed to remove env.%s: %w", key, err)
			}
		}
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if raw, err = sjson.SetBytes(raw, envPath(key), set[key]); err != nil {
			return fmt.Errorf("failed to set env.%s: %w", key, err)
		}
	}

	d.raw = raw
	return nil
}

// Bytes returns the document pretty-printed with two-space indentation
func (d *Document) Bytes() []byte {
	return pretty.PrettyOptions(d.raw, prettyOptions)
}

// Raw returns the document without reformatting
func (d *Document) Raw() []byte {
	return d.raw
}

func envPath(key string) string {
	return "env." + gjson.Escape(key)
}
