package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Preferences is a small persistent key/value store. Values are JSON encoded.
type Preferences interface {
	// Get decodes the value stored under key into v and reports whether it existed
	Get(key string, v any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
	Close() error
}

// JSONPreferences keeps all keys in one JSON object on disk. Access is
// serialized in-process by a mutex and across processes by a lock file.
type JSONPreferences struct {
	path     string
	lockPath string
	mu       sync.Mutex
}

// NewJSONPreferences creates a JSON file backed store at path
func NewJSONPreferences(path string) *JSONPreferences {
	return &JSONPreferences{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Path returns the backing file path
func (p *JSONPreferences) Path() string {
	return p.path
}

func (p *JSONPreferences) Get(key string, v any) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, err := AcquireLock(p.lockPath, false)
	if err != nil {
		return false, err
	}
	defer lock.Release()

	values, err := p.load()
	if err != nil {
		return false, err
	}
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode preference %q: %w", key, err)
	}
	return true, nil
}

func (p *JSONPreferences) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode preference %q: %w", key, err)
	}
	return p.modify(func(values map[string]json.RawMessage) {
		values[key] = raw
	})
}

func (p *JSONPreferences) Delete(key string) error {
	return p.modify(func(values map[string]json.RawMessage) {
		delete(values, key)
	})
}

// Close is a no-op; the file is opened per operation
func (p *JSONPreferences) Close() error {
	return nil
}

func (p *JSONPreferences) modify(fn func(map[string]json.RawMessage)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return WithLock(p.lockPath, func() error {
		values, err := p.load()
		if err != nil {
			return err
		}
		fn(values)

		data, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode preferences: %w", err)
		}
		if err := AtomicWrite(p.path, data, 0600); err != nil {
			return fmt.Errorf("failed to save preferences: %w", err)
		}
		return nil
	})
}

// load reads the file; a missing or empty file is an empty store
func (p *JSONPreferences) load() (map[string]json.RawMessage, error) {
	values := map[string]json.RawMessage{}
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("preferences file %s is corrupted: %w", p.path, err)
	}
	return values, nil
}
