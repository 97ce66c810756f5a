package claude

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"claudeswap/config/storage"
)

// GrantKey is the preference key holding the persisted access grant
const GrantKey = "claude_settings_grant"

// Grant is a short-lived authorization to touch files under Dir
type Grant struct {
	Dir string
}

// Access hands out grants for the settings directory. Every successful
// Acquire must be paired with a Release.
type Access interface {
	Acquire(dir string) (Grant, error)
	Release(Grant)
}

// DirectAccess always grants; plain file permissions decide the outcome
type DirectAccess struct{}

func (DirectAccess) Acquire(dir string) (Grant, error) { return Grant{Dir: dir}, nil }
func (DirectAccess) Release(Grant)                     {}

// GrantRecord is the persisted form of a user's access approval
type GrantRecord struct {
	Dir       string    `json:"dir"`
	GrantedAt time.Time `json:"granted_at"`
}

// ScopedAccess only grants access to a directory the user approved
// explicitly through RequestAccess.
type ScopedAccess struct {
	prefs  storage.Preferences
	logger *slog.Logger

	mu   sync.Mutex
	held int
}

// NewScopedAccess creates a ScopedAccess backed by prefs
func NewScopedAccess(prefs storage.Preferences, logger *slog.Logger) *ScopedAccess {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ScopedAccess{prefs: prefs, logger: logger}
}

// Acquire checks the stored grant. A missing grant, a grant for another
// directory, or a directory that no longer exists yields ErrPermissionDenied.
func (a *ScopedAccess) Acquire(dir string) (Grant, error) {
	record, ok, err := a.Status()
	if err != nil {
		return Grant{}, err
	}
	if !ok {
		return Grant{}, ErrPermissionDenied
	}
	if filepath.Clean(record.Dir) != filepath.Clean(dir) {
		a.logger.Warn("stale access grant", "granted", record.Dir, "requested", dir)
		return Grant{}, fmt.Errorf("%w: grant covers %s", ErrPermissionDenied, record.Dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		a.logger.Warn("granted directory is no longer accessible", "dir", dir)
		return Grant{}, fmt.Errorf("%w: %s is not accessible", ErrPermissionDenied, dir)
	}

	a.mu.Lock()
	a.held++
	a.mu.Unlock()
	return Grant{Dir: dir}, nil
}

// Release ends a grant obtained from Acquire
func (a *ScopedAccess) Release(g Grant) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held == 0 {
		a.logger.Warn("release without matching acquire", "dir", g.Dir)
		return
	}
	a.held--
}

// Held returns the number of outstanding grants
func (a *ScopedAccess) Held() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.held
}

// RequestAccess records the user's approval for dir. Only a directory
// named .claude is accepted; it is created when missing.
func (a *ScopedAccess) RequestAccess(dir string) error {
	dir = filepath.Clean(dir)
	if filepath.Base(dir) != ".claude" {
		return fmt.Errorf("please select the .claude directory, got %s", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: cannot create %s: %v", ErrIO, dir, err)
	}
	record := GrantRecord{Dir: dir, GrantedAt: time.Now().UTC()}
	if err := a.prefs.Set(GrantKey, record); err != nil {
		return fmt.Errorf("failed to save access grant: %w", err)
	}
	a.logger.Info("access granted", "dir", dir)
	return nil
}

// Revoke forgets the stored grant
func (a *ScopedAccess) Revoke() error {
	return a.prefs.Delete(GrantKey)
}

// Status returns the stored grant, if any
func (a *ScopedAccess) Status() (GrantRecord, bool, error) {
	var record GrantRecord
	ok, err := a.prefs.Get(GrantKey, &record)
	if err != nil {
		return GrantRecord{}, false, fmt.Errorf("failed to load access grant: %w", err)
	}
	if !ok || record.Dir == "" {
		return GrantRecord{}, false, nil
	}
	return record, true, nil
}

// IsPermissionDenied reports whether err stems from a missing grant
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
