package claude

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"claudeswap/config/storage"
)

// SettingsFile is the name of the settings file inside the settings directory
const SettingsFile = "settings.json"

// Gateway reads and writes settings.json. Every operation acquires an
// access grant first and releases it on return.
//
// Update serializes claudeswap processes through a lock file. Editors and
// the assistant itself do not take that lock, so a write from them between
// our read and rename is lost; the next external-change detection picks
// up whatever ends up on disk.
type Gateway struct {
	dir      string
	path     string
	lockPath string
	backups  *storage.BackupManager
	access   Access
	logger   *slog.Logger

	writeFile func(path string, data []byte, perm os.FileMode) error
}

// Option configures a Gateway
type Option func(*Gateway)

// WithAccess sets the access capability (DirectAccess by default)
func WithAccess(a Access) Option {
	return func(g *Gateway) { g.access = a }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithLockPath enables cross-process locking on Update
func WithLockPath(path string) Option {
	return func(g *Gateway) { g.lockPath = path }
}

// NewGateway creates a Gateway for dir/settings.json
func NewGateway(dir string, opts ...Option) *Gateway {
	path := filepath.Join(dir, SettingsFile)
	g := &Gateway{
		dir:       dir,
		path:      path,
		backups:   storage.NewBackupManager(path),
		access:    DirectAccess{},
		logger:    slog.New(slog.DiscardHandler),
		writeFile: storage.AtomicWrite,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dir returns the settings directory
func (g *Gateway) Dir() string { return g.dir }

// Path returns the settings file path
func (g *Gateway) Path() string { return g.path }

// BackupPath returns the one-generation backup path
func (g *Gateway) BackupPath() string { return g.backups.Path() }

// Read returns the current document, creating the directory and an empty
// file when they do not exist yet.
func (g *Gateway) Read() (*Document, error) {
	grant, err := g.access.Acquire(g.dir)
	if err != nil {
		return nil, err
	}
	defer g.access.Release(grant)

	return g.read()
}

// Write backs up the current file and replaces it with doc. On failure the
// backup is copied back and ErrIO is returned.
func (g *Gateway) Write(doc *Document) error {
	grant, err := g.access.Acquire(g.dir)
	if err != nil {
		return err
	}
	defer g.access.Release(grant)

	return g.write(doc)
}

// Update runs a read-modify-write cycle under one grant and the process lock.
// A malformed file is treated as empty; its contents survive in the backup.
func (g *Gateway) Update(fn func(*Document) error) error {
	grant, err := g.access.Acquire(g.dir)
	if err != nil {
		return err
	}
	defer g.access.Release(grant)

	update := func() error {
		doc, err := g.read()
		if errors.Is(err, ErrDecode) {
			g.logger.Warn("settings file is malformed, rewriting from empty", "path", g.path, "error", err)
			doc = EmptyDocument()
		} else if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return g.write(doc)
	}
	if g.lockPath == "" {
		return update()
	}
	return storage.WithLock(g.lockPath, update)
}

func (g *Gateway) read() (*Document, error) {
	if err := storage.EnsureFile(g.path, []byte("{}\n")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	data, err := os.ReadFile(g.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.path, err)
	}
	return doc, nil
}

func (g *Gateway) write(doc *Document) error {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := g.backups.Backup(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := g.writeFile(g.path, doc.Bytes(), 0600); err != nil {
		if rerr := g.backups.Restore(); rerr != nil {
			g.logger.Error("failed to restore settings from backup", "path", g.path, "error", rerr)
		} else {
			g.logger.Warn("settings write failed, restored backup", "path", g.path)
		}
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
