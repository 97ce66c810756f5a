// Package sync keeps the provider store and the env object of
// settings.json consistent with each other.
package sync

import (
	"fmt"
	"log/slog"

	"claudeswap/config"
	"claudeswap/config/models"
	"claudeswap/internal/claude"
	"claudeswap/internal/envcodec"
	"claudeswap/internal/logging"
	"claudeswap/internal/providers"

	"github.com/google/uuid"
)

// OtherName names providers imported from a settings file that matches no template
const OtherName = "Other"

// Settings is the part of claude.Gateway the service needs
type Settings interface {
	Read() (*claude.Document, error)
	Update(fn func(*claude.Document) error) error
}

// Service reconciles three sources of truth: the store's active flag, the
// remembered last active id, and the live env of settings.json.
type Service struct {
	settings Settings
	store    *config.Store
	codec    *envcodec.Codec
	logger   *slog.Logger
	changes  chan struct{}
}

// NewService wires the service. A nil logger discards output.
func NewService(settings Settings, store *config.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		settings: settings,
		store:    store,
		codec:    envcodec.New(logger),
		logger:   logger,
		changes:  make(chan struct{}, 1),
	}
}

// Changes delivers a signal after any state change. Signals coalesce.
func (s *Service) Changes() <-chan struct{} {
	return s.changes
}

func (s *Service) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Providers returns the stored providers in order
func (s *Service) Providers() []models.Provider {
	return s.store.Providers()
}

// ActiveProvider returns the active provider, if any
func (s *Service) ActiveProvider() (models.Provider, bool) {
	return s.store.ActiveProvider()
}

// CheckTokenDuplicate forwards to the store
func (s *Service) CheckTokenDuplicate(token, baseURL string, excluding *uuid.UUID) models.TokenCheck {
	return s.store.CheckTokenDuplicate(token, baseURL, excluding)
}

// CurrentEnv decodes the env object of settings.json. Read failures other
// than ErrPermissionDenied are logged and yield an empty env.
func (s *Service) CurrentEnv() (models.EnvMap, error) {
	doc, err := s.settings.Read()
	if err != nil {
		if claude.IsPermissionDenied(err) {
			return nil, err
		}
		s.logger.Warn("failed to read settings, using empty env", "error", err)
		return models.EnvMap{}, nil
	}
	return s.codec.Decode(doc.Env()), nil
}

// IsDefaultActive reports whether settings.json carries neither a base URL
// nor an auth token, i.e. the assistant uses its built-in credentials.
func (s *Service) IsDefaultActive() (bool, error) {
	env, err := s.CurrentEnv()
	if err != nil {
		return false, err
	}
	return env.BaseURL() == "" && env.Token() == "", nil
}

// SyncOnStartup aligns the store with settings.json. Nothing happens when
// the file has no auth token.
func (s *Service) SyncOnStartup() error {
	env, err := s.CurrentEnv()
	if err != nil {
		return err
	}
	if env.Token() == "" {
		s.logger.Debug("no auth token in settings, nothing to sync")
		return nil
	}

	changed, err := s.reconcile(env)
	if err != nil {
		return err
	}
	if changed {
		s.notify()
	}
	return nil
}

// DetectExternalChange re-reads settings.json and updates the store when it
// was edited outside claudeswap. It reports whether anything changed.
func (s *Service) DetectExternalChange() (bool, error) {
	env, err := s.CurrentEnv()
	if err != nil {
		return false, err
	}

	if env.Token() == "" {
		if _, ok := s.store.ActiveProvider(); !ok {
			return false, nil
		}
		s.logger.Info("settings were cleared externally, deactivating providers")
		if err := s.store.DeactivateAll(); err != nil {
			return false, err
		}
		s.notify()
		return true, nil
	}

	changed, err := s.reconcile(env)
	if err != nil {
		return false, err
	}
	if changed {
		s.notify()
	}
	return changed, nil
}

// reconcile resolves the file's token to a provider: the last active one
// first, then any provider holding the token, then a new provider built
// from the file.
func (s *Service) reconcile(env models.EnvMap) (bool, error) {
	token := env.Token()

	if id, ok := s.store.LastActiveID(); ok {
		if p, found := s.store.Get(id); found && p.Token() == token {
			return s.ensureActive(p)
		}
	}

	for _, p := range s.store.Providers() {
		if p.Token() == token {
			return s.ensureActive(p)
		}
	}

	baseURL := env.BaseURL()
	if baseURL == "" {
		s.logger.Debug("settings have a token but no base URL, nothing to import")
		return false, nil
	}

	name, icon := OtherName, providers.InferIcon(env)
	if tmpl, ok := providers.MatchTemplate(baseURL, env); ok {
		name, icon = tmpl.Name, tmpl.Icon
	}
	p := models.NewProvider(name, env, icon)
	if err := s.store.Add(p); err != nil {
		return false, err
	}
	if err := s.store.Activate(p.ID); err != nil {
		return false, err
	}
	s.logger.Info("imported provider from settings", "name", name, "base_url", baseURL)
	return true, nil
}

func (s *Service) ensureActive(p models.Provider) (bool, error) {
	if p.IsActive {
		return false, nil
	}
	if err := s.store.Activate(p.ID); err != nil {
		return false, err
	}
	s.logger.Info("activated provider matching settings", "name", p.Name)
	return true, nil
}

// removalKeys returns the keys owned by the active provider, or the
// standard keys when none is active.
func (s *Service) removalKeys() []string {
	if active, ok := s.store.ActiveProvider(); ok {
		return active.ManagedKeys()
	}
	return models.StandardKeys
}

// checkAccess fails with ErrPermissionDenied before any store mutation so a
// retried call after granting access starts from the same state. Other read
// errors are left to the write path.
func (s *Service) checkAccess() error {
	if _, err := s.settings.Read(); claude.IsPermissionDenied(err) {
		return err
	}
	return nil
}

// ActivateProvider makes id the active provider and rewrites the managed
// keys of settings.json. The keys of the previously active provider are
// removed before id's keys are written.
func (s *Service) ActivateProvider(id uuid.UUID) error {
	target, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", config.ErrProviderNotFound, id)
	}
	if err := s.checkAccess(); err != nil {
		return err
	}

	remove := s.removalKeys()
	if err := s.store.Activate(id); err != nil {
		return err
	}
	s.notify()
	return s.writeEnv(remove, target.EnvVariables)
}

// ActivateDefault deactivates every provider and clears the managed keys
func (s *Service) ActivateDefault() error {
	if err := s.checkAccess(); err != nil {
		return err
	}
	remove := s.removalKeys()
	if err := s.store.DeactivateAll(); err != nil {
		return err
	}
	s.notify()
	return s.writeEnv(remove, nil)
}

// AddProvider stores p inactive. settings.json is not touched.
func (s *Service) AddProvider(p models.Provider) (models.Provider, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Icon == "" {
		p.Icon = providers.InferIcon(p.EnvVariables)
	}
	if err := s.store.Add(p); err != nil {
		return models.Provider{}, err
	}
	s.notify()
	stored, _ := s.store.Get(p.ID)
	return stored, nil
}

// UpdateProvider persists p. When p is the active provider, settings.json
// is resynchronized using the keys it had before the edit.
func (s *Service) UpdateProvider(p models.Provider) error {
	before, ok := s.store.Get(p.ID)
	if !ok {
		// the store logs and ignores unknown ids
		return s.store.Update(p)
	}

	var remove []string
	if before.IsActive {
		if err := s.checkAccess(); err != nil {
			return err
		}
		remove = before.ManagedKeys()
	}
	if err := s.store.Update(p); err != nil {
		return err
	}
	s.notify()
	if !before.IsActive {
		return nil
	}
	return s.writeEnv(remove, p.EnvVariables)
}

// DeleteProvider removes id. Deleting the active provider falls back to the
// default credentials.
func (s *Service) DeleteProvider(id uuid.UUID) error {
	p, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", config.ErrProviderNotFound, id)
	}

	if p.IsActive {
		if err := s.checkAccess(); err != nil {
			return err
		}
	}

	remove := p.ManagedKeys()
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.notify()
	if !p.IsActive {
		return nil
	}

	s.logger.Info("deleted the active provider, switching to default", "name", p.Name)
	if err := s.store.DeactivateAll(); err != nil {
		return err
	}
	return s.writeEnv(remove, nil)
}

// writeEnv removes keys then writes env into settings.json
func (s *Service) writeEnv(remove []string, env models.EnvMap) error {
	values := s.codec.Encode(env)
	err := s.settings.Update(func(doc *claude.Document) error {
		return doc.ApplyEnv(remove, values)
	})
	if err != nil {
		s.logger.Error("failed to write settings", "error", err)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
