package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"claudeswap/config/models"
	"claudeswap/config/storage"
	"claudeswap/internal/crypto"
	"claudeswap/internal/logging"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Preference keys
const (
	ProvidersKey = "saved_providers"
	ActiveIDKey  = "active_provider_id"
)

// ErrProviderNotFound is returned when an id does not resolve to a stored provider
var ErrProviderNotFound = errors.New("provider not found")

// Store persists the ordered provider list and the last active provider id.
// At most one stored provider has IsActive set.
type Store struct {
	prefs  storage.Preferences
	sealer *crypto.KeyManager
	logger *slog.Logger
	mu     sync.Mutex
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithSealer encrypts auth tokens in the persisted list
func WithSealer(km *crypto.KeyManager) StoreOption {
	return func(s *Store) { s.sealer = km }
}

// WithStoreLogger sets the store logger
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store on top of prefs
func NewStore(prefs storage.Preferences, opts ...StoreOption) *Store {
	s := &Store{
		prefs:  prefs,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Providers returns a copy of the stored list in order
func (s *Store) Providers() []models.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the provider with id
func (s *Store) Get(id uuid.UUID) (models.Provider, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Find(s.load(), func(p models.Provider) bool { return p.ID == id })
}

// ActiveProvider returns the provider marked active, if any
func (s *Store) ActiveProvider() (models.Provider, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Find(s.load(), func(p models.Provider) bool { return p.IsActive })
}

// LastActiveID returns the remembered active provider id. The id may refer
// to a provider that no longer exists.
func (s *Store) LastActiveID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	found, err := s.prefs.Get(ActiveIDKey, &raw)
	if err != nil {
		s.logger.Warn("failed to read last active provider id", "error", err)
		return uuid.Nil, false
	}
	if !found || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn("ignoring malformed last active provider id", "value", raw)
		return uuid.Nil, false
	}
	return id, true
}

// Add appends p as an inactive provider
func (s *Store) Add(p models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Icon == "" {
		p.Icon = models.DefaultIcon
	}
	p.EnvVariables = p.EnvVariables.Clone()
	p.IsActive = false

	list := s.load()
	if lo.ContainsBy(list, func(existing models.Provider) bool { return existing.ID == p.ID }) {
		return fmt.Errorf("provider %s already exists", p.ID)
	}
	return s.save(append(list, p))
}

// Update replaces the provider with the same id. The stored active flag is
// kept; activation goes through Activate. A missing id is logged and ignored.
func (s *Store) Update(p models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	_, i, ok := lo.FindIndexOf(list, func(existing models.Provider) bool { return existing.ID == p.ID })
	if !ok {
		s.logger.Warn("update skipped: provider not found", "id", p.ID, "name", p.Name)
		return nil
	}
	p.IsActive = list[i].IsActive
	p.EnvVariables = p.EnvVariables.Clone()
	if p.Icon == "" {
		p.Icon = models.DefaultIcon
	}
	list[i] = p
	return s.save(list)
}

// Delete removes the provider with id. It never activates another provider.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	kept := lo.Reject(list, func(p models.Provider, _ int) bool { return p.ID == id })
	if len(kept) == len(list) {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return s.save(kept)
}

// Activate marks id as the only active provider and remembers it
func (s *Store) Activate(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	if !lo.ContainsBy(list, func(p models.Provider) bool { return p.ID == id }) {
		s.logger.Warn("activate skipped: provider not found", "id", id)
		return fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	for i := range list {
		list[i].IsActive = list[i].ID == id
	}
	if err := s.save(list); err != nil {
		return err
	}
	if err := s.prefs.Set(ActiveIDKey, id.String()); err != nil {
		return fmt.Errorf("failed to save active provider id: %w", err)
	}
	return nil
}

// DeactivateAll clears every active flag and the remembered id
func (s *Store) DeactivateAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load()
	for i := range list {
		list[i].IsActive = false
	}
	if err := s.save(list); err != nil {
		return err
	}
	if err := s.prefs.Delete(ActiveIDKey); err != nil {
		return fmt.Errorf("failed to clear active provider id: %w", err)
	}
	return nil
}

// Clear removes every provider and the remembered id
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(nil); err != nil {
		return err
	}
	return s.prefs.Delete(ActiveIDKey)
}

// CheckTokenDuplicate looks for another provider using token. The provider
// with id excluding is skipped, which is used while editing. An empty token
// is always unique.
func (s *Store) CheckTokenDuplicate(token, baseURL string, excluding *uuid.UUID) models.TokenCheck {
	if token == "" {
		return models.TokenCheck{Kind: models.TokenUnique}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := lo.Find(s.load(), func(p models.Provider) bool {
		if excluding != nil && p.ID == *excluding {
			return false
		}
		return p.Token() == token
	})
	if !ok {
		return models.TokenCheck{Kind: models.TokenUnique}
	}
	if match.BaseURL() == baseURL {
		return models.TokenCheck{Kind: models.TokenDuplicateSameURL, Provider: &match}
	}
	return models.TokenCheck{Kind: models.TokenDuplicateDifferentURL, Provider: &match}
}

// load reads the list; an unreadable blob is treated as empty
func (s *Store) load() []models.Provider {
	var list []models.Provider
	if _, err := s.prefs.Get(ProvidersKey, &list); err != nil {
		s.logger.Warn("failed to decode saved providers, starting empty", "error", err)
		return []models.Provider{}
	}
	if list == nil {
		return []models.Provider{}
	}

	for i := range list {
		token := list[i].Token()
		if !crypto.IsSealed(token) {
			continue
		}
		if s.sealer == nil {
			s.logger.Warn("provider token is encrypted but no key is configured", "name", list[i].Name)
			continue
		}
		plain, err := s.sealer.Open(token)
		if err != nil {
			s.logger.Warn("failed to decrypt provider token", "name", list[i].Name, "error", err)
			continue
		}
		list[i].EnvVariables = list[i].EnvVariables.Clone()
		list[i].EnvVariables[models.KeyAuthToken] = models.String(plain)
	}
	return list
}

func (s *Store) save(list []models.Provider) error {
	if list == nil {
		list = []models.Provider{}
	}
	out := lo.Map(list, func(p models.Provider, _ int) models.Provider {
		p.EnvVariables = p.EnvVariables.Clone()
		return p
	})

	if s.sealer != nil {
		for i := range out {
			token := out[i].Token()
			// 无法解密的 token 保持原样
			if token == "" || crypto.IsSealed(token) {
				continue
			}
			sealed, err := s.sealer.Seal(token)
			if err != nil {
				return fmt.Errorf("failed to encrypt token for %s: %w", out[i].Name, err)
			}
			value := out[i].EnvVariables[models.KeyAuthToken]
			value.Value = sealed
			out[i].EnvVariables[models.KeyAuthToken] = value
		}
	}

	if err := s.prefs.Set(ProvidersKey, out); err != nil {
		return fmt.Errorf("failed to save providers: %w", err)
	}
	return nil
}
