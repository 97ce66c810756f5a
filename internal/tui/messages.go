package tui

import (
	"claudeswap/config/models"
)

// ProvidersLoadedMsg is sent when the provider list is (re)loaded
type ProvidersLoadedMsg struct {
	Providers     []models.Provider
	DefaultActive bool
	Err           error
}

// ProviderActivatedMsg is sent after switching providers. Name is empty
// when the default credentials were activated.
type ProviderActivatedMsg struct {
	Name string
	Err  error
}

// ProviderAddedMsg is sent when a provider is added from the form or the clipboard
type ProviderAddedMsg struct {
	Provider models.Provider
	Check    models.TokenCheck
	Imported bool
	Err      error
}

// ProviderUpdatedMsg is sent when a provider is updated
type ProviderUpdatedMsg struct {
	Name string
	Err  error
}

// ProviderDeletedMsg is sent when a provider is deleted
type ProviderDeletedMsg struct {
	Name      string
	WasActive bool
	Err       error
}

// ProviderExportedMsg is sent after copying a provider to the clipboard
type ProviderExportedMsg struct {
	Name string
	Err  error
}

// ExternalChangeMsg is sent after checking settings.json for outside edits
type ExternalChangeMsg struct {
	Changed bool
	Err     error
}

// SettingsFileChangedMsg is sent by the file watcher
type SettingsFileChangedMsg struct{}

// storeChangedMsg is sent when the service reports a store change
type storeChangedMsg struct{}

type errMsg string
