package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"claudeswap/config"
	"claudeswap/config/models"
	"claudeswap/config/storage"
	syncpkg "claudeswap/config/sync"
	"claudeswap/internal/claude"
	"claudeswap/internal/crypto"
	"claudeswap/internal/logging"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// App holds the components shared by every command
type App struct {
	Settings *config.Settings
	Logger   *slog.Logger
	Prefs    storage.Preferences
	Store    *config.Store
	Gateway  *claude.Gateway
	Scoped   *claude.ScopedAccess // nil in direct access mode
	Service  *syncpkg.Service
}

// newApp builds the components from settings
func newApp(settings *config.Settings, logOut io.Writer) (*App, error) {
	logger := logging.New(logging.Level(settings.Log.Level), logging.Format(settings.Log.Format), logOut)

	prefs, err := settings.OpenPreferences()
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}

	var storeOpts []config.StoreOption
	storeOpts = append(storeOpts, config.WithStoreLogger(logger))
	if settings.Store.EncryptTokens {
		km, err := crypto.LoadOrCreate(settings.KeyPath())
		if err != nil {
			prefs.Close()
			return nil, err
		}
		storeOpts = append(storeOpts, config.WithSealer(km))
	}
	store := config.NewStore(prefs, storeOpts...)

	a := &App{
		Settings: settings,
		Logger:   logger,
		Prefs:    prefs,
		Store:    store,
	}

	gwOpts := []claude.Option{
		claude.WithLogger(logger),
		claude.WithLockPath(settings.LockPath()),
	}
	if settings.Access == config.AccessScoped {
		a.Scoped = claude.NewScopedAccess(prefs, logger)
		gwOpts = append(gwOpts, claude.WithAccess(a.Scoped))
	}
	a.Gateway = claude.NewGateway(settings.ClaudeDir, gwOpts...)
	a.Service = syncpkg.NewService(a.Gateway, store, logger)
	return a, nil
}

// Close releases the preference backend
func (a *App) Close() error {
	if a == nil || a.Prefs == nil {
		return nil
	}
	return a.Prefs.Close()
}

type appKey struct{}

func withApp(ctx context.Context, a *App) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, appKey{}, a)
}

// appFrom returns the App stored on the command context
func appFrom(cmd *cobra.Command) (*App, error) {
	if ctx := cmd.Context(); ctx != nil {
		if a, ok := ctx.Value(appKey{}).(*App); ok && a != nil {
			return a, nil
		}
	}
	return nil, errors.New("application not initialized")
}

// isTerminal 检查是否在真正的终端中运行
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question on a terminal; non-terminals answer no
func confirm(cmd *cobra.Command, question string) bool {
	if !isTerminal() {
		return false
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// withAccess runs fn and, when settings access is denied, asks for a grant
// and retries once.
func withAccess(cmd *cobra.Command, a *App, fn func() error) error {
	err := fn()
	if !claude.IsPermissionDenied(err) || a.Scoped == nil {
		return err
	}

	dir := a.Gateway.Dir()
	if !confirm(cmd, fmt.Sprintf("claudeswap needs access to %s. Grant access?", dir)) {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("⚠️  Access to "+dir+" not granted. Run 'claudeswap access grant' to allow it."))
		return err
	}
	if gerr := a.Scoped.RequestAccess(dir); gerr != nil {
		return gerr
	}
	fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render("✓ Access granted to "+dir))
	return fn()
}

// resolveProvider finds a provider by id, unique id prefix, or
// case-insensitive name.
func resolveProvider(a *App, ref string) (models.Provider, error) {
	list := a.Store.Providers()

	if id, err := uuid.Parse(ref); err == nil {
		for _, p := range list {
			if p.ID == id {
				return p, nil
			}
		}
	}

	var matches []models.Provider
	for _, p := range list {
		if strings.EqualFold(p.Name, ref) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 && len(ref) >= 4 {
		for _, p := range list {
			if strings.HasPrefix(p.ID.String(), strings.ToLower(ref)) {
				matches = append(matches, p)
			}
		}
	}

	switch len(matches) {
	case 0:
		return models.Provider{}, fmt.Errorf("%w: %s", config.ErrProviderNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Provider{}, fmt.Errorf("%q matches %d providers, use an id prefix", ref, len(matches))
	}
}

// shortID returns the first 8 characters of an id
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// printTokenCheck warns about a reused token
func printTokenCheck(cmd *cobra.Command, check models.TokenCheck) {
	switch check.Kind {
	case models.TokenDuplicateSameURL:
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(fmt.Sprintf("⚠️  Provider %q already uses this token with the same base URL", check.Provider.Name)))
	case models.TokenDuplicateDifferentURL:
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(fmt.Sprintf("⚠️  Provider %q uses this token with a different base URL (%s)", check.Provider.Name, check.Provider.BaseURL())))
	}
}
