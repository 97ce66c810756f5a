package tui

import (
	"fmt"

	"claudeswap/config/models"
	syncpkg "claudeswap/config/sync"
	"claudeswap/internal/providers"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Service is the part of the reconciliation service the TUI drives
type Service interface {
	Providers() []models.Provider
	IsDefaultActive() (bool, error)
	Changes() <-chan struct{}
	SyncOnStartup() error
	DetectExternalChange() (bool, error)
	ActivateProvider(id uuid.UUID) error
	ActivateDefault() error
	AddProvider(p models.Provider) (models.Provider, error)
	UpdateProvider(p models.Provider) error
	DeleteProvider(id uuid.UUID) error
	CheckTokenDuplicate(token, baseURL string, excluding *uuid.UUID) models.TokenCheck
	ImportFromClipboard(cb syncpkg.Clipboard) (models.Provider, models.TokenCheck, error)
	ExportToClipboard(cb syncpkg.Clipboard, id uuid.UUID) error
}

// ViewState represents the current view state
type ViewState int

const (
	ViewMain     ViewState = iota // Main list view
	ViewDetail                    // Detail view
	ViewTemplate                  // Template picker before the add form
	ViewAdd                       // Add provider form
	ViewEdit                      // Edit provider form
	ViewDelete                    // Delete confirmation dialog
	ViewHelp                      // Help panel
)

// Model is the core state model for TUI. Row 0 of the list is the default
// credentials entry; row i+1 is providers[i].
type Model struct {
	providers     []models.Provider
	defaultActive bool
	cursor        int
	viewState     ViewState
	service       Service
	clipboard     syncpkg.Clipboard
	keys          KeyMap
	help          help.Model

	// Form related
	formInputs   []textinput.Model
	formFocus    int
	formBase     models.Provider // template or provider being edited
	templateIdx  int
	formErrorMsg string

	// Messages and errors
	message  string
	errorMsg string

	// Window size
	width  int
	height int

	scrollOffset int
}

// NewModel creates a new TUI model
func NewModel(svc Service, cb syncpkg.Clipboard) Model {
	return Model{
		service:   svc,
		clipboard: cb,
		viewState: ViewMain,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		width:     80,
		height:    24,
	}
}

// Init adopts the provider configured in settings.json, then loads the list
func (m Model) Init() tea.Cmd {
	return tea.Batch(syncOnStartup(m.service), waitForChange(m.service.Changes()))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.adjustScrollOffset()
		return m, nil

	case tea.FocusMsg, SettingsFileChangedMsg:
		return m, detectExternalChange(m.service)

	case storeChangedMsg:
		return m, tea.Batch(loadProviders(m.service), waitForChange(m.service.Changes()))

	case ProvidersLoadedMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
		}
		m.providers = msg.Providers
		m.defaultActive = msg.DefaultActive
		if m.cursor >= m.rowCount() {
			m.cursor = m.rowCount() - 1
		}
		m.adjustScrollOffset()
		return m, nil

	case ProviderActivatedMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
			return m, loadProviders(m.service)
		}
		if msg.Name == "" {
			m.message = "已切换到默认配置"
		} else {
			m.message = "已切换到: " + msg.Name
		}
		return m, loadProviders(m.service)

	case ProviderAddedMsg:
		if msg.Err != nil {
			if m.viewState == ViewAdd {
				m.formErrorMsg = msg.Err.Error()
			} else {
				m.errorMsg = msg.Err.Error()
			}
			return m, nil
		}
		if msg.Imported {
			m.message = "已导入: " + msg.Provider.Name
		} else {
			m.message = "已添加: " + msg.Provider.Name
		}
		if w := tokenWarning(msg.Check); w != "" {
			m.errorMsg = w
		}
		m.closeForm()
		return m, loadProviders(m.service)

	case ProviderUpdatedMsg:
		if msg.Err != nil {
			m.formErrorMsg = msg.Err.Error()
			return m, nil
		}
		m.message = "已更新: " + msg.Name
		m.closeForm()
		return m, loadProviders(m.service)

	case ProviderDeletedMsg:
		m.viewState = ViewMain
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
			return m, loadProviders(m.service)
		}
		m.message = "已删除: " + msg.Name
		if msg.WasActive {
			m.message += "，已切换到默认配置"
		}
		return m, loadProviders(m.service)

	case ProviderExportedMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
		} else {
			m.message = "已复制到剪贴板: " + msg.Name
		}
		return m, nil

	case ExternalChangeMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
		} else if msg.Changed {
			m.message = "检测到 settings.json 已在外部修改"
		}
		return m, loadProviders(m.service)

	case errMsg:
		m.errorMsg = string(msg)
		return m, nil
	}

	return m, nil
}

// rowCount includes the default row
func (m Model) rowCount() int {
	return len(m.providers) + 1
}

// selectedProvider returns the provider under the cursor; false on the default row
func (m Model) selectedProvider() (models.Provider, bool) {
	i := m.cursor - 1
	if i < 0 || i >= len(m.providers) {
		return models.Provider{}, false
	}
	return m.providers[i], true
}

func (m *Model) clearMessages() {
	m.message = ""
	m.errorMsg = ""
}

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewState {
	case ViewMain:
		return m.handleMainViewKeys(msg)
	case ViewDetail:
		return m.handleDetailViewKeys(msg)
	case ViewTemplate:
		return m.handleTemplateViewKeys(msg)
	case ViewAdd, ViewEdit:
		return m.handleFormViewKeys(msg)
	case ViewDelete:
		return m.handleDeleteViewKeys(msg)
	case ViewHelp:
		return m.handleHelpViewKeys(msg)
	default:
		return m, nil
	}
}

// handleMainViewKeys handles keyboard input in main view
func (m Model) handleMainViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		m.moveDown()
		m.clearMessages()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveUp()
		m.clearMessages()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.scrollOffset = 0
		m.clearMessages()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = m.rowCount() - 1
		m.adjustScrollOffset()
		m.clearMessages()
		return m, nil

	case key.Matches(msg, m.keys.Activate):
		m.clearMessages()
		if p, ok := m.selectedProvider(); ok {
			return m, activateProvider(m.service, p)
		}
		return m, activateDefault(m.service)

	case key.Matches(msg, m.keys.Default):
		m.clearMessages()
		return m, activateDefault(m.service)

	case key.Matches(msg, m.keys.Detail):
		if _, ok := m.selectedProvider(); ok {
			m.viewState = ViewDetail
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.clearMessages()
		m.templateIdx = 0
		m.viewState = ViewTemplate
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if p, ok := m.selectedProvider(); ok {
			m.initEditForm(p)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selectedProvider(); ok {
			m.clearMessages()
			m.viewState = ViewDelete
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.clearMessages()
		return m, detectExternalChange(m.service)

	case key.Matches(msg, m.keys.Export):
		if p, ok := m.selectedProvider(); ok {
			m.clearMessages()
			return m, exportProvider(m.service, m.clipboard, p)
		}
		return m, nil

	case key.Matches(msg, m.keys.Import):
		m.clearMessages()
		return m, importProvider(m.service, m.clipboard)

	case key.Matches(msg, m.keys.Help):
		m.viewState = ViewHelp
		return m, nil
	}

	return m, nil
}

// handleDetailViewKeys handles keyboard input in detail view
func (m Model) handleDetailViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p, ok := m.selectedProvider()
	if !ok {
		m.viewState = ViewMain
		return m, nil
	}

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel), msg.String() == "q":
		m.viewState = ViewMain
		return m, nil

	case key.Matches(msg, m.keys.Activate):
		m.clearMessages()
		m.viewState = ViewMain
		return m, activateProvider(m.service, p)

	case key.Matches(msg, m.keys.Edit):
		m.initEditForm(p)
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		m.clearMessages()
		m.viewState = ViewDelete
		return m, nil

	case key.Matches(msg, m.keys.Export):
		m.clearMessages()
		return m, exportProvider(m.service, m.clipboard, p)
	}
	return m, nil
}

// handleTemplateViewKeys picks the template that seeds the add form
func (m Model) handleTemplateViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	templates := providers.All()
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.viewState = ViewMain
	case key.Matches(msg, m.keys.Up):
		if m.templateIdx > 0 {
			m.templateIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.templateIdx < len(templates)-1 {
			m.templateIdx++
		}
	case key.Matches(msg, m.keys.Confirm):
		if m.templateIdx >= 0 && m.templateIdx < len(templates) {
			m.initAddForm(templates[m.templateIdx])
		}
	}
	return m, nil
}

// initAddForm opens the form prefilled from a template
func (m *Model) initAddForm(t providers.Template) {
	m.formBase = t.NewProvider()
	m.formInputs = FormInputs()
	m.formFocus = FormFieldName
	SetFormData(m.formInputs, FormDataFromProvider(m.formBase))
	if t.BaseURL() != "" {
		// 模板已给出 URL，直接跳到 token
		m.formInputs[FormFieldName].Blur()
		m.formInputs[FormFieldToken].Focus()
		m.formFocus = FormFieldToken
	}
	m.formErrorMsg = ""
	m.viewState = ViewAdd
}

// initEditForm opens the form for p
func (m *Model) initEditForm(p models.Provider) {
	m.formBase = p
	m.formInputs = FormInputs()
	m.formFocus = FormFieldName
	SetFormData(m.formInputs, FormDataFromProvider(p))
	m.formErrorMsg = ""
	m.clearMessages()
	m.viewState = ViewEdit
}

func (m *Model) closeForm() {
	m.viewState = ViewMain
	m.formInputs = nil
	m.formFocus = 0
	m.formErrorMsg = ""
}

// handleFormViewKeys handles keyboard input in the add and edit forms
func (m Model) handleFormViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.closeForm()
		return m, nil

	case "tab", "down":
		m.formFocus = NextFormField(m.formInputs, m.formFocus)
		return m, nil

	case "shift+tab", "up":
		m.formFocus = PrevFormField(m.formInputs, m.formFocus)
		return m, nil

	case "enter":
		data := GetFormData(m.formInputs)
		if err := data.Validate(); err != nil {
			m.formErrorMsg = err.Error()
			return m, nil
		}
		m.formErrorMsg = ""
		p := data.Apply(m.formBase)
		if m.viewState == ViewEdit {
			return m, updateProvider(m.service, p)
		}
		return m, addProvider(m.service, p)
	}

	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

// handleDeleteViewKeys handles the delete confirmation
func (m Model) handleDeleteViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "y", "Y", "enter":
		p, ok := m.selectedProvider()
		if !ok {
			m.viewState = ViewMain
			return m, nil
		}
		return m, deleteProvider(m.service, p)
	case "n", "N", "esc":
		m.viewState = ViewMain
	}
	return m, nil
}

// handleHelpViewKeys closes the help panel
func (m Model) handleHelpViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q", "?":
		m.viewState = ViewMain
	}
	return m, nil
}

// moveUp moves cursor up
func (m *Model) moveUp() {
	if m.cursor > 0 {
		m.cursor--
		m.adjustScrollOffset()
	}
}

// moveDown moves cursor down
func (m *Model) moveDown() {
	if m.cursor < m.rowCount()-1 {
		m.cursor++
		m.adjustScrollOffset()
	}
}

// getVisibleListHeight returns the number of lines available for the list
func (m *Model) getVisibleListHeight() int {
	// title, separator, blank / blank, separator, message, help
	headerLines := 3
	footerLines := 4

	available := m.height - headerLines - footerLines
	if available < 1 {
		available = 1
	}
	return available
}

// adjustScrollOffset adjusts the scroll offset to keep cursor visible
func (m *Model) adjustScrollOffset() {
	visibleHeight := m.getVisibleListHeight()

	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visibleHeight {
		m.scrollOffset = m.cursor - visibleHeight + 1
	}

	maxOffset := m.rowCount() - visibleHeight
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// View renders the current view
func (m Model) View() string {
	switch m.viewState {
	case ViewDetail:
		return m.RenderDetailView()
	case ViewTemplate:
		return m.RenderTemplateView()
	case ViewAdd:
		return RenderForm(m.formInputs, m.formFocus, "添加供应商 · "+m.formBase.Name, m.formErrorMsg)
	case ViewEdit:
		return RenderForm(m.formInputs, m.formFocus, "编辑供应商", m.formErrorMsg)
	case ViewDelete:
		return m.RenderDeleteConfirm()
	case ViewHelp:
		return m.RenderHelpView()
	default:
		return m.RenderMainView()
	}
}

// tokenWarning describes a reused token, or returns ""
func tokenWarning(check models.TokenCheck) string {
	switch check.Kind {
	case models.TokenDuplicateSameURL:
		return fmt.Sprintf("注意: %s 已使用相同的 token 和 URL", check.Provider.Name)
	case models.TokenDuplicateDifferentURL:
		return fmt.Sprintf("注意: %s 已使用相同的 token (URL 不同)", check.Provider.Name)
	}
	return ""
}

// Commands

func loadProviders(svc Service) tea.Cmd {
	return func() tea.Msg {
		defaultActive, err := svc.IsDefaultActive()
		return ProvidersLoadedMsg{
			Providers:     svc.Providers(),
			DefaultActive: defaultActive,
			Err:           err,
		}
	}
}

func syncOnStartup(svc Service) tea.Cmd {
	return func() tea.Msg {
		if err := svc.SyncOnStartup(); err != nil {
			return errMsg("读取 settings.json 失败: " + err.Error())
		}
		return storeChangedMsg{}
	}
}

// waitForChange turns the service's change channel into messages; the
// storeChangedMsg handler re-arms it.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return storeChangedMsg{}
	}
}

func detectExternalChange(svc Service) tea.Cmd {
	return func() tea.Msg {
		changed, err := svc.DetectExternalChange()
		return ExternalChangeMsg{Changed: changed, Err: err}
	}
}

func activateProvider(svc Service, p models.Provider) tea.Cmd {
	return func() tea.Msg {
		return ProviderActivatedMsg{Name: p.Name, Err: svc.ActivateProvider(p.ID)}
	}
}

func activateDefault(svc Service) tea.Cmd {
	return func() tea.Msg {
		return ProviderActivatedMsg{Err: svc.ActivateDefault()}
	}
}

func addProvider(svc Service, p models.Provider) tea.Cmd {
	return func() tea.Msg {
		check := svc.CheckTokenDuplicate(p.Token(), p.BaseURL(), nil)
		stored, err := svc.AddProvider(p)
		return ProviderAddedMsg{Provider: stored, Check: check, Err: err}
	}
}

func updateProvider(svc Service, p models.Provider) tea.Cmd {
	return func() tea.Msg {
		return ProviderUpdatedMsg{Name: p.Name, Err: svc.UpdateProvider(p)}
	}
}

func deleteProvider(svc Service, p models.Provider) tea.Cmd {
	return func() tea.Msg {
		return ProviderDeletedMsg{Name: p.Name, WasActive: p.IsActive, Err: svc.DeleteProvider(p.ID)}
	}
}

func importProvider(svc Service, cb syncpkg.Clipboard) tea.Cmd {
	return func() tea.Msg {
		p, check, err := svc.ImportFromClipboard(cb)
		return ProviderAddedMsg{Provider: p, Check: check, Imported: true, Err: err}
	}
}

func exportProvider(svc Service, cb syncpkg.Clipboard, p models.Provider) tea.Cmd {
	return func() tea.Msg {
		return ProviderExportedMsg{Name: p.Name, Err: svc.ExportToClipboard(cb, p.ID)}
	}
}
