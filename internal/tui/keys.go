package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	Up       key.Binding // k - move up
	Down     key.Binding // j - move down
	Top      key.Binding // g - jump to top
	Bottom   key.Binding // G - jump to bottom
	Activate key.Binding // Enter - switch to provider
	Default  key.Binding // D - switch to default credentials
	Detail   key.Binding // v - show details
	Add      key.Binding // a - add provider
	Edit     key.Binding // e - edit provider
	Delete   key.Binding // d - delete provider
	Refresh  key.Binding // r - re-read settings.json
	Export   key.Binding // x - copy to clipboard
	Import   key.Binding // p - paste from clipboard
	Help     key.Binding // ? - help
	Quit     key.Binding // q - quit
	Cancel   key.Binding // Esc - cancel
	Confirm  key.Binding // Enter - confirm (in form)
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "向上"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "向下"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "跳到顶部"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "跳到底部"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "切换"),
		),
		Default: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "默认配置"),
		),
		Detail: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "详情"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "添加"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "编辑"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "删除"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "刷新"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "导出到剪贴板"),
		),
		Import: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "从剪贴板导入"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "帮助"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "退出"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "取消"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "确认"),
		),
	}
}

// ShortHelp returns short help text
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Activate, k.Add, k.Edit, k.Delete, k.Help, k.Quit}
}

// FullHelp returns full help text
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Activate, k.Default, k.Detail, k.Refresh},
		{k.Add, k.Edit, k.Delete},
		{k.Export, k.Import},
		{k.Help, k.Quit, k.Cancel},
	}
}
