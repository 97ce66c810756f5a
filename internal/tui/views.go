package tui

import (
	"fmt"
	"strings"

	"claudeswap/config/models"
	"claudeswap/internal/envcodec"
	"claudeswap/internal/providers"
	"claudeswap/internal/utils"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent = lipgloss.Color("205")
	colorActive = lipgloss.Color("42")
	colorDanger = lipgloss.Color("196")
	colorMuted  = lipgloss.Color("241")
	colorText   = lipgloss.Color("252")
	colorRule   = lipgloss.Color("238")
	colorCursor = lipgloss.Color("57")

	labelWidth = 34
	maxWidth   = 80
)

// theme holds every style the views and the form use
type theme struct {
	title   lipgloss.Style
	rule    lipgloss.Style
	muted   lipgloss.Style
	text    lipgloss.Style
	ok      lipgloss.Style
	bad     lipgloss.Style
	section lipgloss.Style
	tag     lipgloss.Style
	label   lipgloss.Style

	// list rows, indexed by [selected][active]
	row [2][2]lipgloss.Style

	fieldLabel   lipgloss.Style
	fieldFocused lipgloss.Style
	fieldHint    lipgloss.Style
}

func newTheme() theme {
	base := lipgloss.NewStyle()
	cursor := base.Background(colorCursor).Bold(true)

	t := theme{
		title:   base.Bold(true).Foreground(colorAccent),
		rule:    base.Foreground(colorRule),
		muted:   base.Foreground(colorMuted),
		text:    base.Foreground(colorText),
		ok:      base.Foreground(colorActive),
		bad:     base.Foreground(colorDanger).Bold(true),
		section: base.Foreground(colorAccent).Bold(true),
		tag:     base.Foreground(colorActive).Background(lipgloss.Color("22")).Bold(true).Padding(0, 1),
		label:   base.Foreground(colorMuted).Width(labelWidth),

		fieldLabel:   base.Foreground(colorMuted).Width(14),
		fieldFocused: base.Foreground(colorAccent).Bold(true).Width(14),
		fieldHint:    base.Foreground(colorMuted).Italic(true),
	}
	t.row[0][0] = t.text
	t.row[0][1] = base.Foreground(colorActive).Bold(true)
	t.row[1][0] = cursor.Foreground(lipgloss.Color("229"))
	t.row[1][1] = cursor.Foreground(colorActive)
	return t
}

var styles = newTheme()

// iconGlyphs maps provider icons to a short badge for the list
var iconGlyphs = map[string]string{
	providers.IconClaude:     "C",
	providers.IconOther:      "•",
	providers.IconZhipu:      "智",
	providers.IconZai:        "Z",
	providers.IconMiniMax:    "MM",
	providers.IconMoonshot:   "K",
	providers.IconStreamLake: "SL",
	providers.IconDeepSeek:   "DS",
	providers.IconAliyuncs:   "Q",
	providers.IconModelScope: "MS",
	providers.IconPackyCode:  "PC",
	providers.IconAnyRouter:  "AR",
	providers.IconLongCat:    "LC",
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// panel lays out head, a rule, the body, another rule and the footer
func panel(head, body, footer string, width int) string {
	rule := styles.rule.Render(strings.Repeat("─", width))
	return head + "\n" + rule + "\n\n" + body + "\n" + rule + "\n" + footer
}

// ruleWidth is the terminal width clamped to maxWidth, or fallback before
// the first resize
func (m Model) ruleWidth(fallback int) int {
	switch {
	case m.width <= 0:
		return fallback
	case m.width < maxWidth:
		return m.width - 2
	}
	return maxWidth
}

// window returns the half open range of rows shown from offset
func window(offset, height, total int) (start, end int) {
	start = max(0, min(offset, total))
	end = min(total, start+height)
	return start, end
}

// clip shortens text to n runes, ending in "..."
func clip(text string, n int) string {
	if n <= 3 {
		return "..."
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n-3]) + "..."
}

// row renders one list line with its cursor and active markers
func row(content string, selected, active bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	if active {
		prefix += "* "
	} else {
		prefix += "  "
	}
	return styles.row[b2i(selected)][b2i(active)].Render(prefix + content)
}

// RenderMainView renders the main list view
func (m Model) RenderMainView() string {
	var lines []string
	total := m.rowCount()
	start, end := window(m.scrollOffset, m.getVisibleListHeight(), total)

	if start > 0 {
		lines = append(lines, styles.muted.Render(fmt.Sprintf("  ↑ 还有 %d 项...", start)))
	}
	for i := start; i < end; i++ {
		if i == 0 {
			lines = append(lines, row("默认 (Claude 官方登录)", m.cursor == 0, m.defaultActive))
			continue
		}
		lines = append(lines, m.providerRow(i, m.providers[i-1]))
	}
	if end < total {
		lines = append(lines, styles.muted.Render(fmt.Sprintf("  ↓ 还有 %d 项...", total-end)))
	}
	if len(m.providers) == 0 {
		lines = append(lines, styles.muted.Render("  暂无供应商，按 'a' 添加或 'p' 从剪贴板导入"))
	}

	body := strings.Join(lines, "\n") + "\n"
	return panel(styles.title.Render("Claude Code 供应商"), body, m.RenderStatusBar(), m.ruleWidth(40))
}

func (m Model) providerRow(i int, p models.Provider) string {
	glyph, ok := iconGlyphs[p.Icon]
	if !ok {
		glyph = iconGlyphs[providers.IconOther]
	}
	host := ""
	if u := p.BaseURL(); u != "" {
		host = " (" + clip(utils.ExtractHost(u), 30) + ")"
	}
	return row(fmt.Sprintf("%-2s %s%s", glyph, p.Name, host), i == m.cursor, p.IsActive)
}

// RenderDetailView renders the detail view
func (m Model) RenderDetailView() string {
	p, ok := m.selectedProvider()
	if !ok {
		return styles.muted.Render("未选择供应商")
	}
	width := m.ruleWidth(40)

	head := styles.title.Render(p.Name)
	if p.IsActive {
		head += "  " + styles.tag.Render("★ 使用中")
	}

	var b strings.Builder
	b.WriteString(styles.label.Render("ID:") + styles.muted.Render(p.ID.String()) + "\n\n")
	b.WriteString(styles.section.Render("环境变量") + "\n")
	for _, k := range p.EnvVariables.Keys() {
		value := p.EnvVariables.Get(k)
		if k == models.KeyAuthToken {
			value = utils.MaskToken(value)
		}
		b.WriteString(styles.label.Render(envcodec.Label(k)+":") + styles.text.Render(clip(value, width-labelWidth)) + "\n")
	}

	return panel(head, b.String(), styles.muted.Render("Enter: 切换 │ e: 编辑 │ d: 删除 │ x: 导出 │ Esc: 返回"), width)
}

// RenderTemplateView renders the template picker
func (m Model) RenderTemplateView() string {
	width := m.ruleWidth(40)
	var b strings.Builder
	for i, t := range providers.All() {
		url := t.BaseURL()
		if url == "" {
			url = "自定义"
		}
		b.WriteString(row(fmt.Sprintf("%-14s %s", t.Name, styles.muted.Render(clip(url, width-20))), i == m.templateIdx, false))
		b.WriteString("\n")
	}
	return panel(styles.title.Render("选择模板"), b.String(), styles.muted.Render("j/k: 选择 │ Enter: 确认 │ Esc: 取消"), width)
}

// RenderDeleteConfirm renders the delete confirmation dialog
func (m Model) RenderDeleteConfirm() string {
	width := m.ruleWidth(40)
	var b strings.Builder

	p, ok := m.selectedProvider()
	if !ok {
		b.WriteString(styles.bad.Render("错误: 未选择有效的供应商") + "\n")
	} else {
		b.WriteString(styles.bad.Render("⚠ 警告: 此操作不可撤销！") + "\n\n")
		b.WriteString(styles.text.Render("即将删除供应商: ") + styles.row[1][0].Render(p.Name) + "\n\n")
		if p.IsActive {
			// 删除使用中的供应商会回到默认
			b.WriteString(styles.bad.Render("注意: 这是当前使用中的供应商，删除后将切换到默认配置") + "\n\n")
		}
		if u := p.BaseURL(); u != "" {
			b.WriteString(styles.muted.Render("Base URL: "+clip(u, width-12)) + "\n")
		}
	}

	return panel(styles.title.Render("确认删除"), b.String(), styles.muted.Render("y: 确认删除 │ n/Esc: 取消"), width)
}

// RenderHelpView renders the help panel
func (m Model) RenderHelpView() string {
	h := m.help
	h.ShowAll = true
	return panel(styles.title.Render("快捷键帮助"), h.View(m.keys)+"\n", styles.muted.Render("q/Esc: 返回"), m.ruleWidth(50))
}

// RenderStatusBar renders the last message, if any, above the short help
func (m Model) RenderStatusBar() string {
	var b strings.Builder
	if m.errorMsg != "" {
		b.WriteString(styles.bad.Render("✗ "+m.errorMsg) + "\n")
	}
	if m.message != "" {
		b.WriteString(styles.ok.Render("✓ "+m.message) + "\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}
