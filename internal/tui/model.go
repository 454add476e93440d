package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zacy-Sokach/chatbox/internal/export"
	"github.com/Zacy-Sokach/chatbox/internal/query"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	description = "Ask a question about the company. The backend answers using the provided materials."
	placeholder = "e.g., What is Catholic Health's mission?"

	buttonLabel        = "Ask"
	buttonPendingLabel = "Asking..."
)

type focusArea int

const (
	focusInput focusArea = iota
	focusButton
)

// Options 界面配置
type Options struct {
	Title        string
	ExportDir    string
	ExportFormat string
	Logger       *slog.Logger
}

type Model struct {
	widget   *query.Widget
	opts     Options
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	focus    focusArea
	width    int
	height   int
	ready    bool
	question string // 最近一次提交的问题，用于导出
	status   string
	ctx      context.Context
	now      func() time.Time
}

// InitialModel 创建界面模型，widget 由调用方构造并持有服务地址
func InitialModel(widget *query.Widget, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	vp := viewport.New(80, 10)
	// 只保留翻页键，避免和输入框抢 j/k/方向键
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return Model{
		widget:   widget,
		opts:     opts,
		input:    ti,
		spinner:  sp,
		viewport: vp,
		focus:    focusInput,
		ctx:      context.Background(),
		now:      time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab:
			m.toggleFocus()
			return m, nil
		case tea.KeyEnter:
			if m.focus == focusButton && m.widget.State().IsPending() {
				return m, nil
			}
			return m, m.submit()
		case tea.KeySpace:
			if m.focus == focusButton {
				if m.widget.State().IsPending() {
					return m, nil
				}
				return m, m.submit()
			}
		case tea.KeyCtrlS:
			return m, m.exportAnswer()
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.onButton(msg.X, msg.Y) {
			if m.widget.State().IsPending() {
				return m, nil
			}
			return m, m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case AnswerMsg:
		if m.widget.Resolve(msg.Outcome) {
			m.refreshResult()
		}
		return m, nil

	case spinner.TickMsg:
		// 请求结束后不再续订 tick，动画自然停止
		if !m.widget.State().IsPending() {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ExportSuccessMsg:
		m.status = "Saved to " + msg.FilePath
		return m, nil

	case ExportErrorMsg:
		m.status = "Export failed: " + msg.Error.Error()
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.widget.SetInput(m.input.Value())

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit 发起一次提交；输入为空时不做任何事
func (m *Model) submit() tea.Cmd {
	m.widget.SetInput(m.input.Value())
	sub, ok := m.widget.Begin()
	if !ok {
		return nil
	}
	m.question = sub.Request.Message
	m.status = ""
	m.refreshResult()
	m.opts.Logger.Debug("submit", "id", sub.ID)

	return tea.Batch(m.spinner.Tick, m.ask(sub))
}

// ask 在后台执行请求，结果以 AnswerMsg 回到事件循环
func (m Model) ask(sub query.Submission) tea.Cmd {
	widget, ctx := m.widget, m.ctx
	return func() tea.Msg {
		return AnswerMsg{Outcome: widget.Execute(ctx, sub)}
	}
}

func (m Model) exportAnswer() tea.Cmd {
	st := m.widget.State()
	question, answer, citations := m.question, st.AnswerText(), st.Citations()
	path := filepath.Join(m.opts.ExportDir, export.FileName(m.now(), m.opts.ExportFormat))

	return func() tea.Msg {
		if err := export.WriteFile(path, question, answer, citations); err != nil {
			return ExportErrorMsg{Error: err}
		}
		return ExportSuccessMsg{FilePath: path}
	}
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusButton
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

// layout 根据窗口尺寸调整各组件
func (m *Model) layout() {
	// 按较宽的 "Asking..." 预留按钮宽度，提交时整行不抖动
	buttonWidth := lipgloss.Width(buttonDisabledStyle.Render(buttonPendingLabel))
	inputWidth := m.width - lipgloss.Width(m.input.Prompt) - buttonWidth - 3
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.viewport.Width = m.width
	vpHeight := m.height - lipgloss.Height(m.headerView()) - 3
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Height = vpHeight
	m.refreshResult()
}

// refreshResult 把当前状态渲染进结果区
func (m *Model) refreshResult() {
	m.viewport.SetContent(m.resultView())
	m.viewport.GotoTop()
}

func (m Model) resultView() string {
	st := m.widget.State()
	width := m.width
	if width <= 0 {
		width = 80
	}

	if text := st.ErrorText(); text != "" {
		return errorStyle.Width(width).Render("Error: " + text)
	}

	answer := st.AnswerText()
	if answer == "" {
		return ""
	}

	var sb strings.Builder
	// 边框和内边距各占 2 列
	sb.WriteString(answerStyle.Width(width - 2).Render(answer))
	if citations := st.Citations(); len(citations) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sourcesStyle.Render("Sources:"))
		for _, c := range citations {
			sb.WriteString("\n")
			sb.WriteString(sourcesStyle.Render(fmt.Sprintf("  [%d] %s (chunk %d, score %.2f)", c.Rank, c.Source, c.ChunkID, c.Score)))
		}
	}
	return sb.String()
}

func (m Model) headerView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.opts.Title),
		descriptionStyle.Render(description),
		"",
	)
}

func (m Model) buttonView() string {
	if m.widget.State().IsPending() {
		return buttonDisabledStyle.Render(buttonPendingLabel)
	}
	if m.focus == focusButton {
		return buttonFocusedStyle.Render(buttonLabel)
	}
	return buttonStyle.Render(buttonLabel)
}

func (m Model) controlsView() string {
	return m.input.View() + " " + m.buttonView()
}

// buttonBounds 返回按钮所在行以及列范围 [x0, x1)
func (m Model) buttonBounds() (x0, x1, y int) {
	y = lipgloss.Height(m.headerView())
	x0 = lipgloss.Width(m.input.View()) + 1
	x1 = x0 + lipgloss.Width(m.buttonView())
	return x0, x1, y
}

func (m Model) onButton(x, y int) bool {
	x0, x1, row := m.buttonBounds()
	return y == row && x >= x0 && x < x1
}

func (m Model) statusView() string {
	if m.widget.State().IsPending() {
		return m.spinner.View() + statusStyle.Render(" Waiting for answer...")
	}
	return helpStyle.Render(m.status)
}

func (m Model) helpView() string {
	return helpStyle.Render("Enter: ask • Tab: switch focus • Ctrl+S: export answer • PgUp/PgDn: scroll • Ctrl+C: quit")
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s\n%s",
		m.headerView(),
		m.controlsView(),
		m.statusView(),
		m.viewport.View(),
		m.helpView(),
	)
}
