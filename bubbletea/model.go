package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/recode"
	"github.com/fwojciec/recode/goldmark"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

const inputHeight = 3

// Config describes the session shown by the TUI.
type Config struct {
	SourcePath string // file the code was loaded from; shown in the title
	OutputPath string // Ctrl+S destination
	Provider   string // shown in the title and status line
	Unfence    bool   // strip a markdown fence wrapping the whole result
}

// Model is the Bubble Tea model for the recode TUI.
type Model struct {
	// Input is the instruction box. Exported for test access.
	Input textarea.Model
	// Viewport shows the current code. Exported for test access.
	Viewport viewport.Model

	run     RewriteFunc
	config  Config
	styles  Styles
	spinner spinner.Model

	code     string
	rewrites int

	running bool
	cancel  context.CancelFunc
	err     error
	notice  string
	ready   bool
	width   int
}

// New creates a TUI Model showing code.
func New(run RewriteFunc, code string, theme recode.Theme, config Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Describe the change..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		Input:   ta,
		run:     run,
		config:  config,
		styles:  NewStyles(theme),
		spinner: sp,
		code:    code,
	}
}

// Running returns whether a rewrite is in flight.
func (m Model) Running() bool { return m.running }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Code returns the code currently shown.
func (m Model) Code() string { return m.code }

// Rewrites returns the number of successful rewrites applied.
func (m Model) Rewrites() int { return m.rewrites }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RewriteDoneMsg:
		return m.handleDone(msg)

	case SavedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.notice = ""
		} else {
			m.err = nil
			m.notice = "Saved to " + msg.Path
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.titleLine())
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	titleHeight := 1
	statusHeight := 1
	borderHeight := 3 // newlines between sections
	vpHeight := msg.Height - inputHeight - titleHeight - statusHeight - borderHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.width = msg.Width
	m.Input.SetWidth(msg.Width)
	m.Viewport.SetContent(m.renderCode())
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyCtrlR:
		if m.running {
			return m, nil
		}
		return m.submit()

	case tea.KeyCtrlS:
		if m.running {
			return m, nil
		}
		return m, save(m.config.OutputPath, m.code)

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.Viewport, cmd = m.Viewport.Update(msg)
		return m, cmd
	}

	if m.running {
		return m, nil
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	instruction := strings.TrimSpace(m.Input.Value())
	switch {
	case instruction == "":
		m.err = errors.New("instruction is empty")
		return m, nil
	case strings.TrimSpace(m.code) == "":
		m.err = errors.New("no code loaded")
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.err = nil
	m.notice = ""
	m.Input.Blur()

	return m, tea.Batch(
		startRewrite(ctx, m.run, instruction, m.code),
		m.spinner.Tick,
	)
}

func (m Model) handleDone(msg RewriteDoneMsg) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.cancel = nil

	switch {
	case errors.Is(msg.Err, context.Canceled):
		m.notice = "Rewrite cancelled"
	case msg.Err != nil:
		m.err = msg.Err
	default:
		code := msg.Code
		m.notice = "Rewrite applied"
		if m.config.Unfence {
			lang := goldmark.Language(code)
			var unfenced bool
			if code, unfenced = goldmark.Unfence(code); unfenced {
				if lang == "" {
					lang = "code"
				}
				m.notice = "Rewrite applied (unwrapped " + lang + " fence)"
			}
		}
		m.code = code
		m.rewrites++
		m.Input.Reset()
		m.Viewport.SetContent(m.renderCode())
		m.Viewport.GotoTop()
	}
	return m, m.Input.Focus()
}

func (m Model) renderCode() string {
	if m.code == "" {
		return m.styles.Muted.Render("(no code loaded)")
	}
	lines := strings.Split(strings.TrimRight(Sanitize(m.code), "\n"), "\n")
	digits := len(fmt.Sprint(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		gutter := fmt.Sprintf("%*d │ ", digits, i+1)
		b.WriteString(m.styles.Muted.Render(gutter))
		b.WriteString(line)
	}
	return b.String()
}

func (m Model) titleLine() string {
	src := m.config.SourcePath
	if src == "" {
		src = "(untitled)"
	}
	title := "recode · " + src
	if m.config.Provider != "" {
		title += " · " + m.config.Provider
	}
	if m.width > 0 {
		title = runewidth.Truncate(title, m.width, "…")
	}
	return m.styles.Title.Render(title)
}

func (m Model) statusLine() string {
	var line string
	switch {
	case m.err != nil:
		line = m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	case m.running:
		provider := m.config.Provider
		if provider == "" {
			provider = "provider"
		}
		line = m.spinner.View() + m.styles.Muted.Render(" Rewriting with "+provider+"... Ctrl+C to cancel")
	case m.notice != "":
		line = m.styles.Success.Render(m.notice)
	default:
		line = m.keyHints()
	}
	return line
}

func (m Model) keyHints() string {
	hints := [][2]string{{"Ctrl+R", "rewrite"}, {"Ctrl+S", "save"}, {"Ctrl+C", "quit"}}
	var b strings.Builder
	for i, h := range hints {
		if i > 0 {
			b.WriteString(m.styles.Muted.Render(", "))
		}
		b.WriteString(m.styles.Accent.Render(h[0]))
		b.WriteString(m.styles.Muted.Render(" " + h[1]))
	}
	return b.String()
}

// startRewrite runs the rewrite in the command goroutine.
func startRewrite(ctx context.Context, run RewriteFunc, instruction, code string) tea.Cmd {
	return func() tea.Msg {
		out, err := run(ctx, instruction, code)
		return RewriteDoneMsg{Code: out, Err: err}
	}
}

// save writes code to path, creating parent directories.
func save(path, code string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return SavedMsg{Err: errors.New("no output path configured")}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return SavedMsg{Path: path, Err: fmt.Errorf("save: %w", err)}
		}
		if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
			return SavedMsg{Path: path, Err: fmt.Errorf("save: %w", err)}
		}
		return SavedMsg{Path: path}
	}
}
