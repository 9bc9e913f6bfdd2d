package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/linkhoard/linkhoard/internal/service"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// stateMsg carries an import state snapshot into the UI.
type stateMsg service.ImportState

// finishedMsg signals that the import call returned.
type finishedMsg struct {
	err error
}

// importModel is the bubbletea model for import progress.
type importModel struct {
	state    service.ImportState
	progress progress.Model
	theme    Theme
	err      error
	done     bool
}

func newImportModel() importModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return importModel{progress: prog, theme: defaultTheme}
}

// Init returns the initial command.
func (m importModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m importModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		// The import keeps running; there is no safe mid-chunk abort.
		if msg.String() == "ctrl+c" {
			return m, nil
		}

	case stateMsg:
		m.state = service.ImportState(msg)
		return m, nil

	case finishedMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m importModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m importModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	var pct float64
	if m.state.Total > 0 {
		pct = float64(m.state.Imported) / float64(m.state.Total)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.state.Phase))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d bookmarks", m.state.Imported, m.state.Total)

	return fmt.Sprintf("%s %s %s\n", status, progressBar, counts)
}

func (m importModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Import failed: %s\n", m.err))
	}
	return m.theme.completedStyle().Render(fmt.Sprintf("✓ Imported %d bookmarks\n", m.state.Imported))
}

// runImportProgress renders import progress while confirm runs. confirm is
// the blocking call that performs the actual import.
func runImportProgress(svc *service.ImportService, confirm func() error) error {
	p := tea.NewProgram(newImportModel())

	svc.Subscribe(func(st service.ImportState) {
		go p.Send(stateMsg(st))
	})
	go func() {
		p.Send(finishedMsg{err: confirm()})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	if m, ok := finalModel.(importModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
