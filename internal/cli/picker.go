// Package cli holds the interactive terminal models used by commands that
// need a selection UI.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emberops/burnoutctl/internal/model"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	currentStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

type workspaceItem struct {
	workspace model.Workspace
}

func (i workspaceItem) FilterValue() string { return i.workspace.Name }

type workspaceDelegate struct{}

func (d workspaceDelegate) Height() int                             { return 1 }
func (d workspaceDelegate) Spacing() int                            { return 0 }
func (d workspaceDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d workspaceDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(workspaceItem)
	if !ok {
		return
	}

	label := i.workspace.Name
	if i.workspace.IsCurrentlySelected {
		label += currentStyle.Render(" (current)")
	}

	str := fmt.Sprintf("%d. %s", index+1, label)

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + s[0])
		}
	}

	_, _ = fmt.Fprint(w, fn(str))
}

// WorkspacePickerModel is an interactive single-select over workspaces.
type WorkspacePickerModel struct {
	list     list.Model
	choice   *model.Workspace
	quitting bool
}

// NewWorkspacePicker builds a picker over the given workspaces.
func NewWorkspacePicker(title string, workspaces []model.Workspace) WorkspacePickerModel {
	items := make([]list.Item, 0, len(workspaces))
	for _, ws := range workspaces {
		items = append(items, workspaceItem{workspace: ws})
	}

	l := list.New(items, workspaceDelegate{}, 40, len(workspaces)+6)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return WorkspacePickerModel{list: l}
}

func (m WorkspacePickerModel) Init() tea.Cmd {
	return nil
}

func (m WorkspacePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true

			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(workspaceItem); ok {
				ws := i.workspace
				m.choice = &ws
			}

			return m, tea.Quit
		}
	}

	var cmd tea.Cmd

	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m WorkspacePickerModel) View() string {
	if m.choice != nil || m.quitting {
		return ""
	}

	return "\n" + m.list.View()
}

// Choice returns the selected workspace, or nil when the picker was
// dismissed.
func (m WorkspacePickerModel) Choice() *model.Workspace {
	return m.choice
}
