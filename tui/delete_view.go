// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Asks before removing the selected listing
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	l, ok := m.selected()
	if !ok {
		return "Error: no listing selected"
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := "Are you sure you want to delete this listing?"
	entityInfo := fmt.Sprintf("\nLISTING: %s\n%s, %s\n", l.Title, l.Town, l.SubRegion)
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		entityInfo,
		warning,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		l, ok := m.selected()
		m.viewMode = ViewDashboard
		if !ok {
			return m, nil
		}
		repo, tenant := m.deps.Listings, m.tenantID()
		return m, func() tea.Msg {
			if err := repo.Delete(context.Background(), tenant, l.ID); err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: fmt.Sprintf("Deleted %s", l.Title)}
		}
	case "n", "N", "esc":
		m.viewMode = ViewDashboard
	}

	return m, nil
}
