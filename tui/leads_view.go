// ABOUTME: Leads view for TUI
// ABOUTME: Shows contact attempts for the selected listing, newest first
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(14)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) loadLeads(listingID string) tea.Cmd {
	loader, repo, tenant := m.deps.Leads, m.deps.Listings, m.tenantID()
	return func() tea.Msg {
		attempts, err := loader.Load(context.Background(), tenant, listingID)
		listing, _ := repo.Get(listingID)
		return leadsMsg{listing: listing, leads: attempts, err: err}
	}
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderLeadsView() string {
	var s strings.Builder

	l := m.leadsFor
	s.WriteString(titleStyle.Render("LEADS · " + strings.ToUpper(l.Title)))
	s.WriteString("\n")
	s.WriteString(m.renderField("Type", l.PropertyType+", "+l.AvailabilityType))
	s.WriteString(m.renderField("Location", l.Town+", "+l.SubRegion+", "+l.Region))
	s.WriteString("\n")

	switch {
	case m.loading:
		s.WriteString("Loading leads...")
	case m.err != nil:
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case len(m.leads) == 0:
		s.WriteString("No leads yet.")
	default:
		columns := []table.Column{
			{Title: "When", Width: 17},
			{Title: "Type", Width: 6},
			{Title: "Name", Width: 20},
			{Title: "Email", Width: 26},
			{Title: "Phone", Width: 14},
		}
		var rows []table.Row
		for _, a := range m.leads {
			rows = append(rows, table.Row{
				a.Timestamp.Local().Format("2006-01-02 15:04"),
				a.ContactType,
				a.ClientName,
				a.ClientEmail,
				a.ClientPhone,
			})
		}
		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithHeight(max(m.height-12, 3)),
		)
		s.WriteString(t.View())
	}
	s.WriteString("\n")

	help := []string{"r: Reload", "Esc: Back", "q: Quit"}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) handleLeadsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.viewMode = ViewDashboard
		m.err = nil
	case "r":
		m.loading = true
		m.err = nil
		return m, m.loadLeads(m.leadsFor.ID)
	}
	return m, nil
}
