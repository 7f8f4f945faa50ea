// ABOUTME: Dashboard view for TUI
// ABOUTME: Portfolio stats and the listing table with vacancy, delete and leads actions
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/rentdesk/models"
)

func (m Model) renderDashboardView() string {
	var s strings.Builder

	title := "RENTDESK"
	if p := m.session.Profile; p != nil {
		title = strings.ToUpper(p.BusinessName)
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n")

	s.WriteString(m.renderStats())
	s.WriteString("\n\n")

	if m.loading {
		s.WriteString("Loading listings...")
	} else if len(m.listings) == 0 {
		s.WriteString("No listings yet. Add one with 'rentdesk listings add'.")
	} else {
		s.WriteString(m.renderListingsTable())
	}
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	} else if m.status != "" {
		s.WriteString("\n")
		s.WriteString(statusStyle.Render(m.status))
	}

	s.WriteString(m.renderDashboardHelp())
	return s.String()
}

func (m Model) renderStats() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		statStyle.Render(fmt.Sprintf("Total\n%d", m.stats.Total)),
		statStyle.Render(fmt.Sprintf("Vacant\n%d", m.stats.Vacant)),
		statStyle.Render(fmt.Sprintf("Occupied\n%d", m.stats.Occupied)),
		statStyle.Render(fmt.Sprintf("For sale\n%d", m.stats.ForSale)),
	)
}

func (m Model) renderListingsTable() string {
	columns := []table.Column{
		{Title: "Title", Width: 26},
		{Title: "Type", Width: 11},
		{Title: "Price (KES)", Width: 12},
		{Title: "Location", Width: 22},
		{Title: "Status", Width: 9},
	}

	var rows []table.Row
	for _, l := range m.listings {
		status := "Occupied"
		if l.IsVacant {
			status = "Vacant"
		}
		rows = append(rows, table.Row{
			l.Title,
			l.PropertyType,
			fmt.Sprintf("%d", l.Price()),
			l.Town + ", " + l.SubRegion,
			status,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-14, 3)),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderDashboardHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Enter: Leads",
		"v: Toggle vacancy",
		"d: Delete",
		"r: Reload",
		"s: Sign out",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.listings)-1 {
			m.selectedRow++
		}
	case "r":
		m.loading = true
		m.err = nil
		m.status = ""
		return m, m.loadListings()
	case "s":
		svc := m.deps.Identity
		return m, func() tea.Msg {
			if err := svc.SignOut(context.Background()); err != nil {
				return actionMsg{err: err}
			}
			return nil
		}
	case "enter":
		if l, ok := m.selected(); ok {
			m.viewMode = ViewLeads
			m.leadsFor = l
			m.leads = nil
			m.loading = true
			m.err = nil
			return m, m.loadLeads(l.ID)
		}
	case "v":
		if l, ok := m.selected(); ok {
			repo, tenant := m.deps.Listings, m.tenantID()
			return m, func() tea.Msg {
				updated, err := repo.ToggleVacancy(context.Background(), tenant, l.ID)
				if err != nil {
					return actionMsg{err: err}
				}
				state := "occupied"
				if updated.IsVacant {
					state = "vacant"
				}
				return actionMsg{status: fmt.Sprintf("%s marked %s", updated.Title, state)}
			}
		}
	case "d":
		if _, ok := m.selected(); ok {
			m.viewMode = ViewConfirmDelete
		}
	}

	return m, nil
}

func (m Model) selected() (listing models.Listing, ok bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.listings) {
		return models.Listing{}, false
	}
	return m.listings[m.selectedRow], true
}
