// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Routes between sign-in, signup wizard, dashboard and leads on session changes
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/geo"
	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/leads"
	"github.com/harperreed/rentdesk/listings"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/onboarding"
	"github.com/harperreed/rentdesk/session"
	"github.com/harperreed/rentdesk/taxonomy"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewLoading ViewMode = iota
	ViewSignIn
	ViewSignup
	ViewDashboard
	ViewLeads
	ViewConfirmDelete
)

// Deps are the services the TUI drives.
type Deps struct {
	Identity identity.Service
	Profiles *session.ProfileLoader
	Listings *listings.Repository
	Leads    *leads.Loader
	Store    docstore.Store
	Locator  geo.Locator
	Taxonomy *taxonomy.Taxonomy
	Logger   *log.Logger
}

// Model is the main bubbletea model
type Model struct {
	deps   Deps
	gate   *session.Gate
	states chan session.State

	viewMode ViewMode
	session  session.State

	// Dashboard state
	listings    []models.Listing
	stats       models.PortfolioStats
	selectedRow int
	loading     bool

	// Leads state
	leadsFor models.Listing
	leads    []models.ContactAttempt

	// Sign-in form
	signinInputs []textinput.Model
	focusIndex   int

	// Signup wizard
	wizard       *onboarding.Wizard
	wizardInputs []textinput.Model

	// UI state
	status string
	width  int
	height int
	err    error
}

// messages produced by remote commands
type (
	stateMsg    session.State
	listingsMsg struct {
		listings []models.Listing
		err      error
	}
	leadsMsg struct {
		listing models.Listing
		leads   []models.ContactAttempt
		err     error
	}
	actionMsg struct {
		status string
		err    error
	}
	submittedMsg struct {
		profile *models.BusinessProfile
		err     error
	}
	locatedMsg struct{}
)

// NewModel creates a new TUI model. The session gate starts on Init.
func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	states := make(chan session.State, 8)
	m := Model{
		deps:     deps,
		states:   states,
		viewMode: ViewLoading,
		width:    80,
		height:   24,
	}
	m.gate = session.NewGate(deps.Identity, deps.Profiles, func(s session.State) {
		states <- s
	}, deps.Logger)
	m.signinInputs = newSigninInputs()
	return m
}

func (m Model) Init() tea.Cmd {
	gate := m.gate
	return tea.Batch(
		func() tea.Msg {
			gate.Start(context.Background())
			return nil
		},
		m.waitForState(),
	)
}

// waitForState blocks until the gate reports the next session state.
func (m Model) waitForState() tea.Cmd {
	states := m.states
	return func() tea.Msg {
		return stateMsg(<-states)
	}
}

// Close stops the session gate.
func (m Model) Close() {
	m.gate.Close()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case stateMsg:
		return m.handleState(session.State(msg))
	case listingsMsg:
		m.loading = false
		m.err = msg.err
		m.listings = msg.listings
		m.stats = m.deps.Listings.Stats()
		if m.selectedRow >= len(m.listings) {
			m.selectedRow = max(len(m.listings)-1, 0)
		}
		return m, nil
	case leadsMsg:
		m.loading = false
		m.err = msg.err
		if msg.listing.ID != "" {
			m.leadsFor = msg.listing
		}
		m.leads = msg.leads
		return m, nil
	case actionMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.listings = m.deps.Listings.Listings()
		m.stats = m.deps.Listings.Stats()
		if m.selectedRow >= len(m.listings) {
			m.selectedRow = max(len(m.listings)-1, 0)
		}
		return m, nil
	case submittedMsg:
		return m.handleSubmitted(msg)
	case locatedMsg:
		return m, nil
	}
	return m, nil
}

// handleState routes on a gate report and keeps listening.
func (m Model) handleState(s session.State) (tea.Model, tea.Cmd) {
	prev := m.session
	m.session = s
	next := m.waitForState()

	switch s.Route {
	case session.RouteSignIn:
		m.listings = nil
		m.stats = models.PortfolioStats{}
		m.leads = nil
		if m.viewMode != ViewSignup {
			m.viewMode = ViewSignIn
			m.signinInputs = newSigninInputs()
			m.focusIndex = 0
		}
		return m, next
	case session.RouteDashboard:
		if s.Err != nil {
			m.err = s.Err
		}
		if m.viewMode == ViewDashboard && prev.User != nil && prev.User.ID == s.User.ID {
			return m, next
		}
		m.viewMode = ViewDashboard
		m.wizard = nil
		m.selectedRow = 0
		m.loading = true
		return m, tea.Batch(next, m.loadListings())
	}
	return m, next
}

func (m Model) tenantID() string {
	if m.session.User == nil {
		return ""
	}
	return m.session.User.ID
}

func (m Model) loadListings() tea.Cmd {
	repo, tenant := m.deps.Listings, m.tenantID()
	return func() tea.Msg {
		all, err := repo.LoadAll(context.Background(), tenant)
		return listingsMsg{listings: all, err: err}
	}
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewLoading:
		return titleStyle.Render("RENTDESK") + "\n\nLoading..."
	case ViewSignIn:
		return m.renderSigninView()
	case ViewSignup:
		return m.renderSignupView()
	case ViewDashboard:
		return m.renderDashboardView()
	case ViewLeads:
		return m.renderLeadsView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewSignIn:
		return m.handleSigninKeys(msg)
	case ViewSignup:
		return m.handleSignupKeys(msg)
	case ViewDashboard:
		return m.handleDashboardKeys(msg)
	case ViewLeads:
		return m.handleLeadsKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	if msg.String() == "q" {
		return m, tea.Quit
	}
	return m, nil
}

// Run starts the full-screen program and blocks until it exits.
func Run(deps Deps) error {
	m := NewModel(deps)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	statStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2).
			MarginRight(1)
)
