// ABOUTME: Business registration wizard view for TUI
// ABOUTME: Three form steps over the onboarding wizard with background location lookup
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/onboarding"
)

type wizardField struct {
	name  string
	label string
}

var wizardSteps = map[onboarding.Step][]wizardField{
	onboarding.StepBusinessInfo: {
		{onboarding.FieldBusinessName, "Business name"},
		{onboarding.FieldOwnerName, "Owner name"},
		{onboarding.FieldRegistrationNumber, "Registration no."},
		{onboarding.FieldEmail, "Email"},
		{onboarding.FieldCategory, "Category"},
	},
	onboarding.StepContactInfo: {
		{onboarding.FieldPhoneNumber, "Phone"},
		{onboarding.FieldWhatsAppNumber, "WhatsApp"},
		{onboarding.FieldIDNumber, "ID number"},
	},
	onboarding.StepLocationInfo: {
		{onboarding.FieldRegion, "County"},
		{onboarding.FieldSubRegion, "Sub-county"},
	},
}

var fieldErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("9")).
	PaddingLeft(4)

func (m Model) startSignup() (tea.Model, tea.Cmd) {
	m.wizard = onboarding.New(onboarding.Deps{
		Identity: m.deps.Identity,
		Store:    m.deps.Store,
		Locator:  m.deps.Locator,
		Taxonomy: m.deps.Taxonomy,
		Logger:   m.deps.Logger,
	})
	m.viewMode = ViewSignup
	m.loadWizardInputs()

	w := m.wizard
	return m, func() tea.Msg {
		<-w.StartLocating(context.Background())
		return locatedMsg{}
	}
}

// loadWizardInputs builds inputs for the wizard's current step from its form.
func (m *Model) loadWizardInputs() {
	fields := wizardSteps[m.wizard.Step()]
	form := m.wizard.Form()

	m.wizardInputs = make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-17s ", f.label+":")
		in.SetValue(mustGet(form, f.name))
		if f.name == onboarding.FieldIDNumber {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		if f.name == onboarding.FieldRegion && m.deps.Taxonomy != nil {
			in.ShowSuggestions = true
			in.SetSuggestions(m.deps.Taxonomy.Regions())
		}
		if f.name == onboarding.FieldSubRegion {
			in.ShowSuggestions = true
			in.SetSuggestions(m.wizard.SubRegionOptions())
		}
		m.wizardInputs[i] = in
	}
	m.focusIndex = 0
	if len(m.wizardInputs) > 0 {
		m.wizardInputs[0].Focus()
	}
}

func mustGet(f onboarding.Form, name string) string {
	v, _ := f.Get(name)
	return v
}

// pushWizardInputs copies input values into the wizard, region first since
// selecting a region clears the sub-region.
func (m Model) pushWizardInputs() {
	fields := wizardSteps[m.wizard.Step()]
	for i, f := range fields {
		if f.name == onboarding.FieldRegion {
			_ = m.wizard.SetField(f.name, strings.TrimSpace(m.wizardInputs[i].Value()))
		}
	}
	for i, f := range fields {
		if f.name != onboarding.FieldRegion {
			_ = m.wizard.SetField(f.name, strings.TrimSpace(m.wizardInputs[i].Value()))
		}
	}
}

func (m Model) renderSignupView() string {
	var s strings.Builder

	step := m.wizard.Step()
	s.WriteString(titleStyle.Render(fmt.Sprintf("REGISTER YOUR BUSINESS · %s", strings.ToUpper(step.String()))))
	s.WriteString("\n\n")

	if step == onboarding.StepSubmitting {
		s.WriteString("Creating your account...\n")
		return s.String()
	}

	errs := m.wizard.Errors()
	for i, input := range m.wizardInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
		if i >= len(wizardSteps[step]) {
			continue
		}
		if msg, ok := errs[wizardSteps[step][i].name]; ok {
			s.WriteString(fieldErrorStyle.Render(msg))
			s.WriteString("\n")
		}
	}

	if step == onboarding.StepLocationInfo {
		s.WriteString("\n")
		s.WriteString(m.renderLocation())
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(m.err.Error()))
		s.WriteString("\n")
	}

	help := []string{"Tab: Next field", "Enter: Continue", "Esc: Back"}
	if step == onboarding.StepLocationInfo {
		help[1] = "Enter: Register"
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}

func (m Model) renderLocation() string {
	switch m.wizard.Location() {
	case onboarding.LocationDetecting:
		return "Location: detecting..."
	case onboarding.LocationSuccess:
		f := m.wizard.Form()
		return statusStyle.Render(fmt.Sprintf("Location: %s, %s", f.Latitude, f.Longitude))
	case onboarding.LocationError:
		return "Location: unavailable (you can still register)"
	}
	return ""
}

func (m Model) handleSignupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if step := m.wizard.Step(); step == onboarding.StepSubmitting || step == onboarding.StepDone {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.focusWizardInput(1)
		return m, nil
	case "shift+tab", "up":
		m.focusWizardInput(-1)
		return m, nil
	case "esc":
		m.pushWizardInputs()
		if m.wizard.Step() == onboarding.StepBusinessInfo {
			m.wizard = nil
			m.viewMode = ViewSignIn
			m.signinInputs = newSigninInputs()
			m.focusIndex = 0
			return m, nil
		}
		m.wizard.Back()
		m.loadWizardInputs()
		return m, nil
	case "enter":
		m.err = nil
		m.pushWizardInputs()
		if m.wizard.Step() == onboarding.StepLocationInfo {
			w := m.wizard
			return m, func() tea.Msg {
				profile, err := w.Submit(context.Background())
				return submittedMsg{profile: profile, err: err}
			}
		}
		if err := m.wizard.Next(); err == nil {
			m.loadWizardInputs()
		}
		return m, nil
	}

	if m.focusIndex >= len(m.wizardInputs) {
		return m, nil
	}
	var cmd tea.Cmd
	m.wizardInputs[m.focusIndex], cmd = m.wizardInputs[m.focusIndex].Update(msg)

	// keep the sub-county suggestions in step with the typed county
	fields := wizardSteps[m.wizard.Step()]
	if m.focusIndex < len(fields) && fields[m.focusIndex].name == onboarding.FieldRegion && m.deps.Taxonomy != nil && len(m.wizardInputs) > 1 {
		region := strings.TrimSpace(m.wizardInputs[m.focusIndex].Value())
		m.wizardInputs[1].SetSuggestions(m.deps.Taxonomy.SubRegionsOf(region))
	}
	return m, cmd
}

func (m *Model) focusWizardInput(delta int) {
	if len(m.wizardInputs) == 0 {
		return
	}
	m.wizardInputs[m.focusIndex].Blur()
	m.focusIndex = (m.focusIndex + delta + len(m.wizardInputs)) % len(m.wizardInputs)
	m.wizardInputs[m.focusIndex].Focus()
}

func (m Model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		// the gate routes to the dashboard once sign-in lands
		m.status = fmt.Sprintf("Welcome, %s", msg.profile.BusinessName)
		if m.viewMode == ViewSignup {
			m.wizard = nil
			m.viewMode = ViewSignIn
			m.signinInputs = newSigninInputs()
			m.focusIndex = 0
		}
		return m, nil
	}

	var verr *models.ValidationError
	if !errors.As(msg.err, &verr) {
		m.err = msg.err
	}
	if m.wizard != nil {
		m.loadWizardInputs()
	}
	return m, nil
}
