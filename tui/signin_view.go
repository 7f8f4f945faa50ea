// ABOUTME: Sign-in view for TUI
// ABOUTME: Email and ID-number form; signing in hands routing to the session gate
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func newSigninInputs() []textinput.Model {
	email := textinput.New()
	email.Placeholder = "you@business.co.ke"
	email.Prompt = "Email:     "
	email.Focus()

	secret := textinput.New()
	secret.Placeholder = "ID number"
	secret.Prompt = "ID number: "
	secret.EchoMode = textinput.EchoPassword
	secret.EchoCharacter = '•'

	return []textinput.Model{email, secret}
}

func (m Model) renderSigninView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("RENTDESK · SIGN IN"))
	s.WriteString("\n\n")

	for i, input := range m.signinInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(m.err.Error()))
		s.WriteString("\n")
	}

	help := []string{
		"Tab: Next field",
		"Enter: Sign in",
		"Ctrl+N: Register a business",
		"Ctrl+C: Quit",
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}

func (m Model) handleSigninKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.signinInputs[m.focusIndex].Blur()
		m.focusIndex = (m.focusIndex + 1) % len(m.signinInputs)
		m.signinInputs[m.focusIndex].Focus()
		return m, nil
	case "ctrl+n":
		m.err = nil
		return m.startSignup()
	case "enter":
		email := strings.TrimSpace(m.signinInputs[0].Value())
		secret := m.signinInputs[1].Value()
		m.err = nil
		svc := m.deps.Identity
		return m, func() tea.Msg {
			// routing happens through the gate; only failures come back here
			_, err := svc.SignIn(context.Background(), email, secret)
			if err != nil {
				return actionMsg{err: err}
			}
			return nil
		}
	}

	var cmd tea.Cmd
	m.signinInputs[m.focusIndex], cmd = m.signinInputs[m.focusIndex].Update(msg)
	return m, cmd
}
