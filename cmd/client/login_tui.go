package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/openmined/projectsync/internal/utils"
)

// View states
type viewState int

const (
	usernameView viewState = iota
	passwordView
)

// Strings
const (
	txtUsernamePlaceholder = "your-username"
	txtPasswordPlaceholder = "••••••••"
	txtUsernamePrompt      = "Enter your username"
	txtRequestingToken     = "Requesting token..."
	txtPasswordPrompt      = "Enter the password for %s"
	txtInvalidUsername     = "Username is required"
	txtInvalidPassword     = "Password is required"
	txtHelp                = "Press 'Enter' to submit. 'Esc' to go back/quit. 'Ctrl+C' to quit."
)

// Styles
var (
	focusedStyle     = green
	helpStyle        = gray
	errorTextStyle   = red
	errorHeaderStyle = red.Bold(true)
	spinnerStyle     = cyan
	placeholderStyle = gray
	titleStyle       = cyan.Bold(true)
)

type LoginTUIOpts struct {
	Username           string
	APIRoot            string
	DataDir            string
	ConfigPath         string
	Note               string // optional note to display to the user
	PasswordSubmitFn   func(username, password string) error
	UsernameValidator  func(username string) bool
	PasswordValidator  func(password string) bool
}

// Model holds the application's state
type loginModel struct {
	opts *LoginTUIOpts

	usernameInput textinput.Model
	passwordInput textinput.Model
	spinner       spinner.Model

	currentView  viewState
	previousView viewState

	isLoading    bool
	errorMessage string
	message      string
	width        int

	submittedUsername string
}

type loginProcessedMsg struct{ err error }

func newLoginModel(opts *LoginTUIOpts) loginModel {
	username := textinput.New()
	username.Placeholder = txtUsernamePlaceholder
	username.SetValue(opts.Username)
	username.Focus()
	username.CharLimit = 64
	username.Width = 64
	username.PromptStyle = focusedStyle
	username.TextStyle = focusedStyle
	username.PlaceholderStyle = placeholderStyle

	password := textinput.New()
	password.Placeholder = txtPasswordPlaceholder
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 32
	password.PromptStyle = focusedStyle
	password.TextStyle = focusedStyle
	password.PlaceholderStyle = placeholderStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return loginModel{
		opts:          opts,
		currentView:   usernameView,
		previousView:  usernameView,
		usernameInput: username,
		passwordInput: password,
		spinner:       s,
	}
}

func (m loginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.usernameInput.Focused() {
			m.errorMessage = ""
			m.usernameInput, cmd = m.usernameInput.Update(msg)
			cmds = append(cmds, cmd)
		} else if m.passwordInput.Focused() {
			m.errorMessage = ""
			m.passwordInput, cmd = m.passwordInput.Update(msg)
			cmds = append(cmds, cmd)
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEsc:
			return m.handleEscapeKey()

		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}

			switch m.currentView {
			case usernameView:
				return m.submitUsername()

			case passwordView:
				return m.submitPassword()
			}
		}

	case spinner.TickMsg:
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	case loginProcessedMsg:
		return m.handleLoginMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	return m, tea.Batch(cmds...)
}

func (m loginModel) handleEscapeKey() (tea.Model, tea.Cmd) {
	if m.currentView == passwordView {
		m.currentView = usernameView
		m.passwordInput.Blur()
		m.usernameInput.Focus()
		m.errorMessage = ""
		return m, textinput.Blink
	}

	return m, tea.Quit
}

func (m loginModel) submitUsername() (tea.Model, tea.Cmd) {
	m.previousView = usernameView
	m.errorMessage = ""

	usernameVal := strings.TrimSpace(m.usernameInput.Value())
	if !m.opts.UsernameValidator(usernameVal) {
		m.errorMessage = txtInvalidUsername
		return m, nil
	}

	m.submittedUsername = usernameVal
	m.usernameInput.Blur()
	m.currentView = passwordView
	m.passwordInput.Focus()

	return m, textinput.Blink
}

func (m loginModel) submitPassword() (tea.Model, tea.Cmd) {
	m.previousView = passwordView
	m.errorMessage = ""

	passwordVal := m.passwordInput.Value()
	if !m.opts.PasswordValidator(passwordVal) {
		m.errorMessage = txtInvalidPassword
		return m, nil
	}

	m.isLoading = true
	m.message = txtRequestingToken
	m.passwordInput.Blur()

	return m, func() tea.Msg {
		err := m.opts.PasswordSubmitFn(m.submittedUsername, passwordVal)
		return loginProcessedMsg{err: err}
	}
}

func (m loginModel) handleLoginMsg(msg loginProcessedMsg) (tea.Model, tea.Cmd) {
	m.isLoading = false

	if msg.err != nil {
		m.errorMessage = fmt.Sprintf("%s %s", errorHeaderStyle.Render("ERROR: "), msg.err.Error())
		m.passwordInput.Focus()
		return m, textinput.Blink
	}

	return m, tea.Quit
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(utils.Banner))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Server  "), green.Render(m.opts.APIRoot)))
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Data    "), green.Render(m.opts.DataDir)))
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Config  "), green.Render(m.opts.ConfigPath)))
	if m.opts.Note != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", yellow.Render(m.opts.Note)))
	}
	b.WriteString("\n")

	switch m.currentView {
	case usernameView:
		m.renderUsernameView(&b)
	case passwordView:
		m.renderPasswordView(&b)
	}
	m.renderLoadingView(&b)
	m.renderErrorView(&b)
	m.renderHelpView(&b)
	b.WriteString("\n")
	return b.String()
}

func (m loginModel) renderUsernameView(b *strings.Builder) {
	b.WriteString(txtUsernamePrompt)
	b.WriteString("\n\n")
	b.WriteString(m.usernameInput.View())
}

func (m loginModel) renderPasswordView(b *strings.Builder) {
	b.WriteString(fmt.Sprintf(txtPasswordPrompt, green.Render(m.submittedUsername)))
	b.WriteString("\n\n")
	b.WriteString(m.passwordInput.View())
}

func (m loginModel) renderLoadingView(b *strings.Builder) {
	if m.isLoading {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.message))
	}
}

func (m loginModel) renderErrorView(b *strings.Builder) {
	if m.errorMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(errorTextStyle.Render(m.errorMessage))
	}
}

func (m loginModel) renderHelpView(b *strings.Builder) {
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(txtHelp))
}

// RunLoginTUI is the main entry point to start the Bubble Tea login interface.
func RunLoginTUI(opts LoginTUIOpts) error {
	loginM := newLoginModel(&opts)
	model, err := tea.NewProgram(loginM, tea.WithAltScreen()).Run()
	if err != nil {
		log.Printf("error running login TUI: %v", err)
		return fmt.Errorf("login TUI encountered an error during execution: %w", err)
	}

	if fm, ok := model.(loginModel); ok {
		if fm.errorMessage != "" {
			return fmt.Errorf("login process interrupted: %s", fm.errorMessage)
		}

		if fm.currentView == usernameView {
			return fmt.Errorf("login process cancelled by user")
		}
	}

	return nil
}
