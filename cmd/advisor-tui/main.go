package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"crop-advisor/advisory"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultURL = "http://localhost:5000"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("34")).
			MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("34")).
			Padding(0, 1).
			Width(60)

	cropStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type step int

const (
	stepEnteringUsername step = iota
	stepEnteringLoginPassword
	stepLoggingIn
	stepEnteringField
	stepAsking
	stepShowingAnswer
)

type model struct {
	client       *apiClient
	fields       []advisory.Field
	step         step
	username     string
	loginPass    string
	authToken    string
	fieldIndex   int
	values       map[string]string
	currentInput string
	answer       answer
	message      string
	quitting     bool
}

type loginSuccessMsg struct{ token string }
type answerMsg answer
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(client *apiClient) model {
	return model{
		client: client,
		fields: advisory.Fields(),
		step:   stepEnteringUsername,
		values: make(map[string]string),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func loginUser(client *apiClient, username, password string) tea.Cmd {
	return func() tea.Msg {
		token, err := client.login(context.Background(), username, password)
		if err != nil {
			return errMsg{err}
		}
		return loginSuccessMsg{token: token}
	}
}

func askAdvisor(client *apiClient, token string, values map[string]string) tea.Cmd {
	return func() tea.Msg {
		a, err := client.ask(context.Background(), token, values)
		if err != nil {
			return errMsg{err}
		}
		return answerMsg(a)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyBackspace:
			if len(m.currentInput) > 0 {
				r := []rune(m.currentInput)
				m.currentInput = string(r[:len(r)-1])
			}

		case tea.KeyEnter:
			return m.submit()

		case tea.KeyRunes, tea.KeySpace:
			if m.acceptsInput() {
				m.currentInput += msg.String()
			} else if m.step == stepShowingAnswer && msg.String() == "q" {
				m.quitting = true
				return m, tea.Quit
			}
		}

	case loginSuccessMsg:
		m.authToken = msg.token
		m.step = stepEnteringField
		m.message = successStyle.Render("✓ Logged in as " + m.username)

	case answerMsg:
		m.answer = answer(msg)
		m.step = stepShowingAnswer
		m.message = ""

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		switch m.step {
		case stepLoggingIn:
			m.step = stepEnteringUsername
		case stepAsking:
			m.step = stepShowingAnswer
		}
	}

	return m, nil
}

func (m model) acceptsInput() bool {
	switch m.step {
	case stepEnteringUsername, stepEnteringLoginPassword, stepEnteringField:
		return true
	}
	return false
}

func (m model) submit() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepEnteringUsername:
		if m.currentInput != "" {
			m.username = m.currentInput
			m.currentInput = ""
			m.message = ""
			m.step = stepEnteringLoginPassword
		}

	case stepEnteringLoginPassword:
		if m.currentInput != "" {
			m.loginPass = m.currentInput
			m.currentInput = ""
			m.step = stepLoggingIn
			m.message = "Logging in..."
			return m, loginUser(m.client, m.username, m.loginPass)
		}

	case stepEnteringField:
		// An empty answer leaves the field out so the server fills in Unknown.
		if v := strings.TrimSpace(m.currentInput); v != "" {
			m.values[m.fields[m.fieldIndex].Key] = v
		}
		m.currentInput = ""
		m.fieldIndex++
		if m.fieldIndex == len(m.fields) {
			m.step = stepAsking
			m.message = "Asking the advisor..."
			return m, askAdvisor(m.client, m.authToken, m.values)
		}

	case stepShowingAnswer:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("🌾 CropAdvisor"))
	s.WriteString("\n")

	switch m.step {
	case stepEnteringUsername:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		s.WriteString(promptStyle.Render("Enter your username:") + "\n")
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringLoginPassword:
		s.WriteString(promptStyle.Render("Enter your password:") + "\n")
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", len([]rune(m.currentInput)))))
		s.WriteString("\n\nPress Enter\n")

	case stepLoggingIn, stepAsking:
		s.WriteString(m.message + "\n")

	case stepEnteringField:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		f := m.fields[m.fieldIndex]
		s.WriteString(hintStyle.Render(fmt.Sprintf("Field %d of %d", m.fieldIndex+1, len(m.fields))) + "\n")
		s.WriteString(promptStyle.Render(f.Label+":") + "\n")
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\n" + hintStyle.Render("Enter to continue, empty for Unknown, Esc to quit") + "\n")

	case stepShowingAnswer:
		if m.message != "" {
			s.WriteString(m.message + "\n")
		} else {
			s.WriteString(renderAnswer(m.answer))
		}
		s.WriteString("\nPress Enter or q to exit\n")
	}

	return s.String()
}

func renderAnswer(a answer) string {
	if len(a.Crops) == 0 {
		return cardStyle.Render(a.Text) + "\n"
	}
	var s strings.Builder
	for i, c := range a.Crops {
		body := cropStyle.Render(fmt.Sprintf("%d. %s", i+1, c.Name)) + "\n" + c.Reason
		s.WriteString(cardStyle.Render(body) + "\n")
	}
	return s.String()
}

func main() {
	baseURL := os.Getenv("ADVISOR_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}

	p := tea.NewProgram(initialModel(newAPIClient(baseURL)))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
