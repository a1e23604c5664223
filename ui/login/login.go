package login

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/ui/common"
	"github.com/recomendo/recomendo/util"
)

var Style = lipgloss.NewStyle().Height(25).Width(80).
	Align(lipgloss.Center, lipgloss.Center).
	BorderStyle(lipgloss.ThickBorder()).
	Margin(0, 3)

const (
	modeLogin = iota
	modeRegister
)

type Model struct {
	Session  *session.Session
	Username textinput.Model
	Email    textinput.Model
	Password textinput.Model
	Mode     int
	Focus    int
	Busy     bool
	Status   string
	Error    string
}

func InitialModel(sess *session.Session) Model {
	username := textinput.New()
	username.Placeholder = "filmbuff42"
	username.CharLimit = 30
	username.Width = 40

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 100
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 100
	password.Width = 40
	password.EchoMode = textinput.EchoPassword

	return Model{
		Session:  sess,
		Username: username,
		Email:    email,
		Password: password,
		Mode:     modeLogin,
		Focus:    0,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// fieldCount is the number of focusable inputs in the current mode.
func (m Model) fieldCount() int {
	if m.Mode == modeRegister {
		return 3
	}
	return 2
}

func (m *Model) applyFocus() {
	m.Username.Blur()
	m.Email.Blur()
	m.Password.Blur()
	switch {
	case m.Mode == modeRegister && m.Focus == 0:
		m.Username.Focus()
	case m.Focus == m.fieldCount()-2:
		m.Email.Focus()
	default:
		m.Password.Focus()
	}
}

type loginDoneMsg struct{}
type registerDoneMsg struct{}

func loginCmd(sess *session.Session, email, password string) tea.Cmd {
	return func() tea.Msg {
		if err := sess.Login(context.Background(), email, password); err != nil {
			return util.ErrMsg(err)
		}
		return loginDoneMsg{}
	}
}

func registerCmd(sess *session.Session, username, email, password string) tea.Cmd {
	return func() tea.Msg {
		if err := sess.Register(context.Background(), username, email, password); err != nil {
			return util.ErrMsg(err)
		}
		return registerDoneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case loginDoneMsg:
		m.Busy = false
		return m, func() tea.Msg { return common.LoggedInMsg{} }

	case registerDoneMsg:
		m.Busy = false
		m.Mode = modeLogin
		m.Focus = 1
		m.applyFocus()
		m.Status = "Account created, now log in"
		m.Error = ""
		return m, nil

	case util.ErrMsg:
		m.Busy = false
		m.Status = ""
		m.Error = api.Detail(msg)
		var apiErr *api.Error
		if errors.As(msg, &apiErr) && apiErr.Validation != nil {
			m.Error = "Password needs: " + strings.Join(apiErr.Validation.Messages(), ", ")
		}
		return m, nil

	case tea.KeyMsg:
		if m.Busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.Focus = (m.Focus + 1) % m.fieldCount()
			m.applyFocus()
			return m, nil
		case "shift+tab", "up":
			m.Focus = (m.Focus + m.fieldCount() - 1) % m.fieldCount()
			m.applyFocus()
			return m, nil
		case "ctrl+r":
			if m.Mode == modeLogin {
				m.Mode = modeRegister
			} else {
				m.Mode = modeLogin
			}
			m.Focus = 0
			m.applyFocus()
			m.Status = ""
			m.Error = ""
			return m, nil
		case "enter":
			if m.Focus < m.fieldCount()-1 {
				m.Focus++
				m.applyFocus()
				return m, nil
			}
			email := strings.TrimSpace(m.Email.Value())
			password := m.Password.Value()
			if email == "" || password == "" {
				m.Error = "Email and password are required"
				return m, nil
			}
			m.Busy = true
			m.Error = ""
			if m.Mode == modeRegister {
				username := strings.TrimSpace(m.Username.Value())
				if username == "" {
					m.Busy = false
					m.Error = "Username is required"
					return m, nil
				}
				m.Status = "Creating account..."
				return m, registerCmd(m.Session, username, email, password)
			}
			m.Status = "Logging in..."
			return m, loginCmd(m.Session, email, password)
		}
	}

	var cmds []tea.Cmd
	m.Username, cmd = m.Username.Update(msg)
	cmds = append(cmds, cmd)
	m.Email, cmd = m.Email.Update(msg)
	cmds = append(cmds, cmd)
	m.Password, cmd = m.Password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var s strings.Builder

	title := "Log into RECOMENDO"
	if m.Mode == modeRegister {
		title = "Create a RECOMENDO account"
	}
	s.WriteString(fmt.Sprintf("%s v%s\n\n", title, util.GetVersion()))

	if m.Mode == modeRegister {
		s.WriteString("username:\n" + m.Username.View() + "\n\n")
	}
	s.WriteString("email:\n" + m.Email.View() + "\n\n")
	s.WriteString("password:\n" + m.Password.View() + "\n\n")

	if m.Status != "" {
		s.WriteString(common.StatusStyle.Render(m.Status) + "\n")
	}
	if m.Error != "" {
		s.WriteString(common.ErrorStyle.Render(m.Error) + "\n")
	}

	s.WriteString("\n")
	if m.Mode == modeLogin {
		s.WriteString(common.HelpStyle.Render("enter: log in • ctrl+r: register instead • ctrl-c: exit"))
	} else {
		s.WriteString(common.HelpStyle.Render("enter: register • ctrl+r: back to login • ctrl-c: exit"))
	}

	return s.String()
}

// ViewWithWidth centers the bordered login box in the terminal.
func (m Model) ViewWithWidth(termWidth, termHeight int) string {
	contentWidth := termWidth - 8
	if contentWidth < 40 {
		contentWidth = 40
	}

	bordered := Style.Width(contentWidth).Render(m.View())
	return lipgloss.Place(termWidth, termHeight, lipgloss.Center, lipgloss.Center, bordered)
}
