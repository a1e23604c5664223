package aifind

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/ui/common"
	"github.com/recomendo/recomendo/util"
)

type Model struct {
	Session     *session.Session
	Description textinput.Model
	Guesses     []domain.AIGuess
	Selected    int
	Searched    bool
	Busy        bool
	Error       string
}

func InitialModel(sess *session.Session) Model {
	description := textinput.New()
	description.Placeholder = "that space movie where the ocean planet reads your mind"
	description.CharLimit = 300
	description.Width = 70
	description.Focus()

	return Model{
		Session:     sess,
		Description: description,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

type guessesLoadedMsg struct {
	guesses []domain.AIGuess
}

func findMedia(client *api.Client, description string) tea.Cmd {
	return func() tea.Msg {
		guesses, err := client.FindMediaWithAI(context.Background(), description)
		if err != nil {
			return util.ErrMsg(err)
		}
		return guessesLoadedMsg{guesses: guesses}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case guessesLoadedMsg:
		m.Busy = false
		m.Searched = true
		m.Guesses = msg.guesses
		m.Selected = 0
		return m, nil

	case util.ErrMsg:
		m.Busy = false
		m.Error = api.Detail(msg)
		return m, nil

	case tea.KeyMsg:
		if m.Busy {
			return m, nil
		}
		switch msg.String() {
		case "up":
			if m.Selected > 0 {
				m.Selected--
			}
			return m, nil
		case "down":
			if m.Selected < len(m.Guesses)-1 {
				m.Selected++
			}
			return m, nil
		case "enter":
			if description := strings.TrimSpace(m.Description.Value()); m.Description.Focused() {
				if description == "" {
					m.Error = "Describe the thing first"
					return m, nil
				}
				m.Busy = true
				m.Error = ""
				m.Description.Blur()
				return m, findMedia(m.Session.Client(), description)
			}
			if m.Selected < len(m.Guesses) {
				guess := m.Guesses[m.Selected]
				if guess.Media == nil {
					m.Error = "That guess is not in the catalog yet"
					return m, nil
				}
				media := *guess.Media
				return m, func() tea.Msg { return common.OpenComposerMsg{Media: &media} }
			}
			return m, nil
		case "/", "e":
			if !m.Description.Focused() {
				m.Description.Focus()
				return m, textinput.Blink
			}
		case "esc":
			if m.Description.Focused() && len(m.Guesses) > 0 {
				m.Description.Blur()
				return m, nil
			}
		}
	}

	if m.Description.Focused() {
		m.Description, cmd = m.Description.Update(msg)
	}
	return m, cmd
}

func renderGuess(guess domain.AIGuess, selected bool) string {
	line := guess.Name
	if guess.Year > 0 {
		line += fmt.Sprintf(" (%d)", guess.Year)
	}
	if guess.Author != "" {
		line += " by " + guess.Author
	}
	if guess.Media == nil {
		return common.ItemStyle.Render("  " + common.DisabledStyle.Render(line+" [not in catalog]"))
	}
	line += fmt.Sprintf(" [%s]", guess.Media.ItemType)
	if selected {
		return common.ItemStyle.Render("→ " + common.SelectedStyle.Render(line))
	}
	return common.ItemStyle.Render("  " + line)
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render("describe it, we will find it") + "\n\n")
	s.WriteString(m.Description.View() + "\n\n")

	if m.Busy {
		s.WriteString(common.StatusStyle.Render("Thinking...") + "\n")
	}

	if m.Searched && len(m.Guesses) == 0 && !m.Busy {
		s.WriteString(common.EmptyStyle.Render("No idea what that could be, try more detail") + "\n")
	}

	for i, guess := range m.Guesses {
		s.WriteString(renderGuess(guess, !m.Description.Focused() && i == m.Selected) + "\n")
		if guess.Reason != "" {
			s.WriteString(common.HelpStyle.Render("    "+util.TruncateString(guess.Reason, 70)) + "\n")
		}
	}

	if m.Error != "" {
		s.WriteString("\n" + common.ErrorStyle.Render(m.Error) + "\n")
	}

	if m.Description.Focused() {
		s.WriteString("\n" + common.HelpStyle.Render("enter: search • esc: back to results"))
	} else {
		s.WriteString("\n" + common.HelpStyle.Render("enter: recommend this • /: edit description"))
	}

	return s.String()
}
