package editprofile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/ui/common"
	"github.com/recomendo/recomendo/util"
)

const (
	focusUsername = iota
	focusCurrentPassword
	focusNewPassword
	focusAvatar
	focusCount
)

type Model struct {
	Session         *session.Session
	Username        textinput.Model
	CurrentPassword textinput.Model
	NewPassword     textinput.Model
	AvatarPath      textinput.Model
	Focus           int
	Busy            bool
	ConfirmDelete   bool
	Status          string
	Error           string
}

func InitialModel(sess *session.Session) Model {
	username := textinput.New()
	username.Placeholder = "new username"
	username.CharLimit = 30
	username.Width = 40
	username.Focus()
	if me := sess.User(); me != nil {
		username.SetValue(me.Username)
	}

	current := textinput.New()
	current.Placeholder = "current password"
	current.CharLimit = 100
	current.Width = 40
	current.EchoMode = textinput.EchoPassword

	next := textinput.New()
	next.Placeholder = "new password"
	next.CharLimit = 100
	next.Width = 40
	next.EchoMode = textinput.EchoPassword

	avatar := textinput.New()
	avatar.Placeholder = "/path/to/avatar.png"
	avatar.CharLimit = 200
	avatar.Width = 40

	return Model{
		Session:         sess,
		Username:        username,
		CurrentPassword: current,
		NewPassword:     next,
		AvatarPath:      avatar,
		Focus:           focusUsername,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) applyFocus() {
	m.Username.Blur()
	m.CurrentPassword.Blur()
	m.NewPassword.Blur()
	m.AvatarPath.Blur()
	switch m.Focus {
	case focusUsername:
		m.Username.Focus()
	case focusCurrentPassword:
		m.CurrentPassword.Focus()
	case focusNewPassword:
		m.NewPassword.Focus()
	case focusAvatar:
		m.AvatarPath.Focus()
	}
}

type usernameSavedMsg struct{}
type passwordSavedMsg struct{}
type avatarSavedMsg struct{}
type avatarRemovedMsg struct{}
type accountDeletedMsg struct{}
type clearStatusMsg struct{}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// saveUsername updates the profile and refetches the identity so every
// surface showing it picks up the new value.
func saveUsername(sess *session.Session, username string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := sess.Client().UpdateMe(ctx, username); err != nil {
			return util.ErrMsg(err)
		}
		if err := sess.Refetch(ctx); err != nil {
			return util.ErrMsg(err)
		}
		return usernameSavedMsg{}
	}
}

func savePassword(sess *session.Session, current, next string) tea.Cmd {
	return func() tea.Msg {
		if err := sess.Client().ChangePassword(context.Background(), current, next); err != nil {
			return util.ErrMsg(err)
		}
		return passwordSavedMsg{}
	}
}

// uploadAvatar streams the local file and refetches the identity so the
// new avatar URL shows up everywhere.
func uploadAvatar(sess *session.Session, path string) tea.Cmd {
	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return util.ErrMsg(err)
		}
		defer file.Close()

		ctx := context.Background()
		if err := sess.Client().UploadAvatar(ctx, filepath.Base(path), file); err != nil {
			return util.ErrMsg(err)
		}
		if err := sess.Refetch(ctx); err != nil {
			return util.ErrMsg(err)
		}
		return avatarSavedMsg{}
	}
}

func removeAvatar(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := sess.Client().DeleteAvatar(ctx); err != nil {
			return util.ErrMsg(err)
		}
		if err := sess.Refetch(ctx); err != nil {
			return util.ErrMsg(err)
		}
		return avatarRemovedMsg{}
	}
}

func deleteAccount(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		if err := sess.Client().DeleteMe(context.Background()); err != nil {
			return util.ErrMsg(err)
		}
		sess.Logout()
		return accountDeletedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case usernameSavedMsg:
		m.Busy = false
		m.Status = "Username updated"
		m.Error = ""
		return m, tea.Batch(
			func() tea.Msg { return common.IdentityChangedMsg{} },
			clearStatusAfter(2*time.Second),
		)

	case passwordSavedMsg:
		m.Busy = false
		m.Status = "Password changed"
		m.Error = ""
		m.CurrentPassword.SetValue("")
		m.NewPassword.SetValue("")
		return m, clearStatusAfter(2 * time.Second)

	case avatarSavedMsg:
		m.Busy = false
		m.Status = "Avatar uploaded"
		m.Error = ""
		m.AvatarPath.SetValue("")
		return m, tea.Batch(
			func() tea.Msg { return common.IdentityChangedMsg{} },
			clearStatusAfter(2*time.Second),
		)

	case avatarRemovedMsg:
		m.Busy = false
		m.Status = "Avatar removed"
		m.Error = ""
		return m, tea.Batch(
			func() tea.Msg { return common.IdentityChangedMsg{} },
			clearStatusAfter(2*time.Second),
		)

	case accountDeletedMsg:
		m.Busy = false
		return m, func() tea.Msg { return common.LoggedOutMsg{} }

	case clearStatusMsg:
		m.Status = ""
		return m, nil

	case util.ErrMsg:
		m.Busy = false
		m.Status = ""
		m.ConfirmDelete = false
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
			m.Focus = (m.Focus + 1) % focusCount
			m.applyFocus()
			m.ConfirmDelete = false
			return m, nil
		case "shift+tab", "up":
			m.Focus = (m.Focus + focusCount - 1) % focusCount
			m.applyFocus()
			m.ConfirmDelete = false
			return m, nil
		case "ctrl+l":
			m.Session.Logout()
			return m, func() tea.Msg { return common.LoggedOutMsg{} }
		case "ctrl+d":
			m.ConfirmDelete = false
			m.Busy = true
			m.Error = ""
			m.Status = "Removing avatar..."
			return m, removeAvatar(m.Session)
		case "ctrl+x":
			if !m.ConfirmDelete {
				m.ConfirmDelete = true
				m.Error = ""
				m.Status = ""
				return m, nil
			}
			m.ConfirmDelete = false
			m.Busy = true
			m.Status = "Deleting account..."
			return m, deleteAccount(m.Session)
		case "enter":
			m.ConfirmDelete = false
			if m.Focus == focusUsername {
				username := strings.TrimSpace(m.Username.Value())
				if username == "" {
					m.Error = "Username cannot be empty"
					return m, nil
				}
				m.Busy = true
				m.Error = ""
				m.Status = "Saving username..."
				return m, saveUsername(m.Session, username)
			}
			if m.Focus == focusCurrentPassword {
				m.Focus = focusNewPassword
				m.applyFocus()
				return m, nil
			}
			if m.Focus == focusAvatar {
				path := strings.TrimSpace(m.AvatarPath.Value())
				if path == "" {
					m.Error = "Give a file path to upload"
					return m, nil
				}
				m.Busy = true
				m.Error = ""
				m.Status = "Uploading avatar..."
				return m, uploadAvatar(m.Session, path)
			}
			current := m.CurrentPassword.Value()
			next := m.NewPassword.Value()
			if current == "" || next == "" {
				m.Error = "Both the current and the new password are required"
				return m, nil
			}
			m.Busy = true
			m.Error = ""
			m.Status = "Changing password..."
			return m, savePassword(m.Session, current, next)
		}
	}

	var cmds []tea.Cmd
	m.Username, cmd = m.Username.Update(msg)
	cmds = append(cmds, cmd)
	m.CurrentPassword, cmd = m.CurrentPassword.Update(msg)
	cmds = append(cmds, cmd)
	m.NewPassword, cmd = m.NewPassword.Update(msg)
	cmds = append(cmds, cmd)
	m.AvatarPath, cmd = m.AvatarPath.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render("edit profile") + "\n\n")

	s.WriteString("username:\n" + m.Username.View() + "\n\n")
	s.WriteString("current password:\n" + m.CurrentPassword.View() + "\n")
	s.WriteString("new password:\n" + m.NewPassword.View() + "\n\n")
	s.WriteString("avatar file:\n" + m.AvatarPath.View() + "\n\n")

	if m.ConfirmDelete {
		s.WriteString(common.ErrorStyle.Render("Press ctrl+x again to delete your account for good") + "\n")
	}
	if m.Status != "" {
		s.WriteString(common.StatusStyle.Render(m.Status) + "\n")
	}
	if m.Error != "" {
		s.WriteString(common.ErrorStyle.Render(m.Error) + "\n")
	}

	s.WriteString("\n" + common.HelpStyle.Render(
		fmt.Sprintf("enter: save • tab: next field • ctrl+d: remove avatar • ctrl+l: log out • ctrl+x: delete account • v%s", util.GetVersion())))

	return s.String()
}
