package userprofile

import (
	"context"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/common"
	"github.com/recomendo/recomendo/util"
)

const (
	tabFollowers = iota
	tabFollowings
	tabFriends
	tabCount
)

// Model shows another user's profile: their identity plus the three
// social-graph tabs.
type Model struct {
	Session  *session.Session
	User     domain.User
	Tab      int
	Users    []domain.User
	Selected int
	Width    int
	Height   int
	Error    string
}

func InitialModel(sess *session.Session, user domain.User, width, height int) Model {
	return Model{
		Session: sess,
		User:    user,
		Tab:     tabFollowers,
		Width:   width,
		Height:  height,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(loadUser(m.Session, m.User.Id), m.loadTab())
}

func (m Model) tabKey() store.Key {
	switch m.Tab {
	case tabFollowings:
		return store.FollowingsKey(m.User.Id)
	case tabFriends:
		return store.FriendsKey(m.User.Id)
	default:
		return store.FollowersKey(m.User.Id)
	}
}

func (m Model) loadTab() tea.Cmd {
	return loadGraphTab(m.Session, m.User.Id, m.Tab)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case userLoadedMsg:
		if msg.user.Id != m.User.Id {
			return m, nil
		}
		m.User = msg.user
		return m, nil

	case usersLoadedMsg:
		if msg.userId != m.User.Id || msg.tab != m.Tab {
			return m, nil
		}
		m.Users = msg.users
		m.Error = ""
		if m.Selected >= len(m.Users) {
			m.Selected = 0
		}
		return m, nil

	case loadFailedMsg:
		m.Error = msg.err.Error()
		return m, nil

	case common.CacheUpdatedMsg:
		if m.Session == nil {
			return m, nil
		}
		if msg.Key.HasPrefix(m.tabKey()) {
			return m, m.loadTab()
		}
		if msg.Key.HasPrefix(store.UserKey(m.User.Id)) {
			return m, loadUser(m.Session, m.User.Id)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			m.Tab = (m.Tab + tabCount - 1) % tabCount
			m.Selected = 0
			return m, m.loadTab()
		case "right", "l":
			m.Tab = (m.Tab + 1) % tabCount
			m.Selected = 0
			return m, m.loadTab()
		case "up", "k":
			if m.Selected > 0 {
				m.Selected--
			}
		case "down", "j":
			if m.Selected < len(m.Users)-1 {
				m.Selected++
			}
		case "r":
			recipient := m.User
			return m, func() tea.Msg { return common.OpenComposerMsg{Recipient: &recipient} }
		case "esc", "backspace", "q":
			return m, func() tea.Msg { return common.CloseUserProfileMsg{} }
		}
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("@%s", m.User.Username)))
	s.WriteString("\n")
	s.WriteString(common.HelpStyle.Render(fmt.Sprintf("registered: %s", m.User.CreatedAt.Format(util.DateTimeFormat()))))
	s.WriteString("\n\n")

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("%s (%d)", tabTitle(m.Tab), len(m.Users))))
	s.WriteString("\n\n")

	if len(m.Users) == 0 {
		s.WriteString(common.EmptyStyle.Render("Nobody here."))
		s.WriteString("\n")
	} else {
		for i, user := range m.Users {
			line := fmt.Sprintf("@%s", user.Username)
			if i == m.Selected {
				s.WriteString("→ " + common.SelectedStyle.Render(line))
			} else {
				s.WriteString("  " + common.ItemStyle.Render(line))
			}
			s.WriteString("\n")
		}
	}

	if m.Error != "" {
		s.WriteString("\n")
		s.WriteString(common.ErrorStyle.Render(m.Error))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(common.HelpStyle.Render("←/→: tabs • r: recommend to this user • esc: back"))

	return s.String()
}

func tabTitle(tab int) string {
	switch tab {
	case tabFollowings:
		return "following"
	case tabFriends:
		return "friends"
	default:
		return "followers"
	}
}

type userLoadedMsg struct {
	user domain.User
}

type usersLoadedMsg struct {
	userId int64
	tab    int
	users  []domain.User
}

type loadFailedMsg struct {
	err error
}

func loadUser(sess *session.Session, userId int64) tea.Cmd {
	return func() tea.Msg {
		user, err := store.FetchAs(context.Background(), sess.Cache(), store.UserKey(userId),
			func(ctx context.Context) (*domain.User, error) {
				return sess.Client().UserById(ctx, userId)
			})
		if err != nil {
			log.Printf("Failed to load user %d: %v", userId, err)
			return loadFailedMsg{err: err}
		}
		if user == nil {
			return nil
		}
		return userLoadedMsg{user: *user}
	}
}

func loadGraphTab(sess *session.Session, userId int64, tab int) tea.Cmd {
	return func() tea.Msg {
		var key store.Key
		switch tab {
		case tabFollowings:
			key = store.FollowingsKey(userId)
		case tabFriends:
			key = store.FriendsKey(userId)
		default:
			key = store.FollowersKey(userId)
		}

		users, err := store.FetchAs(context.Background(), sess.Cache(), key,
			func(ctx context.Context) ([]domain.User, error) {
				switch tab {
				case tabFollowings:
					return sess.Client().Followings(ctx, userId)
				case tabFriends:
					return sess.Client().Friends(ctx, userId)
				default:
					return sess.Client().Followers(ctx, userId)
				}
			})
		if err != nil {
			log.Printf("Failed to load user %d graph: %v", userId, err)
			return loadFailedMsg{err: err}
		}
		return usersLoadedMsg{userId: userId, tab: tab, users: users}
	}
}
