package community

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/common"
)

const (
	tabSuggested = iota
	tabNewest
	tabTopRecommenders
	tabCount
)

type Model struct {
	Session      *session.Session
	Orchestrator *store.Orchestrator
	Tab          int
	Users        []domain.User
	Following    map[int64]bool
	Selected     int
	Width        int
	Height       int
	Status       string
	Error        string
}

func InitialModel(sess *session.Session, width, height int) Model {
	return Model{
		Session:      sess,
		Orchestrator: store.NewOrchestrator(sess.Cache()),
		Tab:          tabSuggested,
		Users:        []domain.User{},
		Following:    map[int64]bool{},
		Width:        width,
		Height:       height,
	}
}

func (m Model) Init() tea.Cmd {
	return loadUsers(m.Session, m.Tab)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		if msg.tab != m.Tab {
			return m, nil
		}
		m.Users = msg.users
		m.Following = msg.following
		m.Error = ""
		if m.Selected >= len(m.Users) {
			m.Selected = 0
		}
		return m, nil

	case usersFailedMsg:
		m.Error = msg.err.Error()
		return m, nil

	case followSettledMsg:
		if msg.err != nil {
			m.Status = ""
			m.Error = api.Detail(msg.err)
			return m, clearStatusAfter(2 * time.Second)
		}
		return m, nil

	case clearStatusMsg:
		m.Status = ""
		m.Error = ""
		return m, nil

	case common.CacheUpdatedMsg:
		if msg.Key.HasPrefix(store.MyFollowingsKey()) || msg.Key.HasPrefix(tabKey(m.Tab)) {
			return m, loadUsers(m.Session, m.Tab)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			m.Tab = (m.Tab + tabCount - 1) % tabCount
			m.Selected = 0
			return m, loadUsers(m.Session, m.Tab)
		case "right", "l":
			m.Tab = (m.Tab + 1) % tabCount
			m.Selected = 0
			return m, loadUsers(m.Session, m.Tab)
		case "up", "k":
			if m.Selected > 0 {
				m.Selected--
			}
		case "down", "j":
			if m.Selected < len(m.Users)-1 {
				m.Selected++
			}
		case "o":
			if len(m.Users) == 0 || m.Selected >= len(m.Users) {
				return m, nil
			}
			target := m.Users[m.Selected]
			return m, func() tea.Msg { return common.OpenUserProfileMsg{User: target} }
		case "r":
			if len(m.Users) == 0 || m.Selected >= len(m.Users) {
				return m, nil
			}
			target := m.Users[m.Selected]
			me := m.Session.User()
			if me != nil && target.Id == me.Id {
				m.Error = "You can't recommend to yourself!"
				return m, clearStatusAfter(2 * time.Second)
			}
			return m, func() tea.Msg { return common.OpenComposerMsg{Recipient: &target} }
		case "enter", "f":
			if len(m.Users) == 0 || m.Selected >= len(m.Users) {
				return m, nil
			}
			target := m.Users[m.Selected]
			me := m.Session.User()
			if me != nil && target.Id == me.Id {
				m.Error = "You can't follow yourself!"
				return m, clearStatusAfter(2 * time.Second)
			}

			if m.Following[target.Id] {
				delete(m.Following, target.Id)
				m.Status = fmt.Sprintf("Unfollowed @%s", target.Username)
				return m, tea.Batch(
					unfollowUser(m.Session, m.Orchestrator, target),
					clearStatusAfter(2*time.Second))
			}
			m.Following[target.Id] = true
			m.Status = fmt.Sprintf("Following @%s", target.Username)
			return m, tea.Batch(
				followUser(m.Session, m.Orchestrator, target),
				clearStatusAfter(2*time.Second))
		}
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("%s (%d)", tabTitle(m.Tab), len(m.Users))))
	s.WriteString("\n\n")

	if len(m.Users) == 0 {
		s.WriteString(common.EmptyStyle.Render("Nobody here yet."))
		s.WriteString("\n")
	} else {
		me := m.Session.User()
		for i, user := range m.Users {
			followStatus := ""
			if m.Following[user.Id] {
				followStatus = " [following]"
			}
			if me != nil && user.Id == me.Id {
				followStatus = " (you)"
			}
			line := fmt.Sprintf("@%s%s", user.Username, followStatus)
			if i == m.Selected {
				s.WriteString("→ " + common.SelectedStyle.Render(line))
			} else {
				s.WriteString("  " + common.ItemStyle.Render(line))
			}
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	if m.Status != "" {
		s.WriteString(common.StatusStyle.Render(m.Status))
		s.WriteString("\n")
	}
	if m.Error != "" {
		s.WriteString(common.ErrorStyle.Render(m.Error))
		s.WriteString("\n")
	}

	return s.String()
}

func tabTitle(tab int) string {
	switch tab {
	case tabNewest:
		return "newest users"
	case tabTopRecommenders:
		return "top recommenders"
	default:
		return "suggested users"
	}
}

func tabKey(tab int) store.Key {
	switch tab {
	case tabNewest:
		return store.NewestUsersKey()
	case tabTopRecommenders:
		return store.TopRecommendersKey()
	default:
		return store.SuggestedUsersKey()
	}
}

type usersLoadedMsg struct {
	tab       int
	users     []domain.User
	following map[int64]bool
}

type usersFailedMsg struct {
	err error
}

type followSettledMsg struct {
	err error
}

type clearStatusMsg struct{}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func loadUsers(sess *session.Session, tab int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		users, err := store.FetchAs(ctx, sess.Cache(), tabKey(tab),
			func(ctx context.Context) ([]domain.User, error) {
				switch tab {
				case tabNewest:
					return sess.Client().NewestUsers(ctx)
				case tabTopRecommenders:
					return sess.Client().TopRecommenders(ctx)
				default:
					return sess.Client().SuggestedUsers(ctx)
				}
			})
		if err != nil {
			log.Printf("Failed to load users: %v", err)
			return usersFailedMsg{err: err}
		}

		followings, err := store.FetchAs(ctx, sess.Cache(), store.MyFollowingsKey(),
			func(ctx context.Context) ([]domain.User, error) {
				return sess.Client().MyFollowings(ctx)
			})
		following := map[int64]bool{}
		if err == nil {
			for _, f := range followings {
				following[f.Id] = true
			}
		}

		return usersLoadedMsg{tab: tab, users: users, following: following}
	}
}

// followUser adds the target to the cached followings optimistically and
// rolls back if the call fails. Membership only, never counters.
func followUser(sess *session.Session, orch *store.Orchestrator, target domain.User) tea.Cmd {
	return func() tea.Msg {
		err := orch.Mutate(context.Background(), store.Mutation{
			Run: func(ctx context.Context) error {
				return sess.Client().Follow(ctx, target.Id)
			},
			Optimistic: []store.Patch{{
				Key: store.MyFollowingsKey(),
				Update: func(old any, loaded bool) any {
					users, _ := old.([]domain.User)
					next := make([]domain.User, 0, len(users)+1)
					next = append(next, users...)
					return append(next, target)
				},
			}},
			Invalidate: followEdgeKeys(sess, target, store.FeedKey()),
		})
		return followSettledMsg{err: err}
	}
}

func unfollowUser(sess *session.Session, orch *store.Orchestrator, target domain.User) tea.Cmd {
	return func() tea.Msg {
		err := orch.Mutate(context.Background(), store.Mutation{
			Run: func(ctx context.Context) error {
				return sess.Client().Unfollow(ctx, target.Id)
			},
			Optimistic: []store.Patch{{
				Key: store.MyFollowingsKey(),
				Update: func(old any, loaded bool) any {
					users, _ := old.([]domain.User)
					next := make([]domain.User, 0, len(users))
					for _, u := range users {
						if u.Id != target.Id {
							next = append(next, u)
						}
					}
					return next
				},
			}},
			Invalidate: followEdgeKeys(sess, target),
		})
		return followSettledMsg{err: err}
	}
}

// followEdgeKeys lists every cached view a follow edge change can affect:
// my own lists plus the per-user views of both endpoints.
func followEdgeKeys(sess *session.Session, target domain.User, extra ...store.Key) []store.Key {
	keys := []store.Key{
		store.MyFollowingsKey(),
		store.MyFriendsKey(),
		store.FollowersKey(target.Id),
		store.FriendsKey(target.Id),
	}
	if me := sess.User(); me != nil {
		keys = append(keys, store.FollowingsKey(me.Id), store.FriendsKey(me.Id))
	}
	return append(keys, extra...)
}
