package profile

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
	"github.com/recomendo/recomendo/util"
)

const (
	tabFollowings = iota
	tabFriends
	tabSent
	tabReceived
	tabCount
)

type Model struct {
	Session      *session.Session
	Orchestrator *store.Orchestrator
	Tab          int
	Users        []domain.User
	Recs         []domain.RecommendationDetails
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
		Tab:          tabFollowings,
		Width:        width,
		Height:       height,
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadTab()
}

func (m Model) listLen() int {
	if m.Tab == tabSent || m.Tab == tabReceived {
		return len(m.Recs)
	}
	return len(m.Users)
}

func (m Model) loadTab() tea.Cmd {
	me := m.Session.User()
	if me == nil {
		return nil
	}
	switch m.Tab {
	case tabFriends:
		return loadUserTab(m.Session, m.Tab, store.MyFriendsKey(),
			func(ctx context.Context) ([]domain.User, error) {
				return m.Session.Client().MyFriends(ctx)
			})
	case tabSent:
		return loadRecTab(m.Session, m.Tab, me.Id, api.DirectionSent)
	case tabReceived:
		return loadRecTab(m.Session, m.Tab, me.Id, api.DirectionReceived)
	default:
		return loadUserTab(m.Session, m.Tab, store.MyFollowingsKey(),
			func(ctx context.Context) ([]domain.User, error) {
				return m.Session.Client().MyFollowings(ctx)
			})
	}
}

func (m Model) tabKey() store.Key {
	me := m.Session.User()
	switch m.Tab {
	case tabFriends:
		return store.MyFriendsKey()
	case tabSent:
		return store.RecommendationsKey(me.Id, api.DirectionSent)
	case tabReceived:
		return store.RecommendationsKey(me.Id, api.DirectionReceived)
	default:
		return store.MyFollowingsKey()
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		if msg.tab != m.Tab {
			return m, nil
		}
		m.Users = msg.users
		m.Error = ""
		if m.Selected >= m.listLen() {
			m.Selected = 0
		}
		return m, nil

	case recsLoadedMsg:
		if msg.tab != m.Tab {
			return m, nil
		}
		m.Recs = msg.recs
		m.Error = ""
		if m.Selected >= m.listLen() {
			m.Selected = 0
		}
		return m, nil

	case loadFailedMsg:
		m.Error = msg.err.Error()
		return m, nil

	case mutationSettledMsg:
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
		if m.Session.User() != nil && msg.Key.HasPrefix(m.tabKey()) {
			return m, m.loadTab()
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
			if m.Selected < m.listLen()-1 {
				m.Selected++
			}
		case "r":
			if target := m.selectedUser(); target != nil {
				recipient := *target
				return m, func() tea.Msg { return common.OpenComposerMsg{Recipient: &recipient} }
			}
		case "o":
			if target := m.selectedUser(); target != nil {
				return m, func() tea.Msg { return common.OpenUserProfileMsg{User: *target} }
			}
		case "u", "enter":
			return m.confirmAction()
		}
	}
	return m, nil
}

// selectedUser returns the highlighted user on the user-list tabs.
func (m Model) selectedUser() *domain.User {
	if m.Tab != tabFollowings && m.Tab != tabFriends {
		return nil
	}
	if len(m.Users) == 0 || m.Selected >= len(m.Users) {
		return nil
	}
	user := m.Users[m.Selected]
	return &user
}

// confirmAction unfollows on the followings tab and withdraws a sent
// recommendation on the sent tab. Friends and received are read-only.
func (m Model) confirmAction() (Model, tea.Cmd) {
	switch m.Tab {
	case tabFollowings:
		if len(m.Users) == 0 || m.Selected >= len(m.Users) {
			return m, nil
		}
		target := m.Users[m.Selected]
		m.Users = append(m.Users[:m.Selected], m.Users[m.Selected+1:]...)
		if m.Selected >= len(m.Users) && m.Selected > 0 {
			m.Selected--
		}
		m.Status = fmt.Sprintf("Unfollowed @%s", target.Username)
		m.Error = ""
		return m, tea.Batch(
			unfollowUser(m.Session, m.Orchestrator, target),
			clearStatusAfter(2*time.Second))

	case tabSent:
		if len(m.Recs) == 0 || m.Selected >= len(m.Recs) {
			return m, nil
		}
		rec := m.Recs[m.Selected]
		m.Status = fmt.Sprintf("Withdrew %s", rec.Media.Name)
		m.Error = ""
		return m, tea.Batch(
			deleteRecommendation(m.Session, m.Orchestrator, rec),
			clearStatusAfter(2*time.Second))
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("%s (%d)", tabTitle(m.Tab), m.listLen())))
	s.WriteString("\n\n")

	if m.listLen() == 0 {
		s.WriteString(common.EmptyStyle.Render(emptyText(m.Tab)))
		s.WriteString("\n")
	} else if m.Tab == tabSent || m.Tab == tabReceived {
		for i, rec := range m.Recs {
			var line string
			if m.Tab == tabSent {
				line = fmt.Sprintf("• %s → @%s (%s)",
					rec.Media.Label(), rec.User.Username, rec.CreatedAt.Format(util.DateTimeFormat()))
			} else {
				line = fmt.Sprintf("• %s ← @%s (%s)",
					rec.Media.Label(), rec.User.Username, rec.CreatedAt.Format(util.DateTimeFormat()))
			}
			if i == m.Selected {
				s.WriteString("→ " + common.SelectedStyle.Render(line))
			} else {
				s.WriteString("  " + common.ItemStyle.Render(line))
			}
			s.WriteString("\n")
		}
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
	case tabFriends:
		return "friends"
	case tabSent:
		return "recommendations sent"
	case tabReceived:
		return "recommendations received"
	default:
		return "following"
	}
}

func emptyText(tab int) string {
	switch tab {
	case tabFriends:
		return "No mutual follows yet.\nFriendship needs both sides to follow."
	case tabSent:
		return "You haven't recommended anything yet."
	case tabReceived:
		return "Nobody recommended anything to you yet."
	default:
		return "You're not following anyone yet."
	}
}

type usersLoadedMsg struct {
	tab   int
	users []domain.User
}

type recsLoadedMsg struct {
	tab  int
	recs []domain.RecommendationDetails
}

type loadFailedMsg struct {
	err error
}

type mutationSettledMsg struct {
	err error
}

type clearStatusMsg struct{}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func loadUserTab(sess *session.Session, tab int, key store.Key, loader func(ctx context.Context) ([]domain.User, error)) tea.Cmd {
	return func() tea.Msg {
		users, err := store.FetchAs(context.Background(), sess.Cache(), key, loader)
		if err != nil {
			log.Printf("Failed to load %s: %v", key.String(), err)
			return loadFailedMsg{err: err}
		}
		return usersLoadedMsg{tab: tab, users: users}
	}
}

func loadRecTab(sess *session.Session, tab int, userId int64, direction string) tea.Cmd {
	return func() tea.Msg {
		recs, err := store.FetchAs(context.Background(), sess.Cache(),
			store.RecommendationsKey(userId, direction),
			func(ctx context.Context) ([]domain.RecommendationDetails, error) {
				return sess.Client().Recommendations(ctx, userId, direction)
			})
		if err != nil {
			log.Printf("Failed to load recommendations: %v", err)
			return loadFailedMsg{err: err}
		}
		return recsLoadedMsg{tab: tab, recs: recs}
	}
}

func unfollowUser(sess *session.Session, orch *store.Orchestrator, target domain.User) tea.Cmd {
	return func() tea.Msg {
		// A dropped follow edge touches the per-user views of both
		// endpoints, not just my own lists.
		invalidate := []store.Key{
			store.MyFollowingsKey(),
			store.MyFriendsKey(),
			store.FollowersKey(target.Id),
			store.FriendsKey(target.Id),
		}
		if me := sess.User(); me != nil {
			invalidate = append(invalidate, store.FollowingsKey(me.Id), store.FriendsKey(me.Id))
		}

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
			Invalidate: invalidate,
		})
		return mutationSettledMsg{err: err}
	}
}

// deleteRecommendation has no optimistic patch. The lists it affects
// carry server-computed aggregates, so it only invalidates.
func deleteRecommendation(sess *session.Session, orch *store.Orchestrator, rec domain.RecommendationDetails) tea.Cmd {
	return func() tea.Msg {
		me := sess.User()
		if me == nil {
			return mutationSettledMsg{}
		}
		err := orch.Mutate(context.Background(), store.Mutation{
			Run: func(ctx context.Context) error {
				return sess.Client().DeleteRecommendation(ctx, rec.Id)
			},
			Invalidate: []store.Key{
				store.RecommendationsKey(me.Id, api.DirectionSent),
				store.RecommendationsOfKey(rec.User.Id),
				store.TopMediaKey(),
			},
		})
		return mutationSettledMsg{err: err}
	}
}
