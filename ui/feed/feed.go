package feed

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

type Model struct {
	Session  *session.Session
	Items    []domain.FeedItem
	Selected int
	Width    int
	Height   int
	Error    string
}

func InitialModel(sess *session.Session, width, height int) Model {
	return Model{
		Session: sess,
		Items:   []domain.FeedItem{},
		Width:   width,
		Height:  height,
	}
}

func (m Model) Init() tea.Cmd {
	return loadFeed(m.Session)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case feedLoadedMsg:
		m.Items = msg.items
		m.Error = ""
		if m.Selected >= len(m.Items) {
			m.Selected = 0
		}
		return m, nil

	case feedFailedMsg:
		m.Error = msg.err.Error()
		return m, nil

	case common.CacheUpdatedMsg:
		if msg.Key.HasPrefix(store.FeedKey()) {
			return m, loadFeed(m.Session)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.Selected > 0 {
				m.Selected--
			}
		case "down", "j":
			if m.Selected < len(m.Items)-1 {
				m.Selected++
			}
		case "r":
			m.Session.Cache().Invalidate(store.FeedKey())
			return m, loadFeed(m.Session)
		}
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("activity feed (%d)", len(m.Items))))
	s.WriteString("\n\n")

	if len(m.Items) == 0 {
		s.WriteString(common.EmptyStyle.Render("Nothing happened yet.\nFollow someone or send a recommendation!"))
	} else {
		displayCount := min(len(m.Items), 12)
		for i := 0; i < displayCount; i++ {
			line := renderItem(m.Items[i])
			if i == m.Selected {
				s.WriteString("→ " + common.SelectedStyle.Render(line))
			} else {
				s.WriteString("  " + common.ItemStyle.Render(line))
			}
			s.WriteString("\n")
		}
		if len(m.Items) > displayCount {
			s.WriteString(common.ItemStyle.Render(fmt.Sprintf("... and %d more", len(m.Items)-displayCount)))
			s.WriteString("\n")
		}
	}

	if m.Error != "" {
		s.WriteString("\n")
		s.WriteString(common.ErrorStyle.Render(m.Error))
		s.WriteString("\n")
	}

	return s.String()
}

func renderItem(item domain.FeedItem) string {
	when := item.CreatedAt.Format(util.DateTimeFormat())
	rec, follow, err := item.DecodeDetails()
	switch {
	case err != nil:
		return fmt.Sprintf("• %s did something (%s)", item.Actor.Username, when)
	case rec != nil:
		return fmt.Sprintf("• %s recommended %s to %s (%s)",
			item.Actor.Username, rec.Media.Name, rec.Recipient.Username, when)
	case follow != nil:
		return fmt.Sprintf("• %s followed %s (%s)",
			item.Actor.Username, follow.FollowedUser.Username, when)
	default:
		return fmt.Sprintf("• %s (%s)", item.Actor.Username, when)
	}
}

type feedLoadedMsg struct {
	items []domain.FeedItem
}

type feedFailedMsg struct {
	err error
}

func loadFeed(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		items, err := store.FetchAs(context.Background(), sess.Cache(), store.FeedKey(),
			func(ctx context.Context) ([]domain.FeedItem, error) {
				return sess.Client().Feed(ctx)
			})
		if err != nil {
			log.Printf("Failed to load feed: %v", err)
			return feedFailedMsg{err: err}
		}
		return feedLoadedMsg{items: items}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
