package media

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/debounce"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/common"
)

// Searches fire only once the query is longer than this, shorter input
// falls back to the top list.
const minQueryLen = 2

const searchDelay = 300 * time.Millisecond

type Model struct {
	Session   *session.Session
	Input     textinput.Model
	Debouncer debounce.Debouncer
	Items     []domain.MediaItem
	Query     string
	Selected  int
	Width     int
	Height    int
	Error     string
}

func InitialModel(sess *session.Session, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "search films, books, games..."
	ti.CharLimit = 80
	ti.Width = 40
	ti.Focus()

	return Model{
		Session:   sess,
		Input:     ti,
		Debouncer: debounce.New(searchDelay),
		Items:     []domain.MediaItem{},
		Width:     width,
		Height:    height,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadTopMedia(m.Session))
}

func (m Model) SelectedMedia() *domain.MediaItem {
	if len(m.Items) == 0 || m.Selected >= len(m.Items) {
		return nil
	}
	media := m.Items[m.Selected]
	return &media
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case mediaLoadedMsg:
		// a result for an outdated query is dropped, the cache still
		// holds it under its own key
		if msg.query != m.Query {
			return m, nil
		}
		m.Items = msg.items
		m.Error = ""
		if m.Selected >= len(m.Items) {
			m.Selected = 0
		}
		return m, nil

	case mediaFailedMsg:
		m.Error = msg.err.Error()
		return m, nil

	case debounce.Msg:
		if !m.Debouncer.Current(msg) {
			return m, nil
		}
		query := strings.TrimSpace(msg.Value)
		if len(query) <= minQueryLen {
			m.Query = ""
			return m, loadTopMedia(m.Session)
		}
		m.Query = query
		return m, searchMedia(m.Session, query)

	case common.CacheUpdatedMsg:
		if msg.Key.HasPrefix(store.TopMediaKey()) && m.Query == "" {
			return m, loadTopMedia(m.Session)
		}
		if m.Query != "" && msg.Key.HasPrefix(store.MediaSearchKey(m.Query)) {
			return m, searchMedia(m.Session, m.Query)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			if m.Selected > 0 {
				m.Selected--
			}
			return m, nil
		case "down":
			if m.Selected < len(m.Items)-1 {
				m.Selected++
			}
			return m, nil
		case "enter":
			if media := m.SelectedMedia(); media != nil {
				return m, func() tea.Msg { return common.OpenComposerMsg{Media: media} }
			}
			return m, nil
		case "ctrl+r":
			if media := m.SelectedMedia(); media != nil {
				return m, func() tea.Msg { return common.OpenRatingMsg{Media: *media} }
			}
			return m, nil
		case "ctrl+o":
			if media := m.SelectedMedia(); media != nil {
				return m, func() tea.Msg { return common.OpenCommentsMsg{Media: *media} }
			}
			return m, nil
		}

		// everything else is typing, restart the debounce timer
		before := m.Input.Value()
		m.Input, cmd = m.Input.Update(msg)
		if m.Input.Value() != before {
			return m, tea.Batch(cmd, m.Debouncer.Bump(m.Input.Value()))
		}
		return m, cmd
	}

	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	caption := "top media"
	if m.Query != "" {
		caption = fmt.Sprintf("search: %q (%d)", m.Query, len(m.Items))
	}
	s.WriteString(common.CaptionStyle.Render(caption))
	s.WriteString("\n\n")
	s.WriteString(m.Input.View())
	s.WriteString("\n\n")

	if len(m.Items) == 0 {
		s.WriteString(common.EmptyStyle.Render("Nothing found."))
		s.WriteString("\n")
	} else {
		displayCount := min(len(m.Items), 10)
		for i := 0; i < displayCount; i++ {
			item := m.Items[i]
			line := fmt.Sprintf("• %s  ★%.1f (%d) 💬%d",
				item.Label(), item.AvgRating, item.RatingCount, item.CommentCount)
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

type mediaLoadedMsg struct {
	query string
	items []domain.MediaItem
}

type mediaFailedMsg struct {
	err error
}

func loadTopMedia(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		items, err := store.FetchAs(context.Background(), sess.Cache(), store.TopMediaKey(),
			func(ctx context.Context) ([]domain.MediaItem, error) {
				return sess.Client().TopMedia(ctx)
			})
		if err != nil {
			log.Printf("Failed to load top media: %v", err)
			return mediaFailedMsg{err: err}
		}
		return mediaLoadedMsg{query: "", items: items}
	}
}

func searchMedia(sess *session.Session, query string) tea.Cmd {
	return func() tea.Msg {
		items, err := store.FetchAs(context.Background(), sess.Cache(), store.MediaSearchKey(query),
			func(ctx context.Context) ([]domain.MediaItem, error) {
				return sess.Client().SearchMedia(ctx, query, "")
			})
		if err != nil {
			log.Printf("Search %q failed: %v", query, err)
			return mediaFailedMsg{err: err}
		}
		return mediaLoadedMsg{query: query, items: items}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
