package rating

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/common"
)

type Model struct {
	Session      *session.Session
	Orchestrator *store.Orchestrator
	Media        domain.MediaItem
	Score        int
	Busy         bool
	Done         bool
	Error        string
}

func InitialModel(sess *session.Session, media domain.MediaItem) Model {
	return Model{
		Session:      sess,
		Orchestrator: store.NewOrchestrator(sess.Cache()),
		Media:        media,
		Score:        3,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

type ratedMsg struct {
	err error
}

// rateMedia never patches the displayed average. Rating aggregates are
// server-computed, so the mutation only invalidates the views showing them.
func rateMedia(sess *session.Session, orch *store.Orchestrator, mediaId int64, score int) tea.Cmd {
	return func() tea.Msg {
		err := orch.Mutate(context.Background(), store.Mutation{
			Run: func(ctx context.Context) error {
				return sess.Client().RateMedia(ctx, mediaId, score)
			},
			Invalidate: []store.Key{
				store.TopMediaKey(),
				store.MediaSearchPrefix(),
			},
		})
		return ratedMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ratedMsg:
		m.Busy = false
		if msg.err != nil {
			m.Error = api.Detail(msg.err)
			return m, nil
		}
		m.Done = true
		return m, nil

	case tea.KeyMsg:
		if m.Busy {
			return m, nil
		}
		switch msg.String() {
		case "esc", "q":
			return m, func() tea.Msg { return common.CloseOverlayMsg{} }
		case "left", "h":
			if m.Score > 1 && !m.Done {
				m.Score--
			}
		case "right", "l":
			if m.Score < 5 && !m.Done {
				m.Score++
			}
		case "1", "2", "3", "4", "5":
			if !m.Done {
				m.Score = int(msg.String()[0] - '0')
			}
		case "enter":
			if m.Done {
				return m, func() tea.Msg { return common.CloseOverlayMsg{} }
			}
			m.Busy = true
			m.Error = ""
			return m, rateMedia(m.Session, m.Orchestrator, m.Media.Id, m.Score)
		}
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render("rate " + m.Media.Name))
	s.WriteString("\n\n")

	stars := strings.Repeat("★", m.Score) + strings.Repeat("☆", 5-m.Score)
	s.WriteString("  " + common.SelectedStyle.Render(stars))
	s.WriteString(fmt.Sprintf("  (%d/5)\n\n", m.Score))
	s.WriteString(common.ItemStyle.Render(fmt.Sprintf("community: ★%.1f from %d ratings", m.Media.AvgRating, m.Media.RatingCount)))
	s.WriteString("\n\n")

	switch {
	case m.Busy:
		s.WriteString(common.StatusStyle.Render("Saving..."))
	case m.Done:
		s.WriteString(common.StatusStyle.Render("✓ Saved"))
		s.WriteString("\n")
		s.WriteString(common.HelpStyle.Render("enter/esc: close"))
	default:
		s.WriteString(common.HelpStyle.Render("←/→ or 1-5: pick • enter: save • esc: cancel"))
	}

	if m.Error != "" {
		s.WriteString("\n")
		s.WriteString(common.ErrorStyle.Render(m.Error))
	}

	s.WriteString("\n")
	return s.String()
}
