package comments

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/common"
	"github.com/recomendo/recomendo/util"
)

type Model struct {
	Session      *session.Session
	Orchestrator *store.Orchestrator
	Media        domain.MediaItem
	Comments     []domain.Comment
	Input        textinput.Model
	Busy         bool
	Error        string
}

func InitialModel(sess *session.Session, media domain.MediaItem) Model {
	ti := textinput.New()
	ti.Placeholder = "say something about it..."
	ti.CharLimit = 280
	ti.Width = 50
	ti.Focus()

	return Model{
		Session:      sess,
		Orchestrator: store.NewOrchestrator(sess.Cache()),
		Media:        media,
		Input:        ti,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadComments(m.Session, m.Media.Id))
}

type commentsLoadedMsg struct {
	mediaId  int64
	comments []domain.Comment
}

type commentsFailedMsg struct {
	err error
}

type postedMsg struct {
	err error
}

func loadComments(sess *session.Session, mediaId int64) tea.Cmd {
	return func() tea.Msg {
		comments, err := store.FetchAs(context.Background(), sess.Cache(), store.CommentsKey(mediaId),
			func(ctx context.Context) ([]domain.Comment, error) {
				return sess.Client().Comments(ctx, mediaId)
			})
		if err != nil {
			log.Printf("Failed to load comments: %v", err)
			return commentsFailedMsg{err: err}
		}
		return commentsLoadedMsg{mediaId: mediaId, comments: comments}
	}
}

func postComment(sess *session.Session, orch *store.Orchestrator, mediaId int64, content string) tea.Cmd {
	return func() tea.Msg {
		err := orch.Mutate(context.Background(), store.Mutation{
			Run: func(ctx context.Context) error {
				_, err := sess.Client().PostComment(ctx, mediaId, content)
				return err
			},
			Invalidate: []store.Key{
				store.CommentsKey(mediaId),
				store.TopMediaKey(),
			},
		})
		return postedMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case commentsLoadedMsg:
		if msg.mediaId != m.Media.Id {
			return m, nil
		}
		m.Comments = msg.comments
		m.Error = ""
		return m, nil

	case commentsFailedMsg:
		m.Error = msg.err.Error()
		return m, nil

	case postedMsg:
		m.Busy = false
		if msg.err != nil {
			m.Error = api.Detail(msg.err)
			return m, nil
		}
		m.Input.SetValue("")
		m.Error = ""
		return m, loadComments(m.Session, m.Media.Id)

	case tea.KeyMsg:
		if m.Busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return common.CloseOverlayMsg{} }
		case "enter":
			content := util.NormalizeInput(m.Input.Value())
			if content == "" {
				return m, nil
			}
			m.Busy = true
			m.Error = ""
			return m, postComment(m.Session, m.Orchestrator, m.Media.Id, content)
		}
	}

	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("comments on %s (%d)", m.Media.Name, len(m.Comments))))
	s.WriteString("\n\n")

	if len(m.Comments) == 0 {
		s.WriteString(common.EmptyStyle.Render("No comments yet. Be the first!"))
		s.WriteString("\n")
	} else {
		displayCount := min(len(m.Comments), 8)
		start := len(m.Comments) - displayCount
		for _, comment := range m.Comments[start:] {
			s.WriteString(common.ItemStyle.Render(fmt.Sprintf("@%s (%s)",
				comment.User.Username, comment.CreatedAt.Format(util.DateTimeFormat()))))
			s.WriteString("\n")
			s.WriteString(common.ItemStyle.Render("  " + util.TruncateString(comment.Content, 70)))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(m.Input.View())
	s.WriteString("\n\n")

	if m.Busy {
		s.WriteString(common.StatusStyle.Render("Posting..."))
		s.WriteString("\n")
	}
	if m.Error != "" {
		s.WriteString(common.ErrorStyle.Render(m.Error))
		s.WriteString("\n")
	}

	s.WriteString(common.HelpStyle.Render("enter: post • esc: close"))
	s.WriteString("\n")

	return s.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
