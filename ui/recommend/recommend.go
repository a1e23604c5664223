package recommend

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/debounce"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/common"
)

// Phase is the composer's position in its fixed lifecycle. Transitions
// only ever happen through Update; there is no way to submit twice.
type Phase int

const (
	SelectingMedia Phase = iota
	SelectingRecipient
	Ready
	Submitting
	Succeeded
	Failed
)

const (
	minQueryLen = 2
	searchDelay = 300 * time.Millisecond
)

type Model struct {
	Session      *session.Session
	Orchestrator *store.Orchestrator
	Phase        Phase

	MediaInput    textinput.Model
	Debouncer     debounce.Debouncer
	MediaItems    []domain.MediaItem
	MediaSelected int
	Media         *domain.MediaItem

	Friends        []domain.User
	AlreadySent    map[int64]bool
	FriendSelected int
	Recipient      *domain.User

	Width  int
	Height int
	Error  string
}

func InitialModel(sess *session.Session, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "what do you want to recommend?"
	ti.CharLimit = 80
	ti.Width = 40
	ti.Focus()

	return Model{
		Session:      sess,
		Orchestrator: store.NewOrchestrator(sess.Cache()),
		Phase:        SelectingMedia,
		MediaInput:   ti,
		Debouncer:    debounce.New(searchDelay),
		AlreadySent:  map[int64]bool{},
		Width:        width,
		Height:       height,
	}
}

// Open resets the composer for a fresh run. Either slot may arrive
// pre-filled: a media record skips the search step, a recipient skips the
// friend picker, and both together land directly on the confirmation.
func (m Model) Open(media *domain.MediaItem, recipient *domain.User) (Model, tea.Cmd) {
	fresh := InitialModel(m.Session, m.Width, m.Height)
	fresh.Media = media
	fresh.Recipient = recipient
	switch {
	case media != nil && recipient != nil:
		fresh.Phase = Ready
		return fresh, nil
	case media != nil:
		fresh.Phase = SelectingRecipient
		return fresh, fresh.loadRecipients()
	default:
		fresh.Phase = SelectingMedia
		return fresh, textinput.Blink
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// EligibleRecipients returns the friends that can still receive the
// selected media, in display order.
func (m Model) EligibleRecipients() []domain.User {
	var eligible []domain.User
	for _, f := range m.Friends {
		if !m.AlreadySent[f.Id] {
			eligible = append(eligible, f)
		}
	}
	return eligible
}

func (m Model) loadRecipients() tea.Cmd {
	me := m.Session.User()
	if me == nil || m.Media == nil {
		return nil
	}
	return loadRecipients(m.Session, me.Id, m.Media.Id)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case mediaFoundMsg:
		if m.Phase != SelectingMedia {
			return m, nil
		}
		m.MediaItems = msg.items
		if m.MediaSelected >= len(m.MediaItems) {
			m.MediaSelected = 0
		}
		return m, nil

	case recipientsLoadedMsg:
		if msg.mediaId != 0 && (m.Media == nil || m.Media.Id != msg.mediaId) {
			return m, nil
		}
		m.Friends = msg.friends
		m.AlreadySent = msg.alreadySent
		if m.FriendSelected >= len(m.Friends) {
			m.FriendSelected = 0
		}
		return m, nil

	case loadFailedMsg:
		m.Error = msg.err.Error()
		return m, nil

	case submitSettledMsg:
		if m.Phase != Submitting {
			return m, nil
		}
		if msg.err == nil {
			m.Phase = Succeeded
			m.Error = ""
			return m, nil
		}
		if api.IsConflict(msg.err) {
			// the server is authoritative about the duplicate, mark the
			// friend and send the user back to pick another
			if m.Recipient != nil {
				m.AlreadySent[m.Recipient.Id] = true
			}
			m.Recipient = nil
			m.FriendSelected = 0
			m.Phase = SelectingRecipient
			m.Error = "Already recommended to this friend"
			// a pre-filled recipient arrives without a loaded friends list
			if len(m.Friends) == 0 {
				return m, m.loadRecipients()
			}
			return m, nil
		}
		m.Phase = Failed
		m.Error = api.Detail(msg.err)
		return m, nil

	case debounce.Msg:
		if m.Phase != SelectingMedia || !m.Debouncer.Current(msg) {
			return m, nil
		}
		query := strings.TrimSpace(msg.Value)
		if len(query) <= minQueryLen {
			m.MediaItems = nil
			return m, nil
		}
		return m, searchMedia(m.Session, query)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.Phase == SelectingMedia {
		m.MediaInput, cmd = m.MediaInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.Phase {
	case SelectingMedia:
		switch msg.String() {
		case "up":
			if m.MediaSelected > 0 {
				m.MediaSelected--
			}
			return m, nil
		case "down":
			if m.MediaSelected < len(m.MediaItems)-1 {
				m.MediaSelected++
			}
			return m, nil
		case "enter":
			if len(m.MediaItems) == 0 || m.MediaSelected >= len(m.MediaItems) {
				return m, nil
			}
			media := m.MediaItems[m.MediaSelected]
			m.Media = &media
			m.Error = ""
			if m.Recipient != nil {
				m.Phase = Ready
				return m, nil
			}
			m.Phase = SelectingRecipient
			return m, m.loadRecipients()
		}
		before := m.MediaInput.Value()
		m.MediaInput, cmd = m.MediaInput.Update(msg)
		if m.MediaInput.Value() != before {
			return m, tea.Batch(cmd, m.Debouncer.Bump(m.MediaInput.Value()))
		}
		return m, cmd

	case SelectingRecipient:
		eligible := m.EligibleRecipients()
		switch msg.String() {
		case "up", "k":
			if m.FriendSelected > 0 {
				m.FriendSelected--
			}
		case "down", "j":
			if m.FriendSelected < len(eligible)-1 {
				m.FriendSelected++
			}
		case "esc", "backspace":
			if m.Media != nil {
				m.Media = nil
				m.Phase = SelectingMedia
				m.Error = ""
				return m, textinput.Blink
			}
		case "enter":
			if len(eligible) == 0 || m.FriendSelected >= len(eligible) {
				return m, nil
			}
			recipient := eligible[m.FriendSelected]
			m.Recipient = &recipient
			m.Phase = Ready
			m.Error = ""
		}
		return m, nil

	case Ready:
		switch msg.String() {
		case "esc", "backspace":
			m.Recipient = nil
			m.Phase = SelectingRecipient
			m.Error = ""
			if len(m.Friends) == 0 {
				return m, m.loadRecipients()
			}
		case "enter":
			m.Phase = Submitting
			m.Error = ""
			return m, submit(m.Session, m.Orchestrator, *m.Media, *m.Recipient)
		}
		return m, nil

	case Submitting:
		// confirm is a no-op while in flight
		return m, nil

	case Succeeded:
		switch msg.String() {
		case "enter", "n":
			return m.Open(nil, nil)
		}
		return m, nil

	case Failed:
		// selections survive a failed attempt, retry is one keypress away
		switch msg.String() {
		case "enter":
			m.Phase = Ready
			m.Error = ""
		case "n":
			return m.Open(nil, nil)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render("recommend something"))
	s.WriteString("\n\n")

	switch m.Phase {
	case SelectingMedia:
		if m.Recipient != nil {
			s.WriteString(fmt.Sprintf("What should @%s watch, read or play?\n\n", m.Recipient.Username))
		} else {
			s.WriteString("What should they watch, read or play?\n\n")
		}
		s.WriteString(m.MediaInput.View())
		s.WriteString("\n\n")
		if len(m.MediaItems) == 0 {
			s.WriteString(common.EmptyStyle.Render("Type at least 3 characters to search."))
			s.WriteString("\n")
		}
		for i, item := range m.MediaItems {
			line := "• " + item.Label()
			if i == m.MediaSelected {
				s.WriteString("→ " + common.SelectedStyle.Render(line))
			} else {
				s.WriteString("  " + common.ItemStyle.Render(line))
			}
			s.WriteString("\n")
		}

	case SelectingRecipient:
		s.WriteString(fmt.Sprintf("Recommending: %s\n\n", m.Media.Label()))
		if len(m.Friends) == 0 {
			s.WriteString(common.EmptyStyle.Render("No friends yet.\nRecommendations go to mutual follows only."))
			s.WriteString("\n")
		}
		eligibleIndex := 0
		for _, f := range m.Friends {
			if m.AlreadySent[f.Id] {
				s.WriteString("  " + common.DisabledStyle.Render(fmt.Sprintf("@%s [already recommended]", f.Username)))
				s.WriteString("\n")
				continue
			}
			line := "@" + f.Username
			if eligibleIndex == m.FriendSelected {
				s.WriteString("→ " + common.SelectedStyle.Render(line))
			} else {
				s.WriteString("  " + common.ItemStyle.Render(line))
			}
			s.WriteString("\n")
			eligibleIndex++
		}

	case Ready:
		s.WriteString(fmt.Sprintf("Recommend %s\nto @%s?\n\n", m.Media.Label(), m.Recipient.Username))
		s.WriteString(common.HelpStyle.Render("enter: send • esc: pick someone else"))
		s.WriteString("\n")

	case Submitting:
		s.WriteString(common.StatusStyle.Render("Sending..."))
		s.WriteString("\n")

	case Succeeded:
		s.WriteString(common.StatusStyle.Render(fmt.Sprintf("✓ Recommended %s to @%s", m.Media.Name, m.Recipient.Username)))
		s.WriteString("\n\n")
		s.WriteString(common.HelpStyle.Render("enter: recommend something else"))
		s.WriteString("\n")

	case Failed:
		s.WriteString(fmt.Sprintf("Recommend %s\nto @%s?\n\n", m.Media.Label(), m.Recipient.Username))
		s.WriteString(common.HelpStyle.Render("enter: back • n: start over"))
		s.WriteString("\n")
	}

	if m.Error != "" {
		s.WriteString("\n")
		s.WriteString(common.ErrorStyle.Render(m.Error))
		s.WriteString("\n")
	}

	return s.String()
}

type mediaFoundMsg struct {
	items []domain.MediaItem
}

type recipientsLoadedMsg struct {
	mediaId     int64
	friends     []domain.User
	alreadySent map[int64]bool
}

type loadFailedMsg struct {
	err error
}

type submitSettledMsg struct {
	err error
}

func searchMedia(sess *session.Session, query string) tea.Cmd {
	return func() tea.Msg {
		items, err := store.FetchAs(context.Background(), sess.Cache(), store.MediaSearchKey(query),
			func(ctx context.Context) ([]domain.MediaItem, error) {
				return sess.Client().SearchMedia(ctx, query, "")
			})
		if err != nil {
			log.Printf("Composer search %q failed: %v", query, err)
			return loadFailedMsg{err: err}
		}
		return mediaFoundMsg{items: items}
	}
}

// loadRecipients fetches the friends list and the sent recommendations
// for the chosen media, so already-served friends can be marked before
// the user picks one.
func loadRecipients(sess *session.Session, myId, mediaId int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		friends, err := store.FetchAs(ctx, sess.Cache(), store.MyFriendsKey(),
			func(ctx context.Context) ([]domain.User, error) {
				return sess.Client().MyFriends(ctx)
			})
		if err != nil {
			log.Printf("Failed to load friends: %v", err)
			return loadFailedMsg{err: err}
		}

		sent, err := store.FetchAs(ctx, sess.Cache(), store.RecommendationsKey(myId, api.DirectionSent),
			func(ctx context.Context) ([]domain.RecommendationDetails, error) {
				return sess.Client().Recommendations(ctx, myId, api.DirectionSent)
			})
		if err != nil {
			log.Printf("Failed to load sent recommendations: %v", err)
			return loadFailedMsg{err: err}
		}

		alreadySent := map[int64]bool{}
		for _, rec := range sent {
			if rec.Media.Id == mediaId {
				alreadySent[rec.User.Id] = true
			}
		}

		return recipientsLoadedMsg{mediaId: mediaId, friends: friends, alreadySent: alreadySent}
	}
}

// submit creates the recommendation without any optimistic patch: the
// affected lists carry server aggregates, so settlement only invalidates.
func submit(sess *session.Session, orch *store.Orchestrator, media domain.MediaItem, recipient domain.User) tea.Cmd {
	return func() tea.Msg {
		me := sess.User()
		invalidate := []store.Key{
			store.RecommendationsOfKey(recipient.Id),
			store.FeedKey(),
			store.TopMediaKey(),
		}
		if me != nil {
			invalidate = append(invalidate, store.RecommendationsKey(me.Id, api.DirectionSent))
		}

		err := orch.Mutate(context.Background(), store.Mutation{
			Run: func(ctx context.Context) error {
				return sess.Client().CreateRecommendation(ctx, recipient.Id, media.Id)
			},
			Invalidate: invalidate,
		})
		return submitSettledMsg{err: err}
	}
}
