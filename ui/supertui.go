package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/aifind"
	"github.com/recomendo/recomendo/ui/comments"
	"github.com/recomendo/recomendo/ui/common"
	"github.com/recomendo/recomendo/ui/community"
	"github.com/recomendo/recomendo/ui/editprofile"
	"github.com/recomendo/recomendo/ui/feed"
	"github.com/recomendo/recomendo/ui/header"
	"github.com/recomendo/recomendo/ui/login"
	"github.com/recomendo/recomendo/ui/media"
	"github.com/recomendo/recomendo/ui/overlay"
	"github.com/recomendo/recomendo/ui/profile"
	"github.com/recomendo/recomendo/ui/rating"
	"github.com/recomendo/recomendo/ui/recommend"
	"github.com/recomendo/recomendo/ui/userprofile"
)

var focusedModelStyle = lipgloss.NewStyle().
	Align(lipgloss.Top, lipgloss.Top).
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color(common.COLOR_LIGHTBLUE)).MarginLeft(1)

type MainModel struct {
	width            int
	height           int
	session          *session.Session
	state            common.SessionState
	resolved         bool
	headerModel      header.Model
	loginModel       login.Model
	feedModel        feed.Model
	mediaModel       media.Model
	communityModel   community.Model
	profileModel     profile.Model
	recommendModel   recommend.Model
	aiFindModel      aifind.Model
	editProfileModel editprofile.Model
	userProfileModel userprofile.Model
	overlay          overlay.Overlay

	// cacheEvents carries invalidation notifications from the cache's
	// subscriber callback (arbitrary goroutine) into the tea loop.
	cacheEvents chan store.Key
}

func NewModel(sess *session.Session, width int, height int) MainModel {
	width = common.DefaultWindowWidth(width)
	height = common.DefaultWindowHeight(height)

	m := MainModel{
		width:       width,
		height:      height,
		session:     sess,
		state:       common.LoginView,
		cacheEvents: make(chan store.Key, 64),
	}

	sess.Cache().Subscribe(func(key store.Key) {
		select {
		case m.cacheEvents <- key:
		default:
			// A full channel means a refresh is already pending, dropping
			// the notification loses nothing.
		}
	})

	m.headerModel = header.Model{Width: width, User: sess.User()}
	m.loginModel = login.InitialModel(sess)
	m.feedModel = feed.InitialModel(sess, width, height)
	m.mediaModel = media.InitialModel(sess, width, height)
	m.communityModel = community.InitialModel(sess, width, height)
	m.profileModel = profile.InitialModel(sess, width, height)
	m.recommendModel = recommend.InitialModel(sess, width, height)
	m.aiFindModel = aifind.InitialModel(sess)
	m.editProfileModel = editprofile.InitialModel(sess)
	m.overlay = overlay.New()

	return m
}

type sessionResolvedMsg struct {
	state session.State
}

func resolveSession(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return sessionResolvedMsg{state: sess.Resolve(context.Background())}
	}
}

// listenCache re-arms itself after every delivered event (the cmd is
// returned again from Update when a CacheUpdatedMsg is handled).
func listenCache(events chan store.Key) tea.Cmd {
	return func() tea.Msg {
		return common.CacheUpdatedMsg{Key: <-events}
	}
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		resolveSession(m.session),
		listenCache(m.cacheEvents),
		m.loginModel.Init(),
	)
}

// enterAuthenticated switches to the feed and kicks off the initial loads
// for every authenticated view.
func (m *MainModel) enterAuthenticated() tea.Cmd {
	m.state = common.FeedView
	m.headerModel = header.Model{Width: m.width, User: m.session.User()}
	m.editProfileModel = editprofile.InitialModel(m.session)
	return tea.Batch(
		m.feedModel.Init(),
		m.mediaModel.Init(),
		m.communityModel.Init(),
		m.profileModel.Init(),
		m.recommendModel.Init(),
	)
}

// enterAnonymous resets every identity-bound model so nothing from the
// previous user leaks into the next login.
func (m *MainModel) enterAnonymous() {
	m.state = common.LoginView
	m.overlay = m.overlay.Close()
	m.headerModel = header.Model{Width: m.width, User: nil}
	m.loginModel = login.InitialModel(m.session)
	m.feedModel = feed.InitialModel(m.session, m.width, m.height)
	m.mediaModel = media.InitialModel(m.session, m.width, m.height)
	m.communityModel = community.InitialModel(m.session, m.width, m.height)
	m.profileModel = profile.InitialModel(m.session, m.width, m.height)
	m.recommendModel = recommend.InitialModel(m.session, m.width, m.height)
	m.aiFindModel = aifind.InitialModel(m.session)
	m.editProfileModel = editprofile.InitialModel(m.session)
	m.userProfileModel = userprofile.Model{}
}

func (m MainModel) nextState() common.SessionState {
	switch m.state {
	case common.FeedView:
		return common.MediaView
	case common.MediaView:
		return common.CommunityView
	case common.CommunityView:
		return common.ProfileView
	case common.ProfileView:
		return common.RecommendView
	case common.RecommendView:
		return common.AiFindView
	case common.AiFindView:
		return common.EditProfileView
	default:
		return common.FeedView
	}
}

func (m MainModel) prevState() common.SessionState {
	switch m.state {
	case common.FeedView:
		return common.EditProfileView
	case common.MediaView:
		return common.FeedView
	case common.CommunityView:
		return common.MediaView
	case common.ProfileView:
		return common.CommunityView
	case common.RecommendView:
		return common.ProfileView
	case common.AiFindView:
		return common.RecommendView
	default:
		return common.AiFindView
	}
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.headerModel.Width = msg.Width
		return m, nil

	case sessionResolvedMsg:
		m.resolved = true
		if msg.state == session.Authenticated {
			return m, m.enterAuthenticated()
		}
		m.state = common.LoginView
		return m, nil

	case common.LoggedInMsg:
		return m, m.enterAuthenticated()

	case common.LoggedOutMsg:
		m.enterAnonymous()
		return m, m.loginModel.Init()

	case common.IdentityChangedMsg:
		m.headerModel = header.Model{Width: m.width, User: m.session.User()}

	case common.OpenComposerMsg:
		m.recommendModel, cmd = m.recommendModel.Open(msg.Media, msg.Recipient)
		m.state = common.RecommendView
		return m, cmd

	case common.OpenUserProfileMsg:
		m.userProfileModel = userprofile.InitialModel(m.session, msg.User, m.width, m.height)
		m.state = common.UserProfileView
		return m, m.userProfileModel.Init()

	case common.CloseUserProfileMsg:
		m.state = common.CommunityView
		return m, m.communityModel.Init()

	case common.OpenRatingMsg:
		m.overlay, cmd = m.overlay.Open(overlay.Rating, rating.InitialModel(m.session, msg.Media))
		return m, cmd

	case common.OpenCommentsMsg:
		m.overlay, cmd = m.overlay.Open(overlay.Comments, comments.InitialModel(m.session, msg.Media))
		return m, cmd

	case common.CloseOverlayMsg:
		m.overlay = m.overlay.Close()
		return m, nil

	case common.CacheUpdatedMsg:
		// Re-arm the listener, then fall through to the broadcast below so
		// every view can decide whether the key concerns it.
		cmds = append(cmds, listenCache(m.cacheEvents))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == common.LoginView {
			m.loginModel, cmd = m.loginModel.Update(msg)
			return m, cmd
		}
		if m.overlay.IsOpen() {
			m.overlay, cmd = m.overlay.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "tab":
			m.state = m.nextState()
			return m, getViewInitCmd(m.state, &m)
		case "shift+tab":
			m.state = m.prevState()
			return m, getViewInitCmd(m.state, &m)
		}
	}

	// Non-keyboard messages go to ALL sub-models so loaded/settled
	// messages reach their destination regardless of focus. Keyboard
	// input only ever reaches the active view (handled above for login
	// and overlays).
	if _, isKeyMsg := msg.(tea.KeyMsg); !isKeyMsg {
		m.headerModel, _ = m.headerModel.Update(msg)
		m.loginModel, cmd = m.loginModel.Update(msg)
		cmds = append(cmds, cmd)
		m.feedModel, cmd = m.feedModel.Update(msg)
		cmds = append(cmds, cmd)
		m.mediaModel, cmd = m.mediaModel.Update(msg)
		cmds = append(cmds, cmd)
		m.communityModel, cmd = m.communityModel.Update(msg)
		cmds = append(cmds, cmd)
		m.profileModel, cmd = m.profileModel.Update(msg)
		cmds = append(cmds, cmd)
		m.recommendModel, cmd = m.recommendModel.Update(msg)
		cmds = append(cmds, cmd)
		m.aiFindModel, cmd = m.aiFindModel.Update(msg)
		cmds = append(cmds, cmd)
		m.editProfileModel, cmd = m.editProfileModel.Update(msg)
		cmds = append(cmds, cmd)
		m.userProfileModel, cmd = m.userProfileModel.Update(msg)
		cmds = append(cmds, cmd)
		m.overlay, cmd = m.overlay.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	switch m.state {
	case common.FeedView:
		m.feedModel, cmd = m.feedModel.Update(msg)
	case common.MediaView:
		m.mediaModel, cmd = m.mediaModel.Update(msg)
	case common.CommunityView:
		m.communityModel, cmd = m.communityModel.Update(msg)
	case common.ProfileView:
		m.profileModel, cmd = m.profileModel.Update(msg)
	case common.RecommendView:
		m.recommendModel, cmd = m.recommendModel.Update(msg)
	case common.AiFindView:
		m.aiFindModel, cmd = m.aiFindModel.Update(msg)
	case common.EditProfileView:
		m.editProfileModel, cmd = m.editProfileModel.Update(msg)
	case common.UserProfileView:
		m.userProfileModel, cmd = m.userProfileModel.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m MainModel) View() string {
	if !m.resolved {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			common.StatusStyle.Render("Connecting..."))
	}

	if m.state == common.LoginView {
		return m.loginModel.ViewWithWidth(m.width, m.height)
	}

	availableHeight := m.height - 10
	contentWidth := m.width - 6

	var body string
	switch m.state {
	case common.FeedView:
		body = m.feedModel.View()
	case common.MediaView:
		body = m.mediaModel.View()
	case common.CommunityView:
		body = m.communityModel.View()
	case common.ProfileView:
		body = m.profileModel.View()
	case common.RecommendView:
		body = m.recommendModel.View()
	case common.AiFindView:
		body = m.aiFindModel.View()
	case common.EditProfileView:
		body = m.editProfileModel.View()
	case common.UserProfileView:
		body = m.userProfileModel.View()
	}

	content := lipgloss.NewStyle().
		MaxHeight(availableHeight).
		Height(availableHeight).
		Width(contentWidth).
		MaxWidth(contentWidth).
		Margin(1).
		Render(body)

	s := m.headerModel.View() + "\n"
	s += focusedModelStyle.Render(content)

	if m.overlay.IsOpen() {
		modal := lipgloss.Place(m.width, availableHeight, lipgloss.Center, lipgloss.Center, m.overlay.View())
		return m.headerModel.View() + "\n" + modal
	}

	var viewCommands string
	switch m.state {
	case common.FeedView:
		viewCommands = "r: refresh"
	case common.MediaView:
		viewCommands = "type to search • enter: recommend • ctrl+r: rate • ctrl+o: comments"
	case common.CommunityView:
		viewCommands = "←/→: tabs • enter: toggle follow • o: profile • r: recommend"
	case common.ProfileView:
		viewCommands = "←/→: tabs • enter: unfollow/withdraw • o: profile • r: recommend"
	case common.RecommendView:
		viewCommands = "enter: confirm • esc: back"
	case common.AiFindView:
		viewCommands = "enter: search/pick • /: edit description"
	case common.EditProfileView:
		viewCommands = "enter: save • ctrl+l: log out"
	case common.UserProfileView:
		viewCommands = "←/→: tabs • r: recommend • esc: back"
	default:
		viewCommands = " "
	}

	s += "\n" + common.HelpStyle.Render(fmt.Sprintf(
		"focused > %s\t\tkeys > tab: next • shift+tab: prev • %s • ctrl-c: exit",
		m.currentFocusedModel(), viewCommands))
	return s
}

func (m MainModel) currentFocusedModel() string {
	switch m.state {
	case common.FeedView:
		return "feed"
	case common.MediaView:
		return "media"
	case common.CommunityView:
		return "community"
	case common.ProfileView:
		return "profile"
	case common.RecommendView:
		return "recommend"
	case common.AiFindView:
		return "ai find"
	case common.EditProfileView:
		return "edit profile"
	case common.UserProfileView:
		return "user profile"
	default:
		return "login"
	}
}

// getViewInitCmd reloads a view's data when the user tabs onto it.
func getViewInitCmd(state common.SessionState, m *MainModel) tea.Cmd {
	switch state {
	case common.FeedView:
		return m.feedModel.Init()
	case common.MediaView:
		return m.mediaModel.Init()
	case common.CommunityView:
		return m.communityModel.Init()
	case common.ProfileView:
		return m.profileModel.Init()
	case common.RecommendView:
		return m.recommendModel.Init()
	default:
		return nil
	}
}
