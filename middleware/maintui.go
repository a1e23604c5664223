package middleware

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/muesli/termenv"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui"
	"github.com/recomendo/recomendo/util"
)

// MainTui serves the TUI over SSH. Every session gets its own cache and
// session state, credentials live in memory for the connection only and
// are never written to the host.
func MainTui(conf *util.AppConfig) wish.Middleware {
	teaHandler := func(s ssh.Session) *tea.Program {

		pty, _, active := s.Pty()
		if !active {
			wish.Println(s, "no active terminal, skipping")
			return nil
		}

		client := api.NewClient(conf.Conf.ApiBaseUrl)
		cache := store.NewCache()
		sess := session.New(client, cache, session.NewMemoryTokenStore(""))

		log.Printf("Starting TUI for %s against %s", s.RemoteAddr(), conf.Conf.ApiBaseUrl)

		m := ui.NewModel(sess, pty.Window.Width, pty.Window.Height)
		return tea.NewProgram(m, tea.WithInput(s), tea.WithOutput(s), tea.WithAltScreen())
	}
	return bm.MiddlewareWithProgramHandler(teaHandler, termenv.ANSI256)
}
