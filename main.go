package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/logging"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/db"
	"github.com/recomendo/recomendo/middleware"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui"
	"github.com/recomendo/recomendo/util"
	"github.com/recomendo/recomendo/web"
)

func main() {

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	if conf.Conf.EmbeddedServer {
		database := db.GetDB()

		log.Println("Running database migrations...")
		if err := database.RunMigrations(); err != nil {
			log.Printf("Warning: Migration errors (may be normal if tables exist): %v", err)
		}
		log.Println("Database migrations complete")

		go func() {
			if err := web.Serve(conf, database); err != nil {
				log.Fatalln(err)
			}
		}()
	}

	if !conf.Conf.ServeSsh {
		runLocal(conf)
		return
	}

	s, err := wish.NewServer(
		wish.WithAddress(fmt.Sprintf("%s:%d", conf.Conf.Host, conf.Conf.SshPort)),
		wish.WithHostKeyPath(".ssh/hostkey"),
		wish.WithPublicKeyAuth(publicKeyHandler),
		wish.WithMiddleware(
			middleware.MainTui(conf),
			middleware.LogSession(),
			logging.Middleware(), // last middleware executed first
		),
	)
	if err != nil {
		log.Fatalln(err)
	}

	startServing(s, conf)

}

// runLocal runs the TUI in the current terminal. The credential persists
// in the config directory so the next run skips the login.
func runLocal(conf *util.AppConfig) {
	client := api.NewClient(conf.Conf.ApiBaseUrl)
	cache := store.NewCache()
	sess := session.New(client, cache, session.FileTokenStore{})

	width, height := 100, 35
	p := tea.NewProgram(ui.NewModel(sess, width, height), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalln(err)
	}
}

func startServing(s *ssh.Server, conf *util.AppConfig) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	log.Printf("Starting SSH server on %s:%d", conf.Conf.Host, conf.Conf.SshPort)
	go func() {
		if err := s.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
			log.Fatalln(err)
		}
	}()

	<-done
	log.Println("Stopping SSH server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer func() { cancel() }()
	if err := s.Shutdown(ctx); err != nil {
		log.Fatalln(err)
	}
}

func publicKeyHandler(ssh.Context, ssh.PublicKey) bool {
	return true
}
