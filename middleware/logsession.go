package middleware

import (
	"log"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"
)

// LogSession records who connected. Accounts live on the backend and are
// created through the in-app login flow, the SSH key only identifies the
// connection in the server log.
func LogSession() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			if key := s.PublicKey(); key != nil {
				log.Printf("Session from %s (%s %s)", s.RemoteAddr(), key.Type(), gossh.FingerprintSHA256(key))
			} else {
				log.Printf("Session from %s (no public key)", s.RemoteAddr())
			}
			h(s)
		}
	}
}
