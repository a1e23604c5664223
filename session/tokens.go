package session

import (
	"log"
	"os"
	"strings"

	"github.com/recomendo/recomendo/util"
)

// TokenStore persists the auth credential between runs.
type TokenStore interface {
	Load() string
	Save(token string) error
	Clear()
}

// FileTokenStore keeps the token in the user config directory, the same
// place the config file lives.
type FileTokenStore struct{}

func (FileTokenStore) path() string {
	return util.ResolveFilePath(util.TokenFileName)
}

func (f FileTokenStore) Load() string {
	buf, err := os.ReadFile(f.path())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(buf))
}

func (f FileTokenStore) Save(token string) error {
	return os.WriteFile(f.path(), []byte(token), 0600)
}

func (f FileTokenStore) Clear() {
	if err := os.Remove(f.path()); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not remove token file: %v", err)
	}
}

// MemoryTokenStore holds the token for the lifetime of one session only.
// Used by tests and by SSH-served sessions, which must not share a
// credential file on the host.
type MemoryTokenStore struct {
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (m *MemoryTokenStore) Load() string            { return m.token }
func (m *MemoryTokenStore) Save(token string) error { m.token = token; return nil }
func (m *MemoryTokenStore) Clear()                  { m.token = "" }
