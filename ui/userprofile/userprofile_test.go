package userprofile

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/common"
)

func testModel(t *testing.T) Model {
	t.Helper()
	client := api.NewClient("http://127.0.0.1:1")
	sess := session.New(client, store.NewCache(), session.NewMemoryTokenStore(""))
	return InitialModel(sess, domain.User{Id: 9, Username: "sam"}, 80, 24)
}

func keyPress(s string) tea.KeyMsg {
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestListForAnotherUserIsDropped(t *testing.T) {
	m := testModel(t)

	m, _ = m.Update(usersLoadedMsg{
		userId: 12,
		tab:    m.Tab,
		users:  []domain.User{{Id: 2, Username: "ada"}},
	})

	if len(m.Users) != 0 {
		t.Errorf("a list loaded for another profile must be ignored, got %d users", len(m.Users))
	}
}

func TestListForAnotherTabIsDropped(t *testing.T) {
	m := testModel(t)
	m.Tab = tabFollowers

	m, _ = m.Update(usersLoadedMsg{
		userId: 9,
		tab:    tabFriends,
		users:  []domain.User{{Id: 2, Username: "ada"}},
	})

	if len(m.Users) != 0 {
		t.Errorf("a list loaded for another tab must be ignored, got %d users", len(m.Users))
	}
}

func TestMatchingListIsApplied(t *testing.T) {
	m := testModel(t)
	m.Tab = tabFriends
	m.Selected = 5

	m, _ = m.Update(usersLoadedMsg{
		userId: 9,
		tab:    tabFriends,
		users:  []domain.User{{Id: 2, Username: "ada"}},
	})

	if len(m.Users) != 1 {
		t.Fatalf("expected the loaded list to apply, got %d users", len(m.Users))
	}
	if m.Selected != 0 {
		t.Errorf("selection must be clamped to the new list, got %d", m.Selected)
	}
}

func TestRecommendOpensComposerWithProfileUser(t *testing.T) {
	m := testModel(t)

	_, cmd := m.Update(keyPress("r"))
	if cmd == nil {
		t.Fatal("expected a command opening the composer")
	}
	msg, ok := cmd().(common.OpenComposerMsg)
	if !ok {
		t.Fatalf("expected OpenComposerMsg, got %T", cmd())
	}
	if msg.Recipient == nil || msg.Recipient.Id != 9 {
		t.Errorf("the profile user must be the prefilled recipient")
	}
	if msg.Media != nil {
		t.Errorf("no media is preselected from a profile")
	}
}

func TestEscClosesProfile(t *testing.T) {
	m := testModel(t)

	_, cmd := m.Update(keyPress("esc"))
	if cmd == nil {
		t.Fatal("expected a command closing the profile")
	}
	if _, ok := cmd().(common.CloseUserProfileMsg); !ok {
		t.Fatalf("expected CloseUserProfileMsg, got %T", cmd())
	}
}
