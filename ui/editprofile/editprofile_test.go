package editprofile

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
)

func testModel(t *testing.T) Model {
	t.Helper()
	client := api.NewClient("http://127.0.0.1:1")
	sess := session.New(client, store.NewCache(), session.NewMemoryTokenStore(""))
	return InitialModel(sess)
}

func TestTabCyclesThroughAllFields(t *testing.T) {
	m := testModel(t)
	tab := tea.KeyMsg{Type: tea.KeyTab}

	order := []int{focusCurrentPassword, focusNewPassword, focusAvatar, focusUsername}
	for _, want := range order {
		m, _ = m.Update(tab)
		if m.Focus != want {
			t.Fatalf("expected focus %d, got %d", want, m.Focus)
		}
	}
	if !m.Username.Focused() {
		t.Error("tab should wrap back to the username field")
	}
}

func TestUploadRequiresAFilePath(t *testing.T) {
	m := testModel(t)
	m.Focus = focusAvatar
	m.applyFocus()

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("an empty avatar path must not start an upload")
	}
	if m.Error == "" {
		t.Error("an empty avatar path should surface an error")
	}
	if m.Busy {
		t.Error("the form must stay interactive")
	}
}

func TestAvatarSavedClearsTheForm(t *testing.T) {
	m := testModel(t)
	m.Busy = true
	m.AvatarPath.SetValue("/tmp/avatar.png")

	m, cmd := m.Update(avatarSavedMsg{})
	if m.Busy {
		t.Error("a settled upload should unlock the form")
	}
	if m.AvatarPath.Value() != "" {
		t.Error("a settled upload should clear the path field")
	}
	if m.Status == "" {
		t.Error("a settled upload should confirm in the status line")
	}
	if cmd == nil {
		t.Error("a settled upload should announce the identity change")
	}
}

func TestAvatarRemovedConfirms(t *testing.T) {
	m := testModel(t)
	m.Busy = true

	m, cmd := m.Update(avatarRemovedMsg{})
	if m.Busy {
		t.Error("a settled removal should unlock the form")
	}
	if m.Status == "" {
		t.Error("a settled removal should confirm in the status line")
	}
	if cmd == nil {
		t.Error("a settled removal should announce the identity change")
	}
}
