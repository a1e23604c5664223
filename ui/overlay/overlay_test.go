package overlay

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type stubModal struct {
	name    string
	updates int
}

func (s stubModal) Init() tea.Cmd { return nil }

func (s stubModal) Update(tea.Msg) (tea.Model, tea.Cmd) {
	s.updates++
	return s, nil
}

func (s stubModal) View() string { return s.name }

func TestOpenReplacesCurrentModal(t *testing.T) {
	o := New()
	if o.IsOpen() {
		t.Fatalf("a fresh overlay must be closed")
	}

	o, _ = o.Open(Rating, stubModal{name: "rating"})
	if !o.IsOpen() || o.Kind() != Rating {
		t.Fatalf("expected an open rating modal, got kind %v", o.Kind())
	}

	o, _ = o.Open(Comments, stubModal{name: "comments"})
	if o.Kind() != Comments {
		t.Errorf("opening a second modal must replace the first, got kind %v", o.Kind())
	}
}

func TestCloseClearsModal(t *testing.T) {
	o := New()
	o, _ = o.Open(Rating, stubModal{name: "rating"})

	o = o.Close()
	if o.IsOpen() {
		t.Errorf("overlay must be closed after Close")
	}
	if o.View() != "" {
		t.Errorf("a closed overlay renders nothing, got %q", o.View())
	}
}

func TestUpdateWhileClosedIsNoOp(t *testing.T) {
	o := New()
	o, cmd := o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Errorf("a closed overlay must not produce commands")
	}
	if o.IsOpen() {
		t.Errorf("updating a closed overlay must not open it")
	}
}
