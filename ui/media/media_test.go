package media

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/debounce"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
	"github.com/recomendo/recomendo/ui/common"
)

func testModel(t *testing.T) Model {
	t.Helper()
	client := api.NewClient("http://127.0.0.1:1")
	sess := session.New(client, store.NewCache(), session.NewMemoryTokenStore(""))
	return InitialModel(sess, 80, 24)
}

func TestStaleSearchResultIsDropped(t *testing.T) {
	m := testModel(t)
	m.Query = "solaris"
	m.Items = []domain.MediaItem{{Id: 1, Name: "Solaris"}}

	m, _ = m.Update(mediaLoadedMsg{query: "sol", items: []domain.MediaItem{{Id: 9, Name: "Solo"}}})

	if len(m.Items) != 1 || m.Items[0].Id != 1 {
		t.Errorf("a result for an outdated query must not replace the current list")
	}
}

func TestMatchingSearchResultIsApplied(t *testing.T) {
	m := testModel(t)
	m.Query = "solaris"

	m, _ = m.Update(mediaLoadedMsg{query: "solaris", items: []domain.MediaItem{{Id: 1, Name: "Solaris"}}})

	if len(m.Items) != 1 || m.Items[0].Name != "Solaris" {
		t.Errorf("expected the matching result to be applied, got %d items", len(m.Items))
	}
}

func TestStaleDebounceGenerationIsIgnored(t *testing.T) {
	m := testModel(t)
	m.Debouncer.Bump("sol")
	m.Debouncer.Bump("solaris")

	m, cmd := m.Update(debounce.Msg{Gen: 1, Value: "sol"})
	if cmd != nil {
		t.Errorf("a superseded debounce message must not trigger a search")
	}
	if m.Query != "" {
		t.Errorf("a superseded debounce message must not change the query, got %q", m.Query)
	}
}

func TestShortQueryFallsBackToTopList(t *testing.T) {
	m := testModel(t)
	m.Query = "so"
	m.Debouncer.Bump("so")

	m, cmd := m.Update(debounce.Msg{Gen: 1, Value: "so"})
	if m.Query != "" {
		t.Errorf("queries at or under the minimum length must clear the search, got %q", m.Query)
	}
	if cmd == nil {
		t.Errorf("clearing the search should reload the top list")
	}
}

func TestEnterOpensComposerWithSelection(t *testing.T) {
	m := testModel(t)
	m.Items = []domain.MediaItem{{Id: 1, Name: "Solaris"}, {Id: 2, Name: "Stalker"}}
	m.Selected = 1

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter on a selection must produce a command")
	}
	msg, ok := cmd().(common.OpenComposerMsg)
	if !ok {
		t.Fatalf("expected OpenComposerMsg, got %T", cmd())
	}
	if msg.Media == nil || msg.Media.Id != 2 {
		t.Errorf("composer must open with the selected media")
	}
}
