package recommend

import (
	"errors"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
)

func testModel(t *testing.T) Model {
	t.Helper()
	client := api.NewClient("http://127.0.0.1:1")
	sess := session.New(client, store.NewCache(), session.NewMemoryTokenStore(""))
	return InitialModel(sess, 80, 24)
}

func keyPress(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAlreadySentFriendsAreNotEligible(t *testing.T) {
	m := testModel(t)
	m.Phase = SelectingRecipient
	m.Media = &domain.MediaItem{Id: 7, Name: "Solaris"}

	msg := recipientsLoadedMsg{
		mediaId: 7,
		friends: []domain.User{
			{Id: 2, Username: "ada"},
			{Id: 3, Username: "bob"},
			{Id: 4, Username: "eve"},
		},
		alreadySent: map[int64]bool{3: true},
	}
	m, _ = m.Update(msg)

	eligible := m.EligibleRecipients()
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible recipients, got %d", len(eligible))
	}
	for _, u := range eligible {
		if u.Id == 3 {
			t.Errorf("friend with an existing recommendation must not be eligible")
		}
	}
}

func TestStaleRecipientListIsDropped(t *testing.T) {
	m := testModel(t)
	m.Phase = SelectingRecipient
	m.Media = &domain.MediaItem{Id: 7, Name: "Solaris"}

	msg := recipientsLoadedMsg{
		mediaId:     99,
		friends:     []domain.User{{Id: 2, Username: "ada"}},
		alreadySent: map[int64]bool{},
	}
	m, _ = m.Update(msg)

	if len(m.Friends) != 0 {
		t.Errorf("recipients loaded for another media must be ignored, got %d friends", len(m.Friends))
	}
}

func TestConfirmIsNoOpWhileSubmitting(t *testing.T) {
	m := testModel(t)
	m.Phase = Submitting
	m.Media = &domain.MediaItem{Id: 7, Name: "Solaris"}
	m.Recipient = &domain.User{Id: 2, Username: "ada"}

	m, cmd := m.Update(keyPress("enter"))
	if cmd != nil {
		t.Errorf("enter while submitting must not produce a command")
	}
	if m.Phase != Submitting {
		t.Errorf("expected phase to stay Submitting, got %v", m.Phase)
	}
}

func TestConflictMarksFriendAndReturnsToPicker(t *testing.T) {
	m := testModel(t)
	m.Phase = Submitting
	m.Media = &domain.MediaItem{Id: 7, Name: "Solaris"}
	m.Friends = []domain.User{{Id: 2, Username: "ada"}, {Id: 3, Username: "bob"}}
	m.Recipient = &domain.User{Id: 3, Username: "bob"}

	conflict := &api.Error{Status: http.StatusConflict, Detail: "Already recommended to this user"}
	m, _ = m.Update(submitSettledMsg{err: conflict})

	if m.Phase != SelectingRecipient {
		t.Fatalf("expected SelectingRecipient after conflict, got %v", m.Phase)
	}
	if !m.AlreadySent[3] {
		t.Errorf("conflicting friend should be marked as already served")
	}
	if m.Recipient != nil {
		t.Errorf("recipient must be cleared after a conflict")
	}
	if len(m.EligibleRecipients()) != 1 {
		t.Errorf("expected 1 remaining eligible recipient, got %d", len(m.EligibleRecipients()))
	}
}

func TestFailureKeepsSelectionsForRetry(t *testing.T) {
	m := testModel(t)
	m.Phase = Submitting
	m.Media = &domain.MediaItem{Id: 7, Name: "Solaris"}
	m.Recipient = &domain.User{Id: 2, Username: "ada"}

	m, _ = m.Update(submitSettledMsg{err: errors.New("connection refused")})

	if m.Phase != Failed {
		t.Fatalf("expected Failed, got %v", m.Phase)
	}
	if m.Media == nil || m.Recipient == nil {
		t.Fatalf("a failed attempt must keep the media and recipient")
	}

	m, _ = m.Update(keyPress("enter"))
	if m.Phase != Ready {
		t.Errorf("enter after a failure should return to Ready, got %v", m.Phase)
	}
	if m.Media == nil || m.Recipient == nil {
		t.Errorf("retry must reuse the original selections")
	}
}

func TestSuccessThenNewRunStartsFresh(t *testing.T) {
	m := testModel(t)
	m.Phase = Submitting
	m.Media = &domain.MediaItem{Id: 7, Name: "Solaris"}
	m.Recipient = &domain.User{Id: 2, Username: "ada"}
	m.AlreadySent = map[int64]bool{5: true}

	m, _ = m.Update(submitSettledMsg{err: nil})
	if m.Phase != Succeeded {
		t.Fatalf("expected Succeeded, got %v", m.Phase)
	}

	m, _ = m.Update(keyPress("n"))
	if m.Phase != SelectingMedia {
		t.Errorf("a new run should start at media selection, got %v", m.Phase)
	}
	if m.Media != nil || m.Recipient != nil {
		t.Errorf("a new run must not carry the previous selections")
	}
	if len(m.AlreadySent) != 0 {
		t.Errorf("a new run must not carry the previous duplicate marks")
	}
}

func TestSettlementAfterLeavingSubmittingIsIgnored(t *testing.T) {
	m := testModel(t)
	m.Phase = SelectingMedia

	m, _ = m.Update(submitSettledMsg{err: errors.New("late response")})
	if m.Phase != SelectingMedia {
		t.Errorf("a late settlement must not move the phase, got %v", m.Phase)
	}
}

func TestOpenWithMediaSkipsSearch(t *testing.T) {
	m := testModel(t)
	media := &domain.MediaItem{Id: 7, Name: "Solaris"}

	m, _ = m.Open(media, nil)
	if m.Phase != SelectingRecipient {
		t.Errorf("opening with a media record should skip to recipient selection, got %v", m.Phase)
	}
	if m.Media == nil || m.Media.Id != 7 {
		t.Errorf("opened media must be preselected")
	}
}

func TestOpenWithRecipientSkipsPicker(t *testing.T) {
	m := testModel(t)
	recipient := &domain.User{Id: 2, Username: "ada"}

	m, _ = m.Open(nil, recipient)
	if m.Phase != SelectingMedia {
		t.Fatalf("opening with a recipient should still ask for the media, got %v", m.Phase)
	}
	if m.Recipient == nil || m.Recipient.Id != 2 {
		t.Fatalf("opened recipient must be preselected")
	}

	m, _ = m.Update(mediaFoundMsg{items: []domain.MediaItem{{Id: 7, Name: "Solaris"}}})
	m, _ = m.Update(keyPress("enter"))
	if m.Phase != Ready {
		t.Errorf("picking a media with a preselected recipient should land on confirmation, got %v", m.Phase)
	}
	if m.Recipient == nil || m.Recipient.Id != 2 {
		t.Errorf("the preselected recipient must survive media selection")
	}
}

func TestOpenWithMediaAndRecipientIsReady(t *testing.T) {
	m := testModel(t)
	media := &domain.MediaItem{Id: 7, Name: "Solaris"}
	recipient := &domain.User{Id: 2, Username: "ada"}

	m, cmd := m.Open(media, recipient)
	if m.Phase != Ready {
		t.Fatalf("opening with both selections should land on confirmation, got %v", m.Phase)
	}
	if cmd != nil {
		t.Errorf("nothing is left to load when both selections are prefilled")
	}
}
