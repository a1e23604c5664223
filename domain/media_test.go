package domain

import (
	"strings"
	"testing"
)

func TestMediaLabel(t *testing.T) {
	m := &MediaItem{
		Id:       7,
		ItemType: MediaBook,
		Name:     "Solaris",
		Year:     1961,
		Author:   "Stanislaw Lem",
	}

	label := m.Label()

	if !strings.Contains(label, "Solaris") {
		t.Errorf("Label should contain name, got: %s", label)
	}

	if !strings.Contains(label, "1961") {
		t.Errorf("Label should contain year, got: %s", label)
	}

	if !strings.Contains(label, "book") {
		t.Errorf("Label should contain type, got: %s", label)
	}
}

func TestPasswordValidationMessages(t *testing.T) {
	p := &PasswordValidationError{Length: true, HasNumber: true}

	msgs := p.Messages()

	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d: %v", len(msgs), msgs)
	}

	ok := &PasswordValidationError{}
	if len(ok.Messages()) != 0 {
		t.Error("Expected no messages when all rules pass")
	}
}
