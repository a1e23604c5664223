package debounce

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestOnlyFinalValuePropagates(t *testing.T) {
	d := New(5 * time.Millisecond)

	// Three keystrokes arriving faster than the delay.
	var cmds []tea.Cmd
	for _, v := range []string{"s", "so", "sol"} {
		cmds = append(cmds, d.Bump(v))
	}

	propagated := 0
	var final string
	for _, cmd := range cmds {
		msg := cmd().(Msg)
		if d.Current(msg) {
			propagated++
			final = msg.Value
		}
	}

	if propagated != 1 {
		t.Errorf("Expected exactly one propagation, got %d", propagated)
	}

	if final != "sol" {
		t.Errorf("Expected final value 'sol', got %q", final)
	}
}

func TestDelayElapsesBeforeDelivery(t *testing.T) {
	d := New(30 * time.Millisecond)

	start := time.Now()
	cmd := d.Bump("query")
	msg := cmd().(Msg)
	elapsed := time.Since(start)

	if elapsed < 30*time.Millisecond {
		t.Errorf("Message delivered after %v, before the delay elapsed", elapsed)
	}

	if !d.Current(msg) {
		t.Error("Sole pending message should be current")
	}
}

func TestCancelInvalidatesPending(t *testing.T) {
	d := New(time.Millisecond)

	cmd := d.Bump("typed")
	d.Cancel()

	if d.Current(cmd().(Msg)) {
		t.Error("Cancelled message should not be current")
	}
}

func TestRestartablePerCallSite(t *testing.T) {
	d := New(time.Millisecond)

	first := d.Bump("a")
	msg := first().(Msg)
	if !d.Current(msg) {
		t.Fatal("First value should propagate")
	}

	// A later burst works the same way on the same debouncer.
	d.Bump("b")
	second := d.Bump("bc")

	if d.Current(msg) {
		t.Error("Old generation must be stale after new input")
	}

	if got := second().(Msg); !d.Current(got) || got.Value != "bc" {
		t.Errorf("Latest value should propagate, got %+v", got)
	}
}
