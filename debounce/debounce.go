// Package debounce delays propagation of a rapidly changing input until it
// has been stable for a fixed interval. Built for Bubble Tea: every input
// change emits a delayed message carrying a generation number, and only the
// message matching the current generation is acted on — earlier ones were
// superseded by further typing.
package debounce

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Msg arrives delay after the Bump that produced it.
type Msg struct {
	Gen   int
	Value string
}

// Debouncer is a per-call-site timing gate. The zero value is unusable;
// create one with New. Not safe for concurrent use — like all Bubble Tea
// model state it lives on the update loop.
type Debouncer struct {
	delay time.Duration
	gen   int
}

func New(delay time.Duration) Debouncer {
	return Debouncer{delay: delay}
}

// Bump registers a new input value and returns the command that will
// deliver it after the delay. Each call supersedes the previous pending
// value: no trailing accumulation, no leading edge.
func (d *Debouncer) Bump(value string) tea.Cmd {
	d.gen++
	gen := d.gen
	delayed := Msg{Gen: gen, Value: value}
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return delayed
	})
}

// Current reports whether the message is the latest generation. Stale
// messages must be ignored by the caller.
func (d *Debouncer) Current(msg Msg) bool {
	return msg.Gen == d.gen
}

// Cancel invalidates any pending message without scheduling a new one.
func (d *Debouncer) Cancel() {
	d.gen++
}
