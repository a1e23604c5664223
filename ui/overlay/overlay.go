package overlay

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/recomendo/recomendo/ui/common"
)

// Kind names the modal currently open. At most one modal exists at a
// time; opening a second replaces the first atomically.
type Kind int

const (
	None Kind = iota
	Rating
	Comments
)

var Style = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color(common.COLOR_LIGHTBLUE))

type Overlay struct {
	kind  Kind
	model tea.Model
}

func New() Overlay {
	return Overlay{kind: None}
}

func (o Overlay) IsOpen() bool {
	return o.kind != None
}

func (o Overlay) Kind() Kind {
	return o.kind
}

// Open replaces whatever was showing and returns the new modal's Init cmd.
func (o Overlay) Open(kind Kind, model tea.Model) (Overlay, tea.Cmd) {
	o.kind = kind
	o.model = model
	return o, model.Init()
}

// Close clears the modal. Kind and model go together, there is never a
// kind without a model or the other way round.
func (o Overlay) Close() Overlay {
	o.kind = None
	o.model = nil
	return o
}

func (o Overlay) Update(msg tea.Msg) (Overlay, tea.Cmd) {
	if o.kind == None {
		return o, nil
	}
	model, cmd := o.model.Update(msg)
	o.model = model
	return o, cmd
}

func (o Overlay) View() string {
	if o.kind == None {
		return ""
	}
	return Style.Render(o.model.View())
}
