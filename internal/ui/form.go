package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// formKind identifies what a form submits.
type formKind int

const (
	loginForm formKind = iota
	signupForm
	eventForm
)

// form is a vertical stack of text inputs with one focused field.
type form struct {
	kind   formKind
	title  string
	inputs []textinput.Model
	focus  int
}

func newField(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.Width = 40
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func newForm(kind formKind) *form {
	f := &form{kind: kind}
	switch kind {
	case loginForm:
		f.title = "Log in"
		f.inputs = []textinput.Model{newField("Email", false), newField("Password", true)}
	case signupForm:
		f.title = "Create an account"
		f.inputs = []textinput.Model{newField("Name", false), newField("Email", false), newField("Password", true)}
	case eventForm:
		f.title = "New event"
		f.inputs = []textinput.Model{newField("Title", false), newField("Date (YYYY-MM-DD HH:MM)", false)}
	}
	f.inputs[0].Focus()
	return f
}

// value returns the trimmed text of field i. Passwords are returned as typed.
func (f *form) value(i int) string {
	if f.inputs[i].EchoMode == textinput.EchoPassword {
		return f.inputs[i].Value()
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

// last reports whether the focused field is the final one.
func (f *form) last() bool { return f.focus == len(f.inputs)-1 }

// move shifts focus by delta, wrapping around.
func (f *form) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(f.title))
	b.WriteString("\n")
	for _, in := range f.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return b.String()
}
