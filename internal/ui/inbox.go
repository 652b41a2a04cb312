package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/session"
)

const inboxSize = 128

var (
	_ notify.Notifier   = (*Inbox)(nil)
	_ session.Navigator = (*Inbox)(nil)
)

// Inbox queues messages produced outside the bubbletea loop: toasts, navigation and renders.
//
// Writers never block. Renders coalesce: at most one is queued at a time.
type Inbox struct {
	msgs    chan tea.Msg
	renders chan struct{}
}

// NewInbox creates an empty [Inbox].
func NewInbox() *Inbox {
	return &Inbox{
		msgs:    make(chan tea.Msg, inboxSize),
		renders: make(chan struct{}, 1),
	}
}

// Notify queues a toast.
func (i *Inbox) Notify(t notify.Toast) { i.push(toastMsg(t)) }

// Navigate queues a route change.
func (i *Inbox) Navigate(r session.Route) { i.push(routeMsg(r)) }

// Rendered signals that a snapshot changed.
func (i *Inbox) Rendered() {
	select {
	case i.renders <- struct{}{}:
	default:
	}
}

func (i *Inbox) push(m tea.Msg) {
	select {
	case i.msgs <- m:
	default:
	}
}

// wait returns a command that delivers the next queued message.
func (i *Inbox) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case m := <-i.msgs:
			return m
		case <-i.renders:
			return renderMsg()
		}
	}
}
