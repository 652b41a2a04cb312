package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgToast MsgKind = iota
	MsgToastExpired
	MsgRoute
	MsgRender
	MsgMounted
	MsgActionDone
)

// toastMsg is the constructor for [MsgToast]
func toastMsg(t notify.Toast) Msg {
	return Msg{kind: MsgToast, data: t}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]; at identifies the toast.
func toastExpiredMsg(at time.Time) Msg {
	return Msg{kind: MsgToastExpired, data: at}
}

// routeMsg is the constructor for [MsgRoute]
func routeMsg(r session.Route) Msg {
	return Msg{kind: MsgRoute, data: r}
}

// renderMsg is the constructor for [MsgRender]
func renderMsg() Msg {
	return Msg{kind: MsgRender}
}

// mountedMsg is the constructor for [MsgMounted]. It is returned by a command, not the inbox.
func mountedMsg() Msg {
	return Msg{kind: MsgMounted}
}

// actionDone is the payload of [MsgActionDone].
type actionDone struct {
	action string
	err    error
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionDone{action, err}}
}
