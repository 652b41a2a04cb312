// package notify turns realtime events and operation outcomes into transient user notifications
package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Level is the severity of a [Toast].
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Toast is a transient, non-blocking user notification.
type Toast struct {
	Level   Level
	Message string
	At      time.Time
}

// NewToast creates a [Toast] stamped with the current time.
func NewToast(level Level, message string) Toast {
	return Toast{Level: level, Message: message, At: time.Now()}
}

// Notifier displays toasts. Implementations must not block.
type Notifier interface {
	Notify(Toast)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

// Info sends an info toast to n.
func Info(n Notifier, message string) { n.Notify(NewToast(LevelInfo, message)) }

// Success sends a success toast to n.
func Success(n Notifier, message string) { n.Notify(NewToast(LevelSuccess, message)) }

// Error sends an error toast to n.
func Error(n Notifier, message string) { n.Notify(NewToast(LevelError, message)) }

// Discard drops every toast.
var Discard Notifier = NotifierFunc(func(Toast) {})

// Recorder keeps every toast it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.toasts)
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.toasts))
	for i, t := range r.toasts {
		out[i] = t.Message
	}
	return out
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

// Reset drops recorded toasts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = nil
}

// LogNotifier writes toasts to a [log.Logger].
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a [LogNotifier].
func NewLogNotifier(l *log.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Notify(t Toast) {
	switch t.Level {
	case LevelError:
		n.logger.Error(t.Message)
	default:
		n.logger.Info(t.Message, "level", t.Level)
	}
}

// Multi fans a toast out to several notifiers.
func Multi(ns ...Notifier) Notifier {
	return NotifierFunc(func(t Toast) {
		for _, n := range ns {
			if n != nil {
				n.Notify(t)
			}
		}
	})
}

// Refresher is a view that can be asked to reload its snapshot.
//
// Refresh must return without waiting for the reload to finish.
type Refresher interface {
	Refresh(ctx context.Context)
}
