package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// Targets are the views a bridge refreshes. Nil targets are skipped.
type Targets struct {
	Events      Refresher
	Marketplace Refresher
	Requests    Refresher
}

// History stores delivered notifications.
type History interface {
	Record(kind, message, userID string) error
}

// BridgeOptions configures a [Bridge].
type BridgeOptions struct {
	Notifier Notifier
	History  History
	Logger   *log.Logger
}

// Bridge converts realtime events into toasts and refreshes of the affected views.
//
// A bridge holds at most one [Attachment]; attaching again detaches the previous one first, so each
// event kind has exactly one listener per bridge.
type Bridge struct {
	notifier Notifier
	history  History
	logger   *log.Logger

	mu      sync.Mutex
	current *Attachment
}

// NewBridge creates a detached [Bridge].
func NewBridge(opts BridgeOptions) *Bridge {
	if opts.Notifier == nil {
		opts.Notifier = Discard
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Bridge{
		notifier: opts.Notifier,
		history:  opts.History,
		logger:   opts.Logger.WithPrefix("bridge"),
	}
}

// Attachment is the set of subscriptions made by one [Bridge.Attach].
type Attachment struct {
	subs   []*realtime.Subscription
	cancel context.CancelFunc
	once   sync.Once
}

// Detach releases every subscription of the attachment. It is idempotent.
func (a *Attachment) Detach() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		a.cancel()
		for _, s := range a.subs {
			s.Release()
		}
	})
}

// Attach subscribes to every event kind of src on behalf of userID.
//
// Refreshes triggered by events use a context derived from ctx that is cancelled on Detach.
func (b *Bridge) Attach(ctx context.Context, src realtime.Subscriber, userID string, targets Targets) *Attachment {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current.Detach()

	ctx, cancel := context.WithCancel(ctx)
	a := &Attachment{cancel: cancel}
	for _, kind := range realtime.Kinds {
		a.subs = append(a.subs, src.Subscribe(kind, func(ev realtime.Event) {
			b.handle(ctx, ev, userID, targets)
		}))
	}
	b.current = a

	b.logger.Debug("attached", "user_id", userID)
	return a
}

// Detach releases the current attachment, if any.
func (b *Bridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Detach()
	b.current = nil
}

// Attached reports whether the bridge holds an attachment whose subscriptions are still live.
//
// A channel that switches identity releases every subscription, so callers attach again after
// a user switch.
func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.live()
}

// live reports whether any subscription of the attachment is still registered.
func (a *Attachment) live() bool {
	if a == nil {
		return false
	}
	for _, s := range a.subs {
		if !s.Released() {
			return true
		}
	}
	return false
}

func (b *Bridge) handle(ctx context.Context, ev realtime.Event, userID string, targets Targets) {
	if ctx.Err() != nil {
		return
	}

	toast, refresh := Route(ev, targets)
	b.notifier.Notify(toast)

	if b.history != nil {
		if err := b.history.Record(string(ev.Kind()), toast.Message, userID); err != nil {
			b.logger.Warn("failed to record notification", "error", err, "kind", ev.Kind())
		}
	}

	for _, r := range refresh {
		r.Refresh(ctx)
	}
}

// Route returns the toast for ev and the views it affects, in refresh order.
func Route(ev realtime.Event, targets Targets) (Toast, []Refresher) {
	var (
		toast Toast
		views []Refresher
	)

	switch e := ev.(type) {
	case realtime.SwapRequested:
		toast = NewToast(LevelInfo, fmt.Sprintf("New swap request from %s", e.FromUserName))
		views = []Refresher{targets.Requests}
	case realtime.SwapAccepted:
		toast = NewToast(LevelSuccess, fmt.Sprintf("Your swap was accepted by %s", e.OtherUserName))
		views = []Refresher{targets.Requests, targets.Events, targets.Marketplace}
	case realtime.SwapRejected:
		toast = NewToast(LevelError, "Your swap request was rejected.")
		views = []Refresher{targets.Requests, targets.Marketplace}
	}

	out := views[:0]
	for _, v := range views {
		if v != nil {
			out = append(out, v)
		}
	}
	return toast, out
}
