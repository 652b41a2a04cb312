package testing

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/shiftswap/internal/models"
)

// Method names accepted by [FakeBackend.Fail], [FakeBackend.Hook] and [FakeBackend.Calls].
const (
	MethodLogin               = "Login"
	MethodSignup              = "Signup"
	MethodListEvents          = "ListEvents"
	MethodListSwappableEvents = "ListSwappableEvents"
	MethodCreateEvent         = "CreateEvent"
	MethodSetSwappable        = "SetSwappable"
	MethodRequestSwap         = "RequestSwap"
	MethodListSwaps           = "ListSwaps"
	MethodAcceptSwap          = "AcceptSwap"
)

// Hook runs after a call has captured its result and before it returns.
// call is the 1-based count of calls to the method so far. A non-nil error replaces the result.
type Hook func(ctx context.Context, call int) error

// FakeBackend is an in-memory double of the backend HTTP contract for a single signed-in user.
//
// Read methods capture their result at call time, so a [Hook] that blocks models a response that
// was computed early and delivered late.
type FakeBackend struct {
	mu        sync.Mutex
	session   models.Session
	events    []models.Event
	swappable []models.Event
	board     models.SwapBoard
	errs      map[string]error
	hooks     map[string]Hook
	calls     map[string]int
	seq       int
}

// NewFakeBackend creates a [FakeBackend] that logs in as session.
func NewFakeBackend(session models.Session) *FakeBackend {
	return &FakeBackend{
		session: session,
		errs:    map[string]error{},
		hooks:   map[string]Hook{},
		calls:   map[string]int{},
	}
}

// SetEvents replaces the current user's events.
func (f *FakeBackend) SetEvents(events ...models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = slices.Clone(events)
}

// SetSwappableEvents replaces other users' swappable events.
func (f *FakeBackend) SetSwappableEvents(events ...models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swappable = slices.Clone(events)
}

// SetBoard replaces the swap board.
func (f *FakeBackend) SetBoard(board models.SwapBoard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.board = cloneBoard(board)
}

// Fail makes method return err until cleared with a nil err.
func (f *FakeBackend) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Hook installs h for method; a nil h removes it.
func (f *FakeBackend) Hook(method string, h Hook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h == nil {
		delete(f.hooks, method)
		return
	}
	f.hooks[method] = h
}

// Calls returns how many times method was invoked.
func (f *FakeBackend) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (f *FakeBackend) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Event returns the current user's event with id.
func (f *FakeBackend) Event(id string) (models.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.FindEvent(f.events, id)
}

func (f *FakeBackend) Login(ctx context.Context, email, password string) (models.Session, error) {
	return capture(ctx, f, MethodLogin, func() (models.Session, error) {
		return f.session, nil
	})
}

func (f *FakeBackend) Signup(ctx context.Context, name, email, password string) error {
	_, err := capture(ctx, f, MethodSignup, func() (struct{}, error) {
		return struct{}{}, nil
	})
	return err
}

func (f *FakeBackend) ListEvents(ctx context.Context) ([]models.Event, error) {
	return capture(ctx, f, MethodListEvents, func() ([]models.Event, error) {
		return slices.Clone(f.events), nil
	})
}

func (f *FakeBackend) ListSwappableEvents(ctx context.Context) ([]models.Event, error) {
	return capture(ctx, f, MethodListSwappableEvents, func() ([]models.Event, error) {
		return slices.Clone(f.swappable), nil
	})
}

func (f *FakeBackend) CreateEvent(ctx context.Context, input models.EventInput) (models.Event, error) {
	return capture(ctx, f, MethodCreateEvent, func() (models.Event, error) {
		f.seq++
		event := models.Event{
			ID:    fmt.Sprintf("event-%d", f.seq),
			Title: input.Title,
			Date:  input.Date,
			Owner: f.session.User.Ref(),
		}
		f.events = append(f.events, event)
		return event, nil
	})
}

func (f *FakeBackend) SetSwappable(ctx context.Context, id string, swappable bool) (models.Event, error) {
	return capture(ctx, f, MethodSetSwappable, func() (models.Event, error) {
		for i := range f.events {
			if f.events[i].ID == id {
				f.events[i].IsSwappable = swappable
				return f.events[i], nil
			}
		}
		return models.Event{}, fmt.Errorf("event %s not found", id)
	})
}

func (f *FakeBackend) RequestSwap(ctx context.Context, input models.SwapInput) (models.SwapRequest, error) {
	return capture(ctx, f, MethodRequestSwap, func() (models.SwapRequest, error) {
		f.seq++
		swap := models.SwapRequest{
			ID:             fmt.Sprintf("swap-%d", f.seq),
			Requester:      f.session.User.Ref(),
			OfferedEvent:   models.EventRef{ID: input.OfferedEventID},
			RequestedEvent: models.EventRef{ID: input.RequestedEventID},
			Status:         models.SwapPending,
		}
		f.board.Outgoing = append(f.board.Outgoing, swap)
		return swap, nil
	})
}

func (f *FakeBackend) ListSwaps(ctx context.Context) (models.SwapBoard, error) {
	return capture(ctx, f, MethodListSwaps, func() (models.SwapBoard, error) {
		return cloneBoard(f.board), nil
	})
}

func (f *FakeBackend) AcceptSwap(ctx context.Context, id string) (models.SwapRequest, error) {
	return capture(ctx, f, MethodAcceptSwap, func() (models.SwapRequest, error) {
		for i := range f.board.Incoming {
			if f.board.Incoming[i].ID == id {
				f.board.Incoming[i].Status = models.SwapAccepted
				return f.board.Incoming[i], nil
			}
		}
		return models.SwapRequest{}, fmt.Errorf("swap %s not found", id)
	})
}

// capture records the call and computes the result under the lock, then runs the hook unlocked.
func capture[T any](ctx context.Context, f *FakeBackend, method string, read func() (T, error)) (T, error) {
	var zero T

	f.mu.Lock()
	f.calls[method]++
	n := f.calls[method]
	err := f.errs[method]
	hook := f.hooks[method]
	var (
		v       T
		readErr error
	)
	if err == nil {
		v, readErr = read()
	}
	f.mu.Unlock()

	if hook != nil {
		if herr := hook(ctx, n); herr != nil {
			return zero, herr
		}
	}
	if err != nil {
		return zero, err
	}
	if readErr != nil {
		return zero, readErr
	}
	return v, nil
}

func cloneBoard(b models.SwapBoard) models.SwapBoard {
	return models.SwapBoard{
		Incoming: slices.Clone(b.Incoming),
		Outgoing: slices.Clone(b.Outgoing),
	}
}

// Gate blocks a [Hook] until released. Use [Gate.Hook] to block only the nth call.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewGate creates an unreleased [Gate].
func NewGate() *Gate {
	return &Gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

// Hook returns a [Hook] that blocks call number nth until [Gate.Release].
func (g *Gate) Hook(nth int) Hook {
	return func(ctx context.Context, call int) error {
		if call != nth {
			return nil
		}
		g.entered <- struct{}{}
		select {
		case <-g.release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitEntered blocks until the gated call is in flight or the timeout elapses.
func (g *Gate) WaitEntered(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for gated call")
	}
}

// Release lets the gated call return. Safe to call more than once.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}
