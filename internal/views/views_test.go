package views

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/shared"
	tu "github.com/desertthunder/shiftswap/internal/testing"
)

var (
	ana = models.Session{Token: "t", User: models.User{ID: "u1", Name: "Ana"}}
	bea = models.UserRef{ID: "u2", Name: "Bea"}

	morning = models.Event{ID: "e1", Title: "Morning", Date: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), Owner: ana.User.Ref()}
	night   = models.Event{ID: "e2", Title: "Night", Date: time.Date(2025, 1, 3, 21, 0, 0, 0, time.UTC), Owner: bea, IsSwappable: true}
)

type staticIdentity struct{ session models.Session }

func (s staticIdentity) Current() (models.Session, bool) { return s.session, true }

type advisories struct {
	mu   sync.Mutex
	sent []realtime.SendSwapRequest
}

func (a *advisories) SendSwapRequest(msg realtime.SendSwapRequest) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, msg)
}

func TestSnapshot(t *testing.T) {
	t.Run("Later Ticket Wins Regardless Of Completion Order", func(t *testing.T) {
		var s Snapshot[string]
		s.Mount()

		first, second := s.Begin(), s.Begin()
		if !s.Apply(second, "new") {
			t.Fatal("expected newer ticket applied")
		}
		if s.Apply(first, "stale") {
			t.Error("expected stale ticket rejected")
		}
		if v, _ := s.Get(); v != "new" {
			t.Errorf("expected new, got %s", v)
		}
		if s.Renders() != 1 {
			t.Errorf("expected one render, got %d", s.Renders())
		}
	})

	t.Run("Unmounted Ignores Results", func(t *testing.T) {
		var s Snapshot[int]
		s.Mount()
		ticket := s.Begin()
		s.Unmount()

		if s.Apply(ticket, 1) || s.Current(ticket) {
			t.Error("expected result ignored after unmount")
		}
	})

	t.Run("Remount Invalidates Earlier Tickets", func(t *testing.T) {
		var s Snapshot[int]
		s.Mount()
		old := s.Begin()
		s.Unmount()
		s.Mount()

		if s.Apply(old, 1) {
			t.Error("ticket from before remount must not apply")
		}
		if !s.Apply(s.Begin(), 2) {
			t.Error("expected fresh ticket applied")
		}
	})

	t.Run("OnRender", func(t *testing.T) {
		var s Snapshot[int]
		var rendered []int
		s.OnRender(func(v int) { rendered = append(rendered, v) })
		s.Mount()

		s.Apply(s.Begin(), 1)
		s.Apply(s.Begin(), 2)

		if len(rendered) != 2 || rendered[1] != 2 {
			t.Errorf("unexpected renders %v", rendered)
		}
	})
}

func TestEventsView(t *testing.T) {
	setup := func(t *testing.T) (*EventsView, *tu.FakeBackend, *notify.Recorder) {
		t.Helper()
		backend := tu.NewFakeBackend(ana)
		backend.SetEvents(morning)
		rec := &notify.Recorder{}
		v := NewEventsView(backend, Options{Notifier: rec})
		if err := v.Mount(context.Background()); err != nil {
			t.Fatalf("mount failed: %v", err)
		}
		return v, backend, rec
	}

	t.Run("Mount Loads Snapshot", func(t *testing.T) {
		v, _, _ := setup(t)
		if events := v.Events(); len(events) != 1 || events[0].ID != "e1" {
			t.Errorf("unexpected events %+v", events)
		}
	})

	t.Run("Toggle Twice Round Trips With One Refresh Each", func(t *testing.T) {
		v, backend, rec := setup(t)
		ctx := context.Background()
		loads := backend.Calls(tu.MethodListEvents)

		if err := v.ToggleSwappable(ctx, "e1"); err != nil {
			t.Fatalf("first toggle failed: %v", err)
		}
		if !v.Events()[0].IsSwappable {
			t.Error("expected swappable after first toggle")
		}
		if got := backend.Calls(tu.MethodListEvents) - loads; got != 1 {
			t.Errorf("expected exactly one refresh, got %d", got)
		}

		if err := v.ToggleSwappable(ctx, "e1"); err != nil {
			t.Fatalf("second toggle failed: %v", err)
		}
		if v.Events()[0].IsSwappable {
			t.Error("expected original value after second toggle")
		}
		if got := backend.Calls(tu.MethodListEvents) - loads; got != 2 {
			t.Errorf("expected two refreshes in total, got %d", got)
		}

		msgs := rec.Messages()
		if msgs[len(msgs)-2] != "Marked as swappable" || msgs[len(msgs)-1] != "Removed from swappable" {
			t.Errorf("unexpected toasts %v", msgs)
		}
	})

	t.Run("Empty Title Never Calls Backend", func(t *testing.T) {
		v, backend, rec := setup(t)
		before := backend.TotalCalls()

		err := v.CreateEvent(context.Background(), "", "2025-01-05T10:00")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if backend.TotalCalls() != before {
			t.Error("backend must not be called")
		}
		if last, _ := rec.Last(); last.Message != "Please enter title and date!" || last.Level != notify.LevelError {
			t.Errorf("unexpected toast %+v", last)
		}
	})

	t.Run("Invalid Date", func(t *testing.T) {
		v, backend, _ := setup(t)
		before := backend.TotalCalls()
		if err := v.CreateEvent(context.Background(), "Shift", "next tuesday"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if backend.TotalCalls() != before {
			t.Error("backend must not be called")
		}
	})

	t.Run("Create Reloads", func(t *testing.T) {
		v, _, rec := setup(t)
		if err := v.CreateEvent(context.Background(), "Evening", "2025-01-05T18:00"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if len(v.Events()) != 2 {
			t.Errorf("expected reloaded snapshot with 2 events, got %d", len(v.Events()))
		}
		if last, _ := rec.Last(); last.Message != "Event created!" {
			t.Errorf("unexpected toast %q", last.Message)
		}
	})

	t.Run("Mutation Failure Leaves Snapshot", func(t *testing.T) {
		v, backend, rec := setup(t)
		backend.Fail(tu.MethodSetSwappable, errors.New("boom"))
		renders := v.Snapshot().Renders()

		if err := v.ToggleSwappable(context.Background(), "e1"); err == nil {
			t.Fatal("expected error")
		}
		if v.Snapshot().Renders() != renders || v.Events()[0].IsSwappable {
			t.Error("snapshot must be untouched")
		}
		if last, _ := rec.Last(); last.Message != "Failed to update event" {
			t.Errorf("unexpected toast %q", last.Message)
		}
	})

	t.Run("Load Failure Keeps Previous Snapshot", func(t *testing.T) {
		v, backend, rec := setup(t)
		backend.Fail(tu.MethodListEvents, errors.New("offline"))

		if err := v.Load(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if len(v.Events()) != 1 {
			t.Error("previous snapshot must be retained")
		}
		if last, _ := rec.Last(); last.Message != "Failed to load events" {
			t.Errorf("unexpected toast %q", last.Message)
		}
	})

	t.Run("Unknown Event", func(t *testing.T) {
		v, backend, _ := setup(t)
		before := backend.TotalCalls()
		if err := v.ToggleSwappable(context.Background(), "nope"); !errors.Is(err, shared.ErrEventNotFound) {
			t.Errorf("expected ErrEventNotFound, got %v", err)
		}
		if backend.TotalCalls() != before {
			t.Error("backend must not be called")
		}
	})
}

func TestMarketplaceView(t *testing.T) {
	setup := func(t *testing.T) (*MarketplaceView, *tu.FakeBackend, *notify.Recorder, *advisories) {
		t.Helper()
		backend := tu.NewFakeBackend(ana)
		mine := morning
		mine.IsSwappable = true
		backend.SetEvents(mine, models.Event{ID: "e3", Title: "Private", Owner: ana.User.Ref()})
		backend.SetSwappableEvents(night)
		rec := &notify.Recorder{}
		adv := &advisories{}
		v := NewMarketplaceView(backend, adv, staticIdentity{ana}, Options{Notifier: rec})
		if err := v.Mount(context.Background()); err != nil {
			t.Fatalf("mount failed: %v", err)
		}
		return v, backend, rec, adv
	}

	t.Run("Load Joins Both Fetches", func(t *testing.T) {
		v, backend, _, _ := setup(t)
		m := v.Market()
		if len(m.Available) != 1 || m.Available[0].ID != "e2" {
			t.Errorf("unexpected available %+v", m.Available)
		}
		if len(m.Offers) != 1 || m.Offers[0].ID != "e1" {
			t.Errorf("expected only my swappable events as offers, got %+v", m.Offers)
		}
		if backend.Calls(tu.MethodListEvents) != 1 || backend.Calls(tu.MethodListSwappableEvents) != 1 {
			t.Error("expected one call to each endpoint")
		}
	})

	t.Run("Half Failure Retains Snapshot", func(t *testing.T) {
		v, backend, rec, _ := setup(t)
		backend.SetSwappableEvents()
		backend.Fail(tu.MethodListEvents, errors.New("offline"))

		if err := v.Load(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if len(v.Market().Available) != 1 {
			t.Error("previous snapshot must be retained")
		}
		if last, _ := rec.Last(); last.Message != "Failed to load events" {
			t.Errorf("unexpected toast %q", last.Message)
		}
	})

	t.Run("RequestSwap Sends Advisory To Owner", func(t *testing.T) {
		v, backend, rec, adv := setup(t)

		if err := v.RequestSwap(context.Background(), "e2", "e1"); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if backend.Calls(tu.MethodRequestSwap) != 1 {
			t.Error("expected one POST /swaps")
		}
		if len(adv.sent) != 1 || adv.sent[0].ToUserID != "u2" || adv.sent[0].FromName != "Ana" {
			t.Errorf("unexpected advisories %+v", adv.sent)
		}
		if last, _ := rec.Last(); last.Message != "Swap request sent!" {
			t.Errorf("unexpected toast %q", last.Message)
		}
		if backend.Calls(tu.MethodListSwappableEvents) != 2 {
			t.Error("expected reload after request")
		}
	})

	t.Run("RequestSwap Validates Offer Locally", func(t *testing.T) {
		v, backend, _, adv := setup(t)

		for _, offered := range []string{"", "e3", "e2"} {
			if err := v.RequestSwap(context.Background(), "e2", offered); err == nil {
				t.Errorf("expected validation error for offer %q", offered)
			}
		}
		if backend.Calls(tu.MethodRequestSwap) != 0 || len(adv.sent) != 0 {
			t.Error("backend and channel must not be used")
		}
	})

	t.Run("RequestSwap Failure", func(t *testing.T) {
		v, backend, rec, adv := setup(t)
		backend.Fail(tu.MethodRequestSwap, errors.New("conflict"))

		if err := v.RequestSwap(context.Background(), "e2", "e1"); err == nil {
			t.Fatal("expected error")
		}
		if len(adv.sent) != 0 {
			t.Error("no advisory after a failed request")
		}
		if last, _ := rec.Last(); last.Message != "Failed to send swap request" {
			t.Errorf("unexpected toast %q", last.Message)
		}
	})
}

func TestRequestsView(t *testing.T) {
	pending := models.SwapRequest{
		ID:             "s1",
		Requester:      bea,
		OfferedEvent:   models.EventRef{ID: "e2", Title: "Night"},
		RequestedEvent: models.EventRef{ID: "e1", Title: "Morning"},
		Status:         models.SwapPending,
	}

	setup := func(t *testing.T) (*RequestsView, *tu.FakeBackend, *notify.Recorder) {
		t.Helper()
		backend := tu.NewFakeBackend(ana)
		backend.SetBoard(models.SwapBoard{Incoming: []models.SwapRequest{pending}})
		rec := &notify.Recorder{}
		v := NewRequestsView(backend, Options{Notifier: rec})
		return v, backend, rec
	}

	t.Run("Accept Pending Incoming", func(t *testing.T) {
		v, backend, rec := setup(t)
		v.Mount(context.Background())

		if err := v.AcceptSwap(context.Background(), "s1"); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if got := v.Board().Incoming[0].Status; got != models.SwapAccepted {
			t.Errorf("expected accepted after reload, got %s", got)
		}
		if last, _ := rec.Last(); last.Message != "Swap accepted successfully!" {
			t.Errorf("unexpected toast %q", last.Message)
		}

		if err := v.AcceptSwap(context.Background(), "s1"); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		if backend.Calls(tu.MethodAcceptSwap) != 1 {
			t.Error("accepted request must not be sent again")
		}
	})

	t.Run("Unknown Request", func(t *testing.T) {
		v, backend, _ := setup(t)
		v.Mount(context.Background())
		if err := v.AcceptSwap(context.Background(), "missing"); !errors.Is(err, shared.ErrSwapNotFound) {
			t.Errorf("expected ErrSwapNotFound, got %v", err)
		}
		if backend.Calls(tu.MethodAcceptSwap) != 0 {
			t.Error("backend must not be called")
		}
	})

	t.Run("Outgoing Request", func(t *testing.T) {
		v, backend, rec := setup(t)
		backend.SetBoard(models.SwapBoard{Outgoing: []models.SwapRequest{pending}})
		v.Mount(context.Background())

		if err := v.AcceptSwap(context.Background(), "s1"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if last, _ := rec.Last(); last.Message != "You can only accept requests sent to you" {
			t.Errorf("unexpected toast %q", last.Message)
		}
		if backend.Calls(tu.MethodAcceptSwap) != 0 {
			t.Error("backend must not be called")
		}
	})

	t.Run("Accepted Event During In-Flight Fetch", func(t *testing.T) {
		v, backend, _ := setup(t)
		gate := tu.NewGate()
		backend.Hook(tu.MethodListSwaps, gate.Hook(1))

		var rendered []models.SwapBoard
		v.Snapshot().OnRender(func(b models.SwapBoard) { rendered = append(rendered, b) })

		mounted := make(chan error, 1)
		go func() { mounted <- v.Mount(context.Background()) }()
		gate.WaitEntered(t, time.Second)

		accepted := pending
		accepted.Status = models.SwapAccepted
		backend.SetBoard(models.SwapBoard{Incoming: []models.SwapRequest{accepted}})

		d := realtime.NewDispatcher()
		bridge := notify.NewBridge(notify.BridgeOptions{})
		bridge.Attach(context.Background(), d, "u1", notify.Targets{Requests: v})
		d.Dispatch(realtime.SwapAccepted{OtherUserName: "Ana"})
		v.Wait()

		gate.Release()
		if err := <-mounted; err != nil {
			t.Fatalf("mount failed: %v", err)
		}

		if got := v.Board().Incoming[0].Status; got != models.SwapAccepted {
			t.Errorf("final state must come from the fetch started last, got %s", got)
		}
		if len(rendered) != 1 {
			t.Errorf("expected a single consistent render, got %d", len(rendered))
		}
	})

	t.Run("Unmount Ignores Late Results And Refreshes", func(t *testing.T) {
		v, backend, rec := setup(t)
		gate := tu.NewGate()
		backend.Hook(tu.MethodListSwaps, gate.Hook(1))

		done := make(chan error, 1)
		go func() { done <- v.Mount(context.Background()) }()
		gate.WaitEntered(t, time.Second)
		v.Unmount()
		gate.Release()
		<-done

		if _, loaded := v.Snapshot().Get(); loaded {
			t.Error("late result must not be applied after unmount")
		}

		v.Refresh(context.Background())
		v.Wait()
		if backend.Calls(tu.MethodListSwaps) != 1 {
			t.Error("unmounted view must not refresh")
		}

		backend.Fail(tu.MethodListSwaps, errors.New("offline"))
		v.Load(context.Background())
		if len(rec.Toasts()) != 0 {
			t.Error("unmounted view must not toast load failures")
		}
	})
}
