package server_test

import (
	"context"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/repositories"
	"github.com/desertthunder/shiftswap/internal/server"
	"github.com/desertthunder/shiftswap/internal/services"
	"github.com/desertthunder/shiftswap/internal/session"
	tu "github.com/desertthunder/shiftswap/internal/testing"
	"github.com/desertthunder/shiftswap/internal/views"
)

// member is one signed-in client wired the way the TUI wires it.
type member struct {
	store    *session.Store
	channel  *realtime.Channel
	toasts   *notify.Recorder
	history  *repositories.NotificationRepository
	events   *views.EventsView
	market   *views.MarketplaceView
	requests *views.RequestsView
	bridge   *notify.Bridge
}

func newMember(t *testing.T, srv *httptest.Server) *member {
	t.Helper()

	db := tu.NewStateDB(t)

	creds := services.NewCredentialStore()
	client := services.NewShiftSwapService(services.NewAPIService(srv.URL, srv.Client(), creds))
	m := &member{
		channel: realtime.NewChannel(realtime.Options{
			URL:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
			Limiter: rate.NewLimiter(rate.Every(20*time.Millisecond), 1),
		}),
		toasts:  &notify.Recorder{},
		history: repositories.NewNotificationRepository(db),
	}
	m.store = session.NewStore(session.Options{
		Auth:        client,
		Repo:        repositories.NewSessionRepository(db),
		Credentials: creds,
		Channel:     m.channel,
		Notifier:    m.toasts,
	})

	opts := views.Options{Notifier: m.toasts}
	m.events = views.NewEventsView(client, opts)
	m.market = views.NewMarketplaceView(client, m.channel, m.store, opts)
	m.requests = views.NewRequestsView(client, opts)
	m.bridge = notify.NewBridge(notify.BridgeOptions{Notifier: m.toasts, History: m.history})

	t.Cleanup(func() {
		m.bridge.Detach()
		m.store.Teardown()
	})
	return m
}

func (m *member) signIn(t *testing.T, ctx context.Context, sb *server.Sandbox, name, email string) {
	t.Helper()
	if err := m.store.Signup(ctx, name, email, "pw"); err != nil {
		t.Fatalf("signup %s: %v", name, err)
	}
	if err := m.store.Login(ctx, email, "pw"); err != nil {
		t.Fatalf("login %s: %v", name, err)
	}

	s, _ := m.store.Current()
	tu.WaitUntil(t, name+" online", func() bool { return sb.Hub().Online(s.UserID()) == 1 })

	for _, mount := range []func(context.Context) error{m.events.Mount, m.market.Mount, m.requests.Mount} {
		if err := mount(ctx); err != nil {
			t.Fatalf("mount: %v", err)
		}
	}
	m.bridge.Attach(ctx, m.channel, s.UserID(), notify.Targets{
		Events:      m.events,
		Marketplace: m.market,
		Requests:    m.requests,
	})
}

func (m *member) waitToast(t *testing.T, message string) {
	t.Helper()
	tu.WaitUntil(t, "toast "+message, func() bool { return slices.Contains(m.toasts.Messages(), message) })
}

func eventID(t *testing.T, events []models.Event, title string) string {
	t.Helper()
	for _, e := range events {
		if e.Title == title {
			return e.ID
		}
	}
	t.Fatalf("no event titled %s in %+v", title, events)
	return ""
}

func TestSwapScenario(t *testing.T) {
	ctx := context.Background()
	sb := server.New(server.Options{Secret: "scenario"})
	srv := httptest.NewServer(sb)
	t.Cleanup(func() {
		sb.Close()
		srv.Close()
	})

	alex, bea := newMember(t, srv), newMember(t, srv)
	alex.signIn(t, ctx, sb, "Alex", "alex@example.com")
	bea.signIn(t, ctx, sb, "Bea", "bea@example.com")

	t.Run("Owner Marks Event Swappable", func(t *testing.T) {
		if err := alex.events.CreateEvent(ctx, "Morning", "2026-03-02T08:00"); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		e1 := eventID(t, alex.events.Events(), "Morning")
		if err := alex.events.ToggleSwappable(ctx, e1); err != nil {
			t.Fatalf("ToggleSwappable failed: %v", err)
		}
		if e, _ := models.FindEvent(alex.events.Events(), e1); !e.IsSwappable {
			t.Error("expected E1 swappable after reload")
		}
	})

	t.Run("Requester Offers Own Event", func(t *testing.T) {
		if err := bea.events.CreateEvent(ctx, "Night", "2026-03-02T22:00"); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		e2 := eventID(t, bea.events.Events(), "Night")
		if err := bea.events.ToggleSwappable(ctx, e2); err != nil {
			t.Fatalf("ToggleSwappable failed: %v", err)
		}

		if err := bea.market.Load(ctx); err != nil {
			t.Fatalf("market Load failed: %v", err)
		}
		market := bea.market.Market()
		e1 := eventID(t, market.Available, "Morning")
		if len(market.Offers) != 1 || market.Offers[0].ID != e2 {
			t.Fatalf("expected E2 as the only offer, got %+v", market.Offers)
		}

		if err := bea.market.RequestSwap(ctx, e1, e2); err != nil {
			t.Fatalf("RequestSwap failed: %v", err)
		}
		bea.waitToast(t, "Swap request sent!")
	})

	t.Run("Owner Is Notified", func(t *testing.T) {
		alex.waitToast(t, "New swap request from Bea")
		tu.WaitUntil(t, "incoming request rendered", func() bool {
			return alex.requests.Board().PendingIncoming() == 1
		})

		s, _ := alex.store.Current()
		history, err := alex.history.List(map[string]any{"user_id": s.UserID()})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(history) != 1 || history[0].Message() != "New swap request from Bea" {
			t.Errorf("expected one recorded notification, got %d", len(history))
		}
	})

	t.Run("Owner Accepts", func(t *testing.T) {
		incoming := alex.requests.Board().Incoming
		if len(incoming) != 1 {
			t.Fatalf("expected one incoming request, got %d", len(incoming))
		}
		if err := alex.requests.AcceptSwap(ctx, incoming[0].ID); err != nil {
			t.Fatalf("AcceptSwap failed: %v", err)
		}
		alex.waitToast(t, "Swap accepted successfully!")
		bea.waitToast(t, "Your swap was accepted by Alex")
	})

	t.Run("Boards Reflect Acceptance", func(t *testing.T) {
		if err := alex.requests.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if n := alex.requests.Board().PendingIncoming(); n != 0 {
			t.Errorf("expected no pending incoming for alex, got %d", n)
		}

		tu.WaitUntil(t, "bea's outgoing accepted", func() bool {
			out := bea.requests.Board().Outgoing
			return len(out) == 1 && out[0].Status == models.SwapAccepted
		})
		out := bea.requests.Board().Outgoing[0]
		if out.RequestedEvent.Title != "Morning" || out.OfferedEvent.Title != "Night" {
			t.Errorf("unexpected outgoing entry %+v", out)
		}

		tu.WaitUntil(t, "bea owns Morning", func() bool {
			events := bea.events.Events()
			return len(events) == 1 && events[0].Title == "Morning" && !events[0].IsSwappable
		})
		if err := alex.events.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if events := alex.events.Events(); len(events) != 1 || events[0].Title != "Night" {
			t.Errorf("expected alex to own Night, got %+v", events)
		}
	})

	t.Run("Logout Closes Channel", func(t *testing.T) {
		s, _ := bea.store.Current()
		if err := bea.store.Logout(ctx); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
		if bea.channel.State() != realtime.StateClosed {
			t.Errorf("expected closed channel, got %s", bea.channel.State())
		}
		tu.WaitUntil(t, "bea offline", func() bool { return sb.Hub().Online(s.UserID()) == 0 })
	})
}
