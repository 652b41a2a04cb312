package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/services"
	"github.com/desertthunder/shiftswap/internal/shared"
	tu "github.com/desertthunder/shiftswap/internal/testing"
)

func newTestServer(t *testing.T) (*Sandbox, *httptest.Server) {
	t.Helper()
	sb := New(Options{Secret: "test-secret"})
	srv := httptest.NewServer(sb)
	t.Cleanup(func() {
		sb.Close()
		srv.Close()
	})
	return sb, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

// newClient returns a typed client and its credential store for srv.
func newClient(srv *httptest.Server) (*services.ShiftSwapService, *services.CredentialStore) {
	creds := services.NewCredentialStore()
	api := services.NewAPIService(srv.URL, srv.Client(), creds)
	return services.NewShiftSwapService(api), creds
}

func newChannel(srv *httptest.Server) *realtime.Channel {
	return realtime.NewChannel(realtime.Options{
		URL:     wsURL(srv),
		Limiter: rate.NewLimiter(rate.Every(20*time.Millisecond), 1),
	})
}

func TestTokenIssuer(t *testing.T) {
	t.Run("Issue And Verify", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", time.Hour)
		token, err := issuer.Issue("u1")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}

		sub, err := issuer.Verify(token)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if sub != "u1" {
			t.Errorf("expected subject u1, got %s", sub)
		}

		if exp, ok := services.CredentialExpiry(token); !ok || exp.Before(time.Now()) {
			t.Errorf("client should read a future expiry, got %v %v", exp, ok)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", time.Minute)
		issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := issuer.Issue("u1")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}

		issuer.now = time.Now
		if _, err := issuer.Verify(token); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if err := services.CheckCredential(token); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("client should treat token as expired, got %v", err)
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, _ := NewTokenIssuer("one", time.Hour).Issue("u1")
		if _, err := NewTokenIssuer("two", time.Hour).Verify(token); !errors.Is(err, shared.ErrInvalidCredential) {
			t.Errorf("expected ErrInvalidCredential, got %v", err)
		}
	})

	t.Run("Password Hash", func(t *testing.T) {
		hash, err := HashPassword("hunter2")
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if !CheckPassword(hash, "hunter2") {
			t.Error("expected password to match")
		}
		if CheckPassword(hash, "hunter3") {
			t.Error("expected wrong password to fail")
		}
	})
}

func seed(t *testing.T, s *Store) (alex, bea models.User, e1, e2 models.Event) {
	t.Helper()
	var err error
	if alex, err = s.Signup("Alex", "alex@example.com", "pw"); err != nil {
		t.Fatalf("signup alex: %v", err)
	}
	if bea, err = s.Signup("Bea", "bea@example.com", "pw"); err != nil {
		t.Fatalf("signup bea: %v", err)
	}

	day := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	e1, _ = s.CreateEvent(alex.ID, models.EventInput{Title: "Morning", Date: day})
	e2, _ = s.CreateEvent(bea.ID, models.EventInput{Title: "Night", Date: day.Add(14 * time.Hour)})
	e1, _ = s.SetSwappable(alex.ID, e1.ID, true)
	e2, _ = s.SetSwappable(bea.ID, e2.ID, true)
	return alex, bea, e1, e2
}

func TestStore(t *testing.T) {
	t.Run("Signup Rejects Duplicate Email", func(t *testing.T) {
		s := NewStore()
		if _, err := s.Signup("Alex", "alex@example.com", "pw"); err != nil {
			t.Fatalf("signup: %v", err)
		}
		if _, err := s.Signup("Other", "ALEX@example.com", "pw"); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
		if _, err := s.Signup("", "x@example.com", "pw"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		s := NewStore()
		alex, _, _, _ := seed(t, s)

		u, err := s.Authenticate(" Alex@Example.com ", "pw")
		if err != nil || u.ID != alex.ID {
			t.Errorf("expected alex, got %+v %v", u, err)
		}
		if _, err := s.Authenticate("alex@example.com", "nope"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Events Are Scoped To Owner", func(t *testing.T) {
		s := NewStore()
		alex, bea, e1, e2 := seed(t, s)

		mine := s.Events(alex.ID)
		if len(mine) != 1 || mine[0].ID != e1.ID {
			t.Errorf("expected only e1, got %+v", mine)
		}
		if mine[0].Owner.Name != "Alex" {
			t.Errorf("expected owner name, got %+v", mine[0].Owner)
		}

		market := s.Swappable(alex.ID)
		if len(market) != 1 || market[0].ID != e2.ID || market[0].Owner.Name != bea.Name {
			t.Errorf("expected only e2 by Bea, got %+v", market)
		}

		if _, err := s.SetSwappable(alex.ID, e2.ID, false); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign event, got %v", err)
		}
		if _, err := s.CreateEvent(alex.ID, models.EventInput{Title: " "}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("CreateSwap Validation", func(t *testing.T) {
		s := NewStore()
		alex, bea, e1, e2 := seed(t, s)

		if _, _, err := s.CreateSwap(bea.ID, models.SwapInput{RequestedEventID: e2.ID, OfferedEventID: e2.ID}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for self swap, got %v", err)
		}
		if _, _, err := s.CreateSwap(bea.ID, models.SwapInput{RequestedEventID: e2.ID, OfferedEventID: e1.ID}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign offer, got %v", err)
		}

		s.SetSwappable(alex.ID, e1.ID, false)
		if _, _, err := s.CreateSwap(bea.ID, models.SwapInput{RequestedEventID: e1.ID, OfferedEventID: e2.ID}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for busy event, got %v", err)
		}
		s.SetSwappable(alex.ID, e1.ID, true)

		req, owner, err := s.CreateSwap(bea.ID, models.SwapInput{RequestedEventID: e1.ID, OfferedEventID: e2.ID})
		if err != nil {
			t.Fatalf("CreateSwap failed: %v", err)
		}
		if owner != alex.ID || req.Status != models.SwapPending || req.Requester.Name != "Bea" {
			t.Errorf("unexpected swap %+v owner %s", req, owner)
		}
		if _, _, err := s.CreateSwap(bea.ID, models.SwapInput{RequestedEventID: e1.ID, OfferedEventID: e2.ID}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected duplicate rejected, got %v", err)
		}
	})

	t.Run("Accept Exchanges Owners", func(t *testing.T) {
		s := NewStore()
		alex, bea, e1, e2 := seed(t, s)
		req, _, _ := s.CreateSwap(bea.ID, models.SwapInput{RequestedEventID: e1.ID, OfferedEventID: e2.ID})

		if _, err := s.Accept(bea.ID, req.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("requester must not accept, got %v", err)
		}

		result, err := s.Accept(alex.ID, req.ID)
		if err != nil {
			t.Fatalf("Accept failed: %v", err)
		}
		if result.Swap.Status != models.SwapAccepted || result.RequesterID != bea.ID || result.OwnerName != "Alex" {
			t.Errorf("unexpected acceptance %+v", result)
		}

		mine := s.Events(alex.ID)
		if len(mine) != 1 || mine[0].ID != e2.ID || mine[0].IsSwappable {
			t.Errorf("alex should own busy e2, got %+v", mine)
		}
		theirs := s.Events(bea.ID)
		if len(theirs) != 1 || theirs[0].ID != e1.ID || theirs[0].IsSwappable {
			t.Errorf("bea should own busy e1, got %+v", theirs)
		}

		if _, err := s.Accept(alex.ID, req.ID); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("Accept Drops Competing Swaps", func(t *testing.T) {
		s := NewStore()
		alex, bea, e1, e2 := seed(t, s)
		cara, _ := s.Signup("Cara", "cara@example.com", "pw")
		e3, _ := s.CreateEvent(cara.ID, models.EventInput{Title: "Evening", Date: time.Now()})
		s.SetSwappable(cara.ID, e3.ID, true)

		winner, _, _ := s.CreateSwap(bea.ID, models.SwapInput{RequestedEventID: e1.ID, OfferedEventID: e2.ID})
		if _, _, err := s.CreateSwap(cara.ID, models.SwapInput{RequestedEventID: e1.ID, OfferedEventID: e3.ID}); err != nil {
			t.Fatalf("CreateSwap failed: %v", err)
		}

		result, err := s.Accept(alex.ID, winner.ID)
		if err != nil {
			t.Fatalf("Accept failed: %v", err)
		}
		if len(result.Rejected) != 1 || result.Rejected[0] != cara.ID {
			t.Errorf("expected cara rejected, got %v", result.Rejected)
		}

		if board := s.Board(cara.ID); len(board.Outgoing) != 0 {
			t.Errorf("expected cara's swap dropped, got %+v", board.Outgoing)
		}
		if board := s.Board(alex.ID); len(board.Incoming) != 1 || board.Incoming[0].ID != winner.ID {
			t.Errorf("expected only the accepted swap, got %+v", board.Incoming)
		}
	})
}

func TestSandbox(t *testing.T) {
	ctx := context.Background()

	t.Run("Signup And Login", func(t *testing.T) {
		_, srv := newTestServer(t)
		client, _ := newClient(srv)

		if err := client.Signup(ctx, "Alex", "alex@example.com", "pw"); err != nil {
			t.Fatalf("Signup failed: %v", err)
		}

		err := client.Signup(ctx, "Alex", "alex@example.com", "pw")
		var se *services.StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %v", err)
		}

		session, err := client.Login(ctx, "alex@example.com", "pw")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if session.User.Name != "Alex" || session.Token == "" {
			t.Errorf("unexpected session %+v", session)
		}

		_, err = client.Login(ctx, "alex@example.com", "wrong")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected 401 to map to ErrNotAuthenticated, got %v", err)
		}
		if !errors.As(err, &se) || se.Message != "Invalid credentials" {
			t.Errorf("expected backend message, got %v", err)
		}
	})

	t.Run("Protected Routes Require Token", func(t *testing.T) {
		_, srv := newTestServer(t)

		resp, err := srv.Client().Get(srv.URL + "/events")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}

		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/swaps", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		resp, err = srv.Client().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Events Round Trip", func(t *testing.T) {
		_, srv := newTestServer(t)
		client, creds := newClient(srv)
		client.Signup(ctx, "Alex", "alex@example.com", "pw")
		session, _ := client.Login(ctx, "alex@example.com", "pw")
		creds.Set(session.Token)

		created, err := client.CreateEvent(ctx, models.EventInput{Title: "Morning", Date: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)})
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if created.ID == "" || created.IsSwappable || created.OwnerID() != session.UserID() {
			t.Errorf("unexpected event %+v", created)
		}

		updated, err := client.SetSwappable(ctx, created.ID, true)
		if err != nil {
			t.Fatalf("SetSwappable failed: %v", err)
		}
		if !updated.IsSwappable {
			t.Error("expected swappable")
		}

		events, err := client.ListEvents(ctx)
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(events) != 1 || events[0].ID != created.ID {
			t.Errorf("unexpected events %+v", events)
		}

		market, err := client.ListSwappableEvents(ctx)
		if err != nil {
			t.Fatalf("ListSwappableEvents failed: %v", err)
		}
		if len(market) != 0 {
			t.Errorf("own events must not appear in the market, got %+v", market)
		}

		_, err = client.SetSwappable(ctx, "missing", true)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		_, srv := newTestServer(t)
		resp, err := srv.Client().Post(srv.URL+"/auth/login", "application/json", strings.NewReader("{"))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("ListenAndServe Stops On Cancel", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve port: %v", err)
		}
		addr := l.Addr().String()
		l.Close()

		sb := New(Options{Secret: "test-secret"})
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- sb.ListenAndServe(ctx, addr) }()

		tu.WaitUntil(t, "sandbox to listen", func() bool {
			resp, err := http.Get("http://" + addr + "/events")
			if err != nil {
				return false
			}
			resp.Body.Close()
			return resp.StatusCode == http.StatusUnauthorized
		})

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(6 * time.Second):
			t.Fatal("ListenAndServe did not return after cancel")
		}
	})

	t.Run("ListenAndServe Bad Address", func(t *testing.T) {
		sb := New(Options{Secret: "test-secret"})
		if err := sb.ListenAndServe(context.Background(), "127.0.0.1:-1"); err == nil {
			t.Error("expected listen error")
		}
	})
}

func TestHub(t *testing.T) {
	t.Run("Requires User Id", func(t *testing.T) {
		_, srv := newTestServer(t)
		resp, err := srv.Client().Get(srv.URL + "/ws")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("Delivers To Named User Only", func(t *testing.T) {
		sb, srv := newTestServer(t)

		alex, bea := newChannel(srv), newChannel(srv)
		defer alex.Disconnect()
		defer bea.Disconnect()

		got := make(chan realtime.Event, 4)
		alex.Subscribe(realtime.KindSwapRequested, func(ev realtime.Event) { got <- ev })
		stray := make(chan realtime.Event, 4)
		bea.Subscribe(realtime.KindSwapRequested, func(ev realtime.Event) { stray <- ev })

		alex.Connect(context.Background(), "u-alex")
		bea.Connect(context.Background(), "u-bea")
		tu.WaitUntil(t, "alex online", func() bool { return sb.Hub().Online("u-alex") == 1 })
		tu.WaitUntil(t, "bea online", func() bool { return sb.Hub().Online("u-bea") == 1 })

		sb.Hub().Send("u-alex", realtime.SwapRequested{FromUserName: "Bea"})

		select {
		case ev := <-got:
			if req, ok := ev.(realtime.SwapRequested); !ok || req.FromUserName != "Bea" {
				t.Errorf("unexpected event %#v", ev)
			}
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for event")
		}

		select {
		case ev := <-stray:
			t.Errorf("bea should not receive alex's event, got %#v", ev)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("Advisory Is Ignored", func(t *testing.T) {
		sb, srv := newTestServer(t)

		ch := newChannel(srv)
		defer ch.Disconnect()
		ch.Connect(context.Background(), "u-bea")
		tu.WaitUntil(t, "bea online", func() bool { return sb.Hub().Online("u-bea") == 1 })

		ch.SendSwapRequest(realtime.SendSwapRequest{ToUserID: "u-alex", FromName: "Bea"})

		time.Sleep(50 * time.Millisecond)
		if sb.Hub().Online("u-bea") != 1 {
			t.Error("advisory should not drop the connection")
		}
		if ch.State() != realtime.StateOpen {
			t.Errorf("expected open channel, got %s", ch.State())
		}
	})

	t.Run("Disconnect Unregisters", func(t *testing.T) {
		sb, srv := newTestServer(t)

		ch := newChannel(srv)
		ch.Connect(context.Background(), "u-alex")
		tu.WaitUntil(t, "alex online", func() bool { return sb.Hub().Online("u-alex") == 1 })

		ch.Disconnect()
		tu.WaitUntil(t, "alex offline", func() bool { return sb.Hub().Online("u-alex") == 0 })
	})
}
