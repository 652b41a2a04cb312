package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/notify"
	"github.com/desertthunder/shiftswap/internal/services"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// Route names a destination the store navigates to.
type Route string

const (
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
)

// Navigator moves the user interface to a route.
type Navigator interface {
	Navigate(Route)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(r Route) { f(r) }

// Connector is the realtime channel as seen by the store.
type Connector interface {
	Connect(ctx context.Context, userID string)
	Disconnect()
}

// Persister is the durable copy of the session.
type Persister interface {
	Load() (*models.Session, error)
	Save(models.Session) error
	Clear() error
}

// Credentials receives the bearer credential used for authenticated requests.
type Credentials interface {
	Set(token string)
	Clear()
}

// Listener observes session changes. present is false after logout.
type Listener func(s models.Session, present bool)

// Options configures a [Store]. Auth, Repo and Channel are required.
type Options struct {
	Auth        services.Authenticator
	Repo        Persister
	Credentials Credentials
	Channel     Connector
	Notifier    notify.Notifier
	Navigator   Navigator
	Logger      *log.Logger
}

// Store is the session context of the client.
type Store struct {
	auth      services.Authenticator
	repo      Persister
	creds     Credentials
	channel   Connector
	notifier  notify.Notifier
	navigator Navigator
	logger    *log.Logger

	// ops serializes Restore, Login, Logout and Teardown.
	ops sync.Mutex

	mu        sync.RWMutex
	current   *models.Session
	listeners []Listener
}

// NewStore creates an empty [Store].
func NewStore(opts Options) *Store {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Navigator == nil {
		opts.Navigator = NavigatorFunc(func(Route) {})
	}
	if opts.Credentials == nil {
		opts.Credentials = services.NewCredentialStore()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Store{
		auth:      opts.Auth,
		repo:      opts.Repo,
		creds:     opts.Credentials,
		channel:   opts.Channel,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		logger:    opts.Logger.WithPrefix("session"),
	}
}

// OnChange registers fn to run after every login, restore and logout.
func (s *Store) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns the in-memory session.
func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, false
	}
	return *s.current, true
}

// Init restores the persisted session. It never fails.
func (s *Store) Init(ctx context.Context) {
	s.Restore(ctx)
}

// Teardown disconnects the channel without clearing any session state.
func (s *Store) Teardown() {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.channel.Disconnect()
}

// Restore loads the persisted session and connects the channel.
//
// An absent, malformed or expired session leaves the store empty and its residue is cleared.
// A failed read leaves the persisted session in place.
// It reports whether a session was restored.
func (s *Store) Restore(ctx context.Context) bool {
	s.ops.Lock()
	defer s.ops.Unlock()

	persisted, err := s.repo.Load()
	if err == nil {
		err = services.CheckCredential(persisted.Token)
	}
	if err != nil {
		if !isResidue(err) {
			s.logger.Warn("failed to read persisted session", "error", err)
			return false
		}
		if errors.Is(err, shared.ErrSessionNotFound) {
			s.logger.Debug("no session to restore")
		} else {
			s.logger.Debug("discarding persisted session", "error", err)
		}
		// A partial session (token without user) is residue as well.
		if cerr := s.repo.Clear(); cerr != nil {
			s.logger.Warn("failed to clear persisted session", "error", cerr)
		}
		return false
	}

	s.activate(ctx, *persisted)
	s.logger.Info("session restored", "user_id", persisted.UserID())
	return true
}

// Login authenticates with the backend and activates the returned session.
//
// On failure the user sees one notification and the store is unchanged.
func (s *Store) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		notify.Error(s.notifier, "Please enter email and password!")
		return fmt.Errorf("%w: email and password", shared.ErrMissingArgument)
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	session, err := s.auth.Login(ctx, email, password)
	if err != nil {
		notify.Error(s.notifier, terse("Login failed", err))
		s.logger.Warn("login failed", "error", err)
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if err := s.repo.Save(session); err != nil {
		notify.Error(s.notifier, "Login failed")
		s.logger.Error("failed to persist session", "error", err)
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.activate(ctx, session)
	s.logger.Info("logged in", "user_id", session.UserID())
	s.navigator.Navigate(RouteDashboard)
	return nil
}

// Signup registers an account and routes to login. It never authenticates.
func (s *Store) Signup(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		notify.Error(s.notifier, "Please fill in all fields!")
		return fmt.Errorf("%w: name, email and password", shared.ErrMissingArgument)
	}

	if err := s.auth.Signup(ctx, name, email, password); err != nil {
		notify.Error(s.notifier, terse("Signup failed", err))
		s.logger.Warn("signup failed", "error", err)
		return err
	}

	notify.Success(s.notifier, "Account created! Please log in.")
	s.navigator.Navigate(RouteLogin)
	return nil
}

// Logout closes the channel, clears durable and in-memory state and routes to login.
// Calling it without a session only navigates.
func (s *Store) Logout(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.channel.Disconnect()
	err := s.repo.Clear()
	if err != nil {
		s.logger.Error("failed to clear persisted session", "error", err)
	}

	s.mu.Lock()
	previous := s.current
	s.current = nil
	listeners := s.listeners
	s.mu.Unlock()
	s.creds.Clear()

	if previous != nil {
		s.logger.Info("logged out", "user_id", previous.UserID())
		for _, fn := range listeners {
			fn(models.Session{}, false)
		}
	}

	s.navigator.Navigate(RouteLogin)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// activate sets memory and credential, connects the channel and notifies listeners.
func (s *Store) activate(ctx context.Context, session models.Session) {
	s.mu.Lock()
	s.current = &session
	listeners := s.listeners
	s.mu.Unlock()

	s.creds.Set(session.Token)
	s.channel.Connect(ctx, session.UserID())

	for _, fn := range listeners {
		fn(session, true)
	}
}

// isResidue reports whether err means the persisted session is unusable, as opposed to unreadable.
func isResidue(err error) bool {
	for _, target := range []error{
		shared.ErrSessionNotFound, shared.ErrSessionMalformed,
		shared.ErrInvalidCredential, shared.ErrTokenExpired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// terse reduces err to a single line for the user, preferring the backend's message.
func terse(prefix string, err error) string {
	var se *services.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return prefix + ": " + se.Message
	}
	return prefix
}
