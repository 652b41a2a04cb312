package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/realtime"
	"github.com/desertthunder/shiftswap/internal/shared"
)

const maxBodySize = 1 << 20

// Options configures a [Sandbox].
type Options struct {
	Secret   string
	TokenTTL time.Duration
	Logger   *log.Logger
}

// Sandbox is the in-memory backend: HTTP API, bearer auth and realtime hub.
type Sandbox struct {
	store  *Store
	tokens *TokenIssuer
	hub    *Hub
	router *BasicRouter
	logger *log.Logger
}

type credentialsBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageBody struct {
	Message string `json:"message"`
}

// New creates a [Sandbox] with its routes registered.
func New(opts Options) *Sandbox {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Secret == "" {
		opts.Secret = shared.GenerateID()
	}

	logger := opts.Logger.WithPrefix("sandbox")
	s := &Sandbox{
		store:  NewStore(),
		tokens: NewTokenIssuer(opts.Secret, opts.TokenTTL),
		hub:    NewHub(logger),
		router: NewBasicRouter(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Sandbox) routes() {
	s.router.Use(Logging(s.logger))

	s.router.HandleFunc(http.MethodPost, "/auth/signup", s.signup)
	s.router.HandleFunc(http.MethodPost, "/auth/login", s.login)
	s.router.Handler(s.hub)

	auth := RequireAuth(s.tokens)
	s.router.Handle(http.MethodGet, "/events", auth(http.HandlerFunc(s.listEvents)))
	s.router.Handle(http.MethodGet, "/events/swappable", auth(http.HandlerFunc(s.listSwappable)))
	s.router.Handle(http.MethodPost, "/events", auth(http.HandlerFunc(s.createEvent)))
	s.router.Handle(http.MethodPut, "/events/{id}", auth(http.HandlerFunc(s.updateEvent)))
	s.router.Handle(http.MethodPost, "/swaps", auth(http.HandlerFunc(s.createSwap)))
	s.router.Handle(http.MethodGet, "/swaps", auth(http.HandlerFunc(s.listSwaps)))
	s.router.Handle(http.MethodPost, "/swaps/{id}/accept", auth(http.HandlerFunc(s.acceptSwap)))
}

// ServeHTTP implements [http.Handler].
func (s *Sandbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Store exposes the data set for seeding.
func (s *Sandbox) Store() *Store { return s.store }

// Hub exposes the realtime hub.
func (s *Sandbox) Hub() *Hub { return s.hub }

// Tokens exposes the token issuer.
func (s *Sandbox) Tokens() *TokenIssuer { return s.tokens }

// Close disconnects realtime clients.
func (s *Sandbox) Close() { s.hub.Close() }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Sandbox) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Infof("starting sandbox at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
		return err
	}
	s.logger.Info("sandbox stopped")
	return nil
}

func (s *Sandbox) signup(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}

	u, err := s.store.Signup(body.Name, body.Email, body.Password)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email)
	writeJSON(w, http.StatusCreated, messageBody{Message: "User created"})
}

func (s *Sandbox) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}

	u, err := s.store.Authenticate(body.Email, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, models.Session{Token: token, User: u})
}

func (s *Sandbox) listEvents(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	writeJSON(w, http.StatusOK, s.store.Events(userID))
}

func (s *Sandbox) listSwappable(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	writeJSON(w, http.StatusOK, s.store.Swappable(userID))
}

func (s *Sandbox) createEvent(w http.ResponseWriter, r *http.Request) {
	var input models.EventInput
	if !decode(w, r, &input) {
		return
	}

	userID, _ := UserID(r.Context())
	event, err := s.store.CreateEvent(userID, input)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Sandbox) updateEvent(w http.ResponseWriter, r *http.Request) {
	var update models.SwappableUpdate
	if !decode(w, r, &update) {
		return
	}

	userID, _ := UserID(r.Context())
	event, err := s.store.SetSwappable(userID, r.PathValue("id"), update.IsSwappable)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Sandbox) createSwap(w http.ResponseWriter, r *http.Request) {
	var input models.SwapInput
	if !decode(w, r, &input) {
		return
	}

	userID, _ := UserID(r.Context())
	req, ownerID, err := s.store.CreateSwap(userID, input)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.hub.Send(ownerID, realtime.SwapRequested{FromUserName: req.Requester.Label("Someone")})
	writeJSON(w, http.StatusCreated, req)
}

func (s *Sandbox) listSwaps(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	writeJSON(w, http.StatusOK, s.store.Board(userID))
}

func (s *Sandbox) acceptSwap(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	result, err := s.store.Accept(userID, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.hub.Send(result.RequesterID, realtime.SwapAccepted{OtherUserName: result.OwnerName})
	for _, id := range result.Rejected {
		s.hub.Send(id, realtime.SwapRejected{})
	}
	writeJSON(w, http.StatusOK, result.Swap)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageBody{Message: message})
}

// writeStoreError maps [Store] errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailTaken), errors.Is(err, shared.ErrInvalidTransition), errors.Is(err, ErrForbidden):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
