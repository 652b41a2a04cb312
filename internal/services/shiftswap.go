package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/shared"
)

var _ Backend = (*ShiftSwapService)(nil)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: %s %s: status %d: %s", shared.ErrAPIRequest, e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap allows errors.Is to match [shared.ErrAPIRequest] and the status-specific sentinels.
func (e *StatusError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		errs = append(errs, shared.ErrNotAuthenticated)
	case http.StatusNotFound:
		errs = append(errs, shared.ErrNotFound)
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	return errs
}

// newStatusError reads the backend message from {"message"} or {"error"} bodies.
func newStatusError(method, path string, resp *APIResponse) *StatusError {
	se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		se.Message = firstNonEmpty(body.Message, body.Error)
	} else {
		se.Message = strings.TrimSpace(string(resp.Body))
	}
	return se
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ShiftSwapService implements [Backend] over HTTP.
type ShiftSwapService struct {
	api *APIService
}

// NewShiftSwapService creates a typed client on top of api.
func NewShiftSwapService(api *APIService) *ShiftSwapService {
	return &ShiftSwapService{api: api}
}

// API returns the underlying raw client.
func (s *ShiftSwapService) API() *APIService {
	return s.api
}

// Login exchanges credentials for a session. The request carries no credential.
func (s *ShiftSwapService) Login(ctx context.Context, email, password string) (models.Session, error) {
	var session models.Session
	err := s.call(ctx, s.api.Anonymous(), http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &session)
	if err != nil {
		return models.Session{}, err
	}

	if err := session.Validate(); err != nil {
		return models.Session{}, fmt.Errorf("%w: login response: %w", shared.ErrAuthFailed, err)
	}
	return session, nil
}

// Signup registers an account.
func (s *ShiftSwapService) Signup(ctx context.Context, name, email, password string) error {
	return s.call(ctx, s.api.Anonymous(), http.MethodPost, "/auth/signup", signupRequest{Name: name, Email: email, Password: password}, nil)
}

// ListEvents returns the current user's own events.
func (s *ShiftSwapService) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.call(ctx, s.api, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListSwappableEvents returns other users' swappable events.
func (s *ShiftSwapService) ListSwappableEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.call(ctx, s.api, http.MethodGet, "/events/swappable", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent creates an event owned by the current user.
func (s *ShiftSwapService) CreateEvent(ctx context.Context, input models.EventInput) (models.Event, error) {
	var event models.Event
	if err := s.call(ctx, s.api, http.MethodPost, "/events", input, &event); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// SetSwappable sets the isSwappable flag of the event with id.
func (s *ShiftSwapService) SetSwappable(ctx context.Context, id string, swappable bool) (models.Event, error) {
	if id == "" {
		return models.Event{}, fmt.Errorf("%w: event id", shared.ErrMissingArgument)
	}

	var event models.Event
	path := "/events/" + url.PathEscape(id)
	if err := s.call(ctx, s.api, http.MethodPut, path, models.SwappableUpdate{IsSwappable: swappable}, &event); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// RequestSwap posts a swap request.
func (s *ShiftSwapService) RequestSwap(ctx context.Context, input models.SwapInput) (models.SwapRequest, error) {
	var swap models.SwapRequest
	if err := s.call(ctx, s.api, http.MethodPost, "/swaps", input, &swap); err != nil {
		return models.SwapRequest{}, err
	}
	return swap, nil
}

// ListSwaps returns incoming and outgoing requests. Missing lists decode as empty.
func (s *ShiftSwapService) ListSwaps(ctx context.Context) (models.SwapBoard, error) {
	var board models.SwapBoard
	if err := s.call(ctx, s.api, http.MethodGet, "/swaps", nil, &board); err != nil {
		return models.SwapBoard{}, err
	}
	if board.Incoming == nil {
		board.Incoming = []models.SwapRequest{}
	}
	if board.Outgoing == nil {
		board.Outgoing = []models.SwapRequest{}
	}
	return board, nil
}

// AcceptSwap accepts the incoming request with id.
func (s *ShiftSwapService) AcceptSwap(ctx context.Context, id string) (models.SwapRequest, error) {
	if id == "" {
		return models.SwapRequest{}, fmt.Errorf("%w: swap id", shared.ErrMissingArgument)
	}

	var swap models.SwapRequest
	path := "/swaps/" + url.PathEscape(id) + "/accept"
	if err := s.call(ctx, s.api, http.MethodPost, path, nil, &swap); err != nil {
		return models.SwapRequest{}, err
	}
	return swap, nil
}

// call encodes in as JSON (when non-nil), performs the request and decodes a 2xx body into out.
func (s *ShiftSwapService) call(ctx context.Context, api *APIService, method, path string, in, out any) error {
	var data []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		data = encoded
	}

	resp, err := api.Do(ctx, method, path, data)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return newStatusError(method, path, resp)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s %s response: %v", shared.ErrAPIRequest, method, path, err)
	}
	return nil
}
