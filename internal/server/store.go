package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/shiftswap/internal/models"
	"github.com/desertthunder/shiftswap/internal/shared"
)

var (
	ErrEmailTaken = errors.New("email already registered")
	ErrForbidden  = errors.New("not allowed")
)

type account struct {
	user models.User
	hash string
}

type swap struct {
	id          string
	requesterID string
	ownerID     string
	offeredID   string
	requestedID string
	status      models.SwapStatus
}

// Acceptance is the outcome of [Store.Accept].
type Acceptance struct {
	Swap        models.SwapRequest
	RequesterID string
	OwnerName   string
	// Rejected holds the requesters of pending swaps dropped because their events changed hands.
	Rejected []string
}

// Store is the sandbox's in-memory data set.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	byEmail  map[string]string
	events   map[string]*models.Event
	order    []string
	swaps    map[string]*swap
	swapIDs  []string
}

// NewStore creates an empty [Store].
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*account),
		byEmail:  make(map[string]string),
		events:   make(map[string]*models.Event),
		swaps:    make(map[string]*swap),
	}
}

// Signup registers a user. Emails are unique, case-insensitively.
func (s *Store) Signup(name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", shared.ErrMissingArgument)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return models.User{}, ErrEmailTaken
	}

	u := models.User{ID: shared.GenerateID(), Name: name, Email: email}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	s.byEmail[email] = u.ID
	return u, nil
}

// Authenticate returns the user whose credentials match.
func (s *Store) Authenticate(email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	acct, ok := s.accounts[s.byEmail[email]]
	s.mu.RUnlock()

	if !ok || !CheckPassword(acct.hash, password) {
		return models.User{}, shared.ErrAuthFailed
	}
	return acct.user, nil
}

// User returns the user with id.
func (s *Store) User(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return models.User{}, false
	}
	return acct.user, true
}

// Events returns the events owned by userID ordered by date.
func (s *Store) Events(userID string) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e *models.Event) bool { return e.OwnerID() == userID })
}

// Swappable returns swappable events owned by anyone but userID ordered by date.
func (s *Store) Swappable(userID string) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e *models.Event) bool { return e.IsSwappable && e.OwnerID() != userID })
}

// CreateEvent adds an event owned by userID. New events are not swappable.
func (s *Store) CreateEvent(userID string, input models.EventInput) (models.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Date.IsZero() {
		return models.Event{}, fmt.Errorf("%w: title and date are required", shared.ErrMissingArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := &models.Event{
		ID:    shared.GenerateID(),
		Title: title,
		Date:  input.Date.UTC(),
		Owner: models.UserRef{ID: userID},
	}
	s.events[e.ID] = e
	s.order = append(s.order, e.ID)
	return s.render(e), nil
}

// SetSwappable sets the flag on an event owned by userID.
func (s *Store) SetSwappable(userID, id string, swappable bool) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok || e.OwnerID() != userID {
		return models.Event{}, fmt.Errorf("%w: event %s", shared.ErrNotFound, id)
	}
	e.IsSwappable = swappable
	return s.render(e), nil
}

// CreateSwap records a pending request by userID and returns it with the id of the user who must
// answer it.
func (s *Store) CreateSwap(userID string, input models.SwapInput) (models.SwapRequest, string, error) {
	input, err := models.NewSwapInput(input.RequestedEventID, input.OfferedEventID)
	if err != nil {
		return models.SwapRequest{}, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offered, ok := s.events[input.OfferedEventID]
	if !ok || offered.OwnerID() != userID {
		return models.SwapRequest{}, "", fmt.Errorf("%w: offered event %s", shared.ErrNotFound, input.OfferedEventID)
	}
	requested, ok := s.events[input.RequestedEventID]
	if !ok || requested.OwnerID() == userID {
		return models.SwapRequest{}, "", fmt.Errorf("%w: requested event %s", shared.ErrNotFound, input.RequestedEventID)
	}
	if !offered.IsSwappable || !requested.IsSwappable {
		return models.SwapRequest{}, "", fmt.Errorf("%w: both events must be swappable", shared.ErrInvalidInput)
	}

	for _, id := range s.swapIDs {
		sw := s.swaps[id]
		if sw.status == models.SwapPending && sw.offeredID == offered.ID && sw.requestedID == requested.ID {
			return models.SwapRequest{}, "", fmt.Errorf("%w: swap already requested", shared.ErrInvalidInput)
		}
	}

	sw := &swap{
		id:          shared.GenerateID(),
		requesterID: userID,
		ownerID:     requested.OwnerID(),
		offeredID:   offered.ID,
		requestedID: requested.ID,
		status:      models.SwapPending,
	}
	s.swaps[sw.id] = sw
	s.swapIDs = append(s.swapIDs, sw.id)
	return s.renderSwap(sw), sw.ownerID, nil
}

// Board returns the swaps userID answers (incoming) and made (outgoing).
func (s *Store) Board(userID string) models.SwapBoard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	board := models.SwapBoard{Incoming: []models.SwapRequest{}, Outgoing: []models.SwapRequest{}}
	for _, id := range s.swapIDs {
		sw := s.swaps[id]
		switch userID {
		case sw.ownerID:
			board.Incoming = append(board.Incoming, s.renderSwap(sw))
		case sw.requesterID:
			board.Outgoing = append(board.Outgoing, s.renderSwap(sw))
		}
	}
	return board
}

// Accept exchanges the owners of both events of a pending swap answered by userID.
//
// Both events become non-swappable. Other pending swaps that involve either event are dropped
// and their requesters reported in [Acceptance.Rejected].
func (s *Store) Accept(userID, id string) (Acceptance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sw, ok := s.swaps[id]
	if !ok || sw.ownerID != userID {
		return Acceptance{}, fmt.Errorf("%w: swap %s", shared.ErrNotFound, id)
	}
	if !sw.status.CanTransition(models.SwapAccepted) {
		return Acceptance{}, fmt.Errorf("%w: swap is %s", shared.ErrInvalidTransition, sw.status)
	}

	offered, requested := s.events[sw.offeredID], s.events[sw.requestedID]
	if offered == nil || requested == nil ||
		offered.OwnerID() != sw.requesterID || requested.OwnerID() != sw.ownerID {
		return Acceptance{}, fmt.Errorf("%w: events changed hands", ErrForbidden)
	}

	offered.Owner, requested.Owner = requested.Owner, offered.Owner
	offered.IsSwappable = false
	requested.IsSwappable = false
	sw.status = models.SwapAccepted

	result := Acceptance{RequesterID: sw.requesterID, OwnerName: s.accounts[sw.ownerID].user.Name}
	kept := s.swapIDs[:0]
	for _, otherID := range s.swapIDs {
		other := s.swaps[otherID]
		stale := other.id != sw.id && other.status == models.SwapPending &&
			(involves(other, offered.ID) || involves(other, requested.ID))
		if !stale {
			kept = append(kept, otherID)
			continue
		}
		delete(s.swaps, otherID)
		if !slices.Contains(result.Rejected, other.requesterID) {
			result.Rejected = append(result.Rejected, other.requesterID)
		}
	}
	s.swapIDs = kept

	result.Swap = s.renderSwap(sw)
	return result, nil
}

func involves(sw *swap, eventID string) bool {
	return sw.offeredID == eventID || sw.requestedID == eventID
}

func (s *Store) collect(keep func(*models.Event) bool) []models.Event {
	out := make([]models.Event, 0)
	for _, id := range s.order {
		if e := s.events[id]; keep(e) {
			out = append(out, s.render(e))
		}
	}
	slices.SortStableFunc(out, func(a, b models.Event) int { return a.Date.Compare(b.Date) })
	return out
}

func (s *Store) render(e *models.Event) models.Event {
	out := *e
	out.Owner = s.userRef(e.OwnerID())
	return out
}

func (s *Store) renderSwap(sw *swap) models.SwapRequest {
	return models.SwapRequest{
		ID:             sw.id,
		Requester:      s.userRef(sw.requesterID),
		OfferedEvent:   s.eventRef(sw.offeredID),
		RequestedEvent: s.eventRef(sw.requestedID),
		Status:         sw.status,
	}
}

func (s *Store) userRef(id string) models.UserRef {
	if acct, ok := s.accounts[id]; ok {
		return acct.user.Ref()
	}
	return models.UserRef{ID: id}
}

func (s *Store) eventRef(id string) models.EventRef {
	if e, ok := s.events[id]; ok {
		return e.Ref()
	}
	return models.EventRef{ID: id}
}
