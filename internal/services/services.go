// package services defines the Backend contract and its HTTP implementation
package services

import (
	"context"

	"github.com/desertthunder/shiftswap/internal/models"
)

// Authenticator issues credentials.
type Authenticator interface {
	// Login exchanges credentials for a [models.Session].
	Login(ctx context.Context, email, password string) (models.Session, error)

	// Signup registers an account. It never authenticates.
	Signup(ctx context.Context, name, email, password string) error
}

// EventsClient reads and mutates the current user's events.
type EventsClient interface {
	// ListEvents returns the current user's own events.
	ListEvents(ctx context.Context) ([]models.Event, error)

	// CreateEvent creates an event owned by the current user.
	CreateEvent(ctx context.Context, input models.EventInput) (models.Event, error)

	// SetSwappable sets the isSwappable flag of an event.
	SetSwappable(ctx context.Context, id string, swappable bool) (models.Event, error)
}

// MarketClient browses other users' swappable events and proposes swaps.
type MarketClient interface {
	ListEvents(ctx context.Context) ([]models.Event, error)

	// ListSwappableEvents returns other users' swappable events.
	ListSwappableEvents(ctx context.Context) ([]models.Event, error)

	// RequestSwap proposes exchanging an owned event for another user's.
	RequestSwap(ctx context.Context, input models.SwapInput) (models.SwapRequest, error)
}

// SwapsClient reads and accepts swap requests.
type SwapsClient interface {
	// ListSwaps returns incoming and outgoing requests for the current user.
	ListSwaps(ctx context.Context) (models.SwapBoard, error)

	// AcceptSwap moves an incoming request from pending to accepted.
	AcceptSwap(ctx context.Context, id string) (models.SwapRequest, error)
}

// Backend is the full HTTP contract consumed by the client.
type Backend interface {
	Authenticator
	EventsClient
	MarketClient
	SwapsClient
}
