package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/shiftswap/internal/shared"
)

// SwapStatus is the lifecycle state of a [SwapRequest] as observed by the client.
type SwapStatus string

const (
	SwapPending  SwapStatus = "pending"
	SwapAccepted SwapStatus = "accepted"
)

// CanTransition reports whether s may move to next. The only transition is pending -> accepted.
func (s SwapStatus) CanTransition(next SwapStatus) bool {
	return s == SwapPending && next == SwapAccepted
}

// Label returns the display form of s.
func (s SwapStatus) Label() string {
	switch s {
	case SwapPending:
		return "Pending"
	case SwapAccepted:
		return "Accepted"
	default:
		return string(s)
	}
}

// SwapRequest proposes exchanging OfferedEvent (the requester's) for RequestedEvent (another user's).
type SwapRequest struct {
	ID             string     `json:"_id"`
	Requester      UserRef    `json:"requester"`
	OfferedEvent   EventRef   `json:"offeredEvent"`
	RequestedEvent EventRef   `json:"requestedEvent"`
	Status         SwapStatus `json:"status"`
}

// SwapInput is the body of POST /swaps.
type SwapInput struct {
	RequestedEventID string `json:"requestedEventId"`
	OfferedEventID   string `json:"offeredEventId"`
}

// NewSwapInput validates that both event ids are present and distinct.
func NewSwapInput(requestedID, offeredID string) (SwapInput, error) {
	requestedID = strings.TrimSpace(requestedID)
	offeredID = strings.TrimSpace(offeredID)
	if requestedID == "" || offeredID == "" {
		return SwapInput{}, fmt.Errorf("%w: requested and offered event ids", shared.ErrMissingArgument)
	}
	if requestedID == offeredID {
		return SwapInput{}, fmt.Errorf("%w: an event cannot be swapped for itself", shared.ErrInvalidInput)
	}
	return SwapInput{RequestedEventID: requestedID, OfferedEventID: offeredID}, nil
}

// SwapBoard is the response of GET /swaps.
type SwapBoard struct {
	Incoming []SwapRequest `json:"incoming"`
	Outgoing []SwapRequest `json:"outgoing"`
}

// FindIncoming returns the incoming request with id.
func (b SwapBoard) FindIncoming(id string) (SwapRequest, bool) {
	return findSwap(b.Incoming, id)
}

// FindOutgoing returns the outgoing request with id.
func (b SwapBoard) FindOutgoing(id string) (SwapRequest, bool) {
	return findSwap(b.Outgoing, id)
}

// PendingIncoming counts incoming requests still awaiting a decision.
func (b SwapBoard) PendingIncoming() int {
	n := 0
	for _, r := range b.Incoming {
		if r.Status == SwapPending {
			n++
		}
	}
	return n
}

func findSwap(list []SwapRequest, id string) (SwapRequest, bool) {
	for _, r := range list {
		if r.ID == id {
			return r, true
		}
	}
	return SwapRequest{}, false
}
