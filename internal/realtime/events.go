package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/shiftswap/internal/shared"
)

// Kind names an inbound event variant on the wire.
type Kind string

const (
	KindSwapRequested Kind = "swap.requested"
	KindSwapAccepted  Kind = "swap.accepted"
	KindSwapRejected  Kind = "swap.rejected"
)

// Kinds lists every inbound [Kind].
var Kinds = []Kind{KindSwapRequested, KindSwapAccepted, KindSwapRejected}

// OutboundSwapRequest is the wire name of [SendSwapRequest].
const OutboundSwapRequest = "swap.request.sent"

var aliases = map[string]Kind{
	string(KindSwapRequested): KindSwapRequested,
	string(KindSwapAccepted):  KindSwapAccepted,
	string(KindSwapRejected):  KindSwapRejected,
	"newSwapRequest":          KindSwapRequested,
	"swap-request-received":   KindSwapRequested,
	"swapAccepted":            KindSwapAccepted,
	"swap-accepted":           KindSwapAccepted,
	"swap-updated":            KindSwapAccepted,
	"swap-rejected":           KindSwapRejected,
}

var outboundAliases = map[string]bool{
	OutboundSwapRequest: true,
	"sendSwapRequest":   true,
}

// Normalize maps a wire event name, canonical or legacy, to its [Kind].
func Normalize(name string) (Kind, bool) {
	k, ok := aliases[strings.TrimSpace(name)]
	return k, ok
}

// Event is an inbound realtime notification.
type Event interface {
	Kind() Kind
	isEvent()
}

// SwapRequested tells the owner of an event that someone asked to swap for it.
type SwapRequested struct {
	FromUserName string `json:"fromUserName"`
}

// SwapAccepted tells a requester that the owner accepted their swap.
type SwapAccepted struct {
	OtherUserName string `json:"otherUserName"`
}

// SwapRejected tells a requester that their swap was declined.
type SwapRejected struct{}

func (SwapRequested) Kind() Kind { return KindSwapRequested }
func (SwapAccepted) Kind() Kind  { return KindSwapAccepted }
func (SwapRejected) Kind() Kind  { return KindSwapRejected }

func (SwapRequested) isEvent() {}
func (SwapAccepted) isEvent()  {}
func (SwapRejected) isEvent()  {}

// SendSwapRequest is the outbound advisory emitted after a successful POST /swaps.
// The HTTP call is the system of record; the backend may ignore this.
type SendSwapRequest struct {
	ToUserID string `json:"toUserId"`
	FromName string `json:"fromName"`
}

// Envelope is the JSON frame shared by inbound and outbound events.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type inboundPayload struct {
	FromUserName  string `json:"fromUserName"`
	From          string `json:"from"`
	OtherUserName string `json:"otherUserName"`
	OtherUser     string `json:"otherUser"`
}

// Decode parses an inbound frame into an [Event].
//
// Returns [shared.ErrUnknownEvent] for unrecognized names and [shared.ErrMalformedEvent] for
// invalid JSON or missing required fields.
func Decode(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedEvent, err)
	}

	kind, ok := Normalize(env.Event)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownEvent, env.Event)
	}

	var p inboundPayload
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %s payload: %v", shared.ErrMalformedEvent, kind, err)
		}
	}

	switch kind {
	case KindSwapRequested:
		name := firstNonEmpty(p.FromUserName, p.From)
		if name == "" {
			return nil, fmt.Errorf("%w: %s requires fromUserName", shared.ErrMalformedEvent, kind)
		}
		return SwapRequested{FromUserName: name}, nil
	case KindSwapAccepted:
		name := firstNonEmpty(p.OtherUserName, p.OtherUser)
		if name == "" {
			return nil, fmt.Errorf("%w: %s requires otherUserName", shared.ErrMalformedEvent, kind)
		}
		return SwapAccepted{OtherUserName: name}, nil
	default:
		return SwapRejected{}, nil
	}
}

// Encode writes ev as a canonical inbound frame.
func Encode(ev Event) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: nil event", shared.ErrMalformedEvent)
	}
	return encodeEnvelope(string(ev.Kind()), ev)
}

// EncodeOutbound writes msg as a swap.request.sent frame.
func EncodeOutbound(msg SendSwapRequest) ([]byte, error) {
	return encodeEnvelope(OutboundSwapRequest, msg)
}

// DecodeOutbound parses a client-to-server frame. Only swap.request.sent (and its legacy name
// sendSwapRequest) is recognized.
func DecodeOutbound(frame []byte) (SendSwapRequest, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return SendSwapRequest{}, fmt.Errorf("%w: %v", shared.ErrMalformedEvent, err)
	}
	if !outboundAliases[env.Event] {
		return SendSwapRequest{}, fmt.Errorf("%w: %q", shared.ErrUnknownEvent, env.Event)
	}

	var msg SendSwapRequest
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return SendSwapRequest{}, fmt.Errorf("%w: %v", shared.ErrMalformedEvent, err)
	}
	if msg.ToUserID == "" {
		return SendSwapRequest{}, fmt.Errorf("%w: toUserId is required", shared.ErrMalformedEvent)
	}
	return msg, nil
}

func encodeEnvelope(name string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return json.Marshal(Envelope{Event: name, Data: data})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
