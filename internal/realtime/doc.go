// Package realtime implements the client side of the live notification channel.
//
// # Wire Format
//
// Frames are JSON envelopes:
//
//	{"event": "swap.requested", "data": {"fromUserName": "Bea"}}
//
// Inbound frames decode into the closed set of [Event] variants: [SwapRequested], [SwapAccepted]
// and [SwapRejected]. Older event names used by earlier clients are normalized while decoding:
//
//	newSwapRequest, swap-request-received  -> swap.requested
//	swapAccepted, swap-accepted, swap-updated -> swap.accepted
//	swap-rejected                           -> swap.rejected
//
// The legacy payload keys "from" and "otherUser" are accepted as well. Frames with unknown names or
// missing required fields are dropped.
//
// # Channel
//
// [Channel] holds at most one websocket connection, tagged with a user id via the userId query
// parameter. [Channel.Connect] never fails from the caller's point of view: dialing happens in the
// background and is retried through a [rate.Limiter] until [Channel.Disconnect].
//
//	idle -> connecting -> open -> (reconnecting -> open)* -> closed
//
// Connecting with a different user id closes the previous connection and releases every
// subscription first.
//
// # Subscriptions
//
// Handlers are registered per [Kind] and receive events in arrival order on the channel's read
// goroutine. [Subscription.Release] is idempotent; once it returns the handler is not called again
// except for a delivery already in progress. Handlers must not call Connect or Disconnect
// synchronously.
package realtime
