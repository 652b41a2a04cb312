// Package models defines the domain types of the shift-swap marketplace client.
//
// The package contains two categories of types:
//
// 1. Wire types: decoded from the backend HTTP contract and never cached beyond a view's lifetime
//   - [User] : account identity (id, name, email)
//   - [Event] : a calendar shift owned by one user, optionally marked swappable
//   - [SwapRequest] : a proposal to exchange an offered event for a requested one
//   - [SwapBoard] : the incoming/outgoing split returned by GET /swaps
//
// 2. Client state: held in memory and mirrored to the local database
//   - [Session] : the authenticated identity and credential
//   - [Notification] : a realtime notification recorded in history
//
// The backend populates references either as bare ids or as embedded objects; [UserRef] and [EventRef]
// accept both shapes so views can show names and titles when they are present.
package models
