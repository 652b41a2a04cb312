// Package server implements the sandbox backend: an in-memory HTTP + websocket double of the
// shift-swap API used for local development and end-to-end tests.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /events/{id}").
//
// # Authentication
//
// Passwords are hashed with bcrypt. Login issues an HS256 JWT whose subject is the user id;
// [RequireAuth] verifies the bearer token and places the id on the request context.
//
// # Realtime
//
// The [Hub] keeps one set of websocket clients per user id (GET /ws?userId=). Creating a swap
// sends swap.requested to the owner of the requested event; accepting it sends swap.accepted to
// the requester, and swap.rejected to the requesters of now-stale competing swaps.
// Client-sent swap.request.sent advisories are logged and otherwise ignored; the HTTP call is
// the system of record.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
