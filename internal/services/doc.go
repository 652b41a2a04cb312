// Package services implements the HTTP contract of the shift-swap backend.
//
// # Raw API
//
// [APIService] performs raw requests against the backend base URL. Authenticated requests go
// through an [oauth2.Transport] whose token source is a [CredentialStore]; requests made while no
// credential is held fail with [shared.ErrNotAuthenticated] before reaching the network.
// [APIService.Anonymous] returns a view of the same service that never attaches a credential,
// used for /auth/login and /auth/signup.
//
// # Typed Client
//
// [ShiftSwapService] implements [Backend] on top of [APIService]:
//   - POST /auth/login {email,password} -> {token, user}
//   - POST /auth/signup {name,email,password}
//   - GET /events, GET /events/swappable, POST /events, PUT /events/{id}
//   - POST /swaps, GET /swaps, POST /swaps/{id}/accept
//
// # Error Handling
//
// Non-2xx responses become a [*StatusError] carrying the status code and the backend's message.
// A StatusError matches [shared.ErrAPIRequest] with errors.Is, plus:
//   - [shared.ErrNotAuthenticated] : 401
//   - [shared.ErrNotFound] : 404
//
// No call is retried.
package services
