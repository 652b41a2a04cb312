// Package repositories implements SQLite persistence for the client's durable state.
//
// Key Implementations:
//   - [SessionRepository] : the session credential and identity stored under well-known keys
//   - [NotificationRepository] : history of realtime notifications shown to the user
//
// Session writes and clears are transactional so the durable copy is never left half-written.
// Notifications get sequence numbers from [NextSequence] for stable ordering independent of UUIDs.
package repositories
