// Package session holds the authenticated identity of the client.
//
// A [Store] is constructed explicitly with its collaborators and driven through Init and Teardown:
//
//	store := session.NewStore(session.Options{...})
//	store.Init(ctx)       // restore the persisted session, connect the channel
//	defer store.Teardown() // disconnect, keep durable state
//
// The realtime channel is connected exactly when a session is present. Login updates durable
// storage, memory, the credential and the channel all or nothing: if persisting fails nothing else
// changes.
package session
