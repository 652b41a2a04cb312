package server

import "net/http"

// Middleware decorates a handler, e.g. request logging or bearer authentication.
type Middleware func(http.Handler) http.Handler

// Handler is a handler that declares its own "METHOD path" patterns, like the realtime [Hub].
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers sandbox endpoints behind a shared middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	HandleFunc(method, path string, fn http.HandlerFunc)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

var (
	_ Router  = (*BasicRouter)(nil)
	_ Handler = (*Hub)(nil)
)
