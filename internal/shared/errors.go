package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session and authentication errors
	ErrAuthFailed        = fmt.Errorf("authentication failed")
	ErrNotAuthenticated  = fmt.Errorf("not authenticated")
	ErrTokenExpired      = fmt.Errorf("access token expired")
	ErrSessionNotFound   = fmt.Errorf("no persisted session")
	ErrSessionMalformed  = fmt.Errorf("persisted session is malformed")
	ErrInvalidCredential = fmt.Errorf("invalid credential")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrEventNotFound      = fmt.Errorf("event not found")
	ErrSwapNotFound       = fmt.Errorf("swap request not found")
	ErrNotFound           = fmt.Errorf("not found")

	// Realtime errors
	ErrUnknownEvent   = fmt.Errorf("unknown realtime event")
	ErrMalformedEvent = fmt.Errorf("malformed realtime event")
	ErrNotConnected   = fmt.Errorf("realtime channel not connected")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrInvalidTransition = fmt.Errorf("invalid swap status transition")
)
