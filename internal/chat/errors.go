package chat

import "errors"

var (
	// ErrTokenRequired is returned when a request carries no access token.
	ErrTokenRequired = errors.New("token is required")
	// ErrMessageRequired is returned for an empty chat message.
	ErrMessageRequired = errors.New("message and token are required")
	// ErrUpstream wraps any completion provider failure.
	ErrUpstream = errors.New("completion provider failed")
	// ErrUsageExhausted means the token ran out of messages between
	// validation and accounting; the generated reply is discarded.
	ErrUsageExhausted = errors.New("message limit reached")
)
