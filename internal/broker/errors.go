package broker

import "errors"

var (
	// ErrClosed is returned by operations on a closed client or broker.
	ErrClosed = errors.New("broker: closed")

	// ErrDuplicateClient is returned when an identity already has a live client.
	ErrDuplicateClient = errors.New("broker: client identity already connected")
)
