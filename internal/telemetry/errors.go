package telemetry

import "errors"

var (
	// ErrChannelUnavailable wraps every transport failure of a send.
	ErrChannelUnavailable = errors.New("telemetry: channel unavailable")

	// ErrEncodeFailed is returned when a payload cannot be serialised.
	ErrEncodeFailed = errors.New("telemetry: payload encoding failed")
)
