package capture

import (
	"errors"
	"fmt"
)

// Domain errors for the capture package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrPayloadTruncated is returned when a formatted text payload does not
	// fit the fixed payload limit. Use errors.As with *TruncationError to
	// find out how many characters were dropped.
	ErrPayloadTruncated = errors.New("capture: payload truncated")

	// ErrMalformedPayload is returned by Decode when the bytes do not match
	// the layout documented for the packet kind.
	ErrMalformedPayload = errors.New("capture: malformed payload")

	// ErrUnknownKind is returned when a packet kind is not recognised.
	ErrUnknownKind = errors.New("capture: unknown packet kind")

	// ErrUnknownCommand is returned by Execute for an unrecognised command name.
	ErrUnknownCommand = errors.New("capture: unknown command")

	// ErrInvalidParameters is returned by Execute when command parameters
	// are missing or have the wrong type.
	ErrInvalidParameters = errors.New("capture: invalid parameters")

	// ErrUnknownStream is returned when no commander is bound to a stream name.
	ErrUnknownStream = errors.New("capture: unknown stream")
)

// TruncationError reports a text payload that exceeded the payload limit.
type TruncationError struct {
	// Limit is the maximum number of bytes of text the payload can carry
	// (excluding the NUL terminator).
	Limit int

	// Dropped is the number of bytes that were cut. It can exceed the
	// overflow by up to three when the cut backs off to a character boundary.
	Dropped int
}

func (e *TruncationError) Error() string {
	return fmt.Sprintf("%s: %d bytes dropped at the %d byte limit", ErrPayloadTruncated, e.Dropped, e.Limit)
}

// Unwrap lets errors.Is match ErrPayloadTruncated.
func (e *TruncationError) Unwrap() error {
	return ErrPayloadTruncated
}
