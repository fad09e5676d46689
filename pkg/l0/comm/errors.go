package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooSmall indicates an encoded frame doesn't fit MaxFrameSize.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrMalformedFrame indicates a frame fails unstuffing or decoding.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrFrameOverflow indicates MaxFrameSize bytes were received without a delimiter.
	ErrFrameOverflow = errors.New("frame overflow")
	// ErrTimeout indicates no complete frame arrived in time.
	ErrTimeout = errors.New("timeout waiting for response")
	// ErrDesynchronized indicates an earlier request was abandoned and its
	// response may still arrive. Call Client.Resync before the next request.
	ErrDesynchronized = errors.New("response stream out of sync")
)

// IOError wraps errors from the underlying stream.
type IOError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}
