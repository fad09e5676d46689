package comm

import (
	"fmt"

	"github.com/robotalks/ramloader/pkg/l0/msgs"
)

const (
	// Delimiter terminates every frame and never appears inside one.
	Delimiter byte = 0x00
	// MaxFrameSize is the capacity of a frame buffer, delimiter included.
	MaxFrameSize = 256
)

// EncodeFrame stuffs payload and appends the Delimiter.
func EncodeFrame(payload []byte) ([]byte, error) {
	frame := stuff(make([]byte, 0, len(payload)+len(payload)/maxBlock+2), payload)
	frame = append(frame, Delimiter)
	if len(frame) > MaxFrameSize {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds %d", ErrBufferTooSmall, len(frame), MaxFrameSize)
	}
	return frame, nil
}

// DecodeFrame unstuffs a frame. The trailing Delimiter is optional.
func DecodeFrame(frame []byte) ([]byte, error) {
	if l := len(frame); l > 0 && frame[l-1] == Delimiter {
		frame = frame[:l-1]
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformedFrame)
	}
	payload, ok := unstuff(frame)
	if !ok {
		return nil, fmt.Errorf("%w: invalid stuffing", ErrMalformedFrame)
	}
	return payload, nil
}

// EncodeRequest encodes and frames a request.
func EncodeRequest(req msgs.Request) ([]byte, error) {
	payload, err := msgs.MarshalRequest(req)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(payload)
}

// DecodeRequest decodes a request from a frame.
func DecodeRequest(frame []byte) (msgs.Request, error) {
	payload, err := DecodeFrame(frame)
	if err != nil {
		return nil, err
	}
	req, err := msgs.UnmarshalRequest(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return req, nil
}

// EncodeResponse encodes and frames a response.
func EncodeResponse(r msgs.Response) ([]byte, error) {
	return EncodeFrame(msgs.MarshalResponse(r))
}

// DecodeResponse decodes a response from a frame.
func DecodeResponse(frame []byte) (msgs.Response, error) {
	payload, err := DecodeFrame(frame)
	if err != nil {
		return 0, err
	}
	r, err := msgs.UnmarshalResponse(payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return r, nil
}
