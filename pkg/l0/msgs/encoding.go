package msgs

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxVarintLen32 is the longest varint a 32-bit value encodes to.
const maxVarintLen32 = 5

// MarshalRequest encodes a request.
func MarshalRequest(req Request) ([]byte, error) {
	if w, ok := req.(*Write); ok && len(w.Data) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(w.Data), MaxPayloadSize)
	}
	b := appendUint32(nil, req.Tag())
	return req.appendFields(b), nil
}

// UnmarshalRequest decodes a request. The whole input must be consumed.
func UnmarshalRequest(b []byte) (Request, error) {
	tag, n, err := consumeUint32(b)
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	req := newRequest(tag)
	if req == nil {
		return nil, fmt.Errorf("%w: unknown request tag %d", ErrMalformed, tag)
	}
	n1, err := req.consumeFields(b[n:])
	if err != nil {
		return nil, err
	}
	if rest := len(b) - n - n1; rest != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, rest)
	}
	return req, nil
}

// MarshalResponse encodes a response.
func MarshalResponse(r Response) []byte {
	return appendUint32(nil, uint32(r))
}

// UnmarshalResponse decodes a response. The whole input must be consumed.
func UnmarshalResponse(b []byte) (Response, error) {
	tag, n, err := consumeUint32(b)
	if err != nil {
		return 0, fmt.Errorf("tag: %w", err)
	}
	r := Response(tag)
	if !r.IsValid() {
		return 0, fmt.Errorf("%w: unknown response tag %d", ErrMalformed, tag)
	}
	if n != len(b) {
		return 0, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(b)-n)
	}
	return r, nil
}

func appendUint32(b []byte, v uint32) []byte {
	return protowire.AppendVarint(b, uint64(v))
}

func appendBytes(b []byte, data []byte) []byte {
	b = appendUint32(b, uint32(len(data)))
	return append(b, data...)
}

func consumeUint32(b []byte) (uint32, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
	}
	if n > maxVarintLen32 || v > math.MaxUint32 {
		return 0, 0, fmt.Errorf("%w: varint overflows 32 bits", ErrMalformed)
	}
	return uint32(v), n, nil
}

func consumeBytes(b []byte) ([]byte, int, error) {
	l, n, err := consumeUint32(b)
	if err != nil {
		return nil, 0, err
	}
	if uint64(l) > uint64(len(b)-n) {
		return nil, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrMalformed, l, len(b)-n)
	}
	if l == 0 {
		return nil, n, nil
	}
	data := make([]byte, l)
	copy(data, b[n:])
	return data, n + int(l), nil
}
