package msgs

import (
	"errors"
	"fmt"
)

// MaxPayloadSize is the largest Write payload carried by one message.
// A Write of this size still fits comm.MaxFrameSize after framing.
const MaxPayloadSize = 240

// Request tags.
const (
	TagPing    uint32 = 0
	TagWrite   uint32 = 1
	TagExecute uint32 = 2
)

var (
	// ErrMalformed indicates the bytes don't decode into a message.
	ErrMalformed = errors.New("malformed message")
	// ErrPayloadTooLarge indicates a Write carries more than MaxPayloadSize bytes.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
)

// Request is a message sent from the host to the target.
type Request interface {
	// Tag returns the variant tag.
	Tag() uint32

	appendFields(b []byte) []byte
	consumeFields(b []byte) (int, error)
}

// Ping asks the target to answer Pong.
type Ping struct{}

// Tag implements Request.
func (*Ping) Tag() uint32 { return TagPing }

func (*Ping) appendFields(b []byte) []byte { return b }
func (*Ping) consumeFields(b []byte) (int, error) { return 0, nil }

// Write asks the target to copy Data into RAM at StartAddress.
type Write struct {
	StartAddress uint32
	Data         []byte
}

// Tag implements Request.
func (*Write) Tag() uint32 { return TagWrite }

func (m *Write) appendFields(b []byte) []byte {
	b = appendUint32(b, m.StartAddress)
	return appendBytes(b, m.Data)
}

func (m *Write) consumeFields(b []byte) (int, error) {
	addr, n, err := consumeUint32(b)
	if err != nil {
		return 0, fmt.Errorf("start_address: %w", err)
	}
	data, n1, err := consumeBytes(b[n:])
	if err != nil {
		return 0, fmt.Errorf("data: %w", err)
	}
	m.StartAddress, m.Data = addr, data
	return n + n1, nil
}

// String implements fmt.Stringer.
func (m *Write) String() string {
	return fmt.Sprintf("Write{0x%08x, %d bytes}", m.StartAddress, len(m.Data))
}

// Execute asks the target to boot the image it received. It has no reply.
type Execute struct{}

// Tag implements Request.
func (*Execute) Tag() uint32 { return TagExecute }

func (*Execute) appendFields(b []byte) []byte { return b }
func (*Execute) consumeFields(b []byte) (int, error) { return 0, nil }

func newRequest(tag uint32) Request {
	switch tag {
	case TagPing:
		return &Ping{}
	case TagWrite:
		return &Write{}
	case TagExecute:
		return &Execute{}
	}
	return nil
}

// Response is a message sent from the target to the host.
// No variant carries a payload, so the tag is the whole message.
type Response uint32

// Responses.
const (
	InvalidAddress Response = 0
	Pong           Response = 1
	WriteOk        Response = 2
)

// IsValid checks if r is a known response.
func (r Response) IsValid() bool {
	return r <= WriteOk
}

// String implements fmt.Stringer.
func (r Response) String() string {
	switch r {
	case InvalidAddress:
		return "InvalidAddress"
	case Pong:
		return "Pong"
	case WriteOk:
		return "WriteOk"
	}
	return fmt.Sprintf("Response(%d)", uint32(r))
}
