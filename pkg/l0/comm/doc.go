// Package comm provides L0 framing and the host side request/response client.
package comm

// L0 protocol is communicated between the host tool and the RAM loader
// over a peer-to-peer byte stream (e.g. serial port) that has no message
// boundaries of its own.
//
// Every message is carried in exactly one frame: the encoded message is
// COBS stuffed so that the delimiter byte (0x00) never appears inside it,
// then the delimiter is appended. A receiver can therefore find frame
// boundaries by looking at one byte at a time without any length field.
// There is no checksum; a corrupted frame either fails to decode or
// decodes into a message which the receiver validates.
//
// The exchange is strictly request/response with one request in flight,
// except Execute which is never answered.
//
// Producer: host tool
// Consumer: RAM loader
