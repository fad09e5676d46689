// Package msgs defines the L0 messages exchanged with the resident loader.
package msgs

// L0 messages travel between the host tool and the RAM loader running on
// the target. Both ends must be built from this package: a message is only
// understood if the tag assignment and field order match exactly.
//
// Each message is encoded as a varint tag selecting the variant followed by
// the fields in declaration order. Integers and lengths are varints, byte
// slices are a varint length followed by the raw bytes. There is no padding.
//
// Producer: host tool (Request), RAM loader (Response)
// Consumer: RAM loader (Request), host tool (Response)
