package target

import "io"

// Serial is the byte stream connected to the host.
// ReadByte blocks until a byte arrives.
type Serial interface {
	io.ByteReader
	io.Writer
}

// Memory is the RAM the loader writes into.
type Memory interface {
	// Write copies data into a certified region. len(data) equals r.Len().
	Write(r Region, data []byte)
	// Load32 reads the little-endian word at addr.
	Load32(addr uint32) uint32
}

// Core controls the processor.
type Core interface {
	// SetVectorTable relocates the exception vector table to addr.
	SetVectorTable(addr uint32)
	// Delay busy-waits for the given number of cycles.
	Delay(cycles uint32)
	// Bootload loads the stack pointer and jumps to entry.
	// It never returns on real hardware.
	Bootload(sp, entry uint32)
}

// Peripherals is the ownership token of the hardware the loader uses.
// It is acquired once at startup and consumed by the handoff.
type Peripherals struct {
	Serial Serial
	Memory Memory
	Core   Core
}

// Valid tells if all peripherals are present.
func (p *Peripherals) Valid() bool {
	return p != nil && p.Serial != nil && p.Memory != nil && p.Core != nil
}

// release drops all peripherals.
func (p *Peripherals) release() {
	*p = Peripherals{}
}
