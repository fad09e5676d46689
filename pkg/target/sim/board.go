// Package sim provides a simulated board for the resident loader.
package sim

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/robotalks/ramloader/pkg/target"
)

// RAM is a byte array mapped at Base.
type RAM struct {
	Base  uint32
	Bytes []byte

	lock sync.RWMutex
}

// NewRAM creates RAM covering the window.
func NewRAM(w target.Window) *RAM {
	return &RAM{Base: w.Start, Bytes: make([]byte, int(w.Size()))}
}

// Write implements target.Memory.
func (m *RAM) Write(r target.Region, data []byte) {
	if len(data) == 0 {
		return
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	copy(m.Bytes[m.offset(r.Start(), len(data)):], data[:r.Len()])
}

// Load32 implements target.Memory.
func (m *RAM) Load32(addr uint32) uint32 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	off := m.offset(addr, 4)
	return binary.LittleEndian.Uint32(m.Bytes[off : off+4])
}

// Read copies n bytes starting at addr.
func (m *RAM) Read(addr uint32, n int) []byte {
	m.lock.RLock()
	defer m.lock.RUnlock()
	off := m.offset(addr, n)
	return append([]byte(nil), m.Bytes[off:off+n]...)
}

// offset panics like a bus fault when the range is not backed by RAM.
func (m *RAM) offset(addr uint32, n int) int {
	if addr < m.Base || uint64(addr-m.Base)+uint64(n) > uint64(len(m.Bytes)) {
		panic(fmt.Sprintf("bus fault: 0x%08x+%d outside RAM", addr, n))
	}
	return int(addr - m.Base)
}

// Dump writes a hex dump of the non-zero part of RAM.
func (m *RAM) Dump(w io.Writer) error {
	m.lock.RLock()
	defer m.lock.RUnlock()
	end := len(m.Bytes)
	for end > 0 && m.Bytes[end-1] == 0 {
		end--
	}
	for off := 0; off < end; off += 16 {
		line := m.Bytes[off:]
		if len(line) > 16 {
			line = line[:16]
		}
		if _, err := fmt.Fprintf(w, "%08x: % x\n", m.Base+uint32(off), line); err != nil {
			return err
		}
	}
	return nil
}

// Core records what the loader does to the processor.
type Core struct {
	VectorTable uint32
	Delayed     uint32
	Booted      bool
	SP          uint32
	Entry       uint32
	// OnBoot is invoked by Bootload if not nil.
	OnBoot func(sp, entry uint32)
}

// SetVectorTable implements target.Core.
func (c *Core) SetVectorTable(addr uint32) {
	c.VectorTable = addr
}

// Delay implements target.Core.
func (c *Core) Delay(cycles uint32) {
	c.Delayed += cycles
}

// Bootload implements target.Core.
func (c *Core) Bootload(sp, entry uint32) {
	c.Booted, c.SP, c.Entry = true, sp, entry
	if c.OnBoot != nil {
		c.OnBoot(sp, entry)
	}
}

// Serial adapts a stream to target.Serial.
type Serial struct {
	*bufio.Reader
	io.Writer
}

// NewSerial creates a Serial over rw.
func NewSerial(rw io.ReadWriter) *Serial {
	return &Serial{Reader: bufio.NewReader(rw), Writer: rw}
}

// Board is a simulated device.
type Board struct {
	RAM    *RAM
	Core   *Core
	Serial *Serial
	Window target.Window
}

// NewBoard creates a board talking over rw with RAM covering w.
func NewBoard(rw io.ReadWriter, w target.Window) *Board {
	return &Board{
		RAM:    NewRAM(w),
		Core:   &Core{},
		Serial: NewSerial(rw),
		Window: w,
	}
}

// Peripherals returns a fresh ownership token of the board.
func (b *Board) Peripherals() *target.Peripherals {
	return &target.Peripherals{Serial: b.Serial, Memory: b.RAM, Core: b.Core}
}

// Loader creates a resident loader owning the board.
func (b *Board) Loader() *target.Loader {
	return target.NewLoader(b.Peripherals(), b.Window)
}
