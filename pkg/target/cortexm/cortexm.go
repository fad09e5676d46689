//go:build tinygo

// Package cortexm provides target peripherals on Cortex-M devices built
// with TinyGo.
package cortexm

import (
	"device/arm"
	"machine"
	"sync/atomic"
	"unsafe"

	"github.com/robotalks/ramloader/pkg/target"
)

// BaudRate of the host link.
const BaudRate = 115200

var taken uint32

// Take acquires the peripherals. It succeeds only once per boot.
func Take() (*target.Peripherals, bool) {
	if !atomic.CompareAndSwapUint32(&taken, 0, 1) {
		return nil, false
	}
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{BaudRate: BaudRate})
	return &target.Peripherals{
		Serial: newSerial(uart),
		Memory: ram{},
		Core:   core{},
	}, true
}

type serial struct {
	uart *machine.UART
	rx   rxWait
}

func newSerial(uart *machine.UART) *serial {
	return &serial{
		uart: uart,
		rx: rxWait{
			buffered: uart.Buffered,
			disable:  arm.DisableInterrupts,
			enable:   arm.EnableInterrupts,
			wfi:      func() { arm.Asm("wfi") },
		},
	}
}

// ReadByte blocks until a byte is received.
func (s *serial) ReadByte() (byte, error) {
	s.rx.wait()
	return s.uart.ReadByte()
}

func (s *serial) Write(p []byte) (int, error) {
	return s.uart.Write(p)
}

type ram struct{}

func (ram) Write(r target.Region, data []byte) {
	dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(r.Start()))), r.Len())
	copy(dst, data)
}

func (ram) Load32(addr uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(uintptr(addr)))
}

type core struct{}

func (core) SetVectorTable(addr uint32) {
	arm.SCB.VTOR.Set(addr)
}

func (core) Delay(cycles uint32) {
	for i := uint32(0); i < cycles; i++ {
		arm.Asm("nop")
	}
}

func (core) Bootload(sp, entry uint32) {
	arm.AsmFull(`
		msr msp, {sp}
		bx {entry}
	`, map[string]interface{}{
		"sp":    sp,
		"entry": entry,
	})
	Halt()
}

// Halt parks the core forever.
func Halt() {
	for {
		arm.Asm("wfi")
	}
}
