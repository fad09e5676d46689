// Package target implements the resident loader running on the device.
//
// The Loader reads one byte at a time from the serial peripheral and
// assembles frames. Each decoded request goes through the Dispatcher:
// writes are certified against the Window before Memory is touched, and
// Execute hands control to the loaded image.
//
// Hardware access is modeled by Peripherals, an ownership token obtained
// once at startup and consumed by the handoff.
package target
