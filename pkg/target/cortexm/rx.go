package cortexm

// rxWait sleeps until the receive buffer holds a byte. The check and the
// sleep run with interrupts masked: a byte arriving in between leaves its
// interrupt pending, and wfi returns at once on a pending interrupt.
type rxWait struct {
	buffered func() int
	disable  func() uintptr
	enable   func(uintptr)
	wfi      func()
}

func (w *rxWait) wait() {
	for {
		mask := w.disable()
		if w.buffered() > 0 {
			w.enable(mask)
			return
		}
		w.wfi()
		w.enable(mask)
	}
}
