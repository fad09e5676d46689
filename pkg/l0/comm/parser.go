package comm

// Parser accumulates received bytes into frames.
// Its buffer has a fixed capacity of MaxFrameSize and it never allocates.
type Parser struct {
	buf [MaxFrameSize - 1]byte
	len int
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Frame is the stuffed content of a completed frame, without the
	// Delimiter. It aliases the parser buffer and is only valid until
	// the next call to Parse.
	Frame []byte
	// Err is ErrFrameOverflow if the buffer filled up before a Delimiter.
	Err error
}

// Len returns the number of buffered bytes.
func (p *Parser) Len() int {
	return p.len
}

// Reset discards buffered bytes.
func (p *Parser) Reset() {
	p.len = 0
}

// Parse consumes one byte.
// An empty frame (a Delimiter right after another) is ignored.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	if b == Delimiter {
		if p.len > 0 {
			pr.Frame = p.buf[:p.len]
		}
		p.len = 0
		return
	}
	if p.len >= len(p.buf) {
		p.len = 0
		pr.Err = ErrFrameOverflow
		return
	}
	p.buf[p.len] = b
	p.len++
	return
}
