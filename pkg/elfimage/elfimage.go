// Package elfimage extracts loadable segments from 32-bit ELF images.
package elfimage

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotAnElf indicates the input is not a 32-bit ELF image.
	ErrNotAnElf = errors.New("not an ELF32 image")
	// ErrHeaderRead indicates a program header's data can't be read.
	ErrHeaderRead = errors.New("program header data unreadable")
)

// Segment is one loadable region of an image.
type Segment struct {
	// StartAddress is the physical (load) address.
	StartAddress uint32
	// Data contains the file-backed bytes.
	Data []byte

	memSize uint32
}

// EndAddress returns the address right after the file-backed bytes.
func (s *Segment) EndAddress() uint64 {
	return uint64(s.StartAddress) + uint64(len(s.Data))
}

// ZeroFill returns the number of zero-initialized bytes following Data
// in memory which are not part of the image and are not transferred.
func (s *Segment) ZeroFill() uint32 {
	if n := uint32(len(s.Data)); s.memSize > n {
		return s.memSize - n
	}
	return 0
}

// String implements fmt.Stringer.
func (s *Segment) String() string {
	return fmt.Sprintf("0x%08x+%d", s.StartAddress, len(s.Data))
}

// Extract parses b and returns PT_LOAD segments in program header order.
func Extract(b []byte) ([]Segment, error) {
	f, err := elf.NewFile(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnElf, err)
	}
	defer f.Close()
	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("%w: class %v", ErrNotAnElf, f.Class)
	}
	var segs []Segment
	for n, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		// checked before allocating, Filesz comes from the file.
		if prog.Off > uint64(len(b)) || prog.Filesz > uint64(len(b))-prog.Off {
			return nil, fmt.Errorf("%w: program header %d: [0x%x+0x%x] beyond %d bytes",
				ErrHeaderRead, n, prog.Off, prog.Filesz, len(b))
		}
		data := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), data); err != nil {
			return nil, fmt.Errorf("%w: program header %d: %v", ErrHeaderRead, n, err)
		}
		segs = append(segs, Segment{
			StartAddress: uint32(prog.Paddr),
			Data:         data,
			memSize:      uint32(prog.Memsz),
		})
	}
	return segs, nil
}

// LoadFile reads and extracts segments from the ELF file at path.
func LoadFile(path string) ([]Segment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	segs, err := Extract(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return segs, nil
}
