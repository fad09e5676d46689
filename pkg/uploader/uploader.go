// Package uploader streams image segments into target RAM.
package uploader

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/ramloader/pkg/elfimage"
	"github.com/robotalks/ramloader/pkg/l0/msgs"
	"github.com/robotalks/ramloader/pkg/report"
)

// ErrAddressOverflow indicates a segment extends beyond the 32-bit address space.
var ErrAddressOverflow = errors.New("address overflow")

// Conn is the request/response side of a comm.Client.
type Conn interface {
	Send(req msgs.Request) error
	RequestResponse(ctx context.Context, req msgs.Request) (msgs.Response, error)
}

// Error is returned when a segment fails to upload.
type Error struct {
	Segment int
	Address uint32
	Err     error
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("segment %d at 0x%08x: %v", e.Segment, e.Address, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// UnexpectedResponseError indicates the target didn't answer WriteOk.
type UnexpectedResponseError struct {
	Response msgs.Response
}

// Error implements error.
func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response %v", e.Response)
}

// Config defines upload options.
type Config struct {
	ChunkSize int
}

var defaultConfig = Config{
	ChunkSize: msgs.MaxPayloadSize,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.ChunkSize, "chunk", defaultConfig.ChunkSize, "Bytes per Write request.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewUploader creates an Uploader using the config.
func (c *Config) NewUploader(conn Conn) *Uploader {
	u := NewUploader(conn)
	u.ChunkSize = c.ChunkSize
	return u
}

// Uploader writes segments chunk by chunk and starts the program.
type Uploader struct {
	Conn      Conn
	ChunkSize int
	Reporter  report.Reporter
}

// NewUploader creates an Uploader.
func NewUploader(conn Conn) *Uploader {
	return &Uploader{Conn: conn, ChunkSize: msgs.MaxPayloadSize, Reporter: report.Discard}
}

func (u *Uploader) chunkSize() int {
	if u.ChunkSize <= 0 || u.ChunkSize > msgs.MaxPayloadSize {
		return msgs.MaxPayloadSize
	}
	return u.ChunkSize
}

func (u *Uploader) reporter() report.Reporter {
	if u.Reporter == nil {
		return report.Discard
	}
	return u.Reporter
}

// Upload writes all segments, then sends Execute without waiting.
// Any failure aborts the upload, nothing written is rolled back.
func (u *Uploader) Upload(ctx context.Context, segments []elfimage.Segment) error {
	r := u.reporter()
	total := 0
	for n := range segments {
		seg := &segments[n]
		r.SegmentStarted(n, seg)
		glog.V(1).Infof("segment %d: %v zero-fill %d", n, seg, seg.ZeroFill())
		if err := u.writeSegment(ctx, n, seg); err != nil {
			r.Failed(err)
			return err
		}
		total += len(seg.Data)
	}
	if err := u.Conn.Send(&msgs.Execute{}); err != nil {
		err = fmt.Errorf("execute: %w", err)
		r.Failed(err)
		return err
	}
	glog.Infof("loaded %d segments, %d bytes", len(segments), total)
	r.Loaded(len(segments), total)
	return nil
}

func (u *Uploader) writeSegment(ctx context.Context, index int, seg *elfimage.Segment) error {
	if seg.EndAddress() > 1<<32 {
		return &Error{Segment: index, Address: seg.StartAddress, Err: ErrAddressOverflow}
	}
	size := u.chunkSize()
	addr := seg.StartAddress
	for off := 0; off < len(seg.Data); off += size {
		end := off + size
		if end > len(seg.Data) {
			end = len(seg.Data)
		}
		chunk := seg.Data[off:end]
		resp, err := u.Conn.RequestResponse(ctx, &msgs.Write{StartAddress: addr, Data: chunk})
		if err == nil && resp != msgs.WriteOk {
			err = &UnexpectedResponseError{Response: resp}
		}
		if err != nil {
			return &Error{Segment: index, Address: addr, Err: err}
		}
		u.reporter().ChunkWritten(addr, len(chunk))
		addr += uint32(len(chunk))
	}
	return nil
}
