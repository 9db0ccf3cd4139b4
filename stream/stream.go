// Package stream wraps an io.Reader in the growable, shifting buffer that
// engine.ParseState needs: the engine's lookahead window keeps bytes alive
// past the point where a naive read loop would discard them, so the driver
// must track how much of its buffer is still "open" before it can recycle
// that space for the next read.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/sablefin/parsevm/engine"
	"github.com/sablefin/parsevm/gzlerr"
)

// MinNewData is the minimum number of fresh bytes the driver ensures room
// for before every read.
const MinNewData = 4000

// ErrResourceLimitExceeded is returned when growing the buffer to fit
// MinNewData more bytes would exceed the configured maximum buffer size.
var ErrResourceLimitExceeded = errors.New("stream buffer would exceed configured maximum size")

// Driver reads a byte stream incrementally and feeds it to a
// *engine.ParseState, growing and shifting its internal buffer so that bytes
// still needed by the engine's open lookahead are never discarded out from
// under it.
type Driver struct {
	// MaxBufSize caps how large the internal buffer may grow, in bytes. Zero
	// means unbounded.
	MaxBufSize int

	buf       []byte
	bufOffset int64 // absolute byte index of buf[0]
	bufLen    int
}

// NewDriver returns a Driver ready to Run, with an initial buffer sized for
// one read of MinNewData bytes.
func NewDriver(maxBufSize int) *Driver {
	return &Driver{
		MaxBufSize: maxBufSize,
		buf:        make([]byte, MinNewData),
	}
}

// Run reads r to completion (or to the first unrecoverable error), feeding
// every byte to ps via Feed/Finish, and returns the final engine.Status.
//
// A trailing NUL byte is never part of r's actual content; Finish alone is
// responsible for flushing whatever terminal is still open when r ends,
// matching the original embedding's "feed one more byte" convention without
// actually fabricating that byte here.
func (d *Driver) Run(ctx context.Context, r io.Reader, ps *engine.ParseState) (engine.Status, error) {
	var lastStatus engine.Status = engine.StatusOK
	sawEOF := false

	for {
		if err := ctx.Err(); err != nil {
			return engine.StatusIOError, err
		}

		if err := d.ensureCapacity(); err != nil {
			return engine.StatusResourceLimitExceeded, err
		}

		n, readErr := r.Read(d.buf[d.bufLen : d.bufLen+MinNewData])
		d.bufLen += n

		if readErr != nil && readErr != io.EOF {
			return engine.StatusIOError, gzlerr.WrapIOError(ps.Offset, readErr)
		}
		if readErr == io.EOF {
			sawEOF = true
		}

		// Feed unconditionally, even when n == 0: on the very first call this
		// is what pushes the start-rule RTN frame and descends to the first
		// lexer frame, regardless of whether any bytes were actually read
		// (an empty source must still initialize the parse so Finish can
		// evaluate the real start-rule state instead of short-circuiting on
		// a stack that was never started).
		status, err := ps.Feed(d.buf[d.bufLen-n : d.bufLen])
		lastStatus = status
		if status == engine.StatusError || status == engine.StatusResourceLimitExceeded {
			return status, err
		}
		d.discardConsumed(ps)

		if lastStatus == engine.StatusHardEOF || sawEOF {
			break
		}
	}

	ok := ps.Finish()
	if !ok {
		return engine.StatusPrematureEOF, gzlerr.NewPrematureEOFError(ps.Offset)
	}
	if lastStatus == engine.StatusHardEOF && (!sawEOF || d.bufLen > 0) {
		// Grammar finished before the byte source did; that is not an error
		// on its own (spec allows grammar-complete-before-file-complete).
		return engine.StatusOK, nil
	}
	if !sawEOF || d.bufLen > 0 {
		return engine.StatusPrematureEOF, gzlerr.NewPrematureEOFError(ps.Offset)
	}
	return engine.StatusOK, nil
}

// ensureCapacity doubles buf until there is room for at least MinNewData
// more bytes past bufLen, refusing to grow past MaxBufSize.
func (d *Driver) ensureCapacity() error {
	needed := d.bufLen + MinNewData
	if len(d.buf) >= needed {
		return nil
	}
	newSize := len(d.buf)
	for newSize < needed {
		newSize *= 2
	}
	if d.MaxBufSize > 0 && newSize > d.MaxBufSize {
		return fmt.Errorf("%w: need %s, max is %s", ErrResourceLimitExceeded,
			humanize.Bytes(uint64(newSize)), humanize.Bytes(uint64(d.MaxBufSize)))
	}
	grown := make([]byte, newSize)
	copy(grown, d.buf[:d.bufLen])
	d.buf = grown
	return nil
}

// discardConsumed shifts out every byte before ps.OpenTerminalOffset, the
// earliest position the engine still needs to keep around.
func (d *Driver) discardConsumed(ps *engine.ParseState) {
	discard := int(ps.OpenTerminalOffset.Byte - d.bufOffset)
	if discard <= 0 {
		return
	}
	if discard > d.bufLen {
		discard = d.bufLen
	}
	copy(d.buf, d.buf[discard:d.bufLen])
	d.bufLen -= discard
	d.bufOffset += int64(discard)
}
