// Package transport is the thin TCP wire protocol described in spec §6.1:
// it exercises the CORE-facing Engine surface end-to-end for local testing
// and cmd/client, without claiming to be the HTTP/WebSocket front door the
// spec places out of scope. Framing is adapted from the teacher's
// internal/net (encoding/binary, big-endian, a fixed message-type header),
// but every price/quantity field is encoded as a length-prefixed decimal
// string rather than IEEE-754 bits — the spec forbids binary float for
// price/quantity arithmetic or storage (§9), and that extends to the wire.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// unixNano rebuilds a time.Time from nanoseconds since the Unix epoch, the
// wire's timestamp encoding (spec §9: sequence_number, not the clock, is
// authoritative for ordering; the wire timestamp is informational only).
func unixNano(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

// ErrShortBuffer is returned by decode helpers when a frame's declared
// payload runs out before a field finishes decoding — a malformed or
// truncated message.
var ErrShortBuffer = errors.New("short buffer")

const maxFrameLen = 1 << 20 // 1 MiB; generous for this protocol's message sizes

// writeFrame writes a length-prefixed frame: a 4-byte big-endian length
// followed by payload.
func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed frame from r.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameLen {
		return nil, fmt.Errorf("frame length %d exceeds max %d", n, maxFrameLen)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

// encoder builds a message payload field by field.
type encoder struct {
	buf []byte
}

func (e *encoder) u8(b byte) { e.buf = append(e.buf, b) }

func (e *encoder) bool(b bool) {
	if b {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) u32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }
func (e *encoder) u64(v uint64) { e.buf = binary.BigEndian.AppendUint64(e.buf, v) }
func (e *encoder) i64(v int64)  { e.u64(uint64(v)) }

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) decimal(d decimal.Decimal) { e.str(d.String()) }

func (e *encoder) bytes() []byte { return e.buf }

// decoder reads fields back off a payload in the same order encoder wrote
// them, tracking an offset into buf.
type decoder struct {
	buf []byte
	off int
}

func newDecoder(buf []byte) *decoder { return &decoder{buf: buf} }

func (d *decoder) need(n int) error {
	if d.off+n > len(d.buf) {
		return ErrShortBuffer
	}
	return nil
}

func (d *decoder) u8() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) boolean() (bool, error) {
	b, err := d.u8()
	return b != 0, err
}

func (d *decoder) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

func (d *decoder) i64() (int64, error) {
	v, err := d.u64()
	return int64(v), err
}

func (d *decoder) str() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if err := d.need(int(n)); err != nil {
		return "", err
	}
	s := string(d.buf[d.off : d.off+int(n)])
	d.off += int(n)
	return s, nil
}

func (d *decoder) decimal() (decimal.Decimal, error) {
	s, err := d.str()
	if err != nil {
		return decimal.Decimal{}, err
	}
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
