// Package wire implements bounded-read/write primitives for TLS 1.2 wire
// formats: fixed-width big-endian integers and length-prefixed opaque
// vectors (RFC 5246 §4). Every decode is checked against the enclosing
// bound before any byte is interpreted.
package wire

import (
	"encoding/binary"

	qerrors "github.com/nimbustls/tls12hs/internal/errors"
)

// Reader is a bounded cursor over a byte slice. All Read* methods fail
// with a *qerrors.DecodeError rather than panicking or over-reading.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for bounded sequential reads.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Done reports whether the cursor has consumed the entire buffer.
func (r *Reader) Done() bool { return r.pos >= len(r.buf) }

func (r *Reader) need(n int, field string) error {
	if n < 0 || r.Remaining() < n {
		return qerrors.NewDecodeError(qerrors.DecodeShortBuffer, field)
	}
	return nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8(field string) (uint8, error) {
	if err := r.need(1, field); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// Uint16 reads a 2-byte big-endian integer.
func (r *Reader) Uint16(field string) (uint16, error) {
	if err := r.need(2, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// Uint24 reads a 3-byte big-endian integer (used for handshake message
// length prefixes).
func (r *Reader) Uint24(field string) (uint32, error) {
	if err := r.need(3, field); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.pos])<<16 | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])
	r.pos += 3
	return v, nil
}

// Uint32 reads a 4-byte big-endian integer.
func (r *Reader) Uint32(field string) (uint32, error) {
	if err := r.need(4, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int, field string) ([]byte, error) {
	if err := r.need(n, field); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// Opaque8 reads a length-prefixed vector whose length prefix is one byte
// (`opaque<0..255>`), validating min/max against the declared bounds.
func (r *Reader) Opaque8(min, max int, field string) ([]byte, error) {
	n, err := r.Uint8(field)
	if err != nil {
		return nil, err
	}
	return r.opaqueBody(int(n), min, max, field)
}

// Opaque16 reads a length-prefixed vector whose length prefix is two
// bytes (`opaque<0..2^16-1>`).
func (r *Reader) Opaque16(min, max int, field string) ([]byte, error) {
	n, err := r.Uint16(field)
	if err != nil {
		return nil, err
	}
	return r.opaqueBody(int(n), min, max, field)
}

// Opaque24 reads a length-prefixed vector whose length prefix is three
// bytes (used for the handshake message body itself).
func (r *Reader) Opaque24(min, max int, field string) ([]byte, error) {
	n, err := r.Uint24(field)
	if err != nil {
		return nil, err
	}
	return r.opaqueBody(int(n), min, max, field)
}

func (r *Reader) opaqueBody(n, min, max int, field string) ([]byte, error) {
	if n < min {
		return nil, qerrors.NewDecodeError(qerrors.DecodeLengthMismatch, field)
	}
	if max > 0 && n > max {
		return nil, qerrors.NewDecodeError(qerrors.DecodeOverlong, field)
	}
	return r.Bytes(n, field)
}

// PeekConsumed returns the last n bytes the cursor has read, as a
// sub-slice of the original buffer (no copy). Used by callers (e.g.
// pkg/kex) that need the raw bytes of a just-parsed structure to feed a
// signature or MAC computation.
func (r *Reader) PeekConsumed(n int) []byte {
	if n < 0 || n > r.pos {
		n = r.pos
	}
	return r.buf[r.pos-n : r.pos]
}

// RequireExhausted fails unless the cursor has consumed the whole
// buffer, used to reject trailing bytes after a message's last field
// (e.g. ServerHello, CertificateRequest).
func (r *Reader) RequireExhausted(field string) error {
	if !r.Done() {
		return qerrors.NewDecodeError(qerrors.DecodeLengthMismatch, field)
	}
	return nil
}

// Writer appends encoded values to a growable buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sizing its buffer.
func NewWriter(capacityHint int) *Writer {
	return &Writer{buf: make([]byte, 0, capacityHint)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len reports the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// PutUint8 appends one byte.
func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

// PutUint16 appends a 2-byte big-endian integer.
func (w *Writer) PutUint16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

// PutUint24 appends a 3-byte big-endian integer.
func (w *Writer) PutUint24(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

// PutUint32 appends a 4-byte big-endian integer.
func (w *Writer) PutUint32(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// PutBytes appends raw bytes verbatim.
func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

// PutOpaque8 appends a 1-byte length prefix followed by body.
func (w *Writer) PutOpaque8(body []byte) {
	w.PutUint8(uint8(len(body)))
	w.PutBytes(body)
}

// PutOpaque16 appends a 2-byte length prefix followed by body.
func (w *Writer) PutOpaque16(body []byte) {
	w.PutUint16(uint16(len(body)))
	w.PutBytes(body)
}

// PutOpaque24 appends a 3-byte length prefix followed by body.
func (w *Writer) PutOpaque24(body []byte) {
	w.PutUint24(uint32(len(body)))
	w.PutBytes(body)
}

// ReserveUint16 appends a placeholder 2-byte field and returns its
// offset, so a caller can back-patch the real length once known (used
// for the ClientHello extensions block; MessageBuilder frames handshake
// messages with ReserveUint24).
func (w *Writer) ReserveUint16() int {
	off := len(w.buf)
	w.buf = append(w.buf, 0, 0)
	return off
}

// PatchUint16 overwrites the placeholder at off with v.
func (w *Writer) PatchUint16(off int, v uint16) {
	w.buf[off] = byte(v >> 8)
	w.buf[off+1] = byte(v)
}

// ReserveUint24 appends a placeholder 3-byte field and returns its offset.
func (w *Writer) ReserveUint24() int {
	off := len(w.buf)
	w.buf = append(w.buf, 0, 0, 0)
	return off
}

// PatchUint24 overwrites the placeholder at off with v.
func (w *Writer) PatchUint24(off int, v uint32) {
	w.buf[off] = byte(v >> 16)
	w.buf[off+1] = byte(v >> 8)
	w.buf[off+2] = byte(v)
}
