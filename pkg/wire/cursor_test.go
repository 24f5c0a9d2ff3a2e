package wire

import (
	"testing"

	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestReaderPrimitives(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x00, 0x00, 0x04, 0xAA, 0xBB})

	b, err := r.Uint8("a")
	require.NoError(t, err)
	require.Equal(t, uint8(1), b)

	u16, err := r.Uint16("b")
	require.NoError(t, err)
	require.Equal(t, uint16(0x0203), u16)

	u24, err := r.Uint24("c")
	require.NoError(t, err)
	require.Equal(t, uint32(0x000004), u24)

	rest, err := r.Bytes(2, "d")
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, rest)

	require.True(t, r.Done())
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x01})
	_, err := r.Uint16("field")
	require.Error(t, err)
	require.ErrorIs(t, err, qerrors.ErrShortBuffer)
}

func TestReaderOpaqueBounds(t *testing.T) {
	// length prefix says 5 bytes follow, but only 2 are present: ShortBuffer.
	r := NewReader([]byte{0x05, 0xAA, 0xBB})
	_, err := r.Opaque8(0, 255, "field")
	require.Error(t, err)

	// length prefix within declared bounds.
	r2 := NewReader([]byte{0x02, 0xAA, 0xBB})
	body, err := r2.Opaque8(1, 32, "field")
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, body)

	// length prefix below the declared minimum: LengthMismatch.
	r3 := NewReader([]byte{0x00})
	_, err = r3.Opaque8(1, 32, "field")
	require.Error(t, err)
	require.ErrorIs(t, err, qerrors.ErrLengthMismatch)

	// length prefix above the declared maximum: Overlong.
	r4 := NewReader([]byte{0x21})
	r4.buf = append(r4.buf, make([]byte, 33)...)
	_, err = r4.Opaque8(1, 32, "field")
	require.Error(t, err)
	require.ErrorIs(t, err, qerrors.ErrOverlong)
}

func TestReaderRequireExhausted(t *testing.T) {
	r := NewReader([]byte{0x01})
	require.Error(t, r.RequireExhausted("body"))

	r2 := NewReader(nil)
	require.NoError(t, r2.RequireExhausted("body"))
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter(0)
	w.PutUint8(9)
	w.PutUint16(0x1234)
	w.PutUint24(0x010203)
	w.PutOpaque8([]byte{1, 2, 3})
	w.PutOpaque16([]byte{4, 5})

	r := NewReader(w.Bytes())
	b, _ := r.Uint8("x")
	require.Equal(t, uint8(9), b)
	u16, _ := r.Uint16("x")
	require.Equal(t, uint16(0x1234), u16)
	u24, _ := r.Uint24("x")
	require.Equal(t, uint32(0x010203), u24)
	op8, _ := r.Opaque8(0, 255, "x")
	require.Equal(t, []byte{1, 2, 3}, op8)
	op16, _ := r.Opaque16(0, 65535, "x")
	require.Equal(t, []byte{4, 5}, op16)
	require.True(t, r.Done())
}

func TestWriterBackPatch(t *testing.T) {
	w := NewWriter(0)
	off := w.ReserveUint16()
	w.PutBytes([]byte{1, 2, 3})
	w.PatchUint16(off, uint16(3))

	r := NewReader(w.Bytes())
	n, _ := r.Uint16("len")
	require.Equal(t, uint16(3), n)
	body, _ := r.Bytes(3, "body")
	require.Equal(t, []byte{1, 2, 3}, body)
}
