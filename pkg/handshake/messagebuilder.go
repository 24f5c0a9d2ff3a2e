package handshake

import (
	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// MessageBuilder owns a bounded buffer for exactly one handshake
// message, writing its 4-byte type+length header and back-patching the
// length once the body encoders have run.
type MessageBuilder struct {
	w      *wire.Writer
	lenOff int
}

// NewMessageBuilder starts a handshake message of the given type and
// reserves its 3-byte length field.
func NewMessageBuilder(typ constants.HandshakeType) *MessageBuilder {
	w := wire.NewWriter(256)
	w.PutUint8(uint8(typ))
	off := w.ReserveUint24()
	return &MessageBuilder{w: w, lenOff: off}
}

// Writer exposes the body writer to the caller's field encoders.
func (b *MessageBuilder) Writer() *wire.Writer { return b.w }

// Finish back-patches the length field and returns the complete framed
// message: 1-byte type, 3-byte length, body. The returned slice is what
// both the transcript and the record layer consume.
func (b *MessageBuilder) Finish() []byte {
	b.w.PatchUint24(b.lenOff, uint32(b.w.Len()-b.lenOff-3))
	return b.w.Bytes()
}
