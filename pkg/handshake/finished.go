package handshake

import (
	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/internal/zero"
	"github.com/nimbustls/tls12hs/pkg/recordlayer"
	"github.com/nimbustls/tls12hs/pkg/transcript"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// emitClientFinishedFlight sends the client's ChangeCipherSpec and
// Finished. In a full handshake this runs first; an abbreviated
// (resumed) handshake instead reaches this flight from
// completeResumedFlightIfNeeded, after the server's own Finished.
func (ctx *HandshakeContext) emitClientFinishedFlight() error {
	if err := ctx.sendChangeCipherSpecAndFinished(transcript.LabelClientFinished, recordlayer.DirectionWrite); err != nil {
		return err
	}
	ctx.State = StateClientFinished
	return nil
}

// sendChangeCipherSpecAndFinished writes ChangeCipherSpec, activates the
// outbound cipher, then emits Finished with verify_data over the
// transcript accumulated so far: verify_data = PRF(master_secret,
// label, Hash(handshake_messages)) (RFC 5246 §7.4.9).
func (ctx *HandshakeContext) sendChangeCipherSpecAndFinished(label string, dir recordlayer.Direction) error {
	if err := ctx.record.WriteRecord(constants.ContentTypeChangeCipherSpec, []byte{1}); err != nil {
		return err
	}
	if err := ctx.record.ActivatePendingCipher(dir); err != nil {
		return err
	}

	newHash := transcriptHashFor(ctx.Negotiation.Suite)
	vd := transcript.FinishedVerifyData(newHash, ctx.MasterSecret, label, ctx.Transcript.Sum())

	mb := NewMessageBuilder(constants.HandshakeTypeFinished)
	mb.Writer().PutBytes(vd)
	if err := ctx.sendHandshakeMessage(mb.Finish()); err != nil {
		return err
	}
	ctx.Negotiation.OwnVerifyData = vd
	return nil
}

// recvServerFinishedFlight consumes the optional NewSessionTicket, then
// ChangeCipherSpec and Finished from the server, verifying verify_data
// in constant time.
func (ctx *HandshakeContext) recvServerFinishedFlight() error {
	if ctx.Negotiation.NewSessionTicketExpected {
		if err := ctx.recvNewSessionTicket(); err != nil {
			return err
		}
	}

	typ, payload, err := ctx.record.ReadRecord()
	if err != nil {
		return err
	}
	if typ != constants.ContentTypeChangeCipherSpec || len(payload) != 1 || payload[0] != 1 {
		return qerrors.NewHandshakeError("ServerChangeCipherSpec", qerrors.ErrUnexpectedMessage, uint8(constants.AlertUnexpectedMessage))
	}
	if err := ctx.record.ActivatePendingCipher(recordlayer.DirectionRead); err != nil {
		return err
	}

	preFinishedHash := ctx.Transcript.Sum()
	msgTyp, body, err := ctx.nextHandshakeRecord()
	if err != nil {
		return err
	}
	if msgTyp != constants.HandshakeTypeFinished || len(body) != constants.VerifyDataSize {
		return qerrors.NewHandshakeError("ServerFinished", qerrors.ErrBadFinished, uint8(constants.AlertDecodeError))
	}

	newHash := transcriptHashFor(ctx.Negotiation.Suite)
	want := transcript.FinishedVerifyData(newHash, ctx.MasterSecret, transcript.LabelServerFinished, preFinishedHash)
	if !constantTimeEqual(body, want) {
		return qerrors.NewHandshakeError("ServerFinished", qerrors.ErrBadFinished, uint8(constants.AlertDecryptError))
	}
	ctx.Negotiation.PeerVerifyData = body

	ctx.State = StateServerFinished
	return nil
}

// recvNewSessionTicket consumes an optional NewSessionTicket message
// (RFC 5077 §3.3), caching its ticket and lifetime for a later
// Config.Resume offer.
func (ctx *HandshakeContext) recvNewSessionTicket() error {
	typ, body, err := ctx.nextHandshakeRecord()
	if err != nil {
		return err
	}
	if typ != constants.HandshakeTypeNewSessionTicket {
		return qerrors.NewHandshakeError("NewSessionTicket", qerrors.ErrUnexpectedMessage, uint8(constants.AlertUnexpectedMessage))
	}
	r := wire.NewReader(body)
	lifetime, err := r.Uint32("new_session_ticket.lifetime_hint")
	if err != nil {
		return err
	}
	ticket, err := r.Opaque16(0, 65535, "new_session_ticket.ticket")
	if err != nil {
		return err
	}
	if err := r.RequireExhausted("new_session_ticket.trailing"); err != nil {
		return err
	}

	// Replace any prior ticket, zeroizing it first. A zero-length ticket
	// means the server withdrew it (RFC 5077 §3.3). Accepting a ticket
	// also clears the session id the client sent, so a later resumption
	// offer rides the ticket, not the id.
	zero.Bytes(ctx.Negotiation.SessionTicket)
	if len(ticket) == 0 {
		ctx.Negotiation.SessionTicket = nil
		ctx.Negotiation.TicketLifetime = 0
	} else {
		ctx.Negotiation.SessionTicket = ticket
		ctx.Negotiation.TicketLifetime = lifetime
		ctx.Negotiation.SessionID = nil
	}
	ctx.Negotiation.NewSessionTicketExpected = false
	return nil
}

// completeResumedFlightIfNeeded handles the abbreviated handshake's
// reversed Finished order: the server's flight already arrived in
// recvServerFinishedFlight, so the client's own ChangeCipherSpec and
// Finished are emitted here instead of earlier. On a full handshake
// this is a pure pass-through.
func (ctx *HandshakeContext) completeResumedFlightIfNeeded() error {
	if ctx.Negotiation.Resume {
		if err := ctx.sendChangeCipherSpecAndFinished(transcript.LabelClientFinished, recordlayer.DirectionWrite); err != nil {
			return err
		}
	}
	ctx.State = StateFlushBuffers
	return nil
}
