package handshake

import (
	"context"
	"errors"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/internal/telemetry"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// Step performs at most one state transition. Call it in a loop until
// State == StateHandshakeOver; a WouldBlock error leaves ctx untouched
// so the same call can be retried once more input is available.
func (ctx *HandshakeContext) Step() error {
	if ctx.State == StateHandshakeOver || ctx.State == StateFailed {
		return nil
	}

	if err := ctx.record.FlushOutput(); err != nil {
		if errors.Is(err, qerrors.ErrWouldBlock) {
			return err
		}
		return ctx.fail(err)
	}

	prev := ctx.State

	var err error
	switch ctx.State {
	case StateHelloRequest:
		err = ctx.emitClientHello()
	case StateClientHello:
		err = ctx.recvServerHello()
	case StateServerHello:
		err = ctx.recvServerCertificate()
	case StateServerCertificate:
		err = ctx.recvServerKeyExchange()
	case StateServerKeyExchange:
		err = ctx.recvCertificateRequest()
	case StateCertificateRequest:
		err = ctx.recvServerHelloDone()
	case StateServerHelloDone:
		err = ctx.emitClientCertificate()
	case StateClientCertificate:
		err = ctx.emitClientKeyExchange()
	case StateClientKeyExchange:
		err = ctx.emitCertificateVerify()
	case StateCertificateVerify:
		err = ctx.emitClientFinishedFlight()
	case StateClientFinished:
		err = ctx.recvServerFinishedFlight()
	case StateServerFinished:
		err = ctx.completeResumedFlightIfNeeded()
	case StateFlushBuffers:
		err = ctx.flushBuffers()
	case StateHandshakeWrapup:
		err = ctx.wrapup()
	default:
		err = qerrors.ErrInternal
	}

	if err != nil {
		if errors.Is(err, qerrors.ErrWouldBlock) {
			return err
		}
		return ctx.fail(err)
	}
	if ctx.State != prev {
		ctx.log.Debug("state transition", telemetry.Fields{
			"from": prev.String(), "to": ctx.State.String(),
		})
	}
	return nil
}

// Run drives Step in a loop until the handshake completes or fails,
// returning the first non-WouldBlock error (if any). Callers needing
// their own WouldBlock-driven event loop should call Step directly
// instead.
func (ctx *HandshakeContext) Run() error {
	_, end := telemetry.StartSpan(context.Background(), telemetry.SpanHandshake,
		telemetry.WithSpanKind(telemetry.SpanKindClient),
		telemetry.WithAttributes(telemetry.SpanAttributes{ServerName: ctx.cfg.ServerName}.ToMap()))

	for ctx.State != StateHandshakeOver && ctx.State != StateFailed {
		if err := ctx.Step(); err != nil {
			end(err)
			return err
		}
	}
	if ctx.State == StateFailed {
		end(ctx.Err)
		return ctx.Err
	}
	end(nil)
	return nil
}

// sendHandshakeMessage folds msg (already framed: 1-byte type, 3-byte
// length, body) into the transcript and queues it on the record layer.
func (ctx *HandshakeContext) sendHandshakeMessage(msg []byte) error {
	ctx.Transcript.Write(msg)
	return ctx.record.WriteRecord(constants.ContentTypeHandshake, msg)
}

// nextHandshakeRecord returns the next handshake message, preferring one
// already peeked and stashed by a prior lookahead over reading a fresh one.
func (ctx *HandshakeContext) nextHandshakeRecord() (constants.HandshakeType, []byte, error) {
	if ctx.pending != nil {
		p := ctx.pending
		ctx.pending = nil
		return p.msgType, p.body, nil
	}
	return ctx.readHandshakeRecord()
}

// readHandshakeRecord reads one record, requires it be a handshake
// record, and folds its raw bytes into the transcript. A record carrying
// more than one handshake message, or a message split across records,
// is reassembled behind the RecordLayer seam, not here.
func (ctx *HandshakeContext) readHandshakeRecord() (constants.HandshakeType, []byte, error) {
	typ, payload, err := ctx.record.ReadRecord()
	if err != nil {
		return 0, nil, err
	}
	if typ != constants.ContentTypeHandshake {
		return 0, nil, qerrors.ErrUnexpectedMessage
	}
	r := wire.NewReader(payload)
	msgTypeB, err := r.Uint8("handshake.msg_type")
	if err != nil {
		return 0, nil, err
	}
	body, err := r.Opaque24(0, constants.MaxHandshakeMsgLen, "handshake.body")
	if err != nil {
		return 0, nil, err
	}
	if err := r.RequireExhausted("handshake.trailing"); err != nil {
		return 0, nil, err
	}
	ctx.Transcript.Write(payload)
	return constants.HandshakeType(msgTypeB), body, nil
}

// peekHandshakeRecord returns the next handshake message without
// consuming it logically, so a caller that decides the message wasn't
// the optional one it expected can hand it back to nextHandshakeRecord
// unchanged. A record stashed by a previous peek is returned as-is; two
// consecutive skipped optional messages must not read twice.
func (ctx *HandshakeContext) peekHandshakeRecord() (constants.HandshakeType, []byte, error) {
	if ctx.pending != nil {
		return ctx.pending.msgType, ctx.pending.body, nil
	}
	typ, body, err := ctx.readHandshakeRecord()
	if err != nil {
		return 0, nil, err
	}
	ctx.pending = &pendingRecord{msgType: typ, body: body}
	return typ, body, nil
}
