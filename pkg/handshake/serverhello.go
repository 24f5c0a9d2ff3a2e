package handshake

import (
	"bytes"
	"encoding/binary"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/internal/telemetry"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/ext"
	"github.com/nimbustls/tls12hs/pkg/transcript"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// recvServerHello parses and validates ServerHello, fixes the
// transcript's hash family, and either advances normally to
// StateServerHello or — on a resumption match — jumps straight to
// StateClientFinished, reusing the parse-ServerChangeCipherSpec/Finished
// case to receive the server's abbreviated-handshake flight.
func (ctx *HandshakeContext) recvServerHello() error {
	typ, body, err := ctx.nextHandshakeRecord()
	if err != nil {
		return err
	}
	if typ != constants.HandshakeTypeServerHello {
		return qerrors.NewHandshakeError("ServerHello", qerrors.ErrUnexpectedMessage, uint8(constants.AlertUnexpectedMessage))
	}

	r := wire.NewReader(body)
	major, err := r.Uint8("server_version.major")
	if err != nil {
		return err
	}
	minor, err := r.Uint8("server_version.minor")
	if err != nil {
		return err
	}
	version := constants.ProtocolVersion{Major: major, Minor: minor}
	if major != 3 || version.Less(ctx.OfferedMin) || ctx.OfferedMax.Less(version) {
		return qerrors.NewHandshakeError("ServerHello", qerrors.ErrUnsupportedProtocol, uint8(constants.AlertProtocolVersion))
	}
	ctx.VersionSelected = version

	random, err := r.Bytes(32, "random")
	if err != nil {
		return err
	}
	copy(ctx.ServerRandom[:], random)
	ctx.Negotiation.ServerHelloGMTUnixTime = binary.BigEndian.Uint32(random[0:4])

	sessionID, err := r.Opaque8(0, constants.MaxSessionIDSize, "session_id")
	if err != nil {
		return err
	}

	suiteID, err := r.Uint16("cipher_suite")
	if err != nil {
		return err
	}
	if !ciphersuite.Contains(ctx.cfg.CipherSuites, suiteID) {
		return qerrors.NewHandshakeError("ServerHello", qerrors.ErrBadServerHello, uint8(constants.AlertHandshakeFailure))
	}
	suite, ok := ciphersuite.ByID(suiteID)
	if !ok || !suite.SupportsVersion(version) {
		return qerrors.NewHandshakeError("ServerHello", qerrors.ErrUnsupportedCiphersuite, uint8(constants.AlertHandshakeFailure))
	}
	ctx.Negotiation.Suite = suite

	compressionB, err := r.Uint8("compression_method")
	if err != nil {
		return err
	}
	compression := constants.CompressionMethod(compressionB)
	if compression != constants.CompressionNull && compression != constants.CompressionDeflate {
		return qerrors.NewHandshakeError("ServerHello", qerrors.ErrBadServerHello, uint8(constants.AlertHandshakeFailure))
	}
	ctx.Negotiation.Compression = compression

	var serverExt *ext.ServerExtensions
	if !r.Done() {
		extBlock, err := r.Opaque16(1, 65535, "extensions")
		if err != nil {
			return err
		}
		if err := r.RequireExhausted("server_hello.trailing"); err != nil {
			return err
		}
		serverExt, err = ext.DecodeAll(extBlock, ctx.Negotiation.OfferedExtTypes)
		if err != nil {
			return qerrors.NewHandshakeError("ServerHello", err, uint8(constants.AlertUnsupportedExtension))
		}
	} else {
		serverExt = &ext.ServerExtensions{}
	}

	if err := ctx.applySecureRenegotiation(serverExt); err != nil {
		return err
	}
	if serverExt.MaxFragmentLengthAck {
		ctx.Negotiation.MaxFragmentLength = ctx.cfg.MaxFragmentLength
	} else {
		ctx.Negotiation.MaxFragmentLength = constants.MaxFragmentLengthNone
	}
	ctx.Negotiation.TruncatedHMAC = serverExt.TruncatedHMACAck
	ctx.Negotiation.ALPN = serverExt.ALPNSelected
	ctx.Negotiation.NewSessionTicketExpected = serverExt.SessionTicketAck

	ctx.Transcript.SetHash(transcript.NewHash(suite.MAC))

	ctx.log.Debug("server hello accepted", telemetry.Fields{
		"version":      version.String(),
		"cipher_suite": suite.Name,
		"alpn":         serverExt.ALPNSelected,
	})

	if resume, ok := ctx.tryResume(sessionID, suiteID, compression); ok {
		ctx.Negotiation.Resume = true
		ctx.Negotiation.SessionID = sessionID
		ctx.MasterSecret = resume
		ctx.KeyBlock = keyBlockFor(transcriptHashFor(suite), ctx.MasterSecret, ctx.ServerRandom[:], ctx.ClientRandom[:], suite)
		ctx.State = StateClientFinished
		return nil
	}
	ctx.Negotiation.SessionID = sessionID

	ctx.State = StateServerHello
	return nil
}

// tryResume reports whether sessionID/suiteID/compression match a
// previously cached resumption offer.
func (ctx *HandshakeContext) tryResume(sessionID []byte, suiteID uint16, compression constants.CompressionMethod) ([]byte, bool) {
	r := ctx.cfg.Resume
	if r == nil || len(r.SessionID) == 0 || len(sessionID) == 0 {
		return nil, false
	}
	if !bytes.Equal(r.SessionID, sessionID) {
		return nil, false
	}
	if r.CipherSuiteID != suiteID || r.Compression != compression {
		return nil, false
	}
	out := make([]byte, len(r.MasterSecret))
	copy(out, r.MasterSecret)
	return out, true
}

// applySecureRenegotiation enforces RFC 5746 §4.1: on
// an initial handshake the payload must be exactly empty; on a
// renegotiation it must echo both verify-data halves.
func (ctx *HandshakeContext) applySecureRenegotiation(se *ext.ServerExtensions) error {
	if se.RenegotiationVerifyData == nil {
		if ctx.Reneg == Renegotiating && ctx.cfg.LegacyPolicy != RenegotiationAllow {
			return qerrors.NewHandshakeError("ServerHello", qerrors.ErrBadServerHello, uint8(constants.AlertHandshakeFailure))
		}
		if ctx.Reneg == InitialHandshake && ctx.cfg.LegacyPolicy == RenegotiationBreak {
			return qerrors.NewHandshakeError("ServerHello", qerrors.ErrBadServerHello, uint8(constants.AlertHandshakeFailure))
		}
		ctx.Negotiation.SecureRenegotiation = false
		return nil
	}

	if ctx.Reneg == InitialHandshake {
		if len(se.RenegotiationVerifyData) != 0 {
			return qerrors.NewHandshakeError("ServerHello", qerrors.ErrBadServerHello, uint8(constants.AlertHandshakeFailure))
		}
	} else {
		want := append(append([]byte{}, ctx.Negotiation.OwnVerifyData...), ctx.Negotiation.PeerVerifyData...)
		if !constantTimeEqual(se.RenegotiationVerifyData, want) {
			return qerrors.NewHandshakeError("ServerHello", qerrors.ErrBadServerHello, uint8(constants.AlertHandshakeFailure))
		}
	}
	ctx.Negotiation.SecureRenegotiation = true
	return nil
}
