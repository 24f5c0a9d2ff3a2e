package handshake

import (
	"encoding/binary"
	"time"

	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/nimbustls/tls12hs/pkg/ext"
)

// emitClientHello builds and sends ClientHello, then advances to
// StateClientHello.
func (ctx *HandshakeContext) emitClientHello() error {
	ctx.startedAt = time.Now()
	ctx.metrics.HandshakesStarted.Inc()

	binary.BigEndian.PutUint32(ctx.ClientRandom[0:4], uint32(time.Now().Unix()))
	if err := ctx.rngSrc.Fill(ctx.ClientRandom[4:32]); err != nil {
		return err
	}

	var sessionID []byte
	resuming := ctx.cfg.Resume != nil
	if resuming {
		sessionID = ctx.cfg.Resume.SessionID
	}

	suites := append([]uint16(nil), ctx.cfg.CipherSuites...)
	if ctx.Reneg == InitialHandshake {
		suites = append([]uint16{uint16(constants.TLSEmptyRenegotiationInfoSCSV)}, suites...)
	}

	offer := ext.Offer{
		ServerName:         ctx.cfg.ServerName,
		MaxFragmentLength:  ctx.cfg.MaxFragmentLength,
		TruncatedHMAC:      ctx.cfg.TruncatedHMAC,
		Curves:             ctx.cfg.Curves,
		ALPNProtocols:      ctx.cfg.ALPNProtocols,
		SessionTicketOffer: ctx.cfg.SessionTicketsEnabled,
	}
	if resuming && len(ctx.cfg.Resume.Ticket) > 0 {
		offer.SessionTicket = ctx.cfg.Resume.Ticket
	}
	if ctx.OfferedMax == constants.VersionTLS12 {
		offer.SignatureAlgorithms = defaultSigHashPairs()
	}
	if ctx.Reneg == Renegotiating {
		offer.SecureRenegotiation = true
		offer.OwnVerifyData = ctx.Negotiation.OwnVerifyData
	}
	ctx.OfferedExtensions = offer
	ctx.Negotiation.OfferedExtTypes = ext.OfferedTypes(offer)

	mb := NewMessageBuilder(constants.HandshakeTypeClientHello)
	w := mb.Writer()
	w.PutUint8(ctx.OfferedMax.Major)
	w.PutUint8(ctx.OfferedMax.Minor)
	w.PutBytes(ctx.ClientRandom[:])
	w.PutOpaque8(sessionID)
	w.PutOpaque16(encodeSuiteList(suites))
	w.PutOpaque8([]byte{byte(constants.CompressionNull), byte(constants.CompressionDeflate)})

	extOff := w.ReserveUint16()
	ext.EncodeAll(w, offer)
	w.PatchUint16(extOff, uint16(w.Len()-extOff-2))

	if err := ctx.sendHandshakeMessage(mb.Finish()); err != nil {
		return err
	}
	ctx.State = StateClientHello
	return nil
}

func encodeSuiteList(ids []uint16) []byte {
	out := make([]byte, 0, 2*len(ids))
	for _, id := range ids {
		out = append(out, byte(id>>8), byte(id))
	}
	return out
}

// defaultSigHashPairs enumerates SHA-512/384/256/224/1 x {RSA, ECDSA},
// strongest hash first, for the signature_algorithms extension.
func defaultSigHashPairs() []ext.SigHashPair {
	hashes := []constants.HashAlgorithm{
		constants.HashSHA512, constants.HashSHA384, constants.HashSHA256,
		constants.HashSHA224, constants.HashSHA1,
	}
	var out []ext.SigHashPair
	for _, sig := range []constants.SignatureAlgorithm{constants.SignatureRSA, constants.SignatureECDSA} {
		for _, h := range hashes {
			out = append(out, ext.SigHashPair{Hash: h, Sig: sig})
		}
	}
	return out
}
