package handshake

import (
	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/ext"
	"github.com/nimbustls/tls12hs/pkg/kex"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// recvServerKeyExchange dispatches per kex strategy, using a
// one-message lookahead since PSK/RSA/ECDH_RSA/ECDH_ECDSA
// strategies may send no ServerKeyExchange at all.
func (ctx *HandshakeContext) recvServerKeyExchange() error {
	suite := ctx.Negotiation.Suite

	typ, body, err := ctx.peekHandshakeRecord()
	if err != nil {
		return err
	}

	if typ != constants.HandshakeTypeServerKeyExchange {
		// Not present: leave it stashed for the next state to consume.
		ctx.State = StateServerKeyExchange
		return nil
	}
	// Consume the peeked record for real.
	ctx.pending = nil

	curves := ctx.cfg.Curves
	offeredHashes := hashesFromPairs(ctx.OfferedExtensions.SignatureAlgorithms)
	var leafPub interface{}
	if ctx.Negotiation.PeerCert != nil {
		leafPub = ctx.Negotiation.PeerCert.PublicKey
	}

	r := wire.NewReader(body)
	params, err := kex.ParseServerKeyExchange(r, suite, curves, offeredHashes, ctx.ClientRandom[:], ctx.ServerRandom[:], leafPub, ctx.crypto)
	if err != nil {
		return qerrors.NewHandshakeError("ServerKeyExchange", err, uint8(constants.AlertHandshakeFailure))
	}
	if err := r.RequireExhausted("server_key_exchange.trailing"); err != nil {
		return err
	}
	ctx.Negotiation.ServerKexParams = params

	ctx.State = StateServerKeyExchange
	return nil
}

func hashesFromPairs(pairs []ext.SigHashPair) []constants.HashAlgorithm {
	out := make([]constants.HashAlgorithm, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Hash)
	}
	return out
}
