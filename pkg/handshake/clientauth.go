package handshake

import (
	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/kex"
)

// emitClientCertificate sends Certificate: the configured chain if the
// server requested client auth and the owned key type matches, otherwise
// an empty Certificate message, which TLS 1.2 still requires whenever a
// CertificateRequest was received. Without a request no Certificate is
// sent at all.
func (ctx *HandshakeContext) emitClientCertificate() error {
	if !ctx.Negotiation.ClientAuthRequested {
		ctx.State = StateClientCertificate
		return nil
	}

	var chain [][]byte
	if ctx.Negotiation.ClientCertMatched && ctx.cfg.ClientCert != nil {
		chain = ctx.cfg.ClientCert.Chain
	}

	mb := NewMessageBuilder(constants.HandshakeTypeCertificate)
	w := mb.Writer()
	listOff := w.ReserveUint24()
	for _, der := range chain {
		w.PutOpaque24(der)
	}
	w.PatchUint24(listOff, uint32(w.Len()-listOff-3))

	if err := ctx.sendHandshakeMessage(mb.Finish()); err != nil {
		return err
	}
	ctx.Negotiation.ClientCertSent = len(chain) > 0
	ctx.State = StateClientCertificate
	return nil
}

// emitClientKeyExchange dispatches per kex strategy,
// deriving the premaster secret and the master secret.
func (ctx *HandshakeContext) emitClientKeyExchange() error {
	suite := ctx.Negotiation.Suite
	srvParams := ctx.Negotiation.ServerKexParams
	if srvParams == nil {
		srvParams = &kex.ServerParams{}
	}

	var leafPub interface{}
	if ctx.Negotiation.PeerCert != nil {
		leafPub = ctx.Negotiation.PeerCert.PublicKey
	}
	if (suite.Kex == ciphersuite.KexECDH_RSA || suite.Kex == ciphersuite.KexECDH_ECDSA) && srvParams.EC == nil {
		ec, err := staticECParamsFromCert(ctx.Negotiation.PeerCert, ctx.cfg.Curves)
		if err != nil {
			return err
		}
		srvParams.EC = ec
	}

	mb := NewMessageBuilder(constants.HandshakeTypeClientKeyExchange)
	result, err := kex.EmitClientKeyExchange(mb.Writer(), suite, srvParams, leafPub, ctx.OfferedMax, ctx.cfg.PSK, ctx.crypto, ctx.rngSrc)
	if err != nil {
		return qerrors.NewHandshakeError("ClientKeyExchange", err, uint8(constants.AlertHandshakeFailure))
	}
	if err := ctx.sendHandshakeMessage(mb.Finish()); err != nil {
		return err
	}

	ctx.Premaster = result.Premaster
	newHash := transcriptHashFor(suite)
	ctx.MasterSecret = masterSecretFor(newHash, ctx.Premaster, ctx.ClientRandom[:], ctx.ServerRandom[:])
	ctx.KeyBlock = keyBlockFor(newHash, ctx.MasterSecret, ctx.ServerRandom[:], ctx.ClientRandom[:], suite)

	ctx.State = StateClientKeyExchange
	return nil
}

// emitCertificateVerify signs the running transcript hash under the
// client's own key, sent only when a non-empty client certificate was
// sent.
func (ctx *HandshakeContext) emitCertificateVerify() error {
	if !ctx.Negotiation.ClientCertSent {
		ctx.State = StateCertificateVerify
		return nil
	}

	sigAlg, err := kex.SigAlgFromKey(ctx.cfg.ClientCert.KeyType)
	if err != nil {
		return err
	}
	hashAlg := prfHashAlgFor(ctx.Negotiation.Suite)

	// Transcript.Sum() already is Hash(handshake_messages); the signer
	// expects that digest directly.
	digest := ctx.Transcript.Sum()

	sig, err := ctx.cfg.ClientCert.PrivateKey.Sign(ctx.rngSrc.Reader(), digest, hashOptsFor(hashAlg))
	if err != nil {
		return qerrors.ErrInternal
	}

	mb := NewMessageBuilder(constants.HandshakeTypeCertificateVerify)
	w := mb.Writer()
	kex.SignatureAndHashAlgorithm{Hash: hashAlg, Sig: sigAlg}.Encode(w)
	w.PutOpaque16(sig)

	if err := ctx.sendHandshakeMessage(mb.Finish()); err != nil {
		return err
	}
	ctx.State = StateCertificateVerify
	return nil
}

