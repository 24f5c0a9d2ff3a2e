package handshake

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rsa"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// recvServerCertificate consumes the Certificate message, skipping it
// for kex strategies that need no peer certificate (plain
// PSK/DHE_PSK/ECDHE_PSK with no accompanying cert).
func (ctx *HandshakeContext) recvServerCertificate() error {
	if !ctx.Negotiation.Suite.Kex.RequiresCertificate() {
		ctx.State = StateServerCertificate
		return nil
	}

	typ, body, err := ctx.nextHandshakeRecord()
	if err != nil {
		return err
	}
	if typ != constants.HandshakeTypeCertificate {
		return qerrors.NewHandshakeError("ServerCertificate", qerrors.ErrUnexpectedMessage, uint8(constants.AlertUnexpectedMessage))
	}

	r := wire.NewReader(body)
	listBytes, err := r.Opaque24(0, 1<<24-1, "certificate_list")
	if err != nil {
		return err
	}
	if err := r.RequireExhausted("certificate.trailing"); err != nil {
		return err
	}

	var chain [][]byte
	lr := wire.NewReader(listBytes)
	for !lr.Done() {
		der, err := lr.Opaque24(0, 1<<24-1, "certificate")
		if err != nil {
			return err
		}
		chain = append(chain, der)
	}
	if len(chain) == 0 {
		return qerrors.NewHandshakeError("ServerCertificate", qerrors.ErrBadCertificateMsg, uint8(constants.AlertBadCertificate))
	}

	leaf, err := ctx.certs.ParseAndVerify(chain, ctx.cfg.ServerName)
	if err != nil {
		return qerrors.NewHandshakeError("ServerCertificate", err, uint8(constants.AlertBadCertificate))
	}
	if err := checkPubkeyAlgo(ctx.Negotiation.Suite.Sig, ctx.Negotiation.Suite.Kex, leaf.PublicKey); err != nil {
		return qerrors.NewHandshakeError("ServerCertificate", err, uint8(constants.AlertIllegalParameter))
	}
	ctx.Negotiation.PeerCert = leaf

	ctx.State = StateServerCertificate
	return nil
}

func checkPubkeyAlgo(sig ciphersuite.SigAlgorithm, kex ciphersuite.KexAlgorithm, pub interface{}) error {
	switch kex {
	case ciphersuite.KexECDH_RSA, ciphersuite.KexECDH_ECDSA:
		// Static ECDH keys live on an EC public key regardless of sig.
		if _, ok := pub.(*ecdh.PublicKey); !ok {
			return qerrors.ErrWrongPubkeyAlgo
		}
		return nil
	case ciphersuite.KexRSA, ciphersuite.KexRSA_PSK:
		if _, ok := pub.(*rsa.PublicKey); !ok {
			return qerrors.ErrWrongPubkeyAlgo
		}
		return nil
	}
	switch sig {
	case ciphersuite.SigRSA:
		if _, ok := pub.(*rsa.PublicKey); ok {
			return nil
		}
	case ciphersuite.SigECDSA:
		if _, ok := pub.(*ecdsa.PublicKey); ok {
			return nil
		}
	case ciphersuite.SigNone:
		return nil
	}
	return qerrors.ErrWrongPubkeyAlgo
}
