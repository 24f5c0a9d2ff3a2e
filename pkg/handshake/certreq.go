package handshake

import (
	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// ClientCertificateType is RFC 5246 §7.4.4's cert_types enumeration,
// just the two values this module's owned key types can match.
type ClientCertificateType uint8

const (
	ClientCertTypeRSASign   ClientCertificateType = 1
	ClientCertTypeECDSASign ClientCertificateType = 64
)

// recvCertificateRequest consumes an optional CertificateRequest,
// using the same lookahead technique as recvServerKeyExchange.
func (ctx *HandshakeContext) recvCertificateRequest() error {
	typ, body, err := ctx.peekHandshakeRecord()
	if err != nil {
		return err
	}
	if typ != constants.HandshakeTypeCertificateRequest {
		ctx.State = StateCertificateRequest
		return nil
	}
	ctx.pending = nil

	r := wire.NewReader(body)
	certTypesRaw, err := r.Opaque8(1, 255, "certificate_types")
	if err != nil {
		return err
	}

	if ctx.VersionSelected == constants.VersionTLS12 {
		if _, err := r.Opaque16(2, 65534, "supported_signature_algorithms"); err != nil {
			return err
		}
	}

	if _, err := r.Opaque16(0, 65535, "certificate_authorities"); err != nil {
		return err
	}
	if err := r.RequireExhausted("certificate_request.trailing"); err != nil {
		return err
	}

	// Client cert-type preference is the first (and only) owned key this
	// module configures; an unmatched cert_types list just means
	// emitClientCertificate sends an empty Certificate instead.
	ctx.Negotiation.ClientAuthRequested = true
	ctx.Negotiation.ClientCertMatched = ctx.cfg.ClientCert != nil && ownedCertTypeOffered(certTypesRaw, ctx.cfg.ClientCert.KeyType)

	ctx.State = StateCertificateRequest
	return nil
}

func ownedCertTypeOffered(certTypes []byte, keyType ciphersuite.SigAlgorithm) bool {
	want := ClientCertTypeRSASign
	if keyType == ciphersuite.SigECDSA {
		want = ClientCertTypeECDSASign
	}
	for _, t := range certTypes {
		if ClientCertificateType(t) == want {
			return true
		}
	}
	return false
}

// recvServerHelloDone consumes ServerHelloDone, which must carry a
// zero-length body.
func (ctx *HandshakeContext) recvServerHelloDone() error {
	typ, body, err := ctx.nextHandshakeRecord()
	if err != nil {
		return err
	}
	if typ != constants.HandshakeTypeServerHelloDone {
		return qerrors.NewHandshakeError("ServerHelloDone", qerrors.ErrUnexpectedMessage, uint8(constants.AlertUnexpectedMessage))
	}
	if len(body) != 0 {
		return qerrors.NewHandshakeError("ServerHelloDone", qerrors.ErrBadServerHelloDone, uint8(constants.AlertDecodeError))
	}
	ctx.State = StateServerHelloDone
	return nil
}
