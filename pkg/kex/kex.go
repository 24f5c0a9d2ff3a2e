// Package kex implements the key-exchange side of the handshake: one
// strategy per CipherSuite.Kex for parsing ServerKeyExchange, verifying
// its signature, emitting ClientKeyExchange, and computing the
// premaster secret. Dispatch is on the CipherSuite capability record's
// Kex field (pkg/ciphersuite), never on the 16-bit suite id.
package kex

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"math/big"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/cryptoprovider"
	"github.com/nimbustls/tls12hs/pkg/rng"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// PSK carries the client's pre-shared key configuration, for the four
// PSK-family kex strategies.
type PSK struct {
	Identity string
	Key      []byte
}

// DHParams is the server's finite-field Diffie-Hellman group and public
// value: dh_p, dh_g, dh_Ys each opaque<1..2^16-1>, with
// 64 <= len(p) <= 512 octets.
type DHParams struct {
	P, G, Ys *big.Int
}

// ECParams is the server's named-curve ECDH public value.
type ECParams struct {
	Curve     constants.NamedCurve
	PublicKey []byte // uncompressed ECPoint
}

// ServerParams is the parsed, signature-verified (where applicable)
// content of a ServerKeyExchange message, or the zero value when the
// strategy sends none.
type ServerParams struct {
	DH      *DHParams
	EC      *ECParams
	PSKHint string // psk_identity_hint, present for PSK-family suites
}

// ClientKeyExchangeResult is everything the driver needs after emitting
// ClientKeyExchange: the wire bytes were already written to w by the
// caller; this carries the derived premaster for the key schedule.
type ClientKeyExchangeResult struct {
	Premaster []byte
}

// ParseServerKeyExchange parses and, for signed strategies, verifies a
// ServerKeyExchange message against the leaf certificate's public key.
// curves is the client's offered curve list (for ECDHE curve acceptance);
// offeredHashes is the client's signature_algorithms hash list.
// clientRandom/serverRandom are the 32-byte Hello nonces the signature
// covers.
func ParseServerKeyExchange(
	r *wire.Reader,
	suite ciphersuite.CipherSuite,
	curves []constants.NamedCurve,
	offeredHashes []constants.HashAlgorithm,
	clientRandom, serverRandom []byte,
	leafPub interface{},
	prov cryptoprovider.Provider,
) (*ServerParams, error) {
	out := &ServerParams{}

	// PSK-family suites carry psk_identity_hint first (RFC 4279 §4.3 /
	// RFC 5489); the PSK and RSA_PSK ServerKeyExchange carries nothing else.
	if suite.Kex.UsesPSK() {
		hint, err := r.Opaque16(0, 65535, "psk_identity_hint")
		if err != nil {
			return nil, err
		}
		out.PSKHint = string(hint)
		if suite.Kex == ciphersuite.KexPSK || suite.Kex == ciphersuite.KexRSA_PSK {
			return out, nil
		}
	}

	switch suite.Kex {
	case ciphersuite.KexRSA, ciphersuite.KexECDH_RSA, ciphersuite.KexECDH_ECDSA:
		// No ServerKeyExchange body at all for these strategies; the
		// driver's record lookahead skips calling this in that case,
		// but returning the empty params is harmless if it does.
		return out, nil

	case ciphersuite.KexDHE_RSA, ciphersuite.KexDHE_PSK:
		p, g, ys, raw, err := decodeDHParams(r)
		if err != nil {
			return nil, err
		}
		out.DH = &DHParams{P: p, G: g, Ys: ys}
		if suite.Kex == ciphersuite.KexDHE_RSA {
			if err := verifyParamsSignature(r, suite, raw, clientRandom, serverRandom, offeredHashes, leafPub, prov); err != nil {
				return nil, err
			}
		}
		return out, nil

	case ciphersuite.KexECDHE_RSA, ciphersuite.KexECDHE_ECDSA, ciphersuite.KexECDHE_PSK:
		ec, raw, err := decodeECParams(r, curves)
		if err != nil {
			return nil, err
		}
		out.EC = ec
		if suite.Kex == ciphersuite.KexECDHE_RSA || suite.Kex == ciphersuite.KexECDHE_ECDSA {
			if err := verifyParamsSignature(r, suite, raw, clientRandom, serverRandom, offeredHashes, leafPub, prov); err != nil {
				return nil, err
			}
		}
		return out, nil

	default:
		return nil, qerrors.ErrUnsupportedCiphersuite
	}
}

// decodeDHParams reads {dh_p, dh_g, dh_Ys} each opaque<1..2^16-1> and
// returns the raw bytes consumed (for the signature's params input).
func decodeDHParams(r *wire.Reader) (p, g, ys *big.Int, raw []byte, err error) {
	start := r.Remaining()
	pb, err := r.Opaque16(1, 65535, "dh_p")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(pb) < constants.MinDHPrimeBytes || len(pb) > constants.MaxDHPrimeBytes {
		return nil, nil, nil, nil, qerrors.ErrBadServerKex
	}
	gb, err := r.Opaque16(1, 65535, "dh_g")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ysb, err := r.Opaque16(1, 65535, "dh_Ys")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	consumed := start - r.Remaining()
	raw = rawTail(r, consumed)
	return new(big.Int).SetBytes(pb), new(big.Int).SetBytes(gb), new(big.Int).SetBytes(ysb), raw, nil
}

// decodeECParams reads ECParameters{curve_type=named_curve, NamedCurve}
// followed by ECPoint public as opaque<1..2^8-1>.
func decodeECParams(r *wire.Reader, curves []constants.NamedCurve) (*ECParams, []byte, error) {
	start := r.Remaining()
	curveType, err := r.Uint8("ec_parameters.curve_type")
	if err != nil {
		return nil, nil, err
	}
	if constants.ECCurveType(curveType) != constants.ECCurveTypeNamedCurve {
		return nil, nil, qerrors.ErrBadServerKex
	}
	curveID, err := r.Uint16("ec_parameters.named_curve")
	if err != nil {
		return nil, nil, err
	}
	curve := constants.NamedCurve(curveID)
	if !curveAcceptable(curve, curves) {
		return nil, nil, qerrors.ErrUnsupportedCurve
	}
	pub, err := r.Opaque8(1, 255, "ec_point")
	if err != nil {
		return nil, nil, err
	}
	consumed := start - r.Remaining()
	raw := rawTail(r, consumed)
	return &ECParams{Curve: curve, PublicKey: pub}, raw, nil
}

func curveAcceptable(curve constants.NamedCurve, offered []constants.NamedCurve) bool {
	for _, c := range offered {
		if c == curve {
			return true
		}
	}
	return false
}

// rawTail recovers the last n bytes the reader consumed, for building
// the "params" input to a ServerKeyExchange signature, via
// wire.Reader.PeekConsumed, which returns a sub-slice of the original
// buffer (no copy).
func rawTail(r *wire.Reader, n int) []byte {
	return r.PeekConsumed(n)
}

// verifyParamsSignature verifies the SignatureAndHashAlgorithm-prefixed
// signature over ClientRandom||ServerRandom||params.
func verifyParamsSignature(
	r *wire.Reader,
	suite ciphersuite.CipherSuite,
	params []byte,
	clientRandom, serverRandom []byte,
	offeredHashes []constants.HashAlgorithm,
	leafPub interface{},
	prov cryptoprovider.Provider,
) error {
	pair, err := DecodeSignatureAndHashAlgorithm(r, suite.Sig, offeredHashes)
	if err != nil {
		return err
	}
	sig, err := r.Opaque16(1, 65535, "signature")
	if err != nil {
		return err
	}

	h, ok := prov.Hash(pair.Hash)
	if !ok {
		return qerrors.ErrUnsupportedSigAlg
	}
	h.Write(clientRandom)
	h.Write(serverRandom)
	h.Write(params)
	digest := h.Sum(nil)

	switch suite.Sig {
	case ciphersuite.SigRSA:
		pub, ok := leafPub.(*rsa.PublicKey)
		if !ok {
			return qerrors.ErrWrongPubkeyAlgo
		}
		if err := prov.RSAVerifyPKCS1v15(pub, pair.Hash, digest, sig); err != nil {
			return qerrors.ErrBadServerKex
		}
	case ciphersuite.SigECDSA:
		pub, ok := leafPub.(*ecdsa.PublicKey)
		if !ok {
			return qerrors.ErrWrongPubkeyAlgo
		}
		if !prov.ECDSAVerify(pub, digest, sig) {
			return qerrors.ErrBadServerKex
		}
	default:
		return qerrors.ErrUnsupportedSigAlg
	}
	return nil
}

// EmitClientKeyExchange writes the ClientKeyExchange body for suite and
// returns the computed premaster secret. For RSA/RSA_PSK, leafPub is the
// server's RSA public key (from the certificate); for ECDH_RSA/
// ECDH_ECDSA, srvParams.EC must already carry the certificate's static
// EC public key (the caller fills it in from the cert, since those
// strategies send no ServerKeyExchange).
func EmitClientKeyExchange(
	w *wire.Writer,
	suite ciphersuite.CipherSuite,
	srvParams *ServerParams,
	leafPub interface{},
	clientVersionOffered constants.ProtocolVersion,
	psk PSK,
	prov cryptoprovider.Provider,
	rngSrc rng.Source,
) (*ClientKeyExchangeResult, error) {
	switch suite.Kex {
	case ciphersuite.KexRSA:
		pms, enc, err := rsaEncryptPremaster(clientVersionOffered, leafPub, prov, rngSrc)
		if err != nil {
			return nil, err
		}
		w.PutOpaque16(enc)
		return &ClientKeyExchangeResult{Premaster: pms}, nil

	case ciphersuite.KexDHE_RSA:
		pms, pub, err := dhClientExchange(srvParams.DH, prov, rngSrc)
		if err != nil {
			return nil, err
		}
		w.PutOpaque16(pub)
		return &ClientKeyExchangeResult{Premaster: pms}, nil

	case ciphersuite.KexECDHE_RSA, ciphersuite.KexECDHE_ECDSA:
		pms, pub, err := ecdhClientExchange(srvParams.EC, prov, rngSrc)
		if err != nil {
			return nil, err
		}
		w.PutOpaque8(pub)
		return &ClientKeyExchangeResult{Premaster: pms}, nil

	case ciphersuite.KexECDH_RSA, ciphersuite.KexECDH_ECDSA:
		// Static ECDH: client still sends an ephemeral public key, but
		// derives against the certificate's fixed EC key.
		pms, pub, err := ecdhClientExchange(srvParams.EC, prov, rngSrc)
		if err != nil {
			return nil, err
		}
		w.PutOpaque8(pub)
		return &ClientKeyExchangeResult{Premaster: pms}, nil

	case ciphersuite.KexPSK:
		w.PutOpaque16([]byte(psk.Identity))
		return &ClientKeyExchangeResult{Premaster: pskPremaster(nil, psk.Key)}, nil

	case ciphersuite.KexRSA_PSK:
		w.PutOpaque16([]byte(psk.Identity))
		other, enc, err := rsaEncryptPremaster(clientVersionOffered, leafPub, prov, rngSrc)
		if err != nil {
			return nil, err
		}
		w.PutOpaque16(enc)
		return &ClientKeyExchangeResult{Premaster: pskPremaster(other, psk.Key)}, nil

	case ciphersuite.KexDHE_PSK:
		w.PutOpaque16([]byte(psk.Identity))
		other, pub, err := dhClientExchange(srvParams.DH, prov, rngSrc)
		if err != nil {
			return nil, err
		}
		w.PutOpaque16(pub)
		return &ClientKeyExchangeResult{Premaster: pskPremaster(other, psk.Key)}, nil

	case ciphersuite.KexECDHE_PSK:
		w.PutOpaque16([]byte(psk.Identity))
		other, pub, err := ecdhClientExchange(srvParams.EC, prov, rngSrc)
		if err != nil {
			return nil, err
		}
		w.PutOpaque8(pub)
		return &ClientKeyExchangeResult{Premaster: pskPremaster(other, psk.Key)}, nil

	default:
		return nil, qerrors.ErrUnsupportedCiphersuite
	}
}

// rsaEncryptPremaster builds the RSA premaster {client_version(2),
// random(46)} using clientVersionOffered, the originally offered
// maximum (RFC 5246 §7.4.7.1's rollback detection), and encrypts it
// under the leaf's RSA public key with PKCS#1 v1.5.
func rsaEncryptPremaster(clientVersionOffered constants.ProtocolVersion, leafPub interface{}, prov cryptoprovider.Provider, rngSrc rng.Source) (pms, enc []byte, err error) {
	pub, ok := leafPub.(*rsa.PublicKey)
	if !ok {
		return nil, nil, qerrors.ErrWrongPubkeyAlgo
	}
	pms = make([]byte, 48)
	pms[0] = clientVersionOffered.Major
	pms[1] = clientVersionOffered.Minor
	if err := rngSrc.Fill(pms[2:]); err != nil {
		return nil, nil, err
	}
	enc, err = prov.RSAEncryptPKCS1v15(rngSrc.Reader(), pub, pms)
	if err != nil {
		return nil, nil, err
	}
	return pms, enc, nil
}

// dhClientExchange generates the client's DH exponent, returns
// premaster = Ys^x mod p stripped of leading zeros, and the wire-form
// client public value g^x mod p.
func dhClientExchange(params *DHParams, prov cryptoprovider.Provider, rngSrc rng.Source) (premaster, clientPublic []byte, err error) {
	if params == nil {
		return nil, nil, qerrors.ErrBadServerKex
	}
	priv, pub, err := prov.DHGenerateKeyPair(rngSrc.Reader(), params.P, params.G)
	if err != nil {
		return nil, nil, err
	}
	secret := prov.DHComputeSecret(priv, params.Ys, params.P)
	return secret, pub.Bytes(), nil
}

// ecdhClientExchange generates an ephemeral ECDH key pair on the
// server's named curve and derives the shared X-coordinate secret.
func ecdhClientExchange(params *ECParams, prov cryptoprovider.Provider, rngSrc rng.Source) (premaster, clientPublic []byte, err error) {
	if params == nil {
		return nil, nil, qerrors.ErrBadServerKex
	}
	curve, ok := prov.ECDHCurve(params.Curve)
	if !ok {
		return nil, nil, qerrors.ErrUnsupportedCurve
	}
	priv, err := prov.ECDHGenerateKeyPair(rngSrc.Reader(), curve)
	if err != nil {
		return nil, nil, err
	}
	peerPub, err := curve.NewPublicKey(params.PublicKey)
	if err != nil {
		return nil, nil, qerrors.ErrBadServerKex
	}
	secret, err := prov.ECDHComputeSecret(priv, peerPub)
	if err != nil {
		return nil, nil, err
	}
	return secret, priv.PublicKey().Bytes(), nil
}

// pskPremaster builds the RFC 4279 §2 premaster: uint16(len(other)) ||
// other || uint16(len(psk)) || psk. For plain PSK, other is an
// all-zero string the same length as psk.
func pskPremaster(other, psk []byte) []byte {
	if other == nil {
		other = make([]byte, len(psk))
	}
	w := wire.NewWriter(4 + len(other) + len(psk))
	w.PutOpaque16(other)
	w.PutOpaque16(psk)
	return w.Bytes()
}
