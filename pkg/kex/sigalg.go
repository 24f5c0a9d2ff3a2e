package kex

import (
	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// SigAlgFromKey maps the client's own certificate key type to the
// SignatureAlgorithm byte CertificateVerify must carry: rsa -> 1,
// ecdsa -> 3. Plain PSK/anonymous configurations never call this since
// CertificateVerify is only sent alongside a non-empty client certificate.
func SigAlgFromKey(keyType ciphersuite.SigAlgorithm) (constants.SignatureAlgorithm, error) {
	switch keyType {
	case ciphersuite.SigRSA:
		return constants.SignatureRSA, nil
	case ciphersuite.SigECDSA:
		return constants.SignatureECDSA, nil
	default:
		return 0, qerrors.ErrNoSecretKey
	}
}

// SignatureAndHashAlgorithm is RFC 5246 §7.4.1.4.1's two-byte pair,
// preceding every TLS 1.2 signature (ServerKeyExchange, CertificateVerify).
type SignatureAndHashAlgorithm struct {
	Hash constants.HashAlgorithm
	Sig  constants.SignatureAlgorithm
}

// Encode writes the two-byte pair.
func (s SignatureAndHashAlgorithm) Encode(w *wire.Writer) {
	w.PutUint8(uint8(s.Hash))
	w.PutUint8(uint8(s.Sig))
}

// DecodeSignatureAndHashAlgorithm reads the pair and validates that Sig
// matches the cipher suite's mandated signature algorithm and Hash was
// one the client offered in signature_algorithms.
func DecodeSignatureAndHashAlgorithm(r *wire.Reader, wantSig ciphersuite.SigAlgorithm, offered []constants.HashAlgorithm) (SignatureAndHashAlgorithm, error) {
	hashB, err := r.Uint8("signature_and_hash_algorithm.hash")
	if err != nil {
		return SignatureAndHashAlgorithm{}, err
	}
	sigB, err := r.Uint8("signature_and_hash_algorithm.signature")
	if err != nil {
		return SignatureAndHashAlgorithm{}, err
	}
	pair := SignatureAndHashAlgorithm{Hash: constants.HashAlgorithm(hashB), Sig: constants.SignatureAlgorithm(sigB)}

	wantSigByte, err := sigAlgWireByte(wantSig)
	if err != nil {
		return pair, err
	}
	if pair.Sig != wantSigByte {
		return pair, qerrors.ErrUnsupportedSigAlg
	}
	if !hashOffered(pair.Hash, offered) {
		return pair, qerrors.ErrUnsupportedSigAlg
	}
	return pair, nil
}

func sigAlgWireByte(s ciphersuite.SigAlgorithm) (constants.SignatureAlgorithm, error) {
	switch s {
	case ciphersuite.SigRSA:
		return constants.SignatureRSA, nil
	case ciphersuite.SigECDSA:
		return constants.SignatureECDSA, nil
	default:
		return 0, qerrors.ErrUnsupportedSigAlg
	}
}

func hashOffered(h constants.HashAlgorithm, offered []constants.HashAlgorithm) bool {
	for _, o := range offered {
		if o == h {
			return true
		}
	}
	return false
}
