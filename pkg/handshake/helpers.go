package handshake

import (
	"crypto"
	"crypto/subtle"
	"hash"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/certstore"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/kex"
	"github.com/nimbustls/tls12hs/pkg/transcript"
)

// transcriptHashFor returns the hash constructor the PRF and transcript
// must use for suite.
func transcriptHashFor(suite ciphersuite.CipherSuite) func() hash.Hash {
	return transcript.NewHash(suite.MAC)
}

// masterSecretFor derives master_secret = PRF(premaster, "master
// secret", client_random || server_random).
func masterSecretFor(newHash func() hash.Hash, premaster, clientRandom, serverRandom []byte) []byte {
	return transcript.MasterSecret(newHash, premaster, clientRandom, serverRandom)
}

// keyBlockFor expands master_secret into the six-way key block sized
// per suite.
func keyBlockFor(newHash func() hash.Hash, masterSecret, serverRandom, clientRandom []byte, suite ciphersuite.CipherSuite) transcript.KeyBlock {
	macLen := 0
	if !suite.Cipher.IsAEAD() {
		macLen = suite.MAC.Size()
	}
	return transcript.ExpandKeys(newHash, masterSecret, serverRandom, clientRandom, macLen, suite.Cipher.KeyLen(), suite.FixedIVLen())
}

// prfHashAlgFor returns the HashAlgorithm CertificateVerify's signature
// must use in TLS 1.2: SHA-384 when the suite's MAC is SHA-384, SHA-256
// otherwise.
func prfHashAlgFor(suite ciphersuite.CipherSuite) constants.HashAlgorithm {
	if suite.MAC.PRFHash() == ciphersuite.MACSHA384 {
		return constants.HashSHA384
	}
	return constants.HashSHA256
}

// hashOptsFor maps a TLS HashAlgorithm to the crypto.SignerOpts a
// crypto.Signer expects (RSA PKCS#1v1.5 and ECDSA both accept a bare
// crypto.Hash as their SignerOpts).
func hashOptsFor(alg constants.HashAlgorithm) crypto.SignerOpts {
	switch alg {
	case constants.HashSHA1:
		return crypto.SHA1
	case constants.HashSHA224:
		return crypto.SHA224
	case constants.HashSHA256:
		return crypto.SHA256
	case constants.HashSHA384:
		return crypto.SHA384
	case constants.HashSHA512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

// staticECParamsFromCert builds kex.ServerParams.EC from the peer
// certificate's SubjectPublicKeyInfo for the ECDH_RSA/ECDH_ECDSA
// strategies, which send no ServerKeyExchange.
func staticECParamsFromCert(leaf *certstore.LeafPubKey, curves []constants.NamedCurve) (*kex.ECParams, error) {
	if leaf == nil {
		return nil, qerrors.ErrBadCertificate
	}
	ecKey, ok := leaf.PublicKey.(interface {
		Bytes() []byte
	})
	if !ok {
		return nil, qerrors.ErrWrongPubkeyAlgo
	}
	if len(curves) == 0 {
		return nil, qerrors.ErrUnsupportedCurve
	}
	// The certificate's own curve is implied by its key; this module has
	// no direct accessor for it off certstore.LeafPubKey, so it trusts
	// the first client-offered curve, matching the common case of a
	// single configured curve for a static ECDH deployment.
	return &kex.ECParams{Curve: curves[0], PublicKey: ecKey.Bytes()}, nil
}

// constantTimeEqual reports whether a and b are equal, in time
// independent of the position of the first difference.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
