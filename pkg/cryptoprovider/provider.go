// Package cryptoprovider defines the CryptoProvider collaborator
// interface the key-exchange engine and the driver's
// signature checks depend on, plus a reference implementation backed by
// the Go standard library's crypto packages.
//
// Cryptographic primitives live outside the handshake core's
// scope; this package is the seam the core calls through, not the core
// itself.
package cryptoprovider

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rsa"
	"hash"
	"io"
	"math/big"

	"github.com/nimbustls/tls12hs/internal/constants"
)

// Provider is the full set of cryptographic operations the handshake
// core needs from its environment: RSA encrypt/verify, ECDSA verify,
// classical (finite-field) DH, ECDH, and hash construction for the PRF
// and transcript. A Provider is stateless and safe for concurrent use
// across independent handshakes.
type Provider interface {
	// RSAEncryptPKCS1v15 encrypts plaintext under pub using PKCS#1 v1.5
	// padding, for the RSA/RSA_PSK key-exchange strategies.
	RSAEncryptPKCS1v15(rng io.Reader, pub *rsa.PublicKey, plaintext []byte) ([]byte, error)

	// RSAVerifyPKCS1v15 verifies a ServerKeyExchange/CertificateVerify
	// signature under the PKCS#1 v1.5 scheme.
	RSAVerifyPKCS1v15(pub *rsa.PublicKey, hashAlg constants.HashAlgorithm, hashed, sig []byte) error

	// ECDSAVerify verifies an ECDSA signature (ASN.1 DER encoded, as TLS
	// 1.2 requires) over hashed.
	ECDSAVerify(pub *ecdsa.PublicKey, hashed, sig []byte) bool

	// DHGenerateKeyPair produces a fresh client DH exponent for the given
	// group (p, g), returning the private exponent and the public value
	// g^x mod p.
	DHGenerateKeyPair(rng io.Reader, p, g *big.Int) (priv, pub *big.Int, err error)

	// DHComputeSecret computes peerPublic^priv mod p, stripped of leading
	// zero bytes (RFC 5246 §8.1.2).
	DHComputeSecret(priv, peerPublic, p *big.Int) []byte

	// ECDHCurve resolves a NamedCurve to a usable ecdh.Curve, reporting
	// ok=false for curves this provider does not implement.
	ECDHCurve(curve constants.NamedCurve) (c ecdh.Curve, ok bool)

	// ECDHGenerateKeyPair produces a fresh ephemeral ECDH key pair on c.
	ECDHGenerateKeyPair(rng io.Reader, c ecdh.Curve) (*ecdh.PrivateKey, error)

	// ECDHComputeSecret computes the shared X-coordinate secret.
	ECDHComputeSecret(priv *ecdh.PrivateKey, peerPublic *ecdh.PublicKey) ([]byte, error)

	// Hash returns a fresh hash.Hash for the given TLS HashAlgorithm,
	// ok=false if unsupported.
	Hash(alg constants.HashAlgorithm) (h hash.Hash, ok bool)
}
