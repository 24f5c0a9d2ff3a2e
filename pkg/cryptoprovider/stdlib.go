package cryptoprovider

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	cryptorand "crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"
	"math/big"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
)

// Stdlib is the reference Provider implementation, backed entirely by
// the Go standard library's crypto/* packages.
type Stdlib struct{}

// New returns a stdlib-backed Provider.
func New() Provider { return Stdlib{} }

func (Stdlib) RSAEncryptPKCS1v15(rng io.Reader, pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	ct, err := rsa.EncryptPKCS1v15(rng, pub, plaintext)
	if err != nil {
		return nil, qerrors.ErrInternal
	}
	return ct, nil
}

func (Stdlib) RSAVerifyPKCS1v15(pub *rsa.PublicKey, hashAlg constants.HashAlgorithm, hashed, sig []byte) error {
	ch, ok := cryptoHashFor(hashAlg)
	if !ok {
		return qerrors.ErrUnsupportedSigAlg
	}
	return rsa.VerifyPKCS1v15(pub, ch, hashed, sig)
}

func (Stdlib) ECDSAVerify(pub *ecdsa.PublicKey, hashed, sig []byte) bool {
	return ecdsa.VerifyASN1(pub, hashed, sig)
}

func (Stdlib) DHGenerateKeyPair(rng io.Reader, p, g *big.Int) (priv, pub *big.Int, err error) {
	if p == nil || p.Sign() <= 0 {
		return nil, nil, qerrors.ErrBadServerKex
	}
	// Private exponent in [2, p-2], sized to the bit length of p.
	max := new(big.Int).Sub(p, big.NewInt(3))
	k, err := cryptorand.Int(rng, max)
	if err != nil {
		return nil, nil, qerrors.ErrInternal
	}
	priv = k.Add(k, big.NewInt(2))
	pub = new(big.Int).Exp(g, priv, p)
	return priv, pub, nil
}

func (Stdlib) DHComputeSecret(priv, peerPublic, p *big.Int) []byte {
	z := new(big.Int).Exp(peerPublic, priv, p)
	return z.Bytes() // big.Int.Bytes already strips leading zeros
}

func (Stdlib) ECDHCurve(curve constants.NamedCurve) (ecdh.Curve, bool) {
	switch curve {
	case constants.CurveSecp256r1:
		return ecdh.P256(), true
	case constants.CurveSecp384r1:
		return ecdh.P384(), true
	case constants.CurveSecp521r1:
		return ecdh.P521(), true
	case constants.CurveX25519:
		return ecdh.X25519(), true
	default:
		return nil, false
	}
}

func (Stdlib) ECDHGenerateKeyPair(rng io.Reader, c ecdh.Curve) (*ecdh.PrivateKey, error) {
	return c.GenerateKey(rng)
}

func (Stdlib) ECDHComputeSecret(priv *ecdh.PrivateKey, peerPublic *ecdh.PublicKey) ([]byte, error) {
	return priv.ECDH(peerPublic)
}

func (Stdlib) Hash(alg constants.HashAlgorithm) (hash.Hash, bool) {
	switch alg {
	case constants.HashSHA1:
		return sha1.New(), true
	case constants.HashSHA224:
		return sha256.New224(), true
	case constants.HashSHA256:
		return sha256.New(), true
	case constants.HashSHA384:
		return sha512.New384(), true
	case constants.HashSHA512:
		return sha512.New(), true
	default:
		return nil, false
	}
}

func cryptoHashFor(alg constants.HashAlgorithm) (crypto.Hash, bool) {
	switch alg {
	case constants.HashSHA1:
		return crypto.SHA1, true
	case constants.HashSHA224:
		return crypto.SHA224, true
	case constants.HashSHA256:
		return crypto.SHA256, true
	case constants.HashSHA384:
		return crypto.SHA384, true
	case constants.HashSHA512:
		return crypto.SHA512, true
	default:
		return 0, false
	}
}
