package kex_test

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/cryptoprovider"
	"github.com/nimbustls/tls12hs/pkg/kex"
	"github.com/nimbustls/tls12hs/pkg/rng"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

func suiteByID(t *testing.T, id uint16) ciphersuite.CipherSuite {
	t.Helper()
	s, ok := ciphersuite.ByID(id)
	require.True(t, ok, "suite 0x%04X not in table", id)
	return s
}

// dhePSKServerKex builds an unsigned DHE_PSK ServerKeyExchange body with
// a prime of exactly primeLen bytes.
func dhePSKServerKex(primeLen int) []byte {
	p := make([]byte, primeLen)
	for i := range p {
		p[i] = 0xFF
	}
	ys := make([]byte, primeLen)
	ys[primeLen-1] = 2

	w := wire.NewWriter(3*primeLen + 16)
	w.PutOpaque16([]byte("hint"))
	w.PutOpaque16(p)
	w.PutOpaque16([]byte{2})
	w.PutOpaque16(ys)
	return w.Bytes()
}

func TestDHPrimeLengthBoundaries(t *testing.T) {
	suite := suiteByID(t, 0x0090) // DHE_PSK, no signature to verify
	prov := cryptoprovider.New()

	cases := []struct {
		primeLen int
		ok       bool
	}{
		{63, false},
		{64, true},
		{512, true},
		{513, false},
	}
	for _, tc := range cases {
		r := wire.NewReader(dhePSKServerKex(tc.primeLen))
		params, err := kex.ParseServerKeyExchange(r, suite, nil, nil, nil, nil, nil, prov)
		if tc.ok {
			require.NoError(t, err, "prime length %d", tc.primeLen)
			assert.Equal(t, "hint", params.PSKHint)
			assert.Equal(t, tc.primeLen, len(params.DH.P.Bytes()))
		} else {
			require.Error(t, err, "prime length %d", tc.primeLen)
			assert.ErrorIs(t, err, qerrors.ErrBadServerKex)
		}
	}
}

func TestPlainPSKPremaster(t *testing.T) {
	suite := suiteByID(t, 0x008C)
	psk := kex.PSK{Identity: "client-1", Key: []byte{0xAA, 0xBB, 0xCC}}

	w := wire.NewWriter(32)
	result, err := kex.EmitClientKeyExchange(w, suite, &kex.ServerParams{}, nil,
		constants.VersionTLS12, psk, cryptoprovider.New(), rng.New())
	require.NoError(t, err)

	// ClientKeyExchange carries only the identity.
	r := wire.NewReader(w.Bytes())
	identity, err := r.Opaque16(0, 65535, "psk_identity")
	require.NoError(t, err)
	assert.Equal(t, "client-1", string(identity))
	assert.True(t, r.Done())

	// Premaster: uint16(3) || 00 00 00 || uint16(3) || key (RFC 4279 §2).
	want := []byte{0, 3, 0, 0, 0, 0, 3, 0xAA, 0xBB, 0xCC}
	assert.Equal(t, want, result.Premaster)
}

func TestDHEPSKExchangeDerivesSharedSecret(t *testing.T) {
	suite := suiteByID(t, 0x0090)
	prov := cryptoprovider.New()
	rngSrc := rng.New()

	p, err := rand.Prime(rand.Reader, 512)
	require.NoError(t, err)
	g := big.NewInt(2)
	srvPriv, err := rand.Int(rand.Reader, p)
	require.NoError(t, err)
	ys := new(big.Int).Exp(g, srvPriv, p)

	psk := kex.PSK{Identity: "dhe-client", Key: []byte("shared-psk")}
	srvParams := &kex.ServerParams{DH: &kex.DHParams{P: p, G: g, Ys: ys}}

	w := wire.NewWriter(256)
	result, err := kex.EmitClientKeyExchange(w, suite, srvParams, nil,
		constants.VersionTLS12, psk, prov, rngSrc)
	require.NoError(t, err)

	r := wire.NewReader(w.Bytes())
	identity, err := r.Opaque16(0, 65535, "psk_identity")
	require.NoError(t, err)
	assert.Equal(t, "dhe-client", string(identity))
	ycBytes, err := r.Opaque16(1, 65535, "dh_Yc")
	require.NoError(t, err)

	yc := new(big.Int).SetBytes(ycBytes)
	z := new(big.Int).Exp(yc, srvPriv, p).Bytes()

	expw := wire.NewWriter(len(z) + len(psk.Key) + 4)
	expw.PutOpaque16(z)
	expw.PutOpaque16(psk.Key)
	assert.Equal(t, expw.Bytes(), result.Premaster)
}

func TestRSAPremasterEmbedsOfferedVersion(t *testing.T) {
	suite := suiteByID(t, 0x002F)
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	w := wire.NewWriter(300)
	result, err := kex.EmitClientKeyExchange(w, suite, &kex.ServerParams{}, &key.PublicKey,
		constants.VersionTLS12, kex.PSK{}, cryptoprovider.New(), rng.New())
	require.NoError(t, err)

	r := wire.NewReader(w.Bytes())
	enc, err := r.Opaque16(1, 65535, "encrypted_pre_master")
	require.NoError(t, err)
	assert.True(t, r.Done())

	pms, err := rsa.DecryptPKCS1v15(rand.Reader, key, enc)
	require.NoError(t, err)
	require.Len(t, pms, 48)
	// The embedded version stays the originally offered maximum even if
	// the negotiated version is lower: rollback detection.
	assert.Equal(t, []byte{3, 3}, pms[:2])
	assert.Equal(t, pms, result.Premaster)
}

func TestRSAPremasterRejectsNonRSAKey(t *testing.T) {
	suite := suiteByID(t, 0x002F)
	w := wire.NewWriter(16)
	_, err := kex.EmitClientKeyExchange(w, suite, &kex.ServerParams{}, "not a key",
		constants.VersionTLS12, kex.PSK{}, cryptoprovider.New(), rng.New())
	assert.ErrorIs(t, err, qerrors.ErrWrongPubkeyAlgo)
}

func TestDecodeSignatureAndHashAlgorithm(t *testing.T) {
	offered := []constants.HashAlgorithm{constants.HashSHA256, constants.HashSHA384}

	// Matching pair decodes.
	r := wire.NewReader([]byte{uint8(constants.HashSHA256), uint8(constants.SignatureRSA)})
	pair, err := kex.DecodeSignatureAndHashAlgorithm(r, ciphersuite.SigRSA, offered)
	require.NoError(t, err)
	assert.Equal(t, constants.HashSHA256, pair.Hash)

	// Signature algorithm differing from the suite's is rejected.
	r = wire.NewReader([]byte{uint8(constants.HashSHA256), uint8(constants.SignatureECDSA)})
	_, err = kex.DecodeSignatureAndHashAlgorithm(r, ciphersuite.SigRSA, offered)
	assert.ErrorIs(t, err, qerrors.ErrUnsupportedSigAlg)

	// A hash the client never offered is rejected.
	r = wire.NewReader([]byte{uint8(constants.HashSHA1), uint8(constants.SignatureRSA)})
	_, err = kex.DecodeSignatureAndHashAlgorithm(r, ciphersuite.SigRSA, offered)
	assert.ErrorIs(t, err, qerrors.ErrUnsupportedSigAlg)
}

func TestSigAlgFromKey(t *testing.T) {
	alg, err := kex.SigAlgFromKey(ciphersuite.SigRSA)
	require.NoError(t, err)
	assert.Equal(t, constants.SignatureRSA, alg)

	alg, err = kex.SigAlgFromKey(ciphersuite.SigECDSA)
	require.NoError(t, err)
	assert.Equal(t, constants.SignatureECDSA, alg)

	_, err = kex.SigAlgFromKey(ciphersuite.SigNone)
	assert.ErrorIs(t, err, qerrors.ErrNoSecretKey)
}
