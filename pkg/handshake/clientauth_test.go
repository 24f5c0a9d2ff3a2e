package handshake_test

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/handshake"
	"github.com/nimbustls/tls12hs/pkg/transcript"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

func TestClientAuthEmitsVerifiableCertificateVerify(t *testing.T) {
	srvKey, srvDER, pool := selfSignedRSA(t)
	cliKey, cliDER, _ := selfSignedRSA(t)

	rl := &memRecord{}
	ctx := newClient(t, rl, pool,
		handshake.WithCipherSuites(0x002F),
		handshake.WithServerName("example.test"),
		handshake.WithClientCertificate(&handshake.ClientCertificate{
			Chain:      [][]byte{cliDER},
			PrivateKey: cliKey,
			KeyType:    ciphersuite.SigRSA,
		}),
	)
	defer ctx.Close()

	require.ErrorIs(t, drive(ctx), qerrors.ErrWouldBlock)
	ch := rl.handshakeMessages()[0]

	srv := &testServer{}
	copy(srv.clientRandom[:], ch[6:38])
	copy(srv.serverRandom[:], []byte("cauth-random-cauth-random-caut!!"))

	sh := hsMsg(constants.HandshakeTypeServerHello,
		serverHello(srv.serverRandom, []byte{8, 8}, 0x002F, 0, nil))
	cert := hsMsg(constants.HandshakeTypeCertificate, certificateMsg(srvDER))

	// CertificateRequest offering rsa_sign, so the configured key matches.
	crw := wire.NewWriter(16)
	crw.PutOpaque8([]byte{1})
	crw.PutOpaque16([]byte{uint8(constants.HashSHA256), uint8(constants.SignatureRSA)})
	crw.PutUint16(0)
	certReq := hsMsg(constants.HandshakeTypeCertificateRequest, crw.Bytes())

	shd := hsMsg(constants.HandshakeTypeServerHelloDone, nil)
	srv.absorb(ch, sh, cert, certReq, shd)
	for _, m := range [][]byte{sh, cert, certReq, shd} {
		rl.pushHandshake(m)
	}

	require.ErrorIs(t, drive(ctx), qerrors.ErrWouldBlock)
	msgs := rl.handshakeMessages()
	require.Len(t, msgs, 5) // ClientHello, Certificate, ClientKeyExchange, CertificateVerify, Finished
	cliCert, cke, certVerify, cliFin := msgs[1], msgs[2], msgs[3], msgs[4]
	assert.Equal(t, hsMsg(constants.HandshakeTypeCertificate, certificateMsg(cliDER)), cliCert)
	require.Equal(t, uint8(constants.HandshakeTypeCertificateVerify), certVerify[0])

	// The server verifies the signature over its own handshake hash,
	// which at CertificateVerify covers everything up to and including
	// ClientKeyExchange.
	srv.absorb(cliCert, cke)
	vr := wire.NewReader(certVerify[4:])
	hashB, err := vr.Uint8("hash")
	require.NoError(t, err)
	sigB, err := vr.Uint8("sig")
	require.NoError(t, err)
	assert.Equal(t, uint8(constants.HashSHA256), hashB)
	assert.Equal(t, uint8(constants.SignatureRSA), sigB)
	sig, err := vr.Opaque16(1, 65535, "signature")
	require.NoError(t, err)
	require.True(t, vr.Done())

	require.NoError(t, rsa.VerifyPKCS1v15(&cliKey.PublicKey, crypto.SHA256, srv.hash(sha256.New), sig))

	// Finish the handshake to confirm the flight ordering stays intact.
	r := wire.NewReader(cke[4:])
	encPMS, err := r.Opaque16(1, 65535, "enc")
	require.NoError(t, err)
	pms, err := rsa.DecryptPKCS1v15(rand.Reader, srvKey, encPMS)
	require.NoError(t, err)
	master := transcript.MasterSecret(sha256.New, pms, srv.clientRandom[:], srv.serverRandom[:])

	srv.absorb(certVerify)
	wantCliVerify := transcript.FinishedVerifyData(sha256.New, master,
		transcript.LabelClientFinished, srv.hash(sha256.New))
	assert.Equal(t, wantCliVerify, cliFin[4:])

	srv.absorb(cliFin)
	srvVerify := transcript.FinishedVerifyData(sha256.New, master,
		transcript.LabelServerFinished, srv.hash(sha256.New))
	rl.pushChangeCipherSpec()
	rl.pushHandshake(hsMsg(constants.HandshakeTypeFinished, srvVerify))

	require.NoError(t, drive(ctx))
	require.Equal(t, handshake.StateHandshakeOver, ctx.State)
}
