package ext

import (
	"testing"

	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/nimbustls/tls12hs/pkg/wire"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	offer := Offer{
		ServerName:          "example.com",
		MaxFragmentLength:   constants.MaxFragmentLength4096,
		TruncatedHMAC:       true,
		Curves:              []constants.NamedCurve{constants.CurveX25519, constants.CurveSecp256r1},
		SignatureAlgorithms: []SigHashPair{{constants.HashSHA256, constants.SignatureRSA}},
		ALPNProtocols:       []string{"h2", "http/1.1"},
		SessionTicketOffer:  true,
		SessionTicket:       nil,
		SecureRenegotiation: true,
		OwnVerifyData:       nil,
	}

	w := wire.NewWriter(0)
	EncodeAll(w, offer)

	// Re-parse the offer block the way a server would, to confirm the
	// wire layout is self-consistent (type, 2-byte len, body) per extension.
	r := wire.NewReader(w.Bytes())
	var types []constants.ExtensionType
	for !r.Done() {
		typU, err := r.Uint16("t")
		require.NoError(t, err)
		body, err := r.Opaque16(0, 65535, "b")
		require.NoError(t, err)
		types = append(types, constants.ExtensionType(typU))
		_ = body
	}
	require.Contains(t, types, constants.ExtServerName)
	require.Contains(t, types, constants.ExtSupportedEllipticCurv)
	require.Contains(t, types, constants.ExtECPointFormats)
	require.Contains(t, types, constants.ExtRenegotiationInfo)
}

func TestDecodeAllRejectsUnoffered(t *testing.T) {
	w := wire.NewWriter(0)
	writeExtHeader(w, constants.ExtALPN, 5)
	w.PutUint16(3)
	w.PutOpaque8([]byte("h2"))

	_, err := DecodeAll(w.Bytes(), map[constants.ExtensionType]bool{})
	require.Error(t, err)
}

func TestDecodeAllRejectsDuplicate(t *testing.T) {
	w := wire.NewWriter(0)
	writeExtHeader(w, constants.ExtTruncatedHMAC, 0)
	writeExtHeader(w, constants.ExtTruncatedHMAC, 0)

	offered := map[constants.ExtensionType]bool{constants.ExtTruncatedHMAC: true}
	_, err := DecodeAll(w.Bytes(), offered)
	require.Error(t, err)
}

func TestDecodeAllIgnoresUnknown(t *testing.T) {
	w := wire.NewWriter(0)
	writeExtHeader(w, constants.ExtensionType(0xBEEF), 2)
	w.PutUint16(0xCAFE)

	got, err := DecodeAll(w.Bytes(), map[constants.ExtensionType]bool{})
	require.NoError(t, err)
	require.False(t, got.TruncatedHMACAck)
}

func TestDecodeRenegotiationInfo(t *testing.T) {
	w := wire.NewWriter(0)
	writeExtHeader(w, constants.ExtRenegotiationInfo, 1)
	w.PutOpaque8(nil)

	offered := map[constants.ExtensionType]bool{constants.ExtRenegotiationInfo: true}
	got, err := DecodeAll(w.Bytes(), offered)
	require.NoError(t, err)
	require.NotNil(t, got.RenegotiationVerifyData)
	require.Empty(t, got.RenegotiationVerifyData)
}

func TestDecodeALPNSingleProtocol(t *testing.T) {
	w := wire.NewWriter(0)
	inner := wire.NewWriter(0)
	inner.PutOpaque8([]byte("h2"))
	writeExtHeader(w, constants.ExtALPN, 2+inner.Len())
	w.PutUint16(uint16(inner.Len()))
	w.PutBytes(inner.Bytes())

	offered := map[constants.ExtensionType]bool{constants.ExtALPN: true}
	got, err := DecodeAll(w.Bytes(), offered)
	require.NoError(t, err)
	require.Equal(t, "h2", got.ALPNSelected)
}

func TestOfferedTypes(t *testing.T) {
	offer := Offer{ServerName: "x", SecureRenegotiation: true}
	types := OfferedTypes(offer)
	require.True(t, types[constants.ExtServerName])
	require.True(t, types[constants.ExtRenegotiationInfo])
	require.False(t, types[constants.ExtALPN])
}
