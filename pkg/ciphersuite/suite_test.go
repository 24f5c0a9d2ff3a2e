package ciphersuite

import (
	"testing"

	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/stretchr/testify/require"
)

func TestByID(t *testing.T) {
	s, ok := ByID(0xC02F)
	require.True(t, ok)
	require.Equal(t, KexECDHE_RSA, s.Kex)
	require.True(t, s.Kex.IsEphemeral())
	require.True(t, s.Kex.IsSigned())
	require.True(t, s.Cipher.IsAEAD())

	_, ok = ByID(0xFFFF)
	require.False(t, ok)
}

func TestKexPredicates(t *testing.T) {
	require.True(t, KexPSK.UsesPSK())
	require.False(t, KexPSK.RequiresCertificate())
	require.True(t, KexRSA.RequiresCertificate())
	require.False(t, KexRSA.IsEphemeral())
	require.False(t, KexECDH_RSA.IsSigned())
}

func TestMACPRFHash(t *testing.T) {
	require.Equal(t, MACSHA384, MACSHA384.PRFHash())
	require.Equal(t, MACSHA256, MACSHA1.PRFHash())
	require.Equal(t, MACSHA256, MACSHA256.PRFHash())
}

func TestSelectOffered(t *testing.T) {
	offered := []uint16{0xC02F, 0x002F, 0x9999}
	got := SelectOffered(offered, constants.VersionTLS12)
	require.Len(t, got, 2)
	require.Equal(t, uint16(0xC02F), got[0].ID)
	require.Equal(t, uint16(0x002F), got[1].ID)
}

func TestContains(t *testing.T) {
	require.True(t, Contains([]uint16{1, 2, 3}, 2))
	require.False(t, Contains([]uint16{1, 2, 3}, 9))
}

func TestSupportsVersion(t *testing.T) {
	s, _ := ByID(0x003C) // TLS 1.2 only
	require.False(t, s.SupportsVersion(constants.VersionTLS11))
	require.True(t, s.SupportsVersion(constants.VersionTLS12))
}
