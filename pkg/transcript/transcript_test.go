package transcript

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscriptBuffersBeforeHashFixed(t *testing.T) {
	tr := New()
	tr.Write([]byte("client-hello-bytes"))
	tr.Write([]byte("server-hello-bytes"))
	tr.SetHash(sha256.New)

	direct := sha256.Sum256([]byte("client-hello-bytesserver-hello-bytes"))
	require.Equal(t, direct[:], tr.Sum())
}

func TestTranscriptContinuesAfterHashFixed(t *testing.T) {
	tr := New()
	tr.Write([]byte("a"))
	tr.SetHash(sha256.New)
	first := tr.Sum()
	tr.Write([]byte("b"))
	second := tr.Sum()
	require.NotEqual(t, first, second)

	direct := sha256.Sum256([]byte("ab"))
	require.Equal(t, direct[:], second)
}

func TestTranscriptSetHashTwicePanics(t *testing.T) {
	tr := New()
	tr.SetHash(sha256.New)
	require.Panics(t, func() { tr.SetHash(sha256.New) })
}

func TestPRFKnownAnswer(t *testing.T) {
	// PRF output must be deterministic and exactly the requested length.
	secret := []byte("secret")
	seed := []byte("seed-material")
	out1 := PRF(sha256.New, secret, "master secret", seed, 48)
	out2 := PRF(sha256.New, secret, "master secret", seed, 48)
	require.Len(t, out1, 48)
	require.Equal(t, out1, out2)

	differentLabel := PRF(sha256.New, secret, "key expansion", seed, 48)
	require.NotEqual(t, out1, differentLabel)
}

func TestMasterSecretLength(t *testing.T) {
	ms := MasterSecret(sha256.New, []byte("premaster"), make([]byte, 32), make([]byte, 32))
	require.Len(t, ms, 48)
}

func TestExpandKeysSlicing(t *testing.T) {
	ms := MasterSecret(sha256.New, []byte("premaster"), make([]byte, 32), make([]byte, 32))
	kb := ExpandKeys(sha256.New, ms, make([]byte, 32), make([]byte, 32), 0, 16, 4)
	require.Len(t, kb.ClientMACKey, 0)
	require.Len(t, kb.ServerMACKey, 0)
	require.Len(t, kb.ClientKey, 16)
	require.Len(t, kb.ServerKey, 16)
	require.Len(t, kb.ClientIV, 4)
	require.Len(t, kb.ServerIV, 4)
	require.NotEqual(t, kb.ClientKey, kb.ServerKey)
}

func TestFinishedVerifyDataLength(t *testing.T) {
	ms := MasterSecret(sha256.New, []byte("premaster"), make([]byte, 32), make([]byte, 32))
	vd := FinishedVerifyData(sha256.New, ms, LabelClientFinished, make([]byte, 32))
	require.Len(t, vd, 12)

	serverVD := FinishedVerifyData(sha256.New, ms, LabelServerFinished, make([]byte, 32))
	require.NotEqual(t, vd, serverVD)
}
