package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/nimbustls/tls12hs/internal/errors"
)

func testKey(b byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = b
	}
	return k
}

func testPayload() TicketPayload {
	ms := make([]byte, 48)
	for i := range ms {
		ms[i] = byte(i)
	}
	return TicketPayload{
		Version:       3,
		CipherSuiteID: 0xC030,
		MasterSecret:  ms,
		CreatedAt:     time.Now(),
	}
}

func TestTicketSealOpenRoundTrip(t *testing.T) {
	tm, err := NewTicketManager(testKey(1), time.Hour)
	require.NoError(t, err)

	blob, err := tm.Seal(testPayload())
	require.NoError(t, err)

	got, err := tm.Open(blob)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), got.Version)
	assert.Equal(t, uint16(0xC030), got.CipherSuiteID)
	assert.Equal(t, testPayload().MasterSecret, got.MasterSecret)
}

func TestTicketRejectsWrongKey(t *testing.T) {
	a, err := NewTicketManager(testKey(1), time.Hour)
	require.NoError(t, err)
	b, err := NewTicketManager(testKey(2), time.Hour)
	require.NoError(t, err)

	blob, err := a.Seal(testPayload())
	require.NoError(t, err)
	_, err = b.Open(blob)
	assert.ErrorIs(t, err, qerrors.ErrBadTicket)
}

func TestTicketSurvivesOneRotation(t *testing.T) {
	tm, err := NewTicketManager(testKey(1), time.Hour)
	require.NoError(t, err)

	blob, err := tm.Seal(testPayload())
	require.NoError(t, err)

	require.NoError(t, tm.RotateKey(testKey(2)))
	_, err = tm.Open(blob)
	assert.NoError(t, err, "ticket sealed just before rotation must still open")

	require.NoError(t, tm.RotateKey(testKey(3)))
	_, err = tm.Open(blob)
	assert.ErrorIs(t, err, qerrors.ErrBadTicket, "two rotations retire the sealing key")
}

func TestTicketExpiry(t *testing.T) {
	tm, err := NewTicketManager(testKey(1), time.Minute)
	require.NoError(t, err)

	p := testPayload()
	p.CreatedAt = time.Now().Add(-2 * time.Minute)
	blob, err := tm.Seal(p)
	require.NoError(t, err)

	_, err = tm.Open(blob)
	assert.ErrorIs(t, err, qerrors.ErrBadTicket)
}

func TestTicketRejectsTruncatedBlob(t *testing.T) {
	tm, err := NewTicketManager(testKey(1), time.Hour)
	require.NoError(t, err)

	blob, err := tm.Seal(testPayload())
	require.NoError(t, err)

	for _, n := range []int{0, 5, len(blob) - 1} {
		_, err = tm.Open(blob[:n])
		assert.ErrorIs(t, err, qerrors.ErrBadTicket, "length %d", n)
	}
}

func TestTicketManagerRejectsShortKey(t *testing.T) {
	_, err := NewTicketManager([]byte("short"), time.Hour)
	assert.Error(t, err)
}

func TestSessionResumable(t *testing.T) {
	s := &Session{}
	assert.False(t, s.Resumable())

	s.MasterSecret = make([]byte, 48)
	assert.False(t, s.Resumable(), "needs an id or a ticket too")

	s.SessionID = []byte{1}
	assert.True(t, s.Resumable())

	s.SessionID = nil
	s.Ticket = []byte{2}
	assert.True(t, s.Resumable())
}

func TestSessionCloseZeroizes(t *testing.T) {
	ms := []byte{1, 2, 3}
	own := []byte{4, 5, 6}
	peer := []byte{7, 8, 9}
	s := &Session{MasterSecret: ms, OwnVerifyData: own, PeerVerifyData: peer}

	s.Close()
	assert.Equal(t, []byte{0, 0, 0}, ms)
	assert.Equal(t, []byte{0, 0, 0}, own)
	assert.Equal(t, []byte{0, 0, 0}, peer)
	assert.Nil(t, s.MasterSecret)

	var nilSession *Session
	nilSession.Close() // must not panic
}
