package recordlayer

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
)

func pipePair() (*StreamRecordLayer, *StreamRecordLayer, func()) {
	a, b := net.Pipe()
	return NewStream(a, constants.VersionTLS12), NewStream(b, constants.VersionTLS12), func() {
		a.Close()
		b.Close()
	}
}

func TestRecordRoundTrip(t *testing.T) {
	client, server, closeAll := pipePair()
	defer closeAll()

	payload := []byte("hello handshake")
	done := make(chan error, 1)
	go func() {
		if err := client.WriteRecord(constants.ContentTypeHandshake, payload); err != nil {
			done <- err
			return
		}
		done <- client.FlushOutput()
	}()

	typ, got, err := server.ReadRecord()
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, constants.ContentTypeHandshake, typ)
	assert.Equal(t, payload, got)
}

func TestRecordFragmentsLargePayloads(t *testing.T) {
	client, server, closeAll := pipePair()
	defer closeAll()

	payload := bytes.Repeat([]byte{0xAB}, constants.MaxRecordPayload+100)
	done := make(chan error, 1)
	go func() {
		if err := client.WriteRecord(constants.ContentTypeApplicationData, payload); err != nil {
			done <- err
			return
		}
		done <- client.FlushOutput()
	}()

	typ, first, err := server.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, constants.ContentTypeApplicationData, typ)
	assert.Len(t, first, constants.MaxRecordPayload)

	_, second, err := server.ReadRecord()
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Len(t, second, 100)
	assert.Equal(t, payload, append(first, second...))
}

func TestRecordHeaderCarriesVersion(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	client := NewStream(a, constants.VersionTLS10)
	client.SetVersion(constants.VersionTLS12)

	go func() {
		_ = client.WriteRecord(constants.ContentTypeHandshake, []byte{1})
		_ = client.FlushOutput()
	}()

	var header [5]byte
	_, err := b.Read(header[:])
	require.NoError(t, err)
	assert.Equal(t, byte(constants.ContentTypeHandshake), header[0])
	assert.Equal(t, byte(3), header[1])
	assert.Equal(t, byte(3), header[2])
}

func TestReadTimeoutMapsToWouldBlock(t *testing.T) {
	client, _, closeAll := pipePair()
	defer closeAll()

	client.SetDeadlines(10*time.Millisecond, 0)
	_, _, err := client.ReadRecord()
	assert.ErrorIs(t, err, qerrors.ErrWouldBlock)
}

func TestClosedConnMapsToConnReset(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	client := NewStream(a, constants.VersionTLS12)
	b.Close()

	_, _, err := client.ReadRecord()
	require.Error(t, err)
	assert.ErrorIs(t, err, qerrors.ErrConnReset)
}

func TestFlushIsIdempotentWhenEmpty(t *testing.T) {
	client, _, closeAll := pipePair()
	defer closeAll()
	require.NoError(t, client.FlushOutput())
	require.NoError(t, client.FlushOutput())
}
