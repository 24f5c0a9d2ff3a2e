// Package recordlayer defines the record-layer seam the handshake
// driver reads and writes handshake messages through, plus a reference
// stream implementation of RFC 5246 §6.2's record framing. The record
// layer's own cryptography — fragment encryption, MAC, compression,
// sequence counters — lives behind this interface, not in the
// handshake core.
package recordlayer

import (
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
)

// Direction selects which traffic key set activate_pending_cipher swaps in.
type Direction int

const (
	DirectionRead Direction = iota
	DirectionWrite
)

// RecordLayer is the I/O seam between the handshake driver and the
// transport. The driver never touches a net.Conn directly.
type RecordLayer interface {
	// ReadRecord returns the next record's content type and plaintext
	// payload (decrypting/decompressing/MAC-checking internally once a
	// cipher is active), or ErrWouldBlock if no complete record is yet
	// available on a non-blocking transport.
	ReadRecord() (constants.ContentType, []byte, error)

	// WriteRecord queues payload for transmission under typ, fragmenting
	// to MaxRecordPayload as needed. It does not necessarily reach the
	// wire until FlushOutput.
	WriteRecord(typ constants.ContentType, payload []byte) error

	// FlushOutput pushes any buffered outbound bytes to the transport.
	FlushOutput() error

	// ActivatePendingCipher switches direction's traffic keys from
	// plaintext to the negotiated bulk cipher, at ChangeCipherSpec.
	ActivatePendingCipher(dir Direction) error
}

// StreamRecordLayer is a reference RecordLayer over a net.Conn. It
// implements the record framing (RFC 5246 §6.2.1: type(1), version(2),
// length(2), fragment) but applies no encryption, MAC, or compression
// itself; ActivatePendingCipher is the hook a full record-layer
// implementation would use to switch traffic keys.
type StreamRecordLayer struct {
	conn         net.Conn
	version      constants.ProtocolVersion
	readTimeout  time.Duration
	writeTimeout time.Duration

	outbound []byte
}

// NewStream wraps conn. version is written into every record header
// and stays as given until the owner calls SetVersion; the handshake
// driver does not change it.
func NewStream(conn net.Conn, version constants.ProtocolVersion) *StreamRecordLayer {
	return &StreamRecordLayer{conn: conn, version: version}
}

// SetVersion updates the record-layer version field written into
// subsequent record headers.
func (s *StreamRecordLayer) SetVersion(v constants.ProtocolVersion) { s.version = v }

// SetDeadlines configures read/write deadlines applied before each
// underlying conn operation; zero disables a deadline.
func (s *StreamRecordLayer) SetDeadlines(read, write time.Duration) {
	s.readTimeout, s.writeTimeout = read, write
}

func (s *StreamRecordLayer) ReadRecord() (constants.ContentType, []byte, error) {
	if s.readTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	var header [5]byte
	if _, err := io.ReadFull(s.conn, header[:]); err != nil {
		return 0, nil, mapConnErr(err)
	}
	typ := constants.ContentType(header[0])
	length := binary.BigEndian.Uint16(header[3:5])
	if int(length) > constants.MaxRecordPayload+2048 {
		return 0, nil, qerrors.NewDecodeError(qerrors.DecodeOverlong, "record.length")
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(s.conn, payload); err != nil {
		return 0, nil, mapConnErr(err)
	}
	return typ, payload, nil
}

func (s *StreamRecordLayer) WriteRecord(typ constants.ContentType, payload []byte) error {
	for len(payload) > 0 {
		n := len(payload)
		if n > constants.MaxRecordPayload {
			n = constants.MaxRecordPayload
		}
		frag := payload[:n]
		payload = payload[n:]

		var header [5]byte
		header[0] = byte(typ)
		header[1] = s.version.Major
		header[2] = s.version.Minor
		binary.BigEndian.PutUint16(header[3:5], uint16(len(frag)))

		s.outbound = append(s.outbound, header[:]...)
		s.outbound = append(s.outbound, frag...)
	}
	return nil
}

func (s *StreamRecordLayer) FlushOutput() error {
	if len(s.outbound) == 0 {
		return nil
	}
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	_, err := s.conn.Write(s.outbound)
	s.outbound = s.outbound[:0]
	if err != nil {
		return mapConnErr(err)
	}
	return nil
}

func (s *StreamRecordLayer) ActivatePendingCipher(dir Direction) error {
	// No-op in the reference implementation: the record layer's own
	// cipher state is out of the handshake core's scope.
	return nil
}

func mapConnErr(err error) error {
	if err == nil {
		return nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return qerrors.ErrWouldBlock
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return qerrors.ErrConnReset
	}
	return err
}
