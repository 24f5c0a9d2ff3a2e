// Package session holds the frozen outcome of a completed handshake,
// the record the record layer consumes once Finished verification
// succeeds, plus encrypted session-ticket sealing for resumption
// across connections (RFC 5077).
package session

import (
	"time"

	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/nimbustls/tls12hs/internal/zero"
)

// Session is the material the record layer consumes after the
// handshake: secrets and randoms for key derivation, plus the
// negotiated facts (max_fragment_length, alpn) its sizing and protocol
// selection need.
type Session struct {
	ProtocolVersion constants.ProtocolVersion
	CipherSuiteID   uint16
	Compression     constants.CompressionMethod

	MasterSecret []byte
	ClientRandom [32]byte
	ServerRandom [32]byte

	SessionID      []byte
	Ticket         []byte
	TicketLifetime uint32

	PeerCertChain [][]byte
	ALPN          string

	StartTime time.Time

	OwnVerifyData  []byte
	PeerVerifyData []byte

	TruncatedHMAC     bool
	MaxFragmentLength constants.MaxFragmentLengthCode
}

// Resumable reports whether s carries enough state (a session id or a
// ticket, plus a master secret) to attempt resumption on a later
// connection.
func (s *Session) Resumable() bool {
	return s.MasterSecret != nil && (len(s.SessionID) > 0 || len(s.Ticket) > 0)
}

// Close zeroizes the secret material a Session carries.
func (s *Session) Close() {
	if s == nil {
		return
	}
	zero.All(s.MasterSecret, s.OwnVerifyData, s.PeerVerifyData)
	s.MasterSecret = nil
	s.OwnVerifyData = nil
	s.PeerVerifyData = nil
}
