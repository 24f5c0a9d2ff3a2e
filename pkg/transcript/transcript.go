// Package transcript implements the Transcript & Key Schedule: the running hash over every handshake message body, and the
// master-secret / key-expansion / Finished verify-data derivations built
// on top of the TLS 1.2 PRF.
package transcript

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
)

// NewHash returns the hash constructor the PRF and transcript must use
// for a given suite's MAC family (RFC 5246 §7.4.9: SHA-384 when the
// suite's MAC is SHA-384, SHA-256 for every other suite this module
// negotiates).
func NewHash(mac ciphersuite.MACAlgorithm) func() hash.Hash {
	if mac.PRFHash() == ciphersuite.MACSHA384 {
		return sha512.New384
	}
	return sha256.New
}

// Transcript accumulates the exact bytes of every handshake message
// sent or received, in order, including each message's 4-byte
// type/length prefix. HelloRequest, ChangeCipherSpec, and record-layer
// framing are excluded (RFC 5246 §7.4.9).
//
// The digest family is not known until ServerHello names a cipher suite,
// so messages written before SetHash are buffered raw and folded in once
// the hash is fixed.
type Transcript struct {
	h        hash.Hash
	buffered []byte
}

// New returns an empty Transcript with no hash family fixed yet.
func New() *Transcript {
	return &Transcript{}
}

// Write appends one handshake message's bytes (already framed with its
// 4-byte type+length header) to the transcript.
func (t *Transcript) Write(msg []byte) {
	if t.h == nil {
		t.buffered = append(t.buffered, msg...)
		return
	}
	t.h.Write(msg)
}

// SetHash fixes the digest family once the negotiated cipher suite is
// known, folding in any previously-buffered messages (ClientHello,
// ServerHello). Calling SetHash twice is a programming error and panics,
// since the negotiated suite cannot change mid-handshake.
func (t *Transcript) SetHash(newHash func() hash.Hash) {
	if t.h != nil {
		panic("transcript: hash already fixed")
	}
	t.h = newHash()
	t.h.Write(t.buffered)
	t.buffered = nil
}

// Sum returns the current digest without disturbing further writes
// (relies on the stdlib hash.Hash contract that Sum computes from a
// private copy of internal state rather than mutating the receiver).
func (t *Transcript) Sum() []byte {
	if t.h == nil {
		panic("transcript: Sum called before SetHash")
	}
	return t.h.Sum(nil)
}

// Size returns the digest size in bytes once the hash is fixed.
func (t *Transcript) Size() int {
	if t.h == nil {
		panic("transcript: Size called before SetHash")
	}
	return t.h.Size()
}
