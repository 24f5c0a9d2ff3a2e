// Package rng defines the RngSource collaborator interface
// the handshake driver and key-exchange engine draw randomness from —
// ClientRandom, DH/ECDH ephemeral keys, RSA encryption padding — plus a
// crypto/rand-backed reference implementation.
package rng

import (
	"crypto/rand"
	"io"

	qerrors "github.com/nimbustls/tls12hs/internal/errors"
)

// Source supplies cryptographically-strong random bytes; the seam the
// handshake core draws all randomness through.
type Source interface {
	// Fill writes cryptographically-strong random bytes into buf.
	Fill(buf []byte) error

	// Reader exposes the source as an io.Reader, for collaborators
	// (e.g. CryptoProvider's RSA encryption) that want one.
	Reader() io.Reader
}

// stdlib sources randomness from crypto/rand, the OS CSPRNG.
type stdlib struct{}

// New returns the default Source, backed by crypto/rand.
func New() Source { return stdlib{} }

func (stdlib) Fill(buf []byte) error {
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return qerrors.NewHandshakeError("rng", qerrors.ErrInternal, uint8(0))
	}
	return nil
}

func (stdlib) Reader() io.Reader { return rand.Reader }

// Bytes allocates and fills n cryptographically-strong random bytes.
func Bytes(s Source, n int) ([]byte, error) {
	b := make([]byte, n)
	if err := s.Fill(b); err != nil {
		return nil, err
	}
	return b, nil
}
