// Package certstore defines the CertificateStore collaborator interface
// the handshake driver uses to validate the server's
// Certificate message and obtain the leaf's public key, plus a
// crypto/x509-backed reference implementation. Chain construction and
// path validation are out of the handshake core's scope; this package is
// the seam, not the core.
package certstore

import (
	"crypto/x509"
	"fmt"

	qerrors "github.com/nimbustls/tls12hs/internal/errors"
)

// LeafPubKey is the validated leaf certificate's public key, opaque to
// the handshake core except for the type assertions pkg/kex performs
// against the negotiated signature/kex algorithm.
type LeafPubKey struct {
	// PublicKey is one of *rsa.PublicKey, *ecdsa.PublicKey, or
	// *ecdh.PublicKey (for ECDH_RSA/ECDH_ECDSA, read from the cert).
	PublicKey interface{}
	Leaf      *x509.Certificate
	Chain     []*x509.Certificate
}

// Store validates a peer certificate chain and returns its leaf's public key.
type Store interface {
	// ParseAndVerify decodes chainBytes (a sequence of DER certificates
	// as carried by the Certificate handshake message) and validates the
	// chain against hostname using the store's trust roots. An empty
	// hostname skips name verification (used by callers that perform it
	// out of band).
	ParseAndVerify(chainBytes [][]byte, hostname string) (*LeafPubKey, error)
}

// x509Store validates against a single root pool: the system pool (New)
// or the roots supplied at construction (NewWithRoots).
type x509Store struct {
	roots *x509.CertPool
}

// New returns a Store that validates against the operating system's
// trusted root pool.
func New() Store {
	roots, err := x509.SystemCertPool()
	if err != nil || roots == nil {
		roots = x509.NewCertPool()
	}
	return &x509Store{roots: roots}
}

// NewWithRoots returns a Store that validates only against roots,
// useful for tests and private PKI deployments.
func NewWithRoots(roots *x509.CertPool) Store {
	return &x509Store{roots: roots}
}

func (s *x509Store) ParseAndVerify(chainBytes [][]byte, hostname string) (*LeafPubKey, error) {
	if len(chainBytes) == 0 {
		return nil, qerrors.ErrBadCertificate
	}

	chain := make([]*x509.Certificate, 0, len(chainBytes))
	for _, der := range chainBytes {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", qerrors.ErrBadCertificate, err)
		}
		chain = append(chain, cert)
	}

	leaf := chain[0]
	intermediates := x509.NewCertPool()
	for _, c := range chain[1:] {
		intermediates.AddCert(c)
	}

	opts := x509.VerifyOptions{
		Roots:         s.roots,
		Intermediates: intermediates,
		DNSName:       hostname,
	}
	if _, err := leaf.Verify(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrBadCertificate, err)
	}

	return &LeafPubKey{PublicKey: leaf.PublicKey, Leaf: leaf, Chain: chain}, nil
}
