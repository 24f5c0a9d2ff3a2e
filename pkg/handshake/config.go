package handshake

import (
	"crypto"

	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/kex"
)

// ClientCertificate is the client's own certificate chain and signing
// key, sent only when the server requests client authentication
//.
type ClientCertificate struct {
	// Chain is the DER-encoded certificate chain, leaf first.
	Chain [][]byte
	// PrivateKey signs CertificateVerify; must be *rsa.PrivateKey or
	// *ecdsa.PrivateKey to match KeyType.
	PrivateKey crypto.Signer
	KeyType    ciphersuite.SigAlgorithm
}

// ResumptionState is the cached material from a prior Session.
type ResumptionState struct {
	SessionID     []byte
	Ticket        []byte
	MasterSecret  []byte
	CipherSuiteID uint16
	Compression   constants.CompressionMethod
}

// Config captures the policy a ClientBuilder uses to drive a handshake
//.
type Config struct {
	MinVersion    constants.ProtocolVersion
	MaxVersion    constants.ProtocolVersion
	CipherSuites  []uint16
	Curves        []constants.NamedCurve
	ServerName    string
	ALPNProtocols []string

	SessionTicketsEnabled bool
	TruncatedHMAC         bool
	MaxFragmentLength     constants.MaxFragmentLengthCode

	ClientCert *ClientCertificate
	PSK        kex.PSK

	RenegotiationEnabled bool
	LegacyPolicy         LegacyRenegotiationPolicy

	Resume *ResumptionState
}

// Option configures a Config via the functional-options pattern.
type Option func(*Config)

// DefaultConfig returns a Config offering TLS 1.2 only, every suite in
// the ciphersuite table in table order, the curves X25519, P-256, P-384
// and P-521, and RenegotiationNone.
func DefaultConfig() Config {
	var suites []uint16
	for _, s := range ciphersuite.All() {
		suites = append(suites, s.ID)
	}
	return Config{
		MinVersion:   constants.VersionTLS12,
		MaxVersion:   constants.VersionTLS12,
		CipherSuites: suites,
		Curves: []constants.NamedCurve{
			constants.CurveX25519, constants.CurveSecp256r1,
			constants.CurveSecp384r1, constants.CurveSecp521r1,
		},
		LegacyPolicy: RenegotiationNone,
	}
}

// WithVersions sets the offered protocol version bounds.
func WithVersions(min, max constants.ProtocolVersion) Option {
	return func(c *Config) { c.MinVersion, c.MaxVersion = min, max }
}

// WithCipherSuites sets the offered cipher suite list, in preference order.
func WithCipherSuites(ids ...uint16) Option {
	return func(c *Config) { c.CipherSuites = ids }
}

// WithCurves sets the offered elliptic curve list, in preference order.
func WithCurves(curves ...constants.NamedCurve) Option {
	return func(c *Config) { c.Curves = curves }
}

// WithServerName offers the server_name extension (SNI).
func WithServerName(name string) Option {
	return func(c *Config) { c.ServerName = name }
}

// WithALPN offers the named application protocols via ALPN.
func WithALPN(protocols ...string) Option {
	return func(c *Config) { c.ALPNProtocols = protocols }
}

// WithSessionTickets enables or disables offering the session_ticket extension.
func WithSessionTickets(enabled bool) Option {
	return func(c *Config) { c.SessionTicketsEnabled = enabled }
}

// WithTruncatedHMAC enables or disables offering truncated_hmac.
func WithTruncatedHMAC(enabled bool) Option {
	return func(c *Config) { c.TruncatedHMAC = enabled }
}

// WithMaxFragmentLength offers max_fragment_length with the given code.
func WithMaxFragmentLength(code constants.MaxFragmentLengthCode) Option {
	return func(c *Config) { c.MaxFragmentLength = code }
}

// WithClientCertificate configures client authentication material,
// presented only if the server sends a CertificateRequest.
func WithClientCertificate(cert *ClientCertificate) Option {
	return func(c *Config) { c.ClientCert = cert }
}

// WithPSK configures a pre-shared key for the PSK-family kex strategies.
func WithPSK(psk kex.PSK) Option {
	return func(c *Config) { c.PSK = psk }
}

// WithRenegotiationPolicy sets whether this client will ever initiate or
// accept a renegotiation, and its tolerance for legacy (non-RFC-5746) peers.
func WithRenegotiationPolicy(enabled bool, legacy LegacyRenegotiationPolicy) Option {
	return func(c *Config) { c.RenegotiationEnabled, c.LegacyPolicy = enabled, legacy }
}

// WithResumption seeds the handshake with a cached session for
// resumption by id (if SessionID is set) or by ticket (if Ticket is set).
func WithResumption(r *ResumptionState) Option {
	return func(c *Config) { c.Resume = r }
}
