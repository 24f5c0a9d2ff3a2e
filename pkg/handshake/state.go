// Package handshake implements the client side of the TLS 1.2
// handshake (RFC 5246): a stepwise state machine that emits or
// consumes at most one handshake message per Step call (the server's
// final flight, an optional NewSessionTicket plus ChangeCipherSpec and
// Finished, is consumed in one Step), consulting
// pkg/wire, pkg/ext, pkg/kex, pkg/transcript, and the collaborator
// interfaces in pkg/recordlayer, pkg/cryptoprovider, pkg/certstore,
// and pkg/rng.
package handshake

// State is the finite, ordered handshake state. Transitions are
// strictly forward except the reset HelloRequest -> ClientHello on
// server-initiated renegotiation.
type State int

const (
	StateHelloRequest State = iota
	StateClientHello
	StateServerHello
	StateServerCertificate
	StateServerKeyExchange
	StateCertificateRequest
	StateServerHelloDone
	StateClientCertificate
	StateClientKeyExchange
	StateCertificateVerify
	StateClientChangeCipherSpec
	StateClientFinished
	StateServerChangeCipherSpec
	StateServerFinished
	StateFlushBuffers
	StateHandshakeWrapup
	StateHandshakeOver
	// StateFailed is the terminal error state.
	StateFailed
)

func (s State) String() string {
	names := [...]string{
		"HelloRequest", "ClientHello", "ServerHello", "ServerCertificate",
		"ServerKeyExchange", "CertificateRequest", "ServerHelloDone",
		"ClientCertificate", "ClientKeyExchange", "CertificateVerify",
		"ClientChangeCipherSpec", "ClientFinished", "ServerChangeCipherSpec",
		"ServerFinished", "FlushBuffers", "HandshakeWrapup", "HandshakeOver",
		"Failed",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// RenegotiationState distinguishes an initial handshake from a
// renegotiation.
type RenegotiationState int

const (
	InitialHandshake RenegotiationState = iota
	Renegotiating
)

// LegacyRenegotiationPolicy is the three-way configurable policy for
// peers that omit secure renegotiation (RFC 5746 §4.1).
type LegacyRenegotiationPolicy int

const (
	// RenegotiationBreak refuses to renegotiate at all with a peer that
	// never sent renegotiation_info, even on the initial handshake.
	RenegotiationBreak LegacyRenegotiationPolicy = iota
	// RenegotiationNone requires secure renegotiation support; a
	// renegotiation attempt against a peer lacking it fails.
	RenegotiationNone
	// RenegotiationAllow permits insecure renegotiation for
	// compatibility with legacy peers.
	RenegotiationAllow
)
