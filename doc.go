// Package tls12hs implements the client side of the TLS 1.2 handshake
// (RFC 5246 and its extensions): a stepwise state machine that negotiates
// protocol version, cipher suite, and extensions, performs the selected
// key exchange, derives the master secret and session keys, and verifies
// the peer's Finished message.
//
// # Quick Start
//
// Dial a server and run a handshake:
//
//	conn, _ := net.Dial("tcp", "example.com:443")
//	record := recordlayer.NewStream(conn, constants.VersionTLS12)
//	ctx, _ := handshake.NewBuilder(record,
//		handshake.WithServerName("example.com"),
//	).Build()
//	defer ctx.Close()
//
//	if err := ctx.Run(); err != nil {
//		log.Fatal(err)
//	}
//	sess := ctx.Session // frozen negotiation result for the record layer
//
// Callers driving their own event loop call ctx.Step() instead of Run;
// a step that cannot make progress returns ErrWouldBlock with all state
// preserved, so the same call can be retried once input is available.
//
// # Package Structure
//
//   - pkg/handshake: the handshake state machine driver and ClientBuilder
//   - pkg/wire: bounded readers/writers for TLS wire primitives
//   - pkg/ext: ClientHello extension encoders and ServerHello validators
//   - pkg/ciphersuite: cipher suite capability records
//   - pkg/kex: per-strategy key-exchange parsing, verification, derivation
//   - pkg/transcript: transcript hash, TLS 1.2 PRF, key schedule
//   - pkg/recordlayer, pkg/cryptoprovider, pkg/certstore, pkg/rng:
//     collaborator seams with stdlib-backed reference implementations
//   - internal/session: frozen Session plus encrypted ticket sealing
//   - internal/telemetry: structured logging, tracing, Prometheus metrics
package tls12hs
