package handshake

import (
	"time"

	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/nimbustls/tls12hs/internal/session"
	"github.com/nimbustls/tls12hs/internal/telemetry"
	"github.com/nimbustls/tls12hs/internal/zero"
	"github.com/nimbustls/tls12hs/pkg/certstore"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/cryptoprovider"
	"github.com/nimbustls/tls12hs/pkg/ext"
	"github.com/nimbustls/tls12hs/pkg/kex"
	"github.com/nimbustls/tls12hs/pkg/recordlayer"
	"github.com/nimbustls/tls12hs/pkg/rng"
	"github.com/nimbustls/tls12hs/pkg/transcript"
)

// pendingRecord is a one-message lookahead: a state that may skip an
// optional message (ServerKeyExchange,
// CertificateRequest) peeks the next handshake record's type without
// consuming its body, and the following state either reuses it or reads
// past it.
type pendingRecord struct {
	msgType constants.HandshakeType
	body    []byte
}

// Negotiation holds everything the handshake has agreed with the peer
// so far.
type Negotiation struct {
	Suite       ciphersuite.CipherSuite
	Compression constants.CompressionMethod

	SessionID      []byte
	SessionTicket  []byte
	TicketLifetime uint32

	PeerCert *certstore.LeafPubKey
	ALPN     string

	SecureRenegotiation      bool
	TruncatedHMAC            bool
	MaxFragmentLength        constants.MaxFragmentLengthCode
	ClientAuthRequested      bool
	ClientCertMatched        bool
	NewSessionTicketExpected bool
	Resume                   bool

	OwnVerifyData  []byte
	PeerVerifyData []byte

	ServerHelloGMTUnixTime uint32 // diagnostic only, never branched on

	OfferedExtTypes map[constants.ExtensionType]bool
	ServerKexParams *kex.ServerParams

	ClientCertSent bool
}

// HandshakeContext is the single-threaded, single-connection handshake
// state a Builder assembles and Step advances.
type HandshakeContext struct {
	State State
	Reneg RenegotiationState

	cfg     Config
	record  recordlayer.RecordLayer
	crypto  cryptoprovider.Provider
	certs   certstore.Store
	rngSrc  rng.Source
	log     *telemetry.Logger
	metrics *telemetry.Metrics

	startedAt time.Time

	OfferedMin, OfferedMax constants.ProtocolVersion
	VersionSelected        constants.ProtocolVersion

	Transcript *transcript.Transcript

	ClientRandom [32]byte
	ServerRandom [32]byte

	Negotiation Negotiation

	Premaster    []byte
	MasterSecret []byte
	KeyBlock     transcript.KeyBlock

	pending *pendingRecord

	OfferedExtensions ext.Offer

	Session *session.Session

	// Err records the terminal error once State == StateFailed.
	Err error
	// PendingAlert is the AlertDescription the driver attempted to send
	// before terminating, if any.
	PendingAlert constants.AlertDescription
	hasAlert     bool
}

// Builder assembles a HandshakeContext from a Config and the four
// collaborator seams (RecordLayer is mandatory; the rest default to the
// stdlib-backed reference implementations unless overridden).
type Builder struct {
	cfg     Config
	record  recordlayer.RecordLayer
	crypto  cryptoprovider.Provider
	certs   certstore.Store
	rngSrc  rng.Source
	log     *telemetry.Logger
	metrics *telemetry.Metrics
}

// NewBuilder starts a Builder over record, applying opts to a copy of
// DefaultConfig().
func NewBuilder(record recordlayer.RecordLayer, opts ...Option) *Builder {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{cfg: cfg, record: record}
}

// WithCryptoProvider overrides the default stdlib-backed CryptoProvider.
func (b *Builder) WithCryptoProvider(p cryptoprovider.Provider) *Builder {
	b.crypto = p
	return b
}

// WithCertStore overrides the default system-root CertificateStore.
func (b *Builder) WithCertStore(s certstore.Store) *Builder {
	b.certs = s
	return b
}

// WithRNG overrides the default crypto/rand-backed RngSource.
func (b *Builder) WithRNG(r rng.Source) *Builder {
	b.rngSrc = r
	return b
}

// WithLogger overrides the process-wide default logger.
func (b *Builder) WithLogger(l *telemetry.Logger) *Builder {
	b.log = l
	return b
}

// WithMetrics overrides the process-wide default metrics.
func (b *Builder) WithMetrics(m *telemetry.Metrics) *Builder {
	b.metrics = m
	return b
}

// Build finalizes the collaborators (defaulting any not overridden) and
// returns a HandshakeContext ready for its first Step, at StateHelloRequest.
func (b *Builder) Build() (*HandshakeContext, error) {
	crypto := b.crypto
	if crypto == nil {
		crypto = cryptoprovider.New()
	}
	certs := b.certs
	if certs == nil {
		certs = certstore.New()
	}
	rngSrc := b.rngSrc
	if rngSrc == nil {
		rngSrc = rng.New()
	}
	log := b.log
	if log == nil {
		log = telemetry.GetLogger().Named("handshake")
	}
	metrics := b.metrics
	if metrics == nil {
		metrics = telemetry.GetMetrics()
	}

	ctx := &HandshakeContext{
		State:      StateHelloRequest,
		Reneg:      InitialHandshake,
		cfg:        b.cfg,
		record:     b.record,
		crypto:     crypto,
		certs:      certs,
		rngSrc:     rngSrc,
		log:        log,
		metrics:    metrics,
		OfferedMin: b.cfg.MinVersion,
		OfferedMax: b.cfg.MaxVersion,
		Transcript: transcript.New(),
	}
	return ctx, nil
}

// Close zeroizes every secret buffer still reachable from ctx. Safe to
// call on a partially-built or already-closed context.
func (ctx *HandshakeContext) Close() {
	if ctx == nil {
		return
	}
	zero.All(
		ctx.Premaster,
		ctx.MasterSecret,
		ctx.Negotiation.OwnVerifyData,
		ctx.Negotiation.PeerVerifyData,
		ctx.KeyBlock.ClientMACKey, ctx.KeyBlock.ServerMACKey,
		ctx.KeyBlock.ClientKey, ctx.KeyBlock.ServerKey,
		ctx.KeyBlock.ClientIV, ctx.KeyBlock.ServerIV,
	)
	ctx.Premaster = nil
	ctx.MasterSecret = nil
	ctx.Session.Close()
}
