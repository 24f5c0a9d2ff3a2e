package handshake

import (
	"fmt"
	"time"

	"github.com/nimbustls/tls12hs/internal/session"
	"github.com/nimbustls/tls12hs/internal/telemetry"
)

// flushBuffers pushes any buffered output to the transport before the
// handshake is considered durably complete.
func (ctx *HandshakeContext) flushBuffers() error {
	if err := ctx.record.FlushOutput(); err != nil {
		return err
	}
	ctx.State = StateHandshakeWrapup
	return nil
}

// wrapup freezes the negotiated state into a Session for the record
// layer and marks the handshake done.
func (ctx *HandshakeContext) wrapup() error {
	var chain [][]byte
	if ctx.Negotiation.PeerCert != nil {
		for _, c := range ctx.Negotiation.PeerCert.Chain {
			chain = append(chain, c.Raw)
		}
	}

	ctx.Session = &session.Session{
		ProtocolVersion: ctx.VersionSelected,
		CipherSuiteID:   ctx.Negotiation.Suite.ID,
		Compression:     ctx.Negotiation.Compression,

		MasterSecret: ctx.MasterSecret,
		ClientRandom: ctx.ClientRandom,
		ServerRandom: ctx.ServerRandom,

		SessionID:      ctx.Negotiation.SessionID,
		Ticket:         ctx.Negotiation.SessionTicket,
		TicketLifetime: ctx.Negotiation.TicketLifetime,

		PeerCertChain: chain,
		ALPN:          ctx.Negotiation.ALPN,

		StartTime: time.Now(),

		OwnVerifyData:  ctx.Negotiation.OwnVerifyData,
		PeerVerifyData: ctx.Negotiation.PeerVerifyData,

		TruncatedHMAC:     ctx.Negotiation.TruncatedHMAC,
		MaxFragmentLength: ctx.Negotiation.MaxFragmentLength,
	}

	ctx.metrics.HandshakesCompleted.WithLabelValues(fmt.Sprintf("%t", ctx.Negotiation.Resume)).Inc()
	if !ctx.startedAt.IsZero() {
		ctx.metrics.HandshakeDuration.Observe(time.Since(ctx.startedAt).Seconds())
	}
	ctx.log.Info("handshake complete", telemetry.Fields{
		"version":      ctx.VersionSelected.String(),
		"cipher_suite": ctx.Negotiation.Suite.Name,
		"resumed":      ctx.Negotiation.Resume,
		"alpn":         ctx.Negotiation.ALPN,
	})

	ctx.State = StateHandshakeOver
	return nil
}
