package handshake

import (
	"errors"

	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/internal/telemetry"
)

// alertFor maps a fatal error to the TLS Alert the driver attempts to
// send before terminating.
func alertFor(err error) constants.AlertDescription {
	var de *qerrors.DecodeError
	if errors.As(err, &de) {
		return constants.AlertDecodeError
	}
	var he *qerrors.HandshakeError
	if errors.As(err, &he) && he.Alert != 0 {
		return constants.AlertDescription(he.Alert)
	}

	switch {
	case errors.Is(err, qerrors.ErrUnexpectedMessage):
		return constants.AlertUnexpectedMessage
	case errors.Is(err, qerrors.ErrBadFinished):
		return constants.AlertDecryptError
	case errors.Is(err, qerrors.ErrUnsupportedProtocol):
		return constants.AlertProtocolVersion
	case errors.Is(err, qerrors.ErrUnsupportedCiphersuite),
		errors.Is(err, qerrors.ErrUnsupportedCurve),
		errors.Is(err, qerrors.ErrUnsupportedSigAlg):
		return constants.AlertHandshakeFailure
	case errors.Is(err, qerrors.ErrBadCertificate):
		return constants.AlertBadCertificate
	case errors.Is(err, qerrors.ErrWrongPubkeyAlgo):
		return constants.AlertIllegalParameter
	case errors.Is(err, qerrors.ErrBadTicket):
		return constants.AlertDecryptError
	case errors.Is(err, qerrors.ErrNoSecretKey), errors.Is(err, qerrors.ErrNoSharedCipher):
		return constants.AlertHandshakeFailure
	case errors.Is(err, qerrors.ErrInternal):
		return constants.AlertInternalError
	case errors.Is(err, qerrors.ErrBadClientHello),
		errors.Is(err, qerrors.ErrBadServerHello),
		errors.Is(err, qerrors.ErrBadServerKex),
		errors.Is(err, qerrors.ErrBadCertificateMsg),
		errors.Is(err, qerrors.ErrBadCertRequest),
		errors.Is(err, qerrors.ErrBadServerHelloDone):
		return constants.AlertHandshakeFailure
	default:
		return constants.AlertHandshakeFailure
	}
}

// fail transitions ctx to StateFailed, records err, and best-effort
// sends the mapped Alert (a send failure here is not itself escalated —
// the connection is already being torn down).
func (ctx *HandshakeContext) fail(err error) error {
	failedAt := ctx.State
	ctx.State = StateFailed
	ctx.Err = err
	alert := alertFor(err)
	ctx.PendingAlert = alert
	ctx.hasAlert = true

	ctx.log.Warn("handshake aborted", telemetry.Fields{
		"state": failedAt.String(), "alert": alert.String(), "err": err,
	})
	ctx.metrics.HandshakesFailed.WithLabelValues(failedAt.String()).Inc()
	ctx.metrics.AlertsSent.WithLabelValues(alert.String()).Inc()
	var de *qerrors.DecodeError
	if errors.As(err, &de) {
		ctx.metrics.DecodeErrors.WithLabelValues(de.Kind.String()).Inc()
	}

	body := []byte{byte(constants.AlertLevelFatal), byte(alert)}
	_ = ctx.record.WriteRecord(constants.ContentTypeAlert, body)
	_ = ctx.record.FlushOutput()
	return err
}
