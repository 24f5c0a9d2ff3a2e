// Package ext implements the Extension Registry: encoders
// for the extensions this client offers in ClientHello, and decoders that
// validate the extensions a server selects in ServerHello.
package ext

import (
	"github.com/nimbustls/tls12hs/internal/constants"
	qerrors "github.com/nimbustls/tls12hs/internal/errors"
	"github.com/nimbustls/tls12hs/pkg/wire"
)

// SigHashPair is one entry of the signature_algorithms extension.
type SigHashPair struct {
	Hash constants.HashAlgorithm
	Sig  constants.SignatureAlgorithm
}

// Offer captures which extensions this client sends and their payload.
// Each extension is emitted conditionally on its own predicate, in a
// fixed order.
type Offer struct {
	ServerName          string // offered when non-empty
	MaxFragmentLength   constants.MaxFragmentLengthCode
	TruncatedHMAC       bool
	Curves              []constants.NamedCurve // offered when non-empty
	SignatureAlgorithms []SigHashPair           // offered for TLS 1.2
	ALPNProtocols       []string                // offered when non-empty
	SessionTicketOffer  bool                    // offer the extension at all
	SessionTicket       []byte                  // existing ticket, may be empty
	SecureRenegotiation bool
	OwnVerifyData       []byte // empty on initial handshake
}

func writeExtHeader(w *wire.Writer, typ constants.ExtensionType, bodyLen int) {
	w.PutUint16(uint16(typ))
	w.PutUint16(uint16(bodyLen))
}

// EncodeAll writes the body of the ClientHello extensions block (i.e.
// everything after the block's own 2-byte outer length, which the caller
// back-patches via MessageBuilder).
func EncodeAll(w *wire.Writer, o Offer) {
	if o.ServerName != "" {
		// ServerNameList: ServerName{name_type(1)=host_name, HostName<1..2^16-1>}
		nameLen := len(o.ServerName)
		listLen := nameLen + 3 // 1 byte type + 2 byte host name length
		writeExtHeader(w, constants.ExtServerName, 2+listLen)
		w.PutUint16(uint16(listLen))
		w.PutUint8(0) // host_name
		w.PutOpaque16([]byte(o.ServerName))
	}

	if o.MaxFragmentLength != constants.MaxFragmentLengthNone {
		writeExtHeader(w, constants.ExtMaxFragmentLength, 1)
		w.PutUint8(uint8(o.MaxFragmentLength))
	}

	if o.TruncatedHMAC {
		writeExtHeader(w, constants.ExtTruncatedHMAC, 0)
	}

	if len(o.Curves) > 0 {
		writeExtHeader(w, constants.ExtSupportedEllipticCurv, 2+2*len(o.Curves))
		w.PutUint16(uint16(2 * len(o.Curves)))
		for _, c := range o.Curves {
			w.PutUint16(uint16(c))
		}
		// ec_point_formats always accompanies supported_elliptic_curves.
		writeExtHeader(w, constants.ExtECPointFormats, 2)
		w.PutUint8(1)
		w.PutUint8(uint8(constants.ECPointFormatUncompressed))
	}

	if len(o.SignatureAlgorithms) > 0 {
		body := 2 * len(o.SignatureAlgorithms)
		writeExtHeader(w, constants.ExtSignatureAlgorithms, 2+body)
		w.PutUint16(uint16(body))
		for _, p := range o.SignatureAlgorithms {
			w.PutUint8(uint8(p.Hash))
			w.PutUint8(uint8(p.Sig))
		}
	}

	if len(o.ALPNProtocols) > 0 {
		listLen := 0
		for _, p := range o.ALPNProtocols {
			listLen += 1 + len(p)
		}
		writeExtHeader(w, constants.ExtALPN, 2+listLen)
		w.PutUint16(uint16(listLen))
		for _, p := range o.ALPNProtocols {
			w.PutOpaque8([]byte(p))
		}
	}

	if o.SessionTicketOffer {
		writeExtHeader(w, constants.ExtSessionTicket, len(o.SessionTicket))
		w.PutBytes(o.SessionTicket)
	}

	if o.SecureRenegotiation {
		writeExtHeader(w, constants.ExtRenegotiationInfo, 1+len(o.OwnVerifyData))
		w.PutOpaque8(o.OwnVerifyData)
	}
}

// ServerExtensions holds the validated subset of extensions the server
// selected, after decode-time checks against what the client offered.
type ServerExtensions struct {
	MaxFragmentLengthAck    bool
	TruncatedHMACAck        bool
	ALPNSelected            string
	SessionTicketAck        bool
	RenegotiationVerifyData []byte // non-nil iff renegotiation_info was present
}

// DecodeAll parses a ServerHello extensions block (the caller has already
// consumed the block's own 2-byte outer length and handed us exactly that
// many bytes). offered lists the extension types the client sent; any
// type the server returns that was not offered is fatal. Duplicate
// extension types are rejected; unknown types are ignored.
func DecodeAll(body []byte, offered map[constants.ExtensionType]bool) (*ServerExtensions, error) {
	r := wire.NewReader(body)
	out := &ServerExtensions{}
	seen := map[constants.ExtensionType]bool{}

	for !r.Done() {
		typU, err := r.Uint16("extension_type")
		if err != nil {
			return nil, err
		}
		typ := constants.ExtensionType(typU)
		extBody, err := r.Opaque16(0, 65535, "extension_data")
		if err != nil {
			return nil, err
		}

		if seen[typ] {
			return nil, qerrors.ErrBadServerHello
		}
		seen[typ] = true

		switch typ {
		case constants.ExtRenegotiationInfo:
			// Accepted without an explicit offer: the SCSV in the cipher
			// suite list counts as offering it (RFC 5746 §3.4).
		case constants.ExtServerName, constants.ExtMaxFragmentLength,
			constants.ExtTruncatedHMAC, constants.ExtSupportedEllipticCurv,
			constants.ExtECPointFormats, constants.ExtSignatureAlgorithms,
			constants.ExtALPN, constants.ExtSessionTicket:
			if !offered[typ] {
				return nil, qerrors.ErrBadServerHello
			}
		default:
			// Unknown extension types are ignored regardless of offer.
			continue
		}

		switch typ {
		case constants.ExtMaxFragmentLength:
			if len(extBody) != 1 {
				return nil, qerrors.NewDecodeError(qerrors.DecodeLengthMismatch, "max_fragment_length")
			}
			out.MaxFragmentLengthAck = true
		case constants.ExtTruncatedHMAC:
			if len(extBody) != 0 {
				return nil, qerrors.NewDecodeError(qerrors.DecodeLengthMismatch, "truncated_hmac")
			}
			out.TruncatedHMACAck = true
		case constants.ExtALPN:
			proto, err := decodeALPNResponse(extBody)
			if err != nil {
				return nil, err
			}
			out.ALPNSelected = proto
		case constants.ExtSessionTicket:
			if len(extBody) != 0 {
				return nil, qerrors.NewDecodeError(qerrors.DecodeLengthMismatch, "session_ticket")
			}
			out.SessionTicketAck = true
		case constants.ExtRenegotiationInfo:
			vd, err := decodeRenegotiationInfo(extBody)
			if err != nil {
				return nil, err
			}
			out.RenegotiationVerifyData = vd
		}
	}
	return out, nil
}

func decodeALPNResponse(body []byte) (string, error) {
	r := wire.NewReader(body)
	list, err := r.Opaque16(2, 65535, "protocol_name_list")
	if err != nil {
		return "", err
	}
	if err := r.RequireExhausted("protocol_name_list"); err != nil {
		return "", err
	}
	lr := wire.NewReader(list)
	proto, err := lr.Opaque8(1, 255, "protocol_name")
	if err != nil {
		return "", err
	}
	if !lr.Done() {
		// ServerHello's ALPN extension must select exactly one protocol.
		return "", qerrors.ErrBadServerHello
	}
	return string(proto), nil
}

func decodeRenegotiationInfo(body []byte) ([]byte, error) {
	r := wire.NewReader(body)
	vd, err := r.Opaque8(0, 255, "renegotiated_connection")
	if err != nil {
		return nil, err
	}
	if err := r.RequireExhausted("renegotiated_connection"); err != nil {
		return nil, err
	}
	return vd, nil
}

// OfferedTypes derives the set of extension types implied by o, for use
// by DecodeAll's "was this offered" check.
func OfferedTypes(o Offer) map[constants.ExtensionType]bool {
	out := map[constants.ExtensionType]bool{}
	if o.ServerName != "" {
		out[constants.ExtServerName] = true
	}
	if o.MaxFragmentLength != constants.MaxFragmentLengthNone {
		out[constants.ExtMaxFragmentLength] = true
	}
	if o.TruncatedHMAC {
		out[constants.ExtTruncatedHMAC] = true
	}
	if len(o.Curves) > 0 {
		out[constants.ExtSupportedEllipticCurv] = true
		out[constants.ExtECPointFormats] = true
	}
	if len(o.SignatureAlgorithms) > 0 {
		out[constants.ExtSignatureAlgorithms] = true
	}
	if len(o.ALPNProtocols) > 0 {
		out[constants.ExtALPN] = true
	}
	if o.SessionTicketOffer {
		out[constants.ExtSessionTicket] = true
	}
	if o.SecureRenegotiation {
		out[constants.ExtRenegotiationInfo] = true
	}
	return out
}
