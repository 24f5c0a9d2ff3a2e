// Package ciphersuite replaces dispatch-by-integer-ciphersuite-id with a
// capability record per suite: the driver and
// the key-exchange engine branch on a CipherSuite's fields, not on its
// 16-bit wire id.
package ciphersuite

import "github.com/nimbustls/tls12hs/internal/constants"

// KexAlgorithm identifies the key-exchange strategy a suite uses.
type KexAlgorithm int

const (
	KexRSA KexAlgorithm = iota
	KexDHE_RSA
	KexDHE_PSK
	KexECDHE_RSA
	KexECDHE_ECDSA
	KexECDHE_PSK
	KexECDH_RSA
	KexECDH_ECDSA
	KexPSK
	KexRSA_PSK
)

func (k KexAlgorithm) String() string {
	names := [...]string{"RSA", "DHE_RSA", "DHE_PSK", "ECDHE_RSA", "ECDHE_ECDSA",
		"ECDHE_PSK", "ECDH_RSA", "ECDH_ECDSA", "PSK", "RSA_PSK"}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// IsEphemeral reports whether the strategy sends a signed/unsigned
// ServerKeyExchange carrying fresh key material (as opposed to reading
// static parameters from the certificate, or none at all for plain PSK).
func (k KexAlgorithm) IsEphemeral() bool {
	switch k {
	case KexDHE_RSA, KexDHE_PSK, KexECDHE_RSA, KexECDHE_ECDSA, KexECDHE_PSK:
		return true
	default:
		return false
	}
}

// IsSigned reports whether the ServerKeyExchange for this strategy
// carries a signature over {client_random, server_random, params}.
func (k KexAlgorithm) IsSigned() bool {
	switch k {
	case KexDHE_RSA, KexECDHE_RSA, KexECDHE_ECDSA:
		return true
	default:
		return false
	}
}

// UsesPSK reports whether ClientKeyExchange must carry a psk_identity.
func (k KexAlgorithm) UsesPSK() bool {
	switch k {
	case KexDHE_PSK, KexECDHE_PSK, KexPSK, KexRSA_PSK:
		return true
	default:
		return false
	}
}

// RequiresCertificate reports whether the strategy needs a peer
// certificate to obtain a public key (all except PSK, DHE_PSK and
// ECDHE_PSK).
func (k KexAlgorithm) RequiresCertificate() bool {
	return k != KexPSK && k != KexDHE_PSK && k != KexECDHE_PSK
}

// SigAlgorithm identifies the signature algorithm the ServerKeyExchange
// (or CertificateVerify) must carry for this suite.
type SigAlgorithm int

const (
	SigNone SigAlgorithm = iota
	SigRSA
	SigECDSA
)

// BulkCipher identifies the record-layer symmetric cipher; exposed here
// only to complete the capability record the session hands the record
// layer — this module never executes the cipher itself.
type BulkCipher int

const (
	CipherAES128CBC BulkCipher = iota
	CipherAES256CBC
	CipherAES128GCM
	CipherAES256GCM
)

// KeyLen returns the bulk cipher's key length in bytes.
func (c BulkCipher) KeyLen() int {
	switch c {
	case CipherAES128CBC, CipherAES128GCM:
		return 16
	default:
		return 32
	}
}

// IsAEAD reports whether the bulk cipher is an AEAD mode (GCM) as opposed
// to CBC, which additionally needs a separate MAC key.
func (c BulkCipher) IsAEAD() bool {
	return c == CipherAES128GCM || c == CipherAES256GCM
}

// MACAlgorithm identifies the MAC used by CBC suites, and (independently
// of the bulk cipher) the PRF/transcript hash family for GCM suites.
type MACAlgorithm int

const (
	MACNone MACAlgorithm = iota // AEAD suites authenticate via the cipher itself
	MACSHA1
	MACSHA256
	MACSHA384
)

// Size returns the MAC output length in bytes, or 0 for MACNone.
func (m MACAlgorithm) Size() int {
	switch m {
	case MACSHA1:
		return 20
	case MACSHA256:
		return 32
	case MACSHA384:
		return 48
	default:
		return 0
	}
}

// PRFHash returns the hash family TLS 1.2's PRF must use for this suite
// (RFC 5246 §7.4.9, as refined per-suite by RFC 5289 etc.): SHA-384 for
// suites whose MAC is SHA-384, SHA-256 otherwise.
func (m MACAlgorithm) PRFHash() MACAlgorithm {
	if m == MACSHA384 {
		return MACSHA384
	}
	return MACSHA256
}

// CipherSuite is the capability record a cipher-suite id expands to.
// The driver and pkg/kex dispatch on these fields, never on ID directly.
type CipherSuite struct {
	ID         uint16
	Name       string
	Kex        KexAlgorithm
	Sig        SigAlgorithm
	Cipher     BulkCipher
	MAC        MACAlgorithm
	MinVersion constants.ProtocolVersion
	MaxVersion constants.ProtocolVersion
}

// FixedIVLen returns the IV length carved out of the key block for the
// record layer: the 4-byte implicit salt for GCM (RFC 5288), the block
// size for CBC. TLS 1.1+ CBC records carry an explicit per-record IV
// (RFC 5246 §6.2.3.2), so a record layer targeting those versions may
// leave the CBC key-block IV bytes unused.
func (s CipherSuite) FixedIVLen() int {
	if s.Cipher.IsAEAD() {
		return 4
	}
	return 16
}

// SupportsVersion reports whether v falls within the suite's version range.
func (s CipherSuite) SupportsVersion(v constants.ProtocolVersion) bool {
	return !v.Less(s.MinVersion) && !s.MaxVersion.Less(v)
}

// table is the fixed set of suites this module negotiates, at least one
// entry per supported key-exchange strategy.
var table = []CipherSuite{
	{0x002F, "TLS_RSA_WITH_AES_128_CBC_SHA", KexRSA, SigNone, CipherAES128CBC, MACSHA1, constants.VersionTLS10, constants.VersionTLS12},
	{0x003C, "TLS_RSA_WITH_AES_128_CBC_SHA256", KexRSA, SigNone, CipherAES128CBC, MACSHA256, constants.VersionTLS12, constants.VersionTLS12},
	{0x009E, "TLS_DHE_RSA_WITH_AES_128_GCM_SHA256", KexDHE_RSA, SigRSA, CipherAES128GCM, MACSHA256, constants.VersionTLS12, constants.VersionTLS12},
	{0x009F, "TLS_DHE_RSA_WITH_AES_256_GCM_SHA384", KexDHE_RSA, SigRSA, CipherAES256GCM, MACSHA384, constants.VersionTLS12, constants.VersionTLS12},
	{0xC02F, "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", KexECDHE_RSA, SigRSA, CipherAES128GCM, MACSHA256, constants.VersionTLS12, constants.VersionTLS12},
	{0xC030, "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384", KexECDHE_RSA, SigRSA, CipherAES256GCM, MACSHA384, constants.VersionTLS12, constants.VersionTLS12},
	{0xC02B, "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256", KexECDHE_ECDSA, SigECDSA, CipherAES128GCM, MACSHA256, constants.VersionTLS12, constants.VersionTLS12},
	{0xC02C, "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384", KexECDHE_ECDSA, SigECDSA, CipherAES256GCM, MACSHA384, constants.VersionTLS12, constants.VersionTLS12},
	{0xC00E, "TLS_ECDH_RSA_WITH_AES_128_CBC_SHA", KexECDH_RSA, SigNone, CipherAES128CBC, MACSHA1, constants.VersionTLS10, constants.VersionTLS12},
	{0xC004, "TLS_ECDH_ECDSA_WITH_AES_128_CBC_SHA", KexECDH_ECDSA, SigNone, CipherAES128CBC, MACSHA1, constants.VersionTLS10, constants.VersionTLS12},
	{0x008C, "TLS_PSK_WITH_AES_128_CBC_SHA", KexPSK, SigNone, CipherAES128CBC, MACSHA1, constants.VersionTLS10, constants.VersionTLS12},
	{0x0094, "TLS_RSA_PSK_WITH_AES_128_CBC_SHA", KexRSA_PSK, SigNone, CipherAES128CBC, MACSHA1, constants.VersionTLS10, constants.VersionTLS12},
	{0x0090, "TLS_DHE_PSK_WITH_AES_128_CBC_SHA", KexDHE_PSK, SigNone, CipherAES128CBC, MACSHA1, constants.VersionTLS10, constants.VersionTLS12},
	{0xC035, "TLS_ECDHE_PSK_WITH_AES_128_CBC_SHA", KexECDHE_PSK, SigNone, CipherAES128CBC, MACSHA1, constants.VersionTLS10, constants.VersionTLS12},
}

// ByID looks up the capability record for a wire id. ok is false for any
// id this module does not implement.
func ByID(id uint16) (CipherSuite, bool) {
	for _, s := range table {
		if s.ID == id {
			return s, true
		}
	}
	return CipherSuite{}, false
}

// All returns the full supported-suite table, in preference order.
func All() []CipherSuite {
	out := make([]CipherSuite, len(table))
	copy(out, table)
	return out
}

// SelectOffered returns the subset of ids (in the caller's preferred
// order) that this module can negotiate at protocol version v.
func SelectOffered(ids []uint16, v constants.ProtocolVersion) []CipherSuite {
	var out []CipherSuite
	for _, id := range ids {
		if s, ok := ByID(id); ok && s.SupportsVersion(v) {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether id appears among offered.
func Contains(offered []uint16, id uint16) bool {
	for _, o := range offered {
		if o == id {
			return true
		}
	}
	return false
}
