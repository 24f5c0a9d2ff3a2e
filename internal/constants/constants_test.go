package constants

import "testing"

func TestProtocolVersionString(t *testing.T) {
	tests := []struct {
		v    ProtocolVersion
		want string
	}{
		{VersionTLS10, "TLS 1.0"},
		{VersionTLS11, "TLS 1.1"},
		{VersionTLS12, "TLS 1.2"},
		{ProtocolVersion{3, 9}, "unknown TLS version"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestProtocolVersionLess(t *testing.T) {
	if !VersionTLS11.Less(VersionTLS12) {
		t.Errorf("expected TLS1.1 < TLS1.2")
	}
	if VersionTLS12.Less(VersionTLS11) {
		t.Errorf("expected TLS1.2 not < TLS1.1")
	}
	if VersionTLS12.Less(VersionTLS12) {
		t.Errorf("expected TLS1.2 not < itself")
	}
}

func TestProtocolVersionUint16(t *testing.T) {
	if got, want := VersionTLS12.Uint16(), uint16(0x0303); got != want {
		t.Errorf("Uint16() = 0x%04x, want 0x%04x", got, want)
	}
}

func TestMaxFragmentLengthBytes(t *testing.T) {
	tests := []struct {
		code MaxFragmentLengthCode
		want int
	}{
		{MaxFragmentLengthNone, 0},
		{MaxFragmentLength512, 512},
		{MaxFragmentLength1024, 1024},
		{MaxFragmentLength2048, 2048},
		{MaxFragmentLength4096, 4096},
		{MaxFragmentLengthCode(99), 0},
	}
	for _, tt := range tests {
		if got := tt.code.Bytes(); got != tt.want {
			t.Errorf("%v.Bytes() = %d, want %d", tt.code, got, tt.want)
		}
	}
}
