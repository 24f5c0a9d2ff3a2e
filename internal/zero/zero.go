// Package zero implements the zero-on-drop discipline for secret
// buffers: premaster secrets, master secrets, and verify-data are wiped
// when replaced and when their owner is closed.
package zero

// Bytes overwrites b with zero bytes in place.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// All zeroizes every buffer in bufs.
func All(bufs ...[]byte) {
	for _, b := range bufs {
		Bytes(b)
	}
}
