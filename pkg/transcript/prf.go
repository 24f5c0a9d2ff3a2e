package transcript

import (
	"crypto/hmac"
	"hash"

	"github.com/nimbustls/tls12hs/internal/constants"
)

// pHash implements RFC 5246 §5's P_hash(secret, seed) data expansion
// function: iterated HMAC(secret, A(i) || seed), A(0) = seed,
// A(i) = HMAC(secret, A(i-1)), concatenated and truncated to length.
func pHash(newHash func() hash.Hash, secret, seed []byte, length int) []byte {
	mac := hmac.New(newHash, secret)

	a := seed
	out := make([]byte, 0, length)
	for len(out) < length {
		mac.Reset()
		mac.Write(a)
		a = mac.Sum(nil)

		mac.Reset()
		mac.Write(a)
		mac.Write(seed)
		out = append(out, mac.Sum(nil)...)
	}
	return out[:length]
}

// PRF implements the TLS 1.2 pseudo-random function (RFC 5246 §5):
// PRF(secret, label, seed) = P_hash(secret, label || seed).
func PRF(newHash func() hash.Hash, secret []byte, label string, seed []byte, length int) []byte {
	combined := append([]byte(label), seed...)
	return pHash(newHash, secret, combined, length)
}

// MasterSecret derives the 48-byte master_secret from the kex
// premaster: PRF(premaster, "master secret",
// client_random || server_random)[0..48] (RFC 5246 §8.1).
func MasterSecret(newHash func() hash.Hash, premaster, clientRandom, serverRandom []byte) []byte {
	seed := append(append([]byte{}, clientRandom...), serverRandom...)
	return PRF(newHash, premaster, "master secret", seed, constants.MasterSecretSize)
}

// ResumedMasterSecret re-derives the master secret on session resumption
// from the cached value — a no-op pass-through, named for clarity at
// call sites that branch on resumption.
func ResumedMasterSecret(cached []byte) []byte {
	out := make([]byte, len(cached))
	copy(out, cached)
	return out
}

// KeyBlock is the expanded key material from RFC 5246 §6.3's key
// expansion, sliced into its six fields for the record layer.
type KeyBlock struct {
	ClientMACKey []byte
	ServerMACKey []byte
	ClientKey    []byte
	ServerKey    []byte
	ClientIV     []byte
	ServerIV     []byte
}

// ExpandKeys computes the key block: PRF(master_secret, "key expansion",
// server_random || client_random), sliced into
// {client_mac, server_mac, client_key, server_key, client_iv, server_iv}
// per the supplied lengths (macLen may be 0 for AEAD suites).
func ExpandKeys(newHash func() hash.Hash, masterSecret, serverRandom, clientRandom []byte, macLen, keyLen, ivLen int) KeyBlock {
	seed := append(append([]byte{}, serverRandom...), clientRandom...)
	total := 2*macLen + 2*keyLen + 2*ivLen
	block := PRF(newHash, masterSecret, "key expansion", seed, total)

	off := 0
	next := func(n int) []byte {
		b := block[off : off+n]
		off += n
		return b
	}

	var kb KeyBlock
	kb.ClientMACKey = next(macLen)
	kb.ServerMACKey = next(macLen)
	kb.ClientKey = next(keyLen)
	kb.ServerKey = next(keyLen)
	kb.ClientIV = next(ivLen)
	kb.ServerIV = next(ivLen)
	return kb
}

// FinishedVerifyData computes Finished.verify_data = PRF(master_secret,
// label, Hash(transcript))[0..12], where label is "client finished" or
// "server finished" (RFC 5246 §7.4.9).
func FinishedVerifyData(newHash func() hash.Hash, masterSecret []byte, label string, transcriptHash []byte) []byte {
	return PRF(newHash, masterSecret, label, transcriptHash, constants.VerifyDataSize)
}

const (
	LabelClientFinished = "client finished"
	LabelServerFinished = "server finished"
)
