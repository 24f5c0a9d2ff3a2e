package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	qerrors "github.com/nimbustls/tls12hs/internal/errors"
)

const ticketPlaintextLen = 1 + 2 + 48 + 8 // version, cipher suite id, master secret, created_at unix

// TicketPayload is the resumable state sealed into a NewSessionTicket
// (RFC 5077 §3.3), serialized to a fixed layout before encryption.
type TicketPayload struct {
	Version       uint8
	CipherSuiteID uint16
	MasterSecret  []byte
	CreatedAt     time.Time
}

// TicketManager seals and opens session tickets with a rotating master
// key, expanding a fresh AEAD key per operation via HKDF-SHA256 so every
// ticket is encrypted under an independent key even before rotation.
type TicketManager struct {
	mu          sync.RWMutex
	currentKey  []byte
	previousKey []byte
	lifetime    time.Duration
}

// NewTicketManager creates a manager sealing tickets under masterKey
// (32 bytes) with the given validity lifetime (0 defaults to 24h).
func NewTicketManager(masterKey []byte, lifetime time.Duration) (*TicketManager, error) {
	if len(masterKey) != 32 {
		return nil, qerrors.ErrInternal
	}
	if lifetime == 0 {
		lifetime = 24 * time.Hour
	}
	return &TicketManager{currentKey: masterKey, lifetime: lifetime}, nil
}

// RotateKey replaces the active key, demoting the prior one so tickets
// issued just before rotation still decrypt.
func (tm *TicketManager) RotateKey(newKey []byte) error {
	if len(newKey) != 32 {
		return qerrors.ErrInternal
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.previousKey = tm.currentKey
	tm.currentKey = newKey
	return nil
}

// Seal encrypts p into an opaque ticket blob.
func (tm *TicketManager) Seal(p TicketPayload) ([]byte, error) {
	tm.mu.RLock()
	key := tm.currentKey
	tm.mu.RUnlock()

	plaintext := make([]byte, ticketPlaintextLen)
	plaintext[0] = p.Version
	binary.BigEndian.PutUint16(plaintext[1:3], p.CipherSuiteID)
	copy(plaintext[3:51], p.MasterSecret)
	binary.BigEndian.PutUint64(plaintext[51:59], uint64(p.CreatedAt.Unix()))

	aead, nonce, err := deriveAEAD(key)
	if err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, ct...), nil
}

// Open decrypts and validates a ticket blob, trying the current key and
// then the previous one (so a rotation mid-flight does not reject
// recently issued tickets), and rejects expired tickets.
func (tm *TicketManager) Open(blob []byte) (*TicketPayload, error) {
	tm.mu.RLock()
	current, previous, lifetime := tm.currentKey, tm.previousKey, tm.lifetime
	tm.mu.RUnlock()

	p, err := openWithKey(blob, current)
	if err != nil && previous != nil {
		p, err = openWithKey(blob, previous)
	}
	if err != nil {
		return nil, qerrors.ErrBadTicket
	}
	if time.Since(p.CreatedAt) > lifetime {
		return nil, qerrors.ErrBadTicket
	}
	return p, nil
}

func openWithKey(blob, key []byte) (*TicketPayload, error) {
	if len(blob) < chacha20poly1305.NonceSize {
		return nil, qerrors.ErrBadTicket
	}
	nonce, ct := blob[:chacha20poly1305.NonceSize], blob[chacha20poly1305.NonceSize:]
	aeadKey, err := expandKey(key, nonce)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(aeadKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, qerrors.ErrBadTicket
	}
	if len(plaintext) != ticketPlaintextLen {
		return nil, qerrors.ErrBadTicket
	}
	return &TicketPayload{
		Version:       plaintext[0],
		CipherSuiteID: binary.BigEndian.Uint16(plaintext[1:3]),
		MasterSecret:  append([]byte(nil), plaintext[3:51]...),
		CreatedAt:     time.Unix(int64(binary.BigEndian.Uint64(plaintext[51:59])), 0),
	}, nil
}

// deriveAEAD picks a fresh random nonce and expands the matching AEAD
// key from masterKey via HKDF, keyed on the nonce so every ticket uses
// an independent key even under the same master key.
func deriveAEAD(masterKey []byte) (aead cipher.AEAD, nonce []byte, err error) {
	nonce = make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, qerrors.ErrInternal
	}
	key, err := expandKey(masterKey, nonce)
	if err != nil {
		return nil, nil, err
	}
	aead, err = chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, err
	}
	return aead, nonce, nil
}

func expandKey(masterKey, nonce []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, masterKey, nonce, []byte("tls12hs session ticket"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, qerrors.ErrInternal
	}
	return key, nil
}
