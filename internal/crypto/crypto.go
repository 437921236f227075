// Package crypto implements the session key exchange and per-packet AEAD
// used once a connection has passed the protocol handshake.
//
// Key exchange: X25519 (Curve25519 ECDH). Client and server each generate an
// ephemeral key pair for the session and exchange public keys in the
// CryptoHandshakeStart / CryptoHandshakeResponse packets.
//
// Key derivation: HKDF-SHA256 over the ECDH shared secret, producing two
// independent keys — one per direction — so a packet captured on one
// direction can never be replayed back on the other.
//
// Encryption: XChaCha20-Poly1305. The extended 24-byte nonce lets the nonce
// be built directly from a monotonic counter with no risk of ever repeating
// within a session's lifetime, unlike plain ChaCha20-Poly1305's 12-byte
// nonce which would need careful counter/random composition at this volume
// of packets.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const (
	KeySize   = chacha20poly1305.KeySize  // 32
	NonceSize = chacha20poly1305.NonceSizeX // 24, for XChaCha20-Poly1305

	Curve25519KeySize = 32

	hkdfInfoClient = "globed2-sub001 client-to-server"
	hkdfInfoServer = "globed2-sub001 server-to-client"
	hkdfSalt       = "globed2-sub001-v1-salt"
)

var ErrZeroSharedSecret = errors.New("crypto: ECDH shared secret is all-zero (low-order point)")

// ErrReplay is returned by Decrypt when the supplied counter is not
// strictly greater than the last one accepted for this direction.
var ErrReplay = errors.New("crypto: non-monotonic nonce counter")

type KeyPair struct {
	PrivateKey [Curve25519KeySize]byte
	PublicKey  [Curve25519KeySize]byte
}

func GenerateKeyPair() (*KeyPair, error) {
	kp := &KeyPair{}
	if _, err := rand.Read(kp.PrivateKey[:]); err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}
	kp.PrivateKey[0] &= 248
	kp.PrivateKey[31] &= 127
	kp.PrivateKey[31] |= 64

	pub, err := curve25519.X25519(kp.PrivateKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("compute public key: %w", err)
	}
	copy(kp.PublicKey[:], pub)
	return kp, nil
}

// ComputeSharedSecret runs X25519 ECDH between our private key and the
// peer's public key, rejecting the all-zero result a low-order input point
// would produce.
func ComputeSharedSecret(myPrivate, theirPublic [Curve25519KeySize]byte) ([Curve25519KeySize]byte, error) {
	var shared [Curve25519KeySize]byte

	result, err := curve25519.X25519(myPrivate[:], theirPublic[:])
	if err != nil {
		return shared, fmt.Errorf("ECDH: %w", err)
	}

	var zero [Curve25519KeySize]byte
	allZero := true
	for i, b := range result {
		if b != zero[i] {
			allZero = false
			break
		}
	}
	if allZero {
		return shared, ErrZeroSharedSecret
	}

	copy(shared[:], result)
	return shared, nil
}

// SessionKeys holds the two directional AEAD ciphers for a session, plus
// the monotonic nonce counters for each direction.
type SessionKeys struct {
	sendCipher *directionalCipher
	recvCipher *directionalCipher
}

type directionalCipher struct {
	aead    interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
	counter uint64 // next nonce to use (send) or one past the last nonce accepted (recv)
}

// DeriveSessionKeys derives the two directional keys from the ECDH shared
// secret and builds their XChaCha20-Poly1305 ciphers. isClient selects
// which derived key is this side's send key vs. recv key.
func DeriveSessionKeys(sharedSecret [Curve25519KeySize]byte, isClient bool) (*SessionKeys, error) {
	clientToServerKey := make([]byte, KeySize)
	serverToClientKey := make([]byte, KeySize)

	salt := []byte(hkdfSalt)

	r := hkdf.New(sha256.New, sharedSecret[:], salt, []byte(hkdfInfoClient))
	if _, err := io.ReadFull(r, clientToServerKey); err != nil {
		return nil, fmt.Errorf("derive client-to-server key: %w", err)
	}

	r = hkdf.New(sha256.New, sharedSecret[:], salt, []byte(hkdfInfoServer))
	if _, err := io.ReadFull(r, serverToClientKey); err != nil {
		return nil, fmt.Errorf("derive server-to-client key: %w", err)
	}

	var sendKey, recvKey []byte
	if isClient {
		sendKey, recvKey = clientToServerKey, serverToClientKey
	} else {
		sendKey, recvKey = serverToClientKey, clientToServerKey
	}

	sendAEAD, err := chacha20poly1305.NewX(sendKey)
	if err != nil {
		return nil, fmt.Errorf("create send cipher: %w", err)
	}
	recvAEAD, err := chacha20poly1305.NewX(recvKey)
	if err != nil {
		return nil, fmt.Errorf("create recv cipher: %w", err)
	}

	return &SessionKeys{
		sendCipher: &directionalCipher{aead: sendAEAD},
		recvCipher: &directionalCipher{aead: recvAEAD},
	}, nil
}

// buildNonce lays the 64-bit counter into the low 8 bytes of the 24-byte
// XChaCha20-Poly1305 nonce; the high 16 bytes stay zero, since uniqueness
// is already guaranteed by the counter never repeating within a session.
func buildNonce(counter uint64) []byte {
	nonce := make([]byte, NonceSize)
	for i := 0; i < 8; i++ {
		nonce[NonceSize-1-i] = byte(counter >> (8 * i))
	}
	return nonce
}

// Encrypt seals payload under the next send nonce, authenticating
// additionalData (the packet header) without encrypting it. Returns
// `nonce || ciphertext || tag`.
func (sk *SessionKeys) Encrypt(payload, additionalData []byte) []byte {
	counter := atomic.AddUint64(&sk.sendCipher.counter, 1) - 1
	nonce := buildNonce(counter)
	sealed := sk.sendCipher.aead.Seal(nil, nonce, payload, additionalData)
	return append(nonce, sealed...)
}

// Decrypt splits `nonce || ciphertext || tag`, verifies the embedded
// counter is strictly greater than the last one accepted on this
// direction, and opens the AEAD box. The counter check and the open happen
// in that order so a forged/replayed nonce is rejected before any
// decryption work is attempted.
func (sk *SessionKeys) Decrypt(framed, additionalData []byte) ([]byte, error) {
	if len(framed) < NonceSize {
		return nil, fmt.Errorf("crypto: frame shorter than nonce (%d bytes)", len(framed))
	}
	nonce := framed[:NonceSize]
	ciphertext := framed[NonceSize:]

	var counter uint64
	for i := 0; i < 8; i++ {
		counter |= uint64(nonce[NonceSize-1-i]) << (8 * i)
	}

	last := atomic.LoadUint64(&sk.recvCipher.counter)
	if counter < last {
		return nil, ErrReplay
	}

	plaintext, err := sk.recvCipher.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt: authentication failed")
	}

	atomic.StoreUint64(&sk.recvCipher.counter, counter+1)
	return plaintext, nil
}
